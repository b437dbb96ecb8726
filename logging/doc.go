// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logging provides the structured logger used by the routing
// engine and its tools.
//
// The logger is a thin layer over [log/slog] with functional options, three
// output formats and redaction of sensitive keys. Route parameters often
// carry tokens or passwords taken from a URL, so values logged under
// keys such as "token" or "password" are replaced before they are written.
//
// # Basic Usage
//
//	logger := logging.MustNew(logging.WithConsoleHandler())
//	logger.Info("rules loaded", "count", 42)
//
// # Router Integration
//
// [Router] returns a router option that sends registration errors, build
// warnings and diagnostic events to the logger:
//
//	logger := logging.MustNew(logging.WithJSONHandler(), logging.WithServiceName("api"))
//	r := router.MustNew(logging.Router(logger))
//
// # Trace Correlation
//
// [NewContextLogger] adds the trace and span IDs of the active OpenTelemetry
// span to every entry:
//
//	cl := logging.NewContextLogger(req.Context(), logger)
//	cl.Info("dispatch", "target", res.Dispatch.String())
package logging
