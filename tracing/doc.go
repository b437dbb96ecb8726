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

// Package tracing records one OpenTelemetry span per request served by a
// routing Router.
//
// A Tracer implements router.ObservabilityRecorder. The span is started
// before the request is resolved, named "METHOD path", and renamed to
// "METHOD <dispatch label>" once the dispatch is known, so that spans of the
// same rule group together:
//
//	tr := tracing.MustNew(
//	    tracing.WithServiceName("blog"),
//	    tracing.WithOTLP("collector:4317"),
//	)
//	if err := tr.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer tr.Shutdown(context.Background())
//
//	r := router.MustNew(router.WithObservability(tr))
//
// # Providers
//
//   - NoopProvider (default): spans are created but not exported
//   - StdoutProvider: spans are printed to stdout
//   - OTLPProvider: OTLP over gRPC
//   - OTLPHTTPProvider: OTLP over HTTP
//
// OTLP exporters dial their collector, so they are created by Start rather
// than New.
//
// # Propagation
//
// Incoming W3C trace context is extracted with the configured propagator
// (otel.GetTextMapPropagator by default), so router spans join the trace of
// the caller.
//
// # Global State
//
// New does not touch the global tracer provider unless
// WithGlobalTracerProvider is given.
package tracing
