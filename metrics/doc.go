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

// Package metrics records OpenTelemetry metrics for a routing engine.
//
// A [Recorder] is both a router.ObservabilityRecorder, which measures the
// requests served by Router.ServeHTTP, and a router.DiagnosticHandler,
// which counts registration and runtime diagnostics.
//
// # Basic Usage
//
//	rec := metrics.MustNew(
//	    metrics.WithPrometheus(":9090", "/metrics"),
//	    metrics.WithServiceName("routes"),
//	)
//	defer rec.Shutdown(context.Background())
//	if err := rec.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	r := router.MustNew(
//	    router.WithObservability(rec),
//	    router.WithDiagnostics(rec),
//	)
//
// Requests are labeled with the dispatch label of the router
// ("blog/:id", "_miss:blog", "_alias", "_not_found"), never the raw path,
// so label cardinality is bounded by the rule table.
//
// # Providers
//
//   - [PrometheusProvider] (default): pull endpoint served by Start or
//     mounted from [Recorder.Handler]
//   - [OTLPProvider]: push to an OTLP/HTTP collector
//   - [StdoutProvider]: print to stdout, for development
//
// By default the global OpenTelemetry meter provider is left alone; use
// [WithGlobalMeterProvider] to register it.
package metrics
