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

package metrics

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"rivaas.dev/routing/router"
)

var (
	_ router.ObservabilityRecorder = (*Recorder)(nil)
	_ router.DiagnosticHandler     = (*Recorder)(nil)
)

// OnRequestStart implements router.ObservabilityRecorder. Excluded paths
// return a nil state.
func (r *Recorder) OnRequestStart(ctx context.Context, req *http.Request) (context.Context, any) {
	if r.exclude.excludes(req.URL.Path) {
		return ctx, nil
	}
	return ctx, r.begin(ctx, req.Method)
}

// WrapResponseWriter implements router.ObservabilityRecorder.
func (r *Recorder) WrapResponseWriter(w http.ResponseWriter, _ any) http.ResponseWriter {
	return router.NewResponseWriter(w)
}

// OnRequestEnd implements router.ObservabilityRecorder.
func (r *Recorder) OnRequestEnd(ctx context.Context, state any, writer http.ResponseWriter, routePattern string) {
	st, ok := state.(*requestState)
	if !ok {
		return
	}
	status, size := http.StatusOK, int64(0)
	if info, ok := writer.(router.ResponseInfo); ok {
		status, size = info.StatusCode(), info.Size()
	}
	r.finish(ctx, st, status, size, routePattern)
}

// OnDiagnostic implements router.DiagnosticHandler. Every event is
// counted by kind; the frozen event also sets the rule count gauge.
func (r *Recorder) OnDiagnostic(e router.DiagnosticEvent) {
	ctx := context.Background()
	attrs := append([]attribute.KeyValue{attribute.String("routing.diagnostic", string(e.Kind))}, r.serviceAttrs...)
	r.diagnostics.Add(ctx, 1, metric.WithAttributes(attrs...))

	if e.Kind == router.DiagRulesFrozen {
		if n, ok := e.Fields["rules"].(int); ok {
			r.rules.Record(ctx, int64(n), metric.WithAttributes(r.serviceAttrs...))
		}
	}
}
