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

package tracing

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"rivaas.dev/routing/router"
)

var (
	_ router.ObservabilityRecorder = (*Tracer)(nil)
	_ router.DiagnosticHandler     = (*Tracer)(nil)
)

const attrPrefixHeader = "http.request.header."

// OnRequestStart implements router.ObservabilityRecorder. It returns a nil
// state for excluded and unsampled requests.
func (t *Tracer) OnRequestStart(ctx context.Context, req *http.Request) (context.Context, any) {
	if t.ShouldExcludePath(req.URL.Path) {
		return ctx, nil
	}
	tracer := t.otelTracer()
	if tracer == nil {
		return ctx, nil
	}
	ctx = t.ExtractTraceContext(ctx, req.Header)
	if !t.sampled() {
		return ctx, nil
	}

	attrs := make([]attribute.KeyValue, 0, 6+len(t.recordHeaders))
	attrs = append(attrs,
		attribute.String("http.request.method", req.Method),
		attribute.String("url.path", req.URL.Path),
		attribute.String("server.address", req.Host),
		attribute.String("user_agent.original", req.UserAgent()),
	)
	if req.TLS != nil {
		attrs = append(attrs, attribute.String("url.scheme", "https"))
	} else {
		attrs = append(attrs, attribute.String("url.scheme", "http"))
	}
	if t.recordQuery && req.URL.RawQuery != "" {
		attrs = append(attrs, attribute.String("url.query", req.URL.RawQuery))
	}
	for _, h := range t.recordHeaders {
		if v := req.Header.Get(h); v != "" {
			attrs = append(attrs, attribute.String(attrPrefixHeader+strings.ToLower(h), v))
		}
	}

	ctx, span := tracer.Start(ctx, req.Method+" "+req.URL.Path,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attrs...),
	)
	if t.spanStartHook != nil {
		t.spanStartHook(ctx, span, req)
	}
	return ctx, &requestState{span: span, method: req.Method}
}

type requestState struct {
	span   trace.Span
	method string
}

// WrapResponseWriter implements router.ObservabilityRecorder.
func (t *Tracer) WrapResponseWriter(w http.ResponseWriter, _ any) http.ResponseWriter {
	return router.NewResponseWriter(w)
}

// OnRequestEnd implements router.ObservabilityRecorder. The span is renamed
// after the dispatch label and gets an error status for 5xx responses.
func (t *Tracer) OnRequestEnd(_ context.Context, state any, writer http.ResponseWriter, routePattern string) {
	st, ok := state.(*requestState)
	if !ok {
		return
	}
	status, size := http.StatusOK, int64(0)
	if info, ok := writer.(router.ResponseInfo); ok {
		status, size = info.StatusCode(), info.Size()
	}

	span := st.span
	span.SetName(st.method + " " + routePattern)
	span.SetAttributes(
		attribute.String("http.route", routePattern),
		attribute.Int("http.response.status_code", status),
		attribute.Int64("http.response.body.size", size),
	)
	if status >= 500 {
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
	}
	if t.spanFinishHook != nil {
		t.spanFinishHook(span, status)
	}
	span.End()
}

// OnDiagnostic implements router.DiagnosticHandler. Each event becomes a
// "routing.diagnostic" span event on a short internal span, with the event
// fields as attributes.
func (t *Tracer) OnDiagnostic(e router.DiagnosticEvent) {
	tracer := t.otelTracer()
	if tracer == nil {
		return
	}
	attrs := make([]attribute.KeyValue, 0, 2+len(e.Fields))
	attrs = append(attrs,
		attribute.String("routing.diagnostic.kind", string(e.Kind)),
		attribute.String("routing.diagnostic.message", e.Message),
	)
	for k, v := range e.Fields {
		attrs = append(attrs, buildAttribute("routing.diagnostic."+k, v))
	}

	_, span := tracer.Start(context.Background(), "routing.diagnostic", trace.WithSpanKind(trace.SpanKindInternal))
	span.AddEvent(string(e.Kind), trace.WithAttributes(attrs...))
	span.End()
}
