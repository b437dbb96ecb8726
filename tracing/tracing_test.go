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

//go:build !integration

package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	riverrors "rivaas.dev/routing/errors"
	"rivaas.dev/routing/router"
	"rivaas.dev/routing/router/route"
)

func testRouter(t *testing.T, tr *Tracer) *router.Router {
	t.Helper()
	r := router.MustNew(
		router.WithoutConventional(),
		router.WithObservability(tr),
		router.WithDiagnostics(tr),
	)
	r.GET("hello/:name", func(ctx context.Context, p *route.Params) (any, error) {
		return TraceID(ctx), nil
	})
	r.GET("fail", func(context.Context, *route.Params) (any, error) {
		return nil, riverrors.WithStatus(errors.New("boom"), http.StatusServiceUnavailable)
	})
	r.GET("health", func(context.Context, *route.Params) (any, error) {
		return "ok", nil
	})
	require.NoError(t, r.Freeze())
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func get(target string) *http.Request {
	return httptest.NewRequest(http.MethodGet, target, nil)
}

func attrs(s sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range s.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func serverSpans(spans []sdktrace.ReadOnlySpan) []sdktrace.ReadOnlySpan {
	var out []sdktrace.ReadOnlySpan
	for _, s := range spans {
		if s.SpanKind() == trace.SpanKindServer {
			out = append(out, s)
		}
	}
	return out
}

func TestRequestSpan(t *testing.T) {
	t.Parallel()

	tr, spans := TestingTracer(t, WithHeaders("X-Request-ID", "Authorization"), WithQuery())
	r := testRouter(t, tr)

	req := get("/hello/bob?page=2")
	req.Header.Set("X-Request-ID", "req-1")
	req.Header.Set("Authorization", "Bearer secret")
	w := serve(r, req)
	require.Equal(t, http.StatusOK, w.Code)

	ended := serverSpans(spans.Ended())
	require.Len(t, ended, 1)
	s := ended[0]

	assert.Equal(t, "GET hello/:name", s.Name())
	assert.Equal(t, s.SpanContext().TraceID().String(), w.Body.String())

	a := attrs(s)
	assert.Equal(t, "hello/:name", a["http.route"].AsString())
	assert.Equal(t, "/hello/bob", a["url.path"].AsString())
	assert.Equal(t, "page=2", a["url.query"].AsString())
	assert.Equal(t, int64(http.StatusOK), a["http.response.status_code"].AsInt64())
	assert.Equal(t, "req-1", a["http.request.header.x-request-id"].AsString())
	assert.NotContains(t, a, attribute.Key("http.request.header.authorization"))
	assert.Equal(t, codes.Unset, s.Status().Code)
}

func TestRequestSpanStatus(t *testing.T) {
	t.Parallel()

	tr, spans := TestingTracer(t)
	r := testRouter(t, tr)

	assert.Equal(t, http.StatusServiceUnavailable, serve(r, get("/fail")).Code)
	assert.Equal(t, http.StatusNotFound, serve(r, get("/nowhere")).Code)

	ended := serverSpans(spans.Ended())
	require.Len(t, ended, 2)

	assert.Equal(t, "GET fail", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)

	assert.Equal(t, "GET _not_found", ended[1].Name())
	assert.Equal(t, codes.Unset, ended[1].Status().Code)
	assert.Equal(t, int64(http.StatusNotFound), attrs(ended[1])["http.response.status_code"].AsInt64())
}

func TestPropagation(t *testing.T) {
	t.Parallel()

	tr, spans := TestingTracer(t, WithPropagator(propagation.TraceContext{}))
	r := testRouter(t, tr)

	req := get("/hello/ann")
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	serve(r, req)

	ended := serverSpans(spans.Ended())
	require.Len(t, ended, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", ended[0].SpanContext().TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", ended[0].Parent().SpanID().String())
}

func TestExcludedAndUnsampled(t *testing.T) {
	t.Parallel()

	t.Run("excluded", func(t *testing.T) {
		t.Parallel()
		tr, spans := TestingTracer(t,
			WithExcludePaths("/health"),
			WithExcludePrefixes("/hello/internal"),
			WithExcludePatterns(`^/hello/\d+$`),
		)
		r := testRouter(t, tr)
		serve(r, get("/health"))
		serve(r, get("/hello/internal"))
		serve(r, get("/hello/7"))
		serve(r, get("/hello/bob"))
		assert.Len(t, serverSpans(spans.Ended()), 1)
	})

	t.Run("unsampled", func(t *testing.T) {
		t.Parallel()
		tr, spans := TestingTracer(t, WithSampleRate(0))
		r := testRouter(t, tr)
		w := serve(r, get("/hello/bob"))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
		assert.Empty(t, serverSpans(spans.Ended()))
	})
}

func TestSampling(t *testing.T) {
	t.Parallel()

	tr, err := New(WithSampleRate(0.5))
	require.NoError(t, err)

	sampled := 0
	for range 1000 {
		if tr.sampled() {
			sampled++
		}
	}
	assert.InDelta(t, 500, sampled, 100)

	always := MustNew()
	assert.True(t, always.sampled())
	never := MustNew(WithSampleRate(-1))
	assert.False(t, never.sampled())
}

func TestSpanHooks(t *testing.T) {
	t.Parallel()

	var started, finished int
	tr, spans := TestingTracer(t,
		WithSpanStartHook(func(_ context.Context, span trace.Span, _ *http.Request) {
			started++
			span.SetAttributes(attribute.String("tenant.id", "acme"))
		}),
		WithSpanFinishHook(func(_ trace.Span, status int) {
			finished++
			assert.Equal(t, http.StatusOK, status)
		}),
	)
	r := testRouter(t, tr)
	serve(r, get("/hello/bob"))

	assert.Equal(t, 1, started)
	assert.Equal(t, 1, finished)
	ended := serverSpans(spans.Ended())
	require.Len(t, ended, 1)
	assert.Equal(t, "acme", attrs(ended[0])["tenant.id"].AsString())
}

func TestDiagnosticSpans(t *testing.T) {
	t.Parallel()

	tr, spans := TestingTracer(t)
	testRouter(t, tr)

	var found bool
	for _, s := range spans.Ended() {
		if s.Name() != "routing.diagnostic" {
			continue
		}
		require.Len(t, s.Events(), 1)
		e := s.Events()[0]
		if e.Name != string(router.DiagRulesFrozen) {
			continue
		}
		found = true
		for _, kv := range e.Attributes {
			if kv.Key == "routing.diagnostic.rules" {
				assert.Equal(t, int64(3), kv.Value.AsInt64())
			}
		}
	}
	assert.True(t, found)
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []Option
		want string
	}{
		{"empty service name", []Option{WithServiceName("")}, "service name cannot be empty"},
		{"empty service version", []Option{WithServiceVersion("")}, "service version cannot be empty"},
		{"conflicting providers", []Option{WithStdout(), WithOTLP("localhost:4317")}, "conflicting provider options"},
		{"invalid exclusion pattern", []Option{WithExcludePatterns("[")}, "invalid regex pattern"},
		{"nil custom provider", []Option{WithTracerProvider(nil)}, "custom tracer provider is nil"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tt.opts...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	assert.Panics(t, func() { MustNew(WithServiceName("")) })
}

func TestOTLPStartsLazily(t *testing.T) {
	t.Parallel()

	tr, err := New(WithOTLPHTTP("http://127.0.0.1:4318/v1/traces"))
	require.NoError(t, err)
	assert.Equal(t, OTLPHTTPProvider, tr.Provider())

	ctx, state := tr.OnRequestStart(context.Background(), get("/hello/bob"))
	assert.Nil(t, state)
	assert.Empty(t, TraceID(ctx))

	require.NoError(t, tr.Start(context.Background()))
	require.NoError(t, tr.Start(context.Background()))
	_, span := tr.StartSpan(context.Background(), "work")
	assert.True(t, span.SpanContext().IsValid())
	tr.FinishSpan(span, nil)
}

func TestSplitEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		want     string
		insecure bool
	}{
		{"http://collector:4318/v1/traces", "collector:4318", true},
		{"https://collector:4318", "collector:4318", false},
		{"collector:4318", "collector:4318", false},
	}
	for _, tt := range tests {
		got, insecure := splitEndpoint(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.insecure, insecure, tt.in)
	}
}

func TestContextHelpers(t *testing.T) {
	t.Parallel()

	tr, spans := TestingTracer(t, WithPropagator(propagation.TraceContext{}))

	assert.Empty(t, TraceID(context.Background()))
	assert.Empty(t, SpanID(context.Background()))

	ctx, span := tr.StartSpan(context.Background(), "work")
	SetSpanAttributeFromContext(ctx, "rows", 3)
	SetSpanAttributeFromContext(ctx, "table", struct{ Name string }{"blog"})
	AddSpanEventFromContext(ctx, "cache_miss", attribute.String("key", "blog:1"))

	h := http.Header{}
	tr.InjectTraceContext(ctx, h)
	assert.Contains(t, h.Get("traceparent"), TraceID(ctx))
	assert.Equal(t, TraceID(ctx), TraceID(tr.ExtractTraceContext(context.Background(), h)))
	assert.NotEmpty(t, SpanID(ctx))

	tr.FinishSpan(span, errors.New("failed"))

	ended := spans.Ended()
	require.Len(t, ended, 1)
	a := attrs(ended[0])
	assert.Equal(t, int64(3), a["rows"].AsInt64())
	assert.Equal(t, "{blog}", a["table"].AsString())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	require.Len(t, ended[0].Events(), 2)
	assert.Equal(t, "cache_miss", ended[0].Events()[0].Name)
}
