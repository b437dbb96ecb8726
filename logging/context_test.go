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

package logging

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"rivaas.dev/routing/router"
	"rivaas.dev/routing/router/route"
)

func spanContext(t *testing.T) context.Context {
	t.Helper()
	tid, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	sid, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: tid, SpanID: sid, TraceFlags: trace.FlagsSampled})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestContextLoggerWithSpan(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := MustNew(WithOutput(&buf), WithDebugLevel())
	cl := NewContextLogger(spanContext(t), l)

	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", cl.TraceID())
	assert.Equal(t, "00f067aa0ba902b7", cl.SpanID())

	cl.Debug("d")
	cl.Info("i")
	cl.Warn("w")
	cl.Error("e")
	cl.With("rule", "blog/:id").Info("with")

	e := entries(t, &buf)
	require.Len(t, e, 5)
	for _, entry := range e {
		assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entry["trace_id"])
		assert.Equal(t, "00f067aa0ba902b7", entry["span_id"])
	}
	assert.Equal(t, "blog/:id", e[4]["rule"])
}

func TestContextLoggerWithoutSpan(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := MustNew(WithOutput(&buf))
	cl := NewContextLogger(context.Background(), l)

	assert.Empty(t, cl.TraceID())
	assert.Empty(t, cl.SpanID())
	assert.Empty(t, cl.Rule())
	assert.Same(t, l.Logger(), cl.Logger())

	cl.Info("plain")
	e := entries(t, &buf)
	require.Len(t, e, 1)
	assert.NotContains(t, e[0], "trace_id")
}

func TestContextLoggerInDispatch(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := MustNew(WithOutput(&buf))

	r := router.MustNew(router.WithoutConventional())
	r.GET("hello/:name", route.Func("hello", func(ctx context.Context, p *route.Params) (any, error) {
		cl := NewContextLogger(ctx, l)
		cl.Info("greeting", "name", p.Get("name"))
		return cl.Rule(), nil
	}))
	require.NoError(t, r.Freeze())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hello/ann", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello/:name", rec.Body.String())

	e := entries(t, &buf)
	require.Len(t, e, 1)
	assert.Equal(t, "hello/:name", e[0]["rule"])
	assert.Equal(t, "closure:hello", e[0]["dispatch"])
	assert.Equal(t, "ann", e[0]["name"])
}
