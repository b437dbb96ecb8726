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

package router

import (
	"context"
	"net/http"
)

// ObservabilityRecorder provides lifecycle hooks for requests served by
// ServeHTTP. Implementations typically record metrics, tracing spans and
// access logs.
//
// Lifecycle:
//  1. OnRequestStart(ctx, req) returns an enriched context and an opaque
//     state token. A nil state excludes the request; the enriched context
//     is used either way.
//  2. WrapResponseWriter is called when state is not nil.
//  3. The request is resolved and dispatched.
//  4. OnRequestEnd is called when state is not nil, with the label of the
//     dispatch (see Result.Pattern) instead of the raw path.
//
// All methods must be safe for concurrent use.
type ObservabilityRecorder interface {
	OnRequestStart(ctx context.Context, req *http.Request) (context.Context, any)
	WrapResponseWriter(w http.ResponseWriter, state any) http.ResponseWriter
	OnRequestEnd(ctx context.Context, state any, writer http.ResponseWriter, routePattern string)
}

// ResponseInfo is implemented by response writers that track response
// metadata.
type ResponseInfo interface {
	StatusCode() int
	Size() int64
}

// ResponseWriter records the status code and body size of a response.
// Recorders may use it from WrapResponseWriter.
type ResponseWriter struct {
	http.ResponseWriter
	status  int
	size    int64
	written bool
}

// NewResponseWriter wraps w. Wrapping a *ResponseWriter returns it as is.
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	if rw, ok := w.(*ResponseWriter); ok {
		return rw
	}
	return &ResponseWriter{ResponseWriter: w, status: http.StatusOK}
}

// WriteHeader records the status code.
func (w *ResponseWriter) WriteHeader(code int) {
	if w.written {
		return
	}
	w.status = code
	w.written = true
	w.ResponseWriter.WriteHeader(code)
}

// Write records the body size.
func (w *ResponseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += int64(n)
	return n, err
}

// StatusCode returns the response status, 200 if none was written.
func (w *ResponseWriter) StatusCode() int { return w.status }

// Size returns the number of body bytes written.
func (w *ResponseWriter) Size() int64 { return w.size }

// Unwrap returns the wrapped writer, for http.ResponseController.
func (w *ResponseWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Recorders combines several recorders into one. Hooks run in order on
// start and in reverse order on end.
func Recorders(recorders ...ObservabilityRecorder) ObservabilityRecorder {
	var rs multiRecorder
	for _, r := range recorders {
		if r != nil {
			rs = append(rs, r)
		}
	}
	if len(rs) == 1 {
		return rs[0]
	}
	return rs
}

type multiRecorder []ObservabilityRecorder

func (m multiRecorder) OnRequestStart(ctx context.Context, req *http.Request) (context.Context, any) {
	states := make([]any, len(m))
	active := false
	for i, r := range m {
		ctx, states[i] = r.OnRequestStart(ctx, req.WithContext(ctx))
		active = active || states[i] != nil
	}
	if !active {
		return ctx, nil
	}
	return ctx, states
}

func (m multiRecorder) WrapResponseWriter(w http.ResponseWriter, state any) http.ResponseWriter {
	states, ok := state.([]any)
	if !ok {
		return w
	}
	for i, r := range m {
		if states[i] != nil {
			w = r.WrapResponseWriter(w, states[i])
		}
	}
	return w
}

func (m multiRecorder) OnRequestEnd(ctx context.Context, state any, writer http.ResponseWriter, routePattern string) {
	states, ok := state.([]any)
	if !ok {
		return
	}
	for i := len(m) - 1; i >= 0; i-- {
		if states[i] != nil {
			m[i].OnRequestEnd(ctx, states[i], writer, routePattern)
		}
	}
}
