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

package logging

import (
	"context"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"time"

	"rivaas.dev/routing/router"
)

// Router returns a router option that logs registration errors and build
// warnings through l and reports diagnostic events to l at warn level.
// Extra handlers receive the same events.
//
//	r := router.MustNew(
//	    logging.Router(logger, metricsRecorder),
//	    router.WithSuffix("html"),
//	)
func Router(l *Logger, handlers ...router.DiagnosticHandler) router.Option {
	return func(r *router.Router) {
		router.WithLogger(l.Logger())(r)
		all := make([]router.DiagnosticHandler, 0, 1+len(handlers))
		all = append(all, Diagnostics(l))
		all = append(all, handlers...)
		router.WithDiagnostics(router.MultiDiagnostics(all...))(r)
	}
}

// Diagnostics returns a diagnostic handler that logs each event with its
// kind and sorted fields, at info level for the frozen table and warn otherwise.
func Diagnostics(l *Logger) router.DiagnosticHandler {
	return router.DiagnosticHandlerFunc(func(e router.DiagnosticEvent) {
		args := make([]any, 0, 2+2*len(e.Fields))
		args = append(args, "kind", string(e.Kind))
		for _, k := range slices.Sorted(maps.Keys(e.Fields)) {
			args = append(args, k, e.Fields[k])
		}
		if e.Kind == router.DiagRulesFrozen {
			l.Info(e.Message, args...)
			return
		}
		l.Warn(e.Message, args...)
	})
}

// AccessLog is an [router.ObservabilityRecorder] that writes one entry per
// served request, with trace correlation when a span is active.
//
//	r := router.MustNew(router.WithObservability(router.Recorders(tracer, logging.NewAccessLog(logger))))
type AccessLog struct {
	logger *Logger
	now    func() time.Time
}

// NewAccessLog returns an access log recorder writing to l.
func NewAccessLog(l *Logger) *AccessLog {
	return &AccessLog{logger: l, now: time.Now}
}

type accessState struct {
	start  time.Time
	method string
	path   string
	host   string
}

// OnRequestStart implements router.ObservabilityRecorder.
func (a *AccessLog) OnRequestStart(ctx context.Context, req *http.Request) (context.Context, any) {
	return ctx, &accessState{
		start:  a.now(),
		method: req.Method,
		path:   req.URL.Path,
		host:   req.Host,
	}
}

// WrapResponseWriter implements router.ObservabilityRecorder.
func (a *AccessLog) WrapResponseWriter(w http.ResponseWriter, _ any) http.ResponseWriter {
	return router.NewResponseWriter(w)
}

// OnRequestEnd implements router.ObservabilityRecorder. Server errors are
// logged at error level, client errors at warn level.
func (a *AccessLog) OnRequestEnd(ctx context.Context, state any, writer http.ResponseWriter, routePattern string) {
	st, ok := state.(*accessState)
	if !ok {
		return
	}

	status, size := http.StatusOK, int64(0)
	if info, ok := writer.(router.ResponseInfo); ok {
		status, size = info.StatusCode(), info.Size()
	}

	level := slog.LevelInfo
	switch {
	case status >= http.StatusInternalServerError:
		level = slog.LevelError
	case status >= http.StatusBadRequest:
		level = slog.LevelWarn
	}

	cl := NewContextLogger(ctx, a.logger)
	cl.Logger().Log(ctx, level, "request",
		"method", st.method,
		"host", st.host,
		"path", st.path,
		"route", routePattern,
		"status", status,
		"size", size,
		"duration", a.now().Sub(st.start),
	)
}
