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

	"go.opentelemetry.io/otel/trace"

	"rivaas.dev/routing/router"
)

// Field names added by ContextLogger.
const (
	fieldTraceID  = "trace_id"
	fieldSpanID   = "span_id"
	fieldRule     = "rule"
	fieldDispatch = "dispatch"
)

// ContextLogger logs with what a request context carries: the IDs of the
// active OpenTelemetry span and, inside closures and invokers run by
// [router.Router.ServeHTTP], the matched rule and its dispatch target.
//
// It is created per request and used by one goroutine.
type ContextLogger struct {
	logger  *slog.Logger
	ctx     context.Context
	traceID string
	spanID  string
	rule    string
}

// NewContextLogger creates a logger for ctx. A context without a span or
// a routing result logs like l.
func NewContextLogger(ctx context.Context, l *Logger) *ContextLogger {
	cl := &ContextLogger{logger: l.Logger(), ctx: ctx}

	var attrs []any
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		cl.traceID, cl.spanID = sc.TraceID().String(), sc.SpanID().String()
		attrs = append(attrs, fieldTraceID, cl.traceID, fieldSpanID, cl.spanID)
	}
	if res, ok := router.ResultFromContext(ctx); ok && res.Matched() {
		cl.rule = res.Pattern()
		attrs = append(attrs, fieldRule, cl.rule, fieldDispatch, res.Dispatch.String())
	}
	if len(attrs) > 0 {
		cl.logger = cl.logger.With(attrs...)
	}
	return cl
}

// Logger returns the underlying [slog.Logger] with the context fields.
func (cl *ContextLogger) Logger() *slog.Logger { return cl.logger }

// TraceID returns the trace ID, empty without a span.
func (cl *ContextLogger) TraceID() string { return cl.traceID }

// SpanID returns the span ID, empty without a span.
func (cl *ContextLogger) SpanID() string { return cl.spanID }

// Rule returns the label of the matched rule, empty outside a dispatch.
func (cl *ContextLogger) Rule() string { return cl.rule }

// With returns a [slog.Logger] with additional attributes.
func (cl *ContextLogger) With(args ...any) *slog.Logger {
	return cl.logger.With(args...)
}

// Debug, Info, Warn and Error log at their level with the context fields.
func (cl *ContextLogger) Debug(msg string, args ...any) { cl.log(slog.LevelDebug, msg, args) }
func (cl *ContextLogger) Info(msg string, args ...any)  { cl.log(slog.LevelInfo, msg, args) }
func (cl *ContextLogger) Warn(msg string, args ...any)  { cl.log(slog.LevelWarn, msg, args) }
func (cl *ContextLogger) Error(msg string, args ...any) { cl.log(slog.LevelError, msg, args) }

func (cl *ContextLogger) log(level slog.Level, msg string, args []any) {
	cl.logger.Log(cl.ctx, level, msg, args...)
}
