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
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// EventType is the severity of an internal event.
type EventType int

const (
	EventError EventType = iota
	EventWarning
	EventInfo
	EventDebug
)

// Event is an internal operational event, such as a failed export.
type Event struct {
	Type    EventType
	Message string
	Args    []any // slog-style key-value pairs
}

// EventHandler processes internal events.
type EventHandler func(Event)

// DefaultEventHandler logs events to logger. A nil logger discards them.
func DefaultEventHandler(logger *slog.Logger) EventHandler {
	if logger == nil {
		return func(Event) {}
	}
	return func(e Event) {
		switch e.Type {
		case EventError:
			logger.Error(e.Message, e.Args...)
		case EventWarning:
			logger.Warn(e.Message, e.Args...)
		case EventInfo:
			logger.Info(e.Message, e.Args...)
		case EventDebug:
			logger.Debug(e.Message, e.Args...)
		}
	}
}

const (
	DefaultServiceName    = "routing"
	DefaultServiceVersion = "dev"
	DefaultSampleRate     = 1.0
)

const tracerName = "rivaas.dev/routing/tracing"

// 2^64 divided by the golden ratio. Multiplying the request counter by it
// spreads consecutive requests evenly over the uint64 range.
const samplingMultiplier uint64 = 0x9E3779B97F4A7C15

// Provider is a span exporter.
type Provider string

const (
	NoopProvider     Provider = "noop"
	StdoutProvider   Provider = "stdout"
	OTLPProvider     Provider = "otlp"
	OTLPHTTPProvider Provider = "otlp-http"
)

// SpanStartHook is called after a request span is started.
type SpanStartHook func(ctx context.Context, span trace.Span, req *http.Request)

// SpanFinishHook is called before a request span ends.
type SpanFinishHook func(span trace.Span, statusCode int)

// Tracer records request spans. It is immutable after New and safe for
// concurrent use.
type Tracer struct {
	tracer         trace.Tracer
	tracerProvider trace.TracerProvider
	sdkProvider    *sdktrace.TracerProvider
	propagator     propagation.TextMapPropagator
	eventHandler   EventHandler

	excludePaths    map[string]bool
	excludePrefixes []string
	excludePatterns []*regexp.Regexp
	recordHeaders   []string
	recordQuery     bool

	serviceName    string
	serviceVersion string
	provider       Provider
	otlpEndpoint   string
	otlpInsecure   bool

	spanStartHook  SpanStartHook
	spanFinishHook SpanFinishHook

	sampleRate        float64
	samplingThreshold uint64
	samplingCounter   atomic.Uint64

	customTracerProvider bool
	registerGlobal       bool
	providerSetCount     int
	validationErrors     []error

	mu           sync.Mutex
	started      bool
	shutdownOnce sync.Once
	shutdownErr  error
}

// New returns a Tracer configured by opts. Noop and stdout providers are
// ready to use; OTLP providers record nothing until Start.
func New(opts ...Option) (*Tracer, error) {
	t := &Tracer{
		serviceName:    DefaultServiceName,
		serviceVersion: DefaultServiceVersion,
		propagator:     otel.GetTextMapPropagator(),
		excludePaths:   make(map[string]bool),
		sampleRate:     DefaultSampleRate,
		provider:       NoopProvider,
	}
	for _, opt := range opts {
		opt(t)
	}

	if err := t.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := t.initializeProvider(); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	return t, nil
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *Tracer {
	t, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("tracing.MustNew: %v", err))
	}
	return t
}

func (t *Tracer) validate() error {
	if len(t.validationErrors) > 0 {
		return errors.Join(t.validationErrors...)
	}
	if t.providerSetCount > 1 {
		return errors.New("conflicting provider options: only one of WithNoop, WithStdout, WithOTLP or WithOTLPHTTP can be used")
	}
	if t.serviceName == "" {
		return errors.New("service name cannot be empty")
	}
	if t.serviceVersion == "" {
		return errors.New("service version cannot be empty")
	}

	switch {
	case t.sampleRate <= 0:
		t.samplingThreshold = 0
	case t.sampleRate >= 1:
		t.samplingThreshold = ^uint64(0)
	default:
		t.samplingThreshold = uint64(t.sampleRate * float64(^uint64(0)))
	}

	switch t.provider {
	case NoopProvider, StdoutProvider:
	case OTLPProvider:
		if t.otlpEndpoint == "" {
			t.emitWarning("OTLP endpoint not specified, using default", "default", "localhost:4317")
			t.otlpEndpoint = "localhost:4317"
		}
	case OTLPHTTPProvider:
		if t.otlpEndpoint == "" {
			t.emitWarning("OTLP endpoint not specified, using default", "default", "localhost:4318")
			t.otlpEndpoint = "localhost:4318"
		}
	default:
		return fmt.Errorf("unsupported tracing provider: %s", t.provider)
	}
	return nil
}

// Start creates the OTLP exporter. It is a no-op for the other providers
// and when called again.
func (t *Tracer) Start(ctx context.Context) error {
	if t.provider != OTLPProvider && t.provider != OTLPHTTPProvider {
		return nil
	}
	if t.customTracerProvider {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return nil
	}
	if err := t.initializeProviderWithContext(ctx); err != nil {
		return err
	}
	t.started = true
	return nil
}

// Shutdown flushes and stops the tracer provider, unless it was supplied
// with WithTracerProvider. It is idempotent.
func (t *Tracer) Shutdown(ctx context.Context) error {
	t.shutdownOnce.Do(func() {
		t.mu.Lock()
		tp := t.sdkProvider
		t.mu.Unlock()

		if tp == nil || t.customTracerProvider {
			return
		}
		t.emitDebug("Shutting down tracer provider")
		if err := tp.Shutdown(ctx); err != nil {
			t.emitError("Error shutting down tracer provider", "error", err)
			t.shutdownErr = fmt.Errorf("tracer provider shutdown: %w", err)
		}
	})
	return t.shutdownErr
}

// ServiceName returns the service name.
func (t *Tracer) ServiceName() string { return t.serviceName }

// ServiceVersion returns the service version.
func (t *Tracer) ServiceVersion() string { return t.serviceVersion }

// Provider returns the configured provider.
func (t *Tracer) Provider() Provider { return t.provider }

// Propagator returns the propagator used to extract incoming trace context.
func (t *Tracer) Propagator() propagation.TextMapPropagator { return t.propagator }

// otelTracer returns the tracer, or nil while an OTLP provider has not
// been started.
func (t *Tracer) otelTracer() trace.Tracer {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tracer
}

// ShouldExcludePath reports whether requests for path are not traced.
func (t *Tracer) ShouldExcludePath(path string) bool {
	if t.excludePaths[path] {
		return true
	}
	for _, prefix := range t.excludePrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	for _, re := range t.excludePatterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// sampled makes the per-request sampling decision.
func (t *Tracer) sampled() bool {
	switch t.samplingThreshold {
	case 0:
		return false
	case ^uint64(0):
		return true
	}
	return t.samplingCounter.Add(1)*samplingMultiplier <= t.samplingThreshold
}

// StartSpan starts a child span of the span in ctx. The span must be ended
// with FinishSpan or span.End.
//
//	ctx, span := tr.StartSpan(ctx, "load-article")
//	defer tr.FinishSpan(span, nil)
func (t *Tracer) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	tracer := t.otelTracer()
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// FinishSpan records err, if any, and ends span.
func (t *Tracer) FinishSpan(span trace.Span, err error) {
	if span == nil || !span.IsRecording() {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// ExtractTraceContext returns ctx with the trace context found in headers.
func (t *Tracer) ExtractTraceContext(ctx context.Context, headers http.Header) context.Context {
	return t.propagator.Extract(ctx, propagation.HeaderCarrier(headers))
}

// InjectTraceContext writes the trace context of ctx to headers.
func (t *Tracer) InjectTraceContext(ctx context.Context, headers http.Header) {
	t.propagator.Inject(ctx, propagation.HeaderCarrier(headers))
}

// TraceID returns the trace ID of the span in ctx, or "".
func TraceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		return sc.TraceID().String()
	}
	return ""
}

// SpanID returns the span ID of the span in ctx, or "".
func SpanID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		return sc.SpanID().String()
	}
	return ""
}

// SetSpanAttributeFromContext sets an attribute on the span in ctx.
// Values other than string, int, int64, float64 and bool are formatted
// with %v.
func SetSpanAttributeFromContext(ctx context.Context, key string, value any) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(buildAttribute(key, value))
}

// AddSpanEventFromContext adds an event to the span in ctx.
func AddSpanEventFromContext(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent(name, trace.WithAttributes(attrs...))
	}
}

func buildAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}

func (t *Tracer) emitError(msg string, args ...any) {
	if t.eventHandler != nil {
		t.eventHandler(Event{Type: EventError, Message: msg, Args: args})
	}
}

func (t *Tracer) emitWarning(msg string, args ...any) {
	if t.eventHandler != nil {
		t.eventHandler(Event{Type: EventWarning, Message: msg, Args: args})
	}
}

func (t *Tracer) emitInfo(msg string, args ...any) {
	if t.eventHandler != nil {
		t.eventHandler(Event{Type: EventInfo, Message: msg, Args: args})
	}
}

func (t *Tracer) emitDebug(msg string, args ...any) {
	if t.eventHandler != nil {
		t.eventHandler(Event{Type: EventDebug, Message: msg, Args: args})
	}
}
