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
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// DefaultDurationBuckets are histogram boundaries for request duration in
// seconds.
var DefaultDurationBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// DefaultSizeBuckets are histogram boundaries for response sizes in bytes.
var DefaultSizeBuckets = []float64{100, 1000, 10000, 100000, 1000000, 10000000}

// EventType is the severity of an internal event.
type EventType int

const (
	// EventError reports a failure, such as a metrics server error.
	EventError EventType = iota
	// EventWarning reports a degraded configuration.
	EventWarning
	// EventInfo reports lifecycle changes.
	EventInfo
	// EventDebug reports details.
	EventDebug
)

// Event is an internal event of the metrics package.
type Event struct {
	Type    EventType
	Message string
	Args    []any // slog-style key-value pairs
}

// EventHandler receives internal events.
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

// Provider is a metrics exporter.
type Provider string

const (
	// PrometheusProvider exposes a pull endpoint (default).
	PrometheusProvider Provider = "prometheus"
	// OTLPProvider pushes to an OTLP/HTTP collector.
	OTLPProvider Provider = "otlp"
	// StdoutProvider prints metrics to stdout.
	StdoutProvider Provider = "stdout"
)

// Recorder records routing metrics. All methods are safe for concurrent
// use.
type Recorder struct {
	meter              metric.Meter
	meterProvider      metric.MeterProvider
	prometheusRegistry *promclient.Registry
	prometheusHandler  http.Handler
	eventHandler       EventHandler

	requestDuration metric.Float64Histogram
	requestCount    metric.Int64Counter
	activeRequests  metric.Int64UpDownCounter
	responseSize    metric.Int64Histogram
	errorCount      metric.Int64Counter
	diagnostics     metric.Int64Counter
	rules           metric.Int64Gauge

	durationBuckets []float64
	sizeBuckets     []float64
	exportInterval  time.Duration
	exclude         *exclusions

	serviceName    string
	serviceVersion string
	serviceAttrs   []attribute.KeyValue

	provider            Provider
	providerSetCount    int
	otlpEndpoint        string
	metricsAddr         string
	metricsPath         string
	serverDisabled      bool
	customMeterProvider bool
	registerGlobal      bool

	validationErrors []error

	serverMu       sync.Mutex
	server         *http.Server
	listener       net.Listener
	isStarted      atomic.Bool
	isShuttingDown atomic.Bool
}

// New returns a Recorder configured by opts.
func New(opts ...Option) (*Recorder, error) {
	r := &Recorder{
		serviceName:     "routing",
		serviceVersion:  "dev",
		provider:        PrometheusProvider,
		exportInterval:  30 * time.Second,
		metricsAddr:     ":9090",
		metricsPath:     "/metrics",
		durationBuckets: DefaultDurationBuckets,
		sizeBuckets:     DefaultSizeBuckets,
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	r.serviceAttrs = []attribute.KeyValue{
		attribute.String("service.name", r.serviceName),
		attribute.String("service.version", r.serviceVersion),
	}

	if err := r.initializeProvider(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	return r, nil
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *Recorder {
	r, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("metrics.MustNew: %v", err))
	}
	return r
}

func (r *Recorder) validate() error {
	if len(r.validationErrors) > 0 {
		return errors.Join(r.validationErrors...)
	}
	if r.providerSetCount > 1 {
		return errors.New("conflicting provider options: only one of WithPrometheus, WithOTLP or WithStdout can be used")
	}
	if r.serviceName == "" {
		return errors.New("service name cannot be empty")
	}
	if r.exportInterval <= 0 {
		return fmt.Errorf("export interval must be positive, got %s", r.exportInterval)
	}
	switch r.provider {
	case PrometheusProvider:
		if r.metricsPath == "" || r.metricsPath[0] != '/' {
			return fmt.Errorf("metrics path must start with '/', got %q", r.metricsPath)
		}
	case OTLPProvider:
		if r.otlpEndpoint == "" {
			r.emitWarning("OTLP endpoint not specified, using default", "default", "http://localhost:4318")
			r.otlpEndpoint = "http://localhost:4318"
		}
	case StdoutProvider:
	default:
		return fmt.Errorf("unsupported metrics provider: %s", r.provider)
	}
	return nil
}

// Handler returns the Prometheus scrape handler.
func (r *Recorder) Handler() (http.Handler, error) {
	if r.provider != PrometheusProvider || r.prometheusHandler == nil {
		return nil, fmt.Errorf("handler only available with Prometheus provider, current provider: %s", r.provider)
	}
	return r.prometheusHandler, nil
}

// Provider returns the configured provider.
func (r *Recorder) Provider() Provider {
	return r.provider
}

// ServiceName returns the service name attached to every measurement.
func (r *Recorder) ServiceName() string {
	return r.serviceName
}

// ServerAddress returns the address the metrics server listens on, or ""
// when it is not running.
func (r *Recorder) ServerAddress() string {
	r.serverMu.Lock()
	defer r.serverMu.Unlock()
	if r.listener == nil {
		return ""
	}
	return r.listener.Addr().String()
}

// Path returns the scrape path of the Prometheus provider.
func (r *Recorder) Path() string {
	if r.provider != PrometheusProvider {
		return ""
	}
	return r.metricsPath
}

// Start starts the Prometheus metrics server unless it was disabled with
// WithServerDisabled. The server stops when ctx is done or on Shutdown.
// Start is idempotent.
func (r *Recorder) Start(ctx context.Context) error {
	if r.provider != PrometheusProvider || r.serverDisabled {
		return nil
	}
	if !r.isStarted.CompareAndSwap(false, true) {
		return nil
	}
	if err := r.startMetricsServer(ctx); err != nil {
		r.isStarted.Store(false)
		return err
	}
	return nil
}

// Shutdown stops the metrics server and flushes and shuts down the meter
// provider, unless it was supplied with WithMeterProvider. Shutdown is
// idempotent.
func (r *Recorder) Shutdown(ctx context.Context) error {
	if !r.isShuttingDown.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error
	if err := r.stopMetricsServer(ctx); err != nil {
		errs = append(errs, err)
	}
	if !r.customMeterProvider {
		if mp, ok := r.meterProvider.(*sdkmetric.MeterProvider); ok {
			if err := mp.ForceFlush(ctx); err != nil {
				r.emitWarning("metrics flush warning", "error", err)
			}
			if err := mp.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}

// ForceFlush exports pending measurements of push providers.
func (r *Recorder) ForceFlush(ctx context.Context) error {
	if r.isShuttingDown.Load() {
		return nil
	}
	if mp, ok := r.meterProvider.(*sdkmetric.MeterProvider); ok {
		if err := mp.ForceFlush(ctx); err != nil {
			return fmt.Errorf("metrics force flush: %w", err)
		}
	}
	return nil
}

func (r *Recorder) emitError(msg string, args ...any) {
	if r.eventHandler != nil {
		r.eventHandler(Event{Type: EventError, Message: msg, Args: args})
	}
}

func (r *Recorder) emitWarning(msg string, args ...any) {
	if r.eventHandler != nil {
		r.eventHandler(Event{Type: EventWarning, Message: msg, Args: args})
	}
}

func (r *Recorder) emitInfo(msg string, args ...any) {
	if r.eventHandler != nil {
		r.eventHandler(Event{Type: EventInfo, Message: msg, Args: args})
	}
}

func (r *Recorder) emitDebug(msg string, args ...any) {
	if r.eventHandler != nil {
		r.eventHandler(Event{Type: EventDebug, Message: msg, Args: args})
	}
}
