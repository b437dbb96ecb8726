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
	"net"
	"net/http"
	"strings"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

const meterName = "rivaas.dev/routing/metrics"

// initializeProvider builds the meter provider of the configured
// exporter and creates the instruments on it.
func (r *Recorder) initializeProvider() error {
	if r.customMeterProvider {
		if r.meterProvider == nil {
			return errors.New("custom meter provider is nil")
		}
		r.emitDebug("Using custom meter provider")
		r.meter = r.meterProvider.Meter(meterName)
		return r.initializeMetrics()
	}

	reader, err := r.newReader()
	if err != nil {
		return err
	}
	r.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(resource.NewSchemaless(r.serviceAttrs...)),
	)

	if r.registerGlobal {
		r.emitDebug("Setting global OpenTelemetry meter provider", "provider", string(r.provider))
		otel.SetMeterProvider(r.meterProvider)
	}
	r.meter = r.meterProvider.Meter(meterName)
	return r.initializeMetrics()
}

func (r *Recorder) newReader() (sdkmetric.Reader, error) {
	switch r.provider {
	case PrometheusProvider:
		reg := promclient.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		exporter, err := prometheus.New(prometheus.WithRegisterer(reg))
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		r.prometheusRegistry = reg
		r.prometheusHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
		return exporter, nil

	case OTLPProvider:
		endpoint, insecure := splitEndpoint(r.otlpEndpoint)
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(endpoint)}
		if insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		exporter, err := otlpmetrichttp.New(context.Background(), opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(r.exportInterval)), nil

	case StdoutProvider:
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(r.exportInterval)), nil

	default:
		return nil, fmt.Errorf("unsupported metrics provider: %s", r.provider)
	}
}

// splitEndpoint strips the scheme and path of an OTLP/HTTP endpoint and
// reports whether it was plain http.
func splitEndpoint(endpoint string) (string, bool) {
	host, insecure := strings.CutPrefix(endpoint, "http://")
	if !insecure {
		host = strings.TrimPrefix(host, "https://")
	}
	host, _, _ = strings.Cut(host, "/")
	return host, insecure
}

// startMetricsServer serves the scrape path until ctx is done or the
// recorder shuts down.
func (r *Recorder) startMetricsServer(ctx context.Context) error {
	if r.prometheusHandler == nil {
		return nil
	}
	if r.isShuttingDown.Load() {
		return errors.New("metrics recorder is shut down")
	}

	ln, err := net.Listen("tcp", r.metricsAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", r.metricsAddr, err)
	}

	mux := http.NewServeMux()
	mux.Handle(r.metricsPath, r.prometheusHandler)
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	r.serverMu.Lock()
	r.server, r.listener = server, ln
	r.serverMu.Unlock()

	r.emitInfo("Metrics server starting", "address", ln.Addr().String(), "path", r.metricsPath)
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.emitError("Metrics server error", "error", err)
		}
	}()
	context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.stopMetricsServer(shutdownCtx); err != nil {
			r.emitError("Error shutting down metrics server", "error", err)
		}
	})
	return nil
}

func (r *Recorder) stopMetricsServer(ctx context.Context) error {
	r.serverMu.Lock()
	server := r.server
	r.server, r.listener = nil, nil
	r.serverMu.Unlock()

	if server == nil {
		return nil
	}
	r.emitDebug("Shutting down metrics server")
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("metrics server shutdown: %w", err)
	}
	return nil
}
