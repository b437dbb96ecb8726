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
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// initializeProvider sets up the providers that need no network
// connection. OTLP providers are set up by Start.
func (t *Tracer) initializeProvider() error {
	if t.customTracerProvider {
		if t.tracerProvider == nil {
			return errors.New("custom tracer provider is nil")
		}
		t.emitDebug("Using custom tracer provider")
		t.install(t.tracerProvider, nil)
		return nil
	}

	switch t.provider {
	case NoopProvider:
		tp := sdktrace.NewTracerProvider(sdktrace.WithResource(t.resource()))
		t.install(tp, tp)
	case StdoutProvider:
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(t.resource()),
		)
		t.install(tp, tp)
		t.emitInfo("Tracing initialized", "provider", string(t.provider), "service", t.serviceName)
	case OTLPProvider, OTLPHTTPProvider:
	default:
		return fmt.Errorf("unsupported tracing provider: %s", t.provider)
	}
	return nil
}

// initializeProviderWithContext creates the OTLP exporter. Callers hold
// t.mu.
func (t *Tracer) initializeProviderWithContext(ctx context.Context) error {
	var (
		exporter sdktrace.SpanExporter
		err      error
	)
	switch t.provider {
	case OTLPProvider:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(t.otlpEndpoint)}
		if t.otlpInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exporter, err = otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return fmt.Errorf("failed to create OTLP gRPC exporter: %w", err)
		}
	case OTLPHTTPProvider:
		endpoint, insecure := splitEndpoint(t.otlpEndpoint)
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
		if insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exporter, err = otlptracehttp.New(ctx, opts...)
		if err != nil {
			return fmt.Errorf("failed to create OTLP HTTP exporter: %w", err)
		}
	default:
		return fmt.Errorf("provider %s does not need a context", t.provider)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(t.resource()),
	)
	t.install(tp, tp)
	t.emitInfo("Tracing initialized", "provider", string(t.provider), "endpoint", t.otlpEndpoint, "service", t.serviceName)
	return nil
}

func (t *Tracer) install(tp trace.TracerProvider, sdk *sdktrace.TracerProvider) {
	t.tracerProvider = tp
	t.sdkProvider = sdk
	t.tracer = tp.Tracer(tracerName)
	if t.registerGlobal {
		t.emitDebug("Setting global OpenTelemetry tracer provider", "provider", string(t.provider))
		otel.SetTracerProvider(tp)
	}
}

func (t *Tracer) resource() *resource.Resource {
	return resource.NewSchemaless(
		attribute.String("service.name", t.serviceName),
		attribute.String("service.version", t.serviceVersion),
	)
}

// splitEndpoint strips the scheme and path of an OTLP/HTTP endpoint and
// reports whether it was plain http.
func splitEndpoint(endpoint string) (string, bool) {
	insecure := false
	if rest, ok := strings.CutPrefix(endpoint, "http://"); ok {
		endpoint, insecure = rest, true
	} else {
		endpoint = strings.TrimPrefix(endpoint, "https://")
	}
	if i := strings.IndexByte(endpoint, '/'); i >= 0 {
		endpoint = endpoint[:i]
	}
	return endpoint, insecure
}
