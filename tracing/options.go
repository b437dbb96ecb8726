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
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a Tracer.
type Option func(*Tracer)

// WithTracerProvider records with a caller-managed tracer provider.
// Provider options are ignored and Shutdown leaves the provider running.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(t *Tracer) {
		t.tracerProvider = provider
		t.customTracerProvider = true
	}
}

// WithGlobalTracerProvider registers the tracer provider with
// otel.SetTracerProvider.
func WithGlobalTracerProvider() Option {
	return func(t *Tracer) {
		t.registerGlobal = true
	}
}

// WithServiceName sets the service.name resource attribute.
func WithServiceName(name string) Option {
	return func(t *Tracer) {
		t.serviceName = name
	}
}

// WithServiceVersion sets the service.version resource attribute.
func WithServiceVersion(version string) Option {
	return func(t *Tracer) {
		t.serviceVersion = version
	}
}

// WithSampleRate traces the given share of requests, clamped to [0, 1].
// Requests with a sampled parent are decided the same way.
func WithSampleRate(rate float64) Option {
	return func(t *Tracer) {
		t.sampleRate = min(max(rate, 0), 1)
	}
}

// WithNoop selects the noop provider.
func WithNoop() Option {
	return func(t *Tracer) {
		t.provider = NoopProvider
		t.providerSetCount++
	}
}

// WithStdout selects the stdout provider.
func WithStdout() Option {
	return func(t *Tracer) {
		t.provider = StdoutProvider
		t.providerSetCount++
	}
}

// WithOTLP selects OTLP over gRPC. endpoint is "host:port".
func WithOTLP(endpoint string, opts ...OTLPOption) Option {
	return func(t *Tracer) {
		t.provider = OTLPProvider
		t.otlpEndpoint = endpoint
		t.providerSetCount++
		for _, opt := range opts {
			opt(t)
		}
	}
}

// WithOTLPHTTP selects OTLP over HTTP. An "http://" endpoint disables TLS.
func WithOTLPHTTP(endpoint string) Option {
	return func(t *Tracer) {
		t.provider = OTLPHTTPProvider
		t.otlpEndpoint = endpoint
		t.providerSetCount++
	}
}

// OTLPOption configures the gRPC exporter.
type OTLPOption func(*Tracer)

// OTLPInsecure disables TLS.
func OTLPInsecure() OTLPOption {
	return func(t *Tracer) {
		t.otlpInsecure = true
	}
}

// WithPropagator replaces the propagator used to extract incoming trace
// context.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(t *Tracer) {
		t.propagator = p
	}
}

// WithExcludePaths skips requests for the given request paths.
func WithExcludePaths(paths ...string) Option {
	return func(t *Tracer) {
		for _, p := range paths {
			t.excludePaths[p] = true
		}
	}
}

// WithExcludePrefixes skips requests whose path starts with one of the
// prefixes.
func WithExcludePrefixes(prefixes ...string) Option {
	return func(t *Tracer) {
		t.excludePrefixes = append(t.excludePrefixes, prefixes...)
	}
}

// WithExcludePatterns skips requests whose path matches one of the
// regular expressions. Invalid expressions make New fail.
func WithExcludePatterns(patterns ...string) Option {
	return func(t *Tracer) {
		for _, p := range patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				t.validationErrors = append(t.validationErrors,
					fmt.Errorf("invalid regex pattern for path exclusion %q: %w", p, err))
				continue
			}
			t.excludePatterns = append(t.excludePatterns, re)
		}
	}
}

// sensitiveHeaders are never recorded.
var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"proxy-authorization": true,
	"www-authenticate":    true,
}

// WithHeaders records request headers as "http.request.header.<name>"
// attributes. Credentials headers such as Authorization are dropped.
func WithHeaders(headers ...string) Option {
	return func(t *Tracer) {
		t.recordHeaders = t.recordHeaders[:0]
		for _, h := range headers {
			if !sensitiveHeaders[strings.ToLower(h)] {
				t.recordHeaders = append(t.recordHeaders, h)
			}
		}
	}
}

// WithQuery records the raw query string as "url.query".
func WithQuery() Option {
	return func(t *Tracer) {
		t.recordQuery = true
	}
}

// WithSpanStartHook sets a hook run after each request span starts.
func WithSpanStartHook(hook SpanStartHook) Option {
	return func(t *Tracer) {
		t.spanStartHook = hook
	}
}

// WithSpanFinishHook sets a hook run before each request span ends.
func WithSpanFinishHook(hook SpanFinishHook) Option {
	return func(t *Tracer) {
		t.spanFinishHook = hook
	}
}

// WithEventHandler receives internal events.
func WithEventHandler(handler EventHandler) Option {
	return func(t *Tracer) {
		t.eventHandler = handler
	}
}

// WithLogger logs internal events to logger.
func WithLogger(logger *slog.Logger) Option {
	return WithEventHandler(DefaultEventHandler(logger))
}
