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
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Option configures a Recorder.
type Option func(*Recorder)

// WithMeterProvider records with a caller-managed meter provider. Provider
// options are ignored and Shutdown leaves the provider running.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(r *Recorder) {
		r.meterProvider = provider
		r.customMeterProvider = true
	}
}

// WithGlobalMeterProvider registers the meter provider with
// otel.SetMeterProvider.
func WithGlobalMeterProvider() Option {
	return func(r *Recorder) {
		r.registerGlobal = true
	}
}

// WithServiceName sets the service.name attribute. Default: "routing".
func WithServiceName(name string) Option {
	return func(r *Recorder) {
		r.serviceName = name
	}
}

// WithServiceVersion sets the service.version attribute.
func WithServiceVersion(version string) Option {
	return func(r *Recorder) {
		r.serviceVersion = version
	}
}

// WithExportInterval sets the push interval of the OTLP and stdout
// providers. Default: 30s.
func WithExportInterval(interval time.Duration) Option {
	return func(r *Recorder) {
		r.exportInterval = interval
	}
}

// WithDurationBuckets sets the request duration boundaries, in seconds.
func WithDurationBuckets(buckets ...float64) Option {
	return func(r *Recorder) {
		r.durationBuckets = buckets
	}
}

// WithSizeBuckets sets the response size boundaries, in bytes.
func WithSizeBuckets(buckets ...float64) Option {
	return func(r *Recorder) {
		r.sizeBuckets = buckets
	}
}

// WithPrometheus selects the Prometheus provider. Start serves path on
// addr; ":0" picks a free port.
func WithPrometheus(addr, path string) Option {
	return func(r *Recorder) {
		r.provider = PrometheusProvider
		r.metricsAddr = addr
		r.metricsPath = path
		r.providerSetCount++
	}
}

// WithServerDisabled keeps Start from serving the Prometheus endpoint; the
// caller mounts Handler instead.
func WithServerDisabled() Option {
	return func(r *Recorder) {
		r.serverDisabled = true
	}
}

// WithOTLP selects the OTLP/HTTP provider. An "http://" endpoint disables
// TLS.
func WithOTLP(endpoint string) Option {
	return func(r *Recorder) {
		r.provider = OTLPProvider
		r.otlpEndpoint = endpoint
		r.providerSetCount++
	}
}

// WithStdout selects the stdout provider.
func WithStdout() Option {
	return func(r *Recorder) {
		r.provider = StdoutProvider
		r.providerSetCount++
	}
}

// WithEventHandler receives internal events.
func WithEventHandler(handler EventHandler) Option {
	return func(r *Recorder) {
		r.eventHandler = handler
	}
}

// WithLogger logs internal events to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.eventHandler = DefaultEventHandler(logger)
	}
}

// WithExcludePaths skips requests for the given paths, with or without
// a URL suffix.
//
//	metrics.WithExcludePaths("/healthz", "/favicon.ico")
func WithExcludePaths(paths ...string) Option {
	return func(r *Recorder) {
		r.excluded().addPaths(paths...)
	}
}

// WithExcludePrefixes skips requests whose path starts with one of the
// prefixes.
func WithExcludePrefixes(prefixes ...string) Option {
	return func(r *Recorder) {
		r.excluded().addPrefixes(prefixes...)
	}
}

// WithExcludePatterns skips requests whose path matches one of the
// regular expressions. Invalid expressions make New fail.
func WithExcludePatterns(patterns ...string) Option {
	return func(r *Recorder) {
		for _, p := range patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				r.validationErrors = append(r.validationErrors,
					fmt.Errorf("invalid regex pattern for path exclusion %q: %w", p, err))
				continue
			}
			r.excluded().patterns = append(r.excluded().patterns, re)
		}
	}
}

func (r *Recorder) excluded() *exclusions {
	if r.exclude == nil {
		r.exclude = &exclusions{}
	}
	return r.exclude
}
