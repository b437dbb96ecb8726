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
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names.
const (
	MetricRequestDuration = "routing_request_duration_seconds"
	MetricRequests        = "routing_requests_total"
	MetricActiveRequests  = "routing_requests_active"
	MetricResponseSize    = "routing_response_size_bytes"
	MetricErrors          = "routing_errors_total"
	MetricDiagnostics     = "routing_diagnostics_total"
	MetricRules           = "routing_rules"
)

func (r *Recorder) initializeMetrics() error {
	var err error

	r.requestDuration, err = r.meter.Float64Histogram(MetricRequestDuration,
		metric.WithDescription("Duration of routed requests in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(r.durationBuckets...),
	)
	if err != nil {
		return fmt.Errorf("failed to create request duration histogram: %w", err)
	}

	r.requestCount, err = r.meter.Int64Counter(MetricRequests,
		metric.WithDescription("Total number of routed requests"),
	)
	if err != nil {
		return fmt.Errorf("failed to create request counter: %w", err)
	}

	r.activeRequests, err = r.meter.Int64UpDownCounter(MetricActiveRequests,
		metric.WithDescription("Number of requests being served"),
	)
	if err != nil {
		return fmt.Errorf("failed to create active requests counter: %w", err)
	}

	r.responseSize, err = r.meter.Int64Histogram(MetricResponseSize,
		metric.WithDescription("Size of response bodies in bytes"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(r.sizeBuckets...),
	)
	if err != nil {
		return fmt.Errorf("failed to create response size histogram: %w", err)
	}

	r.errorCount, err = r.meter.Int64Counter(MetricErrors,
		metric.WithDescription("Total number of routed requests answered with a 4xx or 5xx status"),
	)
	if err != nil {
		return fmt.Errorf("failed to create error counter: %w", err)
	}

	r.diagnostics, err = r.meter.Int64Counter(MetricDiagnostics,
		metric.WithDescription("Total number of router diagnostic events"),
	)
	if err != nil {
		return fmt.Errorf("failed to create diagnostics counter: %w", err)
	}

	r.rules, err = r.meter.Int64Gauge(MetricRules,
		metric.WithDescription("Number of rules in the frozen rule table"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rules gauge: %w", err)
	}

	return nil
}

// requestState is the per-request state between OnRequestStart and
// OnRequestEnd.
type requestState struct {
	start  time.Time
	method string
}

func (r *Recorder) begin(ctx context.Context, method string) *requestState {
	r.activeRequests.Add(ctx, 1, metric.WithAttributes(r.serviceAttrs...))
	return &requestState{start: time.Now(), method: method}
}

func (r *Recorder) finish(ctx context.Context, st *requestState, status int, size int64, route string) {
	duration := time.Since(st.start).Seconds()

	attrs := make([]attribute.KeyValue, 0, len(r.serviceAttrs)+5)
	attrs = append(attrs, r.serviceAttrs...)
	attrs = append(attrs,
		attribute.String("http.request.method", st.method),
		attribute.String("http.route", route),
		attribute.String("routing.outcome", Outcome(route)),
		attribute.Int("http.response.status_code", status),
		attribute.String("http.status_class", statusClass(status)),
	)
	set := metric.WithAttributes(attrs...)

	r.activeRequests.Add(ctx, -1, metric.WithAttributes(r.serviceAttrs...))
	r.requestDuration.Record(ctx, duration, set)
	r.requestCount.Add(ctx, 1, set)
	if status >= 400 {
		r.errorCount.Add(ctx, 1, set)
	}
	if size > 0 {
		r.responseSize.Record(ctx, size, set)
	}
}

// Outcome classifies a dispatch label: "rule", "miss", "alias",
// "convention", "bind", "not_found" or "error".
func Outcome(route string) string {
	switch {
	case route == "_not_found":
		return "not_found"
	case route == "_error":
		return "error"
	case route == "_alias":
		return "alias"
	case route == "_convention":
		return "convention"
	case strings.HasPrefix(route, "_miss:"):
		return "miss"
	case strings.HasPrefix(route, "_bind:"):
		return "bind"
	default:
		return "rule"
	}
}

func statusClass(status int) string {
	switch status / 100 {
	case 1:
		return "1xx"
	case 2:
		return "2xx"
	case 3:
		return "3xx"
	case 4:
		return "4xx"
	case 5:
		return "5xx"
	default:
		return "unknown"
	}
}
