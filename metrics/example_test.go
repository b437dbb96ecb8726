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

package metrics_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"rivaas.dev/routing/metrics"
	"rivaas.dev/routing/router"
	"rivaas.dev/routing/router/route"
)

// ExampleRecorder mounts the Prometheus handler next to the routed
// application instead of starting a separate metrics server.
func ExampleRecorder() {
	rec := metrics.MustNew(metrics.WithServiceName("blog"), metrics.WithServerDisabled())
	defer rec.Shutdown(context.Background())

	r := router.MustNew(router.WithObservability(rec), router.WithDiagnostics(rec))
	r.GET("hello/:name", func(_ context.Context, p *route.Params) (any, error) {
		return "hello " + p.Get("name"), nil
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/hello/ann", nil))

	h, _ := rec.Handler()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	fmt.Println(strings.Contains(w.Body.String(), `http_route="hello/:name"`))
	// Output: true
}
