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

package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"

	"rivaas.dev/routing/errors"
)

var errNoRoute = stderrors.New("route not found")

// ExampleRFC9457 formats an unmatched route as problem details.
func ExampleRFC9457() {
	f := &errors.RFC9457{BaseURL: "https://example.com/problems", DisableErrorID: true}
	err := errors.WithCode(errors.WithStatus(errNoRoute, http.StatusNotFound), "route_not_found")

	resp := f.Format(httptest.NewRequest(http.MethodGet, "/blog/abc", nil), err)
	p := resp.Body.(errors.ProblemDetail)

	fmt.Println(resp.Status, resp.ContentType)
	fmt.Println(p.Type)
	fmt.Println(p.Instance)
	// Output:
	// 404 application/problem+json; charset=utf-8
	// https://example.com/problems/route_not_found
	// /blog/abc
}

// ExampleSimple formats an error as a flat JSON object.
func ExampleSimple() {
	resp := errors.NewSimple().Format(nil, errors.WithStatus(errNoRoute, http.StatusNotFound))

	fmt.Println(resp.Status, resp.Body)
	// Output: 404 map[error:route not found]
}
