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

// Package errors renders routing errors as HTTP responses.
//
// A Formatter turns an error into a Response: status code, content type
// and a body ready for JSON encoding. Two formats are provided:
//   - RFC9457: problem details (application/problem+json), the router default
//   - Simple: a flat {"error": ...} object (application/json)
//
// Errors choose their status and code through optional interfaces:
//
//   - ErrorType: HTTPStatus() int
//   - ErrorCode: Code() string
//   - ErrorDetails: Details() any
//
// Sentinel errors that cannot implement them are wrapped instead:
//
//	err := errors.WithCode(errors.WithStatus(router.ErrRouteNotFound, http.StatusNotFound), "route_not_found")
//	resp := errors.NewRFC9457("https://example.com/problems").Format(req, err)
//	// resp.Status == 404, type "https://example.com/problems/route_not_found"
//
// Wrappers keep the wrapped error reachable through errors.Is and errors.As.
package errors
