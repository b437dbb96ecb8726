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

package router

import (
	"errors"
	"fmt"

	"rivaas.dev/routing/router/route"
)

var (
	// ErrRouteNotFound indicates that no rule, name or alias matches a URL
	// reference passed to Build.
	ErrRouteNotFound = errors.New("route not found")

	// ErrMissingRouteParameter indicates that a required capture has no value
	// in the parameters passed to Build.
	ErrMissingRouteParameter = errors.New("missing required parameter")

	// ErrWildcardDomain indicates that a URL for a rule scoped to a wildcard
	// domain was built without an explicit domain.
	ErrWildcardDomain = errors.New("wildcard domain requires an explicit host")

	// ErrMissingHost indicates that an absolute URL was requested but no host
	// is known.
	ErrMissingHost = errors.New("no host for absolute url")

	// ErrNilRequest indicates that Check or Resolve was called with a nil request.
	ErrNilRequest = errors.New("nil request")

	// ErrInvalidScheme indicates that WithScheme was given a scheme other than
	// http or https.
	ErrInvalidScheme = errors.New("scheme must be http or https")

	// ErrInvalidSuffix indicates that a URL suffix contains a slash or is empty.
	ErrInvalidSuffix = errors.New("invalid url suffix")

	// ErrEmptyDefault indicates that a default module, controller or action
	// name is empty.
	ErrEmptyDefault = errors.New("default module, controller and action must be non-empty")

	// ErrServerTimeoutInvalid indicates that the server timeout value must be positive.
	ErrServerTimeoutInvalid = errors.New("server timeout must be positive")

	// ErrInvalidBinding indicates a domain or global binding with an empty target.
	ErrInvalidBinding = errors.New("invalid binding")

	// ErrNoInvoker indicates that ServeHTTP got a module, controller or method
	// dispatch but the router has no Invoker. It is answered 501.
	ErrNoInvoker = errors.New("no invoker for dispatch")

	// ErrInvalidAlias indicates an alias with an empty name or target, or a
	// name containing a slash.
	ErrInvalidAlias = errors.New("invalid alias")
)

// CompileError reports a rule that could not be registered or compiled.
// Freeze returns every CompileError found, joined.
type CompileError = route.CompileError

// BuildError reports a URL reference that could not be built.
type BuildError struct {
	Ref   string // Reference as passed to Build
	Param string // Missing parameter, for ErrMissingRouteParameter
	Err   error
}

// Error implements error.
func (e *BuildError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("build %q: %v %q", e.Ref, e.Err, e.Param)
	}
	return fmt.Sprintf("build %q: %v", e.Ref, e.Err)
}

// Unwrap returns the underlying sentinel.
func (e *BuildError) Unwrap() error {
	return e.Err
}
