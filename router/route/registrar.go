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

package route

// DiagnosticKind categorizes diagnostic events emitted during registration.
type DiagnosticKind string

const (
	// DiagUnknownRestAction indicates an Only or Except option named an
	// action missing from the REST table.
	DiagUnknownRestAction DiagnosticKind = "rest_action_unknown"
)

// Registrar is implemented by the router. Groups and rules use it to add
// themselves without importing the router package.
//
// All methods are called during registration, before the router is frozen.
type Registrar interface {
	// IsFrozen reports whether registration is closed.
	IsFrozen() bool

	// AddRule appends a rule to the rule table in registration order.
	AddRule(r *Rule)

	// AddGroup records a nested group so its miss rule can be found.
	AddGroup(g *Group)

	// Fail records a registration error. It is returned by Freeze.
	Fail(err error)

	// RestActions returns the current REST action table.
	RestActions() []RestAction

	// StrictResources reports whether unknown REST action names in Only and
	// Except are registration errors.
	StrictResources() bool

	// Emit emits a diagnostic event.
	Emit(kind DiagnosticKind, msg string, data map[string]any)
}
