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
	"maps"
	"slices"

	"rivaas.dev/routing/router/route"
)

// DiagnosticEvent represents a router diagnostic or anomaly.
// These are informational events that may indicate configuration issues.
//
// Diagnostic events are optional; the router behaves the same whether they
// are collected or not.
type DiagnosticEvent struct {
	Kind    DiagnosticKind
	Message string
	Fields  map[string]any // Structured context
}

// DiagnosticKind categorizes diagnostic events.
type DiagnosticKind = route.DiagnosticKind

const (
	// Registration diagnostics
	DiagUnknownRestAction DiagnosticKind = route.DiagUnknownRestAction
	DiagAmbiguousBinding  DiagnosticKind = "binding_ambiguous"
	DiagDuplicateName     DiagnosticKind = "rule_name_duplicate"
	DiagRulesFrozen       DiagnosticKind = "rules_frozen"

	// Runtime diagnostics
	DiagLenientBuild  DiagnosticKind = "build_lenient"
	DiagH2CEnabled    DiagnosticKind = "h2c_enabled"
	DiagInvokerAbsent DiagnosticKind = "invoker_absent"
)

// DiagnosticHandler receives diagnostic events from the router.
// Implementations may log, emit metrics, trace events, or ignore them.
//
// Example with logging:
//
//	handler := router.DiagnosticHandlerFunc(func(e router.DiagnosticEvent) {
//	    slog.Warn(e.Message, "kind", e.Kind, "fields", e.Fields)
//	})
//	r := router.MustNew(router.WithDiagnostics(handler))
type DiagnosticHandler interface {
	OnDiagnostic(DiagnosticEvent)
}

// DiagnosticHandlerFunc is a function adapter for DiagnosticHandler.
type DiagnosticHandlerFunc func(DiagnosticEvent)

func (f DiagnosticHandlerFunc) OnDiagnostic(e DiagnosticEvent) {
	f(e)
}

// emit sends an event to the diagnostic handler. Without one, events are
// logged: the frozen table at debug level, everything else at warn level.
func (r *Router) emit(kind DiagnosticKind, msg string, fields map[string]any) {
	if r.diagnostics != nil {
		r.diagnostics.OnDiagnostic(DiagnosticEvent{Kind: kind, Message: msg, Fields: fields})
		return
	}

	args := make([]any, 0, 2+2*len(fields))
	args = append(args, "kind", string(kind))
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		args = append(args, k, fields[k])
	}
	if kind == DiagRulesFrozen {
		r.logger.Debug(msg, args...)
		return
	}
	r.logger.Warn(msg, args...)
}

// MultiDiagnostics fans events out to several handlers in order. Nil
// handlers are skipped.
//
//	r := router.MustNew(router.WithDiagnostics(router.MultiDiagnostics(logHandler, metricsHandler)))
func MultiDiagnostics(handlers ...DiagnosticHandler) DiagnosticHandler {
	list := make([]DiagnosticHandler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			list = append(list, h)
		}
	}
	return multiDiagnostics(list)
}

type multiDiagnostics []DiagnosticHandler

func (m multiDiagnostics) OnDiagnostic(e DiagnosticEvent) {
	for _, h := range m {
		h.OnDiagnostic(e)
	}
}
