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
	"fmt"
	"strconv"

	"rivaas.dev/routing/router/route"
)

// DispatchKind identifies a Dispatch variant.
type DispatchKind uint8

const (
	DispatchModule DispatchKind = iota + 1
	DispatchController
	DispatchMethod
	DispatchRedirect
	DispatchClosure
)

// String returns a short name for the dispatch kind.
func (k DispatchKind) String() string {
	switch k {
	case DispatchModule:
		return "module"
	case DispatchController:
		return "controller"
	case DispatchMethod:
		return "method"
	case DispatchRedirect:
		return "redirect"
	case DispatchClosure:
		return "closure"
	default:
		return "none"
	}
}

// Dispatch is what a matched request should run. It is one of
// ModuleDispatch, ControllerDispatch, MethodDispatch, RedirectDispatch or
// ClosureDispatch.
type Dispatch interface {
	Kind() DispatchKind
	String() string

	dispatch()
}

// ModuleDispatch runs an action of a controller in a module.
type ModuleDispatch struct {
	Module     string
	Controller string
	Action     string
}

func (ModuleDispatch) Kind() DispatchKind { return DispatchModule }
func (ModuleDispatch) dispatch() {}

func (d ModuleDispatch) String() string {
	return d.Module + "/" + d.Controller + "/" + d.Action
}

// ControllerDispatch runs an action of a controller directly, without the
// module dispatch conventions. Module is set when the target names one.
type ControllerDispatch struct {
	Module     string
	Controller string
	Action     string
}

func (ControllerDispatch) Kind() DispatchKind { return DispatchController }
func (ControllerDispatch) dispatch() {}

func (d ControllerDispatch) String() string {
	if d.Module == "" {
		return "@" + d.Controller + "/" + d.Action
	}
	return "@" + d.Module + "/" + d.Controller + "/" + d.Action
}

// MethodDispatch calls a method of a class.
type MethodDispatch struct {
	Class  string
	Method string
	Static bool
}

func (MethodDispatch) Kind() DispatchKind { return DispatchMethod }
func (MethodDispatch) dispatch() {}

func (d MethodDispatch) String() string {
	if d.Static {
		return `\` + d.Class + "::" + d.Method
	}
	return `\` + d.Class + "@" + d.Method
}

// RedirectDispatch redirects the client.
type RedirectDispatch struct {
	URL    string
	Status int
}

func (RedirectDispatch) Kind() DispatchKind { return DispatchRedirect }
func (RedirectDispatch) dispatch() {}

func (d RedirectDispatch) String() string {
	return strconv.Itoa(d.Status) + " " + d.URL
}

// ClosureDispatch calls a registered function.
type ClosureDispatch struct {
	Name string
	Func route.Closure
}

func (ClosureDispatch) Kind() DispatchKind { return DispatchClosure }
func (ClosureDispatch) dispatch() {}

func (d ClosureDispatch) String() string {
	if d.Name == "" {
		return "closure"
	}
	return "closure:" + d.Name
}

// Result is the outcome of Check or Resolve. A Result without a Dispatch
// is a miss; Check and Resolve return such a result rather than an error.
type Result struct {
	Dispatch Dispatch

	// Rule is the matched rule; nil for alias, binding and conventional
	// dispatches.
	Rule *route.Rule
	// Binding is the domain binding that matched the request host, or the
	// global binding when it took part in the dispatch.
	Binding *Binding

	// Route holds captures, target defaults and "key/value" path pairs.
	Route *route.Params
	// Query is the request query plus injected binding parameters. It is a
	// per-request copy.
	Query *route.Params
	// Form is a copy of the request form.
	Form *route.Params

	// Path is the matched path: no surrounding slashes, no suffix. When a
	// segment carried an escaped slash, "/" and "%" inside segments stay
	// escaped as "%2F" and "%25".
	Path string
	// Ext is the URL suffix stripped from the path, without the dot.
	Ext string

	// Miss reports that a group or global miss rule was used.
	Miss bool
	// Alias reports that an alias matched.
	Alias bool
	// Convention reports that the path was parsed as
	// "module/controller/action".
	Convention bool

	encoded bool
}

// Matched reports whether the request dispatches somewhere.
func (res *Result) Matched() bool {
	return res != nil && res.Dispatch != nil
}

// Param returns a request parameter. Form values win over query values,
// which win over route parameters.
func (res *Result) Param(name string) (string, bool) {
	if v, ok := res.Form.Value(name); ok {
		return v, true
	}
	if v, ok := res.Query.Value(name); ok {
		return v, true
	}
	return res.Route.Value(name)
}

// Merged returns route, query and form parameters in one set, with the
// precedence of Param.
func (res *Result) Merged() *route.Params {
	p := res.Route.Clone()
	p.Merge(res.Query)
	p.Merge(res.Form)
	return p
}

// Pattern returns a low-cardinality label for the dispatch, for metrics
// and traces: the rule pattern, or a sentinel for other outcomes.
func (res *Result) Pattern() string {
	switch {
	case !res.Matched():
		return "_not_found"
	case res.Rule != nil && res.Miss:
		return "_miss:" + res.Rule.Pattern()
	case res.Rule != nil:
		return res.Rule.Pattern()
	case res.Alias:
		return "_alias"
	case res.Convention:
		return "_convention"
	case res.Binding != nil:
		return "_bind:" + res.Binding.Kind.String()
	default:
		return "_unknown"
	}
}

// String implements fmt.Stringer.
func (res *Result) String() string {
	if !res.Matched() {
		return "no match"
	}
	if res.Route.Len() == 0 {
		return res.Dispatch.String()
	}
	return fmt.Sprintf("%s [%s]", res.Dispatch, res.Route)
}
