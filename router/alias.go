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
	"slices"
	"strings"

	"rivaas.dev/routing/router/route"
)

// alias maps the first path segment to a module, controller or class.
type alias struct {
	name    string
	target  string
	kind    route.TargetKind
	only    []string
	except  []string
	methods []string
}

// AliasOption configures an alias.
type AliasOption func(*alias)

// AliasOnly restricts an alias to the given actions.
func AliasOnly(actions ...string) AliasOption {
	return func(a *alias) {
		a.only = append(a.only, actions...)
	}
}

// AliasExcept excludes actions from an alias.
func AliasExcept(actions ...string) AliasOption {
	return func(a *alias) {
		a.except = append(a.except, actions...)
	}
}

// AliasMethod restricts an alias to the given request methods.
func AliasMethod(methods ...string) AliasOption {
	return func(a *alias) {
		for _, m := range methods {
			a.methods = append(a.methods, strings.ToUpper(m))
		}
	}
}

// Alias maps the first path segment to a target. The second segment is
// the action and the rest is parsed as "key/value" pairs. Aliases are
// checked before rules; a request an alias filters out falls through to
// the rules.
//
// target is a module path ("index/user"), a controller ("@index/user") or
// a class (`\app\index\User`).
//
// Example:
//
//	r.Alias("user", "index/user", router.AliasExcept("delete"))
//	// GET /user/read/id/5 dispatches to index/user/read with id=5
func (r *Router) Alias(name, target string, opts ...AliasOption) *Router {
	r.mustMutable("Alias")

	a := &alias{name: strings.Trim(name, "/"), target: strings.Trim(strings.TrimSpace(target), "/")}
	switch {
	case strings.HasPrefix(a.target, `\`):
		a.kind = route.TargetMethod
		a.target = a.target[1:]
	case strings.HasPrefix(a.target, "@"):
		a.kind = route.TargetController
		a.target = a.target[1:]
	default:
		a.kind = route.TargetModule
	}
	if a.name == "" || strings.Contains(a.name, "/") || a.target == "" {
		r.Fail(&CompileError{Pattern: name, Target: target, Err: fmt.Errorf("%w: %q", ErrInvalidAlias, name)})
		return r
	}
	for _, opt := range opts {
		opt(a)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases = slices.DeleteFunc(r.aliases, func(o *alias) bool { return o.name == a.name })
	r.aliases = append(r.aliases, a)
	return r
}

func (a *alias) allows(method, action string) bool {
	if len(a.methods) > 0 && !slices.Contains(a.methods, method) {
		return false
	}
	if len(a.only) > 0 && !slices.Contains(a.only, action) {
		return false
	}
	return !slices.Contains(a.except, action)
}

// ref returns the reference the alias stands for, as used by Build.
func (a *alias) ref() string {
	switch a.kind {
	case route.TargetMethod:
		return `\` + a.target
	case route.TargetController:
		return "@" + a.target
	default:
		return a.target
	}
}

func (r *Router) matchAlias(t *table, method, path string, res *Result) bool {
	if len(t.aliases) == 0 {
		return false
	}
	name, rest := cutSegment(path)
	a, ok := t.aliases[name]
	if !ok {
		return false
	}
	action, rest := cutSegment(rest)
	action = or(action, r.defaultAction)
	if !a.allows(method, action) {
		return false
	}

	parsePairs(rest, res.Route, res.encoded)
	res.Alias = true
	switch a.kind {
	case route.TargetMethod:
		res.Dispatch = MethodDispatch{Class: a.target, Method: action}
	case route.TargetController:
		module, controller, _ := route.SplitModulePath(a.target + "/x")
		res.Dispatch = ControllerDispatch{Module: module, Controller: controller, Action: action}
	default:
		module, controller, _ := route.SplitModulePath(a.target + "/x")
		if controller == "" {
			controller = r.defaultController
		}
		if module == "" {
			if b := r.moduleBinding(res); b != nil {
				module, _ = b.split()
			}
		}
		res.Dispatch = ModuleDispatch{Module: or(module, r.defaultModule), Controller: controller, Action: action}
	}
	return true
}
