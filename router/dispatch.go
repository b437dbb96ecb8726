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
	"strings"

	"rivaas.dev/routing/router/compiler"
	"rivaas.dev/routing/router/route"
)

// dispatchRule fills res from a matched rule. Target defaults come first,
// captures override them, and "key/value" pairs from the unmatched rest
// only fill keys still absent.
func (r *Router) dispatchRule(rule *route.Rule, captures []compiler.Capture, rest string, res *Result) {
	target := rule.Target()
	res.Rule = rule
	res.Route.Merge(target.Query)
	for _, c := range captures {
		v := c.Value
		if res.encoded {
			v = decodeSegment(v)
		}
		res.Route.Set(c.Name, v)
	}
	parsePairs(rest, res.Route, res.encoded)
	res.Dispatch = r.targetDispatch(target, res, rule.Status())
}

func (r *Router) targetDispatch(t route.Target, res *Result, status int) Dispatch {
	switch t.Kind {
	case route.TargetModule:
		module := substitute(t.Module, res.Route)
		controller := substitute(t.Controller, res.Route)
		action := substitute(t.Action, res.Route)
		if module == "" {
			if b := r.moduleBinding(res); b != nil {
				module, _ = b.split()
				if controller == "" {
					_, controller = b.split()
				}
			}
		}
		return ModuleDispatch{
			Module:     or(module, r.defaultModule),
			Controller: or(controller, r.defaultController),
			Action:     or(action, r.defaultAction),
		}

	case route.TargetController:
		return ControllerDispatch{
			Module:     substitute(t.Module, res.Route),
			Controller: substitute(t.Controller, res.Route),
			Action:     or(substitute(t.Action, res.Route), r.defaultAction),
		}

	case route.TargetMethod:
		return MethodDispatch{
			Class:  t.Class,
			Method: or(substitute(t.Method, res.Route), r.defaultAction),
			Static: t.Static,
		}

	case route.TargetRedirect:
		return RedirectDispatch{URL: substitute(t.URL, res.Route), Status: status}

	case route.TargetClosure:
		return ClosureDispatch{Name: t.Ref, Func: t.Func}
	}
	return nil
}

// dispatchBinding dispatches a path directly to a class, namespace or
// controller binding.
func (r *Router) dispatchBinding(b *Binding, path string, res *Result) {
	switch b.Kind {
	case BindClass:
		method, rest := cutSegment(path)
		parsePairs(rest, res.Route, res.encoded)
		res.Dispatch = MethodDispatch{Class: b.Target, Method: or(method, r.defaultAction)}

	case BindNamespace:
		controller, rest := cutSegment(path)
		action, rest := cutSegment(rest)
		parsePairs(rest, res.Route, res.encoded)
		res.Dispatch = MethodDispatch{
			Class:  b.Target + `\` + studly(or(controller, r.defaultController)),
			Method: or(action, r.defaultAction),
		}

	case BindController:
		action, rest := cutSegment(path)
		parsePairs(rest, res.Route, res.encoded)
		module, controller, _ := route.SplitModulePath(b.Target + "/x")
		res.Dispatch = ControllerDispatch{Module: module, Controller: controller, Action: or(action, r.defaultAction)}
	}
}

// moduleBinding returns the binding that supplies the module of module
// dispatches: the domain binding, else the global binding.
func (r *Router) moduleBinding(res *Result) *Binding {
	if res.Binding != nil {
		if res.Binding.Kind == BindModule {
			return res.Binding
		}
		return nil
	}
	if b := r.table.bind; b != nil && b.Kind == BindModule {
		return b
	}
	return nil
}

// parsePairs parses "k1/v1/k2/v2" into p. Keys already present are kept;
// a trailing key without value gets "".
func parsePairs(rest string, p *route.Params, encoded bool) {
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return
	}
	parts := strings.Split(rest, "/")
	for i := 0; i < len(parts); i += 2 {
		k := parts[i]
		if encoded {
			k = decodeSegment(k)
		}
		if k == "" || p.Has(k) {
			continue
		}
		v := ""
		if i+1 < len(parts) {
			v = parts[i+1]
		}
		if encoded {
			v = decodeSegment(v)
		}
		p.Set(k, v)
	}
}

func cutSegment(path string) (string, string) {
	seg, rest, _ := strings.Cut(strings.Trim(path, "/"), "/")
	return seg, rest
}

func substitute(tmpl string, p *route.Params) string {
	s, _ := route.Substitute(tmpl, p)
	return s
}

func or(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// studly converts "blog_post" to "BlogPost".
func studly(name string) string {
	var b strings.Builder
	upper := true
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '_' {
			upper = true
			continue
		}
		if upper && 'a' <= c && c <= 'z' {
			c -= 'a' - 'A'
		}
		upper = false
		b.WriteByte(c)
	}
	return b.String()
}

// snake converts "BlogPost" to "blog_post".
func snake(name string) string {
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		if 'A' <= c && c <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			c += 'a' - 'A'
		}
		b.WriteByte(c)
	}
	return b.String()
}
