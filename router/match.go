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
	"net/http"
	"slices"
	"strings"

	"rivaas.dev/routing/router/compiler"
	"rivaas.dev/routing/router/route"
)

// Check resolves a request to a dispatch using aliases, bindings and
// rules. A request nothing matches yields a Result whose Matched method
// reports false; the error is only set for a nil request or a rule table
// that failed to freeze.
//
// The order of checks is:
//
//  1. the host is resolved to a domain binding, whose query is injected
//  2. aliases
//  3. class, namespace and controller bindings, which dispatch directly
//  4. rules of the bound domain, then global rules, in registration order
//  5. the miss rule of the deepest group whose prefix matches, then the
//     global miss rule
//
// Example:
//
//	res, err := r.Check(router.MustRequest(http.MethodGet, "/blog/5"))
//	if err != nil {
//	    return err
//	}
//	if !res.Matched() {
//	    // 404
//	}
func (r *Router) Check(req *Request) (*Result, error) {
	if req == nil {
		return nil, ErrNilRequest
	}
	if err := r.Freeze(); err != nil {
		return nil, err
	}
	return r.check(req), nil
}

func (r *Router) check(req *Request) *Result {
	t := r.table

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	raw, encoded := req.matchPath()
	path, ext := r.splitPath(raw)

	res := &Result{
		Route: &route.Params{},
		Query: req.Query.Clone(),
		Form:  req.Form.Clone(),
		Path:  path,
		Ext:   ext,

		encoded: encoded,
	}

	binding := t.hosts.resolve(req.Host)
	if binding != nil {
		res.Binding = binding
		res.Query.Merge(binding.Query)
	}

	if r.matchAlias(t, method, path, res) {
		return res
	}

	direct := binding
	if direct == nil {
		direct = t.bind
	}
	if direct != nil && direct.Kind != BindModule && direct.Kind != BindRules {
		res.Binding = direct
		r.dispatchBinding(direct, path, res)
		return res
	}

	if binding != nil && binding.Kind == BindRules {
		if r.matchSet(t.domains[binding.Host], method, path, ext, req.Scheme, res) {
			return res
		}
	}
	if r.matchSet(t.global, method, path, ext, req.Scheme, res) {
		return res
	}

	r.matchMiss(t, binding, method, path, res)
	return res
}

// splitPath trims slashes and strips the URL suffix.
func (r *Router) splitPath(p string) (path, ext string) {
	p = strings.Trim(p, "/")
	if !r.stripSuffix {
		return p, ""
	}

	seg := p[strings.LastIndexByte(p, '/')+1:]
	dot := strings.LastIndexByte(seg, '.')
	if dot <= 0 || dot == len(seg)-1 {
		return p, ""
	}
	ext = strings.ToLower(seg[dot+1:])
	if len(r.suffixes) > 0 && !slices.Contains(r.suffixes, ext) {
		return p, ""
	}
	return p[:len(p)-len(seg)+dot], ext
}

// matchSet scans the rules of one scope for method. The first rule whose
// filters pass and whose pattern matches wins.
func (r *Router) matchSet(set *ruleSet, method, path, ext, scheme string, res *Result) bool {
	list := set.list(method)
	if list == nil || len(list.rules) == 0 {
		return false
	}

	full := path
	if ext != "" {
		full = path + "." + ext
	}
	if !list.filter.MayMatch(path) && (ext == "" || !list.filter.MayMatch(full)) {
		return false
	}

	for _, rule := range list.rules {
		p := rule.Compiled()

		// Patterns spelling out an extension match the unstripped path.
		candidate, candidateExt := path, ext
		if ext != "" && p.HasExtension() {
			candidate, candidateExt = full, ""
		}
		if seg, ok := p.FirstSegment(); ok && !(p.Partial() && seg == "") && seg != compiler.FirstSegment(candidate) {
			continue
		}
		if !rule.Accepts(method) || !rule.AllowsScheme(scheme) || !rule.AllowsExt(candidateExt) {
			continue
		}

		captures, rest, ok := rule.Match(candidate)
		if !ok {
			continue
		}
		r.dispatchRule(rule, captures, rest, res)
		return true
	}
	return false
}

// matchMiss dispatches to the miss rule of the deepest group whose prefix
// matches path, or to the global miss rule.
func (r *Router) matchMiss(t *table, binding *Binding, method, path string, res *Result) bool {
	var best *route.Rule
	for _, m := range t.misses {
		if d := m.Domain(); d != "" && (binding == nil || binding.Kind != BindRules || binding.Host != d) {
			continue
		}
		if !m.Accepts(method) {
			continue
		}
		if _, _, ok := m.Match(path); !ok {
			continue
		}
		if best == nil || m.Group().Depth() > best.Group().Depth() {
			best = m
		}
	}
	if best == nil && t.miss != nil && t.miss.Accepts(method) {
		best = t.miss
	}
	if best == nil {
		return false
	}

	captures, _, _ := best.Match(path)
	r.dispatchRule(best, captures, "", res)
	res.Miss = true
	return true
}
