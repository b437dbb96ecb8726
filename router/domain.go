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
	"net"
	"slices"
	"strings"

	"rivaas.dev/routing/router/route"
)

// BindKind is the kind of a domain or global binding.
type BindKind uint8

const (
	// BindModule fills the module (and optionally the controller) of module
	// dispatches: "admin" or "admin/user".
	BindModule BindKind = iota
	// BindNamespace dispatches "controller/action" paths to classes of a
	// namespace.
	BindNamespace
	// BindClass dispatches "action" paths to methods of one class.
	BindClass
	// BindController dispatches "action" paths to one controller.
	BindController
	// BindRules scopes a rule set to the host. Only domain bindings have it.
	BindRules
)

// String returns a short name for the binding kind.
func (k BindKind) String() string {
	switch k {
	case BindModule:
		return "module"
	case BindNamespace:
		return "namespace"
	case BindClass:
		return "class"
	case BindController:
		return "controller"
	case BindRules:
		return "rules"
	default:
		return "unknown"
	}
}

// Binding ties a host, or the whole router, to a dispatch target.
type Binding struct {
	// Host is the host pattern as registered, empty for the global binding.
	Host   string
	Kind   BindKind
	Target string
	// Query is injected into the request query when the binding matches.
	Query *route.Params
	// Label is the sub-domain part matched by a wildcard host.
	Label string

	group *route.Group
}

// Domain binds a host to a target. host is an exact host, a bare label
// under the root domain ("blog" with root domain "example.com"), a
// "*.suffix" wildcard or "*" for any sub-domain except "www".
//
// The target prefix selects the binding kind:
//
//	admin             module
//	admin/user        module and controller
//	\app\api          namespace
//	@\app\api\Blog    class
//	:index/blog       controller
//
// A "?k=v" suffix is injected into the request query; a "*" value is
// replaced by the matched sub-domain label.
//
// Example:
//
//	r.Domain("*.example.com", "index/user?name=*")
//	r.Domain("api", `\app\api`)
func (r *Router) Domain(host, target string) *Router {
	kind, ref := ParseBindTarget(target)
	return r.BindDomain(host, ref, kind)
}

// BindDomain binds a host to a target of an explicit kind. target may
// carry a "?k=v" query.
func (r *Router) BindDomain(host, target string, kind BindKind) *Router {
	r.mustMutable("BindDomain")
	b, err := newBinding(normalizeHost(host), target, kind)
	if err != nil {
		r.Fail(&CompileError{Pattern: host, Target: target, Err: err})
		return r
	}
	r.addBinding(b)
	return r
}

// DomainRules returns a group whose rules only match requests for host.
// Domain rules are tried before global rules.
//
// Example:
//
//	api := r.DomainRules("api.example.com")
//	api.GET("user/:id", "api/user/read")
func (r *Router) DomainRules(host string) *route.Group {
	r.mustMutable("DomainRules")
	host = normalizeHost(host)

	r.mu.Lock()
	if b := r.domains.exactOrPattern(host); b != nil && b.Kind == BindRules {
		r.mu.Unlock()
		return b.group
	}
	r.mu.Unlock()

	g := route.NewGroup(r, "", host)
	r.addBinding(&Binding{Host: host, Kind: BindRules, group: g})
	return g
}

// Bind sets the global binding, used when no domain binding matches.
//
// Example:
//
//	r.Bind("admin", router.BindModule)
func (r *Router) Bind(target string, kind BindKind) *Router {
	r.mustMutable("Bind")
	if kind == BindRules {
		r.Fail(fmt.Errorf("%w: rule sets can only be bound to a domain", ErrInvalidBinding))
		return r
	}
	b, err := newBinding("", target, kind)
	if err != nil {
		r.Fail(&CompileError{Target: target, Err: err})
		return r
	}
	r.mu.Lock()
	r.bind = b
	r.mu.Unlock()
	return r
}

func (r *Router) addBinding(b *Binding) {
	r.mu.Lock()
	prev := r.domains.add(b)
	r.mu.Unlock()

	if prev != nil {
		r.emit(DiagAmbiguousBinding, "domain bound twice, last binding wins", map[string]any{
			"host":     b.Host,
			"previous": prev.Kind.String(),
			"binding":  b.Kind.String(),
		})
	}
}

// ParseBindTarget infers the binding kind from the target prefix: "@" for
// a class, a backslash for a namespace, ":" for a controller and none for
// a module. The returned target has the "@" or ":" prefix removed.
func ParseBindTarget(target string) (BindKind, string) {
	target = strings.TrimSpace(target)
	switch {
	case strings.HasPrefix(target, "@"):
		return BindClass, target[1:]
	case strings.HasPrefix(target, `\`):
		return BindNamespace, target
	case strings.HasPrefix(target, ":"):
		return BindController, target[1:]
	default:
		return BindModule, target
	}
}

func newBinding(host, target string, kind BindKind) (*Binding, error) {
	ref, query, _ := strings.Cut(strings.TrimSpace(target), "?")
	if kind == BindNamespace || kind == BindClass {
		ref = strings.TrimPrefix(ref, `\`)
	}
	ref = strings.Trim(ref, "/")
	if ref == "" {
		return nil, fmt.Errorf("%w: empty target", ErrInvalidBinding)
	}
	params, err := route.ParseParams(query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBinding, err)
	}
	return &Binding{Host: host, Kind: kind, Target: ref, Query: params}, nil
}

// normalizeHost lower-cases a host and strips its port and trailing dot.
func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimSuffix(host, ".")
}

// domainTable maps hosts to bindings.
type domainTable struct {
	root      string
	exact     map[string]*Binding
	wildcards []*Binding
	catchAll  *Binding
	order     []*Binding
}

func newDomainTable(root string) *domainTable {
	return &domainTable{root: root, exact: make(map[string]*Binding)}
}

// add stores b and returns the binding it replaced, if any.
func (d *domainTable) add(b *Binding) *Binding {
	prev := d.exactOrPattern(b.Host)
	if prev != nil {
		d.order = slices.DeleteFunc(d.order, func(o *Binding) bool { return o == prev })
	}
	d.order = append(d.order, b)

	switch {
	case b.Host == "*":
		d.catchAll = b
	case strings.HasPrefix(b.Host, "*."):
		d.wildcards = slices.DeleteFunc(d.wildcards, func(o *Binding) bool { return o == prev })
		d.wildcards = append(d.wildcards, b)
		// Longest suffix first.
		slices.SortStableFunc(d.wildcards, func(a, b *Binding) int {
			return len(b.Host) - len(a.Host)
		})
	default:
		d.exact[b.Host] = b
	}
	return prev
}

func (d *domainTable) exactOrPattern(host string) *Binding {
	switch {
	case host == "*":
		return d.catchAll
	case strings.HasPrefix(host, "*."):
		for _, w := range d.wildcards {
			if w.Host == host {
				return w
			}
		}
		return nil
	default:
		return d.exact[host]
	}
}

// resolve finds the binding for a request host. The result is a copy with
// Label set and the query wildcard substituted.
func (d *domainTable) resolve(host string) *Binding {
	if d == nil || len(d.order) == 0 || host == "" {
		return nil
	}
	host = normalizeHost(host)

	sub := ""
	if d.root != "" && strings.HasSuffix(host, "."+d.root) {
		sub = strings.TrimSuffix(host, "."+d.root)
	}

	if b, ok := d.exact[host]; ok {
		return b.matched("")
	}
	if sub != "" {
		if b, ok := d.exact[sub]; ok {
			return b.matched("")
		}
	}
	for _, w := range d.wildcards {
		suffix := w.Host[1:]
		if label, ok := cutLabel(host, suffix); ok {
			return w.matched(label)
		}
		if label, ok := cutLabel(sub, suffix); ok {
			return w.matched(label)
		}
	}
	if d.catchAll != nil {
		label := sub
		if label == "" && d.root == "" {
			label, _, _ = strings.Cut(host, ".")
			if label == host {
				label = ""
			}
		}
		if label != "" && label != "www" {
			return d.catchAll.matched(label)
		}
	}
	return nil
}

// cutLabel returns the part of host before suffix (".example.com").
func cutLabel(host, suffix string) (string, bool) {
	if host == "" || len(host) <= len(suffix) || !strings.HasSuffix(host, suffix) {
		return "", false
	}
	return host[:len(host)-len(suffix)], true
}

func (d *domainTable) groups() []*route.Group {
	var groups []*route.Group
	for _, b := range d.order {
		if b.group != nil {
			groups = append(groups, b.group)
		}
	}
	return groups
}

func (b *Binding) matched(label string) *Binding {
	c := *b
	c.Label = label
	c.Query = b.Query.Clone()
	if label != "" {
		for _, k := range c.Query.Keys() {
			if c.Query.Get(k) == "*" {
				c.Query.Set(k, label)
			}
		}
	}
	return &c
}

// Group returns the rule group of a BindRules binding.
func (b *Binding) Group() *route.Group {
	return b.group
}

// split returns the module and controller of a module binding.
func (b *Binding) split() (module, controller string) {
	module, controller, _ = strings.Cut(b.Target, "/")
	return module, controller
}
