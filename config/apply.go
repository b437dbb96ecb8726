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

package config

import (
	"errors"
	"fmt"

	"rivaas.dev/routing/router"
	"rivaas.dev/routing/router/route"
)

// ErrFrozenRouter is returned by Apply for a router that no longer
// accepts registrations.
var ErrFrozenRouter = errors.New("router is frozen")

// registrar is implemented by *router.Router and *route.Group.
type registrar interface {
	Rule(pattern string, target any, methods ...string) *route.Rule
	Resource(name, target string, opts ...route.ResourceOption) route.Rules
	Group(prefix string) *route.Group
	Miss(target any) *route.Rule
}

// RouterOptions returns the router options of the table.
func (t *RouteTable) RouterOptions() []router.Option {
	o := t.Options
	var opts []router.Option
	if o.Root != "" {
		opts = append(opts, router.WithRoot(o.Root))
	}
	if o.Suffix != nil {
		opts = append(opts, router.WithSuffix(o.Suffix...))
	}
	if o.SuffixStrip != nil && !*o.SuffixStrip {
		opts = append(opts, router.WithoutSuffixStrip())
	}
	if o.RootDomain != "" {
		opts = append(opts, router.WithRootDomain(o.RootDomain))
	}
	if o.Scheme != "" {
		opts = append(opts, router.WithScheme(o.Scheme))
	}
	if o.StrictResources {
		opts = append(opts, router.WithStrictResources())
	}
	if o.LenientBuild {
		opts = append(opts, router.WithLenientBuild())
	}
	if o.URLConvert != nil {
		opts = append(opts, router.WithURLConvert(*o.URLConvert))
	}
	if o.Conventional != nil {
		opts = append(opts, router.WithConventional(*o.Conventional))
	}
	if o.CompleteMatch != nil {
		opts = append(opts, router.WithCompleteMatch(*o.CompleteMatch))
	}
	if o.PathVars {
		opts = append(opts, router.WithPathVars())
	}
	if d := o.Defaults; d != (Defaults{}) {
		opts = append(opts, router.WithDefaults(or(d.Module, "index"), or(d.Controller, "index"), or(d.Action, "index")))
	}
	return opts
}

// Apply registers the table on r: patterns and the REST table first, then
// aliases, bindings, domains, rules, groups, resources and the miss rule.
// Registration errors are reported by r.Freeze.
func (t *RouteTable) Apply(r *router.Router) error {
	if r.IsFrozen() {
		return NewError("apply", "apply", ErrFrozenRouter)
	}

	if len(t.Patterns) > 0 {
		r.Patterns(t.Patterns)
	}
	if len(t.Rest) > 0 || t.RestReplace {
		actions := make([]route.RestAction, 0, len(t.Rest))
		for _, a := range t.Rest {
			actions = append(actions, route.RestAction{Name: a.Name, Method: a.Method, Path: a.Path, Action: a.Action})
		}
		r.RestTable(actions, t.RestReplace)
	}

	for _, a := range t.Aliases {
		var opts []router.AliasOption
		if a.Only != nil {
			opts = append(opts, router.AliasOnly(a.Only...))
		}
		if a.Except != nil {
			opts = append(opts, router.AliasExcept(a.Except...))
		}
		if a.Methods != nil {
			opts = append(opts, router.AliasMethod(a.Methods...))
		}
		r.Alias(a.Name, a.Target, opts...)
	}

	if b := t.Bind; b != nil {
		kind, target, err := bindKind(b)
		if err != nil {
			return NewFieldError("apply", "bind.kind", "apply", err)
		}
		r.Bind(target, kind)
	}

	for _, d := range t.Domains {
		if d.Target != "" {
			r.Domain(d.Host, d.Target)
			continue
		}
		g := r.DomainRules(d.Host)
		applyScope(g, d.Rules, nil, d.Resources)
		if d.Miss != "" {
			g.Miss(d.Miss)
		}
	}

	applyScope(r, t.Rules, t.Groups, t.Resources)
	if t.Miss != "" {
		r.Miss(t.Miss)
	}

	return nil
}

// NewRouter creates a router from the table options and opts, applies the
// table and freezes the router.
func (t *RouteTable) NewRouter(opts ...router.Option) (*router.Router, error) {
	r, err := router.New(append(t.RouterOptions(), opts...)...)
	if err != nil {
		return nil, NewError("apply", "new-router", err)
	}
	if err := t.Apply(r); err != nil {
		return nil, err
	}
	if err := r.Freeze(); err != nil {
		return nil, NewError("apply", "freeze", err)
	}
	return r, nil
}

func applyScope(reg registrar, rules []Rule, groups []Group, resources []Resource) {
	for _, rl := range rules {
		applyRule(reg, rl)
	}
	for _, g := range groups {
		applyGroup(reg.Group(g.Prefix), g)
	}
	for _, res := range resources {
		applyResource(reg, res)
	}
}

func applyRule(reg registrar, rl Rule) {
	r := reg.Rule(rl.Pattern, rl.Target, rl.Methods...)
	if rl.Name != "" {
		r.SetName(rl.Name)
	}
	if len(rl.Where) > 0 {
		r.WhereMap(rl.Where)
	}
	switch {
	case rl.NoExt:
		r.SetExt()
	case len(rl.Ext) > 0:
		r.SetExt(rl.Ext...)
	}
	if len(rl.DenyExt) > 0 {
		r.SetDenyExt(rl.DenyExt...)
	}
	if rl.HTTPS {
		r.RequireHTTPS()
	}
	if rl.Merge {
		r.MergeExtraVars()
	}
	if rl.Status != 0 {
		r.SetStatus(rl.Status)
	}
	if rl.Complete != nil {
		r.SetComplete(*rl.Complete)
	}
}

func applyGroup(g *route.Group, cfg Group) {
	if cfg.NamePrefix != "" {
		g.SetNamePrefix(cfg.NamePrefix)
	}
	if len(cfg.Where) > 0 {
		g.WhereMap(cfg.Where)
	}
	if len(cfg.Ext) > 0 {
		g.SetExt(cfg.Ext...)
	}
	if len(cfg.DenyExt) > 0 {
		g.SetDenyExt(cfg.DenyExt...)
	}
	if len(cfg.Methods) > 0 {
		g.SetMethod(cfg.Methods...)
	}
	if cfg.HTTPS {
		g.RequireHTTPS()
	}
	if cfg.Merge {
		g.MergeExtraVars()
	}
	applyScope(g, cfg.Rules, cfg.Groups, cfg.Resources)
	if cfg.Miss != "" {
		g.Miss(cfg.Miss)
	}
}

func applyResource(reg registrar, res Resource) {
	var opts []route.ResourceOption
	if res.Only != nil {
		opts = append(opts, route.Only(res.Only...))
	}
	if res.Except != nil {
		opts = append(opts, route.Except(res.Except...))
	}
	if len(res.Vars) > 0 {
		opts = append(opts, route.Vars(res.Vars))
	}
	rules := reg.Resource(res.Name, res.Target, opts...)
	for name, regex := range res.Where {
		rules.Where(name, regex)
	}
	if len(res.Ext) > 0 {
		rules.SetExt(res.Ext...)
	}
	if res.HTTPS {
		rules.RequireHTTPS()
	}
}

func bindKind(b *Binding) (router.BindKind, string, error) {
	switch b.Kind {
	case "":
		kind, target := router.ParseBindTarget(b.Target)
		return kind, target, nil
	case "module":
		return router.BindModule, b.Target, nil
	case "namespace":
		return router.BindNamespace, b.Target, nil
	case "class":
		return router.BindClass, b.Target, nil
	case "controller":
		return router.BindController, b.Target, nil
	default:
		return 0, "", fmt.Errorf("unknown binding kind %q", b.Kind)
	}
}

func or(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
