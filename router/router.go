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
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	riverrors "rivaas.dev/routing/errors"
	"rivaas.dev/routing/router/compiler"
	"rivaas.dev/routing/router/route"
)

// Router holds the rule table of an application and answers three
// questions about it: which target a request dispatches to (Check and
// Resolve), which URL reaches a target (Build), and how to serve the
// dispatch over HTTP (ServeHTTP).
//
// Rules are registered first, in order. The first call to Freeze, Check,
// Resolve, Build or ServeHTTP compiles every rule and freezes the table;
// registering afterwards panics. A frozen router is safe for concurrent
// use.
//
// Example:
//
//	r := router.MustNew(router.WithSuffix("html"))
//	r.GET("blog/:id", "index/blog/read").Where("id", `\d+`).SetName("blog.read")
//	r.Resource("user", "index/user")
//	r.MustFreeze()
//
//	res, _ := r.Check(router.MustRequest(http.MethodGet, "/blog/5.html"))
//	// res.Dispatch: index/blog/read, res.Param("id"): "5"
//
//	u, _ := r.Build("blog.read", route.NewParams("id", "5"))
//	// u: "/blog/5.html"
type Router struct {
	logger      *slog.Logger
	diagnostics DiagnosticHandler

	root              string
	suffixes          []string
	stripSuffix       bool
	rootDomain        string
	scheme            string
	strictResources   bool
	lenientBuild      bool
	urlConvert        bool
	conventional      bool
	completeMatch     bool
	pathVars          bool
	defaultModule     string
	defaultController string
	defaultAction     string

	invoker        Invoker
	observability  ObservabilityRecorder
	formatter      riverrors.Formatter
	enableH2C      bool
	serverTimeouts *serverTimeouts

	// Registration state, guarded by mu until frozen.
	mu       sync.Mutex
	group    *route.Group
	rules    []*route.Rule
	groups   []*route.Group
	patterns map[string]string
	rest     []route.RestAction
	domains  *domainTable
	bind     *Binding
	aliases  []*alias
	errs     []error

	freezeOnce sync.Once
	frozen     atomic.Bool
	freezeErr  error
	table      *table
}

// New creates a new Router with the given options.
// It returns an error if the configuration is invalid.
//
// Example:
//
//	r, err := router.New(
//	    router.WithSuffix("html"),
//	    router.WithRootDomain("example.com"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
func New(opts ...Option) (*Router, error) {
	r := &Router{
		logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
		stripSuffix:       true,
		scheme:            "http",
		urlConvert:        true,
		conventional:      true,
		completeMatch:     true,
		defaultModule:     "index",
		defaultController: "index",
		defaultAction:     "index",
		formatter:         riverrors.NewRFC9457(""),
		patterns:          make(map[string]string),
		rest:              route.DefaultRestActions(),
	}
	r.group = route.NewGroup(r, "", "")

	for _, opt := range opts {
		opt(r)
	}

	if err := r.validate(); err != nil {
		return nil, fmt.Errorf("router configuration validation failed: %w", err)
	}
	r.domains = newDomainTable(r.rootDomain)

	return r, nil
}

// MustNew creates a new Router and panics if the configuration is invalid.
//
// Usage:
//
//	r := router.MustNew(router.WithSuffix("html"))
func MustNew(opts ...Option) *Router {
	r, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("router.MustNew: %v", err))
	}
	return r
}

// validate checks the router configuration for common errors.
func (r *Router) validate() error {
	if r.scheme != "http" && r.scheme != "https" {
		return fmt.Errorf("%w: got %q", ErrInvalidScheme, r.scheme)
	}
	for _, ext := range r.suffixes {
		if ext == "" || strings.ContainsAny(ext, "/?#") {
			return fmt.Errorf("%w: %q", ErrInvalidSuffix, ext)
		}
	}
	if r.defaultModule == "" || r.defaultController == "" || r.defaultAction == "" {
		return ErrEmptyDefault
	}
	if t := r.serverTimeouts; t != nil {
		if t.readHeader <= 0 || t.read <= 0 || t.write <= 0 || t.idle <= 0 {
			return ErrServerTimeoutInvalid
		}
	}
	return nil
}

func (r *Router) mustMutable(op string) {
	if r.frozen.Load() {
		panic(fmt.Errorf("%w: cannot call %s", route.ErrFrozen, op))
	}
}

// GET registers a rule answering GET requests.
//
// target is a target string, a route.Target or a route.Closure:
//
//	r.GET("blog/:id", "index/blog/read")           // module/controller/action
//	r.GET("blog/:id", "@index/blog/read")          // controller
//	r.GET("blog/:id", `\app\index\Blog@read`)      // class method
//	r.GET("old/:id", "/new/:id").SetStatus(302)    // redirect
//	r.GET("hello/:name", route.Func("hello", fn))  // closure
func (r *Router) GET(pattern string, target any) *route.Rule {
	return r.group.GET(pattern, target)
}

// POST registers a rule answering POST requests.
//
// Example:
//
//	r.POST("blog", "index/blog/save")
func (r *Router) POST(pattern string, target any) *route.Rule {
	return r.group.POST(pattern, target)
}

// PUT registers a rule answering PUT requests.
//
// Example:
//
//	r.PUT("blog/:id", "index/blog/update")
func (r *Router) PUT(pattern string, target any) *route.Rule {
	return r.group.PUT(pattern, target)
}

// DELETE registers a rule answering DELETE requests.
//
// Example:
//
//	r.DELETE("blog/:id", "index/blog/delete")
func (r *Router) DELETE(pattern string, target any) *route.Rule {
	return r.group.DELETE(pattern, target)
}

// PATCH registers a rule answering PATCH requests.
func (r *Router) PATCH(pattern string, target any) *route.Rule {
	return r.group.PATCH(pattern, target)
}

// HEAD registers a rule answering HEAD requests.
func (r *Router) HEAD(pattern string, target any) *route.Rule {
	return r.group.HEAD(pattern, target)
}

// OPTIONS registers a rule answering OPTIONS requests.
func (r *Router) OPTIONS(pattern string, target any) *route.Rule {
	return r.group.OPTIONS(pattern, target)
}

// Any registers a rule answering every method.
func (r *Router) Any(pattern string, target any) *route.Rule {
	return r.group.Any(pattern, target)
}

// Rule registers a rule for the given methods ("GET|POST" style lists are
// accepted). No methods means any method.
func (r *Router) Rule(pattern string, target any, methods ...string) *route.Rule {
	return r.group.Rule(pattern, target, methods...)
}

// Group creates a rule group with a path prefix.
//
// Example:
//
//	blog := r.Group("blog").Where("id", `\d+`)
//	blog.GET(":id", "index/blog/read")
//	blog.Miss("index/blog/miss")
func (r *Router) Group(prefix string) *route.Group {
	return r.group.Group(prefix)
}

// Resource registers the REST rules of a resource. Nested resources use a
// dotted name: "blog.comment" registers "blog/:blog_id/comment/...".
//
// Example:
//
//	r.Resource("blog", "index/blog", route.Only("index", "read"))
func (r *Router) Resource(name, target string, opts ...route.ResourceOption) route.Rules {
	return r.group.Resource(name, target, opts...)
}

// Controller registers "prefix/:action" for GET, POST, PUT, DELETE and
// PATCH, dispatching to target with the lower-case method prefixed to the
// action: GET blog/info dispatches to "target/getinfo".
func (r *Router) Controller(prefix, target string) route.Rules {
	return r.group.Controller(prefix, target)
}

// Miss sets the global fallback target, used when no rule matches.
func (r *Router) Miss(target any) *route.Rule {
	return r.group.Miss(target)
}

// Pattern sets a global constraint for captures named name. Group and
// rule constraints take precedence.
//
// Example:
//
//	r.Pattern("id", `\d+`)
func (r *Router) Pattern(name, regex string) *Router {
	r.mustMutable("Pattern")
	r.mu.Lock()
	r.patterns[name] = regex
	r.mu.Unlock()
	return r
}

// Patterns sets several global constraints.
func (r *Router) Patterns(constraints map[string]string) *Router {
	r.mustMutable("Patterns")
	r.mu.Lock()
	for name, regex := range constraints {
		r.patterns[name] = regex
	}
	r.mu.Unlock()
	return r
}

// Rest adds or replaces one entry of the REST action table used by
// Resource. Only resources registered afterwards see the change.
//
// Example:
//
//	r.Rest("search", route.RestAction{Method: "GET", Path: "/search", Action: "search"})
func (r *Router) Rest(name string, action route.RestAction) *Router {
	r.mustMutable("Rest")
	action.Name = name
	action.Method = strings.ToUpper(action.Method)
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := slices.IndexFunc(r.rest, func(a route.RestAction) bool { return a.Name == name }); i >= 0 {
		r.rest[i] = action
		return r
	}
	r.rest = append(r.rest, action)
	return r
}

// RestTable merges actions into the REST action table, or replaces the
// table when replace is true.
func (r *Router) RestTable(actions []route.RestAction, replace bool) *Router {
	r.mustMutable("RestTable")
	if replace {
		r.mu.Lock()
		r.rest = nil
		r.mu.Unlock()
	}
	for _, a := range actions {
		r.Rest(a.Name, a)
	}
	return r
}

// IsFrozen reports whether registration is closed.
func (r *Router) IsFrozen() bool {
	return r.frozen.Load()
}

// AddRule implements route.Registrar.
func (r *Router) AddRule(rule *route.Rule) {
	r.mu.Lock()
	r.rules = append(r.rules, rule)
	r.mu.Unlock()
}

// AddGroup implements route.Registrar.
func (r *Router) AddGroup(g *route.Group) {
	r.mu.Lock()
	r.groups = append(r.groups, g)
	r.mu.Unlock()
}

// Fail implements route.Registrar.
func (r *Router) Fail(err error) {
	r.logger.Error("rule registration failed", "error", err)
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
}

// RestActions implements route.Registrar.
func (r *Router) RestActions() []route.RestAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.rest)
}

// StrictResources implements route.Registrar.
func (r *Router) StrictResources() bool {
	return r.strictResources
}

// Emit implements route.Registrar.
func (r *Router) Emit(kind route.DiagnosticKind, msg string, data map[string]any) {
	r.emit(kind, msg, data)
}

// Freeze compiles every registered rule and closes registration. It is
// called implicitly by Check, Resolve, Build and ServeHTTP; calling it
// explicitly at boot surfaces rule errors early.
//
// All registration and compile errors are returned joined; each is a
// *CompileError. Calling Freeze again returns the same result.
func (r *Router) Freeze() error {
	r.freezeOnce.Do(func() {
		r.frozen.Store(true)
		r.mu.Lock()
		defer r.mu.Unlock()

		r.table, r.freezeErr = r.compile()
		if r.freezeErr != nil {
			r.logger.Error("rule table has errors", "error", r.freezeErr)
			return
		}
		r.emit(DiagRulesFrozen, "rule table frozen", map[string]any{"rules": len(r.rules)})
	})
	return r.freezeErr
}

// MustFreeze is like Freeze but panics on error.
func (r *Router) MustFreeze() {
	if err := r.Freeze(); err != nil {
		panic(fmt.Sprintf("router.MustFreeze: %v", err))
	}
}

// table is the frozen, read-only view of the rule table.
type table struct {
	global  *ruleSet
	domains map[string]*ruleSet
	misses  []*route.Rule
	miss    *route.Rule
	names   map[string][]*route.Rule
	targets map[string][]*route.Rule
	aliases map[string]*alias
	bind    *Binding
	hosts   *domainTable
}

// ruleSet holds the rules of one scope split by method. Each method list
// keeps registration order.
type ruleSet struct {
	byMethod map[string]*methodList
	any      *methodList
}

type methodList struct {
	rules  []*route.Rule
	filter *compiler.Prefilter
}

var standardMethods = []string{
	http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete,
	http.MethodPatch, http.MethodHead, http.MethodOptions,
}

func (r *Router) compile() (*table, error) {
	errs := slices.Clone(r.errs)

	t := &table{
		domains: make(map[string]*ruleSet),
		names:   make(map[string][]*route.Rule),
		targets: make(map[string][]*route.Rule),
		aliases: make(map[string]*alias, len(r.aliases)),
		bind:    r.bind,
		hosts:   r.domains,
	}

	scoped := make(map[string][]*route.Rule)
	var global []*route.Rule
	for _, rule := range r.rules {
		if err := rule.Compile(r.patterns, r.completeMatch); err != nil {
			errs = append(errs, err)
			continue
		}
		if d := rule.Domain(); d != "" {
			scoped[d] = append(scoped[d], rule)
		} else {
			global = append(global, rule)
		}
		r.index(t, rule)
	}

	t.global = newRuleSet(global)
	for host, rules := range scoped {
		t.domains[host] = newRuleSet(rules)
	}

	groups := append([]*route.Group{r.group}, r.groups...)
	groups = append(groups, r.domains.groups()...)
	for _, g := range groups {
		m := g.MissRule()
		if m == nil {
			continue
		}
		if err := m.Compile(r.patterns, false); err != nil {
			errs = append(errs, err)
			continue
		}
		if g == r.group {
			t.miss = m
			continue
		}
		t.misses = append(t.misses, m)
	}

	for _, a := range r.aliases {
		t.aliases[a.name] = a
	}

	return t, errors.Join(errs...)
}

// index records a compiled rule in the reverse lookup tables.
func (r *Router) index(t *table, rule *route.Rule) {
	if name := rule.Name(); name != "" {
		if prev := t.names[name]; len(prev) > 0 && prev[0].Pattern() != rule.Pattern() {
			r.emit(DiagDuplicateName, "rule name used by several patterns", map[string]any{
				"name":     name,
				"patterns": []string{prev[0].Pattern(), rule.Pattern()},
			})
		}
		t.names[name] = append(t.names[name], rule)
	}

	target := rule.Target()
	if target.Kind == route.TargetClosure && target.Ref == "" {
		return
	}
	t.targets[target.Ref] = append(t.targets[target.Ref], rule)
	if full := target.String(); full != target.Ref {
		t.targets[full] = append(t.targets[full], rule)
	}
}

func newRuleSet(rules []*route.Rule) *ruleSet {
	set := &ruleSet{byMethod: make(map[string]*methodList)}

	methods := slices.Clone(standardMethods)
	var wildcard []*route.Rule
	for _, rule := range rules {
		for _, m := range rule.Methods() {
			if m == "*" {
				continue
			}
			if !slices.Contains(methods, m) {
				methods = append(methods, m)
			}
		}
		if slices.Contains(rule.Methods(), "*") {
			wildcard = append(wildcard, rule)
		}
	}

	for _, m := range methods {
		var list []*route.Rule
		for _, rule := range rules {
			ms := rule.Methods()
			if slices.Contains(ms, "*") || slices.Contains(ms, m) {
				list = append(list, rule)
			}
		}
		set.byMethod[m] = newMethodList(list)
	}
	set.any = newMethodList(wildcard)

	return set
}

func newMethodList(rules []*route.Rule) *methodList {
	patterns := make([]*compiler.Pattern, len(rules))
	for i, rule := range rules {
		patterns[i] = rule.Compiled()
	}
	return &methodList{rules: rules, filter: compiler.NewPrefilter(patterns)}
}

func (s *ruleSet) list(method string) *methodList {
	if s == nil {
		return nil
	}
	if l, ok := s.byMethod[method]; ok {
		return l
	}
	return s.any
}

// Rules returns a snapshot of the registered rules answering method, in
// registration order. An empty method returns every rule.
func (r *Router) Rules(method string) []route.Info {
	method = strings.ToUpper(method)
	r.mu.Lock()
	rules := slices.Clone(r.rules)
	r.mu.Unlock()

	infos := make([]route.Info, 0, len(rules))
	for _, rule := range rules {
		if rule.Err() != nil {
			continue
		}
		if method != "" && !slices.Contains(rule.Methods(), "*") && !slices.Contains(rule.Methods(), method) {
			continue
		}
		infos = append(infos, rule.Info())
	}
	return infos
}

// Names returns the rules registered under name. An empty name returns
// every named rule.
func (r *Router) Names(name string) []route.Info {
	r.mu.Lock()
	rules := slices.Clone(r.rules)
	r.mu.Unlock()

	var infos []route.Info
	for _, rule := range rules {
		if rule.Name() == "" || rule.Err() != nil {
			continue
		}
		if name == "" || rule.Name() == name {
			infos = append(infos, rule.Info())
		}
	}
	return infos
}
