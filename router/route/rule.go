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

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"

	"rivaas.dev/routing/router/compiler"
)

// Registration errors.
var (
	ErrFrozen            = errors.New("router is frozen")
	ErrInvalidStatus     = errors.New("redirect status must be 3xx")
	ErrUnknownRestAction = errors.New("unknown REST action")
)

// CompileError reports a rule that could not be registered or compiled.
type CompileError struct {
	Pattern string // Pattern as registered, group prefix included
	Target  string // Target as registered, may be empty
	Err     error
}

// Error implements error.
func (e *CompileError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("rule %q: %v", e.Pattern, e.Err)
	}
	return fmt.Sprintf("rule %q -> %s: %v", e.Pattern, e.Target, e.Err)
}

// Unwrap returns the underlying error.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// Rule is one routing entry: a pattern, the methods it answers and its
// target. Its setters return the rule for chaining and panic once the
// router is frozen.
//
// Example:
//
//	r.GET("blog/:id", "index/blog/read").
//	    SetName("blog.read").
//	    Where("id", `\d+`).
//	    SetExt("html")
type Rule struct {
	registrar Registrar
	group     *Group

	pattern string
	methods []string
	target  Target
	err     error

	name        string
	constraints map[string]string
	ext         []string
	hasExt      bool
	denyExt     []string
	methodOnly  []string
	https       bool
	merge       bool
	status      int
	complete    *bool
	rest        string
	miss        bool

	compiled *compiler.Pattern
	eff      ruleOptions
}

// ruleOptions are the options in effect after group inheritance.
type ruleOptions struct {
	ext        []string
	hasExt     bool
	denyExt    []string
	methodOnly []string
	https      bool
	merge      bool
}

func newRule(reg Registrar, g *Group, pattern string, target any, methods []string) *Rule {
	r := &Rule{
		registrar: reg,
		group:     g,
		pattern:   JoinPattern(g.Prefix(), pattern),
		methods:   normalizeMethods(methods),
	}

	t, err := ToTarget(target)
	if err != nil {
		r.err = &CompileError{Pattern: r.pattern, Target: fmt.Sprint(target), Err: err}
	}
	r.target = t

	if r.err == nil {
		if _, err := compiler.Parse(r.pattern); err != nil {
			r.err = &CompileError{Pattern: r.pattern, Target: t.String(), Err: err}
		}
	}

	return r
}

// JoinPattern joins a group prefix and a rule pattern with a single slash.
// A trailing "$" on the pattern is kept.
func JoinPattern(prefix, pattern string) string {
	prefix = strings.Trim(prefix, "/")
	pattern = strings.Trim(strings.TrimSpace(pattern), "/")
	switch {
	case prefix == "":
		return pattern
	case pattern == "":
		return prefix
	case pattern == "$":
		return prefix + "$"
	default:
		return prefix + "/" + pattern
	}
}

func normalizeMethods(methods []string) []string {
	var out []string
	for _, m := range methods {
		for part := range strings.FieldsFuncSeq(m, func(r rune) bool { return r == '|' || r == ',' || r == ' ' }) {
			part = strings.ToUpper(part)
			if part == "ANY" {
				part = "*"
			}
			if !slices.Contains(out, part) {
				out = append(out, part)
			}
		}
	}
	if len(out) == 0 || slices.Contains(out, "*") {
		return []string{"*"}
	}
	return out
}

func (r *Rule) mustMutable(op string) {
	if r.registrar != nil && r.registrar.IsFrozen() {
		panic(fmt.Errorf("%w: cannot call %s on rule %q", ErrFrozen, op, r.pattern))
	}
}

// SetName registers the rule under name for URL building. Several rules may
// share a name; the first registered one that can be built wins. The name
// prefix of the enclosing group is prepended.
func (r *Rule) SetName(name string) *Rule {
	r.mustMutable("SetName")
	r.name = r.group.NamePrefix() + name
	return r
}

// Where constrains a capture with a regular expression.
func (r *Rule) Where(name, regex string) *Rule {
	r.mustMutable("Where")
	if r.constraints == nil {
		r.constraints = make(map[string]string)
	}
	r.constraints[name] = regex
	return r
}

// WhereMap constrains several captures.
func (r *Rule) WhereMap(constraints map[string]string) *Rule {
	r.mustMutable("WhereMap")
	for name, regex := range constraints {
		r.Where(name, regex)
	}
	return r
}

// WhereKind constrains a capture with a predefined constraint.
func (r *Rule) WhereKind(name string, kind ConstraintKind) *Rule {
	return r.Where(name, kind.Regex())
}

// WhereEnum constrains a capture to one of values.
func (r *Rule) WhereEnum(name string, values ...string) *Rule {
	return r.Where(name, EnumRegex(values...))
}

// SetExt restricts the rule to requests carrying one of the given URL
// suffixes. Without arguments the request must carry no suffix. The first
// suffix is also used when building URLs for the rule.
func (r *Rule) SetExt(exts ...string) *Rule {
	r.mustMutable("SetExt")
	r.ext = normalizeExts(exts)
	r.hasExt = true
	return r
}

// SetDenyExt rejects requests carrying one of the given suffixes. An empty
// string denies requests without a suffix.
func (r *Rule) SetDenyExt(exts ...string) *Rule {
	r.mustMutable("SetDenyExt")
	r.denyExt = normalizeExts(exts)
	return r
}

// SetMethod further restricts the methods the rule answers, which is
// useful for rules registered with Any.
func (r *Rule) SetMethod(methods ...string) *Rule {
	r.mustMutable("SetMethod")
	r.methodOnly = normalizeMethods(methods)
	return r
}

// RequireHTTPS makes the rule match only https requests. URLs built for the
// rule use the https scheme.
func (r *Rule) RequireHTTPS() *Rule {
	r.mustMutable("RequireHTTPS")
	r.https = true
	return r
}

// MergeExtraVars lets the last capture absorb the rest of the path.
func (r *Rule) MergeExtraVars() *Rule {
	r.mustMutable("MergeExtraVars")
	r.merge = true
	return r
}

// SetStatus sets the status code of a redirect rule. The default is 301.
func (r *Rule) SetStatus(code int) *Rule {
	r.mustMutable("SetStatus")
	r.status = code
	return r
}

// SetComplete overrides the router's complete-match setting for the rule.
// A rule that is not complete matches a leading run of path segments; the
// rest of the path is read as key/value pairs.
func (r *Rule) SetComplete(complete bool) *Rule {
	r.mustMutable("SetComplete")
	r.complete = &complete
	return r
}

func (r *Rule) setRest(action string) *Rule {
	r.rest = action
	return r
}

// Compile compiles the rule pattern with the global constraint table and
// resolves options inherited from enclosing groups. It is called once when
// the router is frozen.
func (r *Rule) Compile(global map[string]string, completeMatch bool) error {
	if r.err != nil {
		return r.err
	}

	chain := r.group.chain()
	tables := make([]map[string]string, 0, len(chain)+2)
	tables = append(tables, global)
	for _, g := range chain {
		tables = append(tables, g.constraints)
	}
	tables = append(tables, r.constraints)

	r.eff = ruleOptions{
		ext:        r.ext,
		hasExt:     r.hasExt,
		denyExt:    r.denyExt,
		methodOnly: r.methodOnly,
		https:      r.https,
		merge:      r.merge,
	}
	for i := len(chain) - 1; i >= 0; i-- {
		g := chain[i]
		if !r.eff.hasExt && g.hasExt {
			r.eff.ext, r.eff.hasExt = g.ext, true
		}
		if r.eff.denyExt == nil {
			r.eff.denyExt = g.denyExt
		}
		if r.eff.methodOnly == nil {
			r.eff.methodOnly = g.methodOnly
		}
		r.eff.https = r.eff.https || g.https
		r.eff.merge = r.eff.merge || g.merge
	}

	complete := completeMatch
	if r.complete != nil {
		complete = *r.complete
	}
	if r.miss {
		complete = false
	}

	if r.target.Kind == TargetRedirect && r.status != 0 && (r.status < 300 || r.status > 399) {
		r.err = &CompileError{Pattern: r.pattern, Target: r.target.String(), Err: ErrInvalidStatus}
		return r.err
	}

	p, err := compiler.Compile(r.pattern, compiler.Options{
		Constraints:    mergeConstraints(tables...),
		MergeExtraVars: r.eff.merge,
		Partial:        !complete,
	})
	if err != nil {
		r.err = &CompileError{Pattern: r.pattern, Target: r.target.String(), Err: err}
		return r.err
	}
	r.compiled = p

	return nil
}

// Match runs the compiled pattern against a normalized path. It returns the
// captures and, for rules that are not complete, the unmatched remainder.
func (r *Rule) Match(path string) ([]compiler.Capture, string, bool) {
	if r.compiled == nil {
		return nil, "", false
	}
	return r.compiled.MatchRest(path)
}

// Accepts reports whether the rule answers method.
func (r *Rule) Accepts(method string) bool {
	method = strings.ToUpper(method)
	if !slices.Contains(r.methods, "*") && !slices.Contains(r.methods, method) {
		return false
	}
	only := r.eff.methodOnly
	if only == nil {
		only = r.methodOnly
	}
	return only == nil || slices.Contains(only, "*") || slices.Contains(only, method)
}

// AllowsExt reports whether a request with URL suffix ext passes the ext
// and deny-ext options.
func (r *Rule) AllowsExt(ext string) bool {
	ext = strings.ToLower(ext)
	if r.eff.hasExt {
		if len(r.eff.ext) == 0 && ext != "" {
			return false
		}
		if len(r.eff.ext) > 0 && !slices.Contains(r.eff.ext, ext) {
			return false
		}
	}
	return !slices.Contains(r.eff.denyExt, ext)
}

// AllowsScheme reports whether a request with the given scheme passes the
// https option.
func (r *Rule) AllowsScheme(scheme string) bool {
	return !r.eff.https || strings.EqualFold(scheme, "https")
}

// Pattern returns the full pattern, group prefixes included.
func (r *Rule) Pattern() string { return r.pattern }

// Methods returns the registered methods; "*" means any.
func (r *Rule) Methods() []string { return slices.Clone(r.methods) }

// Target returns the rule target.
func (r *Rule) Target() Target { return r.target }

// Name returns the rule name, or "".
func (r *Rule) Name() string { return r.name }

// Group returns the enclosing group.
func (r *Rule) Group() *Group { return r.group }

// Domain returns the host the rule is scoped to, or "" for global rules.
func (r *Rule) Domain() string { return r.group.Domain() }

// Rest returns the REST action name of resource rules.
func (r *Rule) Rest() string { return r.rest }

// IsMiss reports whether the rule is a group or global miss rule.
func (r *Rule) IsMiss() bool { return r.miss }

// HTTPS reports whether the rule requires https, group options included.
func (r *Rule) HTTPS() bool { return r.https || r.eff.https }

// Ext returns the effective URL suffixes of the rule.
func (r *Rule) Ext() []string {
	if r.hasExt {
		return slices.Clone(r.ext)
	}
	return slices.Clone(r.eff.ext)
}

// Status returns the redirect status, 301 when unset.
func (r *Rule) Status() int {
	if r.status == 0 {
		return http.StatusMovedPermanently
	}
	return r.status
}

// Compiled returns the compiled pattern, nil before the router is frozen.
func (r *Rule) Compiled() *compiler.Pattern { return r.compiled }

// Err returns the registration or compile error of the rule.
func (r *Rule) Err() error { return r.err }

// Info returns a snapshot of the rule for introspection.
func (r *Rule) Info() Info {
	info := Info{
		Methods: r.Methods(),
		Pattern: r.pattern,
		Target:  r.target.String(),
		Kind:    r.target.Kind.String(),
		Name:    r.name,
		Domain:  r.Domain(),
		Group:   r.group.Prefix(),
		Rest:    r.rest,
		Ext:     r.Ext(),
		HTTPS:   r.HTTPS(),
		Miss:    r.miss,
	}
	constraints := mergeConstraints(r.group.constraintChain(), r.constraints)
	if len(constraints) > 0 {
		info.Constraints = maps.Clone(constraints)
	}
	return info
}

// Info describes a registered rule.
type Info struct {
	Methods     []string          `json:"methods"`
	Pattern     string            `json:"pattern"`
	Target      string            `json:"target"`
	Kind        string            `json:"kind"`
	Name        string            `json:"name,omitempty"`
	Domain      string            `json:"domain,omitempty"`
	Group       string            `json:"group,omitempty"`
	Rest        string            `json:"rest,omitempty"`
	Constraints map[string]string `json:"constraints,omitempty"`
	Ext         []string          `json:"ext,omitempty"`
	HTTPS       bool              `json:"https,omitempty"`
	Miss        bool              `json:"miss,omitempty"`
}

// Rules is a set of rules created by one registration call.
type Rules []*Rule

// Where constrains a capture on every rule.
func (rs Rules) Where(name, regex string) Rules {
	for _, r := range rs {
		r.Where(name, regex)
	}
	return rs
}

// SetExt sets the URL suffixes of every rule.
func (rs Rules) SetExt(exts ...string) Rules {
	for _, r := range rs {
		r.SetExt(exts...)
	}
	return rs
}

// RequireHTTPS marks every rule https-only.
func (rs Rules) RequireHTTPS() Rules {
	for _, r := range rs {
		r.RequireHTTPS()
	}
	return rs
}

// Find returns the rule tagged with the REST action name, or nil.
func (rs Rules) Find(rest string) *Rule {
	for _, r := range rs {
		if r.rest == rest {
			return r
		}
	}
	return nil
}

func normalizeExts(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		for part := range strings.SplitSeq(e, "|") {
			part = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(part), "."))
			if !slices.Contains(out, part) {
				out = append(out, part)
			}
		}
	}
	return out
}
