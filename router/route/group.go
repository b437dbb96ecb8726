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
	"fmt"
	"maps"
	"net/http"
	"strings"
)

// Group is a rule scope with a path prefix. Rules registered on a group get
// the group prefix, its constraints and its options. Groups nest; a rule's
// pattern is the concatenation of all ancestor prefixes.
//
// Example:
//
//	blog := r.Group("blog").Where("id", `\d+`)
//	blog.GET(":id", "index/blog/read")      // blog/:id
//	admin := blog.Group("admin").RequireHTTPS()
//	admin.POST(":id", "admin/blog/update")  // blog/admin/:id
type Group struct {
	registrar Registrar
	parent    *Group
	prefix    string
	domain    string
	depth     int

	namePrefix  string
	constraints map[string]string
	ext         []string
	hasExt      bool
	denyExt     []string
	methodOnly  []string
	https       bool
	merge       bool

	miss *Rule
}

// NewGroup creates a top-level group. domain scopes the group's rules to a
// host; it is empty for global rules.
func NewGroup(registrar Registrar, prefix, domain string) *Group {
	g := &Group{
		registrar: registrar,
		prefix:    strings.Trim(prefix, "/"),
		domain:    domain,
	}
	return g
}

// Group creates a nested group. Its prefix is appended to the parent's.
func (g *Group) Group(prefix string) *Group {
	g.mustMutable("Group")
	child := &Group{
		registrar:  g.registrar,
		parent:     g,
		prefix:     JoinPattern(g.prefix, prefix),
		domain:     g.domain,
		depth:      g.depth + 1,
		namePrefix: g.namePrefix,
	}
	g.registrar.AddGroup(child)
	return child
}

func (g *Group) mustMutable(op string) {
	if g.registrar != nil && g.registrar.IsFrozen() {
		panic(fmt.Errorf("%w: cannot call %s on group %q", ErrFrozen, op, g.prefix))
	}
}

// GET registers a GET rule.
func (g *Group) GET(pattern string, target any) *Rule {
	return g.Rule(pattern, target, http.MethodGet)
}

// POST registers a POST rule.
func (g *Group) POST(pattern string, target any) *Rule {
	return g.Rule(pattern, target, http.MethodPost)
}

// PUT registers a PUT rule.
func (g *Group) PUT(pattern string, target any) *Rule {
	return g.Rule(pattern, target, http.MethodPut)
}

// DELETE registers a DELETE rule.
func (g *Group) DELETE(pattern string, target any) *Rule {
	return g.Rule(pattern, target, http.MethodDelete)
}

// PATCH registers a PATCH rule.
func (g *Group) PATCH(pattern string, target any) *Rule {
	return g.Rule(pattern, target, http.MethodPatch)
}

// HEAD registers a HEAD rule.
func (g *Group) HEAD(pattern string, target any) *Rule {
	return g.Rule(pattern, target, http.MethodHead)
}

// OPTIONS registers an OPTIONS rule.
func (g *Group) OPTIONS(pattern string, target any) *Rule {
	return g.Rule(pattern, target, http.MethodOptions)
}

// Any registers a rule answering every method.
func (g *Group) Any(pattern string, target any) *Rule {
	return g.Rule(pattern, target, "*")
}

// Rule registers a rule for the given methods. Methods may be separated
// by "|" ("GET|POST"); no methods or "*" means any method.
//
// target is a target string (see ParseTarget), a Target or a Closure.
func (g *Group) Rule(pattern string, target any, methods ...string) *Rule {
	g.mustMutable("Rule")
	r := newRule(g.registrar, g, pattern, target, methods)
	g.registrar.AddRule(r)
	return r
}

// Controller registers "prefix/:action" for GET, POST, PUT, DELETE and
// PATCH. The action name is prefixed with the lower-case method, so
// GET blog/info dispatches to target/getinfo.
func (g *Group) Controller(prefix, target string) Rules {
	methods := []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch}
	rules := make(Rules, 0, len(methods))
	base := strings.Trim(target, "/")
	for _, m := range methods {
		rules = append(rules, g.Rule(JoinPattern(prefix, ":action"), base+"/"+strings.ToLower(m)+":action", m))
	}
	return rules
}

// Miss sets the group's fallback target, used when no rule matches a path
// under the group prefix.
func (g *Group) Miss(target any) *Rule {
	g.mustMutable("Miss")
	r := newRule(g.registrar, g, "", target, []string{"*"})
	r.miss = true
	g.miss = r
	return r
}

// Where constrains a capture for every rule of the group.
func (g *Group) Where(name, regex string) *Group {
	g.mustMutable("Where")
	if g.constraints == nil {
		g.constraints = make(map[string]string)
	}
	g.constraints[name] = regex
	return g
}

// WhereMap constrains several captures for every rule of the group.
func (g *Group) WhereMap(constraints map[string]string) *Group {
	for name, regex := range constraints {
		g.Where(name, regex)
	}
	return g
}

// SetExt sets the URL suffixes of the group's rules.
func (g *Group) SetExt(exts ...string) *Group {
	g.mustMutable("SetExt")
	g.ext = normalizeExts(exts)
	g.hasExt = true
	return g
}

// SetDenyExt sets the denied URL suffixes of the group's rules.
func (g *Group) SetDenyExt(exts ...string) *Group {
	g.mustMutable("SetDenyExt")
	g.denyExt = normalizeExts(exts)
	return g
}

// SetMethod restricts the methods of the group's rules.
func (g *Group) SetMethod(methods ...string) *Group {
	g.mustMutable("SetMethod")
	g.methodOnly = normalizeMethods(methods)
	return g
}

// RequireHTTPS makes the group's rules https-only.
func (g *Group) RequireHTTPS() *Group {
	g.mustMutable("RequireHTTPS")
	g.https = true
	return g
}

// MergeExtraVars lets the last capture of every rule absorb the rest of
// the path.
func (g *Group) MergeExtraVars() *Group {
	g.mustMutable("MergeExtraVars")
	g.merge = true
	return g
}

// SetNamePrefix sets a prefix for rule names of the group. The prefix is
// appended to the parent's name prefix.
//
//	api := r.Group("api").SetNamePrefix("api.")
//	api.GET("users", "index/user/index").SetName("users") // "api.users"
func (g *Group) SetNamePrefix(prefix string) *Group {
	g.mustMutable("SetNamePrefix")
	if g.parent != nil {
		g.namePrefix = g.parent.namePrefix + prefix
	} else {
		g.namePrefix = prefix
	}
	return g
}

// NamePrefix returns the name prefix of the group.
func (g *Group) NamePrefix() string {
	if g == nil {
		return ""
	}
	return g.namePrefix
}

// Prefix returns the full path prefix of the group.
func (g *Group) Prefix() string {
	if g == nil {
		return ""
	}
	return g.prefix
}

// Domain returns the host the group is scoped to.
func (g *Group) Domain() string {
	if g == nil {
		return ""
	}
	return g.domain
}

// Depth returns the nesting depth; top-level groups have depth 0.
func (g *Group) Depth() int {
	if g == nil {
		return 0
	}
	return g.depth
}

// Parent returns the enclosing group, nil for top-level groups.
func (g *Group) Parent() *Group {
	if g == nil {
		return nil
	}
	return g.parent
}

// MissRule returns the group's fallback rule, or nil.
func (g *Group) MissRule() *Rule {
	if g == nil {
		return nil
	}
	return g.miss
}

// chain returns the groups from the outermost to g.
func (g *Group) chain() []*Group {
	var out []*Group
	for cur := g; cur != nil; cur = cur.parent {
		out = append(out, cur)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func (g *Group) constraintChain() map[string]string {
	out := make(map[string]string)
	for _, cur := range g.chain() {
		maps.Copy(out, cur.constraints)
	}
	return out
}
