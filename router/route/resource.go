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
	"net/http"
	"slices"
	"strings"
)

// RestAction is one entry of the REST table used by Resource.
type RestAction struct {
	Name   string // Table key, also the REST tag of generated rules
	Method string // HTTP method
	Path   string // Path appended to the resource path, may use ":id"
	Action string // Action appended to the resource target
}

// DefaultRestActions returns the standard REST table. Order is significant:
// "create" is registered before "read" so "res/create" is not read as an id.
func DefaultRestActions() []RestAction {
	return []RestAction{
		{Name: "index", Method: http.MethodGet, Path: "", Action: "index"},
		{Name: "create", Method: http.MethodGet, Path: "/create", Action: "create"},
		{Name: "edit", Method: http.MethodGet, Path: "/:id/edit", Action: "edit"},
		{Name: "read", Method: http.MethodGet, Path: "/:id", Action: "read"},
		{Name: "save", Method: http.MethodPost, Path: "", Action: "save"},
		{Name: "update", Method: http.MethodPut, Path: "/:id", Action: "update"},
		{Name: "delete", Method: http.MethodDelete, Path: "/:id", Action: "delete"},
	}
}

type resourceConfig struct {
	only   []string
	except []string
	vars   map[string]string
}

// ResourceOption configures a Resource registration.
type ResourceOption func(*resourceConfig)

// Only limits a resource to the named REST actions.
func Only(actions ...string) ResourceOption {
	return func(c *resourceConfig) {
		c.only = append(c.only, actions...)
	}
}

// Except removes the named REST actions from a resource.
func Except(actions ...string) ResourceOption {
	return func(c *resourceConfig) {
		c.except = append(c.except, actions...)
	}
}

// Vars renames id captures. The key is a resource name: for the resource
// itself it renames ":id", for a parent of a nested resource it renames
// the default "<parent>_id" capture.
//
//	r.Resource("blog.comment", "index/comment", route.Vars(map[string]string{"blog": "blog_no"}))
//	// blog/:blog_no/comment/:id
func Vars(vars map[string]string) ResourceOption {
	return func(c *resourceConfig) {
		if c.vars == nil {
			c.vars = make(map[string]string, len(vars))
		}
		for k, v := range vars {
			c.vars[k] = v
		}
	}
}

// Resource registers the REST rules of a resource. Nested resources are
// named with dots: "blog.comment" produces "blog/:blog_id/comment/...".
// Each rule dispatches to target plus the REST action and is tagged with
// the REST action name.
//
// Unknown names in Only and Except are ignored unless the router was built
// with strict resources, in which case they are registration errors.
func (g *Group) Resource(name, target string, opts ...ResourceOption) Rules {
	g.mustMutable("Resource")

	var cfg resourceConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	table := g.registrar.RestActions()
	g.checkRestNames(name, table, cfg.only)
	g.checkRestNames(name, table, cfg.except)

	base, last := resourcePath(name, cfg.vars)
	target = strings.Trim(target, "/")

	rules := make(Rules, 0, len(table))
	for _, a := range table {
		if cfg.only != nil && !slices.Contains(cfg.only, a.Name) {
			continue
		}
		if slices.Contains(cfg.except, a.Name) {
			continue
		}
		path := a.Path
		if v, ok := cfg.vars[last]; ok {
			path = replaceCapture(path, "id", v)
		}
		r := g.Rule(base+path+"$", target+"/"+a.Action, a.Method).setRest(a.Name)
		rules = append(rules, r)
	}

	return rules
}

func (g *Group) checkRestNames(resource string, table []RestAction, names []string) {
	for _, n := range names {
		known := slices.ContainsFunc(table, func(a RestAction) bool { return a.Name == n })
		if known {
			continue
		}
		if g.registrar.StrictResources() {
			g.registrar.Fail(&CompileError{
				Pattern: JoinPattern(g.prefix, resource),
				Err:     fmt.Errorf("%w %q", ErrUnknownRestAction, n),
			})
			continue
		}
		g.registrar.Emit(DiagUnknownRestAction, "unknown REST action ignored", map[string]any{
			"resource": resource,
			"action":   n,
		})
	}
}

// resourcePath turns "a.b.c" into "a/:a_id/b/:b_id/c" and returns the
// last resource name.
func resourcePath(name string, vars map[string]string) (string, string) {
	parts := strings.Split(strings.Trim(name, "./"), ".")
	last := parts[len(parts)-1]
	var b strings.Builder
	for _, p := range parts[:len(parts)-1] {
		capture := p + "_id"
		if v, ok := vars[p]; ok {
			capture = v
		}
		b.WriteString(p)
		b.WriteString("/:")
		b.WriteString(capture)
		b.WriteByte('/')
	}
	b.WriteString(last)
	return b.String(), last
}

// replaceCapture renames ":old" to ":new" when it is a whole capture name.
func replaceCapture(path, old, repl string) string {
	needle := ":" + old
	i := strings.Index(path, needle)
	if i < 0 {
		return path
	}
	end := i + len(needle)
	if end < len(path) && isNameByte(path[end]) {
		return path
	}
	return path[:i] + ":" + repl + path[end:]
}
