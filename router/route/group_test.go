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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRegistrar records what groups and rules register.
type fakeRegistrar struct {
	frozen bool
	strict bool
	rest   []RestAction
	rules  []*Rule
	groups []*Group
	errs   []error
	events []DiagnosticKind
}

func newFakeRegistrar() *fakeRegistrar {
	return &fakeRegistrar{rest: DefaultRestActions()}
}

func (f *fakeRegistrar) IsFrozen() bool            { return f.frozen }
func (f *fakeRegistrar) AddRule(r *Rule)           { f.rules = append(f.rules, r) }
func (f *fakeRegistrar) AddGroup(g *Group)         { f.groups = append(f.groups, g) }
func (f *fakeRegistrar) Fail(err error)            { f.errs = append(f.errs, err) }
func (f *fakeRegistrar) RestActions() []RestAction { return f.rest }
func (f *fakeRegistrar) StrictResources() bool     { return f.strict }
func (f *fakeRegistrar) Emit(kind DiagnosticKind, _ string, _ map[string]any) {
	f.events = append(f.events, kind)
}

func TestGroupPrefix(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistrar()
	root := NewGroup(reg, "", "")
	blog := root.Group("/blog/")
	admin := blog.Group("admin")

	assert.Equal(t, "blog", blog.Prefix())
	assert.Equal(t, "blog/admin", admin.Prefix())
	assert.Equal(t, 2, admin.Depth())
	assert.Same(t, blog, admin.Parent())
	assert.Len(t, reg.groups, 2)

	r := admin.PUT("/:id/", "admin/blog/update")
	assert.Equal(t, "blog/admin/:id", r.Pattern())
	assert.Same(t, admin, r.Group())

	idx := blog.GET("", "index/blog/index")
	assert.Equal(t, "blog", idx.Pattern())
}

func TestGroupVerbs(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistrar()
	g := NewGroup(reg, "", "")
	g.GET("a", "x/y/a")
	g.POST("a", "x/y/a")
	g.PUT("a", "x/y/a")
	g.DELETE("a", "x/y/a")
	g.PATCH("a", "x/y/a")
	g.HEAD("a", "x/y/a")
	g.OPTIONS("a", "x/y/a")
	g.Any("a", "x/y/a")
	g.Rule("a", "x/y/a", "get|post")
	g.Rule("a", "x/y/a")

	var got [][]string
	for _, r := range reg.rules {
		got = append(got, r.Methods())
	}
	assert.Equal(t, [][]string{
		{"GET"}, {"POST"}, {"PUT"}, {"DELETE"}, {"PATCH"}, {"HEAD"}, {"OPTIONS"},
		{"*"}, {"GET", "POST"}, {"*"},
	}, got)
}

func TestGroupConstraintsAndOptions(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistrar()
	root := NewGroup(reg, "", "")
	blog := root.Group("blog").Where("id", `\d+`).SetExt("html").RequireHTTPS()
	r := blog.GET(":id", "index/blog/read")
	require.NoError(t, r.Compile(nil, true))

	_, _, ok := r.Match("blog/5")
	assert.True(t, ok)
	_, _, ok = r.Match("blog/abc")
	assert.False(t, ok)

	assert.True(t, r.AllowsExt("html"))
	assert.False(t, r.AllowsExt(""))
	assert.False(t, r.AllowsScheme("http"))
	assert.True(t, r.AllowsScheme("HTTPS"))
	assert.True(t, r.HTTPS())
	assert.Equal(t, []string{"html"}, r.Ext())

	override := blog.GET("slug/:id", "index/blog/slug").Where("id", `[a-z]+`)
	require.NoError(t, override.Compile(nil, true))
	_, _, ok = override.Match("blog/slug/abc")
	assert.True(t, ok)

	info := override.Info()
	assert.Equal(t, `[a-z]+`, info.Constraints["id"])
	assert.Equal(t, "blog", info.Group)
}

func TestGroupMethodFilter(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistrar()
	g := NewGroup(reg, "", "").Group("api").SetMethod("GET")
	r := g.Any("ping", "index/api/ping")
	require.NoError(t, r.Compile(nil, true))

	assert.True(t, r.Accepts("get"))
	assert.False(t, r.Accepts("POST"))
}

func TestGroupNamePrefix(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistrar()
	api := NewGroup(reg, "", "").Group("api").SetNamePrefix("api.")
	v1 := api.Group("v1").SetNamePrefix("v1.")

	assert.Equal(t, "api.users", api.GET("users", "index/user/index").SetName("users").Name())
	assert.Equal(t, "api.v1.users", v1.GET("users", "index/user/index").SetName("users").Name())
}

func TestGroupMiss(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistrar()
	blog := NewGroup(reg, "", "").Group("blog")
	miss := blog.Miss("index/blog/miss")

	assert.Same(t, miss, blog.MissRule())
	assert.True(t, miss.IsMiss())
	assert.Empty(t, reg.rules, "miss rules are not part of the rule table")

	require.NoError(t, miss.Compile(nil, true))
	_, rest, ok := miss.Match("blog/some/thing")
	assert.True(t, ok)
	assert.Equal(t, "some/thing", rest)
	_, _, ok = miss.Match("news")
	assert.False(t, ok)
}

func TestGroupController(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistrar()
	rules := NewGroup(reg, "", "").Controller("user", "index/user")
	require.Len(t, rules, 5)

	first := rules[0]
	assert.Equal(t, "user/:action", first.Pattern())
	assert.Equal(t, []string{"GET"}, first.Methods())
	assert.Equal(t, "index/user/get:action", first.Target().Ref)
	assert.Equal(t, "index/user/post:action", rules[1].Target().Ref)
}

func TestGroupFrozen(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistrar()
	g := NewGroup(reg, "", "")
	r := g.GET("a", "x/y/z")
	reg.frozen = true

	assert.Panics(t, func() { g.GET("b", "x/y/z") })
	assert.Panics(t, func() { g.Group("c") })
	assert.Panics(t, func() { r.SetName("a") })
	assert.Panics(t, func() { r.Where("id", `\d+`) })
}

func TestGroupDomain(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistrar()
	g := NewGroup(reg, "", "blog.example.com")
	r := g.Group("posts").GET(":id", "index/post/read")
	assert.Equal(t, "blog.example.com", r.Domain())
	assert.Equal(t, "blog.example.com", r.Info().Domain)
}
