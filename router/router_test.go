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

//go:build !integration

package router

import (
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/routing/router/compiler"
	"rivaas.dev/routing/router/route"
)

// mockDiagnosticHandler records diagnostic events.
type mockDiagnosticHandler struct {
	mu     sync.Mutex
	events []DiagnosticEvent
}

func (m *mockDiagnosticHandler) OnDiagnostic(e DiagnosticEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

func (m *mockDiagnosticHandler) kinds() []DiagnosticKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	kinds := make([]DiagnosticKind, 0, len(m.events))
	for _, e := range m.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func check(t *testing.T, r *Router, method, rawURL string) *Result {
	t.Helper()
	res, err := r.Check(MustRequest(method, rawURL))
	require.NoError(t, err)
	return res
}

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	r, err := New()
	require.NoError(t, err)

	assert.Equal(t, "http", r.scheme)
	assert.True(t, r.stripSuffix)
	assert.True(t, r.completeMatch)
	assert.True(t, r.conventional)
	assert.True(t, r.urlConvert)
	assert.Equal(t, "index", r.defaultModule)
	assert.Equal(t, "index", r.defaultController)
	assert.Equal(t, "index", r.defaultAction)
	assert.Len(t, r.rest, 7)
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []Option
		want error
	}{
		{"bad scheme", []Option{WithScheme("ftp")}, ErrInvalidScheme},
		{"empty suffix", []Option{WithSuffix("html", "")}, ErrInvalidSuffix},
		{"suffix with slash", []Option{WithSuffix("a/b")}, ErrInvalidSuffix},
		{"empty default", []Option{WithDefaults("index", "", "index")}, ErrEmptyDefault},
		{"zero timeout", []Option{WithServerTimeouts(0, time.Second, time.Second, time.Second)}, ErrServerTimeoutInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tt.opts...)
			require.Error(t, err)
			require.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "router configuration validation failed")
		})
	}
}

func TestMustNewPanics(t *testing.T) {
	t.Parallel()

	assert.PanicsWithValue(t,
		`router.MustNew: router configuration validation failed: scheme must be http or https: got "ftp"`,
		func() { MustNew(WithScheme("ftp")) })
}

func TestOptions(t *testing.T) {
	t.Parallel()

	r := MustNew(
		WithRoot("/index.php/"),
		WithSuffix(".HTML", "shtml"),
		WithRootDomain("Example.com."),
		WithScheme("HTTPS"),
		WithStrictResources(),
		WithLenientBuild(),
		WithURLConvert(false),
		WithoutConventional(),
		WithCompleteMatch(false),
		WithPathVars(),
		WithDefaults("home", "main", "show"),
		WithH2C(true),
	)

	assert.Equal(t, "/index.php", r.root)
	assert.Equal(t, []string{"html", "shtml"}, r.suffixes)
	assert.Equal(t, "example.com", r.rootDomain)
	assert.Equal(t, "https", r.scheme)
	assert.True(t, r.StrictResources())
	assert.True(t, r.lenientBuild)
	assert.False(t, r.urlConvert)
	assert.False(t, r.conventional)
	assert.False(t, r.completeMatch)
	assert.True(t, r.pathVars)
	assert.Equal(t, "home", r.defaultModule)
	assert.Equal(t, "main", r.defaultController)
	assert.Equal(t, "show", r.defaultAction)
	assert.True(t, r.enableH2C)

	assert.Empty(t, MustNew(WithRoot("/")).root)
}

func TestFreezeIdempotent(t *testing.T) {
	t.Parallel()

	diag := &mockDiagnosticHandler{}
	r := MustNew(WithDiagnostics(diag))
	r.GET("blog/:id", "index/blog/read")

	require.NoError(t, r.Freeze())
	require.NoError(t, r.Freeze())
	assert.True(t, r.IsFrozen())
	assert.Equal(t, []DiagnosticKind{DiagRulesFrozen}, diag.kinds())
}

func TestFreezeJoinsErrors(t *testing.T) {
	t.Parallel()

	r := MustNew()
	r.GET("blog/:id", "index/blog/read")
	r.GET("blog/<id", "index/blog/read")
	r.GET("a/:x/:x", "index/a/b")
	r.GET("c/:id", "index/c/d").Where("id", "(")
	r.GET("d", "")

	err := r.Freeze()
	require.Error(t, err)
	assert.ErrorIs(t, err, compiler.ErrUnterminatedCapture)
	assert.ErrorIs(t, err, compiler.ErrDuplicateCapture)
	assert.ErrorIs(t, err, compiler.ErrInvalidConstraint)
	assert.ErrorIs(t, err, route.ErrEmptyTarget)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)

	// Freeze keeps failing, and so does everything that freezes.
	assert.Equal(t, err, r.Freeze())
	_, checkErr := r.Check(MustRequest(http.MethodGet, "/blog/1"))
	assert.Equal(t, err, checkErr)
	_, buildErr := r.Build("index/blog/read", nil)
	assert.Equal(t, err, buildErr)

	assert.Panics(t, r.MustFreeze)
}

func TestRegistrationAfterFreezePanics(t *testing.T) {
	t.Parallel()

	r := MustNew()
	blog := r.Group("blog")
	rule := r.GET("a", "index/a/b")
	r.MustFreeze()

	tests := []struct {
		name string
		fn   func()
	}{
		{"GET", func() { r.GET("x", "index/x/y") }},
		{"Group", func() { r.Group("x") }},
		{"group rule", func() { blog.GET("x", "index/x/y") }},
		{"rule option", func() { rule.SetName("a") }},
		{"Pattern", func() { r.Pattern("id", `\d+`) }},
		{"Rest", func() { r.Rest("search", route.RestAction{Method: "GET", Path: "/search", Action: "search"}) }},
		{"Domain", func() { r.Domain("a.example.com", "admin") }},
		{"DomainRules", func() { r.DomainRules("a.example.com") }},
		{"Bind", func() { r.Bind("admin", BindModule) }},
		{"Alias", func() { r.Alias("user", "index/user") }},
		{"Miss", func() { r.Miss("index/error/miss") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			defer func() {
				rec := recover()
				require.NotNil(t, rec)
				err, ok := rec.(error)
				require.True(t, ok)
				assert.ErrorIs(t, err, route.ErrFrozen)
			}()
			tt.fn()
		})
	}
}

func TestGlobalPatterns(t *testing.T) {
	t.Parallel()

	r := MustNew()
	r.Pattern("id", `\d+`)
	r.Patterns(map[string]string{"name": `[a-z]+`})
	r.GET("user/:id", "index/user/read")
	r.GET("user/:name", "index/user/byname")
	r.GET("group/:id", "index/group/read").Where("id", `[a-z]+`)

	res := check(t, r, http.MethodGet, "/user/42")
	assert.Equal(t, ModuleDispatch{"index", "user", "read"}, res.Dispatch)

	res = check(t, r, http.MethodGet, "/user/bob")
	assert.Equal(t, ModuleDispatch{"index", "user", "byname"}, res.Dispatch)

	res = check(t, r, http.MethodGet, "/user/Bob")
	assert.False(t, res.Matched())

	// The rule constraint wins over the global one.
	res = check(t, r, http.MethodGet, "/group/abc")
	assert.True(t, res.Matched())
	res = check(t, r, http.MethodGet, "/group/12")
	assert.False(t, res.Matched())
}

func TestRestTable(t *testing.T) {
	t.Parallel()

	r := MustNew()
	r.Rest("read", route.RestAction{Method: "get", Path: "/:id/show", Action: "show"})
	r.Rest("search", route.RestAction{Method: "GET", Path: "/search", Action: "search"})

	actions := r.RestActions()
	require.Len(t, actions, 8)
	assert.Equal(t, route.RestAction{Name: "read", Method: "GET", Path: "/:id/show", Action: "show"}, actions[3])
	assert.Equal(t, "search", actions[7].Name)

	r.RestTable([]route.RestAction{{Name: "list", Method: "GET", Path: "", Action: "list"}}, true)
	actions = r.RestActions()
	require.Len(t, actions, 1)
	assert.Equal(t, "list", actions[0].Name)

	rules := r.Resource("blog", "index/blog")
	require.Len(t, rules, 1)
	r.MustFreeze()

	res := check(t, r, http.MethodGet, "/blog")
	assert.Equal(t, ModuleDispatch{"index", "blog", "list"}, res.Dispatch)
	assert.Equal(t, "list", res.Rule.Rest())
}

func TestRemappedRestRead(t *testing.T) {
	t.Parallel()

	r := MustNew()
	r.Rest("read", route.RestAction{Method: "GET", Path: "/:id/show", Action: "show"})
	r.Resource("blog", "index/blog")

	res := check(t, r, http.MethodGet, "/blog/5/show")
	assert.Equal(t, ModuleDispatch{"index", "blog", "show"}, res.Dispatch)
	assert.Equal(t, "5", res.Route.Get("id"))

	// The default read path is gone.
	res = check(t, r, http.MethodGet, "/blog/5")
	assert.False(t, res.Matched())
}

func TestStrictResources(t *testing.T) {
	t.Parallel()

	diag := &mockDiagnosticHandler{}
	lenient := MustNew(WithDiagnostics(diag))
	lenient.Resource("blog", "index/blog", route.Only("index", "bogus"))
	require.NoError(t, lenient.Freeze())
	assert.Contains(t, diag.kinds(), DiagUnknownRestAction)

	strict := MustNew(WithStrictResources())
	strict.Resource("blog", "index/blog", route.Only("index", "bogus"))
	err := strict.Freeze()
	require.Error(t, err)
	assert.ErrorIs(t, err, route.ErrUnknownRestAction)
}

func TestRulesIntrospection(t *testing.T) {
	t.Parallel()

	r := MustNew()
	r.GET("blog/:id", "index/blog/read").SetName("blog.read")
	r.POST("blog", "index/blog/save")
	r.Any("ping", "index/ping/index")
	r.GET("bad/<x", "index/bad/x")

	all := r.Rules("")
	require.Len(t, all, 3)
	assert.Equal(t, "blog/:id", all[0].Pattern)
	assert.Equal(t, "index/blog/read", all[0].Target)
	assert.Equal(t, "module", all[0].Kind)

	gets := r.Rules("get")
	require.Len(t, gets, 2)
	assert.Equal(t, "blog/:id", gets[0].Pattern)
	assert.Equal(t, "ping", gets[1].Pattern)

	named := r.Names("blog.read")
	require.Len(t, named, 1)
	assert.Equal(t, "blog/:id", named[0].Pattern)
	assert.Len(t, r.Names(""), 1)
	assert.Empty(t, r.Names("nope"))
}

func TestDuplicateNameDiagnostic(t *testing.T) {
	t.Parallel()

	diag := &mockDiagnosticHandler{}
	r := MustNew(WithDiagnostics(diag))
	r.GET("blog/:id", "index/blog/read").SetName("blog")
	r.GET("post/:id", "index/blog/read").SetName("blog")
	r.MustFreeze()

	assert.Contains(t, diag.kinds(), DiagDuplicateName)

	// The first registered rule wins.
	u, err := r.Build("blog", route.NewParams("id", "1"))
	require.NoError(t, err)
	assert.Equal(t, "/blog/1", u)
}

func TestMultiDiagnostics(t *testing.T) {
	t.Parallel()

	first, second := &mockDiagnosticHandler{}, &mockDiagnosticHandler{}
	r := MustNew(WithDiagnostics(MultiDiagnostics(first, nil, second)))
	r.Resource("blog", "index/blog", route.Only("index", "archive"))
	r.MustFreeze()

	assert.Equal(t, first.kinds(), second.kinds())
	assert.Contains(t, first.kinds(), DiagUnknownRestAction)
}

func TestConcurrentCheckAndBuild(t *testing.T) {
	t.Parallel()

	r := MustNew()
	r.GET("blog/:id", "index/blog/read").Where("id", `\d+`)
	r.Resource("user", "index/user")

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := r.Check(MustRequest(http.MethodGet, "/blog/7"))
			if err != nil {
				errs <- err
				return
			}
			if res.Route.Get("id") != "7" {
				errs <- errors.New("wrong capture")
				return
			}
			if _, err := r.Build("index/user/read", route.NewParams("id", "3")); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
