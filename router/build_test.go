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
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/routing/router/route"
)

func TestBuild(t *testing.T) {
	t.Parallel()

	r := MustNew()
	r.GET("blog/:name", "index/blog")
	r.GET("item-<name><id?>", "index/item")
	r.GET("post/:id", "@index/post/read")
	r.GET("page/:id", `\app\index\controller\Page@read`)
	r.GET("detail/:id", "index/detail/show").SetName("detail")
	r.GET("hot", "index/list/show?type=hot")
	r.GET("new", "index/list/show?type=new")
	r.GET("archive/:year/[:month]/[:day]", "index/archive/list")
	r.GET("files/:path", "index/file/get").MergeExtraVars()
	r.GET("mid/[:x]/end", "index/mid/show")
	r.GET("feed", "index/feed/rss").SetExt("xml")
	r.GET("sitemap.xml", "index/sitemap/xml")

	tests := []struct {
		name   string
		ref    string
		params *route.Params
		opts   []BuildOption
		want   string
	}{
		{"module target", "index/blog", route.NewParams("name", "gopher"), nil, "/blog/gopher"},
		{"explicit suffix", "index/blog", route.NewParams("name", "gopher"), []BuildOption{Suffix("html")}, "/blog/gopher.html"},
		{"suffix with dot", "index/blog", route.NewParams("name", "go"), []BuildOption{Suffix(".htm")}, "/blog/go.htm"},
		{"adjacent optional absent", "index/item", route.NewParams("name", "gopher"), nil, "/item-gopher"},
		{"adjacent optional present", "index/item", route.NewParams("name", "gopher", "id", "2016"), nil, "/item-gopher2016"},
		{"controller target", "@index/post/read", route.NewParams("id", "10"), nil, "/post/10"},
		{"method target", `\app\index\controller\Page@read`, route.NewParams("id", "10"), nil, "/page/10"},
		{"name", "detail", route.NewParams("id", "10"), nil, "/detail/10"},
		{"name with query", "detail?id=10", nil, nil, "/detail/10"},
		{"forced name", "[detail]", route.NewParams("id", "3"), nil, "/detail/3"},
		{"params override ref query", "detail?id=1", route.NewParams("id", "2"), nil, "/detail/2"},
		{"leftover query", "detail?id=10&foo=bar", nil, nil, "/detail/10?foo=bar"},
		{"anchor", "detail?id=10#comments", nil, nil, "/detail/10#comments"},
		{"target query selects rule", "index/list/show?type=new", nil, nil, "/new"},
		{"target query first rule", "index/list/show", nil, nil, "/hot"},
		{"target query not matching", "index/list/show?page=2", nil, nil, "/hot?page=2"},
		{"optional segments trimmed", "index/archive/list", route.NewParams("year", "2024"), nil, "/archive/2024"},
		{"optional segments filled", "index/archive/list", route.NewParams("year", "2024", "month", "05", "day", "07"), nil, "/archive/2024/05/07"},
		{"later optionals skipped", "index/archive/list", route.NewParams("year", "2024", "day", "07"), nil, "/archive/2024?day=07"},
		{"absent optional mid pattern", "index/mid/show", nil, nil, "/mid/end"},
		{"escaped value", "index/blog", route.NewParams("name", "hello world"), nil, "/blog/hello%20world"},
		{"slash escaped in capture", "index/blog", route.NewParams("name", "a/b"), nil, "/blog/a%2Fb"},
		{"merged capture keeps slashes", "index/file/get", route.NewParams("path", "a/b c"), nil, "/files/a/b%20c"},
		{"rule ext", "index/feed/rss", nil, nil, "/feed.xml"},
		{"pattern with extension", "index/sitemap/xml", nil, []BuildOption{Suffix("html")}, "/sitemap.xml"},
		{"ref ext", "index/blog.json", route.NewParams("name", "go"), nil, "/blog/go.json"},
		{"literal path", "/about/team", nil, nil, "/about/team"},
		{"root path", "/", nil, []BuildOption{Suffix("html")}, "/"},
		{"conventional", "blog/read", route.NewParams("id", "5"), nil, "/index/blog/read?id=5"},
		{"conventional url convert", "admin/UserProfile/ReadAll", nil, nil, "/admin/user_profile/readall"},
		{"conventional action only", "read", nil, nil, "/index/index/read"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := r.Build(tt.ref, tt.params, tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildRouterSuffix(t *testing.T) {
	t.Parallel()

	r := MustNew(WithSuffix("shtml", "html"))
	r.GET("blog/:id", "index/blog/read")
	r.GET("raw/:id", "index/raw/show").SetDenyExt("shtml")

	tests := []struct {
		name string
		ref  string
		opts []BuildOption
		want string
	}{
		{"default suffix", "index/blog/read?id=10", nil, "/blog/10.shtml"},
		{"literal path", "/blog/10", nil, "/blog/10.shtml"},
		{"anchor after suffix", "/blog/10#detail", nil, "/blog/10.shtml#detail"},
		{"query and anchor", "index/blog/read?id=10&foo=bar#detail", nil, "/blog/10.shtml?foo=bar#detail"},
		{"no suffix", "index/blog/read?id=10", []BuildOption{NoSuffix()}, "/blog/10"},
		{"explicit suffix", "index/blog/read?id=10", []BuildOption{Suffix("html")}, "/blog/10.html"},
		{"denied default suffix", "index/raw/show?id=1", nil, "/raw/1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := r.Build(tt.ref, nil, tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildRoot(t *testing.T) {
	t.Parallel()

	r := MustNew(WithRoot("/index.php/"), WithSuffix("shtml"))
	r.GET("blog/:id", "index/blog/read")

	assert.Equal(t, "/index.php/blog/10.shtml", r.MustBuild("/blog/10", nil))
	assert.Equal(t, "/index.php/blog/10.shtml", r.MustBuild("index/blog/read", route.NewParams("id", "10")))
}

func TestBuildDomains(t *testing.T) {
	t.Parallel()

	r := MustNew(WithRootDomain("example.com"), WithSuffix("html"))
	r.DomainRules("subdomain").GET("hello/:name", "index/hello")
	r.DomainRules("*.user").GET("profile", "user/profile")
	r.GET("blog/:id", "index/blog/read")
	r.GET("secure/:id", "index/secure/show").RequireHTTPS()

	tests := []struct {
		name   string
		ref    string
		params *route.Params
		opts   []BuildOption
		want   string
	}{
		{"domain rule", "index/hello", route.NewParams("name", "gopher"), nil, "http://subdomain.example.com/hello/gopher.html"},
		{"ref domain", "index/blog/read@blog", route.NewParams("id", "5"), nil, "http://blog.example.com/blog/5.html"},
		{"ref full domain", "index/blog/read@www.example.org", route.NewParams("id", "5"), nil, "http://www.example.org/blog/5.html"},
		{"option domain", "index/blog/read", route.NewParams("id", "5"), []BuildOption{Domain("Static")}, "http://static.example.com/blog/5.html"},
		{"absolute", "index/blog/read", route.NewParams("id", "5"), []BuildOption{Absolute()}, "http://example.com/blog/5.html"},
		{"https rule", "index/secure/show", route.NewParams("id", "5"), []BuildOption{Absolute()}, "https://example.com/secure/5.html"},
		{"relative https rule", "index/secure/show", route.NewParams("id", "5"), nil, "/secure/5.html"},
		{"wildcard with explicit domain", "user/profile", nil, []BuildOption{Domain("alice.user.example.com")}, "http://alice.user.example.com/profile.html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := r.Build(tt.ref, tt.params, tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := r.Build("user/profile", nil)
	require.ErrorIs(t, err, ErrWildcardDomain)
}

func TestBuildScheme(t *testing.T) {
	t.Parallel()

	r := MustNew(WithRootDomain("example.com"), WithScheme("HTTPS"))
	r.GET("blog/:id", "index/blog/read")

	got, err := r.Build("index/blog/read", route.NewParams("id", "1"), Absolute())
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/blog/1", got)

	got, err = r.Build("index/blog/read", route.NewParams("id", "1"), Domain("localhost"))
	require.NoError(t, err)
	assert.Equal(t, "https://localhost/blog/1", got)
}

func TestBuildErrors(t *testing.T) {
	t.Parallel()

	r := MustNew()
	r.GET("blog/:id", "index/blog/read")

	tests := []struct {
		name   string
		router *Router
		ref    string
		opts   []BuildOption
		param  string
		err    error
	}{
		{"missing parameter", r, "index/blog/read", nil, "id", ErrMissingRouteParameter},
		{"empty parameter", r, "index/blog/read?id=", nil, "id", ErrMissingRouteParameter},
		{"unknown name", r, "[nope]", nil, "", ErrRouteNotFound},
		{"unknown method target", r, `\app\Missing@run`, nil, "", ErrRouteNotFound},
		{"unknown controller target", r, "@missing/run", nil, "", ErrRouteNotFound},
		{"absolute without host", r, "index/blog/read?id=1", []BuildOption{Absolute()}, "", ErrMissingHost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.router.Build(tt.ref, nil, tt.opts...)
			require.ErrorIs(t, err, tt.err)
			assert.Empty(t, got)

			var be *BuildError
			require.ErrorAs(t, err, &be)
			assert.Equal(t, tt.ref, be.Ref)
			assert.Equal(t, tt.param, be.Param)
		})
	}

	_, err := r.Build("index/blog/read", nil)
	assert.EqualError(t, err, `build "index/blog/read": missing required parameter "id"`)

	assert.Panics(t, func() { r.MustBuild("[nope]", nil) })
}

func TestBuildLenient(t *testing.T) {
	t.Parallel()

	diag := &mockDiagnosticHandler{}
	r := MustNew(WithLenientBuild(), WithDiagnostics(diag))
	r.GET("blog/:id", "index/blog/read")

	got, err := r.Build("index/blog/read", nil)
	require.NoError(t, err)
	assert.Equal(t, "/index/blog/read", got)
	assert.Contains(t, diag.kinds(), DiagLenientBuild)
}

func TestBuildPathVars(t *testing.T) {
	t.Parallel()

	r := MustNew(WithPathVars(), WithSuffix("html"))
	r.GET("blog/:id", "index/blog/read")

	got, err := r.Build("index/blog/read", route.NewParams("id", "5", "page", "2", "sort", "desc"))
	require.NoError(t, err)
	assert.Equal(t, "/blog/5/page/2/sort/desc.html", got)

	got, err = r.Build("/", route.NewParams("page", "2"))
	require.NoError(t, err)
	assert.Equal(t, "/page/2.html", got)
}

func TestBuildAliasAndBinding(t *testing.T) {
	t.Parallel()

	r := MustNew()
	r.Alias("user", "index/user")
	r.Alias("api", `\app\Api`)
	r.Bind("index", BindModule)

	tests := []struct {
		ref  string
		want string
	}{
		{"index/user/edit?id=5", "/user/edit?id=5"},
		{"index/user", "/user"},
		{"index/blog/read", "/blog/read"},
		{"admin/blog/read", "/admin/blog/read"},
		{"blog/read", "/blog/read"},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, r.MustBuild(tt.ref, nil))
		})
	}

	controllerBound := MustNew()
	controllerBound.Bind("index/blog", BindModule)
	assert.Equal(t, "/read", controllerBound.MustBuild("index/blog/read", nil))
	assert.Equal(t, "/index/user/read", controllerBound.MustBuild("index/user/read", nil))
}

func TestBuildRoundTrip(t *testing.T) {
	t.Parallel()

	r := MustNew(WithSuffix("html"))
	r.GET("blog/:id", "index/blog/read").Where("id", `\d+`)
	r.GET("item-<name><id?>", "index/item/show").Where("name", `[a-z]+`).Where("id", `\d+`)
	r.GET("archive/:year/[:month]", "index/archive/list")
	r.Resource("photo", "index/photo")

	tests := []struct {
		ref    string
		params *route.Params
		method string
	}{
		{"index/blog/read", route.NewParams("id", "42"), http.MethodGet},
		{"index/item/show", route.NewParams("name", "go", "id", "7"), http.MethodGet},
		{"index/item/show", route.NewParams("name", "go"), http.MethodGet},
		{"index/archive/list", route.NewParams("year", "2024"), http.MethodGet},
		{"index/archive/list", route.NewParams("year", "2024", "month", "11"), http.MethodGet},
		{"index/photo/read", route.NewParams("id", "9"), http.MethodGet},
		{"index/photo/edit", route.NewParams("id", "9"), http.MethodGet},
		{"index/photo/update", route.NewParams("id", "9"), http.MethodPut},
	}

	for _, tt := range tests {
		t.Run(tt.ref+"?"+tt.params.Encode(), func(t *testing.T) {
			t.Parallel()

			u, err := r.Build(tt.ref, tt.params)
			require.NoError(t, err)

			res := check(t, r, tt.method, u)
			require.True(t, res.Matched(), "built url %q does not match", u)
			assert.Equal(t, tt.ref, res.Dispatch.String())
			assert.Equal(t, tt.params.Map(), res.Route.Map())
		})
	}
}

func TestBuildRepeatable(t *testing.T) {
	t.Parallel()

	r := MustNew(WithSuffix("html"))
	r.GET("blog/:id", "index/blog/read").SetName("blog.read")
	r.GET("archive/:year/[:month]", "index/archive/list")

	tests := []struct {
		name   string
		ref    string
		params func() *route.Params
		opts   []BuildOption
		want   string
	}{
		{
			name:   "leftover query with suffix and anchor",
			ref:    "index/blog/read#detail",
			params: func() *route.Params { return route.NewParams("sort", "desc", "id", "5", "page", "2", "a", "1") },
			opts:   []BuildOption{Suffix("shtml")},
			want:   "/blog/5.shtml?sort=desc&page=2&a=1#detail",
		},
		{
			name:   "name with ref query",
			ref:    "blog.read?z=9&id=3",
			params: func() *route.Params { return route.NewParams("b", "2", "a", "1") },
			want:   "/blog/3.html?z=9&b=2&a=1",
		},
		{
			name:   "optional capture absent",
			ref:    "index/archive/list",
			params: func() *route.Params { return route.NewParams("year", "2024", "q", "x y") },
			opts:   []BuildOption{NoSuffix()},
			want:   "/archive/2024?q=x+y",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			first, err := r.Build(tt.ref, tt.params(), tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, first)

			for range 100 {
				got, err := r.Build(tt.ref, tt.params(), tt.opts...)
				require.NoError(t, err)
				require.Equal(t, first, got)
			}
		})
	}
}

func TestBuildEscapedRoundTrip(t *testing.T) {
	t.Parallel()

	r := MustNew(WithSuffix("shtml"), WithoutConventional())
	r.GET("p/:id", "index/p/show")
	r.GET("files/:path", "index/file/get").MergeExtraVars()

	tests := []struct {
		name  string
		ref   string
		key   string
		value string
		want  string
	}{
		{"slash in capture", "index/p/show", "id", "a/b", "/p/a%2Fb.shtml"},
		{"percent in capture", "index/p/show", "id", "100%", "/p/100%25.shtml"},
		{"escaped slash and percent", "index/p/show", "id", "x%2Fy/z", "/p/x%252Fy%2Fz.shtml"},
		{"merged capture", "index/file/get", "path", "docs/a b.txt", "/files/docs/a%20b.txt.shtml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			u, err := r.Build(tt.ref, route.NewParams(tt.key, tt.value))
			require.NoError(t, err)
			assert.Equal(t, tt.want, u)

			res := check(t, r, http.MethodGet, u)
			require.True(t, res.Matched(), "built url %q does not match", u)
			assert.Equal(t, tt.ref, res.Dispatch.String())
			assert.Equal(t, tt.value, res.Route.Get(tt.key))
		})
	}

	// An unescaped slash still separates segments.
	assert.False(t, check(t, r, http.MethodGet, "/p/a/b.shtml").Matched())
}
