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

type ruleSummary struct {
	Rest    string
	Method  string
	Pattern string
	Target  string
}

func summarize(rules Rules) []ruleSummary {
	out := make([]ruleSummary, 0, len(rules))
	for _, r := range rules {
		out = append(out, ruleSummary{
			Rest:    r.Rest(),
			Method:  r.Methods()[0],
			Pattern: r.Pattern(),
			Target:  r.Target().Ref,
		})
	}
	return out
}

func TestResourceDefault(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistrar()
	rules := NewGroup(reg, "", "").Resource("res", "index/blog")

	assert.Equal(t, []ruleSummary{
		{"index", "GET", "res$", "index/blog/index"},
		{"create", "GET", "res/create$", "index/blog/create"},
		{"edit", "GET", "res/:id/edit$", "index/blog/edit"},
		{"read", "GET", "res/:id$", "index/blog/read"},
		{"save", "POST", "res$", "index/blog/save"},
		{"update", "PUT", "res/:id$", "index/blog/update"},
		{"delete", "DELETE", "res/:id$", "index/blog/delete"},
	}, summarize(rules))
	assert.Len(t, reg.rules, 7)
}

func TestResourceNested(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []ResourceOption
		want string
	}{
		{name: "default parent capture", want: "blog/:blog_id/comment/:id$"},
		{
			name: "renamed parent capture",
			opts: []ResourceOption{Vars(map[string]string{"blog": "blog_no"})},
			want: "blog/:blog_no/comment/:id$",
		},
		{
			name: "renamed own capture",
			opts: []ResourceOption{Vars(map[string]string{"comment": "cid"})},
			want: "blog/:blog_id/comment/:cid$",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			reg := newFakeRegistrar()
			rules := NewGroup(reg, "", "").Resource("blog.comment", "index/comment", tt.opts...)
			read := rules.Find("read")
			require.NotNil(t, read)
			assert.Equal(t, tt.want, read.Pattern())
			assert.Equal(t, "index/comment/read", read.Target().Ref)
		})
	}
}

func TestResourceInGroup(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistrar()
	rules := NewGroup(reg, "", "").Group("api").Resource("user", "index/user", Only("read"))
	require.Len(t, rules, 1)
	assert.Equal(t, "api/user/:id$", rules[0].Pattern())
}

func TestResourceOnlyExcept(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistrar()
	g := NewGroup(reg, "", "")

	only := g.Resource("a", "x/a", Only("index", "read"))
	assert.Equal(t, []string{"index", "read"}, rests(only))

	except := g.Resource("b", "x/b", Except("delete", "update"))
	assert.Equal(t, []string{"index", "create", "edit", "read", "save"}, rests(except))
}

func TestResourceUnknownAction(t *testing.T) {
	t.Parallel()

	t.Run("ignored by default", func(t *testing.T) {
		t.Parallel()
		reg := newFakeRegistrar()
		rules := NewGroup(reg, "", "").Resource("a", "x/a", Only("index", "bogus"), Except("nope"))
		assert.Equal(t, []string{"index"}, rests(rules))
		assert.Empty(t, reg.errs)
		assert.Equal(t, []DiagnosticKind{DiagUnknownRestAction, DiagUnknownRestAction}, reg.events)
	})

	t.Run("strict", func(t *testing.T) {
		t.Parallel()
		reg := newFakeRegistrar()
		reg.strict = true
		NewGroup(reg, "", "").Resource("a", "x/a", Only("index", "bogus"))
		require.Len(t, reg.errs, 1)
		assert.ErrorIs(t, reg.errs[0], ErrUnknownRestAction)
		assert.Contains(t, reg.errs[0].Error(), `"bogus"`)
	})
}

func TestResourceCustomRestTable(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistrar()
	for i, a := range reg.rest {
		if a.Name == "read" {
			reg.rest[i] = RestAction{Name: "read", Method: "GET", Path: "/:id", Action: "look"}
		}
	}

	rules := NewGroup(reg, "", "").Resource("res", "index/blog")
	read := rules.Find("read")
	require.NotNil(t, read)
	assert.Equal(t, "index/blog/look", read.Target().Ref)
}

func TestReplaceCapture(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/:cid/edit", replaceCapture("/:id/edit", "id", "cid"))
	assert.Equal(t, "/:identity", replaceCapture("/:identity", "id", "cid"))
	assert.Equal(t, "", replaceCapture("", "id", "cid"))
}

func rests(rules Rules) []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.Rest())
	}
	return out
}
