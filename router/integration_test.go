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

//go:build integration

package router_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"rivaas.dev/routing/router"
	"rivaas.dev/routing/router/route"
)

// echoInvoker answers every dispatch with its description.
func echoInvoker() router.Invoker {
	return router.InvokerFunc(func(_ context.Context, res *router.Result) (any, error) {
		return map[string]any{
			"dispatch": res.Dispatch.String(),
			"pattern":  res.Pattern(),
			"params":   res.Merged().Map(),
		}, nil
	})
}

type echo struct {
	Dispatch string            `json:"dispatch"`
	Pattern  string            `json:"pattern"`
	Params   map[string]string `json:"params"`
}

func get(client *http.Client, url string) (int, echo) {
	resp, err := client.Get(url)
	Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())

	var e echo
	if resp.StatusCode == http.StatusOK {
		Expect(json.Unmarshal(body, &e)).To(Succeed())
	}
	return resp.StatusCode, e
}

var _ = Describe("Router Integration", func() {
	var (
		r   *router.Router
		srv *httptest.Server
	)

	BeforeEach(func() {
		r = router.MustNew(
			router.WithSuffix("html"),
			router.WithInvoker(echoInvoker()),
		)
		r.GET("blog/:id", "index/blog/read").Where("id", `\d+`).SetName("blog.read")
		r.Resource("photo", "index/photo")
		r.Alias("member", "index/user")
		r.GET("old/:id", "/blog/:id").SetStatus(http.StatusFound)
		r.GET("hello/:name", func(_ context.Context, p *route.Params) (any, error) {
			return "Hello, " + p.Get("name"), nil
		})
		admin := r.Group("admin")
		admin.GET("stats", "admin/stats/index")
		admin.Miss("admin/error/miss")
		r.MustFreeze()

		srv = httptest.NewServer(r)
		DeferCleanup(srv.Close)
	})

	Describe("Matching over HTTP", func() {
		It("should dispatch rules with their captures", func() {
			code, e := get(srv.Client(), srv.URL+"/blog/42.html?page=2")
			Expect(code).To(Equal(http.StatusOK))
			Expect(e.Dispatch).To(Equal("index/blog/read"))
			Expect(e.Pattern).To(Equal("blog/:id"))
			Expect(e.Params).To(HaveKeyWithValue("id", "42"))
			Expect(e.Params).To(HaveKeyWithValue("page", "2"))
		})

		It("should expand resources", func() {
			code, e := get(srv.Client(), srv.URL+"/photo/7/edit")
			Expect(code).To(Equal(http.StatusOK))
			Expect(e.Dispatch).To(Equal("index/photo/edit"))

			req, err := http.NewRequest(http.MethodDelete, srv.URL+"/photo/7", nil)
			Expect(err).NotTo(HaveOccurred())
			resp, err := srv.Client().Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})

		It("should fall back to the group miss rule", func() {
			code, e := get(srv.Client(), srv.URL+"/admin/unknown/page")
			Expect(code).To(Equal(http.StatusOK))
			Expect(e.Dispatch).To(Equal("admin/error/miss"))
			Expect(e.Pattern).To(Equal("_miss:admin"))
		})

		It("should use aliases and conventions", func() {
			_, e := get(srv.Client(), srv.URL+"/member/profile/id/3")
			Expect(e.Dispatch).To(Equal("index/user/profile"))
			Expect(e.Params).To(HaveKeyWithValue("id", "3"))

			_, e = get(srv.Client(), srv.URL+"/shop/cart/add")
			Expect(e.Dispatch).To(Equal("shop/cart/add"))
			Expect(e.Pattern).To(Equal("_convention"))
		})

		It("should redirect", func() {
			client := srv.Client()
			client.CheckRedirect = func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			}
			resp, err := client.Get(srv.URL + "/old/5")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusFound))
			Expect(resp.Header.Get("Location")).To(Equal("/blog/5"))
		})

		It("should serve closures", func() {
			resp, err := srv.Client().Get(srv.URL + "/hello/gopher")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			Expect(string(body)).To(Equal("Hello, gopher"))
		})
	})

	Describe("Building URLs", func() {
		It("should build URLs that route back to the same target", func() {
			for _, tc := range []struct {
				ref    string
				params *route.Params
			}{
				{"blog.read", route.NewParams("id", "9")},
				{"index/photo/read", route.NewParams("id", "11")},
				{"index/photo/edit", route.NewParams("id", "11")},
				{"index/user/profile", route.NewParams("id", "3")},
				{"shop/cart/add", nil},
			} {
				u, err := r.Build(tc.ref, tc.params)
				Expect(err).NotTo(HaveOccurred(), tc.ref)

				code, e := get(srv.Client(), srv.URL+u)
				Expect(code).To(Equal(http.StatusOK), u)
				for k, v := range tc.params.Map() {
					Expect(e.Params).To(HaveKeyWithValue(k, v), u)
				}
			}
		})

		It("should report missing parameters", func() {
			_, err := r.Build("blog.read", nil)
			Expect(err).To(MatchError(router.ErrMissingRouteParameter))
		})
	})

	Describe("Domains", func() {
		It("should route by host", func() {
			d := router.MustNew(
				router.WithRootDomain("example.com"),
				router.WithInvoker(echoInvoker()),
			)
			d.Domain("*.user", "user?name=*")
			d.Domain("api", `@\app\Api`)
			d.DomainRules("shop").GET("item/:id", "shop/item/read")
			d.GET("profile", "profile/show")

			for _, tc := range []struct {
				host, path, dispatch string
			}{
				{"alice.user.example.com", "/profile", "user/profile/show"},
				{"api.example.com", "/sync", `\app\Api@sync`},
				{"shop.example.com", "/item/1", "shop/item/read"},
				{"example.com", "/profile", "index/profile/show"},
			} {
				req := httptest.NewRequest(http.MethodGet, "http://"+tc.host+tc.path, nil)
				w := httptest.NewRecorder()
				d.ServeHTTP(w, req)
				Expect(w.Code).To(Equal(http.StatusOK), tc.host)

				var e echo
				Expect(json.Unmarshal(w.Body.Bytes(), &e)).To(Succeed())
				Expect(e.Dispatch).To(Equal(tc.dispatch), tc.host)
			}
		})
	})

	Describe("Concurrency", func() {
		It("should serve and build from many goroutines", func() {
			var wg sync.WaitGroup
			errs := make(chan error, 64)
			for i := range 64 {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					u, err := r.Build("blog.read", route.NewParams("id", fmt.Sprint(i)))
					if err != nil {
						errs <- err
						return
					}
					res, err := r.Check(router.MustRequest(http.MethodGet, u))
					if err != nil {
						errs <- err
						return
					}
					if got := res.Route.Get("id"); got != fmt.Sprint(i) {
						errs <- fmt.Errorf("id %q, want %d", got, i)
					}
				}(i)
			}
			wg.Wait()
			close(errs)
			Expect(errs).To(BeEmpty())
		})
	})
})
