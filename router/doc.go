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

// Package router maps requests to dispatch targets with an ordered rule
// table, and builds URLs back from rule names and targets.
//
// # Rules
//
// A rule ties a pattern to a target for a set of methods:
//
//	r := router.MustNew(router.WithSuffix("html"))
//	r.GET("blog/:id", "index/blog/read").Where("id", `\d+`)
//	r.GET("archive/:year/[:month]", "index/archive/list")
//	r.POST("blog", "@blog/save")
//	r.GET("about", `\app\controller\Page@about`)
//	r.GET("old/:id", "/blog/:id").SetStatus(http.StatusFound)
//
// Rules of one method are tried in registration order and the first that
// matches wins. Patterns are described in package compiler; targets in
// route.ParseTarget.
//
// Groups share a prefix, constraints and options, and may define a miss
// target used when none of their rules matches:
//
//	blog := r.Group("blog").Where("id", `\d+`)
//	blog.GET(":id", "index/blog/read")
//	blog.Miss("index/blog/missing")
//
// Resource registers the REST rules of a resource:
//
//	r.Resource("blog.comment", "index/comment")
//	// GET blog/:blog_id/comment          index
//	// GET blog/:blog_id/comment/:id      read
//	// ...
//
// # Domains
//
// Domain binds a host to a module, namespace, class or controller; the
// binding fills in or replaces the target of requests for that host.
// DomainRules scopes rules to a host; they are tried before global rules.
//
//	r.Domain("admin.example.com", "admin")
//	r.Domain("*.example.com", "index/user?name=*")
//	api := r.DomainRules("api.example.com")
//	api.GET("user/:id", "api/user/read")
//
// # Matching
//
// Check returns a Result describing the dispatch: a ModuleDispatch,
// ControllerDispatch, MethodDispatch, RedirectDispatch or ClosureDispatch,
// with the route, query and form parameters. Resolve additionally
// dispatches unmatched paths by the module/controller/action convention.
// ServeHTTP serves a Result over HTTP, handing module, controller and
// method dispatches to an Invoker.
//
// # Building URLs
//
// Build is the reverse of Check:
//
//	r.Build("index/blog/read", route.NewParams("id", "5")) // "/blog/5.html"
//
// The first call to Check, Resolve, Build or ServeHTTP freezes the rule
// table. Call Freeze at boot to surface rule errors before serving.
package router
