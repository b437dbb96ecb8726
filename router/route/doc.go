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

// Package route provides rule definition, grouping and resource expansion
// for the routing engine.
//
// This package contains:
//   - Rule: a pattern, the methods it answers and a classified Target
//   - Group: a prefix scope with shared constraints and options
//   - Resource: expansion of one declaration into the REST rules
//   - Params: the ordered parameter set used for captures and queries
//
// # Rules
//
// Rules are created through the registration methods of the router or a
// group and configured fluently:
//
//	r.GET("blog/:id", "index/blog/read").Where("id", `\d+`).SetName("blog")
//	r.Any("new/:id", "/article/:id").SetStatus(302)
//
// # Targets
//
// Target strings are classified once at registration. See ParseTarget for
// the recognized forms. Closures are registered as Go functions:
//
//	r.GET("hello/:name", route.Func("hello", func(ctx context.Context, p *route.Params) (any, error) {
//	    return "hello " + p.Get("name"), nil
//	}))
//
// # Groups
//
//	api := r.Group("api").SetExt("json")
//	api.GET("users", "index/user/index")
//
// # Startup Operations
//
// All operations in this package occur during registration. Groups and
// rules reach the router through the Registrar interface, which avoids an
// import cycle.
package route
