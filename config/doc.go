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

// Package config loads declarative route tables and applies them to a
// router.
//
// A route table is a document in YAML, TOML or JSON read from files,
// embedded content, environment variables or Consul KV. Documents of all
// sources are merged in order: later maps override earlier keys and later
// lists are appended, so an environment specific file can add rules to a
// shared one. The merged document is checked against a JSON schema,
// decoded into a [RouteTable] and validated before it is applied.
//
// # Example
//
//	routes.yaml:
//
//	options:
//	  suffix: [html]
//	  root_domain: example.com
//	patterns:
//	  id: '\d+'
//	rules:
//	  - pattern: "blog/:id"
//	    target: index/blog/read
//	    name: blog
//	resources:
//	  - name: blog.comment
//	    target: index/comment
//	domains:
//	  - host: admin
//	    target: admin
//
//	loader := config.MustNew(config.WithFile("routes.yaml"), config.WithEnv("ROUTES_"))
//	table, err := loader.Load(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	r, err := table.NewRouter(router.WithInvoker(invoker))
//
// # Sources
//
// [WithFile] detects the format from the extension, [WithFileAs] and
// [WithContent] take it explicitly. [WithEnv] maps ROUTES_OPTIONS__SUFFIX
// to options.suffix. [WithConsul] reads one KV key and is skipped when
// CONSUL_HTTP_ADDR is not set; [Loader.Watch] reloads the table when the
// key changes.
package config
