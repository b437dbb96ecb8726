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

// Package compiler turns rule patterns into matchers.
//
// A pattern is a slash separated path with named captures:
//
//	blog/:id             required capture, whole segment
//	blog/:id?            optional capture, whole segment
//	blog/[:id]           optional capture, whole segment
//	hello-<name><id?>    captures embedded in a segment
//	sitemap.xml$         "$" forces a complete match
//
// Parse validates the syntax and returns the ordered token list. Compile
// combines the tokens with a constraint table (capture name to regular
// expression) and produces a Pattern:
//
//	p, err := compiler.Compile("blog/:id", compiler.Options{
//	    Constraints: map[string]string{"id": `\d+`},
//	})
//	caps, ok := p.Match("blog/5") // [{id 5}], true
//
// Patterns without captures are compared as strings. Every other pattern
// is compiled once into a single anchored regular expression with one named
// group per capture, so matching costs one regexp run.
//
// # Prefilter
//
// A Prefilter records the literal first segment of every pattern of a rule
// list in a bloom filter. When the first segment of a request path was never
// recorded, no pattern of the list can match and the list is skipped.
package compiler
