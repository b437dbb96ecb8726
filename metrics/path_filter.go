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

package metrics

import (
	"path"
	"regexp"
	"strings"
)

// exclusions selects the requests left out of metrics.
//
// Paths and prefixes are compared the way rules see a path: without
// leading or trailing slashes, so "/health" and "health/" are the same
// entry. An exact path also matches with a URL suffix ("health.json").
// Patterns run against the raw request path.
type exclusions struct {
	paths    map[string]struct{}
	prefixes []string
	patterns []*regexp.Regexp
}

func trimPath(p string) string {
	return strings.Trim(p, "/")
}

func (e *exclusions) addPaths(paths ...string) {
	if e.paths == nil {
		e.paths = make(map[string]struct{}, len(paths))
	}
	for _, p := range paths {
		e.paths[trimPath(p)] = struct{}{}
	}
}

func (e *exclusions) addPrefixes(prefixes ...string) {
	for _, p := range prefixes {
		if p = trimPath(p); p != "" {
			e.prefixes = append(e.prefixes, p)
		}
	}
}

func (e *exclusions) excludes(raw string) bool {
	if e == nil {
		return false
	}
	p := trimPath(raw)
	if _, ok := e.paths[p]; ok {
		return true
	}
	if ext := path.Ext(p); ext != "" {
		if _, ok := e.paths[strings.TrimSuffix(p, ext)]; ok {
			return true
		}
	}
	for _, prefix := range e.prefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	for _, re := range e.patterns {
		if re.MatchString(raw) {
			return true
		}
	}
	return false
}
