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
	"regexp"
	"strings"
)

// ConstraintKind names a predefined capture constraint.
type ConstraintKind uint8

const (
	ConstraintInt ConstraintKind = iota + 1
	ConstraintFloat
	ConstraintAlpha
	ConstraintAlphaNum
	ConstraintSlug
	ConstraintUUID
	ConstraintDate // RFC3339 full-date
)

// Regex returns the regular expression of a predefined constraint.
func (k ConstraintKind) Regex() string {
	switch k {
	case ConstraintInt:
		return `\d+`
	case ConstraintFloat:
		return `-?(?:\d+\.?\d*|\.\d+)`
	case ConstraintAlpha:
		return `[A-Za-z]+`
	case ConstraintAlphaNum:
		return `\w+`
	case ConstraintSlug:
		return `[a-z0-9]+(?:-[a-z0-9]+)*`
	case ConstraintUUID:
		return `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`
	case ConstraintDate:
		return `\d{4}-\d{2}-\d{2}`
	default:
		return ""
	}
}

// EnumRegex returns a constraint matching exactly one of values.
func EnumRegex(values ...string) string {
	escaped := make([]string, 0, len(values))
	for _, v := range values {
		escaped = append(escaped, regexp.QuoteMeta(v))
	}
	return strings.Join(escaped, "|")
}

// mergeConstraints layers constraint tables, later tables winning.
func mergeConstraints(tables ...map[string]string) map[string]string {
	n := 0
	for _, t := range tables {
		n += len(t)
	}
	if n == 0 {
		return nil
	}
	out := make(map[string]string, n)
	for _, t := range tables {
		for k, v := range t {
			out[k] = v
		}
	}
	return out
}
