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
	"maps"
	"net/url"
	"slices"
	"strings"
)

// Params is an insertion-ordered set of string parameters.
//
// It carries route captures, target defaults and query values. Order matters
// when building URLs: leftover parameters are serialized in the order they
// were supplied. A nil *Params is a valid empty set for all read methods.
type Params struct {
	keys []string
	vals map[string]string
}

// NewParams creates a Params from alternating key/value pairs.
// A trailing key without a value is ignored.
//
// Example:
//
//	p := route.NewParams("id", "10", "page", "2")
func NewParams(kv ...string) *Params {
	p := &Params{}
	for i := 0; i+1 < len(kv); i += 2 {
		p.Set(kv[i], kv[i+1])
	}
	return p
}

// ParamsFromMap creates a Params from a map. Keys are sorted so the result
// is deterministic.
func ParamsFromMap(m map[string]string) *Params {
	p := &Params{}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		p.Set(k, m[k])
	}
	return p
}

// ParseParams parses a query string ("a=1&b=2") keeping the order of first
// appearance. Later duplicates overwrite the value.
func ParseParams(query string) (*Params, error) {
	p := &Params{}
	for query != "" {
		var pair string
		pair, query, _ = strings.Cut(query, "&")
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			return nil, err
		}
		val, err := url.QueryUnescape(v)
		if err != nil {
			return nil, err
		}
		p.Set(key, val)
	}
	return p, nil
}

// FromValues converts url.Values, taking the first value of every key.
// Keys are sorted since url.Values has no order.
func FromValues(v url.Values) *Params {
	p := &Params{}
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if len(v[k]) > 0 {
			p.Set(k, v[k][0])
		}
	}
	return p
}

// Set sets key to value. A new key is appended; an existing key keeps its
// position.
func (p *Params) Set(key, value string) {
	if p.vals == nil {
		p.vals = make(map[string]string)
	}
	if _, ok := p.vals[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.vals[key] = value
}

// Get returns the value for key, or "" if absent.
func (p *Params) Get(key string) string {
	v, _ := p.Value(key)
	return v
}

// Value returns the value for key and whether it is present.
func (p *Params) Value(key string) (string, bool) {
	if p == nil {
		return "", false
	}
	v, ok := p.vals[key]
	return v, ok
}

// Has reports whether key is present.
func (p *Params) Has(key string) bool {
	_, ok := p.Value(key)
	return ok
}

// Del removes key.
func (p *Params) Del(key string) {
	if p == nil {
		return
	}
	if _, ok := p.vals[key]; !ok {
		return
	}
	delete(p.vals, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i:i], p.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (p *Params) Keys() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.keys...)
}

// Len returns the number of parameters.
func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Clone returns an independent copy. Cloning nil returns an empty set.
func (p *Params) Clone() *Params {
	c := &Params{}
	if p == nil || len(p.keys) == 0 {
		return c
	}
	c.keys = append([]string(nil), p.keys...)
	c.vals = maps.Clone(p.vals)
	return c
}

// Merge sets every parameter of other on p, in other's order.
func (p *Params) Merge(other *Params) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		p.Set(k, other.vals[k])
	}
}

// Map returns the parameters as a plain map.
func (p *Params) Map() map[string]string {
	m := make(map[string]string, p.Len())
	if p != nil {
		maps.Copy(m, p.vals)
	}
	return m
}

// Encode serializes the parameters as a query string in insertion order.
func (p *Params) Encode() string {
	if p.Len() == 0 {
		return ""
	}
	var b strings.Builder
	for i, k := range p.keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.vals[k]))
	}
	return b.String()
}

// String implements fmt.Stringer.
func (p *Params) String() string {
	return p.Encode()
}
