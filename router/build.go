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

package router

import (
	"net/url"
	"strings"

	"rivaas.dev/routing/router/compiler"
	"rivaas.dev/routing/router/route"
)

// BuildOption configures a single Build call.
type BuildOption func(*buildConfig)

type buildConfig struct {
	suffix   *string
	domain   string
	absolute bool
}

// Suffix sets the URL suffix of the built URL, overriding the suffix of the
// reference, the rule and the router. An empty ext means no suffix.
func Suffix(ext string) BuildOption {
	return func(c *buildConfig) {
		ext = strings.TrimPrefix(ext, ".")
		c.suffix = &ext
	}
}

// NoSuffix builds the URL without a suffix.
func NoSuffix() BuildOption {
	return Suffix("")
}

// Domain builds an absolute URL on host. A bare label gets the root
// domain appended.
func Domain(host string) BuildOption {
	return func(c *buildConfig) {
		c.domain = normalizeHost(host)
	}
}

// Absolute builds an absolute URL. Without a rule domain or a Domain
// option the root domain is used as host.
func Absolute() BuildOption {
	return func(c *buildConfig) {
		c.absolute = true
	}
}

// Build returns the URL reaching ref with params.
//
// ref is a rule name, a target ("index/blog/read", "@blog/read",
// `\app\Blog@read`), a literal path starting with "/", or "[name]" to
// force a name lookup. It may carry a query ("?k=v", merged before
// params), an anchor ("#top"), a host ("@blog.example.com") and a
// suffix (".html").
//
// Rules found by name, then by target, are tried in registration order;
// the first whose required captures all have a value is used. Parameters
// that fill no capture become the query string, in the order supplied.
// Without any rule the URL is built by convention from the target.
//
// Example:
//
//	r.GET("blog/:id", "index/blog/read").SetName("blog.read")
//
//	r.Build("blog.read", route.NewParams("id", "5"))             // "/blog/5"
//	r.Build("index/blog/read?id=5&page=2", nil)                  // "/blog/5?page=2"
//	r.Build("index/blog/read#comments", route.NewParams("id", "5"), router.Suffix("html"))
//	                                                             // "/blog/5.html#comments"
func (r *Router) Build(ref string, params *route.Params, opts ...BuildOption) (string, error) {
	if err := r.Freeze(); err != nil {
		return "", err
	}

	cfg := &buildConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	u, err := r.build(ref, params, cfg)
	if err != nil {
		if r.lenientBuild {
			r.emit(DiagLenientBuild, "url build failed, best-effort url returned", map[string]any{
				"ref":   ref,
				"error": err.Error(),
				"url":   u,
			})
			return u, nil
		}
		return "", err
	}
	return u, nil
}

// MustBuild is like Build but panics on error.
func (r *Router) MustBuild(ref string, params *route.Params, opts ...BuildOption) string {
	u, err := r.Build(ref, params, opts...)
	if err != nil {
		panic(err)
	}
	return u
}

// urlRef is a parsed Build reference.
type urlRef struct {
	raw    string
	name   string // forced by "[name]"
	path   string
	query  *route.Params
	anchor string
	domain string

	// bare and ext are path without its suffix and the suffix, when path
	// ends in one.
	bare string
	ext  string
}

func parseRef(raw string) (*urlRef, error) {
	ref := &urlRef{raw: raw}
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "[") {
		if end := strings.IndexByte(s, ']'); end > 0 {
			ref.name = s[1:end]
			s = s[end+1:]
		}
	}

	s, ref.anchor, _ = strings.Cut(s, "#")
	s, rawQuery, _ := strings.Cut(s, "?")
	query, err := route.ParseParams(rawQuery)
	if err != nil {
		return nil, &BuildError{Ref: raw, Err: err}
	}
	ref.query = query

	if !strings.HasPrefix(s, `\`) {
		if i := strings.LastIndexByte(s, '@'); i > 0 {
			s, ref.domain = s[:i], normalizeHost(s[i+1:])
		}
	}
	ref.path = s
	ref.bare = s

	if !strings.HasPrefix(s, `\`) {
		seg := s[strings.LastIndexByte(s, '/')+1:]
		if dot := strings.LastIndexByte(seg, '.'); dot > 0 && dot < len(seg)-1 {
			ref.ext = seg[dot+1:]
			ref.bare = s[:len(s)-len(seg)+dot]
		}
	}

	return ref, nil
}

func (r *Router) build(raw string, params *route.Params, cfg *buildConfig) (string, error) {
	ref, err := parseRef(raw)
	if err != nil {
		return "", err
	}
	t := r.table

	rules, identity := t.lookup(ref, ref.path)
	ext := ""
	if len(rules) == 0 && ref.name == "" && ref.ext != "" {
		if rules, identity = t.lookup(ref, ref.bare); len(rules) > 0 {
			ext = ref.ext
		}
	}

	// A query that selected the rule is part of its identity, not a
	// parameter.
	vars := &route.Params{}
	if !identity {
		vars.Merge(ref.query)
	}
	vars.Merge(params)

	if len(rules) > 0 {
		missing := ""
		for _, rule := range rules {
			path, used, miss := fill(rule.Compiled(), vars)
			if miss != "" {
				if missing == "" {
					missing = miss
				}
				continue
			}
			leftover := vars.Clone()
			for _, k := range used {
				leftover.Del(k)
			}
			return r.compose(ref, rule, path, ext, leftover, cfg)
		}
		return r.bestEffort(ref), &BuildError{Ref: raw, Param: missing, Err: ErrMissingRouteParameter}
	}

	if ref.name != "" {
		return r.bestEffort(ref), &BuildError{Ref: raw, Err: ErrRouteNotFound}
	}

	path := ref.bare
	ext = ref.ext
	switch {
	case strings.HasPrefix(path, `\`), strings.HasPrefix(path, "@"):
		return r.bestEffort(ref), &BuildError{Ref: raw, Err: ErrRouteNotFound}
	case strings.HasPrefix(path, "/"):
		path = strings.Trim(path, "/")
	default:
		if aliased, ok := r.aliasPath(path); ok {
			path = aliased
		} else {
			path = r.conventionalPath(path)
		}
	}
	return r.compose(ref, nil, path, ext, vars, cfg)
}

// lookup finds the rules for a reference path: by name, then by target.
// It reports whether the reference query was part of the match.
func (t *table) lookup(ref *urlRef, path string) ([]*route.Rule, bool) {
	if ref.name != "" {
		return t.names[ref.name], false
	}
	if ref.query.Len() > 0 {
		full := path + "?" + ref.query.Encode()
		if rules := t.names[full]; len(rules) > 0 {
			return rules, true
		}
		if rules := t.targets[full]; len(rules) > 0 {
			return rules, true
		}
	}
	if rules := t.names[path]; len(rules) > 0 {
		return rules, false
	}
	return t.targets[path], false
}

// fill substitutes vars into a pattern. It returns the path, the names it
// used and, when a required capture has no value, that capture's name.
// An absent optional capture drops the slash before it, and every capture
// after it.
func fill(p *compiler.Pattern, vars *route.Params) (string, []string, string) {
	var (
		buf    []byte
		used   []string
		absent bool
	)
	rest, _ := p.RestCapture()
	for _, tok := range p.Tokens() {
		switch tok.Kind {
		case compiler.TokenLiteral:
			buf = append(buf, tok.Value...)
		case compiler.TokenRequired:
			v, ok := vars.Value(tok.Value)
			if !ok || v == "" {
				return "", nil, tok.Value
			}
			buf = append(buf, escapeValue(v, tok.Value == rest)...)
			used = append(used, tok.Value)
		case compiler.TokenOptional:
			v, ok := vars.Value(tok.Value)
			if absent || !ok || v == "" {
				absent = true
				if n := len(buf); n > 0 && buf[n-1] == '/' {
					buf = buf[:n-1]
				}
				continue
			}
			buf = append(buf, escapeValue(v, tok.Value == rest)...)
			used = append(used, tok.Value)
		}
	}
	return strings.Trim(string(buf), "/"), used, ""
}

// escapeValue escapes a capture value. Slashes are kept only for a capture
// that absorbs the rest of the path.
func escapeValue(v string, spans bool) string {
	if !spans {
		return url.PathEscape(v)
	}
	parts := strings.Split(v, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

// aliasPath rewrites a target path that starts with an alias target.
func (r *Router) aliasPath(path string) (string, bool) {
	for _, a := range r.aliases {
		target := a.ref()
		switch {
		case path == target:
			return a.name, true
		case strings.HasPrefix(path, target+"/"):
			return a.name + path[len(target):], true
		}
	}
	return "", false
}

// conventionalPath builds "module/controller/action" from a target,
// dropping what a global module binding supplies.
func (r *Router) conventionalPath(path string) string {
	if strings.Trim(path, "/") == "" {
		return ""
	}
	module, controller, action := route.SplitModulePath(path)
	controller = or(controller, r.defaultController)
	module = or(module, r.defaultModule)
	if r.urlConvert {
		controller = snake(controller)
		action = strings.ToLower(action)
	}

	parts := []string{module, controller, action}
	if b := r.table.bind; b != nil && b.Kind == BindModule {
		bm, bc := b.split()
		switch {
		case module != bm:
		case bc == "":
			parts = parts[1:]
		case controller == bc:
			parts = parts[2:]
		}
	}
	return strings.Join(parts, "/")
}

func (r *Router) compose(ref *urlRef, rule *route.Rule, path, refExt string, leftover *route.Params, cfg *buildConfig) (string, error) {
	if r.pathVars {
		segs := make([]string, 0, 1+2*leftover.Len())
		if path != "" {
			segs = append(segs, path)
		}
		for _, k := range leftover.Keys() {
			segs = append(segs, url.PathEscape(k), url.PathEscape(leftover.Get(k)))
		}
		path = strings.Join(segs, "/")
		leftover = nil
	}

	var b strings.Builder
	b.WriteString(r.root)
	b.WriteByte('/')
	b.WriteString(path)
	if ext := r.suffixFor(rule, path == "", refExt, cfg); ext != "" {
		b.WriteByte('.')
		b.WriteString(ext)
	}
	if q := leftover.Encode(); q != "" {
		b.WriteByte('?')
		b.WriteString(q)
	}
	if ref.anchor != "" {
		b.WriteByte('#')
		b.WriteString(ref.anchor)
	}
	u := b.String()

	host, scheme, err := r.hostFor(ref, rule, cfg)
	if err != nil {
		return u, &BuildError{Ref: ref.raw, Err: err}
	}
	if host != "" {
		u = scheme + "://" + host + u
	}
	return u, nil
}

// suffixFor picks the URL suffix: the Suffix option, the reference
// suffix, the rule's first ext, then the router default.
func (r *Router) suffixFor(rule *route.Rule, empty bool, refExt string, cfg *buildConfig) string {
	if empty {
		return ""
	}
	if rule != nil && rule.Compiled().HasExtension() {
		return ""
	}
	if cfg.suffix != nil {
		return *cfg.suffix
	}
	if refExt != "" {
		return refExt
	}

	ext := ""
	if rule != nil {
		if exts := rule.Ext(); len(exts) > 0 {
			ext = exts[0]
		}
	}
	if ext == "" && len(r.suffixes) > 0 {
		ext = r.suffixes[0]
	}
	if rule != nil && ext != "" && !rule.AllowsExt(ext) {
		return ""
	}
	return ext
}

func (r *Router) hostFor(ref *urlRef, rule *route.Rule, cfg *buildConfig) (host, scheme string, err error) {
	host = cfg.domain
	if host == "" {
		host = ref.domain
	}
	if host == "" && rule != nil {
		if d := rule.Domain(); d != "" {
			if d == "*" || strings.HasPrefix(d, "*.") {
				return "", "", ErrWildcardDomain
			}
			host = d
		}
	}
	if host == "" && cfg.absolute {
		if r.rootDomain == "" {
			return "", "", ErrMissingHost
		}
		host = r.rootDomain
	}
	if host == "" {
		return "", "", nil
	}
	if !strings.Contains(host, ".") && r.rootDomain != "" && host != "localhost" {
		host += "." + r.rootDomain
	}

	scheme = r.scheme
	if rule != nil && rule.HTTPS() {
		scheme = "https"
	}
	return host, scheme, nil
}

func (r *Router) bestEffort(ref *urlRef) string {
	return r.root + "/" + strings.Trim(ref.bare, "/")
}
