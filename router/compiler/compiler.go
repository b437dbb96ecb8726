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

package compiler

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// DefaultRequired is the constraint applied to required captures without one.
	DefaultRequired = `[^/]+`
	// DefaultOptional is the constraint applied to optional captures without one.
	DefaultOptional = `[^/]*`

	mergeRequired = `.+`
	mergeOptional = `.*`
)

// Options controls how a pattern is compiled.
type Options struct {
	// Constraints maps capture names to regular expressions. Anchors (^ and $)
	// are stripped; the expression always has to match the whole capture.
	Constraints map[string]string

	// MergeExtraVars lets the last capture absorb the rest of the path,
	// slashes included, when it has no explicit constraint.
	MergeExtraVars bool

	// Partial lets the pattern match a leading run of path segments. The
	// unmatched remainder is returned by MatchRest. A "$" marker in the
	// pattern overrides it.
	Partial bool
}

// Capture is one extracted capture value.
type Capture struct {
	Name  string
	Value string
}

// Pattern is a compiled rule pattern. It is immutable and safe for
// concurrent use.
type Pattern struct {
	raw      string
	path     string
	complete bool
	partial  bool
	tokens   []Token
	names    []string
	optional []bool
	required []string
	groups   []int
	re       *regexp.Regexp

	first    string
	hasFirst bool

	rest string
}

// Compile parses and compiles a rule pattern.
//
// A pattern with only literal tokens is matched by string comparison; any
// other pattern is compiled into a single anchored regular expression with
// one named group per capture.
//
// A capture that is directly followed by another capture gets a lazy
// quantifier so that the following capture takes what it can match:
// "hello-<name><id?>" with name=\w+ and id=\d+ splits "hello-go2016" into
// name="go" and id="2016".
func Compile(pattern string, opts Options) (*Pattern, error) {
	tokens, err := Parse(pattern)
	if err != nil {
		return nil, err
	}

	path, complete := Normalize(pattern)
	p := &Pattern{
		raw:      pattern,
		path:     path,
		complete: complete,
		partial:  opts.Partial && !complete,
		tokens:   tokens,
	}

	lastCapture := -1
	for i, tok := range tokens {
		if tok.IsCapture() {
			p.names = append(p.names, tok.Value)
			p.optional = append(p.optional, tok.Kind == TokenOptional)
			if tok.Kind == TokenRequired {
				p.required = append(p.required, tok.Value)
			}
			lastCapture = i
		}
	}
	p.first, p.hasFirst = firstLiteralSegment(tokens)
	if lastCapture >= 0 && opts.MergeExtraVars {
		if _, custom := opts.Constraints[tokens[lastCapture].Value]; !custom {
			p.rest = tokens[lastCapture].Value
		}
	}

	if len(p.names) == 0 {
		return p, nil
	}

	var b strings.Builder
	b.WriteByte('^')
	slashOptional := false
	for i, tok := range tokens {
		nextIsCapture := i+1 < len(tokens) && tokens[i+1].IsCapture()

		switch tok.Kind {
		case TokenLiteral:
			lit := tok.Value
			if i+1 < len(tokens) && tokens[i+1].Kind == TokenOptional && strings.HasSuffix(lit, "/") {
				lit = lit[:len(lit)-1]
				slashOptional = true
			}
			b.WriteString(regexp.QuoteMeta(lit))

		case TokenRequired, TokenOptional:
			optional := tok.Kind == TokenOptional
			expr, err := constraintFor(pattern, tok.Value, optional, opts, i == lastCapture)
			if err != nil {
				return nil, err
			}
			if nextIsCapture {
				expr = lazy(expr)
			}
			switch {
			case !optional:
				fmt.Fprintf(&b, "(?P<%s>%s)", tok.Value, expr)
			case slashOptional:
				fmt.Fprintf(&b, "(?:/(?P<%s>%s))?", tok.Value, expr)
				slashOptional = false
			default:
				fmt.Fprintf(&b, "(?P<%s>%s)?", tok.Value, expr)
			}
		}
	}
	if p.partial {
		b.WriteString(`(?:/(.*))?`)
	}
	b.WriteByte('$')

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, &SyntaxError{Pattern: pattern, Offset: -1, Err: fmt.Errorf("%w: %v", ErrInvalidConstraint, err)}
	}
	p.re = re
	p.groups = make([]int, len(p.names))
	for i, name := range p.names {
		p.groups[i] = re.SubexpIndex(name)
	}

	return p, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(pattern string, opts Options) *Pattern {
	p, err := Compile(pattern, opts)
	if err != nil {
		panic(err)
	}
	return p
}

// constraintFor returns the regular expression for one capture.
func constraintFor(pattern, name string, optional bool, opts Options, last bool) (string, error) {
	expr, ok := opts.Constraints[name]
	if ok {
		expr = strings.TrimSuffix(strings.TrimPrefix(expr, "^"), "$")
		if _, err := regexp.Compile("^(?:" + expr + ")$"); err != nil || expr == "" {
			return "", &SyntaxError{Pattern: pattern, Offset: -1, Name: name, Err: ErrInvalidConstraint}
		}
		return "(?:" + expr + ")", nil
	}

	switch {
	case last && opts.MergeExtraVars && optional:
		return mergeOptional, nil
	case last && opts.MergeExtraVars:
		return mergeRequired, nil
	case optional:
		return DefaultOptional, nil
	default:
		return DefaultRequired, nil
	}
}

// lazy turns a trailing greedy "+" or "*" quantifier into its lazy form.
func lazy(expr string) string {
	inner := expr
	wrapped := strings.HasPrefix(inner, "(?:") && strings.HasSuffix(inner, ")")
	if wrapped {
		inner = inner[3 : len(inner)-1]
	}
	n := len(inner)
	if n < 2 {
		return expr
	}
	last := inner[n-1]
	if (last != '+' && last != '*') || inner[n-2] == '\\' {
		return expr
	}
	inner += "?"
	if wrapped {
		return "(?:" + inner + ")"
	}
	return inner
}

// firstLiteralSegment returns the first path segment if it is made of
// literal text only.
func firstLiteralSegment(tokens []Token) (string, bool) {
	if len(tokens) == 0 {
		return "", true
	}
	if tokens[0].Kind != TokenLiteral {
		return "", false
	}
	lit := tokens[0].Value
	if i := strings.IndexByte(lit, '/'); i >= 0 {
		return lit[:i], true
	}
	if len(tokens) == 1 {
		return lit, true
	}
	return "", false
}

// Match matches a normalized path (no leading or trailing slash) against
// the pattern. Captures are returned in declaration order; optional captures
// that did not participate are omitted.
func (p *Pattern) Match(path string) ([]Capture, bool) {
	captures, _, ok := p.MatchRest(path)
	return captures, ok
}

// MatchRest is like Match and also returns the part of the path left over
// by a partial pattern, without its leading slash.
func (p *Pattern) MatchRest(path string) ([]Capture, string, bool) {
	if p.re == nil {
		switch {
		case path == p.path:
			return nil, "", true
		case p.partial && p.path == "":
			return nil, path, true
		case p.partial && strings.HasPrefix(path, p.path+"/"):
			return nil, path[len(p.path)+1:], true
		}
		return nil, "", false
	}

	idx := p.re.FindStringSubmatchIndex(path)
	if idx == nil {
		return nil, "", false
	}

	captures := make([]Capture, 0, len(p.names))
	for i, name := range p.names {
		g := p.groups[i]
		start, end := idx[2*g], idx[2*g+1]
		if start < 0 || (start == end && p.optional[i]) {
			continue
		}
		captures = append(captures, Capture{Name: name, Value: path[start:end]})
	}

	rest := ""
	if p.partial {
		g := p.re.NumSubexp()
		if start := idx[2*g]; start >= 0 {
			rest = path[start:idx[2*g+1]]
		}
	}

	return captures, rest, true
}

// RestCapture returns the capture that absorbs the rest of the path when
// the pattern was compiled with MergeExtraVars.
func (p *Pattern) RestCapture() (string, bool) {
	return p.rest, p.rest != ""
}

// Raw returns the pattern as given to Compile.
func (p *Pattern) Raw() string {
	return p.raw
}

// Path returns the normalized pattern text.
func (p *Pattern) Path() string {
	return p.path
}

// Complete reports whether the pattern carried a "$" marker.
func (p *Pattern) Complete() bool {
	return p.complete
}

// Partial reports whether the pattern matches path prefixes.
func (p *Pattern) Partial() bool {
	return p.partial
}

// Tokens returns a copy of the parsed tokens.
func (p *Pattern) Tokens() []Token {
	return append([]Token(nil), p.tokens...)
}

// Names returns the capture names in declaration order.
func (p *Pattern) Names() []string {
	return append([]string(nil), p.names...)
}

// Required returns the names of required captures in declaration order.
func (p *Pattern) Required() []string {
	return append([]string(nil), p.required...)
}

// IsStatic reports whether the pattern has no captures.
func (p *Pattern) IsStatic() bool {
	return p.re == nil
}

// FirstSegment returns the literal first path segment, if the first segment
// has no captures.
func (p *Pattern) FirstSegment() (string, bool) {
	return p.first, p.hasFirst
}

// HasExtension reports whether the last path segment of the pattern is a
// literal containing a dot, such as "sitemap.xml".
func (p *Pattern) HasExtension() bool {
	if len(p.tokens) == 0 {
		return false
	}
	last := p.tokens[len(p.tokens)-1]
	if last.Kind != TokenLiteral {
		return false
	}
	seg := last.Value
	if i := strings.LastIndexByte(seg, '/'); i >= 0 {
		seg = seg[i+1:]
	}
	return strings.Contains(seg, ".")
}

// Regexp returns the compiled expression source, or "" for static patterns.
func (p *Pattern) Regexp() string {
	if p.re == nil {
		return ""
	}
	return p.re.String()
}
