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
	"errors"
	"fmt"
	"strings"
)

// TokenKind identifies the kind of a pattern token.
type TokenKind uint8

const (
	// TokenLiteral is static text that must match exactly.
	TokenLiteral TokenKind = iota
	// TokenRequired is a named capture that must be present.
	TokenRequired
	// TokenOptional is a named capture that may be absent.
	TokenOptional
)

// String returns a short name for the token kind.
func (k TokenKind) String() string {
	switch k {
	case TokenLiteral:
		return "literal"
	case TokenRequired:
		return "required"
	case TokenOptional:
		return "optional"
	default:
		return "unknown"
	}
}

// Token is one element of a parsed rule pattern.
// For literals Value holds the static text, for captures the capture name.
type Token struct {
	Kind  TokenKind
	Value string
}

// IsCapture reports whether the token is a named capture.
func (t Token) IsCapture() bool {
	return t.Kind != TokenLiteral
}

// Syntax errors returned by Parse. They are wrapped in a *SyntaxError.
var (
	ErrUnterminatedCapture = errors.New("unterminated capture")
	ErrEmptyCaptureName    = errors.New("empty capture name")
	ErrInvalidCaptureName  = errors.New("invalid capture name")
	ErrDuplicateCapture    = errors.New("duplicate capture name")
	ErrRequiredAfterOption = errors.New("required capture after optional capture")
	ErrInvalidConstraint   = errors.New("invalid capture constraint")
)

// SyntaxError describes a malformed rule pattern.
type SyntaxError struct {
	Pattern string // Pattern as given at registration
	Offset  int    // Byte offset of the offending token, -1 if unknown
	Name    string // Capture name involved, if any
	Err     error  // One of the Err* sentinels
}

// Error implements error.
func (e *SyntaxError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "pattern %q: %v", e.Pattern, e.Err)
	if e.Name != "" {
		fmt.Fprintf(&b, " %q", e.Name)
	}
	if e.Offset >= 0 {
		fmt.Fprintf(&b, " at offset %d", e.Offset)
	}
	return b.String()
}

// Unwrap returns the underlying sentinel.
func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// Normalize trims surrounding whitespace and slashes and reports whether the
// pattern carried a trailing "$" complete-match marker.
func Normalize(pattern string) (string, bool) {
	p := strings.TrimSpace(pattern)
	complete := false
	if strings.HasSuffix(p, "$") {
		p = p[:len(p)-1]
		complete = true
	}
	return strings.Trim(p, "/"), complete
}

// Parse splits a rule pattern into tokens.
//
// Supported capture syntaxes:
//
//	:name     required, whole segment
//	:name?    optional, whole segment
//	<name>    required, may be embedded in a segment
//	<name?>   optional, may be embedded in a segment
//	[:name]   optional, whole segment
//
// Optional captures may only be followed by literals and other optional
// captures.
func Parse(pattern string) ([]Token, error) {
	p, _ := Normalize(pattern)

	var (
		tokens   []Token
		literal  strings.Builder
		seen     = make(map[string]struct{})
		optional bool
	)

	flush := func() {
		if literal.Len() > 0 {
			tokens = append(tokens, Token{Kind: TokenLiteral, Value: literal.String()})
			literal.Reset()
		}
	}

	add := func(name string, opt bool, offset int) error {
		if name == "" {
			return &SyntaxError{Pattern: pattern, Offset: offset, Err: ErrEmptyCaptureName}
		}
		if !validName(name) {
			return &SyntaxError{Pattern: pattern, Offset: offset, Name: name, Err: ErrInvalidCaptureName}
		}
		if _, dup := seen[name]; dup {
			return &SyntaxError{Pattern: pattern, Offset: offset, Name: name, Err: ErrDuplicateCapture}
		}
		if !opt && optional {
			return &SyntaxError{Pattern: pattern, Offset: offset, Name: name, Err: ErrRequiredAfterOption}
		}
		seen[name] = struct{}{}
		flush()
		kind := TokenRequired
		if opt {
			kind = TokenOptional
			optional = true
		}
		tokens = append(tokens, Token{Kind: kind, Value: name})
		return nil
	}

	for i := 0; i < len(p); {
		c := p[i]
		switch {
		case c == '<':
			end := strings.IndexByte(p[i:], '>')
			if end < 0 {
				return nil, &SyntaxError{Pattern: pattern, Offset: i, Err: ErrUnterminatedCapture}
			}
			name := p[i+1 : i+end]
			opt := strings.HasSuffix(name, "?")
			if opt {
				name = name[:len(name)-1]
			}
			if err := add(name, opt, i); err != nil {
				return nil, err
			}
			i += end + 1

		case c == '[':
			end := strings.IndexByte(p[i:], ']')
			if end < 0 {
				return nil, &SyntaxError{Pattern: pattern, Offset: i, Err: ErrUnterminatedCapture}
			}
			inner := p[i+1 : i+end]
			if !strings.HasPrefix(inner, ":") {
				return nil, &SyntaxError{Pattern: pattern, Offset: i, Name: inner, Err: ErrInvalidCaptureName}
			}
			if err := add(inner[1:], true, i); err != nil {
				return nil, err
			}
			i += end + 1

		case c == ':' && (i == 0 || p[i-1] == '/'):
			j := i + 1
			for j < len(p) && isNameByte(p[j]) {
				j++
			}
			name := p[i+1 : j]
			opt := j < len(p) && p[j] == '?'
			if opt {
				j++
			}
			if err := add(name, opt, i); err != nil {
				return nil, err
			}
			i = j

		default:
			literal.WriteByte(c)
			i++
		}
	}
	flush()

	return tokens, nil
}

func isNameByte(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

func validName(name string) bool {
	for i := 0; i < len(name); i++ {
		if !isNameByte(name[i]) {
			return false
		}
	}
	return name != ""
}
