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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		want     string
		complete bool
	}{
		{in: "blog/:id", want: "blog/:id"},
		{in: "/blog/:id/", want: "blog/:id"},
		{in: " /blog/:id$ ", want: "blog/:id", complete: true},
		{in: "/", want: ""},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, complete := Normalize(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.complete, complete)
		})
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		want    []Token
	}{
		{
			name:    "literal only",
			pattern: "/about/team/",
			want:    []Token{{Kind: TokenLiteral, Value: "about/team"}},
		},
		{
			name:    "colon capture",
			pattern: "blog/:id",
			want: []Token{
				{Kind: TokenLiteral, Value: "blog/"},
				{Kind: TokenRequired, Value: "id"},
			},
		},
		{
			name:    "colon optional",
			pattern: "blog/:year/:month?",
			want: []Token{
				{Kind: TokenLiteral, Value: "blog/"},
				{Kind: TokenRequired, Value: "year"},
				{Kind: TokenLiteral, Value: "/"},
				{Kind: TokenOptional, Value: "month"},
			},
		},
		{
			name:    "bracket optional",
			pattern: "user/[:name]",
			want: []Token{
				{Kind: TokenLiteral, Value: "user/"},
				{Kind: TokenOptional, Value: "name"},
			},
		},
		{
			name:    "embedded captures",
			pattern: "hello-<name><id?>$",
			want: []Token{
				{Kind: TokenLiteral, Value: "hello-"},
				{Kind: TokenRequired, Value: "name"},
				{Kind: TokenOptional, Value: "id"},
			},
		},
		{
			name:    "colon inside segment is literal",
			pattern: "a:b/:c",
			want: []Token{
				{Kind: TokenLiteral, Value: "a:b/"},
				{Kind: TokenRequired, Value: "c"},
			},
		},
		{
			name:    "empty pattern",
			pattern: "/",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		pattern  string
		wantErr  error
		wantName string
	}{
		{name: "unterminated angle", pattern: "blog/<id", wantErr: ErrUnterminatedCapture},
		{name: "unterminated bracket", pattern: "blog/[:id", wantErr: ErrUnterminatedCapture},
		{name: "empty angle", pattern: "blog/<>", wantErr: ErrEmptyCaptureName},
		{name: "empty colon", pattern: "blog/:", wantErr: ErrEmptyCaptureName},
		{name: "bad name", pattern: "blog/<na-me>", wantErr: ErrInvalidCaptureName, wantName: "na-me"},
		{name: "bracket without colon", pattern: "blog/[id]", wantErr: ErrInvalidCaptureName, wantName: "id"},
		{name: "duplicate", pattern: "a/:id/<id>", wantErr: ErrDuplicateCapture, wantName: "id"},
		{name: "required after optional", pattern: "a/:x?/:y", wantErr: ErrRequiredAfterOption, wantName: "y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(tt.pattern)
			require.Error(t, err)
			require.ErrorIs(t, err, tt.wantErr)

			var syntaxErr *SyntaxError
			require.True(t, errors.As(err, &syntaxErr))
			assert.Equal(t, tt.pattern, syntaxErr.Pattern)
			assert.Equal(t, tt.wantName, syntaxErr.Name)
			assert.GreaterOrEqual(t, syntaxErr.Offset, 0)
		})
	}
}

func TestSyntaxErrorMessage(t *testing.T) {
	t.Parallel()

	err := &SyntaxError{Pattern: "a/:id/<id>", Offset: 6, Name: "id", Err: ErrDuplicateCapture}
	assert.Equal(t, `pattern "a/:id/<id>": duplicate capture name "id" at offset 6`, err.Error())

	err = &SyntaxError{Pattern: "x/:id", Offset: -1, Err: ErrInvalidConstraint}
	assert.Equal(t, `pattern "x/:id": invalid capture constraint`, err.Error())
}

func TestTokenKindString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "literal", TokenLiteral.String())
	assert.Equal(t, "required", TokenRequired.String())
	assert.Equal(t, "optional", TokenOptional.String())
	assert.Equal(t, "unknown", TokenKind(9).String())
	assert.False(t, Token{Kind: TokenLiteral}.IsCapture())
	assert.True(t, Token{Kind: TokenOptional}.IsCapture())
}
