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

//go:build !integration

package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSEnvVar(t *testing.T) {
	t.Parallel()

	src := NewOSEnvVar("ROUTES_")
	src.environ = func() []string {
		return []string{
			"HOME=/root",
			"ROUTES_OPTIONS__SUFFIX=html",
			"ROUTES_OPTIONS__ROOT_DOMAIN=example.com",
			"ROUTES_MISS=index/error/miss",
		}
	}

	doc, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"options": map[string]any{"suffix": "html", "root_domain": "example.com"},
		"miss":    "index/error/miss",
	}, doc)
	assert.Equal(t, "env:ROUTES_", src.String())
}
