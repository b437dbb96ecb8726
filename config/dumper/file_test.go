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

package dumper

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/routing/config/codec"
)

func TestFileDump(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "routes.json")
	doc := map[string]any{"miss": "index/error/miss"}

	require.NoError(t, NewFile(path, codec.JSONCodec{}).Dump(context.Background(), doc))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"miss": "index/error/miss"}`, string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(DefaultFilePermissions), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileDumpPermissions(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "routes.yaml")
	d := NewFileWithPermissions(path, codec.YAMLCodec{}, 0o600)
	require.NoError(t, d.Dump(context.Background(), map[string]any{"miss": "x"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	assert.Equal(t, path, d.String())
}

func TestFileDumpErrors(t *testing.T) {
	t.Parallel()

	missingDir := filepath.Join(t.TempDir(), "nope", "routes.json")
	err := NewFile(missingDir, codec.JSONCodec{}).Dump(context.Background(), map[string]any{})
	require.ErrorContains(t, err, "failed to write file")

	err = NewFile(filepath.Join(t.TempDir(), "r.json"), codec.JSONCodec{}).Dump(context.Background(), map[string]any{"f": func() {}})
	require.ErrorContains(t, err, "failed to encode values")
}
