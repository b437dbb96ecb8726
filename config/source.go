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

package config

import "context"

// Source loads one route table document. Load must be safe to call
// concurrently.
type Source interface {
	Load(ctx context.Context) (map[string]any, error)
}

// Watcher is implemented by sources that can report changes. Watch blocks
// until ctx is done and calls changed after each change.
type Watcher interface {
	Watch(ctx context.Context, changed func()) error
}

// Dumper writes the merged document.
type Dumper interface {
	Dump(ctx context.Context, doc map[string]any) error
}
