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

package source

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/consul/api"

	"rivaas.dev/routing/config/codec"
)

// ConsulKV is the part of the Consul KV API used by Consul.
type ConsulKV interface {
	Get(key string, q *api.QueryOptions) (*api.KVPair, *api.QueryMeta, error)
}

// Consul loads a document stored under one Consul KV key. The client is
// configured from the environment (CONSUL_HTTP_ADDR, CONSUL_HTTP_TOKEN).
type Consul struct {
	kv        ConsulKV
	path      string
	decoder   codec.Decoder
	lastIndex atomic.Uint64
	waitTime  time.Duration
	retry     time.Duration
}

// NewConsul returns a Consul source for path. A nil kv uses the KV
// endpoint of a client built from api.DefaultConfig.
func NewConsul(path string, decoder codec.Decoder, kv ConsulKV) (*Consul, error) {
	if kv == nil {
		client, err := api.NewClient(api.DefaultConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to create consul client: %w", err)
		}
		kv = client.KV()
	}
	return &Consul{
		kv:       kv,
		path:     path,
		decoder:  decoder,
		waitTime: 5 * time.Minute,
		retry:    5 * time.Second,
	}, nil
}

// Load implements config.Source. A missing key yields an empty document.
func (c *Consul) Load(ctx context.Context) (map[string]any, error) {
	pair, meta, err := c.kv.Get(c.path, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get consul key: %w", err)
	}
	if meta != nil {
		c.lastIndex.Store(meta.LastIndex)
	}
	if pair == nil {
		return make(map[string]any), nil
	}

	var doc map[string]any
	if err := c.decoder.Decode(pair.Value, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode consul value: %w", err)
	}
	return doc, nil
}

// Watch blocks on the key with Consul blocking queries and calls changed
// each time its index moves past the one seen by the last Load. Query
// errors are retried after a delay. Watch returns when ctx is done.
func (c *Consul) Watch(ctx context.Context, changed func()) error {
	for {
		q := (&api.QueryOptions{WaitIndex: c.lastIndex.Load(), WaitTime: c.waitTime}).WithContext(ctx)
		_, meta, err := c.kv.Get(c.path, q)
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retry):
			}
			continue
		case meta == nil:
			return errors.New("consul returned no query metadata")
		}

		prev := c.lastIndex.Load()
		if meta.LastIndex < prev {
			// Index reset on the server.
			c.lastIndex.Store(0)
			continue
		}
		if meta.LastIndex > prev {
			c.lastIndex.Store(meta.LastIndex)
			changed()
		}
	}
}

// String returns "consul:" and the key.
func (c *Consul) String() string {
	return "consul:" + c.path
}
