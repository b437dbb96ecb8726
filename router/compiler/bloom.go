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
	"hash/fnv"
	"strings"
)

// BloomFilter is a small bloom filter used for negative lookups:
// Test never returns false for an added element, and rarely returns true
// for one that was not added.
type BloomFilter struct {
	bits  []uint64
	size  uint64
	seeds []uint64
}

// NewBloomFilter creates a bloom filter with size bits and numHashFuncs
// seeded FNV-1a hash functions. A zero size is rounded up to 64 bits.
func NewBloomFilter(size uint64, numHashFuncs int) *BloomFilter {
	if size == 0 {
		size = 64
	}
	bf := &BloomFilter{
		bits:  make([]uint64, (size+63)/64),
		size:  size,
		seeds: make([]uint64, numHashFuncs),
	}
	for i := range numHashFuncs {
		//nolint:gosec // G115: numHashFuncs is small
		bf.seeds[i] = uint64(i + 1)
	}

	return bf
}

func (bf *BloomFilter) position(base, seed uint64) uint64 {
	return (base ^ (seed * 0x9e3779b97f4a7c15)) % bf.size
}

func hash(data string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(data))
	return h.Sum64()
}

// Add adds an element.
func (bf *BloomFilter) Add(data string) {
	base := hash(data)
	for _, seed := range bf.seeds {
		pos := bf.position(base, seed)
		bf.bits[pos/64] |= 1 << (pos % 64)
	}
}

// Test reports whether data may have been added.
func (bf *BloomFilter) Test(data string) bool {
	base := hash(data)
	for _, seed := range bf.seeds {
		pos := bf.position(base, seed)
		if bf.bits[pos/64]&(1<<(pos%64)) == 0 {
			return false
		}
	}

	return true
}

// Prefilter answers "can any pattern of this list match the path?" from the
// path's first segment alone. A list containing a pattern whose first
// segment is not a plain literal is open and admits every path.
//
// Rules are still matched in registration order; the prefilter only lets
// the matcher skip a whole list.
type Prefilter struct {
	bloom *BloomFilter
	open  bool
	count int
}

const minPrefilterBits = 1024

// NewPrefilter builds a prefilter for the given patterns.
func NewPrefilter(patterns []*Pattern) *Prefilter {
	size := uint64(minPrefilterBits)
	//nolint:gosec // G115: pattern counts are small
	if n := uint64(len(patterns) * 16); n > size {
		size = n
	}
	pf := &Prefilter{bloom: NewBloomFilter(size, 3)}
	for _, p := range patterns {
		pf.Add(p)
	}
	return pf
}

// Add records one pattern.
func (pf *Prefilter) Add(p *Pattern) {
	pf.count++
	first, ok := p.FirstSegment()
	if !ok || (p.partial && p.path == "") {
		pf.open = true
		return
	}
	pf.bloom.Add(first)
}

// Open reports whether the prefilter admits every path.
func (pf *Prefilter) Open() bool {
	return pf.open
}

// MayMatch reports whether some recorded pattern may match path.
// path must be normalized (no leading slash).
func (pf *Prefilter) MayMatch(path string) bool {
	if pf.open {
		return true
	}
	if pf.count == 0 {
		return false
	}
	return pf.bloom.Test(FirstSegment(path))
}

// FirstSegment returns the text before the first slash of a normalized path.
func FirstSegment(path string) string {
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return path
}
