// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package shardmap provides the string keyed concurrent map holding live entity actors.
package shardmap

import (
	"runtime"

	"github.com/zeebo/xxh3"

	"github.com/tochemey/lifecycle/internal/xsync"
)

const maxShards = 64

// Map is a concurrent string keyed map split into shards
// selected by the xxh3 hash of the key.
type Map[V any] struct {
	shards []*xsync.Map[string, V]
}

// New creates an instance of Map sized for the current machine
func New[V any]() *Map[V] {
	shards := make([]*xsync.Map[string, V], numShards())
	for i := range shards {
		shards[i] = xsync.NewMap[string, V]()
	}
	return &Map[V]{shards: shards}
}

// Load returns the value of a given key
func (s *Map[V]) Load(key string) (V, bool) {
	return s.shard(key).Get(key)
}

// Store adds a key/value pair to the map
func (s *Map[V]) Store(key string, value V) {
	s.shard(key).Set(key, value)
}

// LoadOrStore returns the existing value for the key if present.
// Otherwise it stores and returns the given value. The loaded result is true if the value was loaded.
func (s *Map[V]) LoadOrStore(key string, value V) (actual V, loaded bool) {
	return s.shard(key).LoadOrStore(key, value)
}

// Delete removes a given key from the map
func (s *Map[V]) Delete(key string) {
	s.shard(key).Delete(key)
}

// Len returns the number of entries across all shards
func (s *Map[V]) Len() int {
	var n int
	for _, shard := range s.shards {
		n += shard.Len()
	}
	return n
}

// Values returns a point in time copy of the values
func (s *Map[V]) Values() []V {
	var values []V
	for _, shard := range s.shards {
		values = append(values, shard.Values()...)
	}
	return values
}

// Reset removes every entry
func (s *Map[V]) Reset() {
	for _, shard := range s.shards {
		shard.Reset()
	}
}

// the key always maps to the same shard since the hash is unseeded
func (s *Map[V]) shard(key string) *xsync.Map[string, V] {
	return s.shards[xxh3.HashString(key)%uint64(len(s.shards))]
}

func numShards() int {
	return min(runtime.NumCPU()*4, maxShards)
}
