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

package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/tochemey/lifecycle/lifecycle"
)

// ErrKeyNotFound is returned by SnapshotStore.Get when no snapshot exists for the identifier
var ErrKeyNotFound = errors.New("snapshot not found")

// SnapshotStore defines the durable store of entity snapshots.
//
// Implementations must be safe for concurrent use and strongly consistent:
// a Get issued after a successful Upsert returns the upserted snapshot.
type SnapshotStore interface {
	// Ping verifies a connection to the store, establishing a connection if necessary.
	Ping(ctx context.Context) error
	// Upsert writes the full attribute set of the snapshot keyed by its entity id.
	// The implementation of this method should be idempotent.
	Upsert(ctx context.Context, snapshot *lifecycle.Snapshot) error
	// Get returns the snapshot of the given entity or ErrKeyNotFound.
	Get(ctx context.Context, entityID string) (*lifecycle.Snapshot, error)
	// List returns the snapshots matching the filter ordered by entity id.
	List(ctx context.Context, filter Filter) ([]*lifecycle.Snapshot, error)
	// Close releases the resources held by the store.
	Close() error
}

// Filter narrows a List call. An empty field matches everything.
type Filter struct {
	Category string          `json:"category,omitempty"`
	Format   string          `json:"format,omitempty"`
	State    lifecycle.State `json:"state,omitempty"`
}

// IsEmpty reports whether the filter matches every snapshot
func (f Filter) IsEmpty() bool {
	return f.Category == "" && f.Format == "" && f.State == ""
}

// Matches reports whether the snapshot satisfies the filter.
// Category and format comparisons are case insensitive.
func (f Filter) Matches(snapshot *lifecycle.Snapshot) bool {
	if snapshot == nil {
		return false
	}
	if f.Category != "" && !strings.EqualFold(f.Category, snapshot.Classification.Category) {
		return false
	}
	if f.Format != "" && !strings.EqualFold(f.Format, snapshot.Classification.Format) {
		return false
	}
	if f.State != "" && f.State != snapshot.State {
		return false
	}
	return true
}
