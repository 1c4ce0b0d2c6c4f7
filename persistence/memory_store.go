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
	"slices"
	"strings"

	"go.uber.org/atomic"

	"github.com/tochemey/lifecycle/errors"
	"github.com/tochemey/lifecycle/internal/xsync"
	"github.com/tochemey/lifecycle/lifecycle"
)

// MemoryStore keeps snapshots in process memory.
// Snapshots are cloned on the way in and out.
type MemoryStore struct {
	snapshots *xsync.Map[string, *lifecycle.Snapshot]
	closed    *atomic.Bool
}

var _ SnapshotStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: xsync.NewMap[string, *lifecycle.Snapshot](),
		closed:    atomic.NewBool(false),
	}
}

// Ping implements SnapshotStore
func (s *MemoryStore) Ping(ctx context.Context) error {
	if s.closed.Load() {
		return errors.ErrStoreClosed
	}
	return ctx.Err()
}

// Upsert implements SnapshotStore
func (s *MemoryStore) Upsert(ctx context.Context, snapshot *lifecycle.Snapshot) error {
	if err := s.Ping(ctx); err != nil {
		return err
	}
	if err := snapshot.Validate(); err != nil {
		return err
	}
	s.snapshots.Set(snapshot.EntityID, snapshot.Clone())
	return nil
}

// Get implements SnapshotStore
func (s *MemoryStore) Get(ctx context.Context, entityID string) (*lifecycle.Snapshot, error) {
	if err := s.Ping(ctx); err != nil {
		return nil, err
	}
	snapshot, ok := s.snapshots.Get(entityID)
	if !ok {
		return nil, ErrKeyNotFound
	}
	return snapshot.Clone(), nil
}

// List implements SnapshotStore
func (s *MemoryStore) List(ctx context.Context, filter Filter) ([]*lifecycle.Snapshot, error) {
	if err := s.Ping(ctx); err != nil {
		return nil, err
	}
	out := make([]*lifecycle.Snapshot, 0)
	s.snapshots.Range(func(_ string, snapshot *lifecycle.Snapshot) {
		if filter.Matches(snapshot) {
			out = append(out, snapshot.Clone())
		}
	})
	SortByEntityID(out)
	return out, nil
}

// Len returns the number of stored snapshots
func (s *MemoryStore) Len() int {
	return s.snapshots.Len()
}

// Close implements SnapshotStore
func (s *MemoryStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.snapshots.Reset()
	return nil
}

// SortByEntityID orders snapshots by entity id in place
func SortByEntityID(snapshots []*lifecycle.Snapshot) {
	slices.SortFunc(snapshots, func(a, b *lifecycle.Snapshot) int {
		return strings.Compare(a.EntityID, b.EntityID)
	})
}
