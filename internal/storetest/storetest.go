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

// Package storetest holds the behavior every persistence.SnapshotStore driver must satisfy.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/lifecycle/lifecycle"
	"github.com/tochemey/lifecycle/persistence"
)

// NewSnapshot returns a registered snapshot for the given id and category
func NewSnapshot(t *testing.T, id, category, format string) *lifecycle.Snapshot {
	t.Helper()
	snapshot, err := lifecycle.NewSnapshot(id, lifecycle.CreateInput{
		DocumentType:      "manual",
		Code:              "CODE-" + id,
		Name:              "Document " + id,
		Category:          category,
		Format:            format,
		LegalRequirements: []string{"R1"},
		Metadata:          map[string]string{"owner": "finance"},
	}, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)
	return snapshot
}

// Run exercises the SnapshotStore contract against store.
// The store must be empty and is not closed by Run.
func Run(t *testing.T, store persistence.SnapshotStore) {
	ctx := context.Background()

	t.Run("ping", func(t *testing.T) {
		require.NoError(t, store.Ping(ctx))
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := store.Get(ctx, "missing")
		require.ErrorIs(t, err, persistence.ErrKeyNotFound)
	})

	t.Run("upsert and get", func(t *testing.T) {
		snapshot := NewSnapshot(t, "doc-upsert", "fiscal", "pdf")
		require.NoError(t, store.Upsert(ctx, snapshot))

		actual, err := store.Get(ctx, snapshot.EntityID)
		require.NoError(t, err)
		assert.Equal(t, snapshot.EntityID, actual.EntityID)
		assert.Equal(t, snapshot.Classification, actual.Classification)
		assert.Equal(t, lifecycle.Registered, actual.State)
		assert.True(t, snapshot.CreatedAt.Equal(actual.CreatedAt))

		at := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
		updated := snapshot.Clone()
		updated.State = lifecycle.UnderReview
		updated.Revision = 1
		updated.Review.StartedBy = "alice"
		updated.Review.StartedAt = &at
		require.NoError(t, store.Upsert(ctx, updated))
		// upsert is idempotent
		require.NoError(t, store.Upsert(ctx, updated))

		actual, err = store.Get(ctx, snapshot.EntityID)
		require.NoError(t, err)
		assert.Equal(t, lifecycle.UnderReview, actual.State)
		assert.EqualValues(t, 1, actual.Revision)
		assert.Equal(t, "alice", actual.Review.StartedBy)
		require.NotNil(t, actual.Review.StartedAt)
		assert.True(t, at.Equal(*actual.Review.StartedAt))
	})

	t.Run("list with filter", func(t *testing.T) {
		for i := range 3 {
			snapshot := NewSnapshot(t, fmt.Sprintf("doc-list-%d", i), "quality", "docx")
			if i == 2 {
				snapshot.State = lifecycle.Approved
			}
			require.NoError(t, store.Upsert(ctx, snapshot))
		}

		all, err := store.List(ctx, persistence.Filter{})
		require.NoError(t, err)
		assert.Len(t, all, 4)

		quality, err := store.List(ctx, persistence.Filter{Category: "quality"})
		require.NoError(t, err)
		require.Len(t, quality, 3)
		assert.Equal(t, "doc-list-0", quality[0].EntityID)
		assert.Equal(t, "doc-list-2", quality[2].EntityID)

		approved, err := store.List(ctx, persistence.Filter{Category: "quality", State: lifecycle.Approved})
		require.NoError(t, err)
		require.Len(t, approved, 1)
		assert.Equal(t, "doc-list-2", approved[0].EntityID)

		pdf, err := store.List(ctx, persistence.Filter{Format: "pdf"})
		require.NoError(t, err)
		require.Len(t, pdf, 1)
		assert.Equal(t, "doc-upsert", pdf[0].EntityID)
	})

	t.Run("summary", func(t *testing.T) {
		summary, err := persistence.Summarize(ctx, store, persistence.Filter{})
		require.NoError(t, err)
		assert.Equal(t, 4, summary.Total)
		assert.Equal(t, 2, summary.ByState[lifecycle.Registered])
		assert.Equal(t, 1, summary.ByState[lifecycle.UnderReview])
		assert.Equal(t, 1, summary.ByState[lifecycle.Approved])
		assert.Equal(t, 0, summary.ByState[lifecycle.Superseded])
		assert.Equal(t, 3, summary.ByCategory["quality"])
	})

	t.Run("list orders by id bytes", func(t *testing.T) {
		for _, id := range []string{"doc-a", "doc-B", "doc-_", "doc-1"} {
			require.NoError(t, store.Upsert(ctx, NewSnapshot(t, id, "ordering", "txt")))
		}

		snapshots, err := store.List(ctx, persistence.Filter{Category: "ordering"})
		require.NoError(t, err)
		ids := make([]string, 0, len(snapshots))
		for _, snapshot := range snapshots {
			ids = append(ids, snapshot.EntityID)
		}
		assert.Equal(t, []string{"doc-1", "doc-B", "doc-_", "doc-a"}, ids)
	})
}
