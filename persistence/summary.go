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

	"github.com/tochemey/lifecycle/lifecycle"
)

// Summary aggregates the snapshots of a store
type Summary struct {
	Total      int                     `json:"total"`
	ByState    map[lifecycle.State]int `json:"by_state"`
	ByCategory map[string]int          `json:"by_category"`
}

// Summarize counts the snapshots matching filter by state and by category.
// Every defined state is present in ByState, with zero when no snapshot is in it.
func Summarize(ctx context.Context, store SnapshotStore, filter Filter) (*Summary, error) {
	snapshots, err := store.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		ByState:    make(map[lifecycle.State]int),
		ByCategory: make(map[string]int),
	}
	for _, state := range lifecycle.States() {
		summary.ByState[state] = 0
	}

	for _, snapshot := range snapshots {
		summary.Total++
		summary.ByState[snapshot.State]++
		summary.ByCategory[snapshot.Classification.Category]++
	}
	return summary, nil
}
