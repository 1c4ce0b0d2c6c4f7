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

package actor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/atomic"
	"go.uber.org/goleak"

	"github.com/tochemey/lifecycle/lifecycle"
	"github.com/tochemey/lifecycle/log"
	"github.com/tochemey/lifecycle/persistence"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var errStoreDown = errors.New("store is down")

// testStore wraps a MemoryStore with fault injection and write accounting
type testStore struct {
	*persistence.MemoryStore

	failUpserts *atomic.Bool
	panicUpsert *atomic.Bool
	upsertDelay *atomic.Duration
	getDelay    *atomic.Duration
	gets        *atomic.Int64

	inflight    *atomic.Int32
	maxInflight *atomic.Int32

	mu      sync.Mutex
	upserts []*lifecycle.Snapshot
}

func newTestStore() *testStore {
	return &testStore{
		MemoryStore: persistence.NewMemoryStore(),
		failUpserts: atomic.NewBool(false),
		panicUpsert: atomic.NewBool(false),
		upsertDelay: atomic.NewDuration(0),
		getDelay:    atomic.NewDuration(0),
		gets:        atomic.NewInt64(0),
		inflight:    atomic.NewInt32(0),
		maxInflight: atomic.NewInt32(0),
	}
}

func (s *testStore) Upsert(ctx context.Context, snapshot *lifecycle.Snapshot) error {
	current := s.inflight.Inc()
	defer s.inflight.Dec()
	for {
		seen := s.maxInflight.Load()
		if current <= seen || s.maxInflight.CompareAndSwap(seen, current) {
			break
		}
	}

	if s.panicUpsert.Load() {
		panic(errStoreDown)
	}

	if delay := s.upsertDelay.Load(); delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if s.failUpserts.Load() {
		return errStoreDown
	}

	if err := s.MemoryStore.Upsert(ctx, snapshot); err != nil {
		return err
	}

	s.mu.Lock()
	s.upserts = append(s.upserts, snapshot.Clone())
	s.mu.Unlock()
	return nil
}

func (s *testStore) Get(ctx context.Context, entityID string) (*lifecycle.Snapshot, error) {
	s.gets.Inc()
	if delay := s.getDelay.Load(); delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.MemoryStore.Get(ctx, entityID)
}

func (s *testStore) written() []*lifecycle.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*lifecycle.Snapshot, len(s.upserts))
	copy(out, s.upserts)
	return out
}

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestRegistry(t *testing.T, store persistence.SnapshotStore, opts ...Option) *Registry {
	t.Helper()
	opts = append([]Option{
		WithLogger(log.DiscardLogger),
		WithClock(func() time.Time { return testNow }),
		WithMeterProvider(noop.NewMeterProvider()),
	}, opts...)

	registry, err := NewRegistry(store, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, registry.Stop(ctx))
	})
	return registry
}

func fiscalInput(legal ...string) lifecycle.CreateInput {
	return lifecycle.CreateInput{
		DocumentType:      "policy",
		Code:              "POL-001",
		Name:              "Invoicing policy",
		Category:          lifecycle.FiscalCategory,
		Format:            "pdf",
		LegalRequirements: legal,
	}
}

func command(id string, kind lifecycle.CommandKind, payload lifecycle.Payload) lifecycle.Command {
	return lifecycle.Command{EntityID: id, Kind: kind, Actor: "alice", Payload: payload}
}

func mustCreate(t *testing.T, registry *Registry, id string, input lifecycle.CreateInput) *Outcome {
	t.Helper()
	outcome, err := registry.Create(t.Context(), id, input)
	require.NoError(t, err)
	require.Truef(t, outcome.Accepted, "creation rejected: %v", outcome.Rejection)
	return outcome
}

func mustApply(t *testing.T, registry *Registry, cmd lifecycle.Command) *Outcome {
	t.Helper()
	outcome, err := registry.Apply(t.Context(), cmd)
	require.NoError(t, err)
	require.NotNil(t, outcome)
	return outcome
}

// driveToEffective creates a fiscal entity and moves it to effective
func driveToEffective(t *testing.T, registry *Registry, id string, from time.Time) {
	t.Helper()
	mustCreate(t, registry, id, fiscalInput("R1"))
	for _, cmd := range []lifecycle.Command{
		command(id, lifecycle.BeginReview, lifecycle.Payload{}),
		command(id, lifecycle.Approve, lifecycle.Payload{Comments: "ok"}),
		command(id, lifecycle.Activate, lifecycle.Payload{EffectiveFrom: &from}),
	} {
		outcome := mustApply(t, registry, cmd)
		require.Truef(t, outcome.Accepted, "%s rejected: %v", cmd.Kind, outcome.Rejection)
	}
}
