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
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"golang.org/x/sync/singleflight"

	gerrors "github.com/tochemey/lifecycle/errors"
	"github.com/tochemey/lifecycle/future"
	"github.com/tochemey/lifecycle/internal/shardmap"
	"github.com/tochemey/lifecycle/internal/validation"
	"github.com/tochemey/lifecycle/internal/xsync"
	"github.com/tochemey/lifecycle/lifecycle"
	"github.com/tochemey/lifecycle/log"
	"github.com/tochemey/lifecycle/persistence"
)

// Registry maps entity ids to their live actor.
//
// At most one actor exists per id for the registry lifetime. Actors are
// materialized on first reference from the snapshot store and are never evicted.
type Registry struct {
	store persistence.SnapshotStore

	actors      *shardmap.Map[*entityActor]
	activations singleflight.Group
	creations   *xsync.KeyedMutex[string]

	definition         *lifecycle.Definition
	logger             log.Logger
	clock              func() time.Time
	idGenerator        func() string
	inboxCapacity      int
	persistenceTimeout time.Duration
	requestTimeout     time.Duration
	meterProvider      otelmetric.MeterProvider
	metric             *registryMetric

	// held shared by Create and Send until their actor is reachable or enqueued
	stopMu  sync.RWMutex
	stopped *atomic.Bool
}

// NewRegistry creates a Registry on top of the given snapshot store
func NewRegistry(store persistence.SnapshotStore, opts ...Option) (*Registry, error) {
	if store == nil {
		return nil, gerrors.ErrStoreRequired
	}

	r := &Registry{
		store:              store,
		actors:             shardmap.New[*entityActor](),
		creations:          xsync.NewKeyedMutex[string](),
		definition:         lifecycle.DefaultDefinition(),
		logger:             log.DefaultLogger,
		clock:              time.Now,
		idGenerator:        uuid.NewString,
		inboxCapacity:      DefaultInboxCapacity,
		persistenceTimeout: DefaultPersistenceTimeout,
		requestTimeout:     DefaultRequestTimeout,
		stopped:            atomic.NewBool(false),
	}

	for _, opt := range opts {
		opt.Apply(r)
	}

	if err := validation.New(validation.AllErrors()).
		AddAssertion(r.inboxCapacity > 0, "inbox capacity must be greater than zero").
		AddAssertion(r.persistenceTimeout > 0, "persistence timeout must be greater than zero").
		AddAssertion(r.requestTimeout > 0, "request timeout must be greater than zero").
		AddAssertion(r.definition != nil, "lifecycle definition is required").
		AddAssertion(r.clock != nil, "clock is required").
		AddAssertion(r.idGenerator != nil, "id generator is required").
		AddAssertion(r.logger != nil, "logger is required").
		Validate(); err != nil {
		return nil, err
	}

	if r.meterProvider == nil {
		r.meterProvider = otel.GetMeterProvider()
	}

	instruments, err := newRegistryMetric(r.meterProvider, r.Len)
	if err != nil {
		return nil, err
	}
	r.metric = instruments
	return r, nil
}

// Create registers a new entity from the creation input.
//
// The snapshot is written to the store before the actor becomes reachable.
// An empty id is replaced by a generated one. Creating an id already in use,
// live or persisted, yields a rejection with ReasonEntityExists.
func (r *Registry) Create(ctx context.Context, id string, input lifecycle.CreateInput) (*Outcome, error) {
	r.stopMu.RLock()
	defer r.stopMu.RUnlock()

	if r.stopped.Load() {
		return nil, gerrors.ErrRegistryStopped
	}

	start := time.Now()
	outcome := r.create(ctx, id, input)
	r.metric.record(ctx, outcome, time.Since(start))
	return outcome, nil
}

func (r *Registry) create(ctx context.Context, id string, input lifecycle.CreateInput) *Outcome {
	if id == "" {
		id = r.idGenerator()
	}

	unlock := r.creations.Lock(id)
	defer unlock()

	if actor, ok := r.actors.Load(id); ok {
		return rejected(id, 0, actor.Snapshot(),
			lifecycle.NewRejection(lifecycle.ReasonEntityExists, "entity %q already exists", id))
	}

	snapshot, err := lifecycle.NewSnapshot(id, input, r.clock())
	if err != nil {
		return rejected(id, 0, nil, lifecycle.NewRejection(lifecycle.ReasonMalformedInput, "%v", err))
	}

	persistCtx, cancel := context.WithTimeout(ctx, r.persistenceTimeout)
	defer cancel()

	switch existing, err := r.store.Get(persistCtx, id); {
	case err == nil:
		return rejected(id, 0, existing,
			lifecycle.NewRejection(lifecycle.ReasonEntityExists, "entity %q already exists", id))
	case !errors.Is(err, persistence.ErrKeyNotFound):
		r.logger.Warnf("failed to check entity %s before creation: %v", id, err)
		return rejected(id, 0, nil, lifecycle.NewRejection(lifecycle.ReasonPersistenceFailure, "%v", err))
	}

	if err := r.store.Upsert(persistCtx, snapshot); err != nil {
		r.logger.Warnf("failed to persist entity %s: %v", id, err)
		return rejected(id, 0, nil, lifecycle.NewRejection(lifecycle.ReasonPersistenceFailure, "%v", err))
	}

	// a concurrent resolution may already have materialized the persisted snapshot
	actor := newEntityActor(snapshot, r)
	if current, loaded := r.actors.LoadOrStore(id, actor); loaded {
		actor.inbox.Dispose()
		actor = current
	}

	r.logger.Infof("entity %s created in state %s", id, snapshot.State)
	return accepted(0, actor.Snapshot())
}

// Apply submits the command and waits for its outcome.
// The wait is bounded by the request timeout, after which ErrRequestTimeout is returned.
func (r *Registry) Apply(ctx context.Context, command lifecycle.Command) (*Outcome, error) {
	requestCtx, cancel := context.WithTimeout(ctx, r.requestTimeout)
	defer cancel()

	fut, err := r.Send(requestCtx, command)
	if err != nil {
		return nil, err
	}

	outcome, err := fut.Await(requestCtx)
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return nil, gerrors.ErrRequestTimeout
		}
		return nil, err
	}
	return outcome, nil
}

// Send submits the command to the entity actor and returns the future of its outcome.
//
// Commands sent for one entity are applied in the order Send enqueued them.
// Send blocks while the actor inbox is full. The command is skipped, and its
// future failed with the context error, when ctx is done before it is applied.
func (r *Registry) Send(ctx context.Context, command lifecycle.Command) (future.Future[*Outcome], error) {
	r.stopMu.RLock()
	defer r.stopMu.RUnlock()

	if r.stopped.Load() {
		return nil, gerrors.ErrRegistryStopped
	}

	if err := validation.NewIDValidator(command.EntityID).Validate(); err != nil {
		return resolved(rejected(command.EntityID, command.Kind, nil,
			lifecycle.NewRejection(lifecycle.ReasonMalformedInput, "%v", err))), nil
	}

	actor, rejection := r.resolve(ctx, command.EntityID)
	if rejection != nil {
		outcome := rejected(command.EntityID, command.Kind, nil, rejection)
		r.metric.record(ctx, outcome, 0)
		return resolved(outcome), nil
	}

	req := newRequest(ctx, command, r.clock())
	if err := actor.enqueue(req); err != nil {
		return nil, gerrors.ErrRegistryStopped
	}
	return req.promise.Future(), nil
}

// resolve returns the live actor of the entity, loading its snapshot from the
// store on first reference. Concurrent resolutions of one id share a single load
// which is bounded by the persistence timeout only, never by the first caller.
func (r *Registry) resolve(ctx context.Context, id string) (*entityActor, *lifecycle.Rejection) {
	if actor, ok := r.actors.Load(id); ok {
		return actor, nil
	}

	value, err, _ := r.activations.Do(id, func() (any, error) {
		if actor, ok := r.actors.Load(id); ok {
			return actor, nil
		}

		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.persistenceTimeout)
		defer cancel()

		snapshot, err := r.store.Get(loadCtx, id)
		if err != nil {
			return nil, err
		}

		actor, loaded := r.actors.LoadOrStore(id, newEntityActor(snapshot, r))
		if !loaded {
			r.logger.Debugf("entity %s resumed in state %s at revision %d", id, snapshot.State, snapshot.Revision)
		}
		return actor, nil
	})

	if err != nil {
		if errors.Is(err, persistence.ErrKeyNotFound) {
			return nil, lifecycle.NewRejection(lifecycle.ReasonUnknownEntity, "entity %q not found", id)
		}
		r.logger.Warnf("failed to load entity %s: %v", id, err)
		return nil, lifecycle.NewRejection(lifecycle.ReasonPersistenceFailure, "%v", err)
	}
	return value.(*entityActor), nil
}

// Get returns the current snapshot of the entity.
// It returns persistence.ErrKeyNotFound when the entity does not exist.
func (r *Registry) Get(ctx context.Context, id string) (*lifecycle.Snapshot, error) {
	if actor, ok := r.actors.Load(id); ok {
		return actor.Snapshot(), nil
	}
	return r.store.Get(ctx, id)
}

// List returns the persisted snapshots matching the filter
func (r *Registry) List(ctx context.Context, filter persistence.Filter) ([]*lifecycle.Snapshot, error) {
	return r.store.List(ctx, filter)
}

// Summary counts the persisted snapshots matching the filter by state and category
func (r *Registry) Summary(ctx context.Context, filter persistence.Filter) (*persistence.Summary, error) {
	return persistence.Summarize(ctx, r.store, filter)
}

// Definition returns the lifecycle definition applied by the actors
func (r *Registry) Definition() *lifecycle.Definition {
	return r.definition
}

// Len returns the number of live actors
func (r *Registry) Len() int {
	return r.actors.Len()
}

// Stop refuses new commands and drains every actor inbox.
// The snapshot store is left open.
func (r *Registry) Stop(ctx context.Context) error {
	r.stopMu.Lock()
	swapped := r.stopped.Swap(true)
	r.stopMu.Unlock()
	if swapped {
		return nil
	}

	var err error
	for _, actor := range r.actors.Values() {
		err = multierr.Append(err, actor.stop(ctx))
	}
	if err != nil {
		return fmt.Errorf("failed to drain entity actors: %w", err)
	}
	r.logger.Infof("registry stopped with %d entity actors", r.actors.Len())
	return nil
}
