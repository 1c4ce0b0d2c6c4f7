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
	"runtime"
	"sync"
	"time"

	"go.uber.org/atomic"

	gerrors "github.com/tochemey/lifecycle/errors"
	"github.com/tochemey/lifecycle/lifecycle"
	"github.com/tochemey/lifecycle/log"
	"github.com/tochemey/lifecycle/persistence"
)

const (
	idle int32 = iota
	busy
)

// entityActor is the single writer of one entity snapshot.
//
// Commands are queued on a bounded inbox and drained by at most one goroutine,
// so two commands of the same entity are never applied concurrently.
type entityActor struct {
	id string

	// snapshot is written by the drain goroutine only
	mu       sync.RWMutex
	snapshot *lifecycle.Snapshot

	inbox      *inbox
	processing *atomic.Int32

	// guards stopped against in-flight enqueues
	stateMu sync.RWMutex
	stopped bool
	pending sync.WaitGroup
	aborted *atomic.Bool

	store              persistence.SnapshotStore
	definition         *lifecycle.Definition
	clock              func() time.Time
	persistenceTimeout time.Duration
	logger             log.Logger
	metric             *registryMetric
}

func newEntityActor(snapshot *lifecycle.Snapshot, r *Registry) *entityActor {
	return &entityActor{
		id:                 snapshot.EntityID,
		snapshot:           snapshot,
		inbox:              newInbox(r.inboxCapacity),
		processing:         atomic.NewInt32(idle),
		aborted:            atomic.NewBool(false),
		store:              r.store,
		definition:         r.definition,
		clock:              r.clock,
		persistenceTimeout: r.persistenceTimeout,
		logger:             r.logger.With("entity_id", snapshot.EntityID),
		metric:             r.metric,
	}
}

// Snapshot returns a copy of the committed snapshot
func (a *entityActor) Snapshot() *lifecycle.Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshot.Clone()
}

// enqueue appends the request to the inbox and makes sure a drain loop runs.
// The call blocks while the inbox is full.
func (a *entityActor) enqueue(req *request) error {
	a.stateMu.RLock()
	if a.stopped {
		a.stateMu.RUnlock()
		return gerrors.ErrActorStopped
	}
	a.pending.Add(1)
	a.stateMu.RUnlock()

	if err := a.inbox.Enqueue(req); err != nil {
		a.pending.Done()
		return gerrors.ErrActorStopped
	}

	a.process()
	return nil
}

// process starts a drain loop when transitioning from idle to busy.
// If a loop is already running it returns immediately.
func (a *entityActor) process() {
	if !a.processing.CompareAndSwap(idle, busy) {
		return
	}

	go func() {
		for {
			for req := a.inbox.Dequeue(); req != nil; req = a.inbox.Dequeue() {
				a.handle(req)
			}

			a.processing.Store(idle)

			// requests enqueued while going idle restart the loop
			if !a.inbox.IsEmpty() && a.processing.CompareAndSwap(idle, busy) {
				continue
			}
			return
		}
	}()
}

func (a *entityActor) handle(req *request) {
	defer a.pending.Done()
	defer a.recovery(req)

	if a.aborted.Load() {
		req.promise.Failure(gerrors.ErrActorStopped)
		return
	}

	// the submitter gave up before the command reached the head of the inbox
	if err := req.ctx.Err(); err != nil {
		req.promise.Failure(err)
		return
	}

	start := time.Now()
	outcome := a.apply(req.ctx, req.command)
	a.metric.record(req.ctx, outcome, time.Since(start))
	req.promise.Success(outcome)
}

// apply decides the command against the committed snapshot, persists the
// resulting snapshot and only then commits it. On store failure or timeout the
// committed snapshot is left as it was.
func (a *entityActor) apply(ctx context.Context, command lifecycle.Command) *Outcome {
	a.mu.RLock()
	current := a.snapshot
	a.mu.RUnlock()

	switch decision := a.definition.Decide(current, command, a.clock()).(type) {
	case *lifecycle.Rejection:
		a.logger.Debugf("command %s rejected: %s", command.Kind, decision)
		return rejected(a.id, command.Kind, current.Clone(), decision)

	case *lifecycle.Transition:
		next := decision.Apply(current)

		persistCtx, cancel := context.WithTimeout(ctx, a.persistenceTimeout)
		err := a.store.Upsert(persistCtx, next)
		cancel()
		if err != nil {
			a.logger.Warnf("failed to persist %s (%s -> %s): %v", command.Kind, decision.From, decision.To, err)
			return rejected(a.id, command.Kind, current.Clone(),
				lifecycle.NewRejection(lifecycle.ReasonPersistenceFailure, "%v", err))
		}

		a.mu.Lock()
		a.snapshot = next
		a.mu.Unlock()

		a.logger.Debugf("entity moved %s -> %s by %s", decision.From, decision.To, command.Kind)
		return accepted(command.Kind, next.Clone())

	default:
		return rejected(a.id, command.Kind, current.Clone(),
			lifecycle.NewRejection(lifecycle.ReasonUnknownCommand, "unsupported decision %T", decision))
	}
}

// recovery turns a panic raised while handling a request into a failed future
func (a *entityActor) recovery(req *request) {
	if r := recover(); r != nil {
		var failure error
		switch err, ok := r.(error); {
		case ok:
			var pe *gerrors.PanicError
			if errors.As(err, &pe) {
				failure = pe
				break
			}
			pc, fn, line, _ := runtime.Caller(2)
			failure = gerrors.NewPanicError(
				fmt.Errorf("%w at %s[%s:%d]", err, runtime.FuncForPC(pc).Name(), fn, line),
			)
		default:
			pc, fn, line, _ := runtime.Caller(2)
			failure = gerrors.NewPanicError(
				fmt.Errorf("%#v at %s[%s:%d]", r, runtime.FuncForPC(pc).Name(), fn, line),
			)
		}

		a.logger.Errorf("panic while handling %s: %v", req.command.Kind, failure)
		req.promise.Failure(failure)
	}
}

// stop refuses new commands, waits for the queued ones to be handled and
// releases the inbox. When ctx ends first the queued commands are failed
// with ErrActorStopped and the context error is returned.
func (a *entityActor) stop(ctx context.Context) error {
	a.stateMu.Lock()
	if a.stopped {
		a.stateMu.Unlock()
		return nil
	}
	a.stopped = true
	a.stateMu.Unlock()

	drained := make(chan struct{})
	go func() {
		a.pending.Wait()
		a.inbox.Dispose()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		a.aborted.Store(true)
		return fmt.Errorf("entity %s: %w", a.id, ctx.Err())
	}
}
