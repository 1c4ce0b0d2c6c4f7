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

package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/tochemey/lifecycle/actor"
	gerrors "github.com/tochemey/lifecycle/errors"
	"github.com/tochemey/lifecycle/internal/validation"
	"github.com/tochemey/lifecycle/lifecycle"
	"github.com/tochemey/lifecycle/log"
	"github.com/tochemey/lifecycle/persistence"
	"github.com/tochemey/lifecycle/transport"
)

// Registry is the part of the actor registry the adapter routes to
type Registry interface {
	Create(ctx context.Context, id string, input lifecycle.CreateInput) (*actor.Outcome, error)
	Apply(ctx context.Context, command lifecycle.Command) (*actor.Outcome, error)
	Get(ctx context.Context, id string) (*lifecycle.Snapshot, error)
	List(ctx context.Context, filter persistence.Filter) ([]*lifecycle.Snapshot, error)
	Summary(ctx context.Context, filter persistence.Filter) (*persistence.Summary, error)
	Definition() *lifecycle.Definition
}

var _ Registry = (*actor.Registry)(nil)

// Adapter translates request envelopes into registry calls and publishes
// exactly one correlated response per request it can address.
type Adapter struct {
	registry  Registry
	transport transport.Transport
	signer    *Signer

	logger      log.Logger
	concurrency int
	namespace   string
	announce    bool
	clock       func() time.Time

	mu           sync.RWMutex
	started      bool
	subscription transport.Subscription
	group        *errgroup.Group
	ctx          context.Context
	cancel       context.CancelFunc
}

// NewAdapter creates a protocol adapter.
// The signer identity is the address requests must carry in their p tag.
func NewAdapter(registry Registry, tr transport.Transport, signer *Signer, opts ...Option) (*Adapter, error) {
	if tr == nil {
		return nil, gerrors.ErrTransportRequired
	}

	adapter := &Adapter{
		registry:    registry,
		transport:   tr,
		signer:      signer,
		logger:      log.DefaultLogger,
		concurrency: DefaultConcurrency,
		namespace:   DefaultNamespace,
		announce:    true,
		clock:       time.Now,
	}

	for _, opt := range opts {
		opt.Apply(adapter)
	}

	if err := validation.New(validation.AllErrors()).
		AddAssertion(registry != nil, "registry is required").
		AddAssertion(signer != nil, "signer is required").
		AddAssertion(adapter.concurrency > 0, "concurrency must be greater than zero").
		AddAssertion(adapter.clock != nil, "clock is required").
		AddAssertion(adapter.logger != nil, "logger is required").
		AddValidator(validation.NewEmptyStringValidator("namespace", adapter.namespace)).
		Validate(); err != nil {
		return nil, err
	}
	return adapter, nil
}

// PublicKey returns the identity requests are addressed to
func (a *Adapter) PublicKey() string {
	return a.signer.PublicKey()
}

// Start subscribes to the requests addressed to the adapter
func (a *Adapter) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started {
		return gerrors.ErrAdapterStarted
	}

	group := new(errgroup.Group)
	group.SetLimit(a.concurrency)
	a.group = group
	a.ctx, a.cancel = context.WithCancel(context.WithoutCancel(ctx))

	subscription, err := a.transport.Subscribe(transport.Filter{
		Kinds:      []int{transport.KindRequest},
		Recipients: []string{a.signer.PublicKey()},
	}, a.dispatch)
	if err != nil {
		a.cancel()
		return fmt.Errorf("failed to subscribe to requests: %w", err)
	}

	a.subscription = subscription
	a.started = true
	a.logger.Infof("protocol adapter listening as %s", a.signer.PublicKey())
	return nil
}

// Stop unsubscribes and waits for the in-flight requests.
// When ctx ends first the in-flight requests are canceled.
func (a *Adapter) Stop(ctx context.Context) error {
	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return gerrors.ErrAdapterNotStarted
	}
	a.started = false
	subscription, group, cancel := a.subscription, a.group, a.cancel
	a.mu.Unlock()

	err := subscription.Unsubscribe()

	done := make(chan struct{})
	go func() {
		_ = group.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		cancel()
		<-done
		return multierr.Combine(err, ctx.Err())
	}

	cancel()
	a.logger.Info("protocol adapter stopped")
	return err
}

// dispatch hands the envelope to the worker pool
func (a *Adapter) dispatch(_ context.Context, envelope *transport.Envelope) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.started {
		return
	}

	ctx := a.ctx
	a.group.Go(func() error {
		a.Handle(ctx, envelope)
		return nil
	})
}

// Handle processes one inbound envelope.
// The response is published on the transport, nothing is returned.
func (a *Adapter) Handle(ctx context.Context, envelope *transport.Envelope) {
	if envelope.ID == "" || envelope.PubKey == "" {
		a.logger.Debugf("dropping envelope without reply address (id=%q)", envelope.ID)
		return
	}

	if err := Verify(envelope); err != nil {
		a.respond(ctx, envelope, malformed(err))
		return
	}

	req, err := parseRequest(envelope.Content, envelope.PubKey)
	if err != nil {
		a.respond(ctx, envelope, malformed(err))
		return
	}

	// a redelivered create must address the same entity
	if req.action == ActionCreate && req.entityID == "" {
		req.entityID = envelope.ID
	}

	body := a.route(ctx, req)
	a.respond(ctx, envelope, body)
}

func (a *Adapter) route(ctx context.Context, req *request) *ResponseBody {
	switch req.action {
	case ActionCreate:
		outcome, err := a.registry.Create(ctx, req.entityID, req.input)
		if err != nil {
			return failure(req.entityID, err)
		}
		a.announceOutcome(ctx, "create", outcome)
		return a.fromOutcome(outcome)

	case ActionTransition:
		outcome, err := a.registry.Apply(ctx, req.command)
		if err != nil {
			return failure(req.entityID, err)
		}
		a.announceOutcome(ctx, req.command.Kind.String(), outcome)
		return a.fromOutcome(outcome)

	case ActionGet:
		snapshot, err := a.registry.Get(ctx, req.entityID)
		switch {
		case errors.Is(err, persistence.ErrKeyNotFound):
			return &ResponseBody{
				EntityID: req.entityID,
				Error:    lifecycle.NewRejection(lifecycle.ReasonUnknownEntity, "entity %q not found", req.entityID),
			}
		case err != nil:
			return &ResponseBody{
				EntityID: req.entityID,
				Error:    lifecycle.NewRejection(lifecycle.ReasonPersistenceFailure, "%v", err),
			}
		}
		return &ResponseBody{
			Success:              true,
			EntityID:             snapshot.EntityID,
			ResultingState:       snapshot.State,
			Snapshot:             snapshot,
			AvailableTransitions: a.registry.Definition().Available(snapshot.State),
		}

	case ActionList:
		snapshots, err := a.registry.List(ctx, req.filter)
		if err != nil {
			return &ResponseBody{Error: lifecycle.NewRejection(lifecycle.ReasonPersistenceFailure, "%v", err)}
		}
		return &ResponseBody{Success: true, Snapshots: snapshots}

	case ActionSummary:
		summary, err := a.registry.Summary(ctx, req.filter)
		if err != nil {
			return &ResponseBody{Error: lifecycle.NewRejection(lifecycle.ReasonPersistenceFailure, "%v", err)}
		}
		return &ResponseBody{Success: true, Summary: summary}

	default:
		return malformed(fmt.Errorf("unknown action %q", req.action))
	}
}

func (a *Adapter) fromOutcome(outcome *actor.Outcome) *ResponseBody {
	body := &ResponseBody{
		Success:        outcome.Accepted,
		EntityID:       outcome.EntityID,
		ResultingState: outcome.State(),
		Snapshot:       outcome.Snapshot,
	}
	if !outcome.Accepted {
		body.Error = outcome.Rejection
	}
	if outcome.Snapshot != nil {
		body.AvailableTransitions = a.registry.Definition().Available(outcome.Snapshot.State)
	}
	return body
}

func (a *Adapter) respond(ctx context.Context, request *transport.Envelope, body *ResponseBody) {
	if body.Error != nil {
		a.logger.Debugf("request %s failed: %s", request.ID, body.Error)
	}

	content, err := json.Marshal(body)
	if err != nil {
		a.logger.Errorf("failed to encode response to %s: %v", request.ID, err)
		return
	}

	response, err := a.signer.NewEnvelope(transport.KindResponse, [][]string{
		{transport.TagEvent, request.ID},
		{transport.TagRecipient, request.PubKey},
		{transport.TagContextRoot, a.namespace},
	}, string(content), a.clock())
	if err != nil {
		a.logger.Errorf("failed to sign response to %s: %v", request.ID, err)
		return
	}

	if err := a.transport.Publish(ctx, response); err != nil {
		a.logger.Warnf("failed to publish response to %s: %v", request.ID, err)
	}
}

func (a *Adapter) announceOutcome(ctx context.Context, action string, outcome *actor.Outcome) {
	if !a.announce || !outcome.Accepted {
		return
	}

	snapshot := outcome.Snapshot
	content, err := json.Marshal(&AnnouncementBody{
		EntityID: snapshot.EntityID,
		Action:   action,
		State:    snapshot.State,
		Revision: snapshot.Revision,
	})
	if err != nil {
		a.logger.Errorf("failed to encode announcement for %s: %v", snapshot.EntityID, err)
		return
	}

	announcement, err := a.signer.NewEnvelope(transport.KindAnnouncement, [][]string{
		{transport.TagEntity, snapshot.EntityID},
		{transport.TagState, string(snapshot.State)},
		{transport.TagAction, action},
		{transport.TagContextRoot, a.namespace},
	}, string(content), a.clock())
	if err != nil {
		a.logger.Errorf("failed to sign announcement for %s: %v", snapshot.EntityID, err)
		return
	}

	if err := a.transport.Publish(ctx, announcement); err != nil {
		a.logger.Warnf("failed to publish announcement for %s: %v", snapshot.EntityID, err)
	}
}

func malformed(err error) *ResponseBody {
	return &ResponseBody{Error: lifecycle.NewRejection(lifecycle.ReasonMalformedInput, "%v", err)}
}

func failure(entityID string, err error) *ResponseBody {
	return &ResponseBody{
		EntityID: entityID,
		Error:    lifecycle.NewRejection(ReasonInternal, "%v", err),
	}
}
