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

package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	gerrors "github.com/tochemey/lifecycle/errors"
	"github.com/tochemey/lifecycle/transport"
)

// Bus is an in-process Transport.
// Every published envelope is fanned out to the matching subscriptions, each
// delivery running on its own goroutine so there is no ordering between deliveries.
type Bus struct {
	subsMu      sync.RWMutex
	subscribers map[string]*subscriber

	redeliveries int

	ctx       context.Context
	cancel    context.CancelFunc
	inflight  sync.WaitGroup
	closed    *atomic.Bool
	published *atomic.Int64
}

var _ transport.Transport = (*Bus)(nil)

// NewBus creates an in-process transport
func NewBus(opts ...Option) *Bus {
	ctx, cancel := context.WithCancel(context.Background())
	bus := &Bus{
		subscribers: make(map[string]*subscriber),
		ctx:         ctx,
		cancel:      cancel,
		closed:      atomic.NewBool(false),
		published:   atomic.NewInt64(0),
	}

	for _, opt := range opts {
		opt.Apply(bus)
	}
	return bus
}

// Publish fans the envelope out to the matching subscriptions
func (b *Bus) Publish(ctx context.Context, envelope *transport.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.subsMu.RLock()
	defer b.subsMu.RUnlock()

	if b.closed.Load() {
		return gerrors.ErrTransportClosed
	}

	b.published.Inc()
	for _, sub := range b.subscribers {
		if !sub.active.Load() || !sub.filter.Matches(envelope) {
			continue
		}

		for range b.redeliveries + 1 {
			b.inflight.Add(1)
			go func(sub *subscriber, envelope *transport.Envelope) {
				defer b.inflight.Done()
				sub.deliver(b.ctx, envelope)
			}(sub, envelope.Clone())
		}
	}
	return nil
}

// Subscribe registers a handler for the envelopes matching the filter
func (b *Bus) Subscribe(filter transport.Filter, handler transport.Handler) (transport.Subscription, error) {
	b.subsMu.Lock()
	defer b.subsMu.Unlock()

	if b.closed.Load() {
		return nil, gerrors.ErrTransportClosed
	}

	sub := &subscriber{
		id:      uuid.NewString(),
		filter:  filter,
		handler: handler,
		active:  atomic.NewBool(true),
		bus:     b,
	}
	b.subscribers[sub.id] = sub
	return sub, nil
}

// SubscribersCount returns the number of active subscriptions
func (b *Bus) SubscribersCount() int {
	b.subsMu.RLock()
	defer b.subsMu.RUnlock()
	return len(b.subscribers)
}

// Published returns the number of envelopes accepted by Publish
func (b *Bus) Published() int64 {
	return b.published.Load()
}

// Close refuses new publications, waits for the deliveries already accepted
// by Publish and then shuts every subscription down
func (b *Bus) Close() error {
	b.subsMu.Lock()
	if b.closed.Swap(true) {
		b.subsMu.Unlock()
		return nil
	}
	subscribers := b.subscribers
	b.subscribers = make(map[string]*subscriber)
	b.subsMu.Unlock()

	// no delivery is added once closed is set under the write lock
	b.inflight.Wait()

	for _, sub := range subscribers {
		sub.active.Store(false)
	}
	b.cancel()
	return nil
}

func (b *Bus) remove(id string) {
	b.subsMu.Lock()
	delete(b.subscribers, id)
	b.subsMu.Unlock()
}

type subscriber struct {
	id      string
	filter  transport.Filter
	handler transport.Handler
	active  *atomic.Bool
	bus     *Bus
}

var _ transport.Subscription = (*subscriber)(nil)

func (s *subscriber) ID() string {
	return s.id
}

func (s *subscriber) Unsubscribe() error {
	if s.active.Swap(false) {
		s.bus.remove(s.id)
	}
	return nil
}

func (s *subscriber) deliver(ctx context.Context, envelope *transport.Envelope) {
	// only deliver while active
	if s.active.Load() {
		s.handler(ctx, envelope)
	}
}
