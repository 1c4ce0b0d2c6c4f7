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

package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/flowchartsman/retry"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	gerrors "github.com/tochemey/lifecycle/errors"
	"github.com/tochemey/lifecycle/log"
	"github.com/tochemey/lifecycle/transport"
)

// Transport carries envelopes over NATS core pub/sub.
// Each envelope is published as JSON on the subject <prefix>.<kind>.
type Transport struct {
	config *Config
	mu     sync.Mutex

	connection    *nats.Conn
	subscriptions map[string]*subscription

	ctx    context.Context
	cancel context.CancelFunc
	closed *atomic.Bool
	logger log.Logger
}

var _ transport.Transport = (*Transport)(nil)

// Connect dials the NATS server, retrying with backoff
func Connect(config *Config, opts ...Option) (*Transport, error) {
	config.Sanitize()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &Transport{
		config:        config,
		subscriptions: make(map[string]*subscription),
		ctx:           ctx,
		cancel:        cancel,
		closed:        atomic.NewBool(false),
		logger:        log.DefaultLogger,
	}

	for _, opt := range opts {
		opt.Apply(t)
	}

	natsOpts := nats.GetDefaultOptions()
	natsOpts.Url = config.Server
	natsOpts.Name = config.Name
	natsOpts.Timeout = config.ConnectTimeout
	natsOpts.ReconnectWait = 2 * time.Second
	natsOpts.MaxReconnect = -1

	var connection *nats.Conn
	// retry with an initial delay of 100 ms up to the reconnect wait
	retrier := retry.NewRetrier(config.MaxRetries, 100*time.Millisecond, natsOpts.ReconnectWait)
	if err := retrier.Run(func() error {
		var err error
		connection, err = natsOpts.Connect()
		return err
	}); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to connect to nats server %s: %w", config.Server, err)
	}

	t.connection = connection
	t.logger.Infof("connected to nats server %s", connection.ConnectedUrl())
	return t, nil
}

// Publish sends the envelope on the subject of its kind
func (t *Transport) Publish(ctx context.Context, envelope *transport.Envelope) error {
	if t.closed.Load() {
		return gerrors.ErrTransportClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to encode envelope %s: %w", envelope.ID, err)
	}
	return t.connection.Publish(t.subject(envelope.Kind), data)
}

// Subscribe listens on the subjects of the filter kinds, or every kind when none is given.
// Recipient filtering happens after decoding.
func (t *Transport) Subscribe(filter transport.Filter, handler transport.Handler) (transport.Subscription, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed.Load() {
		return nil, gerrors.ErrTransportClosed
	}

	subjects := []string{t.config.SubjectPrefix + ".>"}
	if len(filter.Kinds) > 0 {
		subjects = subjects[:0]
		for _, kind := range filter.Kinds {
			subjects = append(subjects, t.subject(kind))
		}
	}

	sub := &subscription{id: uuid.NewString(), transport: t}
	callback := func(msg *nats.Msg) {
		envelope := new(transport.Envelope)
		if err := json.Unmarshal(msg.Data, envelope); err != nil {
			t.logger.Debugf("dropping undecodable message on %s: %v", msg.Subject, err)
			return
		}
		if filter.Matches(envelope) {
			handler(t.ctx, envelope)
		}
	}

	for _, subject := range subjects {
		natsSub, err := t.connection.Subscribe(subject, callback)
		if err != nil {
			_ = sub.unsubscribe()
			return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
		sub.subscriptions = append(sub.subscriptions, natsSub)
	}

	// make sure the server registered the interest before returning
	if err := t.connection.Flush(); err != nil {
		_ = sub.unsubscribe()
		return nil, err
	}

	t.subscriptions[sub.id] = sub
	return sub, nil
}

// Close drains the subscriptions and closes the connection
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed.Swap(true) {
		return nil
	}

	var err error
	for id, sub := range t.subscriptions {
		err = multierr.Append(err, sub.unsubscribe())
		delete(t.subscriptions, id)
	}

	err = multierr.Append(err, t.connection.Flush())
	t.connection.Close()
	t.cancel()
	return err
}

func (t *Transport) subject(kind int) string {
	return t.config.SubjectPrefix + "." + strconv.Itoa(kind)
}

func (t *Transport) remove(id string) {
	t.mu.Lock()
	delete(t.subscriptions, id)
	t.mu.Unlock()
}

type subscription struct {
	id            string
	subscriptions []*nats.Subscription
	transport     *Transport
}

var _ transport.Subscription = (*subscription)(nil)

func (s *subscription) ID() string {
	return s.id
}

func (s *subscription) Unsubscribe() error {
	s.transport.remove(s.id)
	return s.unsubscribe()
}

func (s *subscription) unsubscribe() error {
	var err error
	for _, sub := range s.subscriptions {
		if sub != nil && sub.IsValid() {
			err = multierr.Append(err, sub.Unsubscribe())
		}
	}
	return err
}
