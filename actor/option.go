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
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/tochemey/lifecycle/lifecycle"
	"github.com/tochemey/lifecycle/log"
)

const (
	// DefaultInboxCapacity is the number of commands an entity actor queues before producers block
	DefaultInboxCapacity = 256
	// DefaultPersistenceTimeout bounds a single snapshot store write
	DefaultPersistenceTimeout = 5 * time.Second
	// DefaultRequestTimeout bounds a synchronous Apply
	DefaultRequestTimeout = 30 * time.Second
)

// Option is the interface that applies a configuration option.
type Option interface {
	// Apply sets the Option value of a config.
	Apply(r *Registry)
}

// enforce compilation error
var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(*Registry)

func (f OptionFunc) Apply(r *Registry) {
	f(r)
}

// WithLogger sets the registry logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(r *Registry) {
		r.logger = logger
	})
}

// WithInboxCapacity sets the bounded inbox size of every entity actor
func WithInboxCapacity(capacity int) Option {
	return OptionFunc(func(r *Registry) {
		r.inboxCapacity = capacity
	})
}

// WithPersistenceTimeout bounds every snapshot store write.
// A write exceeding it is treated as a persistence failure.
func WithPersistenceTimeout(timeout time.Duration) Option {
	return OptionFunc(func(r *Registry) {
		r.persistenceTimeout = timeout
	})
}

// WithRequestTimeout sets how long Apply waits for an outcome
func WithRequestTimeout(timeout time.Duration) Option {
	return OptionFunc(func(r *Registry) {
		r.requestTimeout = timeout
	})
}

// WithDefinition sets the lifecycle definition
func WithDefinition(definition *lifecycle.Definition) Option {
	return OptionFunc(func(r *Registry) {
		r.definition = definition
	})
}

// WithClock sets the time source used for audit timestamps
func WithClock(clock func() time.Time) Option {
	return OptionFunc(func(r *Registry) {
		r.clock = clock
	})
}

// WithMeterProvider sets the OpenTelemetry meter provider
func WithMeterProvider(provider metric.MeterProvider) Option {
	return OptionFunc(func(r *Registry) {
		r.meterProvider = provider
	})
}

// WithIDGenerator sets the generator of entity ids for creations without one
func WithIDGenerator(generator func() string) Option {
	return OptionFunc(func(r *Registry) {
		r.idGenerator = generator
	})
}
