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
	"time"

	"github.com/tochemey/lifecycle/log"
)

const (
	// DefaultConcurrency is the number of requests handled at the same time
	DefaultConcurrency = 64
	// DefaultNamespace is the context_root tag of outbound envelopes
	DefaultNamespace = "lifecycle"
)

// Option is the interface that applies a configuration option.
type Option interface {
	// Apply sets the Option value of a config.
	Apply(adapter *Adapter)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(adapter *Adapter)

// Apply applies the options to Adapter
func (f OptionFunc) Apply(adapter *Adapter) {
	f(adapter)
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(adapter *Adapter) {
		adapter.logger = logger
	})
}

// WithConcurrency bounds the number of requests handled at the same time
func WithConcurrency(concurrency int) Option {
	return OptionFunc(func(adapter *Adapter) {
		adapter.concurrency = concurrency
	})
}

// WithNamespace sets the context_root tag carried by outbound envelopes
func WithNamespace(namespace string) Option {
	return OptionFunc(func(adapter *Adapter) {
		adapter.namespace = namespace
	})
}

// WithAnnouncements enables or disables state-change announcements
func WithAnnouncements(enabled bool) Option {
	return OptionFunc(func(adapter *Adapter) {
		adapter.announce = enabled
	})
}

// WithClock sets the time source used to stamp outbound envelopes
func WithClock(clock func() time.Time) Option {
	return OptionFunc(func(adapter *Adapter) {
		adapter.clock = clock
	})
}
