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

package transport

import (
	"context"
)

// Handler processes one delivered envelope.
// Handlers can be called concurrently and must not retain the envelope after returning.
type Handler func(ctx context.Context, envelope *Envelope)

// Subscription is an active interest registered against a Transport
type Subscription interface {
	// ID returns the subscription identifier
	ID() string
	// Unsubscribe stops further deliveries
	Unsubscribe() error
}

// Transport is a fire-and-forget pub/sub delivery mechanism.
// There is no ordering guarantee and an envelope can be delivered more than once.
type Transport interface {
	// Publish sends the envelope to every matching subscription
	Publish(ctx context.Context, envelope *Envelope) error
	// Subscribe registers the handler for envelopes matching the filter
	Subscribe(filter Filter, handler Handler) (Subscription, error)
	// Close releases the transport. Subsequent calls fail with ErrTransportClosed.
	Close() error
}
