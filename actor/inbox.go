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
	gods "github.com/Workiva/go-datastructures/queue"
)

// inbox is the bounded FIFO queue of an entity actor.
// Producers block while it is full; there is a single consumer.
type inbox struct {
	underlying *gods.RingBuffer
}

func newInbox(capacity int) *inbox {
	return &inbox{underlying: gods.NewRingBuffer(uint64(capacity))}
}

// Enqueue places the request in the inbox, blocking while the inbox is full.
// It returns an error once the inbox has been disposed.
func (x *inbox) Enqueue(req *request) error {
	return x.underlying.Put(req)
}

// Dequeue takes the request at the head of the inbox.
// It returns nil when the inbox is empty.
func (x *inbox) Dequeue() *request {
	if x.underlying.Len() > 0 {
		item, err := x.underlying.Get()
		if err != nil {
			return nil
		}
		if req, ok := item.(*request); ok {
			return req
		}
	}
	return nil
}

// IsEmpty returns true when the inbox is empty
func (x *inbox) IsEmpty() bool {
	return x.underlying.Len() == 0
}

// Len returns the number of queued requests
func (x *inbox) Len() int64 {
	return int64(x.underlying.Len())
}

// Dispose releases producers blocked on a full inbox.
// No request can be enqueued afterwards.
func (x *inbox) Dispose() {
	x.underlying.Dispose()
}
