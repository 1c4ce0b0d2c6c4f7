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
	"time"

	"github.com/tochemey/lifecycle/future"
	"github.com/tochemey/lifecycle/lifecycle"
)

// request is one command waiting in an entity actor inbox
type request struct {
	ctx        context.Context
	command    lifecycle.Command
	promise    *future.Promise[*Outcome]
	enqueuedAt time.Time
}

func newRequest(ctx context.Context, command lifecycle.Command, at time.Time) *request {
	return &request{
		ctx:        ctx,
		command:    command,
		promise:    future.NewPromise[*Outcome](),
		enqueuedAt: at,
	}
}

// resolved returns a future already completed with the given outcome
func resolved(outcome *Outcome) future.Future[*Outcome] {
	promise := future.NewPromise[*Outcome]()
	promise.Success(outcome)
	return promise.Future()
}
