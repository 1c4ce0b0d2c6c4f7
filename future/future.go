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

package future

import (
	"context"
	"sync"
)

// Future represents a value which may or may not currently be available,
// but will be available at some point in the future, or an error if that value
// could not be made available.
//
// Example usage:
//
//	fut, err := registry.Send(ctx, command)
//	if err != nil {
//	    return err
//	}
//
//	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
//	defer cancel()
//
//	outcome, err := fut.Await(ctx)
type Future[T any] interface {
	// Await blocks until the Future is completed or context is canceled and
	// returns either a result or an error.
	Await(context.Context) (T, error)

	// Done returns a channel that is closed once the Future has been completed.
	Done() <-chan struct{}
}

// Promise is the writable, single-assignment side of a Future.
// Only the first call to Success or Failure has an effect.
type Promise[T any] struct {
	once   sync.Once
	future *future[T]
}

// NewPromise creates a Promise with its uncompleted Future
func NewPromise[T any]() *Promise[T] {
	return &Promise[T]{
		future: &future[T]{done: make(chan struct{})},
	}
}

// Success completes the underlying Future with a value.
func (p *Promise[T]) Success(value T) {
	p.once.Do(func() {
		p.future.value = value
		close(p.future.done)
	})
}

// Failure fails the underlying Future with an error.
func (p *Promise[T]) Failure(err error) {
	p.once.Do(func() {
		p.future.err = err
		close(p.future.done)
	})
}

// Future returns the underlying Future.
func (p *Promise[T]) Future() Future[T] {
	return p.future
}

type future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

var _ Future[int] = (*future[int])(nil)

// Await returns the completed result, or the context error when ctx ends first.
// A Future may be awaited several times and by several goroutines.
func (x *future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-x.done:
		return x.value, x.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (x *future[T]) Done() <-chan struct{} {
	return x.done
}
