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

package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrRegistryStopped is returned when a command is submitted to a registry that has been stopped.
	ErrRegistryStopped = errors.New("registry is stopped")

	// ErrActorStopped is returned when a command is enqueued on an entity actor that no longer accepts work.
	ErrActorStopped = errors.New("entity actor is stopped")

	// ErrRequestTimeout indicates that a command did not produce an outcome within the request timeout.
	ErrRequestTimeout = errors.New("request timed out")

	// ErrInvalidEntityID is returned when an entity identifier is empty or contains invalid characters.
	ErrInvalidEntityID = errors.New("invalid entity id")

	// ErrInvalidSnapshot is returned when a snapshot read from storage violates the lifecycle invariants.
	ErrInvalidSnapshot = errors.New("invalid snapshot")

	// ErrStoreClosed is returned when a snapshot store is used after it has been closed.
	ErrStoreClosed = errors.New("snapshot store is closed")

	// ErrStoreRequired is returned when a registry is created without a snapshot store.
	ErrStoreRequired = errors.New("snapshot store is required")

	// ErrTransportClosed is returned when a transport is used after it has been closed.
	ErrTransportClosed = errors.New("transport is closed")

	// ErrTransportRequired is returned when the protocol adapter is created without a transport.
	ErrTransportRequired = errors.New("transport is required")

	// ErrInvalidSignature is returned when an envelope's signature does not match its public key and identifier.
	ErrInvalidSignature = errors.New("invalid envelope signature")

	// ErrInvalidEnvelopeID is returned when an envelope's identifier is not the hash of its canonical form.
	ErrInvalidEnvelopeID = errors.New("invalid envelope id")

	// ErrInvalidPublicKey is returned when a public key cannot be decoded.
	ErrInvalidPublicKey = errors.New("invalid public key")

	// ErrAdapterStarted is returned when Start is called on a protocol adapter that is already running.
	ErrAdapterStarted = errors.New("adapter is already started")

	// ErrAdapterNotStarted is returned when Stop is called on a protocol adapter that is not running.
	ErrAdapterNotStarted = errors.New("adapter is not started")

	// ErrUnsupportedStoreDriver is returned when the configured store driver is unknown.
	ErrUnsupportedStoreDriver = errors.New("unsupported store driver")

	// ErrUnsupportedTransportDriver is returned when the configured transport driver is unknown.
	ErrUnsupportedTransportDriver = errors.New("unsupported transport driver")
)

// PanicError defines the panic error
// wrapping the underlying error
type PanicError struct {
	err error
}

// enforce compilation error
var _ error = (*PanicError)(nil)

// NewPanicError creates an instance of PanicError
func NewPanicError(err error) *PanicError {
	return &PanicError{err}
}

// Error implements the standard error interface
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.err)
}

func (e *PanicError) Unwrap() error {
	return e.err
}

// StoreError wraps a failure reported by a snapshot store for a given entity
type StoreError struct {
	op       string
	entityID string
	err      error
}

var _ error = (*StoreError)(nil)

// NewStoreError creates an instance of StoreError
func NewStoreError(op, entityID string, err error) *StoreError {
	return &StoreError{op: op, entityID: entityID, err: err}
}

// Error implements the standard error interface
func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s (%s): %v", e.op, e.entityID, e.err)
}

func (e *StoreError) Unwrap() error {
	return e.err
}

// Op returns the store operation that failed
func (e *StoreError) Op() string {
	return e.op
}
