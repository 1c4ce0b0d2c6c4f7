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

package lifecycle

import "fmt"

// Reason classifies why a command did not take effect
type Reason string

const (
	// ReasonMalformedInput means the command could not be parsed into the required shape
	ReasonMalformedInput Reason = "malformed-input"
	// ReasonUnknownEntity means no snapshot exists for the referenced identifier
	ReasonUnknownEntity Reason = "unknown-entity"
	// ReasonUnknownCommand means the command kind is not part of the lifecycle
	ReasonUnknownCommand Reason = "unknown-command"
	// ReasonInvalidTransition means the command is not valid from the current state
	ReasonInvalidTransition Reason = "invalid-transition"
	// ReasonGuardNotMet means a business precondition of the transition failed
	ReasonGuardNotMet Reason = "guard-not-met"
	// ReasonPersistenceFailure means the store did not confirm the write
	ReasonPersistenceFailure Reason = "persistence-failure"
	// ReasonEntityExists means a creation command referenced an identifier already in use
	ReasonEntityExists Reason = "entity-exists"
)

// Decision is the result of evaluating a command against a snapshot.
// It is either a *Transition or a *Rejection.
type Decision interface {
	decision()
}

// Rejection is a business outcome explaining why a command had no effect
type Rejection struct {
	Reason Reason `json:"kind"`
	// Guard names the failing guard when Reason is ReasonGuardNotMet
	Guard  string `json:"guard,omitempty"`
	Detail string `json:"message,omitempty"`
}

var _ Decision = (*Rejection)(nil)

func (*Rejection) decision() {}

// NewRejection creates a Rejection with a formatted detail
func NewRejection(reason Reason, format string, args ...any) *Rejection {
	return &Rejection{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

func (r *Rejection) String() string {
	if r.Guard != "" {
		return fmt.Sprintf("%s: %s (%s)", r.Reason, r.Guard, r.Detail)
	}
	if r.Detail != "" {
		return fmt.Sprintf("%s: %s", r.Reason, r.Detail)
	}
	return string(r.Reason)
}
