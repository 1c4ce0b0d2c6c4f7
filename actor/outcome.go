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
	"github.com/tochemey/lifecycle/lifecycle"
)

// Outcome is the result of one command.
//
// An accepted outcome carries the new snapshot. A rejected outcome carries
// the rejection and, when the entity exists, its unchanged snapshot.
type Outcome struct {
	EntityID  string
	Kind      lifecycle.CommandKind
	Accepted  bool
	Snapshot  *lifecycle.Snapshot
	Rejection *lifecycle.Rejection
}

func accepted(kind lifecycle.CommandKind, snapshot *lifecycle.Snapshot) *Outcome {
	return &Outcome{
		EntityID: snapshot.EntityID,
		Kind:     kind,
		Accepted: true,
		Snapshot: snapshot,
	}
}

func rejected(entityID string, kind lifecycle.CommandKind, snapshot *lifecycle.Snapshot, rejection *lifecycle.Rejection) *Outcome {
	return &Outcome{
		EntityID:  entityID,
		Kind:      kind,
		Snapshot:  snapshot,
		Rejection: rejection,
	}
}

// State returns the entity state after the command, or an empty state
// when the entity is unknown
func (o *Outcome) State() lifecycle.State {
	if o.Snapshot == nil {
		return ""
	}
	return o.Snapshot.State
}

// Reason returns the rejection reason or an empty reason when accepted
func (o *Outcome) Reason() lifecycle.Reason {
	if o.Rejection == nil {
		return ""
	}
	return o.Rejection.Reason
}
