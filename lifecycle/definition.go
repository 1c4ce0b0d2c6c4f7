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

import (
	"slices"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

// Mutation sets the audit attributes of an accepted transition on a snapshot
type Mutation func(snapshot *Snapshot, command Command, at time.Time)

// rule describes one row of the transition table
type rule struct {
	to        State
	guards    []Guard
	mutations []Mutation
}

// Definition is the lifecycle transition table.
// A Definition is immutable and safe for concurrent use.
type Definition struct {
	initial State
	rules   map[State]map[CommandKind]rule
}

// DefaultDefinition returns the document lifecycle:
//
//	registered   --begin-review--> under-review
//	under-review --approve-------> approved
//	under-review --reject--------> rejected
//	approved     --activate------> effective
//	effective    --supersede-----> superseded
//	superseded   --reactivate----> effective
func DefaultDefinition() *Definition {
	return &Definition{
		initial: Registered,
		rules: map[State]map[CommandKind]rule{
			Registered: {
				BeginReview: {
					to:        UnderReview,
					guards:    []Guard{classificationComplete()},
					mutations: []Mutation{startReview},
				},
			},
			UnderReview: {
				Approve: {
					to:        Approved,
					guards:    []Guard{legalRequirementsPresent(), mandatoryFieldsPresent()},
					mutations: []Mutation{approve},
				},
				Reject: {
					to:        Rejected,
					mutations: []Mutation{reject},
				},
			},
			Approved: {
				Activate: {
					to:        Effective,
					guards:    []Guard{effectivePeriodValid()},
					mutations: []Mutation{activate},
				},
			},
			Effective: {
				Supersede: {
					to:        Superseded,
					mutations: []Mutation{supersede},
				},
			},
			Superseded: {
				Reactivate: {
					to:        Effective,
					mutations: []Mutation{reactivate},
				},
			},
		},
	}
}

// Initial returns the state of a freshly created entity
func (d *Definition) Initial() State {
	return d.initial
}

// Decide evaluates command against snapshot at the given instant.
// Guards run before anything is mutated and the snapshot is never modified.
func (d *Definition) Decide(snapshot *Snapshot, command Command, at time.Time) Decision {
	if snapshot == nil {
		return NewRejection(ReasonUnknownEntity, "entity %q not found", command.EntityID)
	}

	if !command.Kind.IsValid() {
		return NewRejection(ReasonUnknownCommand, "unknown command %s", command.Kind)
	}

	r, ok := d.rules[snapshot.State][command.Kind]
	if !ok {
		if snapshot.State.IsTerminal() {
			return NewRejection(ReasonInvalidTransition, "%s is not valid from terminal state %s", command.Kind, snapshot.State)
		}
		return NewRejection(ReasonInvalidTransition, "%s is not valid from state %s", command.Kind, snapshot.State)
	}

	for _, guard := range r.guards {
		if detail := guard.Check(snapshot, command, at); detail != "" {
			return &Rejection{Reason: ReasonGuardNotMet, Guard: guard.Name, Detail: detail}
		}
	}

	return &Transition{
		From:      snapshot.State,
		To:        r.to,
		Kind:      command.Kind,
		command:   command,
		at:        at.UTC(),
		mutations: r.mutations,
	}
}

// Available returns the command kinds accepted from state, sorted
func (d *Definition) Available(state State) []CommandKind {
	kinds := mapset.NewThreadUnsafeSet[CommandKind]()
	for kind := range d.rules[state] {
		kinds.Add(kind)
	}
	out := kinds.ToSlice()
	slices.Sort(out)
	return out
}

// Transition is an accepted decision not yet applied
type Transition struct {
	From State
	To   State
	Kind CommandKind

	command   Command
	at        time.Time
	mutations []Mutation
}

var _ Decision = (*Transition)(nil)

func (*Transition) decision() {}

// Apply returns a new snapshot with the transition applied.
// The given snapshot is left untouched.
func (t *Transition) Apply(snapshot *Snapshot) *Snapshot {
	next := snapshot.Clone()
	next.State = t.To
	for _, mutate := range t.mutations {
		mutate(next, t.command, t.at)
	}
	next.Revision++
	next.UpdatedAt = t.at
	return next
}

func startReview(snapshot *Snapshot, command Command, at time.Time) {
	snapshot.Review.StartedBy = command.Actor
	snapshot.Review.StartedAt = timePtr(at)
}

func approve(snapshot *Snapshot, command Command, at time.Time) {
	snapshot.Approval.ApprovedBy = command.Actor
	snapshot.Approval.Comments = command.Payload.Comments
	snapshot.Approval.ApprovedAt = timePtr(at)
}

func reject(snapshot *Snapshot, command Command, at time.Time) {
	snapshot.Rejection.Reason = command.Payload.Reason
	snapshot.Rejection.RejectedBy = command.Actor
	snapshot.Rejection.RejectedAt = timePtr(at)
}

func activate(snapshot *Snapshot, command Command, at time.Time) {
	from := at
	if command.Payload.EffectiveFrom != nil {
		from = *command.Payload.EffectiveFrom
	}
	snapshot.Activation.EffectiveFrom = timePtr(from)
	snapshot.Activation.EffectiveTo = nil
	if command.Payload.EffectiveTo != nil {
		snapshot.Activation.EffectiveTo = timePtr(*command.Payload.EffectiveTo)
	}
	snapshot.Activation.ActivatedBy = command.Actor
	snapshot.Activation.ActivatedAt = timePtr(at)
}

// reactivate keeps the recorded effective period
func reactivate(snapshot *Snapshot, command Command, at time.Time) {
	snapshot.Activation.ActivatedBy = command.Actor
	snapshot.Activation.ActivatedAt = timePtr(at)
}

func supersede(snapshot *Snapshot, command Command, at time.Time) {
	snapshot.Supersession.Reason = command.Payload.Reason
	snapshot.Supersession.SupersededBy = command.Actor
	snapshot.Supersession.SupersededAt = timePtr(at)
	snapshot.Supersession.ReplacementID = command.Payload.ReplacementID
}
