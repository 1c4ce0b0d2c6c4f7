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

// State is one of the finite set of lifecycle states an entity can be in
type State string

const (
	// Registered is the initial state of a freshly created entity
	Registered State = "registered"
	// UnderReview is the state of an entity whose classification is being reviewed
	UnderReview State = "under-review"
	// Approved is the state of an entity accepted by a reviewer but not yet in effect
	Approved State = "approved"
	// Rejected is the terminal state of an entity refused during review
	Rejected State = "rejected"
	// Effective is the state of an entity currently in force
	Effective State = "effective"
	// Superseded is the state of an entity replaced by another one
	Superseded State = "superseded"
)

var states = []State{Registered, UnderReview, Approved, Rejected, Effective, Superseded}

// States returns every defined state in lifecycle order
func States() []State {
	out := make([]State, len(states))
	copy(out, states)
	return out
}

// IsValid reports whether s is a defined state
func (s State) IsValid() bool {
	switch s {
	case Registered, UnderReview, Approved, Rejected, Effective, Superseded:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no command is accepted from s
func (s State) IsTerminal() bool {
	return s == Rejected
}

func (s State) String() string {
	return string(s)
}
