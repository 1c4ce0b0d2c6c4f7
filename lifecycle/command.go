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
	"fmt"
	"time"
)

// CommandKind enumerates the transitions a caller can request
type CommandKind int

const (
	// BeginReview moves a registered entity under review
	BeginReview CommandKind = iota + 1
	// Approve accepts an entity under review
	Approve
	// Reject refuses an entity under review
	Reject
	// Activate puts an approved entity in effect
	Activate
	// Supersede retires an effective entity
	Supersede
	// Reactivate puts a superseded entity back in effect
	Reactivate
)

var commandNames = map[CommandKind]string{
	BeginReview: "begin-review",
	Approve:     "approve",
	Reject:      "reject",
	Activate:    "activate",
	Supersede:   "supersede",
	Reactivate:  "reactivate",
}

var commandKinds = map[string]CommandKind{
	"begin-review": BeginReview,
	"approve":      Approve,
	"reject":       Reject,
	"activate":     Activate,
	"supersede":    Supersede,
	"reactivate":   Reactivate,
}

// ParseCommandKind converts a wire transition name into a CommandKind.
// The boolean result is false when the name is not a known transition.
func ParseCommandKind(name string) (CommandKind, bool) {
	kind, ok := commandKinds[name]
	return kind, ok
}

// IsValid reports whether k is one of the defined command kinds
func (k CommandKind) IsValid() bool {
	_, ok := commandNames[k]
	return ok
}

// String returns the wire name of the command kind
func (k CommandKind) String() string {
	if name, ok := commandNames[k]; ok {
		return name
	}
	return fmt.Sprintf("command(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler
func (k CommandKind) MarshalText() ([]byte, error) {
	if !k.IsValid() {
		return nil, fmt.Errorf("unknown command kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *CommandKind) UnmarshalText(text []byte) error {
	kind, ok := ParseCommandKind(string(text))
	if !ok {
		return fmt.Errorf("unknown command kind %q", string(text))
	}
	*k = kind
	return nil
}

// Payload carries the command specific attributes.
// Only the fields relevant to the command kind are read.
type Payload struct {
	Comments      string     `json:"comments,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	EffectiveFrom *time.Time `json:"effective_from,omitempty"`
	EffectiveTo   *time.Time `json:"effective_to,omitempty"`
	ReplacementID string     `json:"replacement_id,omitempty"`
}

// Command is a typed request to move one entity through its lifecycle
type Command struct {
	EntityID string      `json:"entity_id"`
	Kind     CommandKind `json:"kind"`
	Actor    string      `json:"actor,omitempty"`
	Payload  Payload     `json:"payload"`
}
