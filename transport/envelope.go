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
	"slices"
)

// Message kinds carried by the lifecycle service
const (
	KindAnnouncement = 1055
	KindRequest      = 5055
	KindResponse     = 6055
)

// Well-known tag names
const (
	TagEvent       = "e"
	TagRecipient   = "p"
	TagContextRoot = "context_root"
	TagEntity      = "d"
	TagState       = "state"
	TagAction      = "action"
)

// Envelope is a signed, timestamped message exchanged over a Transport.
// The identifier is derived from the content and the signature binds it to
// the sender's public key.
type Envelope struct {
	ID        string     `json:"id"`
	PubKey    string     `json:"pubkey"`
	CreatedAt int64      `json:"created_at"`
	Kind      int        `json:"kind"`
	Tags      [][]string `json:"tags"`
	Content   string     `json:"content"`
	Sig       string     `json:"sig"`
}

// Tag returns the first value of the named tag
func (e *Envelope) Tag(name string) (string, bool) {
	for _, tag := range e.Tags {
		if len(tag) >= 2 && tag[0] == name {
			return tag[1], true
		}
	}
	return "", false
}

// TagValues returns every value recorded for the named tag
func (e *Envelope) TagValues(name string) []string {
	var values []string
	for _, tag := range e.Tags {
		if len(tag) >= 2 && tag[0] == name {
			values = append(values, tag[1])
		}
	}
	return values
}

// Clone returns a deep copy of the envelope
func (e *Envelope) Clone() *Envelope {
	clone := *e
	if e.Tags != nil {
		clone.Tags = make([][]string, len(e.Tags))
		for i, tag := range e.Tags {
			clone.Tags[i] = slices.Clone(tag)
		}
	}
	return &clone
}
