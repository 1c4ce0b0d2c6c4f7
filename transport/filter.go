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
	mapset "github.com/deckarep/golang-set/v2"
)

// Filter selects the envelopes delivered to a subscription.
// Empty fields match everything.
type Filter struct {
	Kinds      []int
	Recipients []string
}

// Matches reports whether the envelope passes the filter
func (f Filter) Matches(envelope *Envelope) bool {
	if len(f.Kinds) > 0 && !mapset.NewThreadUnsafeSet(f.Kinds...).Contains(envelope.Kind) {
		return false
	}

	if len(f.Recipients) == 0 {
		return true
	}

	recipients := mapset.NewThreadUnsafeSet(f.Recipients...)
	for _, recipient := range envelope.TagValues(TagRecipient) {
		if recipients.Contains(recipient) {
			return true
		}
	}
	return false
}
