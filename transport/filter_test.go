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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter(t *testing.T) {
	envelope := &Envelope{
		Kind: KindRequest,
		Tags: [][]string{{TagRecipient, "service"}, {TagContextRoot, "documents"}},
	}

	assert.True(t, Filter{}.Matches(envelope))
	assert.True(t, Filter{Kinds: []int{KindRequest}}.Matches(envelope))
	assert.False(t, Filter{Kinds: []int{KindResponse}}.Matches(envelope))
	assert.True(t, Filter{Kinds: []int{KindRequest}, Recipients: []string{"other", "service"}}.Matches(envelope))
	assert.False(t, Filter{Recipients: []string{"other"}}.Matches(envelope))
}

func TestEnvelope(t *testing.T) {
	envelope := &Envelope{
		ID:   "id",
		Kind: KindResponse,
		Tags: [][]string{{TagEvent, "request"}, {TagRecipient, "a"}, {TagRecipient, "b"}, {"broken"}},
	}

	value, ok := envelope.Tag(TagEvent)
	require.True(t, ok)
	assert.Equal(t, "request", value)

	_, ok = envelope.Tag("broken")
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "b"}, envelope.TagValues(TagRecipient))

	clone := envelope.Clone()
	clone.Tags[0][1] = "changed"
	assert.Equal(t, "request", envelope.Tags[0][1])
	assert.Equal(t, envelope.ID, clone.ID)
}
