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

package protocol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/lifecycle/lifecycle"
)

func TestParseRequest(t *testing.T) {
	t.Run("With transition", func(t *testing.T) {
		req, err := parseRequest(`{"action":"transition","entity_id":"doc-1","transition":"activate",
			"payload":{"effective_from":"2026-04-01T00:00:00Z","replacement_id":"X"}}`, "sender")
		require.NoError(t, err)
		assert.Equal(t, ActionTransition, req.action)
		assert.Equal(t, lifecycle.Activate, req.command.Kind)
		assert.Equal(t, "sender", req.command.Actor)
		require.NotNil(t, req.command.Payload.EffectiveFrom)
		assert.True(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC).Equal(*req.command.Payload.EffectiveFrom))
	})
	t.Run("With transition name alias and actor", func(t *testing.T) {
		req, err := parseRequest(`{"action":"transition","entity_id":"doc-1","transition_name":"begin-review","actor":"bob"}`, "sender")
		require.NoError(t, err)
		assert.Equal(t, lifecycle.BeginReview, req.command.Kind)
		assert.Equal(t, "bob", req.command.Actor)
	})
	t.Run("With create", func(t *testing.T) {
		req, err := parseRequest(`{"action":"create","payload":{"name":"Policy","category":"fiscal","format":"pdf","legal_requirements":["R1"]}}`, "sender")
		require.NoError(t, err)
		assert.Empty(t, req.entityID)
		assert.Equal(t, []string{"R1"}, req.input.LegalRequirements)
	})
	t.Run("With list filter", func(t *testing.T) {
		req, err := parseRequest(`{"action":"list","payload":{"category":"fiscal","state":"effective"}}`, "sender")
		require.NoError(t, err)
		assert.Equal(t, lifecycle.Effective, req.filter.State)

		req, err = parseRequest(`{"action":"summary","payload":null}`, "sender")
		require.NoError(t, err)
		assert.True(t, req.filter.IsEmpty())
	})
	t.Run("With malformed input", func(t *testing.T) {
		for name, content := range map[string]string{
			"not json":             `{"action":`,
			"missing action":       `{"entity_id":"doc-1"}`,
			"unknown action":       `{"action":"delete","entity_id":"doc-1"}`,
			"missing entity":       `{"action":"transition","transition":"approve"}`,
			"invalid entity":       `{"action":"get","entity_id":"bad id"}`,
			"missing transition":   `{"action":"transition","entity_id":"doc-1"}`,
			"unknown transition":   `{"action":"transition","entity_id":"doc-1","transition":"archive"}`,
			"invalid payload":      `{"action":"transition","entity_id":"doc-1","transition":"approve","payload":{"comments":1}}`,
			"unknown filter state": `{"action":"list","payload":{"state":"archived"}}`,
		} {
			_, err := parseRequest(content, "sender")
			assert.Errorf(t, err, "%s should fail", name)
		}
	})
}
