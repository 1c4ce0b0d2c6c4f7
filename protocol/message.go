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
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tochemey/lifecycle/internal/validation"
	"github.com/tochemey/lifecycle/lifecycle"
	"github.com/tochemey/lifecycle/persistence"
)

// Action names the operation carried by a request
type Action string

const (
	ActionCreate     Action = "create"
	ActionTransition Action = "transition"
	ActionGet        Action = "get"
	ActionList       Action = "list"
	ActionSummary    Action = "summary"
)

// ReasonInternal is reported when a request could not be completed by the runtime
const ReasonInternal lifecycle.Reason = "internal-error"

// RequestBody is the content of a request envelope
type RequestBody struct {
	Action   Action `json:"action"`
	EntityID string `json:"entity_id,omitempty"`
	// Transition is the command wire name. TransitionName is accepted as an alias.
	Transition     string          `json:"transition,omitempty"`
	TransitionName string          `json:"transition_name,omitempty"`
	Actor          string          `json:"actor,omitempty"`
	Payload        json.RawMessage `json:"payload,omitempty"`
}

// ResponseBody is the content of a response envelope
type ResponseBody struct {
	Success              bool                    `json:"success"`
	EntityID             string                  `json:"entity_id,omitempty"`
	ResultingState       lifecycle.State         `json:"resulting_state,omitempty"`
	Error                *lifecycle.Rejection    `json:"error,omitempty"`
	Snapshot             *lifecycle.Snapshot     `json:"snapshot,omitempty"`
	Snapshots            []*lifecycle.Snapshot   `json:"snapshots,omitempty"`
	Summary              *persistence.Summary    `json:"summary,omitempty"`
	AvailableTransitions []lifecycle.CommandKind `json:"available_transitions,omitempty"`
}

// AnnouncementBody is the content of a state-change announcement
type AnnouncementBody struct {
	EntityID string          `json:"entity_id"`
	Action   string          `json:"action"`
	State    lifecycle.State `json:"state"`
	Revision uint64          `json:"revision"`
}

// request is a parsed and validated RequestBody
type request struct {
	action   Action
	entityID string
	command  lifecycle.Command
	input    lifecycle.CreateInput
	filter   persistence.Filter
}

// parseRequest decodes the envelope content into a typed request.
// sender is the actor reference used when the body does not name one.
func parseRequest(content, sender string) (*request, error) {
	body := new(RequestBody)
	if err := json.Unmarshal([]byte(content), body); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}

	req := &request{action: body.Action, entityID: strings.TrimSpace(body.EntityID)}
	switch body.Action {
	case ActionCreate:
		if req.entityID != "" {
			if err := validation.NewIDValidator(req.entityID).Validate(); err != nil {
				return nil, err
			}
		}
		if err := decodePayload(body.Payload, &req.input); err != nil {
			return nil, err
		}

	case ActionTransition:
		if err := validation.NewIDValidator(req.entityID).Validate(); err != nil {
			return nil, err
		}

		name := body.Transition
		if name == "" {
			name = body.TransitionName
		}
		if name == "" {
			return nil, fmt.Errorf("the [transition] is required")
		}
		kind, ok := lifecycle.ParseCommandKind(name)
		if !ok {
			return nil, fmt.Errorf("unknown transition %q", name)
		}

		actor := strings.TrimSpace(body.Actor)
		if actor == "" {
			actor = sender
		}

		req.command = lifecycle.Command{EntityID: req.entityID, Kind: kind, Actor: actor}
		if err := decodePayload(body.Payload, &req.command.Payload); err != nil {
			return nil, err
		}

	case ActionGet:
		if err := validation.NewIDValidator(req.entityID).Validate(); err != nil {
			return nil, err
		}

	case ActionList, ActionSummary:
		if err := decodePayload(body.Payload, &req.filter); err != nil {
			return nil, err
		}
		if req.filter.State != "" && !req.filter.State.IsValid() {
			return nil, fmt.Errorf("unknown state %q", req.filter.State)
		}

	case "":
		return nil, fmt.Errorf("the [action] is required")

	default:
		return nil, fmt.Errorf("unknown action %q", body.Action)
	}
	return req, nil
}

func decodePayload(payload json.RawMessage, target any) error {
	if len(bytes.TrimSpace(payload)) == 0 || bytes.Equal(bytes.TrimSpace(payload), []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}
