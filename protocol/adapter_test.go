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
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/goleak"

	"github.com/tochemey/lifecycle/actor"
	gerrors "github.com/tochemey/lifecycle/errors"
	"github.com/tochemey/lifecycle/lifecycle"
	"github.com/tochemey/lifecycle/log"
	"github.com/tochemey/lifecycle/persistence"
	"github.com/tochemey/lifecycle/transport"
	"github.com/tochemey/lifecycle/transport/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type harness struct {
	bus      *memory.Bus
	store    *persistence.MemoryStore
	registry *actor.Registry
	adapter  *Adapter
	client   *Signer

	mu            sync.Mutex
	delivered     map[string]struct{}
	responses     map[string][]*ResponseBody
	envelopes     map[string][]*transport.Envelope
	announcements []*transport.Envelope
}

func newHarness(t *testing.T, busOpts []memory.Option, opts ...Option) *harness {
	t.Helper()

	h := &harness{
		bus:       memory.NewBus(busOpts...),
		store:     persistence.NewMemoryStore(),
		delivered: make(map[string]struct{}),
		responses: make(map[string][]*ResponseBody),
		envelopes: make(map[string][]*transport.Envelope),
	}
	t.Cleanup(func() { require.NoError(t, h.bus.Close()) })

	registry, err := actor.NewRegistry(h.store,
		actor.WithLogger(log.DiscardLogger),
		actor.WithMeterProvider(noop.NewMeterProvider()),
		actor.WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	h.registry = registry
	t.Cleanup(func() { require.NoError(t, registry.Stop(context.Background())) })

	service, err := GenerateSigner()
	require.NoError(t, err)
	h.client, err = GenerateSigner()
	require.NoError(t, err)

	opts = append([]Option{WithLogger(log.DiscardLogger), WithClock(func() time.Time { return testNow })}, opts...)
	h.adapter, err = NewAdapter(registry, h.bus, service, opts...)
	require.NoError(t, err)

	_, err = h.bus.Subscribe(transport.Filter{
		Kinds:      []int{transport.KindResponse},
		Recipients: []string{h.client.PublicKey()},
	}, h.onResponse)
	require.NoError(t, err)
	_, err = h.bus.Subscribe(transport.Filter{Kinds: []int{transport.KindAnnouncement}}, h.onAnnouncement)
	require.NoError(t, err)

	require.NoError(t, h.adapter.Start(t.Context()))
	t.Cleanup(func() {
		if err := h.adapter.Stop(context.Background()); err != nil {
			require.ErrorIs(t, err, gerrors.ErrAdapterNotStarted)
		}
	})
	return h
}

func (h *harness) onResponse(_ context.Context, envelope *transport.Envelope) {
	requestID, _ := envelope.Tag(transport.TagEvent)
	body := new(ResponseBody)
	if err := json.Unmarshal([]byte(envelope.Content), body); err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	// the bus redelivers responses as well, a client keeps one per envelope
	if _, ok := h.delivered[envelope.ID]; ok {
		return
	}
	h.delivered[envelope.ID] = struct{}{}
	h.responses[requestID] = append(h.responses[requestID], body)
	h.envelopes[requestID] = append(h.envelopes[requestID], envelope)
}

func (h *harness) onAnnouncement(_ context.Context, envelope *transport.Envelope) {
	h.mu.Lock()
	h.announcements = append(h.announcements, envelope)
	h.mu.Unlock()
}

func (h *harness) request(t *testing.T, body RequestBody) *transport.Envelope {
	t.Helper()
	content, err := json.Marshal(body)
	require.NoError(t, err)
	envelope, err := h.client.NewEnvelope(transport.KindRequest,
		[][]string{{transport.TagRecipient, h.adapter.PublicKey()}}, string(content), testNow)
	require.NoError(t, err)
	return envelope
}

func (h *harness) publish(t *testing.T, envelope *transport.Envelope) {
	t.Helper()
	require.NoError(t, h.bus.Publish(t.Context(), envelope))
}

func (h *harness) await(t *testing.T, requestID string, count int) []*ResponseBody {
	t.Helper()
	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return len(h.responses[requestID]) >= count
	}, 2*time.Second, 5*time.Millisecond)

	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*ResponseBody, len(h.responses[requestID]))
	copy(out, h.responses[requestID])
	return out
}

func (h *harness) call(t *testing.T, body RequestBody) *ResponseBody {
	t.Helper()
	envelope := h.request(t, body)
	h.publish(t, envelope)
	return h.await(t, envelope.ID, 1)[0]
}

func (h *harness) announced() []*transport.Envelope {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*transport.Envelope, len(h.announcements))
	copy(out, h.announcements)
	return out
}

func payload(t *testing.T, value any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(value)
	require.NoError(t, err)
	return raw
}

func fiscalInput(legal ...string) lifecycle.CreateInput {
	return lifecycle.CreateInput{
		DocumentType:      "policy",
		Code:              "POL-001",
		Name:              "Invoicing policy",
		Category:          lifecycle.FiscalCategory,
		Format:            "pdf",
		LegalRequirements: legal,
	}
}

func transition(id, name string) RequestBody {
	return RequestBody{Action: ActionTransition, EntityID: id, Transition: name}
}

func TestAdapterScenarios(t *testing.T) {
	t.Run("fiscal entity without legal requirements cannot be approved", func(t *testing.T) {
		h := newHarness(t, nil)

		created := h.call(t, RequestBody{Action: ActionCreate, EntityID: "doc-a", Payload: payload(t, fiscalInput())})
		require.True(t, created.Success)
		assert.Equal(t, lifecycle.Registered, created.ResultingState)

		require.True(t, h.call(t, transition("doc-a", "begin-review")).Success)

		approved := h.call(t, transition("doc-a", "approve"))
		assert.False(t, approved.Success)
		require.NotNil(t, approved.Error)
		assert.Equal(t, lifecycle.ReasonGuardNotMet, approved.Error.Reason)
		assert.Equal(t, lifecycle.GuardLegalRequirementsPresent, approved.Error.Guard)
		assert.Equal(t, lifecycle.UnderReview, approved.ResultingState)
	})
	t.Run("fiscal entity with legal requirements becomes effective", func(t *testing.T) {
		h := newHarness(t, nil)
		from := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

		require.True(t, h.call(t, RequestBody{Action: ActionCreate, EntityID: "doc-b", Payload: payload(t, fiscalInput("R1"))}).Success)
		require.True(t, h.call(t, transition("doc-b", "begin-review")).Success)
		require.True(t, h.call(t, transition("doc-b", "approve")).Success)

		activate := transition("doc-b", "activate")
		activate.Payload = payload(t, lifecycle.Payload{EffectiveFrom: &from})
		activated := h.call(t, activate)
		require.True(t, activated.Success)
		assert.Equal(t, lifecycle.Effective, activated.ResultingState)
		require.NotNil(t, activated.Snapshot)
		require.NotNil(t, activated.Snapshot.Activation.EffectiveFrom)
		assert.True(t, from.Equal(*activated.Snapshot.Activation.EffectiveFrom))
		// the verified sender is the actor reference
		assert.Equal(t, h.client.PublicKey(), activated.Snapshot.Activation.ActivatedBy)
		assert.ElementsMatch(t, []lifecycle.CommandKind{lifecycle.Supersede}, activated.AvailableTransitions)

		require.Eventually(t, func() bool { return len(h.announced()) == 4 }, 2*time.Second, 5*time.Millisecond)
		states := make(map[string]bool)
		for _, announcement := range h.announced() {
			entity, _ := announcement.Tag(transport.TagEntity)
			assert.Equal(t, "doc-b", entity)
			state, _ := announcement.Tag(transport.TagState)
			states[state] = true
			require.NoError(t, Verify(announcement))
		}
		assert.Len(t, states, 4)
		assert.True(t, states[string(lifecycle.Effective)])
	})
	t.Run("reactivation keeps the supersession audit", func(t *testing.T) {
		h := newHarness(t, nil)
		require.True(t, h.call(t, RequestBody{Action: ActionCreate, EntityID: "doc-c", Payload: payload(t, fiscalInput("R1"))}).Success)
		for _, name := range []string{"begin-review", "approve", "activate"} {
			require.True(t, h.call(t, transition("doc-c", name)).Success)
		}

		supersede := transition("doc-c", "supersede")
		supersede.Actor = "alice"
		supersede.Payload = payload(t, lifecycle.Payload{Reason: "replaced", ReplacementID: "X"})
		require.True(t, h.call(t, supersede).Success)

		reactivated := h.call(t, transition("doc-c", "reactivate"))
		require.True(t, reactivated.Success)
		assert.Equal(t, lifecycle.Effective, reactivated.ResultingState)
		assert.Equal(t, "replaced", reactivated.Snapshot.Supersession.Reason)
		assert.Equal(t, "X", reactivated.Snapshot.Supersession.ReplacementID)
		assert.Equal(t, "alice", reactivated.Snapshot.Supersession.SupersededBy)
	})
}

func TestAdapterQueries(t *testing.T) {
	h := newHarness(t, nil, WithNamespace("documents"))
	require.True(t, h.call(t, RequestBody{Action: ActionCreate, EntityID: "doc-1", Payload: payload(t, fiscalInput("R1"))}).Success)
	require.True(t, h.call(t, RequestBody{Action: ActionCreate, EntityID: "doc-2", Payload: payload(t, fiscalInput("R1"))}).Success)
	require.True(t, h.call(t, transition("doc-2", "begin-review")).Success)

	t.Run("get", func(t *testing.T) {
		request := h.request(t, RequestBody{Action: ActionGet, EntityID: "doc-2"})
		h.publish(t, request)
		response := h.await(t, request.ID, 1)[0]
		require.True(t, response.Success)
		assert.Equal(t, lifecycle.UnderReview, response.ResultingState)
		require.NotNil(t, response.Snapshot)
		assert.Equal(t, "doc-2", response.Snapshot.EntityID)
		assert.ElementsMatch(t, []lifecycle.CommandKind{lifecycle.Approve, lifecycle.Reject}, response.AvailableTransitions)

		h.mu.Lock()
		envelope := h.envelopes[request.ID][0]
		h.mu.Unlock()
		require.NoError(t, Verify(envelope))
		assert.Equal(t, h.adapter.PublicKey(), envelope.PubKey)
		recipient, _ := envelope.Tag(transport.TagRecipient)
		assert.Equal(t, h.client.PublicKey(), recipient)
		root, _ := envelope.Tag(transport.TagContextRoot)
		assert.Equal(t, "documents", root)
	})
	t.Run("get unknown entity", func(t *testing.T) {
		response := h.call(t, RequestBody{Action: ActionGet, EntityID: "missing"})
		assert.False(t, response.Success)
		assert.Equal(t, lifecycle.ReasonUnknownEntity, response.Error.Reason)
	})
	t.Run("transition unknown entity", func(t *testing.T) {
		response := h.call(t, transition("missing", "approve"))
		assert.False(t, response.Success)
		assert.Equal(t, lifecycle.ReasonUnknownEntity, response.Error.Reason)
	})
	t.Run("list", func(t *testing.T) {
		response := h.call(t, RequestBody{Action: ActionList, Payload: payload(t, persistence.Filter{State: lifecycle.Registered})})
		require.True(t, response.Success)
		require.Len(t, response.Snapshots, 1)
		assert.Equal(t, "doc-1", response.Snapshots[0].EntityID)
	})
	t.Run("summary", func(t *testing.T) {
		response := h.call(t, RequestBody{Action: ActionSummary})
		require.True(t, response.Success)
		require.NotNil(t, response.Summary)
		assert.Equal(t, 2, response.Summary.Total)
		assert.Equal(t, 1, response.Summary.ByState[lifecycle.UnderReview])
		assert.Equal(t, 2, response.Summary.ByCategory[lifecycle.FiscalCategory])
	})
}

func TestAdapterMalformedInput(t *testing.T) {
	h := newHarness(t, nil)

	t.Run("With unparseable content", func(t *testing.T) {
		envelope, err := h.client.NewEnvelope(transport.KindRequest,
			[][]string{{transport.TagRecipient, h.adapter.PublicKey()}}, "not json", testNow)
		require.NoError(t, err)
		h.publish(t, envelope)

		response := h.await(t, envelope.ID, 1)[0]
		assert.False(t, response.Success)
		assert.Equal(t, lifecycle.ReasonMalformedInput, response.Error.Reason)
	})
	t.Run("With invalid requests", func(t *testing.T) {
		for _, body := range []RequestBody{
			{Action: ActionTransition, Transition: "approve"},
			{Action: ActionTransition, EntityID: "doc-1"},
			{Action: ActionTransition, EntityID: "doc-1", Transition: "archive"},
			{Action: "delete", EntityID: "doc-1"},
		} {
			response := h.call(t, body)
			assert.False(t, response.Success)
			assert.Equal(t, lifecycle.ReasonMalformedInput, response.Error.Reason)
		}
		assert.Zero(t, h.registry.Len())
	})
	t.Run("With bad signature", func(t *testing.T) {
		envelope := h.request(t, RequestBody{Action: ActionCreate, EntityID: "doc-1", Payload: payload(t, fiscalInput("R1"))})
		envelope.Sig = envelope.Sig[:len(envelope.Sig)-2] + "zz"
		h.publish(t, envelope)

		response := h.await(t, envelope.ID, 1)[0]
		assert.Equal(t, lifecycle.ReasonMalformedInput, response.Error.Reason)
		_, err := h.store.Get(t.Context(), "doc-1")
		require.ErrorIs(t, err, persistence.ErrKeyNotFound)
	})
	t.Run("With invalid creation attributes", func(t *testing.T) {
		response := h.call(t, RequestBody{Action: ActionCreate, EntityID: "doc-1", Payload: payload(t, lifecycle.CreateInput{Name: "no category"})})
		assert.Equal(t, lifecycle.ReasonMalformedInput, response.Error.Reason)
	})
	t.Run("Without reply address", func(t *testing.T) {
		before := h.bus.Published()
		h.adapter.Handle(t.Context(), &transport.Envelope{Kind: transport.KindRequest, Content: `{"action":"get","entity_id":"doc-1"}`})
		assert.Equal(t, before, h.bus.Published())
	})
}

func TestAdapterDuplicateDelivery(t *testing.T) {
	h := newHarness(t, []memory.Option{memory.WithRedeliveries(1)}, WithAnnouncements(false))

	create := h.request(t, RequestBody{Action: ActionCreate, EntityID: "doc-1", Payload: payload(t, fiscalInput("R1"))})
	h.publish(t, create)
	responses := h.await(t, create.ID, 2)
	require.Len(t, responses, 2)
	reasons := []lifecycle.Reason{reasonOf(responses[0]), reasonOf(responses[1])}
	assert.ElementsMatch(t, []lifecycle.Reason{"", lifecycle.ReasonEntityExists}, reasons)

	review := h.request(t, transition("doc-1", "begin-review"))
	h.publish(t, review)
	responses = h.await(t, review.ID, 2)
	reasons = []lifecycle.Reason{reasonOf(responses[0]), reasonOf(responses[1])}
	assert.ElementsMatch(t, []lifecycle.Reason{"", lifecycle.ReasonInvalidTransition}, reasons)

	snapshot, err := h.registry.Get(t.Context(), "doc-1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, snapshot.Revision)

	anonymous := h.request(t, RequestBody{Action: ActionCreate, Payload: payload(t, fiscalInput("R1"))})
	h.publish(t, anonymous)
	responses = h.await(t, anonymous.ID, 2)
	reasons = []lifecycle.Reason{reasonOf(responses[0]), reasonOf(responses[1])}
	assert.ElementsMatch(t, []lifecycle.Reason{"", lifecycle.ReasonEntityExists}, reasons)
	assert.Equal(t, anonymous.ID, responses[0].EntityID)
	assert.Equal(t, anonymous.ID, responses[1].EntityID)

	all, err := h.store.List(t.Context(), persistence.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Empty(t, h.announced())
}

func TestAdapterLifecycle(t *testing.T) {
	t.Run("With start and stop", func(t *testing.T) {
		h := newHarness(t, nil)
		require.ErrorIs(t, h.adapter.Start(t.Context()), gerrors.ErrAdapterStarted)
		require.NoError(t, h.adapter.Stop(t.Context()))
		require.ErrorIs(t, h.adapter.Stop(t.Context()), gerrors.ErrAdapterNotStarted)
		assert.Equal(t, 2, h.bus.SubscribersCount())

		// requests published while stopped are not handled
		before := h.bus.Published()
		h.publish(t, h.request(t, RequestBody{Action: ActionSummary}))
		assert.Equal(t, before+1, h.bus.Published())

		require.NoError(t, h.adapter.Start(t.Context()))
		require.True(t, h.call(t, RequestBody{Action: ActionSummary}).Success)
	})
	t.Run("With invalid arguments", func(t *testing.T) {
		signer, err := GenerateSigner()
		require.NoError(t, err)
		registry, err := actor.NewRegistry(persistence.NewMemoryStore(), actor.WithLogger(log.DiscardLogger))
		require.NoError(t, err)
		t.Cleanup(func() { require.NoError(t, registry.Stop(context.Background())) })

		_, err = NewAdapter(registry, nil, signer)
		require.ErrorIs(t, err, gerrors.ErrTransportRequired)

		bus := memory.NewBus()
		t.Cleanup(func() { require.NoError(t, bus.Close()) })
		_, err = NewAdapter(registry, bus, nil, WithConcurrency(0), WithLogger(log.DiscardLogger))
		require.Error(t, err)
		_, err = NewAdapter(nil, bus, signer, WithLogger(log.DiscardLogger))
		require.Error(t, err)
	})
}

func reasonOf(body *ResponseBody) lifecycle.Reason {
	if body.Error == nil {
		return ""
	}
	return body.Error.Reason
}
