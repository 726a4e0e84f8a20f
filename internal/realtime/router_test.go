package realtime

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(hub *Hub, membership *fakeMembership, store *fakeMessageStore) *EventRouter {
	if membership == nil {
		membership = newFakeMembership()
	}
	if store == nil {
		store = &fakeMessageStore{}
	}
	return NewEventRouter(hub, membership, store, nil)
}

func errorCode(t *testing.T, f Frame) string {
	t.Helper()
	require.Equal(t, FrameError, f.Type)
	var p ErrorPayload
	require.NoError(t, json.Unmarshal(f.Payload, &p))
	return p.Code
}

func TestHandleFrameMalformedJSON(t *testing.T) {
	hub := NewHub(nil)
	router := newTestRouter(hub, nil, nil)
	conn := hub.Accept("user-a", ScopeGlobal, newMockConn())

	router.HandleFrame(conn, []byte("{not json"))

	frames := drainFrames(conn)
	require.Len(t, frames, 1)
	assert.Equal(t, ErrCodeInvalidMessage, errorCode(t, frames[0]))

	// a single bad message never closes the connection
	assert.Equal(t, StateOpen, conn.State())
}

func TestHandleFrameUnknownType(t *testing.T) {
	hub := NewHub(nil)
	router := newTestRouter(hub, nil, nil)
	conn := hub.Accept("user-a", ScopeGlobal, newMockConn())

	router.HandleFrame(conn, []byte(`{"type":"teleport","payload":{}}`))

	frames := drainFrames(conn)
	require.Len(t, frames, 1)
	assert.Equal(t, ErrCodeUnknownType, errorCode(t, frames[0]))
	assert.Equal(t, StateOpen, conn.State())
}

func TestHandleFramePing(t *testing.T) {
	hub := NewHub(nil)
	router := newTestRouter(hub, nil, nil)
	conn := hub.Accept("user-a", ScopeGlobal, newMockConn())

	router.HandleFrame(conn, []byte(`{"type":"ping"}`))

	frames := drainFrames(conn)
	require.Len(t, frames, 1)
	assert.Equal(t, FramePong, frames[0].Type)
}

func TestHandleFrameSubscribe(t *testing.T) {
	hub := NewHub(nil)
	membership := newFakeMembership()
	router := newTestRouter(hub, membership, nil)
	listID := uuid.New().String()
	membership.allow("user-a", listID)

	conn := hub.Accept("user-a", ScopeGlobal, newMockConn())

	raw := fmt.Sprintf(`{"type":"subscribe","payload":{"list_id":%q}}`, listID)
	router.HandleFrame(conn, []byte(raw))

	frames := drainFrames(conn)
	require.Len(t, frames, 1)
	assert.Equal(t, FrameSubscribed, frames[0].Type)
	assert.Equal(t, []string{"user-a"}, hub.SubscribersOf(listID))
}

func TestHandleFrameSubscribeDenied(t *testing.T) {
	hub := NewHub(nil)
	router := newTestRouter(hub, newFakeMembership(), nil)
	listID := uuid.New().String()

	conn := hub.Accept("user-a", ScopeGlobal, newMockConn())

	raw := fmt.Sprintf(`{"type":"subscribe","payload":{"list_id":%q}}`, listID)
	router.HandleFrame(conn, []byte(raw))

	frames := drainFrames(conn)
	require.Len(t, frames, 1)
	assert.Equal(t, ErrCodeNotAMember, errorCode(t, frames[0]))

	// soft error: no state mutation, connection stays open
	assert.Empty(t, hub.SubscribersOf(listID))
	assert.Equal(t, StateOpen, conn.State())
	assert.Equal(t, 1, hub.ConnectionCount("user-a"))
}

func TestHandleFrameSubscribeBadListID(t *testing.T) {
	hub := NewHub(nil)
	router := newTestRouter(hub, nil, nil)
	conn := hub.Accept("user-a", ScopeGlobal, newMockConn())

	router.HandleFrame(conn, []byte(`{"type":"subscribe","payload":{"list_id":"not-a-uuid"}}`))
	frames := drainFrames(conn)
	require.Len(t, frames, 1)
	assert.Equal(t, ErrCodeInvalidListID, errorCode(t, frames[0]))

	router.HandleFrame(conn, []byte(`{"type":"subscribe","payload":{}}`))
	frames = drainFrames(conn)
	require.Len(t, frames, 1)
	assert.Equal(t, ErrCodeInvalidMessage, errorCode(t, frames[0]))
}

func TestHandleFrameUnsubscribe(t *testing.T) {
	hub := NewHub(nil)
	membership := newFakeMembership()
	router := newTestRouter(hub, membership, nil)
	listID := uuid.New().String()
	membership.allow("user-a", listID)

	conn := hub.Accept("user-a", ScopeGlobal, newMockConn())
	subscribeAll(t, hub, membership, listID, "user-a")

	raw := fmt.Sprintf(`{"type":"unsubscribe","payload":{"list_id":%q}}`, listID)
	router.HandleFrame(conn, []byte(raw))

	frames := drainFrames(conn)
	require.Len(t, frames, 1)
	assert.Equal(t, FrameUnsubscribed, frames[0].Type)
	assert.Empty(t, hub.SubscribersOf(listID))
}

func TestRoomMessagePersistsAndBroadcasts(t *testing.T) {
	hub := NewHub(nil)
	membership := newFakeMembership()
	store := &fakeMessageStore{}
	router := newTestRouter(hub, membership, store)
	listID := uuid.New().String()

	sender := hub.Accept("user-a", ScopeGlobal, newMockConn())
	receiver := hub.Accept("user-b", ScopeGlobal, newMockConn())
	subscribeAll(t, hub, membership, listID, "user-a", "user-b")

	raw := fmt.Sprintf(`{"type":"room_message","payload":{"list_id":%q,"message":"  hello  "}}`, listID)
	router.HandleFrame(sender, []byte(raw))

	require.Equal(t, 1, store.count())

	// both subscribers receive the broadcast, sender included (echo
	// carries the persisted message ID)
	senderFrames := drainFrames(sender)
	receiverFrames := drainFrames(receiver)
	require.Len(t, senderFrames, 1)
	require.Len(t, receiverFrames, 1)
	assert.Equal(t, FrameRoomMessage, receiverFrames[0].Type)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(receiverFrames[0].Payload, &payload))
	assert.Equal(t, "hello", payload["message"])
	assert.Equal(t, "user-a", payload["sender_id"])
}

// Membership is re-validated at send time: a subscriber whose access was
// revoked mid-session gets a soft error and nothing is persisted.
func TestRoomMessageRevalidatesMembership(t *testing.T) {
	hub := NewHub(nil)
	membership := newFakeMembership()
	store := &fakeMessageStore{}
	router := newTestRouter(hub, membership, store)
	listID := uuid.New().String()

	conn := hub.Accept("user-a", ScopeGlobal, newMockConn())
	subscribeAll(t, hub, membership, listID, "user-a")

	membership.revoke("user-a", listID)

	raw := fmt.Sprintf(`{"type":"room_message","payload":{"list_id":%q,"message":"hello"}}`, listID)
	router.HandleFrame(conn, []byte(raw))

	frames := drainFrames(conn)
	require.Len(t, frames, 1)
	assert.Equal(t, ErrCodeNotAMember, errorCode(t, frames[0]))
	assert.Equal(t, 0, store.count())
	assert.Equal(t, StateOpen, conn.State())
}

func TestRoomMessageEmptyContent(t *testing.T) {
	hub := NewHub(nil)
	membership := newFakeMembership()
	store := &fakeMessageStore{}
	router := newTestRouter(hub, membership, store)
	listID := uuid.New().String()
	membership.allow("user-a", listID)

	conn := hub.Accept("user-a", ScopeGlobal, newMockConn())

	raw := fmt.Sprintf(`{"type":"room_message","payload":{"list_id":%q,"message":"   "}}`, listID)
	router.HandleFrame(conn, []byte(raw))

	frames := drainFrames(conn)
	require.Len(t, frames, 1)
	assert.Equal(t, ErrCodeEmptyMessage, errorCode(t, frames[0]))
	assert.Equal(t, 0, store.count())
}

// A list-dedicated session may omit list_id; the scope implies it.
func TestRoomMessageScopeImpliesList(t *testing.T) {
	hub := NewHub(nil)
	membership := newFakeMembership()
	store := &fakeMessageStore{}
	router := newTestRouter(hub, membership, store)
	listID := uuid.New().String()
	membership.allow("user-a", listID)

	conn := hub.Accept("user-a", RoomScope(listID), newMockConn())
	subscribeAll(t, hub, membership, listID, "user-a")

	router.HandleFrame(conn, []byte(`{"type":"room_message","payload":{"message":"hi"}}`))

	require.Equal(t, 1, store.count())
	frames := drainFrames(conn)
	require.Len(t, frames, 1)
	assert.Equal(t, FrameRoomMessage, frames[0].Type)
}

// Serve drives a full session end to end over the mock wire: connected
// frame, subscribe round trip, then eviction when the peer disconnects.
func TestServeSessionLifecycle(t *testing.T) {
	hub := NewHub(nil)
	membership := newFakeMembership()
	router := newTestRouter(hub, membership, nil)
	listID := uuid.New().String()
	membership.allow("user-a", listID)

	wire := newMockConn()
	conn := hub.Accept("user-a", ScopeGlobal, wire)

	done := make(chan struct{})
	go func() {
		router.Serve(conn)
		close(done)
	}()

	wire.inbound <- []byte(fmt.Sprintf(`{"type":"subscribe","payload":{"list_id":%q}}`, listID))
	wire.inbound <- []byte(`{"type":"ping"}`)

	require.Eventually(t, func() bool {
		return len(wire.written()) >= 3
	}, 2*time.Second, 10*time.Millisecond, "expected connected, subscribed and pong frames")

	var types []FrameType
	for _, raw := range wire.written() {
		var f Frame
		require.NoError(t, json.Unmarshal(raw, &f))
		types = append(types, f.Type)
	}
	assert.Equal(t, []FrameType{FrameConnected, FrameSubscribed, FramePong}, types)
	assert.Equal(t, []string{"user-a"}, hub.SubscribersOf(listID))

	// peer disconnects: the session ends and the last connection cascades
	wire.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after the peer closed")
	}

	assert.Equal(t, 0, hub.ConnectionCount("user-a"))
	assert.Empty(t, hub.SubscribersOf(listID))
}

// Per-connection ordering: frames enqueued in order arrive in order, and a
// teardown close trails every frame queued before it.
func TestWriterPreservesOrderThenCloses(t *testing.T) {
	hub := NewHub(nil)
	wire := newMockConn()
	conn := hub.Accept("user-a", ScopeGlobal, wire)
	conn.started.Store(true)
	go conn.writePump()

	for i := 0; i < 5; i++ {
		require.NoError(t, conn.enqueue(marshalFrame(FrameEvent, map[string]int{"seq": i})))
	}
	conn.closeWith(CloseForbidden, "removed")

	written := wire.written()
	require.Len(t, written, 5)
	for i, raw := range written {
		var f struct {
			Payload struct {
				Seq int `json:"seq"`
			} `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(raw, &f))
		assert.Equal(t, i, f.Payload.Seq)
	}
	assert.Equal(t, CloseForbidden, wire.sentCloseCode())
	assert.True(t, wire.isClosed())
}
