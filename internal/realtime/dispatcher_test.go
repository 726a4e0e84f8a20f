package realtime

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subscribeAll(t *testing.T, hub *Hub, membership *fakeMembership, listID string, userIDs ...string) {
	t.Helper()
	for _, u := range userIDs {
		membership.allow(u, listID)
		ok, err := hub.Subscribe(context.Background(), u, listID, membership)
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func TestBroadcastExcludesUser(t *testing.T) {
	hub := NewHub(nil)
	membership := newFakeMembership()
	listID := uuid.New().String()

	connA := hub.Accept("user-a", ScopeGlobal, newMockConn())
	connB := hub.Accept("user-b", ScopeGlobal, newMockConn())
	subscribeAll(t, hub, membership, listID, "user-a", "user-b")

	hub.BroadcastToRoom(listID, EventFrame(listID, EventItemAdded, map[string]string{"name": "milk"}), "user-a")

	assert.Empty(t, drainFrames(connA), "excluded user must receive nothing")

	frames := drainFrames(connB)
	require.Len(t, frames, 1)
	assert.Equal(t, FrameEvent, frames[0].Type)

	var payload EventPayload
	require.NoError(t, json.Unmarshal(frames[0].Payload, &payload))
	assert.Equal(t, EventItemAdded, payload.Event)
	assert.Equal(t, listID, payload.ListID)
}

func TestBroadcastScopeFiltering(t *testing.T) {
	hub := NewHub(nil)
	membership := newFakeMembership()
	listID := uuid.New().String()
	otherList := uuid.New().String()

	global := hub.Accept("user-a", ScopeGlobal, newMockConn())
	dedicated := hub.Accept("user-a", RoomScope(listID), newMockConn())
	foreign := hub.Accept("user-a", RoomScope(otherList), newMockConn())
	subscribeAll(t, hub, membership, listID, "user-a")

	hub.BroadcastToRoom(listID, EventFrame(listID, EventListUpdated, nil), "")

	// global and list-dedicated sessions receive it
	assert.Len(t, drainFrames(global), 1)
	assert.Len(t, drainFrames(dedicated), 1)

	// a session dedicated to a different list never sees this list's events
	assert.Empty(t, drainFrames(foreign))
}

func TestBroadcastNonSubscribersReceiveNothing(t *testing.T) {
	hub := NewHub(nil)
	membership := newFakeMembership()
	listID := uuid.New().String()

	subscriber := hub.Accept("user-a", ScopeGlobal, newMockConn())
	bystander := hub.Accept("user-b", ScopeGlobal, newMockConn())
	subscribeAll(t, hub, membership, listID, "user-a")

	hub.BroadcastToRoom(listID, EventFrame(listID, EventItemDeleted, nil), "")

	assert.Len(t, drainFrames(subscriber), 1)
	assert.Empty(t, drainFrames(bystander))
}

func TestBroadcastEvictsDeadConnections(t *testing.T) {
	hub := NewHub(nil)
	membership := newFakeMembership()
	listID := uuid.New().String()

	healthy := hub.Accept("user-a", ScopeGlobal, newMockConn())

	dead := hub.Accept("user-b", ScopeGlobal, newMockConn())
	subscribeAll(t, hub, membership, listID, "user-a", "user-b")
	// simulate a connection torn down under the dispatcher's feet
	dead.closeWith(CloseAuthFailed, "gone")

	hub.BroadcastToRoom(listID, EventFrame(listID, EventItemAdded, nil), "")

	// delivery to the healthy connection is unaffected by the dead one
	assert.Len(t, drainFrames(healthy), 1)

	// the dead connection was evicted, cascading its subscriptions
	assert.Equal(t, 0, hub.ConnectionCount("user-b"))
	assert.Equal(t, []string{"user-a"}, hub.SubscribersOf(listID))
}

func TestSendToUserHitsEveryScope(t *testing.T) {
	hub := NewHub(nil)
	listID := uuid.New().String()

	global := hub.Accept("user-a", ScopeGlobal, newMockConn())
	dedicated := hub.Accept("user-a", RoomScope(listID), newMockConn())

	ok := hub.SendToUser("user-a", NotificationFrame(map[string]string{"type": "LIST_INVITE"}))
	assert.True(t, ok)

	// personal sends ignore scope entirely
	assert.Len(t, drainFrames(global), 1)
	assert.Len(t, drainFrames(dedicated), 1)
}

func TestSendToUserWithoutConnections(t *testing.T) {
	hub := NewHub(nil)
	ok := hub.SendToUser("nobody", NotificationFrame(nil))
	assert.False(t, ok)
}
