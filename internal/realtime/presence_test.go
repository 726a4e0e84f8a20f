package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A user holds one global session and one session dedicated to the list.
// Kicking them from the list must notify both, close only the dedicated
// one with 4003, and drop the subscription edge.
func TestKickClosesOnlyDedicatedSessions(t *testing.T) {
	hub := NewHub(nil)
	membership := newFakeMembership()
	listID := uuid.New().String()

	globalWire := newMockConn()
	dedicatedWire := newMockConn()
	global := hub.Accept("user-a", ScopeGlobal, globalWire)
	dedicated := hub.Accept("user-a", RoomScope(listID), dedicatedWire)
	subscribeAll(t, hub, membership, listID, "user-a")

	hub.KickFromRoom("user-a", listID, "removed_by_owner")

	// both sessions heard about the kick
	globalFrames := drainFrames(global)
	require.Len(t, globalFrames, 1)
	assert.Equal(t, FrameKicked, globalFrames[0].Type)

	var payload KickedPayload
	require.NoError(t, json.Unmarshal(globalFrames[0].Payload, &payload))
	assert.Equal(t, listID, payload.ListID)
	assert.Equal(t, "removed_by_owner", payload.Reason)

	dedicatedFrames := drainFrames(dedicated)
	require.Len(t, dedicatedFrames, 1)
	assert.Equal(t, FrameKicked, dedicatedFrames[0].Type)

	// the dedicated session is closed with 4003, the global one stays open
	assert.True(t, dedicatedWire.isClosed())
	assert.Equal(t, CloseForbidden, dedicatedWire.sentCloseCode())
	assert.False(t, globalWire.isClosed())
	assert.Equal(t, int32(StateOpen), global.State())
	assert.Equal(t, int32(StateClosed), dedicated.State())

	// the edge is gone, the surviving session remains registered
	assert.Empty(t, hub.SubscribersOf(listID))
	assert.Equal(t, 1, hub.ConnectionCount("user-a"))
}

func TestKickNeverClosesGlobalSessions(t *testing.T) {
	hub := NewHub(nil)
	membership := newFakeMembership()
	listID := uuid.New().String()

	wires := []*mockConn{newMockConn(), newMockConn(), newMockConn()}
	for _, w := range wires {
		hub.Accept("user-a", ScopeGlobal, w)
	}
	subscribeAll(t, hub, membership, listID, "user-a")

	hub.KickFromRoom("user-a", listID, "removed_by_owner")

	for i, w := range wires {
		assert.False(t, w.isClosed(), "global session %d must survive a kick", i)
	}
	assert.Equal(t, 3, hub.ConnectionCount("user-a"))
	assert.Empty(t, hub.SubscribersOf(listID))
}

func TestKickOfOfflineUserIsHarmless(t *testing.T) {
	hub := NewHub(nil)
	hub.KickFromRoom("nobody", uuid.New().String(), "removed_by_owner")
	assert.Equal(t, 0, hub.ConnectionCount("nobody"))
}

func TestDisconnectAllClosesEveryScope(t *testing.T) {
	hub := NewHub(nil)
	membership := newFakeMembership()
	listID := uuid.New().String()

	globalWire := newMockConn()
	dedicatedWire := newMockConn()
	hub.Accept("user-a", ScopeGlobal, globalWire)
	hub.Accept("user-a", RoomScope(listID), dedicatedWire)
	subscribeAll(t, hub, membership, listID, "user-a")

	hub.DisconnectAll("user-a", "logged_out")

	// synchronous: by the time the call returns every socket is down and
	// no registry entry lingers
	assert.True(t, globalWire.isClosed())
	assert.True(t, dedicatedWire.isClosed())
	assert.Equal(t, CloseAuthFailed, globalWire.sentCloseCode())
	assert.Equal(t, CloseAuthFailed, dedicatedWire.sentCloseCode())
	assert.Equal(t, 0, hub.ConnectionCount("user-a"))
	assert.Empty(t, hub.SubscribersOf(listID))
	assert.False(t, hub.IsSubscribed("user-a", listID))
}

func TestDisconnectAllLeavesOtherUsersAlone(t *testing.T) {
	hub := NewHub(nil)
	membership := newFakeMembership()
	listID := uuid.New().String()

	hub.Accept("user-a", ScopeGlobal, newMockConn())
	otherWire := newMockConn()
	hub.Accept("user-b", ScopeGlobal, otherWire)
	subscribeAll(t, hub, membership, listID, "user-a", "user-b")

	hub.DisconnectAll("user-a", "logged_out")

	assert.False(t, otherWire.isClosed())
	assert.Equal(t, []string{"user-b"}, hub.SubscribersOf(listID))
}

// A logout racing in-flight personal sends must never panic; the losing
// sends just report no delivery.
func TestSendToUserRacesDisconnectAll(t *testing.T) {
	for i := 0; i < 50; i++ {
		hub := NewHub(nil)
		hub.Accept("user-a", ScopeGlobal, newMockConn())
		hub.Accept("user-a", ScopeGlobal, newMockConn())

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				hub.SendToUser("user-a", NotificationFrame(nil))
			}
		}()
		go func() {
			defer wg.Done()
			hub.DisconnectAll("user-a", "logged_out")
		}()
		wg.Wait()

		assert.Equal(t, 0, hub.ConnectionCount("user-a"))
		assert.False(t, hub.SendToUser("user-a", NotificationFrame(nil)))
	}
}

func TestShutdownClosesEverything(t *testing.T) {
	hub := NewHub(nil)
	wireA := newMockConn()
	wireB := newMockConn()
	hub.Accept("user-a", ScopeGlobal, wireA)
	hub.Accept("user-b", RoomScope(uuid.New().String()), wireB)

	hub.Shutdown("server shutting down")

	assert.True(t, wireA.isClosed())
	assert.True(t, wireB.isClosed())
	assert.Equal(t, 0, hub.ConnectionCount("user-a"))
	assert.Equal(t, 0, hub.ConnectionCount("user-b"))
}

// Subscribing, being kicked, resubscribing: the index must stay consistent
// through the full cycle.
func TestKickThenResubscribe(t *testing.T) {
	hub := NewHub(nil)
	membership := newFakeMembership()
	listID := uuid.New().String()

	conn := hub.Accept("user-a", ScopeGlobal, newMockConn())
	subscribeAll(t, hub, membership, listID, "user-a")

	membership.revoke("user-a", listID)
	hub.KickFromRoom("user-a", listID, "removed_by_owner")
	assert.Empty(t, hub.SubscribersOf(listID))

	// access denied now
	ok, err := hub.Subscribe(context.Background(), "user-a", listID, membership)
	require.NoError(t, err)
	assert.False(t, ok)

	// re-invited
	membership.allow("user-a", listID)
	ok, err = hub.Subscribe(context.Background(), "user-a", listID, membership)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"user-a"}, hub.SubscribersOf(listID))

	hub.Evict(conn)
}
