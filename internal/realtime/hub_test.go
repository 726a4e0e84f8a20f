package realtime

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeGrantsInterest(t *testing.T) {
	hub := NewHub(nil)
	listID := uuid.New().String()

	conn := hub.Accept("user-a", ScopeGlobal, newMockConn())
	defer hub.Evict(conn)

	membership := newFakeMembership()
	membership.allow("user-a", listID)

	ok, err := hub.Subscribe(context.Background(), "user-a", listID, membership)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, []string{"user-a"}, hub.SubscribersOf(listID))
	assert.True(t, hub.IsSubscribed("user-a", listID))
}

func TestSubscribeDeniedMutatesNothing(t *testing.T) {
	hub := NewHub(nil)
	listID := uuid.New().String()

	conn := hub.Accept("user-a", ScopeGlobal, newMockConn())
	defer hub.Evict(conn)

	membership := newFakeMembership() // no memberships at all

	ok, err := hub.Subscribe(context.Background(), "user-a", listID, membership)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Empty(t, hub.SubscribersOf(listID))
	assert.False(t, hub.IsSubscribed("user-a", listID))
}

func TestSubscribeCheckErrorMutatesNothing(t *testing.T) {
	hub := NewHub(nil)
	listID := uuid.New().String()

	conn := hub.Accept("user-a", ScopeGlobal, newMockConn())
	defer hub.Evict(conn)

	membership := newFakeMembership()
	membership.err = errors.New("database down")

	ok, err := hub.Subscribe(context.Background(), "user-a", listID, membership)
	require.Error(t, err)
	assert.False(t, ok)
	assert.Empty(t, hub.SubscribersOf(listID))
}

func TestSubscribeWithoutConnectionIsRefused(t *testing.T) {
	hub := NewHub(nil)
	listID := uuid.New().String()

	membership := newFakeMembership()
	membership.allow("user-a", listID)

	// authorization passes, but the user holds no live connection, so no
	// edge may be created
	ok, err := hub.Subscribe(context.Background(), "user-a", listID, membership)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, hub.SubscribersOf(listID))
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	hub := NewHub(nil)
	listID := uuid.New().String()

	conn := hub.Accept("user-a", ScopeGlobal, newMockConn())
	defer hub.Evict(conn)

	membership := newFakeMembership()
	membership.allow("user-a", listID)
	_, err := hub.Subscribe(context.Background(), "user-a", listID, membership)
	require.NoError(t, err)

	hub.Unsubscribe("user-a", listID)
	assert.False(t, hub.IsSubscribed("user-a", listID))

	// second removal of the same edge is a silent no-op
	hub.Unsubscribe("user-a", listID)
	assert.False(t, hub.IsSubscribed("user-a", listID))
	assert.Empty(t, hub.SubscribersOf(listID))
}

func TestEvictIsIdempotent(t *testing.T) {
	hub := NewHub(nil)

	conn := hub.Accept("user-a", ScopeGlobal, newMockConn())
	require.Equal(t, 1, hub.ConnectionCount("user-a"))

	hub.Evict(conn)
	assert.Equal(t, 0, hub.ConnectionCount("user-a"))

	// evicting an already-absent connection must be a no-op, never an error
	hub.Evict(conn)
	assert.Equal(t, 0, hub.ConnectionCount("user-a"))
}

func TestLastEvictionCascadesSubscriptions(t *testing.T) {
	hub := NewHub(nil)
	listID := uuid.New().String()
	membership := newFakeMembership()
	membership.allow("user-a", listID)

	// two tabs, both global scope
	first := hub.Accept("user-a", ScopeGlobal, newMockConn())
	second := hub.Accept("user-a", ScopeGlobal, newMockConn())

	_, err := hub.Subscribe(context.Background(), "user-a", listID, membership)
	require.NoError(t, err)

	// one tab closes: the other keeps the subscriptions alive
	hub.Evict(first)
	assert.True(t, hub.IsSubscribed("user-a", listID))
	assert.Equal(t, []string{"user-a"}, hub.SubscribersOf(listID))

	// the last tab closes: every edge of the user is cascade-removed
	hub.Evict(second)
	assert.False(t, hub.IsSubscribed("user-a", listID))
	assert.Empty(t, hub.SubscribersOf(listID))
	assert.Equal(t, 0, hub.ConnectionCount("user-a"))
}

func TestZeroConnectionUsersOwnNoEdges(t *testing.T) {
	hub := NewHub(nil)
	membership := newFakeMembership()

	lists := []string{uuid.New().String(), uuid.New().String(), uuid.New().String()}
	conn := hub.Accept("user-a", ScopeGlobal, newMockConn())
	for _, l := range lists {
		membership.allow("user-a", l)
		ok, err := hub.Subscribe(context.Background(), "user-a", l, membership)
		require.NoError(t, err)
		require.True(t, ok)
	}

	hub.Evict(conn)

	for _, l := range lists {
		assert.Empty(t, hub.SubscribersOf(l), "list %s must have no subscribers", l)
		assert.False(t, hub.IsSubscribed("user-a", l))
	}
}

func TestSubscribersOfReturnsSnapshot(t *testing.T) {
	hub := NewHub(nil)
	listID := uuid.New().String()
	membership := newFakeMembership()
	membership.allow("user-a", listID)

	conn := hub.Accept("user-a", ScopeGlobal, newMockConn())
	defer hub.Evict(conn)
	_, err := hub.Subscribe(context.Background(), "user-a", listID, membership)
	require.NoError(t, err)

	snapshot := hub.SubscribersOf(listID)
	hub.Unsubscribe("user-a", listID)

	// the copy is unaffected by the concurrent mutation
	assert.Equal(t, []string{"user-a"}, snapshot)
	assert.Empty(t, hub.SubscribersOf(listID))
}

// A dedicated session whose membership vanishes between the handshake check
// and the implicit subscribe must be torn down with 4003, not left open and
// deaf to its own room.
func TestDedicatedSessionRefusedWhenSubscribeDenied(t *testing.T) {
	hub := NewHub(nil)
	membership := newFakeMembership() // revoked before the subscribe lands
	listID := uuid.New().String()

	wire := newMockConn()
	session := hub.Accept("user-a", RoomScope(listID), wire)

	ok, err := hub.Subscribe(context.Background(), "user-a", listID, membership)
	require.NoError(t, err)
	require.False(t, ok)

	session.Close(CloseForbidden, "not a member of this list")
	hub.Evict(session)

	assert.True(t, wire.isClosed())
	assert.Equal(t, CloseForbidden, wire.sentCloseCode())
	assert.Equal(t, 0, hub.ConnectionCount("user-a"))
	assert.Empty(t, hub.SubscribersOf(listID))
}

func TestAcceptAllowsManyConnectionsPerUser(t *testing.T) {
	hub := NewHub(nil)
	listID := uuid.New().String()

	global := hub.Accept("user-a", ScopeGlobal, newMockConn())
	dedicated := hub.Accept("user-a", RoomScope(listID), newMockConn())

	assert.Equal(t, 2, hub.ConnectionCount("user-a"))
	assert.NotEqual(t, global.ID, dedicated.ID)
	assert.True(t, global.Scope.IsGlobal())
	assert.False(t, dedicated.Scope.IsGlobal())
	assert.True(t, dedicated.Scope.Covers(listID))
	assert.False(t, dedicated.Scope.Covers(uuid.New().String()))
}
