package realtime

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// MembershipChecker authorizes (user, list) interest against the membership
// graph. The hub never looks at business tables itself; this is its only
// window into them.
type MembershipChecker interface {
	IsMember(ctx context.Context, userID, listID string) (bool, error)
}

// Hub owns all process-lifetime fan-out state: the user-to-connections
// registry and the list subscription index. Both are guarded by one mutex
// because eviction cascades across them atomically. Delivery never happens
// under the lock; dispatch methods take snapshots first and apply derived
// mutations (dead-connection eviction) afterwards.
//
// The hub is constructed once in main and injected everywhere it is needed.
type Hub struct {
	mu sync.RWMutex

	// user ID -> live connections
	connections map[string]map[*Connection]struct{}

	// user ID -> subscribed list IDs
	userRooms map[string]map[string]struct{}

	// list ID -> subscribed user IDs, maintained in lock-step with
	// userRooms so broadcasts avoid scanning every user
	roomUsers map[string]map[string]struct{}

	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		connections: make(map[string]map[*Connection]struct{}),
		userRooms:   make(map[string]map[string]struct{}),
		roomUsers:   make(map[string]map[string]struct{}),
		logger:      logger,
	}
}

// Accept registers a new connection for a user. Authentication has already
// happened; a Connection is never created for a rejected session. The first
// connection of a user initializes their empty interest set.
func (h *Hub) Accept(userID string, scope Scope, conn Conn) *Connection {
	c := newConnection(userID, scope, conn)

	h.mu.Lock()
	if h.connections[userID] == nil {
		h.connections[userID] = make(map[*Connection]struct{})
	}
	h.connections[userID][c] = struct{}{}
	if h.userRooms[userID] == nil {
		h.userRooms[userID] = make(map[string]struct{})
	}
	h.mu.Unlock()

	c.state.Store(StateOpen)
	h.logger.Info("connection accepted",
		"connectionID", c.ID, "userID", userID, "scope", string(scope))
	return c
}

// Evict removes a connection from the registry and closes its socket. If it
// was the user's last connection, every subscription edge of that user is
// cascade-removed. Eviction is triggered both by explicit closes and by
// failed-send cleanup discovered mid-broadcast, so it is idempotent:
// evicting an absent connection is a no-op, never an error.
func (h *Hub) Evict(c *Connection) {
	h.mu.Lock()
	conns, ok := h.connections[c.UserID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := conns[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(conns, c)
	last := len(conns) == 0
	if last {
		delete(h.connections, c.UserID)
		for room := range h.userRooms[c.UserID] {
			h.removeRoomUserLocked(room, c.UserID)
		}
		delete(h.userRooms, c.UserID)
	}
	h.mu.Unlock()

	c.closeWith(websocket.CloseNormalClosure, "")
	h.logger.Info("connection evicted",
		"connectionID", c.ID, "userID", c.UserID, "cascade", last)
}

func (h *Hub) removeRoomUserLocked(room, userID string) {
	users, ok := h.roomUsers[room]
	if !ok {
		return
	}
	delete(users, userID)
	if len(users) == 0 {
		delete(h.roomUsers, room)
	}
}

// Subscribe records a user's interest in a list after the authorization
// check passes. On a denied or failed check no state is mutated at all.
//
// The membership lookup is a blocking call, so it runs before the lock is
// taken; the user may disconnect while it is in flight. The re-check under
// the lock keeps the invariant that a user with zero live connections owns
// no subscription edges.
func (h *Hub) Subscribe(ctx context.Context, userID, listID string, auth MembershipChecker) (bool, error) {
	ok, err := auth.IsMember(ctx, userID, listID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.connections[userID]) == 0 {
		return false, nil
	}
	if h.roomUsers[listID] == nil {
		h.roomUsers[listID] = make(map[string]struct{})
	}
	h.roomUsers[listID][userID] = struct{}{}
	if h.userRooms[userID] == nil {
		h.userRooms[userID] = make(map[string]struct{})
	}
	h.userRooms[userID][listID] = struct{}{}
	return true, nil
}

// Unsubscribe removes the (user, list) edge in both directions. Absent
// edges are a silent no-op.
func (h *Hub) Unsubscribe(userID, listID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeRoomUserLocked(listID, userID)
	if rooms, ok := h.userRooms[userID]; ok {
		delete(rooms, listID)
	}
}

// SubscribersOf returns a copy of the user IDs subscribed to a list, so
// callers can iterate while other goroutines mutate the index.
func (h *Hub) SubscribersOf(listID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	users := h.roomUsers[listID]
	out := make([]string, 0, len(users))
	for u := range users {
		out = append(out, u)
	}
	return out
}

// IsSubscribed reports whether the (user, list) edge exists.
func (h *Hub) IsSubscribed(userID, listID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.userRooms[userID][listID]
	return ok
}

// ConnectionsOf returns a snapshot of a user's live connections.
func (h *Hub) ConnectionsOf(userID string) []*Connection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conns := h.connections[userID]
	out := make([]*Connection, 0, len(conns))
	for c := range conns {
		out = append(out, c)
	}
	return out
}

// ConnectionCount returns the number of live connections a user owns.
func (h *Hub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[userID])
}

// Shutdown force-closes every connection. Fan-out state is process-lifetime
// scoped; this is its conceptual destruction at process exit.
func (h *Hub) Shutdown(reason string) {
	h.mu.RLock()
	all := make([]*Connection, 0)
	for _, conns := range h.connections {
		for c := range conns {
			all = append(all, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range all {
		c.closeWith(websocket.CloseGoingAway, reason)
		h.Evict(c)
	}
	h.logger.Info("hub shut down", "closedConnections", len(all))
}
