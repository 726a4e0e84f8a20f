package realtime

// Delivery is best-effort by design: no retry, no backlog, no
// acknowledgment. A dispatch call never fails because of a dead peer; dead
// connections are cleaned up after the delivery pass and a missed event is
// never replayed.

// BroadcastToRoom delivers a pre-marshaled frame to every eligible
// connection of every subscriber of a list, skipping excludeUserID. A
// connection is eligible when its scope is global or exactly this list; a
// session dedicated to a different list never sees this list's events.
//
// The subscriber set and per-user connection sets are snapshots; eviction
// of connections found dead happens only after the full delivery pass.
func (h *Hub) BroadcastToRoom(listID string, data []byte, excludeUserID string) {
	var dead []*Connection

	for _, userID := range h.SubscribersOf(listID) {
		if userID == excludeUserID {
			continue
		}
		for _, c := range h.ConnectionsOf(userID) {
			if !c.Scope.Covers(listID) {
				continue
			}
			if err := c.enqueue(data); err != nil {
				dead = append(dead, c)
			}
		}
	}

	for _, c := range dead {
		h.Evict(c)
	}
}

// BroadcastEvent wraps a business event in an event frame and fans it out
// to the list's subscribers. Business services call this on every committed
// state change; they own the data shape.
func (h *Hub) BroadcastEvent(env Envelope) {
	h.BroadcastToRoom(env.Room, EventFrame(env.Room, env.Event, env.Data), env.ExcludeUserID)
}

// SendToUser delivers a frame to every connection of one user regardless of
// scope. Used for personal notifications that are not tied to a list room.
// It reports whether at least one connection accepted the write.
func (h *Hub) SendToUser(userID string, data []byte) bool {
	var dead []*Connection
	delivered := false

	for _, c := range h.ConnectionsOf(userID) {
		if err := c.enqueue(data); err != nil {
			dead = append(dead, c)
			continue
		}
		delivered = true
	}

	for _, c := range dead {
		h.Evict(c)
	}
	return delivered
}
