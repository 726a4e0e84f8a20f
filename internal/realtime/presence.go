package realtime

// KickFromRoom revokes a user's live access to one list. Every session of
// the user gets the kicked notice first, so even a tab that never opened
// the list learns the access is gone. Then only the sessions dedicated to
// that list are closed with 4003; global-scope sessions stay open. Finally
// the subscription edge is dropped.
//
// A user may hold one general-purpose session and one list-dedicated
// session at the same time; losing access to the list tears down the
// dedicated channel without disconnecting the general one.
func (h *Hub) KickFromRoom(userID, listID, reason string) {
	h.SendToUser(userID, KickedFrame(listID, reason))

	for _, c := range h.ConnectionsOf(userID) {
		if c.Scope == RoomScope(listID) && !c.Scope.IsGlobal() {
			c.closeWith(CloseForbidden, reason)
			h.Evict(c)
		}
	}

	h.Unsubscribe(userID, listID)
	h.logger.Info("user kicked from list",
		"userID", userID, "listID", listID, "reason", reason)
}

// DisconnectAll closes every connection a user owns, across all scopes, and
// returns only when all of them are down. The logout path depends on this
// being synchronous: once the caller reports success there must be no open
// socket still receiving events on revoked credentials.
//
// A socket that will not close cleanly is swallowed per-socket; its
// registry entry is removed regardless so stale entries never linger.
func (h *Hub) DisconnectAll(userID, reason string) {
	conns := h.ConnectionsOf(userID)
	for _, c := range conns {
		c.closeWith(CloseAuthFailed, reason)
		h.Evict(c)
	}
	h.logger.Info("user disconnected everywhere",
		"userID", userID, "connections", len(conns), "reason", reason)
}
