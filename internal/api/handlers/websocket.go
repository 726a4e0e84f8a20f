package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"shoplist-service/internal/models"
	"shoplist-service/internal/realtime"
	"shoplist-service/internal/services"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// origin policy is enforced by CORS on the REST surface; tokens gate
	// the socket itself
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler owns the two session endpoints: the general-purpose socket and
// the per-list chat socket. Browsers cannot set headers on a WebSocket
// handshake, so the access token rides in the query string.
type WSHandler struct {
	hub        *realtime.Hub
	router     *realtime.EventRouter
	auth       *services.AuthService
	membership realtime.MembershipChecker
}

func NewWSHandler(hub *realtime.Hub, router *realtime.EventRouter, auth *services.AuthService, membership realtime.MembershipChecker) *WSHandler {
	return &WSHandler{hub: hub, router: router, auth: auth, membership: membership}
}

// closeWithCode refuses a handshake after the upgrade: the close frame is
// the only channel left for telling the client why.
func closeWithCode(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(5 * time.Second)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), deadline)
	_ = conn.Close()
}

// authenticate upgrades first and validates after, so a bad token gets a
// proper 4001 close frame instead of a failed HTTP handshake the client
// cannot distinguish from a network error.
func (h *WSHandler) authenticate(c *gin.Context) (*websocket.Conn, string, bool) {
	token := c.Query("token")

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Debug("websocket upgrade failed", "error", err)
		return nil, "", false
	}

	claims, err := h.auth.ValidateAccessToken(c.Request.Context(), token)
	if err != nil {
		closeWithCode(conn, realtime.CloseAuthFailed, "authentication failed")
		return nil, "", false
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		closeWithCode(conn, realtime.CloseAuthFailed, "authentication failed")
		return nil, "", false
	}
	return conn, claims.Subject, true
}

// Connect godoc
// @Summary Open a general-purpose session
// @Description Establishes a WebSocket session that can subscribe to any of the caller's lists. Auth failures close the socket with code 4001.
// @Tags websocket
// @Param token query string true "Access token"
// @Success 101 "Switching Protocols"
// @Router /ws [get]
func (h *WSHandler) Connect(c *gin.Context) {
	conn, userID, ok := h.authenticate(c)
	if !ok {
		return
	}

	session := h.hub.Accept(userID, realtime.ScopeGlobal, conn)
	h.router.Serve(session)
}

// ConnectListChat godoc
// @Summary Open a session dedicated to one list's chat
// @Description The session only carries this list's traffic. Non-members are refused with close code 4003 before any session state is created.
// @Tags websocket
// @Param id path string true "List ID"
// @Param token query string true "Access token"
// @Success 101 "Switching Protocols"
// @Failure 400 {object} models.ErrorResponse "Malformed list ID"
// @Router /ws/lists/{id}/chat [get]
func (h *WSHandler) ConnectListChat(c *gin.Context) {
	listID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "invalid list id",
		})
		return
	}

	conn, userID, ok := h.authenticate(c)
	if !ok {
		return
	}

	member, err := h.membership.IsMember(c.Request.Context(), userID, listID.String())
	if err != nil || !member {
		closeWithCode(conn, realtime.CloseForbidden, "not a member of this list")
		return
	}

	session := h.hub.Accept(userID, realtime.RoomScope(listID.String()), conn)

	// a dedicated session is implicitly interested in its list; the edge is
	// recorded so broadcasts reach it without an explicit subscribe frame.
	// Membership may have been revoked since the check above, in which case
	// the session must not stay open deaf to its own room.
	subscribed, err := h.hub.Subscribe(c.Request.Context(), userID, listID.String(), h.membership)
	if err != nil || !subscribed {
		if err != nil {
			slog.Error("implicit subscribe failed", "userID", userID, "listID", listID, "error", err)
		}
		session.Close(realtime.CloseForbidden, "not a member of this list")
		h.hub.Evict(session)
		return
	}

	h.router.Serve(session)
}
