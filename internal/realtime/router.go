package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

const collaboratorTimeout = 10 * time.Second

// Error codes carried in error frames. A soft error never closes the
// connection; the sender just hears what went wrong.
const (
	ErrCodeInvalidMessage = "INVALID_MESSAGE"
	ErrCodeUnknownType    = "UNKNOWN_TYPE"
	ErrCodeInvalidListID  = "INVALID_LIST_ID"
	ErrCodeNotAMember     = "NOT_A_MEMBER"
	ErrCodeEmptyMessage   = "EMPTY_MESSAGE"
	ErrCodeInternal       = "INTERNAL_ERROR"
)

// MessageStore persists a chat message sent over a session and returns the
// payload to broadcast. The router never touches business tables directly.
type MessageStore interface {
	SaveRoomMessage(ctx context.Context, userID, listID, content string) (interface{}, error)
}

// EventRouter parses inbound frames and dispatches them onto the hub. It is
// the only component that knows the wire format.
type EventRouter struct {
	hub        *Hub
	membership MembershipChecker
	messages   MessageStore
	logger     *slog.Logger
}

func NewEventRouter(hub *Hub, membership MembershipChecker, messages MessageStore, logger *slog.Logger) *EventRouter {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventRouter{
		hub:        hub,
		membership: membership,
		messages:   messages,
		logger:     logger,
	}
}

// Serve runs a connection's session: confirms the connect, pumps frames
// through HandleFrame, and evicts the connection when the peer goes away.
// It blocks until the session ends.
func (r *EventRouter) Serve(c *Connection) {
	c.started.Store(true)
	go c.writePump()

	_ = c.enqueue(marshalFrame(FrameConnected, map[string]string{
		"connection_id": c.ID,
		"scope":         string(c.Scope),
	}))

	c.readPump(func(raw []byte) {
		r.HandleFrame(c, raw)
	})

	r.hub.Evict(c)
}

// HandleFrame processes one inbound frame. Malformed payloads and unknown
// types produce a structured error frame to the sender only; a single bad
// message never closes the connection.
func (r *EventRouter) HandleFrame(c *Connection, raw []byte) {
	frame, err := ParseFrame(raw)
	if err != nil {
		r.softError(c, ErrCodeInvalidMessage, "invalid message format")
		return
	}

	switch frame.Type {
	case FrameSubscribe:
		r.handleSubscribe(c, frame.Payload)
	case FrameUnsubscribe:
		r.handleUnsubscribe(c, frame.Payload)
	case FramePing:
		_ = c.enqueue(marshalFrame(FramePong, struct{}{}))
	case FrameRoomMessage:
		r.handleRoomMessage(c, frame.Payload)
	default:
		r.softError(c, ErrCodeUnknownType, "unknown message type: "+string(frame.Type))
	}
}

func (r *EventRouter) handleSubscribe(c *Connection, payload json.RawMessage) {
	listID, ok := r.parseListID(c, payload)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), collaboratorTimeout)
	defer cancel()

	subscribed, err := r.hub.Subscribe(ctx, c.UserID, listID, r.membership)
	if err != nil {
		r.logger.Error("subscribe authorization failed",
			"userID", c.UserID, "listID", listID, "error", err)
		r.softError(c, ErrCodeInternal, "subscription failed")
		return
	}
	if !subscribed {
		r.softError(c, ErrCodeNotAMember, "cannot subscribe to list "+listID+": not a member")
		return
	}

	_ = c.enqueue(marshalFrame(FrameSubscribed, SubscribePayload{ListID: listID}))
}

func (r *EventRouter) handleUnsubscribe(c *Connection, payload json.RawMessage) {
	listID, ok := r.parseListID(c, payload)
	if !ok {
		return
	}

	r.hub.Unsubscribe(c.UserID, listID)
	_ = c.enqueue(marshalFrame(FrameUnsubscribed, SubscribePayload{ListID: listID}))
}

// handleRoomMessage re-validates membership at send time, not only at
// subscribe time: access may have been revoked mid-session. Only then is
// the message persisted and broadcast.
func (r *EventRouter) handleRoomMessage(c *Connection, payload json.RawMessage) {
	var p RoomMessagePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		r.softError(c, ErrCodeInvalidMessage, "invalid room_message payload")
		return
	}

	// a list-dedicated session implies the target list
	if p.ListID == "" && !c.Scope.IsGlobal() {
		p.ListID = string(c.Scope)
	}
	if _, err := uuid.Parse(p.ListID); err != nil {
		r.softError(c, ErrCodeInvalidListID, "invalid list_id format")
		return
	}
	p.Message = strings.TrimSpace(p.Message)
	if p.Message == "" {
		r.softError(c, ErrCodeEmptyMessage, "message content cannot be empty")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), collaboratorTimeout)
	defer cancel()

	member, err := r.membership.IsMember(ctx, c.UserID, p.ListID)
	if err != nil {
		r.logger.Error("room message authorization failed",
			"userID", c.UserID, "listID", p.ListID, "error", err)
		r.softError(c, ErrCodeInternal, "message delivery failed")
		return
	}
	if !member {
		r.softError(c, ErrCodeNotAMember, "you are no longer a member of this list")
		return
	}

	broadcast, err := r.messages.SaveRoomMessage(ctx, c.UserID, p.ListID, p.Message)
	if err != nil {
		r.logger.Error("room message persistence failed",
			"userID", c.UserID, "listID", p.ListID, "error", err)
		r.softError(c, ErrCodeInternal, "message delivery failed")
		return
	}

	r.hub.BroadcastToRoom(p.ListID, marshalFrame(FrameRoomMessage, broadcast), "")
}

func (r *EventRouter) parseListID(c *Connection, payload json.RawMessage) (string, bool) {
	var p SubscribePayload
	if err := json.Unmarshal(payload, &p); err != nil || p.ListID == "" {
		r.softError(c, ErrCodeInvalidMessage, "missing list_id in payload")
		return "", false
	}
	if _, err := uuid.Parse(p.ListID); err != nil {
		r.softError(c, ErrCodeInvalidListID, "invalid list_id format")
		return "", false
	}
	return p.ListID, true
}

func (r *EventRouter) softError(c *Connection, code, message string) {
	_ = c.enqueue(ErrorFrame(code, message))
}
