package realtime

import (
	"encoding/json"
	"fmt"
)

// FrameType tags every frame on the wire, both directions.
type FrameType string

// Inbound frame types.
const (
	FrameSubscribe   FrameType = "subscribe"
	FrameUnsubscribe FrameType = "unsubscribe"
	FramePing        FrameType = "ping"
	FrameRoomMessage FrameType = "room_message"
)

// Outbound frame types.
const (
	FrameConnected    FrameType = "connected"
	FrameSubscribed   FrameType = "subscribed"
	FrameUnsubscribed FrameType = "unsubscribed"
	FramePong         FrameType = "pong"
	FrameError        FrameType = "error"
	FrameEvent        FrameType = "event"
	FrameKicked       FrameType = "kicked"
	FrameNotification FrameType = "notification"
)

// Close codes sent when a session is refused or torn down.
const (
	CloseAuthFailed = 4001 // authentication failed or credentials revoked
	CloseForbidden  = 4003 // not authorized for the requested list
)

// List event kinds carried inside "event" frames. Producers own the data
// shape; the hub only transports it.
const (
	EventItemAdded          = "item_added"
	EventItemUpdated        = "item_updated"
	EventItemDeleted        = "item_deleted"
	EventMemberJoined       = "member_joined"
	EventMemberRemoved      = "member_removed"
	EventMemberLeft         = "member_left"
	EventInviteCreated      = "invite_created"
	EventInviteAccepted     = "invite_accepted"
	EventInviteRejected     = "invite_rejected"
	EventInviteCancelled    = "invite_cancelled"
	EventListUpdated        = "list_updated"
	EventListDeleted        = "list_deleted"
	EventChatMessage        = "chat_message"
	EventPermissionsUpdated = "permissions_updated"
)

// Frame is the JSON envelope for every message on a session.
// Payload stays raw until the frame type selects a schema for it.
type Frame struct {
	Type    FrameType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ParseFrame decodes an inbound wire frame. It only validates the envelope;
// payload validation happens per-type in the router.
func ParseFrame(raw []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}
	if f.Type == "" {
		return nil, fmt.Errorf("malformed frame: missing type")
	}
	return &f, nil
}

// SubscribePayload is the payload for subscribe and unsubscribe frames.
type SubscribePayload struct {
	ListID string `json:"list_id"`
}

// RoomMessagePayload is the payload for an inbound room_message frame.
type RoomMessagePayload struct {
	ListID  string `json:"list_id"`
	Message string `json:"message"`
}

// ErrorPayload is the payload of an outbound error frame.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// KickedPayload tells a user they lost access to a list.
type KickedPayload struct {
	ListID string `json:"list_id"`
	Reason string `json:"reason"`
}

// EventPayload wraps a business event for a list room.
type EventPayload struct {
	Event  string      `json:"event"`
	ListID string      `json:"list_id"`
	Data   interface{} `json:"data"`
}

// Envelope describes one broadcast request. It lives only for the duration
// of a single dispatch call and is never persisted.
type Envelope struct {
	Room          string
	Event         string
	Data          interface{}
	ExcludeUserID string
}

// marshalFrame builds the wire bytes for an outbound frame. A payload that
// fails to marshal is a programming error; the frame degrades to an empty
// payload rather than dropping the type tag.
func marshalFrame(t FrameType, payload interface{}) []byte {
	f := struct {
		Type    FrameType   `json:"type"`
		Payload interface{} `json:"payload"`
	}{Type: t, Payload: payload}

	data, err := json.Marshal(f)
	if err != nil {
		data, _ = json.Marshal(Frame{Type: t})
	}
	return data
}

// ErrorFrame builds an outbound error frame.
func ErrorFrame(code, message string) []byte {
	return marshalFrame(FrameError, ErrorPayload{Code: code, Message: message})
}

// EventFrame builds an outbound event frame for a list room.
func EventFrame(room, event string, data interface{}) []byte {
	return marshalFrame(FrameEvent, EventPayload{Event: event, ListID: room, Data: data})
}

// KickedFrame builds the notice sent to every session of a kicked user.
func KickedFrame(room, reason string) []byte {
	return marshalFrame(FrameKicked, KickedPayload{ListID: room, Reason: reason})
}

// NotificationFrame wraps a personal notification payload.
func NotificationFrame(payload interface{}) []byte {
	return marshalFrame(FrameNotification, payload)
}
