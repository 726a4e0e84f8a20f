package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Notification types.
const (
	NotificationListInvite     = "LIST_INVITE"
	NotificationInviteAccepted = "INVITE_ACCEPTED"
	NotificationInviteRejected = "INVITE_REJECTED"
	NotificationItemAdded      = "ITEM_ADDED"
	NotificationItemPurchased  = "ITEM_PURCHASED"
	NotificationChatMessage    = "CHAT_MESSAGE"
	NotificationMemberRemoved  = "MEMBER_REMOVED"
	NotificationListUpdated    = "LIST_UPDATED"
)

/** --------------------ENTITIES-------------------- */

// Notification is a persisted personal message; delivery over a live
// session is best-effort, the row is the source of truth.
type Notification struct {
	Base
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	ShoppingListID *uuid.UUID     `gorm:"type:uuid;index" json:"shopping_list_id,omitempty"`
	Type           string         `gorm:"not null;type:varchar(40)" json:"type"`
	Payload        datatypes.JSON `gorm:"type:jsonb" json:"payload"`
	IsRead         bool           `gorm:"not null;default:false;index" json:"is_read"`
}

/** -------------------- DTOs -------------------- */

type NotificationResponse struct {
	ID             uuid.UUID      `json:"id"`
	UserID         uuid.UUID      `json:"user_id"`
	ShoppingListID *uuid.UUID     `json:"shopping_list_id,omitempty"`
	Type           string         `json:"type"`
	Payload        datatypes.JSON `json:"payload"`
	IsRead         bool           `json:"is_read"`
	CreatedAt      time.Time      `json:"created_at"`
}

func (n *Notification) ToResponse() NotificationResponse {
	return NotificationResponse{
		ID:             n.ID,
		UserID:         n.UserID,
		ShoppingListID: n.ShoppingListID,
		Type:           n.Type,
		Payload:        n.Payload,
		IsRead:         n.IsRead,
		CreatedAt:      n.CreatedAt,
	}
}
