package models

import (
	"time"

	"github.com/google/uuid"
)

/** --------------------ENTITIES-------------------- */

// ChatMessage is one message in a list's chat. Soft-deleted rather than
// removed so "message deleted" still occupies its place in history.
type ChatMessage struct {
	Base
	ShoppingListID uuid.UUID `gorm:"type:uuid;not null;index" json:"shopping_list_id"`
	SenderID       uuid.UUID `gorm:"type:uuid;not null;index" json:"sender_id"`
	Content        string    `gorm:"not null;type:text" json:"content"`

	Sender *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

/** -------------------- DTOs -------------------- */

type ChatMessageRequest struct {
	Message string `json:"message" binding:"required,min=1,max=4000"`
}

type ChatMessageResponse struct {
	ID             uuid.UUID `json:"id"`
	ShoppingListID uuid.UUID `json:"shopping_list_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	SenderName     string    `json:"sender_name"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}

func (m *ChatMessage) ToResponse() ChatMessageResponse {
	resp := ChatMessageResponse{
		ID:             m.ID,
		ShoppingListID: m.ShoppingListID,
		SenderID:       m.SenderID,
		Message:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
	if m.Sender != nil {
		resp.SenderName = m.Sender.Username
	}
	return resp
}
