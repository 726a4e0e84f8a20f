package models

import (
	"time"

	"github.com/google/uuid"
)

// Invitation statuses.
const (
	InviteStatusPending   = "PENDING"
	InviteStatusAccepted  = "ACCEPTED"
	InviteStatusRejected  = "REJECTED"
	InviteStatusExpired   = "EXPIRED"
	InviteStatusCancelled = "CANCELLED"
)

/** --------------------ENTITIES-------------------- */

// Invitation asks a user to join a shopping list. Acceptance creates the
// membership edge; every other terminal status leaves the list untouched.
type Invitation struct {
	Base
	ShoppingListID uuid.UUID `gorm:"type:uuid;not null;index" json:"shopping_list_id"`
	InviterID      uuid.UUID `gorm:"type:uuid;not null" json:"inviter_id"`
	InviteeEmail   string    `gorm:"not null;index" json:"invitee_email"`
	Status         string    `gorm:"not null;type:varchar(20);default:'PENDING'" json:"status"`
	ExpiresAt      time.Time `gorm:"not null" json:"expires_at"`
}

// Expired reports whether the invitation is past its expiry but not yet
// marked so in the database.
func (i *Invitation) Expired(now time.Time) bool {
	return i.Status == InviteStatusPending && now.After(i.ExpiresAt)
}

/** -------------------- DTOs -------------------- */

type CreateInvitationRequest struct {
	InviteeEmail string `json:"invitee_email" binding:"required,email"`
}

type InvitationResponse struct {
	ID             uuid.UUID `json:"id"`
	ShoppingListID uuid.UUID `json:"shopping_list_id"`
	InviterID      uuid.UUID `json:"inviter_id"`
	InviteeEmail   string    `json:"invitee_email"`
	Status         string    `json:"status"`
	ExpiresAt      time.Time `json:"expires_at"`
	CreatedAt      time.Time `json:"created_at"`
}

func (i *Invitation) ToResponse() InvitationResponse {
	return InvitationResponse{
		ID:             i.ID,
		ShoppingListID: i.ShoppingListID,
		InviterID:      i.InviterID,
		InviteeEmail:   i.InviteeEmail,
		Status:         i.Status,
		ExpiresAt:      i.ExpiresAt,
		CreatedAt:      i.CreatedAt,
	}
}
