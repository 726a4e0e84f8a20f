package models

import (
	"time"

	"github.com/google/uuid"
)

// Item statuses.
const (
	ItemStatusPending   = "PENDING"
	ItemStatusPurchased = "PURCHASED"
)

/** --------------------ENTITIES-------------------- */

// Item is one entry on a shopping list.
type Item struct {
	Base
	ShoppingListID uuid.UUID  `gorm:"type:uuid;not null;index" json:"shopping_list_id"`
	AddedBy        *uuid.UUID `gorm:"type:uuid;index" json:"added_by,omitempty"`
	Name           string     `gorm:"not null;type:varchar(255)" json:"name"`
	Quantity       int        `gorm:"not null;default:1;check:quantity > 0" json:"quantity"`
	Status         string     `gorm:"not null;type:varchar(20);default:'PENDING'" json:"status"`
}

/** -------------------- DTOs -------------------- */

type CreateItemRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=255"`
	Quantity int    `json:"quantity" binding:"omitempty,min=1"`
}

type UpdateItemRequest struct {
	Name     *string `json:"name,omitempty" binding:"omitempty,min=1,max=255"`
	Quantity *int    `json:"quantity,omitempty" binding:"omitempty,min=1"`
	Status   *string `json:"status,omitempty" binding:"omitempty,oneof=PENDING PURCHASED"`
}

type ItemResponse struct {
	ID             uuid.UUID  `json:"id"`
	ShoppingListID uuid.UUID  `json:"shopping_list_id"`
	AddedBy        *uuid.UUID `json:"added_by,omitempty"`
	Name           string     `json:"name"`
	Quantity       int        `json:"quantity"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (i *Item) ToResponse() ItemResponse {
	return ItemResponse{
		ID:             i.ID,
		ShoppingListID: i.ShoppingListID,
		AddedBy:        i.AddedBy,
		Name:           i.Name,
		Quantity:       i.Quantity,
		Status:         i.Status,
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
	}
}
