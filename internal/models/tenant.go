package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is the top-level isolation boundary; every list and every regular
// user belongs to exactly one.
type Tenant struct {
	Base
	Name     string `gorm:"uniqueIndex;not null" json:"name"`
	IsActive bool   `gorm:"not null;default:true" json:"is_active"`
}

/** -------------------- DTOs -------------------- */

type CreateTenantRequest struct {
	Name string `json:"name" binding:"required,min=3,max=100"`
}

type TenantResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (t *Tenant) ToResponse() TenantResponse {
	return TenantResponse{
		ID:        t.ID,
		Name:      t.Name,
		IsActive:  t.IsActive,
		CreatedAt: t.CreatedAt,
	}
}
