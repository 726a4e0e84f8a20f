package models

import (
	"time"

	"github.com/google/uuid"
)

/** --------------------ENTITIES-------------------- */

// ShoppingList is the collaborative room everything else hangs off: items,
// members, chat and real-time subscriptions all reference it.
type ShoppingList struct {
	Base
	TenantID    uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	OwnerID     uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	Name        string    `gorm:"not null;type:varchar(255)" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`

	Members []ShoppingListMember `gorm:"foreignKey:ShoppingListID" json:"members,omitempty"`
	Items   []Item               `gorm:"foreignKey:ShoppingListID" json:"items,omitempty"`
}

// Shopping list member roles.
const (
	MemberRoleOwner  = "OWNER"
	MemberRoleMember = "MEMBER"
)

// ShoppingListMember records one user's membership in one list, with the
// per-member permissions the owner can tune. The (list, user) pair is
// unique; the fan-out core treats its existence as authorization.
type ShoppingListMember struct {
	Base
	ShoppingListID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_members_list_user;index" json:"shopping_list_id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_members_list_user;index" json:"user_id"`
	Role           string    `gorm:"not null;type:varchar(20);default:'MEMBER'" json:"role"`
	CanView        bool      `gorm:"not null;default:true" json:"can_view"`
	CanAddItem     bool      `gorm:"not null;default:true" json:"can_add_item"`
	CanUpdateItem  bool      `gorm:"not null;default:true" json:"can_update_item"`
	CanDeleteItem  bool      `gorm:"not null;default:false" json:"can_delete_item"`
	JoinedAt       time.Time `json:"joined_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

/** -------------------- DTOs -------------------- */

type CreateListRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=255"`
	Description string `json:"description" binding:"max=2000"`
}

type UpdateListRequest struct {
	Name        *string `json:"name,omitempty" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=2000"`
}

type UpdatePermissionsRequest struct {
	CanView       *bool `json:"can_view,omitempty"`
	CanAddItem    *bool `json:"can_add_item,omitempty"`
	CanUpdateItem *bool `json:"can_update_item,omitempty"`
	CanDeleteItem *bool `json:"can_delete_item,omitempty"`
}

type ListResponse struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	MemberCount int       `json:"member_count"`
	ItemCount   int       `json:"item_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type MemberResponse struct {
	ID             uuid.UUID `json:"id"`
	ShoppingListID uuid.UUID `json:"shopping_list_id"`
	UserID         uuid.UUID `json:"user_id"`
	Username       string    `json:"username,omitempty"`
	Role           string    `json:"role"`
	CanView        bool      `json:"can_view"`
	CanAddItem     bool      `json:"can_add_item"`
	CanUpdateItem  bool      `json:"can_update_item"`
	CanDeleteItem  bool      `json:"can_delete_item"`
	JoinedAt       time.Time `json:"joined_at"`
}

func (l *ShoppingList) ToResponse() ListResponse {
	return ListResponse{
		ID:          l.ID,
		TenantID:    l.TenantID,
		OwnerID:     l.OwnerID,
		Name:        l.Name,
		Description: l.Description,
		MemberCount: len(l.Members),
		ItemCount:   len(l.Items),
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

func (m *ShoppingListMember) ToResponse() MemberResponse {
	resp := MemberResponse{
		ID:             m.ID,
		ShoppingListID: m.ShoppingListID,
		UserID:         m.UserID,
		Role:           m.Role,
		CanView:        m.CanView,
		CanAddItem:     m.CanAddItem,
		CanUpdateItem:  m.CanUpdateItem,
		CanDeleteItem:  m.CanDeleteItem,
		JoinedAt:       m.JoinedAt,
	}
	if m.User != nil {
		resp.Username = m.User.Username
	}
	return resp
}
