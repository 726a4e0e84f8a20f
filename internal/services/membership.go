package services

import (
	"context"

	"github.com/google/uuid"

	"shoplist-service/internal/repositories/postgres"
)

// MembershipAdapter bridges the fan-out hub's authorization hook to the
// membership table. The hub speaks string IDs; anything unparsable is
// simply not a member.
type MembershipAdapter struct {
	lists *postgres.ListRepository
}

func NewMembershipAdapter(lists *postgres.ListRepository) *MembershipAdapter {
	return &MembershipAdapter{lists: lists}
}

func (a *MembershipAdapter) IsMember(ctx context.Context, userID, listID string) (bool, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return false, nil
	}
	lid, err := uuid.Parse(listID)
	if err != nil {
		return false, nil
	}
	return a.lists.IsMember(ctx, lid, uid)
}
