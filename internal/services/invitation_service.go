package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shoplist-service/internal/models"
	"shoplist-service/internal/realtime"
	"shoplist-service/internal/repositories/postgres"
)

const invitationTTL = 7 * 24 * time.Hour

// InvitationService runs the invite lifecycle: an owner invites an email
// address, the invitee resolves an opaque token to accept or reject, and
// acceptance is the only path that creates a membership row.
type InvitationService struct {
	invitations   *postgres.InvitationRepository
	lists         *postgres.ListRepository
	users         *postgres.UserRepository
	redis         *RedisService
	hub           *realtime.Hub
	notifications *NotificationService
}

func NewInvitationService(invitations *postgres.InvitationRepository, lists *postgres.ListRepository, users *postgres.UserRepository, redis *RedisService, hub *realtime.Hub, notifications *NotificationService) *InvitationService {
	return &InvitationService{
		invitations:   invitations,
		lists:         lists,
		users:         users,
		redis:         redis,
		hub:           hub,
		notifications: notifications,
	}
}

// Create issues an invitation and returns the opaque token the invitee will
// redeem. If the invitee already has an account they also get a
// notification immediately.
func (s *InvitationService) Create(ctx context.Context, listID, actorID uuid.UUID, req *models.CreateInvitationRequest) (*models.InvitationResponse, string, error) {
	actor, err := s.lists.GetMember(ctx, listID, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrNotMember
		}
		return nil, "", fmt.Errorf("lookup membership: %w", err)
	}
	if actor.Role != models.MemberRoleOwner {
		return nil, "", ErrPermissionDenied
	}

	if invitee, err := s.users.GetByEmail(ctx, req.InviteeEmail); err == nil {
		member, merr := s.lists.IsMember(ctx, listID, invitee.ID)
		if merr != nil {
			return nil, "", fmt.Errorf("check membership: %w", merr)
		}
		if member {
			return nil, "", ErrAlreadyMember
		}
	}

	if _, err := s.invitations.GetPendingByListAndEmail(ctx, listID, req.InviteeEmail); err == nil {
		return nil, "", ErrInvitationDuplicate
	}

	inv := models.Invitation{
		ShoppingListID: listID,
		InviterID:      actorID,
		InviteeEmail:   req.InviteeEmail,
		Status:         models.InviteStatusPending,
		ExpiresAt:      time.Now().UTC().Add(invitationTTL),
	}
	if err := s.invitations.Create(ctx, &inv); err != nil {
		return nil, "", fmt.Errorf("create invitation: %w", err)
	}

	token := uuid.NewString()
	if err := s.redis.SetInvitationToken(ctx, token, inv.ID.String(), invitationTTL); err != nil {
		return nil, "", fmt.Errorf("store invitation token: %w", err)
	}

	room := listID.String()
	s.hub.BroadcastEvent(realtime.Envelope{
		Room:          room,
		Event:         realtime.EventInviteCreated,
		Data:          inv.ToResponse(),
		ExcludeUserID: actorID.String(),
	})

	if invitee, err := s.users.GetByEmail(ctx, req.InviteeEmail); err == nil {
		if nerr := s.notifications.Notify(ctx, invitee.ID, &listID, models.NotificationListInvite, map[string]interface{}{
			"list_id":       room,
			"invitation_id": inv.ID.String(),
			"token":         token,
		}); nerr != nil {
			slog.Error("notify invitee", "email", req.InviteeEmail, "error", nerr)
		}
	}

	resp := inv.ToResponse()
	return &resp, token, nil
}

// resolve exchanges a token for its pending invitation, marking it expired
// in passing when its window has closed.
func (s *InvitationService) resolve(ctx context.Context, token string) (*models.Invitation, error) {
	invID, err := s.redis.GetInvitationToken(ctx, token)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(invID)
	if err != nil {
		return nil, ErrInvitationNotFound
	}
	inv, err := s.invitations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("lookup invitation: %w", err)
	}
	if inv.Expired(time.Now().UTC()) {
		inv.Status = models.InviteStatusExpired
		if uerr := s.invitations.Update(ctx, inv); uerr != nil {
			slog.Error("mark invitation expired", "invitationID", inv.ID, "error", uerr)
		}
		return nil, ErrInvitationExpired
	}
	if inv.Status != models.InviteStatusPending {
		return nil, ErrInvitationNotPending
	}
	return inv, nil
}

// Accept redeems the token for the calling user, creating their membership
// and announcing them to the room.
func (s *InvitationService) Accept(ctx context.Context, token string, userID uuid.UUID) (*models.MemberResponse, error) {
	inv, err := s.resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if user.Email != inv.InviteeEmail {
		return nil, ErrInviteeMismatch
	}

	member := models.ShoppingListMember{
		ShoppingListID: inv.ShoppingListID,
		UserID:         userID,
		Role:           models.MemberRoleMember,
		CanView:        true,
		CanAddItem:     true,
		CanUpdateItem:  true,
		CanDeleteItem:  false,
		JoinedAt:       time.Now().UTC(),
	}
	if err := s.lists.AddMember(ctx, &member); err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}

	inv.Status = models.InviteStatusAccepted
	if err := s.invitations.Update(ctx, inv); err != nil {
		return nil, fmt.Errorf("update invitation: %w", err)
	}
	if err := s.redis.DeleteInvitationToken(ctx, token); err != nil {
		slog.Error("delete invitation token", "invitationID", inv.ID, "error", err)
	}

	room := inv.ShoppingListID.String()
	s.hub.BroadcastEvent(realtime.Envelope{
		Room:          room,
		Event:         realtime.EventInviteAccepted,
		Data:          map[string]interface{}{"invitation_id": inv.ID.String(), "list_id": room, "user_id": userID.String()},
		ExcludeUserID: userID.String(),
	})
	s.hub.BroadcastEvent(realtime.Envelope{
		Room:          room,
		Event:         realtime.EventMemberJoined,
		Data:          map[string]interface{}{"list_id": room, "user_id": userID.String(), "username": user.Username},
		ExcludeUserID: userID.String(),
	})

	listID := inv.ShoppingListID
	if err := s.notifications.Notify(ctx, inv.InviterID, &listID, models.NotificationInviteAccepted, map[string]interface{}{
		"list_id":  room,
		"user_id":  userID.String(),
		"username": user.Username,
	}); err != nil {
		slog.Error("notify inviter", "invitationID", inv.ID, "error", err)
	}

	resp := member.ToResponse()
	return &resp, nil
}

// Reject declines the invitation without touching the membership table.
func (s *InvitationService) Reject(ctx context.Context, token string, userID uuid.UUID) error {
	inv, err := s.resolve(ctx, token)
	if err != nil {
		return err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return ErrUserNotFound
	}
	if user.Email != inv.InviteeEmail {
		return ErrInviteeMismatch
	}

	inv.Status = models.InviteStatusRejected
	if err := s.invitations.Update(ctx, inv); err != nil {
		return fmt.Errorf("update invitation: %w", err)
	}
	if err := s.redis.DeleteInvitationToken(ctx, token); err != nil {
		slog.Error("delete invitation token", "invitationID", inv.ID, "error", err)
	}

	listID := inv.ShoppingListID
	s.hub.BroadcastEvent(realtime.Envelope{
		Room:  listID.String(),
		Event: realtime.EventInviteRejected,
		Data:  map[string]interface{}{"invitation_id": inv.ID.String(), "list_id": listID.String()},
	})
	if err := s.notifications.Notify(ctx, inv.InviterID, &listID, models.NotificationInviteRejected, map[string]interface{}{
		"list_id": listID.String(),
		"email":   inv.InviteeEmail,
	}); err != nil {
		slog.Error("notify inviter", "invitationID", inv.ID, "error", err)
	}
	return nil
}

// Cancel withdraws a pending invitation. Only the inviter or the list owner
// may cancel. The Redis token is left to expire; a cancelled invitation
// fails the status check on redemption anyway.
func (s *InvitationService) Cancel(ctx context.Context, invitationID, actorID uuid.UUID) error {
	inv, err := s.invitations.GetByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvitationNotFound
		}
		return fmt.Errorf("lookup invitation: %w", err)
	}
	if inv.Status != models.InviteStatusPending {
		return ErrInvitationNotPending
	}

	if inv.InviterID != actorID {
		member, merr := s.lists.GetMember(ctx, inv.ShoppingListID, actorID)
		if merr != nil || member.Role != models.MemberRoleOwner {
			return ErrPermissionDenied
		}
	}

	inv.Status = models.InviteStatusCancelled
	if err := s.invitations.Update(ctx, inv); err != nil {
		return fmt.Errorf("update invitation: %w", err)
	}

	room := inv.ShoppingListID.String()
	s.hub.BroadcastEvent(realtime.Envelope{
		Room:          room,
		Event:         realtime.EventInviteCancelled,
		Data:          map[string]interface{}{"invitation_id": inv.ID.String(), "list_id": room},
		ExcludeUserID: actorID.String(),
	})
	return nil
}

// ListForList returns a list's invitations to its owner.
func (s *InvitationService) ListForList(ctx context.Context, listID, actorID uuid.UUID) ([]models.InvitationResponse, error) {
	member, err := s.lists.GetMember(ctx, listID, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotMember
		}
		return nil, fmt.Errorf("lookup membership: %w", err)
	}
	if member.Role != models.MemberRoleOwner {
		return nil, ErrPermissionDenied
	}

	invs, err := s.invitations.GetByList(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	out := make([]models.InvitationResponse, len(invs))
	for i := range invs {
		out[i] = invs[i].ToResponse()
	}
	return out, nil
}
