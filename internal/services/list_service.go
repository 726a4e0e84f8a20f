package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shoplist-service/internal/adapters/kafka"
	"shoplist-service/internal/models"
	"shoplist-service/internal/realtime"
	"shoplist-service/internal/repositories/postgres"
)

// ListService owns shopping list and membership lifecycle. Every committed
// change fans out to the list's live subscribers with the actor excluded;
// the actor already knows from the HTTP response.
type ListService struct {
	lists         *postgres.ListRepository
	hub           *realtime.Hub
	notifications *NotificationService
	activity      *kafka.ActivityProducer
}

func NewListService(lists *postgres.ListRepository, hub *realtime.Hub, notifications *NotificationService, activity *kafka.ActivityProducer) *ListService {
	return &ListService{
		lists:         lists,
		hub:           hub,
		notifications: notifications,
		activity:      activity,
	}
}

// requireMember loads the actor's membership row or fails with ErrNotMember.
func (s *ListService) requireMember(ctx context.Context, listID, userID uuid.UUID) (*models.ShoppingListMember, error) {
	member, err := s.lists.GetMember(ctx, listID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotMember
		}
		return nil, fmt.Errorf("lookup membership: %w", err)
	}
	return member, nil
}

func (s *ListService) requireOwner(ctx context.Context, listID, userID uuid.UUID) (*models.ShoppingListMember, error) {
	member, err := s.requireMember(ctx, listID, userID)
	if err != nil {
		return nil, err
	}
	if member.Role != models.MemberRoleOwner {
		return nil, ErrPermissionDenied
	}
	return member, nil
}

func (s *ListService) publishActivity(ctx context.Context, event string, tenantID, listID, actorID uuid.UUID, data interface{}) {
	if s.activity == nil {
		return
	}
	s.activity.Publish(ctx, kafka.ActivityEvent{
		Event:    event,
		TenantID: tenantID.String(),
		ListID:   listID.String(),
		ActorID:  actorID.String(),
		Data:     data,
	})
}

func (s *ListService) Create(ctx context.Context, tenantID, ownerID uuid.UUID, req *models.CreateListRequest) (*models.ListResponse, error) {
	list := models.ShoppingList{
		TenantID:    tenantID,
		OwnerID:     ownerID,
		Name:        req.Name,
		Description: req.Description,
	}
	if err := s.lists.Create(ctx, &list); err != nil {
		return nil, fmt.Errorf("create list: %w", err)
	}

	s.publishActivity(ctx, "list_created", tenantID, list.ID, ownerID, list.ToResponse())
	slog.Info("list created", "listID", list.ID, "ownerID", ownerID)

	resp := list.ToResponse()
	resp.MemberCount = 1
	return &resp, nil
}

func (s *ListService) Get(ctx context.Context, listID, userID uuid.UUID) (*models.ShoppingList, error) {
	if _, err := s.requireMember(ctx, listID, userID); err != nil {
		return nil, err
	}
	list, err := s.lists.GetByID(ctx, listID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListNotFound
		}
		return nil, fmt.Errorf("lookup list: %w", err)
	}
	return list, nil
}

func (s *ListService) GetUserLists(ctx context.Context, tenantID, userID uuid.UUID) ([]models.ListResponse, error) {
	lists, err := s.lists.GetAllUserLists(ctx, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	out := make([]models.ListResponse, len(lists))
	for i := range lists {
		out[i] = lists[i].ToResponse()
	}
	return out, nil
}

func (s *ListService) Update(ctx context.Context, listID, actorID uuid.UUID, req *models.UpdateListRequest) (*models.ListResponse, error) {
	if _, err := s.requireOwner(ctx, listID, actorID); err != nil {
		return nil, err
	}
	list, err := s.lists.GetByID(ctx, listID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListNotFound
		}
		return nil, fmt.Errorf("lookup list: %w", err)
	}

	if req.Name != nil {
		list.Name = *req.Name
	}
	if req.Description != nil {
		list.Description = *req.Description
	}
	if err := s.lists.Update(ctx, list); err != nil {
		return nil, fmt.Errorf("update list: %w", err)
	}

	resp := list.ToResponse()
	s.hub.BroadcastEvent(realtime.Envelope{
		Room:          listID.String(),
		Event:         realtime.EventListUpdated,
		Data:          resp,
		ExcludeUserID: actorID.String(),
	})
	s.publishActivity(ctx, realtime.EventListUpdated, list.TenantID, listID, actorID, resp)
	return &resp, nil
}

// Delete removes the list, its items and its memberships. Subscribers hear
// list_deleted first; then their interest edges are dropped so the dead
// room cannot accumulate traffic.
func (s *ListService) Delete(ctx context.Context, listID, actorID uuid.UUID) error {
	if _, err := s.requireOwner(ctx, listID, actorID); err != nil {
		return err
	}
	list, err := s.lists.GetByID(ctx, listID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrListNotFound
		}
		return fmt.Errorf("lookup list: %w", err)
	}

	if err := s.lists.Delete(ctx, listID); err != nil {
		return fmt.Errorf("delete list: %w", err)
	}

	room := listID.String()
	s.hub.BroadcastEvent(realtime.Envelope{
		Room:          room,
		Event:         realtime.EventListDeleted,
		Data:          map[string]interface{}{"list_id": room},
		ExcludeUserID: actorID.String(),
	})
	for _, userID := range s.hub.SubscribersOf(room) {
		s.hub.Unsubscribe(userID, room)
	}

	s.publishActivity(ctx, realtime.EventListDeleted, list.TenantID, listID, actorID, nil)
	slog.Info("list deleted", "listID", listID, "actorID", actorID)
	return nil
}

func (s *ListService) GetMembers(ctx context.Context, listID, userID uuid.UUID) ([]models.MemberResponse, error) {
	if _, err := s.requireMember(ctx, listID, userID); err != nil {
		return nil, err
	}
	members, err := s.lists.GetMembers(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	out := make([]models.MemberResponse, len(members))
	for i := range members {
		out[i] = members[i].ToResponse()
	}
	return out, nil
}

// RemoveMember expels a member. The target is kicked from the list's live
// room the moment the row is gone: every session hears about it, sessions
// dedicated to this list are closed, other sessions stay up.
func (s *ListService) RemoveMember(ctx context.Context, listID, actorID, targetID uuid.UUID) error {
	if _, err := s.requireOwner(ctx, listID, actorID); err != nil {
		return err
	}
	target, err := s.lists.GetMember(ctx, listID, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("lookup member: %w", err)
	}
	if target.Role == models.MemberRoleOwner {
		return ErrCannotRemoveSelf
	}

	if err := s.lists.RemoveMember(ctx, listID, targetID); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}

	room := listID.String()
	s.hub.KickFromRoom(targetID.String(), room, "removed_by_owner")
	s.hub.BroadcastEvent(realtime.Envelope{
		Room:          room,
		Event:         realtime.EventMemberRemoved,
		Data:          map[string]interface{}{"list_id": room, "user_id": targetID.String()},
		ExcludeUserID: actorID.String(),
	})

	if err := s.notifications.Notify(ctx, targetID, &listID, models.NotificationMemberRemoved, map[string]interface{}{
		"list_id": room,
	}); err != nil {
		slog.Error("notify removed member", "userID", targetID, "error", err)
	}

	list, lerr := s.lists.GetByID(ctx, listID)
	if lerr == nil {
		s.publishActivity(ctx, realtime.EventMemberRemoved, list.TenantID, listID, actorID,
			map[string]interface{}{"user_id": targetID.String()})
	}
	return nil
}

// Leave lets a member walk away voluntarily. The owner cannot leave; they
// delete the list instead.
func (s *ListService) Leave(ctx context.Context, listID, userID uuid.UUID) error {
	member, err := s.requireMember(ctx, listID, userID)
	if err != nil {
		return err
	}
	if member.Role == models.MemberRoleOwner {
		return ErrPermissionDenied
	}

	if err := s.lists.RemoveMember(ctx, listID, userID); err != nil {
		return fmt.Errorf("leave list: %w", err)
	}

	room := listID.String()
	s.hub.KickFromRoom(userID.String(), room, "left_list")
	s.hub.BroadcastEvent(realtime.Envelope{
		Room:          room,
		Event:         realtime.EventMemberLeft,
		Data:          map[string]interface{}{"list_id": room, "user_id": userID.String()},
		ExcludeUserID: userID.String(),
	})
	return nil
}

// UpdatePermissions tunes a member's capabilities. Membership itself is
// untouched, so the target keeps receiving events; their next forbidden
// action fails at the service layer.
func (s *ListService) UpdatePermissions(ctx context.Context, listID, actorID, targetID uuid.UUID, req *models.UpdatePermissionsRequest) (*models.MemberResponse, error) {
	if _, err := s.requireOwner(ctx, listID, actorID); err != nil {
		return nil, err
	}
	target, err := s.lists.GetMember(ctx, listID, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("lookup member: %w", err)
	}
	if target.Role == models.MemberRoleOwner {
		return nil, ErrPermissionDenied
	}

	if req.CanView != nil {
		target.CanView = *req.CanView
	}
	if req.CanAddItem != nil {
		target.CanAddItem = *req.CanAddItem
	}
	if req.CanUpdateItem != nil {
		target.CanUpdateItem = *req.CanUpdateItem
	}
	if req.CanDeleteItem != nil {
		target.CanDeleteItem = *req.CanDeleteItem
	}
	if err := s.lists.UpdateMember(ctx, target); err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}

	resp := target.ToResponse()
	room := listID.String()
	s.hub.BroadcastEvent(realtime.Envelope{
		Room:          room,
		Event:         realtime.EventPermissionsUpdated,
		Data:          resp,
		ExcludeUserID: actorID.String(),
	})
	return &resp, nil
}
