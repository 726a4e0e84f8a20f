package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shoplist-service/internal/adapters/kafka"
	"shoplist-service/internal/models"
	"shoplist-service/internal/realtime"
	"shoplist-service/internal/repositories/postgres"
)

// ItemService owns the items on a list. Each mutation checks the actor's
// per-member permission flag, then broadcasts the change to the list's
// subscribers with the actor excluded.
type ItemService struct {
	items    *postgres.ItemRepository
	lists    *postgres.ListRepository
	hub      *realtime.Hub
	activity *kafka.ActivityProducer
}

func NewItemService(items *postgres.ItemRepository, lists *postgres.ListRepository, hub *realtime.Hub, activity *kafka.ActivityProducer) *ItemService {
	return &ItemService{items: items, lists: lists, hub: hub, activity: activity}
}

func (s *ItemService) member(ctx context.Context, listID, userID uuid.UUID) (*models.ShoppingListMember, error) {
	member, err := s.lists.GetMember(ctx, listID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotMember
		}
		return nil, fmt.Errorf("lookup membership: %w", err)
	}
	return member, nil
}

func (s *ItemService) broadcast(ctx context.Context, event string, listID, actorID uuid.UUID, data interface{}) {
	room := listID.String()
	s.hub.BroadcastEvent(realtime.Envelope{
		Room:          room,
		Event:         event,
		Data:          data,
		ExcludeUserID: actorID.String(),
	})
	if s.activity != nil {
		if list, err := s.lists.GetByID(ctx, listID); err == nil {
			s.activity.Publish(ctx, kafka.ActivityEvent{
				Event:    event,
				TenantID: list.TenantID.String(),
				ListID:   room,
				ActorID:  actorID.String(),
				Data:     data,
			})
		}
	}
}

func (s *ItemService) List(ctx context.Context, listID, userID uuid.UUID) ([]models.ItemResponse, error) {
	if _, err := s.member(ctx, listID, userID); err != nil {
		return nil, err
	}
	items, err := s.items.GetByList(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	out := make([]models.ItemResponse, len(items))
	for i := range items {
		out[i] = items[i].ToResponse()
	}
	return out, nil
}

func (s *ItemService) Create(ctx context.Context, listID, actorID uuid.UUID, req *models.CreateItemRequest) (*models.ItemResponse, error) {
	member, err := s.member(ctx, listID, actorID)
	if err != nil {
		return nil, err
	}
	if !member.CanAddItem {
		return nil, ErrPermissionDenied
	}

	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	item := models.Item{
		ShoppingListID: listID,
		AddedBy:        &actorID,
		Name:           req.Name,
		Quantity:       quantity,
		Status:         models.ItemStatusPending,
	}
	if err := s.items.Create(ctx, &item); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	resp := item.ToResponse()
	s.broadcast(ctx, realtime.EventItemAdded, listID, actorID, resp)
	return &resp, nil
}

func (s *ItemService) Update(ctx context.Context, listID, itemID, actorID uuid.UUID, req *models.UpdateItemRequest) (*models.ItemResponse, error) {
	member, err := s.member(ctx, listID, actorID)
	if err != nil {
		return nil, err
	}
	if !member.CanUpdateItem {
		return nil, ErrPermissionDenied
	}

	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("lookup item: %w", err)
	}
	if item.ShoppingListID != listID {
		return nil, ErrItemNotFound
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Quantity != nil {
		item.Quantity = *req.Quantity
	}
	if req.Status != nil {
		item.Status = *req.Status
	}
	if err := s.items.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}

	resp := item.ToResponse()
	s.broadcast(ctx, realtime.EventItemUpdated, listID, actorID, resp)
	return &resp, nil
}

func (s *ItemService) Delete(ctx context.Context, listID, itemID, actorID uuid.UUID) error {
	member, err := s.member(ctx, listID, actorID)
	if err != nil {
		return err
	}
	if !member.CanDeleteItem && member.Role != models.MemberRoleOwner {
		return ErrPermissionDenied
	}

	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrItemNotFound
		}
		return fmt.Errorf("lookup item: %w", err)
	}
	if item.ShoppingListID != listID {
		return ErrItemNotFound
	}

	if err := s.items.Delete(ctx, itemID); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	s.broadcast(ctx, realtime.EventItemDeleted, listID, actorID,
		map[string]interface{}{"item_id": itemID.String(), "list_id": listID.String()})
	return nil
}
