package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"shoplist-service/internal/models"
	"shoplist-service/internal/realtime"
	"shoplist-service/internal/repositories/postgres"
)

// NotificationService persists personal notifications and pushes them to
// whatever sessions the user has open. The row always lands first; the live
// push is best-effort and its failure is invisible to the caller.
type NotificationService struct {
	repo *postgres.NotificationRepository
	hub  *realtime.Hub
}

func NewNotificationService(repo *postgres.NotificationRepository, hub *realtime.Hub) *NotificationService {
	return &NotificationService{repo: repo, hub: hub}
}

// Notify stores a notification and pushes it over every live session of the
// user. Storage failure is returned; push failure is not.
func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, listID *uuid.UUID, kind string, payload map[string]interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}

	n := models.Notification{
		UserID:         userID,
		ShoppingListID: listID,
		Type:           kind,
		Payload:        datatypes.JSON(raw),
	}
	if err := s.repo.Create(ctx, &n); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}

	delivered := s.hub.SendToUser(userID.String(), realtime.NotificationFrame(n.ToResponse()))
	if !delivered {
		slog.Debug("notification stored for offline user",
			"userID", userID, "type", kind)
	}
	return nil
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.NotificationResponse, error) {
	notifications, err := s.repo.GetForUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	out := make([]models.NotificationResponse, len(notifications))
	for i := range notifications {
		out[i] = notifications[i].ToResponse()
	}
	return out, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return s.repo.MarkRead(ctx, userID, notificationID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}
