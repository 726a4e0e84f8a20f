package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shoplist-service/internal/models"
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db}
}

func (r *ChatRepository) Create(ctx context.Context, msg *models.ChatMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *ChatRepository) Delete(ctx context.Context, messageID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.ChatMessage{}, "id = ?", messageID).Error
}

func (r *ChatRepository) GetByID(ctx context.Context, messageID uuid.UUID) (*models.ChatMessage, error) {
	var m models.ChatMessage
	err := r.db.WithContext(ctx).Preload("Sender").First(&m, "id = ?", messageID).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetHistory returns messages for a list, newest window first request by
// request, each page in chronological order for rendering.
func (r *ChatRepository) GetHistory(ctx context.Context, listID uuid.UUID, limit int, before *time.Time) ([]models.ChatMessage, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	db := r.db.WithContext(ctx).
		Preload("Sender").
		Where("shopping_list_id = ?", listID)

	var messages []models.ChatMessage
	if before != nil {
		db = db.Where("created_at < ?", *before)
	}
	err := db.Order("created_at DESC").Limit(limit).Find(&messages).Error
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
