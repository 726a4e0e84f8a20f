package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shoplist-service/internal/models"
)

type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db}
}

func (r *ItemRepository) Create(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *ItemRepository) Update(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *ItemRepository) Delete(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Item{}, "id = ?", itemID).Error
}

func (r *ItemRepository) GetByID(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	var i models.Item
	err := r.db.WithContext(ctx).First(&i, "id = ?", itemID).Error
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *ItemRepository) GetByList(ctx context.Context, listID uuid.UUID) ([]models.Item, error) {
	var items []models.Item
	err := r.db.WithContext(ctx).
		Where("shopping_list_id = ?", listID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}
