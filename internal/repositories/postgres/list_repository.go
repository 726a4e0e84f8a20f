package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shoplist-service/internal/models"
)

type ListRepository struct {
	db *gorm.DB
}

func NewListRepository(db *gorm.DB) *ListRepository {
	return &ListRepository{db}
}

// Create inserts the list and its owner membership in one transaction so
// a list can never exist without an OWNER row.
func (r *ListRepository) Create(ctx context.Context, list *models.ShoppingList) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(list).Error; err != nil {
			return err
		}
		owner := models.ShoppingListMember{
			ShoppingListID: list.ID,
			UserID:         list.OwnerID,
			Role:           models.MemberRoleOwner,
			CanView:        true,
			CanAddItem:     true,
			CanUpdateItem:  true,
			CanDeleteItem:  true,
			JoinedAt:       time.Now().UTC(),
		}
		return tx.Create(&owner).Error
	})
}

func (r *ListRepository) Update(ctx context.Context, list *models.ShoppingList) error {
	return r.db.WithContext(ctx).Save(list).Error
}

func (r *ListRepository) Delete(ctx context.Context, listID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("shopping_list_id = ?", listID).Delete(&models.ShoppingListMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("shopping_list_id = ?", listID).Delete(&models.Item{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.ShoppingList{}, "id = ?", listID).Error
	})
}

func (r *ListRepository) GetByID(ctx context.Context, listID uuid.UUID) (*models.ShoppingList, error) {
	var l models.ShoppingList
	err := r.db.WithContext(ctx).
		Preload("Members").
		Preload("Members.User").
		First(&l, "id = ?", listID).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetAllUserLists returns the lists a user belongs to within a tenant.
func (r *ListRepository) GetAllUserLists(ctx context.Context, tenantID, userID uuid.UUID) ([]models.ShoppingList, error) {
	var lists []models.ShoppingList
	err := r.db.WithContext(ctx).
		Preload("Members").
		Joins("JOIN shopping_list_members ON shopping_lists.id = shopping_list_members.shopping_list_id").
		Where("shopping_lists.tenant_id = ? AND shopping_list_members.user_id = ? AND shopping_list_members.deleted_at IS NULL", tenantID, userID).
		Order("shopping_lists.created_at ASC").
		Find(&lists).Error
	return lists, err
}

func (r *ListRepository) AddMember(ctx context.Context, member *models.ShoppingListMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *ListRepository) UpdateMember(ctx context.Context, member *models.ShoppingListMember) error {
	return r.db.WithContext(ctx).Save(member).Error
}

func (r *ListRepository) RemoveMember(ctx context.Context, listID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("shopping_list_id = ? AND user_id = ?", listID, userID).
		Delete(&models.ShoppingListMember{}).Error
}

func (r *ListRepository) GetMember(ctx context.Context, listID, userID uuid.UUID) (*models.ShoppingListMember, error) {
	var m models.ShoppingListMember
	err := r.db.WithContext(ctx).
		Preload("User").
		First(&m, "shopping_list_id = ? AND user_id = ?", listID, userID).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *ListRepository) GetMembers(ctx context.Context, listID uuid.UUID) ([]models.ShoppingListMember, error) {
	var members []models.ShoppingListMember
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("shopping_list_id = ?", listID).
		Order("joined_at ASC").
		Find(&members).Error
	return members, err
}

// IsMember answers the authorization question the live fan-out layer asks
// on every subscribe and every room message.
func (r *ListRepository) IsMember(ctx context.Context, listID, userID uuid.UUID) (bool, error) {
	var m models.ShoppingListMember
	err := r.db.WithContext(ctx).
		Select("id").
		First(&m, "shopping_list_id = ? AND user_id = ?", listID, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
