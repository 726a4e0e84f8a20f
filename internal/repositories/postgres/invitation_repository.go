package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shoplist-service/internal/models"
)

type InvitationRepository struct {
	db *gorm.DB
}

func NewInvitationRepository(db *gorm.DB) *InvitationRepository {
	return &InvitationRepository{db}
}

func (r *InvitationRepository) Create(ctx context.Context, inv *models.Invitation) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *InvitationRepository) Update(ctx context.Context, inv *models.Invitation) error {
	return r.db.WithContext(ctx).Save(inv).Error
}

func (r *InvitationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error) {
	var inv models.Invitation
	err := r.db.WithContext(ctx).First(&inv, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// GetPendingByListAndEmail prevents duplicate live invitations for the
// same address on the same list.
func (r *InvitationRepository) GetPendingByListAndEmail(ctx context.Context, listID uuid.UUID, email string) (*models.Invitation, error) {
	var inv models.Invitation
	err := r.db.WithContext(ctx).
		First(&inv, "shopping_list_id = ? AND invitee_email = ? AND status = ?",
			listID, email, models.InviteStatusPending).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *InvitationRepository) GetByList(ctx context.Context, listID uuid.UUID) ([]models.Invitation, error) {
	var invs []models.Invitation
	err := r.db.WithContext(ctx).
		Where("shopping_list_id = ?", listID).
		Order("created_at DESC").
		Find(&invs).Error
	return invs, err
}

func (r *InvitationRepository) GetPendingForEmail(ctx context.Context, email string) ([]models.Invitation, error) {
	var invs []models.Invitation
	err := r.db.WithContext(ctx).
		Where("invitee_email = ? AND status = ?", email, models.InviteStatusPending).
		Order("created_at DESC").
		Find(&invs).Error
	return invs, err
}
