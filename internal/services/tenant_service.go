package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shoplist-service/internal/models"
	"shoplist-service/internal/repositories/postgres"
)

type TenantService struct {
	repo *postgres.TenantRepository
}

func NewTenantService(repo *postgres.TenantRepository) *TenantService {
	return &TenantService{repo: repo}
}

func (s *TenantService) Create(ctx context.Context, req *models.CreateTenantRequest) (*models.TenantResponse, error) {
	_, err := s.repo.GetByName(ctx, req.Name)
	if err == nil {
		return nil, ErrTenantAlreadyExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check tenant name: %w", err)
	}

	tenant := models.Tenant{Name: req.Name, IsActive: true}
	if err := s.repo.Create(ctx, &tenant); err != nil {
		return nil, fmt.Errorf("create tenant: %w", err)
	}
	resp := tenant.ToResponse()
	return &resp, nil
}

func (s *TenantService) GetByID(ctx context.Context, id uuid.UUID) (*models.TenantResponse, error) {
	tenant, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("lookup tenant: %w", err)
	}
	resp := tenant.ToResponse()
	return &resp, nil
}

func (s *TenantService) List(ctx context.Context) ([]models.TenantResponse, error) {
	tenants, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	out := make([]models.TenantResponse, len(tenants))
	for i := range tenants {
		out[i] = tenants[i].ToResponse()
	}
	return out, nil
}
