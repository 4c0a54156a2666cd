package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/trackivity/web-bff/internal/domain"
	"github.com/trackivity/web-bff/internal/observability"
)

type DepartmentRepository interface {
	// ListPublicByOrganization is served without authentication, so it only
	// ever exposes departments flagged public.
	ListPublicByOrganization(ctx context.Context, organizationID uint) ([]domain.Department, error)
}

type GormDepartmentRepository struct{ db *gorm.DB }

func NewDepartmentRepository(db *gorm.DB) DepartmentRepository {
	return &GormDepartmentRepository{db: db}
}

func (r *GormDepartmentRepository) ListPublicByOrganization(ctx context.Context, organizationID uint) ([]domain.Department, error) {
	var out []domain.Department
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND public = ?", organizationID, true).
		Order("name ASC").
		Find(&out).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "department", "list_public", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "department", "list_public", "success")
	return out, nil
}
