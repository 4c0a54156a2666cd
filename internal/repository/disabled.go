package repository

import (
	"context"
	"time"

	"github.com/trackivity/web-bff/internal/domain"
)

// Disabled repositories back the legacy endpoints when no database is
// configured: reads come back empty and lookups report not-found, so the
// rest of the server runs unaffected.

type disabledActivityRepository struct{}

func NewDisabledActivityRepository() ActivityRepository { return disabledActivityRepository{} }

func (disabledActivityRepository) FindByID(context.Context, uint) (*domain.Activity, error) {
	return nil, ErrNotFound
}

func (disabledActivityRepository) RefreshStatus(context.Context, uint, time.Time) (*domain.Activity, error) {
	return nil, ErrNotFound
}

func (disabledActivityRepository) Summarize(context.Context, *uint) (*ActivitySummary, error) {
	return &ActivitySummary{}, nil
}

type disabledParticipationRepository struct{}

func NewDisabledParticipationRepository() ParticipationRepository {
	return disabledParticipationRepository{}
}

func (disabledParticipationRepository) Register(context.Context, uint, uint) (*domain.Participation, error) {
	return nil, ErrNotFound
}

func (disabledParticipationRepository) CountByActivity(context.Context, uint) (int64, error) {
	return 0, nil
}

func (disabledParticipationRepository) ListByUser(context.Context, uint) ([]domain.Participation, error) {
	return nil, nil
}

type disabledDepartmentRepository struct{}

func NewDisabledDepartmentRepository() DepartmentRepository { return disabledDepartmentRepository{} }

func (disabledDepartmentRepository) ListPublicByOrganization(context.Context, uint) ([]domain.Department, error) {
	return nil, nil
}
