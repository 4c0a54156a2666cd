package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/trackivity/web-bff/internal/domain"
	"github.com/trackivity/web-bff/internal/observability"
)

type ActivitySummary struct {
	TotalActivities     int64 `json:"total_activities"`
	PublishedActivities int64 `json:"published_activities"`
	OngoingActivities   int64 `json:"ongoing_activities"`
	TotalParticipations int64 `json:"total_participations"`
}

type ActivityRepository interface {
	FindByID(ctx context.Context, id uint) (*domain.Activity, error)
	// RefreshStatus persists the time-derived status transition, if any,
	// and returns the activity as stored afterwards.
	RefreshStatus(ctx context.Context, id uint, now time.Time) (*domain.Activity, error)
	Summarize(ctx context.Context, organizationID *uint) (*ActivitySummary, error)
}

type GormActivityRepository struct{ db *gorm.DB }

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &GormActivityRepository{db: db}
}

func (r *GormActivityRepository) FindByID(ctx context.Context, id uint) (*domain.Activity, error) {
	var a domain.Activity
	err := r.db.WithContext(ctx).First(&a, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "activity", "find_by_id", "not_found")
			return nil, ErrNotFound
		}
		observability.RecordRepositoryOperation(ctx, "activity", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "activity", "find_by_id", "success")
	return &a, nil
}

func (r *GormActivityRepository) RefreshStatus(ctx context.Context, id uint, now time.Time) (*domain.Activity, error) {
	activity, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	next, changed := activity.DeriveStatus(now)
	if !changed {
		return activity, nil
	}
	err = r.db.WithContext(ctx).Model(activity).Update("status", next).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "activity", "refresh_status", "error")
		return nil, err
	}
	activity.Status = next
	observability.RecordRepositoryOperation(ctx, "activity", "refresh_status", "success")
	return activity, nil
}

// Summarize aggregates activity counts, scoped to one organization for
// scoped admins and across everything when organizationID is nil.
func (r *GormActivityRepository) Summarize(ctx context.Context, organizationID *uint) (*ActivitySummary, error) {
	summary := &ActivitySummary{}

	activities := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&domain.Activity{})
		if organizationID != nil {
			q = q.Where("organization_id = ?", *organizationID)
		}
		return q
	}

	if err := activities().Count(&summary.TotalActivities).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "activity", "summarize", "error")
		return nil, err
	}
	if err := activities().Where("status = ?", domain.ActivityStatusPublished).
		Count(&summary.PublishedActivities).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "activity", "summarize", "error")
		return nil, err
	}
	if err := activities().Where("status = ?", domain.ActivityStatusOngoing).
		Count(&summary.OngoingActivities).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "activity", "summarize", "error")
		return nil, err
	}

	participations := r.db.WithContext(ctx).Model(&domain.Participation{})
	if organizationID != nil {
		participations = participations.
			Joins("JOIN activities ON activities.id = participations.activity_id").
			Where("activities.organization_id = ?", *organizationID)
	}
	if err := participations.Count(&summary.TotalParticipations).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "activity", "summarize", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "activity", "summarize", "success")
	return summary, nil
}
