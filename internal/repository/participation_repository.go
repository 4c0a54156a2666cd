package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/trackivity/web-bff/internal/domain"
	"github.com/trackivity/web-bff/internal/observability"
)

type ParticipationRepository interface {
	// Register enrolls a user in an activity. The transaction locks the
	// activity row, so the status gate, duplicate check, and capacity check
	// are serialized per activity; the unique index on
	// (activity_id, user_id) backstops concurrent duplicates.
	Register(ctx context.Context, activityID, userID uint) (*domain.Participation, error)
	CountByActivity(ctx context.Context, activityID uint) (int64, error)
	ListByUser(ctx context.Context, userID uint) ([]domain.Participation, error)
}

type GormParticipationRepository struct{ db *gorm.DB }

func NewParticipationRepository(db *gorm.DB) ParticipationRepository {
	return &GormParticipationRepository{db: db}
}

func (r *GormParticipationRepository) Register(ctx context.Context, activityID, userID uint) (*domain.Participation, error) {
	var created *domain.Participation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// FOR UPDATE on the activity row serializes registrations per
		// activity so the capacity count cannot race. The sqlite dialect
		// drops the locking clause.
		var activity domain.Activity
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&activity, activityID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !activity.AcceptsRegistration() {
			return ErrRegistrationClosed
		}

		var duplicate int64
		if err := tx.Model(&domain.Participation{}).
			Where("activity_id = ? AND user_id = ?", activityID, userID).
			Count(&duplicate).Error; err != nil {
			return err
		}
		if duplicate > 0 {
			return ErrAlreadyRegistered
		}

		if activity.MaxParticipants > 0 {
			var enrolled int64
			if err := tx.Model(&domain.Participation{}).
				Where("activity_id = ?", activityID).
				Count(&enrolled).Error; err != nil {
				return err
			}
			if enrolled >= int64(activity.MaxParticipants) {
				return ErrActivityFull
			}
		}

		p := &domain.Participation{
			ActivityID: activityID,
			UserID:     userID,
			Status:     domain.ParticipationStatusRegistered,
		}
		if err := tx.Create(p).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrAlreadyRegistered
			}
			return err
		}
		created = p
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			observability.RecordRepositoryOperation(ctx, "participation", "register", "not_found")
		case errors.Is(err, ErrAlreadyRegistered):
			observability.RecordRepositoryOperation(ctx, "participation", "register", "duplicate")
		case errors.Is(err, ErrActivityFull):
			observability.RecordRepositoryOperation(ctx, "participation", "register", "full")
		case errors.Is(err, ErrRegistrationClosed):
			observability.RecordRepositoryOperation(ctx, "participation", "register", "closed")
		default:
			observability.RecordRepositoryOperation(ctx, "participation", "register", "error")
		}
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "participation", "register", "success")
	return created, nil
}

func (r *GormParticipationRepository) CountByActivity(ctx context.Context, activityID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Participation{}).
		Where("activity_id = ?", activityID).
		Count(&count).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "participation", "count_by_activity", "error")
		return 0, err
	}
	observability.RecordRepositoryOperation(ctx, "participation", "count_by_activity", "success")
	return count, nil
}

func (r *GormParticipationRepository) ListByUser(ctx context.Context, userID uint) ([]domain.Participation, error) {
	var out []domain.Participation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "participation", "list_by_user", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "participation", "list_by_user", "success")
	return out, nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
