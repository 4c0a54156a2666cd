package domain

import "time"

type ActivityStatus string

const (
	ActivityStatusDraft     ActivityStatus = "draft"
	ActivityStatusPublished ActivityStatus = "published"
	ActivityStatusOngoing   ActivityStatus = "ongoing"
	ActivityStatusCompleted ActivityStatus = "completed"
	ActivityStatusCancelled ActivityStatus = "cancelled"
)

type ParticipationStatus string

const (
	ParticipationStatusRegistered ParticipationStatus = "registered"
	ParticipationStatusCheckedIn  ParticipationStatus = "checked_in"
	ParticipationStatusCheckedOut ParticipationStatus = "checked_out"
	ParticipationStatusCompleted  ParticipationStatus = "completed"
)

// Activity is owned by the backend; this layer reads and writes it only for
// the endpoints not yet migrated there. MaxParticipants of zero means
// unlimited.
type Activity struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Title           string         `gorm:"size:255;not null" json:"title"`
	Status          ActivityStatus `gorm:"size:32;index;not null" json:"status"`
	MaxParticipants int            `gorm:"not null;default:0" json:"max_participants"`
	OrganizationID  uint           `gorm:"index;not null" json:"organization_id"`
	StartsAt        time.Time      `json:"starts_at"`
	EndsAt          time.Time      `json:"ends_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// AcceptsRegistration reports whether the activity is in a state that admits
// new participants. Capacity is checked separately under a transaction.
func (a *Activity) AcceptsRegistration() bool {
	return a.Status == ActivityStatusPublished || a.Status == ActivityStatusOngoing
}

// DeriveStatus returns the time-derived status for a published or ongoing
// activity. Draft and cancelled activities never move on their own.
func (a *Activity) DeriveStatus(now time.Time) (ActivityStatus, bool) {
	switch a.Status {
	case ActivityStatusPublished:
		if !a.EndsAt.IsZero() && now.After(a.EndsAt) {
			return ActivityStatusCompleted, true
		}
		if !a.StartsAt.IsZero() && !now.Before(a.StartsAt) {
			return ActivityStatusOngoing, true
		}
	case ActivityStatusOngoing:
		if !a.EndsAt.IsZero() && now.After(a.EndsAt) {
			return ActivityStatusCompleted, true
		}
	}
	return a.Status, false
}

// Participation links one user to one activity. The composite unique index
// makes duplicate registration a constraint violation rather than a race.
type Participation struct {
	ID         uint                `gorm:"primaryKey" json:"id"`
	ActivityID uint                `gorm:"uniqueIndex:idx_participation_activity_user;not null" json:"activity_id"`
	UserID     uint                `gorm:"uniqueIndex:idx_participation_activity_user;not null" json:"user_id"`
	Status     ParticipationStatus `gorm:"size:32;not null" json:"status"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

type Organization struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Department struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	OrganizationID uint      `gorm:"index;not null" json:"organization_id"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	Public         bool      `gorm:"index;not null;default:false" json:"public"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
