package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/trackivity/web-bff/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Activity{}, &domain.Participation{}, &domain.Organization{}, &domain.Department{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedActivity(t *testing.T, db *gorm.DB, status domain.ActivityStatus, maxParticipants int) *domain.Activity {
	t.Helper()
	a := &domain.Activity{
		Title:           "Orientation Day",
		Status:          status,
		MaxParticipants: maxParticipants,
		OrganizationID:  1,
		StartsAt:        time.Now().Add(-time.Hour),
		EndsAt:          time.Now().Add(time.Hour),
	}
	if err := db.Create(a).Error; err != nil {
		t.Fatalf("seed activity: %v", err)
	}
	return a
}

func TestRegisterCreatesParticipation(t *testing.T) {
	db := newTestDB(t)
	repo := NewParticipationRepository(db)
	activity := seedActivity(t, db, domain.ActivityStatusPublished, 10)

	p, err := repo.Register(context.Background(), activity.ID, 42)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if p.Status != domain.ParticipationStatusRegistered {
		t.Fatalf("unexpected status %s", p.Status)
	}

	count, err := repo.CountByActivity(context.Background(), activity.ID)
	if err != nil || count != 1 {
		t.Fatalf("expected one participation, got %d (%v)", count, err)
	}
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	db := newTestDB(t)
	repo := NewParticipationRepository(db)
	activity := seedActivity(t, db, domain.ActivityStatusPublished, 10)

	if _, err := repo.Register(context.Background(), activity.ID, 42); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := repo.Register(context.Background(), activity.ID, 42)
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}

	count, err := repo.CountByActivity(context.Background(), activity.ID)
	if err != nil || count != 1 {
		t.Fatalf("duplicate attempt must not add a row: count=%d (%v)", count, err)
	}
}

// limitToSingleConn makes concurrent transactions queue on one connection;
// sqlite cannot interleave writers and would otherwise report a busy error.
func limitToSingleConn(t *testing.T, db *gorm.DB) {
	t.Helper()
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
}

func TestRegisterConcurrentSameUser(t *testing.T) {
	db := newTestDB(t)
	limitToSingleConn(t, db)
	repo := NewParticipationRepository(db)
	activity := seedActivity(t, db, domain.ActivityStatusPublished, 10)

	start := make(chan struct{})
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			<-start
			_, err := repo.Register(context.Background(), activity.ID, 42)
			results <- err
		}()
	}
	close(start)

	var successes, duplicates int
	for i := 0; i < 2; i++ {
		switch err := <-results; {
		case err == nil:
			successes++
		case errors.Is(err, ErrAlreadyRegistered):
			duplicates++
		default:
			t.Fatalf("unexpected register error: %v", err)
		}
	}
	if successes != 1 || duplicates != 1 {
		t.Fatalf("expected one success and one duplicate, got %d successes / %d duplicates", successes, duplicates)
	}

	count, err := repo.CountByActivity(context.Background(), activity.ID)
	if err != nil || count != 1 {
		t.Fatalf("expected exactly one participation row, got %d (%v)", count, err)
	}
}

func TestRegisterConcurrentLastSeat(t *testing.T) {
	db := newTestDB(t)
	limitToSingleConn(t, db)
	repo := NewParticipationRepository(db)
	activity := seedActivity(t, db, domain.ActivityStatusPublished, 1)

	start := make(chan struct{})
	results := make(chan error, 2)
	for userID := uint(1); userID <= 2; userID++ {
		go func(userID uint) {
			<-start
			_, err := repo.Register(context.Background(), activity.ID, userID)
			results <- err
		}(userID)
	}
	close(start)

	var successes, full int
	for i := 0; i < 2; i++ {
		switch err := <-results; {
		case err == nil:
			successes++
		case errors.Is(err, ErrActivityFull):
			full++
		default:
			t.Fatalf("unexpected register error: %v", err)
		}
	}
	if successes != 1 || full != 1 {
		t.Fatalf("expected one success and one full rejection, got %d successes / %d full", successes, full)
	}

	count, err := repo.CountByActivity(context.Background(), activity.ID)
	if err != nil || count != 1 {
		t.Fatalf("capacity one must yield exactly one row, got %d (%v)", count, err)
	}
}

func TestRegisterEnforcesCapacity(t *testing.T) {
	db := newTestDB(t)
	repo := NewParticipationRepository(db)
	activity := seedActivity(t, db, domain.ActivityStatusPublished, 2)

	for userID := uint(1); userID <= 2; userID++ {
		if _, err := repo.Register(context.Background(), activity.ID, userID); err != nil {
			t.Fatalf("register user %d: %v", userID, err)
		}
	}
	_, err := repo.Register(context.Background(), activity.ID, 3)
	if !errors.Is(err, ErrActivityFull) {
		t.Fatalf("expected ErrActivityFull, got %v", err)
	}
}

func TestRegisterUnlimitedCapacity(t *testing.T) {
	db := newTestDB(t)
	repo := NewParticipationRepository(db)
	activity := seedActivity(t, db, domain.ActivityStatusPublished, 0)

	for userID := uint(1); userID <= 5; userID++ {
		if _, err := repo.Register(context.Background(), activity.ID, userID); err != nil {
			t.Fatalf("register user %d: %v", userID, err)
		}
	}
}

func TestRegisterClosedStatuses(t *testing.T) {
	for _, status := range []domain.ActivityStatus{
		domain.ActivityStatusDraft,
		domain.ActivityStatusCompleted,
		domain.ActivityStatusCancelled,
	} {
		t.Run(string(status), func(t *testing.T) {
			db := newTestDB(t)
			repo := NewParticipationRepository(db)
			activity := seedActivity(t, db, status, 10)

			_, err := repo.Register(context.Background(), activity.ID, 1)
			if !errors.Is(err, ErrRegistrationClosed) {
				t.Fatalf("expected ErrRegistrationClosed for %s, got %v", status, err)
			}
		})
	}
}

func TestRegisterMissingActivity(t *testing.T) {
	db := newTestDB(t)
	repo := NewParticipationRepository(db)

	_, err := repo.Register(context.Background(), 999, 1)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListByUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewParticipationRepository(db)
	a1 := seedActivity(t, db, domain.ActivityStatusPublished, 0)
	a2 := seedActivity(t, db, domain.ActivityStatusOngoing, 0)

	if _, err := repo.Register(context.Background(), a1.ID, 7); err != nil {
		t.Fatalf("register a1: %v", err)
	}
	if _, err := repo.Register(context.Background(), a2.ID, 7); err != nil {
		t.Fatalf("register a2: %v", err)
	}
	if _, err := repo.Register(context.Background(), a1.ID, 8); err != nil {
		t.Fatalf("register other user: %v", err)
	}

	list, err := repo.ListByUser(context.Background(), 7)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 participations, got %d", len(list))
	}
}
