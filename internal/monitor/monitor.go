// Package monitor implements the session liveness probe: a timer-driven
// state machine that periodically revalidates the session against the
// backend and forces logout when the backend rejects it. It trades
// per-request session-store writes for a coarse probe, accepting up to one
// check interval of staleness before a revoked session is noticed.
package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/trackivity/web-bff/internal/backend"
	"github.com/trackivity/web-bff/internal/observability"
)

type State string

const (
	StateIdle     State = "idle"
	StateTracking State = "tracking"
	StatePaused   State = "paused"
)

// CheckFunc revalidates the current session, usually the backend client's
// Me bound to the session token. backend.ErrSessionRejected is the only
// result that forces logout; transport failures keep the session.
type CheckFunc func(ctx context.Context) error

type Monitor struct {
	mu              sync.Mutex
	state           State
	lastInteraction time.Time
	timer           *time.Timer

	check    CheckFunc
	onLogout func()

	checkInterval       time.Duration
	inactivityThreshold time.Duration
	now                 func() time.Time
}

type Option func(*Monitor)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

func New(check CheckFunc, onLogout func(), checkInterval, inactivityThreshold time.Duration, opts ...Option) *Monitor {
	if checkInterval <= 0 {
		checkInterval = 30 * time.Minute
	}
	if inactivityThreshold <= 0 {
		inactivityThreshold = 60 * time.Minute
	}
	m := &Monitor{
		state:               StateIdle,
		check:               check,
		onLogout:            onLogout,
		checkInterval:       checkInterval,
		inactivityThreshold: inactivityThreshold,
		now:                 time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// RecordInteraction notes user activity. It starts tracking from Idle,
// resumes from Paused with the timer re-armed immediately, and otherwise
// only refreshes the interaction timestamp.
func (m *Monitor) RecordInteraction() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastInteraction = m.now()
	switch m.state {
	case StateIdle, StatePaused:
		m.state = StateTracking
		m.armLocked()
	}
}

// Stop cancels the pending check and returns to Idle. It is synchronous:
// there is never an in-flight operation to await, only a timer to clear.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disarmLocked()
	m.state = StateIdle
}

// armLocked always clears any prior pending timer before arming a new one,
// so at most one check is ever scheduled and checks never overlap.
func (m *Monitor) armLocked() {
	m.disarmLocked()
	m.timer = time.AfterFunc(m.checkInterval, m.tick)
}

func (m *Monitor) disarmLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Monitor) tick() {
	m.mu.Lock()
	if m.state != StateTracking {
		m.mu.Unlock()
		return
	}
	if m.now().Sub(m.lastInteraction) > m.inactivityThreshold {
		// Nobody is around; skip the backend call entirely until the next
		// interaction resumes tracking.
		m.state = StatePaused
		m.disarmLocked()
		m.mu.Unlock()
		observability.RecordMonitorCheck(context.Background(), "paused")
		return
	}
	m.mu.Unlock()

	err := m.check(context.Background())

	m.mu.Lock()
	if m.state != StateTracking {
		m.mu.Unlock()
		return
	}
	switch {
	case err == nil:
		m.armLocked()
		m.mu.Unlock()
		observability.RecordMonitorCheck(context.Background(), "valid")
	case errors.Is(err, backend.ErrSessionRejected):
		m.state = StateIdle
		m.disarmLocked()
		m.mu.Unlock()
		observability.RecordMonitorCheck(context.Background(), "rejected")
		if m.onLogout != nil {
			m.onLogout()
		}
	default:
		// Transient failure: never log out, just try again next interval.
		m.armLocked()
		m.mu.Unlock()
		observability.RecordMonitorCheck(context.Background(), "unavailable")
	}
}
