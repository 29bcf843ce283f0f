// Package apptest provides function-field repository doubles and helpers for
// controller tests. A nil function field falls through to the embedded
// fallback repository when one is set, otherwise to a zero result.
package apptest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"dailyweight/internal/adapter/memory"
	"dailyweight/internal/adapter/prefs"
	"dailyweight/internal/domain"
)

// Stores bundles a fresh in-memory store and a temp-dir preference file.
type Stores struct {
	DB    *memory.DB
	Prefs *prefs.Store
}

// NewStores creates stores scoped to t.
func NewStores(t *testing.T) Stores {
	t.Helper()
	p, err := prefs.Open(filepath.Join(t.TempDir(), "prefs.yaml"), nil)
	if err != nil {
		t.Fatalf("open prefs: %v", err)
	}
	return Stores{DB: memory.New(nil), Prefs: p}
}

// MustUser creates a user and returns it.
func MustUser(t *testing.T, repo domain.UserRepository, username, password string) domain.User {
	t.Helper()
	ctx := context.Background()
	id, err := repo.Create(ctx, username, password, false)
	if err != nil {
		t.Fatalf("create user %q: %v", username, err)
	}
	u, err := repo.GetByID(ctx, id)
	if err != nil || u == nil {
		t.Fatalf("reload user %q: %v", username, err)
	}
	return *u
}

// Timing for require.Eventually in controller tests.
const (
	Wait = time.Second
	Tick = 2 * time.Millisecond
)

// UserRepo is a function-field domain.UserRepository.
type UserRepo struct {
	Fallback domain.UserRepository

	GetByUsernameFn func(ctx context.Context, username string) (*domain.User, error)
	GetByIDFn       func(ctx context.Context, id int64) (*domain.User, error)
	GetGuestFn      func(ctx context.Context) (*domain.User, error)
	CreateFn        func(ctx context.Context, username, password string, guest bool) (int64, error)
	UpdateFn        func(ctx context.Context, u domain.User) error
}

var _ domain.UserRepository = (*UserRepo)(nil)

func (m *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.GetByUsernameFn != nil {
		return m.GetByUsernameFn(ctx, username)
	}
	if m.Fallback != nil {
		return m.Fallback.GetByUsername(ctx, username)
	}
	return nil, nil
}

func (m *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	if m.Fallback != nil {
		return m.Fallback.GetByID(ctx, id)
	}
	return nil, nil
}

func (m *UserRepo) GetGuest(ctx context.Context) (*domain.User, error) {
	if m.GetGuestFn != nil {
		return m.GetGuestFn(ctx)
	}
	if m.Fallback != nil {
		return m.Fallback.GetGuest(ctx)
	}
	return nil, nil
}

func (m *UserRepo) Create(ctx context.Context, username, password string, guest bool) (int64, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, username, password, guest)
	}
	if m.Fallback != nil {
		return m.Fallback.Create(ctx, username, password, guest)
	}
	return 0, nil
}

func (m *UserRepo) Update(ctx context.Context, u domain.User) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, u)
	}
	if m.Fallback != nil {
		return m.Fallback.Update(ctx, u)
	}
	return nil
}

// PrefsRepo is a function-field domain.PreferenceRepository.
type PrefsRepo struct {
	Fallback domain.PreferenceRepository

	SetUnitFn             func(ctx context.Context, userID int64, unit domain.WeightUnit) error
	SetGoalNotificationFn func(ctx context.Context, userID int64, enabled bool) error
}

var _ domain.PreferenceRepository = (*PrefsRepo)(nil)

func (m *PrefsRepo) Unit(ctx context.Context, userID int64) (domain.WeightUnit, error) {
	if m.Fallback != nil {
		return m.Fallback.Unit(ctx, userID)
	}
	return domain.DefaultUnit, nil
}

func (m *PrefsRepo) SetUnit(ctx context.Context, userID int64, unit domain.WeightUnit) error {
	if m.SetUnitFn != nil {
		return m.SetUnitFn(ctx, userID, unit)
	}
	if m.Fallback != nil {
		return m.Fallback.SetUnit(ctx, userID, unit)
	}
	return nil
}

func (m *PrefsRepo) GoalNotification(ctx context.Context, userID int64) (bool, error) {
	if m.Fallback != nil {
		return m.Fallback.GoalNotification(ctx, userID)
	}
	return false, nil
}

func (m *PrefsRepo) SetGoalNotification(ctx context.Context, userID int64, enabled bool) error {
	if m.SetGoalNotificationFn != nil {
		return m.SetGoalNotificationFn(ctx, userID, enabled)
	}
	if m.Fallback != nil {
		return m.Fallback.SetGoalNotification(ctx, userID, enabled)
	}
	return nil
}

func (m *PrefsRepo) WatchUnit(ctx context.Context, userID int64) <-chan domain.WeightUnit {
	if m.Fallback != nil {
		return m.Fallback.WatchUnit(ctx, userID)
	}
	ch := make(chan domain.WeightUnit, 1)
	ch <- domain.DefaultUnit
	return ch
}

func (m *PrefsRepo) WatchGoalNotification(ctx context.Context, userID int64) <-chan bool {
	if m.Fallback != nil {
		return m.Fallback.WatchGoalNotification(ctx, userID)
	}
	ch := make(chan bool, 1)
	ch <- false
	return ch
}

// Notifier records goal notifications.
type Notifier struct {
	NotifyFn func(ctx context.Context, goalWeight float64) error
	Calls    []float64
}

var _ domain.Notifier = (*Notifier)(nil)

func (n *Notifier) NotifyGoalReached(ctx context.Context, goalWeight float64) error {
	n.Calls = append(n.Calls, goalWeight)
	if n.NotifyFn != nil {
		return n.NotifyFn(ctx, goalWeight)
	}
	return nil
}
