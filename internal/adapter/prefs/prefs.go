// Package prefs persists per-user preferences in a YAML file.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"dailyweight/internal/domain"
	"dailyweight/internal/observe"
)

var _ domain.PreferenceRepository = (*Store)(nil)

// Store is a key-value preference store backed by a single YAML document.
// Every write rewrites the file atomically.
type Store struct {
	path string

	mu     sync.Mutex
	values map[string]any

	tracker *observe.Tracker
	log     *slog.Logger
}

// Open loads the preference file at path. A missing file is an empty store.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		path:    path,
		values:  make(map[string]any),
		tracker: observe.NewTracker(),
		log:     logger,
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}
	if err := yaml.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("failed to parse preferences: %w", err)
	}
	if s.values == nil {
		s.values = make(map[string]any)
	}
	return s, nil
}

// Unit returns the user's unit, or domain.DefaultUnit.
func (s *Store) Unit(ctx context.Context, userID int64) (domain.WeightUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unitLocked(userID), nil
}

func (s *Store) unitLocked(userID int64) domain.WeightUnit {
	key := domain.UnitKey(userID)
	raw, ok := s.values[key].(string)
	if !ok {
		return domain.DefaultUnit
	}
	u, err := domain.ParseUnit(raw)
	if err != nil {
		s.log.Warn("ignoring bad unit preference", "key", key, "value", raw)
		return domain.DefaultUnit
	}
	return u
}

// SetUnit stores the user's unit.
func (s *Store) SetUnit(ctx context.Context, userID int64, unit domain.WeightUnit) error {
	if _, err := domain.ParseUnit(string(unit)); err != nil {
		return err
	}
	return s.put(domain.UnitKey(userID), string(unit))
}

// GoalNotification reports whether goal notifications are enabled; default false.
func (s *Store) GoalNotification(ctx context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.goalNotificationLocked(userID), nil
}

func (s *Store) goalNotificationLocked(userID int64) bool {
	enabled, _ := s.values[domain.GoalNotificationKey(userID)].(bool)
	return enabled
}

// SetGoalNotification stores the user's notification toggle.
func (s *Store) SetGoalNotification(ctx context.Context, userID int64, enabled bool) error {
	return s.put(domain.GoalNotificationKey(userID), enabled)
}

// WatchUnit streams the user's unit, re-emitting after every write to it.
func (s *Store) WatchUnit(ctx context.Context, userID int64) <-chan domain.WeightUnit {
	return observe.Query(ctx, s.tracker, s.log, func(context.Context) (domain.WeightUnit, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.unitLocked(userID), nil
	}, domain.UnitKey(userID))
}

// WatchGoalNotification streams the user's notification toggle.
func (s *Store) WatchGoalNotification(ctx context.Context, userID int64) <-chan bool {
	return observe.Query(ctx, s.tracker, s.log, func(context.Context) (bool, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.goalNotificationLocked(userID), nil
	}, domain.GoalNotificationKey(userID))
}

// put sets key and persists the document. On a failed write the previous
// value is restored so memory and disk agree.
func (s *Store) put(key string, value any) error {
	s.mu.Lock()
	prev, had := s.values[key]
	s.values[key] = value
	err := s.flushLocked()
	if err != nil {
		if had {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
	}
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.tracker.Invalidate(key)
	return nil
}

func (s *Store) flushLocked() error {
	data, err := yaml.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create preferences directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".prefs-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace preferences: %w", err)
	}
	return nil
}
