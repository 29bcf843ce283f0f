package domain

import (
	"context"
	"fmt"
	"strconv"
)

// WeightUnit is the display unit a user prefers.
type WeightUnit string

// Supported units. Stored values are not converted between them.
const (
	LBS WeightUnit = "LBS"
	KGS WeightUnit = "KGS"
)

// DefaultUnit applies until a user picks one.
const DefaultUnit = LBS

// ParseUnit accepts "LBS" or "KGS".
func ParseUnit(s string) (WeightUnit, error) {
	switch WeightUnit(s) {
	case LBS, KGS:
		return WeightUnit(s), nil
	}
	return "", fmt.Errorf("unit must be %q or %q, got %q", LBS, KGS, s)
}

// Label is the short suffix shown next to values.
func (u WeightUnit) Label() string {
	if u == KGS {
		return "kgs"
	}
	return "lbs"
}

// UnitKey is the preference key for a user's unit.
func UnitKey(userID int64) string {
	return "weight_unit_" + strconv.FormatInt(userID, 10)
}

// GoalNotificationKey is the preference key for a user's notification toggle.
func GoalNotificationKey(userID int64) string {
	return "goal_notification_" + strconv.FormatInt(userID, 10)
}

// PreferenceRepository is the port for per-user preferences. Reads fall back
// to DefaultUnit and false.
type PreferenceRepository interface {
	Unit(ctx context.Context, userID int64) (WeightUnit, error)
	SetUnit(ctx context.Context, userID int64, unit WeightUnit) error
	GoalNotification(ctx context.Context, userID int64) (bool, error)
	SetGoalNotification(ctx context.Context, userID int64, enabled bool) error
	WatchUnit(ctx context.Context, userID int64) <-chan WeightUnit
	WatchGoalNotification(ctx context.Context, userID int64) <-chan bool
}
