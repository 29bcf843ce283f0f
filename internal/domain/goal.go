package domain

import "context"

// Goal is a user's target weight. A user has at most one.
type Goal struct {
	ID         int64   `json:"id"`
	UserID     int64   `json:"userId"`
	GoalWeight float64 `json:"goalWeight"`
}

// GoalRepository is the port for goal persistence.
type GoalRepository interface {
	GoalForUser(ctx context.Context, userID int64) (*Goal, error)
	// SetGoal replaces the user's goal, creating it if absent.
	SetGoal(ctx context.Context, userID int64, goalWeight float64) error
	WatchGoal(ctx context.Context, userID int64) <-chan *Goal
}

// Notifier delivers the goal-reached notification.
type Notifier interface {
	NotifyGoalReached(ctx context.Context, goalWeight float64) error
}
