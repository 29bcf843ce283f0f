// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"log/slog"
	"sync"

	"dailyweight/internal/domain"
	"dailyweight/internal/observe"
)

const (
	topicUsers   = "users"
	topicWeights = "weights"
	topicGoals   = "goals"
)

// DB implements an in-memory database storage.
type DB struct {
	mu      sync.Mutex
	weights []domain.WeightEntry
	goals   []domain.Goal
	users   []domain.User

	weightIDCounter int64
	goalIDCounter   int64
	userIDCounter   int64

	tracker *observe.Tracker
	log     *slog.Logger
}

// New creates a new in-memory database.
func New(logger *slog.Logger) *DB {
	if logger == nil {
		logger = slog.Default()
	}
	return &DB{tracker: observe.NewTracker(), log: logger}
}

// Ensure interfaces are met.
var _ domain.WeightRepository = (*DB)(nil)
var _ domain.GoalRepository = (*DB)(nil)
var _ domain.UserRepository = (*DB)(nil)

// --- WeightRepository ---

// AddWeight adds a weight entry.
func (db *DB) AddWeight(ctx context.Context, userID int64, value float64, day string) (int64, error) {
	db.mu.Lock()
	if db.userIndex(userID) < 0 {
		db.mu.Unlock()
		return 0, domain.ErrUnknownUser
	}
	db.weightIDCounter++
	id := db.weightIDCounter
	db.weights = append(db.weights, domain.WeightEntry{ID: id, UserID: userID, Day: day, Value: value})
	db.mu.Unlock()

	db.tracker.Invalidate(topicWeights)
	return id, nil
}

// UpdateWeight replaces the row with the same id. Missing rows are ignored.
func (db *DB) UpdateWeight(ctx context.Context, entry domain.WeightEntry) error {
	db.mu.Lock()
	for i := range db.weights {
		if db.weights[i].ID == entry.ID {
			db.weights[i] = entry
		}
	}
	db.mu.Unlock()

	db.tracker.Invalidate(topicWeights)
	return nil
}

// DeleteWeight deletes a weight entry by ID.
func (db *DB) DeleteWeight(ctx context.Context, id int64) error {
	db.mu.Lock()
	for i, w := range db.weights {
		if w.ID == id {
			db.weights = append(db.weights[:i], db.weights[i+1:]...)
			break
		}
	}
	db.mu.Unlock()

	db.tracker.Invalidate(topicWeights)
	return nil
}

// ListWeights returns the user's weights, newest first.
func (db *DB) ListWeights(ctx context.Context, userID int64) ([]domain.WeightEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result := make([]domain.WeightEntry, 0)
	for _, w := range db.weights {
		if w.UserID == userID {
			result = append(result, w)
		}
	}
	domain.SortNewestFirst(result)
	return result, nil
}

// WatchWeights streams ListWeights after every weight mutation.
func (db *DB) WatchWeights(ctx context.Context, userID int64) <-chan []domain.WeightEntry {
	return observe.Query(ctx, db.tracker, db.log, func(ctx context.Context) ([]domain.WeightEntry, error) {
		return db.ListWeights(ctx, userID)
	}, topicWeights)
}

// --- GoalRepository ---

// GoalForUser returns the user's goal or nil.
func (db *DB) GoalForUser(ctx context.Context, userID int64) (*domain.Goal, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, g := range db.goals {
		if g.UserID == userID {
			ret := g
			return &ret, nil
		}
	}
	return nil, nil
}

// SetGoal upserts the user's goal, keeping the existing id.
func (db *DB) SetGoal(ctx context.Context, userID int64, goalWeight float64) error {
	db.mu.Lock()
	if db.userIndex(userID) < 0 {
		db.mu.Unlock()
		return domain.ErrUnknownUser
	}
	found := false
	for i := range db.goals {
		if db.goals[i].UserID == userID {
			db.goals[i].GoalWeight = goalWeight
			found = true
		}
	}
	if !found {
		db.goalIDCounter++
		db.goals = append(db.goals, domain.Goal{ID: db.goalIDCounter, UserID: userID, GoalWeight: goalWeight})
	}
	db.mu.Unlock()

	db.tracker.Invalidate(topicGoals)
	return nil
}

// WatchGoal streams GoalForUser after every goal mutation.
func (db *DB) WatchGoal(ctx context.Context, userID int64) <-chan *domain.Goal {
	return observe.Query(ctx, db.tracker, db.log, func(ctx context.Context) (*domain.Goal, error) {
		return db.GoalForUser(ctx, userID)
	}, topicGoals)
}

// --- UserRepository ---

// GetByUsername retrieves a user by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			ret := u
			return &ret, nil
		}
	}
	// Return nil if not found
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if i := db.userIndex(id); i >= 0 {
		ret := db.users[i]
		return &ret, nil
	}
	return nil, nil
}

// GetGuest retrieves the guest user.
func (db *DB) GetGuest(ctx context.Context) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.IsGuest {
			ret := u
			return &ret, nil
		}
	}
	return nil, nil
}

// Create inserts a user. Usernames are unique and only one guest may exist.
func (db *DB) Create(ctx context.Context, username, password string, guest bool) (int64, error) {
	db.mu.Lock()
	for _, u := range db.users {
		if u.Username == username || (guest && u.IsGuest) {
			db.mu.Unlock()
			return 0, domain.ErrUsernameTaken
		}
	}
	db.userIDCounter++
	id := db.userIDCounter
	db.users = append(db.users, domain.User{ID: id, Username: username, Password: password, IsGuest: guest})
	db.mu.Unlock()

	db.tracker.Invalidate(topicUsers)
	return id, nil
}

// Update replaces the user row with the same id.
func (db *DB) Update(ctx context.Context, u domain.User) error {
	db.mu.Lock()
	for _, other := range db.users {
		if other.ID != u.ID && other.Username == u.Username {
			db.mu.Unlock()
			return domain.ErrUsernameTaken
		}
	}
	if i := db.userIndex(u.ID); i >= 0 {
		db.users[i] = u
	}
	db.mu.Unlock()

	db.tracker.Invalidate(topicUsers)
	return nil
}

// DeleteUser removes a user and cascades to their weights and goal.
func (db *DB) DeleteUser(ctx context.Context, id int64) error {
	db.mu.Lock()
	if i := db.userIndex(id); i >= 0 {
		db.users = append(db.users[:i], db.users[i+1:]...)
	}
	weights := db.weights[:0]
	for _, w := range db.weights {
		if w.UserID != id {
			weights = append(weights, w)
		}
	}
	db.weights = weights
	goals := db.goals[:0]
	for _, g := range db.goals {
		if g.UserID != id {
			goals = append(goals, g)
		}
	}
	db.goals = goals
	db.mu.Unlock()

	db.tracker.Invalidate(topicUsers, topicWeights, topicGoals)
	return nil
}

func (db *DB) userIndex(id int64) int {
	for i, u := range db.users {
		if u.ID == id {
			return i
		}
	}
	return -1
}
