package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dailyweight/internal/domain"
	"dailyweight/internal/observe"
)

var (
	_ domain.WeightRepository = (*DB)(nil)
	_ domain.GoalRepository   = (*DB)(nil)
	_ domain.UserRepository   = (*DB)(nil)
)

// --- WeightRepository ---

// AddWeight inserts a weight row for userID on day.
func (d *DB) AddWeight(ctx context.Context, userID int64, value float64, day string) (int64, error) {
	res, err := d.sql.ExecContext(ctx,
		"INSERT INTO weights (userId, weight, date) VALUES (?, ?, ?)",
		userID, value, day,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert weight: %w", mapErr(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read weight id: %w", err)
	}
	d.tracker.Invalidate(topicWeights)
	return id, nil
}

// UpdateWeight replaces the row with entry.ID.
func (d *DB) UpdateWeight(ctx context.Context, entry domain.WeightEntry) error {
	_, err := d.sql.ExecContext(ctx,
		"UPDATE weights SET userId = ?, weight = ?, date = ?, notes = ? WHERE id = ?",
		entry.UserID, entry.Value, entry.Day, entry.Notes, entry.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update weight: %w", mapErr(err))
	}
	d.tracker.Invalidate(topicWeights)
	return nil
}

// DeleteWeight removes the row with id.
func (d *DB) DeleteWeight(ctx context.Context, id int64) error {
	if _, err := d.sql.ExecContext(ctx, "DELETE FROM weights WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete weight: %w", err)
	}
	d.tracker.Invalidate(topicWeights)
	return nil
}

// ListWeights returns the user's weights ordered by date then id, newest first.
func (d *DB) ListWeights(ctx context.Context, userID int64) ([]domain.WeightEntry, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, userId, weight, date, notes FROM weights WHERE userId = ? ORDER BY date DESC, id DESC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query weights: %w", err)
	}
	defer rows.Close()

	out := make([]domain.WeightEntry, 0)
	for rows.Next() {
		var e domain.WeightEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Value, &e.Day, &e.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan weight: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// WatchWeights streams ListWeights after every committed weight mutation.
func (d *DB) WatchWeights(ctx context.Context, userID int64) <-chan []domain.WeightEntry {
	return observe.Query(ctx, d.tracker, d.log, func(ctx context.Context) ([]domain.WeightEntry, error) {
		return d.ListWeights(ctx, userID)
	}, topicWeights)
}

// --- GoalRepository ---

// GoalForUser returns the user's goal or nil.
func (d *DB) GoalForUser(ctx context.Context, userID int64) (*domain.Goal, error) {
	var g domain.Goal
	err := d.sql.QueryRowContext(ctx,
		"SELECT id, userId, goalWeight FROM goals WHERE userId = ?", userID,
	).Scan(&g.ID, &g.UserID, &g.GoalWeight)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query goal: %w", err)
	}
	return &g, nil
}

// SetGoal upserts the user's goal. The row keeps its id on replace.
func (d *DB) SetGoal(ctx context.Context, userID int64, goalWeight float64) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO goals (userId, goalWeight) VALUES (?, ?)
		 ON CONFLICT(userId) DO UPDATE SET goalWeight = excluded.goalWeight`,
		userID, goalWeight,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert goal: %w", mapErr(err))
	}
	d.tracker.Invalidate(topicGoals)
	return nil
}

// WatchGoal streams GoalForUser after every committed goal mutation.
func (d *DB) WatchGoal(ctx context.Context, userID int64) <-chan *domain.Goal {
	return observe.Query(ctx, d.tracker, d.log, func(ctx context.Context) (*domain.Goal, error) {
		return d.GoalForUser(ctx, userID)
	}, topicGoals)
}

// --- UserRepository ---

const userColumns = "id, username, password, is_guest"

func scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.Password, &u.IsGuest)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

// GetByUsername retrieves a user by username.
func (d *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return scanUser(d.sql.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = ?", username))
}

// GetByID retrieves a user by id.
func (d *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return scanUser(d.sql.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id))
}

// GetGuest retrieves the guest user.
func (d *DB) GetGuest(ctx context.Context) (*domain.User, error) {
	return scanUser(d.sql.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE is_guest = 1 LIMIT 1"))
}

// Create inserts a user and returns its id. Duplicate usernames and a second
// guest row fail with domain.ErrUsernameTaken.
func (d *DB) Create(ctx context.Context, username, password string, guest bool) (int64, error) {
	res, err := d.sql.ExecContext(ctx,
		"INSERT INTO users (username, password, is_guest) VALUES (?, ?, ?)",
		username, password, guest,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert user: %w", mapErr(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read user id: %w", err)
	}
	d.tracker.Invalidate(topicUsers)
	return id, nil
}

// Update replaces the user row with u.ID.
func (d *DB) Update(ctx context.Context, u domain.User) error {
	_, err := d.sql.ExecContext(ctx,
		"UPDATE users SET username = ?, password = ?, is_guest = ? WHERE id = ?",
		u.Username, u.Password, u.IsGuest, u.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", mapErr(err))
	}
	d.tracker.Invalidate(topicUsers)
	return nil
}

// DeleteUser removes a user; weights and goal rows cascade.
func (d *DB) DeleteUser(ctx context.Context, id int64) error {
	if _, err := d.sql.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	d.tracker.Invalidate(topicUsers, topicWeights, topicGoals)
	return nil
}
