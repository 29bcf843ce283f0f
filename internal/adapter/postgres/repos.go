package postgres

import (
	"context"
	"database/sql"
	"errors"

	"dailyweight/internal/domain"
	"dailyweight/internal/observe"
)

var (
	_ domain.WeightRepository = (*DB)(nil)
	_ domain.GoalRepository   = (*DB)(nil)
	_ domain.UserRepository   = (*DB)(nil)
)

// AddWeight inserts a new weight row.
func (d *DB) AddWeight(ctx context.Context, userID int64, value float64, day string) (int64, error) {
	var id int64
	err := d.sql.QueryRowContext(ctx,
		`INSERT INTO weights("userId", weight, date) VALUES($1, $2, $3) RETURNING id;`,
		userID, value, day,
	).Scan(&id)
	if err != nil {
		return 0, mapErr(err)
	}
	d.tracker.Invalidate(topicWeights)
	return id, nil
}

// UpdateWeight replaces the row with entry.ID.
func (d *DB) UpdateWeight(ctx context.Context, entry domain.WeightEntry) error {
	_, err := d.sql.ExecContext(ctx,
		`UPDATE weights SET "userId"=$1, weight=$2, date=$3, notes=$4 WHERE id=$5;`,
		entry.UserID, entry.Value, entry.Day, entry.Notes, entry.ID,
	)
	if err != nil {
		return mapErr(err)
	}
	d.tracker.Invalidate(topicWeights)
	return nil
}

// DeleteWeight removes a weight row by id.
func (d *DB) DeleteWeight(ctx context.Context, id int64) error {
	if _, err := d.sql.ExecContext(ctx, "DELETE FROM weights WHERE id=$1;", id); err != nil {
		return err
	}
	d.tracker.Invalidate(topicWeights)
	return nil
}

// ListWeights returns the user's weights, newest first.
func (d *DB) ListWeights(ctx context.Context, userID int64) ([]domain.WeightEntry, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT id, "userId", weight, date, notes FROM weights WHERE "userId"=$1 ORDER BY date DESC, id DESC;`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.WeightEntry, 0)
	for rows.Next() {
		var e domain.WeightEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Value, &e.Day, &e.Notes); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// WatchWeights streams ListWeights after every weight mutation made through d.
func (d *DB) WatchWeights(ctx context.Context, userID int64) <-chan []domain.WeightEntry {
	return observe.Query(ctx, d.tracker, d.log, func(ctx context.Context) ([]domain.WeightEntry, error) {
		return d.ListWeights(ctx, userID)
	}, topicWeights)
}

// GoalForUser returns the user's goal, or nil if none is set.
func (d *DB) GoalForUser(ctx context.Context, userID int64) (*domain.Goal, error) {
	var g domain.Goal
	err := d.sql.QueryRowContext(ctx,
		`SELECT id, "userId", "goalWeight" FROM goals WHERE "userId"=$1;`, userID,
	).Scan(&g.ID, &g.UserID, &g.GoalWeight)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

// SetGoal upserts the user's goal.
func (d *DB) SetGoal(ctx context.Context, userID int64, goalWeight float64) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO goals("userId", "goalWeight") VALUES($1, $2) ON CONFLICT ("userId") DO UPDATE SET "goalWeight" = EXCLUDED."goalWeight";`,
		userID, goalWeight,
	)
	if err != nil {
		return mapErr(err)
	}
	d.tracker.Invalidate(topicGoals)
	return nil
}

// WatchGoal streams GoalForUser after every goal mutation made through d.
func (d *DB) WatchGoal(ctx context.Context, userID int64) <-chan *domain.Goal {
	return observe.Query(ctx, d.tracker, d.log, func(ctx context.Context) (*domain.Goal, error) {
		return d.GoalForUser(ctx, userID)
	}, topicGoals)
}

func (d *DB) getUser(ctx context.Context, where string, args ...any) (*domain.User, error) {
	var u domain.User
	err := d.sql.QueryRowContext(ctx,
		"SELECT id, username, password, is_guest FROM users WHERE "+where+";", args...,
	).Scan(&u.ID, &u.Username, &u.Password, &u.IsGuest)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// GetByUsername retrieves a user by username.
func (d *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return d.getUser(ctx, "username=$1", username)
}

// GetByID retrieves a user by id.
func (d *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return d.getUser(ctx, "id=$1", id)
}

// GetGuest retrieves the guest user.
func (d *DB) GetGuest(ctx context.Context) (*domain.User, error) {
	return d.getUser(ctx, "is_guest LIMIT 1")
}

// Create inserts a user and returns its id.
func (d *DB) Create(ctx context.Context, username, password string, guest bool) (int64, error) {
	var id int64
	err := d.sql.QueryRowContext(ctx,
		"INSERT INTO users(username, password, is_guest) VALUES($1, $2, $3) RETURNING id;",
		username, password, guest,
	).Scan(&id)
	if err != nil {
		return 0, mapErr(err)
	}
	d.tracker.Invalidate(topicUsers)
	return id, nil
}

// Update replaces the user row with u.ID.
func (d *DB) Update(ctx context.Context, u domain.User) error {
	_, err := d.sql.ExecContext(ctx,
		"UPDATE users SET username=$1, password=$2, is_guest=$3 WHERE id=$4;",
		u.Username, u.Password, u.IsGuest, u.ID,
	)
	if err != nil {
		return mapErr(err)
	}
	d.tracker.Invalidate(topicUsers)
	return nil
}
