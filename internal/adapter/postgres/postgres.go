// Package postgres stores users, weights and goals in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"dailyweight/internal/domain"
	"dailyweight/internal/observe"
)

const (
	topicUsers   = "users"
	topicWeights = "weights"
	topicGoals   = "goals"
)

// DB wraps a *sql.DB and implements domain repository interfaces.
type DB struct {
	sql     *sql.DB
	tracker *observe.Tracker
	log     *slog.Logger
}

var (
	_ domain.UserRepository   = (*DB)(nil)
	_ domain.WeightRepository = (*DB)(nil)
	_ domain.GoalRepository   = (*DB)(nil)
)

// Open connects to PostgreSQL, pings, and runs migrations.
func Open(ctx context.Context, connStr string, logger *slog.Logger) (*DB, error) {
	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(10)
	s.SetMaxIdleConns(5)
	s.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.PingContext(pingCtx); err != nil {
		_ = s.Close()
		return nil, err
	}

	d := newDB(s, logger)
	if err := d.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return d, nil
}

func newDB(s *sql.DB, logger *slog.Logger) *DB {
	if logger == nil {
		logger = slog.Default()
	}
	return &DB{sql: s, tracker: observe.NewTracker(), log: logger}
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

// SchemaVersion is recorded in schema_version after migrating.
const SchemaVersion = 6

var schema = []string{
	"CREATE TABLE IF NOT EXISTS users (id BIGSERIAL PRIMARY KEY, username TEXT UNIQUE NOT NULL, password TEXT NOT NULL, is_guest BOOLEAN NOT NULL DEFAULT FALSE);",
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_users_single_guest ON users(is_guest) WHERE is_guest;",
	`CREATE TABLE IF NOT EXISTS weights (id BIGSERIAL PRIMARY KEY, "userId" BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE, weight DOUBLE PRECISION NOT NULL, date TEXT NOT NULL);`,
	`CREATE INDEX IF NOT EXISTS idx_weights_user_id ON weights("userId");`,
	`CREATE TABLE IF NOT EXISTS goals (id BIGSERIAL PRIMARY KEY, "userId" BIGINT UNIQUE NOT NULL REFERENCES users(id) ON DELETE CASCADE, "goalWeight" DOUBLE PRECISION NOT NULL);`,
	// Schema version 6.
	`ALTER TABLE weights ADD COLUMN IF NOT EXISTS notes TEXT NOT NULL DEFAULT '';`,
	"CREATE TABLE IF NOT EXISTS schema_version (id BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (id), version INTEGER NOT NULL);",
	fmt.Sprintf("INSERT INTO schema_version(id, version) VALUES (TRUE, %d) ON CONFLICT (id) DO UPDATE SET version = EXCLUDED.version;", SchemaVersion),
}

func (d *DB) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// mapErr translates constraint violations into domain errors.
func mapErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %v", domain.ErrUsernameTaken, err)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: %v", domain.ErrUnknownUser, err)
		}
	}
	return err
}
