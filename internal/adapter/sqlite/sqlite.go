// Package sqlite provides the on-device SQLite store for users, weights and
// goals.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	sqlitedrv "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
	sqlite3 "modernc.org/sqlite/lib"

	"dailyweight/internal/domain"
	"dailyweight/internal/observe"
)

const (
	topicUsers   = "users"
	topicWeights = "weights"
	topicGoals   = "goals"
)

// Ensure DB implements the repository ports.
var (
	_ domain.UserRepository   = (*DB)(nil)
	_ domain.WeightRepository = (*DB)(nil)
	_ domain.GoalRepository   = (*DB)(nil)
)

// DB wraps a *sql.DB and implements domain repository interfaces.
type DB struct {
	sql     *sql.DB
	tracker *observe.Tracker
	log     *slog.Logger
}

// Open creates the parent directory, opens the database with foreign keys
// enforced and migrates it to the current schema version.
func Open(ctx context.Context, path string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	s, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps pragmas and writes serialized.
	s.SetMaxOpenConns(1)

	if err := runMigrations(ctx, s, SchemaVersion); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Debug("sqlite store ready", "path", path, "schema_version", SchemaVersion)
	return &DB{sql: s, tracker: observe.NewTracker(), log: logger}, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

// mapErr translates constraint violations into domain errors.
func mapErr(err error) error {
	var se *sqlitedrv.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return fmt.Errorf("%w: %v", domain.ErrUsernameTaken, err)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %v", domain.ErrUnknownUser, err)
		}
	}
	return err
}
