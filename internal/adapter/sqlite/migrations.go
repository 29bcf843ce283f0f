package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the version Open migrates to.
const SchemaVersion = 6

type migration struct {
	version int
	stmts   []string
}

// Version 5 is the first shipped schema; earlier versions were never
// released, so a blank database jumps straight to it.
var migrations = []migration{
	{
		version: 5,
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				username TEXT NOT NULL UNIQUE,
				password TEXT NOT NULL,
				is_guest INTEGER NOT NULL DEFAULT 0
			)`,
			// At most one guest row.
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_single_guest ON users(is_guest) WHERE is_guest = 1`,
			`CREATE TABLE IF NOT EXISTS weights (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				userId INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				weight REAL NOT NULL,
				date TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_weights_userId ON weights(userId)`,
			`CREATE TABLE IF NOT EXISTS goals (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				userId INTEGER NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
				goalWeight REAL NOT NULL
			)`,
		},
	},
	{
		version: 6,
		stmts: []string{
			`ALTER TABLE weights ADD COLUMN notes TEXT NOT NULL DEFAULT ''`,
		},
	},
}

func userVersion(ctx context.Context, db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}

// runMigrations applies every migration above the stored user_version up to
// and including target, each in its own transaction.
func runMigrations(ctx context.Context, db *sql.DB, target int) error {
	current, err := userVersion(ctx, db)
	if err != nil {
		return err
	}
	if current > target {
		return fmt.Errorf("database schema version %d is newer than supported version %d", current, target)
	}

	for _, m := range migrations {
		if m.version <= current || m.version > target {
			continue
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.version, err)
		}
		for _, stmt := range m.stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d: %w", m.version, err)
			}
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d: set version: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
		}
	}
	return nil
}
