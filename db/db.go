package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq" // Import postgres driver
)

func Connect(dsn string, timeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database handle: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			slog.Warn("failed to close database handle after ping error", slog.Any("error", closeErr))
		}
		return nil, fmt.Errorf("failed to ping database within %v: %w", timeout, err)
	}

	return db, nil
}

// schema is idempotent. The partial unique index on matches.court_id and
// the unique courts.current_match_id together keep a court and a match
// from being claimed twice.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS players (
		id           TEXT PRIMARY KEY,
		name         TEXT NOT NULL,
		gender       TEXT NOT NULL CHECK (gender IN ('male', 'female')),
		division     INTEGER NOT NULL CHECK (division > 0),
		is_active    BOOLEAN NOT NULL DEFAULT TRUE,
		total_points INTEGER NOT NULL DEFAULT 0,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS matches (
		id              TEXT PRIMARY KEY,
		bracket_id      TEXT NOT NULL,
		tournament_type TEXT NOT NULL CHECK (tournament_type IN ('MS', 'WS', 'MD', 'WD', 'XD')),
		division        INTEGER NOT NULL CHECK (division > 0),
		round           INTEGER NOT NULL,
		match_number    INTEGER NOT NULL,
		status          TEXT NOT NULL CHECK (status IN ('waiting', 'calling', 'playing', 'completed')),
		court_id        TEXT,
		player1_id      TEXT,
		player2_id      TEXT,
		player3_id      TEXT,
		player4_id      TEXT,
		player5_id      TEXT,
		player6_id      TEXT,
		score_p1        INTEGER,
		score_p2        INTEGER,
		winner_id       TEXT,
		is_walkover     BOOLEAN NOT NULL DEFAULT FALSE,
		next_match_id   TEXT REFERENCES matches (id) DEFERRABLE INITIALLY DEFERRED,
		winner_to_slot  INTEGER CHECK (winner_to_slot IN (1, 2)),
		started_at      TIMESTAMPTZ,
		completed_at    TIMESTAMPTZ,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS matches_active_court_key
		ON matches (court_id) WHERE status IN ('calling', 'playing')`,
	`CREATE INDEX IF NOT EXISTS matches_status_created_idx ON matches (status, created_at)`,
	`CREATE INDEX IF NOT EXISTS matches_bracket_idx ON matches (bracket_id)`,
	`CREATE TABLE IF NOT EXISTS courts (
		id               TEXT PRIMARY KEY,
		name             TEXT NOT NULL,
		current_match_id TEXT REFERENCES matches (id),
		CONSTRAINT courts_current_match_id_key UNIQUE (current_match_id)
	)`,
	`CREATE TABLE IF NOT EXISTS system_config (
		id                    TEXT PRIMARY KEY,
		auto_dispatch_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		enabled_tournaments   TEXT[] NOT NULL DEFAULT '{}',
		updated_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS priority_boosts (
		id           TEXT PRIMARY KEY,
		category     TEXT NOT NULL,
		activated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS duration_samples (
		id               TEXT PRIMARY KEY,
		category         TEXT NOT NULL,
		duration_minutes DOUBLE PRECISION NOT NULL CHECK (duration_minutes >= 0),
		recorded_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS duration_samples_category_idx ON duration_samples (category, recorded_at DESC)`,
}

// EnsureSchema creates the tables the engine needs if they are missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema: %w", err)
	}
	return nil
}
