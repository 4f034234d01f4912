package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists results in an embedded SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens (or creates) the database at path and runs migrations.
func NewSQLiteStore(ctx context.Context, path string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// WAL mode for concurrent readers
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}
	s := &SQLiteStore{db: db, logger: logger}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite match store opened", zap.String("path", path))
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS match_results (
			game_id     TEXT PRIMARY KEY,
			player_a    TEXT NOT NULL,
			player_b    TEXT NOT NULL,
			winner_seat INTEGER NOT NULL,
			winner_user TEXT NOT NULL,
			turns       INTEGER NOT NULL,
			vs_ai       INTEGER NOT NULL,
			checksum    TEXT NOT NULL,
			finished_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS match_results_finished_at ON match_results(finished_at DESC);
	`)
	return err
}

// SaveResult implements MatchStore.
func (s *SQLiteStore) SaveResult(ctx context.Context, r MatchResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO match_results
			(game_id, player_a, player_b, winner_seat, winner_user, turns, vs_ai, checksum, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(game_id) DO NOTHING`,
		r.GameID, r.PlayerA, r.PlayerB, r.WinnerSeat, r.WinnerUser, r.Turns, r.VsAI, r.Checksum,
		r.FinishedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save result %s: %w", r.GameID, err)
	}
	s.logger.Debug("match result saved", zap.String("game_id", r.GameID))
	return nil
}

// RecentResults implements MatchStore.
func (s *SQLiteStore) RecentResults(ctx context.Context, limit int) ([]MatchResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT game_id, player_a, player_b, winner_seat, winner_user, turns, vs_ai, checksum, finished_at
		FROM match_results
		ORDER BY finished_at DESC, game_id ASC
		LIMIT ?`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []MatchResult
	for rows.Next() {
		var r MatchResult
		var finished int64
		if err := rows.Scan(&r.GameID, &r.PlayerA, &r.PlayerB, &r.WinnerSeat, &r.WinnerUser,
			&r.Turns, &r.VsAI, &r.Checksum, &finished); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.FinishedAt = time.UnixMilli(finished).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close implements MatchStore.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
