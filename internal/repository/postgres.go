package repository

import (
	"context"
	"fmt"

	"github.com/cardclash/clash-server-go/internal/config"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresStore persists results in PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore connects, pings and migrates.
func NewPostgresStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &PostgresStore{pool: pool, logger: logger}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	stats := pool.Stat()
	logger.Info("database connection pool initialized",
		zap.Int32("total_conns", stats.TotalConns()),
		zap.Int32("idle_conns", stats.IdleConns()),
	)
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS match_results (
			game_id     TEXT PRIMARY KEY,
			player_a    TEXT NOT NULL,
			player_b    TEXT NOT NULL,
			winner_seat INTEGER NOT NULL,
			winner_user TEXT NOT NULL,
			turns       INTEGER NOT NULL,
			vs_ai       BOOLEAN NOT NULL,
			checksum    TEXT NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS match_results_finished_at ON match_results(finished_at DESC);

		CREATE TABLE IF NOT EXISTS card_templates (
			id          INTEGER PRIMARY KEY,
			name        TEXT NOT NULL,
			description TEXT NOT NULL,
			cost        INTEGER NOT NULL,
			race        TEXT NOT NULL,
			class       TEXT NOT NULL,
			kind        TEXT NOT NULL,
			attack      INTEGER NOT NULL,
			hp          INTEGER NOT NULL,
			keywords    TEXT[] NOT NULL DEFAULT '{}',
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`)
	return err
}

// SaveResult implements MatchStore.
func (s *PostgresStore) SaveResult(ctx context.Context, r MatchResult) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO match_results
			(game_id, player_a, player_b, winner_seat, winner_user, turns, vs_ai, checksum, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (game_id) DO NOTHING`,
		r.GameID, r.PlayerA, r.PlayerB, r.WinnerSeat, r.WinnerUser, r.Turns, r.VsAI, r.Checksum, r.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("save result %s: %w", r.GameID, err)
	}
	s.logger.Debug("match result saved", zap.String("game_id", r.GameID))
	return nil
}

// RecentResults implements MatchStore.
func (s *PostgresStore) RecentResults(ctx context.Context, limit int) ([]MatchResult, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT game_id, player_a, player_b, winner_seat, winner_user, turns, vs_ai, checksum, finished_at
		FROM match_results
		ORDER BY finished_at DESC, game_id ASC
		LIMIT $1`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (MatchResult, error) {
		var r MatchResult
		err := row.Scan(&r.GameID, &r.PlayerA, &r.PlayerB, &r.WinnerSeat, &r.WinnerUser,
			&r.Turns, &r.VsAI, &r.Checksum, &r.FinishedAt)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan results: %w", err)
	}
	return out, nil
}

// CardTemplateRow is one row of the card_templates table.
type CardTemplateRow struct {
	ID          int
	Name        string
	Description string
	Cost        int
	Race        string
	Class       string
	Kind        string
	Attack      int
	HP          int
	Keywords    []string
}

// UpsertCardTemplates writes the rows in a single batch and returns the
// number of rows written.
func (s *PostgresStore) UpsertCardTemplates(ctx context.Context, rows []CardTemplateRow) (int, error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		keywords := r.Keywords
		if keywords == nil {
			keywords = []string{}
		}
		batch.Queue(`
			INSERT INTO card_templates (id, name, description, cost, race, class, kind, attack, hp, keywords)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				description = EXCLUDED.description,
				cost = EXCLUDED.cost,
				race = EXCLUDED.race,
				class = EXCLUDED.class,
				kind = EXCLUDED.kind,
				attack = EXCLUDED.attack,
				hp = EXCLUDED.hp,
				keywords = EXCLUDED.keywords,
				updated_at = now()`,
			r.ID, r.Name, r.Description, r.Cost, r.Race, r.Class, r.Kind, r.Attack, r.HP, keywords)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	written := 0
	for _, r := range rows {
		if _, err := results.Exec(); err != nil {
			return written, fmt.Errorf("upsert card %d: %w", r.ID, err)
		}
		written++
	}
	return written, nil
}

// Close implements MatchStore.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
