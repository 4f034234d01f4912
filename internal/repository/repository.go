// Package repository persists finished matches.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/cardclash/clash-server-go/internal/config"
	"go.uber.org/zap"
)

// MatchResult is the record kept for a finished match.
type MatchResult struct {
	GameID     string
	PlayerA    string
	PlayerB    string
	WinnerSeat int
	WinnerUser string
	Turns      int
	VsAI       bool
	Checksum   string
	FinishedAt time.Time
}

// MatchStore saves and lists match results. Saving the same game id twice
// keeps the first record.
type MatchStore interface {
	SaveResult(ctx context.Context, r MatchResult) error
	RecentResults(ctx context.Context, limit int) ([]MatchResult, error)
	Close() error
}

// Open returns the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (MatchStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Driver {
	case "postgres":
		return NewPostgresStore(ctx, cfg, logger)
	case "sqlite":
		return NewSQLiteStore(ctx, cfg.Path, logger)
	case "memory", "":
		logger.Info("using in-memory match store")
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 50
	}
	return limit
}
