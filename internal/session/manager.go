// Package session runs live matches: one actor goroutine per game, command
// routing to connected players and matchmaking.
package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"sync"
	"time"

	"github.com/cardclash/clash-server-go/internal/catalog"
	"github.com/cardclash/clash-server-go/internal/game"
	"github.com/cardclash/clash-server-go/internal/game/ai"
	"github.com/cardclash/clash-server-go/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrGameNotFound is returned for unknown game ids.
	ErrGameNotFound = errors.New("game not found")
	// ErrAlreadyInGame is returned when a user with a live match asks for another.
	ErrAlreadyInGame = errors.New("user already has an active game")
	// ErrTooManyGames is returned when the live match limit is reached.
	ErrTooManyGames = errors.New("too many active games")
	// ErrReplayNotFound is returned when no saved replay exists for a game.
	ErrReplayNotFound = errors.New("replay not found")
	// ErrReplaysDisabled is returned when the manager has no recorder.
	ErrReplaysDisabled = errors.New("replay recording is disabled")
)

// Options tunes a Manager.
type Options struct {
	MaxGames    int
	IdleTimeout time.Duration
}

// Manager creates and tracks live matches.
type Manager struct {
	matches map[string]*Match
	byUser  map[string]string
	mu      sync.RWMutex

	catalog   *catalog.Catalog
	autopilot game.Autopilot
	store     repository.MatchStore
	recorder  *game.ReplayRecorder
	opts      Options
	logger    *zap.Logger
}

// NewManager creates a manager. store and recorder may be nil.
func NewManager(cat *catalog.Catalog, store repository.MatchStore, recorder *game.ReplayRecorder, opts Options, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		matches:   make(map[string]*Match),
		byUser:    make(map[string]string),
		catalog:   cat,
		autopilot: ai.New(logger.Named("ai")),
		store:     store,
		recorder:  recorder,
		opts:      opts,
		logger:    logger,
	}
}

// Catalog returns the card catalog games are built from.
func (m *Manager) Catalog() *catalog.Catalog { return m.catalog }

// CreateVsAI starts a match between a user (player A) and the autopilot.
func (m *Manager) CreateVsAI(userID string, deck game.Deck) (*Match, error) {
	aiDeck, err := m.catalog.AIDeck()
	if err != nil {
		return nil, err
	}
	return m.create(userID, deck, "ai-"+uuid.New().String(), aiDeck, true)
}

// CreatePvP starts a match between two users.
func (m *Manager) CreatePvP(userA string, deckA game.Deck, userB string, deckB game.Deck) (*Match, error) {
	if userA == userB {
		return nil, fmt.Errorf("a user can not play against themselves")
	}
	return m.create(userA, deckA, userB, deckB, false)
}

func (m *Manager) create(userA string, deckA game.Deck, userB string, deckB game.Deck, vsAI bool) (*Match, error) {
	for _, d := range []game.Deck{deckA, deckB} {
		if err := m.catalog.ValidateDeck(d); err != nil {
			return nil, fmt.Errorf("invalid deck: %w", err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.opts.MaxGames > 0 && len(m.matches) >= m.opts.MaxGames {
		return nil, ErrTooManyGames
	}
	for _, user := range []string{userA, userB} {
		if _, busy := m.byUser[user]; busy {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyInGame, user)
		}
	}

	opts := []game.Option{game.WithLogger(m.logger.Named("game"))}
	if vsAI {
		opts = append(opts, game.WithAutopilot(m.autopilot))
	}
	g, err := game.New(m.catalog.Seat(deckA), m.catalog.Seat(deckB), vsAI, opts...)
	if err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	opening, err := g.Start()
	if err != nil {
		return nil, fmt.Errorf("start game: %w", err)
	}
	if m.recorder != nil {
		m.recorder.StartRecording(g.ID, [2]string{userA, userB})
		m.recorder.Record(g, game.PlayerA, "Start", opening)
	}

	match := newMatch(g, userA, userB, matchConfig{
		idleTimeout: m.opts.IdleTimeout,
		store:       m.store,
		recorder:    m.recorder,
		onClose:     m.remove,
		logger:      m.logger,
	})
	m.matches[match.ID] = match
	m.byUser[userA] = match.ID
	if !vsAI {
		m.byUser[userB] = match.ID
	}
	go match.run()

	m.logger.Info("match created",
		zap.String("game_id", match.ID),
		zap.String("player_a", userA),
		zap.String("player_b", userB),
		zap.Bool("vs_ai", vsAI),
	)
	return match, nil
}

func (m *Manager) remove(match *Match) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.matches, match.ID)
	for _, user := range match.players {
		if m.byUser[user] == match.ID {
			delete(m.byUser, user)
		}
	}
	m.logger.Info("match removed", zap.String("game_id", match.ID))
}

// Get returns a live match by id.
func (m *Manager) Get(gameID string) (*Match, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	match, ok := m.matches[gameID]
	return match, ok
}

// GameFor returns the live match a user is seated in.
func (m *Manager) GameFor(userID string) (*Match, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byUser[userID]
	if !ok {
		return nil, false
	}
	match, ok := m.matches[id]
	return match, ok
}

// Count returns the number of live matches.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.matches)
}

// List returns a snapshot of every live match ordered by id.
func (m *Manager) List(ctx context.Context) []MatchInfo {
	m.mu.RLock()
	matches := make([]*Match, 0, len(m.matches))
	for _, match := range m.matches {
		matches = append(matches, match)
	}
	m.mu.RUnlock()

	infos := make([]MatchInfo, 0, len(matches))
	for _, match := range matches {
		info, err := match.Info(ctx)
		if err != nil {
			// finished between the copy and the call
			continue
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// Replay loads the saved replay of a finished match as userID saw it.
// Players get their own draws; anyone else only sees public actions.
func (m *Manager) Replay(gameID, userID string) (*game.Replay, error) {
	if m.recorder == nil {
		return nil, ErrReplaysDisabled
	}
	saved, err := m.recorder.LoadReplay(gameID)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrReplayNotFound, gameID)
		}
		return nil, err
	}

	seat, ok := saved.Seat(userID)
	if !ok {
		seat = -1
	}
	out := game.NewReplay(saved.GameID, saved.Players)
	for _, f := range saved.Frames {
		frame := *f
		frame.Actions = VisibleTo(f.Actions, seat)
		out.Frames = append(out.Frames, &frame)
	}
	return out, nil
}

// CloseAll abandons every live match.
func (m *Manager) CloseAll() {
	m.mu.RLock()
	matches := make([]*Match, 0, len(m.matches))
	for _, match := range m.matches {
		matches = append(matches, match)
	}
	m.mu.RUnlock()

	for _, match := range matches {
		match.Close()
	}
	m.logger.Info("all matches closed", zap.Int("count", len(matches)))
}
