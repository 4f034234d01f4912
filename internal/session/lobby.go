package session

import (
	"context"
	"sync"

	"github.com/cardclash/clash-server-go/internal/game"
	"go.uber.org/zap"
)

// LobbyMessageType tags a LobbyMessage.
type LobbyMessageType string

const (
	LobbyWaiting   LobbyMessageType = "Waiting"
	LobbyGameFound LobbyMessageType = "GameFound"
	LobbyError     LobbyMessageType = "Error"
)

// LobbyMessage is pushed to a player waiting for an opponent.
type LobbyMessage struct {
	Type   LobbyMessageType `json:"type"`
	GameID string           `json:"gameId,omitempty"`
	Error  string           `json:"error,omitempty"`
}

type pairing struct {
	gameID string
	err    error
}

type ticket struct {
	userID string
	deck   game.Deck
	found  chan pairing
}

// Lobby pairs waiting players in arrival order.
type Lobby struct {
	manager *Manager
	waiting []*ticket
	mu      sync.Mutex
	logger  *zap.Logger
}

// NewLobby creates a lobby backed by manager.
func NewLobby(manager *Manager, logger *zap.Logger) *Lobby {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lobby{manager: manager, logger: logger}
}

// Waiting returns the number of queued players.
func (l *Lobby) Waiting() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.waiting)
}

// Join queues a player and blocks until an opponent arrives or ctx ends.
// A user who already has a live match gets its id back immediately. The
// longest waiting player takes seat A.
func (l *Lobby) Join(ctx context.Context, userID string, deck game.Deck) (string, error) {
	if match, ok := l.manager.GameFor(userID); ok {
		l.logger.Info("user already has an active game",
			zap.String("user_id", userID),
			zap.String("game_id", match.ID),
		)
		return match.ID, nil
	}
	if err := l.manager.catalog.ValidateDeck(deck); err != nil {
		return "", err
	}

	l.mu.Lock()
	var opponent *ticket
	for i, t := range l.waiting {
		if t.userID != userID {
			opponent = t
			l.waiting = append(l.waiting[:i], l.waiting[i+1:]...)
			break
		}
	}
	if opponent != nil {
		l.mu.Unlock()
		return l.pair(opponent, userID, deck)
	}

	mine := &ticket{userID: userID, deck: deck, found: make(chan pairing, 1)}
	l.waiting = append(l.waiting, mine)
	l.mu.Unlock()

	l.logger.Debug("player waiting for an opponent", zap.String("user_id", userID))

	select {
	case p := <-mine.found:
		return p.gameID, p.err
	case <-ctx.Done():
		if l.leave(mine) {
			l.logger.Info("user left matchmaking", zap.String("user_id", userID))
			return "", ctx.Err()
		}
		// paired while leaving
		p := <-mine.found
		return p.gameID, p.err
	}
}

func (l *Lobby) pair(opponent *ticket, userID string, deck game.Deck) (string, error) {
	match, err := l.manager.CreatePvP(opponent.userID, opponent.deck, userID, deck)
	if err != nil {
		l.logger.Error("failed to create matched game", zap.Error(err))
		opponent.found <- pairing{err: err}
		return "", err
	}

	l.logger.Info("match found",
		zap.String("game_id", match.ID),
		zap.String("player_a", opponent.userID),
		zap.String("player_b", userID),
	)
	opponent.found <- pairing{gameID: match.ID}
	return match.ID, nil
}

func (l *Lobby) leave(t *ticket) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, w := range l.waiting {
		if w == t {
			l.waiting = append(l.waiting[:i], l.waiting[i+1:]...)
			return true
		}
	}
	return false
}
