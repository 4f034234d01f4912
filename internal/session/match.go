package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cardclash/clash-server-go/internal/game"
	"github.com/cardclash/clash-server-go/internal/game/rules"
	"github.com/cardclash/clash-server-go/internal/game/watchers"
	"github.com/cardclash/clash-server-go/internal/repository"
	"go.uber.org/zap"
)

var (
	// ErrMatchClosed is returned by calls on a finished or abandoned match.
	ErrMatchClosed = errors.New("match is closed")
	// ErrNotAPlayer is returned when a user is not seated in the match.
	ErrNotAPlayer = errors.New("user is not a player of this match")
)

const subscriberBuffer = 100

// MatchInfo is a snapshot of a match for listings.
type MatchInfo struct {
	ID            string                  `json:"gameId"`
	Players       [2]string               `json:"players"`
	VsAI          bool                    `json:"vsAi"`
	Turn          int                     `json:"turn"`
	CurrentPlayer game.PlayerID           `json:"currentPlayer"`
	Winner        *game.PlayerID          `json:"winner,omitempty"`
	Connected     int                     `json:"connected"`
	Stats         [2]watchers.PlayerStats `json:"stats"`
}

type requestKind int

const (
	reqConnect requestKind = iota
	reqDisconnect
	reqSubmit
	reqView
	reqInfo
)

type request struct {
	kind   requestKind
	userID string
	cmd    Command
	sub    <-chan ServerMessage
	reply  chan response
}

type response struct {
	actions []game.Action
	view    *game.PublicGameState
	info    MatchInfo
	sub     <-chan ServerMessage
	err     error
}

// Match owns one game. A single goroutine serves every request, so the game
// is never touched concurrently.
type Match struct {
	ID      string
	players [2]string
	vsAI    bool

	requests chan request
	done     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once

	idleTimeout time.Duration
	store       repository.MatchStore
	recorder    *game.ReplayRecorder
	onClose     func(*Match)
	logger      *zap.Logger

	// owned by the actor goroutine
	g           *game.Game
	subscribers map[string]chan ServerMessage
	watchers    *watchers.Registry
}

type matchConfig struct {
	idleTimeout time.Duration
	store       repository.MatchStore
	recorder    *game.ReplayRecorder
	onClose     func(*Match)
	logger      *zap.Logger
}

func newMatch(g *game.Game, playerA, playerB string, cfg matchConfig) *Match {
	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Match{
		ID:          g.ID,
		players:     [2]string{playerA, playerB},
		vsAI:        g.VsAI,
		requests:    make(chan request),
		done:        make(chan struct{}),
		stop:        make(chan struct{}),
		idleTimeout: cfg.idleTimeout,
		store:       cfg.store,
		recorder:    cfg.recorder,
		onClose:     cfg.onClose,
		logger:      logger.With(zap.String("game_id", g.ID)),
		g:           g,
		subscribers: make(map[string]chan ServerMessage),
		watchers:    watchers.NewDefaultRegistry(),
	}
}

// Players returns the user ids seated as player A and player B.
func (m *Match) Players() [2]string { return m.players }

// Done is closed once the match has ended.
func (m *Match) Done() <-chan struct{} { return m.done }

// Seat returns the seat of a user.
func (m *Match) Seat(userID string) (game.PlayerID, bool) {
	for seat, id := range m.players {
		if id == userID {
			return game.PlayerID(seat), true
		}
	}
	return 0, false
}

func (m *Match) call(ctx context.Context, req request) (response, error) {
	req.reply = make(chan response, 1)
	select {
	case m.requests <- req:
	case <-m.done:
		return response{}, ErrMatchClosed
	case <-ctx.Done():
		return response{}, ctx.Err()
	}
	select {
	case resp := <-req.reply:
		return resp, resp.err
	case <-ctx.Done():
		return response{}, ctx.Err()
	}
}

// Connect subscribes a player to the match. The first message is the
// player's view. Connecting again replaces the previous subscription.
func (m *Match) Connect(ctx context.Context, userID string) (<-chan ServerMessage, error) {
	resp, err := m.call(ctx, request{kind: reqConnect, userID: userID})
	if err != nil {
		return nil, err
	}
	return resp.sub, nil
}

// Disconnect drops a player's subscription. sub must be the channel returned
// by Connect; a stale channel from a replaced connection is ignored.
func (m *Match) Disconnect(ctx context.Context, userID string, sub <-chan ServerMessage) error {
	_, err := m.call(ctx, request{kind: reqDisconnect, userID: userID, sub: sub})
	return err
}

// Submit runs a command for a player. Rule violations leave the game
// untouched and are also pushed to the player as an Error message.
func (m *Match) Submit(ctx context.Context, userID string, cmd Command) ([]game.Action, error) {
	resp, err := m.call(ctx, request{kind: reqSubmit, userID: userID, cmd: cmd})
	return resp.actions, err
}

// View returns a player's projection of the game.
func (m *Match) View(ctx context.Context, userID string) (*game.PublicGameState, error) {
	resp, err := m.call(ctx, request{kind: reqView, userID: userID})
	return resp.view, err
}

// Info returns a snapshot for listings.
func (m *Match) Info(ctx context.Context) (MatchInfo, error) {
	resp, err := m.call(ctx, request{kind: reqInfo})
	return resp.info, err
}

// Close abandons the match without recording a result.
func (m *Match) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
	<-m.done
}

func (m *Match) run() {
	defer m.shutdown()

	var idle <-chan time.Time
	var timer *time.Timer
	if m.idleTimeout > 0 {
		timer = time.NewTimer(m.idleTimeout)
		defer timer.Stop()
		idle = timer.C
	}

	for {
		select {
		case req := <-m.requests:
			finished := m.handle(req)
			if finished {
				return
			}
			if timer != nil {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(m.idleTimeout)
			}
		case <-idle:
			m.logger.Info("match abandoned after inactivity", zap.Duration("idle_timeout", m.idleTimeout))
			m.broadcast(textMessage("Match closed after inactivity"))
			return
		case <-m.stop:
			m.logger.Info("match closed")
			return
		}
	}
}

func (m *Match) shutdown() {
	for userID, ch := range m.subscribers {
		close(ch)
		delete(m.subscribers, userID)
	}
	if m.recorder != nil && !m.g.IsOver() {
		m.recorder.ClearReplay(m.ID)
	}
	if m.onClose != nil {
		m.onClose(m)
	}
	close(m.done)
	m.logger.Info("match task ended")
}

// handle serves one request and reports whether the match is over.
func (m *Match) handle(req request) bool {
	var resp response
	finished := false

	switch req.kind {
	case reqConnect:
		resp.sub, resp.err = m.connect(req.userID)
	case reqDisconnect:
		resp.err = m.disconnect(req.userID, req.sub)
	case reqSubmit:
		resp.actions, resp.err = m.submit(req.userID, req.cmd)
		finished = m.g.IsOver()
	case reqView:
		seat, ok := m.Seat(req.userID)
		if !ok {
			resp.err = ErrNotAPlayer
			break
		}
		resp.view, resp.err = m.g.View(seat)
	case reqInfo:
		resp.info = m.info()
	}

	req.reply <- resp
	return finished
}

func (m *Match) info() MatchInfo {
	info := MatchInfo{
		ID:            m.ID,
		Players:       m.players,
		VsAI:          m.vsAI,
		Turn:          m.g.Turn,
		CurrentPlayer: m.g.CurrentPlayer,
		Connected:     len(m.subscribers),
		Stats:         m.watchers.Stats(),
	}
	if w, ok := m.g.Winner(); ok {
		info.Winner = &w
	}
	return info
}

func (m *Match) connect(userID string) (<-chan ServerMessage, error) {
	seat, ok := m.Seat(userID)
	if !ok {
		return nil, ErrNotAPlayer
	}
	view, err := m.g.View(seat)
	if err != nil {
		return nil, err
	}

	if old, exists := m.subscribers[userID]; exists {
		close(old)
	}
	ch := make(chan ServerMessage, subscriberBuffer)
	m.subscribers[userID] = ch

	m.logger.Info("player connected", zap.String("user_id", userID), zap.Int("seat", seat))
	m.send(userID, viewMessage(view))
	m.broadcast(textMessage("Player joined"))
	return ch, nil
}

func (m *Match) disconnect(userID string, sub <-chan ServerMessage) error {
	ch, ok := m.subscribers[userID]
	if !ok || (sub != nil && (<-chan ServerMessage)(ch) != sub) {
		return nil
	}
	close(ch)
	delete(m.subscribers, userID)

	m.logger.Info("player disconnected", zap.String("user_id", userID))
	m.broadcast(textMessage("Player left"))
	return nil
}

func (m *Match) submit(userID string, cmd Command) ([]game.Action, error) {
	seat, ok := m.Seat(userID)
	if !ok {
		return nil, ErrNotAPlayer
	}

	bookmark := m.g.Clone()
	actions, err := cmd.Apply(m.g, seat)
	if err != nil {
		m.g = bookmark
		if rules.IsRule(err) {
			m.logger.Debug("command rejected",
				zap.String("user_id", userID),
				zap.Stringer("command", cmd),
				zap.Error(err),
			)
		} else {
			m.logger.Error("command failed, state restored",
				zap.String("user_id", userID),
				zap.Stringer("command", cmd),
				zap.Error(err),
			)
		}
		m.send(userID, errorMessage(rules.Message(err)))
		return nil, err
	}

	if m.recorder != nil {
		m.recorder.Record(m.g, seat, cmd.String(), actions)
	}
	m.watchers.Observe(actions)
	m.route(actions)

	if m.g.IsOver() {
		m.finish()
	}
	return actions, nil
}

// route delivers actions: draws go to their player only, turn bookkeeping
// stays internal, everything else is broadcast.
func (m *Match) route(actions []game.Action) {
	for _, a := range actions {
		if a.Internal() {
			if a.Type == game.ActionStartTurn {
				m.logger.Debug("turn started", zap.Int("player_id", a.Player))
			}
			continue
		}
		if seat, ok := a.Recipient(); ok {
			m.send(m.players[seat], actionMessage(a))
			continue
		}
		m.broadcast(actionMessage(a))
		if a.Type == game.ActionWin {
			return
		}
	}
}

// VisibleTo filters actions down to what seat is allowed to see, in the
// order they would be delivered. A seat other than A or B only sees public
// actions.
func VisibleTo(actions []game.Action, seat game.PlayerID) []game.Action {
	out := make([]game.Action, 0, len(actions))
	for _, a := range actions {
		if a.Internal() {
			continue
		}
		if to, ok := a.Recipient(); ok && to != seat {
			continue
		}
		out = append(out, a)
		if a.Type == game.ActionWin {
			break
		}
	}
	return out
}

func (m *Match) finish() {
	winner, _ := m.g.Winner()
	result := repository.MatchResult{
		GameID:     m.ID,
		PlayerA:    m.players[game.PlayerA],
		PlayerB:    m.players[game.PlayerB],
		WinnerSeat: winner,
		WinnerUser: m.players[winner],
		Turns:      m.g.Turn,
		VsAI:       m.vsAI,
		Checksum:   m.g.Checksum(),
		FinishedAt: time.Now().UTC(),
	}

	stats := m.watchers.Stats()
	m.logger.Info("match finished",
		zap.Int("winner", winner),
		zap.String("winner_user", result.WinnerUser),
		zap.Int("turns", result.Turns),
		zap.Any("stats_a", stats[game.PlayerA]),
		zap.Any("stats_b", stats[game.PlayerB]),
	)

	if m.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := m.store.SaveResult(ctx, result); err != nil {
			m.logger.Error("failed to save match result", zap.Error(err))
		}
		cancel()
	}
	if m.recorder != nil {
		if err := m.recorder.SaveReplay(m.ID); err != nil {
			m.logger.Warn("failed to save replay", zap.Error(err))
		}
	}
}

func (m *Match) send(userID string, msg ServerMessage) {
	ch, ok := m.subscribers[userID]
	if !ok {
		return
	}
	select {
	case ch <- msg:
	default:
		m.logger.Warn("dropping message for slow player", zap.String("user_id", userID))
	}
}

func (m *Match) broadcast(msg ServerMessage) {
	for userID := range m.subscribers {
		m.send(userID, msg)
	}
}

func (m *Match) String() string {
	return fmt.Sprintf("Match(%s: %s vs %s)", m.ID, m.players[0], m.players[1])
}
