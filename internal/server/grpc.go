// Package server exposes live matches over gRPC and WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"runtime"
	"time"

	"github.com/cardclash/clash-server-go/internal/catalog"
	"github.com/cardclash/clash-server-go/internal/game"
	"github.com/cardclash/clash-server-go/internal/game/rules"
	"github.com/cardclash/clash-server-go/internal/repository"
	"github.com/cardclash/clash-server-go/internal/session"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ClashServer implements ClashServiceServer on top of a session manager.
type ClashServer struct {
	manager       *session.Manager
	lobby         *session.Lobby
	store         repository.MatchStore
	logger        *zap.Logger
	serverVersion string
}

// NewClashServer creates the gRPC service. store may be nil.
func NewClashServer(manager *session.Manager, lobby *session.Lobby, store repository.MatchStore, serverVersion string, logger *zap.Logger) *ClashServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClashServer{
		manager:       manager,
		lobby:         lobby,
		store:         store,
		logger:        logger,
		serverVersion: serverVersion,
	}
}

// DeckRequest names a catalog deck or carries a full deck list.
type DeckRequest struct {
	DeckName string     `json:"deckName,omitempty"`
	Deck     *game.Deck `json:"deck,omitempty"`
}

// Resolve returns the requested deck. An empty request selects the default
// human deck.
func (d DeckRequest) Resolve(cat *catalog.Catalog) (game.Deck, error) {
	if d.Deck != nil {
		return *d.Deck, nil
	}
	name := d.DeckName
	if name == "" {
		name = catalog.DeckHuman
	}
	deck, ok := cat.Deck(name)
	if !ok {
		return game.Deck{}, fmt.Errorf("unknown deck %q", name)
	}
	return deck, nil
}

// StartGameRequest asks for a new match. Without an opponent the user plays
// the autopilot.
type StartGameRequest struct {
	UserID     string      `json:"userId"`
	Deck       DeckRequest `json:"deck"`
	OpponentID string      `json:"opponentId,omitempty"`
	Opponent   DeckRequest `json:"opponentDeck"`
}

// SubmitCommandRequest carries one player command.
type SubmitCommandRequest struct {
	GameID  string          `json:"gameId"`
	UserID  string          `json:"userId"`
	Command json.RawMessage `json:"command"`
}

// ViewRequest identifies a player in a match.
type ViewRequest struct {
	GameID string `json:"gameId"`
	UserID string `json:"userId"`
}

// ResultPayload is the wire form of a stored match result.
type ResultPayload struct {
	GameID     string    `json:"gameId"`
	PlayerA    string    `json:"playerA"`
	PlayerB    string    `json:"playerB"`
	WinnerSeat int       `json:"winnerSeat"`
	WinnerUser string    `json:"winnerUser"`
	Turns      int       `json:"turns"`
	VsAI       bool      `json:"vsAi"`
	Checksum   string    `json:"checksum"`
	FinishedAt time.Time `json:"finishedAt"`
}

func failure(msg string) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"success": false,
		"error":   msg,
	})
}

func success(v any) (*structpb.Struct, error) {
	out, err := toStruct(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	if out.Fields == nil {
		out.Fields = make(map[string]*structpb.Value)
	}
	out.Fields["success"] = structpb.NewBoolValue(true)
	return out, nil
}

func decode(req *structpb.Struct, v any) error {
	if err := fromStruct(req, v); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return nil
}

// matchError maps session and engine errors onto gRPC. Rule violations are
// not transport errors and come back as a failure payload.
func matchError(err error) (*structpb.Struct, error) {
	switch {
	case errors.Is(err, session.ErrGameNotFound), errors.Is(err, session.ErrReplayNotFound):
		return nil, status.Error(codes.NotFound, err.Error())
	case errors.Is(err, session.ErrReplaysDisabled):
		return nil, status.Error(codes.Unimplemented, err.Error())
	case errors.Is(err, session.ErrNotAPlayer):
		return nil, status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, session.ErrMatchClosed):
		return nil, status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return nil, status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return nil, status.Error(codes.Canceled, err.Error())
	}
	if kind, ok := rules.KindOf(err); ok {
		switch kind {
		case rules.KindRule:
			return failure(rules.Message(err))
		case rules.KindSerialization:
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
	}
	return nil, status.Error(codes.Internal, "internal error")
}

func (s *ClashServer) match(gameID string) (*session.Match, error) {
	if gameID == "" {
		return nil, status.Error(codes.InvalidArgument, "gameId is required")
	}
	m, ok := s.manager.Get(gameID)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "%v: %s", session.ErrGameNotFound, gameID)
	}
	return m, nil
}

// StartGame creates a match and returns its id.
func (s *ClashServer) StartGame(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var r StartGameRequest
	if err := decode(req, &r); err != nil {
		return nil, err
	}
	if r.UserID == "" {
		return nil, status.Error(codes.InvalidArgument, "userId is required")
	}

	cat := s.manager.Catalog()
	deck, err := r.Deck.Resolve(cat)
	if err != nil {
		return failure(err.Error())
	}

	var m *session.Match
	if r.OpponentID == "" {
		m, err = s.manager.CreateVsAI(r.UserID, deck)
	} else {
		var opponent game.Deck
		if opponent, err = r.Opponent.Resolve(cat); err != nil {
			return failure(err.Error())
		}
		m, err = s.manager.CreatePvP(r.UserID, deck, r.OpponentID, opponent)
	}
	if err != nil {
		s.logger.Info("failed to start game",
			zap.String("user_id", r.UserID),
			zap.String("host", extractHostFromContext(ctx)),
			zap.Error(err),
		)
		return failure(err.Error())
	}

	return success(map[string]any{
		"gameId":  m.ID,
		"players": m.Players(),
		"vsAi":    r.OpponentID == "",
	})
}

// SubmitCommand runs a command and returns the actions its player may see.
func (s *ClashServer) SubmitCommand(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var r SubmitCommandRequest
	if err := decode(req, &r); err != nil {
		return nil, err
	}
	m, err := s.match(r.GameID)
	if err != nil {
		return nil, err
	}
	seat, ok := m.Seat(r.UserID)
	if !ok {
		return nil, status.Error(codes.PermissionDenied, session.ErrNotAPlayer.Error())
	}
	cmd, err := session.ParseCommand(r.Command)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	actions, err := m.Submit(ctx, r.UserID, cmd)
	if err != nil {
		return matchError(err)
	}
	return success(map[string]any{
		"actions": session.VisibleTo(actions, seat),
	})
}

// GetView returns a player's projection of a match.
func (s *ClashServer) GetView(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var r ViewRequest
	if err := decode(req, &r); err != nil {
		return nil, err
	}
	m, err := s.match(r.GameID)
	if err != nil {
		return nil, err
	}
	view, err := m.View(ctx, r.UserID)
	if err != nil {
		return matchError(err)
	}
	return success(map[string]any{"view": view})
}

// GetReplay returns the saved replay of a finished match; replays are only
// written once a match is won, so live games are not found. Frames are
// filtered to what userId could see; an unknown or empty userId gets the
// public actions only.
func (s *ClashServer) GetReplay(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var r ViewRequest
	if err := decode(req, &r); err != nil {
		return nil, err
	}
	if r.GameID == "" {
		return nil, status.Error(codes.InvalidArgument, "gameId is required")
	}
	replay, err := s.manager.Replay(r.GameID, r.UserID)
	if err != nil {
		if !errors.Is(err, session.ErrReplayNotFound) && !errors.Is(err, session.ErrReplaysDisabled) {
			s.logger.Error("failed to load replay", zap.String("game_id", r.GameID), zap.Error(err))
		}
		return matchError(err)
	}
	return success(map[string]any{
		"gameId":  replay.GameID,
		"players": replay.Players,
		"frames":  replay.Frames,
	})
}

// ListGames lists live matches.
func (s *ClashServer) ListGames(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return success(map[string]any{"games": s.manager.List(ctx)})
}

// RecentResults returns the latest finished matches.
func (s *ClashServer) RecentResults(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var r struct {
		Limit int `json:"limit"`
	}
	if err := decode(req, &r); err != nil {
		return nil, err
	}
	if s.store == nil {
		return success(map[string]any{"results": []ResultPayload{}})
	}

	results, err := s.store.RecentResults(ctx, r.Limit)
	if err != nil {
		s.logger.Error("failed to list results", zap.Error(err))
		return nil, status.Error(codes.Internal, "failed to list results")
	}
	out := make([]ResultPayload, 0, len(results))
	for _, res := range results {
		out = append(out, ResultPayload(res))
	}
	return success(map[string]any{"results": out})
}

// GetServerState returns server state information
func (s *ClashServer) GetServerState(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	state := map[string]any{
		"activeGames":     s.manager.Count(),
		"numberOfThreads": runtime.NumGoroutine(),
		"serverVersion":   s.serverVersion,
		"serverTime":      time.Now().UTC().Format(time.RFC3339),
		"decks":           s.manager.Catalog().DeckNames(),
	}
	if s.lobby != nil {
		state["waitingPlayers"] = s.lobby.Waiting()
	}
	return success(map[string]any{"serverState": state})
}

func extractHostFromContext(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != net.Addr(nil) {
		if host, _, err := net.SplitHostPort(p.Addr.String()); err == nil {
			return host
		}
		return p.Addr.String()
	}
	return "unknown"
}
