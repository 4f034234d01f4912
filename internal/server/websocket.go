package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/cardclash/clash-server-go/internal/config"
	"github.com/cardclash/clash-server-go/internal/game/rules"
	"github.com/cardclash/clash-server-go/internal/session"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

// Client is one WebSocket connection attached to a match.
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	local  chan session.ServerMessage
	quit   chan struct{}
	userID string
	gameID string
}

func newClient(conn *websocket.Conn, userID, gameID string) *Client {
	return &Client{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		local:  make(chan session.ServerMessage, 16),
		quit:   make(chan struct{}),
		userID: userID,
		gameID: gameID,
	}
}

// Hub tracks open connections so they can be counted and closed on shutdown.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	logger     *zap.Logger
}

func newHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

func (h *Hub) run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("client registered",
				zap.String("user_id", client.userID),
				zap.String("game_id", client.gameID),
			)

		case client := <-h.unregister:
			h.mu.Lock()
			delete(h.clients, client)
			h.mu.Unlock()
			h.logger.Debug("client unregistered",
				zap.String("user_id", client.userID),
				zap.String("game_id", client.gameID),
			)

		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				_ = client.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(writeWait))
				client.conn.Close()
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Count returns the number of open connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Gateway serves matches and matchmaking over WebSocket.
type Gateway struct {
	manager        *session.Manager
	lobby          *session.Lobby
	hub            *Hub
	upgrader       websocket.Upgrader
	pingInterval   time.Duration
	commandTimeout time.Duration
	logger         *zap.Logger
}

// NewGateway creates a gateway. Run must be started before serving.
func NewGateway(cfg config.WebSocketConfig, manager *session.Manager, lobby *session.Lobby, commandTimeout time.Duration, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	gw := &Gateway{
		manager:        manager,
		lobby:          lobby,
		hub:            newHub(logger),
		pingInterval:   cfg.PingInterval,
		commandTimeout: commandTimeout,
		logger:         logger,
	}
	gw.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     originChecker(cfg.AllowedOrigins),
	}
	return gw
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set["*"] || set[origin]
	}
}

// Run tracks connections until ctx ends, then closes all of them.
func (gw *Gateway) Run(ctx context.Context) {
	gw.hub.run(ctx)
}

// Connections returns the number of open sockets.
func (gw *Gateway) Connections() int {
	return gw.hub.Count()
}

// Handler returns the gateway routes.
func (gw *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /games/{gameID}/players/{userID}", gw.servePlay)
	mux.HandleFunc("GET /matchmaking/{userID}", gw.serveMatchmaking)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":      "ok",
			"games":       gw.manager.Count(),
			"connections": gw.hub.Count(),
		})
	})
	return mux
}

// StartWebSocketServer serves the gateway on cfg.Address until ctx ends.
func StartWebSocketServer(ctx context.Context, cfg config.WebSocketConfig, gw *Gateway, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           gw.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting WebSocket server", zap.String("address", cfg.Address))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (gw *Gateway) servePlay(w http.ResponseWriter, r *http.Request) {
	gameID, userID := r.PathValue("gameID"), r.PathValue("userID")
	match, ok := gw.manager.Get(gameID)
	if !ok {
		http.Error(w, session.ErrGameNotFound.Error(), http.StatusNotFound)
		return
	}
	if _, ok := match.Seat(userID); !ok {
		http.Error(w, session.ErrNotAPlayer.Error(), http.StatusForbidden)
		return
	}

	conn, err := gw.upgrader.Upgrade(w, r, nil)
	if err != nil {
		gw.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	conn.SetReadLimit(maxMessageSize)

	sub, err := match.Connect(r.Context(), userID)
	if err != nil {
		gw.closeWith(conn, websocket.ClosePolicyViolation, err.Error())
		return
	}

	client := newClient(conn, userID, gameID)
	if !gw.hub.add(client) {
		_ = match.Disconnect(context.Background(), userID, sub)
		gw.closeWith(conn, websocket.CloseGoingAway, "server shutting down")
		return
	}

	go client.writePump(gw.pingInterval)
	go client.forward(sub)
	client.readPump(gw, match)

	close(client.quit)
	_ = match.Disconnect(context.Background(), userID, sub)
	gw.hub.remove(client)
	conn.Close()
}

// readPump submits every incoming command until the socket closes or the
// match ends.
func (c *Client) readPump(gw *Gateway, match *session.Match) {
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				gw.logger.Debug("websocket read error", zap.String("user_id", c.userID), zap.Error(err))
			}
			return
		}

		cmd, err := session.ParseCommand(message)
		if err != nil {
			c.notify(session.ServerMessage{Type: session.MessageError, Value: rules.Message(err)})
			continue
		}

		ctx := context.Background()
		cancel := func() {}
		if gw.commandTimeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, gw.commandTimeout)
		}
		_, err = match.Submit(ctx, c.userID, cmd)
		cancel()
		switch {
		case err == nil, rules.IsRule(err):
			// results and rule errors arrive through the subscription
		case errors.Is(err, session.ErrMatchClosed):
			return
		default:
			gw.logger.Warn("command failed",
				zap.String("user_id", c.userID),
				zap.String("game_id", c.gameID),
				zap.Error(err),
			)
			c.notify(session.ServerMessage{Type: session.MessageError, Value: "command failed"})
		}
	}
}

func (c *Client) notify(msg session.ServerMessage) {
	select {
	case c.local <- msg:
	case <-c.quit:
	}
}

// forward encodes match messages and local notices onto the send queue. It
// owns c.send and closes it when the subscription or the socket ends.
func (c *Client) forward(sub <-chan session.ServerMessage) {
	defer close(c.send)
	for {
		var msg session.ServerMessage
		select {
		case m, ok := <-sub:
			if !ok {
				return
			}
			msg = m
		case msg = <-c.local:
		case <-c.quit:
			return
		}

		data, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		select {
		case c.send <- data:
		case <-c.quit:
			return
		}
	}
}

func (c *Client) writePump(pingInterval time.Duration) {
	var ping <-chan time.Time
	if pingInterval > 0 {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		ping = ticker.C
	}
	defer c.conn.Close()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "match ended"))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ping:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// JoinRequest is the first message on a matchmaking socket.
type JoinRequest struct {
	Type  string      `json:"type"`
	Value DeckRequest `json:"value"`
}

func (gw *Gateway) serveMatchmaking(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	conn, err := gw.upgrader.Upgrade(w, r, nil)
	if err != nil {
		gw.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	client := newClient(conn, userID, "")
	if !gw.hub.add(client) {
		gw.closeWith(conn, websocket.CloseGoingAway, "server shutting down")
		return
	}
	defer gw.hub.remove(client)

	if match, ok := gw.manager.GameFor(userID); ok {
		gw.writeLobby(conn, session.LobbyMessage{Type: session.LobbyGameFound, GameID: match.ID})
		gw.closeWith(conn, websocket.CloseNormalClosure, "")
		return
	}

	var req JoinRequest
	if err := conn.ReadJSON(&req); err != nil {
		gw.writeLobby(conn, session.LobbyMessage{Type: session.LobbyError, Error: "invalid join request"})
		gw.closeWith(conn, websocket.CloseUnsupportedData, "invalid join request")
		return
	}
	deck, err := req.Value.Resolve(gw.manager.Catalog())
	if err == nil {
		err = gw.manager.Catalog().ValidateDeck(deck)
	}
	if err != nil {
		gw.writeLobby(conn, session.LobbyMessage{Type: session.LobbyError, Error: err.Error()})
		gw.closeWith(conn, websocket.CloseNormalClosure, "")
		return
	}

	gw.writeLobby(conn, session.LobbyMessage{Type: session.LobbyWaiting})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		// any read error means the player left the queue
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	gameID, err := gw.lobby.Join(ctx, userID, deck)
	if err != nil {
		if ctx.Err() == nil {
			gw.writeLobby(conn, session.LobbyMessage{Type: session.LobbyError, Error: err.Error()})
		}
		return
	}
	gw.writeLobby(conn, session.LobbyMessage{Type: session.LobbyGameFound, GameID: gameID})
	gw.closeWith(conn, websocket.CloseNormalClosure, "")
}

func (gw *Gateway) writeLobby(conn *websocket.Conn, msg session.LobbyMessage) {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		gw.logger.Debug("failed to write lobby message", zap.Error(err))
	}
}

func (gw *Gateway) closeWith(conn *websocket.Conn, code int, text string) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, text), time.Now().Add(writeWait))
	conn.Close()
}
