package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cardclash/clash-server-go/internal/config"
	"github.com/cardclash/clash-server-go/internal/game"
	"github.com/cardclash/clash-server-go/internal/session"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type wireMessage struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

func newGatewayServer(t *testing.T) (*testEnv, *Gateway, *httptest.Server) {
	t.Helper()
	env := newTestEnv(t)
	gw := NewGateway(config.WebSocketConfig{PingInterval: time.Minute}, env.manager, env.lobby, time.Second, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	go gw.Run(ctx)
	t.Cleanup(cancel)

	srv := httptest.NewServer(gw.Handler())
	t.Cleanup(srv.Close)
	return env, gw, srv
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads messages until match returns true and returns that message.
func readUntil(t *testing.T, conn *websocket.Conn, match func(wireMessage) bool) wireMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var msg wireMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("no matching message: %v", err)
		}
		if match(msg) {
			return msg
		}
	}
}

func actionOf(msg wireMessage) game.ActionType {
	if msg.Type != string(session.MessageAction) {
		return ""
	}
	var a wireAction
	if err := json.Unmarshal(msg.Value, &a); err != nil {
		return ""
	}
	return a.Type
}

func TestHealthz(t *testing.T) {
	_, _, srv := newGatewayServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestPlaySocketRoutesActions(t *testing.T) {
	env, gw, srv := newGatewayServer(t)
	deck, ok := env.manager.Catalog().Deck("human")
	require.True(t, ok)
	m, err := env.manager.CreatePvP("alice", deck, "bob", deck)
	require.NoError(t, err)

	alice := dial(t, srv, "/games/"+m.ID+"/players/alice")
	first := readUntil(t, alice, func(wireMessage) bool { return true })
	assert.Equal(t, string(session.MessageView), first.Type)

	bob := dial(t, srv, "/games/"+m.ID+"/players/bob")
	readUntil(t, bob, func(msg wireMessage) bool { return msg.Type == string(session.MessageView) })
	readUntil(t, alice, func(msg wireMessage) bool {
		return msg.Type == string(session.MessageMessage) && string(msg.Value) == `"Player joined"`
	})
	require.Eventually(t, func() bool { return gw.Connections() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte(`{"type":"EndTurn"}`)))
	readUntil(t, alice, func(msg wireMessage) bool { return actionOf(msg) == game.ActionEnemyDraw })
	readUntil(t, bob, func(msg wireMessage) bool { return actionOf(msg) == game.ActionDraw })

	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte(`{"type":"EndTurn"}`)))
	rejected := readUntil(t, alice, func(msg wireMessage) bool { return msg.Type == string(session.MessageError) })
	assert.Equal(t, `"It's not your turn"`, string(rejected.Value))

	require.NoError(t, bob.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	bad := readUntil(t, bob, func(msg wireMessage) bool { return msg.Type == string(session.MessageError) })
	assert.Contains(t, string(bad.Value), "invalid command")

	require.NoError(t, bob.Close())
	readUntil(t, alice, func(msg wireMessage) bool {
		return msg.Type == string(session.MessageMessage) && string(msg.Value) == `"Player left"`
	})
}

func TestPlaySocketRejectsUnknownGameAndStrangers(t *testing.T) {
	env, _, srv := newGatewayServer(t)
	deck, _ := env.manager.Catalog().Deck("human")
	m, err := env.manager.CreateVsAI("alice", deck)
	require.NoError(t, err)

	base := "ws" + strings.TrimPrefix(srv.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(base+"/games/nope/players/alice", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(base+"/games/"+m.ID+"/players/mallory", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestMatchmakingPairsTwoPlayers(t *testing.T) {
	env, _, srv := newGatewayServer(t)
	join := JoinRequest{Type: "JoinQueue", Value: DeckRequest{DeckName: "human"}}

	alice := dial(t, srv, "/matchmaking/alice")
	require.NoError(t, alice.WriteJSON(join))
	var waiting session.LobbyMessage
	require.NoError(t, alice.ReadJSON(&waiting))
	assert.Equal(t, session.LobbyWaiting, waiting.Type)
	require.Eventually(t, func() bool { return env.lobby.Waiting() == 1 }, time.Second, 5*time.Millisecond)

	bob := dial(t, srv, "/matchmaking/bob")
	require.NoError(t, bob.WriteJSON(join))

	var bobMsgs []session.LobbyMessage
	for len(bobMsgs) < 2 {
		var msg session.LobbyMessage
		require.NoError(t, bob.ReadJSON(&msg))
		bobMsgs = append(bobMsgs, msg)
	}
	assert.Equal(t, session.LobbyWaiting, bobMsgs[0].Type)
	assert.Equal(t, session.LobbyGameFound, bobMsgs[1].Type)

	var found session.LobbyMessage
	require.NoError(t, alice.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, alice.ReadJSON(&found))
	assert.Equal(t, session.LobbyGameFound, found.Type)
	assert.Equal(t, bobMsgs[1].GameID, found.GameID)

	m, ok := env.manager.Get(found.GameID)
	require.True(t, ok)
	assert.Equal(t, [2]string{"alice", "bob"}, m.Players())

	// a player with a live game is sent straight back to it
	again := dial(t, srv, "/matchmaking/alice")
	var existing session.LobbyMessage
	require.NoError(t, again.ReadJSON(&existing))
	assert.Equal(t, session.LobbyGameFound, existing.Type)
	assert.Equal(t, found.GameID, existing.GameID)
}

func TestMatchmakingRejectsBadDeck(t *testing.T) {
	_, _, srv := newGatewayServer(t)

	conn := dial(t, srv, "/matchmaking/alice")
	require.NoError(t, conn.WriteJSON(JoinRequest{Type: "JoinQueue", Value: DeckRequest{DeckName: "missing"}}))

	var msg session.LobbyMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, session.LobbyError, msg.Type)
	assert.Contains(t, msg.Error, "unknown deck")
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://play.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	assert.True(t, check(req), "requests without an origin are allowed")

	req.Header.Set("Origin", "https://play.example.com")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, check(req))

	assert.True(t, originChecker(nil)(req))
}
