package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cardclash/clash-server-go/internal/catalog"
	"github.com/cardclash/clash-server-go/internal/game"
	"github.com/cardclash/clash-server-go/internal/game/rules"
	"github.com/cardclash/clash-server-go/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testCatalog = `
cards:
  - {id: 1, name: Recrue, cost: 1, race: COMMON, class: COMMON, kind: monster, attack: 1, hp: 1}
  - id: 2
    name: Meteor
    cost: 1
    race: COMMON
    class: COMMON
    kind: spell
    effects:
      - {effect: damage, target: EnemyPlayer, amount: 30}
decks:
  ai:
    archetype: {race: DEMON}
    cards: [1, 1, 1, 1, 1, 1, 1, 1]
  meteor:
    archetype: {race: HUMAN}
    cards: [2, 2, 2, 2, 2, 1, 1]
  recruits:
    archetype: {race: HUMAN}
    cards: [1, 1, 1, 1, 1, 1, 1]
`

func testDeck(t *testing.T, cat *catalog.Catalog, name string) game.Deck {
	t.Helper()
	d, ok := cat.Deck(name)
	if !ok {
		t.Fatalf("deck %q missing from test catalog", name)
	}
	return d
}

type fixture struct {
	cat      *catalog.Catalog
	store    *repository.MemoryStore
	recorder *game.ReplayRecorder
	replays  string
	manager  *Manager
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	cat, err := catalog.Load(strings.NewReader(testCatalog))
	require.NoError(t, err)

	logger := zaptest.NewLogger(t)
	f := &fixture{
		cat:     cat,
		store:   repository.NewMemoryStore(),
		replays: t.TempDir(),
	}
	f.recorder = game.NewReplayRecorder(logger, f.replays)
	f.manager = NewManager(cat, f.store, f.recorder, opts, logger)
	t.Cleanup(f.manager.CloseAll)
	return f
}

func (f *fixture) pvp(t *testing.T, deckA, deckB string) *Match {
	t.Helper()
	m, err := f.manager.CreatePvP("alice", testDeck(t, f.cat, deckA), "bob", testDeck(t, f.cat, deckB))
	require.NoError(t, err)
	return m
}

// drain returns every message already queued on ch.
func drain(ch <-chan ServerMessage) []ServerMessage {
	var out []ServerMessage
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, msg)
		default:
			return out
		}
	}
}

func actionTypes(msgs []ServerMessage) []game.ActionType {
	var out []game.ActionType
	for _, msg := range msgs {
		if a, ok := msg.Value.(game.Action); ok && msg.Type == MessageAction {
			out = append(out, a.Type)
		}
	}
	return out
}

func wrapActions(actions []game.Action) []ServerMessage {
	out := make([]ServerMessage, len(actions))
	for i, a := range actions {
		out[i] = actionMessage(a)
	}
	return out
}

func TestConnectSendsViewFirst(t *testing.T) {
	f := newFixture(t, Options{})
	m := f.pvp(t, "recruits", "recruits")
	ctx := context.Background()

	alice, err := m.Connect(ctx, "alice")
	require.NoError(t, err)
	msgs := drain(alice)
	require.Len(t, msgs, 2)
	assert.Equal(t, MessageView, msgs[0].Type)
	view := msgs[0].Value.(*game.PublicGameState)
	assert.Equal(t, m.ID, view.GameID)
	assert.Len(t, view.Hand, 5)
	assert.Equal(t, textMessage("Player joined"), msgs[1])

	_, err = m.Connect(ctx, "mallory")
	assert.ErrorIs(t, err, ErrNotAPlayer)

	bob, err := m.Connect(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, drain(bob), 2)
	assert.Equal(t, []ServerMessage{textMessage("Player joined")}, drain(alice))

	require.NoError(t, m.Disconnect(ctx, "bob", bob))
	assert.Equal(t, []ServerMessage{textMessage("Player left")}, drain(alice))
	_, open := <-bob
	assert.False(t, open, "a disconnected player's channel is closed")
}

func TestRoutingHidesDraws(t *testing.T) {
	f := newFixture(t, Options{})
	m := f.pvp(t, "recruits", "recruits")
	ctx := context.Background()

	alice, err := m.Connect(ctx, "alice")
	require.NoError(t, err)
	bob, err := m.Connect(ctx, "bob")
	require.NoError(t, err)
	drain(alice)
	drain(bob)

	actions, err := m.Submit(ctx, "alice", Command{Type: CommandEndTurn})
	require.NoError(t, err)
	assert.Equal(t, game.ActionStartTurn, actions[0].Type)

	aliceSaw := actionTypes(drain(alice))
	bobSaw := actionTypes(drain(bob))

	assert.Contains(t, aliceSaw, game.ActionEnemyDraw)
	assert.NotContains(t, aliceSaw, game.ActionDraw)
	assert.Contains(t, bobSaw, game.ActionDraw)
	assert.NotContains(t, bobSaw, game.ActionEnemyDraw)
	assert.NotContains(t, aliceSaw, game.ActionStartTurn)
	assert.NotContains(t, bobSaw, game.ActionStartTurn)
	assert.Contains(t, aliceSaw, game.ActionRefreshMana)
	assert.Contains(t, bobSaw, game.ActionRefreshMana)

	assert.Equal(t, bobSaw, actionTypes(wrapActions(VisibleTo(actions, game.PlayerB))))

	info, err := m.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, game.PlayerB, info.CurrentPlayer)
	assert.Equal(t, 2, info.Turn)
	assert.Equal(t, 2, info.Connected)
}

func TestRejectedCommandLeavesStateAndNotifiesPlayer(t *testing.T) {
	f := newFixture(t, Options{})
	m := f.pvp(t, "recruits", "recruits")
	ctx := context.Background()

	bob, err := m.Connect(ctx, "bob")
	require.NoError(t, err)
	drain(bob)
	before, err := m.View(ctx, "bob")
	require.NoError(t, err)

	_, err = m.Submit(ctx, "bob", Command{Type: CommandEndTurn})
	require.Error(t, err)
	assert.True(t, rules.IsRule(err))
	assert.Equal(t, []ServerMessage{errorMessage("It's not your turn")}, drain(bob))

	after, err := m.View(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, before, after)

	_, err = m.Submit(ctx, "mallory", Command{Type: CommandEndTurn})
	assert.ErrorIs(t, err, ErrNotAPlayer)
}

func TestWinPersistsResultAndReplay(t *testing.T) {
	f := newFixture(t, Options{})
	m := f.pvp(t, "meteor", "recruits")
	ctx := context.Background()

	alice, err := m.Connect(ctx, "alice")
	require.NoError(t, err)
	drain(alice)

	view, err := m.View(ctx, "alice")
	require.NoError(t, err)
	meteor := view.Hand[0].ID

	actions, err := m.Submit(ctx, "alice", Command{Type: CommandPlaySpell, CardID: meteor})
	require.NoError(t, err)
	assert.Equal(t, game.ActionWin, actions[len(actions)-1].Type)

	select {
	case <-m.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("match did not end after a win")
	}

	seen := actionTypes(drain(alice))
	require.NotEmpty(t, seen)
	assert.Equal(t, game.ActionWin, seen[len(seen)-1])

	results, err := f.store.RecentResults(ctx, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, m.ID, results[0].GameID)
	assert.Equal(t, "alice", results[0].WinnerUser)
	assert.Equal(t, game.PlayerA, results[0].WinnerSeat)
	assert.False(t, results[0].VsAI)
	assert.Len(t, results[0].Checksum, 64)

	replay, err := game.LoadReplayFromFile(f.replays, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, replay.Size(), "opening frame plus the winning spell")
	assert.Equal(t, [2]string{"alice", "bob"}, replay.Players)

	// Each player replays their own hidden draws; spectators see none.
	for _, tc := range []struct {
		user string
		seat game.PlayerID
	}{{"alice", game.PlayerA}, {"bob", game.PlayerB}, {"carol", -1}} {
		seen, err := f.manager.Replay(m.ID, tc.user)
		require.NoError(t, err, tc.user)
		require.Len(t, seen.Frames, 2, tc.user)
		for i, frame := range seen.Frames {
			assert.Equal(t, VisibleTo(replay.Frames[i].Actions, tc.seat), frame.Actions, tc.user)
		}
	}
	spectator, err := f.manager.Replay(m.ID, "")
	require.NoError(t, err)
	for _, a := range spectator.Frames[0].Actions {
		assert.NotEqual(t, game.ActionDraw, a.Type)
		assert.NotEqual(t, game.ActionEnemyDraw, a.Type)
	}

	_, ok := f.manager.Get(m.ID)
	assert.False(t, ok, "finished matches are removed")
	_, ok = f.manager.GameFor("alice")
	assert.False(t, ok)

	_, err = m.Submit(ctx, "alice", Command{Type: CommandEndTurn})
	assert.ErrorIs(t, err, ErrMatchClosed)
}

func TestVsAIPlaysTheAutopilotTurn(t *testing.T) {
	f := newFixture(t, Options{})
	m, err := f.manager.CreateVsAI("alice", testDeck(t, f.cat, "recruits"))
	require.NoError(t, err)
	ctx := context.Background()

	actions, err := m.Submit(ctx, "alice", Command{Type: CommandEndTurn})
	require.NoError(t, err)

	starts := 0
	for _, a := range actions {
		if a.Type == game.ActionStartTurn {
			starts++
		}
	}
	assert.Equal(t, 2, starts, "the autopilot hands the turn back")

	info, err := m.Info(ctx)
	require.NoError(t, err)
	assert.True(t, info.VsAI)
	assert.Equal(t, game.PlayerA, info.CurrentPlayer)
	assert.Equal(t, 3, info.Turn)
	assert.True(t, strings.HasPrefix(info.Players[1], "ai-"))
	assert.Positive(t, info.Stats[game.PlayerB].Summoned, "summons are tallied")

	view, err := m.View(ctx, "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, view.Enemy.Field, "the autopilot summoned")
}

func TestManagerBookkeeping(t *testing.T) {
	f := newFixture(t, Options{MaxGames: 1})
	recruits := testDeck(t, f.cat, "recruits")

	m, err := f.manager.CreateVsAI("alice", recruits)
	require.NoError(t, err)

	got, ok := f.manager.GameFor("alice")
	require.True(t, ok)
	assert.Same(t, m, got)

	_, err = f.manager.CreateVsAI("alice", recruits)
	assert.ErrorIs(t, err, ErrTooManyGames)

	infos := f.manager.List(context.Background())
	require.Len(t, infos, 1)
	assert.Equal(t, m.ID, infos[0].ID)

	f.manager.CloseAll()
	assert.Zero(t, f.manager.Count())
	_, ok = f.replayFor(m.ID)
	assert.False(t, ok, "abandoned matches drop their replay")
}

func (f *fixture) replayFor(id string) (*game.Replay, bool) {
	return f.recorder.GetReplay(id)
}

func TestManagerRejectsBusyUsersAndBadDecks(t *testing.T) {
	f := newFixture(t, Options{})
	recruits := testDeck(t, f.cat, "recruits")

	_, err := f.manager.CreateVsAI("alice", recruits)
	require.NoError(t, err)
	_, err = f.manager.CreateVsAI("alice", recruits)
	assert.ErrorIs(t, err, ErrAlreadyInGame)

	_, err = f.manager.CreatePvP("carol", recruits, "carol", recruits)
	assert.Error(t, err)

	bad := game.Deck{Archetype: game.RaceArchetype(game.RaceHuman), Cards: []game.TemplateID{42}}
	_, err = f.manager.CreateVsAI("dave", bad)
	assert.ErrorContains(t, err, "invalid deck")
}

func TestReplayErrors(t *testing.T) {
	f := newFixture(t, Options{})
	m := f.pvp(t, "recruits", "recruits")

	_, err := f.manager.Replay(m.ID, "alice")
	assert.ErrorIs(t, err, ErrReplayNotFound, "live matches are not saved yet")

	cat, err := catalog.Load(strings.NewReader(testCatalog))
	require.NoError(t, err)
	bare := NewManager(cat, nil, nil, Options{}, zaptest.NewLogger(t))
	_, err = bare.Replay(m.ID, "alice")
	assert.ErrorIs(t, err, ErrReplaysDisabled)
}

func TestIdleMatchIsClosed(t *testing.T) {
	f := newFixture(t, Options{IdleTimeout: 50 * time.Millisecond})
	m := f.pvp(t, "recruits", "recruits")

	select {
	case <-m.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("idle match was not closed")
	}
	assert.Zero(t, f.manager.Count())

	results, err := f.store.RecentResults(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, results, "abandoned matches have no result")
}
