package targeting

import (
	"sort"
	"testing"

	"github.com/cardclash/clash-server-go/internal/game/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeState is a two-player board: cards map id -> info, slots map id -> slot.
type fakeState struct {
	players []int
	cards   map[int]CardInfo
	slots   map[int]int
}

func newFakeState() *fakeState {
	return &fakeState{
		players: []int{0, 1},
		cards:   make(map[int]CardInfo),
		slots:   make(map[int]int),
	}
}

func (s *fakeState) put(id, owner, slot int) {
	s.cards[id] = CardInfo{ID: id, Owner: owner, Race: "COMMON", Class: "COMMON", OnField: slot >= 0}
	if slot >= 0 {
		s.slots[id] = slot
	}
}

func (s *fakeState) HasPlayer(id int) bool {
	for _, p := range s.players {
		if p == id {
			return true
		}
	}
	return false
}

func (s *fakeState) OwnerOf(id int) (int, error) {
	card, ok := s.cards[id]
	if !ok {
		return 0, rules.Rulef("Card with id %d not found", id)
	}
	return card.Owner, nil
}

func (s *fakeState) OpponentOf(player int) (int, error) {
	var others []int
	for _, p := range s.players {
		if p != player {
			others = append(others, p)
		}
	}
	if len(others) != 1 {
		return 0, rules.Invariantf("Opponent not found for player with id %d", player)
	}
	return others[0], nil
}

func (s *fakeState) FieldIDs(player int) []int {
	var ids []int
	for id, card := range s.cards {
		if card.Owner == player && card.OnField {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return s.slots[ids[i]] < s.slots[ids[j]] })
	return ids
}

func (s *fakeState) CardInfo(id int) (CardInfo, bool) {
	card, ok := s.cards[id]
	return card, ok
}

func boardFixture() *fakeState {
	st := newFakeState()
	st.put(2, 0, 3)  // A, slot 3
	st.put(3, 0, 0)  // A, slot 0
	st.put(4, 1, 5)  // B, slot 5
	st.put(5, 1, 1)  // B, slot 1
	st.put(6, 0, -1) // A, hand
	return st
}

func TestResolveSideRelativeTargets(t *testing.T) {
	st := boardFixture()

	players, err := ResolvePlayers(st, 2, Player{})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, players)

	players, err = ResolvePlayers(st, 2, EnemyPlayer{})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, players)

	players, err = ResolvePlayers(st, 4, BothPlayers{})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, players)

	// A player initiator acts for itself.
	players, err = ResolvePlayers(st, 1, EnemyPlayer{})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, players)

	field, err := ResolveField(st, 2, Player{})
	require.NoError(t, err)
	assert.Empty(t, field)
}

func TestResolveFieldRelativeTargets(t *testing.T) {
	st := boardFixture()

	field, err := ResolveField(st, 2, Allies{})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, field, "allies come back in slot order")

	field, err = ResolveField(st, 2, Enemies{})
	require.NoError(t, err)
	assert.Equal(t, []int{5, 4}, field)

	field, err = ResolveField(st, 4, AllMonsters{})
	require.NoError(t, err)
	assert.Equal(t, []int{5, 4, 3, 2}, field, "initiator side first")

	field, err = ResolveField(st, 2, ItSelf{})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, field)

	field, err = ResolveField(st, 6, ItSelf{})
	require.NoError(t, err)
	assert.Empty(t, field, "a card in hand is not a field recipient")

	players, err := ResolvePlayers(st, 2, Allies{})
	require.NoError(t, err)
	assert.Empty(t, players)
}

func TestResolveAllCoversBothSpaces(t *testing.T) {
	st := boardFixture()

	all, err := Resolve(st, 2, All{})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 3, 2, 5, 4}, all)
}

func TestResolveExplicitIDsSkipsStaleEntries(t *testing.T) {
	st := boardFixture()

	field, err := ResolveField(st, 2, IDs{IDs: []int{4, 6, 99, 4}})
	require.NoError(t, err)
	assert.Equal(t, []int{4}, field, "hand cards, unknown ids and duplicates are dropped")

	players, err := ResolvePlayers(st, 2, ID(1))
	require.NoError(t, err)
	assert.Equal(t, []int{1}, players)

	all, err := Resolve(st, 2, ID(4))
	require.NoError(t, err)
	assert.Equal(t, []int{4}, all)
}

func TestResolveSkipsCardsThatLeftTheField(t *testing.T) {
	st := boardFixture()
	st.put(4, 1, -1) // destroyed: still known, no longer on the field

	self, err := ResolveField(st, 4, ItSelf{})
	require.NoError(t, err)
	assert.Empty(t, self, "a card off the field can not target itself")

	ids, err := ResolveField(st, 2, ID(4))
	require.NoError(t, err)
	assert.Empty(t, ids, "a destroyed card is not destroyed again")

	players, err := ResolvePlayers(st, 4, Player{})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, players, "player targets still resolve from the owner")
}

func TestResolveCompositeTargets(t *testing.T) {
	st := boardFixture()

	or, err := ResolveField(st, 2, Or{Left: Allies{}, Right: ID(4)})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2, 4}, or)

	and, err := ResolveField(st, 2, And{Left: AllMonsters{}, Right: Enemies{}})
	require.NoError(t, err)
	assert.Equal(t, []int{5, 4}, and)

	players, err := ResolvePlayers(st, 2, And{Left: BothPlayers{}, Right: EnemyPlayer{}})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, players)

	players, err = ResolvePlayers(st, 2, Or{Left: Player{}, Right: BothPlayers{}})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, players)
}

func TestResolveMissingOpponentIsInvariant(t *testing.T) {
	st := boardFixture()
	st.players = []int{0}

	_, err := ResolvePlayers(st, 0, EnemyPlayer{})
	require.Error(t, err)
	assert.True(t, rules.IsInvariant(err))

	st.players = []int{0, 1, 7}
	_, err = ResolveField(st, 2, Allies{})
	require.Error(t, err)
	assert.True(t, rules.IsInvariant(err))
}

func TestResolveUnknownInitiator(t *testing.T) {
	st := boardFixture()

	_, err := ResolvePlayers(st, 42, Player{})
	require.Error(t, err)
	assert.True(t, rules.IsRule(err))
}

func TestResolvePlayerTarget(t *testing.T) {
	st := boardFixture()

	got, err := ResolvePlayerTarget(st, 4, Self())
	require.NoError(t, err)
	assert.Equal(t, []int{1}, got)

	got, err = ResolvePlayerTarget(st, 4, Opponent())
	require.NoError(t, err)
	assert.Equal(t, []int{0}, got)

	got, err = ResolvePlayerTarget(st, 0, Both())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, got)

	got, err = ResolvePlayerTarget(st, 0, PlayerID(1))
	require.NoError(t, err)
	assert.Equal(t, []int{1}, got)

	got, err = ResolvePlayerTarget(st, 0, PlayerID(5))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSubstituteIDs(t *testing.T) {
	selected := []int{4, 5}

	assert.Equal(t, IDs{IDs: []int{4, 5}}, SubstituteIDs(IDs{}, selected))
	assert.Equal(t, Allies{}, SubstituteIDs(Allies{}, selected))

	composite := SubstituteIDs(Or{Left: IDs{}, Right: And{Left: Enemies{}, Right: IDs{IDs: []int{9}}}}, selected)
	assert.Equal(t, Or{Left: IDs{IDs: []int{4, 5}}, Right: And{Left: Enemies{}, Right: IDs{IDs: []int{4, 5}}}}, composite)

	// The substituted list does not alias the caller's slice.
	out := SubstituteIDs(IDs{}, selected).(IDs)
	selected[0] = 99
	assert.Equal(t, 4, out.IDs[0])
}

func TestParseKind(t *testing.T) {
	target, err := ParseKind("Enemies")
	require.NoError(t, err)
	assert.Equal(t, KindEnemies, target.Kind())

	target, err = ParseKind("choose")
	require.NoError(t, err)
	assert.Equal(t, IDs{}, target)

	_, err = ParseKind("everyone")
	assert.Error(t, err)

	side, err := ParsePlayerSide("BothPlayers")
	require.NoError(t, err)
	assert.Equal(t, Both(), side)

	_, err = ParsePlayerSide("nobody")
	assert.Error(t, err)
}
