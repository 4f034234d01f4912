package game

import (
	"fmt"
	"maps"
	"slices"
	"sort"

	"github.com/cardclash/clash-server-go/internal/game/rules"
	"github.com/cardclash/clash-server-go/internal/game/targeting"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Autopilot plays a whole turn for a seat. The engine calls it when an AI
// opponent's turn starts.
type Autopilot interface {
	PlayTurn(g *Game, player PlayerID) ([]Action, error)
}

// Seat is what a player brings to a game.
type Seat struct {
	Deck       Deck
	Collection []*CardTemplate
}

// Option configures a Game.
type Option func(*Game)

// WithID sets the game id instead of a random one.
func WithID(id string) Option {
	return func(g *Game) { g.ID = id }
}

// WithLogger sets the logger used for engine tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Game) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithAutopilot sets the controller for player B in games against the AI.
func WithAutopilot(a Autopilot) Option {
	return func(g *Game) { g.autopilot = a }
}

// Game is the authoritative state of one match. A Game is not safe for
// concurrent use; the session layer serializes access to it.
type Game struct {
	ID            string
	PlayerA       PlayerID
	PlayerB       PlayerID
	Turn          int
	CurrentPlayer PlayerID
	VsAI          bool

	winner    *PlayerID
	entities  map[EntityID]*CardInstance
	players   map[PlayerID]*PlayerInstance
	queue     *rules.Queue[Effect]
	draining  bool
	nextID    EntityID
	autopilot Autopilot
	logger    *zap.Logger
}

// New creates a game between two seats. Deck cards are numbered from 2 in
// deck order, player A's first. The opening draws are queued; call Start to
// resolve them.
func New(a, b Seat, vsAI bool, opts ...Option) (*Game, error) {
	g := &Game{
		ID:            uuid.NewString(),
		PlayerA:       PlayerA,
		PlayerB:       PlayerB,
		Turn:          1,
		CurrentPlayer: PlayerA,
		VsAI:          vsAI,
		entities:      make(map[EntityID]*CardInstance),
		players:       make(map[PlayerID]*PlayerInstance),
		queue:         rules.NewQueue[Effect](),
		nextID:        firstCardID,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if vsAI && g.autopilot == nil {
		return nil, rules.Invariantf("a game against the AI needs an autopilot")
	}

	g.players[PlayerA] = newPlayer(PlayerA, 1, a.Deck.Archetype)
	g.players[PlayerB] = newPlayer(PlayerB, 0, b.Deck.Archetype)

	for _, seat := range []struct {
		player PlayerID
		Seat
	}{{PlayerA, a}, {PlayerB, b}} {
		index := make(map[TemplateID]*CardTemplate, len(seat.Collection))
		for _, tpl := range seat.Collection {
			index[tpl.ID] = tpl
		}
		for _, tid := range seat.Deck.Cards {
			tpl, ok := index[tid]
			if !ok {
				return nil, fmt.Errorf("template %d is not in the collection of player %d", tid, seat.player)
			}
			if _, err := g.AddCard(seat.player, tpl, InDeck()); err != nil {
				return nil, err
			}
		}
	}

	g.queue.Push(AutoDraw{Player: PlayerA, Amount: rules.OpeningHand})
	g.queue.Push(AutoDraw{Player: PlayerB, Amount: rules.OpeningHand})
	return g, nil
}

// Start resolves the opening draws.
func (g *Game) Start() ([]Action, error) {
	actions, err := g.Drain()
	if err != nil {
		return nil, err
	}
	g.logger.Info("game started",
		zap.String("game_id", g.ID),
		zap.Bool("vs_ai", g.VsAI),
		zap.Int("cards", len(g.entities)),
	)
	return actions, nil
}

// AddCard creates a card from tpl for owner at loc with the next free id.
func (g *Game) AddCard(owner PlayerID, tpl *CardTemplate, loc Location) (*CardInstance, error) {
	if !g.HasPlayer(owner) {
		return nil, rules.Rulef("Player with id %d not found", owner)
	}
	if loc.IsField() {
		if !rules.ValidSlot(loc.Slot) {
			return nil, rules.Rule("This position does not exist")
		}
		if _, taken := g.FieldSlot(owner, loc.Slot); taken {
			return nil, rules.Rule("This place on the field is not empty")
		}
	}
	card, err := Instantiate(g.nextID, owner, tpl)
	if err != nil {
		return nil, err
	}
	card.Location = loc
	g.entities[card.ID] = card
	g.nextID++
	return card, nil
}

// Winner returns the winning player once the game is over.
func (g *Game) Winner() (PlayerID, bool) {
	if g.winner == nil {
		return 0, false
	}
	return *g.winner, true
}

// IsOver reports whether a winner has been declared.
func (g *Game) IsOver() bool { return g.winner != nil }

// Player returns a player's resources.
func (g *Game) Player(id PlayerID) (*PlayerInstance, error) {
	p, ok := g.players[id]
	if !ok {
		return nil, rules.Rulef("Player with id %d not found", id)
	}
	return p, nil
}

// Entity returns a card instance.
func (g *Game) Entity(id EntityID) (*CardInstance, error) {
	c, ok := g.entities[id]
	if !ok {
		return nil, rules.Rulef("Card with id %d not found", id)
	}
	return c, nil
}

// Entities returns every card in id order.
func (g *Game) Entities() []*CardInstance {
	ids := slices.Sorted(maps.Keys(g.entities))
	out := make([]*CardInstance, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.entities[id])
	}
	return out
}

func (g *Game) cardsIn(owner PlayerID, zone Zone) []*CardInstance {
	var out []*CardInstance
	for _, c := range g.Entities() {
		if c.Owner == owner && c.Location.Zone == zone {
			out = append(out, c)
		}
	}
	return out
}

// Field returns a player's field cards in slot order.
func (g *Game) Field(owner PlayerID) []*CardInstance {
	out := g.cardsIn(owner, ZoneField)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Location.Slot < out[j].Location.Slot })
	return out
}

// Hand returns a player's hand in id order.
func (g *Game) Hand(owner PlayerID) []*CardInstance { return g.cardsIn(owner, ZoneHand) }

// Deck returns a player's remaining deck in id order, which is draw order.
func (g *Game) Deck(owner PlayerID) []*CardInstance { return g.cardsIn(owner, ZoneDeck) }

// Graveyard returns a player's destroyed and cast cards in id order.
func (g *Game) Graveyard(owner PlayerID) []*CardInstance { return g.cardsIn(owner, ZoneGraveyard) }

// FieldSlot returns the card on a player's slot.
func (g *Game) FieldSlot(owner PlayerID, slot int) (*CardInstance, bool) {
	for _, c := range g.entities {
		if c.Owner == owner && c.Location.IsField() && c.Location.Slot == slot {
			return c, true
		}
	}
	return nil, false
}

// HasDefender reports whether a player has a monster on a defense slot.
func (g *Game) HasDefender(owner PlayerID) bool {
	for _, c := range g.Field(owner) {
		if rules.IsDefenseSlot(c.Location.Slot) {
			return true
		}
	}
	return false
}

// Enqueue appends effects to the game queue without draining it.
func (g *Game) Enqueue(effects ...Effect) { g.queue.Extend(effects...) }

// Pending returns the queued effects in execution order.
func (g *Game) Pending() []Effect { return g.queue.List() }

// HasPlayer reports whether id is one of the two players.
func (g *Game) HasPlayer(id int) bool {
	_, ok := g.players[id]
	return ok
}

// OwnerOf returns the owner of a card.
func (g *Game) OwnerOf(id int) (int, error) {
	c, err := g.Entity(id)
	if err != nil {
		return 0, err
	}
	return c.Owner, nil
}

// OpponentOf returns the other player.
func (g *Game) OpponentOf(player int) (int, error) {
	var others []PlayerID
	for id := range g.players {
		if id != player {
			others = append(others, id)
		}
	}
	if len(others) != 1 {
		return 0, rules.Invariantf("Opponent not found for player with id %d", player)
	}
	return others[0], nil
}

// FieldIDs returns a player's field card ids in slot order.
func (g *Game) FieldIDs(player int) []int {
	field := g.Field(player)
	ids := make([]int, 0, len(field))
	for _, c := range field {
		ids = append(ids, c.ID)
	}
	return ids
}

// CardInfo describes a card for target matching.
func (g *Game) CardInfo(id int) (targeting.CardInfo, bool) {
	c, ok := g.entities[id]
	if !ok {
		return targeting.CardInfo{}, false
	}
	return targeting.CardInfo{
		ID:      c.ID,
		Owner:   c.Owner,
		Race:    string(c.Race),
		Class:   string(c.Class),
		OnField: c.Location.IsField(),
	}, true
}

var _ targeting.State = (*Game)(nil)

// Clone returns a deep copy of the game. The copy shares the logger and
// autopilot.
func (g *Game) Clone() *Game {
	cp := *g
	cp.draining = false
	if g.winner != nil {
		w := *g.winner
		cp.winner = &w
	}
	cp.entities = make(map[EntityID]*CardInstance, len(g.entities))
	for id, c := range g.entities {
		cp.entities[id] = c.clone()
	}
	cp.players = make(map[PlayerID]*PlayerInstance, len(g.players))
	for id, p := range g.players {
		pc := *p
		cp.players[id] = &pc
	}
	cp.queue = g.queue.Clone()
	return &cp
}
