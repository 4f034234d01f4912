package game

import (
	"slices"
)

// PlayTargetView is the public form of a card's targeting constraint.
type PlayTargetView struct {
	Strict  bool   `json:"strict"`
	Amount  int    `json:"amount"`
	Matcher string `json:"matcher"`
}

// CardView is the public projection of a card instance.
type CardView struct {
	ID          EntityID        `json:"id"`
	TemplateID  TemplateID      `json:"templateId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Cost        int             `json:"cost"`
	Owner       PlayerID        `json:"owner"`
	Location    Location        `json:"location"`
	Race        Race            `json:"race"`
	Class       Class           `json:"class"`
	Kind        CardKind        `json:"kind"`
	PlayTarget  *PlayTargetView `json:"playTarget,omitempty"`
	Attack      int             `json:"attack,omitempty"`
	HP          int             `json:"hp,omitempty"`
	MaxHP       int             `json:"maxHp,omitempty"`
	Asleep      bool            `json:"asleep,omitempty"`
	AttackCount int             `json:"attackCount,omitempty"`
	Keywords    []Keyword       `json:"keywords,omitempty"`
}

// NewCardView projects a card instance.
func NewCardView(c *CardInstance) *CardView {
	if c == nil {
		return nil
	}
	v := &CardView{
		ID:          c.ID,
		TemplateID:  c.TemplateID,
		Name:        c.Name,
		Description: c.Description,
		Cost:        c.Cost,
		Owner:       c.Owner,
		Location:    c.Location,
		Race:        c.Race,
		Class:       c.Class,
		Kind:        c.Kind,
	}
	if c.PlayTarget != nil {
		v.PlayTarget = &PlayTargetView{
			Strict:  c.PlayTarget.Strict,
			Amount:  c.PlayTarget.Amount,
			Matcher: c.PlayTarget.Matcher.String(),
		}
	}
	if m := c.Monster; m != nil {
		v.Attack = m.Attack
		v.HP = m.HP
		v.MaxHP = m.MaxHP
		v.Asleep = m.Asleep
		v.AttackCount = m.AttackCount
		v.Keywords = slices.Clone(m.Keywords)
	}
	return v
}

func cardViews(cards []*CardInstance) []*CardView {
	out := make([]*CardView, 0, len(cards))
	for _, c := range cards {
		out = append(out, NewCardView(c))
	}
	return out
}

// PlayerView is the public projection of a player.
type PlayerView struct {
	ID        PlayerID  `json:"id"`
	HP        int       `json:"hp"`
	Mana      int       `json:"mana"`
	BaseMana  int       `json:"baseMana"`
	MoveCount int       `json:"moveCount"`
	Archetype Archetype `json:"archetype"`
}

// EnemyView is what a player is allowed to know about the opponent.
type EnemyView struct {
	Field    []*CardView `json:"field"`
	HandSize int         `json:"handSize"`
	DeckSize int         `json:"deckSize"`
	Mana     int         `json:"mana"`
	BaseMana int         `json:"baseMana"`
	Player   PlayerView  `json:"player"`
}

// PublicGameState is the state a single player is shown. The enemy hand and
// deck contents are never included.
type PublicGameState struct {
	GameID        string      `json:"gameId"`
	Turn          int         `json:"turn"`
	CurrentPlayer PlayerID    `json:"currentPlayer"`
	Winner        *PlayerID   `json:"winner"`
	Player        PlayerView  `json:"player"`
	Field         []*CardView `json:"field"`
	Hand          []*CardView `json:"hand"`
	DeckSize      int         `json:"deckSize"`
	Mana          int         `json:"mana"`
	BaseMana      int         `json:"baseMana"`
	MoveCount     int         `json:"moveCount"`
	Enemy         EnemyView   `json:"enemy"`
}

func newPlayerView(p *PlayerInstance) PlayerView {
	return PlayerView{
		ID:        p.ID,
		HP:        p.HP,
		Mana:      p.Mana,
		BaseMana:  p.BaseMana,
		MoveCount: p.MoveCount,
		Archetype: p.Archetype,
	}
}

// View returns the player-facing projection of the game for player.
func (g *Game) View(player PlayerID) (*PublicGameState, error) {
	me, err := g.Player(player)
	if err != nil {
		return nil, err
	}
	enemyID, err := g.OpponentOf(player)
	if err != nil {
		return nil, err
	}
	enemy := g.players[enemyID]

	view := &PublicGameState{
		GameID:        g.ID,
		Turn:          g.Turn,
		CurrentPlayer: g.CurrentPlayer,
		Player:        newPlayerView(me),
		Field:         cardViews(g.Field(player)),
		Hand:          cardViews(g.Hand(player)),
		DeckSize:      len(g.Deck(player)),
		Mana:          me.Mana,
		BaseMana:      me.BaseMana,
		MoveCount:     me.MoveCount,
		Enemy: EnemyView{
			Field:    cardViews(g.Field(enemyID)),
			HandSize: len(g.Hand(enemyID)),
			DeckSize: len(g.Deck(enemyID)),
			Mana:     enemy.Mana,
			BaseMana: enemy.BaseMana,
			Player:   newPlayerView(enemy),
		},
	}
	if w, ok := g.Winner(); ok {
		view.Winner = &w
	}
	return view, nil
}
