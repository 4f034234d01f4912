package game

import (
	"testing"

	"github.com/cardclash/clash-server-go/internal/game/targeting"
	"go.uber.org/zap/zaptest"
)

// Test fixtures. Templates are built inline so tests read without the catalog.

func monsterTemplate(id TemplateID, cost, attack, hp int, keywords ...Keyword) *CardTemplate {
	return &CardTemplate{
		ID:       id,
		Name:     "Monster",
		Cost:     cost,
		Race:     RaceCommon,
		Class:    ClassCommon,
		Kind:     KindMonster,
		Attack:   attack,
		HP:       hp,
		Keywords: keywords,
	}
}

func spellTemplate(id TemplateID, cost int, effects ...TemplateEffect) *CardTemplate {
	return &CardTemplate{
		ID:      id,
		Name:    "Spell",
		Cost:    cost,
		Race:    RaceCommon,
		Class:   ClassCommon,
		Kind:    KindSpell,
		Effects: effects,
	}
}

func damage(target targeting.Target, amount int) TemplateEffect {
	return TemplateEffect{Kind: EffectDealDamage, Target: target, Amount: amount}
}

func heal(target targeting.Target, amount int) TemplateEffect {
	return TemplateEffect{Kind: EffectHeal, Target: target, Amount: amount}
}

// newTestGame returns a started game with empty decks, so no card exists
// until the test places one.
func newTestGame(t *testing.T, opts ...Option) *Game {
	t.Helper()
	opts = append([]Option{WithID("test-game"), WithLogger(zaptest.NewLogger(t))}, opts...)
	g, err := New(Seat{Deck: Deck{Archetype: RaceArchetype(RaceHuman)}}, Seat{Deck: Deck{Archetype: RaceArchetype(RaceDemon)}}, false, opts...)
	if err != nil {
		t.Fatalf("failed to create game: %v", err)
	}
	if _, err := g.Start(); err != nil {
		t.Fatalf("failed to start game: %v", err)
	}
	return g
}

func place(t *testing.T, g *Game, owner PlayerID, tpl *CardTemplate, loc Location) *CardInstance {
	t.Helper()
	card, err := g.AddCard(owner, tpl, loc)
	if err != nil {
		t.Fatalf("failed to place card: %v", err)
	}
	return card
}

// awake places a ready monster on the field.
func awake(t *testing.T, g *Game, owner PlayerID, tpl *CardTemplate, slot int) *CardInstance {
	t.Helper()
	card := place(t, g, owner, tpl, OnField(slot))
	card.Monster.Asleep = false
	return card
}

func setMana(g *Game, player PlayerID, mana int) {
	p := g.players[player]
	p.BaseMana = max(p.BaseMana, mana)
	p.Mana = mana
}

func actionTypes(actions []Action) []ActionType {
	out := make([]ActionType, 0, len(actions))
	for _, a := range actions {
		out = append(out, a.Type)
	}
	return out
}

func countCards(g *Game, owner PlayerID) int {
	n := 0
	for _, c := range g.Entities() {
		if c.Owner == owner {
			n++
		}
	}
	return n
}

type recordingAutopilot struct {
	turns []PlayerID
}

func (r *recordingAutopilot) PlayTurn(g *Game, player PlayerID) ([]Action, error) {
	r.turns = append(r.turns, player)
	return g.EndTurn(player)
}
