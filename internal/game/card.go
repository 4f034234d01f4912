package game

import (
	"slices"

	"github.com/cardclash/clash-server-go/internal/game/rules"
	"github.com/cardclash/clash-server-go/internal/game/targeting"
)

// Monster is the combat payload of a monster card.
type Monster struct {
	Attack      int
	HP          int
	MaxHP       int
	Asleep      bool
	AttackCount int
	Keywords    []Keyword
	OnPlay      []Effect
	OnAttack    []Effect
	OnDeath     []Effect
}

// HasKeyword reports whether the monster carries k.
func (m *Monster) HasKeyword(k Keyword) bool {
	return slices.Contains(m.Keywords, k)
}

// AttackBudget is the number of attacks allowed per turn.
func (m *Monster) AttackBudget() int {
	if m.HasKeyword(KeywordWindfury) {
		return 2
	}
	return 1
}

// Spell is the payload of a spell card.
type Spell struct {
	Effects []Effect
}

// CardInstance is a card in a game. Exactly one of Monster and Spell is set,
// matching Kind.
type CardInstance struct {
	ID          EntityID
	TemplateID  TemplateID
	Name        string
	Description string
	Cost        int
	Owner       PlayerID
	Location    Location
	Race        Race
	Class       Class
	PlayTarget  *targeting.PlayTarget
	Kind        CardKind

	Monster *Monster
	Spell   *Spell
}

// IsMonster reports whether the card is a monster.
func (c *CardInstance) IsMonster() bool { return c.Kind == KindMonster && c.Monster != nil }

// IsSpell reports whether the card is a spell.
func (c *CardInstance) IsSpell() bool { return c.Kind == KindSpell }

// Instantiate creates a card instance owned by owner. Authored effects are
// bound with the new card as initiator. The card starts in the deck.
func Instantiate(id EntityID, owner PlayerID, tpl *CardTemplate) (*CardInstance, error) {
	card := &CardInstance{
		ID:          id,
		TemplateID:  tpl.ID,
		Name:        tpl.Name,
		Description: tpl.Description,
		Cost:        tpl.Cost,
		Owner:       owner,
		Location:    InDeck(),
		Race:        tpl.Race,
		Class:       tpl.Class,
		Kind:        tpl.Kind,
	}
	if tpl.PlayTarget != nil {
		pt := *tpl.PlayTarget
		card.PlayTarget = &pt
	}

	var err error
	switch tpl.Kind {
	case KindMonster:
		m := &Monster{
			Attack:   tpl.Attack,
			HP:       tpl.HP,
			MaxHP:    tpl.HP,
			Asleep:   !tpl.HasKeyword(KeywordCharge),
			Keywords: slices.Clone(tpl.Keywords),
		}
		if m.OnPlay, err = bindAll(tpl.OnPlay, id); err != nil {
			return nil, err
		}
		if m.OnAttack, err = bindAll(tpl.OnAttack, id); err != nil {
			return nil, err
		}
		if m.OnDeath, err = bindAll(tpl.OnDeath, id); err != nil {
			return nil, err
		}
		card.Monster = m
	default:
		s := &Spell{}
		if s.Effects, err = bindAll(tpl.Effects, id); err != nil {
			return nil, err
		}
		card.Spell = s
	}
	return card, nil
}

// clone returns a deep copy. Effect values are immutable once bound, so the
// effect slices are copied but their elements are shared.
func (c *CardInstance) clone() *CardInstance {
	cp := *c
	if c.PlayTarget != nil {
		pt := *c.PlayTarget
		cp.PlayTarget = &pt
	}
	if c.Monster != nil {
		m := *c.Monster
		m.Keywords = slices.Clone(c.Monster.Keywords)
		m.OnPlay = slices.Clone(c.Monster.OnPlay)
		m.OnAttack = slices.Clone(c.Monster.OnAttack)
		m.OnDeath = slices.Clone(c.Monster.OnDeath)
		cp.Monster = &m
	}
	if c.Spell != nil {
		cp.Spell = &Spell{Effects: slices.Clone(c.Spell.Effects)}
	}
	return &cp
}

// PlayerInstance is a player's resources.
type PlayerInstance struct {
	ID        PlayerID
	HP        int
	Mana      int
	BaseMana  int
	MoveCount int
	MaxMove   int
	Archetype Archetype
}

func newPlayer(id PlayerID, baseMana int, archetype Archetype) *PlayerInstance {
	return &PlayerInstance{
		ID:        id,
		HP:        rules.MaxPlayerHP,
		Mana:      baseMana,
		BaseMana:  baseMana,
		MoveCount: rules.MovesPerTurn,
		MaxMove:   rules.MovesPerTurn,
		Archetype: archetype,
	}
}
