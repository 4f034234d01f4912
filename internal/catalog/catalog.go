// Package catalog loads the authored card collection and deck lists.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/cardclash/clash-server-go/internal/game"
	"github.com/cardclash/clash-server-go/internal/game/targeting"
	"gopkg.in/yaml.v3"
)

//go:embed data/cards.yaml
var embeddedCards []byte

// Deck names shipped with the embedded catalog.
const (
	DeckAI    = "ai"
	DeckHuman = "human"
)

// Catalog is an immutable set of card templates and named decks.
type Catalog struct {
	templates map[game.TemplateID]*game.CardTemplate
	order     []game.TemplateID
	decks     map[string]game.Deck
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Load(bytes.NewReader(embeddedCards))
	})
	return defaultCatalog, defaultErr
}

// LoadFile reads a catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a YAML catalog and checks every template and deck.
func Load(r io.Reader) (*Catalog, error) {
	var doc FileDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return build(doc)
}

func build(doc FileDocument) (*Catalog, error) {
	c := &Catalog{
		templates: make(map[game.TemplateID]*game.CardTemplate, len(doc.Cards)),
		decks:     make(map[string]game.Deck, len(doc.Decks)),
	}

	// Shells first so summon effects can reference any card.
	for _, card := range doc.Cards {
		if _, dup := c.templates[card.ID]; dup {
			return nil, fmt.Errorf("duplicate card id %d", card.ID)
		}
		c.templates[card.ID] = &game.CardTemplate{ID: card.ID}
		c.order = append(c.order, card.ID)
	}
	for _, card := range doc.Cards {
		if err := c.fill(c.templates[card.ID], card); err != nil {
			return nil, fmt.Errorf("card %d (%s): %w", card.ID, card.Name, err)
		}
		if err := c.templates[card.ID].Validate(); err != nil {
			return nil, err
		}
	}

	for name, deck := range doc.Decks {
		d := game.Deck{
			Archetype: game.Archetype{
				Race:  game.Race(strings.ToUpper(deck.Archetype.Race)),
				Class: game.Class(strings.ToUpper(deck.Archetype.Class)),
			},
			Cards:     slices.Clone(deck.Cards),
		}
		if err := c.ValidateDeck(d); err != nil {
			return nil, fmt.Errorf("deck %q: %w", name, err)
		}
		c.decks[name] = d
	}
	return c, nil
}

func (c *Catalog) fill(tpl *game.CardTemplate, doc CardDocument) error {
	tpl.Name = doc.Name
	tpl.Description = doc.Description
	tpl.Cost = doc.Cost
	tpl.Race = game.Race(strings.ToUpper(doc.Race))
	tpl.Class = game.Class(strings.ToUpper(doc.Class))
	tpl.Attack = doc.Attack
	tpl.HP = doc.HP

	switch strings.ToLower(doc.Kind) {
	case "monster":
		tpl.Kind = game.KindMonster
	case "spell":
		tpl.Kind = game.KindSpell
	default:
		return fmt.Errorf("unknown kind %q", doc.Kind)
	}

	for _, kw := range doc.Keywords {
		switch strings.ToLower(kw) {
		case "charge":
			tpl.Keywords = append(tpl.Keywords, game.KeywordCharge)
		case "windfury":
			tpl.Keywords = append(tpl.Keywords, game.KeywordWindfury)
		default:
			return fmt.Errorf("unknown keyword %q", kw)
		}
	}

	if pt := doc.PlayTarget; pt != nil {
		side, err := matchSide(pt.Side)
		if err != nil {
			return err
		}
		tpl.PlayTarget = &targeting.PlayTarget{
			Strict: pt.Strict,
			Amount: pt.Amount,
			Matcher: targeting.Matcher{
				Race:  pt.Race,
				Class: pt.Class,
				Side:  side,
			},
		}
	}

	var err error
	if tpl.OnPlay, err = c.effects(doc.OnPlay); err != nil {
		return fmt.Errorf("on_play: %w", err)
	}
	if tpl.OnAttack, err = c.effects(doc.OnAttack); err != nil {
		return fmt.Errorf("on_attack: %w", err)
	}
	if tpl.OnDeath, err = c.effects(doc.OnDeath); err != nil {
		return fmt.Errorf("on_death: %w", err)
	}
	if tpl.Effects, err = c.effects(doc.Effects); err != nil {
		return fmt.Errorf("effects: %w", err)
	}
	return nil
}

func matchSide(name string) (targeting.MatchSide, error) {
	switch strings.ToLower(name) {
	case "":
		return targeting.MatchAny, nil
	case "player", "own":
		return targeting.MatchOwn, nil
	case "enemy":
		return targeting.MatchEnemy, nil
	default:
		return targeting.MatchAny, fmt.Errorf("unknown play target side %q", name)
	}
}

func (c *Catalog) effects(docs []EffectDocument) ([]game.TemplateEffect, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	out := make([]game.TemplateEffect, 0, len(docs))
	for i, doc := range docs {
		te, err := c.effect(doc)
		if err != nil {
			return nil, fmt.Errorf("effect %d: %w", i, err)
		}
		out = append(out, te)
	}
	return out, nil
}

func (c *Catalog) effect(doc EffectDocument) (game.TemplateEffect, error) {
	te := game.TemplateEffect{Amount: doc.Amount, Attack: doc.Attack, HP: doc.HP}

	withTarget := func(kind game.EffectKind) (game.TemplateEffect, error) {
		target, err := targeting.ParseKind(doc.Target)
		if err != nil {
			return te, err
		}
		te.Kind = kind
		te.Target = target
		return te, nil
	}
	withPlayer := func(kind game.EffectKind) (game.TemplateEffect, error) {
		side, err := targeting.ParsePlayerSide(doc.Player)
		if err != nil {
			return te, err
		}
		te.Kind = kind
		te.Player = side
		return te, nil
	}

	switch strings.ToLower(doc.Effect) {
	case "damage", "deal_damage":
		return withTarget(game.EffectDealDamage)
	case "attack":
		return withTarget(game.EffectAttack)
	case "heal":
		return withTarget(game.EffectHeal)
	case "destroy":
		return withTarget(game.EffectDestroy)
	case "boost":
		return withTarget(game.EffectBoost)
	case "draw":
		return withPlayer(game.EffectMakeDraw)
	case "increase_max_mana":
		return withPlayer(game.EffectIncreaseMaxMana)
	case "refresh_mana":
		return withPlayer(game.EffectRefreshMana)
	case "summon":
		tpl, ok := c.templates[doc.Summon]
		if !ok {
			return te, fmt.Errorf("summon references unknown card %d", doc.Summon)
		}
		te.Summon = tpl
		return withPlayer(game.EffectSummon)
	default:
		return te, fmt.Errorf("unknown effect %q", doc.Effect)
	}
}

// Template returns a card template by id.
func (c *Catalog) Template(id game.TemplateID) (*game.CardTemplate, bool) {
	tpl, ok := c.templates[id]
	return tpl, ok
}

// Templates returns every template in authored order.
func (c *Catalog) Templates() []*game.CardTemplate {
	out := make([]*game.CardTemplate, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.templates[id])
	}
	return out
}

// Collection returns the cards available to an archetype: its own race or
// class cards plus the common pool.
func (c *Catalog) Collection(a game.Archetype) []*game.CardTemplate {
	var out []*game.CardTemplate
	for _, tpl := range c.Templates() {
		switch {
		case tpl.Race == game.RaceCommon:
		case a.Race != "" && tpl.Race == a.Race:
		case a.Class != "" && tpl.Class == a.Class:
		default:
			continue
		}
		out = append(out, tpl)
	}
	return out
}

// Deck returns a named deck list.
func (c *Catalog) Deck(name string) (game.Deck, bool) {
	d, ok := c.decks[name]
	if !ok {
		return game.Deck{}, false
	}
	d.Cards = slices.Clone(d.Cards)
	return d, true
}

// AIDeck returns the deck the autopilot plays.
func (c *Catalog) AIDeck() (game.Deck, error) {
	d, ok := c.Deck(DeckAI)
	if !ok {
		return game.Deck{}, fmt.Errorf("catalog has no %q deck", DeckAI)
	}
	return d, nil
}

// DeckNames returns the named decks in sorted order.
func (c *Catalog) DeckNames() []string {
	names := make([]string, 0, len(c.decks))
	for name := range c.decks {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ValidateDeck checks every card of a deck belongs to its archetype's
// collection.
func (c *Catalog) ValidateDeck(d game.Deck) error {
	if d.Archetype.Race == "" && d.Archetype.Class == "" {
		return fmt.Errorf("deck has no archetype")
	}
	allowed := make(map[game.TemplateID]bool)
	for _, tpl := range c.Collection(d.Archetype) {
		allowed[tpl.ID] = true
	}
	for _, id := range d.Cards {
		if !allowed[id] {
			return fmt.Errorf("card %d is not in the %s collection", id, d.Archetype)
		}
	}
	return nil
}

// Seat pairs a deck with its archetype's collection for game.New.
func (c *Catalog) Seat(d game.Deck) game.Seat {
	return game.Seat{Deck: d, Collection: c.Collection(d.Archetype)}
}
