package game

import (
	"encoding/json"
	"fmt"
)

// EntityID identifies a card instance or, below firstCardID, a player.
type EntityID = int

// PlayerID identifies a player. Players share the entity id space.
type PlayerID = int

// TemplateID identifies an authored card template.
type TemplateID = int

const (
	// PlayerA is the seat that moves first.
	PlayerA PlayerID = 0
	// PlayerB is the second seat, the one an AI opponent takes.
	PlayerB PlayerID = 1

	firstCardID    EntityID = 2
	summonIDOffset EntityID = 10000
)

// Zone is where a card currently is.
type Zone string

const (
	ZoneDeck      Zone = "Deck"
	ZoneHand      Zone = "Hand"
	ZoneField     Zone = "Field"
	ZoneGraveyard Zone = "Graveyard"
)

// Location is a zone plus, on the field, a slot.
type Location struct {
	Zone Zone
	Slot int
}

// InDeck returns the deck location.
func InDeck() Location { return Location{Zone: ZoneDeck} }

// InHand returns the hand location.
func InHand() Location { return Location{Zone: ZoneHand} }

// OnField returns the field location for slot.
func OnField(slot int) Location { return Location{Zone: ZoneField, Slot: slot} }

// InGraveyard returns the graveyard location.
func InGraveyard() Location { return Location{Zone: ZoneGraveyard} }

// IsField reports whether the location is a board slot.
func (l Location) IsField() bool { return l.Zone == ZoneField }

func (l Location) String() string {
	if l.Zone == ZoneField {
		return fmt.Sprintf("Field(%d)", l.Slot)
	}
	return string(l.Zone)
}

// MarshalJSON encodes the location as {"type":"Field","value":3} or {"type":"Hand"}.
func (l Location) MarshalJSON() ([]byte, error) {
	if l.Zone == ZoneField {
		return json.Marshal(struct {
			Type  Zone `json:"type"`
			Value int  `json:"value"`
		}{l.Zone, l.Slot})
	}
	return json.Marshal(struct {
		Type Zone `json:"type"`
	}{l.Zone})
}

// UnmarshalJSON decodes the tagged form written by MarshalJSON.
func (l *Location) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type  Zone `json:"type"`
		Value int  `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Type {
	case ZoneDeck, ZoneHand, ZoneGraveyard:
		*l = Location{Zone: raw.Type}
	case ZoneField:
		*l = OnField(raw.Value)
	default:
		return fmt.Errorf("unknown location %q", raw.Type)
	}
	return nil
}

// Race is a card's race tag.
type Race string

const (
	RaceCommon Race = "COMMON"
	RaceHuman  Race = "HUMAN"
	RaceDemon  Race = "DEMON"
	RaceDragon Race = "DRAGON"
)

// Class is a card's class tag.
type Class string

const (
	ClassCommon  Class = "COMMON"
	ClassWarrior Class = "WARRIOR"
	ClassMage    Class = "MAGE"
	ClassRogue   Class = "ROGUE"
)

// Archetype is the identity a deck is built around: a race or a class.
type Archetype struct {
	Race  Race
	Class Class
}

// RaceArchetype returns the archetype for a race deck.
func RaceArchetype(r Race) Archetype { return Archetype{Race: r} }

// ClassArchetype returns the archetype for a class deck.
func ClassArchetype(c Class) Archetype { return Archetype{Class: c} }

func (a Archetype) String() string {
	if a.Race != "" {
		return "Race(" + string(a.Race) + ")"
	}
	if a.Class != "" {
		return "Class(" + string(a.Class) + ")"
	}
	return "None"
}

// MarshalJSON encodes the archetype as {"type":"race","value":"HUMAN"}.
func (a Archetype) MarshalJSON() ([]byte, error) {
	out := struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}{}
	switch {
	case a.Race != "":
		out.Type, out.Value = "race", string(a.Race)
	case a.Class != "":
		out.Type, out.Value = "class", string(a.Class)
	default:
		return []byte("null"), nil
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the tagged form written by MarshalJSON.
func (a *Archetype) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = Archetype{}
		return nil
	}
	var raw struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Type {
	case "race", "Race":
		*a = RaceArchetype(Race(raw.Value))
	case "class", "Class":
		*a = ClassArchetype(Class(raw.Value))
	default:
		return fmt.Errorf("unknown archetype %q", raw.Type)
	}
	return nil
}

// Keyword alters a base rule for the monster carrying it.
type Keyword string

const (
	// KeywordCharge lets a monster attack the turn it arrives.
	KeywordCharge Keyword = "Charge"
	// KeywordWindfury allows two attacks per turn.
	KeywordWindfury Keyword = "Windfury"
)

// CardKind distinguishes monsters from spells.
type CardKind string

const (
	KindMonster CardKind = "Monster"
	KindSpell   CardKind = "Spell"
)

// Deck is a player's deck list: an archetype and template ids in draw order.
type Deck struct {
	Archetype Archetype    `json:"archetype"`
	Cards     []TemplateID `json:"cards"`
}
