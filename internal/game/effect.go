package game

import (
	"github.com/cardclash/clash-server-go/internal/game/targeting"
)

// EffectKind names an effect variant.
type EffectKind string

const (
	EffectIncreaseMaxMana EffectKind = "IncreaseMaxMana"
	EffectRefreshMana     EffectKind = "RefreshMana"
	EffectMakeDraw        EffectKind = "MakeDraw"
	EffectAutoDraw        EffectKind = "AutoDraw"
	EffectHeal            EffectKind = "Heal"
	EffectDestroy         EffectKind = "Destroy"
	EffectDealDamage      EffectKind = "DealDamage"
	EffectSummonFromHand  EffectKind = "SummonFromHand"
	EffectSummon          EffectKind = "Summon"
	EffectAttack          EffectKind = "Attack"
	EffectBoost           EffectKind = "Boost"
	EffectWin             EffectKind = "Win"
)

// Effect is one pending unit of state change in the game queue. The set of
// variants is closed; the engine dispatches on the concrete type.
type Effect interface {
	Kind() EffectKind
	isEffect()
}

// IncreaseMaxMana raises the base mana of the designated players.
type IncreaseMaxMana struct {
	Initiator EntityID
	Player    targeting.PlayerTarget
	Amount    int
}

// RefreshMana restores mana, never beyond base mana.
type RefreshMana struct {
	Initiator EntityID
	Player    targeting.PlayerTarget
	Amount    int
}

// MakeDraw makes the designated players draw.
type MakeDraw struct {
	Initiator EntityID
	Player    targeting.PlayerTarget
	Amount    int
}

// AutoDraw is the system draw at game start and turn start.
type AutoDraw struct {
	Player PlayerID
	Amount int
}

// Heal restores hp to the recipients of Target.
type Heal struct {
	Initiator EntityID
	Target    targeting.Target
	Amount    int
}

// Destroy sends the recipients of Target to the graveyard.
type Destroy struct {
	Initiator EntityID
	Target    targeting.Target
}

// DealDamage removes hp from the recipients of Target.
type DealDamage struct {
	Initiator EntityID
	Target    targeting.Target
	Amount    int
}

// SummonFromHand puts a hand monster onto a slot. A nil Selection means the
// player made no choice and on-play effects keep their authored targets.
type SummonFromHand struct {
	Card      EntityID
	Slot      int
	Selection []EntityID
}

// Summon creates a fresh monster from Template on each designated side.
type Summon struct {
	Initiator EntityID
	Side      targeting.PlayerTarget
	Template  *CardTemplate
}

// Attack resolves one attack from Initiator against the recipients of Target.
type Attack struct {
	Initiator EntityID
	Target    targeting.Target
}

// Boost adds attack and hp to the recipients of Target.
type Boost struct {
	Initiator EntityID
	Target    targeting.Target
	Attack    int
	HP        int
}

// Win ends the game in favor of Player.
type Win struct {
	Player PlayerID
}

func (IncreaseMaxMana) Kind() EffectKind { return EffectIncreaseMaxMana }
func (RefreshMana) Kind() EffectKind     { return EffectRefreshMana }
func (MakeDraw) Kind() EffectKind        { return EffectMakeDraw }
func (AutoDraw) Kind() EffectKind        { return EffectAutoDraw }
func (Heal) Kind() EffectKind            { return EffectHeal }
func (Destroy) Kind() EffectKind         { return EffectDestroy }
func (DealDamage) Kind() EffectKind      { return EffectDealDamage }
func (SummonFromHand) Kind() EffectKind  { return EffectSummonFromHand }
func (Summon) Kind() EffectKind          { return EffectSummon }
func (Attack) Kind() EffectKind          { return EffectAttack }
func (Boost) Kind() EffectKind           { return EffectBoost }
func (Win) Kind() EffectKind             { return EffectWin }

func (IncreaseMaxMana) isEffect() {}
func (RefreshMana) isEffect()     {}
func (MakeDraw) isEffect()        {}
func (AutoDraw) isEffect()        {}
func (Heal) isEffect()            {}
func (Destroy) isEffect()         {}
func (DealDamage) isEffect()      {}
func (SummonFromHand) isEffect()  {}
func (Summon) isEffect()          {}
func (Attack) isEffect()          {}
func (Boost) isEffect()           {}
func (Win) isEffect()             {}

// withSelection replaces the chosen-ids placeholder in an effect's target
// descriptor. Effects without a field target are returned unchanged.
func withSelection(e Effect, selected []EntityID) Effect {
	switch eff := e.(type) {
	case Heal:
		eff.Target = targeting.SubstituteIDs(eff.Target, selected)
		return eff
	case Destroy:
		eff.Target = targeting.SubstituteIDs(eff.Target, selected)
		return eff
	case DealDamage:
		eff.Target = targeting.SubstituteIDs(eff.Target, selected)
		return eff
	case Attack:
		eff.Target = targeting.SubstituteIDs(eff.Target, selected)
		return eff
	case Boost:
		eff.Target = targeting.SubstituteIDs(eff.Target, selected)
		return eff
	default:
		return e
	}
}

func substituteAll(effects []Effect, selected []EntityID) []Effect {
	out := make([]Effect, len(effects))
	for i, e := range effects {
		out[i] = withSelection(e, selected)
	}
	return out
}
