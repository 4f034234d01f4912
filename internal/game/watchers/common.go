// Package watchers derives match statistics from the action stream a game
// emits. Watchers never touch game state; they only see what players see.
package watchers

import (
	"github.com/cardclash/clash-server-go/internal/game"
)

// Scope controls when a watcher is reset.
type Scope int

const (
	// ScopeGame watchers accumulate for the whole match.
	ScopeGame Scope = iota
	// ScopeTurn watchers are reset whenever a turn starts.
	ScopeTurn
)

// String returns the string representation of the scope.
func (s Scope) String() string {
	switch s {
	case ScopeGame:
		return "GAME"
	case ScopeTurn:
		return "TURN"
	default:
		return "UNKNOWN"
	}
}

// Watcher observes actions and tracks a condition or a tally.
type Watcher interface {
	Watch(a game.Action)
	Reset()
	Scope() Scope
	Key() string
	Copy() Watcher
}

func isPlayer(id game.EntityID) bool {
	return id == game.PlayerA || id == game.PlayerB
}

// SpellsCastWatcher counts spells cast per player.
type SpellsCastWatcher struct {
	cast [2]int
}

// NewSpellsCastWatcher creates a new spells cast watcher.
func NewSpellsCastWatcher() *SpellsCastWatcher {
	return &SpellsCastWatcher{}
}

func (w *SpellsCastWatcher) Watch(a game.Action) {
	if a.Type == game.ActionCastSpell && isPlayer(a.Player) {
		w.cast[a.Player]++
	}
}

func (w *SpellsCastWatcher) Reset()       { w.cast = [2]int{} }
func (w *SpellsCastWatcher) Scope() Scope { return ScopeGame }
func (w *SpellsCastWatcher) Key() string  { return "SpellsCastWatcher" }

// Copy creates a copy of this watcher.
func (w *SpellsCastWatcher) Copy() Watcher {
	c := *w
	return &c
}

// Count returns the number of spells player has cast.
func (w *SpellsCastWatcher) Count(player game.PlayerID) int {
	if !isPlayer(player) {
		return 0
	}
	return w.cast[player]
}

// CreaturesDiedWatcher counts destroyed monsters per owner. Owners are
// learned from the Summon action that put each card on the field.
type CreaturesDiedWatcher struct {
	owners   map[game.EntityID]game.PlayerID
	summoned [2]int
	died     [2]int
}

// NewCreaturesDiedWatcher creates a new creatures died watcher.
func NewCreaturesDiedWatcher() *CreaturesDiedWatcher {
	return &CreaturesDiedWatcher{owners: make(map[game.EntityID]game.PlayerID)}
}

func (w *CreaturesDiedWatcher) Watch(a game.Action) {
	switch a.Type {
	case game.ActionSummon:
		if a.Card == nil || !isPlayer(a.Card.Owner) {
			return
		}
		w.owners[a.Card.ID] = a.Card.Owner
		w.summoned[a.Card.Owner]++
	case game.ActionDestroy:
		owner, ok := w.owners[a.Target]
		if !ok {
			return
		}
		delete(w.owners, a.Target)
		w.died[owner]++
	}
}

func (w *CreaturesDiedWatcher) Reset() {
	w.owners = make(map[game.EntityID]game.PlayerID)
	w.summoned = [2]int{}
	w.died = [2]int{}
}

func (w *CreaturesDiedWatcher) Scope() Scope { return ScopeGame }
func (w *CreaturesDiedWatcher) Key() string  { return "CreaturesDiedWatcher" }

// Copy creates a copy of this watcher.
func (w *CreaturesDiedWatcher) Copy() Watcher {
	c := &CreaturesDiedWatcher{
		owners:   make(map[game.EntityID]game.PlayerID, len(w.owners)),
		summoned: w.summoned,
		died:     w.died,
	}
	for id, owner := range w.owners {
		c.owners[id] = owner
	}
	return c
}

// Summoned returns how many monsters player put on the field.
func (w *CreaturesDiedWatcher) Summoned(player game.PlayerID) int {
	if !isPlayer(player) {
		return 0
	}
	return w.summoned[player]
}

// Died returns how many of player's monsters were destroyed.
func (w *CreaturesDiedWatcher) Died(player game.PlayerID) int {
	if !isPlayer(player) {
		return 0
	}
	return w.died[player]
}

// PlayerDamageWatcher sums damage and healing received by each player.
type PlayerDamageWatcher struct {
	damage [2]int
	healed [2]int
}

// NewPlayerDamageWatcher creates a new player damage watcher.
func NewPlayerDamageWatcher() *PlayerDamageWatcher {
	return &PlayerDamageWatcher{}
}

func (w *PlayerDamageWatcher) Watch(a game.Action) {
	if !isPlayer(a.Target) {
		return
	}
	switch a.Type {
	case game.ActionReceiveDamage:
		w.damage[a.Target] += a.Amount
	case game.ActionHeal:
		w.healed[a.Target] += a.Amount
	}
}

func (w *PlayerDamageWatcher) Reset() {
	w.damage = [2]int{}
	w.healed = [2]int{}
}

func (w *PlayerDamageWatcher) Scope() Scope { return ScopeGame }
func (w *PlayerDamageWatcher) Key() string  { return "PlayerDamageWatcher" }

// Copy creates a copy of this watcher.
func (w *PlayerDamageWatcher) Copy() Watcher {
	c := *w
	return &c
}

// DamageTaken returns the total damage player received.
func (w *PlayerDamageWatcher) DamageTaken(player game.PlayerID) int {
	if !isPlayer(player) {
		return 0
	}
	return w.damage[player]
}

// Healed returns the total healing player received.
func (w *PlayerDamageWatcher) Healed(player game.PlayerID) int {
	if !isPlayer(player) {
		return 0
	}
	return w.healed[player]
}

// AttacksThisTurnWatcher counts attacks declared in the current turn.
type AttacksThisTurnWatcher struct {
	attackers map[game.EntityID]int
	total     int
}

// NewAttacksThisTurnWatcher creates a new attacks watcher.
func NewAttacksThisTurnWatcher() *AttacksThisTurnWatcher {
	return &AttacksThisTurnWatcher{attackers: make(map[game.EntityID]int)}
}

func (w *AttacksThisTurnWatcher) Watch(a game.Action) {
	if a.Type != game.ActionAttack {
		return
	}
	w.attackers[a.Initiator]++
	w.total++
}

func (w *AttacksThisTurnWatcher) Reset() {
	w.attackers = make(map[game.EntityID]int)
	w.total = 0
}

func (w *AttacksThisTurnWatcher) Scope() Scope { return ScopeTurn }
func (w *AttacksThisTurnWatcher) Key() string  { return "AttacksThisTurnWatcher" }

// Copy creates a copy of this watcher.
func (w *AttacksThisTurnWatcher) Copy() Watcher {
	c := &AttacksThisTurnWatcher{attackers: make(map[game.EntityID]int, len(w.attackers)), total: w.total}
	for id, n := range w.attackers {
		c.attackers[id] = n
	}
	return c
}

// Total returns the number of attacks this turn.
func (w *AttacksThisTurnWatcher) Total() int { return w.total }

// Attacks returns how many times a card attacked this turn.
func (w *AttacksThisTurnWatcher) Attacks(card game.EntityID) int { return w.attackers[card] }
