package targeting

import (
	"fmt"
	"strings"
)

// Kind names a target descriptor variant.
type Kind string

const (
	// KindEnemyPlayer targets the opponent of the initiator's owner.
	KindEnemyPlayer Kind = "EnemyPlayer"
	// KindPlayer targets the initiator's owner.
	KindPlayer Kind = "Player"
	// KindBothPlayers targets both heroes.
	KindBothPlayers Kind = "BothPlayers"
	// KindItSelf targets the initiating card.
	KindItSelf Kind = "ItSelf"
	// KindAllies targets the monsters on the initiator's side.
	KindAllies Kind = "Allies"
	// KindEnemies targets the monsters on the opposing side.
	KindEnemies Kind = "Enemies"
	// KindAllMonsters targets every monster on the board.
	KindAllMonsters Kind = "AllMonsters"
	// KindAll targets both heroes and every monster on the board.
	KindAll Kind = "All"
	// KindIDs targets an explicit id list, usually a player selection.
	KindIDs Kind = "Ids"
	// KindAnd keeps recipients present in both operands.
	KindAnd Kind = "And"
	// KindOr keeps recipients present in either operand.
	KindOr Kind = "Or"
)

// Target is an abstract recipient descriptor. It is a closed union: the
// variants are the types declared in this file.
type Target interface {
	Kind() Kind
	String() string
	isTarget()
}

// EnemyPlayer targets the opposing hero.
type EnemyPlayer struct{}

// Player targets the initiator's own hero.
type Player struct{}

// BothPlayers targets both heroes.
type BothPlayers struct{}

// ItSelf targets the initiating card.
type ItSelf struct{}

// Allies targets every monster on the initiator's side of the board.
type Allies struct{}

// Enemies targets every monster on the opposing side of the board.
type Enemies struct{}

// AllMonsters targets every monster on the board.
type AllMonsters struct{}

// All targets both heroes and every monster on the board.
type All struct{}

// IDs targets explicit ids. Ids that no longer resolve are skipped.
type IDs struct {
	IDs []int
}

// And keeps the recipients of Left that are also recipients of Right.
type And struct {
	Left  Target
	Right Target
}

// Or keeps the recipients of Left followed by those of Right not already listed.
type Or struct {
	Left  Target
	Right Target
}

// ID is shorthand for a single explicit id.
func ID(id int) IDs {
	return IDs{IDs: []int{id}}
}

func (EnemyPlayer) Kind() Kind { return KindEnemyPlayer }
func (Player) Kind() Kind      { return KindPlayer }
func (BothPlayers) Kind() Kind { return KindBothPlayers }
func (ItSelf) Kind() Kind      { return KindItSelf }
func (Allies) Kind() Kind      { return KindAllies }
func (Enemies) Kind() Kind     { return KindEnemies }
func (AllMonsters) Kind() Kind { return KindAllMonsters }
func (All) Kind() Kind         { return KindAll }
func (IDs) Kind() Kind         { return KindIDs }
func (And) Kind() Kind         { return KindAnd }
func (Or) Kind() Kind          { return KindOr }

func (t EnemyPlayer) String() string { return string(t.Kind()) }
func (t Player) String() string      { return string(t.Kind()) }
func (t BothPlayers) String() string { return string(t.Kind()) }
func (t ItSelf) String() string      { return string(t.Kind()) }
func (t Allies) String() string      { return string(t.Kind()) }
func (t Enemies) String() string     { return string(t.Kind()) }
func (t AllMonsters) String() string { return string(t.Kind()) }
func (t All) String() string         { return string(t.Kind()) }

func (t IDs) String() string {
	parts := make([]string, len(t.IDs))
	for i, id := range t.IDs {
		parts[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("Ids(%s)", strings.Join(parts, ","))
}

func (t And) String() string { return fmt.Sprintf("And(%v,%v)", t.Left, t.Right) }
func (t Or) String() string  { return fmt.Sprintf("Or(%v,%v)", t.Left, t.Right) }

func (EnemyPlayer) isTarget() {}
func (Player) isTarget()      {}
func (BothPlayers) isTarget() {}
func (ItSelf) isTarget()      {}
func (Allies) isTarget()      {}
func (Enemies) isTarget()     {}
func (AllMonsters) isTarget() {}
func (All) isTarget()         {}
func (IDs) isTarget()         {}
func (And) isTarget()         {}
func (Or) isTarget()          {}

// PlayerSide selects which hero a player-directed effect applies to.
type PlayerSide string

const (
	// SideSelf is the initiator's owner.
	SideSelf PlayerSide = "Player"
	// SideOpponent is the opponent of the initiator's owner.
	SideOpponent PlayerSide = "EnemyPlayer"
	// SideBoth is both heroes, own first.
	SideBoth PlayerSide = "BothPlayers"
	// SideID is an explicit player id.
	SideID PlayerSide = "Id"
)

// PlayerTarget is a descriptor that only ever resolves to player ids.
type PlayerTarget struct {
	Side PlayerSide
	ID   int
}

// Self targets the initiator's owner.
func Self() PlayerTarget { return PlayerTarget{Side: SideSelf} }

// Opponent targets the opposing hero.
func Opponent() PlayerTarget { return PlayerTarget{Side: SideOpponent} }

// Both targets both heroes.
func Both() PlayerTarget { return PlayerTarget{Side: SideBoth} }

// PlayerID targets an explicit player id.
func PlayerID(id int) PlayerTarget { return PlayerTarget{Side: SideID, ID: id} }

func (pt PlayerTarget) String() string {
	if pt.Side == SideID {
		return fmt.Sprintf("Id(%d)", pt.ID)
	}
	return string(pt.Side)
}

// SubstituteIDs returns t with every explicit id list replaced by selected.
// Composite descriptors are rewritten recursively; other variants are
// returned unchanged.
func SubstituteIDs(t Target, selected []int) Target {
	switch tt := t.(type) {
	case IDs:
		ids := make([]int, len(selected))
		copy(ids, selected)
		return IDs{IDs: ids}
	case And:
		return And{Left: SubstituteIDs(tt.Left, selected), Right: SubstituteIDs(tt.Right, selected)}
	case Or:
		return Or{Left: SubstituteIDs(tt.Left, selected), Right: SubstituteIDs(tt.Right, selected)}
	default:
		return t
	}
}

// ParseKind maps an authored target name to its descriptor. Names are
// matched case-insensitively; "Choose" yields an empty id list that a
// player selection fills in at play time.
func ParseKind(name string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "enemyplayer", "enemy_player":
		return EnemyPlayer{}, nil
	case "player":
		return Player{}, nil
	case "bothplayers", "both_players":
		return BothPlayers{}, nil
	case "itself", "it_self", "self":
		return ItSelf{}, nil
	case "allies":
		return Allies{}, nil
	case "enemies":
		return Enemies{}, nil
	case "allmonsters", "all_monsters":
		return AllMonsters{}, nil
	case "all":
		return All{}, nil
	case "choose", "chosen", "ids":
		return IDs{}, nil
	default:
		return nil, fmt.Errorf("unknown target %q", name)
	}
}

// ParsePlayerSide maps an authored player target name to its descriptor.
func ParsePlayerSide(name string) (PlayerTarget, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "player", "self":
		return Self(), nil
	case "enemyplayer", "enemy_player", "opponent":
		return Opponent(), nil
	case "bothplayers", "both_players", "both":
		return Both(), nil
	default:
		return PlayerTarget{}, fmt.Errorf("unknown player target %q", name)
	}
}
