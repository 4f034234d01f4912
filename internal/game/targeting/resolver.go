package targeting

import (
	"slices"

	"github.com/cardclash/clash-server-go/internal/game/rules"
)

// State is the read-only view of a game the resolver works against.
type State interface {
	// HasPlayer reports whether id is a player of the game.
	HasPlayer(id int) bool
	// OwnerOf returns the owning player of a card.
	OwnerOf(id int) (int, error)
	// OpponentOf returns the only other player. Any other player count is
	// an invariant violation.
	OpponentOf(player int) (int, error)
	// FieldIDs returns the ids of the monsters on a player's side, in slot order.
	FieldIDs(player int) []int
	// CardInfo describes a card for matcher checks.
	CardInfo(id int) (CardInfo, bool)
}

// CardInfo carries the attributes matchers and the resolver look at.
type CardInfo struct {
	ID      int
	Owner   int
	Race    string
	Class   string
	OnField bool
}

// sides returns the initiator's side and the opposing side. A player id
// initiates on its own behalf; a card initiates on behalf of its owner.
func sides(st State, initiator int) (int, int, error) {
	side := initiator
	if !st.HasPlayer(initiator) {
		owner, err := st.OwnerOf(initiator)
		if err != nil {
			return 0, 0, err
		}
		side = owner
	}
	opponent, err := st.OpponentOf(side)
	if err != nil {
		return 0, 0, err
	}
	return side, opponent, nil
}

// ResolvePlayers returns the player ids t designates for initiator.
// Field-only descriptors resolve to nothing in this space.
func ResolvePlayers(st State, initiator int, t Target) ([]int, error) {
	side, opponent, err := sides(st, initiator)
	if err != nil {
		return nil, err
	}
	return resolvePlayers(st, side, opponent, t), nil
}

func resolvePlayers(st State, side, opponent int, t Target) []int {
	switch tt := t.(type) {
	case Player:
		return []int{side}
	case EnemyPlayer:
		return []int{opponent}
	case BothPlayers, All:
		return []int{side, opponent}
	case IDs:
		var out []int
		for _, id := range tt.IDs {
			if st.HasPlayer(id) && !slices.Contains(out, id) {
				out = append(out, id)
			}
		}
		return out
	case And:
		return intersect(resolvePlayers(st, side, opponent, tt.Left), resolvePlayers(st, side, opponent, tt.Right))
	case Or:
		return union(resolvePlayers(st, side, opponent, tt.Left), resolvePlayers(st, side, opponent, tt.Right))
	default:
		return nil
	}
}

// ResolveField returns the ids of the monsters t designates for initiator.
// Explicit ids only resolve while the card is still on the field.
func ResolveField(st State, initiator int, t Target) ([]int, error) {
	side, opponent, err := sides(st, initiator)
	if err != nil {
		return nil, err
	}
	return resolveField(st, initiator, side, opponent, t), nil
}

func resolveField(st State, initiator, side, opponent int, t Target) []int {
	switch tt := t.(type) {
	case ItSelf:
		if info, ok := st.CardInfo(initiator); ok && info.OnField {
			return []int{initiator}
		}
		return nil
	case Allies:
		return st.FieldIDs(side)
	case Enemies:
		return st.FieldIDs(opponent)
	case AllMonsters, All:
		return append(st.FieldIDs(side), st.FieldIDs(opponent)...)
	case IDs:
		var out []int
		for _, id := range tt.IDs {
			info, ok := st.CardInfo(id)
			if ok && info.OnField && !slices.Contains(out, id) {
				out = append(out, id)
			}
		}
		return out
	case And:
		return intersect(resolveField(st, initiator, side, opponent, tt.Left), resolveField(st, initiator, side, opponent, tt.Right))
	case Or:
		return union(resolveField(st, initiator, side, opponent, tt.Left), resolveField(st, initiator, side, opponent, tt.Right))
	default:
		return nil
	}
}

// Resolve returns player recipients followed by field recipients.
func Resolve(st State, initiator int, t Target) ([]int, error) {
	players, err := ResolvePlayers(st, initiator, t)
	if err != nil {
		return nil, err
	}
	field, err := ResolveField(st, initiator, t)
	if err != nil {
		return nil, err
	}
	return append(players, field...), nil
}

// ResolvePlayerTarget returns the player ids pt designates for initiator.
func ResolvePlayerTarget(st State, initiator int, pt PlayerTarget) ([]int, error) {
	side, opponent, err := sides(st, initiator)
	if err != nil {
		return nil, err
	}
	switch pt.Side {
	case SideSelf:
		return []int{side}, nil
	case SideOpponent:
		return []int{opponent}, nil
	case SideBoth:
		return []int{side, opponent}, nil
	case SideID:
		if st.HasPlayer(pt.ID) {
			return []int{pt.ID}, nil
		}
		return nil, nil
	default:
		return nil, rules.Invariantf("unknown player target %q", pt.Side)
	}
}

func union(a, b []int) []int {
	out := slices.Clone(a)
	for _, id := range b {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func intersect(a, b []int) []int {
	var out []int
	for _, id := range a {
		if slices.Contains(b, id) && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
