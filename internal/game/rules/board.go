package rules

import "slices"

// Game-wide limits.
const (
	// MaxPlayerHP is the starting and maximum hp of a player.
	MaxPlayerHP = 30
	// MaxHandSize is the number of cards a hand can hold; further draws burn.
	MaxHandSize = 10
	// FieldSlots is the number of board slots per player.
	FieldSlots = 8
	// MaxBaseMana caps base mana growth at turn start.
	MaxBaseMana = 10
	// MovesPerTurn is the movement budget restored at turn start.
	MovesPerTurn = 3
	// OpeningHand is the number of cards each player draws at game start.
	OpeningHand = 5
)

var (
	defenseSlots = []int{1, 2, 4, 5, 7}
	attackSlots  = []int{0, 2, 3, 5, 6}
	spawnOrder   = []int{3, 4, 2, 5, 0, 1, 6, 7}

	adjacency = map[int][]int{
		0: {1, 2},
		1: {0, 2},
		2: {0, 1, 3, 4},
		3: {2, 4, 5},
		4: {2, 3, 5},
		5: {3, 4, 6, 7},
		6: {5, 7},
		7: {5, 6},
	}
)

// ValidSlot reports whether slot is on the board.
func ValidSlot(slot int) bool {
	return slot >= 0 && slot < FieldSlots
}

// IsDefenseSlot reports whether a monster on slot protects its hero.
func IsDefenseSlot(slot int) bool {
	return slices.Contains(defenseSlots, slot)
}

// IsAttackSlot reports whether a monster on slot may attack.
func IsAttackSlot(slot int) bool {
	return slices.Contains(attackSlots, slot)
}

// DefenseSlots returns the defense slots in ascending order.
func DefenseSlots() []int {
	return slices.Clone(defenseSlots)
}

// AttackSlots returns the attack slots in ascending order.
func AttackSlots() []int {
	return slices.Clone(attackSlots)
}

// SpawnOrder returns the slot preference for monsters created by effects.
func SpawnOrder() []int {
	return slices.Clone(spawnOrder)
}

// Adjacent returns the slots reachable from slot in one move.
func Adjacent(slot int) ([]int, error) {
	linked, ok := adjacency[slot]
	if !ok {
		return nil, Rule("Invalid starting position")
	}
	return slices.Clone(linked), nil
}

// IsAdjacent reports whether a monster may move from one slot to another.
func IsAdjacent(from, to int) bool {
	return slices.Contains(adjacency[from], to)
}
