package targeting

import (
	"fmt"
	"strings"

	"github.com/cardclash/clash-server-go/internal/game/rules"
)

// MatchSide restricts a selection to one side of the board, relative to the
// player making it.
type MatchSide string

const (
	// MatchAny accepts either side.
	MatchAny MatchSide = ""
	// MatchOwn accepts the selecting player's own cards.
	MatchOwn MatchSide = "Player"
	// MatchEnemy accepts the opponent's cards.
	MatchEnemy MatchSide = "Enemy"
)

// Matcher is the predicate a selected card must satisfy. Empty fields are
// not checked, so the zero Matcher accepts any card.
type Matcher struct {
	Race  string
	Class string
	Side  MatchSide
}

// Match reports whether card satisfies the matcher for a selection made by owner.
func (m Matcher) Match(owner int, card CardInfo) bool {
	if m.Race != "" && !strings.EqualFold(m.Race, card.Race) {
		return false
	}
	if m.Class != "" && !strings.EqualFold(m.Class, card.Class) {
		return false
	}
	switch m.Side {
	case MatchOwn:
		return card.Owner == owner
	case MatchEnemy:
		return card.Owner != owner
	}
	return true
}

func (m Matcher) String() string {
	var parts []string
	if m.Race != "" {
		parts = append(parts, "race="+m.Race)
	}
	if m.Class != "" {
		parts = append(parts, "class="+m.Class)
	}
	if m.Side != MatchAny {
		parts = append(parts, "side="+string(m.Side))
	}
	if len(parts) == 0 {
		return "any"
	}
	return strings.Join(parts, ",")
}

// PlayTarget is the constraint a card declares on the targets its player
// chooses when playing it.
type PlayTarget struct {
	// Strict requires exactly Amount targets; otherwise up to Amount.
	Strict  bool
	Amount  int
	Matcher Matcher
}

func (pt PlayTarget) String() string {
	if pt.Strict {
		return fmt.Sprintf("exactly %d (%s)", pt.Amount, pt.Matcher)
	}
	return fmt.Sprintf("up to %d (%s)", pt.Amount, pt.Matcher)
}

// ValidateSelection checks a player's chosen targets against a play-target
// constraint. Every failure is a rule error carrying a player-facing message.
func ValidateSelection(st State, owner int, pt PlayTarget, selected []int) error {
	if pt.Strict && len(selected) != pt.Amount {
		return rules.Rulef("Wrong quantity of targets selected (required: %d)", pt.Amount)
	}
	if len(selected) > pt.Amount {
		return rules.Rulef("Too many targets selected (maximum: %d)", pt.Amount)
	}

	seen := make(map[int]bool, len(selected))
	for _, id := range selected {
		if seen[id] {
			return rules.Rule("You selected the same target twice")
		}
		seen[id] = true

		card, ok := st.CardInfo(id)
		if !ok {
			return rules.Rulef("Card with id %d not found", id)
		}
		if !card.OnField {
			return rules.Rule("You must select a card on the field")
		}
		if !pt.Matcher.Match(owner, card) {
			return rules.Rule("You selected a target that doesn't match the card conditions")
		}
	}
	return nil
}
