package ai

import (
	"slices"
	"sort"

	"github.com/cardclash/clash-server-go/internal/game"
	"go.uber.org/zap"
)

// item is a hand card considered by the summon pass.
type item struct {
	cost int
	id   game.EntityID
}

// summonPass plays the set of hand monsters that spends the most mana,
// placing them as close to the center slot as possible. Spells are never
// cast by the autopilot and stay in hand.
func (e *Engine) summonPass(g *game.Game, player game.PlayerID) ([]game.Action, error) {
	field := g.Field(player)
	if len(field) >= maxSummonedField {
		return nil, nil
	}
	me, err := g.Player(player)
	if err != nil {
		return nil, err
	}

	var items []item
	for _, c := range g.Hand(player) {
		if c.IsMonster() {
			items = append(items, item{cost: c.Cost, id: c.ID})
		}
	}
	chosen := maximizeManaSpend(items, me.Mana, maxSummonedField-len(field))
	if len(chosen) == 0 {
		return nil, nil
	}

	occupied := make(map[int]bool, len(field))
	for _, c := range field {
		occupied[c.Location.Slot] = true
	}
	var free []int
	for slot := 0; slot < maxSummonedField; slot++ {
		if !occupied[slot] {
			free = append(free, slot)
		}
	}
	sort.SliceStable(free, func(i, j int) bool { return distance(free[i]) < distance(free[j]) })

	var log []game.Action
	for i, id := range chosen {
		if i >= len(free) {
			break
		}
		e.logger.Debug("ai summon",
			zap.String("game_id", g.ID),
			zap.Int("card_id", id),
			zap.Int("slot", free[i]),
		)
		actions, err := g.PlayMonster(player, id, free[i], nil)
		if err != nil {
			return log, err
		}
		log = append(log, actions...)
	}
	return log, nil
}

func distance(slot int) int {
	if slot < 3 {
		return 3 - slot
	}
	return slot - 3
}

// maximizeManaSpend solves the bounded knapsack over (items, mana, slots),
// maximizing total cost spent, and returns the chosen ids in input order.
func maximizeManaSpend(items []item, mana, slots int) []game.EntityID {
	n := len(items)
	if n == 0 || mana <= 0 || slots <= 0 {
		return nil
	}

	dp := make([][][]int, n+1)
	for i := range dp {
		dp[i] = make([][]int, mana+1)
		for m := range dp[i] {
			dp[i][m] = make([]int, slots+1)
		}
	}

	for i := 1; i <= n; i++ {
		cost := items[i-1].cost
		for m := 0; m <= mana; m++ {
			for p := 0; p <= slots; p++ {
				dp[i][m][p] = dp[i-1][m][p]
				if p > 0 && cost <= m {
					if with := dp[i-1][m-cost][p-1] + cost; with > dp[i][m][p] {
						dp[i][m][p] = with
					}
				}
			}
		}
	}

	var picked []game.EntityID
	m, p := mana, slots
	for i := n; i >= 1; i-- {
		cost := items[i-1].cost
		if p == 0 || cost > m {
			continue
		}
		without := dp[i-1][m][p]
		with := dp[i-1][m-cost][p-1] + cost
		if with > without {
			picked = append(picked, items[i-1].id)
			m -= cost
			p--
		}
	}

	slices.Reverse(picked)
	return picked
}
