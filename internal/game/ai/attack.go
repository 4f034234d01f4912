package ai

import (
	"github.com/cardclash/clash-server-go/internal/game"
	"github.com/cardclash/clash-server-go/internal/game/rules"
	"go.uber.org/zap"
)

type attackChoice struct {
	attacker game.EntityID
	target   game.EntityID
	score    float64
}

// attackPass executes the best scored attack until none is left or, in
// control mode, until the best one is a bad trade.
func (e *Engine) attackPass(g *game.Game, player game.PlayerID, mode Mode) ([]game.Action, error) {
	var log []game.Action
	for !g.IsOver() {
		best, ok, err := bestAttack(g, player, mode)
		if err != nil {
			return log, err
		}
		if !ok {
			break
		}
		e.logger.Debug("ai attack",
			zap.String("game_id", g.ID),
			zap.Int("attacker", best.attacker),
			zap.Int("target", best.target),
			zap.Float64("score", best.score),
		)
		actions, err := g.Attack(player, best.attacker, best.target)
		if err != nil {
			return log, err
		}
		log = append(log, actions...)
	}
	return log, nil
}

// availableAttackers returns the player's monsters that may attack now, in
// slot order.
func availableAttackers(g *game.Game, player game.PlayerID) []*game.CardInstance {
	var out []*game.CardInstance
	for _, c := range g.Field(player) {
		if !c.IsMonster() || !rules.IsAttackSlot(c.Location.Slot) {
			continue
		}
		if c.Monster.Asleep || c.Monster.AttackCount >= c.Monster.AttackBudget() {
			continue
		}
		out = append(out, c)
	}
	return out
}

func bestAttack(g *game.Game, player game.PlayerID, mode Mode) (attackChoice, bool, error) {
	enemyID, err := g.OpponentOf(player)
	if err != nil {
		return attackChoice{}, false, err
	}
	me, err := g.Player(player)
	if err != nil {
		return attackChoice{}, false, err
	}

	attackers := availableAttackers(g, player)
	if len(attackers) == 0 {
		return attackChoice{}, false, nil
	}

	enemyField := g.Field(enemyID)
	canGoFace := !g.HasDefender(enemyID)

	enemyAttack := 0
	for _, c := range enemyField {
		if c.IsMonster() {
			enemyAttack += c.Monster.Attack
		}
	}
	threat := float64(enemyAttack) / float64(max(me.HP, 1))

	var best attackChoice
	found := false
	consider := func(c attackChoice) {
		if !found || c.score > best.score {
			best = c
			found = true
		}
	}

	for _, attacker := range attackers {
		if canGoFace {
			consider(attackChoice{attacker: attacker.ID, target: enemyID, score: faceScore(mode, attacker.Monster, threat)})
		}
		for _, target := range enemyField {
			if !target.IsMonster() {
				continue
			}
			consider(attackChoice{attacker: attacker.ID, target: target.ID, score: tradeScore(mode, attacker.Monster, target.Monster)})
		}
	}

	if !found || (mode == Control && best.score < minTradeScore) {
		return attackChoice{}, false, nil
	}
	return best, true, nil
}

func faceScore(mode Mode, attacker *game.Monster, threat float64) float64 {
	switch mode {
	case Survival:
		return -1000
	case Aggressive:
		return float64(attacker.Attack) * 100
	default:
		return faceDamageValue * max(0, 1-threat) * float64(attacker.Attack)
	}
}

func tradeScore(mode Mode, attacker, target *game.Monster) float64 {
	dealt := min(attacker.Attack, target.HP)
	kills := dealt >= target.HP

	switch mode {
	case Survival:
		score := float64(dealt) * 10
		if kills {
			score += 100 + float64(target.Attack)*5
		}
		return score

	case Aggressive:
		var score float64
		if kills {
			score = 50
		} else {
			score = float64(dealt)
		}
		overkill := max(0, attacker.Attack-target.HP)
		return score - float64(overkill)*0.5

	default:
		score := float64(dealt) * hpWeight
		if kills {
			score += float64(target.Attack) * atkWeight
		}
		received := min(target.Attack, attacker.HP)
		score -= float64(received) * hpWeight
		if received >= attacker.HP {
			score -= float64(attacker.Attack) * atkWeight
		} else {
			score += survivalBonus
		}
		if missing := attacker.MaxHP - attacker.HP; missing > 0 {
			score += woundedBonus * float64(missing)
		}
		return score
	}
}
