// Package ai plays a seat's turn with a greedy attack heuristic and a
// knapsack-based summon pass.
package ai

import (
	"github.com/cardclash/clash-server-go/internal/game"
	"go.uber.org/zap"
)

// Mode is the stance the AI takes for a turn.
type Mode int

const (
	// Control trades efficiently and keeps the board.
	Control Mode = iota
	// Survival kills threats and never goes face.
	Survival
	// Aggressive pushes damage to the enemy hero.
	Aggressive
)

func (m Mode) String() string {
	switch m {
	case Control:
		return "control"
	case Survival:
		return "survival"
	case Aggressive:
		return "aggressive"
	default:
		return "unknown"
	}
}

const (
	hpThreshold = 15

	atkWeight        = 1.0
	hpWeight         = 1.0
	survivalBonus    = 5.0
	woundedBonus     = 2.0
	faceDamageValue  = 0.5
	minTradeScore    = -10.0
	maxSummonedField = 7
)

// Engine is the AI opponent. It satisfies game.Autopilot.
type Engine struct {
	logger *zap.Logger
}

// New creates an AI engine.
func New(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

var _ game.Autopilot = (*Engine)(nil)

// PlayTurn runs a full turn for player: attack, summon, attack again so
// fresh Charge units can strike, then end the turn.
func (e *Engine) PlayTurn(g *game.Game, player game.PlayerID) ([]game.Action, error) {
	mode, err := ChooseMode(g, player)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("ai turn",
		zap.String("game_id", g.ID),
		zap.Int("player", player),
		zap.Stringer("mode", mode),
	)

	var log []game.Action
	steps := []func() ([]game.Action, error){
		func() ([]game.Action, error) { return e.attackPass(g, player, mode) },
		func() ([]game.Action, error) { return e.summonPass(g, player) },
		func() ([]game.Action, error) { return e.attackPass(g, player, mode) },
	}
	for _, step := range steps {
		actions, err := step()
		log = append(log, actions...)
		if err != nil {
			return log, err
		}
		if g.IsOver() {
			return log, nil
		}
	}

	actions, err := g.EndTurn(player)
	if err != nil {
		return log, err
	}
	return append(log, actions...), nil
}

// ChooseMode picks the stance from both players' hp.
func ChooseMode(g *game.Game, player game.PlayerID) (Mode, error) {
	me, err := g.Player(player)
	if err != nil {
		return Control, err
	}
	enemyID, err := g.OpponentOf(player)
	if err != nil {
		return Control, err
	}
	enemy, err := g.Player(enemyID)
	if err != nil {
		return Control, err
	}

	switch {
	case enemy.HP <= hpThreshold:
		return Aggressive, nil
	case me.HP <= hpThreshold:
		return Survival, nil
	default:
		return Control, nil
	}
}
