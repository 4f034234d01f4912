package game

import (
	"encoding/json"
	"fmt"
)

// ActionType names an observable event.
type ActionType string

const (
	ActionBoost           ActionType = "Boost"
	ActionIncreaseMaxMana ActionType = "IncreaseMaxMana"
	ActionRefreshMana     ActionType = "RefreshMana"
	ActionBurnCard        ActionType = "BurnCard"
	ActionDraw            ActionType = "Draw"
	ActionEnemyDraw       ActionType = "EnemyDraw"
	ActionHeal            ActionType = "Heal"
	ActionDestroy         ActionType = "Destroy"
	ActionReceiveDamage   ActionType = "ReceiveDamage"
	ActionSummon          ActionType = "Summon"
	ActionAttack          ActionType = "Attack"
	ActionCastSpell       ActionType = "CastSpell"
	ActionMove            ActionType = "Move"
	ActionTriggerOnDeath  ActionType = "TriggerOnDeath"
	ActionTriggerOnPlay   ActionType = "TriggerOnPlay"
	ActionTriggerOnAttack ActionType = "TriggerOnAttack"
	ActionWin             ActionType = "Win"
	ActionStartTurn       ActionType = "StartTurn"
)

// Action is an observable event produced by a command. Only the fields that
// belong to Type are meaningful.
type Action struct {
	Type        ActionType
	Player      PlayerID
	Initiator   EntityID
	Target      EntityID
	Amount      int
	Attack      int
	HP          int
	Card        *CardView
	Source      Location
	Destination Location
}

func (a Action) String() string {
	switch a.Type {
	case ActionDraw, ActionSummon:
		if a.Card != nil {
			return fmt.Sprintf("%s(player=%d, card=%d)", a.Type, a.Player, a.Card.ID)
		}
	case ActionReceiveDamage, ActionHeal:
		return fmt.Sprintf("%s(target=%d, amount=%d)", a.Type, a.Target, a.Amount)
	case ActionAttack:
		return fmt.Sprintf("%s(%d -> %d)", a.Type, a.Initiator, a.Target)
	case ActionWin, ActionStartTurn, ActionEnemyDraw:
		return fmt.Sprintf("%s(player=%d)", a.Type, a.Player)
	}
	return fmt.Sprintf("%s(target=%d)", a.Type, a.Target)
}

type targetAmount struct {
	Target EntityID `json:"target"`
	Amount int      `json:"amount"`
}

type playerAmount struct {
	Player PlayerID `json:"player"`
	Amount int      `json:"amount"`
}

// MarshalJSON encodes the action as {"type": ..., "value": ...}, with a value
// shape per action type.
func (a Action) MarshalJSON() ([]byte, error) {
	var value any
	switch a.Type {
	case ActionBoost:
		value = struct {
			Target EntityID `json:"target"`
			Attack int      `json:"attack"`
			HP     int      `json:"hp"`
		}{a.Target, a.Attack, a.HP}
	case ActionIncreaseMaxMana, ActionRefreshMana:
		value = playerAmount{a.Player, a.Amount}
	case ActionBurnCard:
		value = struct {
			Player PlayerID `json:"player"`
			Card   EntityID `json:"card"`
		}{a.Player, a.Target}
	case ActionDraw:
		value = struct {
			Player PlayerID  `json:"player"`
			Card   *CardView `json:"card"`
		}{a.Player, a.Card}
	case ActionEnemyDraw:
		value = struct {
			Player PlayerID `json:"player"`
		}{a.Player}
	case ActionHeal, ActionReceiveDamage:
		value = targetAmount{a.Target, a.Amount}
	case ActionDestroy:
		value = struct {
			Target EntityID `json:"target"`
		}{a.Target}
	case ActionSummon:
		value = struct {
			Source      Location  `json:"source"`
			Destination Location  `json:"destination"`
			Target      *CardView `json:"target"`
			Owner       PlayerID  `json:"owner"`
		}{a.Source, a.Destination, a.Card, a.Player}
	case ActionAttack:
		value = struct {
			Initiator EntityID `json:"initiator"`
			Target    EntityID `json:"target"`
		}{a.Initiator, a.Target}
	case ActionCastSpell:
		value = struct {
			Player PlayerID  `json:"player"`
			Card   *CardView `json:"card"`
		}{a.Player, a.Card}
	case ActionMove:
		value = struct {
			Target      EntityID `json:"target"`
			Source      Location `json:"source"`
			Destination Location `json:"destination"`
		}{a.Target, a.Source, a.Destination}
	case ActionTriggerOnDeath, ActionTriggerOnPlay, ActionTriggerOnAttack:
		value = a.Target
	case ActionWin, ActionStartTurn:
		value = a.Player
	default:
		return nil, fmt.Errorf("unknown action type %q", a.Type)
	}
	return json.Marshal(struct {
		Type  ActionType `json:"type"`
		Value any        `json:"value"`
	}{a.Type, value})
}

// Recipient returns the only player allowed to observe the action, or false
// when the action is public.
func (a Action) Recipient() (PlayerID, bool) {
	switch a.Type {
	case ActionDraw, ActionEnemyDraw:
		return a.Player, true
	}
	return 0, false
}

// Internal reports whether the action is engine bookkeeping that observers
// do not receive directly.
func (a Action) Internal() bool {
	return a.Type == ActionStartTurn
}

func drawAction(player PlayerID, card *CardInstance) Action {
	return Action{Type: ActionDraw, Player: player, Card: NewCardView(card)}
}

func enemyDrawAction(player PlayerID) Action {
	return Action{Type: ActionEnemyDraw, Player: player}
}

func burnAction(player PlayerID, card EntityID) Action {
	return Action{Type: ActionBurnCard, Player: player, Target: card}
}

func damageAction(target EntityID, amount int) Action {
	return Action{Type: ActionReceiveDamage, Target: target, Amount: amount}
}

func healAction(target EntityID, amount int) Action {
	return Action{Type: ActionHeal, Target: target, Amount: amount}
}

func triggerAction(t ActionType, card EntityID) Action {
	return Action{Type: t, Target: card}
}
