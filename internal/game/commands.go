package game

import (
	"github.com/cardclash/clash-server-go/internal/game/rules"
	"github.com/cardclash/clash-server-go/internal/game/targeting"
	"go.uber.org/zap"
)

// checkTurn rejects commands after the game ended or out of turn.
func (g *Game) checkTurn(player PlayerID) error {
	if g.IsOver() {
		return rules.Rule("The game is over")
	}
	if _, err := g.Player(player); err != nil {
		return err
	}
	if player != g.CurrentPlayer {
		return rules.Rule("It's not your turn")
	}
	return nil
}

// ownCard returns a card owned by player.
func (g *Game) ownCard(player PlayerID, id EntityID) (*CardInstance, error) {
	card, err := g.Entity(id)
	if err != nil {
		return nil, err
	}
	if card.Owner != player {
		return nil, rules.Rule("You can only play your own cards")
	}
	return card, nil
}

// validateSelection checks chosen targets against the card's constraint and
// returns the selection to substitute, or nil when there is none.
func (g *Game) validateSelection(card *CardInstance, selected []EntityID) ([]EntityID, error) {
	if card.PlayTarget == nil || selected == nil {
		return nil, nil
	}
	if err := targeting.ValidateSelection(g, card.Owner, *card.PlayTarget, selected); err != nil {
		return nil, err
	}
	return selected, nil
}

// PlayMonster summons a monster from player's hand onto slot. selected holds
// the chosen targets for cards that declare a play target; nil means none
// were chosen.
func (g *Game) PlayMonster(player PlayerID, cardID EntityID, slot int, selected []EntityID) ([]Action, error) {
	if err := g.checkTurn(player); err != nil {
		return nil, err
	}
	card, err := g.ownCard(player, cardID)
	if err != nil {
		return nil, err
	}
	if !rules.ValidSlot(slot) {
		return nil, rules.Rule("This position does not exist")
	}
	if len(g.Field(player)) >= rules.FieldSlots {
		return nil, rules.Rule("Your board is already full")
	}
	if _, taken := g.FieldSlot(player, slot); taken {
		return nil, rules.Rule("This place on the field is not empty")
	}
	if card.Location.Zone != ZoneHand {
		return nil, rules.Rule("This card must be in your hand to play it")
	}
	me := g.players[player]
	if me.Mana < card.Cost {
		return nil, rules.Rule("You don't have enough mana to play this card")
	}
	if !card.IsMonster() {
		return nil, rules.Rule("You are trying to play a spell as a monster")
	}
	selection, err := g.validateSelection(card, selected)
	if err != nil {
		return nil, err
	}

	me.Mana -= card.Cost
	g.queue.Push(SummonFromHand{Card: card.ID, Slot: slot, Selection: selection})
	g.logger.Debug("monster played",
		zap.String("game_id", g.ID),
		zap.Int("player", player),
		zap.Int("card_id", card.ID),
		zap.Int("slot", slot),
	)
	return g.Drain()
}

// PlaySpell casts a spell from player's hand. The spell goes to the
// graveyard and its effects are queued.
func (g *Game) PlaySpell(player PlayerID, cardID EntityID, selected []EntityID) ([]Action, error) {
	if err := g.checkTurn(player); err != nil {
		return nil, err
	}
	card, err := g.ownCard(player, cardID)
	if err != nil {
		return nil, err
	}
	if card.Location.Zone != ZoneHand {
		return nil, rules.Rule("This card must be in your hand to play it")
	}
	me := g.players[player]
	if me.Mana < card.Cost {
		return nil, rules.Rule("You don't have enough mana to play this card")
	}
	if !card.IsSpell() || card.Spell == nil {
		return nil, rules.Rule("You can not cast a monster, only a spell")
	}
	selection, err := g.validateSelection(card, selected)
	if err != nil {
		return nil, err
	}

	effects := card.Spell.Effects
	if selection != nil {
		effects = substituteAll(effects, selection)
	}
	me.Mana -= card.Cost
	card.Location = InGraveyard()
	cast := Action{Type: ActionCastSpell, Player: player, Card: NewCardView(card)}
	g.queue.Extend(effects...)

	actions, err := g.Drain()
	if err != nil {
		return nil, err
	}
	return append([]Action{cast}, actions...), nil
}

// Attack makes one of player's field monsters attack a monster or the enemy
// player.
func (g *Game) Attack(player PlayerID, attackerID, targetID EntityID) ([]Action, error) {
	if err := g.checkTurn(player); err != nil {
		return nil, err
	}
	attacker, ok := g.entities[attackerID]
	if !ok {
		return nil, rules.Rulef("Attacker with id %d not found", attackerID)
	}
	if attacker.Owner != player {
		return nil, rules.Rule("You can only attack with your monsters")
	}

	if g.HasPlayer(targetID) {
		if targetID == attacker.Owner {
			return nil, rules.Rule("You can't attack your own player")
		}
		if g.HasDefender(targetID) {
			return nil, rules.Rule("You can't attack the enemy player if he has a monster in defense")
		}
	} else {
		target, ok := g.entities[targetID]
		if !ok {
			return nil, rules.Rulef("Target with id %d not found", targetID)
		}
		if target.Owner == attacker.Owner {
			return nil, rules.Rule("You can't attack your own monster")
		}
		if !target.Location.IsField() {
			return nil, rules.Rule("The target must be on the field")
		}
	}

	if !attacker.IsMonster() {
		return nil, rules.Rule("A spell can not attack")
	}
	if !attacker.Location.IsField() {
		return nil, rules.Rule("This monster must be on the field to attack")
	}
	if !rules.IsAttackSlot(attacker.Location.Slot) {
		return nil, rules.Rule("This monster must be on an attack slot to attack")
	}
	if attacker.Monster.Asleep {
		return nil, rules.Rule("This monster can't attack on his first turn")
	}
	if attacker.Monster.AttackCount >= attacker.Monster.AttackBudget() {
		return nil, rules.Rule("This monster has already attacked this turn")
	}

	attacker.Monster.AttackCount++
	g.queue.Push(Attack{Initiator: attacker.ID, Target: targeting.ID(targetID)})
	return g.Drain()
}

// MoveCard moves one of player's field monsters to an adjacent empty slot.
func (g *Game) MoveCard(player PlayerID, cardID EntityID, slot int) ([]Action, error) {
	if err := g.checkTurn(player); err != nil {
		return nil, err
	}
	card, err := g.Entity(cardID)
	if err != nil {
		return nil, err
	}
	if card.Owner != player {
		return nil, rules.Rule("You can only move your monsters")
	}
	if !card.Location.IsField() {
		return nil, rules.Rule("Card must be on the field")
	}
	if !rules.IsAdjacent(card.Location.Slot, slot) {
		return nil, rules.Rule("Target position is not valid")
	}
	if _, taken := g.FieldSlot(player, slot); taken {
		return nil, rules.Rule("You can't move to a position not empty")
	}
	me := g.players[player]
	if me.MoveCount <= 0 {
		return nil, rules.Rule("You don't have any move left")
	}

	me.MoveCount--
	from := card.Location
	card.Location = OnField(slot)
	moved := Action{Type: ActionMove, Player: player, Target: card.ID, Source: from, Destination: card.Location}

	actions, err := g.Drain()
	if err != nil {
		return nil, err
	}
	return append([]Action{moved}, actions...), nil
}

// EndTurn passes the turn to the opponent and runs its start-of-turn
// sequence: a draw, base mana growth up to the cap, mana refresh, moves
// restored and monsters readied. In games against the AI the autopilot then
// plays player B's turn.
func (g *Game) EndTurn(player PlayerID) ([]Action, error) {
	if err := g.checkTurn(player); err != nil {
		return nil, err
	}
	next, err := g.OpponentOf(player)
	if err != nil {
		return nil, err
	}
	np := g.players[next]

	g.Turn++
	g.CurrentPlayer = next
	actions := []Action{{Type: ActionStartTurn, Player: next}}

	refresh := np.BaseMana + 1
	g.queue.Push(AutoDraw{Player: next, Amount: 1})
	if np.BaseMana < rules.MaxBaseMana {
		g.queue.Push(IncreaseMaxMana{Initiator: next, Player: targeting.Self(), Amount: 1})
	}
	g.queue.Push(RefreshMana{Initiator: next, Player: targeting.Self(), Amount: refresh})

	np.MoveCount = np.MaxMove
	for _, c := range g.Field(next) {
		if !c.IsMonster() {
			return nil, rules.Invariantf("spell %d found on the field", c.ID)
		}
		c.Monster.Asleep = false
		c.Monster.AttackCount = 0
	}

	drained, err := g.Drain()
	if err != nil {
		return nil, err
	}
	actions = append(actions, drained...)
	g.logger.Debug("turn started",
		zap.String("game_id", g.ID),
		zap.Int("turn", g.Turn),
		zap.Int("player", next),
	)

	if next == PlayerB && g.VsAI && g.autopilot != nil && !g.IsOver() {
		played, err := g.autopilot.PlayTurn(g, next)
		if err != nil {
			return nil, err
		}
		actions = append(actions, played...)
	}
	return actions, nil
}
