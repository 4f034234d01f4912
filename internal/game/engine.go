package game

import (
	"github.com/cardclash/clash-server-go/internal/game/rules"
	"github.com/cardclash/clash-server-go/internal/game/targeting"
	"go.uber.org/zap"
)

// Drain executes queued effects in FIFO order until the queue is empty and
// returns the actions they produced. Effects queued while draining run after
// everything already queued. Drain is not reentrant.
//
// On failure the remaining queue is discarded; callers restore from a clone
// taken before the command.
func (g *Game) Drain() ([]Action, error) {
	if g.draining {
		return nil, rules.Invariantf("effect queue is already being drained")
	}
	g.draining = true
	defer func() { g.draining = false }()

	var log []Action
	for {
		eff, ok := g.queue.Pop()
		if !ok {
			return log, nil
		}
		g.logger.Debug("executing effect",
			zap.String("game_id", g.ID),
			zap.String("effect", string(eff.Kind())),
			zap.Int("pending", g.queue.Len()),
		)
		actions, err := g.execute(eff)
		if err != nil {
			g.logger.Error("effect failed",
				zap.String("game_id", g.ID),
				zap.String("effect", string(eff.Kind())),
				zap.Error(err),
			)
			g.queue = rules.NewQueue[Effect]()
			return nil, err
		}
		log = append(log, actions...)
	}
}

func (g *Game) execute(eff Effect) ([]Action, error) {
	switch e := eff.(type) {
	case IncreaseMaxMana:
		return g.increaseMaxMana(e)
	case RefreshMana:
		return g.refreshMana(e)
	case MakeDraw:
		return g.makeDraw(e)
	case AutoDraw:
		return g.draw(e.Player, e.Amount)
	case Heal:
		return g.heal(e)
	case Destroy:
		return g.destroy(e)
	case DealDamage:
		return g.dealDamage(e)
	case SummonFromHand:
		return g.summonFromHand(e)
	case Summon:
		return g.summon(e)
	case Attack:
		return g.attack(e)
	case Boost:
		return g.boost(e)
	case Win:
		return g.win(e)
	default:
		return nil, rules.Invariantf("unknown effect %T", eff)
	}
}

func (g *Game) monster(id EntityID, verb string) (*CardInstance, error) {
	c, err := g.Entity(id)
	if err != nil {
		return nil, err
	}
	if !c.IsMonster() {
		return nil, rules.Invariantf("can not %s spell %d", verb, id)
	}
	return c, nil
}

func (g *Game) increaseMaxMana(e IncreaseMaxMana) ([]Action, error) {
	players, err := targeting.ResolvePlayerTarget(g, e.Initiator, e.Player)
	if err != nil {
		return nil, err
	}
	var actions []Action
	for _, id := range players {
		p := g.players[id]
		p.BaseMana += e.Amount
		actions = append(actions, Action{Type: ActionIncreaseMaxMana, Player: id, Amount: e.Amount})
	}
	return actions, nil
}

func (g *Game) refreshMana(e RefreshMana) ([]Action, error) {
	players, err := targeting.ResolvePlayerTarget(g, e.Initiator, e.Player)
	if err != nil {
		return nil, err
	}
	var actions []Action
	for _, id := range players {
		p := g.players[id]
		gained := e.Amount
		if p.Mana+e.Amount >= p.BaseMana {
			gained = p.BaseMana - p.Mana
			p.Mana = p.BaseMana
		} else {
			p.Mana += e.Amount
		}
		actions = append(actions, Action{Type: ActionRefreshMana, Player: id, Amount: gained})
	}
	return actions, nil
}

func (g *Game) makeDraw(e MakeDraw) ([]Action, error) {
	players, err := targeting.ResolvePlayerTarget(g, e.Initiator, e.Player)
	if err != nil {
		return nil, err
	}
	var actions []Action
	for _, id := range players {
		drawn, err := g.draw(id, e.Amount)
		if err != nil {
			return nil, err
		}
		actions = append(actions, drawn...)
	}
	return actions, nil
}

// draw moves the lowest-id deck cards to the hand. A full hand burns the
// card instead; an empty deck does nothing.
func (g *Game) draw(player PlayerID, amount int) ([]Action, error) {
	if !g.HasPlayer(player) {
		return nil, rules.Invariantf("draw for unknown player %d", player)
	}
	opponent, err := g.OpponentOf(player)
	if err != nil {
		return nil, err
	}
	var actions []Action
	for i := 0; i < amount; i++ {
		deck := g.Deck(player)
		if len(deck) == 0 {
			g.logger.Debug("draw from empty deck",
				zap.String("game_id", g.ID),
				zap.Int("player", player),
			)
			continue
		}
		card := deck[0]
		if len(g.Hand(player)) >= rules.MaxHandSize {
			card.Location = InGraveyard()
			actions = append(actions, burnAction(player, card.ID))
			continue
		}
		card.Location = InHand()
		actions = append(actions, drawAction(player, card), enemyDrawAction(opponent))
	}
	return actions, nil
}

func (g *Game) heal(e Heal) ([]Action, error) {
	players, err := targeting.ResolvePlayers(g, e.Initiator, e.Target)
	if err != nil {
		return nil, err
	}
	var actions []Action
	for _, id := range players {
		p := g.players[id]
		healed := min(e.Amount, rules.MaxPlayerHP-p.HP)
		if healed > 0 {
			p.HP += healed
			actions = append(actions, healAction(id, healed))
		}
	}

	field, err := targeting.ResolveField(g, e.Initiator, e.Target)
	if err != nil {
		return nil, err
	}
	for _, id := range field {
		c, err := g.monster(id, "heal")
		if err != nil {
			return nil, err
		}
		healed := min(e.Amount, c.Monster.MaxHP-c.Monster.HP)
		if healed > 0 {
			c.Monster.HP += healed
			actions = append(actions, healAction(id, healed))
		}
	}
	return actions, nil
}

func (g *Game) destroy(e Destroy) ([]Action, error) {
	field, err := targeting.ResolveField(g, e.Initiator, e.Target)
	if err != nil {
		return nil, err
	}
	var actions []Action
	for _, id := range field {
		c, err := g.monster(id, "destroy")
		if err != nil {
			return nil, err
		}
		c.Location = InGraveyard()
		if len(c.Monster.OnDeath) > 0 {
			actions = append(actions, triggerAction(ActionTriggerOnDeath, id))
			g.queue.Extend(c.Monster.OnDeath...)
		}
		actions = append(actions, Action{Type: ActionDestroy, Target: id})
	}
	return actions, nil
}

func (g *Game) dealDamage(e DealDamage) ([]Action, error) {
	players, err := targeting.ResolvePlayers(g, e.Initiator, e.Target)
	if err != nil {
		return nil, err
	}
	var actions []Action
	for _, id := range players {
		p := g.players[id]
		p.HP = max(0, p.HP-e.Amount)
		if p.HP == 0 {
			opponent, err := g.OpponentOf(id)
			if err != nil {
				return nil, err
			}
			g.queue.Push(Win{Player: opponent})
		}
		actions = append(actions, damageAction(id, e.Amount))
	}

	field, err := targeting.ResolveField(g, e.Initiator, e.Target)
	if err != nil {
		return nil, err
	}
	for _, id := range field {
		c, err := g.monster(id, "damage")
		if err != nil {
			return nil, err
		}
		c.Monster.HP = max(0, c.Monster.HP-e.Amount)
		if c.Monster.HP == 0 {
			g.queue.Push(Destroy{Initiator: e.Initiator, Target: targeting.ID(id)})
		}
		actions = append(actions, damageAction(id, e.Amount))
	}
	return actions, nil
}

func (g *Game) summonFromHand(e SummonFromHand) ([]Action, error) {
	c, err := g.monster(e.Card, "summon")
	if err != nil {
		return nil, err
	}
	source := c.Location
	c.Location = OnField(e.Slot)
	if c.Monster.HasKeyword(KeywordCharge) {
		c.Monster.Asleep = false
	}
	actions := []Action{{
		Type:        ActionSummon,
		Player:      c.Owner,
		Card:        NewCardView(c),
		Source:      source,
		Destination: c.Location,
	}}

	onPlay := c.Monster.OnPlay
	if e.Selection != nil {
		onPlay = substituteAll(onPlay, e.Selection)
	}
	if len(onPlay) > 0 {
		actions = append(actions, triggerAction(ActionTriggerOnPlay, c.ID))
		g.queue.Extend(onPlay...)
	}
	return actions, nil
}

// summon creates a fresh monster on each designated side that has room, on
// the first free slot in spawn order.
func (g *Game) summon(e Summon) ([]Action, error) {
	if e.Template == nil {
		return nil, rules.Invariantf("summon without a template")
	}
	sides, err := targeting.ResolvePlayerTarget(g, e.Initiator, e.Side)
	if err != nil {
		return nil, err
	}
	var actions []Action
	for _, side := range sides {
		if len(g.Field(side)) >= rules.FieldSlots {
			continue
		}
		slot := -1
		for _, s := range rules.SpawnOrder() {
			if _, taken := g.FieldSlot(side, s); !taken {
				slot = s
				break
			}
		}
		if slot < 0 {
			continue
		}
		id := summonIDOffset + len(g.entities)
		card, err := Instantiate(id, side, e.Template)
		if err != nil {
			return nil, err
		}
		card.Location = OnField(slot)
		g.entities[id] = card
		actions = append(actions, Action{
			Type:        ActionSummon,
			Player:      side,
			Card:        NewCardView(card),
			Source:      InDeck(),
			Destination: card.Location,
		})
	}
	return actions, nil
}

func (g *Game) attack(e Attack) ([]Action, error) {
	targets, err := targeting.Resolve(g, e.Initiator, e.Target)
	if err != nil {
		return nil, err
	}
	var actions []Action
	for _, target := range targets {
		attacker, err := g.monster(e.Initiator, "attack with")
		if err != nil {
			return nil, err
		}
		if len(attacker.Monster.OnAttack) > 0 {
			actions = append(actions, triggerAction(ActionTriggerOnAttack, attacker.ID))
			g.queue.Extend(attacker.Monster.OnAttack...)
		}
		g.queue.Push(DealDamage{Initiator: attacker.ID, Target: targeting.ID(target), Amount: attacker.Monster.Attack})
		if !g.HasPlayer(target) {
			defender, err := g.monster(target, "attack")
			if err != nil {
				return nil, err
			}
			g.queue.Push(DealDamage{Initiator: defender.ID, Target: targeting.ID(attacker.ID), Amount: defender.Monster.Attack})
		}
		actions = append(actions, Action{Type: ActionAttack, Initiator: attacker.ID, Target: target})
	}
	return actions, nil
}

func (g *Game) boost(e Boost) ([]Action, error) {
	field, err := targeting.ResolveField(g, e.Initiator, e.Target)
	if err != nil {
		return nil, err
	}
	var actions []Action
	for _, id := range field {
		c, err := g.monster(id, "boost")
		if err != nil {
			return nil, err
		}
		c.Monster.Attack += e.Attack
		c.Monster.HP += e.HP
		c.Monster.MaxHP += e.HP
		actions = append(actions, Action{Type: ActionBoost, Target: id, Attack: e.Attack, HP: e.HP})
	}
	return actions, nil
}

func (g *Game) win(e Win) ([]Action, error) {
	if !g.HasPlayer(e.Player) {
		return nil, rules.Invariantf("win for unknown player %d", e.Player)
	}
	w := e.Player
	g.winner = &w
	g.logger.Info("game won",
		zap.String("game_id", g.ID),
		zap.Int("winner", w),
		zap.Int("turn", g.Turn),
	)
	return []Action{{Type: ActionWin, Player: w}}, nil
}
