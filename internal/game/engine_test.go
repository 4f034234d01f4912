package game

import (
	"testing"

	"github.com/cardclash/clash-server-go/internal/game/rules"
	"github.com/cardclash/clash-server-go/internal/game/targeting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttackExchangesDamage(t *testing.T) {
	g := newTestGame(t)
	attacker := awake(t, g, PlayerA, monsterTemplate(1, 1, 5, 10), 3)
	defender := awake(t, g, PlayerB, monsterTemplate(2, 1, 3, 8), 3)

	actions, err := g.Attack(PlayerA, attacker.ID, defender.ID)
	require.NoError(t, err)

	assert.Equal(t, 7, attacker.Monster.HP)
	assert.Equal(t, 3, defender.Monster.HP)
	assert.True(t, attacker.Location.IsField())
	assert.True(t, defender.Location.IsField())
	assert.Equal(t, []ActionType{ActionAttack, ActionReceiveDamage, ActionReceiveDamage}, actionTypes(actions))
	assert.Equal(t, 1, attacker.Monster.AttackCount)
}

func TestAttackHeroWithoutDefender(t *testing.T) {
	g := newTestGame(t)
	attacker := awake(t, g, PlayerA, monsterTemplate(1, 1, 5, 10), 3)
	// Slot 3 is an attack-only slot, so it does not protect the hero.
	awake(t, g, PlayerB, monsterTemplate(2, 1, 1, 1), 3)

	_, err := g.Attack(PlayerA, attacker.ID, PlayerB)
	require.NoError(t, err)

	assert.Equal(t, 25, g.players[PlayerB].HP)
	assert.Equal(t, 10, attacker.Monster.HP)
}

func TestLethalDamageQueuesWin(t *testing.T) {
	g := newTestGame(t)
	g.players[PlayerB].HP = 5

	g.Enqueue(DealDamage{Initiator: PlayerA, Target: targeting.EnemyPlayer{}, Amount: 10})
	assert.False(t, g.IsOver())

	actions, err := g.Drain()
	require.NoError(t, err)

	assert.Equal(t, 0, g.players[PlayerB].HP)
	winner, ok := g.Winner()
	require.True(t, ok)
	assert.Equal(t, PlayerA, winner)
	assert.Equal(t, []ActionType{ActionReceiveDamage, ActionWin}, actionTypes(actions))
}

func TestHealClampsToCap(t *testing.T) {
	g := newTestGame(t)
	m := awake(t, g, PlayerA, monsterTemplate(1, 1, 3, 5), 3)
	m.Monster.HP = 3

	g.Enqueue(Heal{Initiator: PlayerA, Target: targeting.ID(m.ID), Amount: 10})
	actions, err := g.Drain()
	require.NoError(t, err)

	assert.Equal(t, 5, m.Monster.HP)
	require.Len(t, actions, 1)
	assert.Equal(t, 2, actions[0].Amount)
}

func TestHealAtCapIsSilent(t *testing.T) {
	g := newTestGame(t)
	m := awake(t, g, PlayerA, monsterTemplate(1, 1, 3, 5), 3)

	g.Enqueue(
		Heal{Initiator: PlayerA, Target: targeting.ID(m.ID), Amount: 4},
		Heal{Initiator: PlayerA, Target: targeting.Player{}, Amount: 4},
	)
	actions, err := g.Drain()
	require.NoError(t, err)

	assert.Empty(t, actions)
	assert.Equal(t, 5, m.Monster.HP)
	assert.Equal(t, rules.MaxPlayerHP, g.players[PlayerA].HP)
}

func TestDrawBurnsOnFullHand(t *testing.T) {
	g := newTestGame(t)
	tpl := monsterTemplate(1, 1, 1, 1)
	for i := 0; i < 9; i++ {
		place(t, g, PlayerA, tpl, InHand())
	}
	for i := 0; i < 3; i++ {
		place(t, g, PlayerA, tpl, InDeck())
	}

	g.Enqueue(MakeDraw{Initiator: PlayerA, Player: targeting.Self(), Amount: 3})
	actions, err := g.Drain()
	require.NoError(t, err)

	assert.Len(t, g.Hand(PlayerA), 10)
	assert.Len(t, g.Graveyard(PlayerA), 2)
	assert.Empty(t, g.Deck(PlayerA))
	assert.Equal(t, []ActionType{ActionDraw, ActionEnemyDraw, ActionBurnCard, ActionBurnCard}, actionTypes(actions))
	assert.Equal(t, PlayerB, actions[1].Player, "the opponent learns a card was drawn")
}

func TestDrawFromEmptyDeckIsNoop(t *testing.T) {
	g := newTestGame(t)

	g.Enqueue(AutoDraw{Player: PlayerA, Amount: 2})
	actions, err := g.Drain()
	require.NoError(t, err)

	assert.Empty(t, actions)
	assert.Equal(t, rules.MaxPlayerHP, g.players[PlayerA].HP)
}

func TestDrawTakesLowestDeckID(t *testing.T) {
	g := newTestGame(t)
	first := place(t, g, PlayerA, monsterTemplate(1, 1, 1, 1), InDeck())
	place(t, g, PlayerA, monsterTemplate(2, 1, 1, 1), InDeck())

	actions, err := g.draw(PlayerA, 1)
	require.NoError(t, err)

	require.NotNil(t, actions[0].Card)
	assert.Equal(t, first.ID, actions[0].Card.ID)
	assert.Equal(t, ZoneHand, first.Location.Zone)
}

func TestDestroyTriggersOnDeathAtBackOfQueue(t *testing.T) {
	g := newTestGame(t)
	kamikaze := monsterTemplate(18, 1, 1, 1)
	kamikaze.OnDeath = []TemplateEffect{damage(targeting.All{}, 3)}
	bomb := awake(t, g, PlayerA, kamikaze, 3)
	enemy := awake(t, g, PlayerB, monsterTemplate(2, 1, 1, 3), 4)

	g.Enqueue(
		Destroy{Initiator: PlayerB, Target: targeting.ID(bomb.ID)},
		Boost{Initiator: PlayerB, Target: targeting.Allies{}, Attack: 0, HP: 1},
	)
	actions, err := g.Drain()
	require.NoError(t, err)

	assert.Equal(t, ZoneGraveyard, bomb.Location.Zone)
	// The boost was queued first, so the enemy survives the on-death blast.
	assert.Equal(t, 1, enemy.Monster.HP)
	assert.True(t, enemy.Location.IsField())
	assert.Equal(t, 27, g.players[PlayerA].HP)
	assert.Equal(t, 27, g.players[PlayerB].HP)
	assert.Equal(t, []ActionType{
		ActionTriggerOnDeath, ActionDestroy,
		ActionBoost,
		ActionReceiveDamage, ActionReceiveDamage, ActionReceiveDamage,
	}, actionTypes(actions))
}

func TestDestroyCascade(t *testing.T) {
	g := newTestGame(t)
	chain := monsterTemplate(18, 1, 1, 1)
	chain.OnDeath = []TemplateEffect{damage(targeting.AllMonsters{}, 1)}
	first := awake(t, g, PlayerA, chain, 3)
	second := awake(t, g, PlayerB, chain, 3)

	g.Enqueue(Destroy{Initiator: PlayerB, Target: targeting.ID(first.ID)})
	_, err := g.Drain()
	require.NoError(t, err)

	assert.Equal(t, ZoneGraveyard, first.Location.Zone)
	assert.Equal(t, ZoneGraveyard, second.Location.Zone)
	assert.Empty(t, g.Pending())
}

func TestDamageToMonsterDestroys(t *testing.T) {
	g := newTestGame(t)
	m := awake(t, g, PlayerB, monsterTemplate(1, 1, 1, 2), 3)

	g.Enqueue(DealDamage{Initiator: PlayerA, Target: targeting.Enemies{}, Amount: 5})
	actions, err := g.Drain()
	require.NoError(t, err)

	assert.Equal(t, 0, m.Monster.HP)
	assert.Equal(t, ZoneGraveyard, m.Location.Zone)
	assert.Equal(t, []ActionType{ActionReceiveDamage, ActionDestroy}, actionTypes(actions))
}

func TestOnAttackResolvesBeforeDamage(t *testing.T) {
	g := newTestGame(t)
	sorcerer := monsterTemplate(20, 3, 2, 3)
	sorcerer.OnAttack = []TemplateEffect{damage(targeting.EnemyPlayer{}, 1)}
	attacker := awake(t, g, PlayerA, sorcerer, 3)
	defender := awake(t, g, PlayerB, monsterTemplate(2, 1, 1, 5), 4)

	actions, err := g.Attack(PlayerA, attacker.ID, defender.ID)
	require.NoError(t, err)

	assert.Equal(t, []ActionType{
		ActionTriggerOnAttack, ActionAttack,
		ActionReceiveDamage, ActionReceiveDamage, ActionReceiveDamage,
	}, actionTypes(actions))
	assert.Equal(t, PlayerB, actions[2].Target, "on-attack damage lands first")
	assert.Equal(t, 29, g.players[PlayerB].HP)
	assert.Equal(t, 3, defender.Monster.HP)
	assert.Equal(t, 2, attacker.Monster.HP)
}

func TestBoostRaisesMaxHP(t *testing.T) {
	g := newTestGame(t)
	m := awake(t, g, PlayerA, monsterTemplate(1, 1, 1, 1), 3)

	g.Enqueue(Boost{Initiator: m.ID, Target: targeting.ItSelf{}, Attack: 2, HP: 3})
	_, err := g.Drain()
	require.NoError(t, err)

	assert.Equal(t, 3, m.Monster.Attack)
	assert.Equal(t, 4, m.Monster.HP)
	assert.Equal(t, 4, m.Monster.MaxHP)
}

func TestFieldEffectOnSpellIsEngineError(t *testing.T) {
	g := newTestGame(t)
	spell := place(t, g, PlayerA, spellTemplate(3, 1, heal(targeting.Allies{}, 1)), InHand())
	spell.Location = OnField(0)

	g.Enqueue(Boost{Initiator: PlayerA, Target: targeting.ID(spell.ID), Attack: 1, HP: 1})
	_, err := g.Drain()
	require.Error(t, err)
	assert.True(t, rules.IsInvariant(err))
	assert.Empty(t, g.Pending(), "the queue is discarded after a failure")
}

func TestSummonUsesSpawnOrder(t *testing.T) {
	g := newTestGame(t)
	awake(t, g, PlayerA, monsterTemplate(1, 1, 1, 1), 3)
	squire := monsterTemplate(1003, 1, 1, 1)

	g.Enqueue(Summon{Initiator: PlayerA, Side: targeting.Self(), Template: squire})
	actions, err := g.Drain()
	require.NoError(t, err)

	require.Len(t, actions, 1)
	card, err := g.Entity(actions[0].Card.ID)
	require.NoError(t, err)
	assert.Equal(t, OnField(4), card.Location)
	assert.Equal(t, InDeck(), actions[0].Source)
	assert.GreaterOrEqual(t, card.ID, summonIDOffset)
	assert.True(t, card.Monster.Asleep)
}

func TestSummonSkipsFullField(t *testing.T) {
	g := newTestGame(t)
	tpl := monsterTemplate(1, 1, 1, 1)
	for slot := 0; slot < rules.FieldSlots; slot++ {
		awake(t, g, PlayerA, tpl, slot)
	}

	g.Enqueue(Summon{Initiator: PlayerA, Side: targeting.Both(), Template: tpl})
	actions, err := g.Drain()
	require.NoError(t, err)

	require.Len(t, actions, 1)
	assert.Equal(t, PlayerB, actions[0].Player)
}

func TestRefreshManaClampsToBase(t *testing.T) {
	g := newTestGame(t)
	p := g.players[PlayerA]
	p.BaseMana = 4
	p.Mana = 3

	g.Enqueue(RefreshMana{Initiator: PlayerA, Player: targeting.Self(), Amount: 5})
	actions, err := g.Drain()
	require.NoError(t, err)

	assert.Equal(t, 4, p.Mana)
	require.Len(t, actions, 1)
	assert.Equal(t, 1, actions[0].Amount)
}

func TestDrainIsNotReentrant(t *testing.T) {
	g := newTestGame(t)
	g.draining = true

	_, err := g.Drain()
	require.Error(t, err)
	assert.True(t, rules.IsInvariant(err))
}

func TestStaleTargetIsSkipped(t *testing.T) {
	g := newTestGame(t)
	m := awake(t, g, PlayerB, monsterTemplate(1, 1, 1, 1), 3)
	m.Location = InGraveyard()

	g.Enqueue(DealDamage{Initiator: PlayerA, Target: targeting.ID(m.ID), Amount: 3})
	actions, err := g.Drain()
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestDoubleDestroyFiresOnDeathOnce(t *testing.T) {
	g := newTestGame(t)
	martyr := monsterTemplate(18, 1, 1, 1)
	martyr.OnDeath = []TemplateEffect{heal(targeting.Player{}, 2)}
	m := awake(t, g, PlayerA, martyr, 3)
	g.players[PlayerA].HP = 20

	g.Enqueue(
		Destroy{Initiator: PlayerB, Target: targeting.ID(m.ID)},
		DealDamage{Initiator: PlayerB, Target: targeting.ID(m.ID), Amount: 5},
		Destroy{Initiator: PlayerB, Target: targeting.ID(m.ID)},
	)
	actions, err := g.Drain()
	require.NoError(t, err)

	// Once in the graveyard the card no longer resolves, so the later
	// effects find no recipient.
	assert.Equal(t, ZoneGraveyard, m.Location.Zone)
	assert.Equal(t, 22, g.players[PlayerA].HP)
	assert.Equal(t, []ActionType{ActionTriggerOnDeath, ActionDestroy, ActionHeal}, actionTypes(actions))
}
