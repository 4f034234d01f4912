package game

import (
	"fmt"
	"slices"

	"github.com/cardclash/clash-server-go/internal/game/rules"
	"github.com/cardclash/clash-server-go/internal/game/targeting"
)

// TemplateEffect is an authored effect with no initiator yet. Binding it to
// a card instance produces a queueable Effect.
type TemplateEffect struct {
	Kind   EffectKind
	Target targeting.Target
	Player targeting.PlayerTarget
	Amount int
	Attack int
	HP     int
	// Summon is the template created by a Summon effect.
	Summon *CardTemplate
}

// Bind attaches the initiating entity and returns the runtime effect.
func (te TemplateEffect) Bind(initiator EntityID) (Effect, error) {
	switch te.Kind {
	case EffectBoost:
		return Boost{Initiator: initiator, Target: te.Target, Attack: te.Attack, HP: te.HP}, nil
	case EffectHeal:
		return Heal{Initiator: initiator, Target: te.Target, Amount: te.Amount}, nil
	case EffectDestroy:
		return Destroy{Initiator: initiator, Target: te.Target}, nil
	case EffectDealDamage:
		return DealDamage{Initiator: initiator, Target: te.Target, Amount: te.Amount}, nil
	case EffectAttack:
		return Attack{Initiator: initiator, Target: te.Target}, nil
	case EffectMakeDraw:
		return MakeDraw{Initiator: initiator, Player: te.Player, Amount: te.Amount}, nil
	case EffectIncreaseMaxMana:
		return IncreaseMaxMana{Initiator: initiator, Player: te.Player, Amount: te.Amount}, nil
	case EffectRefreshMana:
		return RefreshMana{Initiator: initiator, Player: te.Player, Amount: te.Amount}, nil
	case EffectSummon:
		if te.Summon == nil {
			return nil, rules.Invariantf("summon effect has no template")
		}
		return Summon{Initiator: initiator, Side: te.Player, Template: te.Summon}, nil
	default:
		return nil, rules.Invariantf("effect %q can not be authored on a card", te.Kind)
	}
}

func bindAll(effects []TemplateEffect, initiator EntityID) ([]Effect, error) {
	if len(effects) == 0 {
		return nil, nil
	}
	out := make([]Effect, 0, len(effects))
	for _, te := range effects {
		eff, err := te.Bind(initiator)
		if err != nil {
			return nil, err
		}
		out = append(out, eff)
	}
	return out, nil
}

// CardTemplate is the authored definition a card instance is created from.
type CardTemplate struct {
	ID          TemplateID
	Name        string
	Description string
	Cost        int
	Race        Race
	Class       Class
	Kind        CardKind
	PlayTarget  *targeting.PlayTarget

	// Monster fields.
	Attack   int
	HP       int
	Keywords []Keyword
	OnPlay   []TemplateEffect
	OnAttack []TemplateEffect
	OnDeath  []TemplateEffect

	// Spell fields.
	Effects []TemplateEffect
}

// Validate checks the template is playable.
func (t *CardTemplate) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("template %d has no name", t.ID)
	}
	if t.Cost < 0 {
		return fmt.Errorf("template %d (%s) has a negative cost", t.ID, t.Name)
	}
	switch t.Kind {
	case KindMonster:
		if t.HP <= 0 {
			return fmt.Errorf("monster %d (%s) must have positive hp", t.ID, t.Name)
		}
		if t.Attack < 0 {
			return fmt.Errorf("monster %d (%s) has negative attack", t.ID, t.Name)
		}
		if len(t.Effects) > 0 {
			return fmt.Errorf("monster %d (%s) can not carry spell effects", t.ID, t.Name)
		}
	case KindSpell:
		if len(t.OnPlay)+len(t.OnAttack)+len(t.OnDeath) > 0 || len(t.Keywords) > 0 {
			return fmt.Errorf("spell %d (%s) can not carry monster abilities", t.ID, t.Name)
		}
	default:
		return fmt.Errorf("template %d (%s) has unknown kind %q", t.ID, t.Name, t.Kind)
	}
	if t.PlayTarget != nil && t.PlayTarget.Amount <= 0 {
		return fmt.Errorf("template %d (%s) play target needs a positive amount", t.ID, t.Name)
	}
	for _, list := range []struct {
		name    string
		effects []TemplateEffect
	}{
		{"on_play", t.OnPlay},
		{"on_attack", t.OnAttack},
		{"on_death", t.OnDeath},
		{"effects", t.Effects},
	} {
		if err := validateEffects(list.effects); err != nil {
			return fmt.Errorf("template %d (%s) %s: %w", t.ID, t.Name, list.name, err)
		}
	}
	return nil
}

// Summoned templates are validated on their own, so Summon is not followed.
func validateEffects(effects []TemplateEffect) error {
	for i, te := range effects {
		if te.Amount < 0 || te.Attack < 0 || te.HP < 0 {
			return fmt.Errorf("effect %d (%s) has a negative amount", i, te.Kind)
		}
	}
	return nil
}

// HasKeyword reports whether the template carries k.
func (t *CardTemplate) HasKeyword(k Keyword) bool {
	return slices.Contains(t.Keywords, k)
}
