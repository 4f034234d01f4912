package game

import (
	"testing"

	"github.com/cardclash/clash-server-go/internal/game/targeting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRejectsNegativeEffectAmounts(t *testing.T) {
	tests := []struct {
		name string
		tpl  *CardTemplate
		want string
	}{
		{
			name: "negative spell damage",
			tpl:  spellTemplate(10, 1, damage(targeting.Player{}, -10)),
			want: "effects: effect 0 (DealDamage) has a negative amount",
		},
		{
			name: "negative on play hp boost",
			tpl: func() *CardTemplate {
				tpl := monsterTemplate(11, 1, 1, 5)
				tpl.OnPlay = []TemplateEffect{{Kind: EffectBoost, Target: targeting.ItSelf{}, HP: -7}}
				return tpl
			}(),
			want: "on_play",
		},
		{
			name: "negative attack boost on attack",
			tpl: func() *CardTemplate {
				tpl := monsterTemplate(12, 1, 1, 5)
				tpl.OnAttack = []TemplateEffect{{Kind: EffectBoost, Target: targeting.Allies{}, Attack: -1}}
				return tpl
			}(),
			want: "on_attack",
		},
		{
			name: "negative heal on death",
			tpl: func() *CardTemplate {
				tpl := monsterTemplate(13, 1, 1, 5)
				tpl.OnDeath = []TemplateEffect{heal(targeting.Player{}, -3)}
				return tpl
			}(),
			want: "on_death",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tpl.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateAcceptsZeroAmounts(t *testing.T) {
	tpl := monsterTemplate(14, 1, 1, 5)
	tpl.OnPlay = []TemplateEffect{{Kind: EffectBoost, Target: targeting.ItSelf{}, Attack: 2}}
	if err := tpl.Validate(); err != nil {
		t.Fatalf("expected a valid template, got %v", err)
	}
}
