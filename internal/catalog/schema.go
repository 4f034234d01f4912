package catalog

import (
	"github.com/invopop/jsonschema"
)

// FileDocument is the on-disk shape of a card catalog. It is shared with the
// schema generator so editors can validate authored YAML.
type FileDocument struct {
	Cards []CardDocument          `yaml:"cards" json:"cards" jsonschema:"title=Cards,description=Every card template in the collection,required"`
	Decks map[string]DeckDocument `yaml:"decks,omitempty" json:"decks,omitempty" jsonschema:"title=Decks,description=Named deck lists"`
}

// CardDocument is one authored card template.
type CardDocument struct {
	ID          int              `yaml:"id" json:"id" jsonschema:"title=Template id,minimum=1,required"`
	Name        string           `yaml:"name" json:"name" jsonschema:"title=Name,minLength=1,required"`
	Description string           `yaml:"description,omitempty" json:"description,omitempty"`
	Cost        int              `yaml:"cost" json:"cost" jsonschema:"title=Mana cost,minimum=0,required"`
	Race        string           `yaml:"race" json:"race" jsonschema:"enum=COMMON,enum=HUMAN,enum=DEMON,enum=DRAGON,required"`
	Class       string           `yaml:"class" json:"class" jsonschema:"enum=COMMON,enum=WARRIOR,enum=MAGE,enum=ROGUE,required"`
	Kind        string           `yaml:"kind" json:"kind" jsonschema:"enum=monster,enum=spell,required"`
	Attack      int              `yaml:"attack,omitempty" json:"attack,omitempty" jsonschema:"minimum=0"`
	HP          int              `yaml:"hp,omitempty" json:"hp,omitempty" jsonschema:"minimum=0"`
	Keywords    []string         `yaml:"keywords,omitempty" json:"keywords,omitempty" jsonschema:"enum=Charge,enum=Windfury"`
	PlayTarget  *PlayTargetDoc   `yaml:"play_target,omitempty" json:"play_target,omitempty" jsonschema:"description=Targets the player chooses when playing the card"`
	OnPlay      []EffectDocument `yaml:"on_play,omitempty" json:"on_play,omitempty"`
	OnAttack    []EffectDocument `yaml:"on_attack,omitempty" json:"on_attack,omitempty"`
	OnDeath     []EffectDocument `yaml:"on_death,omitempty" json:"on_death,omitempty"`
	Effects     []EffectDocument `yaml:"effects,omitempty" json:"effects,omitempty" jsonschema:"description=Spell effects"`
}

// PlayTargetDoc constrains a player's target choice.
type PlayTargetDoc struct {
	Strict bool   `yaml:"strict,omitempty" json:"strict,omitempty"`
	Amount int    `yaml:"amount" json:"amount" jsonschema:"minimum=1,required"`
	Race   string `yaml:"race,omitempty" json:"race,omitempty"`
	Class  string `yaml:"class,omitempty" json:"class,omitempty"`
	Side   string `yaml:"side,omitempty" json:"side,omitempty" jsonschema:"enum=Player,enum=Enemy"`
}

// EffectDocument is one authored effect.
type EffectDocument struct {
	Effect string `yaml:"effect" json:"effect" jsonschema:"enum=damage,enum=deal_damage,enum=attack,enum=heal,enum=destroy,enum=boost,enum=draw,enum=summon,enum=increase_max_mana,enum=refresh_mana,required"`
	Target string `yaml:"target,omitempty" json:"target,omitempty" jsonschema:"description=Field or player recipients for damage heal destroy and boost"`
	Player string `yaml:"player,omitempty" json:"player,omitempty" jsonschema:"enum=Player,enum=EnemyPlayer,enum=BothPlayers"`
	Amount int    `yaml:"amount,omitempty" json:"amount,omitempty" jsonschema:"minimum=0"`
	Attack int    `yaml:"attack,omitempty" json:"attack,omitempty" jsonschema:"minimum=0"`
	HP     int    `yaml:"hp,omitempty" json:"hp,omitempty" jsonschema:"minimum=0"`
	Summon int    `yaml:"summon,omitempty" json:"summon,omitempty" jsonschema:"description=Template id created by a summon effect"`
}

// DeckDocument is a named deck list.
type DeckDocument struct {
	Archetype ArchetypeDoc `yaml:"archetype" json:"archetype" jsonschema:"required"`
	Cards     []int        `yaml:"cards" json:"cards" jsonschema:"required"`
}

// ArchetypeDoc names a race or a class.
type ArchetypeDoc struct {
	Race  string `yaml:"race,omitempty" json:"race,omitempty"`
	Class string `yaml:"class,omitempty" json:"class,omitempty"`
}

// Schema returns the JSON schema of the catalog file.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
	}
	schema := reflector.Reflect(new(FileDocument))
	schema.Title = "Card Catalog"
	schema.Description = "Validates the authored card collection and deck lists"
	return schema
}
