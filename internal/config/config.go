// Package config loads the designer-authored trial configuration: economy
// tunables, the item catalog, archetype tables, unit templates, and the
// balance-parameter bounds swept by the sampler.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"emberfall/sim/internal/combat"
	"emberfall/sim/internal/economy"
	"emberfall/sim/internal/market"
	"emberfall/sim/internal/policy"
	"emberfall/sim/internal/sampler"
	"emberfall/sim/internal/stats"
)

// CombatSettings mirror combat.Config in YAML form.
type CombatSettings struct {
	GridWidth         int     `yaml:"gridWidth" json:"gridWidth"`
	GridHeight        int     `yaml:"gridHeight" json:"gridHeight"`
	MaxRounds         int     `yaml:"maxRounds" json:"maxRounds"`
	CastManaThreshold int     `yaml:"castManaThreshold" json:"castManaThreshold"`
	ManaPerAttack     int     `yaml:"manaPerAttack" json:"manaPerAttack"`
	HealingEfficiency float64 `yaml:"healingEfficiency" json:"healingEfficiency"`
}

// ItemSpec is one designer-authored market listing.
type ItemSpec struct {
	ID        string  `yaml:"id" json:"id" jsonschema:"title=Item id,description=Unique market listing identifier"`
	Name      string  `yaml:"name" json:"name"`
	BasePrice float64 `yaml:"basePrice" json:"basePrice" jsonschema:"description=Immutable reference price"`
	Quantity  int     `yaml:"quantity" json:"quantity"`
	Rarity    int     `yaml:"rarity" json:"rarity"`
	Type      string  `yaml:"type" json:"type"`
}

// EffectSpec is one secondary effect rider in YAML form. Deltas use stat
// names; unknown names are rejected at load time.
type EffectSpec struct {
	Kind      string             `yaml:"kind" json:"kind" jsonschema:"enum=damage,enum=heal,enum=buff,enum=debuff,enum=stun,enum=movement"`
	Magnitude float64            `yaml:"magnitude" json:"magnitude"`
	Duration  int                `yaml:"duration" json:"duration"`
	Deltas    map[string]float64 `yaml:"deltas" json:"deltas,omitempty"`
	Distance  int                `yaml:"distance" json:"distance"`
}

// SkillSpec is one skill in YAML form.
type SkillSpec struct {
	Name       string       `yaml:"name" json:"name"`
	ManaCost   int          `yaml:"manaCost" json:"manaCost"`
	Cooldown   int          `yaml:"cooldown" json:"cooldown"`
	BaseDamage float64      `yaml:"baseDamage" json:"baseDamage"`
	Shape      string       `yaml:"shape" json:"shape" jsonschema:"enum=single,enum=area,enum=all,enum=self,enum=ally"`
	Effects    []EffectSpec `yaml:"effects" json:"effects,omitempty"`
}

// UnitSpec is one unit template. Stats use stat names; unknown names are
// rejected at load time.
type UnitSpec struct {
	Name   string             `yaml:"name" json:"name"`
	Level  int                `yaml:"level" json:"level"`
	Mana   int                `yaml:"mana" json:"mana"`
	Stats  map[string]float64 `yaml:"stats" json:"stats"`
	Skills []SkillSpec        `yaml:"skills" json:"skills,omitempty"`
}

// Document is the full trial configuration file.
type Document struct {
	Seed       string                      `yaml:"seed" json:"seed"`
	Economy    economy.Config              `yaml:"economy" json:"economy"`
	Combat     CombatSettings              `yaml:"combat" json:"combat"`
	Items      []ItemSpec                  `yaml:"items" json:"items"`
	Profiles   map[string]market.Profile   `yaml:"profiles" json:"profiles,omitempty"`
	Archetypes map[string]policy.Archetype `yaml:"archetypes" json:"archetypes,omitempty"`
	Units      []UnitSpec                  `yaml:"units" json:"units"`
	Params     []sampler.ParamSpec         `yaml:"params" json:"params,omitempty"`
}

// Load reads and validates a YAML document from disk.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML document.
func Parse(data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("config: parse: %w", err)
	}
	doc = doc.normalized()
	if err := doc.validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (doc Document) normalized() Document {
	doc.Seed = strings.TrimSpace(doc.Seed)
	doc.Economy = doc.Economy.Normalized()
	if doc.Archetypes == nil {
		doc.Archetypes = policy.Builtin()
	}
	if doc.Profiles == nil {
		doc.Profiles = map[string]market.Profile{}
	}
	return doc
}

func (doc Document) validate() error {
	seenItems := make(map[string]struct{}, len(doc.Items))
	for i, item := range doc.Items {
		if item.ID == "" {
			return fmt.Errorf("config: item %d has no id", i)
		}
		if _, dup := seenItems[item.ID]; dup {
			return fmt.Errorf("config: duplicate item id %q", item.ID)
		}
		seenItems[item.ID] = struct{}{}
		if item.BasePrice <= 0 {
			return fmt.Errorf("config: item %q has non-positive base price", item.ID)
		}
	}
	for i, unit := range doc.Units {
		if unit.Name == "" {
			return fmt.Errorf("config: unit %d has no name", i)
		}
		if _, err := unit.BuildUnit(fmt.Sprintf("template-%d", i)); err != nil {
			return err
		}
	}
	return nil
}

// CombatConfig converts the YAML settings to the resolver config.
func (doc Document) CombatConfig() combat.Config {
	return combat.Config{
		GridWidth:         doc.Combat.GridWidth,
		GridHeight:        doc.Combat.GridHeight,
		MaxRounds:         doc.Combat.MaxRounds,
		CastManaThreshold: doc.Combat.CastManaThreshold,
		ManaPerAttack:     doc.Combat.ManaPerAttack,
		HealingEfficiency: doc.Combat.HealingEfficiency,
	}
}

// MarketItems converts the item specs to market listings.
func (doc Document) MarketItems() []market.Item {
	items := make([]market.Item, 0, len(doc.Items))
	for _, spec := range doc.Items {
		items = append(items, market.Item{
			ID:        spec.ID,
			Name:      spec.Name,
			BasePrice: spec.BasePrice,
			Price:     spec.BasePrice,
			Quantity:  spec.Quantity,
			Rarity:    spec.Rarity,
			Type:      spec.Type,
		})
	}
	return items
}

// BuildUnit instantiates a combat unit from the template, validating stat
// names, target shapes, and effect kinds against their closed sets.
func (spec UnitSpec) BuildUnit(id string) (combat.Unit, error) {
	delta, err := stats.DeltaFromMap(spec.Stats)
	if err != nil {
		return combat.Unit{}, fmt.Errorf("config: unit %q: %w", spec.Name, err)
	}
	base := stats.Values(delta)
	unit := combat.Unit{
		ID:    id,
		Name:  spec.Name,
		Level: spec.Level,
		Mana:  spec.Mana,
		Base:  base,
	}
	if unit.Level <= 0 {
		unit.Level = 1
	}
	for _, skillSpec := range spec.Skills {
		skill, err := skillSpec.buildSkill(spec.Name)
		if err != nil {
			return combat.Unit{}, err
		}
		unit.Skills = append(unit.Skills, skill)
	}
	return unit, nil
}

func (spec SkillSpec) buildSkill(unitName string) (combat.Skill, error) {
	shape, err := parseShape(spec.Shape)
	if err != nil {
		return combat.Skill{}, fmt.Errorf("config: unit %q skill %q: %w", unitName, spec.Name, err)
	}
	skill := combat.Skill{
		Name:       spec.Name,
		ManaCost:   spec.ManaCost,
		Cooldown:   spec.Cooldown,
		BaseDamage: spec.BaseDamage,
		Shape:      shape,
	}
	for _, effectSpec := range spec.Effects {
		kind, err := parseEffectKind(effectSpec.Kind)
		if err != nil {
			return combat.Skill{}, fmt.Errorf("config: unit %q skill %q: %w", unitName, spec.Name, err)
		}
		deltas, err := stats.DeltaFromMap(effectSpec.Deltas)
		if err != nil {
			return combat.Skill{}, fmt.Errorf("config: unit %q skill %q: %w", unitName, spec.Name, err)
		}
		skill.Effects = append(skill.Effects, combat.SkillEffect{
			Kind:      kind,
			Magnitude: effectSpec.Magnitude,
			Duration:  effectSpec.Duration,
			Deltas:    deltas,
			Distance:  effectSpec.Distance,
		})
	}
	return skill, nil
}

func parseShape(raw string) (combat.TargetShape, error) {
	switch combat.TargetShape(raw) {
	case combat.ShapeSingle, combat.ShapeArea, combat.ShapeAll, combat.ShapeSelf, combat.ShapeAlly:
		return combat.TargetShape(raw), nil
	case "":
		return combat.ShapeSingle, nil
	default:
		return "", fmt.Errorf("unknown target shape %q", raw)
	}
}

func parseEffectKind(raw string) (combat.SkillEffectKind, error) {
	switch combat.SkillEffectKind(raw) {
	case combat.SkillEffectDamage, combat.SkillEffectHeal, combat.SkillEffectBuff,
		combat.SkillEffectDebuff, combat.SkillEffectStun, combat.SkillEffectMovement:
		return combat.SkillEffectKind(raw), nil
	default:
		return "", fmt.Errorf("unknown effect kind %q", raw)
	}
}
