// Package policy models synthetic players: named archetypes with fixed
// decision weights, evaluated through a strict priority chain so balance
// analysts can attribute every decision to a single rule.
package policy

import (
	"math/rand"

	"emberfall/sim/internal/simrand"
)

// Action is what the synthetic player chose to do this decision point.
type Action string

const (
	ActionSave    Action = "save"
	ActionLevelUp Action = "levelUp"
	ActionBuy     Action = "buy"
	ActionReroll  Action = "reroll"
)

// Rule names identify which priority rule fired.
const (
	RuleSaveFloor   = "save-floor"
	RuleLevelUp     = "level-up"
	RuleBuy         = "buy-preferred"
	RuleReroll      = "reroll"
	RuleSaveDefault = "save-default"
)

// Gold floors for the individual rules.
const (
	LevelCostFloor = 4
	BuyCostFloor   = 3
	RerollCost     = 2
)

// Archetype is a named behavior: five fixed parameters plus a preferred-unit
// list.
type Archetype struct {
	Name             string   `yaml:"name" json:"name"`
	RerollRate       float64  `yaml:"rerollRate" json:"rerollRate"`
	LevelUpThreshold float64  `yaml:"levelUpThreshold" json:"levelUpThreshold"`
	SaveFloor        int      `yaml:"saveFloor" json:"saveFloor"`
	BuyRatio         float64  `yaml:"buyRatio" json:"buyRatio"`
	RiskTolerance    float64  `yaml:"riskTolerance" json:"riskTolerance"`
	PreferredUnits   []string `yaml:"preferredUnits" json:"preferredUnits"`
}

// View is the slice of economy state a decision sees.
type View struct {
	Gold           int
	Level          int
	AvailableUnits []string
}

// Decision reports the chosen action and the single rule that produced it.
type Decision struct {
	Action Action `json:"action"`
	Rule   string `json:"rule"`
	Unit   string `json:"unit,omitempty"`
}

// DefaultArchetypeName is the fallback for unknown archetype names.
const DefaultArchetypeName = "balanced"

// Builtin returns the built-in archetype table.
func Builtin() map[string]Archetype {
	table := map[string]Archetype{
		"aggressive": {
			Name:             "aggressive",
			RerollRate:       0.6,
			LevelUpThreshold: 0.5,
			SaveFloor:        2,
			BuyRatio:         0.8,
			RiskTolerance:    0.9,
			PreferredUnits:   []string{"berserker", "pyromancer"},
		},
		"greedy": {
			Name:             "greedy",
			RerollRate:       0.1,
			LevelUpThreshold: 0.2,
			SaveFloor:        15,
			BuyRatio:         0.3,
			RiskTolerance:    0.2,
			PreferredUnits:   []string{"warden"},
		},
		"balanced": {
			Name:             "balanced",
			RerollRate:       0.3,
			LevelUpThreshold: 0.4,
			SaveFloor:        8,
			BuyRatio:         0.5,
			RiskTolerance:    0.5,
			PreferredUnits:   []string{"warden", "cleric"},
		},
		"gambler": {
			Name:             "gambler",
			RerollRate:       0.8,
			LevelUpThreshold: 0.7,
			SaveFloor:        0,
			BuyRatio:         0.7,
			RiskTolerance:    1.0,
			PreferredUnits:   []string{"pyromancer", "assassin"},
		},
	}
	return table
}

// Lookup resolves an archetype by name, falling back to the default rather
// than failing on unknown names.
func Lookup(table map[string]Archetype, name string) Archetype {
	if arch, ok := table[name]; ok {
		return arch
	}
	if arch, ok := table[DefaultArchetypeName]; ok {
		return arch
	}
	return Archetype{Name: DefaultArchetypeName, RerollRate: 0.3, LevelUpThreshold: 0.4, SaveFloor: 8, BuyRatio: 0.5, RiskTolerance: 0.5}
}

// Decide evaluates the priority chain: save floor, then level up, then
// preferred-unit buy, then reroll, then save. Exactly one rule fires; the
// chain is not a weighted blend.
func Decide(arch Archetype, view View, rng *rand.Rand) Decision {
	if view.Gold < arch.SaveFloor {
		return Decision{Action: ActionSave, Rule: RuleSaveFloor}
	}
	if view.Gold >= LevelCostFloor && simrand.Float(rng) < arch.LevelUpThreshold {
		return Decision{Action: ActionLevelUp, Rule: RuleLevelUp}
	}
	if available := preferredAvailable(arch, view); len(available) > 0 &&
		view.Gold >= BuyCostFloor && simrand.Float(rng) < arch.BuyRatio {
		unit := available[0]
		if rng != nil {
			unit = available[rng.Intn(len(available))]
		}
		return Decision{Action: ActionBuy, Rule: RuleBuy, Unit: unit}
	}
	if view.Gold >= RerollCost && simrand.Float(rng) < arch.RerollRate {
		return Decision{Action: ActionReroll, Rule: RuleReroll}
	}
	return Decision{Action: ActionSave, Rule: RuleSaveDefault}
}

func preferredAvailable(arch Archetype, view View) []string {
	available := make([]string, 0, len(arch.PreferredUnits))
	for _, preferred := range arch.PreferredUnits {
		for _, offered := range view.AvailableUnits {
			if preferred == offered {
				available = append(available, preferred)
				break
			}
		}
	}
	return available
}
