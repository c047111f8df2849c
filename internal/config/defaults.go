package config

import (
	"emberfall/sim/internal/economy"
	"emberfall/sim/internal/market"
	"emberfall/sim/internal/policy"
	"emberfall/sim/internal/sampler"
)

// Default returns the built-in trial configuration used when no document is
// supplied. It mirrors the shipped config/trial.yaml.
func Default() Document {
	doc := Document{
		Seed:    "emberfall",
		Economy: economy.Config{}.Normalized(),
		Combat: CombatSettings{
			GridWidth:         8,
			GridHeight:        8,
			MaxRounds:         50,
			CastManaThreshold: 50,
			ManaPerAttack:     10,
			HealingEfficiency: 1.0,
		},
		Items: []ItemSpec{
			{ID: "sword", Name: "Emberforged Sword", BasePrice: 10, Quantity: 8, Rarity: 1, Type: "weapon"},
			{ID: "aegis", Name: "Cinder Aegis", BasePrice: 14, Quantity: 6, Rarity: 2, Type: "armor"},
			{ID: "focus", Name: "Ashen Focus", BasePrice: 18, Quantity: 4, Rarity: 2, Type: "trinket"},
			{ID: "elixir", Name: "Phoenix Elixir", BasePrice: 25, Quantity: 3, Rarity: 3, Type: "consumable"},
		},
		Profiles: map[string]market.Profile{
			"aggressive": {BuyWeight: 0.8, SellWeight: 0.2, MinQuantity: 1, MaxQuantity: 4},
			"greedy":     {BuyWeight: 0.3, SellWeight: 0.7, MinQuantity: 1, MaxQuantity: 2},
			"balanced":   {BuyWeight: 0.5, SellWeight: 0.5, MinQuantity: 1, MaxQuantity: 3},
			"gambler":    {BuyWeight: 0.7, SellWeight: 0.3, MinQuantity: 2, MaxQuantity: 5},
		},
		Archetypes: policy.Builtin(),
		Units: []UnitSpec{
			{
				Name: "warden",
				Mana: 20,
				Stats: map[string]float64{
					"maxHealth": 120, "maxMana": 60, "attack": 14, "defense": 25,
					"magicPower": 0, "magicResist": 20, "speed": 8,
					"critRate": 0.1, "critMultiplier": 1.5,
				},
				Skills: []SkillSpec{
					{
						Name: "bulwark", ManaCost: 40, Cooldown: 3, Shape: "self",
						Effects: []EffectSpec{
							{Kind: "buff", Magnitude: 10, Duration: 2, Deltas: map[string]float64{"defense": 10}},
						},
					},
				},
			},
			{
				Name: "berserker",
				Mana: 30,
				Stats: map[string]float64{
					"maxHealth": 100, "maxMana": 50, "attack": 22, "defense": 10,
					"magicPower": 0, "magicResist": 5, "speed": 12,
					"critRate": 0.25, "critMultiplier": 2.0,
				},
				Skills: []SkillSpec{
					{
						Name: "rend", ManaCost: 50, Cooldown: 2, BaseDamage: 15, Shape: "single",
						Effects: []EffectSpec{
							{Kind: "debuff", Magnitude: 5, Duration: 2, Deltas: map[string]float64{"defense": -5}},
						},
					},
				},
			},
			{
				Name: "pyromancer",
				Mana: 50,
				Stats: map[string]float64{
					"maxHealth": 70, "maxMana": 100, "attack": 8, "defense": 5,
					"magicPower": 30, "magicResist": 15, "speed": 10,
					"critRate": 0.15, "critMultiplier": 1.75,
				},
				Skills: []SkillSpec{
					{Name: "flamewave", ManaCost: 60, Cooldown: 3, BaseDamage: 20, Shape: "area"},
				},
			},
			{
				Name: "cleric",
				Mana: 45,
				Stats: map[string]float64{
					"maxHealth": 80, "maxMana": 90, "attack": 6, "defense": 12,
					"magicPower": 18, "magicResist": 25, "speed": 7,
					"critRate": 0.05, "critMultiplier": 1.5,
				},
				Skills: []SkillSpec{
					{
						Name: "mend", ManaCost: 50, Cooldown: 2, Shape: "ally",
						Effects: []EffectSpec{
							{Kind: "heal", Magnitude: 25},
						},
					},
				},
			},
			{
				Name: "assassin",
				Mana: 25,
				Stats: map[string]float64{
					"maxHealth": 75, "maxMana": 55, "attack": 20, "defense": 8,
					"magicPower": 5, "magicResist": 8, "speed": 16,
					"critRate": 0.35, "critMultiplier": 2.2,
				},
				Skills: []SkillSpec{
					{
						Name: "shadowstep", ManaCost: 50, Cooldown: 4, BaseDamage: 12, Shape: "single",
						Effects: []EffectSpec{
							{Kind: "stun", Duration: 1},
							{Kind: "movement", Distance: 2},
						},
					},
				},
			},
		},
		Params: []sampler.ParamSpec{
			{Name: "physicalDefense", Min: 0, Max: 40},
			{Name: "magicResistance", Min: 0, Max: 40},
			{Name: "criticalRate", Min: 0, Max: 0.5},
			{Name: "healingEfficiency", Min: 0.5, Max: 1.5},
			{Name: "goldScaling", Min: 0.5, Max: 2.0},
			{Name: "interestRate", Min: 0.05, Max: 0.25},
		},
	}
	return doc.normalized()
}
