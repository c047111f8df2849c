package stats

import (
	"fmt"
	"math"
)

// StatID enumerates the combat attributes tracked by the simulation.
type StatID uint8

const (
	StatAttack StatID = iota
	StatDefense
	StatMagicPower
	StatMagicResist
	StatSpeed
	StatCritRate
	StatCritMultiplier
	StatMaxHealth
	StatMaxMana

	StatCount
)

var statNames = [StatCount]string{
	StatAttack:         "attack",
	StatDefense:        "defense",
	StatMagicPower:     "magicPower",
	StatMagicResist:    "magicResist",
	StatSpeed:          "speed",
	StatCritRate:       "critRate",
	StatCritMultiplier: "critMultiplier",
	StatMaxHealth:      "maxHealth",
	StatMaxMana:        "maxMana",
}

func (id StatID) String() string {
	if id >= StatCount {
		return fmt.Sprintf("stat(%d)", uint8(id))
	}
	return statNames[id]
}

// Parse resolves a stat name to its identifier. Unknown names are an error so
// malformed effect payloads are rejected when they are built, not silently
// dropped when they are applied.
func Parse(name string) (StatID, error) {
	for id, candidate := range statNames {
		if candidate == name {
			return StatID(id), nil
		}
	}
	return StatCount, fmt.Errorf("stats: unknown stat %q", name)
}

// Values stores an absolute value for every stat.
type Values [StatCount]float64

// Delta stores an additive adjustment for every stat.
type Delta [StatCount]float64

// DeltaFromMap builds a Delta from a name-keyed mapping, rejecting unknown
// stat names.
func DeltaFromMap(entries map[string]float64) (Delta, error) {
	var delta Delta
	for name, value := range entries {
		id, err := Parse(name)
		if err != nil {
			return Delta{}, err
		}
		delta[id] = value
	}
	return delta, nil
}

// Map returns the non-zero entries of the delta keyed by stat name.
func (d Delta) Map() map[string]float64 {
	out := make(map[string]float64)
	for id := StatID(0); id < StatCount; id++ {
		if d[id] != 0 {
			out[id.String()] = d[id]
		}
	}
	return out
}

// IsZero reports whether every entry of the delta is zero.
func (d Delta) IsZero() bool {
	for _, v := range d {
		if v != 0 {
			return false
		}
	}
	return true
}

// Add returns the element-wise sum of two deltas.
func (d Delta) Add(other Delta) Delta {
	for id := range other {
		d[id] += other[id]
	}
	return d
}

// Scale returns the delta with every entry multiplied by factor.
func (d Delta) Scale(factor float64) Delta {
	for id := range d {
		d[id] *= factor
	}
	return d
}

// Apply returns the values adjusted by the delta. Results are floored at zero;
// a debuff can empty a stat but never drive it negative.
func (v Values) Apply(d Delta) Values {
	for id := range v {
		adjusted := v[id] + d[id]
		if adjusted < 0 || math.IsNaN(adjusted) {
			adjusted = 0
		}
		v[id] = adjusted
	}
	return v
}
