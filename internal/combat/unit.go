package combat

import (
	"emberfall/sim/internal/stats"
	"emberfall/sim/internal/status"
)

// Side identifies one of the two battle rosters.
type Side string

const (
	SideA Side = "sideA"
	SideB Side = "sideB"
	// SideDraw is recorded as the winner when both rosters empty on the same
	// round.
	SideDraw Side = "draw"
)

// Unit is one combatant. Vitals are integers; stats live in a closed vector
// so effect payloads cannot smuggle unknown attributes in.
type Unit struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Side   Side           `json:"side"`
	Level  int            `json:"level"`
	X      int            `json:"x"`
	Y      int            `json:"y"`
	Health int            `json:"health"`
	Mana   int            `json:"mana"`
	Base   stats.Values   `json:"base"`
	Skills []Skill        `json:"skills,omitempty"`
	Items  []string       `json:"items,omitempty"`
	Status status.Tracker `json:"status"`
}

// Alive reports whether the unit can still act or be targeted.
func (u *Unit) Alive() bool {
	return u.Health > 0
}

// MaxHealth returns the unit's base maximum health.
func (u *Unit) MaxHealth() int {
	return int(u.Base[stats.StatMaxHealth])
}

// MaxMana returns the unit's base maximum mana.
func (u *Unit) MaxMana() int {
	return int(u.Base[stats.StatMaxMana])
}

func (u *Unit) clone() Unit {
	cloned := *u
	cloned.Skills = append([]Skill(nil), u.Skills...)
	for i := range cloned.Skills {
		cloned.Skills[i].Effects = append([]SkillEffect(nil), u.Skills[i].Effects...)
	}
	cloned.Items = append([]string(nil), u.Items...)
	cloned.Status = u.Status.Clone()
	return cloned
}

// TargetShape describes who a skill resolves against.
type TargetShape string

const (
	ShapeSingle TargetShape = "single"
	ShapeArea   TargetShape = "area"
	ShapeAll    TargetShape = "all"
	ShapeSelf   TargetShape = "self"
	ShapeAlly   TargetShape = "ally"
)

// SkillEffectKind is the closed set of secondary effect variants.
type SkillEffectKind string

const (
	SkillEffectDamage   SkillEffectKind = "damage"
	SkillEffectHeal     SkillEffectKind = "heal"
	SkillEffectBuff     SkillEffectKind = "buff"
	SkillEffectDebuff   SkillEffectKind = "debuff"
	SkillEffectStun     SkillEffectKind = "stun"
	SkillEffectMovement SkillEffectKind = "movement"
)

// SkillEffect is one secondary effect rider on a skill. Which fields matter
// depends on Kind: Magnitude for damage/heal, Duration and Deltas for
// buff/debuff, Duration for stun, Distance for movement.
type SkillEffect struct {
	Kind      SkillEffectKind `json:"kind"`
	Magnitude float64         `json:"magnitude,omitempty"`
	Duration  int             `json:"duration,omitempty"`
	Deltas    stats.Delta     `json:"deltas,omitempty"`
	Distance  int             `json:"distance,omitempty"`
}

// Skill is an active ability. Remaining tracks the live cooldown counter; it
// decrements on every round the skill is not used and blocks casting while
// above zero.
type Skill struct {
	Name       string        `json:"name"`
	ManaCost   int           `json:"manaCost"`
	Cooldown   int           `json:"cooldown"`
	Remaining  int           `json:"remaining"`
	BaseDamage float64       `json:"baseDamage"`
	Shape      TargetShape   `json:"shape"`
	Effects    []SkillEffect `json:"effects,omitempty"`
}

// Ready reports whether the skill is off cooldown.
func (s *Skill) Ready() bool {
	return s.Remaining <= 0
}
