// Package status owns the timed stat-modifying effects attached to a unit:
// stacking, decay, and derived-stat computation.
package status

import "emberfall/sim/internal/stats"

type Kind string

const (
	KindBeneficial Kind = "beneficial"
	KindHarmful    Kind = "harmful"
)

// StackingFactor compounds an existing stackable effect's magnitude and
// deltas on every re-application. Repeated identical buffs escalate
// geometrically rather than summing.
const StackingFactor = 1.2

// Effect is one timed stat modifier. Effects are identified by their
// (Source, Name) pair.
type Effect struct {
	Source    string      `json:"source"`
	Name      string      `json:"name"`
	Kind      Kind        `json:"kind"`
	Magnitude float64     `json:"magnitude"`
	Duration  int         `json:"duration"`
	Stackable bool        `json:"stackable"`
	Deltas    stats.Delta `json:"deltas"`
}

// Tracker holds the active effects for one unit. Effects keep their insertion
// order so repeated applications resolve deterministically.
type Tracker struct {
	Effects []Effect `json:"effects,omitempty"`
}

// Add merges an effect into the tracker. A stackable effect that already
// exists keeps the longer duration and compounds its magnitude and per-stat
// deltas by StackingFactor; the arriving effect's raw values are discarded. A
// non-stackable duplicate only refreshes the duration. New effects append.
func (t *Tracker) Add(effect Effect) {
	for i := range t.Effects {
		existing := &t.Effects[i]
		if existing.Source != effect.Source || existing.Name != effect.Name {
			continue
		}
		if existing.Stackable {
			if effect.Duration > existing.Duration {
				existing.Duration = effect.Duration
			}
			existing.Magnitude *= StackingFactor
			existing.Deltas = existing.Deltas.Scale(StackingFactor)
		} else {
			existing.Duration = effect.Duration
		}
		return
	}
	t.Effects = append(t.Effects, effect)
}

// Active returns the effects whose duration has not elapsed.
func (t *Tracker) Active() []Effect {
	active := make([]Effect, 0, len(t.Effects))
	for _, effect := range t.Effects {
		if effect.Duration > 0 {
			active = append(active, effect)
		}
	}
	return active
}

// CombinedDelta sums every active effect's per-stat deltas.
func (t *Tracker) CombinedDelta() stats.Delta {
	var combined stats.Delta
	for _, effect := range t.Effects {
		if effect.Duration > 0 {
			combined = combined.Add(effect.Deltas)
		}
	}
	return combined
}

// ApplyTo derives adjusted stat values from the base without mutating it.
func (t *Tracker) ApplyTo(base stats.Values) stats.Values {
	return base.Apply(t.CombinedDelta())
}

// Has reports whether any active effect carries the given name, regardless of
// source.
func (t *Tracker) Has(name string) bool {
	for _, effect := range t.Effects {
		if effect.Duration > 0 && effect.Name == name {
			return true
		}
	}
	return false
}

// Tick decrements every effect's remaining duration and sweeps out the ones
// that expired.
func (t *Tracker) Tick() {
	remaining := t.Effects[:0]
	for _, effect := range t.Effects {
		effect.Duration--
		if effect.Duration > 0 {
			remaining = append(remaining, effect)
		}
	}
	t.Effects = remaining
	if len(t.Effects) == 0 {
		t.Effects = nil
	}
}

// Clone returns a deep copy of the tracker.
func (t *Tracker) Clone() Tracker {
	if len(t.Effects) == 0 {
		return Tracker{}
	}
	return Tracker{Effects: append([]Effect(nil), t.Effects...)}
}
