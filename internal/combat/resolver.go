package combat

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"emberfall/sim/internal/logging"
	combatlog "emberfall/sim/internal/logging/combat"
	"emberfall/sim/internal/simrand"
	"emberfall/sim/internal/stats"
	"emberfall/sim/internal/status"
	"emberfall/sim/internal/terrain"
)

const stunEffectName = "stunned"

// Config carries the per-battle tunables. Zero values are replaced by
// defaults so a zero Config is usable.
type Config struct {
	BattleID          string
	GridWidth         int
	GridHeight        int
	MaxRounds         int
	CastManaThreshold int
	ManaPerAttack     int
	HealingEfficiency float64
}

func (cfg Config) normalized() Config {
	if cfg.BattleID == "" {
		cfg.BattleID = "battle"
	}
	if cfg.GridWidth <= 0 {
		cfg.GridWidth = 8
	}
	if cfg.GridHeight <= 0 {
		cfg.GridHeight = 8
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = 100
	}
	if cfg.CastManaThreshold <= 0 {
		cfg.CastManaThreshold = 50
	}
	if cfg.ManaPerAttack <= 0 {
		cfg.ManaPerAttack = 10
	}
	if cfg.HealingEfficiency <= 0 {
		cfg.HealingEfficiency = 1.0
	}
	return cfg
}

// Resolver advances one battle by discrete rounds. It owns its BattleState
// exclusively; callers observe it through Snapshot only.
type Resolver struct {
	state BattleState
	cfg   Config
	rng   *rand.Rand
	clock logging.Clock
	pub   logging.Publisher
}

// NewResolver validates both rosters, installs them, generates terrain from
// the injected rng, and leaves the battle in the preparing phase with an
// empty log. A roster containing a unit with non-positive max health is a
// caller contract violation and fails construction.
func NewResolver(cfg Config, rosterA, rosterB []Unit, rng *rand.Rand, clock logging.Clock, pub logging.Publisher) (*Resolver, error) {
	cfg = cfg.normalized()
	if clock == nil {
		clock = logging.ClockFunc(time.Now)
	}
	if pub == nil {
		pub = logging.NopPublisher()
	}
	if err := validateRoster(rosterA); err != nil {
		return nil, fmt.Errorf("combat: roster A: %w", err)
	}
	if err := validateRoster(rosterB); err != nil {
		return nil, fmt.Errorf("combat: roster B: %w", err)
	}

	r := &Resolver{cfg: cfg, rng: rng, clock: clock, pub: pub}
	r.state = BattleState{
		Phase:   PhasePreparing,
		SideA:   installRoster(rosterA, SideA, cfg),
		SideB:   installRoster(rosterB, SideB, cfg),
		Terrain: terrain.Generate(cfg.GridWidth, cfg.GridHeight, rng),
		Log:     make([]LogEntry, 0, 64),
	}
	return r, nil
}

// Restore rebuilds a resolver around a previously captured snapshot. Stepping
// the restored battle with an identically seeded rng and clock reproduces the
// original battle's subsequent log.
func Restore(snapshot BattleState, cfg Config, rng *rand.Rand, clock logging.Clock, pub logging.Publisher) *Resolver {
	cfg = cfg.normalized()
	if clock == nil {
		clock = logging.ClockFunc(time.Now)
	}
	if pub == nil {
		pub = logging.NopPublisher()
	}
	return &Resolver{state: snapshot.clone(), cfg: cfg, rng: rng, clock: clock, pub: pub}
}

func validateRoster(roster []Unit) error {
	for i := range roster {
		unit := &roster[i]
		if unit.ID == "" {
			return fmt.Errorf("unit %d has no id", i)
		}
		if unit.Base[stats.StatMaxHealth] <= 0 {
			return fmt.Errorf("unit %q has non-positive max health", unit.ID)
		}
		if unit.Health < 0 || unit.Health > unit.MaxHealth() {
			return fmt.Errorf("unit %q health %d outside [0, %d]", unit.ID, unit.Health, unit.MaxHealth())
		}
	}
	return nil
}

func installRoster(roster []Unit, side Side, cfg Config) []Unit {
	installed := make([]Unit, len(roster))
	for i := range roster {
		installed[i] = roster[i].clone()
		installed[i].Side = side
		if installed[i].Health == 0 {
			installed[i].Health = installed[i].MaxHealth()
		}
		installed[i].X = clampInt(installed[i].X, 0, cfg.GridWidth-1)
		installed[i].Y = clampInt(installed[i].Y, 0, cfg.GridHeight-1)
	}
	return installed
}

// Snapshot returns a defensive deep copy of the battle state.
func (r *Resolver) Snapshot() BattleState {
	return r.state.clone()
}

// Completed reports whether the battle reached its terminal phase.
func (r *Resolver) Completed() bool {
	return r.state.Phase == PhaseCompleted
}

type unitRef struct {
	side  Side
	index int
}

// Step advances exactly one round. The first call moves the battle to
// inProgress; calls after completion are no-ops and report false. Within the
// round every living unit acts in descending effective speed order with ties
// broken by stable roster order, so identical inputs replay identically.
func (r *Resolver) Step() bool {
	st := &r.state
	if st.Phase == PhaseCompleted {
		return false
	}
	if st.Phase == PhasePreparing {
		st.Phase = PhaseInProgress
	}
	st.Round++
	now := r.clock.Now()
	actions := 0

	for _, ref := range r.actingOrder() {
		actor := r.unitAt(ref)
		// Units killed earlier in the same round lose their turn.
		if !actor.Alive() {
			continue
		}
		if actor.Status.Has(stunEffectName) {
			r.appendLog(LogEntry{
				Round:   st.Round,
				Time:    now,
				ActorID: actor.ID,
				Action:  ActionStunned,
				Message: fmt.Sprintf("%s is stunned and loses the round", actor.Name),
			})
			actions++
			continue
		}
		enemies := r.livingEnemies(ref.side)
		if len(enemies) == 0 {
			break
		}
		target := lowestHealth(enemies)
		if skill := r.readySkill(actor); skill != nil {
			r.castSkill(actor, skill, target, enemies, now)
		} else {
			r.basicAttack(actor, target, now)
		}
		actions++
	}

	r.decrementCooldowns()
	r.tickStatuses()
	r.checkTermination(now)

	combatlog.RoundResolved(context.Background(), r.pub, st.Round, r.battleRef(), combatlog.RoundResolvedPayload{
		AliveSideA: st.living(SideA),
		AliveSideB: st.living(SideB),
		Actions:    actions,
	}, nil)
	return true
}

// actingOrder sorts every living unit by descending effective speed. The sort
// is stable over roster order (all of side A, then side B) so speed ties
// reproduce bit-for-bit across runs.
func (r *Resolver) actingOrder() []unitRef {
	st := &r.state
	refs := make([]unitRef, 0, len(st.SideA)+len(st.SideB))
	speeds := make([]float64, 0, len(st.SideA)+len(st.SideB))
	appendSide := func(side Side, roster []Unit) {
		for i := range roster {
			if !roster[i].Alive() {
				continue
			}
			refs = append(refs, unitRef{side: side, index: i})
			speeds = append(speeds, r.effectiveStats(&roster[i])[stats.StatSpeed])
		}
	}
	appendSide(SideA, st.SideA)
	appendSide(SideB, st.SideB)

	order := make([]int, len(refs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return speeds[order[a]] > speeds[order[b]]
	})
	sorted := make([]unitRef, len(refs))
	for i, idx := range order {
		sorted[i] = refs[idx]
	}
	return sorted
}

func (r *Resolver) unitAt(ref unitRef) *Unit {
	if ref.side == SideA {
		return &r.state.SideA[ref.index]
	}
	return &r.state.SideB[ref.index]
}

func (r *Resolver) livingEnemies(side Side) []*Unit {
	var roster []Unit
	if side == SideA {
		roster = r.state.SideB
	} else {
		roster = r.state.SideA
	}
	enemies := make([]*Unit, 0, len(roster))
	for i := range roster {
		if roster[i].Alive() {
			enemies = append(enemies, &roster[i])
		}
	}
	return enemies
}

func (r *Resolver) livingAllies(side Side) []*Unit {
	var roster []Unit
	if side == SideA {
		roster = r.state.SideA
	} else {
		roster = r.state.SideB
	}
	allies := make([]*Unit, 0, len(roster))
	for i := range roster {
		if roster[i].Alive() {
			allies = append(allies, &roster[i])
		}
	}
	return allies
}

// lowestHealth is the fixed default targeting policy: the living enemy with
// the least current health, first-listed on ties.
func lowestHealth(units []*Unit) *Unit {
	chosen := units[0]
	for _, unit := range units[1:] {
		if unit.Health < chosen.Health {
			chosen = unit
		}
	}
	return chosen
}

// readySkill returns the first castable skill, or nil when the unit should
// fall back to a basic attack. Casting requires the mana pool to have reached
// the cast threshold and the skill itself to be affordable and off cooldown.
func (r *Resolver) readySkill(actor *Unit) *Skill {
	if actor.Mana < r.cfg.CastManaThreshold {
		return nil
	}
	for i := range actor.Skills {
		skill := &actor.Skills[i]
		if skill.Ready() && actor.Mana >= skill.ManaCost {
			return skill
		}
	}
	return nil
}

func (r *Resolver) effectiveStats(u *Unit) stats.Values {
	base := u.Base.Apply(terrain.Modifiers(r.state.Terrain.At(u.X, u.Y)))
	return u.Status.ApplyTo(base)
}

func (r *Resolver) basicAttack(actor, target *Unit, now time.Time) {
	att := r.effectiveStats(actor)
	def := r.effectiveStats(target)
	raw := att[stats.StatAttack] * (1 - def[stats.StatDefense]/100)
	if raw < 0 {
		raw = 0
	}
	crit := false
	rate := att[stats.StatCritRate]
	if rate > 1 {
		rate = 1
	}
	if rate > 0 && simrand.Float(r.rng) < rate {
		multiplier := att[stats.StatCritMultiplier]
		if multiplier <= 0 {
			multiplier = 1
		}
		raw *= multiplier
		crit = true
	}
	damage := int(math.Floor(raw))
	message := fmt.Sprintf("%s hits %s for %d", actor.Name, target.Name, damage)
	if crit {
		message = fmt.Sprintf("%s critically hits %s for %d", actor.Name, target.Name, damage)
	}
	r.appendLog(LogEntry{
		Round:    r.state.Round,
		Time:     now,
		ActorID:  actor.ID,
		Action:   ActionAttack,
		TargetID: target.ID,
		Value:    damage,
		Message:  message,
	})
	r.applyDamage(actor, target, damage, now)

	actor.Mana = clampInt(actor.Mana+r.cfg.ManaPerAttack, 0, actor.MaxMana())
}

func (r *Resolver) castSkill(actor *Unit, skill *Skill, target *Unit, enemies []*Unit, now time.Time) {
	actor.Mana = clampInt(actor.Mana-skill.ManaCost, 0, actor.MaxMana())
	// Offset by one so the end-of-round decrement leaves the configured
	// cooldown in place; unused skills net a single decrement.
	skill.Remaining = skill.Cooldown + 1

	att := r.effectiveStats(actor)
	for _, victim := range r.skillVictims(skill, target, enemies) {
		def := r.effectiveStats(victim)
		raw := (skill.BaseDamage + att[stats.StatMagicPower]) * (1 - def[stats.StatMagicResist]/100)
		if raw < 0 {
			raw = 0
		}
		damage := int(math.Floor(raw))
		r.appendLog(LogEntry{
			Round:    r.state.Round,
			Time:     now,
			ActorID:  actor.ID,
			Action:   ActionSkill,
			TargetID: victim.ID,
			Value:    damage,
			Message:  fmt.Sprintf("%s casts %s on %s for %d", actor.Name, skill.Name, victim.Name, damage),
		})
		r.applyDamage(actor, victim, damage, now)
	}

	for _, effect := range skill.Effects {
		r.applySkillEffect(actor, skill, effect, target, now)
	}
}

// skillVictims resolves a skill's target shape against the chosen primary
// target. Self- and ally-directed shapes deal no roster damage; their work
// happens through secondary effects.
func (r *Resolver) skillVictims(skill *Skill, target *Unit, enemies []*Unit) []*Unit {
	switch skill.Shape {
	case ShapeAll:
		return enemies
	case ShapeArea:
		victims := make([]*Unit, 0, len(enemies))
		for _, enemy := range enemies {
			if chebyshev(enemy.X-target.X, enemy.Y-target.Y) <= 1 {
				victims = append(victims, enemy)
			}
		}
		return victims
	case ShapeSelf, ShapeAlly:
		return nil
	default:
		return []*Unit{target}
	}
}

func (r *Resolver) applySkillEffect(actor *Unit, skill *Skill, effect SkillEffect, target *Unit, now time.Time) {
	switch effect.Kind {
	case SkillEffectDamage:
		if !target.Alive() {
			return
		}
		damage := int(math.Floor(effect.Magnitude))
		if damage <= 0 {
			return
		}
		r.appendLog(LogEntry{
			Round:    r.state.Round,
			Time:     now,
			ActorID:  actor.ID,
			Action:   ActionSkill,
			TargetID: target.ID,
			Value:    damage,
			Message:  fmt.Sprintf("%s follows up on %s for %d", skill.Name, target.Name, damage),
		})
		r.applyDamage(actor, target, damage, now)
	case SkillEffectHeal:
		recipient := actor
		if skill.Shape == ShapeAlly {
			if allies := r.livingAllies(actor.Side); len(allies) > 0 {
				recipient = lowestHealth(allies)
			}
		}
		healed := int(math.Floor(effect.Magnitude * r.cfg.HealingEfficiency))
		if healed <= 0 {
			return
		}
		before := recipient.Health
		recipient.Health = clampInt(recipient.Health+healed, 0, recipient.MaxHealth())
		r.appendLog(LogEntry{
			Round:    r.state.Round,
			Time:     now,
			ActorID:  actor.ID,
			Action:   ActionHeal,
			TargetID: recipient.ID,
			Value:    recipient.Health - before,
			Message:  fmt.Sprintf("%s restores %d health to %s", skill.Name, recipient.Health-before, recipient.Name),
		})
	case SkillEffectBuff:
		actor.Status.Add(status.Effect{
			Source:    actor.ID,
			Name:      skill.Name,
			Kind:      status.KindBeneficial,
			Magnitude: effect.Magnitude,
			Duration:  effect.Duration,
			Stackable: true,
			Deltas:    effect.Deltas,
		})
		r.appendLog(LogEntry{
			Round:   r.state.Round,
			Time:    now,
			ActorID: actor.ID,
			Action:  ActionBuff,
			Message: fmt.Sprintf("%s empowers %s", skill.Name, actor.Name),
		})
	case SkillEffectDebuff:
		if !target.Alive() {
			return
		}
		target.Status.Add(status.Effect{
			Source:    actor.ID,
			Name:      skill.Name,
			Kind:      status.KindHarmful,
			Magnitude: effect.Magnitude,
			Duration:  effect.Duration,
			Deltas:    effect.Deltas,
		})
		r.appendLog(LogEntry{
			Round:    r.state.Round,
			Time:     now,
			ActorID:  actor.ID,
			Action:   ActionDebuff,
			TargetID: target.ID,
			Message:  fmt.Sprintf("%s weakens %s", skill.Name, target.Name),
		})
	case SkillEffectStun:
		if !target.Alive() {
			return
		}
		target.Status.Add(status.Effect{
			Source:   actor.ID,
			Name:     stunEffectName,
			Kind:     status.KindHarmful,
			Duration: effect.Duration,
		})
		r.appendLog(LogEntry{
			Round:    r.state.Round,
			Time:     now,
			ActorID:  actor.ID,
			Action:   ActionStun,
			TargetID: target.ID,
			Message:  fmt.Sprintf("%s stuns %s", skill.Name, target.Name),
		})
	case SkillEffectMovement:
		if effect.Distance == 0 {
			return
		}
		fromX, fromY := actor.X, actor.Y
		actor.X = clampInt(actor.X+stepToward(target.X-actor.X, effect.Distance), 0, r.cfg.GridWidth-1)
		actor.Y = clampInt(actor.Y+stepToward(target.Y-actor.Y, effect.Distance), 0, r.cfg.GridHeight-1)
		if actor.X == fromX && actor.Y == fromY {
			return
		}
		r.appendLog(LogEntry{
			Round:   r.state.Round,
			Time:    now,
			ActorID: actor.ID,
			Action:  ActionMove,
			Message: fmt.Sprintf("%s repositions to (%d,%d)", actor.Name, actor.X, actor.Y),
		})
	}
}

func (r *Resolver) applyDamage(actor, target *Unit, damage int, now time.Time) {
	if damage <= 0 {
		return
	}
	target.Health -= damage
	if target.Health <= 0 {
		target.Health = 0
		r.appendLog(LogEntry{
			Round:    r.state.Round,
			Time:     now,
			ActorID:  target.ID,
			Action:   ActionDeath,
			TargetID: target.ID,
			Message:  fmt.Sprintf("%s falls", target.Name),
		})
		combatlog.UnitDefeated(context.Background(), r.pub, r.state.Round,
			logging.EntityRef{ID: actor.ID, Kind: logging.EntityKindUnit},
			logging.EntityRef{ID: target.ID, Kind: logging.EntityKindUnit},
			combatlog.UnitDefeatedPayload{KillerID: actor.ID, Damage: damage}, nil)
	}
}

func (r *Resolver) decrementCooldowns() {
	forEachUnit(&r.state, func(unit *Unit) {
		for i := range unit.Skills {
			if unit.Skills[i].Remaining > 0 {
				unit.Skills[i].Remaining--
			}
		}
	})
}

func (r *Resolver) tickStatuses() {
	forEachUnit(&r.state, func(unit *Unit) {
		unit.Status.Tick()
	})
}

func (r *Resolver) checkTermination(now time.Time) {
	st := &r.state
	aliveA := st.living(SideA)
	aliveB := st.living(SideB)
	if aliveA > 0 && aliveB > 0 && st.Round < r.cfg.MaxRounds {
		return
	}

	st.Phase = PhaseCompleted
	switch {
	case aliveA == 0 && aliveB == 0:
		st.Winner = SideDraw
	case aliveB == 0:
		st.Winner = SideA
	case aliveA == 0:
		st.Winner = SideB
	default:
		// Round cap reached with both sides standing: more survivors win,
		// then more remaining health, else a draw.
		st.Winner = r.stalemateWinner(aliveA, aliveB)
	}
	r.appendLog(LogEntry{
		Round:   st.Round,
		Time:    now,
		Action:  ActionComplete,
		Message: fmt.Sprintf("battle complete, winner: %s", st.Winner),
	})
	combatlog.BattleCompleted(context.Background(), r.pub, st.Round, r.battleRef(),
		combatlog.BattleCompletedPayload{Winner: string(st.Winner), Rounds: st.Round}, nil)
}

func (r *Resolver) stalemateWinner(aliveA, aliveB int) Side {
	if aliveA != aliveB {
		if aliveA > aliveB {
			return SideA
		}
		return SideB
	}
	healthA := totalHealth(r.state.SideA)
	healthB := totalHealth(r.state.SideB)
	switch {
	case healthA > healthB:
		return SideA
	case healthB > healthA:
		return SideB
	default:
		return SideDraw
	}
}

func (r *Resolver) appendLog(entry LogEntry) {
	r.state.Log = append([]LogEntry{entry}, r.state.Log...)
}

func (r *Resolver) battleRef() logging.EntityRef {
	return logging.EntityRef{ID: r.cfg.BattleID, Kind: logging.EntityKindBattle}
}

func forEachUnit(st *BattleState, fn func(*Unit)) {
	for i := range st.SideA {
		fn(&st.SideA[i])
	}
	for i := range st.SideB {
		fn(&st.SideB[i])
	}
}

func totalHealth(roster []Unit) int {
	total := 0
	for i := range roster {
		if roster[i].Alive() {
			total += roster[i].Health
		}
	}
	return total
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func chebyshev(dx, dy int) int {
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

func stepToward(delta, distance int) int {
	if delta > 0 {
		if delta < distance {
			return delta
		}
		return distance
	}
	if delta < 0 {
		if -delta < distance {
			return delta
		}
		return -distance
	}
	return 0
}
