package combat

import (
	"context"

	"emberfall/sim/internal/logging"
)

const (
	// EventBattleCompleted is emitted once a battle reaches a terminal state.
	EventBattleCompleted logging.EventType = "combat.battle_completed"
	// EventUnitDefeated is emitted when a unit's health reaches zero.
	EventUnitDefeated logging.EventType = "combat.unit_defeated"
	// EventRoundResolved is emitted after every full combat round.
	EventRoundResolved logging.EventType = "combat.round_resolved"
)

// BattleCompletedPayload describes the battle outcome.
type BattleCompletedPayload struct {
	Winner string `json:"winner"`
	Rounds int    `json:"rounds"`
}

// UnitDefeatedPayload describes a kill.
type UnitDefeatedPayload struct {
	KillerID string `json:"killerId,omitempty"`
	Damage   int    `json:"damage,omitempty"`
}

// RoundResolvedPayload summarizes a resolved round.
type RoundResolvedPayload struct {
	AliveSideA int `json:"aliveSideA"`
	AliveSideB int `json:"aliveSideB"`
	Actions    int `json:"actions"`
}

// BattleCompleted publishes a terminal battle event.
func BattleCompleted(ctx context.Context, pub logging.Publisher, round int, battle logging.EntityRef, payload BattleCompletedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventBattleCompleted,
		Round:    round,
		Actor:    battle,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
		Extra:    extra,
	})
}

// UnitDefeated publishes a unit death event.
func UnitDefeated(ctx context.Context, pub logging.Publisher, round int, actor, target logging.EntityRef, payload UnitDefeatedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventUnitDefeated,
		Round:    round,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
		Extra:    extra,
	})
}

// RoundResolved publishes a per-round summary event.
func RoundResolved(ctx context.Context, pub logging.Publisher, round int, battle logging.EntityRef, payload RoundResolvedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventRoundResolved,
		Round:    round,
		Actor:    battle,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCombat,
		Payload:  payload,
		Extra:    extra,
	})
}
