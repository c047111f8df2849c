package combat

import (
	"context"
	"testing"

	"emberfall/sim/internal/logging"
	combatlog "emberfall/sim/internal/logging/combat"
)

func TestResolverPublishesEventStream(t *testing.T) {
	var events []logging.Event
	pub := logging.PublisherFunc(func(_ context.Context, event logging.Event) {
		events = append(events, event)
	})

	r, err := NewResolver(Config{BattleID: "stream"}, []Unit{fighter("a-0", 40, 0, 5)}, []Unit{fighter("b-0", 0, 0, 3)}, nil, fixedClock(), pub)
	if err != nil {
		t.Fatalf("NewResolver failed: %v", err)
	}
	snapshot := runToCompletion(t, r)

	counts := make(map[logging.EventType]int)
	for _, event := range events {
		counts[event.Type]++
		if event.Category != logging.CategoryCombat {
			t.Fatalf("event %s carries category %q", event.Type, event.Category)
		}
	}
	if counts[combatlog.EventRoundResolved] != snapshot.Round {
		t.Fatalf("round_resolved count = %d, want one per round (%d)", counts[combatlog.EventRoundResolved], snapshot.Round)
	}
	if counts[combatlog.EventBattleCompleted] != 1 {
		t.Fatalf("battle_completed count = %d, want 1", counts[combatlog.EventBattleCompleted])
	}
	if counts[combatlog.EventUnitDefeated] != 1 {
		t.Fatalf("unit_defeated count = %d, want 1", counts[combatlog.EventUnitDefeated])
	}

	for _, event := range events {
		if event.Type != combatlog.EventBattleCompleted {
			continue
		}
		payload, ok := event.Payload.(combatlog.BattleCompletedPayload)
		if !ok {
			t.Fatalf("battle_completed payload has type %T", event.Payload)
		}
		if payload.Winner != string(SideA) {
			t.Fatalf("winner = %s, want sideA", payload.Winner)
		}
		if event.Actor.ID != "stream" || event.Actor.Kind != logging.EntityKindBattle {
			t.Fatalf("battle_completed actor = %+v", event.Actor)
		}
	}
}
