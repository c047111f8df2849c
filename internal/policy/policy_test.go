package policy

import (
	"testing"

	"emberfall/sim/internal/simrand"
)

func TestDecidePriorityChain(t *testing.T) {
	offering := []string{"warden", "berserker", "cleric"}

	cases := []struct {
		name     string
		arch     Archetype
		view     View
		wantRule string
		wantAct  Action
	}{
		{
			name:     "save floor fires first",
			arch:     Archetype{SaveFloor: 10, LevelUpThreshold: 1, BuyRatio: 1, RerollRate: 1, PreferredUnits: offering},
			view:     View{Gold: 9, AvailableUnits: offering},
			wantRule: RuleSaveFloor,
			wantAct:  ActionSave,
		},
		{
			name:     "level up when certain",
			arch:     Archetype{LevelUpThreshold: 1, BuyRatio: 1, RerollRate: 1, PreferredUnits: offering},
			view:     View{Gold: 4, AvailableUnits: offering},
			wantRule: RuleLevelUp,
			wantAct:  ActionLevelUp,
		},
		{
			name:     "buy preferred when level up declines",
			arch:     Archetype{LevelUpThreshold: 0, BuyRatio: 1, RerollRate: 1, PreferredUnits: []string{"cleric"}},
			view:     View{Gold: 3, AvailableUnits: offering},
			wantRule: RuleBuy,
			wantAct:  ActionBuy,
		},
		{
			name:     "reroll when nothing preferred is offered",
			arch:     Archetype{LevelUpThreshold: 0, BuyRatio: 1, RerollRate: 1, PreferredUnits: []string{"assassin"}},
			view:     View{Gold: 3, AvailableUnits: offering},
			wantRule: RuleReroll,
			wantAct:  ActionReroll,
		},
		{
			name:     "save by default",
			arch:     Archetype{LevelUpThreshold: 0, BuyRatio: 0, RerollRate: 0, PreferredUnits: offering},
			view:     View{Gold: 100, AvailableUnits: offering},
			wantRule: RuleSaveDefault,
			wantAct:  ActionSave,
		},
		{
			name:     "gold below level floor skips level up",
			arch:     Archetype{LevelUpThreshold: 1, BuyRatio: 1, RerollRate: 1, PreferredUnits: offering},
			view:     View{Gold: 3, AvailableUnits: offering},
			wantRule: RuleBuy,
			wantAct:  ActionBuy,
		},
		{
			name:     "gold below reroll cost saves",
			arch:     Archetype{LevelUpThreshold: 0, BuyRatio: 0, RerollRate: 1},
			view:     View{Gold: 1, AvailableUnits: offering},
			wantRule: RuleSaveDefault,
			wantAct:  ActionSave,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision := Decide(tc.arch, tc.view, simrand.New("policy", tc.name))
			if decision.Rule != tc.wantRule {
				t.Fatalf("rule = %s, want %s", decision.Rule, tc.wantRule)
			}
			if decision.Action != tc.wantAct {
				t.Fatalf("action = %s, want %s", decision.Action, tc.wantAct)
			}
		})
	}
}

func TestDecideBuyPicksFromPreferredIntersection(t *testing.T) {
	arch := Archetype{LevelUpThreshold: 0, BuyRatio: 1, PreferredUnits: []string{"warden", "assassin"}}
	view := View{Gold: 10, AvailableUnits: []string{"cleric", "warden", "berserker"}}
	for i := 0; i < 20; i++ {
		decision := Decide(arch, view, simrand.New("policy", "buy"))
		if decision.Action != ActionBuy {
			t.Fatalf("action = %s, want buy", decision.Action)
		}
		if decision.Unit != "warden" {
			t.Fatalf("unit = %s, want warden (only preferred unit offered)", decision.Unit)
		}
	}
}

func TestDecideIsDeterministicPerSeed(t *testing.T) {
	arch := Builtin()["gambler"]
	view := View{Gold: 20, AvailableUnits: []string{"pyromancer", "warden", "assassin"}}
	first := Decide(arch, view, simrand.New("root", "decisions"))
	second := Decide(arch, view, simrand.New("root", "decisions"))
	if first != second {
		t.Fatalf("identically seeded decisions diverged: %+v vs %+v", first, second)
	}
}

func TestLookupFallsBackToBalanced(t *testing.T) {
	table := Builtin()
	if got := Lookup(table, "greedy").Name; got != "greedy" {
		t.Fatalf("Lookup(greedy) = %s", got)
	}
	if got := Lookup(table, "nonexistent").Name; got != DefaultArchetypeName {
		t.Fatalf("Lookup(nonexistent) = %s, want %s", got, DefaultArchetypeName)
	}
	// Even an empty table yields a usable archetype.
	if got := Lookup(nil, "anything").Name; got != DefaultArchetypeName {
		t.Fatalf("Lookup on empty table = %s, want %s", got, DefaultArchetypeName)
	}
}

func TestBuiltinArchetypesAreDistinct(t *testing.T) {
	table := Builtin()
	for _, name := range []string{"aggressive", "greedy", "balanced", "gambler"} {
		arch, ok := table[name]
		if !ok {
			t.Fatalf("missing builtin archetype %s", name)
		}
		if arch.Name != name {
			t.Fatalf("archetype %s carries name %s", name, arch.Name)
		}
		if len(arch.PreferredUnits) == 0 {
			t.Fatalf("archetype %s has no preferred units", name)
		}
	}
	if table["greedy"].SaveFloor <= table["aggressive"].SaveFloor {
		t.Fatal("greedy should hoard harder than aggressive")
	}
}
