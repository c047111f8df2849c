package economy

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"emberfall/sim/internal/logging"
	"emberfall/sim/internal/market"
)

func economyClock() logging.Clock {
	at := time.Unix(1_700_000_000, 0).UTC()
	return logging.ClockFunc(func() time.Time { return at })
}

func testEngine(t *testing.T, cfg Config, players []Player, items []market.Item) *Engine {
	t.Helper()
	var mkt *market.Engine
	if items != nil {
		mkt = market.NewEngine(items, nil, nil, economyClock(), nil)
	}
	return NewEngine(cfg, players, mkt, economyClock(), nil)
}

func mustPlayer(t *testing.T, e *Engine, id string) Player {
	t.Helper()
	player, ok := e.PlayerView(id)
	if !ok {
		t.Fatalf("player %s missing", id)
	}
	return player
}

func TestNewEngineAppliesStartingDefaults(t *testing.T) {
	e := testEngine(t, Config{}, []Player{{ID: "p1"}}, nil)
	player := mustPlayer(t, e, "p1")
	if player.Gold != 10 {
		t.Fatalf("gold = %d, want starting gold 10", player.Gold)
	}
	if player.Level != 1 {
		t.Fatalf("level = %d, want 1", player.Level)
	}
}

func TestStartRoundIncome(t *testing.T) {
	cases := []struct {
		name     string
		cfg      Config
		player   Player
		wantGold int
	}{
		{
			name:     "base plus interest",
			player:   Player{ID: "p1", Gold: 10},
			wantGold: 16, // 10 + base 5 + floor(10 * 0.1)
		},
		{
			name:     "interest is capped",
			player:   Player{ID: "p1", Gold: 1000},
			wantGold: 1010, // base 5 + cap 5
		},
		{
			name:     "win streak bonus",
			player:   Player{ID: "p1", Gold: 10, WinStreak: 2},
			wantGold: 17, // base 5 + interest 1 + bonus table [0,1,1,2,3][1]
		},
		{
			name:     "streak past table reuses last entry",
			player:   Player{ID: "p1", Gold: 10, WinStreak: 9},
			wantGold: 19, // base 5 + interest 1 + bonus 3
		},
		{
			name:     "lose streak consoles too",
			player:   Player{ID: "p1", Gold: 10, LoseStreak: 4},
			wantGold: 18, // base 5 + interest 1 + bonus 2
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := testEngine(t, tc.cfg, []Player{tc.player}, nil)
			e.StartRound()
			if got := mustPlayer(t, e, "p1").Gold; got != tc.wantGold {
				t.Fatalf("gold after round = %d, want %d", got, tc.wantGold)
			}
			if e.Round() != 1 {
				t.Fatalf("round = %d, want 1", e.Round())
			}
			if e.Phase() != PhasePreparation {
				t.Fatalf("phase = %s, want preparation", e.Phase())
			}
		})
	}
}

func TestRateEventsModifyIncome(t *testing.T) {
	e := testEngine(t, Config{}, []Player{{ID: "p1", Gold: 10}}, nil)
	e.AddEvent(RateEvent{Name: "festival", RoundsLeft: 1, IncomeDelta: 3, InterestDelta: 0.1})
	e.StartRound()
	// base 5 + event 3 + floor(10 * 0.2) = 10.
	if got := mustPlayer(t, e, "p1").Gold; got != 20 {
		t.Fatalf("gold = %d, want 20", got)
	}
	// The one-round event has aged out.
	e.StartRound()
	if got := mustPlayer(t, e, "p1").Gold; got != 27 {
		t.Fatalf("gold = %d after event expiry, want 27", got)
	}
}

func TestAdvancePhaseCycles(t *testing.T) {
	e := testEngine(t, Config{}, []Player{{ID: "p1"}}, nil)
	want := []Phase{PhaseCombat, PhaseShopping, PhasePreparation, PhaseCombat}
	for i, phase := range want {
		if got := e.AdvancePhase(); got != phase {
			t.Fatalf("advance %d = %s, want %s", i, got, phase)
		}
	}
}

func TestPurchaseFailuresLeaveStateUntouched(t *testing.T) {
	items := []market.Item{
		{ID: "sword", Name: "Sword", BasePrice: 3, Quantity: 1},
		{ID: "relic", Name: "Relic", BasePrice: 50, Quantity: 0},
	}
	e := testEngine(t, Config{StartingGold: 2}, []Player{{ID: "p1", Gold: 2}}, items)
	before := e.Snapshot()

	cases := []struct {
		name    string
		player  string
		item    string
		wantErr error
	}{
		{name: "unknown player", player: "ghost", item: "sword", wantErr: ErrUnknownPlayer},
		{name: "unknown item", player: "p1", item: "ghost", wantErr: ErrUnknownItem},
		{name: "out of stock", player: "p1", item: "relic", wantErr: ErrOutOfStock},
		{name: "insufficient gold", player: "p1", item: "sword", wantErr: ErrInsufficientGold},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := e.Purchase(tc.player, tc.item); !errors.Is(err, tc.wantErr) {
				t.Fatalf("Purchase error = %v, want %v", err, tc.wantErr)
			}
			if !reflect.DeepEqual(before, e.Snapshot()) {
				t.Fatal("failed purchase mutated engine state")
			}
		})
	}
}

func TestPurchaseDebitsCeilOfPrice(t *testing.T) {
	items := []market.Item{{ID: "sword", Name: "Sword", BasePrice: 10, Price: 7.2, Quantity: 2}}
	e := testEngine(t, Config{StartingGold: 20}, []Player{{ID: "p1", Gold: 20}}, items)

	if err := e.Purchase("p1", "sword"); err != nil {
		t.Fatalf("Purchase failed: %v", err)
	}
	player := mustPlayer(t, e, "p1")
	if player.Gold != 12 {
		t.Fatalf("gold = %d, want 12 (ceil of 7.2 debited)", player.Gold)
	}
	if player.Items["sword"] != 1 {
		t.Fatalf("held swords = %d, want 1", player.Items["sword"])
	}
	state := e.Snapshot()
	if state.Market[0].Quantity != 1 {
		t.Fatalf("market stock = %d, want 1", state.Market[0].Quantity)
	}
}

func TestSellReturnsFlooredProceedsAndRestocks(t *testing.T) {
	items := []market.Item{{ID: "sword", Name: "Sword", BasePrice: 10, Quantity: 5}}
	e := testEngine(t, Config{StartingGold: 20, SellingReturn: 0.7}, []Player{
		{ID: "p1", Gold: 20, Items: map[string]int{"sword": 1}},
	}, items)

	if err := e.Sell("p1", "sword"); err != nil {
		t.Fatalf("Sell failed: %v", err)
	}
	player := mustPlayer(t, e, "p1")
	if player.Gold != 27 {
		t.Fatalf("gold = %d, want 27 (floor of 10 * 0.7 credited)", player.Gold)
	}
	if _, held := player.Items["sword"]; held {
		t.Fatal("sold-out holding should be removed")
	}
	state := e.Snapshot()
	if state.Market[0].Quantity != 6 {
		t.Fatalf("market stock = %d after restock, want 6", state.Market[0].Quantity)
	}

	if err := e.Sell("p1", "sword"); !errors.Is(err, ErrItemNotOwned) {
		t.Fatalf("selling an unowned item returned %v, want ErrItemNotOwned", err)
	}
}

func TestUpdatePlayerStatusStreaks(t *testing.T) {
	e := testEngine(t, Config{}, []Player{{ID: "p1"}}, nil)
	e.UpdatePlayerStatus("p1", true)
	e.UpdatePlayerStatus("p1", true)
	player := mustPlayer(t, e, "p1")
	if player.WinStreak != 2 || player.LoseStreak != 0 {
		t.Fatalf("streaks = %d/%d after two wins, want 2/0", player.WinStreak, player.LoseStreak)
	}
	e.UpdatePlayerStatus("p1", false)
	player = mustPlayer(t, e, "p1")
	if player.WinStreak != 0 || player.LoseStreak != 1 {
		t.Fatalf("streaks = %d/%d after a loss, want 0/1", player.WinStreak, player.LoseStreak)
	}
	// Unknown players are ignored, not created.
	e.UpdatePlayerStatus("ghost", true)
	if _, ok := e.PlayerView("ghost"); ok {
		t.Fatal("unknown player was created by a status update")
	}
}

func TestAdjustGoldRejectsOverdraw(t *testing.T) {
	e := testEngine(t, Config{}, []Player{{ID: "p1", Gold: 5}}, nil)
	if e.AdjustGold("p1", -6) {
		t.Fatal("overdraw should be rejected")
	}
	if !e.AdjustGold("p1", -5) {
		t.Fatal("exact drain should succeed")
	}
	if got := mustPlayer(t, e, "p1").Gold; got != 0 {
		t.Fatalf("gold = %d, want 0", got)
	}
}

func TestLevelUpSpendsLevelCost(t *testing.T) {
	e := testEngine(t, Config{LevelCost: 4}, []Player{{ID: "p1", Gold: 5}}, nil)
	if !e.LevelUp("p1") {
		t.Fatal("affordable level up failed")
	}
	player := mustPlayer(t, e, "p1")
	if player.Gold != 1 || player.Level != 2 {
		t.Fatalf("gold/level = %d/%d, want 1/2", player.Gold, player.Level)
	}
	if e.LevelUp("p1") {
		t.Fatal("unaffordable level up succeeded")
	}
}

func TestSnapshotIsDefensiveCopy(t *testing.T) {
	e := testEngine(t, Config{}, []Player{{ID: "p1", Gold: 10, Items: map[string]int{"sword": 1}}}, nil)
	snapshot := e.Snapshot()
	snapshot.Players[0].Gold = 999
	snapshot.Players[0].Items["sword"] = 99
	fresh := mustPlayer(t, e, "p1")
	if fresh.Gold != 10 || fresh.Items["sword"] != 1 {
		t.Fatal("mutating a snapshot leaked into engine state")
	}
}

func TestSnapshotSurvivesJSONRoundTrip(t *testing.T) {
	items := []market.Item{
		{ID: "sword", Name: "Sword", BasePrice: 4, Price: 4, Quantity: 3, Rarity: 1, Type: "weapon"},
		{ID: "elixir", Name: "Elixir", BasePrice: 3, Price: 3, Quantity: 2, Rarity: 1, Type: "consumable"},
	}
	players := []Player{
		{ID: "p1", Name: "Synthetic A", Archetype: "greedy"},
		{ID: "p2", Name: "Synthetic B", Archetype: "aggressive"},
	}
	e := testEngine(t, Config{}, players, items)
	e.AddEvent(RateEvent{Name: "boom", RoundsLeft: 3, InterestDelta: 0.01})
	e.StartRound()
	if err := e.Purchase("p1", "sword"); err != nil {
		t.Fatalf("Purchase failed: %v", err)
	}
	if err := e.Purchase("p2", "elixir"); err != nil {
		t.Fatalf("Purchase failed: %v", err)
	}
	e.UpdatePlayerStatus("p1", true)
	e.UpdatePlayerStatus("p2", false)

	snapshot := e.Snapshot()
	data, err := json.Marshal(snapshot)
	if err != nil {
		t.Fatalf("marshal state: %v", err)
	}
	var decoded State
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if !reflect.DeepEqual(snapshot, decoded) {
		t.Fatal("economy state changed across the wire format")
	}
}
