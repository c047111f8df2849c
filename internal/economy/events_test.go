package economy

import (
	"context"
	"testing"

	"emberfall/sim/internal/logging"
	economylog "emberfall/sim/internal/logging/economy"
	"emberfall/sim/internal/market"
)

func TestEngineEventStream(t *testing.T) {
	var events []logging.Event
	pub := logging.PublisherFunc(func(_ context.Context, event logging.Event) {
		events = append(events, event)
	})

	items := []market.Item{{ID: "sword", Name: "Sword", BasePrice: 3, Quantity: 1}}
	mkt := market.NewEngine(items, nil, nil, economyClock(), pub)
	e := NewEngine(Config{StartingGold: 20}, []Player{{ID: "p1", Gold: 20}}, mkt, economyClock(), pub)

	e.StartRound()
	if err := e.Purchase("p1", "sword"); err != nil {
		t.Fatalf("Purchase failed: %v", err)
	}
	if err := e.Purchase("p1", "sword"); err == nil {
		t.Fatal("second purchase should run out of stock")
	}
	if err := e.Sell("p1", "sword"); err != nil {
		t.Fatalf("Sell failed: %v", err)
	}

	counts := make(map[logging.EventType]int)
	for _, event := range events {
		counts[event.Type]++
	}
	if counts[economylog.EventIncomeDistributed] != 1 {
		t.Fatalf("income events = %d, want 1", counts[economylog.EventIncomeDistributed])
	}
	if counts[economylog.EventPurchaseCompleted] != 1 {
		t.Fatalf("purchase events = %d, want 1", counts[economylog.EventPurchaseCompleted])
	}
	if counts[economylog.EventPurchaseFailed] != 1 {
		t.Fatalf("purchase failure events = %d, want 1", counts[economylog.EventPurchaseFailed])
	}
	if counts[economylog.EventSaleCompleted] != 1 {
		t.Fatalf("sale events = %d, want 1", counts[economylog.EventSaleCompleted])
	}
	if counts[economylog.EventMarketRepriced] == 0 {
		t.Fatal("expected at least one repricing event")
	}

	for _, event := range events {
		if event.Type != economylog.EventPurchaseFailed {
			continue
		}
		payload, ok := event.Payload.(economylog.PurchaseFailedPayload)
		if !ok {
			t.Fatalf("purchase_failed payload has type %T", event.Payload)
		}
		if payload.Reason != "out of stock" {
			t.Fatalf("failure reason = %q, want out of stock", payload.Reason)
		}
		if event.Severity != logging.SeverityWarn {
			t.Fatalf("purchase_failed severity = %d, want warn", event.Severity)
		}
	}
}
