package economy

import (
	"context"

	"emberfall/sim/internal/logging"
)

const (
	// EventIncomeDistributed is emitted when a round's income lands.
	EventIncomeDistributed logging.EventType = "economy.income_distributed"
	// EventPurchaseFailed is emitted when a buy attempt is rejected.
	EventPurchaseFailed logging.EventType = "economy.purchase_failed"
	// EventPurchaseCompleted is emitted when a buy attempt succeeds.
	EventPurchaseCompleted logging.EventType = "economy.purchase_completed"
	// EventSaleCompleted is emitted when a sell attempt succeeds.
	EventSaleCompleted logging.EventType = "economy.sale_completed"
	// EventMarketRepriced is emitted after a market repricing pass.
	EventMarketRepriced logging.EventType = "economy.market_repriced"
)

// IncomePayload breaks a round's income into its components.
type IncomePayload struct {
	Base        int `json:"base"`
	Interest    int `json:"interest"`
	StreakBonus int `json:"streakBonus"`
	Total       int `json:"total"`
}

// PurchaseFailedPayload describes why a buy attempt was rejected.
type PurchaseFailedPayload struct {
	ItemID string `json:"itemId"`
	Reason string `json:"reason"`
}

// PurchasePayload describes a completed buy.
type PurchasePayload struct {
	ItemID string  `json:"itemId"`
	Price  float64 `json:"price"`
}

// SalePayload describes a completed sale.
type SalePayload struct {
	ItemID   string  `json:"itemId"`
	Proceeds float64 `json:"proceeds"`
}

// RepricedPayload summarizes a repricing pass.
type RepricedPayload struct {
	Items        int `json:"items"`
	Transactions int `json:"transactions"`
}

// IncomeDistributed publishes a per-player income event.
func IncomeDistributed(ctx context.Context, pub logging.Publisher, round int, player logging.EntityRef, payload IncomePayload, extra map[string]any) {
	publish(ctx, pub, EventIncomeDistributed, round, player, logging.SeverityInfo, payload, extra)
}

// PurchaseFailed publishes a rejected purchase.
func PurchaseFailed(ctx context.Context, pub logging.Publisher, round int, player logging.EntityRef, payload PurchaseFailedPayload, extra map[string]any) {
	publish(ctx, pub, EventPurchaseFailed, round, player, logging.SeverityWarn, payload, extra)
}

// PurchaseCompleted publishes a successful purchase.
func PurchaseCompleted(ctx context.Context, pub logging.Publisher, round int, player logging.EntityRef, payload PurchasePayload, extra map[string]any) {
	publish(ctx, pub, EventPurchaseCompleted, round, player, logging.SeverityInfo, payload, extra)
}

// SaleCompleted publishes a successful sale.
func SaleCompleted(ctx context.Context, pub logging.Publisher, round int, player logging.EntityRef, payload SalePayload, extra map[string]any) {
	publish(ctx, pub, EventSaleCompleted, round, player, logging.SeverityInfo, payload, extra)
}

// MarketRepriced publishes a repricing summary.
func MarketRepriced(ctx context.Context, pub logging.Publisher, round int, market logging.EntityRef, payload RepricedPayload, extra map[string]any) {
	publish(ctx, pub, EventMarketRepriced, round, market, logging.SeverityDebug, payload, extra)
}

func publish(ctx context.Context, pub logging.Publisher, eventType logging.EventType, round int, actor logging.EntityRef, severity logging.Severity, payload any, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     eventType,
		Round:    round,
		Actor:    actor,
		Severity: severity,
		Category: logging.CategoryEconomy,
		Payload:  payload,
		Extra:    extra,
	})
}
