package market

import (
	"context"
	"math/rand"
	"time"

	"emberfall/sim/internal/logging"
	economylog "emberfall/sim/internal/logging/economy"
	"emberfall/sim/internal/simrand"
)

// Engine owns the item collection and the transaction log. It is
// single-threaded like the rest of a trial; one engine instance per trial.
type Engine struct {
	items    map[string]*Item
	order    []string
	log      []Transaction
	recorded int
	profiles map[string]Profile
	rng      *rand.Rand
	clock    logging.Clock
	pub      logging.Publisher
	round    int
}

// NewEngine copies the catalog in so callers keep no aliases into engine
// state.
func NewEngine(items []Item, profiles map[string]Profile, rng *rand.Rand, clock logging.Clock, pub logging.Publisher) *Engine {
	if clock == nil {
		clock = logging.ClockFunc(time.Now)
	}
	if pub == nil {
		pub = logging.NopPublisher()
	}
	e := &Engine{
		items:    make(map[string]*Item, len(items)),
		order:    make([]string, 0, len(items)),
		profiles: make(map[string]Profile, len(profiles)),
		rng:      rng,
		clock:    clock,
		pub:      pub,
	}
	for _, item := range items {
		if item.ID == "" {
			continue
		}
		copied := item
		if copied.Price <= 0 {
			copied.Price = copied.BasePrice
		}
		e.items[copied.ID] = &copied
		e.order = append(e.order, copied.ID)
	}
	for name, profile := range profiles {
		e.profiles[name] = profile
	}
	return e
}

// SetRound stamps subsequent market events with the economy round.
func (e *Engine) SetRound(round int) {
	e.round = round
}

// Item returns a copy of one listing.
func (e *Engine) Item(id string) (Item, bool) {
	item, ok := e.items[id]
	if !ok {
		return Item{}, false
	}
	return *item, true
}

// Snapshot returns the item collection by value, in catalog order.
func (e *Engine) Snapshot() []Item {
	items := make([]Item, 0, len(e.order))
	for _, id := range e.order {
		items = append(items, *e.items[id])
	}
	return items
}

// Transactions returns a copy of the full transaction log, oldest first.
func (e *Engine) Transactions() []Transaction {
	return append([]Transaction(nil), e.log...)
}

// RecordTransaction appends a trade with an engine-assigned ID and timestamp.
// Every fifth recorded transaction since engine creation triggers an
// immediate repricing pass.
func (e *Engine) RecordTransaction(tx Transaction) {
	if tx.ItemID == "" || tx.Quantity <= 0 {
		return
	}
	tx.ID = newTransactionID()
	tx.Timestamp = e.clock.Now()
	e.log = append(e.log, tx)
	e.recorded++
	if e.recorded%repriceEvery == 0 {
		e.UpdatePrices()
	}
}

// UpdatePrices recomputes every item's price from its most recent
// transactions: demand is the buy count, supply the sell count, and the price
// moves by 1 + Volatility×(buy−sell)/max(1, buy+sell), plus a small
// symmetric jitter, clamped to the base-price band.
func (e *Engine) UpdatePrices() {
	for _, id := range e.order {
		item := e.items[id]
		buys, sells := e.recentCounts(id)
		item.Demand = buys
		item.Supply = sells
		total := buys + sells
		if total < 1 {
			total = 1
		}
		adjustment := 1 + Volatility*float64(buys-sells)/float64(total)
		price := item.Price * adjustment
		jitter := 1 + (simrand.Float(e.rng)*2-1)*jitterRange
		price *= jitter
		floor := item.BasePrice * PriceFloorRatio
		ceil := item.BasePrice * PriceCeilRatio
		if price < floor {
			price = floor
		}
		if price > ceil {
			price = ceil
		}
		item.Price = price
	}
	economylog.MarketRepriced(context.Background(), e.pub, e.round,
		logging.EntityRef{ID: "market", Kind: logging.EntityKindMarket},
		economylog.RepricedPayload{Items: len(e.order), Transactions: len(e.log)}, nil)
}

// recentCounts scans the newest transactions for an item, bounded by the
// history window.
func (e *Engine) recentCounts(itemID string) (buys, sells int) {
	seen := 0
	for i := len(e.log) - 1; i >= 0 && seen < historyWindow; i-- {
		tx := e.log[i]
		if tx.ItemID != itemID {
			continue
		}
		seen++
		if tx.Direction == DirectionBuy {
			buys++
		} else {
			sells++
		}
	}
	return buys, sells
}

// SimulateActivity records one synthetic trade for the named behavior
// profile. Unknown profile names fall back to the default profile instead of
// failing; batch runs must survive malformed samples.
func (e *Engine) SimulateActivity(profileName, playerID string) {
	if len(e.order) == 0 {
		return
	}
	profile, ok := e.profiles[profileName]
	if !ok {
		profile = DefaultProfile()
	}
	itemID := e.order[0]
	if e.rng != nil {
		itemID = e.order[e.rng.Intn(len(e.order))]
	}
	item := e.items[itemID]

	direction := DirectionSell
	totalWeight := profile.BuyWeight + profile.SellWeight
	if totalWeight <= 0 {
		totalWeight = 1
		profile.BuyWeight = 0.5
	}
	if simrand.Float(e.rng) < profile.BuyWeight/totalWeight {
		direction = DirectionBuy
	}
	quantity := simrand.IntBetween(e.rng, profile.MinQuantity, profile.MaxQuantity)
	if quantity <= 0 {
		quantity = 1
	}

	e.RecordTransaction(Transaction{
		ItemID:    itemID,
		Quantity:  quantity,
		Direction: direction,
		Price:     item.Price,
		PlayerID:  playerID,
	})
}

// AdjustQuantity moves stock by delta, rejecting changes that would take the
// quantity negative. The economy engine is the only caller.
func (e *Engine) AdjustQuantity(id string, delta int) bool {
	item, ok := e.items[id]
	if !ok {
		return false
	}
	if item.Quantity+delta < 0 {
		return false
	}
	item.Quantity += delta
	return true
}
