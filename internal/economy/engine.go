package economy

import (
	"context"
	"math"
	"time"

	"emberfall/sim/internal/logging"
	economylog "emberfall/sim/internal/logging/economy"
	"emberfall/sim/internal/market"
)

// Engine owns one trial's economy state. Like the combat resolver it is
// strictly single-threaded; one engine per trial.
type Engine struct {
	cfg     Config
	round   int
	phase   Phase
	players map[string]*Player
	order   []string
	market  *market.Engine
	events  []RateEvent
	clock   logging.Clock
	pub     logging.Publisher
}

// NewEngine copies the player roster in and wires the market engine that buy
// and sell requests route through.
func NewEngine(cfg Config, players []Player, mkt *market.Engine, clock logging.Clock, pub logging.Publisher) *Engine {
	cfg = cfg.Normalized()
	if clock == nil {
		clock = logging.ClockFunc(time.Now)
	}
	if pub == nil {
		pub = logging.NopPublisher()
	}
	e := &Engine{
		cfg:     cfg,
		phase:   PhasePreparation,
		players: make(map[string]*Player, len(players)),
		order:   make([]string, 0, len(players)),
		market:  mkt,
		clock:   clock,
		pub:     pub,
	}
	for _, player := range players {
		if player.ID == "" {
			continue
		}
		copied := player.clone()
		if copied.Gold == 0 {
			copied.Gold = cfg.StartingGold
		}
		if copied.Level == 0 {
			copied.Level = 1
		}
		if copied.Items == nil {
			copied.Items = make(map[string]int)
		}
		e.players[copied.ID] = &copied
		e.order = append(e.order, copied.ID)
	}
	return e
}

// Round returns the current round number.
func (e *Engine) Round() int {
	return e.round
}

// Phase returns the current phase.
func (e *Engine) Phase() Phase {
	return e.phase
}

// AddEvent installs a timed global rate event.
func (e *Engine) AddEvent(event RateEvent) {
	if event.RoundsLeft <= 0 {
		return
	}
	e.events = append(e.events, event)
}

// StartRound advances to the next round: bumps the counter, resets the phase
// to preparation, reprices the market, and distributes income to every
// player. Income is base + interest (floor of gold × rate, capped) + the
// streak bonus looked up from the capped bonus table.
func (e *Engine) StartRound() {
	e.round++
	e.phase = PhasePreparation
	if e.market != nil {
		e.market.SetRound(e.round)
		e.market.UpdatePrices()
	}

	rate := e.effectiveInterestRate()
	baseBonus := e.eventIncomeDelta()
	for _, id := range e.order {
		player := e.players[id]
		base := e.cfg.BaseIncome + baseBonus
		interest := int(math.Floor(float64(player.Gold) * rate))
		if interest > e.cfg.InterestCap {
			interest = e.cfg.InterestCap
		}
		if interest < 0 {
			interest = 0
		}
		streak := e.streakBonus(player)
		total := base + interest + streak
		if total < 0 {
			total = 0
		}
		player.Gold += total
		economylog.IncomeDistributed(context.Background(), e.pub, e.round,
			logging.EntityRef{ID: player.ID, Kind: logging.EntityKindPlayer},
			economylog.IncomePayload{Base: base, Interest: interest, StreakBonus: streak, Total: total}, nil)
	}

	e.ageEvents()
}

// AdvancePhase cycles preparation → combat → shopping. StartRound resets to
// preparation.
func (e *Engine) AdvancePhase() Phase {
	switch e.phase {
	case PhasePreparation:
		e.phase = PhaseCombat
	case PhaseCombat:
		e.phase = PhaseShopping
	default:
		e.phase = PhasePreparation
	}
	return e.phase
}

func (e *Engine) effectiveInterestRate() float64 {
	rate := e.cfg.InterestRate
	for _, event := range e.events {
		if event.RoundsLeft > 0 {
			rate += event.InterestDelta
		}
	}
	if rate < 0 {
		rate = 0
	}
	return rate
}

func (e *Engine) eventIncomeDelta() int {
	delta := 0
	for _, event := range e.events {
		if event.RoundsLeft > 0 {
			delta += event.IncomeDelta
		}
	}
	return delta
}

func (e *Engine) ageEvents() {
	remaining := e.events[:0]
	for _, event := range e.events {
		event.RoundsLeft--
		if event.RoundsLeft > 0 {
			remaining = append(remaining, event)
		}
	}
	e.events = remaining
	if len(e.events) == 0 {
		e.events = nil
	}
}

// streakBonus looks up the bonus for the player's active streak. Streaks past
// the table length reuse the last entry.
func (e *Engine) streakBonus(player *Player) int {
	lookup := func(table []int, streak int) int {
		if streak <= 0 || len(table) == 0 {
			return 0
		}
		if streak > len(table) {
			streak = len(table)
		}
		return table[streak-1]
	}
	if player.WinStreak > 0 {
		return lookup(e.cfg.WinStreakBonus, player.WinStreak)
	}
	return lookup(e.cfg.LoseStreakBonus, player.LoseStreak)
}

// Purchase buys one unit of an item for a player. Failures are reported to
// the caller and leave the player, the item stock, and the transaction log
// untouched.
func (e *Engine) Purchase(playerID, itemID string) error {
	player, ok := e.players[playerID]
	if !ok {
		e.logPurchaseFailure(playerID, itemID, "unknown player")
		return ErrUnknownPlayer
	}
	if e.market == nil {
		e.logPurchaseFailure(playerID, itemID, "no market")
		return ErrUnknownItem
	}
	item, ok := e.market.Item(itemID)
	if !ok {
		e.logPurchaseFailure(playerID, itemID, "unknown item")
		return ErrUnknownItem
	}
	if item.Quantity <= 0 {
		e.logPurchaseFailure(playerID, itemID, "out of stock")
		return ErrOutOfStock
	}
	cost := int(math.Ceil(item.Price))
	if player.Gold < cost {
		e.logPurchaseFailure(playerID, itemID, "insufficient gold")
		return ErrInsufficientGold
	}

	if !e.market.AdjustQuantity(itemID, -1) {
		e.logPurchaseFailure(playerID, itemID, "out of stock")
		return ErrOutOfStock
	}
	player.Gold -= cost
	player.Items[itemID]++
	e.market.RecordTransaction(market.Transaction{
		ItemID:    itemID,
		Quantity:  1,
		Direction: market.DirectionBuy,
		Price:     item.Price,
		PlayerID:  playerID,
	})
	economylog.PurchaseCompleted(context.Background(), e.pub, e.round,
		logging.EntityRef{ID: playerID, Kind: logging.EntityKindPlayer},
		economylog.PurchasePayload{ItemID: itemID, Price: item.Price}, nil)
	return nil
}

// Sell releases one held item back to the market. Proceeds are the current
// price scaled by the configured selling return, floored.
func (e *Engine) Sell(playerID, itemID string) error {
	player, ok := e.players[playerID]
	if !ok {
		return ErrUnknownPlayer
	}
	held, ok := player.Items[itemID]
	if !ok || held <= 0 {
		return ErrItemNotOwned
	}
	if e.market == nil {
		return ErrUnknownItem
	}
	item, ok := e.market.Item(itemID)
	if !ok {
		return ErrUnknownItem
	}

	proceeds := math.Floor(item.Price * e.cfg.SellingReturn)
	player.Gold += int(proceeds)
	if held == 1 {
		delete(player.Items, itemID)
	} else {
		player.Items[itemID] = held - 1
	}
	e.market.AdjustQuantity(itemID, 1)
	e.market.RecordTransaction(market.Transaction{
		ItemID:    itemID,
		Quantity:  1,
		Direction: market.DirectionSell,
		Price:     item.Price,
		PlayerID:  playerID,
	})
	economylog.SaleCompleted(context.Background(), e.pub, e.round,
		logging.EntityRef{ID: playerID, Kind: logging.EntityKindPlayer},
		economylog.SalePayload{ItemID: itemID, Proceeds: proceeds}, nil)
	return nil
}

// UpdatePlayerStatus records a battle result: a win extends the winning
// streak and clears the losing streak, a loss does the reverse. Unknown
// players are a no-op.
func (e *Engine) UpdatePlayerStatus(playerID string, won bool) {
	player, ok := e.players[playerID]
	if !ok {
		return
	}
	if won {
		player.WinStreak++
		player.LoseStreak = 0
	} else {
		player.LoseStreak++
		player.WinStreak = 0
	}
}

// AdjustGold applies a delta from a caller-owned action (level purchases,
// rerolls). Debits that would overdraw are rejected.
func (e *Engine) AdjustGold(playerID string, delta int) bool {
	player, ok := e.players[playerID]
	if !ok {
		return false
	}
	if player.Gold+delta < 0 {
		return false
	}
	player.Gold += delta
	return true
}

// LevelUp spends the configured level cost if the player can afford it.
func (e *Engine) LevelUp(playerID string) bool {
	player, ok := e.players[playerID]
	if !ok {
		return false
	}
	if player.Gold < e.cfg.LevelCost {
		return false
	}
	player.Gold -= e.cfg.LevelCost
	player.Level++
	return true
}

// PlayerView returns a copy of one player.
func (e *Engine) PlayerView(playerID string) (Player, bool) {
	player, ok := e.players[playerID]
	if !ok {
		return Player{}, false
	}
	return player.clone(), true
}

// Snapshot returns the full economy state by value.
func (e *Engine) Snapshot() State {
	state := State{
		Round:           e.round,
		Phase:           e.phase,
		InterestRate:    e.effectiveInterestRate(),
		WinStreakBonus:  append([]int(nil), e.cfg.WinStreakBonus...),
		LoseStreakBonus: append([]int(nil), e.cfg.LoseStreakBonus...),
		Events:          append([]RateEvent(nil), e.events...),
	}
	state.Players = make([]Player, 0, len(e.order))
	for _, id := range e.order {
		state.Players = append(state.Players, e.players[id].clone())
	}
	if e.market != nil {
		state.Market = e.market.Snapshot()
	}
	return state
}

func (e *Engine) logPurchaseFailure(playerID, itemID, reason string) {
	economylog.PurchaseFailed(context.Background(), e.pub, e.round,
		logging.EntityRef{ID: playerID, Kind: logging.EntityKindPlayer},
		economylog.PurchaseFailedPayload{ItemID: itemID, Reason: reason}, nil)
}
