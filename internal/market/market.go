// Package market maintains per-item price, supply, and demand state derived
// from a rolling transaction history.
package market

import (
	"time"

	"github.com/google/uuid"
)

// Direction distinguishes buy orders from sell orders.
type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
)

// Item is one market listing. BasePrice is the immutable reference point;
// Price is recomputed only by the engine and always stays within
// [PriceFloorRatio, PriceCeilRatio] of the base.
type Item struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	BasePrice float64 `json:"basePrice"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Rarity    int     `json:"rarity"`
	Type      string  `json:"type"`
	Demand    int     `json:"demand"`
	Supply    int     `json:"supply"`
}

// Transaction is an immutable trade record. The transaction log is the sole
// source of truth for the supply and demand used by repricing.
type Transaction struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"itemId"`
	Quantity  int       `json:"quantity"`
	Direction Direction `json:"direction"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
	PlayerID  string    `json:"playerId"`
}

// Profile is a named market behavior: relative buy/sell weights and the
// quantity range drawn per simulated trade.
type Profile struct {
	BuyWeight   float64 `yaml:"buyWeight" json:"buyWeight"`
	SellWeight  float64 `yaml:"sellWeight" json:"sellWeight"`
	MinQuantity int     `yaml:"minQuantity" json:"minQuantity"`
	MaxQuantity int     `yaml:"maxQuantity" json:"maxQuantity"`
}

const (
	// Volatility scales how hard the buy/sell imbalance moves prices.
	Volatility = 0.05
	// PriceFloorRatio and PriceCeilRatio bound prices relative to base.
	PriceFloorRatio = 0.5
	PriceCeilRatio  = 2.0

	// repriceEvery triggers a repricing pass on every Nth recorded
	// transaction, bounding repricing cost during large batch runs.
	repriceEvery = 5
	// historyWindow is how many recent transactions per item feed repricing.
	historyWindow = 10
	// jitterRange is the symmetric random price perturbation per pass.
	jitterRange = 0.01
)

// DefaultProfile is the fallback for unknown archetype names.
func DefaultProfile() Profile {
	return Profile{BuyWeight: 0.5, SellWeight: 0.5, MinQuantity: 1, MaxQuantity: 3}
}

func newTransactionID() string {
	return uuid.NewString()
}
