// Package economy advances the per-round player economy: income, interest,
// streak bonuses, and validated purchase/sell flows routed through the market
// engine.
package economy

import (
	"errors"

	"emberfall/sim/internal/market"
)

// Phase is the economy round lifecycle.
type Phase string

const (
	PhasePreparation Phase = "preparation"
	PhaseCombat      Phase = "combat"
	PhaseShopping    Phase = "shopping"
)

// Player is one simulated participant. Gold never goes negative through
// engine operations; purchases are rejected instead of overdrawing.
type Player struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Gold       int            `json:"gold"`
	Level      int            `json:"level"`
	XP         int            `json:"xp"`
	Units      []string       `json:"units,omitempty"`
	Items      map[string]int `json:"items,omitempty"`
	Archetype  string         `json:"archetype"`
	WinStreak  int            `json:"winStreak"`
	LoseStreak int            `json:"loseStreak"`
	Rank       int            `json:"rank"`
}

func (p *Player) clone() Player {
	cloned := *p
	cloned.Units = append([]string(nil), p.Units...)
	if p.Items != nil {
		cloned.Items = make(map[string]int, len(p.Items))
		for k, v := range p.Items {
			cloned.Items[k] = v
		}
	}
	return cloned
}

// RateEvent temporarily modifies income rates for a number of rounds.
type RateEvent struct {
	Name          string  `json:"name"`
	RoundsLeft    int     `json:"roundsLeft"`
	InterestDelta float64 `json:"interestDelta"`
	IncomeDelta   int     `json:"incomeDelta"`
}

// Config is the plain structured economy configuration supplied by the
// caller before a trial starts.
type Config struct {
	StartingGold    int     `yaml:"startingGold" json:"startingGold"`
	BaseIncome      int     `yaml:"baseIncome" json:"baseIncome"`
	InterestRate    float64 `yaml:"interestRate" json:"interestRate"`
	InterestCap     int     `yaml:"interestCap" json:"interestCap"`
	WinStreakBonus  []int   `yaml:"winStreakBonus" json:"winStreakBonus"`
	LoseStreakBonus []int   `yaml:"loseStreakBonus" json:"loseStreakBonus"`
	SellingReturn   float64 `yaml:"sellingReturn" json:"sellingReturn"`
	LevelCost       int     `yaml:"levelCost" json:"levelCost"`
	PoolSize        int     `yaml:"poolSize" json:"poolSize"`
}

// Normalized returns the config with defaults applied.
func (cfg Config) Normalized() Config {
	if cfg.StartingGold <= 0 {
		cfg.StartingGold = 10
	}
	if cfg.BaseIncome <= 0 {
		cfg.BaseIncome = 5
	}
	if cfg.InterestRate <= 0 {
		cfg.InterestRate = 0.1
	}
	if cfg.InterestCap <= 0 {
		cfg.InterestCap = 5
	}
	if len(cfg.WinStreakBonus) == 0 {
		cfg.WinStreakBonus = []int{0, 1, 1, 2, 3}
	}
	if len(cfg.LoseStreakBonus) == 0 {
		cfg.LoseStreakBonus = []int{0, 1, 1, 2, 3}
	}
	if cfg.SellingReturn <= 0 {
		cfg.SellingReturn = 0.7
	}
	if cfg.LevelCost <= 0 {
		cfg.LevelCost = 4
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 30
	}
	return cfg
}

// State is the externally observable economy snapshot.
type State struct {
	Round           int           `json:"round"`
	Phase           Phase         `json:"phase"`
	Players         []Player      `json:"players"`
	Market          []market.Item `json:"market"`
	InterestRate    float64       `json:"interestRate"`
	WinStreakBonus  []int         `json:"winStreakBonus"`
	LoseStreakBonus []int         `json:"loseStreakBonus"`
	Events          []RateEvent   `json:"events,omitempty"`
}

// Failure reasons surfaced to the immediate caller. They never corrupt engine
// state; every operation is all-or-nothing.
var (
	ErrUnknownPlayer    = errors.New("economy: unknown player")
	ErrUnknownItem      = errors.New("economy: unknown item")
	ErrOutOfStock       = errors.New("economy: item out of stock")
	ErrInsufficientGold = errors.New("economy: insufficient gold")
	ErrItemNotOwned     = errors.New("economy: item not owned")
)
