package batch

import (
	"emberfall/sim/internal/combat"
	"emberfall/sim/internal/economy"
)

// trialTally accumulates the raw counts one trial's metrics derive from.
type trialTally struct {
	battles     int
	draws       int
	comebacks   int
	unitBattles map[string]int
	unitWins    map[string]int
	goldTotal   int
	goldSamples int
	unitsUsed   map[string]struct{}
}

func newTrialTally() *trialTally {
	return &trialTally{
		unitBattles: make(map[string]int),
		unitWins:    make(map[string]int),
		unitsUsed:   make(map[string]struct{}),
	}
}

// recordBattle folds one battle outcome into the tally and reports the result
// to the economy engine. A win from a losing streak of two or more counts as
// a comeback.
func (t *trialTally) recordBattle(eco *economy.Engine, players []economy.Player, winner combat.Side, armies map[string][]string) {
	t.battles++

	for _, player := range players {
		seen := make(map[string]struct{})
		for _, unit := range armies[player.ID] {
			t.unitsUsed[unit] = struct{}{}
			if _, dup := seen[unit]; dup {
				continue
			}
			seen[unit] = struct{}{}
			t.unitBattles[unit]++
		}
	}

	var winnerID string
	switch winner {
	case combat.SideA:
		winnerID = players[0].ID
	case combat.SideB:
		winnerID = players[1].ID
	default:
		t.draws++
	}

	if winnerID != "" {
		if view, ok := eco.PlayerView(winnerID); ok && view.LoseStreak >= 2 {
			t.comebacks++
		}
		seen := make(map[string]struct{})
		for _, unit := range armies[winnerID] {
			if _, dup := seen[unit]; dup {
				continue
			}
			seen[unit] = struct{}{}
			t.unitWins[unit]++
		}
	}

	for _, player := range players {
		eco.UpdatePlayerStatus(player.ID, player.ID == winnerID)
	}
}

// recordRound samples per-round economy state.
func (t *trialTally) recordRound(state economy.State) {
	for _, player := range state.Players {
		t.goldTotal += player.Gold
		t.goldSamples++
	}
}

// metrics flattens the tally into the flat numeric map handed to metrics
// aggregation.
func (t *trialTally) metrics(rounds, templates int) map[string]float64 {
	out := make(map[string]float64, len(t.unitBattles)+4)
	for unit, appearances := range t.unitBattles {
		if appearances == 0 {
			continue
		}
		out["winRate."+unit] = float64(t.unitWins[unit]) / float64(appearances)
	}
	if t.goldSamples > 0 {
		out["avgGoldPerRound"] = float64(t.goldTotal) / float64(t.goldSamples)
	}
	if t.battles > 0 {
		out["comebackRate"] = float64(t.comebacks) / float64(t.battles)
		out["drawRate"] = float64(t.draws) / float64(t.battles)
	}
	if templates > 0 {
		out["compositionDiversity"] = float64(len(t.unitsUsed)) / float64(templates)
	}
	return out
}

func summarize(results []TrialResult) Summary {
	summary := Summary{Trials: len(results), Metrics: make(map[string]float64)}
	if len(results) == 0 {
		return summary
	}
	counts := make(map[string]int)
	for _, result := range results {
		for key, value := range result.Metrics {
			summary.Metrics[key] += value
			counts[key]++
		}
	}
	for key := range summary.Metrics {
		summary.Metrics[key] /= float64(counts[key])
	}
	return summary
}
