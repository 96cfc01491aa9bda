package app

import (
	"math"

	"yaniv/internal/domain"
)

// CalculateSettlement returns the chip change per player for an ended game.
// Every non-winner pays baseBet into the pot, the winners split it evenly
// (remainder to the earliest seat) and the house keeps taxRate of each
// winner's gain. Returns nil while the game is still running.
func CalculateSettlement(state domain.GameState, baseBet int64, taxRate float64) map[string]int64 {
	if !state.Ended || len(state.Winners) == 0 || baseBet <= 0 {
		return nil
	}

	winners := make(map[string]bool, len(state.Winners))
	for _, id := range state.Winners {
		winners[id] = true
	}

	changes := make(map[string]int64, len(state.Players))
	var pot int64
	var seatedWinners []string
	for _, p := range state.Players {
		if winners[p.ID] {
			seatedWinners = append(seatedWinners, p.ID)
			continue
		}
		changes[p.ID] = -baseBet
		pot += baseBet
	}
	if len(seatedWinners) == 0 {
		return changes
	}

	share := pot / int64(len(seatedWinners))
	remainder := pot % int64(len(seatedWinners))
	for i, id := range seatedWinners {
		gain := share
		if i == 0 {
			gain += remainder
		}
		if taxRate > 0 {
			gain -= int64(math.Floor(float64(gain) * taxRate))
		}
		changes[id] = gain
	}
	return changes
}
