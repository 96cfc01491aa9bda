package brain

import "yaniv/internal/domain"

// Wants reports whether card would likely help the opponent, judged from
// the cards they were seen collecting: same rank builds a set, same suit
// within reach builds a straight.
func (p *OpponentProfile) Wants(card domain.Card, rules domain.Rules) bool {
	if card.IsJoker() {
		return false
	}
	reach := domain.Rank(rules.MinStraightLength - 1)
	for _, k := range p.Known {
		if k.IsJoker() {
			continue
		}
		if k.Rank == card.Rank {
			return true
		}
		if k.Suit == card.Suit && absRank(k.Rank-card.Rank) <= reach {
			return true
		}
	}
	return false
}

// EstimateHandValue guesses the opponent's hand value: known cards count
// at face value, the rest at unseenMean each.
func (p *OpponentProfile) EstimateHandValue(unseenMean float64) float64 {
	unknown := p.HandSize - len(p.Known)
	if unknown < 0 {
		unknown = 0
	}
	return float64(p.KnownValue()) + float64(unknown)*unseenMean
}

func absRank(r domain.Rank) domain.Rank {
	if r < 0 {
		return -r
	}
	return r
}
