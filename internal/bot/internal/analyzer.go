package internal

import "yaniv/internal/domain"

// ResidualValue is the hand value left after shedding the best legal discard.
func ResidualValue(hand []domain.Card, rules domain.Rules) int {
	best := domain.HighestValueDiscard(hand, rules)
	if best.Type == domain.Invalid {
		return domain.HandValue(hand)
	}
	return domain.HandValue(hand) - best.Value
}

// ExtendsCombination reports whether card would join at least one
// multi-card discard together with cards already in hand.
func ExtendsCombination(hand []domain.Card, card domain.Card, rules domain.Rules) bool {
	with := append(append(make([]domain.Card, 0, len(hand)+1), hand...), card)
	for _, c := range domain.LegalDiscards(with, rules) {
		if len(c.Cards) > 1 && domain.ContainsCards(c.Cards, []domain.Card{card}) {
			return true
		}
	}
	return false
}

// HighestSingle returns the highest-value card in hand, preferring the
// later card on ties. ok is false for an empty hand.
func HighestSingle(hand []domain.Card) (domain.Card, bool) {
	if len(hand) == 0 {
		return domain.Card{}, false
	}
	best := hand[0]
	for _, c := range hand[1:] {
		if c.Value() >= best.Value() {
			best = c
		}
	}
	return best, true
}
