package internal

import "yaniv/internal/domain"

// DrawChoice is the outcome of comparing the discard pile against the deck.
type DrawChoice struct {
	Source   domain.DrawSource
	Card     domain.Card // set when Source is the discard pile
	Expected float64     // expected residual hand value after the turn
}

// ExpectedDeckResidual averages the residual value of hand plus each card
// that could still come off the deck.
func ExpectedDeckResidual(hand []domain.Card, unseen []domain.Card, rules domain.Rules) float64 {
	if len(unseen) == 0 {
		return float64(domain.HandValue(hand))
	}
	with := make([]domain.Card, len(hand)+1)
	copy(with, hand)
	total := 0
	for _, c := range unseen {
		with[len(hand)] = c
		total += ResidualValue(with, rules)
	}
	return float64(total) / float64(len(unseen))
}

// EvaluateDraw picks the source that minimises the expected residual hand
// value. The deck wins ties.
func EvaluateDraw(hand, pickup, unseen []domain.Card, rules domain.Rules) DrawChoice {
	best := DrawChoice{Source: domain.SourceDeck, Expected: ExpectedDeckResidual(hand, unseen, rules)}
	with := make([]domain.Card, len(hand)+1)
	copy(with, hand)
	for _, c := range pickup {
		with[len(hand)] = c
		if v := float64(ResidualValue(with, rules)); v < best.Expected {
			best = DrawChoice{Source: domain.SourceDiscard, Card: c, Expected: v}
		}
	}
	return best
}

// Unseen lists the cards of a full deck that are not in known. Duplicates
// (jokers) are removed one at a time.
func Unseen(rules domain.Rules, known ...[]domain.Card) []domain.Card {
	out := domain.NewDeck(rules.Jokers)
	for _, cards := range known {
		out = domain.RemoveCards(out, cards)
	}
	return out
}

// MeanValue is the average card value, or 0 for no cards.
func MeanValue(cards []domain.Card) float64 {
	if len(cards) == 0 {
		return 0
	}
	return float64(domain.HandValue(cards)) / float64(len(cards))
}
