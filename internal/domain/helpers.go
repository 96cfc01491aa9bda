package domain

// RemoveCards removes the specified cards from a hand and returns the updated hand.
// Duplicates are honoured: removing one joker leaves any other joker in place.
func RemoveCards(hand []Card, toRemove []Card) []Card {
	if len(toRemove) == 0 || len(hand) == 0 {
		return cloneCards(hand)
	}

	removeCounts := make(map[Card]int, len(toRemove))
	for _, card := range toRemove {
		removeCounts[card]++
	}

	updated := make([]Card, 0, len(hand))
	for _, card := range hand {
		if count, ok := removeCounts[card]; ok && count > 0 {
			removeCounts[card] = count - 1
			continue
		}
		updated = append(updated, card)
	}

	return updated
}

// ContainsCards reports whether every card, with multiplicity, is present in hand.
func ContainsCards(hand []Card, cards []Card) bool {
	counts := CountCards(hand)
	for _, c := range cards {
		if counts[c] == 0 {
			return false
		}
		counts[c]--
	}
	return true
}

// CountCards builds a multiset of the cards.
func CountCards(cards []Card) map[Card]int {
	counts := make(map[Card]int, len(cards))
	for _, c := range cards {
		counts[c]++
	}
	return counts
}

// SameCards reports whether both slices hold the same multiset of cards.
func SameCards(a, b []Card) bool {
	if len(a) != len(b) {
		return false
	}
	counts := CountCards(a)
	for _, c := range b {
		if counts[c] == 0 {
			return false
		}
		counts[c]--
	}
	return true
}

// IsConserved reports whether the cards in play are exactly one full deck.
func (g GameState) IsConserved() bool {
	return SameCards(g.AllCards(), NewDeck(g.Rules.Jokers))
}
