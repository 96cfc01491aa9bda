package domain

import (
	"math/rand"
	"sort"
)

// NewDeck returns an ordered deck of 52 suited cards followed by the jokers.
func NewDeck(jokers int) []Card {
	deck := make([]Card, 0, 52+jokers)
	for _, s := range Suits {
		for r := RankAce; r <= RankKing; r++ {
			deck = append(deck, Card{Rank: r, Suit: s})
		}
	}
	for i := 0; i < jokers; i++ {
		deck = append(deck, Joker)
	}
	return deck
}

// ShuffleDeck returns a shuffled copy of the deck. The same seed always
// yields the same order.
func ShuffleDeck(deck []Card, seed int64) []Card {
	out := make([]Card, len(deck))
	copy(out, deck)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// shuffleSeed derives the seed of the n-th shuffle of a game.
func shuffleSeed(seed int64, n int) int64 {
	return seed*1_000_003 + int64(n)
}

// SortHand orders cards by rank then suit, jokers first.
func SortHand(cards []Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		return cardOrder(cards[i]) < cardOrder(cards[j])
	})
}

func cardOrder(c Card) int {
	return int(c.Rank)*4 + suitIndex(c.Suit)
}

func suitIndex(s Suit) int {
	for i, v := range Suits {
		if v == s {
			return i
		}
	}
	return 0
}
