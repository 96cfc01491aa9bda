package domain

import (
	"fmt"
	"sort"
	"strings"
)

// CombinationType represents the shape of a discard.
type CombinationType int

const (
	Invalid CombinationType = iota
	Single
	Set      // Two or more cards of one rank
	Straight // Run of one suit, jokers fill gaps
)

var combinationNames = map[CombinationType]string{
	Invalid:  "invalid",
	Single:   "single",
	Set:      "set",
	Straight: "straight",
}

func (t CombinationType) String() string {
	if name, ok := combinationNames[t]; ok {
		return name
	}
	return fmt.Sprintf("combination(%d)", int(t))
}

// MarshalText encodes the type by name.
func (t CombinationType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a type name.
func (t *CombinationType) UnmarshalText(b []byte) error {
	for k, v := range combinationNames {
		if v == string(b) {
			*t = k
			return nil
		}
	}
	return fmt.Errorf("unknown combination type %q", string(b))
}

// Combination is a recognised discard.
type Combination struct {
	Type  CombinationType `json:"type"`
	Cards []Card          `json:"cards"` // straights ascend, jokers sit in the slot they fill
	Value int             `json:"value"` // sum of card values
}

// IdentifyCombination classifies the cards as a legal discard. Invalid is
// returned for empty input or shapes the rules do not allow.
func IdentifyCombination(cards []Card, rules Rules) Combination {
	n := len(cards)
	if n == 0 {
		return Combination{Type: Invalid}
	}
	for _, c := range cards {
		if !c.Valid() {
			return Combination{Type: Invalid}
		}
	}

	if n == 1 {
		return Combination{Type: Single, Cards: cloneCards(cards), Value: cards[0].Value()}
	}

	if allSameRank(cards) {
		ordered := cloneCards(cards)
		SortHand(ordered)
		return Combination{Type: Set, Cards: ordered, Value: HandValue(ordered)}
	}

	if n >= rules.MinStraightLength {
		if ordered, ok := arrangeStraight(cards, rules.JokersWild); ok {
			return Combination{Type: Straight, Cards: ordered, Value: HandValue(ordered)}
		}
	}

	return Combination{Type: Invalid}
}

// IsValidDiscard reports whether the cards form a legal discard.
func IsValidDiscard(cards []Card, rules Rules) bool {
	return IdentifyCombination(cards, rules).Type != Invalid
}

func allSameRank(cards []Card) bool {
	r := cards[0].Rank
	for _, c := range cards[1:] {
		if c.Rank != r {
			return false
		}
	}
	return true
}

// arrangeStraight orders a candidate straight, placing jokers into gaps and
// then extending upward (downward once King is reached).
func arrangeStraight(cards []Card, jokersWild bool) ([]Card, bool) {
	naturals := make([]Card, 0, len(cards))
	jokers := 0
	for _, c := range cards {
		if c.IsJoker() {
			jokers++
			continue
		}
		naturals = append(naturals, c)
	}
	if len(naturals) == 0 || (jokers > 0 && !jokersWild) {
		return nil, false
	}

	suit := naturals[0].Suit
	for _, c := range naturals {
		if c.Suit != suit {
			return nil, false
		}
	}

	sort.Slice(naturals, func(i, j int) bool { return naturals[i].Rank < naturals[j].Rank })
	for i := 1; i < len(naturals); i++ {
		if naturals[i].Rank == naturals[i-1].Rank {
			return nil, false
		}
	}

	lo, hi := naturals[0].Rank, naturals[len(naturals)-1].Rank
	gaps := int(hi-lo+1) - len(naturals)
	if gaps > jokers {
		return nil, false
	}
	spare := jokers - gaps
	for spare > 0 && hi < RankKing {
		hi++
		spare--
	}
	for spare > 0 && lo > RankAce {
		lo--
		spare--
	}
	if spare > 0 {
		return nil, false
	}

	out := make([]Card, 0, len(cards))
	idx := 0
	for r := lo; r <= hi; r++ {
		if idx < len(naturals) && naturals[idx].Rank == r {
			out = append(out, naturals[idx])
			idx++
			continue
		}
		out = append(out, Joker)
	}
	return out, true
}

// PickupOptions lists the cards a later player may take when c tops the
// discard pile.
func PickupOptions(c Combination) []Card {
	return pickupCandidates(c)
}

// pickupCandidates lists the distinct cards that may be drawn from a discard group.
func pickupCandidates(c Combination) []Card {
	switch c.Type {
	case Single:
		return cloneCards(c.Cards)
	case Set:
		return distinctCards(c.Cards)
	case Straight:
		return distinctCards([]Card{c.Cards[0], c.Cards[len(c.Cards)-1]})
	default:
		return nil
	}
}

func distinctCards(cards []Card) []Card {
	out := make([]Card, 0, len(cards))
	seen := make(map[Card]bool, len(cards))
	for _, c := range cards {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// LegalDiscards enumerates every distinct legal discard that can be made
// from the hand. Hands never exceed HandSize+1 cards, so subsets are
// enumerated directly.
func LegalDiscards(hand []Card, rules Rules) []Combination {
	n := len(hand)
	if n == 0 || n > 16 {
		return nil
	}
	var out []Combination
	seen := make(map[string]bool)
	subset := make([]Card, 0, n)
	for mask := 1; mask < 1<<n; mask++ {
		subset = subset[:0]
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				subset = append(subset, hand[i])
			}
		}
		combo := IdentifyCombination(subset, rules)
		if combo.Type == Invalid {
			continue
		}
		key := cardsKey(subset)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, combo)
	}
	return out
}

func cardsKey(cards []Card) string {
	sorted := cloneCards(cards)
	SortHand(sorted)
	parts := make([]string, len(sorted))
	for i, c := range sorted {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}

// HighestValueDiscard returns the legal discard that sheds the most points,
// preferring more cards on equal value. Invalid is returned for an empty hand.
func HighestValueDiscard(hand []Card, rules Rules) Combination {
	best := Combination{Type: Invalid}
	for _, c := range LegalDiscards(hand, rules) {
		if best.Type == Invalid || c.Value > best.Value || (c.Value == best.Value && len(c.Cards) > len(best.Cards)) {
			best = c
		}
	}
	return best
}
