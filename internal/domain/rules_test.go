package domain

import (
	"testing"
)

func mustCards(t *testing.T, s string) []Card {
	t.Helper()
	cards, err := ParseCards(s)
	if err != nil {
		t.Fatalf("ParseCards(%q): %v", s, err)
	}
	return cards
}

func TestIdentifyCombination(t *testing.T) {
	noWild := DefaultRules()
	noWild.JokersWild = false

	tests := []struct {
		name     string
		cards    string
		rules    Rules
		expected CombinationType
		order    string // expected arrangement, empty to skip
	}{
		{name: "Single", cards: "7H", expected: Single},
		{name: "Single joker", cards: "JK", expected: Single},
		{name: "Pair", cards: "7H 7S", expected: Set},
		{name: "Four of a kind", cards: "KH KS KD KC", expected: Set},
		{name: "Joker pair", cards: "JK JK", expected: Set},
		{name: "Straight 3", cards: "3H 4H 5H", expected: Straight, order: "3H 4H 5H"},
		{name: "Straight unordered", cards: "5H 3H 4H", expected: Straight, order: "3H 4H 5H"},
		{name: "Straight ace low", cards: "AH 2H 3H", expected: Straight, order: "AH 2H 3H"},
		{name: "Joker fills gap", cards: "3H JK 5H", expected: Straight, order: "3H JK 5H"},
		{name: "Joker extends up", cards: "9C 10C JK", expected: Straight, order: "9C 10C JK"},
		{name: "Joker extends down at king", cards: "QD KD JK", expected: Straight, order: "JK QD KD"},
		{name: "Two jokers", cards: "2S JK JK", expected: Straight, order: "2S JK JK"},
		{name: "Long straight", cards: "8S 9S 10S JS QS KS", expected: Straight},
		{name: "Invalid: empty", cards: "", expected: Invalid},
		{name: "Invalid: joker in set", cards: "7H 7S JK", expected: Invalid},
		{name: "Invalid: short run", cards: "2H 3H", expected: Invalid},
		{name: "Invalid: mixed suits", cards: "3H 4S 5H", expected: Invalid},
		{name: "Invalid: no wrap", cards: "QH KH AH", expected: Invalid},
		{name: "Invalid: gap", cards: "3H 5H 6H", expected: Invalid},
		{name: "Invalid: jokers not wild", cards: "3H JK 5H", rules: noWild, expected: Invalid},
		{name: "Invalid: two ranks", cards: "3H 3S 4H 4S", expected: Invalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := tt.rules
			if rules.MinStraightLength == 0 {
				rules = DefaultRules()
			}
			cards := mustCards(t, tt.cards)
			combo := IdentifyCombination(cards, rules)
			if combo.Type != tt.expected {
				t.Fatalf("IdentifyCombination(%s) = %s, want %s", tt.cards, combo.Type, tt.expected)
			}
			if tt.order != "" {
				want := mustCards(t, tt.order)
				if len(combo.Cards) != len(want) {
					t.Fatalf("arranged %v, want %v", combo.Cards, want)
				}
				for i := range want {
					if combo.Cards[i] != want[i] {
						t.Fatalf("arranged %v, want %v", combo.Cards, want)
					}
				}
			}
			if combo.Type != Invalid && combo.Value != HandValue(cards) {
				t.Fatalf("value = %d, want %d", combo.Value, HandValue(cards))
			}
		})
	}
}

func TestIdentifyCombinationRejectsUnknownCards(t *testing.T) {
	combo := IdentifyCombination([]Card{{Rank: 14, Suit: SuitHearts}}, DefaultRules())
	if combo.Type != Invalid {
		t.Fatalf("expected invalid for rank 14, got %s", combo.Type)
	}
}

func TestPickupCandidates(t *testing.T) {
	rules := DefaultRules()
	tests := []struct {
		name  string
		cards string
		want  string
	}{
		{name: "single", cards: "9D", want: "9D"},
		{name: "set offers all", cards: "4H 4S 4C", want: "4H 4S 4C"},
		{name: "straight offers ends", cards: "5C 6C 7C 8C", want: "5C 8C"},
		{name: "joker pair offers one", cards: "JK JK", want: "JK"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			combo := IdentifyCombination(mustCards(t, tt.cards), rules)
			got := pickupCandidates(combo)
			if !SameCards(got, mustCards(t, tt.want)) {
				t.Fatalf("pickupCandidates(%s) = %v, want %s", tt.cards, got, tt.want)
			}
		})
	}
}

func TestLegalDiscards(t *testing.T) {
	hand := mustCards(t, "3H 4H 5H 5S JK")
	discards := LegalDiscards(hand, DefaultRules())

	has := func(s string) bool {
		want := mustCards(t, s)
		for _, d := range discards {
			if SameCards(d.Cards, want) {
				return true
			}
		}
		return false
	}

	for _, want := range []string{"3H", "JK", "5H 5S", "3H 4H 5H", "3H 4H 5H JK", "3H JK 5H", "4H 5H JK"} {
		if !has(want) {
			t.Fatalf("LegalDiscards missing %s; got %v", want, discards)
		}
	}
	if has("5S JK") {
		t.Fatalf("joker must not join a set")
	}
	for _, d := range discards {
		if d.Type == Invalid {
			t.Fatalf("LegalDiscards returned an invalid combination %v", d.Cards)
		}
	}
}

func TestCombinationTypeText(t *testing.T) {
	for _, ct := range []CombinationType{Invalid, Single, Set, Straight} {
		b, err := ct.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText: %v", err)
		}
		var back CombinationType
		if err := back.UnmarshalText(b); err != nil || back != ct {
			t.Fatalf("UnmarshalText(%s) = %v, %v", b, back, err)
		}
	}
	var ct CombinationType
	if err := ct.UnmarshalText([]byte("flush")); err == nil {
		t.Fatalf("expected error for unknown combination name")
	}
}

func TestHighestValueDiscard(t *testing.T) {
	tests := []struct {
		name string
		hand string
		want string
	}{
		{name: "high single", hand: "AS 3D KH", want: "KH"},
		{name: "set beats single", hand: "9S 9H KD", want: "9S 9H"},
		{name: "straight", hand: "8C 9C 10C QH", want: "8C 9C 10C"},
		{name: "equal value prefers more cards", hand: "5S 5H 10D", want: "5S 5H"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HighestValueDiscard(mustCards(t, tt.hand), DefaultRules())
			if !SameCards(got.Cards, mustCards(t, tt.want)) {
				t.Fatalf("HighestValueDiscard(%s) = %v, want %s", tt.hand, got.Cards, tt.want)
			}
		})
	}
	if got := HighestValueDiscard(nil, DefaultRules()); got.Type != Invalid {
		t.Fatalf("empty hand should give Invalid")
	}
}
