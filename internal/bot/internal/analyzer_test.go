package internal

import (
	"testing"

	"yaniv/internal/domain"
)

func cards(t *testing.T, s string) []domain.Card {
	t.Helper()
	out, err := domain.ParseCards(s)
	if err != nil {
		t.Fatalf("ParseCards(%q): %v", s, err)
	}
	return out
}

func TestResidualValue(t *testing.T) {
	rules := domain.DefaultRules()
	tests := []struct {
		hand string
		want int
	}{
		{hand: "KH 2S", want: 2},
		{hand: "5S 5H AC", want: 1},
		{hand: "3C 4C 5C 9D", want: 9},
		{hand: "", want: 0},
	}
	for _, tt := range tests {
		if got := ResidualValue(cards(t, tt.hand), rules); got != tt.want {
			t.Fatalf("ResidualValue(%s) = %d, want %d", tt.hand, got, tt.want)
		}
	}
}

func TestExtendsCombination(t *testing.T) {
	rules := domain.DefaultRules()
	tests := []struct {
		name string
		hand string
		card string
		want bool
	}{
		{name: "pairs", hand: "9S KH", card: "9D", want: true},
		{name: "completes run", hand: "4H 5H QC", card: "6H", want: true},
		{name: "fills gap with joker", hand: "4H JK", card: "6H", want: true},
		{name: "unrelated", hand: "4H 9C", card: "KD", want: false},
		{name: "short run", hand: "4H", card: "5H", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := cards(t, tt.card)[0]
			if got := ExtendsCombination(cards(t, tt.hand), card, rules); got != tt.want {
				t.Fatalf("ExtendsCombination(%s, %s) = %v, want %v", tt.hand, tt.card, got, tt.want)
			}
		})
	}
}

func TestHighestSingle(t *testing.T) {
	c, ok := HighestSingle(cards(t, "3S KD 10H 4C"))
	if !ok || c.Value() != 10 {
		t.Fatalf("HighestSingle = %v, %v", c, ok)
	}
	if _, ok := HighestSingle(nil); ok {
		t.Fatalf("empty hand should report false")
	}
}

func TestEvaluateDraw(t *testing.T) {
	rules := domain.DefaultRules()
	hand := cards(t, "KH QD 8S 7C 9D")

	choice := EvaluateDraw(hand, cards(t, "AC"), cards(t, "6S 6C 5D"), rules)
	if choice.Source != domain.SourceDiscard || choice.Card != cards(t, "AC")[0] {
		t.Fatalf("expected to take AC from the pile, got %+v", choice)
	}

	choice = EvaluateDraw(hand, cards(t, "JC"), cards(t, "AS AD"), rules)
	if choice.Source != domain.SourceDeck {
		t.Fatalf("expected deck draw when only aces remain, got %+v", choice)
	}
}

func TestUnseen(t *testing.T) {
	rules := domain.DefaultRules()
	out := Unseen(rules, cards(t, "AS JK"), cards(t, "2S"))
	if len(out) != rules.DeckSize()-3 {
		t.Fatalf("unseen = %d cards, want %d", len(out), rules.DeckSize()-3)
	}
	if domain.ContainsCards(out, cards(t, "AS")) {
		t.Fatalf("AS should not be unseen")
	}
	if !domain.ContainsCards(out, cards(t, "JK")) {
		t.Fatalf("second joker should still be unseen")
	}
	if MeanValue(nil) != 0 {
		t.Fatalf("mean of nothing should be 0")
	}
}
