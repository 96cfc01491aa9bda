package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Suit of a card. Jokers carry SuitNone.
type Suit string

const (
	SuitSpades   Suit = "spades"
	SuitHearts   Suit = "hearts"
	SuitDiamonds Suit = "diamonds"
	SuitClubs    Suit = "clubs"
	SuitNone     Suit = "none"
)

// Suits lists the four suits in deck order.
var Suits = [4]Suit{SuitSpades, SuitHearts, SuitDiamonds, SuitClubs}

// Rank of a card: Joker=0, Ace=1 .. King=13.
type Rank int

const (
	RankJoker Rank = 0
	RankAce   Rank = 1
	RankJack  Rank = 11
	RankQueen Rank = 12
	RankKing  Rank = 13
)

// Card is an immutable playing card compared by value.
type Card struct {
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit"`
}

// Joker is the value shared by every joker in the deck.
var Joker = Card{Rank: RankJoker, Suit: SuitNone}

// IsJoker reports whether the card is a joker.
func (c Card) IsJoker() bool {
	return c.Rank == RankJoker
}

// Value is the card's scoring value: Joker 0, Ace 1, 2-10 face value, J/Q/K 10.
func (c Card) Value() int {
	switch {
	case c.Rank == RankJoker:
		return 0
	case c.Rank >= 10:
		return 10
	default:
		return int(c.Rank)
	}
}

// Valid reports whether the card exists in a standard Yaniv deck.
func (c Card) Valid() bool {
	if c.Rank == RankJoker {
		return c.Suit == SuitNone
	}
	if c.Rank < RankAce || c.Rank > RankKing {
		return false
	}
	for _, s := range Suits {
		if c.Suit == s {
			return true
		}
	}
	return false
}

// String renders a short form such as "AS", "10H" or "JK".
func (c Card) String() string {
	if c.IsJoker() {
		return "JK"
	}
	var r string
	switch c.Rank {
	case RankAce:
		r = "A"
	case RankJack:
		r = "J"
	case RankQueen:
		r = "Q"
	case RankKing:
		r = "K"
	default:
		r = strconv.Itoa(int(c.Rank))
	}
	if c.Suit == "" || c.Suit == SuitNone {
		return r + "?"
	}
	return r + strings.ToUpper(string(c.Suit[0]))
}

// ParseCard parses the short form produced by String.
func ParseCard(s string) (Card, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "JK" {
		return Joker, nil
	}
	if len(s) < 2 {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}
	rankPart, suitPart := s[:len(s)-1], s[len(s)-1]

	var rank Rank
	switch rankPart {
	case "A":
		rank = RankAce
	case "J":
		rank = RankJack
	case "Q":
		rank = RankQueen
	case "K":
		rank = RankKing
	default:
		n, err := strconv.Atoi(rankPart)
		if err != nil || n < 2 || n > 10 {
			return Card{}, fmt.Errorf("invalid card rank %q", rankPart)
		}
		rank = Rank(n)
	}

	var suit Suit
	switch suitPart {
	case 'S':
		suit = SuitSpades
	case 'H':
		suit = SuitHearts
	case 'D':
		suit = SuitDiamonds
	case 'C':
		suit = SuitClubs
	default:
		return Card{}, fmt.Errorf("invalid card suit %q", string(suitPart))
	}
	return Card{Rank: rank, Suit: suit}, nil
}

// ParseCards parses a whitespace separated list of cards.
func ParseCards(s string) ([]Card, error) {
	fields := strings.Fields(s)
	out := make([]Card, 0, len(fields))
	for _, f := range fields {
		c, err := ParseCard(f)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// HandValue sums the scoring value of the cards.
func HandValue(cards []Card) int {
	total := 0
	for _, c := range cards {
		total += c.Value()
	}
	return total
}
