package brain

import "yaniv/internal/domain"

// OpponentProfile tracks what a bot has learned about one opponent this round.
type OpponentProfile struct {
	ID       string
	HandSize int
	Pickups  int
	Discards int

	// Known holds cards the opponent took from the discard pile and has not
	// put down since.
	Known []domain.Card
}

// NewOpponentProfile initializes a profile for a player.
func NewOpponentProfile(id string) *OpponentProfile {
	return &OpponentProfile{ID: id}
}

// RecordPickup notes a card the opponent drew from the discard pile.
func (p *OpponentProfile) RecordPickup(card domain.Card) {
	p.Known = append(p.Known, card)
	p.Pickups++
}

// RecordDiscard forgets known cards the opponent has put back down.
func (p *OpponentProfile) RecordDiscard(cards []domain.Card) {
	p.Known = domain.RemoveCards(p.Known, cards)
	p.Discards++
}

// KnownValue is the point total of the cards known to be in the hand.
func (p *OpponentProfile) KnownValue() int {
	return domain.HandValue(p.Known)
}
