package bot

import (
	"errors"
	"fmt"

	"yaniv/internal/domain"
)

var (
	ErrNotSeated   = errors.New("bot is not seated in this game")
	ErrNotBotsTurn = errors.New("not the bot's turn")
	ErrNoMove      = errors.New("no legal move")
)

// turnContext returns the bot's player when it may act.
func turnContext(game domain.GameState, playerID string) (domain.Player, error) {
	p, ok := game.Player(playerID)
	if !ok {
		return domain.Player{}, ErrNotSeated
	}
	if game.Ended || game.Round.Phase == domain.PhaseRoundEnded {
		return domain.Player{}, fmt.Errorf("%w: round is over", ErrNotBotsTurn)
	}
	if game.CurrentPlayer().ID != playerID {
		return domain.Player{}, ErrNotBotsTurn
	}
	return p, nil
}

// drawFromDeck draws blind, or takes the cheapest pile card when the deck is
// empty and cannot be rebuilt from the discard pile.
func drawFromDeck(game domain.GameState) Move {
	if deckCanSupply(game) {
		return Move{Kind: MoveDraw, Source: domain.SourceDeck}
	}
	var pick *domain.Card
	for _, c := range game.PickupCards() {
		if pick == nil || c.Value() < pick.Value() {
			pick = &c
		}
	}
	if pick == nil {
		return Move{Kind: MoveDraw, Source: domain.SourceDeck}
	}
	return drawFromPile(*pick)
}

// deckCanSupply reports whether a deck draw would yield a card.
func deckCanSupply(game domain.GameState) bool {
	if len(game.Round.Deck) > 0 {
		return true
	}
	if !game.Rules.ReshuffleDiscard {
		return false
	}
	discard := game.Round.Discard
	for i := 0; i < len(discard)-1; i++ {
		if len(discard[i].Combination.Cards) > 0 {
			return true
		}
	}
	return false
}

func drawFromPile(card domain.Card) Move {
	return Move{Kind: MoveDraw, Source: domain.SourceDiscard, Card: &card}
}

func discard(c domain.Combination) (Move, error) {
	if c.Type == domain.Invalid {
		return Move{}, ErrNoMove
	}
	return Move{Kind: MoveDiscard, Cards: c.Cards}, nil
}
