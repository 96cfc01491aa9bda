package bot

import (
	"fmt"

	"yaniv/internal/domain"
)

// MoveKind is the intent a bot submits for its turn.
type MoveKind int

const (
	MoveDraw MoveKind = iota
	MoveDiscard
	MoveCallYaniv
	MoveSlapDown
)

func (k MoveKind) String() string {
	switch k {
	case MoveDraw:
		return "draw"
	case MoveDiscard:
		return "discard"
	case MoveCallYaniv:
		return "call_yaniv"
	case MoveSlapDown:
		return "slap_down"
	default:
		return fmt.Sprintf("move(%d)", int(k))
	}
}

// Move represents the decision made by the AI.
type Move struct {
	Kind   MoveKind
	Source domain.DrawSource // MoveDraw only
	Card   *domain.Card      // discard pile card to take, nil for the default; the card for MoveSlapDown
	Cards  []domain.Card     // MoveDiscard only
}

// Brain is the interface that all bot strategies must implement.
//
// CalculateMove only reads public information from game (hand sizes, the
// discard pile, scores) plus the bot's own hand.
type Brain interface {
	CalculateMove(game domain.GameState, playerID string) (Move, error)
	OnEvent(event interface{})
}
