package bot

import (
	"yaniv/internal/bot/internal"
	"yaniv/internal/domain"
)

// EasyBot sheds its highest single card, only takes cheap pile cards and
// calls Yaniv as soon as it may.
type EasyBot struct {
	Tuning Tuning
}

func (b *EasyBot) CalculateMove(game domain.GameState, playerID string) (Move, error) {
	player, err := turnContext(game, playerID)
	if err != nil {
		return Move{}, err
	}

	if game.Round.Phase == domain.PhaseAwaitingDraw {
		if game.CanCallYaniv(playerID) {
			return Move{Kind: MoveCallYaniv}, nil
		}
		var pick *domain.Card
		for _, c := range game.PickupCards() {
			if c.Value() <= b.Tuning.LowCardValue && (pick == nil || c.Value() < pick.Value()) {
				pick = &c
			}
		}
		if pick != nil {
			return drawFromPile(*pick), nil
		}
		return drawFromDeck(game), nil
	}

	card, ok := internal.HighestSingle(player.Hand)
	if !ok {
		return Move{}, ErrNoMove
	}
	return Move{Kind: MoveDiscard, Cards: []domain.Card{card}}, nil
}

func (b *EasyBot) OnEvent(event interface{}) {}
