package bot

import (
	"yaniv/internal/bot/internal"
	"yaniv/internal/domain"
)

// MediumBot sheds the most points it can each turn and takes pile cards that
// are cheap or complete a combination.
type MediumBot struct {
	Tuning Tuning
}

func (b *MediumBot) CalculateMove(game domain.GameState, playerID string) (Move, error) {
	player, err := turnContext(game, playerID)
	if err != nil {
		return Move{}, err
	}

	if game.Round.Phase == domain.PhaseAwaitingDraw {
		if game.CanCallYaniv(playerID) {
			return Move{Kind: MoveCallYaniv}, nil
		}
		if card, ok := b.choosePickup(player.Hand, game.PickupCards(), game.Rules); ok {
			return drawFromPile(card), nil
		}
		return drawFromDeck(game), nil
	}

	return discard(selectDiscard(player.Hand, game.Rules, b.Tuning, nil, &ShedMostRule{}))
}

// choosePickup returns the useful pile card that leaves the lowest residual.
func (b *MediumBot) choosePickup(hand, pile []domain.Card, rules domain.Rules) (domain.Card, bool) {
	var best domain.Card
	bestResidual := -1
	for _, c := range pile {
		if c.Value() > b.Tuning.LowCardValue && !internal.ExtendsCombination(hand, c, rules) {
			continue
		}
		residual := internal.ResidualValue(append(append([]domain.Card(nil), hand...), c), rules)
		if bestResidual < 0 || residual < bestResidual {
			best, bestResidual = c, residual
		}
	}
	return best, bestResidual >= 0
}

func (b *MediumBot) OnEvent(event interface{}) {}
