package bot

import (
	"yaniv/internal/app"
	"yaniv/internal/bot/brain"
	"yaniv/internal/bot/internal"
	"yaniv/internal/domain"
)

// HardBot plays like MediumBot but remembers what opponents took from the
// pile. It uses that to estimate their hands before calling Yaniv, to compare
// the pile against the deck and to avoid feeding the next player.
type HardBot struct {
	Tuning Tuning
	Memory *brain.Memory
}

// NewHardBot returns a HardBot with empty memory.
func NewHardBot(t Tuning) *HardBot {
	return &HardBot{Tuning: t, Memory: brain.NewMemory("")}
}

func (b *HardBot) CalculateMove(game domain.GameState, playerID string) (Move, error) {
	player, err := turnContext(game, playerID)
	if err != nil {
		return Move{}, err
	}
	if b.Memory == nil {
		b.Memory = brain.NewMemory(playerID)
	}
	b.Memory.Self = playerID
	b.Memory.Sync(game)

	if game.Round.Phase == domain.PhaseAwaitingDraw {
		unseen := b.unseen(game, player.Hand)
		if game.CanCallYaniv(playerID) {
			own := float64(domain.HandValue(player.Hand)) + b.Tuning.CallMargin
			if !b.Memory.Threatened(own, internal.MeanValue(unseen)) {
				return Move{Kind: MoveCallYaniv}, nil
			}
		}
		choice := internal.EvaluateDraw(player.Hand, game.PickupCards(), unseen, game.Rules)
		if choice.Source == domain.SourceDiscard {
			return drawFromPile(choice.Card), nil
		}
		return drawFromDeck(game), nil
	}

	var next *brain.OpponentProfile
	if len(game.Players) > 1 {
		nextID := game.Players[(game.Round.Turn+1)%len(game.Players)].ID
		next = b.Memory.Profile(nextID)
	}
	return discard(selectDiscard(player.Hand, game.Rules, b.Tuning, next, &ShedMostRule{}, &AvoidFeedingRule{}))
}

// unseen lists the cards that could still come off the deck from the bot's
// point of view.
func (b *HardBot) unseen(game domain.GameState, hand []domain.Card) []domain.Card {
	var pile []domain.Card
	for _, grp := range game.Round.Discard {
		pile = append(pile, grp.Combination.Cards...)
	}
	return internal.Unseen(game.Rules, hand, pile, b.Memory.KnownCards())
}

// OnEvent feeds pile pickups and discards into the bot's memory.
func (b *HardBot) OnEvent(event interface{}) {
	if b.Memory == nil {
		return
	}
	ev, ok := event.(app.Event)
	if !ok {
		return
	}
	switch p := ev.Payload.(type) {
	case app.CardDrawnPayload:
		if p.Source == domain.SourceDiscard && p.Card != nil {
			b.Memory.RecordPickup(p.UserID, *p.Card)
		}
	case app.CardsDiscardedPayload:
		b.Memory.RecordDiscard(p.UserID, p.Combination.Cards)
	case app.CardSlappedPayload:
		b.Memory.RecordDiscard(p.UserID, []domain.Card{p.Card})
	case app.RoundStartedPayload:
		b.Memory.Reset(p.Round)
	case app.GameStartedPayload:
		b.Memory.Reset(1)
	}
}
