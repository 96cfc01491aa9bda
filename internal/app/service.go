package app

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"yaniv/internal/domain"

	"github.com/google/uuid"
)

// Game wraps the engine state with the match-level data the service tracks.
type Game struct {
	ID        string
	State     domain.GameState
	BaseBet   int64
	TaxRate   float64
	StartedAt time.Time
}

// Service contains Yaniv use-cases operating on domain state.
type Service struct {
	rng *rand.Rand
	now func() time.Time
}

// NewService constructs a Service with provided rng or a time-seeded default.
func NewService(rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{rng: rng, now: time.Now}
}

var (
	ErrNotPlaying    = errors.New("match not in playing phase")
	ErrTooFewPlayers = errors.New("not enough players to start")
	ErrUnknownPlayer = errors.New("player not found")
)

// StartOptions carries the table settings for a new game.
type StartOptions struct {
	Rules   domain.Rules
	BaseBet int64
	TaxRate float64
}

// StartGame deals a new game for the provided seats.
// It expects a list of userIDs representing the players in seat order (empty strings for empty seats).
func (s *Service) StartGame(playerIDs []string, opts StartOptions) (*Game, []Event, error) {
	var seats []string
	for _, userID := range playerIDs {
		if userID != "" {
			seats = append(seats, userID)
		}
	}
	if len(seats) < MinPlayersToStartGame {
		return nil, nil, ErrTooFewPlayers
	}

	state, err := domain.NewGame(seats, opts.Rules, s.rng.Int63())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to deal game: %w", err)
	}

	game := &Game{
		ID:        uuid.NewString(),
		State:     state,
		BaseBet:   opts.BaseBet,
		TaxRate:   opts.TaxRate,
		StartedAt: s.now(),
	}

	events := make([]Event, 0, len(seats)+1)
	events = append(events, Event{
		Kind: EventGameStarted,
		Payload: GameStartedPayload{
			GameID:          game.ID,
			PlayerIDs:       state.PlayerIDs(),
			FirstTurnUserID: state.CurrentPlayer().ID,
			TopDiscard:      topDiscardCards(state),
			DeckSize:        len(state.Round.Deck),
			Rules:           state.Rules,
			BaseBet:         game.BaseBet,
		},
	})
	events = append(events, dealtHands(state)...)
	return game, events, nil
}

// Draw takes a card for the acting player from the deck or discard pile.
func (s *Service) Draw(game *Game, actorUserID string, source domain.DrawSource, choice ...domain.Card) ([]Event, error) {
	return s.draw(game, actorUserID, source, false, choice...)
}

func (s *Service) draw(game *Game, actorUserID string, source domain.DrawSource, forced bool, choice ...domain.Card) ([]Event, error) {
	if err := checkPlayer(game, actorUserID); err != nil {
		return nil, err
	}
	next, res, err := domain.ApplyDraw(game.State, actorUserID, source, choice...)
	if err != nil {
		return nil, err
	}
	game.State = next

	p, _ := next.Player(actorUserID)
	payload := CardDrawnPayload{
		UserID:      actorUserID,
		Source:      res.Source,
		HandSize:    len(p.Hand),
		DeckSize:    len(next.Round.Deck),
		Replenished: res.Replenished,
		Forced:      forced,
	}
	if res.Source == domain.SourceDiscard {
		card := res.Card
		payload.Card = &card
	}

	return []Event{
		{Kind: EventCardDrawn, Payload: payload},
		handUpdated(p),
	}, nil
}

// Discard puts the acting player's cards on the discard pile and passes the turn.
func (s *Service) Discard(game *Game, actorUserID string, cards []domain.Card) ([]Event, error) {
	return s.discard(game, actorUserID, cards, false)
}

func (s *Service) discard(game *Game, actorUserID string, cards []domain.Card, forced bool) ([]Event, error) {
	if err := checkPlayer(game, actorUserID); err != nil {
		return nil, err
	}
	next, res, err := domain.ApplyDiscard(game.State, actorUserID, cards)
	if err != nil {
		return nil, err
	}
	game.State = next

	p, _ := next.Player(actorUserID)
	var slapFor string
	if res.SlapDown != nil {
		slapFor = res.SlapDown.PlayerID
	}
	return []Event{
		{
			Kind: EventCardsDiscarded,
			Payload: CardsDiscardedPayload{
				UserID:         actorUserID,
				Combination:    res.Combination,
				NextTurnUserID: res.NextPlayerID,
				PickupCards:    next.PickupCards(),
				HandSize:       len(p.Hand),
				Forced:         forced,
				SlapDownFor:    slapFor,
			},
		},
		handUpdated(p),
	}, nil
}

// SlapDown lays the card the acting player just drew from the deck onto the
// group they discarded, while the next player has not acted yet.
func (s *Service) SlapDown(game *Game, actorUserID string, card domain.Card) ([]Event, error) {
	if err := checkPlayer(game, actorUserID); err != nil {
		return nil, err
	}
	next, res, err := domain.ApplySlapDown(game.State, actorUserID, card)
	if err != nil {
		return nil, err
	}
	game.State = next

	p, _ := next.Player(actorUserID)
	return []Event{
		{
			Kind: EventCardSlapped,
			Payload: CardSlappedPayload{
				UserID:      actorUserID,
				Card:        res.Card,
				Combination: res.Combination,
				PickupCards: next.PickupCards(),
				HandSize:    len(p.Hand),
			},
		},
		handUpdated(p),
	}, nil
}

// CallYaniv ends the round for the acting player. When the round closes the
// game, settlement is computed and a game_ended event follows.
func (s *Service) CallYaniv(game *Game, actorUserID string) ([]Event, error) {
	if err := checkPlayer(game, actorUserID); err != nil {
		return nil, err
	}
	next, outcome, err := domain.CallYaniv(game.State, actorUserID)
	if err != nil {
		return nil, err
	}
	game.State = next

	events := []Event{{Kind: EventRoundEnded, Payload: RoundEndedPayload{Outcome: outcome}}}
	if next.Ended {
		events = append(events, Event{
			Kind: EventGameEnded,
			Payload: GameEndedPayload{
				GameID:         game.ID,
				Winners:        append([]string(nil), next.Winners...),
				FinalScores:    outcome.Scores,
				BalanceChanges: CalculateSettlement(next, game.BaseBet, game.TaxRate),
			},
		})
	}
	return events, nil
}

// StartNextRound deals the next round after a Yaniv call.
func (s *Service) StartNextRound(game *Game) ([]Event, error) {
	if game == nil {
		return nil, ErrNotPlaying
	}
	next, err := domain.StartNextRound(game.State)
	if err != nil {
		return nil, err
	}
	game.State = next
	return roundStarted(game), nil
}

// PlayAgain starts a rematch with the same seats after the game ended. The
// rematch is settled under a new game id.
func (s *Service) PlayAgain(game *Game) ([]Event, error) {
	if game == nil {
		return nil, ErrNotPlaying
	}
	next, err := domain.PlayAgain(game.State)
	if err != nil {
		return nil, err
	}
	game.ID = uuid.NewString()
	game.State = next
	game.StartedAt = s.now()
	return roundStarted(game), nil
}

// ForceTurn completes the player's turn when their timer expires: in the
// draw phase it draws from the deck (the discard pile if the deck cannot be
// rebuilt), then it discards the highest-value legal combination.
func (s *Service) ForceTurn(game *Game, actor string) ([]Event, error) {
	if game == nil || game.State.Ended || game.State.Round.Phase == domain.PhaseRoundEnded {
		return nil, ErrNotPlaying
	}
	if game.State.CurrentPlayer().ID != actor {
		return nil, fmt.Errorf("%w: not %s's turn", domain.ErrInvalidTurn, actor)
	}
	var events []Event

	if game.State.Round.Phase == domain.PhaseAwaitingDraw {
		evs, err := s.draw(game, actor, domain.SourceDeck, true)
		if errors.Is(err, domain.ErrEmptySource) {
			evs, err = s.draw(game, actor, domain.SourceDiscard, true)
		}
		if err != nil {
			return nil, err
		}
		events = append(events, evs...)
	}

	if game.State.Round.Phase != domain.PhaseAwaitingDiscard {
		return nil, fmt.Errorf("%w: phase is %s", domain.ErrInvalidTurn, game.State.Round.Phase)
	}
	p, _ := game.State.Player(actor)
	best := domain.HighestValueDiscard(p.Hand, game.State.Rules)
	evs, err := s.discard(game, actor, best.Cards, true)
	if err != nil {
		return events, err
	}
	return append(events, evs...), nil
}

func checkPlayer(game *Game, userID string) error {
	if game == nil {
		return ErrNotPlaying
	}
	if _, ok := game.State.Player(userID); !ok {
		return ErrUnknownPlayer
	}
	return nil
}

func handUpdated(p domain.Player) Event {
	return Event{
		Kind:       EventHandUpdated,
		Payload:    HandUpdatedPayload{UserID: p.ID, Hand: append([]domain.Card(nil), p.Hand...)},
		Recipients: []string{p.ID},
	}
}

func dealtHands(state domain.GameState) []Event {
	events := make([]Event, 0, len(state.Players))
	for _, p := range state.Players {
		events = append(events, Event{
			Kind: EventHandDealt,
			Payload: HandDealtPayload{
				UserID: p.ID,
				Round:  state.Round.Number,
				Hand:   append([]domain.Card(nil), p.Hand...),
			},
			Recipients: []string{p.ID},
		})
	}
	return events
}

func roundStarted(game *Game) []Event {
	state := game.State
	scores := make(map[string]int, len(state.Players))
	for _, p := range state.Players {
		scores[p.ID] = p.Score
	}
	events := []Event{{
		Kind: EventRoundStarted,
		Payload: RoundStartedPayload{
			GameID:          game.ID,
			Round:           state.Round.Number,
			FirstTurnUserID: state.CurrentPlayer().ID,
			TopDiscard:      topDiscardCards(state),
			DeckSize:        len(state.Round.Deck),
			Scores:          scores,
		},
	}}
	return append(events, dealtHands(state)...)
}

func topDiscardCards(state domain.GameState) []domain.Card {
	top, ok := state.TopDiscard()
	if !ok {
		return nil
	}
	return append([]domain.Card(nil), top.Combination.Cards...)
}
