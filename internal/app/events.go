package app

import "yaniv/internal/domain"

// EventKind identifies emitted domain events for Nakama dispatch.
type EventKind string

const (
	EventGameStarted    EventKind = "game_started"
	EventHandDealt      EventKind = "hand_dealt"
	EventHandUpdated    EventKind = "hand_updated"
	EventCardDrawn      EventKind = "card_drawn"
	EventCardsDiscarded EventKind = "cards_discarded"
	EventCardSlapped    EventKind = "card_slapped"
	EventRoundEnded     EventKind = "round_ended"
	EventRoundStarted   EventKind = "round_started"
	EventGameEnded      EventKind = "game_ended"
)

// Event is a domain/app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

type GameStartedPayload struct {
	GameID          string
	PlayerIDs       []string
	FirstTurnUserID string
	TopDiscard      []domain.Card
	DeckSize        int
	Rules           domain.Rules
	BaseBet         int64
}

type HandDealtPayload struct {
	UserID string
	Round  int
	Hand   []domain.Card
}

type HandUpdatedPayload struct {
	UserID string
	Hand   []domain.Card
}

// CardDrawnPayload reveals the card only when it came from the discard pile.
type CardDrawnPayload struct {
	UserID      string
	Source      domain.DrawSource
	Card        *domain.Card
	HandSize    int
	DeckSize    int
	Replenished bool
	Forced      bool
}

type CardsDiscardedPayload struct {
	UserID         string
	Combination    domain.Combination
	NextTurnUserID string
	PickupCards    []domain.Card
	HandSize       int
	Forced         bool
	SlapDownFor    string // player who may now slap down, empty when none
}

// CardSlappedPayload is a card laid onto the slapper's own discard.
type CardSlappedPayload struct {
	UserID      string
	Card        domain.Card
	Combination domain.Combination
	PickupCards []domain.Card
	HandSize    int
}

type RoundEndedPayload struct {
	Outcome domain.RoundOutcome
}

type RoundStartedPayload struct {
	GameID          string
	Round           int
	FirstTurnUserID string
	TopDiscard      []domain.Card
	DeckSize        int
	Scores          map[string]int
}

type GameEndedPayload struct {
	GameID         string
	Winners        []string
	FinalScores    map[string]int
	BalanceChanges map[string]int64
}
