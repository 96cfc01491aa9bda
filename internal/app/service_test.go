package app

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"yaniv/internal/domain"
)

func mustCards(t *testing.T, s string) []domain.Card {
	t.Helper()
	cards, err := domain.ParseCards(s)
	if err != nil {
		t.Fatalf("ParseCards(%q): %v", s, err)
	}
	return cards
}

func startTestGame(t *testing.T, seats ...string) (*Service, *Game) {
	t.Helper()
	svc := NewService(rand.New(rand.NewSource(42)))
	game, _, err := svc.StartGame(seats, StartOptions{Rules: domain.DefaultRules(), BaseBet: 100})
	if err != nil {
		t.Fatalf("start game error: %v", err)
	}
	return svc, game
}

func countKind(evs []Event, kind EventKind) int {
	n := 0
	for _, ev := range evs {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func TestStartGameDealsHands(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(42)))

	game, evs, err := svc.StartGame([]string{"u1", "", "u2"}, StartOptions{Rules: domain.DefaultRules(), BaseBet: 100})
	if err != nil {
		t.Fatalf("start game error: %v", err)
	}
	if game.ID == "" {
		t.Fatalf("game id should be set")
	}
	if !reflect.DeepEqual(game.State.PlayerIDs(), []string{"u1", "u2"}) {
		t.Fatalf("players = %v, want [u1 u2]", game.State.PlayerIDs())
	}
	if evs[0].Kind != EventGameStarted {
		t.Fatalf("first event = %s, want game_started", evs[0].Kind)
	}
	started := evs[0].Payload.(GameStartedPayload)
	if started.FirstTurnUserID != "u1" || started.BaseBet != 100 || len(started.TopDiscard) != 1 {
		t.Fatalf("unexpected game_started payload: %+v", started)
	}

	handEvents := 0
	for _, ev := range evs {
		if ev.Kind != EventHandDealt {
			continue
		}
		handEvents++
		payload := ev.Payload.(HandDealtPayload)
		if len(payload.Hand) != 5 {
			t.Fatalf("hand size = %d, want 5", len(payload.Hand))
		}
		if len(ev.Recipients) != 1 || ev.Recipients[0] != payload.UserID {
			t.Fatalf("hand_dealt must be private to %s, got %v", payload.UserID, ev.Recipients)
		}
	}
	if handEvents != 2 {
		t.Fatalf("hand events = %d, want 2", handEvents)
	}
	if !game.State.IsConserved() {
		t.Fatalf("deal does not conserve cards")
	}
}

func TestStartGameRejectsBadSeats(t *testing.T) {
	svc := NewService(nil)
	tests := []struct {
		name  string
		seats []string
		want  error
	}{
		{name: "empty", seats: []string{"", "", "", ""}, want: ErrTooFewPlayers},
		{name: "solo", seats: []string{"u1"}, want: ErrTooFewPlayers},
		{name: "duplicate", seats: []string{"u1", "u1"}, want: domain.ErrInvalidPlayers},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.StartGame(tt.seats, StartOptions{Rules: domain.DefaultRules()})
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDrawAndDiscardEmitEvents(t *testing.T) {
	svc, game := startTestGame(t, "u1", "u2")

	evs, err := svc.Draw(game, "u1", domain.SourceDeck)
	if err != nil {
		t.Fatalf("draw error: %v", err)
	}
	drawn := evs[0].Payload.(CardDrawnPayload)
	if drawn.Card != nil {
		t.Fatalf("deck draws must not reveal the card")
	}
	if drawn.HandSize != 6 {
		t.Fatalf("hand size after draw = %d, want 6", drawn.HandSize)
	}
	if evs[1].Kind != EventHandUpdated || len(evs[1].Recipients) != 1 || evs[1].Recipients[0] != "u1" {
		t.Fatalf("expected private hand_updated for u1, got %+v", evs[1])
	}

	card := *game.State.Round.DrawnCard
	evs, err = svc.Discard(game, "u1", []domain.Card{card})
	if err != nil {
		t.Fatalf("discard error: %v", err)
	}
	discarded := evs[0].Payload.(CardsDiscardedPayload)
	if discarded.NextTurnUserID != "u2" || discarded.Combination.Type != domain.Single {
		t.Fatalf("unexpected discard payload: %+v", discarded)
	}
	if len(discarded.PickupCards) != 1 || discarded.PickupCards[0] != card {
		t.Fatalf("pickup cards = %v, want [%s]", discarded.PickupCards, card)
	}
}

func TestDrawFromDiscardRevealsCard(t *testing.T) {
	svc, game := startTestGame(t, "u1", "u2")
	top, _ := game.State.TopDiscard()

	evs, err := svc.Draw(game, "u1", domain.SourceDiscard)
	if err != nil {
		t.Fatalf("draw error: %v", err)
	}
	drawn := evs[0].Payload.(CardDrawnPayload)
	if drawn.Card == nil || *drawn.Card != top.Combination.Cards[0] {
		t.Fatalf("discard draw should reveal %v, got %v", top.Combination.Cards, drawn.Card)
	}
}

func TestRejectedIntentsLeaveStateUnchanged(t *testing.T) {
	svc, game := startTestGame(t, "u1", "u2")
	before := game.State.Clone()

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{
			name: "wrong player draws",
			run: func() error {
				_, err := svc.Draw(game, "u2", domain.SourceDeck)
				return err
			},
			want: domain.ErrInvalidTurn,
		},
		{
			name: "unknown player",
			run: func() error {
				_, err := svc.Draw(game, "stranger", domain.SourceDeck)
				return err
			},
			want: ErrUnknownPlayer,
		},
		{
			name: "discard before draw",
			run: func() error {
				_, err := svc.Discard(game, "u1", game.State.Players[0].Hand[:1])
				return err
			},
			want: domain.ErrInvalidTurn,
		},
		{
			name: "next round while playing",
			run: func() error {
				_, err := svc.StartNextRound(game)
				return err
			},
			want: domain.ErrRoundInProgress,
		},
		{
			name: "play again while playing",
			run: func() error {
				_, err := svc.PlayAgain(game)
				return err
			},
			want: domain.ErrGameNotEnded,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if !reflect.DeepEqual(game.State, before) {
				t.Fatalf("state changed after rejected intent")
			}
		})
	}
}

func TestCallYanivEndsRoundAndGame(t *testing.T) {
	svc, game := startTestGame(t, "u1", "u2")
	game.State.Players[0].Hand = mustCards(t, "AS 2S")
	game.State.Players[1].Hand = mustCards(t, "KH QH")
	game.State.Players[1].Score = 95

	evs, err := svc.CallYaniv(game, "u1")
	if err != nil {
		t.Fatalf("call yaniv error: %v", err)
	}
	if len(evs) != 2 || evs[0].Kind != EventRoundEnded || evs[1].Kind != EventGameEnded {
		t.Fatalf("expected round_ended then game_ended, got %v", evs)
	}
	outcome := evs[0].Payload.(RoundEndedPayload).Outcome
	if outcome.Assaf || outcome.ScoreDeltas["u1"] != 0 || outcome.ScoreDeltas["u2"] != 20 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	ended := evs[1].Payload.(GameEndedPayload)
	if !reflect.DeepEqual(ended.Winners, []string{"u1"}) {
		t.Fatalf("winners = %v, want [u1]", ended.Winners)
	}
	if ended.BalanceChanges["u1"] != 100 || ended.BalanceChanges["u2"] != -100 {
		t.Fatalf("balance changes = %v", ended.BalanceChanges)
	}

	firstID := game.ID
	evs, err = svc.PlayAgain(game)
	if err != nil {
		t.Fatalf("play again error: %v", err)
	}
	if countKind(evs, EventRoundStarted) != 1 || countKind(evs, EventHandDealt) != 2 {
		t.Fatalf("unexpected rematch events: %v", evs)
	}
	if game.ID == "" || game.ID == firstID {
		t.Fatalf("rematch kept game id %q", firstID)
	}
	if started := evs[0].Payload.(RoundStartedPayload); started.GameID != game.ID {
		t.Fatalf("round_started game id = %q, want %q", started.GameID, game.ID)
	}
	if game.State.Ended || game.State.Players[1].Score != 0 {
		t.Fatalf("rematch should reset the game")
	}
}

func TestCallYanivThenNextRound(t *testing.T) {
	svc, game := startTestGame(t, "u1", "u2", "u3")
	game.State.Players[0].Hand = mustCards(t, "AS 2S 3D")

	evs, err := svc.CallYaniv(game, "u1")
	if err != nil {
		t.Fatalf("call yaniv error: %v", err)
	}
	if countKind(evs, EventGameEnded) != 0 {
		t.Fatalf("game should continue after one round")
	}

	evs, err = svc.StartNextRound(game)
	if err != nil {
		t.Fatalf("next round error: %v", err)
	}
	started := evs[0].Payload.(RoundStartedPayload)
	if started.Round != 2 || started.FirstTurnUserID != "u2" {
		t.Fatalf("round started = %+v, want round 2 starting with u2", started)
	}
	if countKind(evs, EventHandDealt) != 3 {
		t.Fatalf("expected a hand per player, got %v", evs)
	}
}

func TestForceTurn(t *testing.T) {
	svc, game := startTestGame(t, "u1", "u2")

	if _, err := svc.ForceTurn(game, "u2"); !errors.Is(err, domain.ErrInvalidTurn) {
		t.Fatalf("force turn for the wrong player err = %v", err)
	}

	evs, err := svc.ForceTurn(game, "u1")
	if err != nil {
		t.Fatalf("force turn error: %v", err)
	}
	if countKind(evs, EventCardDrawn) != 1 || countKind(evs, EventCardsDiscarded) != 1 {
		t.Fatalf("forced turn should draw and discard, got %v", evs)
	}
	for _, ev := range evs {
		switch p := ev.Payload.(type) {
		case CardDrawnPayload:
			if !p.Forced {
				t.Fatalf("forced draw not flagged")
			}
		case CardsDiscardedPayload:
			if !p.Forced {
				t.Fatalf("forced discard not flagged")
			}
		}
	}
	if game.State.CurrentPlayer().ID != "u2" || game.State.Round.Phase != domain.PhaseAwaitingDraw {
		t.Fatalf("turn should pass to u2 awaiting draw")
	}
	if !game.State.IsConserved() {
		t.Fatalf("forced turn does not conserve cards")
	}
}

func TestForceTurnAfterDrawOnlyDiscards(t *testing.T) {
	svc, game := startTestGame(t, "u1", "u2")
	if _, err := svc.Draw(game, "u1", domain.SourceDeck); err != nil {
		t.Fatalf("draw error: %v", err)
	}
	evs, err := svc.ForceTurn(game, "u1")
	if err != nil {
		t.Fatalf("force turn error: %v", err)
	}
	if countKind(evs, EventCardDrawn) != 0 || countKind(evs, EventCardsDiscarded) != 1 {
		t.Fatalf("expected a single forced discard, got %v", evs)
	}
}

func TestForceTurnFallsBackToDiscardPile(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(7)))
	rules := domain.DefaultRules()
	rules.ReshuffleDiscard = false
	game, _, err := svc.StartGame([]string{"u1", "u2"}, StartOptions{Rules: rules})
	if err != nil {
		t.Fatalf("start game error: %v", err)
	}
	game.State.Round.Deck = nil

	evs, err := svc.ForceTurn(game, "u1")
	if err != nil {
		t.Fatalf("force turn error: %v", err)
	}
	drawn := evs[0].Payload.(CardDrawnPayload)
	if drawn.Source != domain.SourceDiscard {
		t.Fatalf("draw source = %s, want discard", drawn.Source)
	}
}

func TestCalculateSettlement(t *testing.T) {
	ended := func(winners []string, ids ...string) domain.GameState {
		s := domain.GameState{Ended: true, Winners: winners}
		for _, id := range ids {
			s.Players = append(s.Players, domain.Player{ID: id})
		}
		return s
	}

	tests := []struct {
		name    string
		state   domain.GameState
		baseBet int64
		taxRate float64
		want    map[string]int64
	}{
		{
			name:    "single winner",
			state:   ended([]string{"b"}, "a", "b", "c"),
			baseBet: 100,
			want:    map[string]int64{"a": -100, "b": 200, "c": -100},
		},
		{
			name:    "split pot remainder to earliest seat",
			state:   ended([]string{"c", "a"}, "a", "b", "c"),
			baseBet: 75,
			want:    map[string]int64{"a": 38, "b": -75, "c": 37},
		},
		{
			name:    "tax on winnings",
			state:   ended([]string{"a"}, "a", "b", "c"),
			baseBet: 100,
			taxRate: 0.05,
			want:    map[string]int64{"a": 190, "b": -100, "c": -100},
		},
		{
			name:    "not ended",
			state:   domain.GameState{Players: []domain.Player{{ID: "a"}, {ID: "b"}}},
			baseBet: 100,
			want:    nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateSettlement(tt.state, tt.baseBet, tt.taxRate)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("CalculateSettlement = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestViewHidesOpponentHands(t *testing.T) {
	_, game := startTestGame(t, "u1", "u2")

	v := View(game, "u1")
	if len(v.Players[0].Hand) != 5 {
		t.Fatalf("viewer should see own hand")
	}
	if v.Players[1].Hand != nil || v.Players[1].HandCount != 5 {
		t.Fatalf("opponent hand leaked: %+v", v.Players[1])
	}
	if v.CurrentTurn != "u1" || v.Phase != domain.PhaseAwaitingDraw {
		t.Fatalf("unexpected view: %+v", v)
	}
}

func TestSlapDownEmitsEvents(t *testing.T) {
	svc, game := startTestGame(t, "u1", "u2")
	game.State.Players[0].Hand = mustCards(t, "5S 5H QC 2D")
	game.State.Round.Deck = append(game.State.Round.Deck, mustCards(t, "5C")...)

	if _, err := svc.Draw(game, "u1", domain.SourceDeck); err != nil {
		t.Fatalf("draw error: %v", err)
	}
	evs, err := svc.Discard(game, "u1", mustCards(t, "5S 5H"))
	if err != nil {
		t.Fatalf("discard error: %v", err)
	}
	if got := evs[0].Payload.(CardsDiscardedPayload).SlapDownFor; got != "u1" {
		t.Fatalf("slap_down_for = %q, want u1", got)
	}

	if _, err := svc.SlapDown(game, "u2", mustCards(t, "5C")[0]); !errors.Is(err, domain.ErrNoSlapDown) {
		t.Fatalf("slap by u2 error = %v, want ErrNoSlapDown", err)
	}
	evs, err = svc.SlapDown(game, "u1", mustCards(t, "5C")[0])
	if err != nil {
		t.Fatalf("slap error: %v", err)
	}
	if len(evs) != 2 || evs[0].Kind != EventCardSlapped || evs[1].Kind != EventHandUpdated {
		t.Fatalf("expected card_slapped then hand_updated, got %v", evs)
	}
	slapped := evs[0].Payload.(CardSlappedPayload)
	if slapped.Combination.Type != domain.Set || len(slapped.Combination.Cards) != 3 || slapped.HandSize != 2 {
		t.Fatalf("unexpected card_slapped payload: %+v", slapped)
	}
	if !reflect.DeepEqual(evs[1].Recipients, []string{"u1"}) {
		t.Fatalf("hand_updated recipients = %v", evs[1].Recipients)
	}
	if game.State.CurrentPlayer().ID != "u2" {
		t.Fatalf("slap-down must not change the turn")
	}
}
