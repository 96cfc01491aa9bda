package domain

import (
	"fmt"
)

// DrawResult describes a completed draw.
type DrawResult struct {
	PlayerID    string     `json:"player_id"`
	Source      DrawSource `json:"source"`
	Card        Card       `json:"card"`
	Replenished bool       `json:"replenished,omitempty"` // deck was rebuilt from the discard pile first
}

// DiscardResult describes a completed discard.
type DiscardResult struct {
	PlayerID     string      `json:"player_id"`
	Combination  Combination `json:"combination"`
	NextPlayerID string      `json:"next_player_id"`
	SlapDown     *SlapDown   `json:"slap_down,omitempty"` // set when the drawn card may follow the discard
}

// SlapDownResult describes a card laid onto the player's own discard.
type SlapDownResult struct {
	PlayerID    string      `json:"player_id"`
	Card        Card        `json:"card"`
	Combination Combination `json:"combination"` // the top group after the slap
}

// NewGame deals the first round for the given players in seat order.
func NewGame(playerIDs []string, rules Rules, seed int64) (GameState, error) {
	if err := rules.Validate(); err != nil {
		return GameState{}, err
	}
	if len(playerIDs) < rules.MinPlayers || len(playerIDs) > rules.MaxPlayers {
		return GameState{}, fmt.Errorf("%w: %d players, need %d..%d", ErrInvalidPlayers, len(playerIDs), rules.MinPlayers, rules.MaxPlayers)
	}
	seen := make(map[string]bool, len(playerIDs))
	players := make([]Player, 0, len(playerIDs))
	for _, id := range playerIDs {
		if id == "" || seen[id] {
			return GameState{}, fmt.Errorf("%w: empty or duplicate id %q", ErrInvalidPlayers, id)
		}
		seen[id] = true
		players = append(players, Player{ID: id, Status: StatusActive})
	}

	g := GameState{Rules: rules, Seed: seed, Players: players}
	g.deal(0, 1)
	return g, nil
}

// deal shuffles a fresh deck, deals every hand and seeds the discard pile.
func (g *GameState) deal(startingPlayer, number int) {
	deck := ShuffleDeck(NewDeck(g.Rules.Jokers), shuffleSeed(g.Seed, g.Shuffles))
	g.Shuffles++

	for i := range g.Players {
		g.Players[i].Hand = make([]Card, 0, g.Rules.HandSize+1)
	}
	for k := 0; k < g.Rules.HandSize; k++ {
		for i := range g.Players {
			card := deck[len(deck)-1]
			deck = deck[:len(deck)-1]
			g.Players[i].Hand = append(g.Players[i].Hand, card)
		}
	}
	first := deck[len(deck)-1]
	deck = deck[:len(deck)-1]

	g.Round = RoundState{
		Number:         number,
		StartingPlayer: startingPlayer,
		Turn:           startingPlayer,
		Phase:          PhaseAwaitingDraw,
		Deck:           deck,
		Discard: []DiscardGroup{{
			Combination: Combination{Type: Single, Cards: []Card{first}, Value: first.Value()},
		}},
	}
}

// checkTurn validates that id may act in the given phase and returns its seat.
func (g GameState) checkTurn(id string, phase Phase) (int, error) {
	if g.Ended {
		return -1, fmt.Errorf("%w: %w", ErrInvalidTurn, ErrGameAlreadyEnded)
	}
	idx := g.playerIndex(id)
	if idx < 0 {
		return -1, fmt.Errorf("%w: unknown player %q", ErrInvalidTurn, id)
	}
	if g.Round.Phase != phase {
		return -1, fmt.Errorf("%w: phase is %s", ErrInvalidTurn, g.Round.Phase)
	}
	if idx != g.Round.Turn {
		return -1, fmt.Errorf("%w: waiting for %s", ErrInvalidTurn, g.Players[g.Round.Turn].ID)
	}
	return idx, nil
}

// ApplyDraw moves one card from the deck or the top discard group into the
// current player's hand. An optional choice names the discard card to take;
// without it the last card of the group is taken.
func ApplyDraw(g GameState, playerID string, source DrawSource, choice ...Card) (GameState, DrawResult, error) {
	idx, err := g.checkTurn(playerID, PhaseAwaitingDraw)
	if err != nil {
		return g, DrawResult{}, err
	}

	next := g.Clone()
	result := DrawResult{PlayerID: playerID, Source: source}

	switch source {
	case SourceDeck:
		if len(next.Round.Deck) == 0 {
			if !next.Rules.ReshuffleDiscard || !next.replenish() {
				return g, DrawResult{}, fmt.Errorf("%w: deck", ErrEmptySource)
			}
			result.Replenished = true
		}
		deck := next.Round.Deck
		result.Card = deck[len(deck)-1]
		next.Round.Deck = deck[:len(deck)-1]

	case SourceDiscard:
		n := len(next.Round.Discard)
		if n == 0 {
			return g, DrawResult{}, fmt.Errorf("%w: discard pile", ErrEmptySource)
		}
		top := &next.Round.Discard[n-1]
		cards := top.Combination.Cards
		want := cards[len(cards)-1]
		if len(choice) > 0 {
			want = choice[0]
			if !containsCard(pickupCandidates(top.Combination), want) {
				return g, DrawResult{}, fmt.Errorf("%w: %s", ErrCardNotInPile, want)
			}
		}
		result.Card = want
		remaining := removeLast(cards, want)
		if len(remaining) == 0 {
			next.Round.Discard = next.Round.Discard[:n-1]
		} else {
			top.Combination.Cards = remaining
			top.Combination.Value = HandValue(remaining)
		}

	default:
		return g, DrawResult{}, fmt.Errorf("%w: %q", ErrUnknownDrawSource, source)
	}

	next.Players[idx].Hand = append(next.Players[idx].Hand, result.Card)
	drawn := result.Card
	next.Round.DrawnCard = &drawn
	next.Round.DrawnFrom = source
	next.Round.SlapDown = nil
	next.Round.Phase = PhaseAwaitingDiscard
	return next, result, nil
}

// replenish rebuilds the deck from every discard group except the top one.
func (g *GameState) replenish() bool {
	n := len(g.Round.Discard)
	if n < 2 {
		return false
	}
	var buried []Card
	for _, grp := range g.Round.Discard[:n-1] {
		buried = append(buried, grp.Combination.Cards...)
	}
	if len(buried) == 0 {
		return false
	}
	g.Round.Deck = ShuffleDeck(buried, shuffleSeed(g.Seed, g.Shuffles))
	g.Shuffles++
	g.Round.Discard = []DiscardGroup{g.Round.Discard[n-1]}
	return true
}

// ApplyDiscard puts the given cards on the discard pile as a new top group
// and passes the turn to the next seat.
func ApplyDiscard(g GameState, playerID string, cards []Card) (GameState, DiscardResult, error) {
	idx, err := g.checkTurn(playerID, PhaseAwaitingDiscard)
	if err != nil {
		return g, DiscardResult{}, err
	}
	if len(cards) == 0 {
		return g, DiscardResult{}, fmt.Errorf("%w: nothing to discard", ErrIllegalCombination)
	}
	combo := IdentifyCombination(cards, g.Rules)
	if combo.Type == Invalid {
		return g, DiscardResult{}, fmt.Errorf("%w: %v", ErrIllegalCombination, cards)
	}
	if !ContainsCards(g.Players[idx].Hand, cards) {
		return g, DiscardResult{}, fmt.Errorf("%w: %v", ErrCardNotInHand, cards)
	}

	next := g.Clone()
	next.Players[idx].Hand = RemoveCards(next.Players[idx].Hand, cards)
	next.Round.Discard = append(next.Round.Discard, DiscardGroup{PlayerID: playerID, Combination: combo})
	next.Round.SlapDown = g.slapDownAfter(idx, next.Players[idx].Hand, combo)
	next.Round.DrawnCard = nil
	next.Round.DrawnFrom = ""
	next.Round.Turn = next.nextSeat(idx)
	next.Round.Phase = PhaseAwaitingDraw

	var slap *SlapDown
	if next.Round.SlapDown != nil {
		sd := *next.Round.SlapDown
		slap = &sd
	}
	return next, DiscardResult{
		PlayerID:     playerID,
		Combination:  combo,
		NextPlayerID: next.Players[next.Round.Turn].ID,
		SlapDown:     slap,
	}, nil
}

// slapDownAfter opens a slap-down when the card drawn from the deck this turn
// is still in hand and continues the group just discarded. The last card of
// a hand is never slapped.
func (g GameState) slapDownAfter(idx int, hand []Card, discarded Combination) *SlapDown {
	if !g.Rules.SlapDown || g.Round.DrawnFrom != SourceDeck || g.Round.DrawnCard == nil {
		return nil
	}
	drawn := *g.Round.DrawnCard
	if len(hand) < 2 || !containsCard(hand, drawn) {
		return nil
	}
	if !IsValidDiscard(append(cloneCards(discarded.Cards), drawn), g.Rules) {
		return nil
	}
	return &SlapDown{PlayerID: g.Players[idx].ID, Card: drawn}
}

// ApplySlapDown lays the card the player drew from the deck onto the group
// they just discarded. The chance closes as soon as the next player acts.
func ApplySlapDown(g GameState, playerID string, card Card) (GameState, SlapDownResult, error) {
	if g.Ended {
		return g, SlapDownResult{}, fmt.Errorf("%w: %w", ErrInvalidTurn, ErrGameAlreadyEnded)
	}
	sd := g.Round.SlapDown
	n := len(g.Round.Discard)
	if sd == nil || sd.PlayerID != playerID || g.Round.Phase != PhaseAwaitingDraw || n == 0 {
		return g, SlapDownResult{}, fmt.Errorf("%w: %q", ErrNoSlapDown, playerID)
	}
	if card != sd.Card {
		return g, SlapDownResult{}, fmt.Errorf("%w: only %s may be slapped down", ErrIllegalCombination, sd.Card)
	}
	idx := g.playerIndex(playerID)
	if !containsCard(g.Players[idx].Hand, card) {
		return g, SlapDownResult{}, fmt.Errorf("%w: %s", ErrCardNotInHand, card)
	}
	combo := IdentifyCombination(append(cloneCards(g.Round.Discard[n-1].Combination.Cards), card), g.Rules)
	if combo.Type == Invalid {
		return g, SlapDownResult{}, fmt.Errorf("%w: %s does not follow the discard", ErrIllegalCombination, card)
	}

	next := g.Clone()
	next.Players[idx].Hand = RemoveCards(next.Players[idx].Hand, []Card{card})
	next.Round.Discard[n-1].Combination = combo
	next.Round.SlapDown = nil
	return next, SlapDownResult{PlayerID: playerID, Card: card, Combination: combo}, nil
}

// CanSlapDown returns the card the player may slap down right now.
func (g GameState) CanSlapDown(playerID string) (Card, bool) {
	sd := g.Round.SlapDown
	if g.Ended || sd == nil || sd.PlayerID != playerID || g.Round.Phase != PhaseAwaitingDraw {
		return Card{}, false
	}
	return sd.Card, true
}

// CallYaniv ends the round on behalf of the current player and applies scores.
func CallYaniv(g GameState, playerID string) (GameState, RoundOutcome, error) {
	idx, err := g.checkTurn(playerID, PhaseAwaitingDraw)
	if err != nil {
		return g, RoundOutcome{}, err
	}
	if v := HandValue(g.Players[idx].Hand); v > g.Rules.YanivThreshold {
		return g, RoundOutcome{}, fmt.Errorf("%w: %d > %d", ErrHandTooHigh, v, g.Rules.YanivThreshold)
	}

	next := g.Clone()
	outcome := next.scoreRound(idx)
	next.Round.Phase = PhaseRoundEnded
	next.Round.DrawnCard = nil
	next.Round.DrawnFrom = ""
	next.Round.SlapDown = nil
	next.Round.Outcome = &outcome
	return next, outcome.clone(), nil
}

// StartNextRound deals a new round with the starting seat rotated by one.
func StartNextRound(g GameState) (GameState, error) {
	if g.Ended || g.anyEliminated() {
		return g, ErrGameAlreadyEnded
	}
	if g.Round.Phase != PhaseRoundEnded {
		return g, fmt.Errorf("%w: phase is %s", ErrRoundInProgress, g.Round.Phase)
	}
	next := g.Clone()
	next.deal(next.nextSeat(g.Round.StartingPlayer), g.Round.Number+1)
	return next, nil
}

// PlayAgain starts a rematch with the same seats once the game has ended.
func PlayAgain(g GameState) (GameState, error) {
	if !g.Ended {
		return g, ErrGameNotEnded
	}
	next := g.Clone()
	for i := range next.Players {
		next.Players[i].Score = 0
		next.Players[i].Status = StatusActive
	}
	next.Ended = false
	next.Winners = nil
	next.deal(next.nextSeat(g.Round.StartingPlayer), 1)
	return next, nil
}

// CanCallYaniv reports whether the player may call Yaniv right now.
func (g GameState) CanCallYaniv(playerID string) bool {
	idx, err := g.checkTurn(playerID, PhaseAwaitingDraw)
	if err != nil {
		return false
	}
	return HandValue(g.Players[idx].Hand) <= g.Rules.YanivThreshold
}

// LegalDiscards lists the discards available to the player's current hand.
func (g GameState) LegalDiscards(playerID string) []Combination {
	p, ok := g.Player(playerID)
	if !ok {
		return nil
	}
	return LegalDiscards(p.Hand, g.Rules)
}

func (g GameState) anyEliminated() bool {
	for _, p := range g.Players {
		if p.Score > g.Rules.EliminationScore {
			return true
		}
	}
	return false
}

func containsCard(cards []Card, c Card) bool {
	for _, v := range cards {
		if v == c {
			return true
		}
	}
	return false
}

// removeLast drops the last occurrence of c.
func removeLast(cards []Card, c Card) []Card {
	out := cloneCards(cards)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] == c {
			return append(out[:i], out[i+1:]...)
		}
	}
	return out
}
