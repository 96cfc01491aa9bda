package domain

import "sort"

// Phase represents the stage of the current Yaniv round.
type Phase string

const (
	// PhaseAwaitingDraw is the start of a turn: the current player may draw or call Yaniv.
	PhaseAwaitingDraw Phase = "awaiting_draw"
	// PhaseAwaitingDiscard follows a draw: the current player must discard.
	PhaseAwaitingDiscard Phase = "awaiting_discard"
	// PhaseRoundEnded is set after Yaniv was called and scores were applied.
	PhaseRoundEnded Phase = "round_ended"
)

// PlayerStatus tracks a participant's standing across the game.
type PlayerStatus string

const (
	StatusActive PlayerStatus = "active"
	StatusWinner PlayerStatus = "winner"
	StatusLost   PlayerStatus = "lost"
)

// DrawSource names where a player takes a card from.
type DrawSource string

const (
	SourceDeck    DrawSource = "deck"
	SourceDiscard DrawSource = "discard"
)

// Player holds the per-game state of one participant.
type Player struct {
	ID     string       `json:"id"`
	Hand   []Card       `json:"hand"`
	Score  int          `json:"score"`
	Status PlayerStatus `json:"status"`
}

// DiscardGroup is the set of cards put down by a single discard.
type DiscardGroup struct {
	PlayerID    string      `json:"player_id,omitempty"`
	Combination Combination `json:"combination"`
}

// SlapDown is the chance a player has, right after discarding, to lay the
// card they drew from the deck onto the group they just discarded.
type SlapDown struct {
	PlayerID string `json:"player_id"`
	Card     Card   `json:"card"`
}

// RoundState is the mutable state of one deal.
type RoundState struct {
	Number         int            `json:"number"`
	StartingPlayer int            `json:"starting_player"`
	Turn           int            `json:"turn"`
	Phase          Phase          `json:"phase"`
	Deck           []Card         `json:"deck"`    // top of deck is the last element
	Discard        []DiscardGroup `json:"discard"` // top group is the last element
	DrawnCard      *Card          `json:"drawn_card,omitempty"`
	DrawnFrom      DrawSource     `json:"drawn_from,omitempty"`
	SlapDown       *SlapDown      `json:"slap_down,omitempty"` // open until the next player acts
	Outcome        *RoundOutcome  `json:"outcome,omitempty"`
}

// GameState is the authoritative state of a Yaniv game. Operations never
// mutate their input; they return a modified copy.
type GameState struct {
	Rules    Rules      `json:"rules"`
	Seed     int64      `json:"seed"`
	Shuffles int        `json:"shuffles"`
	Players  []Player   `json:"players"`
	Round    RoundState `json:"round"`
	Ended    bool       `json:"ended"`
	Winners  []string   `json:"winners,omitempty"`
}

// Clone returns a deep copy of the state.
func (g GameState) Clone() GameState {
	out := g
	out.Players = make([]Player, len(g.Players))
	for i, p := range g.Players {
		p.Hand = cloneCards(p.Hand)
		out.Players[i] = p
	}
	out.Winners = cloneStrings(g.Winners)
	out.Round.Deck = cloneCards(g.Round.Deck)
	out.Round.Discard = make([]DiscardGroup, len(g.Round.Discard))
	for i, grp := range g.Round.Discard {
		grp.Combination.Cards = cloneCards(grp.Combination.Cards)
		out.Round.Discard[i] = grp
	}
	if g.Round.DrawnCard != nil {
		c := *g.Round.DrawnCard
		out.Round.DrawnCard = &c
	}
	if g.Round.SlapDown != nil {
		sd := *g.Round.SlapDown
		out.Round.SlapDown = &sd
	}
	if g.Round.Outcome != nil {
		o := g.Round.Outcome.clone()
		out.Round.Outcome = &o
	}
	return out
}

// CurrentPlayer returns the player whose turn it is.
func (g GameState) CurrentPlayer() Player {
	return g.Players[g.Round.Turn]
}

// Player returns the player with the given id.
func (g GameState) Player(id string) (Player, bool) {
	idx := g.playerIndex(id)
	if idx < 0 {
		return Player{}, false
	}
	return g.Players[idx], true
}

// PlayerIDs returns the ids in seat order.
func (g GameState) PlayerIDs() []string {
	ids := make([]string, len(g.Players))
	for i, p := range g.Players {
		ids[i] = p.ID
	}
	return ids
}

// TopDiscard returns the most recent discard group, if any.
func (g GameState) TopDiscard() (DiscardGroup, bool) {
	n := len(g.Round.Discard)
	if n == 0 {
		return DiscardGroup{}, false
	}
	return g.Round.Discard[n-1], true
}

// PickupCards lists the cards of the top discard group a player may draw.
func (g GameState) PickupCards() []Card {
	top, ok := g.TopDiscard()
	if !ok {
		return nil
	}
	return pickupCandidates(top.Combination)
}

// CardCount returns the number of cards across the deck, discard pile and hands.
func (g GameState) CardCount() int {
	n := len(g.Round.Deck)
	for _, grp := range g.Round.Discard {
		n += len(grp.Combination.Cards)
	}
	for _, p := range g.Players {
		n += len(p.Hand)
	}
	return n
}

// AllCards returns every card currently in play.
func (g GameState) AllCards() []Card {
	out := make([]Card, 0, g.CardCount())
	out = append(out, g.Round.Deck...)
	for _, grp := range g.Round.Discard {
		out = append(out, grp.Combination.Cards...)
	}
	for _, p := range g.Players {
		out = append(out, p.Hand...)
	}
	return out
}

// Standings returns the players ordered by ascending score, seat order on ties.
func (g GameState) Standings() []Player {
	out := make([]Player, len(g.Players))
	copy(out, g.Players)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score < out[j].Score })
	return out
}

func (g GameState) playerIndex(id string) int {
	for i, p := range g.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (g GameState) nextSeat(seat int) int {
	return (seat + 1) % len(g.Players)
}

func cloneCards(cards []Card) []Card {
	if cards == nil {
		return nil
	}
	out := make([]Card, len(cards))
	copy(out, cards)
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
