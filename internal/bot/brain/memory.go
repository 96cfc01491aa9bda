package brain

import (
	"sort"

	"yaniv/internal/domain"
)

// Memory stores one bot's private view of the round: which cards its
// opponents are known to hold and how many cards each has.
type Memory struct {
	Self      string
	Round     int
	Opponents map[string]*OpponentProfile
}

// NewMemory initializes a fresh memory state for the bot with id self.
func NewMemory(self string) *Memory {
	return &Memory{
		Self:      self,
		Opponents: make(map[string]*OpponentProfile),
	}
}

// Reset clears the memory for a new round.
func (m *Memory) Reset(round int) {
	m.Round = round
	m.Opponents = make(map[string]*OpponentProfile)
}

// Profile returns the opponent's profile, creating it on first use.
func (m *Memory) Profile(id string) *OpponentProfile {
	p, ok := m.Opponents[id]
	if !ok {
		p = NewOpponentProfile(id)
		m.Opponents[id] = p
	}
	return p
}

// Sync aligns the memory with the public parts of the state: a new round
// number wipes what was learned, and hand sizes are refreshed.
func (m *Memory) Sync(state domain.GameState) {
	if state.Round.Number != m.Round {
		m.Reset(state.Round.Number)
	}
	delete(m.Opponents, m.Self)
	for _, p := range state.Players {
		if p.ID == m.Self {
			continue
		}
		m.Profile(p.ID).HandSize = len(p.Hand)
	}
}

// RecordPickup logs that playerID took card from the discard pile.
func (m *Memory) RecordPickup(playerID string, card domain.Card) {
	if playerID == m.Self {
		return
	}
	m.Profile(playerID).RecordPickup(card)
}

// RecordDiscard logs that playerID put cards on the discard pile.
func (m *Memory) RecordDiscard(playerID string, cards []domain.Card) {
	if playerID == m.Self || len(cards) == 0 {
		return
	}
	m.Profile(playerID).RecordDiscard(cards)
}

// KnownCards returns every card known to sit in an opponent's hand.
func (m *Memory) KnownCards() []domain.Card {
	var out []domain.Card
	for _, id := range m.opponentIDs() {
		out = append(out, m.Opponents[id].Known...)
	}
	return out
}

// Threatened reports whether any opponent is estimated to hold ownValue
// points or fewer.
func (m *Memory) Threatened(ownValue float64, unseenMean float64) bool {
	for _, id := range m.opponentIDs() {
		p := m.Opponents[id]
		if p.HandSize == 0 {
			continue
		}
		if p.EstimateHandValue(unseenMean) <= ownValue {
			return true
		}
	}
	return false
}

func (m *Memory) opponentIDs() []string {
	ids := make([]string, 0, len(m.Opponents))
	for id := range m.Opponents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
