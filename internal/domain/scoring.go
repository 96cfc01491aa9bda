package domain

// RoundOutcome is the revealed result of a Yaniv call.
type RoundOutcome struct {
	Round       int               `json:"round"`
	CallerID    string            `json:"caller_id"`
	CallerValue int               `json:"caller_value"`
	LowestValue int               `json:"lowest_value"`
	Assaf       bool              `json:"assaf"`
	AssafBy     []string          `json:"assaf_by,omitempty"` // players holding the lowest value when it beat the caller
	Hands       map[string][]Card `json:"hands"`
	HandValues  map[string]int    `json:"hand_values"`
	ScoreDeltas map[string]int    `json:"score_deltas"`
	Scores      map[string]int    `json:"scores"`
	GameEnded   bool              `json:"game_ended"`
	Winners     []string          `json:"winners,omitempty"`
	Eliminated  []string          `json:"eliminated,omitempty"`
}

func (o RoundOutcome) clone() RoundOutcome {
	out := o
	out.AssafBy = cloneStrings(o.AssafBy)
	out.Winners = cloneStrings(o.Winners)
	out.Eliminated = cloneStrings(o.Eliminated)
	out.Hands = make(map[string][]Card, len(o.Hands))
	for k, v := range o.Hands {
		out.Hands[k] = cloneCards(v)
	}
	out.HandValues = cloneIntMap(o.HandValues)
	out.ScoreDeltas = cloneIntMap(o.ScoreDeltas)
	out.Scores = cloneIntMap(o.Scores)
	return out
}

func cloneIntMap(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// scoreRound reveals every hand, applies the round's score changes and
// closes the game when a score passes the elimination threshold.
//
// The caller scores nothing unless another player is strictly lower (ties
// favour the caller). On an Assaf the caller takes their hand value plus the
// penalty and the lowest players take nothing.
func (g *GameState) scoreRound(caller int) RoundOutcome {
	n := len(g.Players)
	values := make([]int, n)
	lowest := HandValue(g.Players[caller].Hand)
	for i, p := range g.Players {
		values[i] = HandValue(p.Hand)
		if values[i] < lowest {
			lowest = values[i]
		}
	}
	assaf := lowest < values[caller]

	outcome := RoundOutcome{
		Round:       g.Round.Number,
		CallerID:    g.Players[caller].ID,
		CallerValue: values[caller],
		LowestValue: lowest,
		Assaf:       assaf,
		Hands:       make(map[string][]Card, n),
		HandValues:  make(map[string]int, n),
		ScoreDeltas: make(map[string]int, n),
		Scores:      make(map[string]int, n),
	}

	for i := range g.Players {
		p := &g.Players[i]
		delta := values[i]
		switch {
		case i == caller && assaf:
			delta = values[i] + g.Rules.AssafPenalty
		case i == caller:
			delta = 0
		case assaf && values[i] == lowest:
			delta = 0
			outcome.AssafBy = append(outcome.AssafBy, p.ID)
		}
		p.Score += delta

		outcome.Hands[p.ID] = cloneCards(p.Hand)
		outcome.HandValues[p.ID] = values[i]
		outcome.ScoreDeltas[p.ID] = delta
		outcome.Scores[p.ID] = p.Score
	}

	if g.anyEliminated() {
		g.finish()
		outcome.GameEnded = true
		outcome.Winners = cloneStrings(g.Winners)
		for _, p := range g.Players {
			if p.Status == StatusLost {
				outcome.Eliminated = append(outcome.Eliminated, p.ID)
			}
		}
	}
	return outcome
}

// finish marks the lowest scores as winners and everyone past the threshold as lost.
func (g *GameState) finish() {
	best := g.Players[0].Score
	for _, p := range g.Players[1:] {
		if p.Score < best {
			best = p.Score
		}
	}
	g.Ended = true
	g.Winners = nil
	for i := range g.Players {
		p := &g.Players[i]
		switch {
		case p.Score == best:
			p.Status = StatusWinner
			g.Winners = append(g.Winners, p.ID)
		case p.Score > g.Rules.EliminationScore:
			p.Status = StatusLost
		}
	}
}
