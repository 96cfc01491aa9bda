package app

import "yaniv/internal/domain"

// PlayerView is one seat as seen by a particular viewer.
type PlayerView struct {
	ID        string              `json:"id"`
	Hand      []domain.Card       `json:"hand,omitempty"`
	HandCount int                 `json:"hand_count"`
	Score     int                 `json:"score"`
	Status    domain.PlayerStatus `json:"status"`
}

// GameView is a snapshot of a game with other players' hands hidden.
type GameView struct {
	GameID         string        `json:"game_id"`
	Round          int           `json:"round"`
	Phase          domain.Phase  `json:"phase"`
	CurrentTurn    string        `json:"current_turn"`
	Players        []PlayerView  `json:"players"`
	DeckSize       int           `json:"deck_size"`
	TopDiscard     []domain.Card `json:"top_discard"`
	PickupCards    []domain.Card `json:"pickup_cards"`
	CanCallYaniv   bool          `json:"can_call_yaniv"`
	SlapDown       *domain.Card  `json:"slap_down,omitempty"` // card the viewer may slap down now
	Ended          bool          `json:"ended"`
	Winners        []string      `json:"winners,omitempty"`
	YanivThreshold int           `json:"yaniv_threshold"`
}

// View builds the snapshot sent to viewer on join or reconnect. Hands are
// revealed to everyone once the round has ended.
func View(game *Game, viewer string) *GameView {
	if game == nil {
		return nil
	}
	s := game.State
	revealAll := s.Round.Phase == domain.PhaseRoundEnded

	players := make([]PlayerView, 0, len(s.Players))
	for _, p := range s.Players {
		pv := PlayerView{
			ID:        p.ID,
			HandCount: len(p.Hand),
			Score:     p.Score,
			Status:    p.Status,
		}
		if p.ID == viewer || revealAll {
			pv.Hand = append([]domain.Card(nil), p.Hand...)
		}
		players = append(players, pv)
	}

	var slap *domain.Card
	if card, ok := s.CanSlapDown(viewer); ok {
		slap = &card
	}

	return &GameView{
		GameID:         game.ID,
		Round:          s.Round.Number,
		Phase:          s.Round.Phase,
		CurrentTurn:    s.CurrentPlayer().ID,
		Players:        players,
		DeckSize:       len(s.Round.Deck),
		TopDiscard:     topDiscardCards(s),
		PickupCards:    s.PickupCards(),
		CanCallYaniv:   s.CanCallYaniv(viewer),
		SlapDown:       slap,
		Ended:          s.Ended,
		Winners:        append([]string(nil), s.Winners...),
		YanivThreshold: s.Rules.YanivThreshold,
	}
}
