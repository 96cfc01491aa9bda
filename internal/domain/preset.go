package domain

import (
	"fmt"
	"strings"
)

// Rules holds the tunable parameters of a Yaniv game.
type Rules struct {
	HandSize          int  `json:"hand_size" mapstructure:"hand_size"`
	YanivThreshold    int  `json:"yaniv_threshold" mapstructure:"yaniv_threshold"`
	AssafPenalty      int  `json:"assaf_penalty" mapstructure:"assaf_penalty"`
	EliminationScore  int  `json:"elimination_score" mapstructure:"elimination_score"`
	Jokers            int  `json:"jokers" mapstructure:"jokers"`
	MinStraightLength int  `json:"min_straight_length" mapstructure:"min_straight_length"`
	JokersWild        bool `json:"jokers_wild" mapstructure:"jokers_wild"`
	ReshuffleDiscard  bool `json:"reshuffle_discard" mapstructure:"reshuffle_discard"`
	SlapDown          bool `json:"slap_down" mapstructure:"slap_down"`
	MinPlayers        int  `json:"min_players" mapstructure:"min_players"`
	MaxPlayers        int  `json:"max_players" mapstructure:"max_players"`
}

// DefaultRules returns the classic table rules.
func DefaultRules() Rules {
	return Rules{
		HandSize:          5,
		YanivThreshold:    7,
		AssafPenalty:      30,
		EliminationScore:  100,
		Jokers:            2,
		MinStraightLength: 3,
		JokersWild:        true,
		ReshuffleDiscard:  true,
		SlapDown:          true,
		MinPlayers:        2,
		MaxPlayers:        4,
	}
}

// Room options offered by the lobby.
var (
	YanivThresholdOptions   = []int{3, 5, 7}
	EliminationScoreOptions = []int{50, 100, 200}
)

// RulesForDifficulty maps the lobby difficulty onto a rule preset. Every
// preset plays to 100 with Yaniv at 7; easy tables disable slap-down.
// Unknown names fall back to the defaults.
func RulesForDifficulty(difficulty string) Rules {
	r := DefaultRules()
	if strings.EqualFold(difficulty, "easy") {
		r.SlapDown = false
	}
	return r
}

// DeckSize is the number of cards in a full deck under these rules.
func (r Rules) DeckSize() int {
	return 52 + r.Jokers
}

// Validate rejects configurations a game cannot be played with.
func (r Rules) Validate() error {
	switch {
	case r.HandSize < 1:
		return fmt.Errorf("%w: hand size %d", ErrInvalidRules, r.HandSize)
	case r.YanivThreshold <= 0:
		return fmt.Errorf("%w: yaniv threshold %d", ErrInvalidRules, r.YanivThreshold)
	case r.AssafPenalty < 0:
		return fmt.Errorf("%w: assaf penalty %d", ErrInvalidRules, r.AssafPenalty)
	case r.EliminationScore <= 0:
		return fmt.Errorf("%w: elimination score %d", ErrInvalidRules, r.EliminationScore)
	case r.Jokers < 0:
		return fmt.Errorf("%w: jokers %d", ErrInvalidRules, r.Jokers)
	case r.MinStraightLength < 3:
		return fmt.Errorf("%w: minimum straight length %d", ErrInvalidRules, r.MinStraightLength)
	case r.MinPlayers < 2 || r.MaxPlayers < r.MinPlayers:
		return fmt.Errorf("%w: players %d..%d", ErrInvalidRules, r.MinPlayers, r.MaxPlayers)
	}
	// Every hand plus the discard seed plus one card left to draw.
	if need := r.MaxPlayers*r.HandSize + 2; r.DeckSize() < need {
		return fmt.Errorf("%w: deck of %d cannot deal %d", ErrInvalidRules, r.DeckSize(), need)
	}
	return nil
}
