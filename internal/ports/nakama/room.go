package nakama

import (
	"fmt"
	"math"
	"slices"
	"strconv"

	"yaniv/internal/bot"
	"yaniv/internal/config"
	"yaniv/internal/domain"
)

// Room option keys accepted in match params and the start-game payload.
const (
	optYanivThreshold   = "yaniv_threshold"
	optEliminationScore = "elimination_score"
	optSlapDown         = "slap_down"
	optTurnSeconds      = "turn_seconds"
	optMaxPlayers       = "max_players"
	optDifficulty       = "difficulty"
)

const (
	minTurnSeconds = 5
	maxTurnSeconds = 120
	maxTableSeats  = 4
)

// RoomSettings are the table choices made when the room is created or the
// owner starts a game.
type RoomSettings struct {
	Rules       domain.Rules  `json:"rules"`
	TurnSeconds int           `json:"turn_seconds"`
	Difficulty  string        `json:"difficulty,omitempty"`
	BotLevel    *bot.BotLevel `json:"bot_level,omitempty"` // nil keeps each bot's own level
}

func defaultRoomSettings(cfg *config.GameConfig) RoomSettings {
	return RoomSettings{Rules: cfg.Rules, TurnSeconds: cfg.TurnDurationSeconds}
}

// hasRoomOptions reports whether opts carries any room option.
func hasRoomOptions(opts map[string]any) bool {
	for _, k := range []string{optYanivThreshold, optEliminationScore, optSlapDown, optTurnSeconds, optMaxPlayers, optDifficulty} {
		if _, ok := opts[k]; ok {
			return true
		}
	}
	return false
}

// withOptions returns rs with opts applied. Unknown keys are ignored; a
// known key with a bad value fails the whole update.
func (rs RoomSettings) withOptions(opts map[string]any) (RoomSettings, error) {
	out := rs
	if v, ok := opts[optDifficulty]; ok {
		name, ok := v.(string)
		if !ok {
			return rs, fmt.Errorf("%w: %s must be a string", ErrBadPayload, optDifficulty)
		}
		level, err := bot.ParseLevel(name)
		if err != nil {
			return rs, fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
		out.Difficulty = level.String()
		out.BotLevel = &level
		out.Rules.SlapDown = domain.RulesForDifficulty(out.Difficulty).SlapDown
	}
	if v, ok := opts[optYanivThreshold]; ok {
		n, err := intOption(optYanivThreshold, v)
		if err != nil {
			return rs, err
		}
		if !slices.Contains(domain.YanivThresholdOptions, n) {
			return rs, fmt.Errorf("%w: yaniv threshold %d is not offered", domain.ErrInvalidRules, n)
		}
		out.Rules.YanivThreshold = n
	}
	if v, ok := opts[optEliminationScore]; ok {
		n, err := intOption(optEliminationScore, v)
		if err != nil {
			return rs, err
		}
		if !slices.Contains(domain.EliminationScoreOptions, n) {
			return rs, fmt.Errorf("%w: elimination score %d is not offered", domain.ErrInvalidRules, n)
		}
		out.Rules.EliminationScore = n
	}
	if v, ok := opts[optSlapDown]; ok {
		b, err := boolOption(optSlapDown, v)
		if err != nil {
			return rs, err
		}
		out.Rules.SlapDown = b
	}
	if v, ok := opts[optMaxPlayers]; ok {
		n, err := intOption(optMaxPlayers, v)
		if err != nil {
			return rs, err
		}
		out.Rules.MaxPlayers = n
	}
	if v, ok := opts[optTurnSeconds]; ok {
		n, err := intOption(optTurnSeconds, v)
		if err != nil {
			return rs, err
		}
		if n < minTurnSeconds || n > maxTurnSeconds {
			return rs, fmt.Errorf("%w: turn seconds %d outside %d..%d", ErrBadPayload, n, minTurnSeconds, maxTurnSeconds)
		}
		out.TurnSeconds = n
	}
	if err := out.Rules.Validate(); err != nil {
		return rs, err
	}
	if out.Rules.MaxPlayers > maxTableSeats {
		return rs, fmt.Errorf("%w: at most %d players", domain.ErrInvalidRules, maxTableSeats)
	}
	return out, nil
}

// intOption accepts the number shapes Nakama params and decoded JSON carry.
func intOption(key string, v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n == math.Trunc(n) {
			return int(n), nil
		}
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s must be an integer, got %v", ErrBadPayload, key, v)
}

func boolOption(key string, v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		if parsed, err := strconv.ParseBool(b); err == nil {
			return parsed, nil
		}
	}
	return false, fmt.Errorf("%w: %s must be a boolean, got %v", ErrBadPayload, key, v)
}

// configure applies room options while the table is in the lobby, resizing
// the seat list when the player count changes.
func (ms *MatchState) configure(opts map[string]any) error {
	if !hasRoomOptions(opts) {
		return nil
	}
	if !ms.InLobby() {
		return domain.ErrRoundInProgress
	}
	next, err := ms.Room.withOptions(opts)
	if err != nil {
		return err
	}
	if err := ms.resizeSeats(next.Rules.MaxPlayers); err != nil {
		return err
	}
	ms.Room = next
	return nil
}

// resizeSeats changes the table size, packing occupied seats to the front
// when it shrinks.
func (ms *MatchState) resizeSeats(n int) error {
	if n == len(ms.Seats) {
		return nil
	}
	if occupied := ms.GetOccupiedSeatCount(); occupied > n {
		return fmt.Errorf("%w: %d seated, table for %d", domain.ErrInvalidPlayers, occupied, n)
	}
	owner := ""
	if ms.OwnerSeat >= 0 && ms.OwnerSeat < len(ms.Seats) {
		owner = ms.Seats[ms.OwnerSeat]
	}

	seats := make([]string, n)
	if n > len(ms.Seats) {
		copy(seats, ms.Seats)
	} else {
		i := 0
		for _, userID := range ms.Seats {
			if userID != "" {
				seats[i] = userID
				i++
			}
		}
	}
	ms.Seats = seats
	if owner != "" {
		ms.OwnerSeat = ms.SeatOf(owner)
	}
	return nil
}

func roomValue(rs RoomSettings) map[string]any {
	return map[string]any{
		"rules":        rulesValue(rs.Rules),
		"turn_seconds": rs.TurnSeconds,
		"difficulty":   rs.Difficulty,
	}
}
