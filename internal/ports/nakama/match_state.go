package nakama

import (
	"math/rand"

	"yaniv/internal/app"
	"yaniv/internal/bot"
	"yaniv/internal/config"
	"yaniv/internal/domain"
	"yaniv/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	Seats     []string                    `json:"seats"`      // User IDs by seat, empty string means seat is empty
	OwnerSeat int                         `json:"owner_seat"` // Seat index of the match owner
	Tick      int64                       `json:"tick"`       // Current tick of the match, one per second
	Tier      string                      `json:"tier"`       // Bet tier the table was created with
	Room      RoomSettings                `json:"room"`       // Rules and timers chosen for this table
	Presences map[string]runtime.Presence `json:"-"`          // Map UserId -> Presence for targeted messaging
	Departed  map[string]bool             `json:"-"`          // Players who left during a game; their seat is kept until it ends

	App    *app.Service       `json:"-"`
	Game   *app.Game          `json:"-"` // Current or last finished game, nil before the first start
	Config *config.GameConfig `json:"-"`

	TurnUserID           string `json:"turn_user_id"`           // Player the turn timer is running for
	TurnSecondsRemaining int64  `json:"turn_seconds_remaining"` // Seconds until the turn is forced
	NextRoundTick        int64  `json:"next_round_tick"`        // Tick at which the next round is dealt, 0 when idle

	BotsEnabled          bool                  `json:"bots_enabled"`
	BotMinDelay          int                   `json:"bot_min_delay"`
	BotMaxDelay          int                   `json:"bot_max_delay"`
	BotAutoFillDelay     int                   `json:"bot_auto_fill_delay"`
	BotWaitUntil         int64                 `json:"bot_wait_until"`
	LastSinglePlayerTick int64                 `json:"last_single_player_tick"`
	Bots                 map[string]*bot.Agent `json:"-"`
	Rand                 *rand.Rand            `json:"-"`

	Economy ports.EconomyPort `json:"-"` // Interface to Nakama wallet
}

func (ms *MatchState) GetOpenSeatsCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat == "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) GetOccupiedSeatCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat != "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) GetHumanPlayerCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat != "" && !isBotUserId(seat) {
			count++
		}
	}
	return count
}

// InLobby reports whether no game is running, either before the first start or after one ended.
func (ms *MatchState) InLobby() bool {
	return ms.Game == nil || ms.Game.State.Ended
}

// InPlay reports whether a round is in progress and turns are being taken.
func (ms *MatchState) InPlay() bool {
	return !ms.InLobby() && ms.Game.State.Round.Phase != domain.PhaseRoundEnded
}

// SeatOf returns the seat index of the user or -1.
func (ms *MatchState) SeatOf(userID string) int {
	for i, seat := range ms.Seats {
		if seat != "" && seat == userID {
			return i
		}
	}
	return -1
}

func (ms *MatchState) rules() domain.Rules {
	if ms.Room.Rules.HandSize > 0 {
		return ms.Room.Rules
	}
	if ms.Config == nil {
		return domain.DefaultRules()
	}
	return ms.Config.Rules
}

func (ms *MatchState) turnSeconds() int {
	if ms.Room.TurnSeconds > 0 {
		return ms.Room.TurnSeconds
	}
	return ms.gameConfig().TurnDurationSeconds
}

func (ms *MatchState) gameConfig() *config.GameConfig {
	if ms.Config == nil {
		return config.GetGameConfig()
	}
	return ms.Config
}

func (ms *MatchState) randIntn(n int) int {
	if ms.Rand == nil {
		return rand.Intn(n)
	}
	return ms.Rand.Intn(n)
}

// isBotUserId reports whether the given user id represents a bot seat.
func isBotUserId(userId string) bool {
	return bot.IsBot(userId)
}

// isHumanSeat reports whether the seat index belongs to a human player.
func isHumanSeat(seats []string, seatIndex int) bool {
	if seatIndex < 0 || seatIndex >= len(seats) {
		return false
	}
	userId := seats[seatIndex]
	return userId != "" && !isBotUserId(userId)
}

// findFirstConnectedHumanSeat returns the first seat index with a human
// occupant who has not departed, or -1 if none exist.
func findFirstConnectedHumanSeat(seats []string, departed map[string]bool) int {
	for i, userId := range seats {
		if userId != "" && !isBotUserId(userId) && !departed[userId] {
			return i
		}
	}
	return -1
}

// shouldTerminateNoHumans returns true when no connected human remains in the match.
func shouldTerminateNoHumans(seats []string, departed map[string]bool) bool {
	return findFirstConnectedHumanSeat(seats, departed) == -1
}
