package bot

import (
	"fmt"
	"strings"
)

// BotLevel selects a strategy.
type BotLevel int

const (
	BotLevelEasy BotLevel = iota
	BotLevelMedium
	BotLevelHard
)

func (l BotLevel) String() string {
	switch l {
	case BotLevelEasy:
		return "easy"
	case BotLevelMedium:
		return "medium"
	case BotLevelHard:
		return "hard"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel maps a difficulty name to a level.
func ParseLevel(s string) (BotLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return BotLevelEasy, nil
	case "medium", "":
		return BotLevelMedium, nil
	case "hard":
		return BotLevelHard, nil
	default:
		return 0, fmt.Errorf("unknown bot level: %q", s)
	}
}

// NewBrain creates a new AI brain based on the specified level. Brains keep
// per-game memory, so each seated bot needs its own.
func NewBrain(level BotLevel) (Brain, error) {
	switch level {
	case BotLevelEasy:
		return &EasyBot{Tuning: DefaultTuning}, nil
	case BotLevelMedium:
		return &MediumBot{Tuning: DefaultTuning}, nil
	case BotLevelHard:
		return NewHardBot(DefaultTuning), nil
	default:
		return nil, fmt.Errorf("unknown bot level: %d", level)
	}
}
