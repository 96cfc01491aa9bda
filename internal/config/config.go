package config

import (
	"fmt"
	"strings"
	"sync"

	"yaniv/internal/domain"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. YANIV_TURN_DURATION_SECONDS.
const EnvPrefix = "YANIV"

type BetTier struct {
	ID      string `json:"id" mapstructure:"id"`
	BaseBet int64  `json:"base_bet" mapstructure:"base_bet"`
}

type GameConfig struct {
	TaxRate             float64   `json:"tax_rate" mapstructure:"tax_rate"`
	DefaultTier         string    `json:"default_tier" mapstructure:"default_tier"`
	Tiers               []BetTier `json:"tiers" mapstructure:"tiers"`
	TurnDurationSeconds int       `json:"turn_duration_seconds" mapstructure:"turn_duration_seconds"`
	// RoundBreakSeconds is the pause between a Yaniv call and the next deal.
	RoundBreakSeconds int `json:"round_break_seconds" mapstructure:"round_break_seconds"`
	// BotAutoFillDelaySeconds configures how many seconds to wait before adding bots to a solo human lobby.
	BotAutoFillDelaySeconds int          `json:"bot_auto_fill_delay_seconds" mapstructure:"bot_auto_fill_delay_seconds"`
	LogLevel                string       `json:"log_level" mapstructure:"log_level"`
	Rules                   domain.Rules `json:"rules" mapstructure:"rules"`
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// Default returns the configuration used when no file is present.
func Default() *GameConfig {
	return &GameConfig{
		TaxRate:                 0,
		DefaultTier:             "casual",
		Tiers:                   []BetTier{{ID: "casual", BaseBet: 100}},
		TurnDurationSeconds:     15,
		RoundBreakSeconds:       5,
		BotAutoFillDelaySeconds: 5,
		LogLevel:                "info",
		Rules:                   domain.DefaultRules(),
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("tax_rate", d.TaxRate)
	v.SetDefault("default_tier", d.DefaultTier)
	v.SetDefault("turn_duration_seconds", d.TurnDurationSeconds)
	v.SetDefault("round_break_seconds", d.RoundBreakSeconds)
	v.SetDefault("bot_auto_fill_delay_seconds", d.BotAutoFillDelaySeconds)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("rules.hand_size", d.Rules.HandSize)
	v.SetDefault("rules.yaniv_threshold", d.Rules.YanivThreshold)
	v.SetDefault("rules.assaf_penalty", d.Rules.AssafPenalty)
	v.SetDefault("rules.elimination_score", d.Rules.EliminationScore)
	v.SetDefault("rules.jokers", d.Rules.Jokers)
	v.SetDefault("rules.min_straight_length", d.Rules.MinStraightLength)
	v.SetDefault("rules.jokers_wild", d.Rules.JokersWild)
	v.SetDefault("rules.reshuffle_discard", d.Rules.ReshuffleDiscard)
	v.SetDefault("rules.slap_down", d.Rules.SlapDown)
	v.SetDefault("rules.min_players", d.Rules.MinPlayers)
	v.SetDefault("rules.max_players", d.Rules.MaxPlayers)
}

// Load reads and validates a configuration file. Environment variables
// prefixed with YANIV_ override file values; nested keys use underscores
// (YANIV_RULES_YANIV_THRESHOLD).
func Load(path string) (*GameConfig, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read game config: %w", err)
		}
	}

	var c GameConfig
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game config: %w", err)
	}
	if len(c.Tiers) == 0 {
		c.Tiers = Default().Tiers
	}
	if err := c.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid game config: %w", err)
	}
	return &c, nil
}

// LoadGameConfig loads the process-wide game configuration once.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		c, err := Load(path)
		if err != nil {
			loadErr = err
			return
		}
		cfg = c
	})
	return loadErr
}

// GetGameConfig returns the global game configuration, or the defaults
// when nothing was loaded.
func GetGameConfig() *GameConfig {
	if cfg == nil {
		return Default()
	}
	return cfg
}

// BaseBet resolves a tier's base bet, falling back to the default tier.
func (c *GameConfig) BaseBet(tierID string) int64 {
	target := tierID
	if target == "" {
		target = c.DefaultTier
	}

	for _, tier := range c.Tiers {
		if tier.ID == target {
			return tier.BaseBet
		}
	}

	// Fallback to default tier if specific ID not found
	for _, tier := range c.Tiers {
		if tier.ID == c.DefaultTier {
			return tier.BaseBet
		}
	}

	return 100
}
