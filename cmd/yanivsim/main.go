package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"yaniv/internal/bot"
	"yaniv/internal/config"
	"yaniv/internal/domain"
	"yaniv/internal/log"
	"yaniv/internal/sim"

	"github.com/spf13/cobra"
)

var (
	configFile string
	logLevel   string
	games      int
	players    int
	seed       int64
	levels     string
	preset     string
	tier       string
	maxRounds  int
)

var rootCmd = &cobra.Command{
	Use:   "yanivsim",
	Short: "yanivsim plays bot-only Yaniv games against the rules engine",
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Play bot-only games and report results",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		botLevels, err := parseLevels(levels)
		if err != nil {
			return err
		}

		run := sim.Config{
			Games:     games,
			Players:   players,
			Seed:      seed,
			Levels:    botLevels,
			Rules:     cfg.Rules,
			BaseBet:   cfg.BaseBet(tier),
			TaxRate:   cfg.TaxRate,
			MaxRounds: maxRounds,
		}
		log.Info("simulating %d games: %d players, seed %d, levels %s", games, players, seed, levels)

		summary, _, err := sim.Run(cmd.Context(), run, func(r sim.GameResult) {
			log.Info("game %d: %d rounds, %d intents, winners %v, assafs %d, slap-downs %d, scores %v, capped %v",
				r.Index, r.Rounds, r.Intents, r.Winners, r.Assafs, r.SlapDowns, r.FinalScores, r.Capped)
		})
		if err != nil {
			return err
		}
		logSummary(summary)
		return nil
	},
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the effective rules after config and environment overrides",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(cfg.Rules, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func loadConfig() (*config.GameConfig, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	level := logLevel
	if level == "" {
		level = cfg.LogLevel
	}
	log.InitLog("yanivsim", level)

	if preset != "" {
		cfg.Rules = domain.RulesForDifficulty(preset)
	}
	return cfg, nil
}

// parseLevels reads a comma separated list of bot levels, e.g. "easy,hard".
func parseLevels(s string) ([]bot.BotLevel, error) {
	var out []bot.BotLevel
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		level, err := bot.ParseLevel(part)
		if err != nil {
			return nil, err
		}
		out = append(out, level)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no bot levels in %q", s)
	}
	return out, nil
}

func logSummary(s sim.Summary) {
	seats := make([]string, 0, len(s.Wins))
	for id := range s.Wins {
		seats = append(seats, id)
	}
	sort.Strings(seats)
	wins := make([]string, 0, len(seats))
	for _, id := range seats {
		wins = append(wins, fmt.Sprintf("%s=%d", id, s.Wins[id]))
	}
	avg := 0.0
	if s.Games > 0 {
		avg = float64(s.Rounds) / float64(s.Games)
	}
	log.Logger().Info("summary",
		"games", s.Games,
		"rounds_per_game", fmt.Sprintf("%.1f", avg),
		"yaniv_calls", s.YanivCalls,
		"assafs", s.Assafs,
		"slap_downs", s.SlapDowns,
		"capped", s.Capped,
		"wins", strings.Join(wins, " "))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "game config file (json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug|info|warn|error (default from config)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "rules preset: easy|medium|hard (overrides config rules)")

	simulateCmd.Flags().IntVar(&games, "games", 10, "number of games to play")
	simulateCmd.Flags().IntVar(&players, "players", 4, "players per game")
	simulateCmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	simulateCmd.Flags().StringVar(&levels, "level", "easy,medium,hard", "bot levels cycled over the seats")
	simulateCmd.Flags().StringVar(&tier, "tier", "", "bet tier used for settlement")
	simulateCmd.Flags().IntVar(&maxRounds, "max-rounds", 200, "round cap per game")

	rootCmd.AddCommand(simulateCmd, rulesCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Error("yanivsim: %v", err)
		os.Exit(1)
	}
}
