// Package sim plays bot-only Yaniv games through the application service.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"yaniv/internal/app"
	"yaniv/internal/bot"
	"yaniv/internal/domain"
	"yaniv/internal/log"
)

// ErrCardsNotConserved is returned when an intent loses or duplicates a card.
var ErrCardsNotConserved = errors.New("card conservation violated")

// Config controls a simulation run.
type Config struct {
	Games     int
	Players   int
	Seed      int64
	Levels    []bot.BotLevel // cycled over the seats; empty means medium
	Rules     domain.Rules
	BaseBet   int64
	TaxRate   float64
	MaxRounds int // per game; 0 means 200
	MaxTurns  int // intents per game; 0 means 20000
}

// GameResult summarises one finished (or capped) game.
type GameResult struct {
	Index       int
	GameID      string
	Rounds      int
	Intents     int
	Winners     []string
	FinalScores map[string]int
	Settlement  map[string]int64
	Assafs      int
	YanivCalls  int
	SlapDowns   int
	Capped      bool
}

// Summary aggregates a run.
type Summary struct {
	Games      int
	Rounds     int
	Assafs     int
	YanivCalls int
	SlapDowns  int
	Capped     int
	Wins       map[string]int // by seat label, e.g. "p1-hard"
}

// Run plays cfg.Games games sequentially. onGame, if set, is called after
// each game. The run stops at the first rejected intent or broken invariant.
func Run(ctx context.Context, cfg Config, onGame func(GameResult)) (Summary, []GameResult, error) {
	if cfg.Games <= 0 {
		return Summary{}, nil, fmt.Errorf("games must be positive, got %d", cfg.Games)
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = 200
	}
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = 20000
	}
	if len(cfg.Levels) == 0 {
		cfg.Levels = []bot.BotLevel{bot.BotLevelMedium}
	}
	if err := cfg.Rules.Validate(); err != nil {
		return Summary{}, nil, err
	}

	svc := app.NewService(rand.New(rand.NewSource(cfg.Seed)))
	summary := Summary{Wins: make(map[string]int)}
	results := make([]GameResult, 0, cfg.Games)

	for i := 0; i < cfg.Games; i++ {
		if err := ctx.Err(); err != nil {
			return summary, results, err
		}
		res, err := playGame(svc, cfg, i)
		if err != nil {
			return summary, results, fmt.Errorf("game %d: %w", i+1, err)
		}
		results = append(results, res)

		summary.Games++
		summary.Rounds += res.Rounds
		summary.Assafs += res.Assafs
		summary.YanivCalls += res.YanivCalls
		summary.SlapDowns += res.SlapDowns
		if res.Capped {
			summary.Capped++
		}
		for _, w := range res.Winners {
			summary.Wins[w]++
		}
		if onGame != nil {
			onGame(res)
		}
	}
	return summary, results, nil
}

// seatID labels a seat with its position and level so results stay
// comparable across games.
func seatID(seat int, level bot.BotLevel) string {
	return fmt.Sprintf("p%d-%s", seat+1, level)
}

func playGame(svc *app.Service, cfg Config, index int) (GameResult, error) {
	agents := make(map[string]*bot.Agent, cfg.Players)
	seats := make([]string, 0, cfg.Players)
	for s := 0; s < cfg.Players; s++ {
		level := cfg.Levels[s%len(cfg.Levels)]
		id := seatID(s, level)
		a, err := bot.NewAgent(id, id, level)
		if err != nil {
			return GameResult{}, err
		}
		agents[id] = a
		seats = append(seats, id)
	}

	game, evs, err := svc.StartGame(seats, app.StartOptions{Rules: cfg.Rules, BaseBet: cfg.BaseBet, TaxRate: cfg.TaxRate})
	if err != nil {
		return GameResult{}, err
	}
	res := GameResult{Index: index + 1, GameID: game.ID}
	notify := func(evs []app.Event) {
		for _, ev := range evs {
			for _, id := range seats {
				agents[id].OnGameEvent(ev)
			}
			res.observe(ev)
		}
	}
	notify(evs)

	for !game.State.Ended {
		if game.State.Round.Phase == domain.PhaseRoundEnded {
			if res.Rounds >= cfg.MaxRounds {
				res.Capped = true
				break
			}
			evs, err = svc.StartNextRound(game)
			if err != nil {
				return res, err
			}
			notify(evs)
			continue
		}

		if res.Intents >= cfg.MaxTurns {
			res.Capped = true
			break
		}

		actor := game.State.CurrentPlayer().ID
		move, err := agents[actor].Play(game.State)
		if err != nil {
			return res, fmt.Errorf("%s could not move: %w", actor, err)
		}
		evs, err = move.Apply(svc, game, actor)
		if err != nil {
			return res, fmt.Errorf("%s %s rejected: %w", actor, move.Kind, err)
		}
		res.Intents++
		if !game.State.IsConserved() {
			return res, fmt.Errorf("%w after %s by %s in round %d", ErrCardsNotConserved, move.Kind, actor, game.State.Round.Number)
		}
		notify(evs)

		if slap, ok := agents[actor].SlapDown(game.State); ok {
			evs, err = slap.Apply(svc, game, actor)
			if err != nil {
				return res, fmt.Errorf("%s slap-down rejected: %w", actor, err)
			}
			res.Intents++
			if !game.State.IsConserved() {
				return res, fmt.Errorf("%w after slap-down by %s in round %d", ErrCardsNotConserved, actor, game.State.Round.Number)
			}
			notify(evs)
		}
	}

	res.FinalScores = make(map[string]int, len(game.State.Players))
	for _, p := range game.State.Players {
		res.FinalScores[p.ID] = p.Score
	}
	res.Winners = append([]string(nil), game.State.Winners...)
	return res, nil
}

func (r *GameResult) observe(ev app.Event) {
	switch p := ev.Payload.(type) {
	case app.RoundEndedPayload:
		r.Rounds++
		r.YanivCalls++
		if p.Outcome.Assaf {
			r.Assafs++
		}
		log.Debug("game %d round %d: %s called at %d, assaf=%v", r.Index, p.Outcome.Round, p.Outcome.CallerID, p.Outcome.CallerValue, p.Outcome.Assaf)
	case app.CardSlappedPayload:
		r.SlapDowns++
	case app.GameEndedPayload:
		r.Settlement = p.BalanceChanges
	}
}
