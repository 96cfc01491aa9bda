package nakama

import (
	"context"
	"fmt"

	"yaniv/internal/app"
	"yaniv/internal/bot"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// BotBalancer is the part of runtime.NakamaModule used to fund bot wallets.
type BotBalancer interface {
	AccountGetId(ctx context.Context, userID string) (*api.Account, error)
	WalletUpdate(ctx context.Context, userID string, changeset map[string]int64, metadata map[string]interface{}, updateLedger bool) (map[string]int64, map[string]int64, error)
}

func (mh *matchHandler) processBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, balancer BotBalancer) {
	// 1. Auto-fill the lobby with bots if there's only one human player after delay
	if state.InLobby() {
		if state.GetHumanPlayerCount() == 1 {
			if state.LastSinglePlayerTick == 0 {
				state.LastSinglePlayerTick = state.Tick
				logger.Debug("processBots: Single player detected, starting auto-fill timer.")
			}

			if state.Tick-state.LastSinglePlayerTick >= int64(state.BotAutoFillDelay) {
				if mh.addBots(ctx, state, logger, balancer) > 0 {
					mh.updateLabel(state, dispatcher, logger)
					mh.broadcastMatchState(ctx, state, dispatcher, logger)
				}
				state.LastSinglePlayerTick = 0
			}
		} else {
			// Reset timer if 0 or >1 humans
			state.LastSinglePlayerTick = 0
		}
		return
	}

	// 2. Handle bot turns in-game
	if !state.InPlay() {
		state.BotWaitUntil = 0
		return
	}
	currentUserID := state.Game.State.CurrentPlayer().ID
	if !isBotUserId(currentUserID) {
		state.BotWaitUntil = 0
		return
	}

	if state.BotWaitUntil == 0 {
		delay := state.BotMinDelay
		if spread := state.BotMaxDelay - state.BotMinDelay; spread > 0 {
			delay += state.randIntn(spread + 1)
		}
		state.BotWaitUntil = state.Tick + int64(delay)
		logger.Debug("processBots: Bot %s will act at tick %d (current %d)", currentUserID, state.BotWaitUntil, state.Tick)
	}
	if state.Tick < state.BotWaitUntil {
		return
	}
	state.BotWaitUntil = 0

	agent := mh.ensureAgent(state, currentUserID, logger)
	if agent == nil {
		return
	}

	move, err := agent.Play(state.Game.State)
	var events []app.Event
	if err == nil {
		events, err = move.Apply(state.App, state.Game, currentUserID)
	}
	drew := err == nil && move.Kind == bot.MoveDraw
	if err != nil {
		logger.Error("processBots: Bot %s failed to play: %v", currentUserID, err)
		events, err = state.App.ForceTurn(state.Game, currentUserID)
		if err != nil {
			logger.Error("processBots: Forced turn for bot %s failed: %v", currentUserID, err)
			return
		}
	}

	mh.applyEvents(ctx, state, dispatcher, logger, events)

	if slap, ok := agent.SlapDown(state.Game.State); ok && state.InPlay() {
		events, err := slap.Apply(state.App, state.Game, currentUserID)
		if err != nil {
			logger.Error("processBots: Bot %s failed to slap down: %v", currentUserID, err)
		} else {
			mh.applyEvents(ctx, state, dispatcher, logger, events)
		}
	}

	// Discard on the next tick after a draw.
	if drew && state.InPlay() && state.Game.State.CurrentPlayer().ID == currentUserID {
		state.BotWaitUntil = state.Tick + 1
	}
}

// addBots seats bots in every open seat but one, returning how many were added.
func (mh *matchHandler) addBots(ctx context.Context, state *MatchState, logger runtime.Logger, balancer BotBalancer) int {
	poolSize := len(bot.GetAllBotIDs())
	if poolSize == 0 {
		logger.Warn("processBots: No provisioned bots available for auto-fill.")
		return 0
	}
	offset := state.randIntn(poolSize)

	added := 0
	next := 0
	for i, seat := range state.Seats {
		if seat != "" || state.GetOpenSeatsCount() <= 1 {
			continue
		}
		var identity bot.BotIdentity
		found := false
		for ; next < poolSize; next++ {
			candidate := bot.GetBotIdentity(offset + next)
			if bot.IsBot(candidate.UserID) && state.SeatOf(candidate.UserID) < 0 {
				identity = candidate
				found = true
				next++
				break
			}
		}
		if !found {
			break
		}

		if balancer != nil {
			if err := ensureBotBalance(ctx, balancer, identity.UserID, botMinimumBalance); err != nil {
				logger.Warn("processBots: Failed to fund bot %s: %v", identity.UserID, err)
			}
		}
		state.Seats[i] = identity.UserID
		mh.ensureAgent(state, identity.UserID, logger)
		logger.Info("processBots: Added bot %s (%s, %s) to seat %d", identity.DisplayName, identity.UserID, identity.Level(), i)
		added++
	}
	return added
}

// ensureAgent returns the agent for a seated bot, creating it from the bot's
// identity. A room difficulty overrides the identity's level.
func (mh *matchHandler) ensureAgent(state *MatchState, userID string, logger runtime.Logger) *bot.Agent {
	identity, _ := bot.GetBotConfig(userID)
	level := identity.Level()
	if state.Room.BotLevel != nil {
		level = *state.Room.BotLevel
	}
	if agent, ok := state.Bots[userID]; ok && agent.Level == level {
		return agent
	}
	agent, err := bot.NewAgent(userID, identity.DisplayName, level)
	if err != nil {
		logger.Error("ensureAgent: Failed to create bot agent for %s: %v", userID, err)
		return nil
	}
	state.Bots[userID] = agent
	return agent
}

// ensureBotBalance tops the bot's wallet up to minimum.
func ensureBotBalance(ctx context.Context, balancer BotBalancer, userID string, minimum int64) error {
	account, err := balancer.AccountGetId(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}
	balance, err := walletBalance(account.GetWallet())
	if err != nil {
		return err
	}
	if balance >= minimum {
		return nil
	}
	changeset := map[string]int64{walletCurrency: minimum - balance}
	metadata := map[string]interface{}{"reason": "bot_top_up"}
	if _, _, err := balancer.WalletUpdate(ctx, userID, changeset, metadata, true); err != nil {
		return fmt.Errorf("failed to top up bot wallet: %w", err)
	}
	return nil
}
