package nakama

import (
	"context"
	"errors"
	"sort"

	"yaniv/internal/app"
	"yaniv/internal/bot"
	"yaniv/internal/domain"
	"yaniv/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// applyEvents dispatches service events to clients and bots and advances the
// match bookkeeping that depends on them.
func (mh *matchHandler) applyEvents(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	turnBonus := -1
	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
		notifyBots(state, ev)

		switch p := ev.Payload.(type) {
		case app.GameStartedPayload, app.RoundStartedPayload:
			state.NextRoundTick = 0
			turnBonus = gameStartTurnTimerBonusSeconds
		case app.RoundEndedPayload:
			if !p.Outcome.GameEnded {
				state.NextRoundTick = state.Tick + int64(state.gameConfig().RoundBreakSeconds)
				logger.Debug("applyEvents: Round %d ended, next deal at tick %d.", p.Outcome.Round, state.NextRoundTick)
			}
		case app.GameEndedPayload:
			mh.finishGame(ctx, state, dispatcher, logger, p)
		}
	}

	switch {
	case turnBonus >= 0:
		mh.resetTurnSecondsRemainingWithBonus(state, logger, turnBonus)
	case !state.InPlay():
		mh.resetTurnSecondsRemainingWithBonus(state, logger, 0)
	case state.Game.State.CurrentPlayer().ID != state.TurnUserID:
		mh.resetTurnSecondsRemainingWithBonus(state, logger, 0)
	}
}

// notifyBots feeds public events, and private events addressed to them, to the seated bots.
func notifyBots(state *MatchState, ev app.Event) {
	for id, agent := range state.Bots {
		if len(ev.Recipients) > 0 && !containsString(ev.Recipients, id) {
			continue
		}
		agent.OnGameEvent(ev)
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// finishGame settles the bets, frees seats of players who left and returns the table to the lobby.
func (mh *matchHandler) finishGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, p app.GameEndedPayload) {
	logger.Info("finishGame: Game %s ended, winners %v.", p.GameID, p.Winners)

	if state.Economy != nil && len(p.BalanceChanges) > 0 {
		matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
		updates := make([]ports.WalletUpdate, 0, len(p.BalanceChanges))
		for _, userID := range sortedKeys(p.BalanceChanges) {
			// Skip bots
			if isBotUserId(userID) {
				continue
			}
			updates = append(updates, ports.WalletUpdate{
				UserID: userID,
				Amount: p.BalanceChanges[userID],
				Metadata: map[string]interface{}{
					"match_id": matchID,
					"game_id":  p.GameID,
					"reason":   "game_settlement",
				},
			})
		}
		if err := state.Economy.UpdateBalances(ctx, updates); err != nil {
			logger.Error("finishGame: Failed to update balances: %v", err)
		}
	}

	for i, userID := range state.Seats {
		if state.Departed[userID] {
			state.Seats[i] = ""
			delete(state.Departed, userID)
			logger.Debug("finishGame: Seat %d of departed user %s freed.", i, userID)
		}
	}
	mh.ensureOwner(state, logger)

	state.NextRoundTick = 0
	state.BotWaitUntil = 0
	mh.updateLabel(state, dispatcher, logger)
	mh.broadcastMatchState(ctx, state, dispatcher, logger)
}

// broadcastEvent handles the conversion and dispatching of app events to Nakama.
func (mh *matchHandler) broadcastEvent(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	opCode, fields, err := eventMessage(ev)
	if err != nil {
		logger.Warn("broadcastEvent: %v", err)
		return
	}
	data, err := encodePayload(fields)
	if err != nil {
		logger.Error("broadcastEvent: Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	// Determine recipients (default to broadcast)
	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}

		// Private events for bots or departed players go nowhere.
		if len(recipients) == 0 {
			return
		}
	}

	if err := dispatcher.BroadcastMessage(opCode, data, recipients, nil, true); err != nil {
		logger.Error("broadcastEvent: Failed to send %v: %v", ev.Kind, err)
	}
}

// broadcastMatchState sends every connected player a snapshot of the table,
// including the game as that player may see it.
func (mh *matchHandler) broadcastMatchState(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	players := make([]any, 0, len(state.Seats))
	for i, userID := range state.Seats {
		if userID == "" {
			continue
		}

		displayName := userID
		avatarIndex := 0
		if p, exists := state.Presences[userID]; exists {
			displayName = p.GetUsername()
		}
		if identity, ok := bot.GetBotConfig(userID); ok {
			displayName = bot.GetBotDisplayName(userID)
			avatarIndex = identity.AvatarIndex
		}

		var balance int64
		if state.Economy != nil {
			b, err := state.Economy.GetBalance(ctx, userID)
			if err != nil {
				logger.Debug("broadcastMatchState: No balance for %s: %v", userID, err)
			} else {
				balance = b
			}
		}

		players = append(players, map[string]any{
			"user_id":      userID,
			"seat":         i,
			"is_owner":     i == state.OwnerSeat,
			"is_bot":       isBotUserId(userID),
			"connected":    isBotUserId(userID) || (state.Presences[userID] != nil && !state.Departed[userID]),
			"display_name": displayName,
			"avatar_index": avatarIndex,
			"balance":      balance,
		})
	}

	lobbyState := labelStatePlaying
	if state.InLobby() {
		lobbyState = labelStateLobby
	}

	userIDs := make([]string, 0, len(state.Presences))
	for userID := range state.Presences {
		userIDs = append(userIDs, userID)
	}
	sort.Strings(userIDs)

	for _, userID := range userIDs {
		snapshot := map[string]any{
			"seats":                  stringsValue(state.Seats),
			"owner_seat":             state.OwnerSeat,
			"tick":                   state.Tick,
			"state":                  lobbyState,
			"tier":                   state.Tier,
			"base_bet":               state.gameConfig().BaseBet(state.Tier),
			"turn_seconds_remaining": state.TurnSecondsRemaining,
			"players":                players,
			"room":                   roomValue(state.Room),
		}
		if state.Game != nil {
			snapshot["game"] = viewValue(app.View(state.Game, userID))
		}
		data, err := encodePayload(snapshot)
		if err != nil {
			logger.Error("broadcastMatchState: Failed to marshal snapshot: %v", err)
			return
		}
		if err := dispatcher.BroadcastMessage(OpMatchState, data, []runtime.Presence{state.Presences[userID]}, nil, true); err != nil {
			logger.Error("broadcastMatchState: Failed to send snapshot to %s: %v", userID, err)
		}
	}
}

// sendError sends an error event to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, err error) {
	data, mErr := encodePayload(map[string]any{
		"code":    code,
		"reason":  errorReason(err),
		"message": err.Error(),
	})
	if mErr != nil {
		logger.Error("sendError: Failed to marshal error event: %v", mErr)
		return
	}

	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("sendError: Cannot send error to %s: Presence not found", userID)
		return
	}

	if err := dispatcher.BroadcastMessage(OpError, data, []runtime.Presence{presence}, nil, true); err != nil {
		logger.Error("sendError: Failed to send error to %s: %v", userID, err)
	}
}

var errorReasons = []struct {
	err    error
	reason string
}{
	{ErrBadPayload, "bad_payload"},
	{errNotOwner, "not_owner"},
	{errNotSeated, "not_seated"},
	{errNoRound, "no_round"},
	{app.ErrNotPlaying, "not_playing"},
	{app.ErrTooFewPlayers, "too_few_players"},
	{app.ErrUnknownPlayer, "unknown_player"},
	{domain.ErrInvalidTurn, "invalid_turn"},
	{domain.ErrEmptySource, "empty_source"},
	{domain.ErrIllegalCombination, "illegal_combination"},
	{domain.ErrCardNotInHand, "card_not_in_hand"},
	{domain.ErrCardNotInPile, "card_not_in_pile"},
	{domain.ErrHandTooHigh, "hand_too_high"},
	{domain.ErrGameAlreadyEnded, "game_ended"},
	{domain.ErrRoundInProgress, "round_in_progress"},
	{domain.ErrGameNotEnded, "game_not_ended"},
	{domain.ErrInvalidPlayers, "invalid_players"},
	{domain.ErrUnknownDrawSource, "unknown_draw_source"},
	{domain.ErrNoSlapDown, "no_slap_down"},
	{domain.ErrInvalidRules, "invalid_rules"},
}

// errorReason maps an error onto a stable machine-readable reason.
func errorReason(err error) string {
	for _, r := range errorReasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return "internal"
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	labelState := labelStateLobby
	if !state.InLobby() {
		labelState = labelStatePlaying
	}

	label, err := matchLabel(state.GetOpenSeatsCount(), labelState, state.Tier)
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}
