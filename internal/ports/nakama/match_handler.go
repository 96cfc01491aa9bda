package nakama

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"yaniv/internal/app"
	"yaniv/internal/bot"
	"yaniv/internal/config"

	"github.com/heroiclabs/nakama-common/runtime"
)

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return newMatchHandler(), nil
}

type matchHandler struct{}

func newMatchHandler() *matchHandler {
	return &matchHandler{}
}

// NewMatchState builds the initial state for a table using cfg and the bet tier.
func NewMatchState(cfg *config.GameConfig, tier string) *MatchState {
	if cfg == nil {
		cfg = config.GetGameConfig()
	}
	if tier == "" {
		tier = cfg.DefaultTier
	}
	return &MatchState{
		Seats:            make([]string, cfg.Rules.MaxPlayers),
		OwnerSeat:        -1,
		Tier:             tier,
		Room:             defaultRoomSettings(cfg),
		Presences:        make(map[string]runtime.Presence),
		Departed:         make(map[string]bool),
		App:              app.NewService(nil),
		Config:           cfg,
		BotMinDelay:      1,
		BotMaxDelay:      3,
		BotAutoFillDelay: cfg.BotAutoFillDelaySeconds,
		Bots:             make(map[string]*bot.Agent),
	}
}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)

	identitiesPath := defaultBotIdentitiesPath
	if val, ok := env[EnvBotIdentitiesPath]; ok && val != "" {
		identitiesPath = val
	}
	if err := bot.LoadIdentities(identitiesPath); err != nil {
		logger.Warn("MatchInit: Could not load bot identities: %v", err)
	}

	tier, _ := params["tier"].(string)
	state := NewMatchState(config.GetGameConfig(), tier)
	state.Tick = time.Now().Unix()
	state.Economy = NewNakamaEconomyAdapter(nk)
	if err := state.configure(params); err != nil {
		logger.Error("MatchInit: Invalid room options %v: %v", params, err)
		return nil, 0, ""
	}

	if val, ok := env[EnvBotsEnabled]; ok {
		state.BotsEnabled = val == "true"
	}
	if i, ok := envInt(env, EnvBotMinDelay); ok {
		state.BotMinDelay = i
	}
	if i, ok := envInt(env, EnvBotMaxDelay); ok {
		state.BotMaxDelay = i
	}
	if i, ok := envInt(env, EnvBotAutoFillDelay); ok {
		state.BotAutoFillDelay = i
	}

	// Defaults if not set
	if state.BotMinDelay <= 0 {
		state.BotMinDelay = 1
	}
	if state.BotMaxDelay < state.BotMinDelay {
		state.BotMaxDelay = state.BotMinDelay
	}
	if state.BotAutoFillDelay <= 0 {
		state.BotAutoFillDelay = 5
	}

	label, err := matchLabel(state.GetOpenSeatsCount(), labelStateLobby, state.Tier)
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	tickRate := 1 // one tick per second; timers count ticks
	return state, tickRate, label
}

func envInt(env map[string]string, key string) (int, bool) {
	val, ok := env[key]
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}
	return i, true
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	userID := presence.GetUserId()
	if !matchState.InLobby() {
		// Only players of the running game may come back.
		if matchState.SeatOf(userID) >= 0 {
			return state, true, ""
		}
		return state, false, "Game in progress"
	}

	// Allow join if there is an empty seat OR a bot to replace
	if matchState.SeatOf(userID) < 0 && matchState.GetOpenSeatsCount() <= 0 {
		hasBot := false
		for _, seat := range matchState.Seats {
			if isBotUserId(seat) {
				hasBot = true
				break
			}
		}
		if !hasBot {
			return state, false, "Match full"
		}
	}

	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		matchState.Presences[userID] = p

		if matchState.SeatOf(userID) >= 0 {
			if matchState.Departed[userID] {
				delete(matchState.Departed, userID)
				logger.Info("MatchJoin: User %s rejoined the running game.", userID)
			}
			continue
		}

		// Assign seat: Try empty seats first, then bots (if lobby)
		assigned := false
		for i, seatUserId := range matchState.Seats {
			if seatUserId == "" {
				matchState.Seats[i] = userID
				assigned = true
				break
			}
		}

		if !assigned && matchState.InLobby() {
			for i, seatUserId := range matchState.Seats {
				if isBotUserId(seatUserId) {
					logger.Info("MatchJoin: Replacing bot %s with human %s in seat %d", seatUserId, userID, i)
					delete(matchState.Bots, seatUserId)
					matchState.Seats[i] = userID
					assigned = true
					break
				}
			}
		}

		if !assigned {
			logger.Warn("MatchJoin: User %s joined but no seat (empty or bot) was available.", userID)
			continue
		}
	}

	// Ensure owner seat is assigned to a connected human player only.
	mh.ensureOwner(matchState, logger)

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastMatchState(ctx, matchState, dispatcher, logger)

	return matchState
}

// MatchLeave is called when one or more players leave the match.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		delete(matchState.Presences, userID)

		seat := matchState.SeatOf(userID)
		if seat < 0 {
			continue
		}
		if !matchState.InLobby() {
			// The player stays in the game; the turn timer plays for them.
			matchState.Departed[userID] = true
			logger.Info("MatchLeave: User %s left mid-game, seat %d kept for the turn timer.", userID, seat)
			continue
		}
		matchState.Seats[seat] = ""
		logger.Debug("MatchLeave: User %s left, seat %d freed.", userID, seat)
	}

	mh.ensureOwner(matchState, logger)

	if shouldTerminateNoHumans(matchState.Seats, matchState.Departed) {
		logger.Info("MatchLeave: Terminating match with no humans.")
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastMatchState(ctx, matchState, dispatcher, logger)

	return matchState
}

func (mh *matchHandler) ensureOwner(state *MatchState, logger runtime.Logger) {
	if isHumanSeat(state.Seats, state.OwnerSeat) && !state.Departed[state.Seats[state.OwnerSeat]] {
		return
	}
	newOwnerSeat := findFirstConnectedHumanSeat(state.Seats, state.Departed)
	if newOwnerSeat == state.OwnerSeat {
		return
	}
	state.OwnerSeat = newOwnerSeat
	if newOwnerSeat >= 0 {
		logger.Debug("ensureOwner: Owner set to human seat %d.", newOwnerSeat)
	} else {
		logger.Debug("ensureOwner: No human owner is available.")
	}
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpStartGame:
			mh.handleStartGame(ctx, matchState, dispatcher, logger, msg)
		case OpDraw:
			mh.handleDraw(ctx, matchState, dispatcher, logger, msg)
		case OpDiscard:
			mh.handleDiscard(ctx, matchState, dispatcher, logger, msg)
		case OpCallYaniv:
			mh.handleCallYaniv(ctx, matchState, dispatcher, logger, msg)
		case OpNextRound:
			mh.handleNextRound(ctx, matchState, dispatcher, logger, msg)
		case OpPlayAgain:
			mh.handlePlayAgain(ctx, matchState, dispatcher, logger, msg)
		case OpSlapDown:
			mh.handleSlapDown(ctx, matchState, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	mh.tickRoundBreak(ctx, matchState, dispatcher, logger)
	mh.tickTurnTimer(ctx, matchState, dispatcher, logger)

	if matchState.BotsEnabled {
		var balancer BotBalancer
		if nk != nil {
			balancer = nk
		}
		mh.processBots(ctx, matchState, dispatcher, logger, balancer)
	}

	return matchState
}

// resetTurnSecondsRemainingWithBonus restarts the turn timer for the current player.
func (mh *matchHandler) resetTurnSecondsRemainingWithBonus(state *MatchState, logger runtime.Logger, bonus int) {
	if !state.InPlay() {
		state.TurnUserID = ""
		state.TurnSecondsRemaining = 0
		return
	}
	state.TurnUserID = state.Game.State.CurrentPlayer().ID
	state.TurnSecondsRemaining = int64(state.turnSeconds() + bonus)
	logger.Debug("TurnTimer: %s has %d seconds.", state.TurnUserID, state.TurnSecondsRemaining)
}

func (mh *matchHandler) tickTurnTimer(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if !state.InPlay() || state.TurnUserID == "" {
		return
	}
	state.TurnSecondsRemaining--
	if state.TurnSecondsRemaining > 0 {
		return
	}

	actor := state.Game.State.CurrentPlayer().ID
	events, err := state.App.ForceTurn(state.Game, actor)
	if err != nil {
		logger.Error("TurnTimer: Failed to force turn for %s: %v", actor, err)
		mh.resetTurnSecondsRemainingWithBonus(state, logger, 0)
		return
	}
	logger.Info("TurnTimer: Turn expired for %s, played automatically.", actor)
	mh.applyEvents(ctx, state, dispatcher, logger, events)
}

func (mh *matchHandler) tickRoundBreak(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.NextRoundTick == 0 || state.Tick < state.NextRoundTick {
		return
	}
	state.NextRoundTick = 0
	mh.startNextRound(ctx, state, dispatcher, logger)
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminated with %d grace seconds", graceSeconds)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
