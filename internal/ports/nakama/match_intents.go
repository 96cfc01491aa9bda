package nakama

import (
	"context"
	"errors"

	"yaniv/internal/app"
	"yaniv/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

var (
	errNotOwner  = errors.New("only the match owner can do this")
	errNotSeated = errors.New("sender has no seat in this match")
	errNoRound   = errors.New("no round in progress")
)

// errorCode picks the OpError code for a rejected message.
func errorCode(err error) int {
	switch {
	case errors.Is(err, ErrBadPayload), errors.Is(err, domain.ErrInvalidRules):
		return errCodeBadRequest
	case errors.Is(err, errNotOwner), errors.Is(err, errNotSeated):
		return errCodeForbidden
	default:
		return errCodeRejected
	}
}

func (mh *matchHandler) reject(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, stage, userID string, err error) {
	logger.Warn("%s: Rejected message from %s: %v", stage, userID, err)
	mh.sendError(state, dispatcher, logger, userID, errorCode(err), err)
}

// checkOwner returns errNotOwner unless userID sits in the owner seat.
func checkOwner(state *MatchState, userID string) error {
	seat := state.SeatOf(userID)
	if seat < 0 {
		return errNotSeated
	}
	if seat != state.OwnerSeat {
		return errNotOwner
	}
	return nil
}

func (mh *matchHandler) handleStartGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	logger.Info("StartGame: Request received from %s (seat=%d, owner_seat=%d, occupied=%d)", senderID, state.SeatOf(senderID), state.OwnerSeat, state.GetOccupiedSeatCount())

	tier, opts, err := decodeStartRequest(msg.GetData())
	if err != nil {
		mh.reject(state, dispatcher, logger, "StartGame", senderID, err)
		return
	}
	if err := checkOwner(state, senderID); err != nil {
		mh.reject(state, dispatcher, logger, "StartGame", senderID, err)
		return
	}
	if !state.InLobby() {
		mh.reject(state, dispatcher, logger, "StartGame", senderID, domain.ErrRoundInProgress)
		return
	}
	if err := state.configure(opts); err != nil {
		mh.reject(state, dispatcher, logger, "StartGame", senderID, err)
		return
	}
	if tier != "" {
		state.Tier = tier
	}

	if err := mh.startGame(ctx, state, dispatcher, logger); err != nil {
		mh.reject(state, dispatcher, logger, "StartGame", senderID, err)
	}
}

// startGame deals a fresh game for the occupied seats.
func (mh *matchHandler) startGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) error {
	activeCount := state.GetOccupiedSeatCount()
	if activeCount < app.MinPlayersToStartGame {
		return app.ErrTooFewPlayers
	}

	cfg := state.gameConfig()
	game, events, err := state.App.StartGame(state.Seats, app.StartOptions{
		Rules:   state.rules(),
		BaseBet: cfg.BaseBet(state.Tier),
		TaxRate: cfg.TaxRate,
	})
	if err != nil {
		logger.Error("StartGame: Failed to start game: %v", err)
		return err
	}

	state.Game = game
	for _, userID := range state.Seats {
		if isBotUserId(userID) {
			mh.ensureAgent(state, userID, logger)
		}
	}

	mh.updateLabel(state, dispatcher, logger)
	mh.applyEvents(ctx, state, dispatcher, logger, events)

	logger.Info("StartGame: Game %s started with %d players (tier %s, base bet %d, yaniv at %d, to %d, slap-down %v).",
		game.ID, activeCount, state.Tier, game.BaseBet, game.State.Rules.YanivThreshold, game.State.Rules.EliminationScore, game.State.Rules.SlapDown)
	return nil
}

func (mh *matchHandler) handleDraw(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	req, err := decodeDrawRequest(msg.GetData())
	if err != nil {
		mh.reject(state, dispatcher, logger, "handleDraw", senderID, err)
		return
	}
	mh.playIntent(ctx, state, dispatcher, logger, "handleDraw", senderID, func() ([]app.Event, error) {
		if req.Card != nil {
			return state.App.Draw(state.Game, senderID, req.Source, *req.Card)
		}
		return state.App.Draw(state.Game, senderID, req.Source)
	})
}

func (mh *matchHandler) handleDiscard(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	cards, err := decodeDiscardRequest(msg.GetData())
	if err != nil {
		mh.reject(state, dispatcher, logger, "handleDiscard", senderID, err)
		return
	}
	mh.playIntent(ctx, state, dispatcher, logger, "handleDiscard", senderID, func() ([]app.Event, error) {
		return state.App.Discard(state.Game, senderID, cards)
	})
}

func (mh *matchHandler) handleCallYaniv(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	mh.playIntent(ctx, state, dispatcher, logger, "handleCallYaniv", senderID, func() ([]app.Event, error) {
		return state.App.CallYaniv(state.Game, senderID)
	})
}

// handleSlapDown lays the drawn card onto the sender's own discard. It is
// accepted out of turn while the sender's slap-down window is open.
func (mh *matchHandler) handleSlapDown(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	card, err := decodeSlapDownRequest(msg.GetData())
	if err != nil {
		mh.reject(state, dispatcher, logger, "handleSlapDown", senderID, err)
		return
	}
	mh.playIntent(ctx, state, dispatcher, logger, "handleSlapDown", senderID, func() ([]app.Event, error) {
		return state.App.SlapDown(state.Game, senderID, card)
	})
}

// playIntent runs a turn action for a seated player and dispatches its events.
func (mh *matchHandler) playIntent(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, stage, senderID string, apply func() ([]app.Event, error)) {
	if state.SeatOf(senderID) < 0 {
		mh.reject(state, dispatcher, logger, stage, senderID, errNotSeated)
		return
	}
	if !state.InPlay() {
		mh.reject(state, dispatcher, logger, stage, senderID, errNoRound)
		return
	}

	events, err := apply()
	if err != nil {
		mh.reject(state, dispatcher, logger, stage, senderID, err)
		return
	}
	mh.applyEvents(ctx, state, dispatcher, logger, events)
}

func (mh *matchHandler) handleNextRound(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if err := checkOwner(state, senderID); err != nil {
		mh.reject(state, dispatcher, logger, "handleNextRound", senderID, err)
		return
	}
	if state.InLobby() {
		mh.reject(state, dispatcher, logger, "handleNextRound", senderID, app.ErrNotPlaying)
		return
	}
	if state.Game.State.Round.Phase != domain.PhaseRoundEnded {
		mh.reject(state, dispatcher, logger, "handleNextRound", senderID, domain.ErrRoundInProgress)
		return
	}
	state.NextRoundTick = 0
	mh.startNextRound(ctx, state, dispatcher, logger)
}

// startNextRound deals the next round of the running game.
func (mh *matchHandler) startNextRound(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.InLobby() {
		return
	}
	events, err := state.App.StartNextRound(state.Game)
	if err != nil {
		logger.Error("startNextRound: Failed to deal next round: %v", err)
		return
	}
	logger.Info("startNextRound: Round %d of game %s dealt.", state.Game.State.Round.Number, state.Game.ID)
	mh.applyEvents(ctx, state, dispatcher, logger, events)
}

func (mh *matchHandler) handlePlayAgain(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if err := checkOwner(state, senderID); err != nil {
		mh.reject(state, dispatcher, logger, "handlePlayAgain", senderID, err)
		return
	}
	if state.Game == nil || !state.Game.State.Ended {
		mh.reject(state, dispatcher, logger, "handlePlayAgain", senderID, domain.ErrGameNotEnded)
		return
	}

	// A changed table needs a fresh deal; the same players get a rematch.
	if !sameSeats(state.Seats, state.Game.State.PlayerIDs()) {
		if err := mh.startGame(ctx, state, dispatcher, logger); err != nil {
			mh.reject(state, dispatcher, logger, "handlePlayAgain", senderID, err)
		}
		return
	}

	events, err := state.App.PlayAgain(state.Game)
	if err != nil {
		mh.reject(state, dispatcher, logger, "handlePlayAgain", senderID, err)
		return
	}
	logger.Info("handlePlayAgain: Rematch of game %s started.", state.Game.ID)
	mh.updateLabel(state, dispatcher, logger)
	mh.applyEvents(ctx, state, dispatcher, logger, events)
}

// sameSeats reports whether the occupied seats hold exactly players, in order.
func sameSeats(seats, players []string) bool {
	i := 0
	for _, userID := range seats {
		if userID == "" {
			continue
		}
		if i >= len(players) || players[i] != userID {
			return false
		}
		i++
	}
	return i == len(players)
}
