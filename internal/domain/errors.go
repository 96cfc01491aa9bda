package domain

import "errors"

var (
	ErrInvalidTurn        = errors.New("not this player's turn or action not allowed in this phase")
	ErrEmptySource        = errors.New("draw source is empty")
	ErrIllegalCombination = errors.New("cards do not form a legal discard")
	ErrCardNotInHand      = errors.New("card not in hand")
	ErrCardNotInPile      = errors.New("card cannot be taken from the discard pile")
	ErrHandTooHigh        = errors.New("hand value above yaniv threshold")
	ErrGameAlreadyEnded   = errors.New("game already ended")
	ErrRoundInProgress    = errors.New("round still in progress")
	ErrGameNotEnded       = errors.New("game has not ended")
	ErrInvalidRules       = errors.New("invalid rules")
	ErrInvalidPlayers     = errors.New("invalid player list")
	ErrUnknownDrawSource  = errors.New("unknown draw source")
	ErrNoSlapDown         = errors.New("no slap-down available")
)
