package bot

import (
	"fmt"

	"yaniv/internal/app"
	"yaniv/internal/domain"
)

// Agent represents an autonomous bot player.
type Agent struct {
	ID       string
	Name     string
	Level    BotLevel
	Strategy Brain
}

// NewAgent builds an agent with a fresh brain for the level.
func NewAgent(id, name string, level BotLevel) (*Agent, error) {
	strategy, err := NewBrain(level)
	if err != nil {
		return nil, err
	}
	if hb, ok := strategy.(*HardBot); ok {
		hb.Memory.Self = id
	}
	return &Agent{ID: id, Name: name, Level: level, Strategy: strategy}, nil
}

// Play asks the agent to calculate its move based on the current game state.
func (a *Agent) Play(game domain.GameState) (Move, error) {
	if _, ok := game.Player(a.ID); !ok {
		return Move{}, ErrNotSeated
	}
	return a.Strategy.CalculateMove(game, a.ID)
}

// SlapDown returns the slap-down move when one is open for the agent. Easy
// bots never slap.
func (a *Agent) SlapDown(game domain.GameState) (Move, bool) {
	if a.Level == BotLevelEasy {
		return Move{}, false
	}
	card, ok := game.CanSlapDown(a.ID)
	if !ok {
		return Move{}, false
	}
	return Move{Kind: MoveSlapDown, Card: &card}, true
}

// OnGameEvent notifies the agent of a game event.
func (a *Agent) OnGameEvent(event interface{}) {
	a.Strategy.OnEvent(event)
}

// Apply submits the move to the service on behalf of playerID.
func (m Move) Apply(svc *app.Service, game *app.Game, playerID string) ([]app.Event, error) {
	switch m.Kind {
	case MoveCallYaniv:
		return svc.CallYaniv(game, playerID)
	case MoveDraw:
		if m.Card != nil {
			return svc.Draw(game, playerID, m.Source, *m.Card)
		}
		return svc.Draw(game, playerID, m.Source)
	case MoveDiscard:
		return svc.Discard(game, playerID, m.Cards)
	case MoveSlapDown:
		if m.Card == nil {
			return nil, fmt.Errorf("slap-down move without a card")
		}
		return svc.SlapDown(game, playerID, *m.Card)
	default:
		return nil, fmt.Errorf("unknown move kind %s", m.Kind)
	}
}
