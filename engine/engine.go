package engine

import (
	"errors"
	"fmt"
	"time"

	"gamesearch/experiments/metrics"
	"gamesearch/game"
)

const (
	MaxTurns      = 10000
	DefaultBudget = time.Second
)

var (
	ErrSearchTimeout   = errors.New("search did not finish within its budget")
	ErrTurnLimit       = errors.New("turn limit reached")
	ErrNoParticipant   = errors.New("no participant for player")
	ErrNotAParticipant = errors.New("participant is neither an agent nor an async agent")
)

// Participant is an agent.Agent or an agent.AsyncAgent.
type Participant interface {
	String() string
}

// TurnError names the turn on which a match failed.
type TurnError struct {
	Agent  string
	Player game.Player
	Turn   int
	Err    error
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("turn %d, player %d (%s): %v", e.Turn, e.Player, e.Agent, e.Err)
}

func (e *TurnError) Unwrap() error {
	return e.Err
}

type Result struct {
	Winner game.Player // NoPlayer for a draw or an unfinished match
	Turns  int
	Final  game.State
	Moves  []metrics.MoveMetric
	Game   metrics.GameMetric
}
