package engine

import (
	"context"
	"fmt"
	"time"

	"gamesearch/experiments/metrics"
	"gamesearch/game"
	"gamesearch/searcher/agent"

	"github.com/rs/zerolog/log"
)

// Engine plays one match on a canonical state that only it mutates.
type Engine struct {
	initial      game.State
	participants map[game.Player]Participant
	budget       time.Duration
	maxTurns     int
	verbose      bool
	id           string
}

type Option func(e *Engine)

// WithBudget sets how long an async participant may search per turn.
func WithBudget(budget time.Duration) Option {
	return func(e *Engine) {
		if budget > 0 {
			e.budget = budget
		}
	}
}

func WithMaxTurns(turns int) Option {
	return func(e *Engine) {
		if turns > 0 {
			e.maxTurns = turns
		}
	}
}

// WithVerbose logs the rendered state and the chosen action every turn.
func WithVerbose() Option {
	return func(e *Engine) {
		e.verbose = true
	}
}

// WithID tags the match in logs and metrics.
func WithID(id string) Option {
	return func(e *Engine) {
		e.id = id
	}
}

func New(initial game.State, participants map[game.Player]Participant, options ...Option) (*Engine, error) {
	for player, p := range participants {
		switch p.(type) {
		case agent.AsyncAgent, agent.Agent:
		default:
			return nil, fmt.Errorf("player %d: %w", player, ErrNotAParticipant)
		}
	}
	e := &Engine{
		initial:      initial.Copy(),
		participants: participants,
		budget:       DefaultBudget,
		maxTurns:     MaxTurns,
	}
	for _, option := range options {
		option(e)
	}
	return e, nil
}

// Run plays the match until the state is terminal. On error the result holds
// everything played up to the failing turn.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	state := e.initial.Copy()
	result := Result{
		Final: state,
		Game: metrics.GameMetric{
			ID:             e.id,
			StartingPlayer: int(state.CurrentPlayer()),
			StartTime:      time.Now(),
		},
	}
	logger := log.With().Str("match", e.id).Logger()
	logger.Info().Msgf("player %d is starting", state.CurrentPlayer())

	var err error
	for !state.IsTerminal() {
		if result.Turns >= e.maxTurns {
			err = fmt.Errorf("%w after %d turns", ErrTurnLimit, result.Turns)
			break
		}
		if err = ctx.Err(); err != nil {
			break
		}
		var move metrics.MoveMetric
		move, err = e.turn(ctx, state, result.Turns+1)
		if err != nil {
			break
		}
		result.Turns++
		result.Moves = append(result.Moves, move)
	}

	result.Game.EndTime = time.Now()
	result.Game.Duration = result.Game.EndTime.Sub(result.Game.StartTime)
	result.Game.TotalMoves = result.Turns
	if err != nil {
		result.Game.Err = err.Error()
		logger.Error().Err(err).Int("turns", result.Turns).Msg("match aborted")
		return result, err
	}

	result.Winner = state.Winner()
	result.Game.Winner = int(result.Winner)
	logger.Info().Int("turns", result.Turns).Dur("duration", result.Game.Duration).Msgf("match over, winner: %d", result.Winner)
	return result, nil
}

// turn asks the active participant for an action and performs it on state.
func (e *Engine) turn(ctx context.Context, state game.State, turn int) (metrics.MoveMetric, error) {
	player := state.CurrentPlayer()
	p, ok := e.participants[player]
	if !ok {
		return metrics.MoveMetric{}, &TurnError{Player: player, Turn: turn, Err: ErrNoParticipant}
	}
	fail := func(err error) error {
		return &TurnError{Agent: p.String(), Player: player, Turn: turn, Err: err}
	}

	view := state.Copy()
	if r, ok := p.(agent.Representer); ok {
		view = r.Represent(view)
	}

	start := time.Now()
	score, err := e.decide(ctx, p, player, view)
	if err != nil {
		return metrics.MoveMetric{}, fail(err)
	}
	elapsed := time.Since(start)

	action := state.ActionString(score.Action)
	if err := state.Perform(score.Action); err != nil {
		return metrics.MoveMetric{}, fail(err)
	}
	if e.verbose {
		log.Debug().Str("match", e.id).Msgf("turn %d: %s plays %s (score %.3f)\n%s", turn, p, action, score.Score, state)
	}

	move := metrics.MoveMetric{
		Step:     turn,
		Player:   int(player),
		Agent:    p.String(),
		Action:   action,
		Duration: elapsed,
	}
	if r, ok := p.(agent.Reporter); ok {
		move.SearchMetric = r.LastSearch()
	}
	return move, nil
}

func (e *Engine) decide(ctx context.Context, p Participant, player game.Player, view game.State) (game.ActionScore, error) {
	switch p := p.(type) {
	case agent.AsyncAgent:
		if err := p.BeginSearch(ctx, player, view); err != nil {
			return game.ActionScore{}, err
		}
		score, ok, err := p.AwaitResult(e.budget)
		if !ok && err == nil {
			p.Abandon()
			return game.ActionScore{}, fmt.Errorf("%w (%v)", ErrSearchTimeout, e.budget)
		}
		return score, err
	case agent.Agent:
		return p.PickAction(ctx, player, view)
	default:
		return game.ActionScore{}, ErrNotAParticipant
	}
}
