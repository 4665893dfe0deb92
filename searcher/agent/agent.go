package agent

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"gamesearch/experiments/metrics"
	"gamesearch/game"
	"gamesearch/searcher"

	"golang.org/x/exp/rand"
)

type Agent interface {
	// PickAction returns the action the agent wants to perform for player in state.
	// The state belongs to the agent for the duration of the call.
	PickAction(ctx context.Context, player game.Player, state game.State) (game.ActionScore, error)
	String() string
}

// Reporter is implemented by agents that record how their latest decision was searched.
type Reporter interface {
	LastSearch() metrics.SearchMetric
}

// Representer is implemented by agents that want the canonical state converted
// before they see it. Agents without it receive a copy of the canonical state.
type Representer interface {
	Represent(state game.State) game.State
}

type monteCarloAgent struct {
	searcher searcher.Searcher
	last     atomic.Pointer[metrics.SearchMetric]
}

// NewMonteCarloAgent returns an agent playing the action chosen by s.
func NewMonteCarloAgent(s searcher.Searcher) Agent {
	return &monteCarloAgent{searcher: s}
}

func (a *monteCarloAgent) PickAction(ctx context.Context, player game.Player, state game.State) (game.ActionScore, error) {
	score, metric, err := a.searcher.Search(ctx, player, state)
	a.last.Store(&metric)
	if err != nil {
		return game.ActionScore{}, fmt.Errorf("%v: %w", a.searcher, err)
	}
	return score, nil
}

func (a *monteCarloAgent) LastSearch() metrics.SearchMetric {
	if m := a.last.Load(); m != nil {
		return *m
	}
	return metrics.SearchMetric{}
}

func (a *monteCarloAgent) String() string {
	return fmt.Sprint(a.searcher)
}

type randomAgent struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomAgent returns a baseline agent picking uniformly among legal actions.
func NewRandomAgent(seed uint64) Agent {
	return &randomAgent{rng: rand.New(rand.NewSource(seed))}
}

func (a *randomAgent) PickAction(_ context.Context, _ game.Player, state game.State) (game.ActionScore, error) {
	actions := state.LegalActions()
	if len(actions) == 0 {
		return game.ActionScore{}, game.ErrNoLegalAction
	}
	a.mu.Lock()
	i := a.rng.Intn(len(actions))
	a.mu.Unlock()
	return game.ActionScore{Action: actions[i]}, nil
}

func (a *randomAgent) String() string {
	return "Random"
}
