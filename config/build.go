package config

import (
	"fmt"
	"time"

	"gamesearch/engine"
	"gamesearch/experiments/metrics"
	"gamesearch/game"
	"gamesearch/game/connect4"
	"gamesearch/game/ingenious"
	"gamesearch/searcher"
	"gamesearch/searcher/agent"
)

// NewState returns the initial state of the configured game. The seed only
// matters for games dealing hidden-order pieces.
func (g GameConfig) NewState(seed uint64) (game.State, error) {
	switch g.Name {
	case Connect4:
		return connect4.NewState(), nil
	case Ingenious:
		s, err := ingenious.NewState(g.Players, seed)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown game %q", g.Name)
	}
}

// Participant builds the agent described by a. Async agents are wrapped so
// that the match loop bounds their search by its budget.
func (a AgentConfig) Participant() (engine.Participant, error) {
	var built agent.Agent
	switch a.Kind {
	case Random:
		built = agent.NewRandomAgent(a.seed())
	case MonteCarlo:
		built = agent.NewMonteCarloAgent(searcher.NewMonteCarlo(a.options()...))
	case UCT:
		built = agent.NewMonteCarloAgent(searcher.NewUCT(a.options()...))
	default:
		return nil, fmt.Errorf("%s: unknown kind %q", a.Name, a.Kind)
	}
	if a.Async {
		return agent.NewAsync(built), nil
	}
	return built, nil
}

func (a AgentConfig) options() []searcher.Option {
	options := []searcher.Option{
		searcher.WithSimulations(a.Simulations),
		searcher.WithGoroutines(a.Goroutines),
		searcher.WithMetrics(),
	}
	if a.MaxDepth != nil {
		options = append(options, searcher.WithMaxDepth(*a.MaxDepth))
	}
	if a.Exploration > 0 {
		options = append(options, searcher.WithExploration(a.Exploration))
	}
	if a.MeanReward {
		options = append(options, searcher.WithMeanReward())
	}
	if a.Seed != nil {
		options = append(options, searcher.WithSeed(*a.Seed))
	}
	return options
}

func (a AgentConfig) seed() uint64 {
	if a.Seed != nil {
		return *a.Seed
	}
	return uint64(time.Now().UnixNano())
}

func (a AgentConfig) Record() metrics.AgentRecord {
	depth := searcher.DefaultMaxDepth
	if a.MaxDepth != nil {
		depth = *a.MaxDepth
	}
	return metrics.AgentRecord{
		Name:        a.Name,
		Kind:        a.Kind,
		Simulations: a.Simulations,
		MaxDepth:    depth,
		Goroutines:  a.Goroutines,
		Async:       a.Async,
	}
}
