package searcher

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"gamesearch/experiments/metrics"
	"gamesearch/game"

	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoSimulations is returned by a search configured to run zero simulations.
	ErrNoSimulations = errors.New("search needs at least one simulation")
	// ErrNotToMove is returned by tree searches asked to decide for a player who is not to move.
	ErrNotToMove = errors.New("player is not to move")
)

const (
	DefaultSimulations = 100000
	DefaultMaxDepth    = 50
	CSquared           = 2.0 // Exploration constant
)

// Searcher picks an action for player from state and reports how it searched.
type Searcher interface {
	Search(ctx context.Context, player game.Player, state game.State) (game.ActionScore, metrics.SearchMetric, error)
}

type Option func(s *settings)

type settings struct {
	simulations int
	maxDepth    int
	goroutines  int
	evaluator   game.Evaluator
	cSquared    float64
	meanReward  bool
	metrics     bool
	seed        uint64
	seeded      bool
	calls       atomic.Uint64
}

func newSettings(options []Option) *settings {
	s := &settings{ // Default values
		simulations: DefaultSimulations,
		maxDepth:    DefaultMaxDepth,
		goroutines:  1,
		evaluator:   game.NewWinLoss(),
		cSquared:    CSquared,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// WithSimulations sets the number of rollouts per decision. Zero is accepted
// and makes every search fail with ErrNoSimulations.
func WithSimulations(simulations int) Option {
	return func(s *settings) {
		if simulations >= 0 {
			s.simulations = simulations
		}
	}
}

// WithMaxDepth sets the rollout cut-off.
func WithMaxDepth(depth int) Option {
	return func(s *settings) {
		if depth >= 0 {
			s.maxDepth = depth
		}
	}
}

func WithGoroutines(goroutines int) Option {
	return func(s *settings) {
		if goroutines > 0 {
			s.goroutines = goroutines
		}
	}
}

func WithEvaluator(evaluator game.Evaluator) Option {
	return func(s *settings) {
		if evaluator != nil {
			s.evaluator = evaluator
		}
	}
}

// WithExploration sets the squared UCT exploration constant.
func WithExploration(cSquared float64) Option {
	return func(s *settings) {
		if cSquared > 0 {
			s.cSquared = cSquared
		}
	}
}

// WithMeanReward compares root actions by mean instead of accumulated reward.
func WithMeanReward() Option {
	return func(s *settings) {
		s.meanReward = true
	}
}

// WithSeed makes searches reproducible for a fixed seed and goroutine count.
func WithSeed(seed uint64) Option {
	return func(s *settings) {
		s.seed = seed
		s.seeded = true
	}
}

func WithMetrics() Option {
	return func(s *settings) {
		s.metrics = true
	}
}

func (s *settings) newCollector() metrics.Collector {
	if s.metrics {
		return metrics.NewCollector()
	}
	return metrics.NewDummyCollector()
}

// nextSeed derives a fresh seed for each search so repeated decisions differ.
func (s *settings) nextSeed() uint64 {
	base := s.seed
	if !s.seeded {
		base = uint64(time.Now().UnixNano())
	}
	var src rand.PCGSource
	src.Seed(base + s.calls.Add(1))
	return src.Uint64()
}

// runWorkers splits the configured simulations among goroutines, each with its own random source.
func (s *settings) runWorkers(ctx context.Context, work func(ctx context.Context, worker, simulations int, rng *rand.Rand) error) error {
	seed := s.nextSeed()
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < s.goroutines; w++ {
		n := s.simulations / s.goroutines
		if w < s.simulations%s.goroutines {
			n++
		}
		rng := rand.New(rand.NewSource(seed + uint64(w)))
		g.Go(func() error {
			return work(ctx, w, n, rng)
		})
	}
	return g.Wait()
}

// playout performs random actions while depth <= maxDepth and the state is
// not terminal. It reports whether a terminal state was reached.
func playout(state game.State, depth, maxDepth int, rng *rand.Rand) (bool, error) {
	for ; depth <= maxDepth && !state.IsTerminal(); depth++ {
		actions := state.LegalActions()
		if len(actions) == 0 {
			break
		}
		if err := state.Perform(actions[rng.Intn(len(actions))]); err != nil {
			return false, err
		}
	}
	return state.IsTerminal(), nil
}
