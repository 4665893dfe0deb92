package searcher

import (
	"context"
	"fmt"
	"maps"
	"math"
	"slices"

	"gamesearch/experiments/metrics"
	"gamesearch/game"

	"golang.org/x/exp/rand"
)

// MonteCarlo picks actions by running repeated random rollouts from the
// current state and choosing the root action with the best total outcome.
// It is safe for concurrent use.
type MonteCarlo struct {
	*settings
}

func NewMonteCarlo(options ...Option) *MonteCarlo {
	return &MonteCarlo{settings: newSettings(options)}
}

func (m *MonteCarlo) String() string {
	return fmt.Sprintf("MonteCarlo[simulations=%d, maxDepth=%d, goroutines=%d]", m.simulations, m.maxDepth, m.goroutines)
}

// PickAction returns the root action with the greatest accumulated reward
// for player. Ties go to the lowest action.
func (m *MonteCarlo) PickAction(ctx context.Context, player game.Player, root game.State) (game.ActionScore, error) {
	score, _, err := m.Search(ctx, player, root)
	return score, err
}

// rewards accumulates rollout outcomes per root action.
type rewards struct {
	totals map[game.Action]float64
	counts map[game.Action]int
}

func newRewards() rewards {
	return rewards{totals: map[game.Action]float64{}, counts: map[game.Action]int{}}
}

func (r rewards) add(action game.Action, reward float64, count int) {
	r.totals[action] += reward
	r.counts[action] += count
}

func (m *MonteCarlo) Search(ctx context.Context, player game.Player, root game.State) (game.ActionScore, metrics.SearchMetric, error) {
	if root.IsTerminal() || len(root.LegalActions()) == 0 {
		return game.ActionScore{}, metrics.SearchMetric{}, game.ErrNoLegalAction
	}
	if m.simulations == 0 {
		return game.ActionScore{}, metrics.SearchMetric{}, ErrNoSimulations
	}

	collector := m.newCollector()
	collector.Start(m.goroutines, m.maxDepth)

	// Each worker accumulates privately, merged once all have finished
	partial := make([]rewards, m.goroutines)
	err := m.runWorkers(ctx, func(ctx context.Context, worker, simulations int, rng *rand.Rand) error {
		acc := newRewards()
		for i := 0; i < simulations; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			action, reward, err := m.simulate(player, root, rng, collector)
			if err != nil {
				return err
			}
			acc.add(action, reward, 1)
			collector.AddSimulation()
		}
		partial[worker] = acc
		return nil
	})
	if err != nil {
		return game.ActionScore{}, collector.Complete(), err
	}

	merged := newRewards()
	for _, acc := range partial {
		for action, total := range acc.totals {
			merged.add(action, total, acc.counts[action])
		}
	}
	return m.selectBest(merged), collector.Complete(), nil
}

// simulate runs one rollout on a copy of root and returns its root action and reward.
func (m *MonteCarlo) simulate(player game.Player, root game.State, rng *rand.Rand, collector metrics.Collector) (game.Action, float64, error) {
	state := root.Copy()
	actions := state.LegalActions()
	first := actions[rng.Intn(len(actions))]
	if err := state.Perform(first); err != nil {
		return 0, 0, fmt.Errorf("rollout from root: %w", err)
	}

	full, err := playout(state, 1, m.maxDepth, rng)
	if err != nil {
		return 0, 0, fmt.Errorf("rollout: %w", err)
	}
	if full {
		collector.AddFullPlayout()
	}
	return first, m.evaluator.Evaluate(player, state), nil
}

// selectBest scans actions in ascending order and keeps the first strictly greatest value.
func (m *MonteCarlo) selectBest(r rewards) game.ActionScore {
	best := game.ActionScore{Score: math.Inf(-1)}
	for _, action := range slices.Sorted(maps.Keys(r.totals)) {
		value := r.totals[action]
		if m.meanReward {
			value /= float64(r.counts[action])
		}
		if value > best.Score {
			best = game.ActionScore{Action: action, Score: value}
		}
	}
	return best
}
