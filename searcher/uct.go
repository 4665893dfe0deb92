package searcher

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"gamesearch/experiments/metrics"
	"gamesearch/game"

	"golang.org/x/exp/rand"
)

// UCT builds a search tree guided by UCB1 and returns the most visited root
// action. With several goroutines each builds its own tree and root
// statistics are summed (root parallelization).
type UCT struct {
	*settings
}

func NewUCT(options ...Option) *UCT {
	return &UCT{settings: newSettings(options)}
}

func (u *UCT) String() string {
	return fmt.Sprintf("UCT[simulations=%d, maxDepth=%d, goroutines=%d]", u.simulations, u.maxDepth, u.goroutines)
}

func (u *UCT) PickAction(ctx context.Context, player game.Player, root game.State) (game.ActionScore, error) {
	score, _, err := u.Search(ctx, player, root)
	return score, err
}

// Search returns the most visited root action scored by its mean reward for
// player, who must be the player to move. Ties go to the lowest action.
func (u *UCT) Search(ctx context.Context, player game.Player, root game.State) (game.ActionScore, metrics.SearchMetric, error) {
	if root.IsTerminal() || len(root.LegalActions()) == 0 {
		return game.ActionScore{}, metrics.SearchMetric{}, game.ErrNoLegalAction
	}
	if player != root.CurrentPlayer() {
		return game.ActionScore{}, metrics.SearchMetric{}, fmt.Errorf("%w: player %d searched for player %d to move", ErrNotToMove, player, root.CurrentPlayer())
	}
	if u.simulations == 0 {
		return game.ActionScore{}, metrics.SearchMetric{}, ErrNoSimulations
	}

	collector := u.newCollector()
	collector.Start(u.goroutines, u.maxDepth)

	trees := make([]*node, u.goroutines)
	err := u.runWorkers(ctx, func(ctx context.Context, worker, simulations int, rng *rand.Rand) error {
		tree := newNode(nil, 0, game.NoPlayer, root)
		for i := 0; i < simulations; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := u.simulate(tree, root, rng, collector); err != nil {
				return err
			}
			collector.AddSimulation()
		}
		trees[worker] = tree
		return nil
	})
	if err != nil {
		return game.ActionScore{}, collector.Complete(), err
	}

	merged := newRewards()
	for _, tree := range trees {
		for _, child := range tree.children {
			merged.add(child.action, child.rewards, child.visits)
		}
	}
	return mostVisited(merged), collector.Complete(), nil
}

func (u *UCT) simulate(tree *node, root game.State, rng *rand.Rand, collector metrics.Collector) error {
	state := root.Copy()

	// Selection
	n := tree
	for !n.isExpandable() && len(n.children) > 0 {
		n = n.selectChild(u.cSquared)
		if err := state.Perform(n.action); err != nil {
			return fmt.Errorf("selection: %w", err)
		}
	}

	// Expansion
	if n.isExpandable() {
		i := rng.Intn(len(n.untried))
		player := state.CurrentPlayer()
		if err := state.Perform(n.untried[i]); err != nil {
			return fmt.Errorf("expansion: %w", err)
		}
		n = n.expand(i, player, state)
	}

	// Rollout
	full, err := playout(state, 0, u.maxDepth, rng)
	if err != nil {
		return fmt.Errorf("rollout: %w", err)
	}
	if full {
		collector.AddFullPlayout()
	}

	// Backpropagation
	n.backup(func(player game.Player) float64 {
		return u.evaluator.Evaluate(player, state)
	})
	return nil
}

func mostVisited(r rewards) game.ActionScore {
	var best game.Action
	bestVisits := -1
	for _, action := range slices.Sorted(maps.Keys(r.counts)) {
		if visits := r.counts[action]; visits > bestVisits {
			best = action
			bestVisits = visits
		}
	}
	score := 0.0
	if bestVisits > 0 {
		score = r.totals[best] / float64(bestVisits)
	}
	return game.ActionScore{Action: best, Score: score}
}
