package agent

import (
	"context"
	"errors"
	"sync"
	"time"

	"gamesearch/experiments/metrics"
	"gamesearch/game"
)

var (
	ErrSearchInFlight = errors.New("a search is already running")
	ErrNoSearch       = errors.New("no search was started")
)

// AsyncAgent searches in the background so the caller can bound how long it waits.
type AsyncAgent interface {
	// BeginSearch starts searching state for player and returns immediately.
	// The state belongs to the search until it completes or is abandoned.
	BeginSearch(ctx context.Context, player game.Player, state game.State) error
	// AwaitResult waits up to budget for the search. It reports false while the
	// search is still running. A budget <= 0 polls without waiting.
	AwaitResult(budget time.Duration) (game.ActionScore, bool, error)
	// Abandon cancels a running search and drops its result.
	Abandon()
	String() string
}

type slot int

const (
	idle slot = iota
	running
	ready
)

// Async runs a synchronous Agent as an AsyncAgent. It holds at most one search.
type Async struct {
	agent Agent

	mu         sync.Mutex
	slot       slot
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}
	result     game.ActionScore
	err        error
}

func NewAsync(agent Agent) *Async {
	return &Async{agent: agent}
}

func (a *Async) BeginSearch(ctx context.Context, player game.Player, state game.State) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.slot == running {
		return ErrSearchInFlight
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	a.generation++
	generation := a.generation
	a.slot, a.cancel, a.done = running, cancel, done
	a.result, a.err = game.ActionScore{}, nil

	go func() {
		defer close(done)
		defer cancel()
		score, err := a.agent.PickAction(ctx, player, state)

		a.mu.Lock()
		defer a.mu.Unlock()
		if a.generation != generation { // Abandoned
			return
		}
		a.result, a.err = score, err
		a.slot = ready
	}()
	return nil
}

func (a *Async) AwaitResult(budget time.Duration) (game.ActionScore, bool, error) {
	a.mu.Lock()
	if a.slot == idle {
		a.mu.Unlock()
		return game.ActionScore{}, false, ErrNoSearch
	}
	done := a.done
	a.mu.Unlock()

	if budget > 0 {
		timer := time.NewTimer(budget)
		defer timer.Stop()
		select {
		case <-done:
		case <-timer.C:
		}
	}
	select {
	case <-done:
	default:
		return game.ActionScore{}, false, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.done != done || a.slot != ready {
		return game.ActionScore{}, false, ErrNoSearch
	}
	a.slot = idle
	return a.result, true, a.err
}

func (a *Async) Abandon() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.slot != running {
		return
	}
	a.cancel()
	a.generation++
	a.slot = idle
}

// LastSearch forwards the metrics of the wrapped agent, if it records any.
func (a *Async) LastSearch() metrics.SearchMetric {
	if r, ok := a.agent.(Reporter); ok {
		return r.LastSearch()
	}
	return metrics.SearchMetric{}
}

func (a *Async) String() string {
	return a.agent.String()
}
