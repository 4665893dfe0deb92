package metrics

import (
	"sync/atomic"
	"time"
)

type SearchMetric struct {
	Goroutines   int
	MaxDepth     int
	Duration     time.Duration
	Simulations  int
	FullPlayouts int // Rollouts that reached a terminal state before the depth cut-off
}

type MoveMetric struct {
	Step     int
	Player   int // Player ID
	Agent    string
	Action   string
	Duration time.Duration // Wall-clock time the loop spent on the decision
	SearchMetric
}

type GameMetric struct {
	ID             string
	StartingPlayer int // Player ID
	Winner         int // Player ID, 0 for a draw or a failed game
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	TotalMoves     int
	Err            string
}

// Collector gathers search statistics. Implementations must be safe for use
// by concurrent rollout workers.
type Collector interface {
	Start(goroutines, maxDepth int)
	AddSimulation()
	AddFullPlayout()
	Complete() SearchMetric
}

type collector struct {
	goroutines   int
	maxDepth     int
	startTime    time.Time
	simulations  atomic.Int64
	fullPlayouts atomic.Int64
}

func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Start(goroutines, maxDepth int) {
	m.startTime = time.Now()
	m.goroutines = goroutines
	m.maxDepth = maxDepth
	m.simulations.Store(0)
	m.fullPlayouts.Store(0)
}

func (m *collector) AddSimulation() {
	m.simulations.Add(1)
}

func (m *collector) AddFullPlayout() {
	m.fullPlayouts.Add(1)
}

func (m *collector) Complete() SearchMetric {
	return SearchMetric{
		Goroutines:   m.goroutines,
		MaxDepth:     m.maxDepth,
		Duration:     time.Since(m.startTime),
		Simulations:  int(m.simulations.Load()),
		FullPlayouts: int(m.fullPlayouts.Load()),
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(goroutines, maxDepth int) {}
func (m *dummyCollector) AddSimulation()                 {}
func (m *dummyCollector) AddFullPlayout()                {}
func (m *dummyCollector) Complete() SearchMetric         { return SearchMetric{} }
