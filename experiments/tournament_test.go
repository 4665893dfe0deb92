package experiments

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gamesearch/engine"
	"gamesearch/experiments/metrics"
	"gamesearch/game"
	"gamesearch/game/connect4"
	"gamesearch/searcher/agent"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type stallingAgent struct{}

func (stallingAgent) PickAction(ctx context.Context, _ game.Player, _ game.State) (game.ActionScore, error) {
	<-ctx.Done()
	return game.ActionScore{}, ctx.Err()
}

func (stallingAgent) String() string { return "Stalling" }

func newConnect4(uint64) (game.State, error) {
	return connect4.NewState(), nil
}

func randomRoster(names ...string) []Entry {
	roster := make([]Entry, len(names))
	for i, name := range names {
		roster[i] = Entry{Name: name, Participant: agent.NewRandomAgent(uint64(i + 1))}
	}
	return roster
}

func TestNewTournament(t *testing.T) {
	_, err := NewTournament(randomRoster("solo"), newConnect4)
	require.ErrorIs(t, err, ErrRosterTooSmall)

	_, err = NewTournament(randomRoster("a", "a"), newConnect4)
	require.ErrorContains(t, err, "duplicate")
}

func TestTournamentRun(t *testing.T) {
	ctx := context.Background()

	t.Run("every match is counted once", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		tour, err := NewTournament(randomRoster("a", "b", "c"), newConnect4, WithSeed(1), WithRegistry(reg))
		require.NoError(t, err)

		s, err := tour.Run(ctx, 30)

		require.NoError(t, err)
		require.Equal(t, 30, s.Matches)
		wins := 0
		for _, w := range s.Wins {
			wins += w
		}
		require.Equal(t, 30, wins+s.Draws+s.Failed)
		require.Zero(t, s.Failed)
		require.Len(t, s.Games, 30)
		require.True(t, s.Elapsed > 0)
		require.Equal(t, s.Elapsed/30, s.AveragePerMatch())

		require.Equal(t, float64(wins), testutil.ToFloat64(tour.counters.matches.WithLabelValues("win")))
		require.Equal(t, float64(s.Draws), testutil.ToFloat64(tour.counters.matches.WithLabelValues("draw")))
		require.Equal(t, float64(s.Wins["a"]), testutil.ToFloat64(tour.counters.wins.WithLabelValues("a")))
		require.Zero(t, testutil.ToFloat64(tour.counters.failed))
		require.Equal(t, 1, testutil.CollectAndCount(tour.counters.duration))
	})

	t.Run("agents never play themselves", func(t *testing.T) {
		tour, err := NewTournament(randomRoster("a", "b", "c", "d"), newConnect4, WithSeed(2))
		require.NoError(t, err)

		s, err := tour.Run(ctx, 40)

		require.NoError(t, err)
		ids := map[string]bool{}
		seen := map[string]bool{}
		for _, g := range s.Games {
			require.NotEqual(t, g.Player1, g.Player2)
			require.NotEmpty(t, g.ID)
			require.False(t, ids[g.ID], "Match identifiers should be unique")
			ids[g.ID] = true
			seen[g.Player1] = true
			seen[g.Player2] = true
		}
		require.Len(t, seen, 4, "Every agent should get to play")
	})

	t.Run("same seed, same pairings", func(t *testing.T) {
		pairings := func() [][2]string {
			tour, err := NewTournament(randomRoster("a", "b", "c"), newConnect4, WithSeed(3))
			require.NoError(t, err)
			s, err := tour.Run(ctx, 10)
			require.NoError(t, err)
			var out [][2]string
			for _, g := range s.Games {
				out = append(out, [2]string{g.Player1, g.Player2})
			}
			return out
		}
		require.Equal(t, pairings(), pairings())
	})

	t.Run("failed matches do not stop the tournament", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		roster := []Entry{
			{Name: "staller", Participant: agent.NewAsync(stallingAgent{})},
			{Name: "random", Participant: agent.NewRandomAgent(1)},
		}
		tour, err := NewTournament(roster, newConnect4, WithSeed(4), WithRegistry(reg),
			WithEngineOptions(engine.WithBudget(time.Millisecond)))
		require.NoError(t, err)

		s, err := tour.Run(ctx, 6)

		require.NoError(t, err)
		require.Equal(t, 6, s.Matches)
		require.Equal(t, 6, s.Failed, "The staller times out on every match")
		require.Equal(t, 6.0, testutil.ToFloat64(tour.counters.failed))
		for _, g := range s.Games {
			require.Contains(t, g.Err, engine.ErrSearchTimeout.Error())
		}
	})

	t.Run("game setup failures are counted", func(t *testing.T) {
		broken := func(uint64) (game.State, error) { return nil, errors.New("no board") }
		tour, err := NewTournament(randomRoster("a", "b"), broken, WithSeed(5))
		require.NoError(t, err)

		s, err := tour.Run(ctx, 3)

		require.NoError(t, err)
		require.Equal(t, 3, s.Failed)
		require.Equal(t, "no board", s.Games[0].Err)
	})

	t.Run("cancellation stops early", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		tour, err := NewTournament(randomRoster("a", "b"), newConnect4)
		require.NoError(t, err)

		s, err := tour.Run(cancelled, 5)

		require.ErrorIs(t, err, context.Canceled)
		require.Zero(t, s.Matches)
	})

	t.Run("empty tournament", func(t *testing.T) {
		tour, err := NewTournament(randomRoster("a", "b"), newConnect4)
		require.NoError(t, err)

		s, err := tour.Run(ctx, 0)

		require.NoError(t, err)
		require.Zero(t, s.AveragePerMatch())
	})
}

func TestStandingsExport(t *testing.T) {
	tour, err := NewTournament(randomRoster("a", "b"), newConnect4, WithSeed(6))
	require.NoError(t, err)
	s, err := tour.Run(context.Background(), 2)
	require.NoError(t, err)
	w, err := metrics.NewWriter(t.TempDir(), "tournament")
	require.NoError(t, err)

	require.NoError(t, s.Export(w))

	read := func(name string) [][]string {
		f, err := os.Open(filepath.Join(w.Dir(), name))
		require.NoError(t, err)
		defer f.Close()
		rows, err := csv.NewReader(f).ReadAll()
		require.NoError(t, err)
		return rows
	}
	require.Len(t, read("game_records.csv"), 3)
	require.Len(t, read("move_records.csv"), len(s.Moves)+1)
}
