package metrics

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCollector(t *testing.T) {
	t.Run("counting from concurrent workers", func(t *testing.T) {
		c := NewCollector()
		c.Start(4, 20)

		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					c.AddSimulation()
					if j%2 == 0 {
						c.AddFullPlayout()
					}
				}
			}()
		}
		wg.Wait()

		got := c.Complete()
		require.Equal(t, 400, got.Simulations)
		require.Equal(t, 200, got.FullPlayouts)
		require.Equal(t, 4, got.Goroutines)
		require.Equal(t, 20, got.MaxDepth)
	})

	t.Run("restarting resets counters", func(t *testing.T) {
		c := NewCollector()
		c.Start(1, 1)
		c.AddSimulation()
		c.Start(1, 1)

		require.Zero(t, c.Complete().Simulations)
	})

	t.Run("dummy collector records nothing", func(t *testing.T) {
		c := NewDummyCollector()
		c.Start(8, 10)
		c.AddSimulation()
		c.AddFullPlayout()

		require.Equal(t, SearchMetric{}, c.Complete())
	})
}

func TestWriter(t *testing.T) {
	w, err := NewWriter(t.TempDir(), "tournament")
	require.NoError(t, err)

	t.Run("agent records", func(t *testing.T) {
		err := w.WriteAgentRecords([]AgentRecord{{Name: "mc", Kind: "montecarlo", Simulations: 100, MaxDepth: 50, Goroutines: 2, Async: true}})
		require.NoError(t, err)

		rows := readCSV(t, filepath.Join(w.Dir(), "agents.csv"))
		require.Equal(t, [][]string{
			{"name", "kind", "simulations", "max_depth", "goroutines", "async"},
			{"mc", "montecarlo", "100", "50", "2", "true"},
		}, rows)
	})

	t.Run("game records", func(t *testing.T) {
		start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		err := w.WriteGameRecords([]GameRecord{{
			Game:    1,
			Player1: "mc",
			Player2: "random",
			GameMetric: GameMetric{
				ID:             "abc",
				StartingPlayer: 1,
				Winner:         2,
				StartTime:      start,
				EndTime:        start.Add(time.Second),
				Duration:       time.Second,
				TotalMoves:     12,
			},
		}})
		require.NoError(t, err)

		rows := readCSV(t, filepath.Join(w.Dir(), "game_records.csv"))
		require.Len(t, rows, 2)
		require.Equal(t, []string{"1", "abc", "mc", "random", "1", "2", "2024-01-02T03:04:05Z", "2024-01-02T03:04:06Z", "1s", "12", ""}, rows[1])
	})

	t.Run("move records", func(t *testing.T) {
		err := w.WriteMoveRecords([]MoveRecord{{
			Game: 1,
			MoveMetric: MoveMetric{
				Step:         1,
				Player:       1,
				Agent:        "mc",
				Action:       "column 3",
				Duration:     2 * time.Millisecond,
				SearchMetric: SearchMetric{Simulations: 10, FullPlayouts: 4, Duration: time.Millisecond},
			},
		}})
		require.NoError(t, err)

		rows := readCSV(t, filepath.Join(w.Dir(), "move_records.csv"))
		require.Len(t, rows, 2)
		require.Equal(t, []string{"1", "1", "1", "mc", "column 3", "2ms", "10", "4", "1ms"}, rows[1])
	})
}

// closeFailure accepts every write and fails on close, like a file whose
// buffered data cannot be flushed.
type closeFailure struct {
	bytes.Buffer
	closed bool
}

func (c *closeFailure) Close() error {
	c.closed = true
	return errors.New("disk full")
}

type writeFailure struct {
	closed bool
}

func (w *writeFailure) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func (w *writeFailure) Close() error {
	w.closed = true
	return nil
}

func TestWriteCSV(t *testing.T) {
	t.Run("close errors are reported", func(t *testing.T) {
		wc := &closeFailure{}

		err := writeCSV(wc, []string{"a"}, [][]string{{"1"}})

		require.ErrorContains(t, err, "disk full")
		require.True(t, wc.closed)
		require.Equal(t, "a\n1\n", wc.String(), "Rows should be flushed before closing")
	})

	t.Run("write errors close the file", func(t *testing.T) {
		wc := &writeFailure{}

		err := writeCSV(wc, []string{"a"}, [][]string{{"1"}})

		require.ErrorContains(t, err, "broken pipe")
		require.True(t, wc.closed)
	})
}
