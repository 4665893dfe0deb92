package metrics

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type AgentRecord struct {
	Name        string
	Kind        string
	Simulations int
	MaxDepth    int
	Goroutines  int
	Async       bool
}

type GameRecord struct {
	Game    int
	Player1 string // AgentRecord.Name
	Player2 string // AgentRecord.Name
	GameMetric
}

type MoveRecord struct {
	Game int // GameRecord.Game
	MoveMetric
}

type Writer struct {
	baseDir string
}

// NewWriter creates root/name/<timestamp> and writes experiment files into it.
func NewWriter(root, name string) (*Writer, error) {
	timestamp := time.Now().UTC().Format("20060102T150405Z")
	baseDir := filepath.Join(root, name, timestamp)
	err := os.MkdirAll(baseDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{
		baseDir: baseDir,
	}, nil
}

func (w *Writer) Dir() string {
	return w.baseDir
}

func (w *Writer) WriteAgentRecords(records []AgentRecord) error {
	header := []string{"name", "kind", "simulations", "max_depth", "goroutines", "async"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			record.Name,
			record.Kind,
			strconv.Itoa(record.Simulations),
			strconv.Itoa(record.MaxDepth),
			strconv.Itoa(record.Goroutines),
			strconv.FormatBool(record.Async),
		})
	}
	return w.write("agents.csv", header, rows)
}

func (w *Writer) WriteGameRecords(records []GameRecord) error {
	header := []string{"game", "id", "player1", "player2", "starting_player", "winner", "start_time", "end_time", "duration", "total_moves", "error"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.Game),
			record.ID,
			record.Player1,
			record.Player2,
			strconv.Itoa(record.StartingPlayer),
			strconv.Itoa(record.Winner),
			record.StartTime.Format(time.RFC3339),
			record.EndTime.Format(time.RFC3339),
			record.Duration.String(),
			strconv.Itoa(record.TotalMoves),
			record.Err,
		})
	}
	return w.write("game_records.csv", header, rows)
}

func (w *Writer) WriteMoveRecords(records []MoveRecord) error {
	header := []string{"game", "step", "player", "agent", "action", "duration", "simulations", "full_playouts", "search_duration"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.Game),
			strconv.Itoa(record.Step),
			strconv.Itoa(record.Player),
			record.Agent,
			record.Action,
			record.MoveMetric.Duration.String(),
			strconv.Itoa(record.Simulations),
			strconv.Itoa(record.FullPlayouts),
			record.SearchMetric.Duration.String(),
		})
	}
	return w.write("move_records.csv", header, rows)
}

func (w *Writer) write(filename string, header []string, rows [][]string) error {
	f, err := os.Create(filepath.Join(w.baseDir, filename))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	if err := writeCSV(f, header, rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}

// writeCSV writes header and rows into wc and closes it. A failed close is an error.
func writeCSV(wc io.WriteCloser, header []string, rows [][]string) error {
	writer := csv.NewWriter(wc)
	if err := writer.Write(header); err != nil {
		wc.Close()
		return fmt.Errorf("header: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		wc.Close()
		return fmt.Errorf("rows: %w", err)
	}
	return wc.Close()
}
