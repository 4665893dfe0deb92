package main

import (
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"gamesearch/engine"
	"gamesearch/experiments"
	"gamesearch/experiments/metrics"
	"gamesearch/game"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	budget  time.Duration
	size    int
	seed    uint64
	output  string

	matchCmd = &cobra.Command{
		Use:   "match [agent...]",
		Short: "Play one match, one configured agent per seat",
		Long: `Play one match of the configured game. Agents are named in seat order;
without arguments the first configured agents take the seats.`,
		RunE: runMatch,
	}

	tournamentCmd = &cobra.Command{
		Use:   "tournament",
		Short: "Play randomly paired matches between all configured agents",
		RunE:  runTournament,
	}
)

func init() {
	matchCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log the board and chosen action every turn")
	matchCmd.Flags().DurationVar(&budget, "budget", 0, "Per-turn search budget of async agents (overrides config)")

	tournamentCmd.Flags().IntVarP(&size, "size", "n", 0, "Number of matches (overrides config)")
	tournamentCmd.Flags().Uint64Var(&seed, "seed", 0, "Pairing seed (overrides config)")
	tournamentCmd.Flags().StringVarP(&output, "output", "o", "", "Directory for CSV and metrics export (overrides config)")
	tournamentCmd.Flags().DurationVar(&budget, "budget", 0, "Per-turn search budget of async agents (overrides config)")

	rootCmd.AddCommand(matchCmd, tournamentCmd)
}

func engineOptions(verbose bool) []engine.Option {
	options := []engine.Option{
		engine.WithBudget(cfg.Match.Budget),
		engine.WithMaxTurns(cfg.Match.MaxTurns),
	}
	if budget > 0 {
		options = append(options, engine.WithBudget(budget))
	}
	if verbose || cfg.Match.Verbose {
		options = append(options, engine.WithVerbose())
	}
	return options
}

func runMatch(cmd *cobra.Command, args []string) error {
	names := args
	if len(names) == 0 {
		for _, a := range cfg.Agents[:min(cfg.Game.Players, len(cfg.Agents))] {
			names = append(names, a.Name)
		}
	}
	if len(names) != cfg.Game.Players {
		return fmt.Errorf("%s needs %d agents, got %d", cfg.Game.Name, cfg.Game.Players, len(names))
	}

	participants := map[game.Player]engine.Participant{}
	for i, name := range names {
		a, err := cfg.Find(name)
		if err != nil {
			return err
		}
		p, err := a.Participant()
		if err != nil {
			return err
		}
		participants[game.Player(i+1)] = p
	}

	initial, err := cfg.Game.NewState(cfg.Game.Seed)
	if err != nil {
		return err
	}
	e, err := engine.New(initial, participants, engineOptions(verbose)...)
	if err != nil {
		return err
	}
	result, err := e.Run(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.Final)
	if result.Winner == game.NoPlayer {
		fmt.Fprintf(cmd.OutOrStdout(), "draw after %d turns\n", result.Turns)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "player %d (%s) wins after %d turns\n", result.Winner, names[result.Winner-1], result.Turns)
	}
	return nil
}

func runTournament(cmd *cobra.Command, args []string) error {
	if cfg.Game.Players != 2 {
		return fmt.Errorf("tournaments pair two agents, %s is configured for %d players", cfg.Game.Name, cfg.Game.Players)
	}
	if size > 0 {
		cfg.Tournament.Size = size
	}
	if cmd.Flags().Changed("seed") {
		cfg.Tournament.Seed = seed
	}
	if output != "" {
		cfg.Tournament.Output = output
	}

	roster := make([]experiments.Entry, 0, len(cfg.Agents))
	records := make([]metrics.AgentRecord, 0, len(cfg.Agents))
	for _, a := range cfg.Agents {
		p, err := a.Participant()
		if err != nil {
			return err
		}
		roster = append(roster, experiments.Entry{Name: a.Name, Participant: p})
		records = append(records, a.Record())
	}

	reg := prometheus.NewRegistry()
	options := []experiments.Option{
		experiments.WithRegistry(reg),
		experiments.WithEngineOptions(engineOptions(false)...),
	}
	if cfg.Tournament.Seed != 0 {
		options = append(options, experiments.WithSeed(cfg.Tournament.Seed))
	}
	tournament, err := experiments.NewTournament(roster, cfg.Game.NewState, options...)
	if err != nil {
		return err
	}

	standings, err := tournament.Run(cmd.Context(), cfg.Tournament.Size)
	if err != nil {
		return err
	}
	printStandings(cmd, standings)

	if cfg.Tournament.Output == "" {
		return nil
	}
	writer, err := metrics.NewWriter(cfg.Tournament.Output, "tournament")
	if err != nil {
		return err
	}
	if err := writer.WriteAgentRecords(records); err != nil {
		return err
	}
	if err := standings.Export(writer); err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(filepath.Join(writer.Dir(), "metrics.prom"), reg); err != nil {
		return err
	}
	log.Info().Msgf("stored tournament records in %s", writer.Dir())
	return nil
}

func printStandings(cmd *cobra.Command, s experiments.Standings) {
	names := make([]string, 0, len(s.Wins))
	for name := range s.Wins {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		if s.Wins[a] != s.Wins[b] {
			return s.Wins[b] - s.Wins[a]
		}
		if a < b {
			return -1
		}
		return 1
	})

	out := cmd.OutOrStdout()
	for _, name := range names {
		fmt.Fprintf(out, "%-20s %d\n", name, s.Wins[name])
	}
	fmt.Fprintf(out, "%-20s %d\n", "draws", s.Draws)
	fmt.Fprintf(out, "%-20s %d\n", "failed", s.Failed)
	fmt.Fprintf(out, "%d matches in %v (%v per match)\n", s.Matches, s.Elapsed, s.AveragePerMatch())
}
