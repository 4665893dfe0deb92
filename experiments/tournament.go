package experiments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gamesearch/engine"
	"gamesearch/experiments/metrics"
	"gamesearch/game"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

var ErrRosterTooSmall = errors.New("a tournament needs at least two agents")

// Entry is a named agent taking part in a tournament.
type Entry struct {
	Name        string
	Participant engine.Participant
}

// NewGame returns the initial state of a match. Seed varies per match.
type NewGame func(seed uint64) (game.State, error)

type Tournament struct {
	roster   []Entry
	newGame  NewGame
	seed     uint64
	engine   []engine.Option
	counters *counters
}

type Option func(t *Tournament)

// WithSeed fixes pairings and per-match game seeds.
func WithSeed(seed uint64) Option {
	return func(t *Tournament) {
		t.seed = seed
	}
}

func WithEngineOptions(options ...engine.Option) Option {
	return func(t *Tournament) {
		t.engine = append(t.engine, options...)
	}
}

// WithRegistry registers the tournament counters on reg.
func WithRegistry(reg prometheus.Registerer) Option {
	return func(t *Tournament) {
		if reg != nil {
			t.counters = newCounters(reg)
		}
	}
}

func NewTournament(roster []Entry, newGame NewGame, options ...Option) (*Tournament, error) {
	if len(roster) < 2 {
		return nil, ErrRosterTooSmall
	}
	names := map[string]bool{}
	for _, entry := range roster {
		if names[entry.Name] {
			return nil, fmt.Errorf("duplicate agent name %q", entry.Name)
		}
		names[entry.Name] = true
	}

	t := &Tournament{
		roster:   roster,
		newGame:  newGame,
		seed:     uint64(time.Now().UnixNano()),
		counters: newCounters(nil),
	}
	for _, option := range options {
		option(t)
	}
	return t, nil
}

type Standings struct {
	Matches int
	Wins    map[string]int
	Draws   int
	Failed  int
	Elapsed time.Duration
	Games   []metrics.GameRecord
	Moves   []metrics.MoveRecord
}

// AveragePerMatch is the mean wall-clock time of the matches played.
func (s Standings) AveragePerMatch() time.Duration {
	if s.Matches == 0 {
		return 0
	}
	return s.Elapsed / time.Duration(s.Matches)
}

// Export writes the game and move records into w.
func (s Standings) Export(w *metrics.Writer) error {
	if err := w.WriteGameRecords(s.Games); err != nil {
		return err
	}
	return w.WriteMoveRecords(s.Moves)
}

// Run plays size matches between randomly paired agents. A failed match is
// counted and logged and the tournament goes on. Only cancelling ctx stops it early.
func (t *Tournament) Run(ctx context.Context, size int) (Standings, error) {
	rng := rand.New(rand.NewSource(t.seed))
	standings := Standings{Wins: map[string]int{}}
	for _, entry := range t.roster {
		standings.Wins[entry.Name] = 0
	}
	every := max(size/10, 1)

	log.Info().Msgf("starting tournament of %d matches between %d agents...", size, len(t.roster))
	start := time.Now()
	for i := 1; i <= size; i++ {
		if err := ctx.Err(); err != nil {
			standings.Elapsed = time.Since(start)
			return standings, err
		}

		one, two := t.pair(rng)
		t.play(ctx, i, one, two, rng.Uint64(), &standings)
		standings.Matches++

		if i%every == 0 {
			log.Info().Msgf("after %d of %d matches: wins=%v draws=%d failed=%d", i, size, standings.Wins, standings.Draws, standings.Failed)
		}
	}
	standings.Elapsed = time.Since(start)

	log.Info().
		Dur("elapsed", standings.Elapsed).
		Dur("per_match", standings.AveragePerMatch()).
		Msgf("completed tournament: wins=%v draws=%d failed=%d", standings.Wins, standings.Draws, standings.Failed)
	return standings, nil
}

// pair draws two different agents; the first plays as player one.
func (t *Tournament) pair(rng *rand.Rand) (Entry, Entry) {
	i := rng.Intn(len(t.roster))
	j := rng.Intn(len(t.roster) - 1)
	if j >= i {
		j++
	}
	return t.roster[i], t.roster[j]
}

func (t *Tournament) play(ctx context.Context, match int, one, two Entry, seed uint64, standings *Standings) {
	id := uuid.NewString()
	record := metrics.GameRecord{Game: match, Player1: one.Name, Player2: two.Name}
	fail := func(err error) {
		log.Error().Err(err).Str("match", id).Msgf("match %d between %s and %s failed", match, one.Name, two.Name)
		standings.Failed++
		t.counters.failed.Inc()
	}

	initial, err := t.newGame(seed)
	if err != nil {
		record.GameMetric = metrics.GameMetric{ID: id, Err: err.Error()}
		standings.Games = append(standings.Games, record)
		fail(err)
		return
	}
	options := append([]engine.Option{engine.WithID(id)}, t.engine...)
	e, err := engine.New(initial, map[game.Player]engine.Participant{
		game.PlayerOne: one.Participant,
		game.PlayerTwo: two.Participant,
	}, options...)
	if err != nil {
		record.GameMetric = metrics.GameMetric{ID: id, Err: err.Error()}
		standings.Games = append(standings.Games, record)
		fail(err)
		return
	}

	result, err := e.Run(ctx)
	record.GameMetric = result.Game
	standings.Games = append(standings.Games, record)
	for _, move := range result.Moves {
		standings.Moves = append(standings.Moves, metrics.MoveRecord{Game: match, MoveMetric: move})
	}
	if err != nil {
		fail(err)
		return
	}

	t.counters.duration.Observe(result.Game.Duration.Seconds())
	switch result.Winner {
	case game.PlayerOne:
		standings.Wins[one.Name]++
		t.counters.matches.WithLabelValues("win").Inc()
		t.counters.wins.WithLabelValues(one.Name).Inc()
	case game.PlayerTwo:
		standings.Wins[two.Name]++
		t.counters.matches.WithLabelValues("win").Inc()
		t.counters.wins.WithLabelValues(two.Name).Inc()
	default:
		standings.Draws++
		t.counters.matches.WithLabelValues("draw").Inc()
	}
}
