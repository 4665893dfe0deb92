package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	Connect4  = "connect4"
	Ingenious = "ingenious"

	MonteCarlo = "montecarlo"
	UCT        = "uct"
	Random     = "random"
)

// Config holds everything needed to run matches and tournaments.
type Config struct {
	LogLevel   string           `json:"log_level" yaml:"log_level"`
	Game       GameConfig       `json:"game" yaml:"game"`
	Match      MatchConfig      `json:"match" yaml:"match"`
	Tournament TournamentConfig `json:"tournament" yaml:"tournament"`
	Agents     []AgentConfig    `json:"agents" yaml:"agents"`
}

type GameConfig struct {
	Name    string `json:"name" yaml:"name"`
	Players int    `json:"players" yaml:"players"`
	Seed    uint64 `json:"seed" yaml:"seed"`
}

type MatchConfig struct {
	Budget   time.Duration `json:"budget" yaml:"budget"` // Per turn, async agents only
	MaxTurns int           `json:"max_turns" yaml:"max_turns"`
	Verbose  bool          `json:"verbose" yaml:"verbose"`
}

type TournamentConfig struct {
	Size   int    `json:"size" yaml:"size"`
	Seed   uint64 `json:"seed" yaml:"seed"`
	Output string `json:"output" yaml:"output"` // CSV root directory, empty to skip the export
}

type AgentConfig struct {
	Name        string  `json:"name" yaml:"name"`
	Kind        string  `json:"kind" yaml:"kind"`
	Simulations int     `json:"simulations" yaml:"simulations"`
	MaxDepth    *int    `json:"max_depth,omitempty" yaml:"max_depth,omitempty"` // Unset keeps the searcher default
	Goroutines  int     `json:"goroutines" yaml:"goroutines"`
	Exploration float64 `json:"exploration" yaml:"exploration"`
	MeanReward  bool    `json:"mean_reward" yaml:"mean_reward"`
	Async       bool    `json:"async" yaml:"async"`
	Seed        *uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`
}

func Default() Config {
	return Config{
		LogLevel: "info",
		Game: GameConfig{
			Name:    Connect4,
			Players: 2,
		},
		Match: MatchConfig{
			Budget:   time.Second,
			MaxTurns: 10000,
		},
		Tournament: TournamentConfig{
			Size: 100,
		},
		Agents: []AgentConfig{
			{Name: "montecarlo", Kind: MonteCarlo, Simulations: 1000, Goroutines: 1},
			{Name: "uct", Kind: UCT, Simulations: 1000, Goroutines: 1},
			{Name: "random", Kind: Random},
		},
	}
}

// Load reads configuration with priority: env > file > defaults.
// A missing file is not an error.
func Load(path string) (Config, error) {
	config := Default()

	if path != "" {
		if err := loadFile(path, &config); err != nil {
			return config, fmt.Errorf("load config file: %w", err)
		}
	}

	loadEnv(&config)

	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

func loadFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, config); err != nil {
		if jsonErr := json.Unmarshal(data, config); jsonErr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): YAML error: %v, JSON error: %w", err, jsonErr)
		}
	}
	return nil
}

func loadEnv(config *Config) {
	if v := os.Getenv("GAMESEARCH_LOG_LEVEL"); v != "" {
		config.LogLevel = v
	}
	if v := os.Getenv("GAMESEARCH_GAME"); v != "" {
		config.Game.Name = v
	}
	if v := os.Getenv("GAMESEARCH_PLAYERS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			config.Game.Players = i
		}
	}
	if v := os.Getenv("GAMESEARCH_SEED"); v != "" {
		if u, err := strconv.ParseUint(v, 10, 64); err == nil {
			config.Game.Seed = u
			config.Tournament.Seed = u
		}
	}
	if v := os.Getenv("GAMESEARCH_BUDGET"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Match.Budget = d
		}
	}
	if v := os.Getenv("GAMESEARCH_MAX_TURNS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			config.Match.MaxTurns = i
		}
	}
	if v := os.Getenv("GAMESEARCH_VERBOSE"); v != "" {
		config.Match.Verbose = v == "true" || v == "1"
	}
	if v := os.Getenv("GAMESEARCH_TOURNAMENT_SIZE"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			config.Tournament.Size = i
		}
	}
	if v := os.Getenv("GAMESEARCH_OUTPUT"); v != "" {
		config.Tournament.Output = v
	}
}

func (c Config) Validate() error {
	switch c.Game.Name {
	case Connect4:
		if c.Game.Players != 2 {
			return fmt.Errorf("%s is played by 2 players, got %d", Connect4, c.Game.Players)
		}
	case Ingenious:
		if c.Game.Players < 2 || c.Game.Players > 4 {
			return fmt.Errorf("%s is played by 2 to 4 players, got %d", Ingenious, c.Game.Players)
		}
	default:
		return fmt.Errorf("unknown game %q", c.Game.Name)
	}
	if c.Match.Budget <= 0 {
		return fmt.Errorf("budget must be > 0")
	}
	if c.Match.MaxTurns < 1 {
		return fmt.Errorf("max_turns must be >= 1")
	}
	if c.Tournament.Size < 0 {
		return fmt.Errorf("tournament size must be >= 0")
	}
	if len(c.Agents) < 2 {
		return fmt.Errorf("need at least 2 agents, got %d", len(c.Agents))
	}
	names := map[string]bool{}
	for i, a := range c.Agents {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("agent %d: %w", i, err)
		}
		if names[a.Name] {
			return fmt.Errorf("duplicate agent name %q", a.Name)
		}
		names[a.Name] = true
	}
	return nil
}

func (a AgentConfig) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("name is required")
	}
	switch a.Kind {
	case Random:
		return nil
	case MonteCarlo, UCT:
	default:
		return fmt.Errorf("%s: unknown kind %q", a.Name, a.Kind)
	}
	if a.Simulations < 1 {
		return fmt.Errorf("%s: simulations must be >= 1", a.Name)
	}
	if a.MaxDepth != nil && *a.MaxDepth < 0 {
		return fmt.Errorf("%s: max_depth must be >= 0", a.Name)
	}
	if a.Goroutines < 0 {
		return fmt.Errorf("%s: goroutines must be >= 0", a.Name)
	}
	if a.Exploration < 0 {
		return fmt.Errorf("%s: exploration must be >= 0", a.Name)
	}
	return nil
}

// Find returns the agent called name.
func (c Config) Find(name string) (AgentConfig, error) {
	for _, a := range c.Agents {
		if a.Name == name {
			return a, nil
		}
	}
	return AgentConfig{}, fmt.Errorf("no agent named %q", name)
}
