// Package config loads the HCL configuration shared by the CLI and the
// simulator.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/lox/powergrid/internal/game"
)

const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Config is the complete configuration.
type Config struct {
	Game       GameSettings
	Storage    StorageSettings
	Log        LogSettings
	Simulation SimulationSettings
}

// GameSettings are the rule options for new games.
type GameSettings struct {
	Players       int    `hcl:"players,optional"`
	Seed          string `hcl:"seed,optional"`
	MaxRounds     int    `hcl:"max_rounds,optional"`
	StarvedPolicy string `hcl:"starved_policy,optional"`
	TurnOrder     string `hcl:"turn_order,optional"`
}

// StorageSettings select where games are saved.
type StorageSettings struct {
	Dir    string `hcl:"dir,optional"`
	Driver string `hcl:"driver,optional"`
}

type LogSettings struct {
	Level string `hcl:"level,optional"`
}

// SimulationSettings drive the bulk random-play runner.
type SimulationSettings struct {
	Games   int    `hcl:"games,optional"`
	Workers int    `hcl:"workers,optional"`
	Prefix  string `hcl:"seed_prefix,optional"`
}

// fileConfig mirrors Config with every block optional.
type fileConfig struct {
	Game       *GameSettings       `hcl:"game,block"`
	Storage    *StorageSettings    `hcl:"storage,block"`
	Log        *LogSettings        `hcl:"log,block"`
	Simulation *SimulationSettings `hcl:"simulation,block"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Game: GameSettings{
			Players:       3,
			MaxRounds:     0,
			StarvedPolicy: string(game.StarvedAllowPass),
			TurnOrder:     string(game.TurnOrderKeep),
		},
		Storage: StorageSettings{
			Dir:    ".powergrid",
			Driver: DriverFile,
		},
		Log: LogSettings{
			Level: "info",
		},
		Simulation: SimulationSettings{
			Games:   100,
			Workers: 4,
			Prefix:  "sim",
		},
	}
}

// Load reads an HCL configuration file. A missing file yields the defaults.
func Load(filename string) (*Config, error) {
	src, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(src, filename)
}

// Parse decodes HCL source and fills in defaults for anything left unset.
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var fc fileConfig
	diags = gohcl.DecodeBody(file.Body, nil, &fc)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg := Default()
	if fc.Game != nil {
		cfg.Game = *fc.Game
	}
	if fc.Storage != nil {
		cfg.Storage = *fc.Storage
	}
	if fc.Log != nil {
		cfg.Log = *fc.Log
	}
	if fc.Simulation != nil {
		cfg.Simulation = *fc.Simulation
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.Game.Players == 0 {
		c.Game.Players = d.Game.Players
	}
	if c.Game.StarvedPolicy == "" {
		c.Game.StarvedPolicy = d.Game.StarvedPolicy
	}
	if c.Game.TurnOrder == "" {
		c.Game.TurnOrder = d.Game.TurnOrder
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = d.Storage.Dir
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = d.Storage.Driver
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Simulation.Games == 0 {
		c.Simulation.Games = d.Simulation.Games
	}
	if c.Simulation.Workers == 0 {
		c.Simulation.Workers = d.Simulation.Workers
	}
	if c.Simulation.Prefix == "" {
		c.Simulation.Prefix = d.Simulation.Prefix
	}
}

// Validate checks the configuration for values the engine would reject.
func (c *Config) Validate() error {
	if c.Game.Players < 2 || c.Game.Players > len(game.Colors) {
		return fmt.Errorf("game: players must be between 2 and %d, got %d", len(game.Colors), c.Game.Players)
	}
	if c.Game.MaxRounds < 0 {
		return fmt.Errorf("game: max_rounds must not be negative")
	}
	switch game.StarvedAuctionPolicy(c.Game.StarvedPolicy) {
	case game.StarvedAllowPass, game.StarvedStrict:
	default:
		return fmt.Errorf("game: invalid starved_policy %q", c.Game.StarvedPolicy)
	}
	switch game.TurnOrderRule(c.Game.TurnOrder) {
	case game.TurnOrderKeep, game.TurnOrderByScore:
	default:
		return fmt.Errorf("game: invalid turn_order %q", c.Game.TurnOrder)
	}

	if c.Storage.Driver != DriverFile && c.Storage.Driver != DriverSQLite {
		return fmt.Errorf("storage: invalid driver %q", c.Storage.Driver)
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log: %w", err)
	}

	if c.Simulation.Games < 1 {
		return fmt.Errorf("simulation: games must be positive")
	}
	if c.Simulation.Workers < 1 {
		return fmt.Errorf("simulation: workers must be positive")
	}
	return nil
}

// LogLevel returns the configured log level, falling back to info.
func (c *Config) LogLevel() log.Level {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// GameOptions converts the game settings into engine options.
func (c *Config) GameOptions() []game.Option {
	return []game.Option{
		game.WithMaxRounds(c.Game.MaxRounds),
		game.WithStarvedAuctionPolicy(game.StarvedAuctionPolicy(c.Game.StarvedPolicy)),
		game.WithTurnOrderRule(game.TurnOrderRule(c.Game.TurnOrder)),
	}
}
