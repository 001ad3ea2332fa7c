package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/lox/powergrid/internal/simulator"
)

// SimulateCmd runs the bulk random-play checker.
type SimulateCmd struct {
	Games     int           `short:"n" help:"Number of games (default from config)"`
	Players   int           `short:"p" help:"Players per game (default from config)"`
	Workers   int           `short:"w" help:"Games played in parallel (default from config)"`
	MaxRounds int           `default:"5" help:"Rounds per game"`
	Strategy  string        `default:"random" enum:"random,first,passive" help:"How simulated players choose moves"`
	Seed      int64         `default:"0" help:"Move-choice RNG seed"`
	Prefix    string        `help:"Game seed prefix (default from config)"`
	Timeout   time.Duration `help:"Abort the run after this long (0 = no limit)"`
}

func (c *SimulateCmd) Run(g *Globals) error {
	cfg, logger, err := g.load()
	if err != nil {
		return err
	}

	sc := simulator.Config{
		Games:      firstNonZero(c.Games, cfg.Simulation.Games),
		Players:    firstNonZero(c.Players, cfg.Game.Players),
		Workers:    firstNonZero(c.Workers, cfg.Simulation.Workers),
		SeedPrefix: cfg.Simulation.Prefix,
		MaxRounds:  c.MaxRounds,
		Strategy:   c.Strategy,
		Seed:       c.Seed,
		Timeout:    c.Timeout,
		Options:    cfg.GameOptions(),
		Logger:     logger.WithPrefix("simulate"),
	}
	if c.Prefix != "" {
		sc.SeedPrefix = c.Prefix
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("Starting simulation", "games", sc.Games, "players", sc.Players, "workers", sc.Workers, "strategy", sc.Strategy)
	start := time.Now()
	results, err := simulator.RunSimulation(ctx, sc)
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}
	logger.Info("Simulation complete", "duration", time.Since(start).Round(time.Millisecond))

	simulator.PrintSummary(os.Stdout, results)
	return nil
}

func firstNonZero(vals ...int) int {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}
