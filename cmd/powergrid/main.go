package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/powergrid/internal/config"
	"github.com/lox/powergrid/internal/game"
	"github.com/lox/powergrid/internal/store"
)

// version is set by ldflags during build
var version = "dev"

// Globals are flags shared by every command.
type Globals struct {
	Config string `short:"c" default:"powergrid.hcl" help:"Path to HCL config file"`
	Debug  bool   `help:"Enable debug logging"`
}

type CLI struct {
	Globals

	Version  kong.VersionFlag `short:"v" help:"Show version"`
	New      NewCmd           `cmd:"" help:"Start a new game"`
	List     ListCmd          `cmd:"" help:"List saved games"`
	Commands CommandsCmd      `cmd:"" help:"Show the legal moves of a game"`
	Move     MoveCmd          `cmd:"" help:"Submit a move"`
	Show     ShowCmd          `cmd:"" help:"Render the board and players"`
	Replay   ReplayCmd        `cmd:"" help:"Replay a game from its log and verify the result"`
	Export   ExportCmd        `cmd:"" help:"Export a game history as TOML"`
	Simulate SimulateCmd      `cmd:"" help:"Play many random games and verify each replays"`
}

// app is everything a command needs once config is loaded.
type app struct {
	cfg    *config.Config
	logger *log.Logger
	store  store.Store
}

func (g *Globals) load() (*config.Config, *log.Logger, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config %s: %w", g.Config, err)
	}

	level := cfg.LogLevel()
	if g.Debug {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
	})
	return cfg, logger, nil
}

func (g *Globals) open() (*app, error) {
	cfg, logger, err := g.load()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.Storage.Driver, cfg.Storage.Dir, quartz.NewReal())
	if err != nil {
		return nil, err
	}
	logger.Debug("Opened store", "driver", cfg.Storage.Driver, "dir", cfg.Storage.Dir)
	return &app{cfg: cfg, logger: logger, store: st}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func (a *app) engineOptions() []game.Option {
	return []game.Option{game.WithLogger(a.logger)}
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("powergrid"),
		kong.Description("Deterministic, replayable Power Grid rules engine"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
		kong.Bind(&cli.Globals),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

func (a *app) load(ctx context.Context, id string) (*store.Record, error) {
	rec, err := a.store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	return rec, nil
}

// loadGame restores a stored game, re-validating its whole log.
func (a *app) loadGame(ctx context.Context, id string) (*game.Engine, error) {
	rec, err := a.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return game.Restore(rec.Snapshot, a.engineOptions()...)
}

func (a *app) save(ctx context.Context, id string, g *game.Engine) error {
	snap, err := g.Snapshot()
	if err != nil {
		return err
	}
	if err := a.store.Save(ctx, id, snap); err != nil {
		return fmt.Errorf("save %s: %w", id, err)
	}
	a.logger.Debug("Saved game", "id", id, "log", len(snap.Log))
	return nil
}
