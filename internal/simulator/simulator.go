// Package simulator plays many games with scripted players and checks that
// every finished game replays to the same state.
package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/powergrid/internal/game"
	"github.com/lox/powergrid/internal/randutil"
	"golang.org/x/sync/errgroup"
)

// Strategies pick a move from the legal move set.
const (
	StrategyRandom  = "random"  // any legal move, bids at the minimum
	StrategyFirst   = "first"   // always the first advertised move
	StrategyPassive = "passive" // pass whenever allowed
)

// Config holds configuration for running simulations
type Config struct {
	Games      int
	Players    int
	SeedPrefix string
	MaxRounds  int
	// MaxMoves bounds a single game. Zero means 10000.
	MaxMoves int
	Workers  int
	Strategy string
	// Seed drives move choice; game seeds come from SeedPrefix.
	Seed    int64
	Timeout time.Duration
	Options []game.Option
	Logger  *log.Logger
}

// GameResult summarizes one simulated game.
type GameResult struct {
	Seed           string
	Rounds         int
	Moves          int
	PlantsAcquired int
	Ended          bool
	Stalled        bool
	Fingerprint    string
}

// Results aggregates a simulation run.
type Results struct {
	Games   []GameResult
	Moves   int
	Plants  int
	Ended   int
	Stalled int
}

// MeanMoves is the average number of moves per game.
func (r *Results) MeanMoves() float64 {
	if len(r.Games) == 0 {
		return 0
	}
	return float64(r.Moves) / float64(len(r.Games))
}

// Simulator runs batches of games.
type Simulator struct {
	config Config
}

// New creates a new simulator with the given configuration
func New(config Config) *Simulator {
	if config.Logger == nil {
		config.Logger = log.New(io.Discard)
	}
	if config.MaxMoves == 0 {
		config.MaxMoves = 10000
	}
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.Strategy == "" {
		config.Strategy = StrategyRandom
	}
	if config.SeedPrefix == "" {
		config.SeedPrefix = "sim"
	}
	return &Simulator{config: config}
}

// Run plays every game, Workers at a time. The first failure cancels the
// rest.
func (s *Simulator) Run(ctx context.Context) (*Results, error) {
	if s.config.Games < 1 {
		return nil, fmt.Errorf("simulate: games must be positive")
	}
	if !slices.Contains([]string{StrategyRandom, StrategyFirst, StrategyPassive}, s.config.Strategy) {
		return nil, fmt.Errorf("simulate: unknown strategy %q", s.config.Strategy)
	}
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	results := make([]GameResult, s.config.Games)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)

	for i := range s.config.Games {
		g.Go(func() error {
			res, err := s.playGame(ctx, i)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Results{Games: results}
	for _, r := range results {
		out.Moves += r.Moves
		out.Plants += r.PlantsAcquired
		if r.Ended {
			out.Ended++
		}
		if r.Stalled {
			out.Stalled++
		}
	}
	return out, nil
}

// RunSimulation is a convenience wrapper around New and Run.
func RunSimulation(ctx context.Context, config Config) (*Results, error) {
	return New(config).Run(ctx)
}

// GameSeed is the engine seed used for game i.
func (s *Simulator) GameSeed(i int) string {
	return fmt.Sprintf("%s-%d", s.config.SeedPrefix, i)
}

func (s *Simulator) playGame(ctx context.Context, i int) (GameResult, error) {
	seed := s.GameSeed(i)
	opts := append(slices.Clone(s.config.Options), game.WithMaxRounds(s.config.MaxRounds))

	e, err := game.New(s.config.Players, seed, opts...)
	if err != nil {
		return GameResult{}, fmt.Errorf("game %s: %w", seed, err)
	}
	rng := randutil.New(s.config.Seed + int64(i))

	moves := 0
	for ; moves < s.config.MaxMoves && !e.Ended() && !e.Stalled(); moves++ {
		if err := ctx.Err(); err != nil {
			return GameResult{}, err
		}
		cmd := s.choose(rng, e.AvailableCommands)
		if err := e.Move(e.CurrentPlayer(), cmd); err != nil {
			return GameResult{}, fmt.Errorf("game %s move %d: %w", seed, moves, err)
		}
	}

	fingerprint, err := verifyReplay(e)
	if err != nil {
		return GameResult{}, fmt.Errorf("game %s: %w", seed, err)
	}

	res := GameResult{
		Seed:        seed,
		Rounds:      e.Round,
		Moves:       moves,
		Ended:       e.Ended(),
		Stalled:     e.Stalled(),
		Fingerprint: fingerprint,
	}
	for _, p := range e.Players {
		res.PlantsAcquired += len(p.Plants)
	}
	s.config.Logger.Debug("Game finished", "seed", seed, "rounds", res.Rounds, "moves", res.Moves)
	return res, nil
}

func (s *Simulator) choose(rng *rand.Rand, available []game.AvailableCommand) game.Command {
	switch s.config.Strategy {
	case StrategyFirst:
		return available[0].Command()
	case StrategyPassive:
		for _, ac := range available {
			if ac.Move == game.MovePass {
				return ac.Command()
			}
		}
		return available[0].Command()
	}

	ac := available[rng.IntN(len(available))]
	if ac.Move == game.MoveAuction {
		choices := ac.Choices()
		return choices[rng.IntN(len(choices))]
	}
	return ac.Command()
}

// verifyReplay saves the game, restores it from the saved bytes and
// compares fingerprints.
func verifyReplay(e *game.Engine) (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	var snap game.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return "", fmt.Errorf("decode snapshot: %w", err)
	}
	restored, err := game.Restore(&snap)
	if err != nil {
		return "", err
	}

	want, err := snap.Fingerprint()
	if err != nil {
		return "", err
	}
	got, err := restored.Snapshot()
	if err != nil {
		return "", err
	}
	gotPrint, err := got.Fingerprint()
	if err != nil {
		return "", err
	}
	if want != gotPrint {
		return "", fmt.Errorf("%w: fingerprint %s, restored %s", game.ErrReplayDiverged, want, gotPrint)
	}
	return want, nil
}

// PrintSummary writes a short report of the run.
func PrintSummary(w io.Writer, r *Results) {
	fmt.Fprintf(w, "\n=== SIMULATION RESULTS ===\n")
	fmt.Fprintf(w, "Games played: %d (%d ended, %d stalled)\n", len(r.Games), r.Ended, r.Stalled)
	fmt.Fprintf(w, "Moves: %d total, %.1f per game\n", r.Moves, r.MeanMoves())
	fmt.Fprintf(w, "Plants acquired: %d\n", r.Plants)
	fmt.Fprintf(w, "Every game replayed to an identical state.\n")
}

