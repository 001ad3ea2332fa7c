package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/lox/powergrid/internal/board"
	"github.com/lox/powergrid/internal/game"
	"github.com/lox/powergrid/internal/history"
	"github.com/lox/powergrid/internal/store"
)

// NewCmd creates and saves a fresh game.
type NewCmd struct {
	Players   int    `short:"p" help:"Number of players (default from config)"`
	Seed      string `short:"s" help:"Game seed (default from config, else random)"`
	MaxRounds *int   `help:"End the game after this many rounds (0 = unlimited)"`
}

func (c *NewCmd) Run(g *Globals) error {
	sess, err := g.open()
	if err != nil {
		return err
	}
	defer sess.Close()

	players := c.Players
	if players == 0 {
		players = sess.cfg.Game.Players
	}
	seed := c.Seed
	if seed == "" {
		seed = sess.cfg.Game.Seed
	}
	if seed == "" {
		seed = uuid.NewString()
	}

	opts := append(sess.cfg.GameOptions(), sess.engineOptions()...)
	if c.MaxRounds != nil {
		opts = append(opts, game.WithMaxRounds(*c.MaxRounds))
	}

	e, err := game.New(players, seed, opts...)
	if err != nil {
		return err
	}
	id, err := store.NewGameID()
	if err != nil {
		return err
	}
	if err := sess.save(context.Background(), id, e); err != nil {
		return err
	}

	sess.logger.Info("Created game", "id", id, "seed", seed, "players", players)
	fmt.Println(id)
	return nil
}

// ListCmd prints one line per saved game.
type ListCmd struct{}

func (c *ListCmd) Run(g *Globals) error {
	sess, err := g.open()
	if err != nil {
		return err
	}
	defer sess.Close()

	games, err := sess.store.List(context.Background())
	if err != nil {
		return err
	}
	for _, s := range games {
		state := s.Phase.String()
		if s.Ended {
			state = "ended"
		}
		fmt.Printf("%s  round %-3d %-20s players %d  seed %q\n", s.ID, s.Round, state, s.Players, s.Seed)
	}
	return nil
}

// CommandsCmd prints the legal move set.
type CommandsCmd struct {
	ID   string `arg:"" help:"Game ID"`
	JSON bool   `help:"Print the raw JSON move set"`
}

func (c *CommandsCmd) Run(g *Globals) error {
	sess, err := g.open()
	if err != nil {
		return err
	}
	defer sess.Close()

	e, err := sess.loadGame(context.Background(), c.ID)
	if err != nil {
		return err
	}
	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(e.Available())
	}
	printAvailable(os.Stdout, e)
	return nil
}

// MoveCmd submits one move and saves the game.
type MoveCmd struct {
	ID     string   `arg:"" help:"Game ID"`
	Move   string   `arg:"" help:"Move name: pass, auction, bid, buyresource"`
	Args   []string `arg:"" optional:"" help:"Move arguments: auction <plant>, bid <amount>, buyresource <resource> <price>"`
	Player string   `help:"Player colour (default: current player)"`
}

func (c *MoveCmd) Run(g *Globals) error {
	sess, err := g.open()
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx := context.Background()
	e, err := sess.loadGame(ctx, c.ID)
	if err != nil {
		return err
	}

	cmd, err := parseCommand(c.Move, c.Args)
	if err != nil {
		return err
	}
	player := e.CurrentPlayer()
	if c.Player != "" {
		player = game.PlayerColor(c.Player)
	}
	if err := e.Move(player, cmd); err != nil {
		return err
	}
	if err := sess.save(ctx, c.ID, e); err != nil {
		return err
	}

	fmt.Println(history.FormatMove(player, cmd))
	printAvailable(os.Stdout, e)
	return nil
}

// ShowCmd renders the game state.
type ShowCmd struct {
	ID string `arg:"" help:"Game ID"`
}

func (c *ShowCmd) Run(g *Globals) error {
	sess, err := g.open()
	if err != nil {
		return err
	}
	defer sess.Close()

	e, err := sess.loadGame(context.Background(), c.ID)
	if err != nil {
		return err
	}
	fmt.Println(renderGame(e))
	return nil
}

// ReplayCmd rebuilds a game from its log, from the store or a snapshot file.
type ReplayCmd struct {
	ID   string `arg:"" optional:"" help:"Game ID"`
	File string `short:"f" help:"Snapshot JSON file to replay instead of a stored game"`
}

func (c *ReplayCmd) Run(g *Globals) error {
	if (c.ID == "") == (c.File == "") {
		return errors.New("replay needs exactly one of a game ID or --file")
	}

	sess, err := g.open()
	if err != nil {
		return err
	}
	defer sess.Close()

	var snap *game.Snapshot
	if c.File != "" {
		if snap, err = readSnapshot(c.File); err != nil {
			return err
		}
	} else {
		rec, err := sess.load(context.Background(), c.ID)
		if err != nil {
			return err
		}
		snap = rec.Snapshot
	}

	e, err := game.Restore(snap, sess.engineOptions()...)
	if err != nil {
		sess.logger.Error("Replay diverged", "error", err)
		return err
	}
	fingerprint, err := snap.Fingerprint()
	if err != nil {
		return err
	}
	fmt.Printf("replayed %d log items: round %d, %s, fingerprint %s\n", len(e.Log), e.Round, e.Phase, fingerprint)
	return nil
}

// ExportCmd writes the round-by-round history of a game.
type ExportCmd struct {
	ID  string `arg:"" help:"Game ID"`
	Out string `short:"o" help:"Output file (default stdout)"`
}

func (c *ExportCmd) Run(g *Globals) error {
	sess, err := g.open()
	if err != nil {
		return err
	}
	defer sess.Close()

	rec, err := sess.load(context.Background(), c.ID)
	if err != nil {
		return err
	}
	h, err := history.Build(rec.Snapshot)
	if err != nil {
		return err
	}
	h.ID = c.ID

	var w io.Writer = os.Stdout
	if c.Out != "" {
		f, err := os.Create(c.Out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return history.Encode(w, h)
}

func readSnapshot(path string) (*game.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap game.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return &snap, nil
}

// parseCommand turns CLI arguments into a move.
func parseCommand(name string, args []string) (game.Command, error) {
	cmd := game.Command{Name: game.MoveName(name)}
	switch cmd.Name {
	case game.MovePass:
		if len(args) != 0 {
			return cmd, fmt.Errorf("pass takes no arguments")
		}
	case game.MoveAuction:
		n, err := intArgs(name, args, 1)
		if err != nil {
			return cmd, err
		}
		cmd.Data = game.AuctionData{Plant: n[0]}
	case game.MoveBid:
		n, err := intArgs(name, args, 1)
		if err != nil {
			return cmd, err
		}
		cmd.Data = game.BidData{Bid: n[0]}
	case game.MoveBuyResource:
		if len(args) != 2 {
			return cmd, fmt.Errorf("buyresource needs <resource> <price>")
		}
		r := board.Resource(strings.ToLower(args[0]))
		if !r.Valid() {
			return cmd, fmt.Errorf("unknown resource %q", args[0])
		}
		price, err := strconv.Atoi(args[1])
		if err != nil {
			return cmd, fmt.Errorf("buyresource price: %w", err)
		}
		cmd.Data = game.BuyResourceData{Resource: r, Price: price}
	default:
		return cmd, fmt.Errorf("unknown move %q", name)
	}
	return cmd, nil
}

func intArgs(name string, args []string, want int) ([]int, error) {
	if len(args) != want {
		return nil, fmt.Errorf("%s needs %d argument(s), got %d", name, want, len(args))
	}
	out := make([]int, len(args))
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out[i] = n
	}
	return out, nil
}
