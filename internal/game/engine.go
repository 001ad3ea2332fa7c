package game

import (
	"errors"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/lox/powergrid/internal/board"
	"github.com/lox/powergrid/internal/randutil"
)

// Engine is the state of one game. All changes go through the log: moves
// are appended and executed, and every consequence is recorded as an event,
// so replaying the log from the seed rebuilds the same state.
//
// An Engine is not safe for concurrent use.
type Engine struct {
	Round      int
	MajorPhase board.MajorPhase
	Phase      RoundPhase
	TurnOrder  []PlayerColor
	Auction    *AuctionState
	Board      *board.Board
	Players    []*Player
	Log        []LogItem

	AvailableCommands []AvailableCommand

	seed      string
	rng       *randutil.Source
	index     map[PlayerColor]*Player
	turn      PlayerColor
	ended     bool
	stalled   bool
	replaying bool
	opts      engineConfig
	logger    *log.Logger
}

// New starts a game for playerCount players. The seed fixes the player
// colors, the turn order and the draw pile.
func New(playerCount int, seed string, opts ...Option) (*Engine, error) {
	e, err := setup(playerCount, seed, opts)
	if err != nil {
		return nil, err
	}

	start := []Event{
		GameStartEvent{},
		TurnOrderEvent{TurnOrder: slices.Clone(e.TurnOrder)},
		RoundStartEvent{Round: 1},
		PhaseChangeEvent{Phase: PlantAuction},
	}
	for _, ev := range start {
		if err := e.emit(ev); err != nil {
			return nil, err
		}
	}

	e.generateAvailableCommands()
	e.logger.Debug("Game started", "seed", seed, "players", e.TurnOrder)
	return e, nil
}

// Replay rebuilds a game from its log. Moves are re-executed and checked
// against the legal move set of the moment; events are applied as recorded.
func Replay(playerCount int, seed string, items []LogItem, opts ...Option) (*Engine, error) {
	e, err := setup(playerCount, seed, opts)
	if err != nil {
		return nil, err
	}

	e.replaying = true
	for i, item := range items {
		if item.Kind == KindMove && item.Move != nil {
			e.AvailableCommands = e.availableFor(e.CurrentPlayer())
			if err := e.checkMove(item.Player, *item.Move); err != nil {
				e.logger.Error("Replay diverged", "index", i, "item", item, "error", err)
				return nil, fmt.Errorf("%w: item %d: %w", ErrReplayDiverged, i, err)
			}
		}
		if err := e.addLog(item); err != nil {
			e.logger.Error("Replay diverged", "index", i, "item", item, "error", err)
			if errors.Is(err, ErrReplayDiverged) {
				return nil, fmt.Errorf("replay item %d: %w", i, err)
			}
			return nil, fmt.Errorf("%w: item %d: %w", ErrReplayDiverged, i, err)
		}
	}
	e.replaying = false

	e.generateAvailableCommands()
	return e, nil
}

func setup(playerCount int, seed string, opts []Option) (*Engine, error) {
	if playerCount < 2 || playerCount > len(Colors) {
		return nil, fmt.Errorf("%w: got %d", ErrPlayerCount, playerCount)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	rng := randutil.NewSource(seed)
	// Colors are drawn before the board so the turn order depends only on
	// the seed.
	colors := randutil.Shuffle(rng, Colors)[:playerCount]

	b, err := board.New(rng)
	if err != nil {
		return nil, fmt.Errorf("board setup: %w", err)
	}

	e := &Engine{
		MajorPhase: board.Step1,
		TurnOrder:  slices.Clone(colors),
		Board:      b,
		Players:    make([]*Player, 0, playerCount),
		Log:        []LogItem{},
		seed:       seed,
		rng:        rng,
		index:      make(map[PlayerColor]*Player, playerCount),
		opts:       cfg,
		logger:     cfg.logger.WithPrefix("engine"),
	}
	for _, c := range colors {
		p := NewPlayer(c)
		e.Players = append(e.Players, p)
		e.index[c] = p
	}
	return e, nil
}

// addLog appends an item and applies it.
func (e *Engine) addLog(item LogItem) error {
	e.Log = append(e.Log, item)
	return e.processLogItem(item)
}

// emit records an event caused by the current move. During replay the event
// is already in the log, so nothing happens.
func (e *Engine) emit(ev Event) error {
	if e.replaying {
		return nil
	}
	e.logger.Debug("Event", "name", ev.EventName(), "event", ev)
	return e.addLog(EventItem(ev))
}

func (e *Engine) processLogItem(item LogItem) error {
	switch item.Kind {
	case KindMove:
		if item.Move == nil {
			return fmt.Errorf("log move without command")
		}
		p, err := e.player(item.Player)
		if err != nil {
			return err
		}
		h, ok := registry[e.Phase][item.Move.Name]
		if !ok {
			return divergedf("move %q has no handler in %s", item.Move.Name, e.Phase)
		}
		return h.Exec(e, p, item.Move.Data)
	case KindEvent:
		return e.applyEvent(item.Event)
	}
	return fmt.Errorf("log item: unknown kind %q", item.Kind)
}

func (e *Engine) applyEvent(ev Event) error {
	switch ev := ev.(type) {
	case GameStartEvent, UnknownEvent:
		return nil

	case RoundStartEvent:
		e.Round = ev.Round
		for _, p := range e.Players {
			p.BeginRound()
		}

	case TurnOrderEvent:
		if len(ev.TurnOrder) != len(e.Players) {
			return divergedf("turn order has %d players, game has %d", len(ev.TurnOrder), len(e.Players))
		}
		seen := map[PlayerColor]bool{}
		for _, c := range ev.TurnOrder {
			if _, err := e.player(c); err != nil {
				return err
			}
			if seen[c] {
				return divergedf("turn order repeats %s", c)
			}
			seen[c] = true
		}
		e.TurnOrder = slices.Clone(ev.TurnOrder)

	case PhaseChangeEvent:
		e.Phase = ev.Phase
		if !e.replaying {
			return e.phaseStarted(ev.Phase)
		}

	case MajorPhaseChangeEvent:
		e.MajorPhase = ev.Phase
		if ev.Phase == board.Step3 {
			e.Board.Market.Current.Max = 6
			e.Board.Market.Future.Max = 0
			e.Board.ReorderMarkets()
		}

	case CurrentPlayerEvent:
		if _, err := e.player(ev.Player); err != nil {
			return err
		}
		e.turn = ev.Player

	case AcquirePlantEvent:
		p, err := e.player(ev.Player)
		if err != nil {
			return err
		}
		if p.Money < ev.Cost {
			return divergedf("%s cannot pay %d for plant %d", p.Color, ev.Cost, ev.Plant.Price)
		}
		if !e.Board.RemoveMarketPlant(ev.Plant.Price) {
			return divergedf("plant %d is not in the market", ev.Plant.Price)
		}
		p.Money -= ev.Cost
		p.Plants = append(p.Plants, ev.Plant)
		p.AcquiredPlant = true
		p.AuctionDone = true
		e.Auction = nil

	case DrawPlantEvent:
		drawn, ok := e.Board.DrawPlant()
		if !ok || drawn.Price != ev.Plant.Price {
			return divergedf("drew plant %d, log says %d", drawn.Price, ev.Plant.Price)
		}
		e.Board.AddMarketPlant(drawn)

	case FillResourcesEvent:
		if err := e.Board.ApplyRefill(ev.Resources); err != nil {
			return fmt.Errorf("%w: %w", ErrReplayDiverged, err)
		}

	case GameEndEvent:
		e.ended = true
		e.logger.Info("Game ended", "round", e.Round)

	default:
		return fmt.Errorf("unhandled event %T", ev)
	}
	return nil
}

func (e *Engine) player(c PlayerColor) (*Player, error) {
	p, ok := e.index[c]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, c)
	}
	return p, nil
}

// Player returns the player with color c.
func (e *Engine) Player(c PlayerColor) (*Player, bool) {
	p, ok := e.index[c]
	return p, ok
}

// CurrentPlayer is the player expected to move: the bidder on turn while an
// auction is open, otherwise the phase's turn pointer.
func (e *Engine) CurrentPlayer() PlayerColor {
	if e.Auction != nil {
		return e.Auction.Current
	}
	return e.turn
}

// Seed returns the seed the game was created with.
func (e *Engine) Seed() string {
	return e.seed
}

// Ended reports whether the game is over.
func (e *Engine) Ended() bool {
	return e.ended
}

// Stalled reports whether the current player has no legal move in a game
// that has not ended. Only possible under StarvedStrict.
func (e *Engine) Stalled() bool {
	return e.stalled
}

// Available returns a copy of the legal move set.
func (e *Engine) Available() []AvailableCommand {
	return cloneAvailable(e.AvailableCommands)
}
