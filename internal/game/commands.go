package game

import (
	"fmt"
	"slices"
)

// Availability is a handler's answer to "may this player make this move
// now". A move with data is advertised once per datum.
type Availability struct {
	ok   bool
	data []any
}

func unavailable() Availability {
	return Availability{}
}

func available() Availability {
	return Availability{ok: true}
}

// availableWith advertises one entry per datum. No data means unavailable.
func availableWith(data ...any) Availability {
	if len(data) == 0 {
		return unavailable()
	}
	return Availability{ok: true, data: data}
}

// Handler implements one move within one phase.
type Handler struct {
	// Available decides whether p may make the move in the current state.
	Available func(e *Engine, p *Player) Availability
	// Valid checks submitted data against one advertised datum. Nil for
	// moves without data.
	Valid func(data, advertised any) bool
	// Exec applies the move. It makes its direct state changes first and
	// emits events last.
	Exec func(e *Engine, p *Player, data any) error
	// NewData allocates the payload a submitted move decodes into.
	NewData func() any
}

var (
	registry  map[RoundPhase]map[MoveName]Handler
	moveOrder map[RoundPhase][]MoveName
)

func init() {
	registry = map[RoundPhase]map[MoveName]Handler{
		PlantAuction: {
			MovePass: {
				Available: auctionPassAvailable,
				Exec:      auctionPassExec,
			},
			MoveAuction: {
				Available: auctionAvailable,
				Valid:     validAuction,
				Exec:      auctionExec,
				NewData:   func() any { return &AuctionData{} },
			},
			MoveBid: {
				Available: bidAvailable,
				Valid:     validBid,
				Exec:      bidExec,
				NewData:   func() any { return &BidData{} },
			},
		},
		CommoditiesTrading: {
			MoveBuyResource: {
				Available: buyResourceAvailable,
				Valid:     validBuyResource,
				Exec:      buyResourceExec,
				NewData:   func() any { return &BuyResourceData{} },
			},
			MovePass: {
				Available: func(*Engine, *Player) Availability { return available() },
				Exec:      passExec,
			},
		},
		Construction: {
			MovePass: {
				Available: func(*Engine, *Player) Availability { return available() },
				Exec:      passExec,
			},
		},
		Bureaucracy: {
			MovePass: {
				Available: func(*Engine, *Player) Availability { return available() },
				Exec:      passExec,
			},
		},
	}

	moveOrder = map[RoundPhase][]MoveName{
		PlantAuction:       {MovePass, MoveAuction, MoveBid},
		CommoditiesTrading: {MoveBuyResource, MovePass},
		Construction:       {MovePass},
		Bureaucracy:        {MovePass},
	}
}

func validAuction(data, advertised any) bool {
	d, ok := dataAs[AuctionData](data)
	if !ok {
		return false
	}
	opts, ok := advertised.(AuctionOptions)
	return ok && slices.Contains(opts.Plants, d.Plant)
}

func validBid(data, advertised any) bool {
	d, ok := dataAs[BidData](data)
	if !ok {
		return false
	}
	r, ok := advertised.(BidRange)
	return ok && d.Bid >= r.Range[0] && d.Bid <= r.Range[1]
}

func validBuyResource(data, advertised any) bool {
	d, ok := dataAs[BuyResourceData](data)
	if !ok {
		return false
	}
	want, ok := advertised.(BuyResourceData)
	return ok && d == want
}

// generateAvailableCommands recomputes the legal move set for the player
// whose turn it is.
func (e *Engine) generateAvailableCommands() {
	e.AvailableCommands = e.availableFor(e.CurrentPlayer())
	e.stalled = !e.ended && len(e.AvailableCommands) == 0
	if e.stalled {
		e.logger.Warn("No legal moves", "player", e.CurrentPlayer(), "phase", e.Phase, "round", e.Round)
	}
}

func (e *Engine) availableFor(color PlayerColor) []AvailableCommand {
	if e.ended {
		return nil
	}
	p, ok := e.index[color]
	if !ok {
		return nil
	}

	out := []AvailableCommand{}
	handlers := registry[e.Phase]
	for _, name := range moveOrder[e.Phase] {
		a := handlers[name].Available(e, p)
		if !a.ok {
			continue
		}
		if len(a.data) == 0 {
			out = append(out, AvailableCommand{Move: name, Player: color})
			continue
		}
		for _, d := range a.data {
			out = append(out, AvailableCommand{Move: name, Player: color, Data: d})
		}
	}
	return out
}

// Move submits a player's move. The move must match an advertised entry for
// that player and, for moves with data, satisfy at least one of them. A
// rejected move leaves the engine untouched.
func (e *Engine) Move(player PlayerColor, cmd Command) error {
	if e.ended {
		return ErrGameEnded
	}
	if _, ok := e.index[player]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, player)
	}
	cmd.Data = deref(cmd.Data)
	if err := e.checkMove(player, cmd); err != nil {
		e.logger.Debug("Rejected move", "player", player, "move", cmd.Name, "error", err)
		return err
	}

	e.logger.Debug("Move", "player", player, "move", cmd.Name, "data", cmd.Data)
	if err := e.addLog(MoveItem(player, cmd)); err != nil {
		return err
	}

	if e.ended {
		e.AvailableCommands = nil
		e.stalled = false
		return nil
	}
	e.generateAvailableCommands()
	return nil
}

func (e *Engine) checkMove(player PlayerColor, cmd Command) error {
	var matching []AvailableCommand
	for _, ac := range e.AvailableCommands {
		if ac.Player == player && ac.Move == cmd.Name {
			matching = append(matching, ac)
		}
	}
	if len(matching) == 0 {
		return &IllegalMoveError{Player: player, Move: cmd.Name, Reason: "not available"}
	}

	h := registry[e.Phase][cmd.Name]
	if h.Valid == nil {
		return nil
	}
	for _, ac := range matching {
		if h.Valid(cmd.Data, ac.Data) {
			return nil
		}
	}
	return &IllegalMoveError{Player: player, Move: cmd.Name, Reason: fmt.Sprintf("invalid data %v", cmd.Data)}
}

// passExec moves the turn along in phases where pass is the only decision.
func passExec(e *Engine, _ *Player, _ any) error {
	return e.switchToNextPlayer()
}
