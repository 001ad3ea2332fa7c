package game

import (
	"fmt"
	"slices"

	"github.com/lox/powergrid/internal/board"
)

// AuctionState is an open nomination in the plant auction.
type AuctionState struct {
	// Participants are the players still bidding, in bidding order.
	Participants []PlayerColor `json:"participants"`
	Current      PlayerColor   `json:"current"`
	Plant        board.Plant   `json:"plant"`
	// Bid is nil until the first bid.
	Bid *int `json:"bid,omitempty"`
}

func (a *AuctionState) index(c PlayerColor) int {
	return slices.Index(a.Participants, c)
}

// affordablePlants lists the current market plants p can pay for.
func (e *Engine) affordablePlants(p *Player) []int {
	var out []int
	for _, pl := range e.Board.Market.Current.Plants {
		if pl.Price <= p.Money {
			out = append(out, pl.Price)
		}
	}
	return out
}

func auctionPassAvailable(e *Engine, p *Player) Availability {
	if e.Auction != nil {
		if e.Auction.Current != p.Color || e.Auction.Bid == nil {
			return unavailable()
		}
		return available()
	}
	if p.AuctionDone || e.turn != p.Color {
		return unavailable()
	}
	if e.Round == 1 {
		starved := len(e.affordablePlants(p)) == 0
		if !starved || e.opts.starvedPolicy != StarvedAllowPass {
			return unavailable()
		}
	}
	return available()
}

func auctionAvailable(e *Engine, p *Player) Availability {
	if e.Auction != nil || p.AuctionDone || e.turn != p.Color {
		return unavailable()
	}
	plants := e.affordablePlants(p)
	if len(plants) == 0 {
		return unavailable()
	}
	return availableWith(AuctionOptions{Plants: plants})
}

func bidAvailable(e *Engine, p *Player) Availability {
	a := e.Auction
	if a == nil || a.Current != p.Color {
		return unavailable()
	}
	low := a.Plant.Price
	if a.Bid != nil {
		low = max(low, *a.Bid+1)
	}
	if low > p.Money {
		return unavailable()
	}
	return availableWith(BidRange{Range: [2]int{low, p.Money}})
}

// auctionExec opens a nomination. Every player still in this round's auction
// takes part, in turn order starting from the nominator.
func auctionExec(e *Engine, p *Player, data any) error {
	d, ok := dataAs[AuctionData](data)
	if !ok {
		return fmt.Errorf("auction: unexpected data %T", data)
	}
	plant, ok := e.Board.MarketPlant(d.Plant)
	if !ok {
		return divergedf("plant %d is not in the market", d.Plant)
	}

	start := slices.Index(e.TurnOrder, p.Color)
	var participants []PlayerColor
	for i := range e.TurnOrder {
		c := e.TurnOrder[(start+i)%len(e.TurnOrder)]
		if !e.index[c].AuctionDone {
			participants = append(participants, c)
		}
	}

	e.Auction = &AuctionState{
		Participants: participants,
		Current:      p.Color,
		Plant:        plant,
	}
	return nil
}

func bidExec(e *Engine, p *Player, data any) error {
	d, ok := dataAs[BidData](data)
	if !ok {
		return fmt.Errorf("bid: unexpected data %T", data)
	}
	a := e.Auction
	if a == nil {
		return divergedf("bid by %s without an auction", p.Color)
	}
	bid := d.Bid
	a.Bid = &bid

	i := a.index(p.Color)
	a.Current = a.Participants[(i+1)%len(a.Participants)]

	if len(a.Participants) == 1 {
		return e.resolveAuction()
	}
	return nil
}

func auctionPassExec(e *Engine, p *Player, _ any) error {
	a := e.Auction
	if a == nil {
		p.AuctionDone = true
		return e.advanceAuctionTurn()
	}

	i := a.index(p.Color)
	if i < 0 {
		return divergedf("%s passed but is not bidding", p.Color)
	}
	a.Participants = slices.Delete(a.Participants, i, i+1)
	a.Current = a.Participants[i%len(a.Participants)]

	if len(a.Participants) == 1 {
		return e.resolveAuction()
	}
	return nil
}

// resolveAuction hands the plant to the last bidder standing and refills the
// market from the draw pile.
func (e *Engine) resolveAuction() error {
	a := e.Auction
	if a == nil || a.Bid == nil || len(a.Participants) != 1 {
		return nil
	}

	if err := e.emit(AcquirePlantEvent{Player: a.Participants[0], Plant: a.Plant, Cost: *a.Bid}); err != nil {
		return err
	}

	if next, ok := e.Board.PeekPlant(); ok {
		if err := e.emit(DrawPlantEvent{Plant: next}); err != nil {
			return err
		}
	} else if e.MajorPhase != board.Step3 {
		if err := e.emit(MajorPhaseChangeEvent{Phase: board.Step3}); err != nil {
			return err
		}
	}

	return e.advanceAuctionTurn()
}

// advanceAuctionTurn points the turn at the first player in turn order still
// in the auction, or ends the phase when everyone is done.
func (e *Engine) advanceAuctionTurn() error {
	for _, c := range e.TurnOrder {
		if e.index[c].AuctionDone {
			continue
		}
		if c == e.turn {
			return nil
		}
		return e.emit(CurrentPlayerEvent{Player: c})
	}
	return e.advancePhase()
}
