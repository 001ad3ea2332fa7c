package game

import (
	"fmt"

	"github.com/lox/powergrid/internal/board"
)

// buyResourceAvailable offers one unit of each resource the player has room
// for, at the cheapest tier still stocking it.
func buyResourceAvailable(e *Engine, p *Player) Availability {
	if e.turn != p.Color {
		return unavailable()
	}
	var offers []any
	for _, r := range board.Resources {
		if p.AvailableSpace(r) < 1 {
			continue
		}
		tier, ok := e.Board.CheapestTier(r)
		if !ok || tier.Price > p.Money {
			continue
		}
		offers = append(offers, BuyResourceData{Resource: r, Price: tier.Price})
	}
	return availableWith(offers...)
}

func buyResourceExec(e *Engine, p *Player, data any) error {
	d, ok := dataAs[BuyResourceData](data)
	if !ok {
		return fmt.Errorf("buyresource: unexpected data %T", data)
	}
	tier, ok := e.Board.Tier(d.Price)
	if !ok || tier.Resources.Current[d.Resource] < 1 {
		return divergedf("no %s left at price %d", d.Resource, d.Price)
	}
	if p.Money < d.Price {
		return divergedf("%s cannot pay %d", p.Color, d.Price)
	}

	tier.Resources.Current[d.Resource]--
	p.Money -= d.Price
	p.Resources[d.Resource]++
	return nil
}
