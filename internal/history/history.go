// Package history turns a game log into a readable per-round record and
// writes it as TOML.
package history

import (
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lox/powergrid/internal/board"
	"github.com/lox/powergrid/internal/game"
)

// GameHistory is the exported record of one game.
type GameHistory struct {
	ID      string   `toml:"id,omitempty"`
	Seed    string   `toml:"seed"`
	Players []string `toml:"players"`
	Ended   bool     `toml:"ended"`
	Rounds  []Round  `toml:"round"`
}

// Round collects everything that happened in one round.
type Round struct {
	Number    int            `toml:"number"`
	Step      string         `toml:"step"`
	TurnOrder []string       `toml:"turn_order"`
	Auctions  []Auction      `toml:"auction,omitempty"`
	Purchases []Purchase     `toml:"purchase,omitempty"`
	Refill    map[string]int `toml:"refill,omitempty"`
	Actions   []string       `toml:"actions"`
}

// Auction is one nomination and its outcome.
type Auction struct {
	Plant     int    `toml:"plant"`
	Nominator string `toml:"nominator"`
	Bids      []int  `toml:"bids"`
	Winner    string `toml:"winner,omitempty"`
	Price     int    `toml:"price,omitempty"`
}

// Purchase is one resource bought on the market.
type Purchase struct {
	Player   string `toml:"player"`
	Resource string `toml:"resource"`
	Price    int    `toml:"price"`
}

// Build walks a snapshot's log.
func Build(snap *game.Snapshot) (*GameHistory, error) {
	if snap == nil {
		return nil, fmt.Errorf("history: snapshot is nil")
	}

	h := &GameHistory{Seed: snap.Seed}
	for _, p := range snap.Players {
		h.Players = append(h.Players, string(p.Color))
	}

	var (
		round     *Round
		auction   *Auction
		turnOrder []string
		step      = board.Step1
	)

	for i, item := range snap.Log {
		if item.Kind == game.KindMove {
			if round == nil || item.Move == nil {
				return nil, fmt.Errorf("history: move at %d outside a round", i)
			}
			round.Actions = append(round.Actions, FormatMove(item.Player, *item.Move))

			switch d := item.Move.Data.(type) {
			case game.AuctionData:
				round.Auctions = append(round.Auctions, Auction{
					Plant:     d.Plant,
					Nominator: string(item.Player),
					Bids:      []int{},
				})
				auction = &round.Auctions[len(round.Auctions)-1]
			case game.BidData:
				if auction != nil {
					auction.Bids = append(auction.Bids, d.Bid)
				}
			case game.BuyResourceData:
				round.Purchases = append(round.Purchases, Purchase{
					Player:   string(item.Player),
					Resource: string(d.Resource),
					Price:    d.Price,
				})
			}
			continue
		}

		switch ev := item.Event.(type) {
		case game.TurnOrderEvent:
			turnOrder = colors(ev.TurnOrder)
			if round != nil {
				round.TurnOrder = turnOrder
			}
		case game.RoundStartEvent:
			h.Rounds = append(h.Rounds, Round{
				Number:    ev.Round,
				Step:      string(step),
				TurnOrder: turnOrder,
				Actions:   []string{},
			})
			round = &h.Rounds[len(h.Rounds)-1]
			auction = nil
		case game.MajorPhaseChangeEvent:
			step = ev.Phase
			if round != nil {
				round.Step = string(step)
			}
		case game.AcquirePlantEvent:
			if auction != nil && auction.Plant == ev.Plant.Price {
				auction.Winner = string(ev.Player)
				auction.Price = ev.Cost
			}
			auction = nil
		case game.FillResourcesEvent:
			if round == nil {
				continue
			}
			round.Refill = map[string]int{}
			for _, r := range board.Resources {
				if n := ev.Resources.Total(r); n > 0 {
					round.Refill[string(r)] = n
				}
			}
		case game.GameEndEvent:
			h.Ended = true
		}
	}
	return h, nil
}

// FormatMove renders a move as a short action line, e.g. "red bid 12".
func FormatMove(player game.PlayerColor, cmd game.Command) string {
	parts := []string{string(player), string(cmd.Name)}
	switch d := cmd.Data.(type) {
	case game.AuctionData:
		parts = append(parts, fmt.Sprint(d.Plant))
	case game.BidData:
		parts = append(parts, fmt.Sprint(d.Bid))
	case game.BuyResourceData:
		parts = append(parts, fmt.Sprintf("%s@%d", d.Resource, d.Price))
	case nil:
	default:
		parts = append(parts, fmt.Sprint(d))
	}
	return strings.Join(parts, " ")
}

// Encode writes the history as TOML.
func Encode(w io.Writer, h *GameHistory) error {
	if h == nil {
		return fmt.Errorf("history: game history is nil")
	}
	enc := toml.NewEncoder(w)
	enc.Indent = "\t"
	return enc.Encode(h)
}

// EncodeToBytes encodes and returns the result as bytes.
func EncodeToBytes(h *GameHistory) ([]byte, error) {
	var buf strings.Builder
	if err := Encode(&buf, h); err != nil {
		return nil, err
	}
	return []byte(buf.String()), nil
}

func colors(in []game.PlayerColor) []string {
	out := make([]string, len(in))
	for i, c := range in {
		out[i] = string(c)
	}
	return out
}
