// Package board holds the shared game board: the plant market and draw pile,
// the commodity price ladder, the resource pool and the static map.
//
// Board methods never touch the game log. Operations that need logging, such
// as resource refills, return a plan that the caller records and applies.
package board

import (
	"fmt"
	"slices"

	"github.com/lox/powergrid/internal/randutil"
)

// Pool is the finite supply of resources not yet on the market.
type Pool struct {
	Resources map[Resource]int `json:"resources"`
}

// TierResources holds the current and maximum stock of one price tier.
type TierResources struct {
	Current map[Resource]int `json:"current"`
	Max     map[Resource]int `json:"max"`
}

// Commodity is one price tier of the resource market.
type Commodity struct {
	Price     int           `json:"price"`
	Resources TierResources `json:"resources"`
}

// Offer is one row of the plant market.
type Offer struct {
	Plants []Plant `json:"plants"`
	Max    int     `json:"max"`
}

// Market is the visible plant market.
type Market struct {
	Current Offer `json:"current"`
	Future  Offer `json:"future"`
}

// DrawPile is the remaining stack of plants.
type DrawPile struct {
	Plants struct {
		Current []Plant `json:"current"`
		Future  []Plant `json:"future"`
	} `json:"plants"`
}

// Board is the complete shared game board.
type Board struct {
	Map         *Map        `json:"map"`
	Pool        Pool        `json:"pool"`
	Market      Market      `json:"market"`
	Commodities []Commodity `json:"commodities"`
	Draw        DrawPile    `json:"draw"`
}

// New sets up a board for a fresh game. The draw pile is shuffled with rng,
// so the same seed always yields the same pile.
func New(rng *randutil.Source) (*Board, error) {
	m, err := LoadMap("us")
	if err != nil {
		return nil, err
	}

	b := &Board{
		Map: m,
		Pool: Pool{Resources: map[Resource]int{
			Oil:     24,
			Coal:    24,
			Garbage: 24,
			Uranium: 12,
		}},
		Market: Market{
			Current: Offer{Plants: slices.Clone(Plants[0:4]), Max: 4},
			Future:  Offer{Plants: slices.Clone(Plants[4:8]), Max: 4},
		},
		Commodities: initialCommodities(),
	}

	thirteen, ok := FindPlant(13)
	if !ok {
		return nil, fmt.Errorf("plant deck has no plant 13")
	}
	var rest []Plant
	for _, p := range Plants {
		if p.Price > 10 && p.Price != 13 {
			rest = append(rest, p)
		}
	}
	b.Draw.Plants.Current = append([]Plant{thirteen}, randutil.Shuffle(rng, rest)...)
	b.Draw.Plants.Future = []Plant{}

	return b, nil
}

func tier(price int, maxAll, maxUranium int, current map[Resource]int) Commodity {
	limits := map[Resource]int{Uranium: maxUranium}
	cur := map[Resource]int{Uranium: current[Uranium]}
	if maxAll > 0 {
		for _, r := range []Resource{Coal, Oil, Garbage} {
			limits[r] = maxAll
			cur[r] = current[r]
		}
	}
	return Commodity{Price: price, Resources: TierResources{Current: cur, Max: limits}}
}

func initialCommodities() []Commodity {
	return []Commodity{
		tier(1, 3, 1, map[Resource]int{Coal: 3}),
		tier(2, 3, 1, map[Resource]int{Coal: 3}),
		tier(3, 3, 1, map[Resource]int{Coal: 3, Oil: 3}),
		tier(4, 3, 1, map[Resource]int{Coal: 3, Oil: 3}),
		tier(5, 3, 1, map[Resource]int{Coal: 3, Oil: 3}),
		tier(6, 3, 1, map[Resource]int{Coal: 3, Oil: 3}),
		tier(7, 3, 1, map[Resource]int{Coal: 3, Oil: 3, Garbage: 3}),
		tier(8, 3, 1, map[Resource]int{Coal: 3, Oil: 3, Garbage: 3}),
		tier(10, 0, 1, nil),
		tier(12, 0, 1, nil),
		tier(14, 0, 1, map[Resource]int{Uranium: 1}),
		tier(16, 0, 1, map[Resource]int{Uranium: 1}),
	}
}

// ReorderMarkets merges both market rows, sorts them by price and splits them
// again so the current row always holds the cheapest plants. Plants beyond
// both rows' capacity are dropped from the market.
func (b *Board) ReorderMarkets() {
	plants := make([]Plant, 0, len(b.Market.Current.Plants)+len(b.Market.Future.Plants))
	plants = append(plants, b.Market.Current.Plants...)
	plants = append(plants, b.Market.Future.Plants...)
	slices.SortStableFunc(plants, func(x, y Plant) int { return x.Price - y.Price })

	cur := min(b.Market.Current.Max, len(plants))
	fut := min(cur+b.Market.Future.Max, len(plants))
	b.Market.Current.Plants = slices.Clone(plants[:cur])
	b.Market.Future.Plants = slices.Clone(plants[cur:fut])
}

// PeekPlant returns the top of the draw pile without removing it.
func (b *Board) PeekPlant() (Plant, bool) {
	if len(b.Draw.Plants.Current) == 0 {
		return Plant{}, false
	}
	return b.Draw.Plants.Current[0], true
}

// DrawPlant removes and returns the top of the draw pile. An exhausted pile
// returns false.
func (b *Board) DrawPlant() (Plant, bool) {
	p, ok := b.PeekPlant()
	if !ok {
		return Plant{}, false
	}
	b.Draw.Plants.Current = b.Draw.Plants.Current[1:]
	return p, true
}

// MarketPlant finds a plant in the current market row.
func (b *Board) MarketPlant(price int) (Plant, bool) {
	i := slices.IndexFunc(b.Market.Current.Plants, func(p Plant) bool { return p.Price == price })
	if i < 0 {
		return Plant{}, false
	}
	return b.Market.Current.Plants[i], true
}

// RemoveMarketPlant takes a plant out of either market row.
func (b *Board) RemoveMarketPlant(price int) bool {
	match := func(p Plant) bool { return p.Price == price }
	for _, offer := range []*Offer{&b.Market.Current, &b.Market.Future} {
		if i := slices.IndexFunc(offer.Plants, match); i >= 0 {
			offer.Plants = slices.Delete(offer.Plants, i, i+1)
			return true
		}
	}
	return false
}

// AddMarketPlant places p in the market and restores market order.
func (b *Board) AddMarketPlant(p Plant) {
	b.Market.Future.Plants = append(b.Market.Future.Plants, p)
	b.ReorderMarkets()
}

// CheapestTier returns the cheapest tier currently stocking r.
func (b *Board) CheapestTier(r Resource) (*Commodity, bool) {
	for i := range b.Commodities {
		if b.Commodities[i].Resources.Current[r] > 0 {
			return &b.Commodities[i], true
		}
	}
	return nil, false
}

// Tier returns the tier with the given price.
func (b *Board) Tier(price int) (*Commodity, bool) {
	for i := range b.Commodities {
		if b.Commodities[i].Price == price {
			return &b.Commodities[i], true
		}
	}
	return nil, false
}
