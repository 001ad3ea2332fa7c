package board

import (
	"fmt"
	"slices"
)

// Refill is a resource allocation keyed by tier price, then resource.
type Refill map[int]map[Resource]int

// Total returns the number of units of r allocated across all tiers.
func (r Refill) Total(res Resource) int {
	total := 0
	for _, amounts := range r {
		total += amounts[res]
	}
	return total
}

// Prices returns the tier prices in the allocation, ascending.
func (r Refill) Prices() []int {
	prices := make([]int, 0, len(r))
	for price := range r {
		prices = append(prices, price)
	}
	slices.Sort(prices)
	return prices
}

// refillTable is indexed by player count (2..6) minus two, then step.
var refillTable = [5]map[MajorPhase]map[Resource]int{
	{
		Step1: {Garbage: 1, Oil: 2, Uranium: 1, Coal: 3},
		Step2: {Garbage: 2, Oil: 2, Uranium: 1, Coal: 4},
		Step3: {Garbage: 3, Oil: 4, Uranium: 1, Coal: 3},
	},
	{
		Step1: {Garbage: 1, Oil: 2, Uranium: 1, Coal: 4},
		Step2: {Garbage: 2, Oil: 3, Uranium: 1, Coal: 5},
		Step3: {Garbage: 3, Oil: 4, Uranium: 1, Coal: 3},
	},
	{
		Step1: {Garbage: 2, Oil: 3, Uranium: 1, Coal: 5},
		Step2: {Garbage: 3, Oil: 4, Uranium: 2, Coal: 6},
		Step3: {Garbage: 4, Oil: 5, Uranium: 2, Coal: 4},
	},
	{
		Step1: {Garbage: 3, Oil: 4, Uranium: 2, Coal: 5},
		Step2: {Garbage: 3, Oil: 5, Uranium: 3, Coal: 7},
		Step3: {Garbage: 5, Oil: 6, Uranium: 2, Coal: 5},
	},
	{
		Step1: {Garbage: 3, Oil: 5, Uranium: 2, Coal: 7},
		Step2: {Garbage: 5, Oil: 6, Uranium: 3, Coal: 9},
		Step3: {Garbage: 6, Oil: 7, Uranium: 3, Coal: 6},
	},
}

// RefillAmount returns the scripted number of units of r restocked per round.
func RefillAmount(players int, step MajorPhase, r Resource) (int, error) {
	if players < 2 || players > 6 {
		return 0, fmt.Errorf("refill: unsupported player count %d", players)
	}
	row, ok := refillTable[players-2][step]
	if !ok {
		return 0, fmt.Errorf("refill: unknown step %q", step)
	}
	return row[r], nil
}

// RefillResources computes how the round's restock is spread over the price
// tiers. Each resource is handled independently: the available amount is the
// scripted restock capped by the pool, and it fills the most expensive tiers
// first, never past a tier's maximum.
//
// The board is not modified; see ApplyRefill.
func (b *Board) RefillResources(players int, step MajorPhase) (Refill, error) {
	out := Refill{}

	for _, res := range Resources {
		scripted, err := RefillAmount(players, step, res)
		if err != nil {
			return nil, err
		}
		avail := min(b.Pool.Resources[res], scripted)
		if avail <= 0 {
			continue
		}

		for i := len(b.Commodities) - 1; i >= 0; i-- {
			tier := b.Commodities[i]
			limit := tier.Resources.Max[res]
			current := tier.Resources.Current[res]
			if limit == 0 || current >= limit {
				continue
			}

			x := min(avail, limit-current)
			if out[tier.Price] == nil {
				out[tier.Price] = map[Resource]int{}
			}
			out[tier.Price][res] = x
			avail -= x

			if avail <= 0 {
				break
			}
		}
	}

	return out, nil
}

// ApplyRefill moves an allocation from the pool onto the price tiers. The
// allocation is checked in full before anything moves.
func (b *Board) ApplyRefill(r Refill) error {
	need := map[Resource]int{}
	for _, price := range r.Prices() {
		tier, ok := b.Tier(price)
		if !ok {
			return fmt.Errorf("refill: no tier priced %d", price)
		}
		for res, n := range r[price] {
			if n < 0 || tier.Resources.Current[res]+n > tier.Resources.Max[res] {
				return fmt.Errorf("refill: tier %d cannot take %d %s", price, n, res)
			}
			need[res] += n
		}
	}
	for res, n := range need {
		if b.Pool.Resources[res] < n {
			return fmt.Errorf("refill: pool has %d %s, need %d", b.Pool.Resources[res], res, n)
		}
	}

	for price, amounts := range r {
		tier, _ := b.Tier(price)
		for res, n := range amounts {
			tier.Resources.Current[res] += n
			b.Pool.Resources[res] -= n
		}
	}
	return nil
}
