package board

import "slices"

// Plant is a power plant card. Price doubles as its identifier.
type Plant struct {
	Price  int        `json:"price"`
	Energy []Resource `json:"energy"`
	Intake int        `json:"intake"`
	Cities int        `json:"cities"`
}

// Burns reports whether the plant accepts r.
func (p Plant) Burns(r Resource) bool {
	return slices.Contains(p.Energy, r)
}

// Hybrid reports whether two resource kinds share the plant's intake.
func (p Plant) Hybrid() bool {
	return len(p.Energy) == 2
}

// Ecological plants need no resources at all.
func (p Plant) Ecological() bool {
	return len(p.Energy) == 0
}

func plant(price, cities, intake int, energy ...Resource) Plant {
	return Plant{Price: price, Energy: energy, Intake: intake, Cities: cities}
}

// Plants is the full plant deck, ascending by price.
var Plants = []Plant{
	plant(3, 1, 2, Oil),
	plant(4, 1, 2, Coal),
	plant(5, 1, 2, Coal, Oil),
	plant(6, 1, 1, Garbage),
	plant(7, 2, 3, Oil),
	plant(8, 2, 3, Coal),
	plant(9, 1, 1, Oil),
	plant(10, 2, 2, Coal),
	plant(11, 2, 1, Uranium),
	plant(12, 2, 2, Coal, Oil),
	plant(13, 1, 0),
	plant(14, 2, 2, Garbage),
	plant(15, 3, 2, Coal),
	plant(16, 3, 2, Oil),
	plant(17, 2, 1, Uranium),
	plant(18, 2, 0),
	plant(19, 3, 2, Garbage),
	plant(20, 5, 3, Coal),
	plant(21, 4, 2, Coal, Oil),
	plant(22, 2, 0),
	plant(23, 3, 1, Uranium),
	plant(24, 4, 2, Garbage),
	plant(25, 5, 2, Coal),
	plant(26, 5, 2, Oil),
	plant(27, 3, 0),
	plant(28, 4, 1, Uranium),
	plant(29, 4, 1, Coal, Oil),
	plant(30, 6, 3, Garbage),
	plant(31, 6, 3, Coal),
	plant(32, 6, 3, Oil),
	plant(33, 4, 0),
	plant(34, 5, 1, Uranium),
	plant(35, 5, 1, Oil),
	plant(36, 7, 3, Coal),
	plant(37, 4, 0),
	plant(38, 7, 3, Garbage),
	plant(39, 6, 1, Uranium),
	plant(40, 6, 2, Oil),
	plant(42, 6, 2, Coal),
	plant(44, 5, 0),
	plant(46, 7, 3, Coal, Oil),
	plant(50, 6, 0),
}

// FindPlant looks a plant up in the deck by price.
func FindPlant(price int) (Plant, bool) {
	i := slices.IndexFunc(Plants, func(p Plant) bool { return p.Price == price })
	if i < 0 {
		return Plant{}, false
	}
	return Plants[i], true
}
