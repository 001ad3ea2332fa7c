package game

import (
	"maps"
	"slices"

	"github.com/lox/powergrid/internal/board"
)

const startingMoney = 50

// Player is the mutable per-player state.
type Player struct {
	Color     PlayerColor            `json:"color"`
	Money     int                    `json:"money"`
	Resources map[board.Resource]int `json:"resources"`
	Plants    []board.Plant          `json:"plants"`
	Cities    []string               `json:"cities"`
	// Reset every round.
	AcquiredPlant bool `json:"acquiredPlant"`
	AuctionDone   bool `json:"auctionDone"`
}

// NewPlayer returns a player with starting money and nothing else.
func NewPlayer(color PlayerColor) *Player {
	resources := make(map[board.Resource]int, len(board.Resources))
	for _, r := range board.Resources {
		resources[r] = 0
	}
	return &Player{
		Color:     color,
		Money:     startingMoney,
		Resources: resources,
		Plants:    []board.Plant{},
		Cities:    []string{},
	}
}

func (p *Player) clone() *Player {
	c := *p
	c.Resources = maps.Clone(p.Resources)
	c.Plants = slices.Clone(p.Plants)
	c.Cities = slices.Clone(p.Cities)
	return &c
}

// BeginRound clears the per-round flags.
func (p *Player) BeginRound() {
	p.AcquiredPlant = false
	p.AuctionDone = false
}

// Plant returns the owned plant with the given price.
func (p *Player) Plant(price int) (board.Plant, bool) {
	i := slices.IndexFunc(p.Plants, func(pl board.Plant) bool { return pl.Price == price })
	if i < 0 {
		return board.Plant{}, false
	}
	return p.Plants[i], true
}

// HighestPlant returns the price of the most expensive owned plant, or 0.
func (p *Player) HighestPlant() int {
	highest := 0
	for _, pl := range p.Plants {
		highest = max(highest, pl.Price)
	}
	return highest
}

// PlantsForResource returns the owned plants that burn r.
func (p *Player) PlantsForResource(r board.Resource) []board.Plant {
	var out []board.Plant
	for _, pl := range p.Plants {
		if pl.Burns(r) {
			out = append(out, pl)
		}
	}
	return out
}

// TotalSpace is how many units of r the player's plants can store: twice
// their combined intake.
func (p *Player) TotalSpace(r board.Resource) int {
	total := 0
	for _, pl := range p.PlantsForResource(r) {
		total += pl.Intake
	}
	return total * 2
}

// privateSpace counts only the plants that burn r alone.
func (p *Player) privateSpace(r board.Resource) int {
	total := 0
	for _, pl := range p.PlantsForResource(r) {
		if !pl.Hybrid() {
			total += pl.Intake
		}
	}
	return total * 2
}

// sharedPartner returns the resource r shares hybrid capacity with, along
// with the size of that shared capacity. A resource is assumed to share
// space with at most one other kind.
func (p *Player) sharedPartner(r board.Resource) (board.Resource, int) {
	var partner board.Resource
	shared := 0
	for _, pl := range p.PlantsForResource(r) {
		if !pl.Hybrid() {
			continue
		}
		shared += pl.Intake * 2
		for _, e := range pl.Energy {
			if e != r {
				partner = e
			}
		}
	}
	return partner, shared
}

// AvailableSpace is how many more units of r the player may hold. Hybrid
// plants contribute one pool shared by both of their resources; whatever
// either resource stores beyond its private space is taken from that pool.
func (p *Player) AvailableSpace(r board.Resource) int {
	private := p.privateSpace(r)
	held := p.Resources[r]
	free := max(0, private-held)

	partner, shared := p.sharedPartner(r)
	if shared == 0 {
		return free
	}

	ownOverflow := max(0, held-private)
	partnerOverflow := max(0, p.Resources[partner]-p.privateSpace(partner))
	return free + max(0, shared-ownOverflow-partnerOverflow)
}
