package game

// PlayerColor identifies a player.
type PlayerColor string

const (
	Red    PlayerColor = "red"
	Blue   PlayerColor = "blue"
	Green  PlayerColor = "green"
	Yellow PlayerColor = "yellow"
	Purple PlayerColor = "purple"
	Black  PlayerColor = "black"
)

// Colors are the selectable player colors, in table order.
var Colors = []PlayerColor{Red, Blue, Green, Yellow, Purple, Black}

// RoundPhase is one of the four stages of a round.
type RoundPhase string

const (
	PlantAuction       RoundPhase = "plantauction"
	CommoditiesTrading RoundPhase = "commoditiestrading"
	Construction       RoundPhase = "construction"
	Bureaucracy        RoundPhase = "bureaucracy"
)

// RoundPhases lists the phases in play order.
var RoundPhases = []RoundPhase{PlantAuction, CommoditiesTrading, Construction, Bureaucracy}

func (p RoundPhase) String() string {
	return string(p)
}

// Next returns the phase that follows p. Bureaucracy wraps to PlantAuction;
// the wrap itself is a new round.
func (p RoundPhase) Next() RoundPhase {
	switch p {
	case PlantAuction:
		return CommoditiesTrading
	case CommoditiesTrading:
		return Construction
	case Construction:
		return Bureaucracy
	}
	return PlantAuction
}

// Ascending reports whether players act in turn order during p. The other
// phases walk the turn order backwards.
func (p RoundPhase) Ascending() bool {
	return p == PlantAuction || p == Bureaucracy
}

// MoveName names a player move.
type MoveName string

const (
	MovePass        MoveName = "pass"
	MoveAuction     MoveName = "auction"
	MoveBid         MoveName = "bid"
	MoveBuyResource MoveName = "buyresource"
)

// StarvedAuctionPolicy decides what a player may do in the plant auction
// when no market plant is affordable.
type StarvedAuctionPolicy string

const (
	// StarvedAllowPass lets the player pass, even in the first round.
	StarvedAllowPass StarvedAuctionPolicy = "pass"
	// StarvedStrict keeps the first-round buying obligation. A starved
	// player then has no legal move and the engine reports Stalled.
	StarvedStrict StarvedAuctionPolicy = "strict"
)

// TurnOrderRule names how the turn order is re-baselined each round.
type TurnOrderRule string

const (
	TurnOrderKeep    TurnOrderRule = "keep"
	TurnOrderByScore TurnOrderRule = "score"
)
