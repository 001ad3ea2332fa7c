package game

import (
	"encoding/json"
	"math/rand/v2"
	"testing"

	"github.com/lox/powergrid/internal/board"
	"github.com/lox/powergrid/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, players int, opts ...Option) *Engine {
	t.Helper()
	e, err := New(players, "seed", opts...)
	require.NoError(t, err)
	return e
}

func eventNames(items []LogItem) []EventName {
	var out []EventName
	for _, item := range items {
		if item.Kind == KindEvent {
			out = append(out, item.Event.EventName())
		}
	}
	return out
}

func move(t *testing.T, e *Engine, name MoveName, data any) {
	t.Helper()
	require.NoError(t, e.Move(e.CurrentPlayer(), Command{Name: name, Data: data}))
}

func findAvailable(e *Engine, name MoveName) (AvailableCommand, bool) {
	for _, ac := range e.AvailableCommands {
		if ac.Move == name {
			return ac, true
		}
	}
	return AvailableCommand{}, false
}

// playRandom makes up to n uniformly chosen legal moves. onMove runs before
// each move with the chosen command.
func playRandom(t *testing.T, e *Engine, rng *rand.Rand, n int, onMove func(Command)) int {
	t.Helper()
	made := 0
	for ; made < n && !e.Ended() && !e.Stalled(); made++ {
		var choices []Command
		for _, ac := range e.AvailableCommands {
			choices = append(choices, ac.Choices()...)
		}
		require.NotEmpty(t, choices)
		cmd := choices[rng.IntN(len(choices))]
		if onMove != nil {
			onMove(cmd)
		}
		require.NoError(t, e.Move(e.CurrentPlayer(), cmd), "move %d: %v", made, cmd)
	}
	return made
}

func TestNewGame(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 2)

	assert.Equal(t, []PlayerColor{Black, Blue}, e.TurnOrder)
	assert.Equal(t, 1, e.Round)
	assert.Equal(t, PlantAuction, e.Phase)
	assert.Equal(t, board.Step1, e.MajorPhase)
	assert.Equal(t, e.TurnOrder[0], e.CurrentPlayer())
	assert.Nil(t, e.Auction)

	assert.Equal(t, []EventName{
		EventGameStart, EventTurnOrder, EventRoundStart, EventPhaseChange, EventCurrentPlayer,
	}, eventNames(e.Log))

	// Round one: everyone must buy, so nominating is the only option.
	require.Len(t, e.AvailableCommands, 1)
	assert.Equal(t, AvailableCommand{
		Move:   MoveAuction,
		Player: e.TurnOrder[0],
		Data:   AuctionOptions{Plants: []int{3, 4, 5, 6}},
	}, e.AvailableCommands[0])
}

func TestNewRejectsPlayerCount(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, 7} {
		_, err := New(n, "seed")
		assert.ErrorIs(t, err, ErrPlayerCount, "players %d", n)
	}
}

func TestSameSeedSameGame(t *testing.T) {
	t.Parallel()

	a := newTestEngine(t, 4)
	b := newTestEngine(t, 4)
	assert.Equal(t, a.TurnOrder, b.TurnOrder)
	assert.Equal(t, a.Board.Draw, b.Board.Draw)
}

func TestAuctionOnlyOffersAffordablePlants(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 2)
	e.Board.Market.Current.Plants = []board.Plant{
		mustPlant(t, 4), mustPlant(t, 8), mustPlant(t, 10), mustPlant(t, 15),
	}
	p, _ := e.Player(e.CurrentPlayer())
	p.Money = 30
	e.generateAvailableCommands()

	ac, ok := findAvailable(e, MoveAuction)
	require.True(t, ok)
	assert.Equal(t, AuctionOptions{Plants: []int{4, 8, 10}}, ac.Data)

	logLen := len(e.Log)
	err := e.Move(p.Color, Command{Name: MoveAuction, Data: AuctionData{Plant: 15}})
	require.ErrorIs(t, err, ErrIllegalMove)

	var illegal *IllegalMoveError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, p.Color, illegal.Player)
	assert.Equal(t, MoveAuction, illegal.Move)
	assert.Len(t, e.Log, logLen, "rejected move must not be logged")

	require.NoError(t, e.Move(p.Color, Command{Name: MoveAuction, Data: AuctionData{Plant: 10}}))
	require.NotNil(t, e.Auction)
	assert.Equal(t, 10, e.Auction.Plant.Price)
}

func TestMoveRejections(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 3)
	first := e.CurrentPlayer()
	second := e.TurnOrder[1]

	err := e.Move(second, Command{Name: MoveAuction, Data: AuctionData{Plant: 3}})
	assert.ErrorIs(t, err, ErrIllegalMove, "out of turn")

	err = e.Move(first, Command{Name: MovePass})
	assert.ErrorIs(t, err, ErrIllegalMove, "round one pass")

	err = e.Move(first, Command{Name: MoveBid, Data: BidData{Bid: 3}})
	assert.ErrorIs(t, err, ErrIllegalMove, "bid without auction")

	err = e.Move(first, Command{Name: MoveAuction})
	assert.ErrorIs(t, err, ErrIllegalMove, "missing data")

	err = e.Move(PlayerColor("chartreuse"), Command{Name: MovePass})
	assert.ErrorIs(t, err, ErrUnknownPlayer)
}

func TestAuctionRound(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 2)
	a, b := e.TurnOrder[0], e.TurnOrder[1]

	move(t, e, MoveAuction, AuctionData{Plant: 3})
	require.NotNil(t, e.Auction)
	assert.Equal(t, []PlayerColor{a, b}, e.Auction.Participants)
	assert.Equal(t, a, e.CurrentPlayer())

	// The nominator opens the bidding and cannot pass before a bid exists.
	_, ok := findAvailable(e, MovePass)
	assert.False(t, ok)
	bid, ok := findAvailable(e, MoveBid)
	require.True(t, ok)
	assert.Equal(t, BidRange{Range: [2]int{3, 50}}, bid.Data)

	move(t, e, MoveBid, BidData{Bid: 3})
	assert.Equal(t, b, e.CurrentPlayer())
	bid, ok = findAvailable(e, MoveBid)
	require.True(t, ok)
	assert.Equal(t, BidRange{Range: [2]int{4, 50}}, bid.Data)
	_, ok = findAvailable(e, MovePass)
	assert.True(t, ok)

	move(t, e, MovePass, nil)
	assert.Nil(t, e.Auction)

	pa, _ := e.Player(a)
	assert.Equal(t, 47, pa.Money)
	assert.True(t, pa.AcquiredPlant)
	assert.True(t, pa.AuctionDone)
	require.Len(t, pa.Plants, 1)
	assert.Equal(t, 3, pa.Plants[0].Price)

	// Plant 13 tops the draw pile and lands in the future market.
	assert.Equal(t, []int{4, 5, 6, 7}, prices(e.Board.Market.Current.Plants))
	assert.Equal(t, []int{8, 9, 10, 13}, prices(e.Board.Market.Future.Plants))

	// The loser still has to buy this round.
	assert.Equal(t, b, e.CurrentPlayer())
	move(t, e, MoveAuction, AuctionData{Plant: 4})
	assert.Equal(t, []PlayerColor{b}, e.Auction.Participants)
	move(t, e, MoveBid, BidData{Bid: 4})

	pb, _ := e.Player(b)
	assert.Equal(t, 46, pb.Money)
	assert.Len(t, e.Board.Market.Current.Plants, 4)
	assert.Len(t, e.Board.Market.Future.Plants, 4)

	assert.Equal(t, CommoditiesTrading, e.Phase)
	assert.Equal(t, b, e.CurrentPlayer(), "trading starts with the last player")
}

func countEvents(items []LogItem, name EventName) int {
	n := 0
	for _, got := range eventNames(items) {
		if got == name {
			n++
		}
	}
	return n
}

func TestEmptyDrawPileStartsStep3(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 2)
	a, b := e.TurnOrder[0], e.TurnOrder[1]
	e.Board.Draw.Plants.Current = nil

	move(t, e, MoveAuction, AuctionData{Plant: 3})
	move(t, e, MoveBid, BidData{Bid: 3})
	move(t, e, MovePass, nil)

	pa, _ := e.Player(a)
	assert.Equal(t, 47, pa.Money)
	require.Len(t, pa.Plants, 1)

	// No replacement: the market collapses into a single row of six and the
	// highest plant drops out.
	assert.Zero(t, countEvents(e.Log, EventDrawPlant))
	assert.Equal(t, 1, countEvents(e.Log, EventMajorPhaseChange))
	assert.Equal(t, board.Step3, e.MajorPhase)
	assert.Equal(t, 6, e.Board.Market.Current.Max)
	assert.Equal(t, 0, e.Board.Market.Future.Max)
	assert.Equal(t, []int{4, 5, 6, 7, 8, 9}, prices(e.Board.Market.Current.Plants))
	assert.Empty(t, e.Board.Market.Future.Plants)

	// A second purchase in step 3 neither draws nor changes step again.
	assert.Equal(t, b, e.CurrentPlayer())
	move(t, e, MoveAuction, AuctionData{Plant: 4})
	move(t, e, MoveBid, BidData{Bid: 4})

	assert.Zero(t, countEvents(e.Log, EventDrawPlant))
	assert.Equal(t, 1, countEvents(e.Log, EventMajorPhaseChange))
	assert.Equal(t, []int{5, 6, 7, 8, 9}, prices(e.Board.Market.Current.Plants))
	assert.LessOrEqual(t, len(e.Board.Market.Current.Plants), 6)
	assert.Equal(t, CommoditiesTrading, e.Phase)

	replayed, err := Replay(2, "seed", e.Log)
	require.NoError(t, err)
	assert.Equal(t, board.Step3, replayed.MajorPhase)
	assert.Equal(t, e.Board.Market, replayed.Board.Market)
	assert.Equal(t, e.Players, replayed.Players)
	assert.Equal(t, e.AvailableCommands, replayed.AvailableCommands)
}

func TestPhasesAndRoundRollover(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 2)
	a, b := e.TurnOrder[0], e.TurnOrder[1]

	move(t, e, MoveAuction, AuctionData{Plant: 3})
	move(t, e, MoveBid, BidData{Bid: 3})
	move(t, e, MovePass, nil)
	move(t, e, MoveAuction, AuctionData{Plant: 4})
	move(t, e, MoveBid, BidData{Bid: 4})
	require.Equal(t, CommoditiesTrading, e.Phase)

	// b owns the coal plant, so coal is on offer at the cheapest tier.
	buy, ok := findAvailable(e, MoveBuyResource)
	require.True(t, ok)
	assert.Equal(t, BuyResourceData{Resource: board.Coal, Price: 1}, buy.Data)

	move(t, e, MoveBuyResource, BuyResourceData{Resource: board.Coal, Price: 1})
	pb, _ := e.Player(b)
	assert.Equal(t, 1, pb.Resources[board.Coal])
	assert.Equal(t, 45, pb.Money)
	tier, _ := e.Board.Tier(1)
	assert.Equal(t, 2, tier.Resources.Current[board.Coal])

	err := e.Move(b, Command{Name: MoveBuyResource, Data: BuyResourceData{Resource: board.Coal, Price: 2}})
	assert.ErrorIs(t, err, ErrIllegalMove, "must buy from the cheapest tier")

	move(t, e, MovePass, nil)
	assert.Equal(t, a, e.CurrentPlayer(), "trading runs in reverse turn order")
	move(t, e, MovePass, nil)

	assert.Equal(t, Construction, e.Phase)
	assert.Equal(t, b, e.CurrentPlayer())
	move(t, e, MovePass, nil)
	move(t, e, MovePass, nil)

	assert.Equal(t, Bureaucracy, e.Phase)
	assert.Equal(t, a, e.CurrentPlayer())
	move(t, e, MovePass, nil)
	assert.Equal(t, b, e.CurrentPlayer())

	oilBefore := e.Board.Pool.Resources[board.Oil]
	move(t, e, MovePass, nil)

	assert.Equal(t, 2, e.Round)
	assert.Equal(t, PlantAuction, e.Phase)
	assert.Equal(t, e.TurnOrder[0], e.CurrentPlayer())
	assert.Equal(t, oilBefore-2, e.Board.Pool.Resources[board.Oil])
	for _, p := range e.Players {
		assert.False(t, p.AuctionDone)
		assert.False(t, p.AcquiredPlant)
	}

	names := eventNames(e.Log)
	tail := names[len(names)-5:]
	assert.Equal(t, []EventName{
		EventFillResources, EventRoundStart, EventTurnOrder, EventPhaseChange, EventCurrentPlayer,
	}, tail)

	// After round one a player may sit the auction out.
	_, ok = findAvailable(e, MovePass)
	assert.True(t, ok)
}

func TestStarvedAuctionPolicy(t *testing.T) {
	t.Parallel()

	t.Run("allow pass", func(t *testing.T) {
		e := newTestEngine(t, 2)
		p, _ := e.Player(e.CurrentPlayer())
		p.Money = 2
		e.generateAvailableCommands()

		assert.False(t, e.Stalled())
		require.Len(t, e.AvailableCommands, 1)
		assert.Equal(t, MovePass, e.AvailableCommands[0].Move)

		move(t, e, MovePass, nil)
		assert.True(t, p.AuctionDone)
		assert.Equal(t, e.TurnOrder[1], e.CurrentPlayer())
	})

	t.Run("strict", func(t *testing.T) {
		e := newTestEngine(t, 2, WithStarvedAuctionPolicy(StarvedStrict))
		p, _ := e.Player(e.CurrentPlayer())
		p.Money = 2
		e.generateAvailableCommands()

		assert.Empty(t, e.AvailableCommands)
		assert.True(t, e.Stalled())
	})
}

func TestMaxRoundsEndsGame(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 3, WithMaxRounds(2))
	rng := randutil.New(7)
	playRandom(t, e, rng, 2000, nil)

	require.True(t, e.Ended())
	assert.Equal(t, 2, e.Round)
	assert.Empty(t, e.AvailableCommands)
	assert.Equal(t, EventGameEnd, e.Log[len(e.Log)-1].Event.EventName())

	err := e.Move(e.TurnOrder[0], Command{Name: MovePass})
	assert.ErrorIs(t, err, ErrGameEnded)
}

func TestTurnOrderByScore(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 3, WithTurnOrderRule(TurnOrderByScore))
	x, y, z := e.TurnOrder[0], e.TurnOrder[1], e.TurnOrder[2]

	px, _ := e.Player(x)
	py, _ := e.Player(y)
	pz, _ := e.Player(z)
	pz.Cities = []string{"denver", "cheyenne"}
	py.Plants = []board.Plant{mustPlant(t, 20)}
	px.Plants = []board.Plant{mustPlant(t, 8)}

	assert.Equal(t, []PlayerColor{z, y, x}, e.nextTurnOrder())

	e.opts.turnOrder = TurnOrderKeep
	assert.Equal(t, []PlayerColor{x, y, z}, e.nextTurnOrder())
}

func TestAvailableCommandsAreSound(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 4, WithMaxRounds(3))
	rng := randutil.New(11)

	playRandom(t, e, rng, 1500, func(Command) {
		current := e.CurrentPlayer()
		for _, ac := range e.AvailableCommands {
			assert.Equal(t, current, ac.Player)
			for _, cmd := range ac.Choices() {
				assert.NoError(t, e.checkMove(ac.Player, cmd), "advertised %v", cmd)
			}
		}
	})
	assert.True(t, e.Ended())
}

func TestBidsStrictlyIncrease(t *testing.T) {
	t.Parallel()

	for seed := int64(0); seed < 5; seed++ {
		e := newTestEngine(t, 5, WithMaxRounds(2))
		rng := randutil.New(seed)

		var last *int
		playRandom(t, e, rng, 3000, func(cmd Command) {
			if e.Auction == nil {
				last = nil
				return
			}
			if cmd.Name != MoveBid {
				return
			}
			bid := cmd.Data.(BidData).Bid
			assert.GreaterOrEqual(t, bid, e.Auction.Plant.Price)
			if last != nil {
				assert.Greater(t, bid, *last)
			}
			last = &bid
		})
	}
}

func prices(plants []board.Plant) []int {
	out := make([]int, len(plants))
	for i, p := range plants {
		out[i] = p.Price
	}
	return out
}

func TestLogIsJSONReplayable(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 3, WithMaxRounds(3))
	playRandom(t, e, randutil.New(3), 400, nil)

	data, err := json.Marshal(e.Log)
	require.NoError(t, err)
	var items []LogItem
	require.NoError(t, json.Unmarshal(data, &items))

	replayed, err := Replay(3, "seed", items, WithMaxRounds(3))
	require.NoError(t, err)

	assert.Equal(t, e.Round, replayed.Round)
	assert.Equal(t, e.Phase, replayed.Phase)
	assert.Equal(t, e.CurrentPlayer(), replayed.CurrentPlayer())
	assert.Equal(t, e.Players, replayed.Players)
	assert.Equal(t, e.Board, replayed.Board)
	assert.Equal(t, e.AvailableCommands, replayed.AvailableCommands)
	assert.Len(t, replayed.Log, len(e.Log))
}
