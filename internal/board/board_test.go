package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/powergrid/internal/randutil"
)

func newTestBoard(t *testing.T) *Board {
	t.Helper()
	b, err := New(randutil.NewSource("seed"))
	require.NoError(t, err)
	return b
}

func prices(plants []Plant) []int {
	out := make([]int, len(plants))
	for i, p := range plants {
		out[i] = p.Price
	}
	return out
}

func TestNewBoard(t *testing.T) {
	t.Parallel()
	b := newTestBoard(t)

	assert.Equal(t, []int{3, 4, 5, 6}, prices(b.Market.Current.Plants))
	assert.Equal(t, []int{7, 8, 9, 10}, prices(b.Market.Future.Plants))
	assert.Equal(t, 13, b.Draw.Plants.Current[0].Price, "plant 13 starts on top of the pile")
	assert.Len(t, b.Draw.Plants.Current, len(Plants)-8)
	for _, p := range b.Draw.Plants.Current {
		assert.Greater(t, p.Price, 10)
	}
	assert.Equal(t, 12, b.Pool.Resources[Uranium])
	assert.Greater(t, len(b.Map.Links), 5)
}

func TestNewBoardDeterministic(t *testing.T) {
	t.Parallel()

	a, err := New(randutil.NewSource("same"))
	require.NoError(t, err)
	b, err := New(randutil.NewSource("same"))
	require.NoError(t, err)

	assert.Equal(t, prices(a.Draw.Plants.Current), prices(b.Draw.Plants.Current))
}

func TestCommoditiesAscending(t *testing.T) {
	t.Parallel()
	b := newTestBoard(t)

	for i := 1; i < len(b.Commodities); i++ {
		assert.Less(t, b.Commodities[i-1].Price, b.Commodities[i].Price)
	}
}

func TestReorderMarkets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		current     []int
		future      []int
		wantCurrent []int
		wantFuture  []int
	}{
		{"already sorted", []int{3, 4, 5, 6}, []int{7, 8, 9, 10}, []int{3, 4, 5, 6}, []int{7, 8, 9, 10}},
		{"new cheap plant in future", []int{4, 5, 6, 7}, []int{8, 9, 10, 3}, []int{3, 4, 5, 6}, []int{7, 8, 9, 10}},
		{"short market", []int{10}, []int{4, 30}, []int{4, 10, 30}, []int{}},
		{"overflow is dropped", []int{3, 4, 5, 6}, []int{7, 8, 9, 10, 11}, []int{3, 4, 5, 6}, []int{7, 8, 9, 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBoard(t)
			b.Market.Current.Plants = deckPlants(t, tt.current)
			b.Market.Future.Plants = deckPlants(t, tt.future)

			b.ReorderMarkets()

			assert.Equal(t, tt.wantCurrent, prices(b.Market.Current.Plants))
			assert.Equal(t, tt.wantFuture, prices(b.Market.Future.Plants))
			assert.LessOrEqual(t, len(b.Market.Current.Plants), b.Market.Current.Max)
			for _, a := range b.Market.Current.Plants {
				for _, f := range b.Market.Future.Plants {
					assert.LessOrEqual(t, a.Price, f.Price)
				}
			}
		})
	}
}

func TestReorderMarketsStableOnTies(t *testing.T) {
	t.Parallel()
	b := newTestBoard(t)

	first := Plant{Price: 5, Intake: 1, Energy: []Resource{Coal}}
	second := Plant{Price: 5, Intake: 2, Energy: []Resource{Oil}}
	b.Market.Current.Plants = []Plant{first}
	b.Market.Future.Plants = []Plant{second}

	b.ReorderMarkets()

	require.Len(t, b.Market.Current.Plants, 2)
	assert.Equal(t, first, b.Market.Current.Plants[0])
	assert.Equal(t, second, b.Market.Current.Plants[1])
}

func TestDrawPlant(t *testing.T) {
	t.Parallel()
	b := newTestBoard(t)

	top, ok := b.PeekPlant()
	require.True(t, ok)
	drawn, ok := b.DrawPlant()
	require.True(t, ok)
	assert.Equal(t, top, drawn)

	b.Draw.Plants.Current = nil
	_, ok = b.DrawPlant()
	assert.False(t, ok, "exhausted pile is not an error")
}

func TestMarketPlantRemoveAdd(t *testing.T) {
	t.Parallel()
	b := newTestBoard(t)

	p, ok := b.MarketPlant(5)
	require.True(t, ok)
	assert.True(t, p.Hybrid())

	_, ok = b.MarketPlant(9)
	assert.False(t, ok, "future plants are not in the current market")

	require.True(t, b.RemoveMarketPlant(5))
	assert.False(t, b.RemoveMarketPlant(5))

	thirteen, _ := FindPlant(13)
	b.AddMarketPlant(thirteen)
	assert.Equal(t, []int{3, 4, 6, 7}, prices(b.Market.Current.Plants))
	assert.Equal(t, []int{8, 9, 10, 13}, prices(b.Market.Future.Plants))
}

func TestCheapestTier(t *testing.T) {
	t.Parallel()
	b := newTestBoard(t)

	tier, ok := b.CheapestTier(Oil)
	require.True(t, ok)
	assert.Equal(t, 3, tier.Price)

	tier, ok = b.CheapestTier(Uranium)
	require.True(t, ok)
	assert.Equal(t, 14, tier.Price)
}

func deckPlants(t *testing.T, prices []int) []Plant {
	t.Helper()
	out := make([]Plant, 0, len(prices))
	for _, price := range prices {
		p, ok := FindPlant(price)
		require.True(t, ok, "plant %d", price)
		out = append(out, p)
	}
	return out
}
