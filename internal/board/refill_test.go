package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefillResourcesInitialTwoPlayers(t *testing.T) {
	t.Parallel()
	b := newTestBoard(t)

	got, err := b.RefillResources(2, Step1)
	require.NoError(t, err)

	want := Refill{
		2:  {Oil: 2},
		6:  {Garbage: 1},
		12: {Uranium: 1},
	}
	assert.Equal(t, want, got)
}

func TestRefillResourcesHighestTierFirst(t *testing.T) {
	t.Parallel()
	b := newTestBoard(t)
	for i := range b.Commodities {
		for _, r := range Resources {
			b.Commodities[i].Resources.Current[r] = 0
		}
	}

	got, err := b.RefillResources(6, Step2)
	require.NoError(t, err)

	// coal 9 over tiers 8, 7, 6
	assert.Equal(t, 3, got[8][Coal])
	assert.Equal(t, 3, got[7][Coal])
	assert.Equal(t, 3, got[6][Coal])
	assert.Zero(t, got[5][Coal])
	// uranium 3 goes to the three most expensive uranium tiers
	assert.Equal(t, 1, got[16][Uranium])
	assert.Equal(t, 1, got[14][Uranium])
	assert.Equal(t, 1, got[12][Uranium])
	assert.Zero(t, got[10][Uranium])
}

func TestRefillResourcesLimitedByPool(t *testing.T) {
	t.Parallel()
	b := newTestBoard(t)
	b.Pool.Resources[Oil] = 1
	b.Pool.Resources[Garbage] = 0

	got, err := b.RefillResources(2, Step1)
	require.NoError(t, err)

	assert.Equal(t, 1, got.Total(Oil))
	assert.Zero(t, got.Total(Garbage))
}

func TestRefillResourcesCapacity(t *testing.T) {
	t.Parallel()

	for players := 2; players <= 6; players++ {
		for _, step := range []MajorPhase{Step1, Step2, Step3} {
			b := newTestBoard(t)
			for i := range b.Commodities {
				b.Commodities[i].Resources.Current[Coal] = 0
			}
			pool := map[Resource]int{}
			for r, n := range b.Pool.Resources {
				pool[r] = n
			}

			got, err := b.RefillResources(players, step)
			require.NoError(t, err)

			for _, r := range Resources {
				scripted, err := RefillAmount(players, step, r)
				require.NoError(t, err)
				assert.LessOrEqual(t, got.Total(r), min(pool[r], scripted))
			}

			require.NoError(t, b.ApplyRefill(got))
			for _, tier := range b.Commodities {
				for _, r := range Resources {
					assert.LessOrEqual(t, tier.Resources.Current[r], tier.Resources.Max[r],
						"players=%d step=%s tier=%d %s", players, step, tier.Price, r)
				}
			}
			for _, r := range Resources {
				assert.Equal(t, pool[r]-got.Total(r), b.Pool.Resources[r])
			}
		}
	}
}

func TestRefillUnsupportedPlayerCount(t *testing.T) {
	t.Parallel()
	b := newTestBoard(t)

	_, err := b.RefillResources(7, Step1)
	assert.Error(t, err)
}

func TestApplyRefillRejectsOverflow(t *testing.T) {
	t.Parallel()
	b := newTestBoard(t)

	err := b.ApplyRefill(Refill{1: {Coal: 1}})
	require.Error(t, err)
	assert.Equal(t, 3, b.Commodities[0].Resources.Current[Coal])
	assert.Equal(t, 24, b.Pool.Resources[Coal])
}

func TestRefillPrices(t *testing.T) {
	t.Parallel()

	r := Refill{12: {Uranium: 1}, 2: {Oil: 2}, 6: {Garbage: 1}}
	assert.Equal(t, []int{2, 6, 12}, r.Prices())
}
