package memorystore

import (
	"testing"
	"time"

	"memepump/pkg/memepump"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T) *Snapshot {
	t.Helper()
	s := newStore(t)

	pepe := coin("1", 0.5, 300)
	pepe.Name, pepe.Symbol, pepe.Holders = "Pepe", "PEPE", 10
	doge := coin("2", 0.1, 900)
	doge.Name, doge.Symbol, doge.Holders = "Doge Moon", "DGM", 3
	cat := coin("3", 2, 100)
	cat.Name, cat.Symbol, cat.Holders = "Catcoin", "MEOW", 5
	cat.CreatedAt = cat.CreatedAt.Add(time.Hour)

	s.Seed([]memepump.Coin{pepe, doge, cat}, nil)
	return s.Snapshot()
}

func TestKingOfTheHill(t *testing.T) {
	king, ok := seeded(t).KingOfTheHill()
	require.True(t, ok)
	assert.Equal(t, "2", king.ID)

	_, ok = newStore(t).Snapshot().KingOfTheHill()
	assert.False(t, ok)
}

func TestFilterCoins(t *testing.T) {
	snap := seeded(t)

	assert.Len(t, snap.FilterCoins(""), 3)

	got := snap.FilterCoins("pe")
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)

	got = snap.FilterCoins("meow")
	require.Len(t, got, 1)
	assert.Equal(t, "3", got[0].ID)

	assert.Empty(t, snap.FilterCoins("zzz"))
}

func TestSortCoins(t *testing.T) {
	snap := seeded(t)
	ids := func(cs []memepump.Coin) []string {
		out := make([]string, len(cs))
		for i, c := range cs {
			out[i] = c.ID
		}
		return out
	}

	assert.Equal(t, []string{"2", "1", "3"}, ids(SortCoins(snap.Coins, SortMarketCap, false)))
	assert.Equal(t, []string{"2", "1", "3"}, ids(SortCoins(snap.Coins, SortPrice, true)))
	assert.Equal(t, []string{"1", "3", "2"}, ids(SortCoins(snap.Coins, SortHolders, false)))
	assert.Equal(t, "3", SortCoins(snap.Coins, SortCreatedAt, false)[0].ID)
	assert.Equal(t, []string{"2", "1", "3"}, ids(SortCoins(snap.Coins, "unknown", false)))

	// input is untouched
	assert.Equal(t, []string{"1", "2", "3"}, ids(snap.Coins))
}
