package snapshot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"memepump/internal/market/memorystore"
	"memepump/pkg/memepump"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type fakeSource struct {
	mu        sync.Mutex
	coins     []memepump.Coin
	trades    []memepump.Trade
	comments  map[string][]memepump.Comment
	coinsErr  error
	tradesErr error
	coinCalls int
	onCoins   func() // runs before GetCoins returns
}

func (f *fakeSource) GetCoins(context.Context) ([]memepump.Coin, error) {
	if f.onCoins != nil {
		f.onCoins()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.coinCalls++
	return f.coins, f.coinsErr
}

func (f *fakeSource) GetTrades(context.Context) ([]memepump.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.trades, f.tradesErr
}

func (f *fakeSource) GetComments(_ context.Context, coinID string) ([]memepump.Comment, error) {
	return f.comments[coinID], nil
}

func (f *fakeSource) setCoins(coins []memepump.Coin) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.coins = coins
}

func (f *fakeSource) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.coinCalls
}

func newLoader(src *fakeSource) *Loader {
	return &Loader{
		Source:  src,
		Store:   memorystore.NewMarketStore(zap.NewNop()),
		Logger:  zap.NewNop(),
		Timeout: time.Second,
	}
}

var (
	c1 = memepump.Coin{ID: "c1", Name: "Pepe", Symbol: "PEPE", Price: 0.00001}
	c2 = memepump.Coin{ID: "c2", Name: "Doge", Symbol: "DOGE", Price: 0.5, MarketCap: 50}
	t1 = memepump.Trade{ID: "t1", CoinID: "c1", Type: memepump.SideBuy, Amount: 1, Price: 0.00001}
)

func TestBootstrapSeedsStore(t *testing.T) {
	l := newLoader(&fakeSource{coins: []memepump.Coin{c1, c2}, trades: []memepump.Trade{t1}})

	require.NoError(t, l.Bootstrap(context.Background()))

	snap := l.Store.Snapshot()
	assert.Len(t, snap.Coins, 2)
	assert.Len(t, snap.Trades, 1)
}

func TestBootstrapPartialFailureKeepsExisting(t *testing.T) {
	src := &fakeSource{coins: []memepump.Coin{c1}, trades: []memepump.Trade{t1}}
	l := newLoader(src)
	require.NoError(t, l.Bootstrap(context.Background()))

	src.coins = []memepump.Coin{c1, c2}
	src.tradesErr = errors.New("502 bad gateway")

	err := l.Bootstrap(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch trades")

	snap := l.Store.Snapshot()
	assert.Len(t, snap.Coins, 2)
	require.Len(t, snap.Trades, 1)
	assert.Equal(t, "t1", snap.Trades[0].ID)
}

func TestBootstrapTotalFailureLeavesStoreUntouched(t *testing.T) {
	l := newLoader(&fakeSource{coinsErr: errors.New("refused"), tradesErr: errors.New("refused")})

	err := l.Bootstrap(context.Background())
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Equal(t, uint64(0), l.Store.Snapshot().Version)
}

func TestLoadComments(t *testing.T) {
	l := newLoader(&fakeSource{comments: map[string][]memepump.Comment{
		"c1": {{ID: "m1", Content: "first"}, {ID: "m2", Content: "second"}},
	}})

	require.NoError(t, l.LoadComments(context.Background(), "c1"))
	got := l.Store.Snapshot().CommentsFor("c1")
	require.Len(t, got, 2)
	assert.Equal(t, "m1", got[0].ID)
}

func TestReconcilerAppliesSnapshots(t *testing.T) {
	src := &fakeSource{coins: []memepump.Coin{c1}}
	l := newLoader(src)
	require.NoError(t, l.Bootstrap(context.Background()))

	src.setCoins([]memepump.Coin{c1, c2})
	r := &Reconciler{Loader: l, Interval: 10 * time.Millisecond}
	r.Start(context.Background())
	defer r.Stop()

	require.Eventually(t, func() bool {
		return len(l.Store.Snapshot().Coins) == 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestReconcilerStopAndDisabled(t *testing.T) {
	src := &fakeSource{coins: []memepump.Coin{c1}}
	l := newLoader(src)

	disabled := &Reconciler{Loader: l}
	disabled.Start(context.Background())
	disabled.Stop()
	assert.Zero(t, src.calls())

	r := &Reconciler{Loader: l, Interval: 5 * time.Millisecond}
	r.Start(context.Background())
	require.Eventually(t, func() bool { return src.calls() > 0 }, 2*time.Second, time.Millisecond)
	r.Stop()

	after := src.calls()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, src.calls())
}

func TestReconcileDoesNotRollBackLiveTrade(t *testing.T) {
	src := &fakeSource{coins: []memepump.Coin{c1}}
	l := newLoader(src)
	require.NoError(t, l.Bootstrap(context.Background()))

	traded := c1
	traded.Price, traded.MarketCap, traded.Progress = 0.00002, 500, 50
	src.onCoins = func() {
		require.True(t, l.Store.ApplyEvent(&memepump.TradeEvent{Trade: t1, Coin: traded}))
	}

	r := &Reconciler{Loader: l, Interval: time.Minute}
	r.runOnce(context.Background())

	got, ok := l.Store.Snapshot().Coin("c1")
	require.True(t, ok)
	assert.Equal(t, 0.00002, got.Price)
	assert.Equal(t, 500.0, got.MarketCap)
	assert.Equal(t, 50.0, got.Progress)

	// with no concurrent write the next pass applies
	src.onCoins = nil
	src.setCoins([]memepump.Coin{traded, c2})
	r.runOnce(context.Background())
	assert.Len(t, l.Store.Snapshot().Coins, 2)
}
