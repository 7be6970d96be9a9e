package snapshot

import (
	"context"
	"fmt"
	"time"

	"memepump/internal/market/memorystore"
	"memepump/pkg/memepump"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Source is the subset of the REST API the loader reads from.
// *memepump.RESTClient satisfies it.
type Source interface {
	GetCoins(ctx context.Context) ([]memepump.Coin, error)
	GetTrades(ctx context.Context) ([]memepump.Trade, error)
	GetComments(ctx context.Context, coinID string) ([]memepump.Comment, error)
}

type Loader struct {
	Source  Source
	Store   *memorystore.MarketStore
	Logger  *zap.Logger
	Timeout time.Duration // per bootstrap; 0 means no extra deadline
}

// Bootstrap fetches coins and trades concurrently and seeds the store.
// If one fetch fails the store keeps its current collection for it; if both
// fail the store is left untouched. The returned error combines every failure.
func (l *Loader) Bootstrap(ctx context.Context) error {
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	var (
		coins               []memepump.Coin
		trades              []memepump.Trade
		coinsErr, tradesErr error
		g                   errgroup.Group
	)
	// errors are kept per fetch so one failure does not cancel the other
	g.Go(func() error {
		coins, coinsErr = l.Source.GetCoins(ctx)
		return nil
	})
	g.Go(func() error {
		trades, tradesErr = l.Source.GetTrades(ctx)
		return nil
	})
	_ = g.Wait()

	if coinsErr != nil && tradesErr != nil {
		err := multierr.Combine(
			fmt.Errorf("fetch coins: %w", coinsErr),
			fmt.Errorf("fetch trades: %w", tradesErr),
		)
		l.Logger.Error("bootstrap failed, keeping current market state", zap.Error(err))
		return err
	}

	var err error
	current := l.Store.Snapshot()
	if coinsErr != nil {
		err = multierr.Append(err, fmt.Errorf("fetch coins: %w", coinsErr))
		coins = current.Coins
	}
	if tradesErr != nil {
		err = multierr.Append(err, fmt.Errorf("fetch trades: %w", tradesErr))
		trades = current.Trades
	}

	l.Store.Seed(coins, trades)
	snap := l.Store.Snapshot()
	if err != nil {
		l.Logger.Warn("bootstrap partially failed", zap.Error(err),
			zap.Int("coins", len(snap.Coins)), zap.Int("trades", len(snap.Trades)))
		return err
	}
	l.Logger.Info("bootstrap complete", zap.Int("coins", len(snap.Coins)), zap.Int("trades", len(snap.Trades)))
	return nil
}

// LoadComments fetches one coin's comment history and merges it into the store.
func (l *Loader) LoadComments(ctx context.Context, coinID string) error {
	comments, err := l.Source.GetComments(ctx, coinID)
	if err != nil {
		l.Logger.Warn("failed to load comments", zap.String("coin", coinID), zap.Error(err))
		return fmt.Errorf("fetch comments for %s: %w", coinID, err)
	}
	l.Store.SeedComments(coinID, comments)
	l.Logger.Debug("loaded comments", zap.String("coin", coinID), zap.Int("count", len(comments)))
	return nil
}
