package snapshot

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Reconciler periodically re-fetches the coin catalogue and applies it as a
// coins snapshot, so a stale view heals even when the server stops pushing.
type Reconciler struct {
	Loader   *Loader
	Interval time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Start runs the reconcile loop in the background until Stop or ctx is done.
// A non-positive Interval disables it.
func (r *Reconciler) Start(ctx context.Context) {
	if r.Interval <= 0 {
		r.Loader.Logger.Info("reconciler disabled")
		return
	}

	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(r.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.runOnce(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for an in-flight fetch to return.
func (r *Reconciler) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

func (r *Reconciler) runOnce(ctx context.Context) {
	if r.Loader.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Loader.Timeout)
		defer cancel()
	}

	version := r.Loader.Store.Snapshot().Version
	coins, err := r.Loader.Source.GetCoins(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.Loader.Logger.Warn("reconcile fetch failed", zap.Error(err))
		}
		return
	}
	if !r.Loader.Store.ReconcileCoins(version, coins) {
		r.Loader.Logger.Debug("store changed during fetch, skipping reconcile", zap.Uint64("since", version))
		return
	}
	r.Loader.Logger.Debug("reconciled coins", zap.Int("count", len(coins)))
}
