package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"memepump/internal/curve"
	"memepump/internal/market/memorystore"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var statusEvery time.Duration

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Sync the market and keep it live until interrupted",
	Long: `Seed coins and trades over REST, connect the live stream, and serve the
read-only view API. Runs until SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		d, err := openDashboard(cmd)
		if err != nil {
			return err
		}
		defer func() {
			if err := d.Close(); err != nil {
				log.Warn("teardown finished with errors", zap.Error(err))
			}
		}()

		if err := d.Start(ctx); err != nil {
			return err
		}

		// Periodically print market size for visibility
		if statusEvery <= 0 {
			statusEvery = 30 * time.Second
		}
		ticker := time.NewTicker(statusEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Info("shutting down")
				return nil
			case <-ticker.C:
				logMarket(d.Store.Snapshot(), d.ConnState().String())
			}
		}
	},
}

func logMarket(snap *memorystore.Snapshot, state string) {
	fields := []zap.Field{
		zap.String("connection", state),
		zap.Int("coins", len(snap.Coins)),
		zap.Int("trades", len(snap.Trades)),
	}
	if king, ok := snap.KingOfTheHill(); ok {
		fields = append(fields,
			zap.String("king", king.Symbol),
			zap.String("king_market_cap", curve.FormatMarketCap(king.MarketCap)))
	}
	log.Info("current market", fields...)
}

func init() {
	runCmd.Flags().DurationVar(&statusEvery, "status-every", 30*time.Second, "Interval between market summaries")
	rootCmd.AddCommand(runCmd)
}
