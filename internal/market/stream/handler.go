package stream

import (
	"context"
	"errors"
	"time"

	"memepump/internal/market/memorystore"
	"memepump/pkg/memepump"
	"memepump/pkg/storage/postgres"

	"go.uber.org/zap"
)

// archiveTimeout bounds a single archive insert.
const archiveTimeout = 2 * time.Second

// TradeArchive receives every trade applied to the store. *postgres.Client satisfies it.
type TradeArchive interface {
	InsertTrade(ctx context.Context, record *postgres.TradeRecord) error
}

// MakeMessageHandler returns a function that handles incoming WebSocket frames
// by decoding them into events and applying them to the market store.
// Unparseable frames are dropped with a diagnostic. archive may be nil.
func MakeMessageHandler(logger *zap.Logger, store *memorystore.MarketStore, archive TradeArchive) func(msg []byte) {
	return func(msg []byte) {
		ev, err := memepump.DecodeEvent(msg)
		if err != nil {
			logger.Warn("dropping stream frame", zap.Error(err), zap.Int("bytes", len(msg)))
			return
		}

		if !store.ApplyEvent(ev) {
			return
		}
		logger.Debug("applied event", zap.String("kind", string(ev.Kind())))

		trade, ok := ev.(*memepump.TradeEvent)
		if !ok || archive == nil {
			return
		}

		record, err := postgres.ToTradeRecord(trade.Trade, trade.Coin, time.Now())
		if err != nil {
			logger.Warn("failed to convert trade to trade record", zap.Error(err))
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		if err := archive.InsertTrade(ctx, record); err != nil {
			if errors.Is(err, postgres.ErrDuplicateTrade) {
				logger.Debug("trade already archived", zap.String("trade", record.TradeID))
				return
			}
			logger.Warn("failed to insert trade record", zap.String("trade", record.TradeID), zap.Error(err))
		}
	}
}
