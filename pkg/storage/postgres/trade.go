package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"memepump/pkg/memepump"

	"gorm.io/gorm/clause"
)

// ErrDuplicateTrade is returned by InsertTrade when the trade id is already archived.
var ErrDuplicateTrade = errors.New("duplicate trade skipped")

func (p *Client) InsertTrade(ctx context.Context, record *TradeRecord) error {
	tx := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "trade_id"}},
		DoNothing: true,
	}).Create(record)

	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return fmt.Errorf("%w: trade=%s coin=%s", ErrDuplicateTrade, record.TradeID, record.CoinID)
	}

	return nil
}

// GetTradesByCoin returns up to limit archived trades of one coin, most recent first.
func (p *Client) GetTradesByCoin(ctx context.Context, coinID string, limit int) ([]TradeRecord, error) {
	var records []TradeRecord
	q := p.DB.WithContext(ctx).
		Where("coin_id = ?", coinID).
		Order("timestamp DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (p *Client) DeleteOldTrades(ctx context.Context, before time.Time) (int64, error) {
	tx := p.DB.WithContext(ctx).
		Where("timestamp < ?", before).
		Delete(&TradeRecord{})
	return tx.RowsAffected, tx.Error
}

// ToTradeRecord converts a trade and its post-trade coin into a TradeRecord.
// A zero trade timestamp is replaced by receivedAt.
func ToTradeRecord(t memepump.Trade, c memepump.Coin, receivedAt time.Time) (*TradeRecord, error) {
	if err := memepump.ValidateTrade(&t); err != nil {
		return nil, err
	}
	if t.CoinID != c.ID {
		return nil, fmt.Errorf("trade %s belongs to coin %s, got coin %s", t.ID, t.CoinID, c.ID)
	}

	ts := t.Timestamp
	if ts.IsZero() {
		ts = receivedAt
	}

	return &TradeRecord{
		TradeID:       t.ID,
		CoinID:        t.CoinID,
		Side:          string(t.Type),
		Amount:        t.Amount,
		Price:         t.Price,
		Wallet:        t.Wallet,
		Username:      t.Username,
		CoinPrice:     c.Price,
		CoinMarketCap: c.MarketCap,
		CoinProgress:  c.Progress,
		Timestamp:     ts.UTC(),
	}, nil
}
