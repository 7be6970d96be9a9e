package postgres

import "time"

// TradeRecord is an archived trade together with the coin state it produced.
type TradeRecord struct {
	ID uint `gorm:"primaryKey"`

	TradeID string `gorm:"type:text;not null;uniqueIndex:idx_trade_record_trade_id"`
	CoinID  string `gorm:"type:text;not null;index:idx_trade_record_coin_ts,priority:1"`
	Side    string `gorm:"type:varchar(4);not null"`

	Amount float64 `gorm:"type:numeric;not null"`
	Price  float64 `gorm:"type:numeric;not null"`

	Wallet   string `gorm:"type:text"`
	Username string `gorm:"type:text"`

	// Server-reported coin state right after the trade
	CoinPrice     float64 `gorm:"type:numeric;not null"`
	CoinMarketCap float64 `gorm:"type:numeric;not null"`
	CoinProgress  float64 `gorm:"type:numeric;not null"`

	Timestamp time.Time `gorm:"not null;index:idx_trade_record_coin_ts,priority:2"`

	RecordedAt time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the default table name for GORM.
func (TradeRecord) TableName() string {
	return "trade_record"
}
