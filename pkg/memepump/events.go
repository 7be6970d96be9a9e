package memepump

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var (
	ErrUnknownEventKind = errors.New("unknown event kind")
	ErrMalformedEvent   = errors.New("malformed event")
)

// EventKind discriminates the streaming events understood by the market store.
type EventKind string

// Wire values of the "type" field.
const (
	KindCoinsSnapshot EventKind = "coins"
	KindCoinCreated   EventKind = "coinCreated"
	KindTrade         EventKind = "trade"
	KindComment       EventKind = "comment"
)

// Event is a validated streaming event. The concrete types are
// *CoinsSnapshotEvent, *CoinCreatedEvent, *TradeEvent and *CommentEvent.
type Event interface {
	Kind() EventKind
}

// CoinsSnapshotEvent replaces the whole coin collection.
type CoinsSnapshotEvent struct {
	Coins []Coin
}

// CoinCreatedEvent announces a newly launched coin.
type CoinCreatedEvent struct {
	Coin Coin
}

// TradeEvent carries an executed trade and the authoritative post-trade coin state.
type TradeEvent struct {
	Trade Trade
	Coin  Coin
}

// CommentEvent carries a new comment on a coin.
type CommentEvent struct {
	Comment Comment
}

func (*CoinsSnapshotEvent) Kind() EventKind { return KindCoinsSnapshot }
func (*CoinCreatedEvent) Kind() EventKind   { return KindCoinCreated }
func (*TradeEvent) Kind() EventKind         { return KindTrade }
func (*CommentEvent) Kind() EventKind       { return KindComment }

// DecodeEvent parses one JSON text frame into a validated Event.
// Errors wrap ErrUnknownEventKind or ErrMalformedEvent.
func DecodeEvent(frame []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: decode envelope: %v", ErrMalformedEvent, err)
	}

	switch EventKind(env.Type) {
	case KindCoinsSnapshot:
		var coins []Coin
		if len(env.Data) > 0 && string(env.Data) != "null" {
			if err := json.Unmarshal(env.Data, &coins); err != nil {
				return nil, fmt.Errorf("%w: decode coins: %v", ErrMalformedEvent, err)
			}
		}
		for i := range coins {
			if err := ValidateCoin(&coins[i]); err != nil {
				return nil, fmt.Errorf("coins[%d]: %w", i, err)
			}
		}
		return &CoinsSnapshotEvent{Coins: coins}, nil

	case KindCoinCreated:
		var coin Coin
		if err := unmarshalData(env.Data, &coin); err != nil {
			return nil, err
		}
		if err := ValidateCoin(&coin); err != nil {
			return nil, err
		}
		return &CoinCreatedEvent{Coin: coin}, nil

	case KindTrade:
		var p TradePayload
		if err := unmarshalData(env.Data, &p); err != nil {
			return nil, err
		}
		if err := ValidateTrade(&p.Trade); err != nil {
			return nil, err
		}
		if err := ValidateCoin(&p.Coin); err != nil {
			return nil, err
		}
		if p.Coin.ID != p.Trade.CoinID {
			return nil, fmt.Errorf("%w: trade coinId %q does not match coin %q", ErrMalformedEvent, p.Trade.CoinID, p.Coin.ID)
		}
		return &TradeEvent{Trade: p.Trade, Coin: p.Coin}, nil

	case KindComment:
		var c Comment
		if err := unmarshalData(env.Data, &c); err != nil {
			return nil, err
		}
		if c.ID == "" || c.CoinID == "" {
			return nil, fmt.Errorf("%w: comment requires id and coinId", ErrMalformedEvent)
		}
		return &CommentEvent{Comment: c}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventKind, env.Type)
	}
}

func unmarshalData(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return fmt.Errorf("%w: missing data", ErrMalformedEvent)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: decode data: %v", ErrMalformedEvent, err)
	}
	return nil
}

// ValidateCoin checks the required fields of a coin and clamps progress into [0,100].
func ValidateCoin(c *Coin) error {
	if c.ID == "" {
		return fmt.Errorf("%w: coin requires id", ErrMalformedEvent)
	}
	if !(c.Price > 0) || math.IsInf(c.Price, 0) {
		return fmt.Errorf("%w: coin %s has non-positive price", ErrMalformedEvent, c.ID)
	}
	if c.MarketCap < 0 || math.IsNaN(c.MarketCap) {
		return fmt.Errorf("%w: coin %s has invalid marketCap", ErrMalformedEvent, c.ID)
	}
	if c.Holders < 0 {
		return fmt.Errorf("%w: coin %s has negative holders", ErrMalformedEvent, c.ID)
	}
	switch {
	case math.IsNaN(c.Progress) || c.Progress < 0:
		c.Progress = 0
	case c.Progress > 100:
		c.Progress = 100
	}
	return nil
}

// ValidateTrade checks the required fields of a trade.
func ValidateTrade(t *Trade) error {
	if t.ID == "" || t.CoinID == "" {
		return fmt.Errorf("%w: trade requires id and coinId", ErrMalformedEvent)
	}
	if !t.Type.Valid() {
		return fmt.Errorf("%w: trade %s has type %q", ErrMalformedEvent, t.ID, t.Type)
	}
	if !(t.Amount > 0) {
		return fmt.Errorf("%w: trade %s has non-positive amount", ErrMalformedEvent, t.ID)
	}
	return nil
}
