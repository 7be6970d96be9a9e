package memorystore

import (
	"sync"
	"sync/atomic"

	"memepump/pkg/memepump"

	"go.uber.org/zap"
)

// Listener is called after every successful write with the new snapshot.
// Listeners run synchronously on the writer's goroutine, in subscription
// order, and must not write to the store.
type Listener func(*Snapshot)

type listenerEntry struct {
	id uint64
	fn Listener
}

// MarketStore is the single writer of coins, trades and comments. Writes are
// applied strictly one after another in call order; reads are lock-free and
// return immutable snapshots.
type MarketStore struct {
	writeMu sync.Mutex
	current atomic.Pointer[Snapshot]

	listenersMu sync.Mutex
	listeners   []listenerEntry
	nextID      uint64

	logger *zap.Logger
}

func NewMarketStore(logger *zap.Logger) *MarketStore {
	s := &MarketStore{logger: logger}
	s.current.Store(emptySnapshot)
	return s
}

// Snapshot returns the current state.
func (s *MarketStore) Snapshot() *Snapshot {
	return s.current.Load()
}

// Subscribe registers l and returns a function that removes it. The returned
// function is safe to call more than once and from inside a listener.
func (s *MarketStore) Subscribe(l Listener) (unsubscribe func()) {
	s.listenersMu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: l})
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		for i, e := range s.listeners {
			if e.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// Seed replaces the coin and trade collections. Comments are kept. Invalid
// entries are dropped with a diagnostic.
func (s *MarketStore) Seed(coins []memepump.Coin, trades []memepump.Trade) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	prev := s.current.Load()
	s.publish(&Snapshot{
		Coins:    s.validCoins(coins),
		Trades:   s.validTrades(trades),
		Comments: prev.Comments,
		Version:  prev.Version + 1,
	})
}

// SeedComments merges a fetched comment history for one coin with comments
// already received from the stream: fetched ones first, then stream-only ones.
func (s *MarketStore) SeedComments(coinID string, comments []memepump.Comment) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	prev := s.current.Load()
	merged := make([]memepump.Comment, 0, len(comments)+len(prev.Comments[coinID]))
	seen := make(map[string]bool, len(comments))
	for _, c := range comments {
		if c.ID == "" || seen[c.ID] {
			continue
		}
		c.CoinID = coinID
		seen[c.ID] = true
		merged = append(merged, c)
	}
	for _, c := range prev.Comments[coinID] {
		if !seen[c.ID] {
			merged = append(merged, c)
		}
	}

	next := *prev
	next.Comments = withComments(prev.Comments, coinID, merged)
	next.Version++
	s.publish(&next)
}

// ReconcileCoins replaces the coin collection with a fetched catalogue, but
// only if no write has landed since the snapshot at version was taken. A
// catalogue fetched before a live trade must not roll that trade back.
func (s *MarketStore) ReconcileCoins(version uint64, coins []memepump.Coin) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	prev := s.current.Load()
	if prev.Version != version {
		return false
	}
	next := *prev
	next.Version++
	next.Coins = s.validCoins(coins)
	next.coinIndex = nil
	s.publish(&next)
	return true
}

// ApplyEvent applies one streaming event. It reports whether the state
// changed; malformed events and duplicate coins are dropped, never returned
// as errors, and leave the store usable.
func (s *MarketStore) ApplyEvent(ev memepump.Event) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	prev := s.current.Load()
	next := *prev
	next.Version++

	switch e := ev.(type) {
	case *memepump.CoinsSnapshotEvent:
		if e == nil {
			s.logger.Warn("dropping empty coins event")
			return false
		}
		next.Coins = s.validCoins(e.Coins)
		next.coinIndex = nil

	case *memepump.CoinCreatedEvent:
		if e == nil || memepump.ValidateCoin(&e.Coin) != nil {
			s.logger.Warn("dropping malformed coinCreated event")
			return false
		}
		if _, exists := prev.coinIndex[e.Coin.ID]; exists {
			s.logger.Debug("ignoring duplicate coin", zap.String("coin", e.Coin.ID))
			return false
		}
		next.Coins = prepend(prev.Coins, e.Coin)
		next.coinIndex = nil

	case *memepump.TradeEvent:
		if e == nil || memepump.ValidateTrade(&e.Trade) != nil || memepump.ValidateCoin(&e.Coin) != nil ||
			e.Trade.CoinID != e.Coin.ID {
			s.logger.Warn("dropping malformed trade event")
			return false
		}
		next.Trades = prepend(prev.Trades, e.Trade)
		if i, ok := prev.coinIndex[e.Coin.ID]; ok {
			coins := make([]memepump.Coin, len(prev.Coins))
			copy(coins, prev.Coins)
			applyPostTrade(&coins[i], e.Coin)
			next.Coins = coins
		} else {
			s.logger.Debug("trade for unknown coin, inserting server state", zap.String("coin", e.Coin.ID))
			next.Coins = prepend(prev.Coins, e.Coin)
			next.coinIndex = nil
		}

	case *memepump.CommentEvent:
		if e == nil || e.Comment.ID == "" || e.Comment.CoinID == "" {
			s.logger.Warn("dropping malformed comment event")
			return false
		}
		existing := prev.Comments[e.Comment.CoinID]
		for _, c := range existing {
			if c.ID == e.Comment.ID {
				s.logger.Debug("ignoring duplicate comment", zap.String("comment", c.ID))
				return false
			}
		}
		next.Comments = withComments(prev.Comments, e.Comment.CoinID, appendCopy(existing, e.Comment))

	default:
		s.logger.Warn("dropping event of unknown kind", zap.Any("event", ev))
		return false
	}

	s.publish(&next)
	return true
}

// publish stores next and notifies listeners. Callers hold writeMu.
func (s *MarketStore) publish(next *Snapshot) {
	if next.coinIndex == nil {
		next.coinIndex = indexCoins(next.Coins)
	}
	if next.Comments == nil {
		next.Comments = map[string][]memepump.Comment{}
	}
	s.current.Store(next)

	s.listenersMu.Lock()
	listeners := make([]listenerEntry, len(s.listeners))
	copy(listeners, s.listeners)
	s.listenersMu.Unlock()

	for _, l := range listeners {
		l.fn(next)
	}
}

func (s *MarketStore) validCoins(in []memepump.Coin) []memepump.Coin {
	out := make([]memepump.Coin, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, c := range in {
		if err := memepump.ValidateCoin(&c); err != nil {
			s.logger.Warn("dropping invalid coin", zap.Error(err))
			continue
		}
		if seen[c.ID] {
			s.logger.Warn("dropping duplicate coin", zap.String("coin", c.ID))
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}

func (s *MarketStore) validTrades(in []memepump.Trade) []memepump.Trade {
	out := make([]memepump.Trade, 0, len(in))
	for _, t := range in {
		if err := memepump.ValidateTrade(&t); err != nil {
			s.logger.Warn("dropping invalid trade", zap.Error(err))
			continue
		}
		out = append(out, t)
	}
	return out
}

// applyPostTrade copies the server's post-trade state onto dst.
func applyPostTrade(dst *memepump.Coin, src memepump.Coin) {
	dst.Price = src.Price
	dst.MarketCap = src.MarketCap
	dst.Holders = src.Holders
	dst.Progress = src.Progress
	if src.TotalSupply > 0 {
		dst.TotalSupply = src.TotalSupply
	}
	dst.Graduated = dst.Graduated || src.Graduated
}

func prepend[T any](s []T, v T) []T {
	out := make([]T, 0, len(s)+1)
	out = append(out, v)
	return append(out, s...)
}

func appendCopy[T any](s []T, v T) []T {
	out := make([]T, 0, len(s)+1)
	out = append(out, s...)
	return append(out, v)
}

func withComments(m map[string][]memepump.Comment, coinID string, list []memepump.Comment) map[string][]memepump.Comment {
	out := make(map[string][]memepump.Comment, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[coinID] = list
	return out
}
