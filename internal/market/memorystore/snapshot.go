package memorystore

import (
	"sort"
	"strings"

	"memepump/pkg/memepump"
)

// Snapshot is an immutable view of the market state. Callers must not modify
// the slices or maps it returns; the store never does once it is published.
type Snapshot struct {
	Coins    []memepump.Coin              `json:"coins"`    // Newest coin-created first; snapshot order otherwise
	Trades   []memepump.Trade             `json:"trades"`   // Most recent first, in receipt order
	Comments map[string][]memepump.Comment `json:"comments"` // Keyed by coin id, insertion order
	Version  uint64                        `json:"version"`  // Incremented by every successful write

	coinIndex map[string]int
}

var emptySnapshot = &Snapshot{
	Coins:     []memepump.Coin{},
	Trades:    []memepump.Trade{},
	Comments:  map[string][]memepump.Comment{},
	coinIndex: map[string]int{},
}

func indexCoins(coins []memepump.Coin) map[string]int {
	idx := make(map[string]int, len(coins))
	for i, c := range coins {
		if _, dup := idx[c.ID]; !dup {
			idx[c.ID] = i
		}
	}
	return idx
}

// Coin returns the coin with the given id.
func (s *Snapshot) Coin(id string) (memepump.Coin, bool) {
	i, ok := s.coinIndex[id]
	if !ok {
		return memepump.Coin{}, false
	}
	return s.Coins[i], true
}

// TradesFor returns the trades of one coin, most recent first.
func (s *Snapshot) TradesFor(coinID string) []memepump.Trade {
	var out []memepump.Trade
	for _, t := range s.Trades {
		if t.CoinID == coinID {
			out = append(out, t)
		}
	}
	return out
}

// CommentsFor returns the comments of one coin in insertion order.
func (s *Snapshot) CommentsFor(coinID string) []memepump.Comment {
	return s.Comments[coinID]
}

// KingOfTheHill returns the coin with the highest market cap. Ties go to the
// coin listed first.
func (s *Snapshot) KingOfTheHill() (memepump.Coin, bool) {
	if len(s.Coins) == 0 {
		return memepump.Coin{}, false
	}
	king := s.Coins[0]
	for _, c := range s.Coins[1:] {
		if c.MarketCap > king.MarketCap {
			king = c
		}
	}
	return king, true
}

// FilterCoins returns the coins whose name or symbol contains query, case-insensitively.
func (s *Snapshot) FilterCoins(query string) []memepump.Coin {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]memepump.Coin, 0, len(s.Coins))
	for _, c := range s.Coins {
		if q == "" || strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(strings.ToLower(c.Symbol), q) {
			out = append(out, c)
		}
	}
	return out
}

// SortField names a sortable coin attribute.
type SortField string

const (
	SortMarketCap SortField = "marketCap"
	SortPrice     SortField = "price"
	SortProgress  SortField = "progress"
	SortHolders   SortField = "holders"
	SortCreatedAt SortField = "createdAt"
)

// SortCoins returns a sorted copy of coins. Unknown fields sort by market cap.
func SortCoins(coins []memepump.Coin, field SortField, ascending bool) []memepump.Coin {
	out := make([]memepump.Coin, len(coins))
	copy(out, coins)

	less := func(a, b memepump.Coin) bool { return a.MarketCap < b.MarketCap }
	switch field {
	case SortPrice:
		less = func(a, b memepump.Coin) bool { return a.Price < b.Price }
	case SortProgress:
		less = func(a, b memepump.Coin) bool { return a.Progress < b.Progress }
	case SortHolders:
		less = func(a, b memepump.Coin) bool { return a.Holders < b.Holders }
	case SortCreatedAt:
		less = func(a, b memepump.Coin) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}

	sort.SliceStable(out, func(i, j int) bool {
		if ascending {
			return less(out[i], out[j])
		}
		return less(out[j], out[i])
	})
	return out
}
