package account

import (
	"context"

	"memepump/pkg/memepump"

	"github.com/shopspring/decimal"
)

// Holding is one portfolio line with exact money math.
type Holding struct {
	Coin     *memepump.Coin
	Amount   decimal.Decimal
	AvgPrice decimal.Decimal
	Value    decimal.Decimal // as reported by the server
	Cost     decimal.Decimal // Amount * AvgPrice
	PnL      decimal.Decimal // Value - Cost
}

type Portfolio struct {
	Holdings   []Holding
	TotalValue decimal.Decimal
	TotalCost  decimal.Decimal
	TotalPnL   decimal.Decimal
}

// PnLPercent is TotalPnL relative to TotalCost, or zero without cost basis.
func (p Portfolio) PnLPercent() decimal.Decimal {
	if p.TotalCost.IsZero() {
		return decimal.Zero
	}
	return p.TotalPnL.Div(p.TotalCost).Mul(decimal.NewFromInt(100))
}

// Portfolio fetches the signed-in user's holdings and totals them.
func (m *Manager) Portfolio(ctx context.Context) (Portfolio, error) {
	cur, ok := m.Current()
	if !ok {
		return Portfolio{}, ErrNotLoggedIn
	}
	items, err := m.api.GetPortfolio(ctx, cur.ID)
	if err != nil {
		return Portfolio{}, err
	}
	return Summarize(items), nil
}

// Summarize totals portfolio items.
func Summarize(items []memepump.PortfolioItem) Portfolio {
	p := Portfolio{Holdings: make([]Holding, 0, len(items))}
	for _, it := range items {
		h := Holding{
			Coin:     it.Coin,
			Amount:   decimal.NewFromFloat(it.Amount),
			AvgPrice: decimal.NewFromFloat(it.AvgPrice),
			Value:    decimal.NewFromFloat(it.Value),
		}
		h.Cost = h.Amount.Mul(h.AvgPrice)
		h.PnL = h.Value.Sub(h.Cost)

		p.Holdings = append(p.Holdings, h)
		p.TotalValue = p.TotalValue.Add(h.Value)
		p.TotalCost = p.TotalCost.Add(h.Cost)
	}
	p.TotalPnL = p.TotalValue.Sub(p.TotalCost)
	return p
}
