package curve

import "math"

// Point is one sampled point of a curve projection.
type Point struct {
	Supply    float64 `json:"supply"` // Raw token units
	Price     float64 `json:"price"`
	MarketCap float64 `json:"marketCap"`
	IsCurrent bool    `json:"isCurrent"` // Within MaxSupply/100 of the current supply
}

// SupplyMillions returns the point's supply in millions, the unit FormatSupply expects.
func (p Point) SupplyMillions() float64 {
	return p.Supply / 1e6
}

// Sample returns n evenly spaced points over [0, MaxSupply]. Prices and
// market caps that overflow are clamped to the largest finite float64, so
// every point stays JSON-encodable.
func (c Curve) Sample(currentSupply float64, n int) []Point {
	if n <= 0 {
		return nil
	}
	currentSupply = clampSupply(currentSupply)
	window := c.MaxSupply / 100

	points := make([]Point, n)
	for i := range points {
		var supply float64
		if n > 1 {
			supply = float64(i) / float64(n-1) * c.MaxSupply
		}
		price := finite(c.PriceAt(supply))
		points[i] = Point{
			Supply:    supply,
			Price:     price,
			MarketCap: finite(supply * price),
			IsCurrent: math.Abs(supply-currentSupply) < window,
		}
	}
	return points
}

// GraduationPoint returns the first point whose market cap reaches
// targetMarketCap. ok is false when none does, including for empty input.
func GraduationPoint(points []Point, targetMarketCap float64) (pt Point, ok bool) {
	for _, p := range points {
		if p.Supply*p.Price >= targetMarketCap {
			return p, true
		}
	}
	return Point{}, false
}

func finite(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	}
	return v
}
