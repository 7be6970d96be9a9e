// Package curve models bonding-curve pricing for chart projections and
// trade estimates. Live prices always come from the server; nothing here
// feeds back into the market store.
package curve

import "math"

// Type selects the pricing function of a Curve.
type Type string

const (
	Exponential     Type = "exponential"
	Linear          Type = "linear"
	ConstantProduct Type = "constant_product"
)

// Client chart defaults.
const (
	DefaultBasePrice       = 0.00001
	DefaultK               = 0.000000001
	DefaultMaxSupply       = 1200000000
	DefaultTargetMarketCap = 100000
	DefaultPoints          = 101

	integrationSteps = 100
)

// Curve maps cumulative supply to unit price.
type Curve struct {
	Type            Type
	BasePrice       float64 // Price at zero supply
	K               float64 // Steepness (exponential) or reserve constant (constant product)
	Slope           float64 // Linear slope
	MaxSupply       float64 // Plot range and constant-product reserve
	TargetMarketCap float64 // Graduation threshold
}

// Default returns the exponential curve used for coin charts.
func Default() Curve {
	return Curve{
		Type:            Exponential,
		BasePrice:       DefaultBasePrice,
		K:               DefaultK,
		MaxSupply:       DefaultMaxSupply,
		TargetMarketCap: DefaultTargetMarketCap,
	}
}

// New builds a curve from stored parameters, falling back to defaults for an
// unknown type and for non-positive base price, max supply or target.
func New(curveType string, k, slope, basePrice, maxSupply, targetMarketCap float64) Curve {
	t := Type(curveType)
	if t != Exponential && t != Linear && t != ConstantProduct {
		t = Exponential
	}
	if !(basePrice > 0) {
		basePrice = DefaultBasePrice
	}
	if !(maxSupply > 0) {
		maxSupply = DefaultMaxSupply
	}
	if !(targetMarketCap > 0) {
		targetMarketCap = DefaultTargetMarketCap
	}
	if math.IsNaN(k) {
		k = 0
	}
	if math.IsNaN(slope) {
		slope = 0
	}
	return Curve{
		Type:            t,
		BasePrice:       basePrice,
		K:               k,
		Slope:           slope,
		MaxSupply:       maxSupply,
		TargetMarketCap: targetMarketCap,
	}
}

// WithParams returns the curve described by a coin's stored parameters,
// keeping c's plot range and target. Without a type or base price c is
// returned unchanged; a zero k inherits c.K.
func (c Curve) WithParams(curveType string, k, slope, basePrice float64) Curve {
	if curveType == "" && basePrice == 0 {
		return c
	}
	if k == 0 {
		k = c.K
	}
	return New(curveType, k, slope, basePrice, c.MaxSupply, c.TargetMarketCap)
}

// PriceAt returns the unit price at supply. NaN and negative supply are treated as 0.
func (c Curve) PriceAt(supply float64) float64 {
	supply = clampSupply(supply)

	switch c.Type {
	case Linear:
		return c.BasePrice + c.Slope*supply
	case ConstantProduct:
		remaining := c.MaxSupply - supply
		if remaining < 1 {
			remaining = 1
		}
		return c.K / remaining
	default:
		return c.BasePrice * math.Exp(c.K*supply)
	}
}

// MarketCapAt returns supply * PriceAt(supply).
func (c Curve) MarketCapAt(supply float64) float64 {
	supply = clampSupply(supply)
	return supply * c.PriceAt(supply)
}

// Progress returns the graduation progress of supply on this curve.
func (c Curve) Progress(supply float64) float64 {
	return ProgressAt(supply, c.PriceAt(supply), c.TargetMarketCap)
}

// ShouldGraduate reports whether marketCap reached the graduation threshold.
func (c Curve) ShouldGraduate(marketCap float64) bool {
	return marketCap >= c.TargetMarketCap
}

// BuyCost estimates the cost of buying amount tokens starting at supply.
func (c Curve) BuyCost(supply, amount float64) float64 {
	supply = clampSupply(supply)
	amount = clampSupply(amount)

	step := amount / integrationSteps
	total := 0.0
	for i := 0; i < integrationSteps; i++ {
		total += c.PriceAt(supply+float64(i)*step) * step
	}
	return total
}

// SellReturn estimates the proceeds of selling amount tokens starting at supply.
func (c Curve) SellReturn(supply, amount float64) float64 {
	supply = clampSupply(supply)
	amount = clampSupply(amount)

	step := amount / integrationSteps
	total := 0.0
	for i := 0; i < integrationSteps; i++ {
		total += c.PriceAt(supply-float64(i)*step) * step
	}
	return total
}

// ProgressAt returns supply*price as a percentage of targetMarketCap, clamped
// to [0,100]. Non-positive or NaN targets yield 0.
func ProgressAt(supply, price, targetMarketCap float64) float64 {
	if !(targetMarketCap > 0) {
		return 0
	}
	p := clampSupply(supply) * price / targetMarketCap * 100
	switch {
	case math.IsNaN(p) || p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

func clampSupply(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}
