package curve

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// FormatSupply renders a supply given in millions of units with a K, M or B suffix.
func FormatSupply(millions float64) string {
	switch {
	case millions >= 1000:
		return toFixed(millions/1000, 0) + "B"
	case millions >= 1:
		return toFixed(millions, 0) + "M"
	default:
		return toFixed(millions*1000, 0) + "K"
	}
}

// FormatPrice renders a price with more decimals the smaller it gets.
func FormatPrice(v float64) string {
	switch {
	case v < 0.00001:
		return toExponential(v, 2)
	case v < 0.001:
		return toFixed(v, 6)
	case v < 1:
		return toFixed(v, 4)
	default:
		return toFixed(v, 2)
	}
}

// FormatProgress renders a progress percentage with one decimal, e.g. "42.5%".
func FormatProgress(p float64) string {
	return toFixed(p, 1) + "%"
}

// FormatMarketCap renders a market cap in dollars with thousands separators.
func FormatMarketCap(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "$0"
	}
	return "$" + humanize.CommafWithDigits(v, 3)
}

// FormatHolders renders a holder count with thousands separators.
func FormatHolders(n int) string {
	return humanize.Comma(int64(n))
}

// ShortAddress abbreviates a wallet address to its first and last four characters.
func ShortAddress(addr string) string {
	if len(addr) <= 8 {
		return addr
	}
	return addr[:4] + "..." + addr[len(addr)-4:]
}

// toFixed formats v with digits decimals, resolving exact ties away from zero
// the way JavaScript's Number.prototype.toFixed does.
func toFixed(v float64, digits int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(nudgeTie(v, digits, 'f'), 'f', digits, 64)
}

// toExponential formats v like JavaScript's toExponential: "1.00e-6", "2.50e+3".
func toExponential(v float64, digits int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	s := strconv.FormatFloat(nudgeTie(v, digits, 'e'), 'e', digits, 64)
	mant, exp, found := strings.Cut(s, "e")
	if !found {
		return s
	}
	sign := exp[:1]
	exp = strings.TrimLeft(exp[1:], "0")
	if exp == "" {
		exp = "0"
	}
	return mant + "e" + sign + exp
}

// nudgeTie moves v one ulp away from zero when it lies exactly halfway between
// two representable results, so strconv's round-half-even picks the upper one.
func nudgeTie(v float64, digits int, format byte) float64 {
	if v == 0 {
		return v
	}
	extended := strconv.FormatFloat(v, format, digits+1, 64)
	mant := extended
	if format == 'e' {
		mant, _, _ = strings.Cut(extended, "e")
	}
	if !strings.HasSuffix(mant, "5") {
		return v
	}
	exact, ok := new(big.Rat).SetString(extended)
	if !ok || new(big.Rat).SetFloat64(v).Cmp(exact) != 0 {
		return v
	}
	return math.Nextafter(v, math.Copysign(math.Inf(1), v))
}
