// Package money provides deterministic two-decimal rounding and the
// decimal-backed arithmetic used for every monetary value the engine
// persists or compares.
package money

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Mode selects the tie-breaking rule for Round2.
type Mode int

const (
	// HalfUp rounds .5 away from zero (commercial rounding).
	HalfUp Mode = iota
	// Bankers rounds .5 to the nearest even cent.
	Bankers
)

func (m Mode) String() string {
	switch m {
	case Bankers:
		return "bankers"
	default:
		return "half_up"
	}
}

// ParseMode maps a config value onto a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "half_up", "halfup":
		return HalfUp, nil
	case "bankers", "half_even":
		return Bankers, nil
	default:
		return HalfUp, fmt.Errorf("unknown rounding mode %q: want half_up|bankers", s)
	}
}

// bankersEpsilon absorbs binary representation error around the .5 boundary
// at the cent scale.
var bankersEpsilon = decimal.New(1, -7)

var (
	half = decimal.New(5, -1)
	two  = decimal.NewFromInt(2)
)

// Round2 rounds value to two decimals. NaN and ±Inf are returned unchanged.
// Negative values are rounded by magnitude and the sign is reapplied.
func Round2(value float64, mode Mode) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return value
	}
	f, _ := roundDecimal(decimal.NewFromFloat(value), mode).Float64()
	return f
}

// roundDecimal rounds |d| to cents and reapplies the sign. A result of zero
// is always returned unsigned.
func roundDecimal(d decimal.Decimal, mode Mode) decimal.Decimal {
	var r decimal.Decimal
	if mode == Bankers {
		r = roundBankers(d.Abs())
	} else {
		r = d.Abs().Round(2)
	}
	if r.IsZero() {
		return decimal.Zero
	}
	if d.IsNegative() {
		return r.Neg()
	}
	return r
}

func roundBankers(d decimal.Decimal) decimal.Decimal {
	scaled := d.Shift(2)
	floor := scaled.Floor()
	frac := scaled.Sub(floor)
	if frac.Sub(half).Abs().LessThan(bankersEpsilon) {
		if floor.Mod(two).IsZero() {
			return floor.Shift(-2)
		}
		return floor.Add(decimal.NewFromInt(1)).Shift(-2)
	}
	return scaled.Round(0).Shift(-2)
}
