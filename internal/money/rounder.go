package money

import "github.com/shopspring/decimal"

// Rounder carries the configured rounding mode. Every engine component shares
// one Rounder so repeated runs on identical input produce identical amounts.
type Rounder struct {
	mode Mode
}

func NewRounder(mode Mode) Rounder { return Rounder{mode: mode} }

func (r Rounder) Mode() Mode { return r.mode }

// Round2 rounds v with the configured mode.
func (r Rounder) Round2(v float64) float64 { return Round2(v, r.mode) }

// Mul multiplies in decimal space and rounds the product.
func (r Rounder) Mul(a, b float64) float64 {
	return r.fromDecimal(decimal.NewFromFloat(a).Mul(decimal.NewFromFloat(b)))
}

// Percent returns round2(base × pct / 100).
func (r Rounder) Percent(base, pct float64) float64 {
	p := decimal.NewFromFloat(base).Mul(decimal.NewFromFloat(pct)).Div(decimal.NewFromInt(100))
	return r.fromDecimal(p)
}

// Sum adds already-rounded amounts and rounds the total.
func (r Rounder) Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(r.Round2(v)))
	}
	return r.fromDecimal(total)
}

// Sub returns round2(a − b) on rounded operands.
func (r Rounder) Sub(a, b float64) float64 {
	return r.fromDecimal(decimal.NewFromFloat(r.Round2(a)).Sub(decimal.NewFromFloat(r.Round2(b))))
}

// PercentOf returns round2(part / whole × 100), or 0 when whole is 0.
func (r Rounder) PercentOf(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	p := decimal.NewFromFloat(part).Div(decimal.NewFromFloat(whole)).Mul(decimal.NewFromInt(100))
	return r.fromDecimal(p)
}

func (r Rounder) fromDecimal(d decimal.Decimal) float64 {
	f, _ := roundDecimal(d, r.mode).Float64()
	return f
}

// RoundRate rounds an FX rate to the 8-decimal precision rates are stored with.
func RoundRate(rate float64) float64 {
	f, _ := decimal.NewFromFloat(rate).Round(8).Float64()
	return f
}

// InvertRate returns 1/rate at 8-decimal precision.
func InvertRate(rate float64) float64 {
	f, _ := decimal.NewFromInt(1).DivRound(decimal.NewFromFloat(rate), 8).Float64()
	return f
}
