// Package fx converts amounts between currencies using as-of-date rates.
package fx

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"freightbench/internal/errorx"
	"freightbench/internal/logger"
	"freightbench/internal/money"
	"freightbench/internal/refdata"
)

// Rate sources reported by Lookup.
const (
	SourceIdentity = "identity"
	SourceDirect   = "direct"
	SourceInverse  = "inverse"
)

// Quote is a resolved rate and how it was obtained.
type Quote struct {
	Rate     float64   `json:"rate"`
	Source   string    `json:"source"`
	RateDate time.Time `json:"rate_date,omitempty"`
}

// Conversion is the outcome of Convert. Rate is nil when no rate was applied.
type Conversion struct {
	Amount float64  `json:"amount"`
	Rate   *float64 `json:"rate,omitempty"`
	Note   string   `json:"note,omitempty"`
}

type Converter struct {
	store   refdata.Store
	rounder money.Rounder
	log     *zap.Logger
}

func NewConverter(store refdata.Store, rounder money.Rounder, log *zap.Logger) *Converter {
	return &Converter{store: store, rounder: rounder, log: logger.OrNop(log)}
}

func normalize(ccy string) string { return strings.ToUpper(strings.TrimSpace(ccy)) }

// Rate returns the from→to rate valid on date.
func (c *Converter) Rate(ctx context.Context, from, to string, date time.Time) (float64, error) {
	q, err := c.Lookup(ctx, from, to, date)
	if err != nil {
		return 0, err
	}
	return q.Rate, nil
}

// Lookup tries the direct pair first and the inverse pair second.
func (c *Converter) Lookup(ctx context.Context, from, to string, date time.Time) (Quote, error) {
	from, to = normalize(from), normalize(to)
	if from == to {
		return Quote{Rate: 1, Source: SourceIdentity}, nil
	}

	r, err := c.store.FindFxRate(ctx, from, to, date)
	if err == nil {
		return Quote{Rate: money.RoundRate(r.Rate), Source: SourceDirect, RateDate: r.RateDate}, nil
	}
	if !errors.Is(err, refdata.ErrNotFound) {
		return Quote{}, fmt.Errorf("fx lookup %s/%s: %w", from, to, err)
	}

	r, err = c.store.FindFxRate(ctx, to, from, date)
	if err == nil {
		if r.Rate <= 0 {
			return Quote{}, errorx.Integrity("fx_rate", "non-positive rate %v for %s/%s on %s", r.Rate, to, from, r.RateDate.Format(time.DateOnly))
		}
		return Quote{Rate: money.InvertRate(r.Rate), Source: SourceInverse, RateDate: r.RateDate}, nil
	}
	if !errors.Is(err, refdata.ErrNotFound) {
		return Quote{}, fmt.Errorf("fx lookup %s/%s: %w", to, from, err)
	}
	return Quote{}, errorx.NotFound("fx_rate", "%s/%s on or before %s", from, to, date.Format(time.DateOnly))
}

// Convert converts amount into to. It never fails: without a usable rate the
// amount is returned unchanged with a note explaining why.
func (c *Converter) Convert(ctx context.Context, amount float64, from, to string, date time.Time) Conversion {
	from, to = normalize(from), normalize(to)
	if from == to {
		return Conversion{Amount: c.rounder.Round2(amount)}
	}
	rate, err := c.Rate(ctx, from, to, date)
	if err != nil {
		c.log.Warn("fx conversion unavailable, keeping original amount",
			zap.String("from", from),
			zap.String("to", to),
			zap.Time("date", date),
			zap.Error(err))
		return Conversion{
			Amount: amount,
			Note:   fmt.Sprintf("no FX rate %s->%s on %s, amount left in %s: %v", from, to, date.Format(time.DateOnly), from, err),
		}
	}
	return Conversion{Amount: c.rounder.Mul(amount, rate), Rate: &rate}
}

// Pair is one entry of a bulk rate lookup.
type Pair struct {
	From string    `json:"from"`
	To   string    `json:"to"`
	Date time.Time `json:"date"`
}

func (p Pair) Key() string {
	return normalize(p.From) + "|" + normalize(p.To) + "|" + refdata.Day(p.Date).Format(time.DateOnly)
}

// RateBulk resolves every pair once. Failed pairs are logged and omitted.
func (c *Converter) RateBulk(ctx context.Context, pairs []Pair) map[string]float64 {
	out := make(map[string]float64, len(pairs))
	seen := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		key := p.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		rate, err := c.Rate(ctx, p.From, p.To, p.Date)
		if err != nil {
			c.log.Warn("bulk fx lookup failed", zap.String("key", key), zap.Error(err))
			continue
		}
		out[key] = rate
	}
	return out
}

// AddRate stores a rate at 8-decimal precision.
func (c *Converter) AddRate(ctx context.Context, rate refdata.FxRate) error {
	rate.From, rate.To = normalize(rate.From), normalize(rate.To)
	if len(rate.From) != 3 || len(rate.To) != 3 {
		return errorx.Validation("currency", "expected ISO 4217 codes, got %q/%q", rate.From, rate.To)
	}
	if rate.From == rate.To {
		return errorx.Validation("to_ccy", "must differ from from_ccy (%s)", rate.From)
	}
	if rate.Rate <= 0 || decimal.NewFromFloat(rate.Rate).Round(8).IsZero() {
		return errorx.Validation("rate", "must be positive, got %v", rate.Rate)
	}
	if rate.RateDate.IsZero() {
		return errorx.Validation("rate_date", "is required")
	}
	rate.Rate = money.RoundRate(rate.Rate)
	rate.RateDate = refdata.Day(rate.RateDate)
	if err := c.store.InsertFxRate(ctx, rate); err != nil {
		return fmt.Errorf("store fx rate %s/%s: %w", rate.From, rate.To, err)
	}
	return nil
}
