// Package surcharge computes the diesel floater and toll lines of a
// benchmark.
package surcharge

import (
	"context"
	"time"

	"go.uber.org/zap"

	"freightbench/internal/logger"
	"freightbench/internal/model"
	"freightbench/internal/money"
	"freightbench/internal/refdata"
)

// DieselDefault applies when a carrier has no floater valid on the shipment date.
type DieselDefault struct {
	Pct   float64
	Basis refdata.DieselBasis
}

// Floater is the diesel percentage in effect for a shipment.
type Floater struct {
	Pct      float64             `json:"pct"`
	Basis    refdata.DieselBasis `json:"basis"`
	Source   string              `json:"source"`
	RecordID string              `json:"record_id,omitempty"`
}

// Diesel is the computed surcharge and the subtotal it was applied to.
type Diesel struct {
	Floater
	Base   float64 `json:"base"`
	Amount float64 `json:"amount"`
}

type DieselCalculator struct {
	store    refdata.Store
	rounder  money.Rounder
	fallback DieselDefault
	log      *zap.Logger
}

func NewDieselCalculator(store refdata.Store, rounder money.Rounder, fallback DieselDefault, log *zap.Logger) *DieselCalculator {
	return &DieselCalculator{store: store, rounder: rounder, fallback: fallback, log: logger.OrNop(log)}
}

// LookupFloater returns the most recent floater valid on date, or the
// configured default with a warning.
func (d *DieselCalculator) LookupFloater(ctx context.Context, tenantID, carrierID string, date time.Time) Floater {
	rec, err := d.store.FindDieselFloater(ctx, tenantID, carrierID, date)
	if err == nil {
		basis, perr := refdata.ParseDieselBasis(string(rec.Basis))
		if perr != nil {
			d.log.Warn("diesel floater has unknown basis, using default basis",
				zap.String("floater_id", rec.ID),
				zap.String("basis", string(rec.Basis)),
				zap.String("default_basis", string(d.fallback.Basis)))
			basis = d.fallback.Basis
		}
		return Floater{Pct: rec.FloaterPct, Basis: basis, Source: model.SourceRecord, RecordID: rec.ID}
	}
	d.log.Warn("no diesel floater found, using default",
		zap.String("tenant_id", tenantID),
		zap.String("carrier_id", carrierID),
		zap.String("date", date.Format(time.DateOnly)),
		zap.Float64("default_pct", d.fallback.Pct),
		zap.String("default_basis", string(d.fallback.Basis)),
		zap.Error(err))
	return Floater{Pct: d.fallback.Pct, Basis: d.fallback.Basis, Source: model.SourceDefault}
}

// Apply computes the surcharge on the subtotal selected by the basis. The
// total basis is treated as base plus toll; the surcharge is not applied to
// itself.
func (d *DieselCalculator) Apply(f Floater, base, toll float64) Diesel {
	subtotal := d.rounder.Round2(base)
	switch f.Basis {
	case refdata.BasisBasePlusToll, refdata.BasisTotal:
		subtotal = d.rounder.Sum(base, toll)
	}
	return Diesel{Floater: f, Base: subtotal, Amount: d.rounder.Percent(subtotal, f.Pct)}
}

// Compute looks up the floater and applies it.
func (d *DieselCalculator) Compute(ctx context.Context, tenantID, carrierID string, date time.Time, base, toll float64) Diesel {
	return d.Apply(d.LookupFloater(ctx, tenantID, carrierID, date), base, toll)
}
