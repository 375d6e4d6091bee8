// Package rate resolves contracted tariff prices: the lane a shipment runs
// on, the tariff table valid for that lane and date, and the zone/weight
// band row that prices it.
package rate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"freightbench/internal/errorx"
	"freightbench/internal/money"
	"freightbench/internal/refdata"
)

// euCountries is the set treated as one EU lane when no dedicated lane applies.
var euCountries = map[string]bool{
	"DE": true, "AT": true, "CH": true, "FR": true,
	"IT": true, "NL": true, "BE": true, "PL": true,
}

// DetermineLaneType classifies an origin/destination pair. AT<->CH falls
// into EU; there is no dedicated bucket for it.
func DetermineLaneType(origin, dest string) refdata.LaneType {
	o := strings.ToUpper(strings.TrimSpace(origin))
	d := strings.ToUpper(strings.TrimSpace(dest))
	switch {
	case o == "DE" && d == "DE":
		return refdata.LaneDE
	case pair(o, d, "DE", "AT"):
		return refdata.LaneAT
	case pair(o, d, "DE", "CH"):
		return refdata.LaneCH
	case euCountries[o] && euCountries[d]:
		return refdata.LaneEU
	default:
		return refdata.LaneExport
	}
}

func pair(o, d, a, b string) bool {
	return (o == a && d == b) || (o == b && d == a)
}

// Resolver looks up tariff tables and rates from reference data.
type Resolver struct {
	store   refdata.Store
	rounder money.Rounder
}

func NewResolver(store refdata.Store, rounder money.Rounder) *Resolver {
	return &Resolver{store: store, rounder: rounder}
}

// FindTable returns the most recent table for tenant, carrier and lane valid on date.
func (r *Resolver) FindTable(ctx context.Context, tenantID, carrierID string, lane refdata.LaneType, date time.Time) (refdata.TariffTable, error) {
	t, err := r.store.FindTariffTable(ctx, tenantID, carrierID, lane, date)
	if errors.Is(err, refdata.ErrNotFound) {
		return t, errorx.NotFound("tariff_table", "%s/%s lane %s on %s", tenantID, carrierID, lane, date.Format(time.DateOnly))
	}
	if err != nil {
		return t, fmt.Errorf("tariff table lookup: %w", err)
	}
	return t, nil
}

// FindRate returns the row of tableID for zone whose band contains weightKg.
// Overlapping bands resolve to the one with the highest lower bound.
func (r *Resolver) FindRate(ctx context.Context, tableID string, zone int, weightKg float64) (refdata.TariffRate, error) {
	rows, err := r.store.ListTariffRates(ctx, tableID, zone, weightKg)
	if err != nil {
		return refdata.TariffRate{}, fmt.Errorf("tariff rate lookup: %w", err)
	}
	var best *refdata.TariffRate
	for i := range rows {
		row := &rows[i]
		if !row.Contains(weightKg) {
			continue
		}
		if best == nil || row.WeightFromKg > best.WeightFromKg {
			best = row
		}
	}
	if best == nil {
		return refdata.TariffRate{}, errorx.NotFound("tariff_rate", "table %s zone %d weight %g kg", tableID, zone, weightKg)
	}
	return *best, nil
}

// BaseAmount prices a row in the tariff currency. A flat rate takes priority
// over a per-kg rate; a row with neither is an integrity error.
func (r *Resolver) BaseAmount(row refdata.TariffRate, weightKg float64) (float64, error) {
	switch {
	case row.RatePerShipment != nil:
		return r.rounder.Round2(*row.RatePerShipment), nil
	case row.RatePerKg != nil:
		return r.rounder.Mul(*row.RatePerKg, weightKg), nil
	default:
		return 0, errorx.Integrity("tariff_rate", "row %s has neither rate_per_shipment nor rate_per_kg", row.ID)
	}
}
