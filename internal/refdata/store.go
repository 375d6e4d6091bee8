// Package refdata is the read-only reference-data surface of the benchmark
// engine: zone maps, tariff tables and rates, diesel floaters, FX rates and
// per-carrier conversion rules, all filtered to rows valid on a given date.
//
// Two implementations share the same query semantics: Postgres (pgx) for
// production and Memory for seeds and tests.
package refdata

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = errors.New("refdata: not found")

// ZoneQuery scopes zone lookups to a tenant, carrier, country and date.
type ZoneQuery struct {
	TenantID  string
	CarrierID string
	Country   string
	Date      time.Time
}

// Store is the reference-data query surface.
type Store interface {
	// FindZoneByPrefix returns the most recent mapping valid on q.Date with an
	// exact (country, prefix, prefix length) match.
	FindZoneByPrefix(ctx context.Context, q ZoneQuery, prefix string, prefixLen int) (ZoneMapping, error)

	// ListZonePatterns returns all pattern mappings valid on q.Date, most
	// recent valid_from first.
	ListZonePatterns(ctx context.Context, q ZoneQuery) ([]ZoneMapping, error)

	// FindTariffTable returns the most recent table valid on date.
	FindTariffTable(ctx context.Context, tenantID, carrierID string, lane LaneType, date time.Time) (TariffTable, error)

	// ListTariffRates returns the rows of a table for zone whose band contains weightKg.
	ListTariffRates(ctx context.Context, tableID string, zone int, weightKg float64) ([]TariffRate, error)

	// FindDieselFloater returns the most recent floater valid on date.
	FindDieselFloater(ctx context.Context, tenantID, carrierID string, date time.Time) (DieselFloater, error)

	// FindFxRate returns the most recent (from, to) rate dated on or before date.
	FindFxRate(ctx context.Context, from, to string, date time.Time) (FxRate, error)

	// InsertFxRate stores a rate, replacing one with the same date and pair.
	InsertFxRate(ctx context.Context, rate FxRate) error

	// CarrierRules returns the carrier's conversion rules; ErrNotFound when
	// the carrier has none configured.
	CarrierRules(ctx context.Context, tenantID, carrierID string) (ConversionRules, error)
}
