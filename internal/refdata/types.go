package refdata

import (
	"fmt"
	"strings"
	"time"
)

// Validity is a half-open [ValidFrom, ValidUntil) interval. A nil ValidUntil
// means the row is open-ended.
type Validity struct {
	ValidFrom  time.Time  `json:"valid_from"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
}

// Covers reports whether the row is valid on date. Comparison is by calendar day.
func (v Validity) Covers(date time.Time) bool {
	d := Day(date)
	if Day(v.ValidFrom).After(d) {
		return false
	}
	return v.ValidUntil == nil || d.Before(Day(*v.ValidUntil))
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// LaneType is the coarse routing class used to pick a tariff table.
type LaneType string

const (
	LaneDE     LaneType = "DE"
	LaneAT     LaneType = "AT"
	LaneCH     LaneType = "CH"
	LaneEU     LaneType = "EU"
	LaneExport LaneType = "EXPORT"
)

// DieselBasis selects the subtotal the diesel floater applies to.
type DieselBasis string

const (
	BasisBase         DieselBasis = "base"
	BasisBasePlusToll DieselBasis = "base_plus_toll"
	BasisTotal        DieselBasis = "total"
)

// ParseDieselBasis validates a basis value from storage or config.
func ParseDieselBasis(s string) (DieselBasis, error) {
	switch b := DieselBasis(strings.ToLower(strings.TrimSpace(s))); b {
	case BasisBase, BasisBasePlusToll, BasisTotal:
		return b, nil
	default:
		return "", fmt.Errorf("unknown diesel basis %q: want base|base_plus_toll|total", s)
	}
}

// ZoneMapping maps a postal-code prefix (or regex pattern) to a carrier zone.
type ZoneMapping struct {
	ID           string  `json:"id"`
	TenantID     string  `json:"tenant_id"`
	CarrierID    string  `json:"carrier_id"`
	Country      string  `json:"country"`
	PostalPrefix string  `json:"postal_prefix"`
	PrefixLength int     `json:"prefix_length"`
	Pattern      *string `json:"pattern,omitempty"`
	Zone         int     `json:"zone"`
	Validity
}

// TariffTable is the contracted tariff for one carrier, lane and period.
type TariffTable struct {
	ID        string   `json:"id"`
	TenantID  string   `json:"tenant_id"`
	CarrierID string   `json:"carrier_id"`
	LaneType  LaneType `json:"lane_type"`
	Currency  string   `json:"currency"`
	Validity
}

// TariffRate is one zone/weight band of a tariff table. Exactly one of
// RatePerShipment and RatePerKg is expected to be set.
type TariffRate struct {
	ID              string   `json:"id"`
	TableID         string   `json:"tariff_table_id"`
	Zone            int      `json:"zone"`
	WeightFromKg    float64  `json:"weight_from_kg"`
	WeightToKg      float64  `json:"weight_to_kg"`
	RatePerShipment *float64 `json:"rate_per_shipment,omitempty"`
	RatePerKg       *float64 `json:"rate_per_kg,omitempty"`
}

// Contains reports whether weightKg falls into the closed band.
func (r TariffRate) Contains(weightKg float64) bool {
	return r.WeightFromKg <= weightKg && weightKg <= r.WeightToKg
}

// DieselFloater is a time-bounded fuel surcharge percentage.
type DieselFloater struct {
	ID         string      `json:"id"`
	TenantID   string      `json:"tenant_id"`
	CarrierID  string      `json:"carrier_id"`
	FloaterPct float64     `json:"floater_pct"`
	Basis      DieselBasis `json:"basis"`
	Validity
}

// FxRate is an as-of-date conversion rate from one currency to another.
type FxRate struct {
	RateDate time.Time `json:"rate_date"`
	From     string    `json:"from_ccy"`
	To       string    `json:"to_ccy"`
	Rate     float64   `json:"rate"`
	Source   string    `json:"source"`
}
