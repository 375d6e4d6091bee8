// Package model holds the shipment input consumed by the engine and the
// benchmark result it produces.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Classification buckets the delta between actual and expected cost.
type Classification string

const (
	ClassUnter   Classification = "unter"
	ClassImMarkt Classification = "im_markt"
	ClassDrueber Classification = "drüber"
)

// Classify maps a delta percentage onto a Classification. Values exactly on
// the threshold are within market.
func Classify(deltaPct, thresholdPct float64) Classification {
	switch {
	case deltaPct < -thresholdPct:
		return ClassUnter
	case deltaPct > thresholdPct:
		return ClassDrueber
	default:
		return ClassImMarkt
	}
}

// Cost breakdown item names, in the order they appear in a result.
const (
	ItemBaseRate        = "base_rate"
	ItemToll            = "toll"
	ItemDieselSurcharge = "diesel_surcharge"
)

// CostBreakdownLine is one line of the expected-cost breakdown.
type CostBreakdownLine struct {
	Item        string   `json:"item"`
	Description string   `json:"description"`
	Zone        *int     `json:"zone,omitempty"`
	WeightKg    *float64 `json:"weight_kg,omitempty"`
	Rate        *float64 `json:"rate,omitempty"`
	Base        *float64 `json:"base,omitempty"`
	Pct         *float64 `json:"pct,omitempty"`
	Amount      float64  `json:"amount"`
	Currency    string   `json:"currency"`
	Note        string   `json:"note,omitempty"`
}

// ReportAmounts are the result amounts converted into the tenant reporting currency.
type ReportAmounts struct {
	ExpectedBase   float64 `json:"expected_base"`
	ExpectedToll   float64 `json:"expected_toll"`
	ExpectedDiesel float64 `json:"expected_diesel"`
	ExpectedTotal  float64 `json:"expected_total"`
	ActualTotal    float64 `json:"actual_total"`
	DeltaAmount    float64 `json:"delta_amount"`
	FxRate         float64 `json:"fx_rate"`
}

// CalculationMetadata records which reference data and defaults produced a result.
type CalculationMetadata struct {
	LaneType string `json:"lane_type"`

	Zone       int    `json:"zone"`
	ZoneSource string `json:"zone_source"`
	ZoneNote   string `json:"zone_note,omitempty"`

	TariffTableID  string  `json:"tariff_table_id"`
	TariffRateID   string  `json:"tariff_rate_id"`
	TariffCurrency string  `json:"tariff_currency"`
	BaseAmountRaw  float64 `json:"base_amount_tariff_currency"`

	ChargeableWeightKg float64 `json:"chargeable_weight_kg"`
	WeightBasis        string  `json:"weight_basis"`
	WeightNote         string  `json:"weight_note,omitempty"`

	FxRate *float64 `json:"fx_rate,omitempty"`
	FxNote string   `json:"fx_note,omitempty"`

	TollSource string `json:"toll_source"`
	TollNote   string `json:"toll_note,omitempty"`

	DieselPct    float64 `json:"diesel_pct"`
	DieselBasis  string  `json:"diesel_basis"`
	DieselSource string  `json:"diesel_source"`

	ReportFxNote string `json:"report_fx_note,omitempty"`
	RoundingMode string `json:"rounding_mode"`
}

// Metadata source tags.
const (
	SourceResolved       = "resolved"
	SourceDefault        = "default"
	SourceRecord         = "record"
	SourceFromInvoice    = "from_invoice"
	SourceEstimated      = "estimated_heuristic"
	SourceBelowThreshold = "below_weight_threshold"
)

// BenchmarkResult is the persisted comparison of expected vs. actual cost for
// one shipment. A result is created once and never mutated.
type BenchmarkResult struct {
	ID         uuid.UUID `json:"id"`
	ShipmentID string    `json:"shipment_id,omitempty"`
	TenantID   string    `json:"tenant_id"`
	CarrierID  string    `json:"carrier_id"`

	ExpectedBase   float64        `json:"expected_base"`
	ExpectedToll   float64        `json:"expected_toll"`
	ExpectedDiesel float64        `json:"expected_diesel"`
	ExpectedTotal  float64        `json:"expected_total"`
	ActualTotal    float64        `json:"actual_total"`
	DeltaAmount    float64        `json:"delta_amount"`
	DeltaPct       float64        `json:"delta_pct"`
	Classification Classification `json:"classification"`
	Currency       string         `json:"currency"`

	ReportCurrency string         `json:"report_currency,omitempty"`
	ReportAmounts  *ReportAmounts `json:"report_amounts,omitempty"`

	CostBreakdown []CostBreakdownLine `json:"cost_breakdown"`
	Metadata      CalculationMetadata `json:"calculation_metadata"`
	CreatedAt     time.Time           `json:"created_at"`
}
