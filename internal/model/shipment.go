package model

import (
	"strings"
	"time"
)

// ShipmentInput is one parsed shipment as delivered by the ingestion side.
// It is treated as immutable for the duration of a benchmark computation.
type ShipmentInput struct {
	ShipmentID        string    `json:"shipment_id,omitempty"`
	TenantID          string    `json:"tenant_id"`
	CarrierID         string    `json:"carrier_id"`
	Date              time.Time `json:"date"`
	OriginCountry     string    `json:"origin_country"`
	OriginPostalCode  string    `json:"origin_postal_code"`
	DestCountry       string    `json:"dest_country"`
	DestPostalCode    string    `json:"dest_postal_code"`
	WeightKg          float64   `json:"weight_kg"`
	LengthM           float64   `json:"length_m"`
	PalletCount       float64   `json:"pallet_count"`
	Currency          string    `json:"currency"`
	ActualTotalAmount float64   `json:"actual_total_amount"`
	TollAmount        *float64  `json:"toll_amount,omitempty"`
}

// MissingFields lists the fields a benchmark cannot be computed without.
// An empty result does not guarantee success; reference data may still be missing.
// A zero weight or actual amount is not missing: the weight stage reports
// "No weight provided" and the delta is computed against zero.
func (s ShipmentInput) MissingFields() []string {
	var missing []string
	check := func(name string, ok bool) {
		if !ok {
			missing = append(missing, name)
		}
	}
	check("tenant_id", strings.TrimSpace(s.TenantID) != "")
	check("carrier_id", strings.TrimSpace(s.CarrierID) != "")
	check("date", !s.Date.IsZero())
	check("origin_country", strings.TrimSpace(s.OriginCountry) != "")
	check("dest_country", strings.TrimSpace(s.DestCountry) != "")
	check("dest_postal_code", strings.TrimSpace(s.DestPostalCode) != "")
	check("currency", strings.TrimSpace(s.Currency) != "")
	return missing
}

// InvoiceToll returns the toll amount carried over from the source invoice,
// if it is present and positive.
func (s ShipmentInput) InvoiceToll() (float64, bool) {
	if s.TollAmount == nil || *s.TollAmount <= 0 {
		return 0, false
	}
	return *s.TollAmount, true
}
