package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"freightbench/internal/model"
)

// Normalizer maps ingestion payloads with varying key names into ShipmentInput.
type Normalizer interface {
	Normalize(body []byte) (model.ShipmentInput, error)
}

func NewNormalizer() Normalizer { return &DefaultNormalizer{} }

// DefaultNormalizer accepts the canonical keys plus common alternates from
// carrier exports and German-language invoices.
type DefaultNormalizer struct{}

var (
	keysShipmentID  = []string{"shipment_id", "id", "reference", "sendungsnummer"}
	keysTenantID    = []string{"tenant_id", "tenant"}
	keysCarrierID   = []string{"carrier_id", "carrier"}
	keysDate        = []string{"date", "shipment_date", "ship_date", "datum"}
	keysOriginCC    = []string{"origin_country", "origin.country", "from_country", "from.country"}
	keysOriginPC    = []string{"origin_postal_code", "origin.postal_code", "origin_zip", "origin_plz", "from.zip"}
	keysDestCC      = []string{"dest_country", "destination.country", "to_country", "to.country"}
	keysDestPC      = []string{"dest_postal_code", "destination.postal_code", "dest_zip", "dest_plz", "plz", "zip", "postal_code", "to.zip"}
	keysWeight      = []string{"weight_kg", "weight", "gewicht_kg", "gewicht"}
	keysLength      = []string{"length_m", "ldm", "lademeter"}
	keysPallets     = []string{"pallet_count", "pallets", "paletten"}
	keysCurrency    = []string{"currency", "waehrung", "währung"}
	keysActualTotal = []string{"actual_total_amount", "total_amount", "invoice_total", "amount", "betrag"}
	keysToll        = []string{"toll_amount", "toll", "maut"}
)

var dateLayouts = []string{time.DateOnly, time.RFC3339, "02.01.2006", "2006/01/02"}

func (n *DefaultNormalizer) Normalize(body []byte) (model.ShipmentInput, error) {
	var payload map[string]any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return model.ShipmentInput{}, err
	}

	in := model.ShipmentInput{
		ShipmentID:       getString(payload, keysShipmentID),
		TenantID:         getString(payload, keysTenantID),
		CarrierID:        getString(payload, keysCarrierID),
		OriginCountry:    strings.ToUpper(getString(payload, keysOriginCC)),
		OriginPostalCode: getString(payload, keysOriginPC),
		DestCountry:      strings.ToUpper(getString(payload, keysDestCC)),
		DestPostalCode:   getString(payload, keysDestPC),
		Currency:         strings.ToUpper(getString(payload, keysCurrency)),
	}
	in.WeightKg, _ = getFloat(payload, keysWeight)
	in.LengthM, _ = getFloat(payload, keysLength)
	in.PalletCount, _ = getFloat(payload, keysPallets)
	in.ActualTotalAmount, _ = getFloat(payload, keysActualTotal)
	if toll, ok := getFloat(payload, keysToll); ok {
		in.TollAmount = &toll
	}

	if raw := getString(payload, keysDate); raw != "" {
		d, err := parseDate(raw)
		if err != nil {
			return model.ShipmentInput{}, err
		}
		in.Date = d
	}
	return in, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// getString returns the first non-empty string from the candidate keys.
// Numbers are accepted and rendered as written (postal codes often arrive as numbers).
// Supports dot-path navigation for nested maps.
func getString(m map[string]any, keys []string) string {
	for _, k := range keys {
		switch v := getPath(m, k).(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}

// getFloat returns the first numeric value from the candidate keys.
func getFloat(m map[string]any, keys []string) (float64, bool) {
	for _, k := range keys {
		if v := getPath(m, k); v != nil {
			if f, ok := toFloat(v); ok {
				return f, true
			}
		}
	}
	return 0, false
}

// getPath navigates a dot-separated key into nested maps.
func getPath(m map[string]any, path string) any {
	parts := strings.Split(path, ".")
	var cur any = m
	for _, p := range parts {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := mm[p]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := parseFloat(t)
		return f, err == nil
	default:
		return 0, false
	}
}

// parseFloat accepts "1234.5" and the German "1.234,5".
func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	var n json.Number = json.Number(s)
	return n.Float64()
}
