package server

import (
	"testing"
	"time"
)

func TestNormalizer_CanonicalKeys(t *testing.T) {
	n := NewNormalizer()
	in, err := n.Normalize([]byte(`{
        "shipment_id": "S-1", "tenant_id": "t1", "carrier_id": "c1", "date": "2024-03-15",
        "origin_country": "de", "origin_postal_code": "10115", "dest_country": "at", "dest_postal_code": "1010",
        "weight_kg": 812.5, "length_m": 2.4, "pallet_count": 3, "currency": "eur",
        "actual_total_amount": 912.4, "toll_amount": 31.2
    }`))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if in.DestCountry != "AT" || in.Currency != "EUR" || in.DestPostalCode != "1010" {
		t.Fatalf("unexpected strings: %+v", in)
	}
	if in.WeightKg != 812.5 || in.LengthM != 2.4 || in.PalletCount != 3 || in.ActualTotalAmount != 912.4 {
		t.Fatalf("unexpected numbers: %+v", in)
	}
	if in.TollAmount == nil || *in.TollAmount != 31.2 {
		t.Fatalf("unexpected toll: %v", in.TollAmount)
	}
	if !in.Date.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date: %v", in.Date)
	}
}

func TestNormalizer_AlternateKeys(t *testing.T) {
	n := NewNormalizer()
	in, err := n.Normalize([]byte(`{
        "reference": "R-9", "tenant": "t1", "carrier": "c1", "shipment_date": "2024-03-15T10:00:00Z",
        "from": {"country": "DE", "zip": "10115"}, "destination": {"country": "DE", "postal_code": "42349"},
        "gewicht": "1.250,5", "ldm": 1.2, "paletten": "2", "waehrung": "EUR", "invoice_total": 512, "maut": 0
    }`))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if in.ShipmentID != "R-9" || in.OriginCountry != "DE" || in.DestPostalCode != "42349" {
		t.Fatalf("unexpected strings: %+v", in)
	}
	if in.WeightKg != 1250.5 || in.PalletCount != 2 || in.ActualTotalAmount != 512 {
		t.Fatalf("unexpected numbers: %+v", in)
	}
	if _, ok := in.InvoiceToll(); ok {
		t.Fatalf("zero toll must not count as invoiced")
	}
	if len(in.MissingFields()) != 0 {
		t.Fatalf("unexpected missing fields: %v", in.MissingFields())
	}
}

func TestNormalizer_Errors(t *testing.T) {
	n := NewNormalizer()
	if _, err := n.Normalize([]byte(`[1,2]`)); err == nil {
		t.Fatalf("expected error for non-object payload")
	}
	if _, err := n.Normalize([]byte(`{"date": "next tuesday"}`)); err == nil {
		t.Fatalf("expected error for invalid date")
	}
}
