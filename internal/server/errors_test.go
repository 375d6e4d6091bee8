package server

import (
	"encoding/json"
	"net/http"
	"testing"
)

// helper to parse standardized error
type stdError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func expectError(t *testing.T, code int, body []byte, wantStatus int, wantCode string) {
	t.Helper()
	if code != wantStatus {
		t.Fatalf("expected %d, got %d; body=%s", wantStatus, code, body)
	}
	var e stdError
	if err := json.Unmarshal(body, &e); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if e.Error.Code != wantCode {
		t.Fatalf("unexpected error code: %s", e.Error.Code)
	}
}

func TestCreateBenchmark_InvalidJSON_ErrorJSON(t *testing.T) {
	h := newHandler(t, Options{})
	rr := do(t, h, http.MethodPost, "/benchmarks", `{"tenant_id": `)
	expectError(t, rr.Code, rr.Body.Bytes(), http.StatusBadRequest, "invalid_json")
}

func TestCreateBenchmark_MissingFields_ErrorJSON(t *testing.T) {
	h := newHandler(t, Options{})
	rr := do(t, h, http.MethodPost, "/benchmarks", `{"tenant_id": "t1", "carrier_id": "c1"}`)
	expectError(t, rr.Code, rr.Body.Bytes(), http.StatusBadRequest, "invalid_request")
}

func TestCreateBenchmark_NoTariff_ErrorJSON(t *testing.T) {
	h := newHandler(t, Options{})
	payload := `{"tenant_id": "t1", "carrier_id": "c1", "date": "2024-03-15", "origin_country": "DE",
        "dest_country": "FR", "dest_postal_code": "75001", "weight_kg": 300, "currency": "EUR", "actual_total_amount": 400}`
	rr := do(t, h, http.MethodPost, "/benchmarks", payload)
	expectError(t, rr.Code, rr.Body.Bytes(), http.StatusNotFound, "resource_not_found")
}

func TestCreateBenchmark_RateWithoutPrice_ErrorJSON(t *testing.T) {
	h := newHandler(t, Options{})
	payload := `{"tenant_id": "t1", "carrier_id": "c1", "date": "2024-03-15", "origin_country": "DE",
        "dest_country": "DE", "dest_postal_code": "01067", "weight_kg": 300, "currency": "EUR", "actual_total_amount": 400}`
	rr := do(t, h, http.MethodPost, "/benchmarks", payload)
	expectError(t, rr.Code, rr.Body.Bytes(), http.StatusUnprocessableEntity, "data_integrity")
}

func TestGetZone_MissingParams_ErrorJSON(t *testing.T) {
	h := newHandler(t, Options{})
	rr := do(t, h, http.MethodGet, "/zones?tenant_id=t1", nil)
	expectError(t, rr.Code, rr.Body.Bytes(), http.StatusBadRequest, "invalid_request")

	rr = do(t, h, http.MethodGet, "/zones?tenant_id=t1&carrier_id=c1&country=DE&postal_code=%20", nil)
	expectError(t, rr.Code, rr.Body.Bytes(), http.StatusBadRequest, "invalid_request")

	rr = do(t, h, http.MethodGet, "/zones?tenant_id=t1&carrier_id=c1&country=DE&postal_code=99999&date=2024-03-15", nil)
	expectError(t, rr.Code, rr.Body.Bytes(), http.StatusNotFound, "resource_not_found")
}

func TestFxRates_Invalid_ErrorJSON(t *testing.T) {
	h := newHandler(t, Options{})
	rr := do(t, h, http.MethodPost, "/fx-rates", `{"rate_date": "2024-01-02", "from_ccy": "EUR", "to_ccy": "EUR", "rate": 1}`)
	expectError(t, rr.Code, rr.Body.Bytes(), http.StatusBadRequest, "invalid_request")

	rr = do(t, h, http.MethodPost, "/fx-rates", `{"rate_date": "02/01/2024", "from_ccy": "USD", "to_ccy": "EUR", "rate": 1}`)
	expectError(t, rr.Code, rr.Body.Bytes(), http.StatusBadRequest, "invalid_rate_date")

	rr = do(t, h, http.MethodGet, "/fx-rates?from=GBP&to=EUR&date=2024-02-01", nil)
	expectError(t, rr.Code, rr.Body.Bytes(), http.StatusNotFound, "resource_not_found")
}
