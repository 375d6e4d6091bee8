package refdata

import (
	"os"
	"testing"

	"freightbench/internal/db"
)

func TestPostgresFxRateRoundTrip(t *testing.T) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
		return
	}

	pool, err := db.NewPool(t.Context(), dbURL)
	if err != nil {
		t.Fatalf("failed to connect db: %v", err)
	}
	defer pool.Close()

	store := NewPostgres(pool)
	rate := FxRate{RateDate: day("1999-01-04"), From: "ITEST", To: "EUR", Rate: 1.5, Source: "integration"}
	if err := store.InsertFxRate(t.Context(), rate); err != nil {
		t.Fatalf("insert fx rate: %v", err)
	}
	defer pool.Exec(t.Context(), `DELETE FROM fx_rates WHERE from_ccy = 'ITEST'`)

	got, err := store.FindFxRate(t.Context(), "ITEST", "EUR", day("1999-02-01"))
	if err != nil {
		t.Fatalf("find fx rate: %v", err)
	}
	if got.Rate != 1.5 || got.Source != "integration" {
		t.Fatalf("unexpected rate: %+v", got)
	}

	if _, err := store.FindFxRate(t.Context(), "ITEST", "EUR", day("1998-12-31")); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound before first rate date, got %v", err)
	}
}

func TestPostgresMissingTariffTable(t *testing.T) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
		return
	}

	pool, err := db.NewPool(t.Context(), dbURL)
	if err != nil {
		t.Fatalf("failed to connect db: %v", err)
	}
	defer pool.Close()

	_, err = NewPostgres(pool).FindTariffTable(t.Context(), "no-tenant", "no-carrier", LaneEU, day("2024-01-01"))
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
