package refdata

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `
zone_mappings:
  - tenant_id: t1
    carrier_id: c1
    country: de
    postal_prefix: "42"
    prefix_length: 2
    zone: 1
    valid_from: "2024-01-01"
  - tenant_id: t1
    carrier_id: c1
    country: AT
    pattern: "^1[0-9]{3}$"
    zone: 4
    valid_from: "2024-01-01"
tariff_tables:
  - id: de-2024
    tenant_id: t1
    carrier_id: c1
    lane_type: de
    currency: eur
    valid_from: "2024-01-01"
    valid_until: "2025-01-01"
    rates:
      - zone: 1
        weight_from_kg: 0
        weight_to_kg: 500
        rate_per_shipment: 294.30
      - zone: 1
        weight_from_kg: 500
        weight_to_kg: 5000
        rate_per_kg: 0.12
diesel_floaters:
  - tenant_id: t1
    carrier_id: c1
    floater_pct: 17.2
    basis: base_plus_toll
    valid_from: "2024-01-01"
fx_rates:
  - rate_date: "2024-01-02"
    from: usd
    to: eur
    rate: 0.9220
    source: ecb
carriers:
  - tenant_id: t1
    carrier_id: c1
    conversion_rules:
      ldm_conversion:
        ldm_to_kg: 1850
`

func TestParseSeed(t *testing.T) {
	m, err := ParseSeed([]byte(seedYAML))
	require.NoError(t, err)
	ctx := context.Background()
	date := day("2024-03-01")

	z, err := m.FindZoneByPrefix(ctx, ZoneQuery{TenantID: "t1", CarrierID: "c1", Country: "DE", Date: date}, "42", 2)
	require.NoError(t, err)
	assert.Equal(t, 1, z.Zone)

	patterns, err := m.ListZonePatterns(ctx, ZoneQuery{TenantID: "t1", CarrierID: "c1", Country: "AT", Date: date})
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Equal(t, 4, patterns[0].Zone)

	tbl, err := m.FindTariffTable(ctx, "t1", "c1", LaneDE, date)
	require.NoError(t, err)
	assert.Equal(t, "EUR", tbl.Currency)

	rates, err := m.ListTariffRates(ctx, tbl.ID, 1, 500)
	require.NoError(t, err)
	assert.Len(t, rates, 2)

	f, err := m.FindDieselFloater(ctx, "t1", "c1", date)
	require.NoError(t, err)
	assert.Equal(t, BasisBasePlusToll, f.Basis)

	fx, err := m.FindFxRate(ctx, "USD", "EUR", date)
	require.NoError(t, err)
	assert.Equal(t, 0.9220, fx.Rate)

	rules, err := m.CarrierRules(ctx, "t1", "c1")
	require.NoError(t, err)
	require.NotNil(t, rules.LDMConversion)
	assert.Nil(t, rules.MinPalletWeight)
}

func TestLoadSeed_Errors(t *testing.T) {
	_, err := LoadSeed(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("diesel_floaters:\n  - basis: net\n    valid_from: \"2024-01-01\"\n"), 0o600))
	_, err = LoadSeed(path)
	assert.ErrorContains(t, err, "diesel_floaters[0]")

	_, err = ParseSeed([]byte("zone_mappings:\n  - zone: 1\n    valid_from: \"01.01.2024\"\n"))
	assert.ErrorContains(t, err, "valid_from")
}

func TestLoadSeed_ExampleFile(t *testing.T) {
	m, err := LoadSeed(filepath.Join("..", "..", "db", "seed.example.yaml"))
	require.NoError(t, err)

	rules, err := m.CarrierRules(context.Background(), "demo", "spedition-nord")
	require.NoError(t, err)
	require.NotNil(t, rules.MinPalletWeight)
	assert.Equal(t, 300.0, rules.MinPalletWeight.MinKgPerPallet)

	tbl, err := m.FindTariffTable(context.Background(), "demo", "spedition-nord", LaneDE, day("2024-06-01"))
	require.NoError(t, err)
	rates, err := m.ListTariffRates(context.Background(), tbl.ID, 1, 4625)
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.Equal(t, 0.085, *rates[0].RatePerKg)
}
