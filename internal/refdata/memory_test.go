package refdata

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestValidity_HalfOpen(t *testing.T) {
	v := Validity{ValidFrom: day("2024-01-01"), ValidUntil: ptrTime(day("2024-07-01"))}
	assert.False(t, v.Covers(day("2023-12-31")))
	assert.True(t, v.Covers(day("2024-01-01")))
	assert.True(t, v.Covers(time.Date(2024, 6, 30, 23, 0, 0, 0, time.UTC)))
	assert.False(t, v.Covers(day("2024-07-01")))

	open := Validity{ValidFrom: day("2024-01-01")}
	assert.True(t, open.Covers(day("2099-01-01")))
}

func TestMemory_ZonePrefixMostRecentWins(t *testing.T) {
	m := NewMemory()
	m.AddZone(ZoneMapping{TenantID: "t", CarrierID: "c", Country: "de", PostalPrefix: "42", PrefixLength: 2, Zone: 1,
		Validity: Validity{ValidFrom: day("2023-01-01")}})
	m.AddZone(ZoneMapping{TenantID: "t", CarrierID: "c", Country: "DE", PostalPrefix: "42", PrefixLength: 2, Zone: 2,
		Validity: Validity{ValidFrom: day("2024-01-01")}})
	m.AddZone(ZoneMapping{TenantID: "other", CarrierID: "c", Country: "DE", PostalPrefix: "42", PrefixLength: 2, Zone: 9,
		Validity: Validity{ValidFrom: day("2024-06-01")}})

	q := ZoneQuery{TenantID: "t", CarrierID: "c", Country: "DE", Date: day("2024-03-01")}
	z, err := m.FindZoneByPrefix(context.Background(), q, "42", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, z.Zone)

	q.Date = day("2023-06-01")
	z, err = m.FindZoneByPrefix(context.Background(), q, "42", 2)
	require.NoError(t, err)
	assert.Equal(t, 1, z.Zone)

	_, err = m.FindZoneByPrefix(context.Background(), q, "423", 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_TariffTableAndFloaterRecency(t *testing.T) {
	m := NewMemory()
	m.AddTariffTable(TariffTable{ID: "old", TenantID: "t", CarrierID: "c", LaneType: LaneDE, Currency: "EUR",
		Validity: Validity{ValidFrom: day("2023-01-01")}})
	m.AddTariffTable(TariffTable{ID: "new", TenantID: "t", CarrierID: "c", LaneType: LaneDE, Currency: "EUR",
		Validity: Validity{ValidFrom: day("2024-01-01"), ValidUntil: ptrTime(day("2025-01-01"))}})

	tbl, err := m.FindTariffTable(context.Background(), "t", "c", LaneDE, day("2024-05-01"))
	require.NoError(t, err)
	assert.Equal(t, "new", tbl.ID)

	tbl, err = m.FindTariffTable(context.Background(), "t", "c", LaneDE, day("2025-02-01"))
	require.NoError(t, err)
	assert.Equal(t, "old", tbl.ID)

	_, err = m.FindTariffTable(context.Background(), "t", "c", LaneEU, day("2024-05-01"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.FindDieselFloater(context.Background(), "t", "c", day("2024-05-01"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_FxRateOnOrBefore(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.InsertFxRate(ctx, FxRate{RateDate: day("2024-01-01"), From: "USD", To: "EUR", Rate: 0.91}))
	require.NoError(t, m.InsertFxRate(ctx, FxRate{RateDate: day("2024-02-01"), From: "USD", To: "EUR", Rate: 0.92}))
	require.NoError(t, m.InsertFxRate(ctx, FxRate{RateDate: day("2024-03-01"), From: "USD", To: "EUR", Rate: 0.93}))

	r, err := m.FindFxRate(ctx, "USD", "EUR", day("2024-02-15"))
	require.NoError(t, err)
	assert.Equal(t, 0.92, r.Rate)

	r, err = m.FindFxRate(ctx, "USD", "EUR", day("2024-02-01"))
	require.NoError(t, err)
	assert.Equal(t, 0.92, r.Rate)

	_, err = m.FindFxRate(ctx, "USD", "EUR", day("2023-12-31"))
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.InsertFxRate(ctx, FxRate{RateDate: day("2024-02-01"), From: "USD", To: "EUR", Rate: 0.925}))
	r, err = m.FindFxRate(ctx, "USD", "EUR", day("2024-02-15"))
	require.NoError(t, err)
	assert.Equal(t, 0.925, r.Rate)
}

func TestConversionRules_UnmarshalJSON(t *testing.T) {
	var rules ConversionRules
	err := json.Unmarshal([]byte(`{
        "ldm_conversion": {"ldm_to_kg": 1850},
        "min_pallet_weight": {"min_kg_per_pallet": 300},
        "cbm_conversion": {"cbm_to_kg": 250}
    }`), &rules)
	require.NoError(t, err)
	require.NotNil(t, rules.LDMConversion)
	require.NotNil(t, rules.MinPalletWeight)
	assert.Equal(t, 1850.0, rules.LDMConversion.LDMToKg)
	assert.Equal(t, 300.0, rules.MinPalletWeight.MinKgPerPallet)
	assert.Equal(t, []string{"cbm_conversion"}, rules.Unknown)
	assert.False(t, rules.Empty())

	var empty ConversionRules
	require.NoError(t, json.Unmarshal([]byte(`{}`), &empty))
	assert.True(t, empty.Empty())

	assert.Error(t, json.Unmarshal([]byte(`{"ldm_conversion": "fast"}`), &rules))
}

func TestParseDieselBasis(t *testing.T) {
	b, err := ParseDieselBasis("Base_Plus_Toll")
	require.NoError(t, err)
	assert.Equal(t, BasisBasePlusToll, b)

	_, err = ParseDieselBasis("net")
	assert.Error(t, err)
}
