package weight

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"freightbench/internal/model"
	"freightbench/internal/money"
	"freightbench/internal/refdata"
)

func newCalc(rules *refdata.ConversionRules) (*Calculator, *observer.ObservedLogs) {
	store := refdata.NewMemory()
	if rules != nil {
		store.SetCarrierRules("t", "c", *rules)
	}
	core, logs := observer.New(zapcore.DebugLevel)
	return NewCalculator(store, money.NewRounder(money.HalfUp), zap.New(core)), logs
}

func shipment(weight, length, pallets float64) model.ShipmentInput {
	return model.ShipmentInput{TenantID: "t", CarrierID: "c", WeightKg: weight, LengthM: length, PalletCount: pallets}
}

func TestCompute_NoWeight(t *testing.T) {
	c, _ := newCalc(nil)
	got := c.Compute(context.Background(), shipment(0, 2, 1))
	assert.Equal(t, Chargeable{Value: 0, Basis: BasisKg, Note: "No weight provided"}, got)
}

func TestCompute_NoRulesUsesActualWeight(t *testing.T) {
	c, logs := newCalc(nil)
	got := c.Compute(context.Background(), shipment(312.456, 2.5, 2))
	assert.Equal(t, 312.46, got.Value)
	assert.Equal(t, BasisKg, got.Basis)
	assert.Zero(t, logs.Len())
}

func TestCompute_LDMConversion(t *testing.T) {
	c, _ := newCalc(&refdata.ConversionRules{LDMConversion: &refdata.LDMConversion{LDMToKg: 1850}})
	got := c.Compute(context.Background(), shipment(300, 2.5, 0))
	assert.Equal(t, 4625.0, got.Value)
	assert.Equal(t, BasisLM, got.Basis)
	assert.Contains(t, got.Note, "2.5 m x 1850")
}

func TestCompute_LDMLowerIgnored(t *testing.T) {
	c, _ := newCalc(&refdata.ConversionRules{LDMConversion: &refdata.LDMConversion{LDMToKg: 1850}})
	got := c.Compute(context.Background(), shipment(1000, 0.4, 0))
	assert.Equal(t, 1000.0, got.Value)
	assert.Equal(t, BasisKg, got.Basis)
	assert.Contains(t, got.Note, "ignored")
}

func TestCompute_PalletOverridesLM(t *testing.T) {
	c, _ := newCalc(&refdata.ConversionRules{
		LDMConversion:   &refdata.LDMConversion{LDMToKg: 1850},
		MinPalletWeight: &refdata.MinPalletWeight{MinKgPerPallet: 400},
	})
	got := c.Compute(context.Background(), shipment(300, 1, 6))
	assert.Equal(t, 2400.0, got.Value)
	assert.Equal(t, BasisPallet, got.Basis)

	got = c.Compute(context.Background(), shipment(300, 2.5, 6))
	assert.Equal(t, 4625.0, got.Value)
	assert.Equal(t, BasisLM, got.Basis)
}

type brokenRules struct{ refdata.Store }

func (brokenRules) CarrierRules(context.Context, string, string) (refdata.ConversionRules, error) {
	return refdata.ConversionRules{}, errors.New("bad jsonb")
}

type panickingRules struct{ refdata.Store }

func (panickingRules) CarrierRules(context.Context, string, string) (refdata.ConversionRules, error) {
	panic("boom")
}

func TestCompute_ErrorsFallBackToActualWeight(t *testing.T) {
	for name, store := range map[string]refdata.Store{"error": brokenRules{}, "panic": panickingRules{}} {
		t.Run(name, func(t *testing.T) {
			core, logs := observer.New(zapcore.ErrorLevel)
			c := NewCalculator(store, money.NewRounder(money.HalfUp), zap.New(core))
			got := c.Compute(context.Background(), shipment(300, 2.5, 0))
			assert.Equal(t, 300.0, got.Value)
			assert.Equal(t, BasisKg, got.Basis)
			assert.Equal(t, 1, logs.Len())
		})
	}
}
