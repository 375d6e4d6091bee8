// Package weight derives the chargeable weight of a shipment from the
// carrier's loading-metre and pallet minimum rules.
package weight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"freightbench/internal/logger"
	"freightbench/internal/model"
	"freightbench/internal/money"
	"freightbench/internal/refdata"
)

// Weight bases.
const (
	BasisKg     = "kg"
	BasisLM     = "lm"
	BasisPallet = "pallet"
)

// Chargeable is the priced weight and the rule that produced it.
type Chargeable struct {
	Value float64 `json:"value"`
	Basis string  `json:"basis"`
	Note  string  `json:"note,omitempty"`
}

type Calculator struct {
	store   refdata.Store
	rounder money.Rounder
	log     *zap.Logger
}

func NewCalculator(store refdata.Store, rounder money.Rounder, log *zap.Logger) *Calculator {
	return &Calculator{store: store, rounder: rounder, log: logger.OrNop(log)}
}

// Compute never fails. Any error while loading or evaluating the carrier
// rules falls back to the actual weight with basis kg.
func (c *Calculator) Compute(ctx context.Context, s model.ShipmentInput) (out Chargeable) {
	if s.WeightKg <= 0 {
		return Chargeable{Value: 0, Basis: BasisKg, Note: "No weight provided"}
	}
	fallback := Chargeable{Value: c.rounder.Round2(s.WeightKg), Basis: BasisKg}

	defer func() {
		if r := recover(); r != nil {
			c.log.Error("chargeable weight rule evaluation panicked",
				zap.String("tenant_id", s.TenantID),
				zap.String("carrier_id", s.CarrierID),
				zap.Any("panic", r))
			out = fallback
			out.Note = fmt.Sprintf("rule evaluation failed, using actual weight: %v", r)
		}
	}()

	rules, err := c.store.CarrierRules(ctx, s.TenantID, s.CarrierID)
	if err != nil {
		if !errors.Is(err, refdata.ErrNotFound) {
			c.log.Error("loading carrier conversion rules failed",
				zap.String("tenant_id", s.TenantID),
				zap.String("carrier_id", s.CarrierID),
				zap.Error(err))
			fallback.Note = "rule evaluation failed, using actual weight: " + err.Error()
			return fallback
		}
		rules = refdata.ConversionRules{}
	}
	return c.Apply(rules, s)
}

// Apply evaluates rules against the shipment: loading metres first, then
// pallet minimum. Each rule replaces the running weight only if larger.
func (c *Calculator) Apply(rules refdata.ConversionRules, s model.ShipmentInput) Chargeable {
	if s.WeightKg <= 0 {
		return Chargeable{Value: 0, Basis: BasisKg, Note: "No weight provided"}
	}
	current := s.WeightKg
	basis := BasisKg
	var notes []string

	if r := rules.LDMConversion; r != nil && s.LengthM > 0 {
		computed := c.rounder.Mul(s.LengthM, r.LDMToKg)
		if computed > current {
			notes = append(notes, fmt.Sprintf("LDM: %g m x %g kg/m = %g kg", s.LengthM, r.LDMToKg, computed))
			current, basis = computed, BasisLM
		} else {
			notes = append(notes, fmt.Sprintf("LDM weight %g kg not above %g kg, ignored", computed, current))
		}
	}

	if r := rules.MinPalletWeight; r != nil && s.PalletCount > 0 {
		computed := c.rounder.Mul(s.PalletCount, r.MinKgPerPallet)
		if computed > current {
			notes = append(notes, fmt.Sprintf("Pallet minimum: %g x %g kg = %g kg", s.PalletCount, r.MinKgPerPallet, computed))
			current, basis = computed, BasisPallet
		} else {
			notes = append(notes, fmt.Sprintf("Pallet minimum %g kg not above %g kg, ignored", computed, current))
		}
	}

	return Chargeable{Value: c.rounder.Round2(current), Basis: basis, Note: strings.Join(notes, "; ")}
}
