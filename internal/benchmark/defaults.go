package benchmark

import (
	"freightbench/internal/money"
	"freightbench/internal/refdata"
	"freightbench/internal/surcharge"
)

// Defaults are the fallback values and thresholds injected into the engine.
// Every default that fires is recorded in the result metadata.
type Defaults struct {
	RoundingMode money.Mode

	// DefaultZoneDomestic applies to lane DE when zone resolution fails,
	// DefaultZoneOther to every other lane.
	DefaultZoneDomestic int
	DefaultZoneOther    int

	DieselPct   float64
	DieselBasis refdata.DieselBasis

	TollWeightThresholdKg float64
	TollMatrix            surcharge.TollMatrix

	ClassificationThresholdPct float64

	// ReportCurrency, when set, adds report amounts converted into it.
	ReportCurrency string
}

// StandardDefaults returns the engine defaults used when nothing is configured.
func StandardDefaults() Defaults {
	return Defaults{
		RoundingMode:               money.HalfUp,
		DefaultZoneDomestic:        1,
		DefaultZoneOther:           3,
		DieselPct:                  18.5,
		DieselBasis:                refdata.BasisBase,
		TollWeightThresholdKg:      3500,
		TollMatrix:                 surcharge.DefaultTollMatrix(),
		ClassificationThresholdPct: 5,
	}
}

func (d Defaults) defaultZone(lane refdata.LaneType) int {
	if lane == refdata.LaneDE {
		return d.DefaultZoneDomestic
	}
	return d.DefaultZoneOther
}
