package surcharge

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"freightbench/internal/fx"
	"freightbench/internal/logger"
	"freightbench/internal/model"
	"freightbench/internal/money"
)

// TollMatrix holds heuristic toll amounts by destination country and zone,
// denominated in the tariff currency.
type TollMatrix map[string]map[int]float64

// DefaultTollMatrix is the built-in estimate for the DACH lanes.
func DefaultTollMatrix() TollMatrix {
	return TollMatrix{
		"DE": {1: 12.50, 2: 18.00, 3: 24.50, 4: 31.00, 5: 38.50, 6: 45.00},
		"AT": {1: 22.00, 2: 29.50, 3: 37.00, 4: 44.50},
		"CH": {1: 35.00, 2: 48.00, 3: 61.00},
	}
}

// Lookup returns the matrix amount for country and zone.
func (m TollMatrix) Lookup(country string, zone int) (float64, bool) {
	zones, ok := m[strings.ToUpper(country)]
	if !ok {
		return 0, false
	}
	v, ok := zones[zone]
	return v, ok
}

// Toll is the toll line of a benchmark in the shipment currency.
type Toll struct {
	Amount float64  `json:"amount"`
	Source string   `json:"source"`
	Note   string   `json:"note,omitempty"`
	FxRate *float64 `json:"fx_rate,omitempty"`
}

type TollEstimator struct {
	matrix      TollMatrix
	thresholdKg float64
	fx          *fx.Converter
	rounder     money.Rounder
	log         *zap.Logger
}

func NewTollEstimator(matrix TollMatrix, thresholdKg float64, conv *fx.Converter, rounder money.Rounder, log *zap.Logger) *TollEstimator {
	if matrix == nil {
		matrix = DefaultTollMatrix()
	}
	return &TollEstimator{matrix: matrix, thresholdKg: thresholdKg, fx: conv, rounder: rounder, log: logger.OrNop(log)}
}

// Estimate returns the invoiced toll when the shipment carries one.
// Otherwise it applies the weight threshold (a vehicle-class approximation,
// not a shipment weight rule) and the country/zone matrix.
func (e *TollEstimator) Estimate(ctx context.Context, s model.ShipmentInput, zone int, tariffCurrency string) Toll {
	if amount, ok := s.InvoiceToll(); ok {
		return Toll{Amount: e.rounder.Round2(amount), Source: model.SourceFromInvoice}
	}
	if s.WeightKg < e.thresholdKg {
		return Toll{
			Amount: 0,
			Source: model.SourceBelowThreshold,
			Note:   fmt.Sprintf("weight %g kg below toll threshold %g kg", s.WeightKg, e.thresholdKg),
		}
	}

	amount, ok := e.matrix.Lookup(s.DestCountry, zone)
	if !ok {
		e.log.Debug("no toll matrix entry",
			zap.String("shipment_id", s.ShipmentID),
			zap.String("dest_country", s.DestCountry),
			zap.Int("zone", zone))
		return Toll{
			Amount: 0,
			Source: model.SourceEstimated,
			Note:   fmt.Sprintf("no toll estimate for %s zone %d", strings.ToUpper(s.DestCountry), zone),
		}
	}

	out := Toll{Amount: e.rounder.Round2(amount), Source: model.SourceEstimated}
	if !strings.EqualFold(tariffCurrency, s.Currency) {
		conv := e.fx.Convert(ctx, amount, tariffCurrency, s.Currency, s.Date)
		out.Amount = e.rounder.Round2(conv.Amount)
		out.FxRate = conv.Rate
		out.Note = conv.Note
	}
	return out
}
