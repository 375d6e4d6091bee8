// Package benchmark runs the expected-cost pipeline for shipments and
// compares the result against the invoiced amount.
//
// One computation runs, in order: lane classification, zone resolution
// (default zone on failure), tariff table lookup (fatal), chargeable weight,
// tariff rate lookup (fatal), base amount, conversion into the shipment
// currency (falls back to the unconverted amount), toll, diesel surcharge,
// delta and classification, optional report-currency amounts. The result is
// then saved and announced on a best-effort basis.
package benchmark

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"freightbench/internal/errorx"
	"freightbench/internal/fx"
	"freightbench/internal/logger"
	"freightbench/internal/model"
	"freightbench/internal/money"
	"freightbench/internal/rate"
	"freightbench/internal/refdata"
	"freightbench/internal/surcharge"
	"freightbench/internal/weight"
	"freightbench/internal/zone"
)

// Assembler wires the pipeline stages together. It holds no per-shipment
// state and is safe for concurrent use.
type Assembler struct {
	defaults Defaults
	rounder  money.Rounder
	repo     Repository
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time

	store   refdata.Store
	zones   *zone.Resolver
	tariffs *rate.Resolver
	weights *weight.Calculator
	fx      *fx.Converter
	diesel  *surcharge.DieselCalculator
	tolls   *surcharge.TollEstimator
}

// Option customizes an Assembler.
type Option func(*Assembler)

func WithRepository(r Repository) Option { return func(a *Assembler) { a.repo = r } }

func WithNotifier(n Notifier) Option { return func(a *Assembler) { a.notifier = n } }

func WithLogger(l *zap.Logger) Option { return func(a *Assembler) { a.log = logger.OrNop(l) } }

// WithClock overrides the clock used for CreatedAt.
func WithClock(now func() time.Time) Option { return func(a *Assembler) { a.now = now } }

func NewAssembler(store refdata.Store, defaults Defaults, opts ...Option) *Assembler {
	a := &Assembler{
		defaults: defaults,
		rounder:  money.NewRounder(defaults.RoundingMode),
		repo:     NopRepository{},
		notifier: NopNotifier{},
		log:      zap.NewNop(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(a)
	}
	a.bind(store)
	return a
}

func (a *Assembler) bind(store refdata.Store) {
	a.store = store
	a.zones = zone.NewResolver(store, a.log)
	a.tariffs = rate.NewResolver(store, a.rounder)
	a.weights = weight.NewCalculator(store, a.rounder, a.log)
	a.fx = fx.NewConverter(store, a.rounder, a.log)
	a.diesel = surcharge.NewDieselCalculator(store, a.rounder,
		surcharge.DieselDefault{Pct: a.defaults.DieselPct, Basis: a.defaults.DieselBasis}, a.log)
	a.tolls = surcharge.NewTollEstimator(a.defaults.TollMatrix, a.defaults.TollWeightThresholdKg, a.fx, a.rounder, a.log)
}

// withStore returns a copy of a whose stages read from store.
func (a *Assembler) withStore(store refdata.Store) *Assembler {
	c := *a
	c.bind(store)
	return &c
}

// Zones exposes the zone resolver the assembler uses.
func (a *Assembler) Zones() *zone.Resolver { return a.zones }

// FX exposes the currency converter the assembler uses.
func (a *Assembler) FX() *fx.Converter { return a.fx }

// Compute produces and persists the benchmark for one shipment. Missing
// input, a missing tariff table or rate, and inconsistent tariff rows are
// returned as errors; every other failure falls back and is recorded in the
// result metadata.
func (a *Assembler) Compute(ctx context.Context, s model.ShipmentInput) (*model.BenchmarkResult, error) {
	if missing := s.MissingFields(); len(missing) > 0 {
		return nil, errorx.Validation(strings.Join(missing, ","), "required")
	}
	s.Currency = strings.ToUpper(strings.TrimSpace(s.Currency))
	log := a.log.With(
		zap.String("tenant_id", s.TenantID),
		zap.String("carrier_id", s.CarrierID),
		zap.String("shipment_id", s.ShipmentID))

	meta := model.CalculationMetadata{RoundingMode: a.rounder.Mode().String()}

	lane := rate.DetermineLaneType(s.OriginCountry, s.DestCountry)
	meta.LaneType = string(lane)

	match, err := a.zones.ResolveMatch(ctx, s.TenantID, s.CarrierID, s.DestCountry, s.DestPostalCode, s.Date)
	zoneNo := match.Zone
	switch {
	case err == nil:
		meta.ZoneSource = model.SourceResolved
		meta.ZoneNote = fmt.Sprintf("%s match", match.Strategy)
	case errorx.IsValidation(err):
		return nil, err
	default:
		zoneNo = a.defaults.defaultZone(lane)
		meta.ZoneSource = model.SourceDefault
		meta.ZoneNote = err.Error()
		log.Warn("zone resolution failed, using default zone",
			zap.String("lane_type", string(lane)),
			zap.Int("zone", zoneNo),
			zap.Error(err))
	}
	meta.Zone = zoneNo

	table, err := a.tariffs.FindTable(ctx, s.TenantID, s.CarrierID, lane, s.Date)
	if err != nil {
		return nil, err
	}
	meta.TariffTableID = table.ID
	meta.TariffCurrency = table.Currency

	w := a.weights.Compute(ctx, s)
	meta.ChargeableWeightKg = w.Value
	meta.WeightBasis = w.Basis
	meta.WeightNote = w.Note

	row, err := a.tariffs.FindRate(ctx, table.ID, zoneNo, w.Value)
	if err != nil {
		return nil, err
	}
	meta.TariffRateID = row.ID

	baseRaw, err := a.tariffs.BaseAmount(row, w.Value)
	if err != nil {
		return nil, err
	}
	meta.BaseAmountRaw = baseRaw

	conv := a.fx.Convert(ctx, baseRaw, table.Currency, s.Currency, s.Date)
	base := a.rounder.Round2(conv.Amount)
	meta.FxRate = conv.Rate
	meta.FxNote = conv.Note

	toll := a.tolls.Estimate(ctx, s, zoneNo, table.Currency)
	meta.TollSource = toll.Source
	meta.TollNote = toll.Note

	diesel := a.diesel.Compute(ctx, s.TenantID, s.CarrierID, s.Date, base, toll.Amount)
	meta.DieselPct = diesel.Pct
	meta.DieselBasis = string(diesel.Basis)
	meta.DieselSource = diesel.Source

	total := a.rounder.Sum(base, toll.Amount, diesel.Amount)
	actual := a.rounder.Round2(s.ActualTotalAmount)
	delta := a.rounder.Sub(actual, total)
	deltaPct := a.rounder.PercentOf(delta, total)

	res := &model.BenchmarkResult{
		ID:             uuid.New(),
		ShipmentID:     s.ShipmentID,
		TenantID:       s.TenantID,
		CarrierID:      s.CarrierID,
		ExpectedBase:   base,
		ExpectedToll:   toll.Amount,
		ExpectedDiesel: diesel.Amount,
		ExpectedTotal:  total,
		ActualTotal:    actual,
		DeltaAmount:    delta,
		DeltaPct:       deltaPct,
		Classification: model.Classify(deltaPct, a.defaults.ClassificationThresholdPct),
		Currency:       s.Currency,
		CostBreakdown:  a.breakdown(s.Currency, zoneNo, w, row, base, conv, toll, diesel),
		Metadata:       meta,
		CreatedAt:      a.now(),
	}
	a.addReportAmounts(ctx, log, s.Date, res)

	a.persist(ctx, log, res)
	return res, nil
}

func (a *Assembler) breakdown(ccy string, zoneNo int, w weight.Chargeable, row refdata.TariffRate, base float64,
	conv fx.Conversion, toll surcharge.Toll, diesel surcharge.Diesel) []model.CostBreakdownLine {
	weightKg := w.Value
	var unit *float64
	desc := fmt.Sprintf("Base rate zone %d, flat per shipment", zoneNo)
	if row.RatePerShipment != nil {
		unit = row.RatePerShipment
	} else if row.RatePerKg != nil {
		unit = row.RatePerKg
		desc = fmt.Sprintf("Base rate zone %d, %g kg (%s) per kg", zoneNo, w.Value, w.Basis)
	}
	baseNote := conv.Note
	if baseNote == "" && conv.Rate != nil {
		baseNote = fmt.Sprintf("converted at %g", *conv.Rate)
	}

	pct := diesel.Pct
	dieselBase := diesel.Base
	return []model.CostBreakdownLine{
		{
			Item:        model.ItemBaseRate,
			Description: desc,
			Zone:        &zoneNo,
			WeightKg:    &weightKg,
			Rate:        unit,
			Amount:      base,
			Currency:    ccy,
			Note:        baseNote,
		},
		{
			Item:        model.ItemToll,
			Description: "Toll (" + toll.Source + ")",
			Amount:      toll.Amount,
			Currency:    ccy,
			Note:        toll.Note,
		},
		{
			Item:        model.ItemDieselSurcharge,
			Description: fmt.Sprintf("Diesel floater %g%% on %s", diesel.Pct, diesel.Basis),
			Base:        &dieselBase,
			Pct:         &pct,
			Amount:      diesel.Amount,
			Currency:    ccy,
			Note:        "source: " + diesel.Source,
		},
	}
}

// addReportAmounts converts the result into the reporting currency. Failure
// leaves ReportAmounts nil and is logged.
func (a *Assembler) addReportAmounts(ctx context.Context, log *zap.Logger, date time.Time, res *model.BenchmarkResult) {
	target := strings.ToUpper(strings.TrimSpace(a.defaults.ReportCurrency))
	if target == "" {
		return
	}
	res.ReportCurrency = target
	r, err := a.fx.Rate(ctx, res.Currency, target, date)
	if err != nil {
		res.Metadata.ReportFxNote = err.Error()
		log.Warn("report currency conversion failed",
			zap.String("from", res.Currency),
			zap.String("to", target),
			zap.Error(err))
		return
	}
	res.ReportAmounts = &model.ReportAmounts{
		ExpectedBase:   a.rounder.Mul(res.ExpectedBase, r),
		ExpectedToll:   a.rounder.Mul(res.ExpectedToll, r),
		ExpectedDiesel: a.rounder.Mul(res.ExpectedDiesel, r),
		ExpectedTotal:  a.rounder.Mul(res.ExpectedTotal, r),
		ActualTotal:    a.rounder.Mul(res.ActualTotal, r),
		DeltaAmount:    a.rounder.Mul(res.DeltaAmount, r),
		FxRate:         r,
	}
}

// persist saves and announces the result. Failures are logged only; the
// caller already holds a valid result.
func (a *Assembler) persist(ctx context.Context, log *zap.Logger, res *model.BenchmarkResult) {
	if err := a.repo.Save(ctx, res); err != nil {
		log.Error("failed to persist benchmark",
			zap.String("benchmark_id", res.ID.String()),
			zap.Error(err))
		return
	}
	if err := a.notifier.Notify(ctx, res); err != nil {
		log.Warn("failed to publish benchmark completion",
			zap.String("benchmark_id", res.ID.String()),
			zap.Error(err))
	}
}
