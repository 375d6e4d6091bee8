package benchmark

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"freightbench/internal/model"
)

// ErrDuplicateBenchmark is returned in insert mode when a benchmark for the
// same tenant and shipment already exists under a unique index.
var ErrDuplicateBenchmark = errors.New("benchmark: duplicate shipment")

// Repository persists benchmark results.
type Repository interface {
	Save(ctx context.Context, r *model.BenchmarkResult) error
}

// NopRepository discards results. Used when no database is configured.
type NopRepository struct{}

func (NopRepository) Save(context.Context, *model.BenchmarkResult) error { return nil }

// PostgresRepository writes results to the benchmarks table. By default every
// computation inserts a new row; with upsert enabled the row for
// (tenant_id, shipment_id) is replaced.
type PostgresRepository struct {
	db     *pgxpool.Pool
	upsert bool
}

func NewPostgresRepository(db *pgxpool.Pool, upsertByShipment bool) *PostgresRepository {
	return &PostgresRepository{db: db, upsert: upsertByShipment}
}

const insertBenchmarkSQL = `
    INSERT INTO benchmarks (
        id, tenant_id, carrier_id, shipment_id,
        expected_base, expected_toll, expected_diesel, expected_total,
        actual_total, delta_amount, delta_pct, classification, currency,
        report_currency, report_amounts, cost_breakdown, calculation_metadata, created_at
    ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`

const upsertBenchmarkSQL = insertBenchmarkSQL + `
    ON CONFLICT (tenant_id, shipment_id) DO UPDATE SET
        id = EXCLUDED.id,
        carrier_id = EXCLUDED.carrier_id,
        expected_base = EXCLUDED.expected_base,
        expected_toll = EXCLUDED.expected_toll,
        expected_diesel = EXCLUDED.expected_diesel,
        expected_total = EXCLUDED.expected_total,
        actual_total = EXCLUDED.actual_total,
        delta_amount = EXCLUDED.delta_amount,
        delta_pct = EXCLUDED.delta_pct,
        classification = EXCLUDED.classification,
        currency = EXCLUDED.currency,
        report_currency = EXCLUDED.report_currency,
        report_amounts = EXCLUDED.report_amounts,
        cost_breakdown = EXCLUDED.cost_breakdown,
        calculation_metadata = EXCLUDED.calculation_metadata,
        created_at = EXCLUDED.created_at`

func (p *PostgresRepository) Save(ctx context.Context, r *model.BenchmarkResult) error {
	breakdown, err := json.Marshal(r.CostBreakdown)
	if err != nil {
		return fmt.Errorf("marshal cost_breakdown: %w", err)
	}
	meta, err := json.Marshal(r.Metadata)
	if err != nil {
		return fmt.Errorf("marshal calculation_metadata: %w", err)
	}
	var report []byte
	if r.ReportAmounts != nil {
		if report, err = json.Marshal(r.ReportAmounts); err != nil {
			return fmt.Errorf("marshal report_amounts: %w", err)
		}
	}

	stmt := insertBenchmarkSQL
	if p.upsert && r.ShipmentID != "" {
		stmt = upsertBenchmarkSQL
	}
	_, err = p.db.Exec(ctx, stmt,
		r.ID, r.TenantID, r.CarrierID, nullIfEmpty(r.ShipmentID),
		r.ExpectedBase, r.ExpectedToll, r.ExpectedDiesel, r.ExpectedTotal,
		r.ActualTotal, r.DeltaAmount, r.DeltaPct, string(r.Classification), r.Currency,
		nullIfEmpty(r.ReportCurrency), report, breakdown, meta, r.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %s/%s", ErrDuplicateBenchmark, r.TenantID, r.ShipmentID)
		}
		return fmt.Errorf("insert benchmark: %w", err)
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
