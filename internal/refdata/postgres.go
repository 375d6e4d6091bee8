package refdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres reads reference data from the tables in db/schema.sql.
type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

// validOn is the half-open validity predicate; $n is the target date.
func validOn(n int) string {
	return fmt.Sprintf("valid_from <= $%d AND (valid_until IS NULL OR valid_until > $%d)", n, n)
}

func (p *Postgres) FindZoneByPrefix(ctx context.Context, q ZoneQuery, prefix string, prefixLen int) (ZoneMapping, error) {
	row := p.db.QueryRow(ctx, `
        SELECT id::text, tenant_id, carrier_id, country, COALESCE(plz_prefix, ''), COALESCE(prefix_len, 0), pattern, zone, valid_from, valid_until
        FROM zone_mappings
        WHERE tenant_id = $1 AND carrier_id = $2 AND country = $3
          AND plz_prefix = $4 AND prefix_len = $5
          AND `+validOn(6)+`
        ORDER BY valid_from DESC
        LIMIT 1`,
		q.TenantID, q.CarrierID, strings.ToUpper(q.Country), prefix, prefixLen, Day(q.Date))
	z, err := scanZone(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return ZoneMapping{}, ErrNotFound
	}
	return z, err
}

func (p *Postgres) ListZonePatterns(ctx context.Context, q ZoneQuery) ([]ZoneMapping, error) {
	rows, err := p.db.Query(ctx, `
        SELECT id::text, tenant_id, carrier_id, country, COALESCE(plz_prefix, ''), COALESCE(prefix_len, 0), pattern, zone, valid_from, valid_until
        FROM zone_mappings
        WHERE tenant_id = $1 AND carrier_id = $2 AND country = $3
          AND pattern IS NOT NULL
          AND `+validOn(4)+`
        ORDER BY valid_from DESC`,
		q.TenantID, q.CarrierID, strings.ToUpper(q.Country), Day(q.Date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ZoneMapping
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, z)
	}
	return out, rows.Err()
}

func scanZone(row pgx.Row) (ZoneMapping, error) {
	var z ZoneMapping
	err := row.Scan(&z.ID, &z.TenantID, &z.CarrierID, &z.Country, &z.PostalPrefix, &z.PrefixLength,
		&z.Pattern, &z.Zone, &z.ValidFrom, &z.ValidUntil)
	return z, err
}

func (p *Postgres) FindTariffTable(ctx context.Context, tenantID, carrierID string, lane LaneType, date time.Time) (TariffTable, error) {
	var t TariffTable
	var laneStr string
	err := p.db.QueryRow(ctx, `
        SELECT id::text, tenant_id, carrier_id, lane_type, currency, valid_from, valid_until
        FROM tariff_tables
        WHERE tenant_id = $1 AND carrier_id = $2 AND lane_type = $3
          AND `+validOn(4)+`
        ORDER BY valid_from DESC
        LIMIT 1`,
		tenantID, carrierID, string(lane), Day(date)).
		Scan(&t.ID, &t.TenantID, &t.CarrierID, &laneStr, &t.Currency, &t.ValidFrom, &t.ValidUntil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TariffTable{}, ErrNotFound
		}
		return TariffTable{}, err
	}
	t.LaneType = LaneType(laneStr)
	return t, nil
}

func (p *Postgres) ListTariffRates(ctx context.Context, tableID string, zone int, weightKg float64) ([]TariffRate, error) {
	rows, err := p.db.Query(ctx, `
        SELECT id::text, tariff_table_id::text, zone, weight_from_kg, weight_to_kg, rate_per_shipment, rate_per_kg
        FROM tariff_rates
        WHERE tariff_table_id = CAST($1::text AS uuid) AND zone = $2
          AND weight_from_kg <= $3 AND weight_to_kg >= $3
        ORDER BY weight_from_kg DESC`,
		tableID, zone, weightKg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TariffRate
	for rows.Next() {
		var r TariffRate
		if err := rows.Scan(&r.ID, &r.TableID, &r.Zone, &r.WeightFromKg, &r.WeightToKg, &r.RatePerShipment, &r.RatePerKg); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *Postgres) FindDieselFloater(ctx context.Context, tenantID, carrierID string, date time.Time) (DieselFloater, error) {
	var f DieselFloater
	var basis string
	err := p.db.QueryRow(ctx, `
        SELECT id::text, tenant_id, carrier_id, floater_pct, basis, valid_from, valid_until
        FROM diesel_floaters
        WHERE tenant_id = $1 AND carrier_id = $2
          AND `+validOn(3)+`
        ORDER BY valid_from DESC
        LIMIT 1`,
		tenantID, carrierID, Day(date)).
		Scan(&f.ID, &f.TenantID, &f.CarrierID, &f.FloaterPct, &basis, &f.ValidFrom, &f.ValidUntil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DieselFloater{}, ErrNotFound
		}
		return DieselFloater{}, err
	}
	f.Basis, err = ParseDieselBasis(basis)
	if err != nil {
		return DieselFloater{}, fmt.Errorf("diesel floater %s: %w", f.ID, err)
	}
	return f, nil
}

func (p *Postgres) FindFxRate(ctx context.Context, from, to string, date time.Time) (FxRate, error) {
	var r FxRate
	err := p.db.QueryRow(ctx, `
        SELECT rate_date, from_ccy, to_ccy, rate, COALESCE(source, '')
        FROM fx_rates
        WHERE from_ccy = $1 AND to_ccy = $2 AND rate_date <= $3
        ORDER BY rate_date DESC
        LIMIT 1`,
		from, to, Day(date)).
		Scan(&r.RateDate, &r.From, &r.To, &r.Rate, &r.Source)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FxRate{}, ErrNotFound
		}
		return FxRate{}, err
	}
	return r, nil
}

func (p *Postgres) InsertFxRate(ctx context.Context, rate FxRate) error {
	_, err := p.db.Exec(ctx, `
        INSERT INTO fx_rates (rate_date, from_ccy, to_ccy, rate, source)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (rate_date, from_ccy, to_ccy)
        DO UPDATE SET rate = EXCLUDED.rate, source = EXCLUDED.source`,
		Day(rate.RateDate), rate.From, rate.To, rate.Rate, nullIfEmpty(rate.Source))
	return err
}

func (p *Postgres) CarrierRules(ctx context.Context, tenantID, carrierID string) (ConversionRules, error) {
	var raw []byte
	err := p.db.QueryRow(ctx, `
        SELECT conversion_rules
        FROM carriers
        WHERE tenant_id = $1 AND id = $2`,
		tenantID, carrierID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ConversionRules{}, ErrNotFound
		}
		return ConversionRules{}, err
	}
	if len(raw) == 0 {
		return ConversionRules{}, ErrNotFound
	}
	var rules ConversionRules
	if err := json.Unmarshal(raw, &rules); err != nil {
		return ConversionRules{}, err
	}
	return rules, nil
}

func nullIfEmpty(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
