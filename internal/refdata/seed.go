package refdata

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Seed is the YAML layout accepted by LoadSeed. Dates are YYYY-MM-DD.
type Seed struct {
	ZoneMappings []struct {
		ID           string  `yaml:"id"`
		TenantID     string  `yaml:"tenant_id"`
		CarrierID    string  `yaml:"carrier_id"`
		Country      string  `yaml:"country"`
		PostalPrefix string  `yaml:"postal_prefix"`
		PrefixLength int     `yaml:"prefix_length"`
		Pattern      *string `yaml:"pattern"`
		Zone         int     `yaml:"zone"`
		ValidFrom    string  `yaml:"valid_from"`
		ValidUntil   string  `yaml:"valid_until"`
	} `yaml:"zone_mappings"`

	TariffTables []struct {
		ID         string `yaml:"id"`
		TenantID   string `yaml:"tenant_id"`
		CarrierID  string `yaml:"carrier_id"`
		LaneType   string `yaml:"lane_type"`
		Currency   string `yaml:"currency"`
		ValidFrom  string `yaml:"valid_from"`
		ValidUntil string `yaml:"valid_until"`
		Rates      []struct {
			ID              string   `yaml:"id"`
			Zone            int      `yaml:"zone"`
			WeightFromKg    float64  `yaml:"weight_from_kg"`
			WeightToKg      float64  `yaml:"weight_to_kg"`
			RatePerShipment *float64 `yaml:"rate_per_shipment"`
			RatePerKg       *float64 `yaml:"rate_per_kg"`
		} `yaml:"rates"`
	} `yaml:"tariff_tables"`

	DieselFloaters []struct {
		ID         string  `yaml:"id"`
		TenantID   string  `yaml:"tenant_id"`
		CarrierID  string  `yaml:"carrier_id"`
		FloaterPct float64 `yaml:"floater_pct"`
		Basis      string  `yaml:"basis"`
		ValidFrom  string  `yaml:"valid_from"`
		ValidUntil string  `yaml:"valid_until"`
	} `yaml:"diesel_floaters"`

	FxRates []struct {
		RateDate string  `yaml:"rate_date"`
		From     string  `yaml:"from"`
		To       string  `yaml:"to"`
		Rate     float64 `yaml:"rate"`
		Source   string  `yaml:"source"`
	} `yaml:"fx_rates"`

	Carriers []struct {
		TenantID        string          `yaml:"tenant_id"`
		CarrierID       string          `yaml:"carrier_id"`
		ConversionRules ConversionRules `yaml:"conversion_rules"`
	} `yaml:"carriers"`
}

// LoadSeed reads a YAML seed file into a new Memory store.
func LoadSeed(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("refdata seed: read %q: %w", path, err)
	}
	return ParseSeed(data)
}

// ParseSeed builds a Memory store from YAML seed bytes.
func ParseSeed(data []byte) (*Memory, error) {
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("refdata seed: parse yaml: %w", err)
	}
	m := NewMemory()

	for i, z := range s.ZoneMappings {
		v, err := parseValidity(z.ValidFrom, z.ValidUntil)
		if err != nil {
			return nil, fmt.Errorf("refdata seed: zone_mappings[%d]: %w", i, err)
		}
		if z.Zone <= 0 {
			return nil, fmt.Errorf("refdata seed: zone_mappings[%d]: zone must be positive", i)
		}
		m.AddZone(ZoneMapping{
			ID: z.ID, TenantID: z.TenantID, CarrierID: z.CarrierID, Country: z.Country,
			PostalPrefix: z.PostalPrefix, PrefixLength: z.PrefixLength, Pattern: z.Pattern,
			Zone: z.Zone, Validity: v,
		})
	}

	for i, t := range s.TariffTables {
		v, err := parseValidity(t.ValidFrom, t.ValidUntil)
		if err != nil {
			return nil, fmt.Errorf("refdata seed: tariff_tables[%d]: %w", i, err)
		}
		id := t.ID
		if id == "" {
			id = fmt.Sprintf("table-%d", i+1)
		}
		m.AddTariffTable(TariffTable{
			ID: id, TenantID: t.TenantID, CarrierID: t.CarrierID,
			LaneType: LaneType(strings.ToUpper(t.LaneType)), Currency: strings.ToUpper(t.Currency), Validity: v,
		})
		for j, r := range t.Rates {
			rid := r.ID
			if rid == "" {
				rid = fmt.Sprintf("%s-rate-%d", id, j+1)
			}
			m.AddTariffRate(TariffRate{
				ID: rid, TableID: id, Zone: r.Zone, WeightFromKg: r.WeightFromKg, WeightToKg: r.WeightToKg,
				RatePerShipment: r.RatePerShipment, RatePerKg: r.RatePerKg,
			})
		}
	}

	for i, f := range s.DieselFloaters {
		v, err := parseValidity(f.ValidFrom, f.ValidUntil)
		if err != nil {
			return nil, fmt.Errorf("refdata seed: diesel_floaters[%d]: %w", i, err)
		}
		basis, err := ParseDieselBasis(f.Basis)
		if err != nil {
			return nil, fmt.Errorf("refdata seed: diesel_floaters[%d]: %w", i, err)
		}
		m.AddDieselFloater(DieselFloater{
			ID: f.ID, TenantID: f.TenantID, CarrierID: f.CarrierID, FloaterPct: f.FloaterPct, Basis: basis, Validity: v,
		})
	}

	for i, r := range s.FxRates {
		d, err := time.Parse(time.DateOnly, r.RateDate)
		if err != nil {
			return nil, fmt.Errorf("refdata seed: fx_rates[%d]: rate_date: %w", i, err)
		}
		m.fx = append(m.fx, FxRate{
			RateDate: d, From: strings.ToUpper(r.From), To: strings.ToUpper(r.To), Rate: r.Rate, Source: r.Source,
		})
	}

	for _, c := range s.Carriers {
		m.SetCarrierRules(c.TenantID, c.CarrierID, c.ConversionRules)
	}
	return m, nil
}

func parseValidity(from, until string) (Validity, error) {
	var v Validity
	f, err := time.Parse(time.DateOnly, from)
	if err != nil {
		return v, fmt.Errorf("valid_from: %w", err)
	}
	v.ValidFrom = f
	if strings.TrimSpace(until) != "" {
		u, err := time.Parse(time.DateOnly, until)
		if err != nil {
			return v, fmt.Errorf("valid_until: %w", err)
		}
		v.ValidUntil = &u
	}
	return v, nil
}
