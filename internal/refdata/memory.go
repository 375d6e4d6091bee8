package refdata

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// Memory is an in-process Store. It is safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	zones    []ZoneMapping
	tables   []TariffTable
	rates    []TariffRate
	floaters []DieselFloater
	fx       []FxRate
	rules    map[string]ConversionRules
}

func NewMemory() *Memory {
	return &Memory{rules: make(map[string]ConversionRules)}
}

func (m *Memory) AddZone(z ZoneMapping) {
	m.mu.Lock()
	defer m.mu.Unlock()
	z.Country = strings.ToUpper(z.Country)
	z.PostalPrefix = strings.ToUpper(z.PostalPrefix)
	if z.PrefixLength == 0 {
		z.PrefixLength = utf8.RuneCountInString(z.PostalPrefix)
	}
	m.zones = append(m.zones, z)
}

func (m *Memory) AddTariffTable(t TariffTable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables = append(m.tables, t)
}

func (m *Memory) AddTariffRate(r TariffRate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates = append(m.rates, r)
}

func (m *Memory) AddDieselFloater(f DieselFloater) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.floaters = append(m.floaters, f)
}

func (m *Memory) SetCarrierRules(tenantID, carrierID string, rules ConversionRules) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules[ruleKey(tenantID, carrierID)] = rules
}

func (m *Memory) FindZoneByPrefix(_ context.Context, q ZoneQuery, prefix string, prefixLen int) (ZoneMapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var best *ZoneMapping
	for i := range m.zones {
		z := &m.zones[i]
		if !m.inZoneScope(z, q) || z.PostalPrefix != prefix || z.PrefixLength != prefixLen {
			continue
		}
		if best == nil || z.ValidFrom.After(best.ValidFrom) {
			best = z
		}
	}
	if best == nil {
		return ZoneMapping{}, ErrNotFound
	}
	return *best, nil
}

func (m *Memory) ListZonePatterns(_ context.Context, q ZoneQuery) ([]ZoneMapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ZoneMapping
	for _, z := range m.zones {
		if z.Pattern != nil && m.inZoneScope(&z, q) {
			out = append(out, z)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ValidFrom.After(out[j].ValidFrom) })
	return out, nil
}

func (m *Memory) inZoneScope(z *ZoneMapping, q ZoneQuery) bool {
	return z.TenantID == q.TenantID && z.CarrierID == q.CarrierID &&
		z.Country == strings.ToUpper(q.Country) && z.Covers(q.Date)
}

func (m *Memory) FindTariffTable(_ context.Context, tenantID, carrierID string, lane LaneType, date time.Time) (TariffTable, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var best *TariffTable
	for i := range m.tables {
		t := &m.tables[i]
		if t.TenantID != tenantID || t.CarrierID != carrierID || t.LaneType != lane || !t.Covers(date) {
			continue
		}
		if best == nil || t.ValidFrom.After(best.ValidFrom) {
			best = t
		}
	}
	if best == nil {
		return TariffTable{}, ErrNotFound
	}
	return *best, nil
}

func (m *Memory) ListTariffRates(_ context.Context, tableID string, zone int, weightKg float64) ([]TariffRate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []TariffRate
	for _, r := range m.rates {
		if r.TableID == tableID && r.Zone == zone && r.Contains(weightKg) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Memory) FindDieselFloater(_ context.Context, tenantID, carrierID string, date time.Time) (DieselFloater, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var best *DieselFloater
	for i := range m.floaters {
		f := &m.floaters[i]
		if f.TenantID != tenantID || f.CarrierID != carrierID || !f.Covers(date) {
			continue
		}
		if best == nil || f.ValidFrom.After(best.ValidFrom) {
			best = f
		}
	}
	if best == nil {
		return DieselFloater{}, ErrNotFound
	}
	return *best, nil
}

func (m *Memory) FindFxRate(_ context.Context, from, to string, date time.Time) (FxRate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	day := Day(date)
	var best *FxRate
	for i := range m.fx {
		r := &m.fx[i]
		if r.From != from || r.To != to || Day(r.RateDate).After(day) {
			continue
		}
		if best == nil || r.RateDate.After(best.RateDate) {
			best = r
		}
	}
	if best == nil {
		return FxRate{}, ErrNotFound
	}
	return *best, nil
}

func (m *Memory) InsertFxRate(_ context.Context, rate FxRate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rate.RateDate = Day(rate.RateDate)
	for i, r := range m.fx {
		if r.From == rate.From && r.To == rate.To && r.RateDate.Equal(rate.RateDate) {
			m.fx[i] = rate
			return nil
		}
	}
	m.fx = append(m.fx, rate)
	return nil
}

func (m *Memory) CarrierRules(_ context.Context, tenantID, carrierID string) (ConversionRules, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rules[ruleKey(tenantID, carrierID)]
	if !ok {
		return ConversionRules{}, ErrNotFound
	}
	return r, nil
}

func ruleKey(tenantID, carrierID string) string { return tenantID + "/" + carrierID }
