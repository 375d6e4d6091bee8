// Package zone maps a destination postal code to a carrier tariff zone.
//
// Resolution tries exact postal prefixes from the longest (five characters)
// down to two, and falls back to regex pattern mappings when no prefix row
// matches. All lookups are scoped to tenant, carrier, country and date.
package zone

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"freightbench/internal/errorx"
	"freightbench/internal/logger"
	"freightbench/internal/refdata"
)

const (
	maxPrefixLen = 5
	minPrefixLen = 2
)

// Match describes how a zone was found.
type Match struct {
	Zone     int    `json:"zone"`
	Strategy string `json:"strategy"`
	Prefix   string `json:"prefix,omitempty"`
	Pattern  string `json:"pattern,omitempty"`
}

const (
	StrategyPrefix  = "prefix"
	StrategyPattern = "pattern"
)

type Resolver struct {
	store refdata.Store
	log   *zap.Logger
}

func NewResolver(store refdata.Store, log *zap.Logger) *Resolver {
	return &Resolver{store: store, log: logger.OrNop(log)}
}

// Resolve returns the zone for postalCode. An empty code is a validation
// error; no matching mapping is a not-found error.
func (r *Resolver) Resolve(ctx context.Context, tenantID, carrierID, country, postalCode string, date time.Time) (int, error) {
	m, err := r.ResolveMatch(ctx, tenantID, carrierID, country, postalCode, date)
	if err != nil {
		return 0, err
	}
	return m.Zone, nil
}

// ResolveMatch is Resolve with the matching strategy reported.
func (r *Resolver) ResolveMatch(ctx context.Context, tenantID, carrierID, country, postalCode string, date time.Time) (Match, error) {
	code := strings.ToUpper(strings.TrimSpace(postalCode))
	if code == "" {
		return Match{}, errorx.Validation("postal_code", "must not be empty")
	}
	q := refdata.ZoneQuery{
		TenantID:  tenantID,
		CarrierID: carrierID,
		Country:   strings.ToUpper(strings.TrimSpace(country)),
		Date:      date,
	}

	runes := []rune(code)
	start := min(maxPrefixLen, len(runes))
	for n := start; n >= minPrefixLen; n-- {
		prefix := string(runes[:n])
		z, err := r.store.FindZoneByPrefix(ctx, q, prefix, n)
		if err == nil {
			return Match{Zone: z.Zone, Strategy: StrategyPrefix, Prefix: prefix}, nil
		}
		if !errors.Is(err, refdata.ErrNotFound) {
			return Match{}, fmt.Errorf("zone prefix lookup %s/%s: %w", q.Country, prefix, err)
		}
	}

	patterns, err := r.store.ListZonePatterns(ctx, q)
	if err != nil {
		return Match{}, fmt.Errorf("zone pattern lookup %s: %w", q.Country, err)
	}
	for _, p := range patterns {
		if p.Pattern == nil {
			continue
		}
		re, err := regexp.Compile("(?i)" + *p.Pattern)
		if err != nil {
			r.log.Warn("skipping invalid zone pattern",
				zap.String("mapping_id", p.ID),
				zap.String("pattern", *p.Pattern),
				zap.Error(err))
			continue
		}
		if re.MatchString(code) {
			return Match{Zone: p.Zone, Strategy: StrategyPattern, Pattern: *p.Pattern}, nil
		}
	}

	return Match{}, errorx.NotFound("zone", "%s/%s/%s %s %s", tenantID, carrierID, q.Country, code, date.Format(time.DateOnly))
}

// Request is one entry of a bulk resolution.
type Request struct {
	Country    string    `json:"country"`
	PostalCode string    `json:"postal_code"`
	Date       time.Time `json:"date"`
}

// Key identifies a request after normalization.
func (q Request) Key() string {
	return strings.ToUpper(strings.TrimSpace(q.Country)) + "|" +
		strings.ToUpper(strings.TrimSpace(q.PostalCode)) + "|" +
		refdata.Day(q.Date).Format(time.DateOnly)
}

// ResolveBulk resolves every request, deduplicating identical ones. Entries
// that fail are logged and left out of the result.
func (r *Resolver) ResolveBulk(ctx context.Context, tenantID, carrierID string, reqs []Request) map[string]int {
	out := make(map[string]int, len(reqs))
	seen := make(map[string]bool, len(reqs))
	for _, q := range reqs {
		key := q.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		z, err := r.Resolve(ctx, tenantID, carrierID, q.Country, q.PostalCode, q.Date)
		if err != nil {
			r.log.Warn("bulk zone resolution failed",
				zap.String("tenant_id", tenantID),
				zap.String("carrier_id", carrierID),
				zap.String("key", key),
				zap.Error(err))
			continue
		}
		out[key] = z
	}
	return out
}
