package benchmark

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"freightbench/internal/refdata"
)

// memoStore caches zone and FX lookups for the lifetime of one batch.
// Only hits and not-found answers are cached; other errors pass through.
type memoStore struct {
	refdata.Store

	mu       sync.Mutex
	prefixes map[string]memoEntry[refdata.ZoneMapping]
	patterns map[string]memoEntry[[]refdata.ZoneMapping]
	rates    map[string]memoEntry[refdata.FxRate]
}

type memoEntry[T any] struct {
	val T
	err error
}

func newMemoStore(store refdata.Store) *memoStore {
	return &memoStore{
		Store:    store,
		prefixes: make(map[string]memoEntry[refdata.ZoneMapping]),
		patterns: make(map[string]memoEntry[[]refdata.ZoneMapping]),
		rates:    make(map[string]memoEntry[refdata.FxRate]),
	}
}

func zoneKey(q refdata.ZoneQuery) string {
	return fmt.Sprintf("%s|%s|%s|%s", q.TenantID, q.CarrierID, q.Country, refdata.Day(q.Date).Format(time.DateOnly))
}

func memoize[T any](m *memoStore, cache map[string]memoEntry[T], key string, load func() (T, error)) (T, error) {
	m.mu.Lock()
	e, ok := cache[key]
	m.mu.Unlock()
	if ok {
		return e.val, e.err
	}
	v, err := load()
	if err == nil || errors.Is(err, refdata.ErrNotFound) {
		m.mu.Lock()
		cache[key] = memoEntry[T]{val: v, err: err}
		m.mu.Unlock()
	}
	return v, err
}

func (m *memoStore) FindZoneByPrefix(ctx context.Context, q refdata.ZoneQuery, prefix string, prefixLen int) (refdata.ZoneMapping, error) {
	key := fmt.Sprintf("%s|%s|%d", zoneKey(q), prefix, prefixLen)
	return memoize(m, m.prefixes, key, func() (refdata.ZoneMapping, error) {
		return m.Store.FindZoneByPrefix(ctx, q, prefix, prefixLen)
	})
}

func (m *memoStore) ListZonePatterns(ctx context.Context, q refdata.ZoneQuery) ([]refdata.ZoneMapping, error) {
	return memoize(m, m.patterns, zoneKey(q), func() ([]refdata.ZoneMapping, error) {
		return m.Store.ListZonePatterns(ctx, q)
	})
}

func (m *memoStore) FindFxRate(ctx context.Context, from, to string, date time.Time) (refdata.FxRate, error) {
	key := from + "|" + to + "|" + refdata.Day(date).Format(time.DateOnly)
	return memoize(m, m.rates, key, func() (refdata.FxRate, error) {
		return m.Store.FindFxRate(ctx, from, to, date)
	})
}
