package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"SalePulse/internal/domain/models"
	domrepo "SalePulse/internal/domain/repository"
	"SalePulse/pkg/cache"
)

// aggregateTTL bounds staleness of cached aggregate rows. The upstream
// pipeline appends once per day, so an hour is plenty.
const aggregateTTL = time.Hour

// CachedSalesStore decorates a SalesStore with read-through caching of
// single-row aggregate lookups. History reads pass through untouched,
// the forecast path wants fresh windows and the rows are too wide to
// be worth keying.
type CachedSalesStore struct {
	next  domrepo.SalesStore
	cache cache.Service
}

func NewCachedSalesStore(next domrepo.SalesStore, c cache.Service) *CachedSalesStore {
	return &CachedSalesStore{next: next, cache: c}
}

func (s *CachedSalesStore) AggregateFor(ctx context.Context, store models.Store, date time.Time) (models.SalesAggregate, error) {
	key := aggregateKey(store, date)

	var raw string
	if err := s.cache.Get(ctx, key, &raw); err == nil {
		var agg models.SalesAggregate
		if err := json.Unmarshal([]byte(raw), &agg); err == nil {
			return agg, nil
		}
		// Corrupt entry, fall through to the store.
		_ = s.cache.Delete(ctx, key)
	}

	agg, err := s.next.AggregateFor(ctx, store, date)
	if err != nil {
		return models.SalesAggregate{}, err
	}
	if data, err := json.Marshal(agg); err == nil {
		_ = s.cache.Set(ctx, key, string(data), aggregateTTL)
	}
	return agg, nil
}

func (s *CachedSalesStore) AggregatesByDate(ctx context.Context, date time.Time) ([]models.SalesAggregate, error) {
	return s.next.AggregatesByDate(ctx, date)
}

func (s *CachedSalesStore) HistoryBefore(ctx context.Context, store models.Store, before time.Time, limit int) ([]models.SalesRecord, error) {
	return s.next.HistoryBefore(ctx, store, before, limit)
}

func (s *CachedSalesStore) Health(ctx context.Context) error {
	return s.next.Health(ctx)
}

// Invalidate drops the cached aggregate for one (store, day) pair.
func (s *CachedSalesStore) Invalidate(ctx context.Context, store models.Store, date time.Time) {
	_ = s.cache.Delete(ctx, aggregateKey(store, date))
}

func aggregateKey(store models.Store, date time.Time) string {
	return fmt.Sprintf("agg:%s:%s", store, date.Format(models.DateLayout))
}
