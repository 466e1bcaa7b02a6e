package usecase

import (
	"context"
	"fmt"
	"time"

	"SalePulse/internal/domain/models"
	"SalePulse/internal/domain/repository"
)

// SalesLookup answers "how did store X do on day Y" for both the chat
// commands and the HTTP API.
type SalesLookup struct {
	sales repository.SalesStore
}

func NewSalesLookup(sales repository.SalesStore) *SalesLookup {
	return &SalesLookup{sales: sales}
}

// Get returns the aggregate row for one (store, date), or
// models.ErrNoData.
func (s *SalesLookup) Get(ctx context.Context, store models.Store, date time.Time) (models.SalesAggregate, error) {
	agg, err := s.sales.AggregateFor(ctx, store, date)
	if err != nil {
		return models.SalesAggregate{}, err
	}
	return agg, nil
}

// FormatSales renders an aggregate row as a chat reply.
func FormatSales(agg models.SalesAggregate) string {
	return fmt.Sprintf(
		"%s sales on %s\nTotal: %.0f won\nGrowth vs previous day: %+.2f%%\nCross-chain average growth: %+.2f%%\nDeviation from average: %+.2f%%",
		agg.Store, agg.Date.Format(models.DateLayout),
		agg.SumAmount, agg.Growth, agg.AvgGrowth, agg.GrowthDeviation)
}
