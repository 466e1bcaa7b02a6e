package anomaly

import (
	"context"
	"fmt"
	"time"

	"SalePulse/internal/domain/models"
	"SalePulse/internal/domain/repository"
	"SalePulse/pkg/logger"
)

// Detector classifies each chain's daily growth deviation against its
// calibrated surge and slump thresholds and enriches hits with the
// crawled video and news links for that day.
type Detector struct {
	sales      repository.SalesStore
	links      repository.LinkStore
	thresholds map[models.Store]models.Threshold
	metrics    repository.Metrics
	log        *logger.Logger
}

// NewDetector validates that every store has a usable threshold pair.
// A high bound at or below the low bound is a configuration defect and
// refuses to start.
func NewDetector(
	sales repository.SalesStore,
	links repository.LinkStore,
	thresholds map[models.Store]models.Threshold,
	metrics repository.Metrics,
	log *logger.Logger,
) (*Detector, error) {
	for _, store := range models.AllStores() {
		th, ok := thresholds[store]
		if !ok {
			return nil, fmt.Errorf("anomaly thresholds missing for %s", store)
		}
		if !th.Valid() {
			return nil, fmt.Errorf("anomaly thresholds for %s: high %.3f must exceed low %.3f",
				store, th.High, th.Low)
		}
	}
	return &Detector{
		sales:      sales,
		links:      links,
		thresholds: thresholds,
		metrics:    metrics,
		log:        log,
	}, nil
}

// Check evaluates one day across all chains. Returns the anomaly
// events in the order the aggregate rows arrived, an empty slice when
// every chain stayed inside its band, or models.ErrNoData when the
// day has no rows at all.
func (d *Detector) Check(ctx context.Context, date time.Time) ([]models.AnomalyEvent, error) {
	aggs, err := d.sales.AggregatesByDate(ctx, date)
	if err != nil {
		d.metrics.RecordError("aggregate_fetch")
		return nil, fmt.Errorf("fetch aggregates for %s: %w", date.Format(models.DateLayout), err)
	}
	if len(aggs) == 0 {
		return nil, models.ErrNoData
	}

	events := make([]models.AnomalyEvent, 0, len(aggs))
	for _, agg := range aggs {
		th, ok := d.thresholds[agg.Store]
		if !ok {
			d.log.Warn("aggregate for untracked store", logger.String("store", agg.Store.String()))
			continue
		}

		var kind models.AnomalyKind
		switch {
		case agg.GrowthDeviation >= th.High:
			kind = models.AnomalyHigh
		case agg.GrowthDeviation <= th.Low:
			kind = models.AnomalyLow
		default:
			continue
		}

		ev := models.AnomalyEvent{
			Date:      agg.Date,
			Store:     agg.Store,
			Kind:      kind,
			SumAmount: agg.SumAmount,
			Deviation: agg.GrowthDeviation,
		}
		d.enrich(ctx, &ev)
		d.metrics.RecordAnomaly(agg.Store.String(), string(kind))
		d.log.Info("anomaly detected",
			logger.String("store", agg.Store.String()),
			logger.String("date", agg.Date.Format(models.DateLayout)),
			logger.String("kind", string(kind)),
			logger.Any("deviation", agg.GrowthDeviation))
		events = append(events, ev)
	}
	return events, nil
}

// enrich attaches the day's crawled links. Link fetch failures degrade
// the alert, they do not suppress it.
func (d *Detector) enrich(ctx context.Context, ev *models.AnomalyEvent) {
	videos, err := d.links.VideoURLs(ctx, ev.Store, ev.Date)
	if err != nil {
		d.metrics.RecordError("link_fetch")
		d.log.Warn("video link fetch failed",
			logger.String("store", ev.Store.String()), logger.Error(err))
	} else {
		ev.VideoLinks = videos
	}

	news, err := d.links.NewsURLs(ctx, ev.Store, ev.Date)
	if err != nil {
		d.metrics.RecordError("link_fetch")
		d.log.Warn("news link fetch failed",
			logger.String("store", ev.Store.String()), logger.Error(err))
	} else {
		ev.NewsLinks = news
	}
}
