package repository

import (
	"context"
	"time"

	"SalePulse/internal/domain/models"
)

// SalesStore is the read-only view of the external sales tables.
type SalesStore interface {
	// AggregatesByDate returns the per-store aggregate rows for one
	// day (possibly empty).
	AggregatesByDate(ctx context.Context, date time.Time) ([]models.SalesAggregate, error)
	// AggregateFor returns one store's aggregate row for a day, or
	// models.ErrNoData.
	AggregateFor(ctx context.Context, store models.Store, date time.Time) (models.SalesAggregate, error)
	// HistoryBefore returns up to limit records strictly before the
	// date, ordered ascending by date.
	HistoryBefore(ctx context.Context, store models.Store, before time.Time, limit int) ([]models.SalesRecord, error)
	Health(ctx context.Context) error
}

// LinkStore is the read-only view of the crawled link tables.
type LinkStore interface {
	// VideoURLs returns the video links for (date, store), upstream order.
	VideoURLs(ctx context.Context, store models.Store, date time.Time) ([]string, error)
	// NewsURLs returns the news links for (date, store), most recent first.
	NewsURLs(ctx context.Context, store models.Store, date time.Time) ([]string, error)
}

// RecordWriter persists ingested sales records (Kafka ingest path).
type RecordWriter interface {
	Write(ctx context.Context, r *models.SalesRecord) error
	WriteBatch(ctx context.Context, rs []*models.SalesRecord) error
	Close() error
}

// AlertPublisher fans anomaly events out to downstream consumers.
type AlertPublisher interface {
	Publish(ctx context.Context, ev *models.AnomalyEvent) error
	Close() error
}

// CursorStore checkpoints the simulation cursor between restarts.
// Optional: when absent the loop replays from the configured start.
type CursorStore interface {
	Load(ctx context.Context) (time.Time, bool, error)
	Save(ctx context.Context, cursor time.Time) error
}

// Metrics records operational counters and latencies.
type Metrics interface {
	RecordTick(result string)
	RecordAnomaly(store, kind string)
	RecordForecast(store string, seconds float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
