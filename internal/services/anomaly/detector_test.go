package anomaly

import (
	"context"
	"errors"
	"testing"
	"time"

	"SalePulse/internal/domain/models"
	"SalePulse/pkg/logger"
)

var testThresholds = map[models.Store]models.Threshold{
	models.StoreCU:    {High: 1.252, Low: -1.344},
	models.StoreGS25:  {High: 1.135, Low: -1.461},
	models.StoreSeven: {High: 1.394, Low: -1.374},
}

type fakeSales struct {
	aggs []models.SalesAggregate
	err  error
}

func (f *fakeSales) AggregatesByDate(ctx context.Context, date time.Time) ([]models.SalesAggregate, error) {
	return f.aggs, f.err
}

func (f *fakeSales) AggregateFor(ctx context.Context, store models.Store, date time.Time) (models.SalesAggregate, error) {
	return models.SalesAggregate{}, models.ErrNoData
}

func (f *fakeSales) HistoryBefore(ctx context.Context, store models.Store, before time.Time, limit int) ([]models.SalesRecord, error) {
	return nil, nil
}

func (f *fakeSales) Health(ctx context.Context) error { return nil }

type fakeLinks struct {
	videos []string
	news   []string
	err    error
}

func (f *fakeLinks) VideoURLs(ctx context.Context, store models.Store, date time.Time) ([]string, error) {
	return f.videos, f.err
}

func (f *fakeLinks) NewsURLs(ctx context.Context, store models.Store, date time.Time) ([]string, error) {
	return f.news, f.err
}

type nopMetrics struct{ anomalies int }

func (m *nopMetrics) RecordTick(string)              {}
func (m *nopMetrics) RecordAnomaly(string, string)   { m.anomalies++ }
func (m *nopMetrics) RecordForecast(string, float64) {}
func (m *nopMetrics) RecordError(string)             {}
func (m *nopMetrics) RecordLatency(string, float64)  {}

func quietLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func testDay() time.Time {
	return time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
}

func agg(store models.Store, deviation float64) models.SalesAggregate {
	return models.SalesAggregate{
		Date:            testDay(),
		Store:           store,
		SumAmount:       4.1e8,
		GrowthDeviation: deviation,
	}
}

func newDetector(t *testing.T, sales *fakeSales, links *fakeLinks) (*Detector, *nopMetrics) {
	t.Helper()
	metrics := &nopMetrics{}
	d, err := NewDetector(sales, links, testThresholds, metrics, quietLogger(t))
	if err != nil {
		t.Fatalf("detector: %v", err)
	}
	return d, metrics
}

func TestCheckClassifiesBothDirections(t *testing.T) {
	sales := &fakeSales{aggs: []models.SalesAggregate{
		agg(models.StoreGS25, 1.2),   // above 1.135
		agg(models.StoreCU, -1.5),    // below -1.344
		agg(models.StoreSeven, 0.02), // inside band
	}}
	links := &fakeLinks{videos: []string{"v1"}, news: []string{"n1", "n2"}}
	d, metrics := newDetector(t, sales, links)

	events, err := d.Check(context.Background(), testDay())
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Store != models.StoreGS25 || events[0].Kind != models.AnomalyHigh {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[1].Store != models.StoreCU || events[1].Kind != models.AnomalyLow {
		t.Fatalf("unexpected second event: %+v", events[1])
	}
	if len(events[0].NewsLinks) != 2 || len(events[0].VideoLinks) != 1 {
		t.Fatalf("links not attached: %+v", events[0])
	}
	if metrics.anomalies != 2 {
		t.Fatalf("expected 2 anomaly metrics, got %d", metrics.anomalies)
	}
}

func TestCheckThresholdBoundariesInclusive(t *testing.T) {
	sales := &fakeSales{aggs: []models.SalesAggregate{
		agg(models.StoreCU, 1.252),    // exactly at high
		agg(models.StoreGS25, -1.461), // exactly at low
	}}
	d, _ := newDetector(t, sales, &fakeLinks{})

	events, err := d.Check(context.Background(), testDay())
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("boundary values must trigger, got %d events", len(events))
	}
	if events[0].Kind != models.AnomalyHigh || events[1].Kind != models.AnomalyLow {
		t.Fatalf("unexpected kinds: %v %v", events[0].Kind, events[1].Kind)
	}
}

func TestCheckQuietDay(t *testing.T) {
	sales := &fakeSales{aggs: []models.SalesAggregate{
		agg(models.StoreCU, 0.4),
		agg(models.StoreGS25, -0.9),
		agg(models.StoreSeven, 1.0),
	}}
	d, _ := newDetector(t, sales, &fakeLinks{})

	events, err := d.Check(context.Background(), testDay())
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}

func TestCheckNoData(t *testing.T) {
	d, _ := newDetector(t, &fakeSales{}, &fakeLinks{})
	_, err := d.Check(context.Background(), testDay())
	if !errors.Is(err, models.ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestCheckLinkFailureDegrades(t *testing.T) {
	sales := &fakeSales{aggs: []models.SalesAggregate{agg(models.StoreSeven, 2.0)}}
	d, _ := newDetector(t, sales, &fakeLinks{err: errors.New("link table gone")})

	events, err := d.Check(context.Background(), testDay())
	if err != nil {
		t.Fatalf("link failure must not suppress the alert: %v", err)
	}
	if len(events) != 1 || len(events[0].NewsLinks) != 0 {
		t.Fatalf("expected one bare event, got %+v", events)
	}
}

func TestNewDetectorRejectsInvertedThresholds(t *testing.T) {
	bad := map[models.Store]models.Threshold{
		models.StoreCU:    {High: -2, Low: 1},
		models.StoreGS25:  testThresholds[models.StoreGS25],
		models.StoreSeven: testThresholds[models.StoreSeven],
	}
	if _, err := NewDetector(&fakeSales{}, &fakeLinks{}, bad, &nopMetrics{}, quietLogger(t)); err == nil {
		t.Fatalf("expected threshold validation failure")
	}
}
