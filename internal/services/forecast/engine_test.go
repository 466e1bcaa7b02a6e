package forecast

import (
	"context"
	"errors"
	"math"
	"os"
	"testing"
	"time"

	"SalePulse/internal/domain/models"
	"SalePulse/pkg/logger"
)

type fakeSalesStore struct {
	history []models.SalesRecord
	err     error
}

func (f *fakeSalesStore) AggregatesByDate(ctx context.Context, date time.Time) ([]models.SalesAggregate, error) {
	return nil, nil
}

func (f *fakeSalesStore) AggregateFor(ctx context.Context, store models.Store, date time.Time) (models.SalesAggregate, error) {
	return models.SalesAggregate{}, models.ErrNoData
}

func (f *fakeSalesStore) HistoryBefore(ctx context.Context, store models.Store, before time.Time, limit int) ([]models.SalesRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.history, nil
}

func (f *fakeSalesStore) Health(ctx context.Context) error { return nil }

type fakeMetrics struct {
	forecasts int
	errs      map[string]int
}

func (m *fakeMetrics) RecordTick(string)              {}
func (m *fakeMetrics) RecordAnomaly(string, string)   {}
func (m *fakeMetrics) RecordForecast(string, float64) { m.forecasts++ }
func (m *fakeMetrics) RecordLatency(string, float64)  {}
func (m *fakeMetrics) RecordError(kind string) {
	if m.errs == nil {
		m.errs = make(map[string]int)
	}
	m.errs[kind]++
}

func quietLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func testHistory(store models.Store, days int) []models.SalesRecord {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	recs := make([]models.SalesRecord, days)
	for n := range recs {
		recs[n] = models.SalesRecord{
			Date:       start.AddDate(0, 0, n),
			Store:      store,
			SumAmount:  4e8 + float64(n)*1e6,
			StoreCount: 12000,
		}
		for i := 0; i < 6; i++ {
			recs[n].Man[i] = 3e7
			recs[n].Woman[i] = 2.5e7
		}
	}
	return recs
}

func newTestEngine(t *testing.T, sales *fakeSalesStore, bias func(models.Store) []float64) (*Engine, *fakeMetrics, string) {
	t.Helper()
	dir := t.TempDir()
	writeArtifacts(t, dir, bias)
	reg, err := LoadRegistry(dir)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	chartDir := t.TempDir()
	charts, err := NewChartRenderer(chartDir)
	if err != nil {
		t.Fatalf("charts: %v", err)
	}
	metrics := &fakeMetrics{}
	return NewEngine(sales, reg, charts, metrics, quietLogger(t)), metrics, chartDir
}

func TestPredictProducesDenormalizedSegments(t *testing.T) {
	store := models.StoreGS25
	sales := &fakeSalesStore{history: testHistory(store, 14)}

	// Zero-weight model: denormalized output equals the dense bias.
	bias := make([]float64, models.SegmentCount)
	bias[0] = 5.2e8
	for i := 1; i < models.SegmentCount; i++ {
		bias[i] = float64(i) * 1e7
	}
	engine, metrics, _ := newTestEngine(t, sales, func(models.Store) []float64 { return bias })

	date := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	result, chartPath, err := engine.Predict(context.Background(), store, date)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}

	if math.Abs(result.SumAmount-5.2e8) > 1e-3 {
		t.Fatalf("sum_amount: got %v, want 5.2e8", result.SumAmount)
	}
	if math.Abs(result.Man[0]-1e7) > 1e-3 || math.Abs(result.Woman[5]-1.2e8) > 1e-3 {
		t.Fatalf("segment mapping drifted: man=%v woman=%v", result.Man, result.Woman)
	}
	if result.MaleTotal() <= 0 || result.FemaleTotal() <= result.MaleTotal() {
		t.Fatalf("unexpected gender subtotals: male=%v female=%v", result.MaleTotal(), result.FemaleTotal())
	}
	if metrics.forecasts != 1 {
		t.Fatalf("expected 1 forecast metric, got %d", metrics.forecasts)
	}

	if chartPath == "" {
		t.Fatalf("expected chart path")
	}
	if _, err := os.Stat(chartPath); err != nil {
		t.Fatalf("chart file missing: %v", err)
	}
}

func TestPredictInsufficientHistory(t *testing.T) {
	store := models.StoreCU
	sales := &fakeSalesStore{history: testHistory(store, 4)}
	engine, metrics, _ := newTestEngine(t, sales, flatBias(1))

	_, _, err := engine.Predict(context.Background(), store, time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if metrics.forecasts != 0 {
		t.Fatalf("no forecast should be recorded, got %d", metrics.forecasts)
	}
}

func TestPredictPropagatesStoreErrors(t *testing.T) {
	boom := errors.New("clickhouse down")
	sales := &fakeSalesStore{err: boom}
	engine, metrics, _ := newTestEngine(t, sales, flatBias(1))

	_, _, err := engine.Predict(context.Background(), models.StoreSeven, time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if metrics.errs["history_fetch"] != 1 {
		t.Fatalf("expected history_fetch error metric")
	}
}
