package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"SalePulse/internal/domain/models"
)

type fakeForecaster struct {
	result models.ForecastResult
	chart  string
	err    error
	calls  int
}

func (f *fakeForecaster) Predict(ctx context.Context, store models.Store, date time.Time) (models.ForecastResult, string, error) {
	f.calls++
	return f.result, f.chart, f.err
}

func TestForecastJobDeliversResult(t *testing.T) {
	result := models.ForecastResult{
		Date:      time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
		Store:     models.StoreGS25,
		SumAmount: 4.2e8,
	}
	fc := &fakeForecaster{result: result, chart: "/tmp/GS25_2024-05-02.png"}
	notifier := &fakeNotifier{}
	job := NewForecastJob(fc, notifier, quietLogger(t))

	err := job.Handle(context.Background(), ForecastPayload{
		Store: "GS25", Date: "2024-05-02", Channel: "ops",
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(notifier.messages) != 1 || !strings.Contains(notifier.messages[0].Text, "4.20 hundred million won") {
		t.Fatalf("unexpected reply %+v", notifier.messages)
	}
	if len(notifier.uploads) != 1 || notifier.uploads[0] != fc.chart {
		t.Fatalf("chart not uploaded: %+v", notifier.uploads)
	}
}

func TestForecastJobInsufficientHistoryNotRetried(t *testing.T) {
	fc := &fakeForecaster{err: models.ErrInsufficientData}
	notifier := &fakeNotifier{}
	job := NewForecastJob(fc, notifier, quietLogger(t))

	err := job.Handle(context.Background(), ForecastPayload{
		Store: "CU", Date: "2024-05-02", Channel: "ops",
	})
	if err != nil {
		t.Fatalf("insufficient history must not be retried: %v", err)
	}
	if len(notifier.messages) != 1 || !strings.Contains(notifier.messages[0].Text, "Not enough history") {
		t.Fatalf("unexpected reply %+v", notifier.messages)
	}
}

func TestForecastJobTransientErrorRetried(t *testing.T) {
	boom := errors.New("clickhouse timeout")
	fc := &fakeForecaster{err: boom}
	job := NewForecastJob(fc, &fakeNotifier{}, quietLogger(t))

	err := job.Handle(context.Background(), ForecastPayload{
		Store: "CU", Date: "2024-05-02", Channel: "ops",
	})
	if !errors.Is(err, boom) {
		t.Fatalf("transient error must surface for retry, got %v", err)
	}
}

func TestForecastJobModelFailureNotRetried(t *testing.T) {
	fc := &fakeForecaster{err: models.NewModelError(models.StoreCU, "input transform")}
	notifier := &fakeNotifier{}
	job := NewForecastJob(fc, notifier, quietLogger(t))

	err := job.Handle(context.Background(), ForecastPayload{
		Store: "CU", Date: "2024-05-02", Channel: "ops",
	})
	if err != nil {
		t.Fatalf("model failure must not be retried: %v", err)
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("expected failure reply, got %+v", notifier.messages)
	}
}

func TestForecastJobRejectsBadPayload(t *testing.T) {
	job := NewForecastJob(&fakeForecaster{}, &fakeNotifier{}, quietLogger(t))
	if err := job.Handle(context.Background(), ForecastPayload{Store: "LAWSON", Date: "2024-05-02"}); err == nil {
		t.Fatalf("expected store parse error")
	}
	if err := job.Handle(context.Background(), ForecastPayload{Store: "CU", Date: "May 2"}); err == nil {
		t.Fatalf("expected date parse error")
	}
}
