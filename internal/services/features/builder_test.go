package features

import (
	"errors"
	"math"
	"testing"
	"time"

	"SalePulse/internal/domain/models"
)

func day(n int) time.Time {
	return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func record(n int, sum float64) models.SalesRecord {
	return models.SalesRecord{
		Date:       day(n),
		Store:      models.StoreGS25,
		SumAmount:  sum,
		OnePlusOne: float64(n),
		StoreCount: 100,
	}
}

func TestRollingMeanMinPeriods(t *testing.T) {
	got := RollingMean([]float64{2, 4, 6, 8}, 3)
	want := []float64{2, 3, 4, 6}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("position %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestBuildWindowSizeAndOrder(t *testing.T) {
	var history []models.SalesRecord
	for n := 0; n < 10; n++ {
		history = append(history, record(n, float64(100+n)))
	}

	rows, err := Build(history, day(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != WindowSize {
		t.Fatalf("expected %d rows, got %d", WindowSize, len(rows))
	}
	if !rows[0].Date.Equal(day(3)) || !rows[6].Date.Equal(day(9)) {
		t.Fatalf("unexpected window dates %v..%v", rows[0].Date, rows[6].Date)
	}
}

func TestBuildExcludesAsOfDay(t *testing.T) {
	var history []models.SalesRecord
	for n := 0; n < 8; n++ {
		history = append(history, record(n, 100))
	}

	rows, err := Build(history, day(7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range rows {
		if !r.Date.Before(day(7)) {
			t.Fatalf("window leaked record on or after asOf: %v", r.Date)
		}
	}
}

func TestBuildInsufficientHistory(t *testing.T) {
	var history []models.SalesRecord
	for n := 0; n < 6; n++ {
		history = append(history, record(n, 100))
	}

	_, err := Build(history, day(10))
	if !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestBuildRollingValues(t *testing.T) {
	var history []models.SalesRecord
	for n := 0; n < 9; n++ {
		history = append(history, record(n, float64(n+1)))
	}

	rows, err := Build(history, day(9))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Last row averages sum_amount over records 3..9 (values 3..9).
	last := rows[len(rows)-1]
	got := last.Values["sum_amount_avg7"]
	want := (3.0 + 4 + 5 + 6 + 7 + 8 + 9) / 7
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("sum_amount_avg7: got %v, want %v", got, want)
	}

	for _, name := range Names() {
		if _, ok := last.Values[name]; !ok {
			t.Fatalf("missing engineered column %q", name)
		}
	}
}
