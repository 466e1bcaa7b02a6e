package features

import (
	"sort"
	"time"

	"SalePulse/internal/domain/models"
)

// WindowSize is the number of trailing records a forecast input needs.
const WindowSize = 7

// Rolling feature column names. These must match the names recorded
// in the exported input scalers; the forecast engine re-projects onto
// the scaler's own list, so a superset here is tolerated.
const (
	ColOnePlusOne = "one_plus_one_avg7"
	ColTwoPlusOne = "two_plus_one_avg7"
	ColMedia      = "media_avg7"
	ColStoreCount = "store_count_avg7"
)

// Row is one engineered timestep: rolling means keyed by column name.
type Row struct {
	Date   time.Time
	Values map[string]float64
}

// Names returns the full engineered column set in canonical order:
// promotion features, the 13 segment features, then store count.
func Names() []string {
	names := []string{ColOnePlusOne, ColTwoPlusOne, ColMedia}
	for _, col := range models.SegmentColumns {
		names = append(names, col+"_avg7")
	}
	return append(names, ColStoreCount)
}

// Build engineers the forecast input window for asOf: the last
// WindowSize records strictly before the date, each carrying rolling
// means computed over the trailing window of the full history.
// Returns models.ErrInsufficientData when fewer records exist; that is
// a reported condition, not a failure of the pipeline.
func Build(history []models.SalesRecord, asOf time.Time) ([]Row, error) {
	recs := make([]models.SalesRecord, 0, len(history))
	for _, r := range history {
		if r.Date.Before(asOf) {
			recs = append(recs, r)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Date.Before(recs[j].Date) })

	if len(recs) < WindowSize {
		return nil, models.ErrInsufficientData
	}

	rows := engineer(recs)
	return rows[len(rows)-WindowSize:], nil
}

// engineer computes every rolling column over the whole series. The
// rolling mean uses min-periods-1 semantics: early points average over
// however many records exist so far.
func engineer(recs []models.SalesRecord) []Row {
	series := map[string][]float64{
		ColOnePlusOne: column(recs, func(r *models.SalesRecord) float64 { return r.OnePlusOne }),
		ColTwoPlusOne: column(recs, func(r *models.SalesRecord) float64 { return r.TwoPlusOne }),
		ColMedia:      column(recs, func(r *models.SalesRecord) float64 { return r.MediaCount }),
		ColStoreCount: column(recs, func(r *models.SalesRecord) float64 { return r.StoreCount }),
	}
	for _, col := range models.SegmentColumns {
		col := col
		series[col+"_avg7"] = column(recs, func(r *models.SalesRecord) float64 {
			v, _ := r.Segment(col)
			return v
		})
	}

	rolled := make(map[string][]float64, len(series))
	for name, xs := range series {
		rolled[name] = RollingMean(xs, WindowSize)
	}

	rows := make([]Row, len(recs))
	for i := range recs {
		vals := make(map[string]float64, len(rolled))
		for name, xs := range rolled {
			vals[name] = xs[i]
		}
		rows[i] = Row{Date: recs[i].Date, Values: vals}
	}
	return rows
}

// RollingMean computes a trailing mean of up to window points with a
// minimum period of one: position i averages xs[max(0,i-window+1)..i].
func RollingMean(xs []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(xs))
	sum := 0.0
	for i, x := range xs {
		sum += x
		if i >= window {
			sum -= xs[i-window]
		}
		n := i + 1
		if n > window {
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

func column(recs []models.SalesRecord, get func(*models.SalesRecord) float64) []float64 {
	xs := make([]float64, len(recs))
	for i := range recs {
		xs[i] = get(&recs[i])
	}
	return xs
}
