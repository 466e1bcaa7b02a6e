package models

import "time"

// DateLayout is the canonical day format used across queries, tokens,
// and chart file names.
const DateLayout = "2006-01-02"

// SegmentCount is the number of predicted sales dimensions:
// sum_amount plus six male and six female age buckets.
const SegmentCount = 13

// SegmentColumns lists the 13 output columns in training order.
var SegmentColumns = []string{
	"sum_amount",
	"man10", "man20", "man30", "man40", "man50", "man60",
	"woman10", "woman20", "woman30", "woman40", "woman50", "woman60",
}

// SalesRecord is one day of aggregated sales for a single chain,
// produced upstream by the crawling pipeline. Read-only to this core.
type SalesRecord struct {
	Date       time.Time
	Store      Store
	SumAmount  float64
	Man        [6]float64 // age buckets 10s..60+
	Woman      [6]float64
	StoreCount float64
	// Promotion signals counted upstream.
	OnePlusOne float64 // 1+1 event count
	TwoPlusOne float64 // 2+1 event count
	MediaCount float64 // broadcast/media exposure count
}

// Segment returns the value of one of the 13 segment columns by name.
func (r *SalesRecord) Segment(name string) (float64, bool) {
	switch name {
	case "sum_amount":
		return r.SumAmount, true
	}
	for i := 0; i < 6; i++ {
		if name == SegmentColumns[1+i] {
			return r.Man[i], true
		}
		if name == SegmentColumns[7+i] {
			return r.Woman[i], true
		}
	}
	return 0, false
}

// SalesAggregate is one row of the per-day aggregate table. The
// growth and deviation figures are precomputed upstream; this core
// never derives them.
type SalesAggregate struct {
	Date            time.Time
	Store           Store
	SumAmount       float64
	Growth          float64 // day-over-day growth, percent
	AvgGrowth       float64 // cross-chain average growth, percent
	GrowthDeviation float64 // Growth - AvgGrowth, percent
}
