package models

import "time"

// ForecastResult holds the 13 denormalized next-day predictions for
// one store plus derived gender subtotals. Ephemeral, computed per
// request.
type ForecastResult struct {
	Date      time.Time
	Store     Store
	SumAmount float64
	Man       [6]float64
	Woman     [6]float64
}

// MaleTotal sums the six male age buckets.
func (f *ForecastResult) MaleTotal() float64 {
	var total float64
	for _, v := range f.Man {
		total += v
	}
	return total
}

// FemaleTotal sums the six female age buckets.
func (f *ForecastResult) FemaleTotal() float64 {
	var total float64
	for _, v := range f.Woman {
		total += v
	}
	return total
}

// Segments flattens the result back into training column order.
func (f *ForecastResult) Segments() []float64 {
	out := make([]float64, 0, SegmentCount)
	out = append(out, f.SumAmount)
	out = append(out, f.Man[:]...)
	out = append(out, f.Woman[:]...)
	return out
}

// ForecastResultFromSegments builds a result from 13 values in
// training column order.
func ForecastResultFromSegments(store Store, date time.Time, vals []float64) ForecastResult {
	r := ForecastResult{Date: date, Store: store}
	if len(vals) != SegmentCount {
		return r
	}
	r.SumAmount = vals[0]
	copy(r.Man[:], vals[1:7])
	copy(r.Woman[:], vals[7:13])
	return r
}
