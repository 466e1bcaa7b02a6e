package models

import "time"

// AnomalyKind classifies a threshold breach.
type AnomalyKind string

const (
	AnomalyHigh AnomalyKind = "high" // surge: deviation >= high bound
	AnomalyLow  AnomalyKind = "low"  // slump: deviation <= low bound
)

// Threshold holds the per-store deviation bounds. High must be
// strictly greater than Low; config validation enforces this before
// the detector is allowed to run.
type Threshold struct {
	High float64
	Low  float64
}

// Valid reports whether the bounds can classify unambiguously.
func (t Threshold) Valid() bool { return t.High > t.Low }

// AnomalyEvent is one threshold breach for one store and day,
// enriched with supplementary link sets before notification.
type AnomalyEvent struct {
	Date       time.Time
	Store      Store
	Kind       AnomalyKind
	SumAmount  float64
	Deviation  float64
	VideoLinks []string
	NewsLinks  []string
}
