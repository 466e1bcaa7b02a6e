package forecast

import (
	"encoding/json"
	"fmt"
	"os"
)

// Scaler is an exported min-max scaler: per-column training minima and
// maxima keyed by feature name. The name list is authoritative for
// column ordering; callers project their own values onto it.
type Scaler struct {
	FeatureNames []string  `json:"feature_names"`
	DataMin      []float64 `json:"data_min"`
	DataMax      []float64 `json:"data_max"`
}

// LoadScaler reads an exported scaler artifact from disk.
func LoadScaler(path string) (*Scaler, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scaler %s: %w", path, err)
	}
	var s Scaler
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse scaler %s: %w", path, err)
	}
	if len(s.FeatureNames) == 0 ||
		len(s.DataMin) != len(s.FeatureNames) ||
		len(s.DataMax) != len(s.FeatureNames) {
		return nil, fmt.Errorf("scaler %s: inconsistent column counts", path)
	}
	return &s, nil
}

// Dim returns the number of scaled columns.
func (s *Scaler) Dim() int { return len(s.FeatureNames) }

// Transform projects named values onto the scaler's column order and
// normalizes each into [0,1] against the training range. Degenerate
// columns (min == max) normalize to zero. A name the caller cannot
// supply is an error: the artifact and the feature pipeline disagree.
func (s *Scaler) Transform(values map[string]float64) ([]float64, error) {
	out := make([]float64, len(s.FeatureNames))
	for i, name := range s.FeatureNames {
		v, ok := values[name]
		if !ok {
			return nil, fmt.Errorf("scaler column %q not produced by feature pipeline", name)
		}
		span := s.DataMax[i] - s.DataMin[i]
		if span == 0 {
			out[i] = 0
			continue
		}
		out[i] = (v - s.DataMin[i]) / span
	}
	return out, nil
}

// Inverse maps normalized outputs back to original units, in the
// scaler's own column order.
func (s *Scaler) Inverse(normalized []float64) ([]float64, error) {
	if len(normalized) != len(s.FeatureNames) {
		return nil, fmt.Errorf("inverse transform: got %d values, scaler has %d columns",
			len(normalized), len(s.FeatureNames))
	}
	out := make([]float64, len(normalized))
	for i, v := range normalized {
		out[i] = v*(s.DataMax[i]-s.DataMin[i]) + s.DataMin[i]
	}
	return out, nil
}
