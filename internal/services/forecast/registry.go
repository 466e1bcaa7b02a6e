package forecast

import (
	"fmt"
	"path/filepath"

	"SalePulse/internal/domain/models"
)

// Artifacts bundles the trained model and its paired scalers for one
// store. The input scaler normalizes feature windows; the output
// scaler denormalizes the 13 predicted segments.
type Artifacts struct {
	Model   *Model
	ScalerX *Scaler
	ScalerY *Scaler
}

// Registry holds the per-store artifacts, loaded once at startup.
// Missing or inconsistent files fail the load: a half-equipped
// forecaster must never come up.
type Registry struct {
	byStore map[models.Store]*Artifacts
}

// LoadRegistry loads model and scaler artifacts for every store from
// dir. Expected file names per store S:
//
//	lstm_S.json  scaler_S_x.json  scaler_S_y.json
func LoadRegistry(dir string) (*Registry, error) {
	reg := &Registry{byStore: make(map[models.Store]*Artifacts, len(models.AllStores()))}

	for _, store := range models.AllStores() {
		model, err := LoadModel(filepath.Join(dir, fmt.Sprintf("lstm_%s.json", store)))
		if err != nil {
			return nil, err
		}
		sx, err := LoadScaler(filepath.Join(dir, fmt.Sprintf("scaler_%s_x.json", store)))
		if err != nil {
			return nil, err
		}
		sy, err := LoadScaler(filepath.Join(dir, fmt.Sprintf("scaler_%s_y.json", store)))
		if err != nil {
			return nil, err
		}

		a := &Artifacts{Model: model, ScalerX: sx, ScalerY: sy}
		if err := a.validate(store); err != nil {
			return nil, err
		}
		reg.byStore[store] = a
	}
	return reg, nil
}

// For returns the artifacts for one store.
func (r *Registry) For(store models.Store) (*Artifacts, error) {
	a, ok := r.byStore[store]
	if !ok {
		return nil, models.NewModelError(store, "no artifacts loaded")
	}
	return a, nil
}

func (a *Artifacts) validate(store models.Store) error {
	if a.Model.InputSize != a.ScalerX.Dim() {
		return models.NewModelError(store, fmt.Sprintf(
			"input size %d does not match input scaler columns %d",
			a.Model.InputSize, a.ScalerX.Dim()))
	}
	if a.Model.OutputSize != models.SegmentCount {
		return models.NewModelError(store, fmt.Sprintf(
			"output size %d, want %d segments", a.Model.OutputSize, models.SegmentCount))
	}
	if a.ScalerY.Dim() != models.SegmentCount {
		return models.NewModelError(store, fmt.Sprintf(
			"output scaler has %d columns, want %d", a.ScalerY.Dim(), models.SegmentCount))
	}
	// The output scaler must cover exactly the 13 segment columns.
	seen := make(map[string]bool, models.SegmentCount)
	for _, name := range a.ScalerY.FeatureNames {
		seen[name] = true
	}
	for _, col := range models.SegmentColumns {
		if !seen[col] {
			return models.NewModelError(store, fmt.Sprintf("output scaler missing column %q", col))
		}
	}
	return nil
}
