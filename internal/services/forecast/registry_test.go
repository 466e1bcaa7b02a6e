package forecast

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"SalePulse/internal/domain/models"
	"SalePulse/internal/services/features"
)

// writeArtifacts lays out a full artifact directory: one zero-weight
// model per store whose outputs equal biasFor(store), plus identity
// scalers so denormalized segments equal the raw outputs.
func writeArtifacts(t *testing.T, dir string, biasFor func(models.Store) []float64) {
	t.Helper()

	names := features.Names()
	xScaler := Scaler{
		FeatureNames: names,
		DataMin:      make([]float64, len(names)),
		DataMax:      make([]float64, len(names)),
	}
	for i := range xScaler.DataMax {
		xScaler.DataMax[i] = 1e9
	}
	yScaler := Scaler{
		FeatureNames: models.SegmentColumns,
		DataMin:      make([]float64, models.SegmentCount),
		DataMax:      make([]float64, models.SegmentCount),
	}
	for i := range yScaler.DataMax {
		yScaler.DataMax[i] = 1
	}

	for _, store := range models.AllStores() {
		m := zeroModelFile(len(names), 4, models.SegmentCount, biasFor(store))
		writeJSON(t, filepath.Join(dir, fmt.Sprintf("lstm_%s.json", store)), m)
		writeJSON(t, filepath.Join(dir, fmt.Sprintf("scaler_%s_x.json", store)), xScaler)
		writeJSON(t, filepath.Join(dir, fmt.Sprintf("scaler_%s_y.json", store)), yScaler)
	}
}

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal %s: %v", path, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func flatBias(v float64) func(models.Store) []float64 {
	return func(models.Store) []float64 {
		bias := make([]float64, models.SegmentCount)
		for i := range bias {
			bias[i] = v
		}
		return bias
	}
}

func TestLoadRegistryAllStores(t *testing.T) {
	dir := t.TempDir()
	writeArtifacts(t, dir, flatBias(1))

	reg, err := LoadRegistry(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, store := range models.AllStores() {
		if _, err := reg.For(store); err != nil {
			t.Fatalf("missing artifacts for %s: %v", store, err)
		}
	}
}

func TestLoadRegistryFailsOnMissingFile(t *testing.T) {
	dir := t.TempDir()
	writeArtifacts(t, dir, flatBias(1))
	if err := os.Remove(filepath.Join(dir, "scaler_CU_y.json")); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if _, err := LoadRegistry(dir); err == nil {
		t.Fatalf("expected load failure with missing scaler")
	}
}

func TestLoadRegistryFailsOnDimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	writeArtifacts(t, dir, flatBias(1))

	// Shrink one input scaler so it no longer matches the model width.
	bad := Scaler{FeatureNames: []string{"a"}, DataMin: []float64{0}, DataMax: []float64{1}}
	writeJSON(t, filepath.Join(dir, "scaler_GS25_x.json"), bad)

	if _, err := LoadRegistry(dir); err == nil {
		t.Fatalf("expected dimension mismatch failure")
	}
}
