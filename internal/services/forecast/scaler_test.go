package forecast

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeScaler(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write scaler: %v", err)
	}
	return path
}

func TestScalerTransformAndInverse(t *testing.T) {
	path := writeScaler(t, t.TempDir(), "s.json",
		`{"feature_names":["a","b"],"data_min":[0,10],"data_max":[100,20]}`)

	s, err := LoadScaler(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	norm, err := s.Transform(map[string]float64{"a": 50, "b": 15, "extra": 1})
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if math.Abs(norm[0]-0.5) > 1e-9 || math.Abs(norm[1]-0.5) > 1e-9 {
		t.Fatalf("unexpected normalization %v", norm)
	}

	back, err := s.Inverse(norm)
	if err != nil {
		t.Fatalf("inverse: %v", err)
	}
	if math.Abs(back[0]-50) > 1e-9 || math.Abs(back[1]-15) > 1e-9 {
		t.Fatalf("round trip drifted: %v", back)
	}
}

func TestScalerMissingColumn(t *testing.T) {
	path := writeScaler(t, t.TempDir(), "s.json",
		`{"feature_names":["a","b"],"data_min":[0,0],"data_max":[1,1]}`)

	s, err := LoadScaler(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := s.Transform(map[string]float64{"a": 1}); err == nil {
		t.Fatalf("expected error for missing column")
	}
}

func TestScalerDegenerateColumn(t *testing.T) {
	path := writeScaler(t, t.TempDir(), "s.json",
		`{"feature_names":["a"],"data_min":[5],"data_max":[5]}`)

	s, err := LoadScaler(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	norm, err := s.Transform(map[string]float64{"a": 5})
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if norm[0] != 0 {
		t.Fatalf("degenerate column should normalize to 0, got %v", norm[0])
	}
}

func TestScalerRejectsInconsistentShape(t *testing.T) {
	path := writeScaler(t, t.TempDir(), "s.json",
		`{"feature_names":["a","b"],"data_min":[0],"data_max":[1,2]}`)
	if _, err := LoadScaler(path); err == nil {
		t.Fatalf("expected shape error")
	}
}
