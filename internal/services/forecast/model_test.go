package forecast

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeModel(t *testing.T, dir, name string, m modelFile) string {
	t.Helper()
	raw, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal model: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	return path
}

func zeroModelFile(inputSize, hiddenSize, outputSize int, denseBias []float64) modelFile {
	var f modelFile
	f.InputSize = inputSize
	f.HiddenSize = hiddenSize
	f.OutputSize = outputSize
	f.LSTM.WInput = zeroRows(4*hiddenSize, inputSize)
	f.LSTM.WRecurrent = zeroRows(4*hiddenSize, hiddenSize)
	f.LSTM.Bias = make([]float64, 4*hiddenSize)
	f.Dense.Weight = zeroRows(outputSize, hiddenSize)
	f.Dense.Bias = denseBias
	return f
}

func zeroRows(r, c int) [][]float64 {
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = make([]float64, c)
	}
	return rows
}

func TestForwardZeroWeightsYieldsDenseBias(t *testing.T) {
	bias := []float64{0.25, -0.5, 3}
	path := writeModel(t, t.TempDir(), "m.json", zeroModelFile(2, 4, 3, bias))

	m, err := LoadModel(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	out, err := m.Forward([][]float64{{1, 2}, {3, 4}, {5, 6}})
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	for i := range bias {
		if math.Abs(out[i]-bias[i]) > 1e-12 {
			t.Fatalf("output %d: got %v, want %v", i, out[i], bias[i])
		}
	}
}

// Scalar reference recurrence for a 1-unit, 1-input model, written out
// longhand to cross-check the matrix implementation.
func TestForwardMatchesScalarReference(t *testing.T) {
	var f modelFile
	f.InputSize = 1
	f.HiddenSize = 1
	f.OutputSize = 1
	wi := []float64{0.4, -0.3, 0.8, 0.2} // gate rows i, f, g, o
	wr := []float64{0.1, 0.5, -0.2, 0.3}
	bias := []float64{0.05, 0.1, -0.05, 0}
	f.LSTM.WInput = [][]float64{{wi[0]}, {wi[1]}, {wi[2]}, {wi[3]}}
	f.LSTM.WRecurrent = [][]float64{{wr[0]}, {wr[1]}, {wr[2]}, {wr[3]}}
	f.LSTM.Bias = bias
	f.Dense.Weight = [][]float64{{1.5}}
	f.Dense.Bias = []float64{0.2}

	path := writeModel(t, t.TempDir(), "m.json", f)
	m, err := LoadModel(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	inputs := []float64{0.3, -0.7, 1.1}
	window := make([][]float64, len(inputs))
	for i, x := range inputs {
		window[i] = []float64{x}
	}
	got, err := m.Forward(window)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}

	sig := func(x float64) float64 { return 1 / (1 + math.Exp(-x)) }
	var h, c float64
	for _, x := range inputs {
		in := sig(wi[0]*x + wr[0]*h + bias[0])
		fg := sig(wi[1]*x + wr[1]*h + bias[1])
		g := math.Tanh(wi[2]*x + wr[2]*h + bias[2])
		o := sig(wi[3]*x + wr[3]*h + bias[3])
		c = fg*c + in*g
		h = o * math.Tanh(c)
	}
	want := 1.5*h + 0.2

	if math.Abs(got[0]-want) > 1e-12 {
		t.Fatalf("got %v, want %v", got[0], want)
	}
}

func TestForwardRejectsWrongWidth(t *testing.T) {
	path := writeModel(t, t.TempDir(), "m.json", zeroModelFile(3, 2, 1, []float64{0}))
	m, err := LoadModel(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := m.Forward([][]float64{{1, 2}}); err == nil {
		t.Fatalf("expected width mismatch error")
	}
}

func TestLoadModelRejectsBadShapes(t *testing.T) {
	f := zeroModelFile(2, 2, 3, []float64{0, 0, 0})
	f.LSTM.Bias = []float64{0} // wrong length
	path := writeModel(t, t.TempDir(), "m.json", f)
	if _, err := LoadModel(path); err == nil {
		t.Fatalf("expected shape error")
	}
}
