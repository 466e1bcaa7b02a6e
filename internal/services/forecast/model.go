package forecast

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"
)

// Model is a single-layer LSTM followed by a dense head, exported from
// training as plain JSON weight matrices. The gate rows of the LSTM
// matrices are stacked in the conventional input, forget, cell, output
// order.
type Model struct {
	InputSize  int
	HiddenSize int
	OutputSize int

	wInput     *mat.Dense // (4H, F)
	wRecurrent *mat.Dense // (4H, H)
	biasLSTM   *mat.VecDense
	wDense     *mat.Dense // (O, H)
	biasDense  *mat.VecDense
}

type modelFile struct {
	InputSize  int `json:"input_size"`
	HiddenSize int `json:"hidden_size"`
	OutputSize int `json:"output_size"`
	LSTM       struct {
		WInput     [][]float64 `json:"w_input"`
		WRecurrent [][]float64 `json:"w_recurrent"`
		Bias       []float64   `json:"bias"`
	} `json:"lstm"`
	Dense struct {
		Weight [][]float64 `json:"weight"`
		Bias   []float64   `json:"bias"`
	} `json:"dense"`
}

// LoadModel reads and validates an exported weight artifact.
func LoadModel(path string) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}
	var f modelFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse model %s: %w", path, err)
	}

	h, in, out := f.HiddenSize, f.InputSize, f.OutputSize
	if h <= 0 || in <= 0 || out <= 0 {
		return nil, fmt.Errorf("model %s: non-positive dimensions", path)
	}

	wi, err := denseFromRows(f.LSTM.WInput, 4*h, in)
	if err != nil {
		return nil, fmt.Errorf("model %s: w_input: %w", path, err)
	}
	wr, err := denseFromRows(f.LSTM.WRecurrent, 4*h, h)
	if err != nil {
		return nil, fmt.Errorf("model %s: w_recurrent: %w", path, err)
	}
	if len(f.LSTM.Bias) != 4*h {
		return nil, fmt.Errorf("model %s: lstm bias length %d, want %d", path, len(f.LSTM.Bias), 4*h)
	}
	wd, err := denseFromRows(f.Dense.Weight, out, h)
	if err != nil {
		return nil, fmt.Errorf("model %s: dense weight: %w", path, err)
	}
	if len(f.Dense.Bias) != out {
		return nil, fmt.Errorf("model %s: dense bias length %d, want %d", path, len(f.Dense.Bias), out)
	}

	return &Model{
		InputSize:  in,
		HiddenSize: h,
		OutputSize: out,
		wInput:     wi,
		wRecurrent: wr,
		biasLSTM:   mat.NewVecDense(4*h, f.LSTM.Bias),
		wDense:     wd,
		biasDense:  mat.NewVecDense(out, f.Dense.Bias),
	}, nil
}

// Forward runs the recurrence over a normalized (steps, InputSize)
// window and returns the dense head's outputs, still normalized.
func (m *Model) Forward(window [][]float64) ([]float64, error) {
	if len(window) == 0 {
		return nil, fmt.Errorf("forward: empty input window")
	}
	for i, row := range window {
		if len(row) != m.InputSize {
			return nil, fmt.Errorf("forward: step %d has %d features, want %d", i, len(row), m.InputSize)
		}
	}

	h := mat.NewVecDense(m.HiddenSize, nil)
	c := mat.NewVecDense(m.HiddenSize, nil)
	z := mat.NewVecDense(4*m.HiddenSize, nil)
	zr := mat.NewVecDense(4*m.HiddenSize, nil)

	for _, row := range window {
		x := mat.NewVecDense(m.InputSize, row)
		z.MulVec(m.wInput, x)
		zr.MulVec(m.wRecurrent, h)
		z.AddVec(z, zr)
		z.AddVec(z, m.biasLSTM)

		hs := m.HiddenSize
		for j := 0; j < hs; j++ {
			in := sigmoid(z.AtVec(j))
			forget := sigmoid(z.AtVec(hs + j))
			cell := math.Tanh(z.AtVec(2*hs + j))
			out := sigmoid(z.AtVec(3*hs + j))

			cv := forget*c.AtVec(j) + in*cell
			c.SetVec(j, cv)
			h.SetVec(j, out*math.Tanh(cv))
		}
	}

	y := mat.NewVecDense(m.OutputSize, nil)
	y.MulVec(m.wDense, h)
	y.AddVec(y, m.biasDense)

	out := make([]float64, m.OutputSize)
	for i := range out {
		out[i] = y.AtVec(i)
	}
	return out, nil
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

func denseFromRows(rows [][]float64, r, c int) (*mat.Dense, error) {
	if len(rows) != r {
		return nil, fmt.Errorf("got %d rows, want %d", len(rows), r)
	}
	data := make([]float64, 0, r*c)
	for i, row := range rows {
		if len(row) != c {
			return nil, fmt.Errorf("row %d has %d columns, want %d", i, len(row), c)
		}
		data = append(data, row...)
	}
	return mat.NewDense(r, c, data), nil
}
