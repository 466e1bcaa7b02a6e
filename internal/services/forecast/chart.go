package forecast

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"SalePulse/internal/domain/models"
)

// hundredMillionWon is the display unit for chart values.
const hundredMillionWon = 1e8

var ageLabels = []string{"10s", "20s", "30s", "40s", "50s", "60s+"}

// ChartRenderer draws the demographic forecast as a horizontal
// diverging bar chart: male buckets extend right of zero, female
// buckets left, one row per age band.
type ChartRenderer struct {
	dir string
}

// NewChartRenderer ensures the output directory exists.
func NewChartRenderer(dir string) (*ChartRenderer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chart dir %s: %w", dir, err)
	}
	return &ChartRenderer{dir: dir}, nil
}

// Render writes the PNG for one result and returns its path,
// <dir>/<store>_<date>.png. A rerun for the same pair overwrites the
// previous file.
func (c *ChartRenderer) Render(r *models.ForecastResult) (string, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s demographic forecast for %s", r.Store, r.Date.Format(models.DateLayout))
	p.X.Label.Text = "sales (hundred million won)"

	male := make(plotter.Values, len(ageLabels))
	female := make(plotter.Values, len(ageLabels))
	for i := range ageLabels {
		male[i] = r.Man[i] / hundredMillionWon
		female[i] = -r.Woman[i] / hundredMillionWon
	}

	maleBars, err := plotter.NewBarChart(male, vg.Points(14))
	if err != nil {
		return "", fmt.Errorf("male bars: %w", err)
	}
	femaleBars, err := plotter.NewBarChart(female, vg.Points(14))
	if err != nil {
		return "", fmt.Errorf("female bars: %w", err)
	}
	maleBars.Horizontal = true
	femaleBars.Horizontal = true
	maleBars.Color = color.RGBA{R: 66, G: 133, B: 244, A: 255}
	femaleBars.Color = color.RGBA{R: 234, G: 67, B: 53, A: 255}
	maleBars.LineStyle.Width = 0
	femaleBars.LineStyle.Width = 0

	p.Add(maleBars, femaleBars)
	p.Legend.Add("male", maleBars)
	p.Legend.Add("female", femaleBars)
	p.Legend.Top = true
	p.NominalY(ageLabels...)

	path := filepath.Join(c.dir, fmt.Sprintf("%s_%s.png", r.Store, r.Date.Format(models.DateLayout)))
	if err := p.Save(7*vg.Inch, 4*vg.Inch, path); err != nil {
		return "", fmt.Errorf("save chart %s: %w", path, err)
	}
	return path, nil
}
