package forecast

import (
	"context"
	"fmt"
	"time"

	"SalePulse/internal/domain/models"
	"SalePulse/internal/domain/repository"
	"SalePulse/internal/services/features"
	"SalePulse/pkg/logger"
)

// historyLimit bounds the history fetch per prediction. The rolling
// features only need the trailing window plus warmup, so this stays
// small.
const historyLimit = 60

// Engine runs the full prediction pipeline for one (store, date):
// fetch history, engineer the feature window, normalize, run the
// recurrent model, denormalize, and render the demographic chart.
type Engine struct {
	sales   repository.SalesStore
	reg     *Registry
	charts  *ChartRenderer
	metrics repository.Metrics
	log     *logger.Logger
}

func NewEngine(
	sales repository.SalesStore,
	reg *Registry,
	charts *ChartRenderer,
	metrics repository.Metrics,
	log *logger.Logger,
) *Engine {
	return &Engine{sales: sales, reg: reg, charts: charts, metrics: metrics, log: log}
}

// Predict projects next-day sales for the store as of date and renders
// the chart artifact. The returned path is empty when chart rendering
// fails; the numeric result is still valid in that case.
func (e *Engine) Predict(ctx context.Context, store models.Store, date time.Time) (models.ForecastResult, string, error) {
	started := time.Now()

	history, err := e.sales.HistoryBefore(ctx, store, date, historyLimit)
	if err != nil {
		e.metrics.RecordError("history_fetch")
		return models.ForecastResult{}, "", fmt.Errorf("fetch history for %s: %w", store, err)
	}

	window, err := features.Build(history, date)
	if err != nil {
		// Typically models.ErrInsufficientData; the caller decides how
		// to phrase it.
		return models.ForecastResult{}, "", err
	}

	arts, err := e.reg.For(store)
	if err != nil {
		return models.ForecastResult{}, "", err
	}

	normalized := make([][]float64, len(window))
	for i, row := range window {
		normalized[i], err = arts.ScalerX.Transform(row.Values)
		if err != nil {
			e.metrics.RecordError("feature_mismatch")
			return models.ForecastResult{}, "", &models.ModelError{Store: store, Reason: "input transform", Err: err}
		}
	}

	normOut, err := arts.Model.Forward(normalized)
	if err != nil {
		e.metrics.RecordError("inference")
		return models.ForecastResult{}, "", &models.ModelError{Store: store, Reason: "forward pass", Err: err}
	}

	denorm, err := arts.ScalerY.Inverse(normOut)
	if err != nil {
		e.metrics.RecordError("inference")
		return models.ForecastResult{}, "", &models.ModelError{Store: store, Reason: "output transform", Err: err}
	}

	// Reorder from the output scaler's column order into training
	// column order before shaping the result.
	byName := make(map[string]float64, len(denorm))
	for i, name := range arts.ScalerY.FeatureNames {
		byName[name] = denorm[i]
	}
	ordered := make([]float64, 0, models.SegmentCount)
	for _, col := range models.SegmentColumns {
		ordered = append(ordered, byName[col])
	}
	result := models.ForecastResultFromSegments(store, date, ordered)

	e.metrics.RecordForecast(store.String(), time.Since(started).Seconds())

	chartPath, err := e.charts.Render(&result)
	if err != nil {
		e.log.Warn("chart render failed",
			logger.String("store", store.String()),
			logger.String("date", date.Format(models.DateLayout)),
			logger.Error(err))
		return result, "", nil
	}

	e.log.Info("forecast complete",
		logger.String("store", store.String()),
		logger.String("date", date.Format(models.DateLayout)),
		logger.Any("sum_amount", result.SumAmount))
	return result, chartPath, nil
}
