package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SalePulse/internal/domain/models"
	"SalePulse/internal/domain/service"
	"SalePulse/pkg/logger"
	"SalePulse/pkg/queue"
)

// ForecastMessageType routes forecast requests through the queue.
const ForecastMessageType = "forecast.request"

// ForecastPayload is the queued forecast request.
type ForecastPayload struct {
	Store   string `json:"store"`
	Date    string `json:"date"`
	Channel string `json:"channel"`
}

// ForecastJob executes queued forecast requests off the command path
// and delivers results through the notifier.
type ForecastJob struct {
	forecaster service.Forecaster
	notifier   service.Notifier
	log        *logger.Logger
}

func NewForecastJob(forecaster service.Forecaster, notifier service.Notifier, log *logger.Logger) *ForecastJob {
	return &ForecastJob{forecaster: forecaster, notifier: notifier, log: log}
}

func (j *ForecastJob) Name() string { return "forecast" }
func (j *ForecastJob) Type() string { return ForecastMessageType }

// Handle runs one forecast. Transport errors are returned so the queue
// retries; domain conditions (insufficient history, artifact mismatch)
// are answered in chat and not retried.
func (j *ForecastJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[ForecastPayload](payload)
	if err != nil {
		return fmt.Errorf("forecast payload: %w", err)
	}
	store, err := models.ParseStore(p.Store)
	if err != nil {
		return fmt.Errorf("forecast payload: %w", err)
	}
	date, err := time.Parse(models.DateLayout, p.Date)
	if err != nil {
		return fmt.Errorf("forecast payload date: %w", err)
	}

	result, chartPath, err := j.forecaster.Predict(ctx, store, date)
	if err != nil {
		var merr *models.ModelError
		switch {
		case errors.Is(err, models.ErrInsufficientData):
			return j.notifier.PostMessage(ctx, p.Channel, fmt.Sprintf(
				"Not enough history to forecast %s for %s. Seven prior days are required.",
				store, p.Date))
		case errors.As(err, &merr):
			j.log.Error("forecast model failure", logger.String("store", store.String()), logger.Error(err))
			return j.notifier.PostMessage(ctx, p.Channel,
				"The forecast model failed for this request. The team has been notified.")
		default:
			return err
		}
	}

	if err := j.notifier.PostMessage(ctx, p.Channel, FormatForecast(&result)); err != nil {
		return err
	}
	if chartPath != "" {
		title := fmt.Sprintf("%s demographic forecast %s", store, p.Date)
		if err := j.notifier.UploadFile(ctx, p.Channel, chartPath, title); err != nil {
			j.log.Warn("chart upload failed", logger.String("path", chartPath), logger.Error(err))
		}
	}
	return nil
}

var _ queue.Job = (*ForecastJob)(nil)

// FormatForecast renders a forecast result as a chat reply, figures in
// hundred-million-won units.
func FormatForecast(r *models.ForecastResult) string {
	const unit = 1e8
	return fmt.Sprintf(
		"%s forecast for %s\nExpected sales: %.2f hundred million won\nMale demand: %.2f, female demand: %.2f",
		r.Store, r.Date.Format(models.DateLayout),
		r.SumAmount/unit, r.MaleTotal()/unit, r.FemaleTotal()/unit)
}
