package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"

	"SalePulse/internal/domain/models"
	"SalePulse/internal/domain/service"
	"SalePulse/internal/services/anomaly"
	"SalePulse/internal/usecase"
	xhttp "SalePulse/pkg/http"
	xlogger "SalePulse/pkg/logger"
	"SalePulse/pkg/util"
)

// maxAnomalyLookback caps the range scan so one request cannot fan out
// into months of ClickHouse reads.
const maxAnomalyLookback = 31

// SalesEchoHandler exposes the on-demand API: sales lookup, forecast,
// anomaly classification, and link previews.
type SalesEchoHandler struct {
	logger     *xlogger.Logger
	lookup     *usecase.SalesLookup
	forecaster service.Forecaster
	detector   *anomaly.Detector
	composer   *usecase.NotificationComposer
}

func NewSalesEchoHandler(
	logger *xlogger.Logger,
	lookup *usecase.SalesLookup,
	forecaster service.Forecaster,
	detector *anomaly.Detector,
	composer *usecase.NotificationComposer,
) *SalesEchoHandler {
	return &SalesEchoHandler{
		logger:     logger,
		lookup:     lookup,
		forecaster: forecaster,
		detector:   detector,
		composer:   composer,
	}
}

func (h *SalesEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/sales", h.Sales)
	g.GET("/forecast", h.Forecast)
	g.GET("/anomalies", h.Anomalies)
	g.GET("/links", h.Links)
	g.GET("/links/more", h.More)
}

func (h *SalesEchoHandler) Sales(c echo.Context) error {
	req := &models.SalesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	store, date, err := parseStoreDate(req.Store, req.Date)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}

	agg, err := h.lookup.Get(c.Request().Context(), store, date)
	if err != nil {
		if errors.Is(err, models.ErrNoData) {
			return xhttp.NotFoundResponse(c, "no sales data for this date")
		}
		h.logger.Error("sales lookup error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"date":             agg.Date.Format(models.DateLayout),
		"store":            agg.Store.String(),
		"sum_amount":       agg.SumAmount,
		"growth":           agg.Growth,
		"avg_growth":       agg.AvgGrowth,
		"growth_deviation": agg.GrowthDeviation,
	})
}

func (h *SalesEchoHandler) Forecast(c echo.Context) error {
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	store, date, err := parseStoreDate(req.Store, req.Date)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}

	result, chartPath, err := h.forecaster.Predict(c.Request().Context(), store, date)
	if err != nil {
		if errors.Is(err, models.ErrInsufficientData) {
			return xhttp.NotFoundResponse(c, "insufficient history for forecast")
		}
		h.logger.Error("forecast error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"date":         result.Date.Format(models.DateLayout),
		"store":        result.Store.String(),
		"sum_amount":   result.SumAmount,
		"man":          result.Man,
		"woman":        result.Woman,
		"male_total":   result.MaleTotal(),
		"female_total": result.FemaleTotal(),
		"chart_path":   chartPath,
	})
}

func (h *SalesEchoHandler) Anomalies(c echo.Context) error {
	req := &models.AnomalyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	date, ok := util.ParseDay(req.Date)
	if !ok {
		return xhttp.BadRequestResponse(c, "invalid date")
	}

	// Optional lookback window, one day by default.
	days := xhttp.ParseIntDefault(c.QueryParam("days"), 1)
	if days < 1 {
		days = 1
	}
	if days > maxAnomalyLookback {
		days = maxAnomalyLookback
	}

	out := make([]map[string]interface{}, 0)
	missing := 0
	for i := 0; i < days; i++ {
		day := date.AddDate(0, 0, -i)
		events, err := h.detector.Check(c.Request().Context(), day)
		if err != nil {
			if errors.Is(err, models.ErrNoData) {
				missing++
				continue
			}
			h.logger.Error("anomaly check error", xlogger.Error(err))
			return xhttp.AppErrorResponse(c, err)
		}
		for _, ev := range events {
			out = append(out, map[string]interface{}{
				"date":       ev.Date.Format(models.DateLayout),
				"store":      ev.Store.String(),
				"kind":       string(ev.Kind),
				"sum_amount": ev.SumAmount,
				"deviation":  ev.Deviation,
				"videos":     ev.VideoLinks,
				"news":       ev.NewsLinks,
			})
		}
	}
	if missing == days {
		return xhttp.NotFoundResponse(c, "no sales data in this range")
	}
	return xhttp.ListResponse(c, out, int64(len(out)))
}

func (h *SalesEchoHandler) Links(c echo.Context) error {
	req := &models.LinksRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	store, date, err := parseStoreDate(req.Store, req.Date)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}

	text, buttons, err := h.composer.ComposeListing(c.Request().Context(), store, date, req.Kind)
	if err != nil {
		h.logger.Error("link listing error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	resp := map[string]interface{}{"preview": text}
	if len(buttons) > 0 {
		resp["more_token"] = buttons[0].Token
	}
	return xhttp.SuccessResponse(c, resp)
}

func (h *SalesEchoHandler) More(c echo.Context) error {
	req := &models.MoreRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	text, err := h.composer.Expand(c.Request().Context(), req.Token, req.Kind)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{"links": text})
}

func parseStoreDate(rawStore, rawDate string) (models.Store, time.Time, error) {
	store, err := models.ParseStore(rawStore)
	if err != nil {
		return "", time.Time{}, err
	}
	date, ok := util.ParseDay(rawDate)
	if !ok {
		return "", time.Time{}, fmt.Errorf("invalid date %q", rawDate)
	}
	return store, date, nil
}
