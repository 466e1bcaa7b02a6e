package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"SalePulse/internal/domain/models"
	"SalePulse/internal/domain/repository"
	"SalePulse/internal/domain/service"
	chatmetrics "SalePulse/internal/service/metrics"
	"SalePulse/pkg/logger"
	"SalePulse/pkg/queue"
)

var (
	datePattern  = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	storePattern = regexp.MustCompile(`(?i)\b(gs25|cu|seven)\b`)
)

// UsageHint is the fixed reply for commands the router cannot parse.
const UsageHint = "Try: a date and a store (e.g. \"2024-05-02 GS25\"), " +
	"add \"forecast\" for a projection, \"news\" or \"video\" for links, " +
	"or say \"dashboard\" for the BI boards."

// CommandRouter consumes the chat command stream and dispatches to the
// lookup, listing, and forecast paths. Forecasts are enqueued so the
// stream read loop never blocks on model inference.
type CommandRouter struct {
	stream     service.CommandStream
	notifier   service.Notifier
	lookup     *SalesLookup
	composer   *NotificationComposer
	forecasts  queue.QueueService
	dashboards []string
	metrics    repository.Metrics
	log        *logger.Logger
}

func NewCommandRouter(
	stream service.CommandStream,
	notifier service.Notifier,
	lookup *SalesLookup,
	composer *NotificationComposer,
	forecasts queue.QueueService,
	dashboards []string,
	metrics repository.Metrics,
	log *logger.Logger,
) *CommandRouter {
	return &CommandRouter{
		stream:     stream,
		notifier:   notifier,
		lookup:     lookup,
		composer:   composer,
		forecasts:  forecasts,
		dashboards: dashboards,
		metrics:    metrics,
		log:        log,
	}
}

// IsConnected reports the underlying stream state.
func (r *CommandRouter) IsConnected() bool { return r.stream.IsConnected() }

func (r *CommandRouter) Start(ctx context.Context) error {
	if err := r.stream.Connect(ctx); err != nil {
		return err
	}
	cmdCh, actCh, errCh := r.stream.Read(ctx)
	go r.consume(ctx, cmdCh, actCh, errCh)
	return nil
}

func (r *CommandRouter) Stop() error { return r.stream.Close() }

// reconnectRetryDelay spaces out redial attempts when the workspace
// stays unreachable.
const reconnectRetryDelay = 3 * time.Second

func (r *CommandRouter) consume(ctx context.Context, cmdCh <-chan models.CommandEvent, actCh <-chan models.ActionEvent, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if ok && err == nil {
				continue
			}
			if ok {
				r.metrics.RecordError("stream")
				r.log.Warn("command stream failed", logger.Error(err))
			}
			if cmdCh, actCh, errCh = r.resubscribe(ctx); cmdCh == nil {
				return
			}
		case cmd, ok := <-cmdCh:
			if !ok {
				if cmdCh, actCh, errCh = r.resubscribe(ctx); cmdCh == nil {
					return
				}
				continue
			}
			r.handleCommand(ctx, cmd)
		case act, ok := <-actCh:
			if !ok {
				if cmdCh, actCh, errCh = r.resubscribe(ctx); cmdCh == nil {
					return
				}
				continue
			}
			r.handleAction(ctx, act)
		}
	}
}

// resubscribe re-dials the stream and rebinds the event channels. A
// dying socket closes all three channels together, so every select arm
// that observes the death funnels here. Returns nils once ctx ends.
func (r *CommandRouter) resubscribe(ctx context.Context) (<-chan models.CommandEvent, <-chan models.ActionEvent, <-chan error) {
	for {
		if ctx.Err() != nil {
			return nil, nil, nil
		}
		if err := r.stream.Reconnect(ctx); err != nil {
			r.metrics.RecordError("stream_reconnect")
			r.log.Warn("command stream reconnect failed", logger.Error(err))
			select {
			case <-ctx.Done():
				return nil, nil, nil
			case <-time.After(reconnectRetryDelay):
			}
			continue
		}
		r.log.Info("command stream reconnected")
		cmdCh, actCh, errCh := r.stream.Read(ctx)
		return cmdCh, actCh, errCh
	}
}

func (r *CommandRouter) handleCommand(ctx context.Context, cmd models.CommandEvent) {
	text := strings.ToLower(cmd.RawText)
	start := time.Now()

	if strings.Contains(text, "dashboard") || containsWord(text, "tp") {
		r.reply(ctx, cmd.Channel, r.dashboardReply())
		chatmetrics.CommandLatency.WithLabelValues("dashboard").Observe(time.Since(start).Seconds())
		return
	}

	date, store, ok := parseDateStore(cmd.RawText)
	if !ok {
		r.reply(ctx, cmd.Channel, UsageHint)
		chatmetrics.CommandLatency.WithLabelValues("usage").Observe(time.Since(start).Seconds())
		return
	}

	var kind string
	switch {
	case strings.Contains(text, "forecast") || strings.Contains(text, "predict"):
		kind = "forecast"
		r.enqueueForecast(ctx, cmd.Channel, store, date)
	case strings.Contains(text, "video"):
		kind = "video"
		r.listing(ctx, cmd.Channel, store, date, "video")
	case strings.Contains(text, "news"):
		kind = "news"
		r.listing(ctx, cmd.Channel, store, date, "news")
	default:
		kind = "sales"
		r.salesReply(ctx, cmd.Channel, store, date)
	}
	chatmetrics.CommandLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

func (r *CommandRouter) handleAction(ctx context.Context, act models.ActionEvent) {
	var kind string
	switch act.ActionID {
	case ActionMoreVideo:
		kind = "video"
	case ActionMoreNews:
		kind = "news"
	default:
		r.log.Warn("unknown action", logger.String("action_id", act.ActionID))
		return
	}

	text, err := r.composer.Expand(ctx, act.Value, kind)
	if err != nil {
		r.metrics.RecordError("expand")
		chatmetrics.CommandErrors.WithLabelValues("expand").Inc()
		r.log.Error("link expansion failed",
			logger.String("token", act.Value), logger.Error(err))
		return
	}
	r.reply(ctx, act.Channel, text)
}

func (r *CommandRouter) salesReply(ctx context.Context, channel string, store models.Store, date time.Time) {
	agg, err := r.lookup.Get(ctx, store, date)
	if err != nil {
		if errors.Is(err, models.ErrNoData) {
			r.reply(ctx, channel, fmt.Sprintf("No sales data for %s on %s.",
				store, date.Format(models.DateLayout)))
			return
		}
		r.metrics.RecordError("sales_lookup")
		chatmetrics.CommandErrors.WithLabelValues("sales").Inc()
		r.log.Error("sales lookup failed", logger.String("store", store.String()), logger.Error(err))
		r.reply(ctx, channel, "Sales lookup failed, try again in a moment.")
		return
	}
	r.reply(ctx, channel, FormatSales(agg))
}

func (r *CommandRouter) listing(ctx context.Context, channel string, store models.Store, date time.Time, kind string) {
	text, buttons, err := r.composer.ComposeListing(ctx, store, date, kind)
	if err != nil {
		r.metrics.RecordError("link_listing")
		r.log.Error("link listing failed", logger.String("store", store.String()), logger.Error(err))
		r.reply(ctx, channel, "Link lookup failed, try again in a moment.")
		return
	}
	if err := r.notifier.PostAlert(ctx, channel, text, buttons); err != nil {
		r.metrics.RecordError("reply_post")
	}
}

func (r *CommandRouter) enqueueForecast(ctx context.Context, channel string, store models.Store, date time.Time) {
	payload := ForecastPayload{
		Store:   store.String(),
		Date:    date.Format(models.DateLayout),
		Channel: channel,
	}
	if err := r.forecasts.PublishMessage(ctx, ForecastMessageType, payload); err != nil {
		r.metrics.RecordError("forecast_enqueue")
		r.log.Error("forecast enqueue failed", logger.Error(err))
		r.reply(ctx, channel, "Could not queue the forecast, try again in a moment.")
		return
	}
	r.reply(ctx, channel, fmt.Sprintf("Working on the %s forecast for %s.",
		store, date.Format(models.DateLayout)))
}

func (r *CommandRouter) reply(ctx context.Context, channel, text string) {
	if err := r.notifier.PostMessage(ctx, channel, text); err != nil {
		r.metrics.RecordError("reply_post")
		r.log.Error("reply post failed", logger.Error(err))
	}
}

func (r *CommandRouter) dashboardReply() string {
	if len(r.dashboards) == 0 {
		return "No dashboards configured."
	}
	return "Dashboards:\n" + strings.Join(r.dashboards, "\n")
}

// parseDateStore pulls an ISO date and a store code out of free text.
func parseDateStore(text string) (time.Time, models.Store, bool) {
	rawDate := datePattern.FindString(text)
	rawStore := storePattern.FindString(text)
	if rawDate == "" || rawStore == "" {
		return time.Time{}, "", false
	}
	date, err := time.Parse(models.DateLayout, rawDate)
	if err != nil {
		return time.Time{}, "", false
	}
	store, err := models.ParseStore(rawStore)
	if err != nil {
		return time.Time{}, "", false
	}
	return date, store, true
}

func containsWord(text, word string) bool {
	for _, f := range strings.Fields(text) {
		if f == word {
			return true
		}
	}
	return false
}
