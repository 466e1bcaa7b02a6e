package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"SalePulse/internal/domain/models"
	"SalePulse/internal/domain/repository"
	"SalePulse/internal/domain/service"
	"SalePulse/internal/service/ratelimit"
	"SalePulse/pkg/logger"
)

// AnomalyChecker evaluates one day across all chains.
type AnomalyChecker interface {
	Check(ctx context.Context, date time.Time) ([]models.AnomalyEvent, error)
}

// Tick outcomes reported to metrics.
const (
	TickOK     = "ok"
	TickNoData = "no_data"
	TickError  = "error"
)

// DetectionLoop replays history on a simulated clock: one calendar day
// per tick, starting from a configured date. The cursor advances on
// every tick, including no-data and error ticks; a failed day is
// counted and logged, never retried.
type DetectionLoop struct {
	detector  AnomalyChecker
	composer  *NotificationComposer
	notifier  service.Notifier
	publisher repository.AlertPublisher
	cursors   repository.CursorStore // optional checkpoint, may be nil
	limiter   *ratelimit.Limiter
	metrics   repository.Metrics
	log       *logger.Logger

	channel  string
	interval time.Duration

	mu     sync.Mutex
	cursor time.Time

	stop chan struct{}
	done chan struct{}
}

type DetectionLoopConfig struct {
	Channel  string
	Start    time.Time
	Interval time.Duration
}

func NewDetectionLoop(
	detector AnomalyChecker,
	composer *NotificationComposer,
	notifier service.Notifier,
	publisher repository.AlertPublisher,
	cursors repository.CursorStore,
	limiter *ratelimit.Limiter,
	metrics repository.Metrics,
	log *logger.Logger,
	cfg DetectionLoopConfig,
) *DetectionLoop {
	return &DetectionLoop{
		detector:  detector,
		composer:  composer,
		notifier:  notifier,
		publisher: publisher,
		cursors:   cursors,
		limiter:   limiter,
		metrics:   metrics,
		log:       log,
		channel:   cfg.Channel,
		interval:  cfg.Interval,
		cursor:    cfg.Start,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Cursor returns the date the next tick will evaluate.
func (l *DetectionLoop) Cursor() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cursor
}

// Start restores the checkpoint if one exists, then runs ticks at the
// configured interval until the context ends or Stop is called.
func (l *DetectionLoop) Start(ctx context.Context) error {
	if l.cursors != nil {
		saved, ok, err := l.cursors.Load(ctx)
		if err != nil {
			l.log.Warn("cursor checkpoint load failed", logger.Error(err))
		} else if ok {
			l.mu.Lock()
			l.cursor = saved
			l.mu.Unlock()
			l.log.Info("cursor restored from checkpoint",
				logger.String("cursor", saved.Format(models.DateLayout)))
		}
	}

	go l.run(ctx)
	return nil
}

func (l *DetectionLoop) run(ctx context.Context) {
	defer close(l.done)
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stop:
			return
		case <-ticker.C:
			l.Tick(ctx)
		}
	}
}

// Stop ends the loop and waits for the current tick to finish.
func (l *DetectionLoop) Stop() {
	close(l.stop)
	<-l.done
}

// Tick evaluates the current cursor day and advances the cursor by one
// calendar day regardless of outcome. Returns the tick result string.
func (l *DetectionLoop) Tick(ctx context.Context) string {
	l.mu.Lock()
	day := l.cursor
	l.cursor = l.cursor.AddDate(0, 0, 1)
	next := l.cursor
	l.mu.Unlock()

	result := l.evaluate(ctx, day)
	l.metrics.RecordTick(result)

	if l.cursors != nil {
		if err := l.cursors.Save(ctx, next); err != nil {
			l.log.Warn("cursor checkpoint save failed", logger.Error(err))
		}
	}
	return result
}

func (l *DetectionLoop) evaluate(ctx context.Context, day time.Time) string {
	events, err := l.detector.Check(ctx, day)
	if err != nil {
		if errors.Is(err, models.ErrNoData) {
			l.log.Debug("no sales rows for day",
				logger.String("date", day.Format(models.DateLayout)))
			return TickNoData
		}
		l.log.Error("detection tick failed",
			logger.String("date", day.Format(models.DateLayout)), logger.Error(err))
		return TickError
	}

	failed := false
	for i := range events {
		if err := l.dispatch(ctx, &events[i]); err != nil {
			failed = true
		}
	}
	if failed {
		return TickError
	}
	return TickOK
}

func (l *DetectionLoop) dispatch(ctx context.Context, ev *models.AnomalyEvent) error {
	// One alert per (store, day); the bucket guards against upstream
	// aggregate rows arriving duplicated.
	key := "alert:" + ev.Store.String() + ":" + ev.Date.Format(models.DateLayout)
	if l.limiter != nil && !l.limiter.Allow(key, 1, 1.0/86400) {
		l.log.Warn("alert suppressed by rate limit", logger.String("key", key))
		return nil
	}

	text, buttons := l.composer.ComposeAlert(ev)
	if err := l.notifier.PostAlert(ctx, l.channel, text, buttons); err != nil {
		l.metrics.RecordError("alert_post")
		l.log.Error("alert post failed",
			logger.String("store", ev.Store.String()), logger.Error(err))
		return err
	}

	if l.publisher != nil {
		if err := l.publisher.Publish(ctx, ev); err != nil {
			l.metrics.RecordError("alert_publish")
			l.log.Error("alert publish failed",
				logger.String("store", ev.Store.String()), logger.Error(err))
			return err
		}
	}
	return nil
}
