package usecase

import (
	"context"
	"testing"
	"time"

	"SalePulse/internal/domain/models"
	"SalePulse/internal/domain/service"
	"SalePulse/pkg/logger"
)

func quietLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

type fakeLinks struct {
	videos map[string][]string // keyed by continuation token
	news   map[string][]string
	err    error
}

func linkKey(store models.Store, date time.Time) string {
	return EncodeToken(date, store)
}

func (f *fakeLinks) VideoURLs(ctx context.Context, store models.Store, date time.Time) ([]string, error) {
	return f.videos[linkKey(store, date)], f.err
}

func (f *fakeLinks) NewsURLs(ctx context.Context, store models.Store, date time.Time) ([]string, error) {
	return f.news[linkKey(store, date)], f.err
}

type postedMessage struct {
	Channel string
	Text    string
	Buttons []service.MoreButton
}

type fakeNotifier struct {
	messages []postedMessage
	uploads  []string
	err      error
}

func (f *fakeNotifier) PostMessage(ctx context.Context, channel, text string) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, postedMessage{Channel: channel, Text: text})
	return nil
}

func (f *fakeNotifier) PostAlert(ctx context.Context, channel, text string, buttons []service.MoreButton) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, postedMessage{Channel: channel, Text: text, Buttons: buttons})
	return nil
}

func (f *fakeNotifier) UploadFile(ctx context.Context, channel, path, title string) error {
	if f.err != nil {
		return f.err
	}
	f.uploads = append(f.uploads, path)
	return nil
}

type fakeChecker struct {
	events map[string][]models.AnomalyEvent // keyed by date string
	errs   map[string]error
	calls  []string
}

func (f *fakeChecker) Check(ctx context.Context, date time.Time) ([]models.AnomalyEvent, error) {
	key := date.Format(models.DateLayout)
	f.calls = append(f.calls, key)
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	if evs, ok := f.events[key]; ok {
		return evs, nil
	}
	return nil, models.ErrNoData
}

type fakePublisher struct {
	published []models.AnomalyEvent
	err       error
}

func (f *fakePublisher) Publish(ctx context.Context, ev *models.AnomalyEvent) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, *ev)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeCursorStore struct {
	cursor time.Time
	loaded bool
	saves  []time.Time
}

func (f *fakeCursorStore) Load(ctx context.Context) (time.Time, bool, error) {
	return f.cursor, f.loaded, nil
}

func (f *fakeCursorStore) Save(ctx context.Context, cursor time.Time) error {
	f.saves = append(f.saves, cursor)
	return nil
}

type fakeMetrics struct {
	ticks map[string]int
	errs  map[string]int
}

func (m *fakeMetrics) RecordTick(result string) {
	if m.ticks == nil {
		m.ticks = make(map[string]int)
	}
	m.ticks[result]++
}
func (m *fakeMetrics) RecordAnomaly(string, string)   {}
func (m *fakeMetrics) RecordForecast(string, float64) {}
func (m *fakeMetrics) RecordLatency(string, float64)  {}
func (m *fakeMetrics) RecordError(kind string) {
	if m.errs == nil {
		m.errs = make(map[string]int)
	}
	m.errs[kind]++
}

type fakeQueue struct {
	published []ForecastPayload
	err       error
}

func (f *fakeQueue) PublishMessage(ctx context.Context, msgType string, payload interface{}) error {
	if f.err != nil {
		return f.err
	}
	if p, ok := payload.(ForecastPayload); ok {
		f.published = append(f.published, p)
	}
	return nil
}

type fakeStream struct {
	cmdCh chan models.CommandEvent
	actCh chan models.ActionEvent
	errCh chan error
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		cmdCh: make(chan models.CommandEvent, 8),
		actCh: make(chan models.ActionEvent, 8),
		errCh: make(chan error, 8),
	}
}

func (f *fakeStream) Connect(ctx context.Context) error { return nil }
func (f *fakeStream) Read(ctx context.Context) (<-chan models.CommandEvent, <-chan models.ActionEvent, <-chan error) {
	return f.cmdCh, f.actCh, f.errCh
}
func (f *fakeStream) Reconnect(ctx context.Context) error { return nil }
func (f *fakeStream) Close() error                        { return nil }
func (f *fakeStream) IsConnected() bool                   { return true }
