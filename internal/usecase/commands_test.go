package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"SalePulse/internal/domain/models"
	"SalePulse/internal/domain/service"
)

type fakeSalesStore struct {
	aggs map[string]models.SalesAggregate // keyed by store|date
}

func aggKey(store models.Store, date time.Time) string {
	return store.String() + "|" + date.Format(models.DateLayout)
}

func (f *fakeSalesStore) AggregatesByDate(ctx context.Context, date time.Time) ([]models.SalesAggregate, error) {
	return nil, nil
}

func (f *fakeSalesStore) AggregateFor(ctx context.Context, store models.Store, date time.Time) (models.SalesAggregate, error) {
	if agg, ok := f.aggs[aggKey(store, date)]; ok {
		return agg, nil
	}
	return models.SalesAggregate{}, models.ErrNoData
}

func (f *fakeSalesStore) HistoryBefore(ctx context.Context, store models.Store, before time.Time, limit int) ([]models.SalesRecord, error) {
	return nil, nil
}

func (f *fakeSalesStore) Health(ctx context.Context) error { return nil }

func newTestRouter(t *testing.T, sales *fakeSalesStore, links *fakeLinks, q *fakeQueue) (*CommandRouter, *fakeNotifier) {
	t.Helper()
	notifier := &fakeNotifier{}
	router := NewCommandRouter(
		newFakeStream(),
		notifier,
		NewSalesLookup(sales),
		NewNotificationComposer(links),
		q,
		[]string{"https://bi.example.com/sales"},
		&fakeMetrics{},
		quietLogger(t),
	)
	return router, notifier
}

func TestParseDateStore(t *testing.T) {
	date, store, ok := parseDateStore("how did gs25 do on 2024-05-02?")
	if !ok {
		t.Fatalf("expected parse")
	}
	if store != models.StoreGS25 || date.Format(models.DateLayout) != "2024-05-02" {
		t.Fatalf("got %v %v", date, store)
	}

	if _, _, ok := parseDateStore("2024-05-02 only a date"); ok {
		t.Fatalf("date without store must not parse")
	}
	if _, _, ok := parseDateStore("seven but no date"); ok {
		t.Fatalf("store without date must not parse")
	}
}

func TestCommandSalesLookup(t *testing.T) {
	date := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	sales := &fakeSalesStore{aggs: map[string]models.SalesAggregate{
		aggKey(models.StoreCU, date): {
			Date: date, Store: models.StoreCU,
			SumAmount: 4.1e8, Growth: 3.2, AvgGrowth: 1.1, GrowthDeviation: 2.1,
		},
	}}
	router, notifier := newTestRouter(t, sales, &fakeLinks{}, &fakeQueue{})

	router.handleCommand(context.Background(), models.CommandEvent{
		Channel: "ops", RawText: "CU 2024-05-02",
	})

	if len(notifier.messages) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(notifier.messages))
	}
	text := notifier.messages[0].Text
	if !strings.Contains(text, "CU sales on 2024-05-02") || !strings.Contains(text, "+3.20%") {
		t.Fatalf("unexpected reply %q", text)
	}
}

func TestCommandSalesLookupNoData(t *testing.T) {
	router, notifier := newTestRouter(t, &fakeSalesStore{}, &fakeLinks{}, &fakeQueue{})

	router.handleCommand(context.Background(), models.CommandEvent{
		Channel: "ops", RawText: "CU 2024-05-02",
	})

	if len(notifier.messages) != 1 || !strings.Contains(notifier.messages[0].Text, "No sales data") {
		t.Fatalf("unexpected reply %+v", notifier.messages)
	}
}

func TestCommandForecastEnqueues(t *testing.T) {
	q := &fakeQueue{}
	router, notifier := newTestRouter(t, &fakeSalesStore{}, &fakeLinks{}, q)

	router.handleCommand(context.Background(), models.CommandEvent{
		Channel: "ops", RawText: "forecast seven 2024-05-02",
	})

	if len(q.published) != 1 {
		t.Fatalf("expected 1 queued forecast, got %d", len(q.published))
	}
	p := q.published[0]
	if p.Store != "SEVEN" || p.Date != "2024-05-02" || p.Channel != "ops" {
		t.Fatalf("unexpected payload %+v", p)
	}
	if len(notifier.messages) != 1 || !strings.Contains(notifier.messages[0].Text, "Working on") {
		t.Fatalf("missing ack reply %+v", notifier.messages)
	}
}

func TestCommandNewsListing(t *testing.T) {
	date := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	token := EncodeToken(date, models.StoreGS25)
	links := &fakeLinks{news: map[string][]string{token: {"n1", "n2", "n3", "n4"}}}
	router, notifier := newTestRouter(t, &fakeSalesStore{}, links, &fakeQueue{})

	router.handleCommand(context.Background(), models.CommandEvent{
		Channel: "ops", RawText: "news gs25 2024-05-02",
	})

	if len(notifier.messages) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(notifier.messages))
	}
	msg := notifier.messages[0]
	if msg.Text != "n1\nn2\nn3" {
		t.Fatalf("unexpected listing %q", msg.Text)
	}
	if len(msg.Buttons) != 1 || msg.Buttons[0].Token != token {
		t.Fatalf("unexpected buttons %+v", msg.Buttons)
	}
}

func TestCommandDashboard(t *testing.T) {
	router, notifier := newTestRouter(t, &fakeSalesStore{}, &fakeLinks{}, &fakeQueue{})

	router.handleCommand(context.Background(), models.CommandEvent{Channel: "ops", RawText: "tp"})

	if len(notifier.messages) != 1 || !strings.Contains(notifier.messages[0].Text, "bi.example.com") {
		t.Fatalf("unexpected reply %+v", notifier.messages)
	}
}

func TestCommandUsageHint(t *testing.T) {
	router, notifier := newTestRouter(t, &fakeSalesStore{}, &fakeLinks{}, &fakeQueue{})

	router.handleCommand(context.Background(), models.CommandEvent{Channel: "ops", RawText: "hello there"})

	if len(notifier.messages) != 1 || notifier.messages[0].Text != UsageHint {
		t.Fatalf("expected usage hint, got %+v", notifier.messages)
	}
}

// flappingStream hands out a fresh channel set on every Reconnect so
// a test can kill one connection and verify the router moves to the
// next one.
type flappingStream struct {
	mu      sync.Mutex
	streams []*fakeStream
}

func (f *flappingStream) current() *fakeStream {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.streams[len(f.streams)-1]
}

func (f *flappingStream) generation() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.streams)
}

func (f *flappingStream) Connect(ctx context.Context) error { return nil }

func (f *flappingStream) Read(ctx context.Context) (<-chan models.CommandEvent, <-chan models.ActionEvent, <-chan error) {
	s := f.current()
	return s.cmdCh, s.actCh, s.errCh
}

func (f *flappingStream) Reconnect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.streams = append(f.streams, newFakeStream())
	return nil
}

func (f *flappingStream) Close() error      { return nil }
func (f *flappingStream) IsConnected() bool { return true }

// chanNotifier delivers posts over a channel so a test can wait on a
// reply produced by the router's consume goroutine.
type chanNotifier struct {
	posts chan postedMessage
}

func (n *chanNotifier) PostMessage(ctx context.Context, channel, text string) error {
	n.posts <- postedMessage{Channel: channel, Text: text}
	return nil
}

func (n *chanNotifier) PostAlert(ctx context.Context, channel, text string, buttons []service.MoreButton) error {
	n.posts <- postedMessage{Channel: channel, Text: text, Buttons: buttons}
	return nil
}

func (n *chanNotifier) UploadFile(ctx context.Context, channel, path, title string) error {
	return nil
}

func TestRouterRebindsStreamAfterReadFailure(t *testing.T) {
	first := newFakeStream()
	stream := &flappingStream{streams: []*fakeStream{first}}
	notifier := &chanNotifier{posts: make(chan postedMessage, 4)}
	router := NewCommandRouter(
		stream,
		notifier,
		NewSalesLookup(&fakeSalesStore{}),
		NewNotificationComposer(&fakeLinks{}),
		&fakeQueue{},
		[]string{"https://bi.example.com/sales"},
		&fakeMetrics{},
		quietLogger(t),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := router.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Kill the first connection the way the socket client does: one
	// error, then all three channels close.
	first.errCh <- errors.New("socket mode read: connection reset")
	close(first.cmdCh)
	close(first.actCh)
	close(first.errCh)

	deadline := time.Now().Add(2 * time.Second)
	for stream.generation() == 1 {
		if time.Now().After(deadline) {
			t.Fatalf("router never reconnected")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Commands on the new connection must still be served.
	stream.current().cmdCh <- models.CommandEvent{Channel: "ops", RawText: "tp"}

	select {
	case msg := <-notifier.posts:
		if !strings.Contains(msg.Text, "bi.example.com") {
			t.Fatalf("unexpected reply %q", msg.Text)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no reply after stream rebind")
	}
}

func TestActionExpandsToken(t *testing.T) {
	date := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	token := EncodeToken(date, models.StoreCU)
	links := &fakeLinks{news: map[string][]string{token: {"n1", "n2", "n3", "n4", "n5"}}}
	router, notifier := newTestRouter(t, &fakeSalesStore{}, links, &fakeQueue{})

	router.handleAction(context.Background(), models.ActionEvent{
		Channel: "ops", ActionID: ActionMoreNews, Value: token,
	})

	if len(notifier.messages) != 1 || notifier.messages[0].Text != "n4\nn5" {
		t.Fatalf("unexpected expansion %+v", notifier.messages)
	}
}
