package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"SalePulse/internal/domain/models"
)

func testDate() time.Time {
	return time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
}

func TestPreviewShortList(t *testing.T) {
	text, more := Preview([]string{"a", "b"})
	if more {
		t.Fatalf("two links must not offer more")
	}
	if text != "a\nb" {
		t.Fatalf("unexpected preview %q", text)
	}
}

func TestPreviewLongList(t *testing.T) {
	text, more := Preview([]string{"a", "b", "c", "d", "e"})
	if !more {
		t.Fatalf("five links must offer more")
	}
	if text != "a\nb\nc" {
		t.Fatalf("unexpected preview %q", text)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	token := EncodeToken(testDate(), models.StoreSeven)
	if token != "2024-05-02|SEVEN" {
		t.Fatalf("unexpected token %q", token)
	}
	date, store, err := DecodeToken(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !date.Equal(testDate()) || store != models.StoreSeven {
		t.Fatalf("round trip drifted: %v %v", date, store)
	}
}

func TestDecodeTokenMalformed(t *testing.T) {
	for _, token := range []string{"", "2024-05-02", "notadate|CU", "2024-05-02|LAWSON"} {
		if _, _, err := DecodeToken(token); err == nil {
			t.Fatalf("expected error for %q", token)
		}
	}
}

func TestComposeAlertLayoutAndButtons(t *testing.T) {
	ev := models.AnomalyEvent{
		Date:       testDate(),
		Store:      models.StoreGS25,
		Kind:       models.AnomalyHigh,
		SumAmount:  4.2e8,
		Deviation:  2.1,
		VideoLinks: []string{"v1", "v2"},
		NewsLinks:  []string{"n1", "n2", "n3", "n4", "n5"},
	}
	c := NewNotificationComposer(&fakeLinks{})

	text, buttons := c.ComposeAlert(&ev)

	if !strings.Contains(text, "surge") {
		t.Fatalf("high anomaly must read as surge: %q", text)
	}
	if !strings.Contains(text, "GS25") || !strings.Contains(text, "2024-05-02") {
		t.Fatalf("missing identity fields: %q", text)
	}
	if !strings.Contains(text, "+2.10%") {
		t.Fatalf("missing deviation: %q", text)
	}
	if !strings.Contains(text, "n1\nn2\nn3") || strings.Contains(text, "n4") {
		t.Fatalf("news preview wrong: %q", text)
	}
	// Only news has more than the preview.
	if len(buttons) != 1 || buttons[0].ActionID != ActionMoreNews {
		t.Fatalf("unexpected buttons: %+v", buttons)
	}
	if buttons[0].Token != "2024-05-02|GS25" {
		t.Fatalf("unexpected token %q", buttons[0].Token)
	}
}

func TestComposeAlertSlumpHeadline(t *testing.T) {
	ev := models.AnomalyEvent{
		Date: testDate(), Store: models.StoreCU, Kind: models.AnomalyLow,
		SumAmount: 3e8, Deviation: -1.9,
	}
	c := NewNotificationComposer(&fakeLinks{})
	text, buttons := c.ComposeAlert(&ev)
	if !strings.Contains(text, "slump") {
		t.Fatalf("low anomaly must read as slump: %q", text)
	}
	if len(buttons) != 0 {
		t.Fatalf("no links means no buttons, got %+v", buttons)
	}
}

func TestExpandReturnsRemainder(t *testing.T) {
	token := EncodeToken(testDate(), models.StoreCU)
	links := &fakeLinks{news: map[string][]string{token: {"n1", "n2", "n3", "n4", "n5"}}}
	c := NewNotificationComposer(links)

	got, err := c.Expand(context.Background(), token, "news")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if got != "n4\nn5" {
		t.Fatalf("unexpected expansion %q", got)
	}

	// Idempotent: the same token expands to the same text again.
	again, err := c.Expand(context.Background(), token, "news")
	if err != nil || again != got {
		t.Fatalf("expansion not idempotent: %q vs %q (%v)", got, again, err)
	}
}

func TestExpandSentinelWhenNothingLeft(t *testing.T) {
	token := EncodeToken(testDate(), models.StoreCU)
	links := &fakeLinks{news: map[string][]string{token: {"n1", "n2"}}}
	c := NewNotificationComposer(links)

	got, err := c.Expand(context.Background(), token, "news")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if got != NoMoreLinks {
		t.Fatalf("expected sentinel, got %q", got)
	}
}

func TestComposeListingEmpty(t *testing.T) {
	c := NewNotificationComposer(&fakeLinks{})
	text, buttons, err := c.ComposeListing(context.Background(), models.StoreSeven, testDate(), "video")
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if buttons != nil {
		t.Fatalf("empty listing must not offer more")
	}
	if !strings.Contains(text, "No video links") {
		t.Fatalf("unexpected empty reply %q", text)
	}
}
