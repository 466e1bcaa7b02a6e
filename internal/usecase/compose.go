package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"SalePulse/internal/domain/models"
	"SalePulse/internal/domain/repository"
	"SalePulse/internal/domain/service"
)

// previewLimit is how many links an alert shows inline before offering
// a continuation button.
const previewLimit = 3

// NoMoreLinks is the reply when a continuation token has nothing left
// to show. Expansion is idempotent: pressing the button twice yields
// the same text.
const NoMoreLinks = "No more links for this day."

// Action IDs carried on continuation buttons.
const (
	ActionMoreVideo = "show_more_video"
	ActionMoreNews  = "show_more_news"
)

// NotificationComposer renders anomaly events and link listings into
// message text. Continuation state lives entirely in the token; the
// composer re-resolves links on expansion instead of caching them.
type NotificationComposer struct {
	links repository.LinkStore
}

func NewNotificationComposer(links repository.LinkStore) *NotificationComposer {
	return &NotificationComposer{links: links}
}

// EncodeToken packs a (date, store) pair into a continuation token.
func EncodeToken(date time.Time, store models.Store) string {
	return date.Format(models.DateLayout) + "|" + store.String()
}

// DecodeToken unpacks a continuation token.
func DecodeToken(token string) (time.Time, models.Store, error) {
	parts := strings.SplitN(token, "|", 2)
	if len(parts) != 2 {
		return time.Time{}, "", fmt.Errorf("malformed continuation token %q", token)
	}
	date, err := time.Parse(models.DateLayout, parts[0])
	if err != nil {
		return time.Time{}, "", fmt.Errorf("continuation token date: %w", err)
	}
	store, err := models.ParseStore(parts[1])
	if err != nil {
		return time.Time{}, "", fmt.Errorf("continuation token store: %w", err)
	}
	return date, store, nil
}

// Preview returns the first previewLimit links joined by newline and
// whether more remain.
func Preview(links []string) (string, bool) {
	if len(links) <= previewLimit {
		return strings.Join(links, "\n"), false
	}
	return strings.Join(links[:previewLimit], "\n"), true
}

// ComposeAlert renders one anomaly event: headline, figures, then the
// video and news previews. Buttons are attached only for link kinds
// that actually have more than the preview shows.
func (c *NotificationComposer) ComposeAlert(ev *models.AnomalyEvent) (string, []service.MoreButton) {
	var b strings.Builder

	headline := "Sales surge detected"
	if ev.Kind == models.AnomalyLow {
		headline = "Sales slump detected"
	}
	fmt.Fprintf(&b, ":rotating_light: %s: %s on %s\n", headline, ev.Store, ev.Date.Format(models.DateLayout))
	fmt.Fprintf(&b, "Daily sales: %.0f won\n", ev.SumAmount)
	fmt.Fprintf(&b, "Growth deviation: %+.2f%%\n", ev.Deviation)

	token := EncodeToken(ev.Date, ev.Store)
	var buttons []service.MoreButton

	if len(ev.VideoLinks) > 0 {
		preview, more := Preview(ev.VideoLinks)
		b.WriteString("\nRelated videos:\n")
		b.WriteString(preview)
		b.WriteString("\n")
		if more {
			buttons = append(buttons, service.MoreButton{
				ActionID: ActionMoreVideo, Label: "More videos", Token: token,
			})
		}
	}
	if len(ev.NewsLinks) > 0 {
		preview, more := Preview(ev.NewsLinks)
		b.WriteString("\nRelated news:\n")
		b.WriteString(preview)
		b.WriteString("\n")
		if more {
			buttons = append(buttons, service.MoreButton{
				ActionID: ActionMoreNews, Label: "More news", Token: token,
			})
		}
	}

	return strings.TrimRight(b.String(), "\n"), buttons
}

// ComposeListing renders a standalone link listing for a chat command,
// same preview and continuation behavior as alerts.
func (c *NotificationComposer) ComposeListing(ctx context.Context, store models.Store, date time.Time, kind string) (string, []service.MoreButton, error) {
	links, actionID, err := c.resolve(ctx, store, date, kind)
	if err != nil {
		return "", nil, err
	}
	if len(links) == 0 {
		return fmt.Sprintf("No %s links for %s on %s.", kind, store, date.Format(models.DateLayout)), nil, nil
	}

	preview, more := Preview(links)
	var buttons []service.MoreButton
	if more {
		buttons = append(buttons, service.MoreButton{
			ActionID: actionID, Label: "More", Token: EncodeToken(date, store),
		})
	}
	return preview, buttons, nil
}

// Expand resolves a continuation token and returns every link past the
// preview, or the NoMoreLinks sentinel.
func (c *NotificationComposer) Expand(ctx context.Context, token, kind string) (string, error) {
	date, store, err := DecodeToken(token)
	if err != nil {
		return "", err
	}
	links, _, err := c.resolve(ctx, store, date, kind)
	if err != nil {
		return "", err
	}
	if len(links) <= previewLimit {
		return NoMoreLinks, nil
	}
	return strings.Join(links[previewLimit:], "\n"), nil
}

func (c *NotificationComposer) resolve(ctx context.Context, store models.Store, date time.Time, kind string) ([]string, string, error) {
	switch kind {
	case "video":
		links, err := c.links.VideoURLs(ctx, store, date)
		return links, ActionMoreVideo, err
	case "news":
		links, err := c.links.NewsURLs(ctx, store, date)
		return links, ActionMoreNews, err
	default:
		return nil, "", fmt.Errorf("unknown link kind %q", kind)
	}
}
