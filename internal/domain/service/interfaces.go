package service

import (
	"context"
	"time"

	"SalePulse/internal/domain/models"
)

// Notifier is the write-only sink for all outbound messages. The core
// never sees transport payloads; a thin adapter owns the wire format.
type Notifier interface {
	PostMessage(ctx context.Context, channel, text string) error
	// PostAlert posts text plus optional "more" continuation buttons,
	// one per non-empty token.
	PostAlert(ctx context.Context, channel, text string, moreTokens []MoreButton) error
	UploadFile(ctx context.Context, channel, path, title string) error
}

// MoreButton describes one continuation button on an alert.
type MoreButton struct {
	ActionID string
	Label    string
	Token    string
}

// CommandStream delivers normalized inbound commands and button
// actions from the chat workspace.
type CommandStream interface {
	Connect(ctx context.Context) error
	Read(ctx context.Context) (<-chan models.CommandEvent, <-chan models.ActionEvent, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Forecaster produces a next-day projection for one store.
type Forecaster interface {
	Predict(ctx context.Context, store models.Store, date time.Time) (models.ForecastResult, string, error)
}
