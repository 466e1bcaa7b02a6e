package slack

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"SalePulse/internal/domain/service"
	xhttp "SalePulse/pkg/http"
	"SalePulse/pkg/logger"
)

const defaultBaseURL = "https://slack.com/api"

// Config holds Slack Web API settings.
type Config struct {
	Token   string
	BaseURL string
	Timeout time.Duration
}

// Notifier posts messages, alert buttons, and chart files through the
// Slack Web API. All other packages talk to the service.Notifier
// contract; the wire format lives here only.
type Notifier struct {
	baseURL string
	token   string
	client  *xhttp.Client
	log     *logger.Logger
}

func NewNotifier(cfg Config, log *logger.Logger) *Notifier {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{
		baseURL: baseURL,
		token:   cfg.Token,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		log:     log,
	}
}

// apiResponse is the common Web API envelope.
type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (n *Notifier) PostMessage(ctx context.Context, channel, text string) error {
	return n.postJSON(ctx, "/chat.postMessage", map[string]interface{}{
		"channel": channel,
		"text":    text,
	})
}

func (n *Notifier) PostAlert(ctx context.Context, channel, text string, buttons []service.MoreButton) error {
	blocks := []map[string]interface{}{
		{
			"type": "section",
			"text": map[string]string{"type": "mrkdwn", "text": text},
		},
	}
	if len(buttons) > 0 {
		elements := make([]map[string]interface{}, 0, len(buttons))
		for _, b := range buttons {
			elements = append(elements, map[string]interface{}{
				"type":      "button",
				"action_id": b.ActionID,
				"value":     b.Token,
				"text":      map[string]string{"type": "plain_text", "text": b.Label},
			})
		}
		blocks = append(blocks, map[string]interface{}{
			"type":     "actions",
			"elements": elements,
		})
	}

	return n.postJSON(ctx, "/chat.postMessage", map[string]interface{}{
		"channel": channel,
		"text":    text, // fallback for clients that do not render blocks
		"blocks":  blocks,
	})
}

// UploadFile sends a chart PNG as a multipart files.upload. Buffering
// the whole body is fine, the charts are a few tens of kilobytes.
func (n *Notifier) UploadFile(ctx context.Context, channel, path, title string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read upload %s: %w", path, err)
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("multipart form: %w", err)
	}
	if _, err := part.Write(raw); err != nil {
		return fmt.Errorf("multipart form: %w", err)
	}
	if err := form.WriteField("channels", channel); err != nil {
		return fmt.Errorf("multipart form: %w", err)
	}
	if err := form.WriteField("title", title); err != nil {
		return fmt.Errorf("multipart form: %w", err)
	}
	if err := form.Close(); err != nil {
		return fmt.Errorf("multipart form: %w", err)
	}

	var resp apiResponse
	err = n.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    n.baseURL + "/files.upload",
		Headers: map[string]string{
			"Authorization": "Bearer " + n.token,
			"Content-Type":  form.FormDataContentType(),
		},
		Body: buf.Bytes(),
	}, &resp)
	if err != nil {
		return fmt.Errorf("files.upload: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("files.upload: slack error %q", resp.Error)
	}
	return nil
}

func (n *Notifier) postJSON(ctx context.Context, path string, payload map[string]interface{}) error {
	var resp apiResponse
	err := n.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    n.baseURL + path,
		Headers: map[string]string{
			"Authorization": "Bearer " + n.token,
			"Content-Type":  "application/json",
		},
		Body: payload,
	}, &resp)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	if !resp.OK {
		return fmt.Errorf("post %s: slack error %q", path, resp.Error)
	}
	return nil
}

var _ service.Notifier = (*Notifier)(nil)
