package slackstream

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"SalePulse/internal/domain/models"
	"SalePulse/internal/domain/service"
	xhttp "SalePulse/pkg/http"
	"SalePulse/pkg/logger"
)

var mentionPattern = regexp.MustCompile(`<@[A-Z0-9]+>`)

// Config holds Socket Mode settings.
type Config struct {
	AppToken       string
	APIBaseURL     string
	ReconnectDelay time.Duration
	PingInterval   time.Duration
}

// Client implements the CommandStream contract over Slack Socket
// Mode: open a websocket URL via apps.connections.open, then receive
// event envelopes and ack each one.
type Client struct {
	cfg  Config
	http *xhttp.Client
	log  *logger.Logger

	conn      *websocket.Conn
	connected bool
}

func New(cfg Config, log *logger.Logger) service.CommandStream {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://slack.com/api"
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 3 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: xhttp.NewClient(xhttp.WithTimeout(10 * time.Second)),
		log:  log,
	}
}

// Connect requests a websocket URL and dials it.
func (c *Client) Connect(ctx context.Context) error {
	var resp struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
		URL   string `json:"url"`
	}
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.cfg.APIBaseURL + "/apps.connections.open",
		Headers: map[string]string{
			"Authorization": "Bearer " + c.cfg.AppToken,
			"Content-Type":  "application/x-www-form-urlencoded",
		},
	}, &resp)
	if err != nil {
		return fmt.Errorf("connections.open: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("connections.open: slack error %q", resp.Error)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, resp.URL, nil)
	if err != nil {
		return fmt.Errorf("socket mode dial: %w", err)
	}
	c.conn = conn
	c.connected = true
	c.log.Info("socket mode connected")
	return nil
}

type envelope struct {
	EnvelopeID string          `json:"envelope_id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
}

type eventsPayload struct {
	Event struct {
		Type    string `json:"type"`
		Channel string `json:"channel"`
		Text    string `json:"text"`
	} `json:"event"`
}

type interactivePayload struct {
	Type    string `json:"type"`
	Channel struct {
		ID string `json:"id"`
	} `json:"channel"`
	Actions []struct {
		ActionID string `json:"action_id"`
		Value    string `json:"value"`
	} `json:"actions"`
}

// Read streams normalized commands and button actions.
func (c *Client) Read(ctx context.Context) (<-chan models.CommandEvent, <-chan models.ActionEvent, <-chan error) {
	cmds := make(chan models.CommandEvent, 64)
	acts := make(chan models.ActionEvent, 64)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.cfg.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(cmds)
		defer close(acts)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("socket mode conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					c.connected = false
					errs <- fmt.Errorf("socket mode read: %w", err)
					return
				}
				var env envelope
				if err := json.Unmarshal(b, &env); err != nil {
					continue
				}
				if env.EnvelopeID != "" {
					_ = c.conn.WriteJSON(map[string]string{"envelope_id": env.EnvelopeID})
				}
				c.dispatch(env, cmds, acts)
			}
		}
	}()

	return cmds, acts, errs
}

func (c *Client) dispatch(env envelope, cmds chan<- models.CommandEvent, acts chan<- models.ActionEvent) {
	switch env.Type {
	case "events_api":
		var p eventsPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		if p.Event.Type != "app_mention" {
			return
		}
		text := strings.TrimSpace(mentionPattern.ReplaceAllString(p.Event.Text, ""))
		select {
		case cmds <- models.CommandEvent{Channel: p.Event.Channel, RawText: text}:
		default:
			// drop on backpressure
		}
	case "interactive":
		var p interactivePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		if p.Type != "block_actions" {
			return
		}
		for _, a := range p.Actions {
			select {
			case acts <- models.ActionEvent{Channel: p.Channel.ID, ActionID: a.ActionID, Value: a.Value}:
			default:
			}
		}
	}
}

// Reconnect closes and reopens the socket.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.cfg.ReconnectDelay)
	return c.Connect(ctx)
}

func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) IsConnected() bool { return c.connected }
