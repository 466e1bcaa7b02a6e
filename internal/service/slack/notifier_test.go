package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"SalePulse/internal/domain/service"
	"SalePulse/pkg/logger"
)

type capturedRequest struct {
	Path        string
	ContentType string
	Body        []byte
	Form        url.Values
}

func newTestNotifier(t *testing.T, status int, reply string) (*Notifier, *[]capturedRequest) {
	t.Helper()
	var reqs []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		req := capturedRequest{Path: r.URL.Path, ContentType: r.Header.Get("Content-Type"), Body: body}
		if strings.Contains(req.ContentType, "x-www-form-urlencoded") {
			req.Form, _ = url.ParseQuery(string(body))
		}
		reqs = append(reqs, req)
		w.WriteHeader(status)
		w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)

	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewNotifier(Config{Token: "xoxb-test", BaseURL: srv.URL}, log), &reqs
}

func TestPostMessage(t *testing.T) {
	n, reqs := newTestNotifier(t, http.StatusOK, `{"ok":true}`)

	if err := n.PostMessage(context.Background(), "ops", "hello"); err != nil {
		t.Fatalf("post: %v", err)
	}
	if len(*reqs) != 1 || (*reqs)[0].Path != "/chat.postMessage" {
		t.Fatalf("unexpected requests %+v", *reqs)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal((*reqs)[0].Body, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload["channel"] != "ops" || payload["text"] != "hello" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestPostAlertCarriesButtons(t *testing.T) {
	n, reqs := newTestNotifier(t, http.StatusOK, `{"ok":true}`)

	err := n.PostAlert(context.Background(), "ops", "alert text", []service.MoreButton{
		{ActionID: "show_more_news", Label: "More news", Token: "2024-05-02|CU"},
	})
	if err != nil {
		t.Fatalf("post alert: %v", err)
	}

	var payload struct {
		Blocks []struct {
			Type     string `json:"type"`
			Elements []struct {
				ActionID string `json:"action_id"`
				Value    string `json:"value"`
			} `json:"elements"`
		} `json:"blocks"`
	}
	if err := json.Unmarshal((*reqs)[0].Body, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if len(payload.Blocks) != 2 || payload.Blocks[1].Type != "actions" {
		t.Fatalf("unexpected blocks %+v", payload.Blocks)
	}
	btn := payload.Blocks[1].Elements[0]
	if btn.ActionID != "show_more_news" || btn.Value != "2024-05-02|CU" {
		t.Fatalf("unexpected button %+v", btn)
	}
}

func TestSlackErrorSurfaces(t *testing.T) {
	n, _ := newTestNotifier(t, http.StatusOK, `{"ok":false,"error":"channel_not_found"}`)

	err := n.PostMessage(context.Background(), "nope", "hello")
	if err == nil || !strings.Contains(err.Error(), "channel_not_found") {
		t.Fatalf("expected slack error, got %v", err)
	}
}

func TestUploadFileMultipart(t *testing.T) {
	n, reqs := newTestNotifier(t, http.StatusOK, `{"ok":true}`)

	// Binary payload with a PNG signature and NUL bytes; it must reach
	// the server byte for byte.
	raw := []byte{0x89, 'P', 'N', 'G', 0x00, 0x01, 0xFF, 0xFE}
	path := filepath.Join(t.TempDir(), "chart.png")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := n.UploadFile(context.Background(), "ops", path, "chart"); err != nil {
		t.Fatalf("upload: %v", err)
	}

	req := (*reqs)[0]
	if req.Path != "/files.upload" {
		t.Fatalf("unexpected path %q", req.Path)
	}
	mediaType, params, err := mime.ParseMediaType(req.ContentType)
	if err != nil || mediaType != "multipart/form-data" {
		t.Fatalf("expected multipart request, got %q (%v)", req.ContentType, err)
	}

	reader := multipart.NewReader(bytes.NewReader(req.Body), params["boundary"])
	var gotFile []byte
	fields := map[string]string{}
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("part: %v", err)
		}
		data, _ := io.ReadAll(part)
		if part.FormName() == "file" {
			if part.FileName() != "chart.png" {
				t.Fatalf("unexpected file name %q", part.FileName())
			}
			gotFile = data
			continue
		}
		fields[part.FormName()] = string(data)
	}

	if !bytes.Equal(gotFile, raw) {
		t.Fatalf("file bytes mangled: %v", gotFile)
	}
	if fields["channels"] != "ops" || fields["title"] != "chart" {
		t.Fatalf("unexpected fields %v", fields)
	}
}
