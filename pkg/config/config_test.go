package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validYAML = `
environment: test
slack:
  bot_token: xoxb-test
  alert_channel: "#alerts"
detector:
  start_date: "2021-01-08"
  thresholds:
    GS25: {high: 1.135, low: -1.461}
    CU: {high: 1.252, low: -1.344}
    SEVEN: {high: 1.394, low: -1.374}
forecast:
  model_dir: models
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Detector.Thresholds["CU"].High != 1.252 {
		t.Fatalf("threshold not parsed: %+v", cfg.Detector.Thresholds)
	}
	if cfg.StartDate().Format("2006-01-02") != "2021-01-08" {
		t.Fatalf("start date not parsed: %v", cfg.StartDate())
	}
}

func TestLoadRejectsInvertedThreshold(t *testing.T) {
	bad := strings.Replace(validYAML,
		"CU: {high: 1.252, low: -1.344}",
		"CU: {high: -2.0, low: 1.0}", 1)
	_, err := Load(writeConfig(t, bad))
	if err == nil || !strings.Contains(err.Error(), "must exceed low") {
		t.Fatalf("expected threshold error, got %v", err)
	}
}

func TestLoadRejectsBadStartDate(t *testing.T) {
	bad := strings.Replace(validYAML, `"2021-01-08"`, `"Jan 8 2021"`, 1)
	if _, err := Load(writeConfig(t, bad)); err == nil {
		t.Fatalf("expected start date error")
	}
}

func TestLoadRequiresSlackToken(t *testing.T) {
	bad := strings.Replace(validYAML, "bot_token: xoxb-test", "bot_token: \"\"", 1)
	if _, err := Load(writeConfig(t, bad)); err == nil {
		t.Fatalf("expected missing token error")
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-env")
	cfg, err := LoadWithEnv(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Slack.BotToken != "xoxb-env" {
		t.Fatalf("env override ignored: %q", cfg.Slack.BotToken)
	}
}
