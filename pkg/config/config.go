package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ThresholdConfig is one store's anomaly band. High must exceed Low.
type ThresholdConfig struct {
	High float64 `yaml:"high"`
	Low  float64 `yaml:"low"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		SalesTopic   string   `yaml:"sales_topic"`
		AlertTopic   string   `yaml:"alert_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Slack struct {
		BotToken       string        `yaml:"bot_token"`
		AppToken       string        `yaml:"app_token"`
		AlertChannel   string        `yaml:"alert_channel"`
		APIBaseURL     string        `yaml:"api_base_url"`
		Timeout        time.Duration `yaml:"timeout"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"slack"`
	Detector struct {
		StartDate  string                     `yaml:"start_date"` // YYYY-MM-DD
		Interval   time.Duration              `yaml:"interval"`
		Checkpoint bool                       `yaml:"checkpoint"`
		Thresholds map[string]ThresholdConfig `yaml:"thresholds"`
	} `yaml:"detector"`
	Forecast struct {
		ModelDir string `yaml:"model_dir"`
		ChartDir string `yaml:"chart_dir"`
		Queue    struct {
			Workers    int           `yaml:"workers"`
			QueueSize  int           `yaml:"queue_size"`
			RetryLimit int           `yaml:"retry_limit"`
			RetryDelay time.Duration `yaml:"retry_delay"`
		} `yaml:"queue"`
	} `yaml:"forecast"`
	Dashboards []string `yaml:"dashboards"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("SLACK_BOT_TOKEN"); v != "" {
		c.Slack.BotToken = v
	}
	if v := os.Getenv("SLACK_APP_TOKEN"); v != "" {
		c.Slack.AppToken = v
	}
	if v := os.Getenv("SLACK_ALERT_CHANNEL"); v != "" {
		c.Slack.AlertChannel = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("MODEL_DIR"); v != "" {
		c.Forecast.ModelDir = v
	}

	return c, nil
}

// Validate checks if the configuration is valid. Threshold bands are
// checked here so a misconfigured detector refuses to start.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Slack.BotToken == "" {
		return fmt.Errorf("slack.bot_token is required")
	}
	if c.Slack.AlertChannel == "" {
		return fmt.Errorf("slack.alert_channel is required")
	}
	if c.Forecast.ModelDir == "" {
		return fmt.Errorf("forecast.model_dir is required")
	}
	if c.Detector.StartDate == "" {
		return fmt.Errorf("detector.start_date is required")
	}
	if _, err := time.Parse("2006-01-02", c.Detector.StartDate); err != nil {
		return fmt.Errorf("detector.start_date must be YYYY-MM-DD: %w", err)
	}
	if len(c.Detector.Thresholds) == 0 {
		return fmt.Errorf("detector.thresholds cannot be empty")
	}
	for store, th := range c.Detector.Thresholds {
		if th.High <= th.Low {
			return fmt.Errorf("detector.thresholds.%s: high (%.3f) must exceed low (%.3f)",
				store, th.High, th.Low)
		}
	}
	return nil
}

// StartDate returns the parsed simulation start. Call after Validate.
func (c *Config) StartDate() time.Time {
	t, _ := time.Parse("2006-01-02", c.Detector.StartDate)
	return t
}
