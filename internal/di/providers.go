package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"SalePulse/internal/domain/models"
	domrepo "SalePulse/internal/domain/repository"
	domservice "SalePulse/internal/domain/service"
	"SalePulse/internal/handler/api"
	internalrepo "SalePulse/internal/repository"
	chatmetrics "SalePulse/internal/service/metrics"
	"SalePulse/internal/service/ratelimit"
	"SalePulse/internal/service/slack"
	"SalePulse/internal/service/slackstream"
	"SalePulse/internal/services/anomaly"
	"SalePulse/internal/services/forecast"
	"SalePulse/internal/usecase"
	"SalePulse/pkg/cache"
	pkgch "SalePulse/pkg/clickhouse"
	"SalePulse/pkg/config"
	pkgkafka "SalePulse/pkg/kafka"
	applogger "SalePulse/pkg/logger"
	"SalePulse/pkg/metrics"
	"SalePulse/pkg/queue"
	"SalePulse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	format := "console"
	if cfg.Environment == "production" {
		format = "json"
	}
	return applogger.New(&applogger.Config{Level: level, Format: format, Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS salepulse",
		`CREATE TABLE IF NOT EXISTS salepulse.daily_sales (
            date Date, store_type String, sum_amount Float64,
            man10 Float64, man20 Float64, man30 Float64, man40 Float64, man50 Float64, man60 Float64,
            woman10 Float64, woman20 Float64, woman30 Float64, woman40 Float64, woman50 Float64, woman60 Float64,
            store_count Float64, one_plus_one Float64, two_plus_one Float64, media_count Float64
        ) ENGINE=ReplacingMergeTree ORDER BY (store_type, date)`,
		`CREATE TABLE IF NOT EXISTS salepulse.daily_aggregates (
            date Date, store_type String, sum_amount Float64,
            growth Float64, avg_growth Float64, growth_deviation Float64
        ) ENGINE=ReplacingMergeTree ORDER BY (store_type, date)`,
		`CREATE TABLE IF NOT EXISTS salepulse.video_links (
            date Date, store_type String, url String, position UInt32
        ) ENGINE=MergeTree ORDER BY (store_type, date, position)`,
		`CREATE TABLE IF NOT EXISTS salepulse.news_links (
            date Date, store_type String, url String, published_at DateTime
        ) ENGINE=MergeTree ORDER BY (store_type, date, published_at)`,
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is
// disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideKafkaConsumer creates the ingest consumer, or nil when Kafka
// is disabled.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideRedisClient creates a Redis client, or nil when disabled.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	chatmetrics.Register()
	return metrics.New()
}

// ProvideCache builds the aggregate lookup cache. With Redis enabled
// the memory layer sits in front of it, otherwise memory only.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}
	host, port := splitHostPort(cfg.Redis.Addr)
	redisCache, err := cache.NewRedisCache(
		cache.WithRedisHost(host),
		cache.WithRedisPort(port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix("salepulse"),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(redisCache), nil
}

func splitHostPort(addr string) (string, int) {
	host, rawPort, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 6379
	}
	port, err := strconv.Atoi(rawPort)
	if err != nil {
		return host, 6379
	}
	return host, port
}

// ProvideSalesStore creates the ClickHouse sales reader behind the
// aggregate cache.
func ProvideSalesStore(chClient *pkgch.Client, c cache.Service, lgr *applogger.Logger) domrepo.SalesStore {
	store := internalrepo.NewCHSalesStore(chClient)
	store.SetLogger(lgr)
	return internalrepo.NewCachedSalesStore(store, c)
}

// ProvideLinkStore creates the ClickHouse link reader.
func ProvideLinkStore(chClient *pkgch.Client) domrepo.LinkStore {
	return internalrepo.NewCHLinkStore(chClient)
}

// ProvideRecordWriter creates the ingest writer.
func ProvideRecordWriter(chClient *pkgch.Client) domrepo.RecordWriter {
	return internalrepo.NewCHRecordWriter(chClient, "salepulse.daily_sales")
}

// ProvideAlertPublisher fans alerts out on Kafka, or nil without it.
func ProvideAlertPublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.AlertPublisher {
	if producer == nil || cfg.Kafka.AlertTopic == "" {
		return nil
	}
	return internalrepo.NewKafkaAlertPublisher(producer, cfg.Kafka.AlertTopic)
}

// ProvideCursorStore checkpoints the cursor in Redis when opted in.
func ProvideCursorStore(client *redis.Client, cfg *config.Config) domrepo.CursorStore {
	if client == nil || !cfg.Detector.Checkpoint {
		return nil
	}
	return internalrepo.NewRedisCursorStore(client)
}

// ProvideForecaster loads model artifacts and builds the engine.
// Missing or inconsistent artifacts fail startup here.
func ProvideForecaster(
	cfg *config.Config,
	sales domrepo.SalesStore,
	m domrepo.Metrics,
	lgr *applogger.Logger,
) (domservice.Forecaster, error) {
	reg, err := forecast.LoadRegistry(cfg.Forecast.ModelDir)
	if err != nil {
		return nil, fmt.Errorf("model artifacts: %w", err)
	}
	chartDir := cfg.Forecast.ChartDir
	if chartDir == "" {
		chartDir = "charts"
	}
	charts, err := forecast.NewChartRenderer(chartDir)
	if err != nil {
		return nil, err
	}
	return forecast.NewEngine(sales, reg, charts, m, lgr), nil
}

// ProvideDetector builds the anomaly detector from config thresholds.
func ProvideDetector(
	cfg *config.Config,
	sales domrepo.SalesStore,
	links domrepo.LinkStore,
	m domrepo.Metrics,
	lgr *applogger.Logger,
) (*anomaly.Detector, error) {
	thresholds := make(map[models.Store]models.Threshold, len(cfg.Detector.Thresholds))
	for raw, th := range cfg.Detector.Thresholds {
		store, err := models.ParseStore(raw)
		if err != nil {
			return nil, fmt.Errorf("detector thresholds: %w", err)
		}
		thresholds[store] = models.Threshold{High: th.High, Low: th.Low}
	}
	return anomaly.NewDetector(sales, links, thresholds, m, lgr)
}

// ProvideNotifier creates the Slack notifier.
func ProvideNotifier(cfg *config.Config, lgr *applogger.Logger) domservice.Notifier {
	return slack.NewNotifier(slack.Config{
		Token:   cfg.Slack.BotToken,
		BaseURL: cfg.Slack.APIBaseURL,
		Timeout: cfg.Slack.Timeout,
	}, lgr)
}

// ProvideCommandStream creates the Socket Mode stream, or nil when no
// app token is configured (alert-only deployments).
func ProvideCommandStream(cfg *config.Config, lgr *applogger.Logger) domservice.CommandStream {
	if cfg.Slack.AppToken == "" {
		return nil
	}
	return slackstream.New(slackstream.Config{
		AppToken:       cfg.Slack.AppToken,
		APIBaseURL:     cfg.Slack.APIBaseURL,
		ReconnectDelay: cfg.Slack.ReconnectDelay,
		PingInterval:   cfg.Slack.PingInterval,
	}, lgr)
}

// ProvideComposer creates the notification composer.
func ProvideComposer(links domrepo.LinkStore) *usecase.NotificationComposer {
	return usecase.NewNotificationComposer(links)
}

// ProvideSalesLookup creates the sales lookup use case.
func ProvideSalesLookup(sales domrepo.SalesStore) *usecase.SalesLookup {
	return usecase.NewSalesLookup(sales)
}

// ProvideForecastJob creates the queued forecast executor.
func ProvideForecastJob(fc domservice.Forecaster, notifier domservice.Notifier, lgr *applogger.Logger) *usecase.ForecastJob {
	return usecase.NewForecastJob(fc, notifier, lgr)
}

// ProvideForecastQueue runs forecast jobs on Redis-backed workers, or
// nil without Redis (the router then executes jobs inline).
func ProvideForecastQueue(
	lgr *applogger.Logger,
	cfg *config.Config,
	client *redis.Client,
	job *usecase.ForecastJob,
) *queue.RedisQueue {
	if client == nil {
		return nil
	}
	return queue.NewRedisConsumer(lgr, &queue.QueueConfig{
		Workers:    cfg.Forecast.Queue.Workers,
		QueueSize:  cfg.Forecast.Queue.QueueSize,
		RetryLimit: cfg.Forecast.Queue.RetryLimit,
		RetryDelay: cfg.Forecast.Queue.RetryDelay,
	}, client, []queue.Job{job}, queue.WithKeyPrefix("salepulse:queue"))
}

// inlineDispatcher executes forecast jobs in place when no Redis
// queue is configured.
type inlineDispatcher struct {
	job *usecase.ForecastJob
}

func (d *inlineDispatcher) PublishMessage(ctx context.Context, msgType string, payload interface{}) error {
	go func() {
		_ = d.job.Handle(context.Background(), payload)
	}()
	return nil
}

// ProvideCommandRouter wires the chat command path, or nil without a
// command stream.
func ProvideCommandRouter(
	stream domservice.CommandStream,
	notifier domservice.Notifier,
	lookup *usecase.SalesLookup,
	composer *usecase.NotificationComposer,
	workQueue *queue.RedisQueue,
	job *usecase.ForecastJob,
	cfg *config.Config,
	m domrepo.Metrics,
	lgr *applogger.Logger,
) *usecase.CommandRouter {
	if stream == nil {
		return nil
	}
	var forecasts queue.QueueService
	if workQueue != nil {
		forecasts = workQueue
	} else {
		forecasts = &inlineDispatcher{job: job}
	}
	return usecase.NewCommandRouter(stream, notifier, lookup, composer, forecasts, cfg.Dashboards, m, lgr)
}

// ProvideDetectionLoop wires the simulated-clock detection loop.
func ProvideDetectionLoop(
	detector *anomaly.Detector,
	composer *usecase.NotificationComposer,
	notifier domservice.Notifier,
	publisher domrepo.AlertPublisher,
	cursors domrepo.CursorStore,
	cfg *config.Config,
	m domrepo.Metrics,
	lgr *applogger.Logger,
) *usecase.DetectionLoop {
	interval := cfg.Detector.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	return usecase.NewDetectionLoop(
		detector, composer, notifier, publisher, cursors,
		ratelimit.New(), m, lgr,
		usecase.DetectionLoopConfig{
			Channel:  cfg.Slack.AlertChannel,
			Start:    cfg.StartDate(),
			Interval: interval,
		},
	)
}

// ProvideKafkaSalesHandler registers the ingest handler.
func ProvideKafkaSalesHandler(writer domrepo.RecordWriter, m domrepo.Metrics, cfg *config.Config) *usecase.KafkaSalesHandler {
	return usecase.NewKafkaSalesHandler(cfg.Kafka.SalesTopic, writer, m)
}

// ProvideHTTPHandler builds the echo API handler.
func ProvideHTTPHandler(
	lgr *applogger.Logger,
	lookup *usecase.SalesLookup,
	fc domservice.Forecaster,
	detector *anomaly.Detector,
	composer *usecase.NotificationComposer,
) *api.SalesEchoHandler {
	return api.NewSalesEchoHandler(lgr, lookup, fc, detector, composer)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	loop *usecase.DetectionLoop,
	router *usecase.CommandRouter,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaSalesHandler,
	workQueue *queue.RedisQueue,
	chClient *pkgch.Client,
	handler *api.SalesEchoHandler,
	lgr *applogger.Logger,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, loop, router, consumer, kh, workQueue, chClient, lgr)
	app.SetHTTPHandler(handler)
	return app
}
