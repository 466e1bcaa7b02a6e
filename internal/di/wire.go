//go:build wireinject
// +build wireinject

package di

import (
	"SalePulse/pkg/config"
	"SalePulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Logging and metrics
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisClient,
		ProvideCache,

		// Repositories
		ProvideSalesStore,
		ProvideLinkStore,
		ProvideRecordWriter,
		ProvideAlertPublisher,
		ProvideCursorStore,

		// Detection and forecasting
		ProvideDetector,
		ProvideForecaster,

		// Slack surfaces
		ProvideNotifier,
		ProvideCommandStream,

		// Use cases
		ProvideComposer,
		ProvideSalesLookup,
		ProvideForecastJob,
		ProvideForecastQueue,
		ProvideCommandRouter,
		ProvideDetectionLoop,
		ProvideKafkaSalesHandler,
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
