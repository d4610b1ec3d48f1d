//go:build wireinject
// +build wireinject

package di

import (
	"HomeCast/pkg/config"
	"HomeCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Data layer
		ProvideStore,
		ProvideArchive,
		ProvideSeriesSource,

		// Forecasting
		ProvidePredictor,
		ProvideStrategy,
		ProvideSharedCache,

		// Use cases
		ProvideQueryService,
		ProvideForecastService,
		ProvideReloader,
		ProvideReloadHandler,

		// Delivery
		ProvideHub,
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
