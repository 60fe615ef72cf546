//go:build wireinject
// +build wireinject

package di

import (
	"StockCast/internal/handler/api"
	"StockCast/internal/usecase"
	"StockCast/pkg/config"
	"StockCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Infrastructure
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideRegisterer,
		ProvideGatherer,
		ProvideMetrics,
		ProvideForecastMetrics,
		ProvideCache,

		// Repositories
		ProvideHistoryProvider,
		ProvideIntradayProvider,
		ProvideRunRecorder,
		ProvideEventPublisher,

		// Forecasting
		ProvideForecastOptions,
		ProvideForecaster,

		// Use cases
		ProvidePredictUseCase,
		usecase.NewMarketDataUseCase,

		// HTTP
		ProvideLimiter,
		api.NewHandler,
		ProvideHTTPServer,

		// Application
		ProvideScheduler,
		ProvideApp,
	)
	return nil, nil, nil
}
