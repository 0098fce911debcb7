//go:build wireinject
// +build wireinject

package di

import (
	"VolPulse/pkg/config"
	"VolPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient infrastructure
		ProvideLogger,
		ProvideMetrics,

		// Persistence and messaging
		ProvideHistoryStore,
		ProvideAlertPublisher,
		ProvideCache,

		// Engine components
		ProvideCommodities,
		ProvideSolver,
		ProvideLiquidityFilter,
		ProvideRateProvider,
		ProvideRankEstimator,
		ProvideAggregator,

		// Use case and HTTP surface
		ProvideVolatilityService,
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
