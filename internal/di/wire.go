//go:build wireinject
// +build wireinject

package di

import (
	"github.com/abhishek-jha-24/earnings-copilot-hft/pkg/config"
	"github.com/abhishek-jha-24/earnings-copilot-hft/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Stores
		ProvideDocStore,
		ProvideKpiStore,
		ProvideSignalStore,
		ProvideRuleStore,
		ProvideFingerprintStore,

		// External services
		ProvideConsensus,
		ProvideExtractor,
		ProvideIndexer,
		ProvideClickHouseClient,
		ProvideArchive,
		ProvideKafkaProducer,
		ProvideEventSink,

		// Dispatch
		ProvideDeliveryQueue,
		ProvideHub,
		ProvideRegistry,
		ProvideDispatcher,

		// Pipeline
		ProvideNormalizer,
		ProvideAgent,
		ProvideGate,
		ProvidePipeline,

		// HTTP
		ProvideRouter,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
