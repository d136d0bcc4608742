//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/treb-deployd/internal/adapters"
	"github.com/trebuchet-org/treb-deployd/internal/adapters/blockchain"
	"github.com/trebuchet-org/treb-deployd/internal/config"
	"github.com/trebuchet-org/treb-deployd/internal/logging"
	"github.com/trebuchet-org/treb-deployd/internal/usecase"
)

// InitApp creates a fully wired App instance. dial opens the chain
// connections. The returned cleanup releases the ledger connection.
func InitApp(v *viper.Viper, sink usecase.ProgressSink, dial blockchain.Dialer) (*App, func(), error) {
	wire.Build(
		// Configuration
		config.Provider,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Use cases
		usecase.NewDeployContract,
		wire.Bind(new(usecase.DeploymentTracker), new(*usecase.DeployContract)),
		usecase.NewListDeployments,
		usecase.NewShowDeployment,
		usecase.NewResetDeployment,
		usecase.NewCheckDeployment,
		usecase.NewListNetworks,
		usecase.NewShowAccounts,

		// App
		NewApp,
	)
	return nil, nil, nil
}
