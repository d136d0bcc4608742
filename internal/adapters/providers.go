package adapters

import (
	"github.com/google/wire"
	"github.com/trebuchet-org/treb-deployd/internal/adapters/blockchain"
	internalconfig "github.com/trebuchet-org/treb-deployd/internal/adapters/config"
	"github.com/trebuchet-org/treb-deployd/internal/adapters/forge"
	"github.com/trebuchet-org/treb-deployd/internal/adapters/repository/ledger"
	"github.com/trebuchet-org/treb-deployd/internal/config"
	"github.com/trebuchet-org/treb-deployd/internal/usecase"
)

// LedgerSet provides the deployment ledger selected by ledger.driver
var LedgerSet = wire.NewSet(
	ledger.ProvideLedger,
)

// ForgeSet provides the contract compiler
var ForgeSet = wire.NewSet(
	forge.NewCompiler,
	wire.Bind(new(usecase.ContractCompiler), new(*forge.Compiler)),
)

// BlockchainSet provides the chain client
var BlockchainSet = wire.NewSet(
	blockchain.NewDeployer,
	wire.Bind(new(usecase.ChainClient), new(*blockchain.Deployer)),
	wire.Bind(new(usecase.AccountInspector), new(*blockchain.Deployer)),

	blockchain.NewChecker,
	wire.Bind(new(usecase.DeploymentChecker), new(*blockchain.Checker)),
)

// ConfigSet provides configuration-based implementations
var ConfigSet = wire.NewSet(
	config.ProvideNetworkRegistry,
	internalconfig.NewNetworkResolverAdapter,
	wire.Bind(new(usecase.NetworkResolver), new(*internalconfig.NetworkResolverAdapter)),
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	LedgerSet,
	ForgeSet,
	BlockchainSet,
	ConfigSet,
)
