package app

import (
	"log/slog"

	"github.com/trebuchet-org/treb-deployd/internal/domain/config"
	"github.com/trebuchet-org/treb-deployd/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig
	Log    *slog.Logger

	// Use cases
	DeployContract  *usecase.DeployContract
	ListDeployments *usecase.ListDeployments
	ShowDeployment  *usecase.ShowDeployment
	ResetDeployment *usecase.ResetDeployment
	CheckDeployment *usecase.CheckDeployment
	ListNetworks    *usecase.ListNetworks
	ShowAccounts    *usecase.ShowAccounts
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	log *slog.Logger,
	deployContract *usecase.DeployContract,
	listDeployments *usecase.ListDeployments,
	showDeployment *usecase.ShowDeployment,
	resetDeployment *usecase.ResetDeployment,
	checkDeployment *usecase.CheckDeployment,
	listNetworks *usecase.ListNetworks,
	showAccounts *usecase.ShowAccounts,
) *App {
	return &App{
		Config:          cfg,
		Log:             log,
		DeployContract:  deployContract,
		ListDeployments: listDeployments,
		ShowDeployment:  showDeployment,
		ResetDeployment: resetDeployment,
		CheckDeployment: checkDeployment,
		ListNetworks:    listNetworks,
		ShowAccounts:    showAccounts,
	}
}
