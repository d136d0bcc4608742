package usecase

import (
	"context"
	"fmt"

	"github.com/trebuchet-org/treb-deployd/internal/domain"
	"github.com/trebuchet-org/treb-deployd/internal/domain/models"
)

// CheckDeploymentParams identifies the recorded deployment to check
type CheckDeploymentParams struct {
	ContractName string
	NetworkName  string
}

// CheckDeployment confirms that a ledger record still matches the chain,
// e.g. after a local node was restarted
type CheckDeployment struct {
	ledger   DeploymentLedger
	networks NetworkResolver
	checker  DeploymentChecker
	sink     ProgressSink
}

// NewCheckDeployment creates a new CheckDeployment use case
func NewCheckDeployment(ledger DeploymentLedger, networks NetworkResolver, checker DeploymentChecker, sink ProgressSink) *CheckDeployment {
	return &CheckDeployment{
		ledger:   ledger,
		networks: networks,
		checker:  checker,
		sink:     sink,
	}
}

// Run executes the use case
func (uc *CheckDeployment) Run(ctx context.Context, params CheckDeploymentParams) (*models.DeploymentCheck, error) {
	key := models.DeploymentKey{ContractName: params.ContractName, NetworkName: params.NetworkName}

	network, err := uc.networks.ResolveNetwork(ctx, params.NetworkName)
	if err != nil {
		return nil, err
	}

	record, err := uc.ledger.Lookup(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s: %w", key, err)
	}
	if record == nil {
		return nil, fmt.Errorf("%w: no recorded deployment of %s", domain.ErrNotFound, key)
	}

	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   "checking",
		Message: fmt.Sprintf("Checking %s at %s on %s", key.ContractName, record.Address, network.Name),
		Spinner: true,
	})
	defer uc.sink.OnProgress(ctx, ProgressEvent{Stage: "complete"})

	return uc.checker.CheckDeployment(ctx, network, record)
}
