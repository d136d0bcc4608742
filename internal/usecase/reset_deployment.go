package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/trebuchet-org/treb-deployd/internal/domain"
	"github.com/trebuchet-org/treb-deployd/internal/domain/models"
)

// ResetDeploymentParams contains parameters for retiring a recorded deployment
type ResetDeploymentParams struct {
	ContractName string
	NetworkName  string
	Reason       string
	DryRun       bool // If true, only report what would be retired
}

// ResetDeploymentResult contains the result of a reset
type ResetDeploymentResult struct {
	// Record is the deployment that was (or would be) retired
	Record  *models.DeploymentRecord
	Retired *models.RetiredDeployment
	DryRun  bool
}

// ResetDeployment moves a recorded deployment to the ledger history so the
// key can be deployed again. This is the only way a key leaves the
// deployed state.
type ResetDeployment struct {
	ledger  DeploymentLedger
	tracker DeploymentTracker
	log     *slog.Logger
}

// NewResetDeployment creates a new ResetDeployment use case
func NewResetDeployment(ledger DeploymentLedger, tracker DeploymentTracker, log *slog.Logger) *ResetDeployment {
	return &ResetDeployment{
		ledger:  ledger,
		tracker: tracker,
		log:     log.With("component", "ResetDeployment"),
	}
}

// Run executes the reset deployment use case
func (uc *ResetDeployment) Run(ctx context.Context, params ResetDeploymentParams) (*ResetDeploymentResult, error) {
	if params.ContractName == "" || params.NetworkName == "" {
		return nil, fmt.Errorf("%w: contract and network are required", domain.ErrInvalidRequest)
	}
	key := models.DeploymentKey{ContractName: params.ContractName, NetworkName: params.NetworkName}

	if status, ok := uc.tracker.Status(key); ok && status == models.DeploymentStatusPending {
		return nil, fmt.Errorf("%w: cannot reset %s while a deployment is in flight", domain.ErrDeploymentInProgress, key)
	}

	record, err := uc.ledger.Lookup(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s: %w", key, err)
	}
	if record == nil {
		return nil, fmt.Errorf("%w: no recorded deployment of %s", domain.ErrNotFound, key)
	}

	if params.DryRun {
		return &ResetDeploymentResult{Record: record, DryRun: true}, nil
	}

	retired, err := uc.ledger.Retire(ctx, key, params.Reason)
	if err != nil {
		return nil, fmt.Errorf("failed to reset %s: %w", key, err)
	}

	uc.log.Warn("deployment retired", "key", key.String(), "address", retired.Address, "reason", params.Reason)

	return &ResetDeploymentResult{
		Record:  record,
		Retired: retired,
	}, nil
}
