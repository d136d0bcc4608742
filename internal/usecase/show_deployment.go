package usecase

import (
	"context"
	"fmt"

	"github.com/trebuchet-org/treb-deployd/internal/domain"
	"github.com/trebuchet-org/treb-deployd/internal/domain/models"
)

// ShowDeploymentParams identifies the deployment to show
type ShowDeploymentParams struct {
	ContractName string
	NetworkName  string
}

// DeploymentDetails combines the ledger record, the in-process state and
// any retired deployments of a key
type DeploymentDetails struct {
	Key     models.DeploymentKey
	Status  models.DeploymentStatus
	Record  *models.DeploymentRecord
	History []*models.RetiredDeployment
}

// ShowDeployment is the use case for showing deployment details
type ShowDeployment struct {
	ledger  DeploymentLedger
	tracker DeploymentTracker
	sink    ProgressSink
}

// NewShowDeployment creates a new ShowDeployment use case
func NewShowDeployment(ledger DeploymentLedger, tracker DeploymentTracker, sink ProgressSink) *ShowDeployment {
	return &ShowDeployment{
		ledger:  ledger,
		tracker: tracker,
		sink:    sink,
	}
}

// Run executes the show deployment use case. It fails with
// domain.ErrNotFound only when the key has neither a record, an in-process
// state nor any history.
func (uc *ShowDeployment) Run(ctx context.Context, params ShowDeploymentParams) (*DeploymentDetails, error) {
	if params.ContractName == "" || params.NetworkName == "" {
		return nil, fmt.Errorf("%w: contract and network are required", domain.ErrInvalidRequest)
	}

	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   "loading",
		Message: "Loading deployment details",
		Spinner: true,
	})
	defer uc.sink.OnProgress(ctx, ProgressEvent{Stage: "complete"})

	key := models.DeploymentKey{ContractName: params.ContractName, NetworkName: params.NetworkName}

	record, err := uc.ledger.Lookup(ctx, key)
	if err != nil {
		return nil, err
	}

	history, err := uc.ledger.History(ctx, key)
	if err != nil {
		return nil, err
	}

	details := &DeploymentDetails{
		Key:     key,
		Status:  models.DeploymentStatusUndeployed,
		Record:  record,
		History: history,
	}

	status, tracked := uc.tracker.Status(key)
	switch {
	case tracked && status == models.DeploymentStatusPending:
		details.Status = status
	case record != nil:
		details.Status = models.DeploymentStatusSucceeded
	case tracked:
		details.Status = status
	}

	if record == nil && !tracked && len(history) == 0 {
		return nil, fmt.Errorf("%w: no deployment of %s", domain.ErrNotFound, key)
	}

	return details, nil
}
