package usecase

import (
	"context"
	"sort"

	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-deployd/internal/domain"
	"github.com/trebuchet-org/treb-deployd/internal/domain/models"
)

// ListDeploymentsParams contains parameters for listing deployments
type ListDeploymentsParams struct {
	ContractName string
	NetworkName  string
}

// DeploymentListResult contains the recorded deployments and a summary
type DeploymentListResult struct {
	Deployments []*models.DeploymentRecord
	Summary     DeploymentSummary
}

// DeploymentSummary counts deployments per network and per contract
type DeploymentSummary struct {
	Total      int
	ByNetwork  map[string]int
	ByContract map[string]int
}

// ListDeployments is the use case for listing recorded deployments
type ListDeployments struct {
	ledger DeploymentLedger
	sink   ProgressSink
}

// NewListDeployments creates a new ListDeployments use case
func NewListDeployments(ledger DeploymentLedger, sink ProgressSink) *ListDeployments {
	return &ListDeployments{
		ledger: ledger,
		sink:   sink,
	}
}

// Run executes the list deployments use case
func (uc *ListDeployments) Run(ctx context.Context, params ListDeploymentsParams) (*DeploymentListResult, error) {
	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   "loading",
		Message: "Loading deployments from ledger",
		Spinner: true,
	})

	deployments, err := uc.ledger.List(ctx, domain.DeploymentFilter{
		ContractName: params.ContractName,
		NetworkName:  params.NetworkName,
	})
	if err != nil {
		return nil, err
	}

	sortDeployments(deployments)

	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   "complete",
		Message: "Deployments loaded",
	})

	return &DeploymentListResult{
		Deployments: deployments,
		Summary:     calculateSummary(deployments),
	}, nil
}

// sortDeployments sorts deployments by network, then contract name
func sortDeployments(deployments []*models.DeploymentRecord) {
	sort.Slice(deployments, func(i, j int) bool {
		if deployments[i].NetworkName != deployments[j].NetworkName {
			return deployments[i].NetworkName < deployments[j].NetworkName
		}
		return deployments[i].ContractName < deployments[j].ContractName
	})
}

func calculateSummary(deployments []*models.DeploymentRecord) DeploymentSummary {
	return DeploymentSummary{
		Total: len(deployments),
		ByNetwork: lo.CountValuesBy(deployments, func(d *models.DeploymentRecord) string {
			return d.NetworkName
		}),
		ByContract: lo.CountValuesBy(deployments, func(d *models.DeploymentRecord) string {
			return d.ContractName
		}),
	}
}
