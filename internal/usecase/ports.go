package usecase

import (
	"context"

	"github.com/trebuchet-org/treb-deployd/internal/domain"
	"github.com/trebuchet-org/treb-deployd/internal/domain/config"
	"github.com/trebuchet-org/treb-deployd/internal/domain/models"
)

// DeploymentLedger persists the last successful deployment per key.
// Record is write-once per key: a second write fails with a
// *domain.DuplicateDeploymentError carrying the existing record.
type DeploymentLedger interface {
	// Lookup returns nil, nil when the key has no record
	Lookup(ctx context.Context, key models.DeploymentKey) (*models.DeploymentRecord, error)
	Record(ctx context.Context, record *models.DeploymentRecord) error
	List(ctx context.Context, filter domain.DeploymentFilter) ([]*models.DeploymentRecord, error)
	// Retire moves the current record to history so the key can be deployed
	// again. Administrative use only.
	Retire(ctx context.Context, key models.DeploymentKey, reason string) (*models.RetiredDeployment, error)
	History(ctx context.Context, key models.DeploymentKey) ([]*models.RetiredDeployment, error)
}

// ContractCompiler turns a contract name into a deployable artifact
type ContractCompiler interface {
	Compile(ctx context.Context, contractName string) (*models.Artifact, error)
}

// ChainClient submits a deployment transaction and waits for its receipt.
// It either returns an address and hash or an error, never both.
type ChainClient interface {
	SubmitDeployment(ctx context.Context, network *config.Network, artifact *models.Artifact, args []any) (*models.SubmissionResult, error)
}

// AccountInspector reports the signing account configured for a network
type AccountInspector interface {
	Account(ctx context.Context, network *config.Network) (*models.AccountInfo, error)
}

// DeploymentChecker inspects a recorded deployment on chain
type DeploymentChecker interface {
	CheckDeployment(ctx context.Context, network *config.Network, record *models.DeploymentRecord) (*models.DeploymentCheck, error)
}

// NetworkResolver handles network configuration resolution
type NetworkResolver interface {
	GetNetworks(ctx context.Context) []string
	ResolveNetwork(ctx context.Context, networkName string) (*config.Network, error)
}

// DeploymentTracker reports in-process deployment state for a key
type DeploymentTracker interface {
	Status(key models.DeploymentKey) (models.DeploymentStatus, bool)
}

// Progress tracking interfaces

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage    ExecutionStage
	Message  string
	Spinner  bool
	Metadata interface{}
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}

// ExecutionStage represents a stage in the deployment process
type ExecutionStage string

const (
	StageResolving  ExecutionStage = "Resolving"
	StageWaiting    ExecutionStage = "Waiting"
	StageCompiling  ExecutionStage = "Compiling"
	StageSubmitting ExecutionStage = "Submitting"
	StageRecording  ExecutionStage = "Recording"
	StageCompleted  ExecutionStage = "Completed"
)
