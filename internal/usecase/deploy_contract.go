package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/trebuchet-org/treb-deployd/internal/domain"
	"github.com/trebuchet-org/treb-deployd/internal/domain/config"
	"github.com/trebuchet-org/treb-deployd/internal/domain/models"
	"github.com/trebuchet-org/treb-deployd/internal/metrics"
)

// DeployContract is the deployment orchestrator. It turns a deployment
// request into at most one on-chain deployment per (contract, network):
// concurrent callers for the same key share a single attempt, and a key
// that already has a ledger record is never deployed again.
type DeployContract struct {
	networks NetworkResolver
	ledger   DeploymentLedger
	compiler ContractCompiler
	chain    ChainClient
	sink     ProgressSink
	log      *slog.Logger
	timeout  time.Duration
	now      func() time.Time

	mu       sync.Mutex
	inflight map[models.DeploymentKey]*pendingDeployment
	outcomes map[models.DeploymentKey]models.DeploymentStatus
}

// pendingDeployment is the shared handle of an in-flight attempt. It is
// created by the first caller for a key and removed from the in-flight map
// when the attempt finishes; done is closed after record and err are set.
type pendingDeployment struct {
	done    chan struct{}
	record  *models.DeploymentRecord
	outcome string
	err     error
}

func (p *pendingDeployment) result() (*DeploymentOutcome, error) {
	if p.err != nil {
		return nil, p.err
	}
	clone := *p.record
	return &DeploymentOutcome{
		Record:          &clone,
		AlreadyDeployed: p.outcome == metrics.OutcomeCached || p.outcome == metrics.OutcomeDuplicate,
	}, nil
}

// DeploymentOutcome is the result of a deploy request. AlreadyDeployed is
// set when the record came from the ledger instead of a new transaction.
type DeploymentOutcome struct {
	Record          *models.DeploymentRecord
	AlreadyDeployed bool
}

// NewDeployContract creates a new DeployContract use case
func NewDeployContract(
	cfg *config.RuntimeConfig,
	networks NetworkResolver,
	ledger DeploymentLedger,
	compiler ContractCompiler,
	chain ChainClient,
	sink ProgressSink,
	log *slog.Logger,
) *DeployContract {
	return &DeployContract{
		networks: networks,
		ledger:   ledger,
		compiler: compiler,
		chain:    chain,
		sink:     sink,
		log:      log.With("component", "DeployContract"),
		timeout:  cfg.Timeout,
		now:      time.Now,
		inflight: make(map[models.DeploymentKey]*pendingDeployment),
		outcomes: make(map[models.DeploymentKey]models.DeploymentStatus),
	}
}

// Run deploys the requested contract unless the ledger already holds a
// record for it, in which case the recorded deployment is returned.
//
// If an attempt for the same key is in flight, Run waits for it and returns
// its result. The attempt itself is not bound to the caller's cancellation:
// a caller that gives up returns ctx.Err() while the attempt completes for
// everyone else, bounded by the configured timeout.
func (uc *DeployContract) Run(ctx context.Context, req models.DeploymentRequest) (*models.DeploymentRecord, error) {
	outcome, err := uc.Deploy(ctx, req)
	if err != nil {
		return nil, err
	}
	return outcome.Record, nil
}

// Deploy is Run with the outcome, telling a new deployment apart from one
// that was already recorded.
func (uc *DeployContract) Deploy(ctx context.Context, req models.DeploymentRequest) (*DeploymentOutcome, error) {
	if err := validateRequest(req); err != nil {
		metrics.DeploymentErrors.WithLabelValues(domain.KindInvalidRequest).Inc()
		return nil, err
	}

	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   StageResolving,
		Message: fmt.Sprintf("Resolving network %s", req.NetworkName),
		Spinner: true,
	})

	network, err := uc.networks.ResolveNetwork(ctx, req.NetworkName)
	if err != nil {
		metrics.DeploymentErrors.WithLabelValues(domain.ErrorKind(err)).Inc()
		uc.sink.OnProgress(ctx, ProgressEvent{Stage: StageCompleted})
		return nil, err
	}

	req.NetworkName = network.Name
	key := req.Key()
	pending, started := uc.acquire(key)
	if started {
		go uc.attempt(ctx, pending, network, req)
	} else {
		metrics.WaitingCallers.Inc()
		uc.log.Info("deployment already in flight, waiting for it", "key", key.String())
		uc.sink.OnProgress(ctx, ProgressEvent{
			Stage:   StageWaiting,
			Message: fmt.Sprintf("Waiting for in-flight deployment of %s", key),
			Spinner: true,
		})
	}

	select {
	case <-pending.done:
		if !started {
			uc.sink.OnProgress(ctx, ProgressEvent{Stage: StageCompleted})
		}
		return pending.result()
	case <-ctx.Done():
		// Both may be ready; a finished attempt wins over the caller's deadline
		select {
		case <-pending.done:
			return pending.result()
		default:
		}
		return nil, ctx.Err()
	}
}

// Status reports the in-process state of a key. The second return value is
// false when no attempt was made for the key by this process.
func (uc *DeployContract) Status(key models.DeploymentKey) (models.DeploymentStatus, bool) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if _, ok := uc.inflight[key]; ok {
		return models.DeploymentStatusPending, true
	}
	status, ok := uc.outcomes[key]
	if !ok {
		return models.DeploymentStatusUndeployed, false
	}
	return status, true
}

// acquire returns the pending handle for key, creating it if no attempt is
// in flight. started is true when the caller owns the new attempt.
func (uc *DeployContract) acquire(key models.DeploymentKey) (*pendingDeployment, bool) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if p, ok := uc.inflight[key]; ok {
		return p, false
	}
	p := &pendingDeployment{done: make(chan struct{})}
	uc.inflight[key] = p
	return p, true
}

// release publishes the attempt result and removes the handle
func (uc *DeployContract) release(key models.DeploymentKey, p *pendingDeployment, record *models.DeploymentRecord, outcome string, err error) {
	uc.mu.Lock()
	delete(uc.inflight, key)
	if err != nil {
		uc.outcomes[key] = models.DeploymentStatusFailed
	} else {
		uc.outcomes[key] = models.DeploymentStatusSucceeded
	}
	p.record, p.outcome, p.err = record, outcome, err
	uc.mu.Unlock()

	close(p.done)
}

func (uc *DeployContract) attempt(parent context.Context, p *pendingDeployment, network *config.Network, req models.DeploymentRequest) {
	ctx := context.WithoutCancel(parent)
	cancel := context.CancelFunc(func() {})
	if uc.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, uc.timeout)
	}
	defer cancel()

	var (
		record  *models.DeploymentRecord
		outcome string
		err     error
	)

	metrics.InFlightDeployments.Inc()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			uc.log.Error("deployment attempt panicked", "key", req.Key().String(), "panic", r)
			record, err = nil, fmt.Errorf("deployment of %s panicked: %v", req.Key(), r)
		}

		metrics.InFlightDeployments.Dec()
		metrics.DeploymentDuration.WithLabelValues(network.Name).Observe(time.Since(start).Seconds())
		if err != nil {
			outcome = metrics.OutcomeFailed
			metrics.DeploymentErrors.WithLabelValues(domain.ErrorKind(err)).Inc()
		}
		metrics.DeploymentsTotal.WithLabelValues(network.Name, outcome).Inc()

		uc.release(req.Key(), p, record, outcome, err)
	}()

	record, outcome, err = uc.deploy(ctx, network, req)
}

// deploy runs the ledger check, compilation, submission and record steps.
// Nothing is written to the ledger unless submission succeeded.
func (uc *DeployContract) deploy(ctx context.Context, network *config.Network, req models.DeploymentRequest) (*models.DeploymentRecord, string, error) {
	key := req.Key()
	log := uc.log.With("contract", key.ContractName, "network", key.NetworkName)

	existing, err := uc.ledger.Lookup(ctx, key)
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up %s in ledger: %w", key, err)
	}
	if existing != nil {
		log.Info("contract already deployed, returning recorded deployment", "address", existing.Address)
		uc.sink.OnProgress(ctx, ProgressEvent{Stage: StageCompleted})
		return existing, metrics.OutcomeCached, nil
	}

	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   StageCompiling,
		Message: fmt.Sprintf("Compiling %s", key.ContractName),
		Spinner: true,
	})

	artifact, err := uc.compiler.Compile(ctx, key.ContractName)
	if err != nil {
		log.Error("compilation failed", "error", err)
		uc.sink.OnProgress(ctx, ProgressEvent{Stage: StageCompleted})
		return nil, "", err
	}

	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   StageSubmitting,
		Message: fmt.Sprintf("Deploying %s to %s (chain %d)", key.ContractName, network.Name, network.ChainID),
		Spinner: true,
	})
	log.Info("submitting deployment", "chainId", network.ChainID, "bytecodeHash", artifact.BytecodeHash)

	result, err := uc.chain.SubmitDeployment(ctx, network, artifact, req.ConstructorArgs)
	if err != nil {
		log.Error("deployment failed", "error", err, "retryable", domain.Retryable(err))
		uc.sink.OnProgress(ctx, ProgressEvent{Stage: StageCompleted})
		return nil, "", err
	}

	record := &models.DeploymentRecord{
		ContractName:    key.ContractName,
		NetworkName:     key.NetworkName,
		ChainID:         network.ChainID,
		Address:         result.Address,
		BytecodeHash:    artifact.BytecodeHash,
		TransactionHash: result.TransactionHash,
		Deployer:        result.Deployer,
		BlockNumber:     result.BlockNumber,
		DeployedAt:      uc.now().UTC(),
	}

	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   StageRecording,
		Message: fmt.Sprintf("Recording %s at %s", key, record.Address),
		Spinner: true,
	})

	if err := uc.ledger.Record(ctx, record); err != nil {
		var dup *domain.DuplicateDeploymentError
		if !errors.As(err, &dup) {
			// The contract is live but unrecorded; the log line is the only trace of it
			log.Error("deployment confirmed on-chain but could not be recorded",
				"address", record.Address, "transactionHash", record.TransactionHash, "error", err)
			uc.sink.OnProgress(ctx, ProgressEvent{Stage: StageCompleted})
			return nil, "", fmt.Errorf("failed to record deployment of %s at %s: %w", key, record.Address, err)
		}

		winner, err := uc.recordedWinner(ctx, dup)
		if err != nil {
			uc.sink.OnProgress(ctx, ProgressEvent{Stage: StageCompleted})
			return nil, "", err
		}
		log.Warn("discarding parallel duplicate deployment, ledger already holds a record",
			"discardedAddress", record.Address,
			"discardedTransactionHash", record.TransactionHash,
			"recordedAddress", winner.Address)
		uc.sink.OnProgress(ctx, ProgressEvent{Stage: StageCompleted})
		return winner, metrics.OutcomeDuplicate, nil
	}

	log.Info("contract deployed", "address", record.Address, "transactionHash", record.TransactionHash)
	uc.sink.OnProgress(ctx, ProgressEvent{Stage: StageCompleted})
	return record, metrics.OutcomeDeployed, nil
}

// recordedWinner returns the first writer's record after a duplicate write
func (uc *DeployContract) recordedWinner(ctx context.Context, dup *domain.DuplicateDeploymentError) (*models.DeploymentRecord, error) {
	if dup.Existing != nil {
		return dup.Existing, nil
	}
	winner, err := uc.ledger.Lookup(ctx, dup.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to read recorded deployment of %s: %w", dup.Key, err)
	}
	if winner == nil {
		return nil, fmt.Errorf("ledger reported %s as recorded but holds no record", dup.Key)
	}
	return winner, nil
}

func validateRequest(req models.DeploymentRequest) error {
	if strings.TrimSpace(req.ContractName) == "" {
		return fmt.Errorf("%w: contract name is required", domain.ErrInvalidRequest)
	}
	if strings.TrimSpace(req.NetworkName) == "" {
		return fmt.Errorf("%w: network name is required", domain.ErrInvalidRequest)
	}
	if strings.Contains(req.ContractName, "/") || strings.Contains(req.NetworkName, "/") {
		return fmt.Errorf("%w: contract and network names must not contain '/'", domain.ErrInvalidRequest)
	}
	return nil
}
