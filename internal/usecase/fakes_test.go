package usecase

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/trebuchet-org/treb-deployd/internal/domain"
	"github.com/trebuchet-org/treb-deployd/internal/domain/config"
	"github.com/trebuchet-org/treb-deployd/internal/domain/models"
)

type fakeResolver struct {
	networks map[string]*config.Network
}

func newFakeResolver(networks ...*config.Network) *fakeResolver {
	r := &fakeResolver{networks: make(map[string]*config.Network)}
	for _, n := range networks {
		r.networks[n.Name] = n
	}
	return r
}

func (r *fakeResolver) GetNetworks(ctx context.Context) []string {
	names := make([]string, 0, len(r.networks))
	for name := range r.networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *fakeResolver) ResolveNetwork(ctx context.Context, name string) (*config.Network, error) {
	n, ok := r.networks[name]
	if !ok {
		return nil, domain.UnknownNetworkErr{Name: name, Available: r.GetNetworks(ctx)}
	}
	clone := *n
	return &clone, nil
}

// memoryLedger is a write-once in-memory ledger
type memoryLedger struct {
	mu       sync.Mutex
	records  map[models.DeploymentKey]*models.DeploymentRecord
	history  map[models.DeploymentKey][]*models.RetiredDeployment
	onRecord func(record *models.DeploymentRecord) error
	writes   int
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{
		records: make(map[models.DeploymentKey]*models.DeploymentRecord),
		history: make(map[models.DeploymentKey][]*models.RetiredDeployment),
	}
}

func (l *memoryLedger) Lookup(ctx context.Context, key models.DeploymentKey) (*models.DeploymentRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.records[key]
	if !ok {
		return nil, nil
	}
	clone := *r
	return &clone, nil
}

func (l *memoryLedger) Record(ctx context.Context, record *models.DeploymentRecord) error {
	if l.onRecord != nil {
		if err := l.onRecord(record); err != nil {
			return err
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.records[record.Key()]; ok {
		clone := *existing
		return &domain.DuplicateDeploymentError{Key: record.Key(), Existing: &clone}
	}
	clone := *record
	l.records[record.Key()] = &clone
	l.writes++
	return nil
}

func (l *memoryLedger) List(ctx context.Context, filter domain.DeploymentFilter) ([]*models.DeploymentRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*models.DeploymentRecord
	for _, r := range l.records {
		if filter.ContractName != "" && r.ContractName != filter.ContractName {
			continue
		}
		if filter.NetworkName != "" && r.NetworkName != filter.NetworkName {
			continue
		}
		clone := *r
		out = append(out, &clone)
	}
	return out, nil
}

func (l *memoryLedger) Retire(ctx context.Context, key models.DeploymentKey, reason string) (*models.RetiredDeployment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.records[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	retired := &models.RetiredDeployment{DeploymentRecord: *r, RetiredAt: time.Now(), Reason: reason}
	delete(l.records, key)
	l.history[key] = append(l.history[key], retired)
	return retired, nil
}

func (l *memoryLedger) History(ctx context.Context, key models.DeploymentKey) ([]*models.RetiredDeployment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*models.RetiredDeployment(nil), l.history[key]...), nil
}

func (l *memoryLedger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

type fakeCompiler struct {
	calls atomic.Int32
	err   error
}

func (c *fakeCompiler) Compile(ctx context.Context, name string) (*models.Artifact, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return &models.Artifact{
		ContractName: name,
		Bytecode:     []byte{0x60, 0x01},
		BytecodeHash: "0xbytecode-" + name,
	}, nil
}

// fakeChain hands out sequential addresses. When gate is set, every
// submission blocks until the gate is closed or ctx ends.
type fakeChain struct {
	mu      sync.Mutex
	calls   int
	started chan struct{}
	gate    chan struct{}
	errs    []error
	// expired is returned instead of ctx.Err() when ctx ends at the gate
	expired error
}

func (c *fakeChain) SubmitDeployment(ctx context.Context, network *config.Network, artifact *models.Artifact, args []any) (*models.SubmissionResult, error) {
	c.mu.Lock()
	c.calls++
	n := c.calls
	var err error
	if len(c.errs) > 0 {
		err, c.errs = c.errs[0], c.errs[1:]
	}
	c.mu.Unlock()

	if c.started != nil {
		select {
		case c.started <- struct{}{}:
		default:
		}
	}
	if c.gate != nil {
		select {
		case <-c.gate:
		case <-ctx.Done():
			if c.expired != nil {
				return nil, c.expired
			}
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	return &models.SubmissionResult{
		Address:         addressFor(n),
		TransactionHash: txFor(n),
		Deployer:        "0x00000000000000000000000000000000000000aa",
		BlockNumber:     uint64(n),
	}, nil
}

func (c *fakeChain) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func addressFor(n int) string {
	return "0x" + repeatHex(n, 40)
}

func txFor(n int) string {
	return "0x" + repeatHex(n, 64)
}

func repeatHex(n, width int) string {
	digit := "0123456789abcdef"[n%16]
	b := make([]byte, width)
	for i := range b {
		b[i] = digit
	}
	return string(b)
}

// recordingSink counts progress events per stage
type recordingSink struct {
	mu     sync.Mutex
	stages map[ExecutionStage]int
}

func newRecordingSink() *recordingSink {
	return &recordingSink{stages: make(map[ExecutionStage]int)}
}

func (s *recordingSink) OnProgress(ctx context.Context, event ProgressEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stages[event.Stage]++
}

func (s *recordingSink) Info(string)  {}
func (s *recordingSink) Error(string) {}

func (s *recordingSink) count(stage ExecutionStage) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stages[stage]
}
