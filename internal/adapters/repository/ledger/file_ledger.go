package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/trebuchet-org/treb-deployd/internal/domain"
	"github.com/trebuchet-org/treb-deployd/internal/domain/models"
	"github.com/trebuchet-org/treb-deployd/internal/usecase"
)

const (
	// LedgerFile is the file ledger inside the data directory
	LedgerFile = "deployments.json"

	ledgerVersion = "1"
)

// ledgerDocument is the on-disk layout of LedgerFile
type ledgerDocument struct {
	Version     string                                 `json:"version"`
	Deployments map[string]*models.DeploymentRecord    `json:"deployments"`
	History     map[string][]*models.RetiredDeployment `json:"history,omitempty"`
}

// FileLedger stores deployment records in a JSON file. Writes go through
// a temp file and an atomic rename. The file is re-read whenever it changed
// on disk, so sequential runs of separate processes see each other's
// records; concurrent writers across processes need the postgres ledger.
type FileLedger struct {
	path string
	now  func() time.Time

	mu          sync.Mutex
	deployments map[string]*models.DeploymentRecord
	history     map[string][]*models.RetiredDeployment
	modTime     time.Time
	size        int64
}

// NewFileLedger opens (or creates) the ledger in dataDir
func NewFileLedger(dataDir string) (*FileLedger, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	l := &FileLedger{
		path:        filepath.Join(dataDir, LedgerFile),
		now:         time.Now,
		deployments: make(map[string]*models.DeploymentRecord),
		history:     make(map[string][]*models.RetiredDeployment),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.refresh(); err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	return l, nil
}

// Path returns the ledger file location
func (l *FileLedger) Path() string {
	return l.path
}

// refresh reloads the file if it changed since the last load or save.
// Must be called with mu held.
func (l *FileLedger) refresh() error {
	info, err := os.Stat(l.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.ModTime().Equal(l.modTime) && info.Size() == l.size {
		return nil
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return err
	}

	var doc ledgerDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse %s: %w", l.path, err)
	}
	if doc.Version != "" && doc.Version != ledgerVersion {
		return fmt.Errorf("unsupported ledger version %q in %s", doc.Version, l.path)
	}

	l.deployments = doc.Deployments
	if l.deployments == nil {
		l.deployments = make(map[string]*models.DeploymentRecord)
	}
	l.history = doc.History
	if l.history == nil {
		l.history = make(map[string][]*models.RetiredDeployment)
	}
	l.modTime, l.size = info.ModTime(), info.Size()

	return nil
}

// save writes the ledger file. Must be called with mu held.
func (l *FileLedger) save() error {
	data, err := json.MarshalIndent(ledgerDocument{
		Version:     ledgerVersion,
		Deployments: l.deployments,
		History:     l.history,
	}, "", "  ")
	if err != nil {
		return err
	}

	// Write to temp file first
	tmpPath := l.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}

	// Atomic rename
	if err := os.Rename(tmpPath, l.path); err != nil {
		return err
	}

	if info, err := os.Stat(l.path); err == nil {
		l.modTime, l.size = info.ModTime(), info.Size()
	}
	return nil
}

// Lookup returns the record for key, or nil if there is none
func (l *FileLedger) Lookup(ctx context.Context, key models.DeploymentKey) (*models.DeploymentRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.refresh(); err != nil {
		return nil, err
	}

	record, ok := l.deployments[key.String()]
	if !ok {
		return nil, nil
	}
	clone := *record
	return &clone, nil
}

// Record stores the first successful deployment of a key
func (l *FileLedger) Record(ctx context.Context, record *models.DeploymentRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid deployment record: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.refresh(); err != nil {
		return err
	}

	id := record.Key().String()
	if existing, ok := l.deployments[id]; ok {
		clone := *existing
		return &domain.DuplicateDeploymentError{Key: record.Key(), Existing: &clone}
	}

	clone := *record
	l.deployments[id] = &clone

	if err := l.save(); err != nil {
		delete(l.deployments, id)
		return fmt.Errorf("failed to save ledger: %w", err)
	}

	return nil
}

// List returns the records matching filter, sorted by key
func (l *FileLedger) List(ctx context.Context, filter domain.DeploymentFilter) ([]*models.DeploymentRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.refresh(); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(l.deployments))
	for id := range l.deployments {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	records := make([]*models.DeploymentRecord, 0, len(ids))
	for _, id := range ids {
		r := l.deployments[id]
		if filter.ContractName != "" && r.ContractName != filter.ContractName {
			continue
		}
		if filter.NetworkName != "" && r.NetworkName != filter.NetworkName {
			continue
		}
		clone := *r
		records = append(records, &clone)
	}

	return records, nil
}

// Retire moves the current record of key into history
func (l *FileLedger) Retire(ctx context.Context, key models.DeploymentKey, reason string) (*models.RetiredDeployment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.refresh(); err != nil {
		return nil, err
	}

	id := key.String()
	record, ok := l.deployments[id]
	if !ok {
		return nil, fmt.Errorf("%w: no recorded deployment of %s", domain.ErrNotFound, key)
	}

	retired := &models.RetiredDeployment{
		DeploymentRecord: *record,
		RetiredAt:        l.now().UTC(),
		Reason:           reason,
	}

	delete(l.deployments, id)
	l.history[id] = append(l.history[id], retired)

	if err := l.save(); err != nil {
		l.deployments[id] = record
		l.history[id] = l.history[id][:len(l.history[id])-1]
		return nil, fmt.Errorf("failed to save ledger: %w", err)
	}

	clone := *retired
	return &clone, nil
}

// History returns the retired deployments of key, oldest first
func (l *FileLedger) History(ctx context.Context, key models.DeploymentKey) ([]*models.RetiredDeployment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.refresh(); err != nil {
		return nil, err
	}

	entries := l.history[key.String()]
	history := make([]*models.RetiredDeployment, 0, len(entries))
	for _, e := range entries {
		clone := *e
		history = append(history, &clone)
	}
	return history, nil
}

var _ usecase.DeploymentLedger = (*FileLedger)(nil)
