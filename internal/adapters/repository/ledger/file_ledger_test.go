package ledger_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-deployd/internal/adapters/repository/ledger"
	"github.com/trebuchet-org/treb-deployd/internal/domain"
	"github.com/trebuchet-org/treb-deployd/internal/domain/models"
	"github.com/trebuchet-org/treb-deployd/internal/usecase"
)

func testRecord(contract, network, address string) *models.DeploymentRecord {
	return &models.DeploymentRecord{
		ContractName:    contract,
		NetworkName:     network,
		ChainID:         81,
		Address:         address,
		BytecodeHash:    "0x5f5f",
		TransactionHash: "0xabababababababababababababababababababababababababababababababab",
		Deployer:        "0x00000000000000000000000000000000000000aa",
		BlockNumber:     42,
		DeployedAt:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

// runLedgerContract exercises the behavior every ledger backend shares
func runLedgerContract(t *testing.T, newLedger func(t *testing.T) usecase.DeploymentLedger) {
	ctx := context.Background()

	t.Run("lookup of unknown key returns nil", func(t *testing.T) {
		l := newLedger(t)
		record, err := l.Lookup(ctx, models.DeploymentKey{ContractName: "Registry", NetworkName: "shibuya"})
		require.NoError(t, err)
		assert.Nil(t, record)
	})

	t.Run("record and lookup", func(t *testing.T) {
		l := newLedger(t)
		record := testRecord("Registry", "shibuya", "0x1111111111111111111111111111111111111111")
		require.NoError(t, l.Record(ctx, record))

		got, err := l.Lookup(ctx, record.Key())
		require.NoError(t, err)
		assert.Equal(t, record, got)
	})

	t.Run("second record for a key is rejected", func(t *testing.T) {
		l := newLedger(t)
		first := testRecord("Registry", "shibuya", "0x1111111111111111111111111111111111111111")
		require.NoError(t, l.Record(ctx, first))

		err := l.Record(ctx, testRecord("Registry", "shibuya", "0x2222222222222222222222222222222222222222"))
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrDuplicateDeployment)

		var dup *domain.DuplicateDeploymentError
		require.ErrorAs(t, err, &dup)
		require.NotNil(t, dup.Existing)
		assert.Equal(t, first.Address, dup.Existing.Address)

		got, err := l.Lookup(ctx, first.Key())
		require.NoError(t, err)
		assert.Equal(t, first.Address, got.Address)
	})

	t.Run("incomplete record is rejected", func(t *testing.T) {
		l := newLedger(t)
		record := testRecord("Registry", "shibuya", "")
		require.Error(t, l.Record(ctx, record))

		got, err := l.Lookup(ctx, record.Key())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("list with filters", func(t *testing.T) {
		l := newLedger(t)
		require.NoError(t, l.Record(ctx, testRecord("Web3Domains", "shibuya", "0x1111111111111111111111111111111111111111")))
		require.NoError(t, l.Record(ctx, testRecord("AstarWeb3Domains", "shibuya", "0x2222222222222222222222222222222222222222")))
		require.NoError(t, l.Record(ctx, testRecord("AstarWeb3Domains", "astar", "0x3333333333333333333333333333333333333333")))

		all, err := l.List(ctx, domain.DeploymentFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 3)

		onShibuya, err := l.List(ctx, domain.DeploymentFilter{NetworkName: "shibuya"})
		require.NoError(t, err)
		assert.Len(t, onShibuya, 2)

		one, err := l.List(ctx, domain.DeploymentFilter{ContractName: "AstarWeb3Domains", NetworkName: "astar"})
		require.NoError(t, err)
		require.Len(t, one, 1)
		assert.Equal(t, "0x3333333333333333333333333333333333333333", one[0].Address)
	})

	t.Run("retire moves the record to history", func(t *testing.T) {
		l := newLedger(t)
		record := testRecord("Registry", "shibuya", "0x1111111111111111111111111111111111111111")
		require.NoError(t, l.Record(ctx, record))

		retired, err := l.Retire(ctx, record.Key(), "storage layout changed")
		require.NoError(t, err)
		assert.Equal(t, record.Address, retired.Address)
		assert.Equal(t, "storage layout changed", retired.Reason)
		assert.False(t, retired.RetiredAt.IsZero())

		got, err := l.Lookup(ctx, record.Key())
		require.NoError(t, err)
		assert.Nil(t, got)

		// The key accepts a new record after retirement
		require.NoError(t, l.Record(ctx, testRecord("Registry", "shibuya", "0x2222222222222222222222222222222222222222")))

		history, err := l.History(ctx, record.Key())
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, record.Address, history[0].Address)
	})

	t.Run("retire of unknown key", func(t *testing.T) {
		l := newLedger(t)
		_, err := l.Retire(ctx, models.DeploymentKey{ContractName: "Registry", NetworkName: "shibuya"}, "")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestFileLedger(t *testing.T) {
	runLedgerContract(t, func(t *testing.T) usecase.DeploymentLedger {
		l, err := ledger.NewFileLedger(t.TempDir())
		require.NoError(t, err)
		return l
	})
}

func TestFileLedger_Persistence(t *testing.T) {
	ctx := context.Background()

	t.Run("records survive reopening", func(t *testing.T) {
		dir := t.TempDir()
		l, err := ledger.NewFileLedger(dir)
		require.NoError(t, err)

		record := testRecord("Registry", "shibuya", "0x1111111111111111111111111111111111111111")
		require.NoError(t, l.Record(ctx, record))

		reopened, err := ledger.NewFileLedger(dir)
		require.NoError(t, err)
		got, err := reopened.Lookup(ctx, record.Key())
		require.NoError(t, err)
		assert.Equal(t, record, got)
	})

	t.Run("file layout", func(t *testing.T) {
		dir := t.TempDir()
		l, err := ledger.NewFileLedger(dir)
		require.NoError(t, err)
		require.NoError(t, l.Record(ctx, testRecord("Registry", "shibuya", "0x1111111111111111111111111111111111111111")))

		data, err := os.ReadFile(filepath.Join(dir, ledger.LedgerFile))
		require.NoError(t, err)

		var doc struct {
			Version     string                     `json:"version"`
			Deployments map[string]json.RawMessage `json:"deployments"`
		}
		require.NoError(t, json.Unmarshal(data, &doc))
		assert.Equal(t, "1", doc.Version)
		assert.Contains(t, doc.Deployments, "Registry/shibuya")

		_, err = os.Stat(filepath.Join(dir, ledger.LedgerFile+".tmp"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("sees writes from another instance", func(t *testing.T) {
		dir := t.TempDir()
		first, err := ledger.NewFileLedger(dir)
		require.NoError(t, err)
		second, err := ledger.NewFileLedger(dir)
		require.NoError(t, err)

		record := testRecord("Registry", "shibuya", "0x1111111111111111111111111111111111111111")
		require.NoError(t, first.Record(ctx, record))

		got, err := second.Lookup(ctx, record.Key())
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, record.Address, got.Address)

		err = second.Record(ctx, testRecord("Registry", "shibuya", "0x2222222222222222222222222222222222222222"))
		assert.ErrorIs(t, err, domain.ErrDuplicateDeployment)
	})

	t.Run("corrupt file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ledger.LedgerFile), []byte("{not json"), 0644))

		_, err := ledger.NewFileLedger(dir)
		assert.Error(t, err)
	})

	t.Run("unsupported version", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ledger.LedgerFile), []byte(`{"version":"9","deployments":{}}`), 0644))

		_, err := ledger.NewFileLedger(dir)
		assert.ErrorContains(t, err, "unsupported ledger version")
	})
}
