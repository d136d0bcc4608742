package ledger_test

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-deployd/internal/adapters/repository/ledger"
	"github.com/trebuchet-org/treb-deployd/internal/domain"
	"github.com/trebuchet-org/treb-deployd/internal/usecase"
)

// newPostgresLedger connects to DEPLOYD_TEST_DATABASE_URL and empties the
// ledger tables. Tests are skipped when the variable is unset.
func newPostgresLedger(t *testing.T) *ledger.PostgresLedger {
	t.Helper()

	url := os.Getenv("DEPLOYD_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("DEPLOYD_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	l, err := ledger.NewPostgresLedger(ctx, url)
	require.NoError(t, err)
	t.Cleanup(l.Close)

	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	defer pool.Close()
	_, err = pool.Exec(ctx, "TRUNCATE deployments, deployment_history")
	require.NoError(t, err)

	return l
}

func TestPostgresLedger(t *testing.T) {
	runLedgerContract(t, func(t *testing.T) usecase.DeploymentLedger {
		return newPostgresLedger(t)
	})
}

func TestPostgresLedger_ConcurrentWritersOneWins(t *testing.T) {
	l := newPostgresLedger(t)
	ctx := context.Background()

	addresses := []string{
		"0x1111111111111111111111111111111111111111",
		"0x2222222222222222222222222222222222222222",
		"0x3333333333333333333333333333333333333333",
		"0x4444444444444444444444444444444444444444",
	}

	errs := make([]error, len(addresses))
	var wg sync.WaitGroup
	for i, addr := range addresses {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = l.Record(ctx, testRecord("Registry", "shibuya", addr))
		}()
	}
	wg.Wait()

	var wins int
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrDuplicateDeployment)
	}
	assert.Equal(t, 1, wins)
}
