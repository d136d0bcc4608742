package usecase

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-deployd/internal/domain"
	"github.com/trebuchet-org/treb-deployd/internal/domain/models"
)

func TestResetDeployment(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	req := models.DeploymentRequest{ContractName: "Registry", NetworkName: "testnet"}

	t.Run("retired key can be deployed again", func(t *testing.T) {
		ledger := newMemoryLedger()
		chain := &fakeChain{}
		deploy := newTestDeployContract(ledger, &fakeCompiler{}, chain, NopProgress{})

		first, err := deploy.Run(ctx, req)
		require.NoError(t, err)

		reset := NewResetDeployment(ledger, deploy, log)
		result, err := reset.Run(ctx, ResetDeploymentParams{
			ContractName: "Registry",
			NetworkName:  "testnet",
			Reason:       "redeploy after storage layout change",
		})
		require.NoError(t, err)
		assert.Equal(t, first.Address, result.Retired.Address)
		assert.Equal(t, 0, ledger.count())

		second, err := deploy.Run(ctx, req)
		require.NoError(t, err)
		assert.NotEqual(t, first.Address, second.Address)

		history, err := ledger.History(ctx, req.Key())
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, "redeploy after storage layout change", history[0].Reason)
	})

	t.Run("dry run keeps the record", func(t *testing.T) {
		ledger := newMemoryLedger()
		deploy := newTestDeployContract(ledger, &fakeCompiler{}, &fakeChain{}, NopProgress{})
		_, err := deploy.Run(ctx, req)
		require.NoError(t, err)

		result, err := NewResetDeployment(ledger, deploy, log).Run(ctx, ResetDeploymentParams{
			ContractName: "Registry",
			NetworkName:  "testnet",
			DryRun:       true,
		})
		require.NoError(t, err)
		assert.True(t, result.DryRun)
		assert.Nil(t, result.Retired)
		assert.Equal(t, 1, ledger.count())
	})

	t.Run("missing record", func(t *testing.T) {
		ledger := newMemoryLedger()
		deploy := newTestDeployContract(ledger, &fakeCompiler{}, &fakeChain{}, NopProgress{})

		_, err := NewResetDeployment(ledger, deploy, log).Run(ctx, ResetDeploymentParams{ContractName: "Registry", NetworkName: "testnet"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("in-flight key is rejected", func(t *testing.T) {
		ledger := newMemoryLedger()
		chain := &fakeChain{started: make(chan struct{}, 1), gate: make(chan struct{})}
		deploy := newTestDeployContract(ledger, &fakeCompiler{}, chain, NopProgress{})

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = deploy.Run(ctx, req)
		}()
		waitStarted(t, chain)

		_, err := NewResetDeployment(ledger, deploy, log).Run(ctx, ResetDeploymentParams{ContractName: "Registry", NetworkName: "testnet"})
		assert.ErrorIs(t, err, domain.ErrDeploymentInProgress)

		close(chain.gate)
		<-done
	})
}
