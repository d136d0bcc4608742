package blockchain

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-deployd/internal/domain"
	"github.com/trebuchet-org/treb-deployd/internal/domain/models"
)

func TestChecker_CheckDeployment(t *testing.T) {
	chain := newTestChain(t)
	chain.mine(t)
	ctx := context.Background()

	result, err := newTestDeployer(chain, 30*time.Second).SubmitDeployment(ctx, chain.network, testArtifact(t, "0x6001600c60003960016000f300"), nil)
	require.NoError(t, err)

	checker := NewChecker(slog.New(slog.NewTextHandler(io.Discard, nil)), chain.dial)

	t.Run("live deployment", func(t *testing.T) {
		record := &models.DeploymentRecord{
			ContractName:    "Registry",
			NetworkName:     "testnet",
			Address:         result.Address,
			TransactionHash: result.TransactionHash,
		}

		check, err := checker.CheckDeployment(ctx, chain.network, record)
		require.NoError(t, err)
		assert.True(t, check.Live())
		assert.Equal(t, result.BlockNumber, check.BlockNumber)
		assert.Empty(t, check.Reason)
	})

	t.Run("stale record", func(t *testing.T) {
		record := &models.DeploymentRecord{
			ContractName:    "Registry",
			NetworkName:     "testnet",
			Address:         common.HexToAddress("0x1234").Hex(),
			TransactionHash: common.HexToHash("0xabcd").Hex(),
		}

		check, err := checker.CheckDeployment(ctx, chain.network, record)
		require.NoError(t, err)
		assert.False(t, check.Live())
		assert.False(t, check.CodePresent)
		assert.False(t, check.TransactionFound)
		assert.Equal(t, "no code at address", check.Reason)
	})

	t.Run("wrong chain", func(t *testing.T) {
		network := *chain.network
		network.ChainID = 592

		_, err := checker.CheckDeployment(ctx, &network, &models.DeploymentRecord{ContractName: "Registry", NetworkName: "testnet"})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrSubmission)
		assert.Contains(t, err.Error(), "chain ID mismatch")
	})
}
