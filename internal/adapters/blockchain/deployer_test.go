package blockchain

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-deployd/internal/domain"
	"github.com/trebuchet-org/treb-deployd/internal/domain/config"
	"github.com/trebuchet-org/treb-deployd/internal/domain/models"
)

// simulatedChainID is the chain ID of the go-ethereum simulated backend
const simulatedChainID = 1337

type testChain struct {
	backend *simulated.Backend
	key     *ecdsa.PrivateKey
	network *config.Network
}

func newTestChain(t *testing.T) *testChain {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	funds, _ := new(big.Int).SetString("100000000000000000000", 10)
	backend := simulated.NewBackend(types.GenesisAlloc{
		crypto.PubkeyToAddress(key.PublicKey): {Balance: funds},
	})
	t.Cleanup(func() { _ = backend.Close() })

	return &testChain{
		backend: backend,
		key:     key,
		network: &config.Network{
			Name:    "testnet",
			ChainID: simulatedChainID,
			RPCURL:  "simulated://",
			Account: "0x" + hex.EncodeToString(crypto.FromECDSA(key)),
		},
	}
}

func (c *testChain) dial(ctx context.Context, rpcURL string) (Backend, func(), error) {
	return c.backend.Client(), func() {}, nil
}

// mine commits blocks until the test ends
func (c *testChain) mine(t *testing.T) {
	done := make(chan struct{})
	t.Cleanup(func() { close(done) })

	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				c.backend.Commit()
			}
		}
	}()
}

func newTestDeployer(chain *testChain, confirmationTimeout time.Duration) *Deployer {
	cfg := &config.RuntimeConfig{ConfirmationTimeout: confirmationTimeout}
	return NewDeployer(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), chain.dial)
}

// testArtifact deploys a one-byte runtime (STOP)
func testArtifact(t *testing.T, code string) *models.Artifact {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader("[]"))
	require.NoError(t, err)
	bytecode := hexutil.MustDecode(code)
	return &models.Artifact{
		ContractName: "Registry",
		ABI:          parsed,
		Bytecode:     bytecode,
		BytecodeHash: crypto.Keccak256Hash(bytecode).Hex(),
	}
}

func TestDeployer_SubmitDeployment(t *testing.T) {
	chain := newTestChain(t)
	chain.mine(t)
	d := newTestDeployer(chain, 30*time.Second)

	ctx := context.Background()
	result, err := d.SubmitDeployment(ctx, chain.network, testArtifact(t, "0x6001600c60003960016000f300"), nil)
	require.NoError(t, err)

	from := crypto.PubkeyToAddress(chain.key.PublicKey)
	assert.Equal(t, from.Hex(), result.Deployer)
	assert.Equal(t, crypto.CreateAddress(from, 0).Hex(), result.Address)
	assert.NotEmpty(t, result.TransactionHash)
	assert.NotZero(t, result.BlockNumber)

	code, err := chain.backend.Client().CodeAt(ctx, common.HexToAddress(result.Address), nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00}, code)
}

func TestDeployer_ChainIDMismatch(t *testing.T) {
	chain := newTestChain(t)
	chain.network.ChainID = 81
	d := newTestDeployer(chain, time.Second)

	_, err := d.SubmitDeployment(context.Background(), chain.network, testArtifact(t, "0x6001600c60003960016000f300"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSubmission)
	assert.Contains(t, err.Error(), "chain ID mismatch")
}

func TestDeployer_MissingKey(t *testing.T) {
	chain := newTestChain(t)
	chain.network.Account = ""
	d := newTestDeployer(chain, time.Second)

	_, err := d.SubmitDeployment(context.Background(), chain.network, testArtifact(t, "0x6001600c60003960016000f300"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSubmission)
	assert.Contains(t, err.Error(), "no deployer key configured for network testnet")
}

func TestDeployer_RevertingConstructor(t *testing.T) {
	chain := newTestChain(t)
	chain.mine(t)
	d := newTestDeployer(chain, 30*time.Second)

	// PUSH1 0 PUSH1 0 REVERT
	_, err := d.SubmitDeployment(context.Background(), chain.network, testArtifact(t, "0x60006000fd"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSubmission)
	assert.True(t, domain.Retryable(err))
}

func TestDeployer_ConfirmationTimeout(t *testing.T) {
	chain := newTestChain(t)
	// No blocks are mined, so the receipt never appears
	d := newTestDeployer(chain, 200*time.Millisecond)

	_, err := d.SubmitDeployment(context.Background(), chain.network, testArtifact(t, "0x6001600c60003960016000f300"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfirmationTimeout)
	assert.Equal(t, domain.KindConfirmationTimeout, domain.ErrorKind(err))
}

func TestDeployer_InvalidConstructorArgs(t *testing.T) {
	chain := newTestChain(t)
	d := newTestDeployer(chain, time.Second)

	_, err := d.SubmitDeployment(context.Background(), chain.network, testArtifact(t, "0x6001600c60003960016000f300"), []any{"extra"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestDeployer_Account(t *testing.T) {
	chain := newTestChain(t)
	d := newTestDeployer(chain, time.Second)

	info, err := d.Account(context.Background(), chain.network)
	require.NoError(t, err)

	assert.Equal(t, crypto.PubkeyToAddress(chain.key.PublicKey).Hex(), info.Address)
	assert.Equal(t, "100000000000000000000", info.Balance.String())
	assert.Empty(t, info.BalanceErr)
}

func TestDeployer_AccountUnreachableNode(t *testing.T) {
	chain := newTestChain(t)
	cfg := &config.RuntimeConfig{}
	d := NewDeployer(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)),
		func(ctx context.Context, rpcURL string) (Backend, func(), error) {
			return nil, nil, errors.New("connection refused")
		})

	info, err := d.Account(context.Background(), chain.network)
	require.NoError(t, err)
	assert.NotEmpty(t, info.Address)
	assert.Nil(t, info.Balance)
	assert.Contains(t, info.BalanceErr, "connection refused")
}

func TestFormatEther(t *testing.T) {
	wei, _ := new(big.Int).SetString("1500000000000000000", 10)
	assert.Equal(t, "1.500000", formatEther(wei))
}
