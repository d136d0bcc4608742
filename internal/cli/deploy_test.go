package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-deployd/internal/adapters/blockchain"
	"github.com/trebuchet-org/treb-deployd/internal/domain/models"
)

// testDeployer is the address of DEPLOYD_TEST_KEY
var testDeployer = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

// newSimulatedChain starts a mined chain with the test deployer funded and
// returns a dialer for it
func newSimulatedChain(t *testing.T) (*simulated.Backend, blockchain.Dialer) {
	t.Helper()

	funds, _ := new(big.Int).SetString("100000000000000000000", 10)
	backend := simulated.NewBackend(types.GenesisAlloc{
		testDeployer: {Balance: funds},
	})

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				backend.Commit()
			}
		}
	}()
	t.Cleanup(func() {
		close(done)
		<-stopped
		_ = backend.Close()
	})

	dial := func(ctx context.Context, rpcURL string) (blockchain.Backend, func(), error) {
		return backend.Client(), func() {}, nil
	}
	return backend, dial
}

func executeWith(t *testing.T, dial blockchain.Dialer, root string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(dial)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(bytes.NewBufferString(""))
	cmd.SetArgs(append([]string{"--project-root", root}, args...))

	_, err := cmd.ExecuteContextC(context.Background())
	return out.String(), err
}

func TestDeployCmd_Deploys(t *testing.T) {
	root := setupProject(t)
	_, dial := newSimulatedChain(t)

	out, err := executeWith(t, dial, root, "deploy", "--json")
	require.NoError(t, err)

	var record models.DeploymentRecord
	require.NoError(t, json.Unmarshal([]byte(out), &record))
	assert.Equal(t, "Registry", record.ContractName)
	assert.Equal(t, "testnet", record.NetworkName)
	assert.Equal(t, crypto.CreateAddress(testDeployer, 0).Hex(), record.Address)
	assert.Equal(t, testDeployer.Hex(), record.Deployer)
	assert.NotEmpty(t, record.TransactionHash)
}

func TestDeployCmd_RecordedAcrossRuns(t *testing.T) {
	root := setupProject(t)
	backend, dial := newSimulatedChain(t)
	want := crypto.CreateAddress(testDeployer, 0).Hex()

	out, err := executeWith(t, dial, root, "deploy")
	require.NoError(t, err)
	assert.Contains(t, out, "Registry deployed on testnet")
	assert.Contains(t, out, want)

	// A new process reads the address back from the ledger file
	out, err = executeWith(t, dial, root, "deploy")
	require.NoError(t, err)
	assert.Contains(t, out, "Registry already deployed on testnet")
	assert.Contains(t, out, want)

	nonce, err := backend.Client().NonceAt(context.Background(), testDeployer, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), nonce, "only one transaction should have been sent")

	out, err = executeWith(t, dial, root, "list", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, want)
}

func TestDeployCmd_ArgsFlag(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "json array stays one argument",
			args: []string{"--args", `["0x1111111111111111111111111111111111111111","0x2222222222222222222222222222222222222222"]`},
			want: []string{`["0x1111111111111111111111111111111111111111","0x2222222222222222222222222222222222222222"]`},
		},
		{
			name: "repeated flag",
			args: []string{"--args", "0x1111111111111111111111111111111111111111", "--args", "100"},
			want: []string{"0x1111111111111111111111111111111111111111", "100"},
		},
		{
			name: "not given",
			args: nil,
			want: []string{"configured"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewDeployCmd()
			require.NoError(t, cmd.Flags().Parse(tt.args))

			got, err := constructorArgs(cmd, []string{"configured"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCommandTimeout(t *testing.T) {
	assert.Zero(t, commandTimeout("serve", time.Minute))
	assert.Zero(t, commandTimeout("deploy", time.Minute))
	assert.Equal(t, time.Minute, commandTimeout("check", time.Minute))
	assert.Zero(t, commandTimeout("list", 0))
}

func TestDeployCmd_NetworkNameIgnoresCase(t *testing.T) {
	root := setupProject(t)
	_, dial := newSimulatedChain(t)

	out, err := executeWith(t, dial, root, "deploy", "--network", "TestNet", "--json")
	require.NoError(t, err)

	var record models.DeploymentRecord
	require.NoError(t, json.Unmarshal([]byte(out), &record))
	assert.Equal(t, "testnet", record.NetworkName)

	out, err = executeWith(t, dial, root, "deploy", "--network", "testnet")
	require.NoError(t, err)
	assert.Contains(t, out, "Registry already deployed on testnet")
	assert.Contains(t, out, record.Address)
}
