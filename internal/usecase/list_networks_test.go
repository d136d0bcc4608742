package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-deployd/internal/domain/config"
)

func TestListNetworks(t *testing.T) {
	resolver := newFakeResolver(
		&config.Network{Name: "shibuya", ChainID: 81, RPCURL: "https://rpc.shibuya.astar.network:8545", ExplorerURL: "https://shibuya.subscan.io", Account: "0xabc"},
		&config.Network{Name: "astar", ChainID: 592, RPCURL: "https://rpc.astar.network:8545", Account: "${DEPLOYER_PRIVATE_KEY}"},
	)

	result, err := NewListNetworks(resolver).Run(context.Background(), ListNetworksParams{DefaultNetwork: "shibuya"})
	require.NoError(t, err)
	require.Len(t, result.Networks, 2)

	astar, shibuya := result.Networks[0], result.Networks[1]
	assert.Equal(t, "astar", astar.Name)
	assert.False(t, astar.Default)
	assert.False(t, astar.HasDeployerKey, "unexpanded reference is not a key")

	assert.Equal(t, "shibuya", shibuya.Name)
	assert.Equal(t, uint64(81), shibuya.ChainID)
	assert.Equal(t, "https://shibuya.subscan.io", shibuya.ExplorerURL)
	assert.True(t, shibuya.Default)
	assert.True(t, shibuya.HasDeployerKey)
	assert.Empty(t, shibuya.Error)
}
