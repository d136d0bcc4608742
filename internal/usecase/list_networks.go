package usecase

import (
	"context"
	"strings"
)

// ListNetworksParams marks which network is the configured default
type ListNetworksParams struct {
	DefaultNetwork string
}

// ListNetworksResult contains the network profiles in name order
type ListNetworksResult struct {
	Networks []NetworkStatus
}

// NetworkStatus is a network profile as shown to operators. The signing
// key itself is never exposed, only whether one is configured.
type NetworkStatus struct {
	Name           string
	ChainID        uint64
	RPCURL         string
	ExplorerURL    string
	Default        bool
	HasDeployerKey bool
	Error          string `json:",omitempty"`
}

// ListNetworks lists the profiles of the network registry
type ListNetworks struct {
	networks NetworkResolver
}

// NewListNetworks creates a new ListNetworks use case
func NewListNetworks(networks NetworkResolver) *ListNetworks {
	return &ListNetworks{networks: networks}
}

// Run executes the use case
func (uc *ListNetworks) Run(ctx context.Context, params ListNetworksParams) (*ListNetworksResult, error) {
	names := uc.networks.GetNetworks(ctx)

	result := &ListNetworksResult{Networks: make([]NetworkStatus, 0, len(names))}
	for _, name := range names {
		status := NetworkStatus{Name: name, Default: name == params.DefaultNetwork}

		network, err := uc.networks.ResolveNetwork(ctx, name)
		if err != nil {
			status.Error = err.Error()
			result.Networks = append(result.Networks, status)
			continue
		}

		status.ChainID = network.ChainID
		status.RPCURL = network.RPCURL
		status.ExplorerURL = network.ExplorerURL
		account := strings.TrimSpace(network.Account)
		status.HasDeployerKey = account != "" && !strings.HasPrefix(account, "${")

		result.Networks = append(result.Networks, status)
	}

	return result, nil
}
