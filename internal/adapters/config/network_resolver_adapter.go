package config

import (
	"context"

	"github.com/trebuchet-org/treb-deployd/internal/config"
	domainconfig "github.com/trebuchet-org/treb-deployd/internal/domain/config"
	"github.com/trebuchet-org/treb-deployd/internal/usecase"
)

// NetworkResolverAdapter adapts the config.NetworkRegistry to the usecase.NetworkResolver interface
type NetworkResolverAdapter struct {
	registry *config.NetworkRegistry
}

// NewNetworkResolverAdapter creates a new adapter
func NewNetworkResolverAdapter(registry *config.NetworkRegistry) *NetworkResolverAdapter {
	return &NetworkResolverAdapter{
		registry: registry,
	}
}

// GetNetworks returns all configured network names
func (a *NetworkResolverAdapter) GetNetworks(ctx context.Context) []string {
	return a.registry.GetNetworks()
}

// ResolveNetwork resolves a network name to its configuration
func (a *NetworkResolverAdapter) ResolveNetwork(ctx context.Context, networkName string) (*domainconfig.Network, error) {
	return a.registry.Resolve(networkName)
}

// Ensure the adapter implements the interface
var _ usecase.NetworkResolver = (*NetworkResolverAdapter)(nil)
