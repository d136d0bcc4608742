package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/trebuchet-org/treb-deployd/internal/domain"
	"github.com/trebuchet-org/treb-deployd/internal/domain/config"
)

// defaultAccountRef is used by profiles that do not name their own account
const defaultAccountRef = "${DEPLOYER_PRIVATE_KEY}"

// DefaultNetworks returns the built-in profiles: a local node, the Shibuya
// test network and the Astar production network.
func DefaultNetworks() map[string]NetworkProfile {
	return map[string]NetworkProfile{
		"localhost": {
			URL:     "http://127.0.0.1:8545",
			ChainID: 31337,
		},
		"shibuya": {
			URL:      "https://rpc.shibuya.astar.network:8545",
			ChainID:  81,
			Explorer: "https://shibuya.subscan.io",
		},
		"astar": {
			URL:      "https://rpc.astar.network:8545",
			ChainID:  592,
			Explorer: "https://astar.subscan.io",
		},
	}
}

// BuildNetworks merges file profiles over the defaults and expands ${VAR}
// references. A <NAME>_RPC_URL environment variable overrides the profile URL.
func BuildNetworks(profiles map[string]NetworkProfile) map[string]*config.Network {
	merged := DefaultNetworks()
	for name, p := range profiles {
		base := merged[name]
		if p.URL != "" {
			base.URL = p.URL
		}
		if p.ChainID != 0 {
			base.ChainID = p.ChainID
		}
		if p.Account != "" {
			base.Account = p.Account
		}
		if p.Explorer != "" {
			base.Explorer = p.Explorer
		}
		merged[name] = base
	}

	networks := make(map[string]*config.Network, len(merged))
	for name, p := range merged {
		account := p.Account
		if account == "" {
			account = defaultAccountRef
		} else if _, isRef := DetectEnvVar(account); !isRef {
			fmt.Fprintf(os.Stderr, "Warning: network %s has a literal account key in %s, use ${%s} instead\n",
				name, ConfigFileName, GenerateEnvVarName(name, "PRIVATE_KEY"))
		}

		rpcURL := os.ExpandEnv(p.URL)
		if override := os.Getenv(GenerateEnvVarName(name, "RPC_URL")); override != "" {
			rpcURL = override
		}

		networks[name] = &config.Network{
			Name:        name,
			RPCURL:      rpcURL,
			ChainID:     p.ChainID,
			ExplorerURL: os.ExpandEnv(p.Explorer),
			Account:     os.ExpandEnv(account),
		}
	}
	return networks
}

// NetworkRegistry resolves network names to immutable configurations
type NetworkRegistry struct {
	networks map[string]*config.Network
	names    []string
}

// NewNetworkRegistry validates the profiles and builds the registry.
// Chain IDs must be unique across profiles.
func NewNetworkRegistry(networks map[string]*config.Network) (*NetworkRegistry, error) {
	r := &NetworkRegistry{
		networks: make(map[string]*config.Network, len(networks)),
	}

	names := make([]string, 0, len(networks))
	for name, n := range networks {
		if n != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	byChainID := make(map[uint64]string)
	for _, name := range names {
		n := networks[name]
		if n.RPCURL == "" {
			return nil, fmt.Errorf("network %s has no RPC URL", name)
		}
		if n.ChainID == 0 {
			return nil, fmt.Errorf("network %s has no chain ID", name)
		}
		if other, exists := byChainID[n.ChainID]; exists {
			return nil, fmt.Errorf("%w: %d used by %s and %s", domain.ErrDuplicateChainID, n.ChainID, other, name)
		}
		byChainID[n.ChainID] = name

		clone := *n
		clone.Name = name
		r.networks[name] = &clone
	}
	r.names = names

	return r, nil
}

// Resolve returns the configuration for a network name. An exact match wins;
// otherwise a single case-insensitive match is accepted, so "Shibuya"
// resolves to the shibuya profile.
func (r *NetworkRegistry) Resolve(name string) (*config.Network, error) {
	n, ok := r.networks[name]
	if !ok {
		n = r.foldMatch(name)
	}
	if n == nil {
		return nil, domain.UnknownNetworkErr{Name: name, Available: r.GetNetworks()}
	}
	clone := *n
	return &clone, nil
}

func (r *NetworkRegistry) foldMatch(name string) *config.Network {
	var found *config.Network
	for _, candidate := range r.names {
		if !strings.EqualFold(candidate, name) {
			continue
		}
		if found != nil {
			return nil
		}
		found = r.networks[candidate]
	}
	return found
}

// GetNetworks returns all configured network names, sorted
func (r *NetworkRegistry) GetNetworks() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// ProvideNetworkRegistry creates a NetworkRegistry for Wire dependency injection
func ProvideNetworkRegistry(cfg *config.RuntimeConfig) (*NetworkRegistry, error) {
	return NewNetworkRegistry(cfg.Networks)
}
