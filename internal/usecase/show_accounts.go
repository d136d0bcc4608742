package usecase

import (
	"context"
	"fmt"

	"github.com/trebuchet-org/treb-deployd/internal/domain/models"
)

// ShowAccountsParams selects the networks to inspect. An empty Network
// means every configured network.
type ShowAccountsParams struct {
	Network string
}

// AccountResult is the deployer account of one network
type AccountResult struct {
	Network string
	Info    *models.AccountInfo
	Error   error
}

// ShowAccounts reports the deployer address and balance per network
type ShowAccounts struct {
	resolver  NetworkResolver
	inspector AccountInspector
	sink      ProgressSink
}

// NewShowAccounts creates a new ShowAccounts use case
func NewShowAccounts(resolver NetworkResolver, inspector AccountInspector, sink ProgressSink) *ShowAccounts {
	return &ShowAccounts{
		resolver:  resolver,
		inspector: inspector,
		sink:      sink,
	}
}

// Run executes the use case. Per-network failures are reported in the
// result; only an unknown explicit network fails the whole call.
func (uc *ShowAccounts) Run(ctx context.Context, params ShowAccountsParams) ([]AccountResult, error) {
	names := uc.resolver.GetNetworks(ctx)
	if params.Network != "" {
		if _, err := uc.resolver.ResolveNetwork(ctx, params.Network); err != nil {
			return nil, err
		}
		names = []string{params.Network}
	}

	results := make([]AccountResult, 0, len(names))
	for _, name := range names {
		uc.sink.OnProgress(ctx, ProgressEvent{
			Stage:   "loading",
			Message: fmt.Sprintf("Inspecting deployer on %s", name),
			Spinner: true,
		})

		result := AccountResult{Network: name}
		network, err := uc.resolver.ResolveNetwork(ctx, name)
		if err != nil {
			result.Error = err
			results = append(results, result)
			continue
		}

		result.Info, result.Error = uc.inspector.Account(ctx, network)
		results = append(results, result)
	}

	uc.sink.OnProgress(ctx, ProgressEvent{Stage: "complete"})
	return results, nil
}
