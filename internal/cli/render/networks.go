package render

import (
	"fmt"
	"io"

	"github.com/trebuchet-org/treb-deployd/internal/config"
	"github.com/trebuchet-org/treb-deployd/internal/usecase"
)

// NetworksRenderer renders network lists
type NetworksRenderer struct {
	out   io.Writer
	color bool
}

// NewNetworksRenderer creates a new networks renderer
func NewNetworksRenderer(out io.Writer, color bool) *NetworksRenderer {
	return &NetworksRenderer{
		out:   out,
		color: color,
	}
}

// RenderNetworksList renders the configured networks
func (r *NetworksRenderer) RenderNetworksList(result *usecase.ListNetworksResult) error {
	if len(result.Networks) == 0 {
		fmt.Fprintf(r.out, "No networks configured in %s [networks]\n", config.ConfigFileName)
		return nil
	}

	fmt.Fprintln(r.out, "🌐 Available Networks:")
	fmt.Fprintln(r.out)

	for _, network := range result.Networks {
		if network.Error != "" {
			fmt.Fprintf(r.out, "  ❌ %s - Error: %s\n", network.Name, network.Error)
			continue
		}

		name := network.Name
		if network.Default {
			name += " (default)"
		}
		fmt.Fprintf(r.out, "  ✅ %s - Chain ID: %d - %s\n", name, network.ChainID, network.RPCURL)
		if network.ExplorerURL != "" {
			fmt.Fprintf(r.out, "     Explorer: %s\n", network.ExplorerURL)
		}
		if !network.HasDeployerKey {
			fmt.Fprintf(r.out, "     %s\n", FormatWarning("no deployer key configured"))
		}
	}

	return nil
}

// AccountsRenderer renders the deployer account per network
type AccountsRenderer struct {
	out   io.Writer
	color bool
}

// NewAccountsRenderer creates a new accounts renderer
func NewAccountsRenderer(out io.Writer, color bool) *AccountsRenderer {
	return &AccountsRenderer{
		out:   out,
		color: color,
	}
}

// RenderAccounts renders one table row per network
func (r *AccountsRenderer) RenderAccounts(results []usecase.AccountResult) error {
	if len(results) == 0 {
		fmt.Fprintln(r.out, "No networks configured")
		return nil
	}

	rows := make(TableData, 0, len(results))
	for _, res := range results {
		switch {
		case res.Error != nil:
			rows = append(rows, []string{res.Network, "-", FormatError(res.Error.Error())})
		case res.Info.Balance == nil:
			rows = append(rows, []string{res.Network, addressStyle.Sprint(res.Info.Address), FormatWarning(res.Info.BalanceErr)})
		default:
			rows = append(rows, []string{res.Network, addressStyle.Sprint(res.Info.Address), formatEther(res.Info.Balance.String())})
		}
	}

	fmt.Fprintln(r.out, "🔑 Deployer Accounts:")
	fmt.Fprintln(r.out)
	fmt.Fprint(r.out, renderTableWithWidths(rows, calculateTableColumnWidths([]TableData{rows}), "  "))
	fmt.Fprintln(r.out)
	return nil
}

// formatEther renders a decimal wei string in ether with 6 decimals
func formatEther(wei string) string {
	for len(wei) < 19 {
		wei = "0" + wei
	}
	whole, frac := wei[:len(wei)-18], wei[len(wei)-18:]
	return fmt.Sprintf("%s.%s ETH", whole, frac[:6])
}
