package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-deployd/internal/cli/render"
	"github.com/trebuchet-org/treb-deployd/internal/usecase"
)

// NewNetworksCmd creates the networks command
func NewNetworksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "networks",
		Short: "List configured networks",
		Long: `List the built-in networks and those configured in the [networks]
section of deployd.toml, with their chain IDs and RPC endpoints.

Network names are matched without regard to case, so --network Shibuya
selects the shibuya profile.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.ListNetworks.Run(cmd.Context(), usecase.ListNetworksParams{
				DefaultNetwork: app.Config.Network,
			})
			if err != nil {
				return err
			}

			if app.Config.JSON {
				return printJSON(cmd, result.Networks)
			}

			renderer := render.NewNetworksRenderer(cmd.OutOrStdout(), true)
			return renderer.RenderNetworksList(result)
		},
	}

	return cmd
}

// NewAccountsCmd creates the accounts command
func NewAccountsCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Show the deployer account and balance per network",
		Long: `Show the address derived from each network's deployer key and its
balance. Unreachable nodes are reported per network.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			params := usecase.ShowAccountsParams{}
			if !all {
				params.Network = app.Config.Network
			}

			results, err := app.ShowAccounts.Run(cmd.Context(), params)
			if err != nil {
				return err
			}

			if app.Config.JSON {
				return printJSON(cmd, accountsJSON(results))
			}

			renderer := render.NewAccountsRenderer(cmd.OutOrStdout(), true)
			return renderer.RenderAccounts(results)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Inspect every configured network")

	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

type accountJSON struct {
	Network string `json:"network"`
	ChainID uint64 `json:"chainId,omitempty"`
	Address string `json:"address,omitempty"`
	Balance string `json:"balance,omitempty"`
	Error   string `json:"error,omitempty"`
}

func accountsJSON(results []usecase.AccountResult) []accountJSON {
	out := make([]accountJSON, 0, len(results))
	for _, r := range results {
		a := accountJSON{Network: r.Network}
		switch {
		case r.Error != nil:
			a.Error = r.Error.Error()
		case r.Info != nil:
			a.ChainID = r.Info.ChainID
			a.Address = r.Info.Address
			a.Error = r.Info.BalanceErr
			if r.Info.Balance != nil {
				a.Balance = r.Info.Balance.String()
			}
		}
		out = append(out, a)
	}
	return out
}
