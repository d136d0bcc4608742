package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-deployd/internal/cli/render"
	"github.com/trebuchet-org/treb-deployd/internal/usecase"
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	var contractName string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List recorded deployments",
		Long: `List the deployments recorded in the ledger, grouped by network.

The list can be filtered by contract name and network.`,
		Example: `  # List all deployments
  treb-deployd list

  # List Registry deployments on Shibuya
  treb-deployd list --contract Registry --network shibuya`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			params := usecase.ListDeploymentsParams{ContractName: contractName}
			// --network filters only when given explicitly
			if f := cmd.Flag("network"); f != nil && f.Changed {
				params.NetworkName = app.Config.Network
			}

			result, err := app.ListDeployments.Run(cmd.Context(), params)
			if err != nil {
				return err
			}

			if app.Config.JSON {
				return printJSON(cmd, result.Deployments)
			}

			renderer := render.NewDeploymentsRenderer(cmd.OutOrStdout(), true)
			return renderer.RenderDeploymentList(result)
		},
	}

	cmd.Flags().StringVar(&contractName, "contract", "", "Filter by contract name")

	return cmd
}
