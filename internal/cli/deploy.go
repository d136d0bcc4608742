package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-deployd/internal/cli/render"
	"github.com/trebuchet-org/treb-deployd/internal/domain/models"
)

// NewDeployCmd creates the one-shot deploy command
func NewDeployCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy [contract]",
		Short: "Deploy a contract unless it is already recorded",
		Long: `Deploy a contract to a network and record the address in the ledger.

If the ledger already holds a deployment of the contract on the network,
the recorded address is printed and nothing is sent. The contract, network
and constructor arguments default to the values in deployd.toml.`,
		Example: `  # Deploy the default contract to the default network
  treb-deployd deploy

  # Deploy Registry to Shibuya with constructor arguments
  treb-deployd deploy Registry --network shibuya --args 0x1111111111111111111111111111111111111111 --args 100

  # Array arguments are passed as JSON
  treb-deployd deploy Registry --args '["0x1111111111111111111111111111111111111111","0x2222222222222222222222222222222222222222"]'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			contract := app.Config.Contract
			if len(args) == 1 {
				contract = args[0]
			}

			ctorArgs, err := constructorArgs(cmd, app.Config.ConstructorArgs)
			if err != nil {
				return err
			}

			req := models.NewDeploymentRequest(contract, app.Config.Network, ctorArgs)
			outcome, err := app.DeployContract.Deploy(cmd.Context(), req)
			if err != nil {
				return err
			}

			if app.Config.JSON {
				return printJSON(cmd, outcome.Record)
			}

			explorer := ""
			if network, ok := app.Config.Networks[outcome.Record.NetworkName]; ok {
				explorer = network.ExplorerURL
			}
			return render.NewDeployRenderer(cmd.OutOrStdout()).RenderDeployment(outcome, explorer)
		},
	}

	cmd.Flags().StringArray("args", nil, "Constructor argument, repeat once per argument (arrays as JSON)")

	return cmd
}

// constructorArgs returns the --args values, or the configured arguments when
// the flag is not given. Each flag value is one argument, commas included.
func constructorArgs(cmd *cobra.Command, configured []string) ([]string, error) {
	if !cmd.Flags().Changed("args") {
		return configured, nil
	}
	return cmd.Flags().GetStringArray("args")
}
