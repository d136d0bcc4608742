package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-deployd/internal/cli/render"
	"github.com/trebuchet-org/treb-deployd/internal/domain/models"
	"github.com/trebuchet-org/treb-deployd/internal/usecase"
)

// NewShowCmd creates the show command
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <contract>[/<network>]",
		Short: "Show the recorded deployment of a contract",
		Long: `Show the ledger record, in-process status and retired deployments of a
contract on a network. The network defaults to --network.

Examples:
  treb-deployd show Registry
  treb-deployd show Registry/shibuya`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			key, err := parseKeyArg(args[0], app.Config.Network)
			if err != nil {
				return err
			}

			result, err := app.ShowDeployment.Run(cmd.Context(), usecase.ShowDeploymentParams{
				ContractName: key.ContractName,
				NetworkName:  key.NetworkName,
			})
			if err != nil {
				return fmt.Errorf("failed to show deployment: %w", err)
			}

			if app.Config.JSON {
				return printJSON(cmd, result)
			}

			renderer := render.NewDeploymentRenderer(cmd.OutOrStdout(), true)
			return renderer.RenderDeployment(result)
		},
	}

	return cmd
}

// parseKeyArg accepts "Contract/network" or a bare contract name on the
// default network
func parseKeyArg(arg, defaultNetwork string) (models.DeploymentKey, error) {
	if key, err := models.ParseDeploymentKey(arg); err == nil {
		return key, nil
	}
	if arg == "" || defaultNetwork == "" {
		return models.DeploymentKey{}, fmt.Errorf("invalid deployment reference %q, expected <contract>[/<network>]", arg)
	}
	return models.DeploymentKey{ContractName: arg, NetworkName: defaultNetwork}, nil
}
