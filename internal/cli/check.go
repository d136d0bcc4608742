package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-deployd/internal/domain"
	"github.com/trebuchet-org/treb-deployd/internal/cli/render"
	"github.com/trebuchet-org/treb-deployd/internal/usecase"
)

// NewCheckCmd creates the check command
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <contract>[/<network>]",
		Short: "Check that a recorded deployment is still on chain",
		Long: `Check the code at the recorded address and the receipt of the recorded
transaction. A ledger record that is no longer live (for example after a
local node was reset) can be retired with 'treb-deployd reset'.`,
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

			check, err := app.CheckDeployment.Run(cmd.Context(), usecase.CheckDeploymentParams{
				ContractName: key.ContractName,
				NetworkName:  key.NetworkName,
			})
			if err != nil {
				return fmt.Errorf("failed to check deployment: %w", err)
			}

			if app.Config.JSON {
				if err := printJSON(cmd, check); err != nil {
					return err
				}
			} else if err := render.NewDeploymentRenderer(cmd.OutOrStdout(), true).RenderCheck(check); err != nil {
				return err
			}

			if !check.Live() {
				return fmt.Errorf("recorded deployment of %s is not on chain: %w", check.Key, domain.ErrNotFound)
			}
			return nil
		},
	}

	return cmd
}
