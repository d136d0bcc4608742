package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-deployd/internal/cli/render"
	"github.com/trebuchet-org/treb-deployd/internal/usecase"
)

// NewResetCmd creates the reset command
func NewResetCmd() *cobra.Command {
	var (
		reason string
		yes    bool
	)

	cmd := &cobra.Command{
		Use:   "reset <contract>[/<network>]",
		Short: "Retire a recorded deployment so it can be deployed again",
		Long: `Retire the ledger record of a contract on a network.

The record is moved to the key's history and the next deploy of the
contract on that network sends a new transaction. The old contract stays
on chain. Refused while a deployment of the key is in flight.`,
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

			params := usecase.ResetDeploymentParams{
				ContractName: key.ContractName,
				NetworkName:  key.NetworkName,
				Reason:       reason,
				DryRun:       true,
			}

			// First, look up what would be retired
			preview, err := app.ResetDeployment.Run(cmd.Context(), params)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Found deployment of %s on %s (chain %d):\n\n", key.ContractName, key.NetworkName, preview.Record.ChainID)
			fmt.Fprintf(out, "  Address:     %s\n", preview.Record.Address)
			fmt.Fprintf(out, "  Transaction: %s\n\n", preview.Record.TransactionHash)

			if !yes {
				fmt.Fprintf(out, "Retire this deployment? The next deploy will create a new contract. [y/N]: ")
				var response string
				if _, err := fmt.Fscanln(cmd.InOrStdin(), &response); err != nil {
					fmt.Fprintln(out, "Reset cancelled.")
					return nil
				}
				if strings.ToLower(strings.TrimSpace(response)) != "y" {
					fmt.Fprintln(out, "Reset cancelled.")
					return nil
				}
			}

			params.DryRun = false
			result, err := app.ResetDeployment.Run(cmd.Context(), params)
			if err != nil {
				return err
			}

			fmt.Fprintln(out, render.FormatSuccess(fmt.Sprintf("Retired %s at %s", key, result.Retired.Address)))
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Reason stored with the retired record")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
