package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-deployd/internal/config"
)

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of treb-deployd",
		Run: func(cmd *cobra.Command, args []string) {
			if config.Commit == "unknown" {
				fmt.Fprintf(cmd.OutOrStdout(), "treb-deployd version %s\n", config.Version)
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "treb-deployd version %s (commit %s, built %s)\n", config.Version, config.Commit, config.Date)
		},
	}
}
