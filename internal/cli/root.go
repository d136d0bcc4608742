package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/treb-deployd/internal/adapters/blockchain"
	"github.com/trebuchet-org/treb-deployd/internal/adapters/progress"
	"github.com/trebuchet-org/treb-deployd/internal/app"
	"github.com/trebuchet-org/treb-deployd/internal/config"
	domainconfig "github.com/trebuchet-org/treb-deployd/internal/domain/config"
	"github.com/trebuchet-org/treb-deployd/internal/logging"
	"github.com/trebuchet-org/treb-deployd/internal/usecase"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
)

// appState is what PersistentPreRunE stores in the command context
type appState struct {
	app     *app.App
	cleanup func()
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(blockchain.DialRPC)
}

// newRootCmd creates the root command with the chain connections opened
// through dial
func newRootCmd(dial blockchain.Dialer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "treb-deployd",
		Short: "Idempotent smart contract deployment orchestrator",
		Long: `treb-deployd deploys a contract to a network at most once and records the
result in a deployment ledger. Deployments run as a one-shot command or
behind an HTTP trigger; concurrent requests for the same contract and
network share a single attempt.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip for help/version commands
			if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			v := config.SetupViper()
			config.BindFlags(v, cmd.Flags())

			appInstance, cleanup, err := app.InitApp(v, newProgressSink(cmd, v), dial)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, &appState{app: appInstance, cleanup: cleanup})

			if timeout := commandTimeout(cmd.Name(), appInstance.Config.Timeout); timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				cmd.PostRun = func(cmd *cobra.Command, args []string) {
					cancel()
				}
			}

			cmd.SetContext(ctx)
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "Path to deployd.toml (defaults to <project root>/deployd.toml)")
	rootCmd.PersistentFlags().String("project-root", "", "Contract project root (defaults to the nearest directory with a project marker)")
	rootCmd.PersistentFlags().StringP("network", "n", "", "Network to use (e.g., localhost, shibuya, astar)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("json", false, "Output results as JSON")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Upper bound for a deployment attempt (e.g., 10m)")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "main",
		Title: "Main Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands",
	})

	// Main commands
	for _, cmd := range []*cobra.Command{NewDeployCmd(), NewServeCmd(), NewListCmd(), NewShowCmd()} {
		cmd.GroupID = "main"
		rootCmd.AddCommand(cmd)
	}

	// Management commands
	for _, cmd := range []*cobra.Command{NewNetworksCmd(), NewAccountsCmd(), NewCheckCmd(), NewResetCmd()} {
		cmd.GroupID = "management"
		rootCmd.AddCommand(cmd)
	}

	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// Execute runs the root command and releases the app afterwards
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	cmd, err := rootCmd.ExecuteContextC(ctx)
	if cmd != nil && cmd.Context() != nil {
		if state, ok := cmd.Context().Value(appKey).(*appState); ok && state.cleanup != nil {
			state.cleanup()
		}
	}
	return err
}

// commandTimeout bounds a command's context. The server runs until
// signalled, and deploy attempts are bounded by the orchestrator itself so
// that a confirmation timeout reaches the caller as such.
func commandTimeout(name string, timeout time.Duration) time.Duration {
	switch name {
	case "serve", "deploy":
		return 0
	default:
		return timeout
	}
}

// newProgressSink picks the progress reporter for a command: a spinner for
// interactive deploys, log lines for the server and nothing otherwise
func newProgressSink(cmd *cobra.Command, v *viper.Viper) usecase.ProgressSink {
	switch {
	case cmd.Name() == "serve":
		log := logging.NewLogger(&domainconfig.RuntimeConfig{Debug: v.GetBool("debug")})
		return progress.NewLogSink(log)
	case cmd.Name() == "deploy" && !v.GetBool("json"):
		return progress.NewSpinnerProgressReporter()
	default:
		return progress.NewNopSink()
	}
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	state, ok := cmd.Context().Value(appKey).(*appState)
	if !ok || state.app == nil {
		return nil, fmt.Errorf("app not initialized")
	}
	return state.app, nil
}
