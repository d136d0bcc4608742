package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-deployd/internal/api"
	"github.com/trebuchet-org/treb-deployd/internal/app"
	"github.com/trebuchet-org/treb-deployd/internal/domain/models"
	"golang.org/x/sync/errgroup"
)

// NewServeCmd creates the command that runs the HTTP triggers
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve GET /deploy triggers over HTTP",
		Long: `Run one HTTP server per configured trigger. Each server deploys its
contract on GET /deploy and answers with the recorded address. Failed
deployments are reported to the caller and the server keeps running.

Triggers are read from [[triggers]] in deployd.toml. Without any, a single
trigger serves the default contract and network on --port.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServers(ctx, app)
		},
	}

	cmd.Flags().Int("port", 0, "Port of the default trigger (default 9000)")

	return cmd
}

// runServers serves every trigger until ctx is cancelled or one server fails.
// All triggers share the same orchestrator, so a contract exposed on two
// ports is still deployed once.
func runServers(ctx context.Context, app *app.App) error {
	cfg := app.Config
	if len(cfg.Triggers) == 0 {
		return fmt.Errorf("no triggers configured")
	}

	servers := make([]*api.Server, 0, len(cfg.Triggers))
	for i, t := range cfg.Triggers {
		if t.Contract == "" {
			return fmt.Errorf("trigger #%d on port %d has no contract", i, t.Port)
		}
		if t.Port <= 0 {
			return fmt.Errorf("trigger #%d for %s has no port", i, t.Contract)
		}

		servers = append(servers, api.NewServer(api.Options{
			Port:      t.Port,
			AuthToken: cfg.Server.AuthToken,
			Request:   models.NewDeploymentRequest(t.Contract, t.Network, t.ConstructorArgs),
		}, app.DeployContract, app.ListDeployments, app.ShowDeployment, app.Log))
	}

	if cfg.Server.AuthToken == "" {
		app.Log.Warn("no server.auth_token configured, GET /deploy is unauthenticated")
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, s := range servers {
		g.Go(func() error {
			return s.ListenAndServe(ctx, cfg.Server.ShutdownTimeout)
		})
	}
	return g.Wait()
}
