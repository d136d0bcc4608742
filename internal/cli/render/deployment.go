package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/trebuchet-org/treb-deployd/internal/domain/models"
	"github.com/trebuchet-org/treb-deployd/internal/usecase"
)

// DeploymentRenderer renders detailed information about a single deployment key
type DeploymentRenderer struct {
	out   io.Writer
	color bool
}

// NewDeploymentRenderer creates a new deployment renderer
func NewDeploymentRenderer(out io.Writer, color bool) *DeploymentRenderer {
	return &DeploymentRenderer{
		out:   out,
		color: color,
	}
}

// RenderDeployment renders the record, status and history of a key
func (r *DeploymentRenderer) RenderDeployment(details *usecase.DeploymentDetails) error {
	color.New(color.FgCyan, color.Bold).Fprintf(r.out, "Deployment: %s\n", details.Key)
	fmt.Fprintln(r.out, strings.Repeat("=", 80))

	fmt.Fprintf(r.out, "\nStatus: %s\n", statusColor(details.Status).Sprint(details.Status))

	if rec := details.Record; rec != nil {
		fmt.Fprintln(r.out, "\nBasic Information:")
		fmt.Fprintf(r.out, "  Contract: %s\n", color.New(color.FgYellow).Sprint(rec.ContractName))
		fmt.Fprintf(r.out, "  Address: %s\n", rec.Address)
		fmt.Fprintf(r.out, "  Network: %s (chain %d)\n", rec.NetworkName, rec.ChainID)
		fmt.Fprintf(r.out, "  Deployer: %s\n", rec.Deployer)

		fmt.Fprintln(r.out, "\nTransaction:")
		fmt.Fprintf(r.out, "  Hash: %s\n", rec.TransactionHash)
		if rec.BlockNumber > 0 {
			fmt.Fprintf(r.out, "  Block: %d\n", rec.BlockNumber)
		}

		fmt.Fprintln(r.out, "\nArtifact Information:")
		fmt.Fprintf(r.out, "  Bytecode Hash: %s\n", rec.BytecodeHash)

		fmt.Fprintln(r.out, "\nTimestamps:")
		fmt.Fprintf(r.out, "  Deployed: %s\n", rec.DeployedAt.Format("2006-01-02 15:04:05 MST"))
	}

	if len(details.History) > 0 {
		fmt.Fprintln(r.out, "\nRetired Deployments:")
		for i, retired := range details.History {
			fmt.Fprintf(r.out, "  %d. %s (deployed %s, retired %s)\n",
				i+1,
				retired.Address,
				retired.DeployedAt.Format("2006-01-02 15:04:05"),
				retired.RetiredAt.Format("2006-01-02 15:04:05"),
			)
			if retired.Reason != "" {
				fmt.Fprintf(r.out, "     Reason: %s\n", retired.Reason)
			}
		}
	}

	fmt.Fprintln(r.out)
	return nil
}

func statusColor(status models.DeploymentStatus) *color.Color {
	switch status {
	case models.DeploymentStatusSucceeded:
		return color.New(color.FgGreen, color.Bold)
	case models.DeploymentStatusPending:
		return color.New(color.FgYellow, color.Bold)
	case models.DeploymentStatusFailed:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.Faint)
	}
}

// RenderCheck renders the on-chain state of a recorded deployment
func (r *DeploymentRenderer) RenderCheck(check *models.DeploymentCheck) error {
	if check.Live() {
		fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("%s is live at %s (block %d)", check.Key, check.Address, check.BlockNumber)))
		return nil
	}
	fmt.Fprintln(r.out, FormatWarning(fmt.Sprintf("%s is not live at %s: %s", check.Key, check.Address, check.Reason)))
	return nil
}
