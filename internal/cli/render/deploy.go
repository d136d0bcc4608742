package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/trebuchet-org/treb-deployd/internal/usecase"
)

// DeployRenderer renders the outcome of a deploy command
type DeployRenderer struct {
	out io.Writer
}

// NewDeployRenderer creates a new deploy renderer
func NewDeployRenderer(out io.Writer) *DeployRenderer {
	return &DeployRenderer{out: out}
}

// RenderDeployment prints the deployed address and transaction. explorerURL
// may be empty.
func (r *DeployRenderer) RenderDeployment(outcome *usecase.DeploymentOutcome, explorerURL string) error {
	record := outcome.Record
	if outcome.AlreadyDeployed {
		fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("%s already deployed on %s", record.ContractName, record.NetworkName)))
	} else {
		fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("%s deployed on %s", record.ContractName, record.NetworkName)))
	}
	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "  Address:     %s\n", color.New(color.FgYellow, color.Bold).Sprint(record.Address))
	fmt.Fprintf(r.out, "  Transaction: %s\n", record.TransactionHash)
	if record.BlockNumber > 0 {
		fmt.Fprintf(r.out, "  Block:       %d\n", record.BlockNumber)
	}
	fmt.Fprintf(r.out, "  Deployed at: %s\n", timestampStyle.Sprint(record.DeployedAt.Format("2006-01-02 15:04:05 MST")))
	if explorerURL != "" {
		fmt.Fprintf(r.out, "  Explorer:    %s/tx/%s\n", explorerURL, record.TransactionHash)
	}
	return nil
}
