package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/trebuchet-org/treb-deployd/internal/domain/models"
	"github.com/trebuchet-org/treb-deployd/internal/usecase"
)

// Color styles for table format
var (
	networkBg          = color.BgCyan
	networkHeader      = color.New(networkBg, color.FgBlack)
	networkHeaderBold  = color.New(networkBg, color.FgBlack, color.Bold)
	contractStyle      = color.New(color.FgYellow, color.Bold)
	addressStyle       = color.New(color.FgWhite)
	timestampStyle     = color.New(color.Faint)
	sectionHeaderStyle = color.New(color.Bold, color.FgHiWhite)
)

// DeploymentsRenderer renders deployment lists grouped by network
type DeploymentsRenderer struct {
	out   io.Writer
	color bool
}

// NewDeploymentsRenderer creates a new deployments renderer
func NewDeploymentsRenderer(out io.Writer, color bool) *DeploymentsRenderer {
	return &DeploymentsRenderer{
		out:   out,
		color: color,
	}
}

// RenderDeploymentList renders deployments in a tree-style table
func (r *DeploymentsRenderer) RenderDeploymentList(result *usecase.DeploymentListResult) error {
	if len(result.Deployments) == 0 {
		fmt.Fprintln(r.out, "No deployments found")
		return nil
	}

	groups := make(map[string][]*models.DeploymentRecord)
	for _, dep := range result.Deployments {
		groups[dep.NetworkName] = append(groups[dep.NetworkName], dep)
	}

	networks := make([]string, 0, len(groups))
	for name := range groups {
		networks = append(networks, name)
	}
	sort.Strings(networks)

	tables := make(map[string]TableData, len(groups))
	allTables := make([]TableData, 0, len(groups))
	for _, name := range networks {
		tbl := r.buildDeploymentTable(groups[name])
		tables[name] = tbl
		allTables = append(allTables, tbl)
	}
	widths := calculateTableColumnWidths(allTables)

	for i, name := range networks {
		isLast := i == len(networks)-1
		treePrefix, continuationPrefix := "├─", "│ "
		if isLast {
			treePrefix, continuationPrefix = "└─", "  "
		}

		label := fmt.Sprintf("%-10s", "network:")
		value := fmt.Sprintf("%-30s", fmt.Sprintf("%s (%d)", name, groups[name][0].ChainID))
		fmt.Fprintf(r.out, "%s%s%s\n", treePrefix, networkHeader.Sprintf(" ⛓ %s ", label), networkHeaderBold.Sprint(value))
		fmt.Fprintln(r.out, continuationPrefix)
		fmt.Fprintf(r.out, "%s%s\n", continuationPrefix, sectionHeaderStyle.Sprint("CONTRACTS"))
		fmt.Fprint(r.out, renderTableWithWidths(tables[name], widths, continuationPrefix))
		fmt.Fprintln(r.out)

		if !isLast {
			fmt.Fprintln(r.out, continuationPrefix)
		} else {
			fmt.Fprintln(r.out)
		}
	}

	fmt.Fprintf(r.out, "Total deployments: %d", result.Summary.Total)
	if len(result.Summary.ByNetwork) > 1 {
		parts := make([]string, 0, len(networks))
		for _, name := range networks {
			parts = append(parts, fmt.Sprintf("%s: %d", name, result.Summary.ByNetwork[name]))
		}
		fmt.Fprintf(r.out, " (%s)", strings.Join(parts, ", "))
	}
	fmt.Fprintln(r.out)
	return nil
}

// buildDeploymentTable creates the rows of one network group
func (r *DeploymentsRenderer) buildDeploymentTable(deployments []*models.DeploymentRecord) TableData {
	tableData := make(TableData, 0, len(deployments))
	for _, dep := range deployments {
		tableData = append(tableData, []string{
			contractStyle.Sprint(dep.ContractName),
			addressStyle.Sprint(dep.Address),
			shortHash(dep.TransactionHash),
			timestampStyle.Sprint(dep.DeployedAt.Format("2006-01-02 15:04:05")),
		})
	}
	return tableData
}
