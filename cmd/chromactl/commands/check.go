package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agentplatform/chromactl/internal/cli/output"
	"github.com/agentplatform/chromactl/pkg/lifecycle"
)

var checkOutput string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run preflight checks without starting a server",
	Long: `Verify that a ChromaDB server could be started with the current
configuration: Python runtime version, chromadb client library, data
directory, and port availability. Checks run in order and stop at the first
failure.

Examples:
  # Run checks against the default configuration
  chromactl check

  # Output as JSON
  chromactl check -o json`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

// checkReport renders preflight results for display.
type checkReport struct {
	Checks []checkEntry `json:"checks" yaml:"checks"`
}

type checkEntry struct {
	Name   string `json:"name" yaml:"name"`
	Status string `json:"status" yaml:"status"`
	Detail string `json:"detail" yaml:"detail"`
}

func (r *checkReport) Headers() []string {
	return []string{"CHECK", "STATUS", "DETAIL"}
}

func (r *checkReport) Rows() [][]string {
	rows := make([][]string, 0, len(r.Checks))
	for _, c := range r.Checks {
		rows = append(rows, []string{c.Name, c.Status, c.Detail})
	}
	return rows
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(checkOutput)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sup := lifecycle.New(cfg)
	results, checkErr := sup.CheckPreconditions(ctx)

	report := &checkReport{}
	for _, r := range results {
		entry := checkEntry{Name: r.Name, Status: "pass", Detail: r.Detail}
		if !r.OK() {
			entry.Status = "fail"
			entry.Detail = r.Err.Error()
		}
		report.Checks = append(report.Checks, entry)
	}

	if err := output.Print(os.Stdout, format, report); err != nil {
		return err
	}

	return checkErr
}
