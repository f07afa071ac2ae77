package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agentplatform/chromactl/internal/cli/output"
	"github.com/agentplatform/chromactl/pkg/smoke"
)

var (
	smokeServer bool
	smokeOutput string
)

var smokeCmd = &cobra.Command{
	Use:   "smoke",
	Short: "Exercise the database end to end",
	Long: `Run a database smoke test: create a collection, insert a known document
set, verify the count, and run a similarity query.

By default the test runs against an embedded persistent store under the data
directory and needs no running server. With --server it exercises the HTTP
API of a live ChromaDB server instead.

Examples:
  # Embedded exercise (offline)
  chromactl smoke

  # Exercise a running server
  chromactl smoke --server

  # Output the report as JSON
  chromactl smoke -o json`,
	RunE: runSmoke,
}

func init() {
	smokeCmd.Flags().BoolVar(&smokeServer, "server", false, "Exercise a running server instead of the embedded store")
	smokeCmd.Flags().StringVarP(&smokeOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

func runSmoke(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(smokeOutput)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var report *smoke.Report
	if smokeServer {
		report, err = smoke.RunServer(ctx, cfg)
	} else {
		report, err = smoke.RunEmbedded(ctx, cfg)
	}
	if err != nil {
		return err
	}

	return output.Print(os.Stdout, format, report)
}
