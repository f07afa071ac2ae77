package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agentplatform/chromactl/internal/cli/output"
	"github.com/agentplatform/chromactl/pkg/heartbeat"
)

var (
	statusOutput  string
	statusPidFile string
	statusWait    bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	Long: `Display the current status of the ChromaDB server.

The command checks the PID file for a supervised process and probes the
heartbeat endpoint. With --wait it polls the heartbeat with the configured
readiness budget instead of probing once, which is useful right after a
server was started elsewhere.

Examples:
  # Check status once
  chromactl status

  # Wait for the server to become ready
  chromactl status --wait

  # Output as JSON
  chromactl status -o json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusPidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/chromactl/chromactl.pid)")
	statusCmd.Flags().BoolVar(&statusWait, "wait", false, "Poll the heartbeat with the configured readiness budget")
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

// ServerStatus represents the server status information.
type ServerStatus struct {
	Ready     bool   `json:"ready" yaml:"ready"`
	PID       int    `json:"pid,omitempty" yaml:"pid,omitempty"`
	URL       string `json:"url" yaml:"url"`
	Attempts  int    `json:"attempts,omitempty" yaml:"attempts,omitempty"`
	Heartbeat any    `json:"heartbeat,omitempty" yaml:"heartbeat,omitempty"`
	Message   string `json:"message" yaml:"message"`
}

func (s *ServerStatus) Headers() []string {
	return []string{"READY", "PID", "URL", "MESSAGE"}
}

func (s *ServerStatus) Rows() [][]string {
	pid := ""
	if s.PID != 0 {
		pid = strconv.Itoa(s.PID)
	}
	return [][]string{{fmt.Sprintf("%t", s.Ready), pid, s.URL, s.Message}}
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(statusOutput)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	status := &ServerStatus{URL: cfg.Server.BaseURL()}
	status.PID = readPidFile(statusPidFile)

	hb := heartbeat.New(cfg.Server.HeartbeatURL(), cfg.Readiness.Timeout)

	if statusWait {
		info, attempts, err := hb.Await(ctx, cfg.Readiness.Attempts, cfg.Readiness.Interval)
		status.Attempts = attempts
		if err != nil {
			status.Message = fmt.Sprintf("Server is not ready: %v", err)
		} else {
			status.Ready = true
			status.Heartbeat = info
			status.Message = fmt.Sprintf("Server answered after %d probe(s)", attempts)
		}
	} else {
		info, err := hb.Beat(ctx)
		if err != nil {
			status.Message = fmt.Sprintf("Server is not answering: %v", err)
		} else {
			status.Ready = true
			status.Heartbeat = info
			status.Message = "Server is running and answering the heartbeat"
		}
	}

	if err := output.Print(os.Stdout, format, status); err != nil {
		return err
	}

	if !status.Ready {
		return fmt.Errorf("server at %s is not ready", status.URL)
	}
	return nil
}

// readPidFile returns the PID recorded by a previous start, or 0.
func readPidFile(path string) int {
	if path == "" {
		path = GetDefaultPidFile()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}

	// A stale PID file does not mean a running process.
	process, err := os.FindProcess(pid)
	if err != nil {
		return 0
	}
	if err := process.Signal(syscall.Signal(0)); err != nil {
		return 0
	}
	return pid
}
