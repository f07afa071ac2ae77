package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agentplatform/chromactl/internal/logger"
	"github.com/agentplatform/chromactl/pkg/lifecycle"
)

var startPidFile string

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a ChromaDB server and wait until it is ready",
	Long: `Start a ChromaDB server and supervise it.

The command runs preflight checks (Python runtime, chromadb client library,
data directory, port availability), launches the server subprocess with its
stdout and stderr redirected to the server log, and polls the heartbeat
endpoint until the server answers. It then prints connection information and
blocks until interrupted; Ctrl+C stops the server gracefully.

Examples:
  # Start with default configuration
  chromactl start

  # Start with a custom config file
  chromactl start --config ./chromactl.yaml

  # Override configuration via environment
  CHROMACTL_SERVER_HTTP_PORT=9000 chromactl start`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().StringVar(&startPidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/chromactl/chromactl.pid)")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))

	// Operator interrupts cancel every blocking phase, including the
	// readiness wait.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sup := lifecycle.New(cfg)

	results, err := sup.CheckPreconditions(ctx)
	for _, r := range results {
		if r.OK() {
			logger.Info("Preflight check passed", "check", r.Name, "detail", r.Detail)
		} else {
			logger.Error("Preflight check failed", "check", r.Name, "error", r.Err)
		}
	}
	if err != nil {
		return err
	}

	handle, err := sup.Launch()
	if err != nil {
		return err
	}

	pidPath, err := writePidFile(handle.PID())
	if err != nil {
		logger.Warn("Could not write PID file", "error", err)
	} else {
		defer func() { _ = os.Remove(pidPath) }()
	}

	info, err := sup.AwaitReady(ctx, handle)
	if err != nil {
		// The child may still be running after a readiness failure or an
		// interrupt during the wait; don't leave it orphaned.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Readiness.Timeout)
		_ = handleShutdown(shutdownCtx, sup, handle)
		cancel()
		return err
	}

	printConnectionInfo(cfg.Server.BaseURL(), cfg.Server.DataDir, cfg.Server.LogPath(), handle.PID(), sup, info)

	// Block until the operator interrupts or the child exits on its own.
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received, stopping server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Readiness.Timeout)
		defer cancel()
		if err := sup.Shutdown(shutdownCtx, handle); err != nil {
			return err
		}
		fmt.Println("Server stopped gracefully")
		return nil

	case <-handle.Done():
		return fmt.Errorf("server exited unexpectedly: %v", handle.ExitErr())
	}
}

// handleShutdown stops the child regardless of supervisor state. After a
// failed readiness wait the supervisor is already in a terminal state and
// Shutdown would be a no-op, so fall back to the handle directly.
func handleShutdown(ctx context.Context, sup *lifecycle.Supervisor, handle *lifecycle.Handle) error {
	if err := sup.Shutdown(ctx, handle); err != nil {
		return err
	}
	if !handle.Exited() {
		return handle.Stop(ctx)
	}
	return nil
}

// writePidFile records the child PID in the state directory.
func writePidFile(pid int) (string, error) {
	pidPath := startPidFile
	if pidPath == "" {
		pidPath = GetDefaultPidFile()
	}

	if err := os.MkdirAll(filepath.Dir(pidPath), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(pidPath, []byte(fmt.Sprintf("%d", pid)), 0644); err != nil {
		return "", err
	}
	return pidPath, nil
}

func printConnectionInfo(baseURL, dataDir, logPath string, pid int, sup *lifecycle.Supervisor, info map[string]any) {
	fmt.Println()
	fmt.Println("ChromaDB server is ready")
	fmt.Println("========================")
	fmt.Printf("  URL:        %s\n", baseURL)
	fmt.Printf("  PID:        %d\n", pid)
	fmt.Printf("  Data dir:   %s\n", dataDir)
	fmt.Printf("  Log file:   %s\n", logPath)
	if v := sup.PythonVersion(); v != "" {
		fmt.Printf("  Python:     %s\n", v)
	}
	if v := sup.ChromaVersion(); v != "" {
		fmt.Printf("  chromadb:   %s\n", v)
	}
	if len(info) > 0 {
		fmt.Printf("  Heartbeat:  %v\n", info)
	}
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop the server.")
}
