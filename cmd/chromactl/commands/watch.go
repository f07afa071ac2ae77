package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/agentplatform/chromactl/internal/logger"
	"github.com/agentplatform/chromactl/pkg/heartbeat"
	"github.com/agentplatform/chromactl/pkg/metrics"
)

var (
	watchInterval    time.Duration
	watchMetricsPort int
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Continuously probe the server heartbeat",
	Long: `Probe the heartbeat endpoint at a fixed interval and log state changes.

With --metrics-port, probe outcomes and latencies are exposed as Prometheus
metrics on /metrics so a scraper can alert on server availability.

Examples:
  # Watch with the configured interval
  chromactl watch

  # Probe every 5 seconds
  chromactl watch --interval 5s

  # Expose Prometheus metrics while watching
  chromactl watch --metrics-port 9090`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "Probe interval (default: from config)")
	watchCmd.Flags().IntVar(&watchMetricsPort, "metrics-port", 0, "Serve Prometheus metrics on this port (default: from config, 0 disables)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	interval := cfg.Watch.Interval
	if watchInterval > 0 {
		interval = watchInterval
	}
	metricsPort := cfg.Watch.MetricsPort
	if watchMetricsPort > 0 {
		metricsPort = watchMetricsPort
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var probeMetrics *metrics.ProbeMetrics
	metricsDone := make(chan error, 1)
	if metricsPort > 0 {
		reg := prometheus.NewRegistry()
		probeMetrics = metrics.NewProbeMetrics(reg)
		go func() { metricsDone <- metrics.Serve(ctx, reg, metricsPort) }()
	}

	hb := heartbeat.New(cfg.Server.HeartbeatURL(), cfg.Readiness.Timeout)
	logger.Info("Watching server", "url", hb.URL(), "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	wasReady, first := false, true
	probe := func() {
		start := time.Now()
		_, err := hb.Beat(ctx)
		elapsed := time.Since(start)
		ready := err == nil

		probeMetrics.RecordProbe(ready, elapsed)

		// Log every transition, but only debug-log steady state.
		switch {
		case first || ready != wasReady:
			if ready {
				logger.Info("Server is ready", "latency", elapsed)
			} else {
				logger.Warn("Server is not answering", "error", err)
			}
		case ready:
			logger.Debug("Heartbeat ok", "latency", elapsed)
		default:
			logger.Debug("Heartbeat failed", "error", err)
		}
		wasReady, first = ready, false
	}

	probe()
	for {
		select {
		case <-ctx.Done():
			logger.Info("Watch stopped")
			if metricsPort > 0 {
				return <-metricsDone
			}
			return nil

		case err := <-metricsDone:
			return err

		case <-ticker.C:
			probe()
		}
	}
}
