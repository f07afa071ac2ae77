package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// sampleConfig is written by `chromactl init`. It documents every knob with
// its default value so operators can start from a working file.
const sampleConfig = `# chromactl configuration
#
# Every value can be overridden with an environment variable using the
# CHROMACTL_ prefix, e.g. CHROMACTL_SERVER_HTTP_PORT=9000.

server:
  # Host and ports the ChromaDB server binds to.
  host: localhost
  http_port: 8000
  grpc_port: 8001

  # Persistence directory handed to the server (created if absent).
  data_dir: ./chromadb_data

  # Server stdout/stderr log, resolved inside data_dir unless absolute.
  log_file: server.log

  # Interpreter used to run the chromadb CLI module.
  python: python3

  # CORS allow-list passed to the server. ["*"] allows all origins.
  cors_origins:
    - "*"

  # Anonymized telemetry opt-in for the server (default: disabled).
  telemetry: false

readiness:
  # Bounded heartbeat poll after launch: attempts x interval, no backoff.
  attempts: 5
  interval: 2s
  timeout: 2s

logging:
  level: INFO    # DEBUG, INFO, WARN, ERROR
  format: text   # text, json
  output: stderr # stdout, stderr, or a file path

smoke:
  collection: smoke_test
  results: 2

watch:
  interval: 10s
  # Serve Prometheus metrics on this port while watching (0 disables).
  metrics_port: 0
`

// InitConfig writes a sample configuration file to the default location.
// Returns the path written. Fails if the file exists unless force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	return path, InitConfigToPath(path, force)
}

// InitConfigToPath writes a sample configuration file to the given path.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
