// Package config loads and validates the chromactl configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (CHROMACTL_*)
//  2. Configuration file (YAML)
//  3. Default values
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the chromactl configuration.
//
// It captures everything the lifecycle checker needs to bring up a ChromaDB
// server: where to run it, where it persists data, how its environment is
// shaped, and how readiness is probed. The database contents themselves
// (collections, documents, embeddings) are owned by ChromaDB and never
// modeled here.
type Config struct {
	// Server describes the ChromaDB server process to launch and probe.
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Readiness controls heartbeat polling after launch.
	Readiness ReadinessConfig `mapstructure:"readiness" yaml:"readiness"`

	// Logging controls chromactl's own log output (not the server log).
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Smoke configures the database smoke exercise.
	Smoke SmokeConfig `mapstructure:"smoke" yaml:"smoke"`

	// Watch configures continuous heartbeat watching and its metrics endpoint.
	Watch WatchConfig `mapstructure:"watch" yaml:"watch"`
}

// ServerConfig describes the external ChromaDB server.
type ServerConfig struct {
	// Host the server binds to.
	Host string `mapstructure:"host" validate:"required" yaml:"host"`

	// HTTPPort is the server's HTTP API port (heartbeat lives here).
	HTTPPort int `mapstructure:"http_port" validate:"required,min=1,max=65535" yaml:"http_port"`

	// GRPCPort is advertised to the server via its environment.
	GRPCPort int `mapstructure:"grpc_port" validate:"omitempty,min=1,max=65535" yaml:"grpc_port"`

	// DataDir is the persistence directory handed to the server.
	// Created by the preflight checks if absent; never cleaned up.
	DataDir string `mapstructure:"data_dir" validate:"required" yaml:"data_dir"`

	// LogFile is where the server's stdout/stderr are redirected.
	// Relative paths are resolved inside DataDir. Default: server.log.
	LogFile string `mapstructure:"log_file" yaml:"log_file"`

	// Python is the interpreter used to run the chromadb CLI module.
	Python string `mapstructure:"python" validate:"required" yaml:"python"`

	// CORSOrigins is the allow-list handed to the server. ["*"] allows all.
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`

	// Telemetry controls the server's anonymized telemetry opt-in.
	Telemetry bool `mapstructure:"telemetry" yaml:"telemetry"`

	// AuthnProvider and AuthnCredentialsFile are passed through to the
	// server's authentication environment, empty by default.
	AuthnProvider        string `mapstructure:"authn_provider" yaml:"authn_provider,omitempty"`
	AuthnCredentialsFile string `mapstructure:"authn_credentials_file" yaml:"authn_credentials_file,omitempty"`
}

// ReadinessConfig controls heartbeat polling after launch.
//
// The retry budget is bounded and the interval constant; there is no
// backoff. A server that is not ready after Attempts probes is a failure.
type ReadinessConfig struct {
	// Attempts is the maximum number of heartbeat probes.
	Attempts int `mapstructure:"attempts" validate:"required,min=1" yaml:"attempts"`

	// Interval is the constant pause between probes.
	Interval time.Duration `mapstructure:"interval" validate:"required,gt=0" yaml:"interval"`

	// Timeout bounds each individual heartbeat request.
	Timeout time.Duration `mapstructure:"timeout" validate:"required,gt=0" yaml:"timeout"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format: text or json.
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written: stdout, stderr, or a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// SmokeConfig configures the database smoke exercise.
type SmokeConfig struct {
	// Collection is the name of the collection exercised by the smoke test.
	Collection string `mapstructure:"collection" validate:"required" yaml:"collection"`

	// Results is the similarity-query result bound.
	Results int `mapstructure:"results" validate:"required,min=1" yaml:"results"`
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	// Interval between heartbeat probes.
	Interval time.Duration `mapstructure:"interval" validate:"required,gt=0" yaml:"interval"`

	// MetricsPort serves Prometheus metrics while watching. 0 disables it.
	MetricsPort int `mapstructure:"metrics_port" validate:"omitempty,min=1,max=65535" yaml:"metrics_port"`
}

// BaseURL returns the server's HTTP base URL.
func (s ServerConfig) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", s.Host, s.HTTPPort)
}

// HeartbeatURL returns the server's heartbeat endpoint.
func (s ServerConfig) HeartbeatURL() string {
	return s.BaseURL() + "/api/v1/heartbeat"
}

// LogPath returns the absolute-or-datadir-relative server log path.
func (s ServerConfig) LogPath() string {
	if s.LogFile == "" {
		return filepath.Join(s.DataDir, "server.log")
	}
	if filepath.IsAbs(s.LogFile) {
		return s.LogFile
	}
	return filepath.Join(s.DataDir, s.LogFile)
}

// Load loads configuration from file, environment, and defaults.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns the loaded and validated configuration. A missing config file is
// not an error; defaults are used so the tool works out of the box.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)
	setDefaults(v)

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every configuration key with viper. AutomaticEnv only
// resolves environment variables for keys viper knows about, so each key must
// be registered here for CHROMACTL_* overrides to apply even when the key is
// absent from the config file (or there is no file at all).
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", DefaultHost)
	v.SetDefault("server.http_port", DefaultHTTPPort)
	v.SetDefault("server.grpc_port", DefaultGRPCPort)
	v.SetDefault("server.data_dir", DefaultDataDir)
	v.SetDefault("server.log_file", DefaultLogFile)
	v.SetDefault("server.python", DefaultPython)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.telemetry", false)
	v.SetDefault("server.authn_provider", "")
	v.SetDefault("server.authn_credentials_file", "")

	v.SetDefault("readiness.attempts", DefaultReadinessAttempts)
	v.SetDefault("readiness.interval", DefaultReadinessInterval)
	v.SetDefault("readiness.timeout", DefaultReadinessTimeout)

	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("smoke.collection", DefaultSmokeCollection)
	v.SetDefault("smoke.results", DefaultSmokeResults)

	v.SetDefault("watch.interval", DefaultWatchInterval)
	v.SetDefault("watch.metrics_port", 0)
}

// SaveConfig saves the configuration to the specified file path in YAML.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variables and config file
// settings. Environment variables use the CHROMACTL_ prefix with underscores,
// e.g. CHROMACTL_SERVER_HTTP_PORT=9000.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("CHROMACTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error).
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// durationDecodeHook converts config strings like "2s" or "500ms" to
// time.Duration. Raw integers are treated as nanoseconds.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "chromactl")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "chromactl")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}
