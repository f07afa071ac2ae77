package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Defaults mirror what operators expect from a stock ChromaDB setup:
// localhost:8000, a chromadb_data directory next to the working directory,
// and a bounded 5x2s readiness poll.
const (
	DefaultHost     = "localhost"
	DefaultHTTPPort = 8000
	DefaultGRPCPort = 8001
	DefaultDataDir  = "./chromadb_data"
	DefaultLogFile  = "server.log"
	DefaultPython   = "python3"

	DefaultReadinessAttempts = 5
	DefaultReadinessInterval = 2 * time.Second
	DefaultReadinessTimeout  = 2 * time.Second

	DefaultSmokeCollection = "smoke_test"
	DefaultSmokeResults    = 2

	DefaultWatchInterval = 10 * time.Second
)

// GetDefaultConfig returns a fully populated default configuration.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults sets default values for any unspecified configuration fields.
// Zero values are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyReadinessDefaults(&cfg.Readiness)
	applyLoggingDefaults(&cfg.Logging)
	applySmokeDefaults(&cfg.Smoke)
	applyWatchDefaults(&cfg.Watch)
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.HTTPPort == 0 {
		cfg.HTTPPort = DefaultHTTPPort
	}
	if cfg.GRPCPort == 0 {
		cfg.GRPCPort = DefaultGRPCPort
	}
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir
	}
	if cfg.LogFile == "" {
		cfg.LogFile = DefaultLogFile
	}
	if cfg.Python == "" {
		cfg.Python = DefaultPython
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	// Telemetry defaults to false (opt-in), zero value is already correct.
}

func applyReadinessDefaults(cfg *ReadinessConfig) {
	if cfg.Attempts == 0 {
		cfg.Attempts = DefaultReadinessAttempts
	}
	if cfg.Interval == 0 {
		cfg.Interval = DefaultReadinessInterval
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultReadinessTimeout
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

func applySmokeDefaults(cfg *SmokeConfig) {
	if cfg.Collection == "" {
		cfg.Collection = DefaultSmokeCollection
	}
	if cfg.Results == 0 {
		cfg.Results = DefaultSmokeResults
	}
}

func applyWatchDefaults(cfg *WatchConfig) {
	if cfg.Interval == 0 {
		cfg.Interval = DefaultWatchInterval
	}
	// MetricsPort defaults to 0 (disabled).
}

// Validate checks the configuration against its struct tags.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		var errs validator.ValidationErrors
		if ok := asValidationErrors(err, &errs); ok {
			fields := make([]string, 0, len(errs))
			for _, fe := range errs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid fields: %s", strings.Join(fields, ", "))
		}
		return err
	}
	return nil
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	if errs, ok := err.(validator.ValidationErrors); ok {
		*target = errs
		return true
	}
	return false
}
