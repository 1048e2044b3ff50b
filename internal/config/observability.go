package config

import "time"

// ObservabilityConfig groups configuration for telemetry and runtime
// visibility: structured logging and the slow-query threshold used by the
// data access layer's timing logs.
type ObservabilityConfig struct {
	// ServiceName identifies this service in logs. Forced to "emupost"
	// at load time so nobody configures it into chaos.
	ServiceName string `koanf:"service_name"`

	// Environment labels log output per environment (local, staging,
	// production). Derived from Primary.Env at load time.
	Environment string `koanf:"environment"`

	// Logging controls structured logger behavior.
	Logging LoggingConfig `koanf:"logging"`
}

// LoggingConfig holds application logging configuration.
type LoggingConfig struct {
	// Level is the verbosity threshold (debug/info/warn/error).
	Level string `koanf:"level"`

	// Format selects "json" or "console" output.
	Format string `koanf:"format"`

	// SlowQueryThreshold flags queries slower than this duration.
	// Config values must be parseable durations ("100ms", "1s").
	SlowQueryThreshold time.Duration `koanf:"slow_query_threshold"`
}

// DefaultObservabilityConfig provides defaults used when the
// observability block is absent from the environment.
func DefaultObservabilityConfig() *ObservabilityConfig {
	return &ObservabilityConfig{
		ServiceName: "emupost",
		Environment: "local",
		Logging: LoggingConfig{
			Level:              "info",
			Format:             "json",
			SlowQueryThreshold: 100 * time.Millisecond,
		},
	}
}
