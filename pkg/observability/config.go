// Package observability provides OpenTelemetry-based tracing, metrics, and
// structured logging for depinfer runs.
package observability

import (
	"io"
	"log/slog"
)

// LogFormat selects the log record encoding.
type LogFormat string

const (
	// LogFormatText renders human-readable records for terminals.
	LogFormatText LogFormat = "text"
	// LogFormatJSON renders one JSON object per record.
	LogFormatJSON LogFormat = "json"
)

const (
	// defaultServiceName is the default OTel service name.
	defaultServiceName = "depinfer"

	// defaultShutdownTimeoutSec is the default shutdown timeout in seconds.
	defaultShutdownTimeoutSec = 5
)

// Config holds all observability configuration.
type Config struct {
	// ServiceName is the OTel resource service name.
	ServiceName string

	// ServiceVersion is the semantic version of the running binary.
	ServiceVersion string

	// RunID identifies one invocation in logs and telemetry.
	RunID string

	// Command is the CLI command being run (e.g. "generate").
	Command string

	// OTLPEndpoint is the OTLP gRPC collector address (e.g. "localhost:4317").
	// Empty disables export; tracing becomes no-op.
	OTLPEndpoint string

	// OTLPHeaders are additional gRPC metadata headers for the OTLP exporter.
	OTLPHeaders map[string]string

	// OTLPInsecure disables TLS for the OTLP gRPC connection.
	OTLPInsecure bool

	// SampleRatio is the trace sampling ratio (0.0 to 1.0).
	// Zero uses parent-based sampling with an always-on root.
	SampleRatio float64

	// MetricsFile is a Prometheus textfile written at shutdown.
	// Empty disables the textfile export.
	MetricsFile string

	// LogLevel controls the minimum slog severity.
	LogLevel slog.Level

	// LogFormat selects text or JSON log output.
	LogFormat LogFormat

	// LogOutput receives log records. Nil means stderr.
	LogOutput io.Writer

	// ShutdownTimeoutSec is the maximum seconds to wait for flush on shutdown.
	ShutdownTimeoutSec int
}

// DefaultConfig returns a Config with sensible defaults for zero-config startup.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		LogLevel:           slog.LevelInfo,
		LogFormat:          LogFormatText,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}

// ParseLogLevel maps a level name to a slog level. Unknown names map to info.
func ParseLogLevel(name string) slog.Level {
	var level slog.Level

	err := level.UnmarshalText([]byte(name))
	if err != nil {
		return slog.LevelInfo
	}

	return level
}
