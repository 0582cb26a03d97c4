// Package observability provides OpenTelemetry tracing, playback metrics, and
// structured logging for dsviz sessions.
package observability

import "log/slog"

// AppMode identifies how the engines are being driven.
type AppMode string

const (
	// ModeEmbedded is a host application calling sessions directly.
	ModeEmbedded AppMode = "embedded"
	// ModeScenario is a scripted scenario replay.
	ModeScenario AppMode = "scenario"
)

const (
	defaultServiceName        = "dsviz"
	defaultShutdownTimeoutSec = 5
)

// Config holds all observability configuration.
type Config struct {
	// ServiceName is the OTel resource service name.
	ServiceName string

	// ServiceVersion is the semantic version of the host.
	ServiceVersion string

	// Environment is the deployment environment (e.g. "classroom", "dev").
	Environment string

	// Mode identifies how the engines are driven.
	Mode AppMode

	// OTLPEndpoint is the OTLP gRPC collector address (e.g. "localhost:4317").
	// Empty disables export; providers become no-op.
	OTLPEndpoint string

	// OTLPHeaders are additional gRPC metadata headers for the OTLP exporter.
	OTLPHeaders map[string]string

	// OTLPInsecure disables TLS for the OTLP gRPC connection.
	OTLPInsecure bool

	// SampleRatio is the trace sampling ratio (0.0 to 1.0).
	// Zero means parent-based with an always-on root.
	SampleRatio float64

	// LogLevel controls the minimum slog severity.
	LogLevel slog.Level

	// LogJSON enables JSON-formatted log output.
	LogJSON bool

	// ShutdownTimeoutSec is the maximum seconds to wait for flush on shutdown.
	ShutdownTimeoutSec int
}

// DefaultConfig returns a Config for zero-config startup.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		Mode:               ModeEmbedded,
		LogLevel:           slog.LevelInfo,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}
