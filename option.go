package circle

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/viant/afs"
	"github.com/viant/circle/progress"
	"github.com/viant/circle/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option configures a Service.
type Option func(s *Service)

// WithConfig sets the configuration; nil keeps DefaultConfig.
func WithConfig(cfg *Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.config = cfg
		}
	}
}

// WithFs sets the storage used for checkpoints.
func WithFs(fs afs.Service) Option {
	return func(s *Service) {
		s.fs = fs
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithProgressListener registers a callback invoked after every counter update.
func WithProgressListener(cb func(progress.Counters)) Option {
	return func(s *Service) {
		s.onProgress = cb
	}
}

// WithTracingExporter installs a custom OpenTelemetry exporter. Only the
// first successful installation in a process takes effect.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		if err := tracing.InitWithExporter(serviceName, serviceVersion, exporter); err != nil {
			s.initErr = errors.Join(s.initErr, fmt.Errorf("failed to install tracing exporter: %w", err))
		}
	}
}
