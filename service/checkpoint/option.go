package checkpoint

import (
	"log/slog"

	"github.com/viant/afs"
)

// DefaultMaxReadErrors is the number of consecutive line read failures
// tolerated before a restore gives up.
const DefaultMaxReadErrors = 3

// Option configures a Service.
type Option func(s *Service)

// WithFs sets the storage service.
func WithFs(fs afs.Service) Option {
	return func(s *Service) {
		s.fs = fs
	}
}

// WithBaseURL sets the location checkpoint files are resolved against.
func WithBaseURL(baseURL string) Option {
	return func(s *Service) {
		s.baseURL = baseURL
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxReadErrors sets how many consecutive line failures a restore tolerates.
func WithMaxReadErrors(max int) Option {
	return func(s *Service) {
		if max > 0 {
			s.maxReadErrors = max
		}
	}
}
