package circle

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/circle/internal/buffer"
	"github.com/viant/circle/service/checkpoint"
	"github.com/viant/circle/service/queue"
	"gopkg.in/yaml.v3"
)

// Config is the serialisable service configuration. It can be decoded from
// YAML or JSON; fields left out keep their DefaultConfig values.
type Config struct {
	Rank       int              `json:"rank" yaml:"rank"`
	Buffer     BufferConfig     `json:"buffer" yaml:"buffer"`
	Checkpoint CheckpointConfig `json:"checkpoint" yaml:"checkpoint"`
	Tracing    TracingConfig    `json:"tracing" yaml:"tracing"`
}

// BufferConfig controls the pack arena growth policy.
type BufferConfig struct {
	// Floor is the smallest arena capacity; 0 selects the OS page size.
	Floor int `json:"floor" yaml:"floor"`
	// Limit caps the arena capacity; 0 disables the cap.
	Limit int `json:"limit" yaml:"limit"`
	// Retain is the arena capacity kept after a pack.
	Retain int `json:"retain" yaml:"retain"`
}

// CheckpointConfig controls where checkpoints live and how restores recover.
type CheckpointConfig struct {
	// BaseURL is the checkpoint location; empty means the working directory.
	BaseURL       string `json:"baseURL" yaml:"baseURL"`
	MaxReadErrors int    `json:"maxReadErrors" yaml:"maxReadErrors"`
}

// TracingConfig enables the stdout span exporter.
type TracingConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	ServiceName    string `json:"serviceName" yaml:"serviceName"`
	ServiceVersion string `json:"serviceVersion" yaml:"serviceVersion"`
	OutputFile     string `json:"outputFile" yaml:"outputFile"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Buffer: BufferConfig{
			Limit:  buffer.DefaultLimit,
			Retain: queue.DefaultRetain,
		},
		Checkpoint: CheckpointConfig{
			MaxReadErrors: checkpoint.DefaultMaxReadErrors,
		},
		Tracing: TracingConfig{
			ServiceName:    "circle",
			ServiceVersion: "0.1.0",
		},
	}
}

// Validate returns an error describing the first invalid setting.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.Rank < 0 {
		return fmt.Errorf("rank must be >= 0, got %d", c.Rank)
	}
	if c.Buffer.Floor < 0 {
		return fmt.Errorf("buffer.floor must be >= 0, got %d", c.Buffer.Floor)
	}
	if c.Buffer.Limit < 0 {
		return fmt.Errorf("buffer.limit must be >= 0, got %d", c.Buffer.Limit)
	}
	if c.Buffer.Limit > 0 && c.Buffer.Floor > c.Buffer.Limit {
		return fmt.Errorf("buffer.floor %d exceeds buffer.limit %d", c.Buffer.Floor, c.Buffer.Limit)
	}
	if c.Buffer.Retain < 0 {
		return fmt.Errorf("buffer.retain must be >= 0, got %d", c.Buffer.Retain)
	}
	if c.Checkpoint.MaxReadErrors <= 0 {
		return fmt.Errorf("checkpoint.maxReadErrors must be > 0, got %d", c.Checkpoint.MaxReadErrors)
	}
	return nil
}

// LoadConfig decodes a YAML or JSON document at URL over DefaultConfig and
// validates the result. Storage options (e.g. an *embed.FS) are passed to fs.
func LoadConfig(ctx context.Context, fs afs.Service, URL string, options ...storage.Option) (*Config, error) {
	if fs == nil {
		fs = afs.New()
	}
	data, err := fs.DownloadWithURL(ctx, URL, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", URL, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", URL, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", URL, err)
	}
	return cfg, nil
}

func (c *Config) queueOptions() []queue.Option {
	var ret []queue.Option
	if c.Buffer.Floor > 0 {
		ret = append(ret, queue.WithBufferFloor(c.Buffer.Floor))
	}
	ret = append(ret, queue.WithBufferLimit(c.Buffer.Limit), queue.WithRetain(c.Buffer.Retain))
	return ret
}
