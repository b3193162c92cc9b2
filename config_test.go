package circle_test

import (
	"context"
	"embed"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/afs"
	_ "github.com/viant/afs/embed"
	"github.com/viant/circle"
)

//go:embed testdata/*
var embedFS embed.FS

func TestLoadConfig(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()

	cfg, err := circle.LoadConfig(ctx, fs, "embed:///testdata/config.yaml", &embedFS)
	assert.NoError(t, err)
	assert.Equal(t, 4, cfg.Rank)
	assert.Equal(t, 4096, cfg.Buffer.Floor)
	assert.Equal(t, 64<<20, cfg.Buffer.Limit)
	assert.Equal(t, 256<<10, cfg.Buffer.Retain)
	assert.Equal(t, "/var/lib/circle", cfg.Checkpoint.BaseURL)
	assert.Equal(t, 5, cfg.Checkpoint.MaxReadErrors)
	assert.Equal(t, "circle", cfg.Tracing.ServiceName, "unset fields keep defaults")
}

func TestLoadConfig_JSON(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	URL := "mem://localhost/config/circle.json"
	assert.NoError(t, fs.Upload(ctx, URL, 0644, strings.NewReader(`{"rank": 2, "checkpoint": {"maxReadErrors": 1}}`)))

	cfg, err := circle.LoadConfig(ctx, fs, URL)
	assert.NoError(t, err)
	assert.Equal(t, 2, cfg.Rank)
	assert.Equal(t, 1, cfg.Checkpoint.MaxReadErrors)
}

func TestLoadConfig_Invalid(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()

	testCases := []struct {
		description string
		content     string
	}{
		{description: "negative rank", content: "rank: -1"},
		{description: "floor above limit", content: "buffer:\n  floor: 100\n  limit: 10"},
		{description: "malformed", content: "rank: [1"},
	}
	for i, tc := range testCases {
		URL := "mem://localhost/config/invalid" + string(rune('a'+i)) + ".yaml"
		assert.NoError(t, fs.Upload(ctx, URL, 0644, strings.NewReader(tc.content)), tc.description)
		_, err := circle.LoadConfig(ctx, fs, URL)
		assert.Error(t, err, tc.description)
	}

	_, err := circle.LoadConfig(ctx, fs, "mem://localhost/config/missing.yaml")
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, circle.DefaultConfig().Validate())
	var nilConfig *circle.Config
	assert.NoError(t, nilConfig.Validate())

	cfg := circle.DefaultConfig()
	cfg.Checkpoint.MaxReadErrors = 0
	assert.Error(t, cfg.Validate())
}
