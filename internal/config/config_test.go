package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/tv-restore-mcp/internal/grid"
	"github.com/ironsheep/tv-restore-mcp/internal/masking"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ModeInpaint, cfg.Mode)
	assert.Equal(t, 100, cfg.Iterations)
	assert.Len(t, cfg.Masks, 4)

	s := cfg.Solver()
	assert.Equal(t, 100, s.Iterations)
	assert.True(t, s.ClampToUnitInterval)
}

func TestParse_OverridesDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`
mode: diffuse
iterations: 250
lambda: 4.5
concurrency: 2
energy_chart: true
history: runs.db
log:
  level: debug
  file:
    path: /tmp/tv.log
`))
	require.NoError(t, err)
	assert.Equal(t, ModeDiffuse, cfg.Mode)
	assert.Equal(t, 250, cfg.Iterations)
	assert.Equal(t, float32(4.5), cfg.Lambda)
	assert.Equal(t, 2, cfg.Workers())
	assert.True(t, cfg.EnergyChart)
	assert.Equal(t, "runs.db", cfg.History)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/tv.log", cfg.Log.File.Path)
	// Untouched fields keep their defaults.
	assert.Equal(t, "clamp", cfg.Rescale)

	s := cfg.Solver()
	assert.False(t, s.ClampToUnitInterval)
	assert.Equal(t, float32(4.5), s.Lambda)
}

func TestParse_ClampOverride(t *testing.T) {
	cfg, err := Parse(strings.NewReader("mode: diffuse\nclamp: true\n"))
	require.NoError(t, err)
	assert.True(t, cfg.Solver().ClampToUnitInterval)

	cfg, err = Parse(strings.NewReader("clamp: false\n"))
	require.NoError(t, err)
	assert.False(t, cfg.Solver().ClampToUnitInterval)
}

func TestParse_Masks(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`
masks:
  - type: region
    region: top-left
  - type: rectangle
    x1: 1
    y1: 2
    x2: 5
    y2: 6
`))
	require.NoError(t, err)
	require.Len(t, cfg.Masks, 2)
	assert.Equal(t, masking.Spec{Type: "region", Region: "top-left"}, cfg.Masks[0])
	assert.Equal(t, 5, cfg.Masks[1].X2)
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{"bad mode", "mode: sharpen\n", grid.ErrInvalidParameter},
		{"negative iterations", "iterations: -1\n", grid.ErrInvalidParameter},
		{"negative lambda", "lambda: -2\n", grid.ErrInvalidParameter},
		{"negative noise", "mode: diffuse\nnoise: -0.1\n", grid.ErrInvalidParameter},
		{"no masks", "masks: []\n", grid.ErrInvalidParameter},
		{"bad mask", "masks:\n  - type: blob\n", grid.ErrInvalidParameter},
		{"masked diffuse without masks", "mode: diffuse\ndiffuse_masked: true\nmasks: []\n", grid.ErrInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	_, err := Parse(strings.NewReader("iterationz: 3\n"))
	assert.Error(t, err, "unknown keys are rejected")
	_, err = Parse(strings.NewReader("iterations: [\n"))
	assert.Error(t, err)
}

func TestParse_DiffuseMasks(t *testing.T) {
	cfg, err := Parse(strings.NewReader("mode: diffuse\nmasks: []\n"))
	require.NoError(t, err, "plain diffuse ignores masks")
	assert.False(t, cfg.DiffuseMasked)

	cfg, err = Parse(strings.NewReader("mode: diffuse\ndiffuse_masked: true\nmasks:\n  - type: random\n"))
	require.NoError(t, err)
	assert.True(t, cfg.DiffuseMasked)
	require.Len(t, cfg.Masks, 1)
	assert.Equal(t, "random-50", cfg.Masks[0].String())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("iterations: 7\nseed: 42\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Iterations)
	assert.Equal(t, int64(42), cfg.Seed)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
