// Package config loads batch restoration settings from YAML.
//
// Fields left out of the file keep the values of Default, so a file only
// needs to name what it changes:
//
//	mode: inpaint
//	iterations: 200
//	masks:
//	  - type: random
//	    ratio: 0.6
//	  - type: region
//	    region: top-left
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/tv-restore-mcp/internal/grid"
	"github.com/ironsheep/tv-restore-mcp/internal/logging"
	"github.com/ironsheep/tv-restore-mcp/internal/masking"
	"github.com/ironsheep/tv-restore-mcp/internal/tv"
)

// Restoration modes.
const (
	ModeInpaint = "inpaint"
	ModeDiffuse = "diffuse"
)

// Config describes one batch run.
type Config struct {
	// Mode is ModeInpaint or ModeDiffuse.
	Mode string `yaml:"mode"`

	Iterations int     `yaml:"iterations"`
	Lambda     float32 `yaml:"lambda"`

	// Noise is the standard deviation of the Gaussian noise added before a
	// diffuse run. 0 restores the image as loaded.
	Noise float64 `yaml:"noise"`

	// Clamp overrides the mode's default [0,1] clamp when set.
	Clamp *bool `yaml:"clamp,omitempty"`

	// Masks lists the masks of an inpainting run; each is solved
	// independently.
	Masks []masking.Spec `yaml:"masks"`

	// DiffuseMasked makes a diffuse run denoise each masked copy of the image
	// instead of the image itself, for comparison with inpainting.
	DiffuseMasked bool `yaml:"diffuse_masked"`

	// Seed drives random masks and noise. Runs with the same seed are
	// reproducible.
	Seed int64 `yaml:"seed"`

	// Concurrency bounds the solver runs in flight. 0 means GOMAXPROCS.
	Concurrency int `yaml:"concurrency"`

	OutputDir string `yaml:"output_dir"`

	// Separate writes one file per panel instead of one composite per mask.
	Separate bool `yaml:"separate"`

	// Rescale is "clamp" or "minmax", see imaging.ParseRescaleMode.
	Rescale string `yaml:"rescale"`

	// EnergyPlot also writes an energy-per-iteration plot per run.
	EnergyPlot bool `yaml:"energy_plot"`

	// EnergyChart also writes an interactive HTML energy chart per run.
	EnergyChart bool `yaml:"energy_chart"`

	// History is the SQLite file runs are recorded in. Empty disables
	// recording.
	History string `yaml:"history"`

	Log LogConfig `yaml:"log"`
}

// LogConfig controls CLI logging.
type LogConfig struct {
	Level string              `yaml:"level"`
	JSON  bool                `yaml:"json"`
	File  logging.FileOptions `yaml:"file"`
}

// Default mirrors the reference inpainting run: 100 iterations over the
// demo masks.
func Default() Config {
	d := tv.DefaultDiffusionConfig()
	return Config{
		Mode:       ModeInpaint,
		Iterations: d.Iterations,
		Lambda:     d.Lambda,
		Masks:      masking.DemoSpecs(),
		Seed:       1,
		OutputDir:  ".",
		Rescale:    "clamp",
		Log:        LogConfig{Level: "INFO"},
	}
}

// Load reads the YAML file at path over Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over Default and validates the result. Unknown keys are
// rejected.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	c.Mode = strings.ToLower(c.Mode)
	switch c.Mode {
	case ModeInpaint, ModeDiffuse:
	default:
		return fmt.Errorf("unknown mode %q: %w", c.Mode, grid.ErrInvalidParameter)
	}
	if c.Mode == ModeInpaint || c.DiffuseMasked {
		if len(c.Masks) == 0 {
			return fmt.Errorf("%s mode needs at least one mask: %w", c.Mode, grid.ErrInvalidParameter)
		}
		for i, m := range c.Masks {
			if err := m.Validate(); err != nil {
				return fmt.Errorf("mask %d: %w", i, err)
			}
		}
	}
	if c.Iterations < 0 {
		return fmt.Errorf("iterations %d: %w", c.Iterations, grid.ErrInvalidParameter)
	}
	if c.Lambda < 0 {
		return fmt.Errorf("lambda %v: %w", c.Lambda, grid.ErrInvalidParameter)
	}
	if c.Noise < 0 {
		return fmt.Errorf("noise %v: %w", c.Noise, grid.ErrInvalidParameter)
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency %d: %w", c.Concurrency, grid.ErrInvalidParameter)
	}
	return nil
}

// Workers returns the effective concurrency.
func (c Config) Workers() int {
	if c.Concurrency > 0 {
		return c.Concurrency
	}
	return runtime.GOMAXPROCS(0)
}

// Solver returns the tv.Config for the configured mode.
func (c Config) Solver() tv.Config {
	s := tv.DefaultInpaintingConfig()
	if c.Mode == ModeDiffuse {
		s = tv.DefaultDiffusionConfig()
	}
	s.Iterations = c.Iterations
	s.Lambda = c.Lambda
	if c.Clamp != nil {
		s.ClampToUnitInterval = *c.Clamp
	}
	return s
}
