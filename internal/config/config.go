// Package config loads the scanforge configuration from a YAML file and
// SCANFORGE_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/gardar/scanforge/internal/logger"
	"github.com/gardar/scanforge/pkg/fontsize"
	"github.com/gardar/scanforge/pkg/geometry"
	"github.com/gardar/scanforge/pkg/overlap"
	"github.com/gardar/scanforge/pkg/render"
	"github.com/gardar/scanforge/pkg/review"
	"github.com/gardar/scanforge/pkg/scanpdf"
)

// Config is the file and environment view of a run
type Config struct {
	Mode            string                 `yaml:"mode"`
	FontBuckets     *fontsize.Buckets      `yaml:"font_buckets"`
	DetectFootnotes bool                   `yaml:"detect_footnotes"`
	FixOverlap      bool                   `yaml:"fix_overlap"`
	Overlap         overlap.Options        `yaml:"overlap"`
	PageSize        string                 `yaml:"page_size"`
	FlowMarginCM    float64                `yaml:"flow_margin_cm"`
	ImageRoot       string                 `yaml:"image_root"`
	Fonts           []render.FontCandidate `yaml:"fonts"`
	Debug           bool                   `yaml:"debug"`
	LayerName       string                 `yaml:"layer_name"`
	Title           string                 `yaml:"title"`
	ReviewThreshold float64                `yaml:"review_threshold"`
	Logging         logger.Options         `yaml:"logging"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		Mode:            string(scanpdf.ModeFlow),
		Overlap:         overlap.DefaultOptions(),
		PageSize:        string(render.SourceSize),
		ReviewThreshold: review.DefaultThreshold,
		Logging: logger.Options{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 10,
			MaxAgeDays: 30,
			Compress:   true,
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. An empty path skips the file. Values from a .env
// file in the working directory are loaded when it exists.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := decode(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := LoadDotEnv(".env"); err != nil {
		return cfg, err
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadDotEnv loads the given .env files. Missing files are ignored and
// variables already set in the environment win.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ToRender converts the configuration into assembler options. The result is
// validated.
func (c Config) ToRender(log *zerolog.Logger, obs scanpdf.Observer) (scanpdf.Config, error) {
	mode, err := scanpdf.ParseMode(c.Mode)
	if err != nil {
		return scanpdf.Config{}, err
	}
	if c.ReviewThreshold < 0 || c.ReviewThreshold > 1 {
		return scanpdf.Config{}, fmt.Errorf("review threshold must be within [0,1], got %g", c.ReviewThreshold)
	}

	out := scanpdf.Config{
		Mode:            mode,
		FontBuckets:     c.FontBuckets,
		DetectFootnotes: c.DetectFootnotes,
		FixOverlap:      c.FixOverlap,
		Overlap:         c.Overlap,
		PageSize:        render.PageSize(c.PageSize),
		FlowMargin:      c.FlowMarginCM * geometry.CM,
		ImageRoot:       c.ImageRoot,
		Fonts:           c.Fonts,
		Debug:           c.Debug,
		LayerName:       c.LayerName,
		Title:           c.Title,
		Logger:          log,
		Observer:        obs,
	}
	if err := out.Validate(); err != nil {
		return scanpdf.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return out, nil
}
