// Package config loads nestcanvas settings: built-in defaults, then the YAML
// file, then NESTCANVAS_* environment variables, then validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"nestcanvas/internal/arrow"
	"nestcanvas/internal/canvas"
	"nestcanvas/internal/export"
	"nestcanvas/internal/snapping"
	"nestcanvas/internal/store"
)

// Backend names accepted by Config.Backend.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Config is the full application configuration.
type Config struct {
	DataDir       string `yaml:"data_dir" validate:"required"`
	Backend       string `yaml:"backend" validate:"oneof=sqlite file memory"`
	LogLevel      string `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFile       string `yaml:"log_file"`
	Debugging     bool   `yaml:"debugging"`
	SaveDirectory string `yaml:"save_directory"`
	Confirmations bool   `yaml:"confirmations"`

	Canvas Canvas      `yaml:"canvas"`
	Store  StoreConfig `yaml:"store"`

	// Path is the file the config was read from, empty when none existed.
	Path string `yaml:"-"`
}

// Canvas holds the engine tunables.
type Canvas struct {
	MinScale           float64 `yaml:"min_scale" validate:"gt=0"`
	MaxScale           float64 `yaml:"max_scale" validate:"gtfield=MinScale"`
	SnapTolerance      float64 `yaml:"snap_tolerance" validate:"gte=0"`
	GuidelineTolerance float64 `yaml:"guideline_tolerance" validate:"gtefield=SnapTolerance"`
	SnapGap            float64 `yaml:"snap_gap" validate:"gte=0"`
	ArrowPadding       float64 `yaml:"arrow_padding" validate:"gte=0"`
	ArrowMinMargin     float64 `yaml:"arrow_min_margin" validate:"gte=0"`
	HistoryLength      int     `yaml:"history_length" validate:"min=1"`
	ReparentOffset     float64 `yaml:"reparent_offset" validate:"gte=0"`
	DefaultBlockWidth  float64 `yaml:"default_block_width" validate:"gt=0"`
	CreateOffset       float64 `yaml:"create_offset" validate:"gte=0"`
}

// StoreConfig controls how often the buffered store commits.
type StoreConfig struct {
	FlushInterval  time.Duration `yaml:"flush_interval" validate:"gt=0"`
	FlushThreshold int           `yaml:"flush_threshold" validate:"min=1"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	dataDir := ".nestcanvas"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".nestcanvas")
	}
	return &Config{
		DataDir:       dataDir,
		Backend:       BackendSQLite,
		LogLevel:      "info",
		Confirmations: true,
		Canvas: Canvas{
			MinScale:           0.1,
			MaxScale:           4,
			SnapTolerance:      12,
			GuidelineTolerance: 64,
			SnapGap:            5,
			ArrowPadding:       8,
			ArrowMinMargin:     40,
			HistoryLength:      32,
			ReparentOffset:     48,
			DefaultBlockWidth:  300,
			CreateOffset:       24,
		},
		Store: StoreConfig{
			FlushInterval:  2 * time.Second,
			FlushThreshold: 32,
		},
	}
}

var validate = validator.New()

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// LogPath is where the log file goes.
func (c *Config) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(c.DataDir, "nestcanvas.log")
}

// StorePath is the database or snapshot file of the configured backend.
func (c *Config) StorePath() string {
	switch c.Backend {
	case BackendFile:
		return filepath.Join(c.DataDir, "canvas.json")
	default:
		return filepath.Join(c.DataDir, "canvas.db")
	}
}

// SavePath places an exported file in SaveDirectory, creating it as needed.
func (c *Config) SavePath(filename string) string {
	if c.SaveDirectory == "" || filepath.IsAbs(filename) {
		return filename
	}
	os.MkdirAll(c.SaveDirectory, 0o755)
	return filepath.Join(c.SaveDirectory, filename)
}

// SnapOptions converts the tunables for the snapping engine.
func (c Canvas) SnapOptions() snapping.Options {
	return snapping.Options{
		SnapTolerance:      c.SnapTolerance,
		GuidelineTolerance: c.GuidelineTolerance,
		Gap:                c.SnapGap,
	}
}

// ArrowOptions converts the tunables for arrow routing.
func (c Canvas) ArrowOptions() arrow.Options {
	return arrow.Options{Padding: c.ArrowPadding, MinMargin: c.ArrowMinMargin}
}

// EngineOptions converts the tunables for the canvas reducer.
func (c Canvas) EngineOptions() canvas.Options {
	opts := canvas.DefaultOptions()
	opts.MinScale = c.MinScale
	opts.MaxScale = c.MaxScale
	opts.Snap = c.SnapOptions()
	opts.HistoryLength = c.HistoryLength
	opts.ReparentOffset = c.ReparentOffset
	opts.DefaultBlockWidth = c.DefaultBlockWidth
	opts.CreateOffset = c.CreateOffset
	return opts
}

// ExportOptions sizes PNG exports like the canvas.
func (c Canvas) ExportOptions() export.Options {
	opts := export.DefaultOptions()
	opts.Arrow = c.ArrowOptions()
	opts.DefaultBlockWidth = c.DefaultBlockWidth
	return opts
}

// BufferOptions converts the store section for the buffered store.
func (s StoreConfig) BufferOptions() store.BufferOptions {
	return store.BufferOptions{FlushInterval: s.FlushInterval, FlushThreshold: s.FlushThreshold}
}

// expandHome resolves a leading "~" and makes p absolute.
func expandHome(p string) string {
	if p == "" {
		return p
	}
	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	if !filepath.IsAbs(p) {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
	}
	return p
}
