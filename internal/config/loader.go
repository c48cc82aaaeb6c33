package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up in the user's home directory.
const DefaultFileName = ".nestcanvas.yaml"

// Environment variables that override the file.
const (
	EnvDataDir  = "NESTCANVAS_DATA_DIR"
	EnvBackend  = "NESTCANVAS_BACKEND"
	EnvLogLevel = "NESTCANVAS_LOG_LEVEL"
	EnvDebug    = "NESTCANVAS_DEBUG"
)

// DefaultPath returns ~/.nestcanvas.yaml, or "" without a home directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, DefaultFileName)
}

// Load builds the configuration from path. An empty path means DefaultPath,
// which may be missing; an explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	cfg := Default()
	if path != "" {
		err := loadFile(path, cfg)
		switch {
		case err == nil:
			cfg.Path = path
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	cfg.DataDir = expandHome(cfg.DataDir)
	cfg.SaveDirectory = expandHome(cfg.SaveDirectory)
	cfg.LogFile = expandHome(cfg.LogFile)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile overlays the YAML document at path onto cfg. Keys absent from the
// file keep their current values.
func loadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv(EnvBackend); v != "" {
		cfg.Backend = strings.ToLower(v)
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv(EnvDebug); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debugging = b
		}
	}
}
