// Package logging builds the application's zap logger. The terminal belongs
// to the UI, so output goes to a file.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the logger flavour.
type Options struct {
	// Path is the log file; "stderr" and "stdout" are accepted too.
	Path  string
	Level string
	// Development switches to the console encoder with debug caller info.
	Development bool
}

// New builds a logger writing to opts.Path.
func New(opts Options) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", opts.Level, err)
	}

	var config zap.Config
	if opts.Development {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	} else {
		config = zap.NewProductionConfig()
		config.Sampling = nil
	}
	config.Level = zap.NewAtomicLevelAt(level)

	out := opts.Path
	if out == "" {
		out = "stderr"
	}
	if out != "stderr" && out != "stdout" {
		if err := os.MkdirAll(filepath.Dir(out), 0o700); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}
	config.OutputPaths = []string{out}
	config.ErrorOutputPaths = []string{out}

	logger, err := config.Build(zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
