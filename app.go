package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"nestcanvas/internal/config"
	"nestcanvas/internal/logging"
	"nestcanvas/internal/store"
)

// app is what every command needs: configuration, a logger and an open
// store.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  store.Store
	close  func() error
}

func configFileName() string { return config.DefaultFileName }

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.Debugging = true
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.Options{
		Path:        cfg.LogPath(),
		Level:       cfg.LogLevel,
		Development: cfg.Debugging,
	})
	if err != nil {
		return nil, err
	}

	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Sync()
		return nil, err
	}
	if _, err := store.EnsureHome(st); err != nil {
		closeStore()
		logger.Sync()
		return nil, err
	}
	logger.Info("store opened",
		zap.String("backend", cfg.Backend),
		zap.String("path", cfg.StorePath()),
	)

	closeApp := func() error {
		err := closeStore()
		if err != nil {
			logger.Error("close store", zap.Error(err))
		}
		logger.Sync()
		return err
	}
	return &app{cfg: cfg, logger: logger, store: st, close: closeApp}, nil
}

// openStore opens the configured backend behind a buffered store. The
// returned func flushes pending writes and closes the backend.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Store, func() error, error) {
	if cfg.Backend == config.BackendMemory {
		return store.NewMemory(), func() error { return nil }, nil
	}

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("create data directory: %w", err)
	}

	var backend store.Backend
	switch cfg.Backend {
	case config.BackendFile:
		backend = store.NewFileBackend(cfg.StorePath())
	case config.BackendSQLite:
		db, err := store.OpenSQLite(store.SQLiteConfig{Path: cfg.StorePath()})
		if err != nil {
			return nil, nil, err
		}
		backend = db
	default:
		return nil, nil, errors.New("unknown backend " + cfg.Backend)
	}

	b, err := store.OpenBuffered(ctx, backend, cfg.Store.BufferOptions(), logger)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}
	b.Start()
	return b, b.Close, nil
}
