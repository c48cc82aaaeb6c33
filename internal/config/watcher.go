package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce collapses the burst of events an editor save produces.
const DefaultDebounce = 300 * time.Millisecond

// Watcher reloads the config file when it changes on disk and hands valid
// results to subscribers. Invalid edits are logged and ignored.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *zap.Logger

	mu        sync.RWMutex
	current   *Config
	callbacks []func(*Config)

	fs     *fsnotify.Watcher
	stopCh chan struct{}
	done   chan struct{}
}

// NewWatcher starts watching initial.Path. The directory is watched rather
// than the file so that save-by-rename editors keep working.
func NewWatcher(initial *Config, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	if initial.Path == "" {
		return nil, fmt.Errorf("config was not loaded from a file")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := fs.Add(filepath.Dir(initial.Path)); err != nil {
		fs.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(initial.Path), err)
	}

	w := &Watcher{
		path:     filepath.Clean(initial.Path),
		debounce: debounce,
		logger:   logger,
		current:  initial,
		fs:       fs,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.loop()
	logger.Debug("watching config", zap.String("path", w.path))
	return w, nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.reload)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watcher error", zap.Error(err))

		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) reload() {
	next, err := Load(w.path)
	if err != nil {
		w.logger.Warn("ignoring config change", zap.Error(err))
		return
	}

	w.mu.Lock()
	if reflect.DeepEqual(w.current, next) {
		w.mu.Unlock()
		return
	}
	w.current = next
	callbacks := make([]func(*Config), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	w.logger.Info("config reloaded", zap.String("path", w.path))
	for i, cb := range callbacks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					w.logger.Error("config callback panicked", zap.Int("callback", i), zap.Any("panic", r))
				}
			}()
			cb(next)
		}()
	}
}

// OnChange registers cb to receive every new configuration.
func (w *Watcher) OnChange(cb func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Current returns the latest valid configuration.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Close stops watching.
func (w *Watcher) Close() error {
	select {
	case <-w.stopCh:
		return nil
	default:
	}
	close(w.stopCh)
	err := w.fs.Close()
	<-w.done
	return err
}
