package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nestcanvas/internal/canvas"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func clearEnv(t *testing.T) {
	for _, k := range []string{EnvDataDir, EnvBackend, EnvLogLevel, EnvDebug} {
		t.Setenv(k, "")
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 12.0, cfg.Canvas.SnapTolerance)
	assert.Equal(t, 5.0, cfg.Canvas.SnapGap)
	assert.Equal(t, 300.0, cfg.Canvas.DefaultBlockWidth)
	assert.Equal(t, 2*time.Second, cfg.Store.FlushInterval)
}

func TestLoadOverlaysFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "nc.yaml")
	writeFile(t, path, `
data_dir: `+dir+`
backend: file
canvas:
  snap_tolerance: 8
store:
  flush_interval: 500ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, BackendFile, cfg.Backend)
	assert.Equal(t, 8.0, cfg.Canvas.SnapTolerance)
	assert.Equal(t, 64.0, cfg.Canvas.GuidelineTolerance, "keys missing from the file keep defaults")
	assert.Equal(t, 500*time.Millisecond, cfg.Store.FlushInterval)
	assert.Equal(t, filepath.Join(dir, "canvas.json"), cfg.StorePath())
	assert.Equal(t, filepath.Join(dir, "nestcanvas.log"), cfg.LogPath())
}

func TestLoadEnvWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nc.yaml")
	writeFile(t, path, "backend: file\nlog_level: info\n")
	t.Setenv(EnvDataDir, dir)
	t.Setenv(EnvBackend, "MEMORY")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvDebug, "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, BackendMemory, cfg.Backend)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Debugging)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err, "an explicit path must exist")

	bad := filepath.Join(dir, "bad.yaml")
	writeFile(t, bad, "backend: [not, a, string]\n")
	_, err = Load(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	writeFile(t, invalid, "backend: postgres\n")
	_, err = Load(invalid)
	assert.ErrorContains(t, err, "invalid configuration")

	scales := filepath.Join(dir, "scales.yaml")
	writeFile(t, scales, "canvas:\n  min_scale: 2\n  max_scale: 1\n")
	_, err = Load(scales)
	assert.Error(t, err)
}

func TestSavePath(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "out.png", cfg.SavePath("out.png"))

	cfg.SaveDirectory = filepath.Join(t.TempDir(), "exports")
	assert.Equal(t, filepath.Join(cfg.SaveDirectory, "out.png"), cfg.SavePath("out.png"))
	assert.DirExists(t, cfg.SaveDirectory)
}

func TestCanvasOptions(t *testing.T) {
	c := Default().Canvas
	snap := c.SnapOptions()
	assert.Equal(t, c.SnapTolerance, snap.SnapTolerance)
	assert.Equal(t, c.GuidelineTolerance, snap.GuidelineTolerance)
	assert.Equal(t, c.SnapGap, snap.Gap)
	assert.Equal(t, c.ArrowPadding, c.ArrowOptions().Padding)

	// Defaults agree with the engine's own defaults.
	assert.Equal(t, canvas.DefaultOptions(), c.EngineOptions())

	c.MaxScale = 8
	c.CreateOffset = 10
	opts := c.EngineOptions()
	assert.Equal(t, 8.0, opts.MaxScale)
	assert.Equal(t, 10.0, opts.CreateOffset)

	c.ArrowPadding = 3
	c.DefaultBlockWidth = 200
	eo := c.ExportOptions()
	assert.Equal(t, 3.0, eo.Arrow.Padding)
	assert.Equal(t, 200.0, eo.DefaultBlockWidth)
}

func TestWatcherReloads(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "nc.yaml")
	writeFile(t, path, "data_dir: "+dir+"\ncanvas:\n  snap_gap: 5\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	w, err := NewWatcher(cfg, 20*time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Close()

	var gap atomic.Value
	w.OnChange(func(c *Config) { gap.Store(c.Canvas.SnapGap) })

	writeFile(t, path, "data_dir: "+dir+"\ncanvas:\n  snap_gap: 9\n")
	require.Eventually(t, func() bool {
		v, ok := gap.Load().(float64)
		return ok && v == 9
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, 9.0, w.Current().Canvas.SnapGap)

	writeFile(t, path, "backend: nope\n")
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 9.0, w.Current().Canvas.SnapGap, "invalid edits are ignored")
}

func TestWatcherNeedsFile(t *testing.T) {
	_, err := NewWatcher(Default(), 0, nil)
	assert.Error(t, err)
}

func TestWatcherCallbacksRunOutsideLock(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "nc.yaml")
	writeFile(t, path, "data_dir: "+dir+"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	w, err := NewWatcher(cfg, 20*time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Close()

	var calls atomic.Int32
	w.OnChange(func(*Config) { panic("broken subscriber") })
	w.OnChange(func(*Config) {
		calls.Add(1)
		// Registering from a callback must not deadlock.
		w.OnChange(func(*Config) {})
	})

	writeFile(t, path, "data_dir: "+dir+"\nconfirmations: false\n")
	require.Eventually(t, func() bool {
		return calls.Load() >= 1 && !w.Current().Confirmations
	}, 3*time.Second, 10*time.Millisecond)
}
