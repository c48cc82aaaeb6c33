package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nestcanvas/internal/config"
	"nestcanvas/internal/geometry"
	"nestcanvas/internal/model"
	"nestcanvas/internal/store"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{config.EnvDataDir, config.EnvBackend, config.EnvLogLevel, config.EnvDebug} {
		t.Setenv(k, "")
	}
}

// setup writes a config file that keeps everything inside a temp dir.
func setup(t *testing.T, backend string) (string, string) {
	t.Helper()
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "nestcanvas.yaml")
	body := "data_dir: " + dir + "\nbackend: " + backend + "\nsave_directory: " + dir + "\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return dir, path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() { configPath, debug = "", false })
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestWriteDefaultConfig(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "conf", "nc.yaml")

	written, err := writeDefaultConfig(path)
	require.NoError(t, err)
	assert.True(t, written)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	def := config.Default()
	assert.Equal(t, def.Canvas, cfg.Canvas)
	assert.Equal(t, def.Store, cfg.Store)

	written, err = writeDefaultConfig(path)
	require.NoError(t, err)
	assert.False(t, written, "existing files are kept")
}

func TestInitAndListPersist(t *testing.T) {
	for _, backend := range []string{config.BackendSQLite, config.BackendFile} {
		t.Run(backend, func(t *testing.T) {
			_, path := setup(t, backend)

			out, err := execute(t, "init", "--config", path)
			require.NoError(t, err)
			assert.Contains(t, out, "Keeping existing")
			assert.Contains(t, out, "Home canvas:")

			out, err = execute(t, "concepts", "--config", path)
			require.NoError(t, err)
			assert.Contains(t, out, "ID")
			assert.Contains(t, out, "Home (home)")

			// A second open sees the same home concept.
			configPath = path
			a, err := openApp(context.Background())
			require.NoError(t, err)
			home := a.store.GetSettings().HomeConceptID
			assert.Len(t, a.store.GetAllConcepts(), 1)
			require.NoError(t, a.close())
			assert.Contains(t, out, string(home))
		})
	}
}

func TestOpenStoreMemory(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = config.BackendMemory
	cfg.DataDir = t.TempDir()

	st, closeStore, err := openStore(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &store.Memory{}, st)
	assert.NoError(t, closeStore())
}

func TestExport(t *testing.T) {
	dir, path := setup(t, config.BackendFile)

	configPath = path
	a, err := openApp(context.Background())
	require.NoError(t, err)
	settings := a.store.GetSettings()
	home, ok := a.store.GetConcept(settings.HomeConceptID)
	require.True(t, ok)
	child := model.NewConcept(store.TextSummary("child"))
	require.NoError(t, a.store.CreateConcept(child))
	b := model.NewBlock(child.ID, geometry.V(10, 20), model.Size{W: model.Px(200), H: model.Px(80)})
	require.NoError(t, a.store.UpdateConcept(home.WithReferences([]model.Block{b}, nil)))
	require.NoError(t, a.close())

	png := filepath.Join(dir, "out.png")
	out, err := execute(t, "export", png, "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported")
	info, err := os.Stat(png)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	_, err = execute(t, "export", png, "--config", path, "--concept", string(child.ID))
	assert.ErrorContains(t, err, "no blocks")

	_, err = execute(t, "export", png, "--config", path, "--concept", "missing")
	assert.ErrorContains(t, err, "not found")
}
