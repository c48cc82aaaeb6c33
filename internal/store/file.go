package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"nestcanvas/internal/model"
)

// snapshot is the on-disk layout of FileBackend.
type snapshot struct {
	Format   string          `json:"format"`
	Settings model.Settings  `json:"settings"`
	Concepts []model.Concept `json:"concepts"`
}

const snapshotFormat = "nestcanvas/1"

var _ Backend = (*FileBackend)(nil)

// FileBackend keeps the whole store in one JSON file, rewritten atomically on
// every commit.
type FileBackend struct {
	path string

	mu       sync.Mutex
	settings model.Settings
	concepts map[model.ConceptID]model.Concept
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{
		path:     path,
		concepts: make(map[model.ConceptID]model.Concept),
	}
}

func (f *FileBackend) Load(ctx context.Context) (model.Settings, []model.Concept, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return model.Settings{}, nil, false, nil
	}
	if err != nil {
		return model.Settings{}, nil, false, fmt.Errorf("read %s: %w", f.path, err)
	}

	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return model.Settings{}, nil, false, fmt.Errorf("decode %s: %w", f.path, err)
	}
	if snap.Format != snapshotFormat {
		return model.Settings{}, nil, false, fmt.Errorf("invalid file format %q", snap.Format)
	}

	f.settings = snap.Settings
	f.concepts = make(map[model.ConceptID]model.Concept, len(snap.Concepts))
	for _, c := range snap.Concepts {
		f.concepts[c.ID] = c
	}
	return snap.Settings, snap.Concepts, true, nil
}

func (f *FileBackend) Commit(ctx context.Context, b Batch) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if b.Settings != nil {
		f.settings = *b.Settings
	}
	for _, c := range b.Concepts {
		f.concepts[c.ID] = c
	}

	snap := snapshot{
		Format:   snapshotFormat,
		Settings: f.settings,
		Concepts: make([]model.Concept, 0, len(f.concepts)),
	}
	for _, c := range f.concepts {
		snap.Concepts = append(snap.Concepts, c)
	}
	sort.Slice(snap.Concepts, func(i, j int) bool { return snap.Concepts[i].ID < snap.Concepts[j].ID })

	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace %s: %w", f.path, err)
	}
	return nil
}

func (f *FileBackend) Close() error {
	return nil
}
