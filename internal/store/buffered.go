package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"nestcanvas/internal/model"
)

// Batch is one physical write: the concepts changed since the last commit and,
// when they changed, the settings.
type Batch struct {
	Settings *model.Settings
	Concepts []model.Concept
}

// Empty reports whether b carries nothing to write.
func (b Batch) Empty() bool {
	return b.Settings == nil && len(b.Concepts) == 0
}

// Backend is durable storage underneath Buffered.
type Backend interface {
	// Load returns the persisted state; initialized is false for an empty backend.
	Load(ctx context.Context) (settings model.Settings, concepts []model.Concept, initialized bool, err error)
	Commit(ctx context.Context, b Batch) error
	Close() error
}

// BufferOptions control when Buffered commits.
type BufferOptions struct {
	FlushInterval  time.Duration
	FlushThreshold int
}

func DefaultBufferOptions() BufferOptions {
	return BufferOptions{FlushInterval: 2 * time.Second, FlushThreshold: 32}
}

var _ Store = (*Buffered)(nil)

// Buffered serves reads and writes from memory and commits dirty concepts to
// a Backend every FlushInterval, as soon as FlushThreshold concepts are dirty,
// and on Close. Failed commits stay dirty and are retried on the next flush.
type Buffered struct {
	*Memory
	backend Backend
	opts    BufferOptions
	logger  *zap.Logger

	mu            sync.Mutex
	dirty         map[model.ConceptID]struct{}
	settingsDirty bool
	commitMu      sync.Mutex

	kick    chan struct{}
	stop    chan struct{}
	done    chan struct{}
	started bool
}

// OpenBuffered loads backend into memory.
func OpenBuffered(ctx context.Context, backend Backend, opts BufferOptions, logger *zap.Logger) (*Buffered, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = DefaultBufferOptions().FlushInterval
	}
	if opts.FlushThreshold <= 0 {
		opts.FlushThreshold = DefaultBufferOptions().FlushThreshold
	}

	settings, concepts, initialized, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load backend: %w", err)
	}
	mem := NewMemory()
	if initialized {
		if err := mem.Init(settings, concepts); err != nil {
			return nil, fmt.Errorf("load backend: %w", err)
		}
	}
	logger.Debug("store loaded",
		zap.Int("concepts", len(concepts)),
		zap.Bool("initialized", initialized),
	)

	return &Buffered{
		Memory:  mem,
		backend: backend,
		opts:    opts,
		logger:  logger,
		dirty:   make(map[model.ConceptID]struct{}),
		kick:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Start runs the background flush loop until Close.
func (b *Buffered) Start() {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return
	}
	b.started = true
	b.mu.Unlock()

	go b.loop()
}

func (b *Buffered) loop() {
	defer close(b.done)
	ticker := time.NewTicker(b.opts.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
		case <-b.kick:
		case <-b.stop:
			return
		}
		if err := b.Flush(context.Background()); err != nil {
			b.logger.Error("store flush failed", zap.Error(err))
		}
	}
}

func (b *Buffered) Init(settings model.Settings, concepts []model.Concept) error {
	if err := b.Memory.Init(settings, concepts); err != nil {
		return err
	}
	b.mu.Lock()
	for _, c := range concepts {
		b.dirty[c.ID] = struct{}{}
	}
	b.settingsDirty = true
	b.mu.Unlock()
	b.maybeKick()
	return nil
}

func (b *Buffered) CreateConcept(c model.Concept) error {
	if err := b.Memory.CreateConcept(c); err != nil {
		return err
	}
	b.markDirty(c.ID)
	return nil
}

func (b *Buffered) UpdateConcept(c model.Concept) error {
	if err := b.Memory.UpdateConcept(c); err != nil {
		return err
	}
	b.markDirty(c.ID)
	return nil
}

func (b *Buffered) SaveSettings(s model.Settings) error {
	if err := b.Memory.SaveSettings(s); err != nil {
		return err
	}
	b.mu.Lock()
	b.settingsDirty = true
	b.mu.Unlock()
	return nil
}

// Pending returns the number of concepts waiting to be committed.
func (b *Buffered) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.dirty)
}

func (b *Buffered) markDirty(id model.ConceptID) {
	b.mu.Lock()
	b.dirty[id] = struct{}{}
	b.mu.Unlock()
	b.maybeKick()
}

func (b *Buffered) maybeKick() {
	if b.Pending() < b.opts.FlushThreshold {
		return
	}
	select {
	case b.kick <- struct{}{}:
	default:
	}
}

// Flush commits everything dirty right now.
func (b *Buffered) Flush(ctx context.Context) error {
	b.commitMu.Lock()
	defer b.commitMu.Unlock()

	b.mu.Lock()
	ids := make([]model.ConceptID, 0, len(b.dirty))
	for id := range b.dirty {
		ids = append(ids, id)
	}
	settingsDirty := b.settingsDirty
	b.dirty = make(map[model.ConceptID]struct{})
	b.settingsDirty = false
	b.mu.Unlock()

	var batch Batch
	if settingsDirty {
		s := b.Memory.GetSettings()
		batch.Settings = &s
	}
	for _, id := range ids {
		if c, ok := b.Memory.GetConcept(id); ok {
			batch.Concepts = append(batch.Concepts, c)
		}
	}
	if batch.Empty() {
		return nil
	}

	start := time.Now()
	if err := b.backend.Commit(ctx, batch); err != nil {
		b.mu.Lock()
		for _, id := range ids {
			b.dirty[id] = struct{}{}
		}
		b.settingsDirty = b.settingsDirty || settingsDirty
		b.mu.Unlock()
		return fmt.Errorf("commit %d concepts: %w", len(batch.Concepts), err)
	}
	b.logger.Debug("store committed",
		zap.Int("concepts", len(batch.Concepts)),
		zap.Bool("settings", batch.Settings != nil),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

// Close stops the flush loop, commits what is left and closes the backend.
func (b *Buffered) Close() error {
	b.mu.Lock()
	started := b.started
	b.started = false
	b.mu.Unlock()
	if started {
		close(b.stop)
		<-b.done
	}

	flushErr := b.Flush(context.Background())
	closeErr := b.backend.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
