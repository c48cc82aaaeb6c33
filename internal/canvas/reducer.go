package canvas

import (
	"fmt"

	"go.uber.org/zap"

	"nestcanvas/internal/geometry"
	"nestcanvas/internal/model"
	"nestcanvas/internal/rectcache"
	"nestcanvas/internal/snapping"
	"nestcanvas/internal/store"
)

// Options are the engine tunables.
type Options struct {
	MinScale float64
	MaxScale float64
	Snap     snapping.Options
	// HistoryLength bounds the navigation history.
	HistoryLength int
	// ReparentOffset separates dropped blocks from the target's content.
	ReparentOffset    float64
	DefaultBlockWidth float64
	// EstimatedHeight stands in for an auto height that was never measured.
	EstimatedHeight float64
	// CreateOffset separates a block created next to another one.
	CreateOffset float64
	MinBlockSize float64
	RelationType string
}

func DefaultOptions() Options {
	return Options{
		MinScale:          0.1,
		MaxScale:          4,
		Snap:              snapping.DefaultOptions(),
		HistoryLength:     32,
		ReparentOffset:    48,
		DefaultBlockWidth: 300,
		EstimatedHeight:   64,
		CreateOffset:      24,
		MinBlockSize:      16,
		RelationType:      "arrow",
	}
}

// Reducer applies actions. It is not safe for concurrent use: actions are
// applied one at a time, in order.
type Reducer struct {
	store  store.Store
	rects  *rectcache.Cache
	opts   Options
	logger *zap.Logger
}

func NewReducer(s store.Store, rects *rectcache.Cache, opts Options, logger *zap.Logger) *Reducer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rects == nil {
		rects = rectcache.New()
	}
	return &Reducer{store: s, rects: rects, opts: opts, logger: logger}
}

// Options returns the current tunables.
func (r *Reducer) Options() Options { return r.opts }

// SetOptions replaces the tunables. Later actions use the new values.
func (r *Reducer) SetOptions(opts Options) { r.opts = opts }

// Rects is the cache the reducer measures blocks through.
func (r *Reducer) Rects() *rectcache.Cache { return r.rects }

// Init builds the first state from the store's settings. The store must
// already be valid (see store.EnsureHome).
func (r *Reducer) Init(viewport geometry.Vec2) (*AppState, error) {
	settings := r.store.GetSettings()
	c, ok := r.store.GetConcept(settings.ViewingConceptID)
	if !ok {
		c, ok = r.store.GetConcept(settings.HomeConceptID)
	}
	if !ok {
		return nil, fmt.Errorf("concept %q: %w", settings.ViewingConceptID, store.ErrConceptNotFound)
	}
	s := &AppState{
		Viewing:       c,
		Blocks:        model.SynthesizeBlocks(c.ID, c.References, nil),
		Relations:     model.SynthesizeRelations(c.References, c.Relations),
		Camera:        c.Camera.OrDefault(),
		Viewport:      viewport,
		ExpandHistory: model.NewHistory(r.opts.HistoryLength),
	}
	r.logger.Debug("canvas loaded",
		zap.String("concept", string(c.ID)),
		zap.Int("blocks", len(s.Blocks)),
	)
	return s, nil
}

// Reduce returns the state after applying a to s. It returns s itself when
// the action changes nothing.
func (r *Reducer) Reduce(s *AppState, a Action) *AppState {
	next, handled := r.reduce(s, a)
	if !handled {
		r.logger.Error("unhandled action", zap.String("action", fmt.Sprintf("%T", a)))
		return s
	}
	return next
}

func (r *Reducer) reduce(s *AppState, a Action) (*AppState, bool) {
	switch a := a.(type) {
	case CreateBlock:
		return r.createBlock(s, a), true
	case CreateBlockRelative:
		return r.createBlockRelative(s, a), true
	case MoveStart:
		return r.moveStart(s, a), true
	case Move:
		return r.move(s, a), true
	case MoveEnd:
		return r.moveEnd(s), true
	case ResizeStart:
		return r.resizeStart(s, a), true
	case Resize:
		return r.resize(s, a), true
	case ResizeEnd:
		return r.resizeEnd(s), true
	case RemoveBlock:
		return r.removeBlock(s, a), true
	case RemoveRelation:
		return r.removeRelation(s, a), true
	case SelectionStart:
		return r.selectionStart(s, a), true
	case SelectionMove:
		return r.selectionMove(s, a), true
	case SelectionEnd:
		return r.selectionEnd(s), true
	case ToggleSelect:
		return r.toggleSelect(s, a), true
	case ClearSelection:
		return r.clearSelection(s), true
	case CameraMove:
		return r.cameraMove(s, a), true
	case CameraScale:
		return r.cameraScale(s, a), true
	case RelationDrawStart:
		return r.relationDrawStart(s, a), true
	case RelationDrawMove:
		return r.relationDrawMove(s, a), true
	case RelationDrawEnd:
		return r.relationDrawEnd(s), true
	case OpenConcept:
		return r.openConcept(s, a), true
	case NavigateBack:
		return r.navigateBack(s), true
	case UpdateSummary:
		return r.updateSummary(s, a), true
	case ReplaceConcept:
		return r.replaceConcept(s, a), true
	case SetBlockColor:
		return r.setBlockColor(s, a), true
	case FocusBlock:
		return r.focusBlock(s, a), true
	case Blur:
		return r.blur(s), true
	case SetViewport:
		return r.setViewport(s, a), true
	case OpenContextMenu:
		return r.openContextMenu(s, a), true
	case CloseContextMenu:
		return r.closeContextMenu(s), true
	default:
		return s, false
	}
}

// commit writes new references and relations of the viewed concept to the
// store and returns a state showing them.
func (r *Reducer) commit(s *AppState, refs []model.Block, rels []model.Relation) *AppState {
	viewing := s.Viewing.WithReferences(refs, rels)
	r.update(viewing)

	next := s.clone()
	next.Viewing = viewing
	next.Blocks = model.SynthesizeBlocks(viewing.ID, refs, s.Blocks)
	next.Relations = model.SynthesizeRelations(refs, rels)
	next.applyUI()
	return next
}

func (r *Reducer) update(c model.Concept) {
	if err := r.store.UpdateConcept(c); err != nil {
		r.logger.Warn("store update failed", zap.String("concept", string(c.ID)), zap.Error(err))
	}
}

func (r *Reducer) create(c model.Concept) bool {
	if err := r.store.CreateConcept(c); err != nil {
		r.logger.Warn("store create failed", zap.String("concept", string(c.ID)), zap.Error(err))
		return false
	}
	return true
}

// rect returns the measured environment rectangle of a block.
func (r *Reducer) rect(s *AppState, id string) (geometry.Box, bool) {
	return r.rects.GetRect(id, s.Camera.Focus, s.Camera.Scale)
}

// blockBox is the best known rectangle of b: measured when possible,
// otherwise declared, with auto dimensions estimated.
func (r *Reducer) blockBox(s *AppState, b model.Block) geometry.Box {
	if box, ok := r.rect(s, b.ID); ok {
		// The position is authoritative; measurements lag behind moves.
		return geometry.BoxAt(b.Pos, box.Size())
	}
	return b.Box(r.opts.DefaultBlockWidth, r.opts.EstimatedHeight)
}

// storedBox is blockBox for blocks of a concept that is not being viewed.
func (r *Reducer) storedBox(b model.Block) geometry.Box {
	if box, ok := r.rects.Peek(b.ID); ok {
		return geometry.BoxAt(b.Pos, box.Size())
	}
	return b.Box(r.opts.DefaultBlockWidth, r.opts.EstimatedHeight)
}

// hitTest finds the topmost normal block whose measured rectangle contains
// the environment point p, skipping ids in exclude.
func (r *Reducer) hitTest(s *AppState, p geometry.Vec2, exclude func(string) bool) (*model.BlockInstance, bool) {
	for i := len(s.Blocks) - 1; i >= 0; i-- {
		bi := s.Blocks[i]
		if bi.PosType != model.Normal || exclude(bi.ID) {
			continue
		}
		box, ok := r.rect(s, bi.ID)
		if !ok {
			continue
		}
		if geometry.Contains(box, p) {
			return bi, true
		}
	}
	return nil, false
}

// candidates returns the measured rectangles of every normal block not in
// exclude, for snapping.
func (r *Reducer) candidates(s *AppState, exclude func(string) bool) []geometry.Box {
	out := make([]geometry.Box, 0, len(s.Blocks))
	for _, bi := range s.Blocks {
		if bi.PosType != model.Normal || exclude(bi.ID) {
			continue
		}
		if box, ok := r.rect(s, bi.ID); ok {
			out = append(out, box)
		}
	}
	return out
}

// targetSet is the selection when id belongs to it, otherwise just id.
func (s *AppState) targetSet(id string) map[string]bool {
	if s.IsSelected(id) {
		return s.selectedSet()
	}
	return map[string]bool{id: true}
}

func (r *Reducer) debug(msg string, fields ...zap.Field) {
	r.logger.Debug(msg, fields...)
}
