// Package tui is the terminal front end of the canvas: it turns keys and
// mouse events into canvas actions and draws the resulting state.
package tui

import (
	"errors"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"nestcanvas/internal/canvas"
	"nestcanvas/internal/config"
	"nestcanvas/internal/content"
	"nestcanvas/internal/geometry"
	"nestcanvas/internal/model"
	"nestcanvas/internal/store"
)

type Mode int

const (
	ModeNormal Mode = iota
	ModeEditing
	ModeMove
	ModeResize
	ModeSelect
	ModeRelation
	ModeConfirm
)

type ConfirmAction int

const (
	ConfirmDeleteBlock ConfirmAction = iota
	ConfirmDeleteRelation
	ConfirmQuit
)

// frameInterval batches pointer movement: one reducer pass per movement kind
// per frame.
const frameInterval = 16 * time.Millisecond

type frameMsg struct{}

type configMsg struct{ cfg *config.Config }

// Options wire a Model to the rest of the application.
type Options struct {
	Store    store.Store
	Reducer  *canvas.Reducer
	Registry *content.Registry
	Config   *config.Config
	// Watcher is optional; when set, configuration edits apply live.
	Watcher *config.Watcher
	Logger  *zap.Logger
}

// Model is the bubbletea model of the canvas view.
type Model struct {
	store    store.Store
	reducer  *canvas.Reducer
	registry *content.Registry
	cfg      *config.Config
	logger   *zap.Logger
	configCh chan *config.Config

	state        *canvas.AppState
	queue        canvas.FrameQueue
	framePending bool

	width      int
	height     int
	cursorX    int
	cursorY    int
	panMode    bool
	mode       Mode
	help       bool
	helpScroll int

	// drag is the mouse gesture in progress, ModeNormal when none.
	drag        Mode
	lastPointer geometry.Vec2

	editText   string
	editCursor int
	editID     model.ConceptID
	// edit is the plugin session of the block being edited. Its callbacks
	// queue actions in editOut, which the model dispatches after each call.
	edit    *content.Session
	editOut *[]canvas.Action

	confirm           ConfirmAction
	confirmBlockID    string
	confirmRelationID string

	errorMessage   string
	successMessage string

	placed  []placed
	paths   []placedPath
	mounted map[string]bool

	readClipboard  func() (string, error)
	writeClipboard func(string) error
}

// New builds the model and its first state.
func New(opts Options) (Model, error) {
	if opts.Store == nil || opts.Reducer == nil {
		return Model{}, errors.New("tui: store and reducer are required")
	}
	if opts.Registry == nil {
		opts.Registry = content.NewRegistry()
	}
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	m := Model{
		store:          opts.Store,
		reducer:        opts.Reducer,
		registry:       opts.Registry,
		cfg:            opts.Config,
		logger:         opts.Logger,
		width:          80,
		height:         24,
		mounted:        map[string]bool{},
		readClipboard:  clipboard.ReadAll,
		writeClipboard: clipboard.WriteAll,
	}
	s, err := m.reducer.Init(m.viewport())
	if err != nil {
		return Model{}, err
	}
	m.state = s
	if opts.Watcher != nil {
		ch := make(chan *config.Config, 1)
		m.configCh = ch
		opts.Watcher.OnChange(func(c *config.Config) {
			// Keep only the newest configuration if the UI lags behind.
			select {
			case <-ch:
			default:
			}
			ch <- c
		})
	}
	m.layout()
	return m, nil
}

// State returns the current canvas state.
func (m Model) State() *canvas.AppState { return m.state }

func (m Model) Init() tea.Cmd {
	if m.configCh == nil {
		return nil
	}
	return waitForConfig(m.configCh)
}

func waitForConfig(ch <-chan *config.Config) tea.Cmd {
	return func() tea.Msg {
		return configMsg{cfg: <-ch}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ensureCursorInBounds()
		m.dispatch(canvas.SetViewport{Size: m.viewport()})
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		m.errorMessage = ""
		if m.help {
			return m.handleHelpKey(msg.String())
		}
		switch m.mode {
		case ModeEditing:
			return m.handleEditKey(msg)
		case ModeConfirm:
			return m.handleConfirmKey(msg.String())
		case ModeMove, ModeResize, ModeSelect, ModeRelation:
			return m.handleGestureKey(msg.String())
		default:
			return m.handleNormalKey(msg.String())
		}

	case frameMsg:
		m.framePending = false
		m.flush()
		return m, nil

	case configMsg:
		m.applyConfig(msg.cfg)
		return m, waitForConfig(m.configCh)
	}
	return m, nil
}

// dispatch applies a right away, after anything still queued for the frame.
func (m *Model) dispatch(a canvas.Action) {
	m.queue.Push(a)
	m.flush()
}

// enqueue defers a pointer movement to the next frame.
func (m *Model) enqueue(a canvas.Action) tea.Cmd {
	m.queue.Push(a)
	if m.framePending {
		return nil
	}
	m.framePending = true
	return tea.Tick(frameInterval, func(time.Time) tea.Msg { return frameMsg{} })
}

func (m *Model) flush() {
	if m.queue.Len() == 0 {
		return
	}
	next := m.queue.Flush(m.reducer, m.state)
	if next == m.state {
		return
	}
	m.state = next
	m.layout()
}

func (m *Model) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	m.cfg = cfg
	m.reducer.SetOptions(cfg.Canvas.EngineOptions())
	m.layout()
	m.successMessage = "Configuration reloaded"
	m.logger.Info("canvas options updated")
}

// Close persists the camera of the viewed canvas.
func (m Model) Close() {
	m.flush()
	m.reducer.SaveCamera(m.state)
}

func (m *Model) ensureCursorInBounds() {
	if m.cursorX < 0 {
		m.cursorX = 0
	}
	if m.cursorY < 0 {
		m.cursorY = 0
	}
	if m.width > 0 && m.cursorX >= m.width {
		m.cursorX = m.width - 1
	}
	if maxY := m.canvasRows() - 1; m.cursorY > maxY {
		m.cursorY = maxY
	}
}

func (m *Model) pointer() geometry.Vec2 {
	return cellPointer(m.cursorX, m.cursorY)
}

// underCursor returns the block drawn at the cursor.
func (m *Model) underCursor() (*model.BlockInstance, bool) {
	p, ok := m.blockAt(m.cursorX, m.cursorY)
	if !ok {
		return nil, false
	}
	return p.inst, true
}

// startEditing focuses block id and loads its text into the editor.
func (m *Model) startEditing(id string) {
	bi, ok := m.state.Block(id)
	if !ok {
		return
	}
	c, ok := m.store.GetConcept(bi.To)
	if !ok {
		return
	}
	out := new([]canvas.Action)
	m.editOut = out
	m.edit = m.registry.Edit(editProps(c, id, out))
	m.editID = c.ID
	m.editText = m.edit.Text()
	m.editCursor = len([]rune(m.editText))
	m.mode = ModeEditing
	m.runEdit()
	m.layout()
}

// editProps routes the plugin callbacks for block id into out.
func editProps(c model.Concept, id string, out *[]canvas.Action) content.Props {
	push := func(a canvas.Action) { *out = append(*out, a) }
	return content.Props{
		Concept: c,
		OnChange: func(s model.Summary) {
			push(canvas.UpdateSummary{ConceptID: c.ID, Summary: s})
		},
		OnReplace: func(s model.Summary) {
			push(canvas.ReplaceConcept{BlockID: id, Summary: s})
		},
		OnInteractionStart: func() { push(canvas.FocusBlock{BlockID: id}) },
		OnInteractionEnd:   func() { push(canvas.Blur{}) },
	}
}

// runEdit dispatches what the edit session queued.
func (m *Model) runEdit() {
	if m.editOut == nil {
		return
	}
	queued := *m.editOut
	*m.editOut = nil
	for _, a := range queued {
		m.dispatch(a)
	}
}

// finishEditing stores the edited text when save is set, then blurs.
func (m *Model) finishEditing(save bool) {
	if save && m.edit != nil {
		m.edit.Change(m.editText)
	}
	m.endEditing()
}

// replaceEditing gives the edited block a new concept holding the edited
// text. Other blocks showing the old concept keep it.
func (m *Model) replaceEditing() {
	if m.edit != nil {
		m.edit.Replace(m.editText)
	}
	m.endEditing()
	m.successMessage = "Block now has its own concept"
}

func (m *Model) endEditing() {
	if m.edit != nil {
		m.edit.End()
		m.runEdit()
	}
	m.mode = ModeNormal
	m.editText = ""
	m.editCursor = 0
	m.editID = ""
	m.edit = nil
	m.editOut = nil
	m.layout()
}

// createAndEdit runs a creating action and opens the editor on the new block.
func (m *Model) createAndEdit(a canvas.Action) {
	before := m.state
	m.dispatch(a)
	if m.state == before || len(m.state.SelectedBlockIDs) != 1 {
		return
	}
	m.startEditing(m.state.SelectedBlockIDs[0])
}
