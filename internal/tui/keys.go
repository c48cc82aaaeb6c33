package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"nestcanvas/internal/canvas"
	"nestcanvas/internal/content"
	"nestcanvas/internal/geometry"
	"nestcanvas/internal/model"
)

// palette is the block colors bound to keys 1 to 8.
var palette = []string{"#d0d0d0", "#f4a6a6", "#a8e6a3", "#f6e58d", "#9ec5fe", "#e0b0ff", "#a0e7e5", "#ffffff"}

func moveSpeed(key string) int {
	switch key {
	case "H", "L", "K", "J", "shift+left", "shift+right", "shift+up", "shift+down":
		return 2
	default:
		return 1
	}
}

// direction maps a navigation key to a cell step.
func direction(key string) (int, int, bool) {
	switch key {
	case "h", "left", "H", "shift+left":
		return -1, 0, true
	case "l", "right", "L", "shift+right":
		return 1, 0, true
	case "k", "up", "K", "shift+up":
		return 0, -1, true
	case "j", "down", "J", "shift+down":
		return 0, 1, true
	}
	return 0, 0, false
}

// moveCursor steps the cursor and returns the pointer movement in pixels.
func (m *Model) moveCursor(key string) geometry.Vec2 {
	dx, dy, _ := direction(key)
	speed := moveSpeed(key)
	before := m.pointer()
	m.cursorX += dx * speed
	m.cursorY += dy * speed
	m.ensureCursorInBounds()
	return m.pointer().Sub(before)
}

// target is the block a key acts on: the one under the cursor, else the
// single selected block.
func (m *Model) target() (*model.BlockInstance, bool) {
	if bi, ok := m.underCursor(); ok {
		return bi, true
	}
	if len(m.state.SelectedBlockIDs) == 1 {
		return m.state.Block(m.state.SelectedBlockIDs[0])
	}
	return nil, false
}

func (m Model) handleNormalKey(key string) (tea.Model, tea.Cmd) {
	m.successMessage = ""
	if menu := m.state.ContextMenu; menu != nil && key != "esc" {
		// Menu entries are plain key bindings applied where the menu opened.
		m.dispatch(canvas.CloseContextMenu{})
		m.cursorX, m.cursorY = pointerCell(menu.Pointer)
		m.ensureCursorInBounds()
	}

	if _, _, ok := direction(key); ok {
		if m.panMode {
			dx, dy, _ := direction(key)
			step := float64(moveSpeed(key) * 4)
			m.dispatch(canvas.CameraMove{Delta: geometry.V(float64(dx)*step*cellWidth, float64(dy)*step*cellHeight)})
			return m, nil
		}
		m.moveCursor(key)
		return m, nil
	}

	switch key {
	case "ctrl+c", "q":
		if m.cfg.Confirmations {
			m.askConfirm(ConfirmQuit, "", "")
			return m, nil
		}
		m.Close()
		return m, tea.Quit

	case "?":
		m.help = true
		m.helpScroll = 0

	case "z":
		m.panMode = !m.panMode

	case "+", "=":
		m.dispatch(canvas.CameraScale{Pointer: m.pointer(), Delta: -1})
	case "-", "_":
		m.dispatch(canvas.CameraScale{Pointer: m.pointer(), Delta: 1})

	case "b":
		m.createAndEdit(canvas.CreateBlock{Pointer: m.pointer()})

	case "o", "O", "tab", "shift+tab":
		bi, ok := m.target()
		if !ok {
			m.errorMessage = "No block here"
			return m, nil
		}
		a := canvas.CreateBlockRelative{BlockID: bi.ID}
		switch key {
		case "o":
			a.Direction = canvas.Below
		case "O":
			a.Direction = canvas.Above
		case "tab":
			a.Direction, a.Connect = canvas.Right, true
		case "shift+tab":
			a.Direction, a.Connect = canvas.Left, true
		}
		m.createAndEdit(a)

	case "e":
		if bi, ok := m.target(); ok {
			m.startEditing(bi.ID)
		}

	case "m":
		if bi, ok := m.underCursor(); ok {
			m.dispatch(canvas.MoveStart{BlockID: bi.ID, Pointer: m.pointer()})
			m.mode = ModeMove
		}

	case "r":
		if bi, ok := m.underCursor(); ok {
			m.dispatch(canvas.ResizeStart{BlockID: bi.ID, Pointer: m.pointer()})
			m.mode = ModeResize
		}

	case "a":
		if bi, ok := m.underCursor(); ok {
			m.dispatch(canvas.RelationDrawStart{BlockID: bi.ID, Pointer: m.pointer()})
			m.mode = ModeRelation
		}

	case "v":
		if bi, ok := m.underCursor(); ok {
			m.dispatch(canvas.ToggleSelect{BlockID: bi.ID})
		}

	case "V":
		m.dispatch(canvas.SelectionStart{Pointer: m.pointer()})
		m.mode = ModeSelect

	case "d", "delete":
		if bi, ok := m.target(); ok {
			if m.cfg.Confirmations {
				m.askConfirm(ConfirmDeleteBlock, bi.ID, "")
				return m, nil
			}
			m.dispatch(canvas.RemoveBlock{BlockID: bi.ID})
		}

	case "x":
		if rel, ok := m.relationAt(m.cursorX, m.cursorY); ok {
			if m.cfg.Confirmations {
				m.askConfirm(ConfirmDeleteRelation, "", rel.ID)
				return m, nil
			}
			m.dispatch(canvas.RemoveRelation{RelationID: rel.ID})
		}

	case "enter":
		if bi, ok := m.target(); ok {
			m.dispatch(canvas.OpenConcept{ConceptID: bi.To})
		}

	case "backspace":
		m.dispatch(canvas.NavigateBack{})

	case "g":
		m.dispatch(canvas.OpenConcept{ConceptID: m.store.GetSettings().HomeConceptID})

	case "c":
		m.copyBlock()

	case "p":
		m.paste()

	case "1", "2", "3", "4", "5", "6", "7", "8":
		if bi, ok := m.target(); ok {
			m.dispatch(canvas.SetBlockColor{BlockID: bi.ID, Color: palette[key[0]-'1']})
		}
	case "0":
		if bi, ok := m.target(); ok {
			m.dispatch(canvas.SetBlockColor{BlockID: bi.ID})
		}

	case "s":
		m.exportPNG()
	case "T":
		m.exportText()

	case "esc":
		switch {
		case m.state.ContextMenu != nil:
			m.dispatch(canvas.CloseContextMenu{})
		case m.panMode:
			m.panMode = false
		default:
			m.dispatch(canvas.ClearSelection{})
		}
	}
	return m, nil
}

// handleGestureKey drives a keyboard gesture: cursor keys drag, enter or
// escape drops.
func (m Model) handleGestureKey(key string) (tea.Model, tea.Cmd) {
	if _, _, ok := direction(key); ok {
		delta := m.moveCursor(key)
		switch m.mode {
		case ModeMove:
			m.dispatch(canvas.Move{Delta: delta})
		case ModeResize:
			m.dispatch(canvas.Resize{Delta: delta})
		case ModeSelect:
			m.dispatch(canvas.SelectionMove{Delta: delta})
		case ModeRelation:
			m.dispatch(canvas.RelationDrawMove{Delta: delta})
		}
		return m, nil
	}
	switch key {
	case "enter", "esc", "a":
		m.endGesture(m.mode)
		m.mode = ModeNormal
	case "ctrl+c":
		m.endGesture(m.mode)
		m.mode = ModeNormal
		m.Close()
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) endGesture(kind Mode) {
	switch kind {
	case ModeMove:
		m.dispatch(canvas.MoveEnd{})
	case ModeResize:
		m.dispatch(canvas.ResizeEnd{})
	case ModeSelect:
		m.dispatch(canvas.SelectionEnd{})
	case ModeRelation:
		m.dispatch(canvas.RelationDrawEnd{})
	}
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	runes := []rune(m.editText)
	switch msg.Type {
	case tea.KeyEsc:
		m.finishEditing(false)
		return m, nil
	case tea.KeyCtrlS:
		m.finishEditing(true)
		return m, nil
	case tea.KeyCtrlN:
		m.replaceEditing()
		return m, nil
	case tea.KeyEnter:
		m.insert([]rune{'\n'})
	case tea.KeyBackspace:
		if m.editCursor > 0 {
			m.editText = string(append(runes[:m.editCursor-1:m.editCursor-1], runes[m.editCursor:]...))
			m.editCursor--
		}
	case tea.KeyDelete:
		if m.editCursor < len(runes) {
			m.editText = string(append(runes[:m.editCursor:m.editCursor], runes[m.editCursor+1:]...))
		}
	case tea.KeyLeft:
		if m.editCursor > 0 {
			m.editCursor--
		}
	case tea.KeyRight:
		if m.editCursor < len(runes) {
			m.editCursor++
		}
	case tea.KeyHome:
		m.editCursor = 0
	case tea.KeyEnd:
		m.editCursor = len(runes)
	case tea.KeySpace:
		m.insert([]rune{' '})
	case tea.KeyRunes:
		m.insert(msg.Runes)
	case tea.KeyCtrlV:
		if text, err := m.readClipboard(); err == nil {
			m.insert([]rune(content.CleanPasted(text)))
		}
	}
	m.layout()
	return m, nil
}

func (m *Model) insert(r []rune) {
	runes := []rune(m.editText)
	out := make([]rune, 0, len(runes)+len(r))
	out = append(out, runes[:m.editCursor]...)
	out = append(out, r...)
	out = append(out, runes[m.editCursor:]...)
	m.editText = string(out)
	m.editCursor += len(r)
}

func (m *Model) askConfirm(action ConfirmAction, blockID, relationID string) {
	m.confirm = action
	m.confirmBlockID = blockID
	m.confirmRelationID = relationID
	m.mode = ModeConfirm
}

func (m Model) handleConfirmKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "y", "Y":
		m.mode = ModeNormal
		switch m.confirm {
		case ConfirmDeleteBlock:
			m.dispatch(canvas.RemoveBlock{BlockID: m.confirmBlockID})
		case ConfirmDeleteRelation:
			m.dispatch(canvas.RemoveRelation{RelationID: m.confirmRelationID})
		case ConfirmQuit:
			m.Close()
			return m, tea.Quit
		}
	case "n", "N", "esc":
		m.mode = ModeNormal
	}
	return m, nil
}

func (m Model) handleHelpKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "esc", "q", "?":
		m.help = false
		m.helpScroll = 0
	case "j", "down":
		if maxScroll := len(helpLines) - m.canvasRows(); m.helpScroll < maxScroll {
			m.helpScroll++
		}
	case "k", "up":
		if m.helpScroll > 0 {
			m.helpScroll--
		}
	}
	return m, nil
}
