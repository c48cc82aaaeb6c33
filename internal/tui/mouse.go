package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"nestcanvas/internal/canvas"
	"nestcanvas/internal/geometry"
)

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.help || m.mode == ModeConfirm {
		return m, nil
	}
	if msg.Y >= m.canvasRows() {
		return m, nil
	}
	p := cellPointer(msg.X, msg.Y)

	switch msg.Type {
	case tea.MouseWheelUp:
		m.dispatch(canvas.CameraScale{Pointer: p, Delta: -1})
		return m, nil
	case tea.MouseWheelDown:
		m.dispatch(canvas.CameraScale{Pointer: p, Delta: 1})
		return m, nil

	case tea.MouseRight:
		if m.mode != ModeNormal {
			return m, nil
		}
		a := canvas.OpenContextMenu{Pointer: p}
		if pl, ok := m.blockAt(msg.X, msg.Y); ok {
			a.BlockID = pl.inst.ID
		}
		m.cursorX, m.cursorY = msg.X, msg.Y
		m.dispatch(a)
		return m, nil

	case tea.MouseLeft:
		if m.mode == ModeEditing {
			m.finishEditing(true)
		}
		if m.mode != ModeNormal || m.drag != ModeNormal {
			return m, nil
		}
		if menu := m.state.ContextMenu; menu != nil {
			if key, ok := m.menuKeyAt(msg.X, msg.Y); ok {
				return m.handleNormalKey(key)
			}
			m.dispatch(canvas.CloseContextMenu{})
		}
		m.cursorX, m.cursorY = msg.X, msg.Y
		m.lastPointer = p
		m.press(msg, p)
		return m, nil

	case tea.MouseMotion:
		m.cursorX, m.cursorY = msg.X, msg.Y
		if m.drag == ModeNormal {
			return m, nil
		}
		delta := p.Sub(m.lastPointer)
		m.lastPointer = p
		if delta.IsZero() {
			return m, nil
		}
		return m, m.enqueue(dragAction(m.drag, delta))

	case tea.MouseRelease:
		if m.drag == ModeNormal {
			return m, nil
		}
		if delta := p.Sub(m.lastPointer); !delta.IsZero() {
			m.queue.Push(dragAction(m.drag, delta))
		}
		m.endGesture(m.drag)
		m.drag = ModeNormal
		return m, nil
	}
	return m, nil
}

// press starts the gesture a left click at p begins: shift toggles
// selection, alt draws a relation, the corner cell resizes, any other block
// cell moves and empty space starts a selection box.
func (m *Model) press(msg tea.MouseMsg, p geometry.Vec2) {
	pl, ok := m.blockAt(msg.X, msg.Y)
	switch {
	case !ok:
		m.dispatch(canvas.SelectionStart{Pointer: p})
		m.drag = ModeSelect
	case msg.Shift:
		m.dispatch(canvas.ToggleSelect{BlockID: pl.inst.ID})
	case msg.Alt:
		m.dispatch(canvas.RelationDrawStart{BlockID: pl.inst.ID, Pointer: p})
		m.drag = ModeRelation
	case pl.cells.corner(msg.X, msg.Y):
		m.dispatch(canvas.ResizeStart{BlockID: pl.inst.ID, Pointer: p})
		m.drag = ModeResize
	default:
		m.dispatch(canvas.MoveStart{BlockID: pl.inst.ID, Pointer: p})
		m.drag = ModeMove
	}
}

func dragAction(kind Mode, delta geometry.Vec2) canvas.Action {
	switch kind {
	case ModeResize:
		return canvas.Resize{Delta: delta}
	case ModeSelect:
		return canvas.SelectionMove{Delta: delta}
	case ModeRelation:
		return canvas.RelationDrawMove{Delta: delta}
	default:
		return canvas.Move{Delta: delta}
	}
}
