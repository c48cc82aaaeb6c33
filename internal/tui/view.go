package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"nestcanvas/internal/arrow"
	"nestcanvas/internal/canvas"
	"nestcanvas/internal/geometry"
	"nestcanvas/internal/model"
)

var (
	statusStyle  = lipgloss.NewStyle().Reverse(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	menuStyle    = lipgloss.NewStyle().Border(lipgloss.NormalBorder())
)

var helpLines = []string{
	"nestcanvas help",
	"===============",
	"",
	"Navigation:",
	"  h/j/k/l, arrows   Move cursor (Shift for 2x)",
	"  z                 Toggle pan mode (cursor keys move the camera)",
	"  +/-, wheel        Zoom in/out at the cursor",
	"  Enter             Open the block under the cursor as a canvas",
	"  Backspace         Back to the previous canvas",
	"  g                 Go to the home canvas",
	"",
	"Blocks:",
	"  b                 New block at the cursor",
	"  o / O             New block below / above",
	"  Tab / Shift+Tab   New connected block right / left",
	"  e                 Edit text (Ctrl+S saves, Esc cancels)",
	"  Ctrl+N (editing)  Save as a new concept for this block only",
	"  m                 Move (cursor keys, Enter drops; drop on a block to nest)",
	"  r                 Resize (cursor keys, Enter finishes)",
	"  d                 Delete block or selection",
	"  1-8 / 0           Set / clear block color",
	"  c / p             Copy block text / paste clipboard as a block",
	"",
	"Selection:",
	"  v                 Toggle block in selection",
	"  V                 Selection box (cursor keys, Enter finishes)",
	"  Esc               Clear selection",
	"",
	"Relations:",
	"  a                 Draw a relation from the block (a again on the target)",
	"  x                 Delete the relation under the cursor",
	"",
	"Mouse:",
	"  drag block        Move; drag the bottom-right corner to resize",
	"  Alt+drag block    Draw a relation",
	"  Shift+click       Toggle selection",
	"  drag empty space  Selection box",
	"  right click       Context menu",
	"",
	"Files:",
	"  s                 Export canvas as PNG",
	"  T                 Export canvas as visual TXT",
	"",
	"  ?                 Toggle this help",
	"  q/Ctrl+C          Quit",
}

type menuItem struct {
	key   string
	label string
}

func menuItems(menu *canvas.ContextMenu) []menuItem {
	if menu.BlockID != "" {
		return []menuItem{
			{"enter", "Open"},
			{"e", "Edit"},
			{"o", "New below"},
			{"tab", "New connected"},
			{"a", "Connect"},
			{"c", "Copy"},
			{"d", "Delete"},
		}
	}
	return []menuItem{
		{"b", "New block"},
		{"p", "Paste"},
		{"backspace", "Back"},
		{"g", "Home"},
	}
}

// menuRect is where the open context menu is drawn, border included.
func (m *Model) menuRect() (cellRect, []menuItem) {
	menu := m.state.ContextMenu
	items := menuItems(menu)
	width := 0
	for _, it := range items {
		width = max(width, lipgloss.Width(it.label))
	}
	x, y := pointerCell(menu.Pointer)
	r := cellRect{x: x, y: y, w: width + 2, h: len(items) + 2}
	if r.x+r.w > m.width {
		r.x = max(0, m.width-r.w)
	}
	if r.y+r.h > m.canvasRows() {
		r.y = max(0, m.canvasRows()-r.h)
	}
	return r, items
}

// menuKeyAt returns the binding of the menu entry at a cell.
func (m *Model) menuKeyAt(x, y int) (string, bool) {
	r, items := m.menuRect()
	if !r.contains(x, y) {
		return "", false
	}
	i := y - r.y - 1
	if i < 0 || i >= len(items) {
		return "", false
	}
	return items[i].key, true
}

// render draws the canvas. Without interactive parts, the cursor and the
// transient overlays are left out.
func (m *Model) render(interactive bool) *grid {
	g := newGrid(m.width, m.canvasRows())
	s := m.state

	if interactive {
		m.drawGuidelines(g)
	}
	for _, pp := range m.paths {
		drawPath(g, pp)
	}
	if interactive && s.RelationDraw != nil {
		m.drawRelationPreview(g, s.RelationDraw)
	}
	for _, p := range m.placed {
		drawBlock(g, p, interactive)
	}
	if !interactive {
		return g
	}
	if s.Selecting {
		box := geometry.BoxToViewport(s.Camera.Focus, s.Camera.Scale, s.SelectionBox())
		g.border(toCells(box), '+', '.', ':')
	}
	if m.mode == ModeEditing {
		m.drawEditCursor(g)
	}
	if m.state.ContextMenu == nil {
		if r := g.at(m.cursorX, m.cursorY); r == ' ' {
			g.set(m.cursorX, m.cursorY, '█')
		}
	}
	return g
}

func drawBlock(g *grid, p placed, interactive bool) {
	c := p.cells
	g.fill(c, p.inst.Color)
	corner, horizontal, vertical := '+', '-', '|'
	if interactive {
		switch {
		case p.inst.Highlighted:
			corner, horizontal, vertical = '*', '*', '*'
		case p.inst.Selected || p.inst.Mode != model.ModeIdle:
			corner, horizontal, vertical = '#', '#', '#'
		}
	}
	g.border(c, corner, horizontal, vertical)
	for i, line := range p.lines {
		y := c.y + 1 + i
		if y >= c.y+c.h-1 {
			break
		}
		g.text(c.x+1, y, c.x+c.w-1, line)
	}
}

func drawPath(g *grid, pp placedPath) {
	cells := pp.cells
	for i, c := range cells {
		if i == len(cells)-1 {
			g.set(c[0], c[1], arrowHead(pp.path.EndSide))
			continue
		}
		g.set(c[0], c[1], '·')
	}
}

// arrowHead points into the side an arrow ends on.
func arrowHead(side arrow.Side) rune {
	switch side {
	case arrow.Left:
		return '>'
	case arrow.Right:
		return '<'
	case arrow.Bottom:
		return '^'
	default:
		return 'v'
	}
}

func (m *Model) drawRelationPreview(g *grid, rd *canvas.RelationDraw) {
	from, ok := m.viewportBox(rd.SourceBlockID)
	if !ok {
		return
	}
	start := from.Center()
	steps := int(geometry.Dist(start, rd.Pointer)/(cellWidth/2)) + 1
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x, y := pointerCell(start.Add(rd.Pointer.Sub(start).Scale(t)))
		g.set(x, y, '*')
	}
}

func (m *Model) drawGuidelines(g *grid) {
	s := m.state
	for _, gl := range s.Guidelines {
		if gl.Vertical() {
			x, _ := pointerCell(s.ToViewport(geometry.V(gl.Value, 0)))
			for y := 0; y < g.h; y++ {
				g.set(x, y, ':')
			}
			continue
		}
		_, y := pointerCell(s.ToViewport(geometry.V(0, gl.Value)))
		for x := 0; x < g.w; x++ {
			g.set(x, y, '.')
		}
	}
}

// drawEditCursor marks the insertion point inside the focused block.
func (m *Model) drawEditCursor(g *grid) {
	for _, p := range m.placed {
		if p.inst.ID != m.state.FocusedBlockID {
			continue
		}
		before := []rune(m.editText)[:m.editCursor]
		lines := strings.Split(string(before), "\n")
		row := len(lines) - 1
		col := lipgloss.Width(lines[row])
		cols := p.cells.w - 2
		if cols > 0 {
			row += col / cols
			col %= cols
		}
		g.set(p.cells.x+1+col, p.cells.y+1+row, '█')
		return
	}
}

func (m *Model) drawMenu(lines []string) []string {
	r, items := m.menuRect()
	labels := make([]string, len(items))
	for i, it := range items {
		labels[i] = it.label
	}
	box := strings.Split(menuStyle.Width(r.w-2).Render(strings.Join(labels, "\n")), "\n")
	for i, row := range box {
		y := r.y + i
		if y >= len(lines) {
			break
		}
		lines[y] = overlay(lines[y], row, r.x)
	}
	return lines
}

// overlay replaces the cells of a plain line starting at column x.
func overlay(line, over string, x int) string {
	runes := []rune(line)
	for len(runes) < x {
		runes = append(runes, ' ')
	}
	rest := ""
	if end := x + lipgloss.Width(over); end < len(runes) {
		rest = string(runes[end:])
	}
	return string(runes[:x]) + over + rest
}

func (m Model) View() string {
	if m.help {
		return m.helpView()
	}
	g := m.render(true)
	var lines []string
	if m.state.ContextMenu != nil {
		lines = m.drawMenu(g.plain())
	} else {
		lines = g.lines()
	}
	for len(lines) < m.canvasRows() {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n") + "\n" + m.statusLine()
}

func (m Model) modeString() string {
	switch m.mode {
	case ModeEditing:
		return "EDIT"
	case ModeMove:
		return "MOVE"
	case ModeResize:
		return "RESIZE"
	case ModeSelect:
		return "SELECT"
	case ModeRelation:
		return "CONNECT"
	case ModeConfirm:
		return "CONFIRM"
	}
	if m.panMode {
		return "PAN"
	}
	return "NORMAL"
}

func (m Model) statusLine() string {
	var status string
	switch m.mode {
	case ModeConfirm:
		var message string
		switch m.confirm {
		case ConfirmDeleteBlock:
			message = "Delete this block? (y/n)"
		case ConfirmDeleteRelation:
			message = "Delete this relation? (y/n)"
		case ConfirmQuit:
			message = "Quit nestcanvas? (y/n)"
		}
		status = fmt.Sprintf("Mode: CONFIRM | %s", message)
	case ModeEditing:
		status = "Mode: EDIT | Enter=newline, Ctrl+S=save, Ctrl+N=save as new, Esc=cancel"
	case ModeMove, ModeResize, ModeSelect, ModeRelation:
		status = fmt.Sprintf("Mode: %s | hjkl/arrows=drag, Enter=finish", m.modeString())
	default:
		title := strings.SplitN(m.registry.Text(m.state.Viewing), "\n", 2)[0]
		status = fmt.Sprintf("Mode: %s | %s | Depth: %d | Zoom: %.0f%% | Selected: %d | ?=help",
			m.modeString(), title, m.state.ExpandHistory.Len(), m.state.Camera.Scale*100, len(m.state.SelectedBlockIDs))
	}
	status = statusStyle.Render(truncate(status, m.width))
	switch {
	case m.errorMessage != "":
		status += " " + errorStyle.Render(m.errorMessage)
	case m.successMessage != "":
		status += " " + successStyle.Render(m.successMessage)
	}
	return status
}

func truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	if len(r) > width {
		r = r[:width]
	}
	return string(r)
}

func (m Model) helpView() string {
	visible := m.canvasRows()
	end := m.helpScroll + visible
	if end > len(helpLines) {
		end = len(helpLines)
	}
	return strings.Join(helpLines[m.helpScroll:end], "\n") + "\n" +
		statusStyle.Render("Mode: HELP | j/k=scroll, Esc/?=close")
}
