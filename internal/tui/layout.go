package tui

import (
	"fmt"
	"math"

	"nestcanvas/internal/arrow"
	"nestcanvas/internal/canvas"
	"nestcanvas/internal/content"
	"nestcanvas/internal/geometry"
	"nestcanvas/internal/model"
	"nestcanvas/internal/rectcache"
)

// A terminal cell stands for this many viewport pixels.
const (
	cellWidth  = 8
	cellHeight = 16
)

// placed is a block laid out for the current frame.
type placed struct {
	inst  *model.BlockInstance
	box   geometry.Box // viewport pixels
	cells cellRect
	lines []string
}

// placedPath is a relation routed for the current frame.
type placedPath struct {
	rel   model.Relation
	path  arrow.Path // viewport pixels
	cells [][2]int
}

func toCells(b geometry.Box) cellRect {
	c := cellRect{
		x: int(math.Floor(b.X / cellWidth)),
		y: int(math.Floor(b.Y / cellHeight)),
		w: int(math.Round(b.W / cellWidth)),
		h: int(math.Round(b.H / cellHeight)),
	}
	if c.w < 2 {
		c.w = 2
	}
	if c.h < 2 {
		c.h = 2
	}
	return c
}

// cellPointer is the viewport pixel at the center of a cell.
func cellPointer(x, y int) geometry.Vec2 {
	return geometry.V(float64(x)*cellWidth+cellWidth/2, float64(y)*cellHeight+cellHeight/2)
}

func pointerCell(p geometry.Vec2) (int, int) {
	return int(math.Floor(p.X / cellWidth)), int(math.Floor(p.Y / cellHeight))
}

// canvasRows is the height of the canvas area, without the status line.
func (m *Model) canvasRows() int {
	if m.height < 2 {
		return 1
	}
	return m.height - 1
}

func (m *Model) viewport() geometry.Vec2 {
	return geometry.V(float64(m.width*cellWidth), float64(m.canvasRows()*cellHeight))
}

// blockLines renders the content shown inside a block cols cells wide.
func (m *Model) blockLines(bi *model.BlockInstance, cols int) []string {
	if m.mode == ModeEditing && bi.ID == m.state.FocusedBlockID {
		return content.Wrap(m.editText, cols)
	}
	child, ok := m.store.GetConcept(bi.To)
	if !ok {
		return []string{"(missing)"}
	}
	props := content.Props{ReadOnly: true, ViewMode: content.ViewBlock, Concept: child, Width: cols}
	if !child.IsCanvas() {
		return m.registry.Render(props)
	}
	props.ViewMode = content.ViewTitle
	return append(m.registry.Render(props), fmt.Sprintf("[%d blocks]", len(child.References)))
}

// layout places the visible blocks and relations of the current state and
// reports their measured rectangles to the rect cache.
func (m *Model) layout() {
	s := m.state
	rects := m.reducer.Rects()
	opts := m.reducer.Options()
	vp := s.Viewport

	var normal, pinned []placed
	seen := make(map[string]bool, len(s.Blocks))
	for _, bi := range canvas.VisibleBlocks(s, rects) {
		scale := s.Camera.Scale
		if bi.PosType != model.Normal {
			scale = 1
		}
		width := bi.Size.W.Or(opts.DefaultBlockWidth) * scale
		cols := int(math.Round(width/cellWidth)) - 2
		if cols < 1 {
			cols = 1
		}
		lines := m.blockLines(bi, cols)
		height := float64(len(lines)+2) * cellHeight
		if !bi.Size.H.Auto {
			height = bi.Size.H.Value * scale
		}

		p := placed{inst: bi, lines: lines}
		switch bi.PosType {
		case model.Normal:
			p.box = geometry.B(0, 0, width, height)
			p.box = p.box.Translate(s.ToViewport(bi.Pos))
			env := geometry.BoxToEnv(s.Camera.Focus, s.Camera.Scale, p.box)
			box := p.box
			rects.Report(bi.ID, env)
			rects.SetElement(bi.ID, rectcache.ElementFunc(func() (geometry.Box, bool) { return box, true }))
			seen[bi.ID] = true
		case model.PinnedTL:
			p.box = geometry.B(bi.Pos.X, bi.Pos.Y, width, height)
		case model.PinnedTR:
			p.box = geometry.B(vp.X-bi.Pos.X-width, bi.Pos.Y, width, height)
		case model.PinnedBL:
			p.box = geometry.B(bi.Pos.X, vp.Y-bi.Pos.Y-height, width, height)
		case model.PinnedBR:
			p.box = geometry.B(vp.X-bi.Pos.X-width, vp.Y-bi.Pos.Y-height, width, height)
		}
		p.cells = toCells(p.box)
		if bi.PosType == model.Normal {
			normal = append(normal, p)
		} else {
			pinned = append(pinned, p)
		}
	}
	for id := range m.mounted {
		if !seen[id] {
			rects.DetachElement(id)
		}
	}
	m.mounted = seen
	m.placed = append(normal, pinned...)
	m.routeRelations()
}

// routeRelations routes every relation whose endpoints have a known
// rectangle, on screen or not.
func (m *Model) routeRelations() {
	s := m.state
	opts := m.cfg.Canvas.ArrowOptions()
	m.paths = nil
	for _, rel := range s.Relations {
		from, okFrom := m.viewportBox(rel.FromID)
		to, okTo := m.viewportBox(rel.ToID)
		if !okFrom || !okTo {
			continue
		}
		path := arrow.Route(from, to, opts)
		m.paths = append(m.paths, placedPath{rel: rel, path: path, cells: pathCells(path)})
	}
}

// viewportBox finds the current viewport rectangle of block id.
func (m *Model) viewportBox(id string) (geometry.Box, bool) {
	for _, p := range m.placed {
		if p.inst.ID == id {
			return p.box, true
		}
	}
	env, ok := m.reducer.Rects().Peek(id)
	if !ok {
		return geometry.Box{}, false
	}
	return geometry.BoxToViewport(m.state.Camera.Focus, m.state.Camera.Scale, env), true
}

// pathCells samples the curve densely enough to touch every cell it crosses.
func pathCells(p arrow.Path) [][2]int {
	span := geometry.Dist(p.Start, p.C1) + geometry.Dist(p.C1, p.C2) + geometry.Dist(p.C2, p.End)
	n := int(span/(cellWidth/2)) + 1
	var out [][2]int
	for _, pt := range p.Sample(n) {
		x, y := pointerCell(pt)
		if k := len(out); k > 0 && out[k-1] == [2]int{x, y} {
			continue
		}
		out = append(out, [2]int{x, y})
	}
	return out
}

// blockAt returns the topmost block drawn over cell (x, y).
func (m *Model) blockAt(x, y int) (placed, bool) {
	for i := len(m.placed) - 1; i >= 0; i-- {
		if m.placed[i].cells.contains(x, y) {
			return m.placed[i], true
		}
	}
	return placed{}, false
}

// relationAt returns the relation passing through cell (x, y).
func (m *Model) relationAt(x, y int) (model.Relation, bool) {
	for _, pp := range m.paths {
		for _, c := range pp.cells {
			if c == [2]int{x, y} {
				return pp.rel, true
			}
		}
	}
	return model.Relation{}, false
}
