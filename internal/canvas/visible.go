package canvas

import (
	"nestcanvas/internal/geometry"
	"nestcanvas/internal/model"
	"nestcanvas/internal/rectcache"
)

// VisibleBlocks filters s.Blocks to the ones worth rendering: pinned blocks,
// normal blocks whose cached rectangle meets the visible area, and blocks
// never measured, which must render once to report a size.
func VisibleBlocks(s *AppState, rects *rectcache.Cache) []*model.BlockInstance {
	area := s.VisibleArea()
	out := make([]*model.BlockInstance, 0, len(s.Blocks))
	for _, bi := range s.Blocks {
		if bi.PosType != model.Normal {
			out = append(out, bi)
			continue
		}
		rect, ok := rects.Peek(bi.ID)
		if !ok {
			out = append(out, bi)
			continue
		}
		// The cached size may lag a move; the position never does.
		if geometry.Intersects(area, geometry.BoxAt(bi.Pos, rect.Size())) {
			out = append(out, bi)
		}
	}
	return out
}
