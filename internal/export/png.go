// Package export renders a concept's canvas to an image.
package export

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"nestcanvas/internal/arrow"
	"nestcanvas/internal/content"
	"nestcanvas/internal/geometry"
	"nestcanvas/internal/model"
)

// ErrEmpty is returned for a concept without blocks.
var ErrEmpty = errors.New("nothing to export")

// Lookup resolves the concept a block points at.
type Lookup func(id model.ConceptID) (model.Concept, bool)

type Options struct {
	// CharWidth and CharHeight are the pixel size of one text cell.
	CharWidth  float64
	CharHeight float64
	FontSize   float64
	// Padding surrounds the drawing.
	Padding           float64
	DefaultBlockWidth float64
	Arrow             arrow.Options
	ArrowSize         float64
	// MaxSide caps the image width and height in pixels; larger canvases
	// are scaled down to fit. Zero means no cap.
	MaxSide float64
}

// minTextSize is the smallest font size, in pixels, still worth drawing.
const minTextSize = 4

func DefaultOptions() Options {
	return Options{
		CharWidth:         8,
		CharHeight:        16,
		FontSize:          12,
		Padding:           32,
		DefaultBlockWidth: 300,
		Arrow:             arrow.DefaultOptions(),
		ArrowSize:         8,
		MaxSide:           4096,
	}
}

// Item is one block laid out for drawing, in environment units.
type Item struct {
	Block model.Block
	Box   geometry.Box
	Lines []string
}

// Layout sizes every normal block of c. Auto widths use DefaultBlockWidth;
// auto heights fit the wrapped summary text.
func Layout(c model.Concept, lookup Lookup, reg *content.Registry, opts Options) []Item {
	items := make([]Item, 0, len(c.References))
	for _, b := range c.References {
		if b.PosType != model.Normal {
			continue
		}
		w := b.Size.W.Or(opts.DefaultBlockWidth)
		var lines []string
		if child, ok := lookup(b.To); ok {
			cols := int(w/opts.CharWidth) - 2
			lines = reg.Render(content.Props{ReadOnly: true, Concept: child, Width: cols})
		}
		h := b.Size.H.Or(float64(len(lines)+1) * opts.CharHeight)
		items = append(items, Item{Block: b, Box: geometry.BoxAt(b.Pos, geometry.V(w, h)), Lines: lines})
	}
	return items
}

func loadFace(size float64) (font.Face, error) {
	f, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}

// Render draws c: relation curves first, blocks on top.
func Render(c model.Concept, lookup Lookup, reg *content.Registry, opts Options) (image.Image, error) {
	items := Layout(c, lookup, reg, opts)
	if len(items) == 0 {
		return nil, ErrEmpty
	}
	boxes := make([]geometry.Box, len(items))
	byID := make(map[string]geometry.Box, len(items))
	for i, it := range items {
		boxes[i] = it.Box
		byID[it.Block.ID] = it.Box
	}

	var paths []arrow.Path
	for _, rel := range c.Relations {
		from, okFrom := byID[rel.FromID]
		to, okTo := byID[rel.ToID]
		if !okFrom || !okTo {
			continue
		}
		p := arrow.Route(from, to, opts.Arrow)
		paths = append(paths, p)
		boxes = append(boxes, geometry.Normalize(p.C1, p.C2))
	}
	for _, st := range c.Drawing {
		for _, pt := range st.Points {
			boxes = append(boxes, geometry.BoxAt(pt, geometry.Vec2{}))
		}
	}

	bounds, _ := geometry.Bounds(boxes)
	bounds = bounds.Grow(opts.Padding)
	origin := bounds.Pos()

	scale := fitScale(bounds, opts.MaxSide)
	dc := gg.NewContext(pixels(bounds.W*scale), pixels(bounds.H*scale))
	dc.SetColor(color.White)
	dc.Clear()
	dc.Scale(scale, scale)

	// Glyphs ignore the context transform, so the face is sized instead.
	text := opts.FontSize*scale >= minTextSize
	if text {
		face, err := loadFace(opts.FontSize * scale)
		if err != nil {
			return nil, err
		}
		dc.SetFontFace(face)
	}

	for _, st := range c.Drawing {
		drawStroke(dc, st, origin)
	}
	for _, p := range paths {
		drawPath(dc, p, origin, opts.ArrowSize)
	}
	for _, it := range items {
		drawItem(dc, it, origin, opts, text)
	}
	return dc.Image(), nil
}

// fitScale shrinks bounds so neither side exceeds maxSide.
func fitScale(bounds geometry.Box, maxSide float64) float64 {
	longest := math.Max(bounds.W, bounds.H)
	if maxSide <= 0 || longest <= maxSide {
		return 1
	}
	return maxSide / longest
}

// pixels rounds a scaled length up to whole pixels, ignoring float noise.
func pixels(v float64) int {
	return max(1, int(math.Ceil(v-1e-6)))
}

// WritePNG renders c and encodes it to w.
func WritePNG(w io.Writer, c model.Concept, lookup Lookup, reg *content.Registry, opts Options) error {
	img, err := Render(c, lookup, reg, opts)
	if err != nil {
		return err
	}
	return gg.NewContextForImage(img).EncodePNG(w)
}

// SavePNG renders c to a PNG file.
func SavePNG(path string, c model.Concept, lookup Lookup, reg *content.Registry, opts Options) error {
	img, err := Render(c, lookup, reg, opts)
	if err != nil {
		return err
	}
	if err := gg.SavePNG(path, img); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func drawPath(dc *gg.Context, p arrow.Path, origin geometry.Vec2, size float64) {
	s, c1, c2, e := p.Start.Sub(origin), p.C1.Sub(origin), p.C2.Sub(origin), p.End.Sub(origin)
	dc.SetLineWidth(1.5)
	dc.SetColor(color.Black)
	dc.MoveTo(s.X, s.Y)
	dc.CubicTo(c1.X, c1.Y, c2.X, c2.Y, e.X, e.Y)
	dc.Stroke()

	// The head points along +x before rotation.
	dc.Push()
	dc.RotateAbout(gg.Radians(p.EndAngle), e.X, e.Y)
	dc.MoveTo(e.X, e.Y)
	dc.LineTo(e.X-size, e.Y-size/2)
	dc.LineTo(e.X-size, e.Y+size/2)
	dc.ClosePath()
	dc.Fill()
	dc.Pop()
}

func drawStroke(dc *gg.Context, st model.Stroke, origin geometry.Vec2) {
	if len(st.Points) < 2 {
		return
	}
	dc.SetColor(color.Black)
	if st.Color != "" {
		dc.SetHexColor(st.Color)
	}
	dc.SetLineWidth(2)
	if st.Width > 0 {
		dc.SetLineWidth(st.Width)
	}
	for i, pt := range st.Points {
		p := pt.Sub(origin)
		if i == 0 {
			dc.MoveTo(p.X, p.Y)
		} else {
			dc.LineTo(p.X, p.Y)
		}
	}
	dc.Stroke()
}

func drawItem(dc *gg.Context, it Item, origin geometry.Vec2, opts Options, text bool) {
	b := it.Box.Translate(origin.Scale(-1))

	dc.SetColor(color.White)
	if it.Block.Color != "" {
		dc.SetHexColor(it.Block.Color)
	}
	dc.DrawRectangle(b.X, b.Y, b.W, b.H)
	dc.Fill()

	dc.SetLineWidth(1)
	dc.SetColor(color.Black)
	dc.DrawRectangle(b.X, b.Y, b.W, b.H)
	dc.Stroke()

	if !text {
		return
	}
	maxLines := int(b.H/opts.CharHeight) - 1
	for i, line := range it.Lines {
		if i >= maxLines {
			break
		}
		dc.DrawString(line, b.X+opts.CharWidth, b.Y+opts.CharHeight*float64(i+1))
	}
}
