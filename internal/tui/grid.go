package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// grid is a screen of runes with an optional background color per cell.
type grid struct {
	w, h   int
	cells  [][]rune
	colors [][]string
}

func newGrid(w, h int) *grid {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	g := &grid{w: w, h: h, cells: make([][]rune, h), colors: make([][]string, h)}
	for y := range g.cells {
		g.cells[y] = make([]rune, w)
		g.colors[y] = make([]string, w)
		for x := range g.cells[y] {
			g.cells[y][x] = ' '
		}
	}
	return g
}

func (g *grid) valid(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.w && y < g.h
}

func (g *grid) set(x, y int, r rune) {
	if g.valid(x, y) {
		g.cells[y][x] = r
	}
}

func (g *grid) at(x, y int) rune {
	if !g.valid(x, y) {
		return 0
	}
	return g.cells[y][x]
}

// text writes s from (x, y), clipped at maxX (exclusive).
func (g *grid) text(x, y, maxX int, s string) {
	for _, r := range s {
		if x >= maxX {
			return
		}
		g.set(x, y, r)
		x++
	}
}

// fill paints the background of a rectangle and blanks its cells.
func (g *grid) fill(c cellRect, color string) {
	for y := c.y; y < c.y+c.h; y++ {
		for x := c.x; x < c.x+c.w; x++ {
			if g.valid(x, y) {
				g.cells[y][x] = ' '
				g.colors[y][x] = color
			}
		}
	}
}

// border draws the outline of c.
func (g *grid) border(c cellRect, corner, horizontal, vertical rune) {
	right, bottom := c.x+c.w-1, c.y+c.h-1
	for x := c.x; x <= right; x++ {
		r := horizontal
		if x == c.x || x == right {
			r = corner
		}
		g.set(x, c.y, r)
		g.set(x, bottom, r)
	}
	for y := c.y + 1; y < bottom; y++ {
		g.set(c.x, y, vertical)
		g.set(right, y, vertical)
	}
}

// lines renders the grid, styling runs of equal background color.
func (g *grid) lines() []string {
	out := make([]string, g.h)
	for y := 0; y < g.h; y++ {
		var b strings.Builder
		start := 0
		for x := 1; x <= g.w; x++ {
			if x < g.w && g.colors[y][x] == g.colors[y][start] {
				continue
			}
			run := string(g.cells[y][start:x])
			if c := g.colors[y][start]; c != "" {
				run = lipgloss.NewStyle().Background(lipgloss.Color(c)).Render(run)
			}
			b.WriteString(run)
			start = x
		}
		out[y] = b.String()
	}
	return out
}

// plain renders the grid without colors.
func (g *grid) plain() []string {
	out := make([]string, g.h)
	for y, row := range g.cells {
		out[y] = strings.TrimRight(string(row), " ")
	}
	return out
}

// cellRect is a rectangle in terminal cells.
type cellRect struct {
	x, y, w, h int
}

func (c cellRect) contains(x, y int) bool {
	return x >= c.x && x < c.x+c.w && y >= c.y && y < c.y+c.h
}

// corner reports whether (x, y) is the bottom-right cell, the resize handle.
func (c cellRect) corner(x, y int) bool {
	return x == c.x+c.w-1 && y == c.y+c.h-1
}
