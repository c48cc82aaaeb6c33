package tui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"nestcanvas/internal/canvas"
	"nestcanvas/internal/content"
	"nestcanvas/internal/export"
)

// exportName derives a file name from the viewed canvas title.
func (m *Model) exportName(ext string) string {
	title := strings.SplitN(m.registry.Text(m.state.Viewing), "\n", 2)[0]
	name := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, strings.TrimSpace(title))
	if strings.Trim(name, "_") == "" {
		name = "canvas"
	}
	return m.cfg.SavePath(name + ext)
}

func (m *Model) exportPNG() {
	path := m.exportName(".png")
	err := export.SavePNG(path, m.state.Viewing, m.store.GetConcept, m.registry, m.cfg.Canvas.ExportOptions())
	if err != nil {
		m.errorMessage = err.Error()
		m.logger.Warn("png export failed", zap.String("path", path), zap.Error(err))
		return
	}
	m.successMessage = "Exported " + path
	m.logger.Info("png exported", zap.String("path", path))
}

// WriteText writes the canvas as it appears on screen, without cursor,
// selection or other transient marks.
func (m *Model) WriteText(w io.Writer) error {
	for _, line := range m.render(false).plain() {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func (m *Model) exportText() {
	path := m.exportName(".txt")
	err := func() error {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return m.WriteText(f)
	}()
	if err != nil {
		m.errorMessage = err.Error()
		m.logger.Warn("text export failed", zap.String("path", path), zap.Error(err))
		return
	}
	m.successMessage = "Exported " + path
}

// copyBlock puts the text of the targeted block on the system clipboard.
func (m *Model) copyBlock() {
	bi, ok := m.target()
	if !ok {
		return
	}
	c, ok := m.store.GetConcept(bi.To)
	if !ok {
		return
	}
	if err := m.writeClipboard(m.registry.Text(c)); err != nil {
		m.errorMessage = "Clipboard unavailable"
		m.logger.Debug("clipboard write failed", zap.Error(err))
		return
	}
	m.successMessage = "Copied"
}

// paste creates a text block at the cursor from the system clipboard.
func (m *Model) paste() {
	text, err := m.readClipboard()
	if err != nil {
		m.errorMessage = "Clipboard unavailable"
		m.logger.Debug("clipboard read failed", zap.Error(err))
		return
	}
	text = content.CleanPasted(text)
	if strings.TrimSpace(text) == "" {
		return
	}
	summary := content.Text{}.Summary(text)
	m.dispatch(canvas.CreateBlock{Pointer: m.pointer(), Summary: &summary})
}
