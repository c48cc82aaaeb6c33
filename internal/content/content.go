// Package content resolves how a concept's summary is shown and edited. The
// canvas engine hands summaries through untouched; only plugins look inside.
package content

import (
	"sort"
	"sync"

	"nestcanvas/internal/model"
)

// ViewMode says where a summary is being drawn.
type ViewMode int

const (
	// ViewBlock renders inside a block on a parent canvas.
	ViewBlock ViewMode = iota
	// ViewTitle renders as the heading of the canvas being viewed.
	ViewTitle
)

// Props is what a plugin gets to render or edit one concept. The callbacks
// are optional; a nil callback drops the event.
type Props struct {
	ReadOnly bool
	ViewMode ViewMode
	Concept  model.Concept
	Width    int

	// OnChange receives the concept's new summary.
	OnChange func(model.Summary)
	// OnReplace receives the summary of a new concept that should take this
	// one's place in the block being edited.
	OnReplace func(model.Summary)

	OnInteractionStart func()
	OnInteractionEnd   func()
}

// Plugin renders and edits one summary type.
type Plugin interface {
	Type() string
	// Render lays the summary out in lines no wider than p.Width cells.
	Render(p Props) []string
	// Text is the editable form of a summary.
	Text(s model.Summary) string
	// Summary converts edited text back. It feeds UpdateSummary.
	Summary(text string) model.Summary
}

// Registry maps summary types to plugins. Unknown types fall back to the
// registry's fallback plugin.
type Registry struct {
	mu       sync.RWMutex
	plugins  map[string]Plugin
	fallback Plugin
}

// NewRegistry returns a registry holding the text plugin as fallback.
func NewRegistry() *Registry {
	text := Text{}
	return &Registry{
		plugins:  map[string]Plugin{text.Type(): text},
		fallback: text,
	}
}

// Register adds or replaces the plugin for its type.
func (r *Registry) Register(p Plugin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins[p.Type()] = p
}

// Resolve returns the plugin for typ, or the fallback.
func (r *Registry) Resolve(typ string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.plugins[typ]; ok {
		return p
	}
	return r.fallback
}

// Types lists the registered types in order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.plugins))
	for t := range r.plugins {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Render is shorthand for resolving the concept's plugin and rendering it.
func (r *Registry) Render(p Props) []string {
	return r.Resolve(p.Concept.Summary.Type).Render(p)
}

// Text is shorthand for the editable text of a concept.
func (r *Registry) Text(c model.Concept) string {
	return r.Resolve(c.Summary.Type).Text(c.Summary)
}

// Session is one edit of a concept through its plugin. Results go out
// through the callbacks of the Props it was started with.
type Session struct {
	plugin Plugin
	props  Props
	ended  bool
}

// Edit starts a session on p.Concept and reports OnInteractionStart.
func (r *Registry) Edit(p Props) *Session {
	s := &Session{plugin: r.Resolve(p.Concept.Summary.Type), props: p}
	if p.OnInteractionStart != nil {
		p.OnInteractionStart()
	}
	return s
}

// Text is the editable form of the concept's summary.
func (s *Session) Text() string {
	return s.plugin.Text(s.props.Concept.Summary)
}

// Change converts text with the plugin and reports it through OnChange.
func (s *Session) Change(text string) {
	if s.ended || s.props.ReadOnly || s.props.OnChange == nil {
		return
	}
	s.props.OnChange(s.plugin.Summary(text))
}

// Replace converts text with the plugin and reports it through OnReplace.
func (s *Session) Replace(text string) {
	if s.ended || s.props.ReadOnly || s.props.OnReplace == nil {
		return
	}
	s.props.OnReplace(s.plugin.Summary(text))
}

// End reports OnInteractionEnd. Later calls do nothing.
func (s *Session) End() {
	if s.ended {
		return
	}
	s.ended = true
	if s.props.OnInteractionEnd != nil {
		s.props.OnInteractionEnd()
	}
}
