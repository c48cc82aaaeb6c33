package content

import (
	"encoding/json"
	"strings"

	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"

	"nestcanvas/internal/model"
)

// TypeText is the summary type of plain text concepts.
const TypeText = "text"

// Text stores a summary as a JSON string.
type Text struct{}

func (Text) Type() string { return TypeText }

func (Text) Text(s model.Summary) string {
	if len(s.Data) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(s.Data, &text); err != nil {
		// Not a string: show the raw payload rather than nothing.
		return string(s.Data)
	}
	return text
}

func (Text) Summary(text string) model.Summary {
	data, _ := json.Marshal(text)
	return model.Summary{Type: TypeText, Data: data}
}

func (t Text) Render(p Props) []string {
	text := t.Text(p.Concept.Summary)
	if p.ViewMode == ViewTitle {
		text = strings.SplitN(text, "\n", 2)[0]
	}
	return Wrap(text, p.Width)
}

// Wrap breaks text into lines of at most width cells, splitting on spaces
// where it can and hard-breaking longer words. Explicit newlines and leading
// indentation are kept.
func Wrap(text string, width int) []string {
	if width < 1 {
		width = 1
	}
	return strings.Split(wrap.String(wordwrap.String(text, width), width), "\n")
}
