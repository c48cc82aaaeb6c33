package model

// Mode is the interaction a block instance is currently part of.
type Mode int

const (
	ModeIdle Mode = iota
	ModeFocusing
	ModeMoving
	ModeResizing
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeFocusing:
		return "focusing"
	case ModeMoving:
		return "moving"
	case ModeResizing:
		return "resizing"
	default:
		return "unknown"
	}
}

// BlockInstance is the per-render projection of a Block with UI-only state.
// Instances are never modified after creation; a change builds a new one.
type BlockInstance struct {
	Block
	ConceptID   ConceptID
	Mode        Mode
	Selected    bool
	Highlighted bool
}

// With returns a copy of bi with the given block, keeping UI state.
func (bi *BlockInstance) With(b Block) *BlockInstance {
	out := *bi
	out.Block = b
	return &out
}

// WithState returns a copy of bi with new UI state.
func (bi *BlockInstance) WithState(mode Mode, selected, highlighted bool) *BlockInstance {
	if bi.Mode == mode && bi.Selected == selected && bi.Highlighted == highlighted {
		return bi
	}
	out := *bi
	out.Mode = mode
	out.Selected = selected
	out.Highlighted = highlighted
	return &out
}

// SynthesizeBlocks projects the references of concept id into instances.
// Instances in prev whose block is unchanged are reused as-is, so callers can
// compare pointers to detect changes. UI state carries over for changed blocks.
func SynthesizeBlocks(id ConceptID, refs []Block, prev []*BlockInstance) []*BlockInstance {
	byID := make(map[string]*BlockInstance, len(prev))
	for _, bi := range prev {
		if bi.ConceptID == id {
			byID[bi.ID] = bi
		}
	}
	out := make([]*BlockInstance, 0, len(refs))
	for _, b := range refs {
		old, ok := byID[b.ID]
		switch {
		case ok && old.Block.Equal(b):
			out = append(out, old)
		case ok:
			out = append(out, old.With(b))
		default:
			out = append(out, &BlockInstance{Block: b, ConceptID: id})
		}
	}
	return out
}

// SynthesizeRelations copies the relations of a concept, dropping any whose
// block endpoints are not among refs.
func SynthesizeRelations(refs []Block, rels []Relation) []Relation {
	ids := make(map[string]bool, len(refs))
	for _, b := range refs {
		ids[b.ID] = true
	}
	out := make([]Relation, 0, len(rels))
	for _, r := range rels {
		if r.Within(ids) {
			out = append(out, r)
		}
	}
	return out
}

// History is a fixed-length ring of previously viewed concepts. Pushing onto
// a full history drops the oldest entry. Values are immutable.
type History struct {
	items    []ConceptID
	capacity int
}

func NewHistory(capacity int) History {
	if capacity < 1 {
		capacity = 1
	}
	return History{capacity: capacity}
}

// Push returns a history with id as the most recent entry.
// The zero History holds one entry.
func (h History) Push(id ConceptID) History {
	capacity := max(1, h.capacity)
	items := h.items
	if len(items) >= capacity {
		items = items[len(items)-capacity+1:]
	}
	next := make([]ConceptID, 0, capacity)
	next = append(next, items...)
	next = append(next, id)
	return History{items: next, capacity: capacity}
}

// Pop returns the history without its most recent entry, and that entry.
func (h History) Pop() (History, ConceptID, bool) {
	if len(h.items) == 0 {
		return h, "", false
	}
	last := h.items[len(h.items)-1]
	rest := append([]ConceptID(nil), h.items[:len(h.items)-1]...)
	return History{items: rest, capacity: h.capacity}, last, true
}

// Peek returns the most recent entry.
func (h History) Peek() (ConceptID, bool) {
	if len(h.items) == 0 {
		return "", false
	}
	return h.items[len(h.items)-1], true
}

func (h History) Len() int      { return len(h.items) }
func (h History) Capacity() int { return h.capacity }

// Items returns the entries, oldest first.
func (h History) Items() []ConceptID {
	return append([]ConceptID(nil), h.items...)
}
