package canvas

// FrameQueue collects actions between two frames. Consecutive pointer
// movements of one kind are merged into a single action carrying the summed
// delta, so a frame costs at most one reducer call per movement kind.
// CameraScale is never merged: each notch clamps to the scale range on its
// own, and a summed delta would lose notches absorbed by the clamp.
type FrameQueue struct {
	pending []Action
}

// Push queues a, merging it into the previous action when both move the
// same gesture.
func (q *FrameQueue) Push(a Action) {
	if n := len(q.pending); n > 0 {
		if merged, ok := merge(q.pending[n-1], a); ok {
			q.pending[n-1] = merged
			return
		}
	}
	q.pending = append(q.pending, a)
}

// Len returns the number of queued actions after merging.
func (q *FrameQueue) Len() int { return len(q.pending) }

// Drain returns the queued actions in order and empties the queue.
func (q *FrameQueue) Drain() []Action {
	out := q.pending
	q.pending = nil
	return out
}

// Flush reduces every queued action onto s.
func (q *FrameQueue) Flush(r *Reducer, s *AppState) *AppState {
	for _, a := range q.Drain() {
		s = r.Reduce(s, a)
	}
	return s
}

func merge(prev, next Action) (Action, bool) {
	switch p := prev.(type) {
	case Move:
		if n, ok := next.(Move); ok {
			return Move{Delta: p.Delta.Add(n.Delta)}, true
		}
	case Resize:
		if n, ok := next.(Resize); ok {
			return Resize{Delta: p.Delta.Add(n.Delta)}, true
		}
	case SelectionMove:
		if n, ok := next.(SelectionMove); ok {
			return SelectionMove{Delta: p.Delta.Add(n.Delta)}, true
		}
	case RelationDrawMove:
		if n, ok := next.(RelationDrawMove); ok {
			return RelationDrawMove{Delta: p.Delta.Add(n.Delta)}, true
		}
	case CameraMove:
		if n, ok := next.(CameraMove); ok {
			return CameraMove{Delta: p.Delta.Add(n.Delta)}, true
		}
	}
	return nil, false
}
