package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"sire/internal/calltree"
)

// Recorder keeps every span in memory and replays them as a calltree event
// stream. Spans are nested by ParentID rather than by arrival order, so
// interleaved spans from concurrent loads still produce a well-nested stream.
type Recorder struct {
	mu    sync.Mutex
	level Level
	spans map[uint64]*recordedSpan
	order []uint64 // span ids by begin order
}

type recordedSpan struct {
	id       uint64
	parent   uint64
	scope    Scope
	name     string
	detail   string
	extra    map[string]string
	begin    time.Time
	end      time.Time
	children []uint64
}

// NewRecorder creates a Recorder that keeps spans allowed by level.
func NewRecorder(level Level) *Recorder {
	return &Recorder{level: level, spans: make(map[uint64]*recordedSpan)}
}

// Emit records span begin and end events; other kinds are ignored.
func (r *Recorder) Emit(ev *Event) {
	if !r.level.ShouldEmit(ev.Scope) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.Kind {
	case KindSpanBegin:
		r.spans[ev.SpanID] = &recordedSpan{
			id:     ev.SpanID,
			parent: ev.ParentID,
			scope:  ev.Scope,
			name:   ev.Name,
			begin:  ev.Time,
		}
		r.order = append(r.order, ev.SpanID)
		if p, ok := r.spans[ev.ParentID]; ok {
			p.children = append(p.children, ev.SpanID)
		}
	case KindSpanEnd:
		if s, ok := r.spans[ev.SpanID]; ok {
			s.end = ev.Time
			s.detail = ev.Detail
			s.extra = ev.Extra
		}
	}
}

type recordedArgs struct {
	Scope      string            `json:"scope"`
	Detail     string            `json:"detail,omitempty"`
	DurationMS float64           `json:"duration_ms"`
	Unfinished bool              `json:"unfinished,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Events returns the recorded spans as enter/leave events. Spans still open
// are closed at the end of their parent and flagged as unfinished.
func (r *Recorder) Events() ([]calltree.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var roots []uint64
	for _, id := range r.order {
		s := r.spans[id]
		if _, ok := r.spans[s.parent]; !ok {
			roots = append(roots, id)
		}
	}

	var out []calltree.Event
	var emit func(id uint64) error
	emit = func(id uint64) error {
		s := r.spans[id]
		args := recordedArgs{Scope: s.scope.String(), Detail: s.detail, Extra: s.extra}
		if s.end.IsZero() {
			args.Unfinished = true
		} else {
			args.DurationMS = float64(s.end.Sub(s.begin)) / float64(time.Millisecond)
		}
		raw, err := json.Marshal(args)
		if err != nil {
			return fmt.Errorf("record span %q: %w", s.name, err)
		}
		out = append(out, calltree.Enter(s.name, raw))
		for _, child := range s.children {
			if err := emit(child); err != nil {
				return err
			}
		}
		out = append(out, calltree.Event{Kind: calltree.KindLeave, FnName: s.name})
		return nil
	}
	for _, id := range roots {
		if err := emit(id); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// WriteJSON writes {"events":[...]} in the sire input format.
func (r *Recorder) WriteJSON(w io.Writer) error {
	events, err := r.Events()
	if err != nil {
		return err
	}
	if events == nil {
		events = []calltree.Event{}
	}
	// no indent: it would reformat the nested args
	return json.NewEncoder(w).Encode(struct {
		Events []calltree.Event `json:"events"`
	}{Events: events})
}

// Flush is a no-op.
func (r *Recorder) Flush() error { return nil }

// Close is a no-op.
func (r *Recorder) Close() error { return nil }

// Level returns the recording level.
func (r *Recorder) Level() Level { return r.level }

// Enabled reports whether recording is active.
func (r *Recorder) Enabled() bool { return r.level > LevelOff }
