package trace

import (
	"sync/atomic"
	"time"
)

// Counters shared by every tracer in the process. Span ids start at 1 so the
// zero id can mean "no parent".
var (
	seqCounter  atomic.Uint64
	spanCounter atomic.Uint64
)

func nextSeq() uint64 { return seqCounter.Add(1) }

// admits reports whether t records events of scope.
func admits(t Tracer, scope Scope) bool {
	return t != nil && t.Enabled() && t.Level().ShouldEmit(scope)
}

// Span is an open enter/leave pair. The zero span and spans on a disabled
// tracer are inert: every method is a no-op.
type Span struct {
	tracer  Tracer
	begin   Event
	extra   map[string]string
	stopped bool
}

// Begin opens a span under parent (0 for a root) and emits its begin event.
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	if !admits(t, scope) {
		return &Span{}
	}
	s := &Span{
		tracer: t,
		begin: Event{
			Time:     time.Now(),
			Kind:     KindSpanBegin,
			Scope:    scope,
			SpanID:   spanCounter.Add(1),
			ParentID: parent,
			Name:     name,
		},
	}
	ev := s.begin
	t.Emit(&ev)
	return s
}

// End emits the end event once and returns how long the span was open.
// Later calls return 0.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.tracer == nil || s.stopped {
		return 0
	}
	s.stopped = true
	now := time.Now()
	end := s.begin
	end.Time = now
	end.Kind = KindSpanEnd
	end.Detail = detail
	end.Extra = s.extra
	s.tracer.Emit(&end)
	return now.Sub(s.begin.Time)
}

// Fail ends the span with detail "failed" and the error text as extra.
func (s *Span) Fail(err error) time.Duration {
	if err != nil {
		s.WithExtra("error", err.Error())
	}
	return s.End("failed")
}

// WithExtra attaches key=value to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || s.tracer == nil {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string, 2)
	}
	s.extra[key] = value
	return s
}

// ID is the span id, 0 for inert spans.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.begin.SpanID
}

// Point emits an instant event under parent.
func Point(t Tracer, scope Scope, name, detail string, parent uint64) {
	if !admits(t, scope) {
		return
	}
	t.Emit(&Event{
		Time:     time.Now(),
		Kind:     KindPoint,
		Scope:    scope,
		ParentID: parent,
		Name:     name,
		Detail:   detail,
	})
}
