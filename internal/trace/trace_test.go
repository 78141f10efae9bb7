package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"sire/internal/calltree"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"off": LevelOff, "PHASE": LevelPhase, "detail": LevelDetail, "debug": LevelDebug} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestLevelFiltersScopes(t *testing.T) {
	if LevelPhase.ShouldEmit(ScopeCall) {
		t.Fatalf("phase level must not emit call spans")
	}
	if !LevelDetail.ShouldEmit(ScopeCall) {
		t.Fatalf("detail level must emit call spans")
	}
	if LevelOff.ShouldEmit(ScopeDriver) {
		t.Fatalf("off level must not emit")
	}
	if !LevelError.ShouldEmit(ScopeStage) || LevelError.ShouldEmit(ScopeCall) {
		t.Fatalf("error level must keep stage spans only")
	}
}

func TestStreamTracerText(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatText)
	root := Begin(tr, ScopeDriver, "tree", 0)
	child := Begin(tr, ScopeStage, "decode", root.ID())
	child.WithExtra("events", "4").End("ok")
	root.End("")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[1], "  → decode") {
		t.Fatalf("child begin not indented: %q", lines[1])
	}
	if !strings.Contains(lines[2], "← decode (ok) {events=4}") {
		t.Fatalf("unexpected end line: %q", lines[2])
	}
}

func TestStreamTracerNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatNDJSON)
	Begin(tr, ScopeStage, "load", 0).End("")
	Begin(tr, ScopeCall, "filtered", 0).End("")
	dec := json.NewDecoder(&buf)
	var kinds []string
	for dec.More() {
		var ev jsonEvent
		if err := dec.Decode(&ev); err != nil {
			t.Fatalf("decode: %v", err)
		}
		kinds = append(kinds, ev.Kind+":"+ev.Name)
	}
	if strings.Join(kinds, ",") != "begin:load,end:load" {
		t.Fatalf("unexpected events %v", kinds)
	}
}

func TestRingTracerWraps(t *testing.T) {
	r := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d"} {
		Point(r, ScopeStage, name, "", 0)
	}
	snap := r.Snapshot()
	if len(snap) != 3 || snap[0].Name != "b" || snap[2].Name != "d" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestMultiTracerFindsNestedRing(t *testing.T) {
	ring := NewRingTracer(8, LevelDebug)
	inner := NewMultiTracer(LevelDebug, Nop, ring)
	outer := NewMultiTracer(LevelDebug, NewRecorder(LevelDebug), inner)
	got, ok := outer.Ring()
	if !ok || got != ring {
		t.Fatalf("Ring() = %v, %v", got, ok)
	}
	Point(outer, ScopeStage, "p", "", 0)
	if len(ring.Snapshot()) != 1 {
		t.Fatalf("event did not reach nested ring")
	}
	if _, ok := NewMultiTracer(LevelDebug, Nop).Ring(); ok {
		t.Fatalf("no ring expected")
	}
}

func TestSpanFailRecordsErrorOnce(t *testing.T) {
	r := NewRingTracer(8, LevelDebug)
	s := Begin(r, ScopeStage, "decode", 0)
	s.Fail(errors.New("bad json"))
	if s.End("again") != 0 {
		t.Fatalf("second End should be a no-op")
	}
	snap := r.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("want begin and end, got %d events", len(snap))
	}
	end := snap[1]
	if end.Kind != KindSpanEnd || end.Detail != "failed" || end.Extra["error"] != "bad json" || end.SpanID != s.ID() {
		t.Fatalf("unexpected end event %+v", end)
	}
	if !snap[0].Time.Equal(s.begin.Time) || snap[0].Extra != nil {
		t.Fatalf("begin event should not carry end extras: %+v", snap[0])
	}
}

func TestDisabledTracerYieldsInertSpan(t *testing.T) {
	s := Begin(Nop, ScopeDriver, "x", 0)
	if s.ID() != 0 || s.End("") != 0 {
		t.Fatalf("span on Nop tracer should be inert")
	}
	if FromContext(context.Background()) != Nop {
		t.Fatalf("empty context should yield Nop")
	}
}

func TestStartPropagatesParent(t *testing.T) {
	rec := NewRecorder(LevelDebug)
	ctx := WithTracer(context.Background(), rec)
	ctx, root := Start(ctx, ScopeDriver, "root")
	_, child := Start(ctx, ScopeStage, "child")
	child.End("")
	root.End("")

	events, err := rec.Events()
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	calls, err := calltree.Reconstruct(events)
	if err != nil {
		t.Fatalf("recorded stream must be well nested: %v", err)
	}
	if len(calls) != 1 || calls[0].FnName != "root" || len(calls[0].Body) != 1 || calls[0].Body[0].FnName != "child" {
		t.Fatalf("unexpected tree %v", calls)
	}
}

func TestRecorderNestsInterleavedSpans(t *testing.T) {
	rec := NewRecorder(LevelDebug)
	root := Begin(rec, ScopeDriver, "load-all", 0)
	a := Begin(rec, ScopeCall, "a", root.ID())
	b := Begin(rec, ScopeCall, "b", root.ID())
	a.End("") // a ends while b is still open
	b.End("")
	root.End("")
	open := Begin(rec, ScopeDriver, "never-ended", 0)
	_ = open

	var buf bytes.Buffer
	if err := rec.WriteJSON(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	var doc struct {
		Events []calltree.Event `json:"events"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	calls, err := calltree.Reconstruct(doc.Events)
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	if len(calls) != 2 || len(calls[0].Body) != 2 {
		t.Fatalf("unexpected tree %v", calls)
	}
	var args struct {
		Scope      string `json:"scope"`
		Unfinished bool   `json:"unfinished"`
	}
	if err := json.Unmarshal(calls[1].Args, &args); err != nil {
		t.Fatalf("decode args: %v", err)
	}
	if !args.Unfinished || args.Scope != "driver" {
		t.Fatalf("open span should be flagged: %s", calls[1].Args)
	}
	if strings.Contains(buf.String(), "\n ") {
		t.Fatalf("recording should not be indented: %s", buf.String())
	}
}

func TestHeartbeatStops(t *testing.T) {
	r := NewRingTracer(16, LevelPhase)
	h := StartHeartbeat(context.Background(), r, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	h.Stop()
	n := len(r.Snapshot())
	time.Sleep(5 * time.Millisecond)
	if len(r.Snapshot()) != n {
		t.Fatalf("heartbeat kept running after Stop")
	}
	if n == 0 {
		t.Fatalf("expected at least one heartbeat")
	}
	if StartHeartbeat(context.Background(), Nop, time.Millisecond) != nil {
		t.Fatalf("heartbeat on disabled tracer should be nil")
	}
}

func TestNewPicksSinksByMode(t *testing.T) {
	var buf bytes.Buffer
	cases := []struct {
		mode StorageMode
		want string
	}{
		{ModeStream, "*trace.StreamTracer"},
		{ModeRing, "*trace.RingTracer"},
		{ModeBoth, "*trace.MultiTracer"},
	}
	for _, tc := range cases {
		tr, err := New(Config{Level: LevelPhase, Mode: tc.mode, Output: &buf})
		if err != nil {
			t.Fatalf("New(%v): %v", tc.mode, err)
		}
		if got := fmt.Sprintf("%T", tr); got != tc.want {
			t.Fatalf("New(%v) = %s, want %s", tc.mode, got, tc.want)
		}
	}
	if tr, err := New(Config{Level: LevelOff, Mode: ModeBoth}); err != nil || tr.Enabled() {
		t.Fatalf("LevelOff should yield a disabled tracer, got %T, %v", tr, err)
	}
	if _, err := New(Config{Level: LevelPhase}); err == nil {
		t.Fatalf("expected error for missing mode")
	}
}

func TestParseModeRoundTrips(t *testing.T) {
	for _, m := range []StorageMode{ModeStream, ModeRing, ModeBoth} {
		got, err := ParseMode(" " + strings.ToUpper(m.String()))
		if err != nil || got != m {
			t.Fatalf("ParseMode(%s) = %v, %v", m, got, err)
		}
	}
	if _, err := ParseMode("disk"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}
