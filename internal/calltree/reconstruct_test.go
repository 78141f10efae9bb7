package calltree

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"strings"
	"testing"
)

var noArgs = json.RawMessage(`{}`)

// shape renders a tree as "f(g()),h()" for compact comparisons.
func shape(calls []*Call) string {
	parts := make([]string, 0, len(calls))
	for _, c := range calls {
		parts = append(parts, c.FnName+"("+shape(c.Body)+")")
	}
	return strings.Join(parts, ",")
}

func TestReconstructNested(t *testing.T) {
	events := []Event{Enter("f", noArgs), Enter("g", noArgs), Leave(), Leave()}
	calls, err := Reconstruct(events)
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	if got := shape(calls); got != "f(g())" {
		t.Fatalf("shape = %q", got)
	}
	f := calls[0]
	if f.Enter != 0 || f.Leave != 3 || f.Body[0].Enter != 1 || f.Body[0].Leave != 2 {
		t.Fatalf("unexpected positions: f=[%d,%d] g=[%d,%d]", f.Enter, f.Leave, f.Body[0].Enter, f.Body[0].Leave)
	}
	if len(f.Body[0].Body) != 0 || f.Body[0].Body == nil {
		t.Fatalf("leaf body must be empty, not nil")
	}
}

func TestReconstructSiblings(t *testing.T) {
	events := []Event{Enter("f", noArgs), Leave(), Enter("h", noArgs), Leave()}
	calls, err := Reconstruct(events)
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	if got := shape(calls); got != "f(),h()" {
		t.Fatalf("shape = %q", got)
	}
}

func TestReconstructEmpty(t *testing.T) {
	calls, err := Reconstruct(nil)
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	if calls == nil || len(calls) != 0 {
		t.Fatalf("expected empty non-nil result, got %v", calls)
	}
}

func TestReconstructUnmatchedLeave(t *testing.T) {
	_, err := Reconstruct([]Event{Leave()})
	if !errors.Is(err, ErrUnmatchedLeave) {
		t.Fatalf("expected ErrUnmatchedLeave, got %v", err)
	}
	var ule *UnmatchedLeaveError
	if !errors.As(err, &ule) || ule.Index != 0 {
		t.Fatalf("expected index 0, got %v", err)
	}

	_, err = Reconstruct([]Event{Enter("f", noArgs), Leave(), Leave(), Enter("g", noArgs), Leave()})
	if !errors.As(err, &ule) || ule.Index != 2 {
		t.Fatalf("expected unmatched leave at 2, got %v", err)
	}
}

func TestReconstructUnterminatedCall(t *testing.T) {
	_, err := Reconstruct([]Event{Enter("f", noArgs)})
	if !errors.Is(err, ErrUnterminatedCall) {
		t.Fatalf("expected ErrUnterminatedCall, got %v", err)
	}
	_, err = Reconstruct([]Event{Enter("f", noArgs), Enter("g", noArgs), Leave(), Enter("h", noArgs)})
	var uce *UnterminatedCallError
	if !errors.As(err, &uce) {
		t.Fatalf("expected *UnterminatedCallError, got %v", err)
	}
	if uce.Index != 3 || uce.FnName != "h" || uce.Depth != 2 {
		t.Fatalf("unexpected error detail %+v", uce)
	}
}

func TestReconstructLenientMatchesPermissiveViewer(t *testing.T) {
	events := []Event{
		Enter("f", noArgs), Leave(),
		Leave(), // unmatched: traversal stops here
		Enter("g", noArgs), Leave(),
	}
	res, err := ReconstructWith(events, Options{Lenient: true})
	if err != nil {
		t.Fatalf("lenient reconstruct: %v", err)
	}
	if got := shape(res.Calls); got != "f()" {
		t.Fatalf("shape = %q", got)
	}
	if len(res.Issues) != 1 || !errors.Is(res.Issues[0], ErrUnmatchedLeave) {
		t.Fatalf("issues = %v", res.Issues)
	}

	res, err = ReconstructWith([]Event{Enter("f", noArgs), Enter("g", noArgs)}, Options{Lenient: true})
	if err != nil {
		t.Fatalf("lenient reconstruct: %v", err)
	}
	if got := shape(res.Calls); got != "f(g())" {
		t.Fatalf("shape = %q", got)
	}
	if res.Calls[0].Closed() || res.Calls[0].Body[0].Closed() {
		t.Fatalf("auto-closed calls must report Leave = -1")
	}
	if len(res.Issues) != 1 || !errors.Is(res.Issues[0], ErrUnterminatedCall) {
		t.Fatalf("issues = %v", res.Issues)
	}
}

func TestReconstructMatchNames(t *testing.T) {
	events := []Event{Enter("f", noArgs), {Kind: KindLeave, FnName: "g"}}
	if _, err := ReconstructWith(events, Options{}); err != nil {
		t.Fatalf("names are ignored by default: %v", err)
	}
	_, err := ReconstructWith(events, Options{MatchNames: true})
	var mle *MismatchedLeaveError
	if !errors.As(err, &mle) || mle.Got != "g" || mle.Want != "f" {
		t.Fatalf("expected mismatched leave, got %v", err)
	}
}

func TestReconstructUnknownKind(t *testing.T) {
	_, err := Reconstruct([]Event{{Kind: 42}})
	if !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("expected ErrUnknownEvent, got %v", err)
	}
}

func TestReconstructPreservesArgsVerbatim(t *testing.T) {
	args := json.RawMessage(`{"x": [1, 2,   3]}`)
	calls, err := Reconstruct([]Event{Enter("f", args), Leave()})
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	if string(calls[0].Args) != string(args) {
		t.Fatalf("args changed: %s", calls[0].Args)
	}
}

func TestReconstructChildOrder(t *testing.T) {
	var events []Event
	events = append(events, Enter("root", noArgs))
	for i := 0; i < 50; i++ {
		events = append(events, Enter(fmt.Sprintf("c%02d", i), noArgs), Leave())
	}
	events = append(events, Leave())
	calls, err := Reconstruct(events)
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	for i, c := range calls[0].Body {
		if want := fmt.Sprintf("c%02d", i); c.FnName != want {
			t.Fatalf("child %d = %s, want %s", i, c.FnName, want)
		}
		if i > 0 && c.Enter <= calls[0].Body[i-1].Enter {
			t.Fatalf("children out of enter order at %d", i)
		}
	}
}

// randomStream builds a well-nested stream and reports its maximum depth.
func randomStream(r *rand.Rand, n int) ([]Event, int) {
	var (
		events []Event
		open   []string
		depth  int
	)
	for i := 0; i < n; i++ {
		if len(open) > 0 && r.Intn(2) == 0 {
			name := open[len(open)-1]
			open = open[:len(open)-1]
			events = append(events, Event{Kind: KindLeave, FnName: name})
			continue
		}
		name := fmt.Sprintf("fn%d", r.Intn(8))
		args := json.RawMessage(fmt.Sprintf(`{"i":%d}`, i))
		events = append(events, Enter(name, args))
		open = append(open, name)
		if len(open) > depth {
			depth = len(open)
		}
	}
	for len(open) > 0 {
		events = append(events, Event{Kind: KindLeave, FnName: open[len(open)-1]})
		open = open[:len(open)-1]
	}
	return events, depth
}

func TestReconstructRoundTripAndDepth(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for iter := 0; iter < 200; iter++ {
		events, depth := randomStream(r, r.Intn(120))
		res, err := ReconstructWith(events, Options{MatchNames: true})
		if err != nil {
			t.Fatalf("iter %d: %v", iter, err)
		}
		if res.MaxDepth != depth {
			t.Fatalf("iter %d: max depth %d, want %d", iter, res.MaxDepth, depth)
		}
		if s := Stats(res.Calls); s.MaxDepth != depth {
			t.Fatalf("iter %d: stats depth %d, want %d", iter, s.MaxDepth, depth)
		}
		back := Flatten(res.Calls)
		if len(events) == 0 && len(back) == 0 {
			continue
		}
		if !reflect.DeepEqual(back, events) {
			t.Fatalf("iter %d: round trip mismatch\n got %v\nwant %v", iter, back, events)
		}
	}
}

func TestReconstructDeepStreamUsesNoRecursion(t *testing.T) {
	const depth = 200000
	events := make([]Event, 0, 2*depth)
	for i := 0; i < depth; i++ {
		events = append(events, Enter("f", nil))
	}
	for i := 0; i < depth; i++ {
		events = append(events, Leave())
	}
	res, err := ReconstructWith(events, Options{})
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	if res.MaxDepth != depth {
		t.Fatalf("max depth %d", res.MaxDepth)
	}
	if got := len(Flatten(res.Calls)); got != len(events) {
		t.Fatalf("flatten produced %d events", got)
	}
}
