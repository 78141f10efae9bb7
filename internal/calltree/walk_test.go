package calltree

import (
	"encoding/json"
	"testing"
)

func sampleTree(t *testing.T) []*Call {
	t.Helper()
	calls, err := Reconstruct([]Event{
		Enter("main", nil),
		Enter("parse", nil), Leave(),
		Enter("eval", nil),
		Enter("parse", nil), Leave(),
		Leave(),
		Leave(),
		Enter("exit", nil), Leave(),
	})
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	return calls
}

func TestWalkPreOrderWithDepth(t *testing.T) {
	var got []string
	var depths []int
	Walk(sampleTree(t), func(c *Call, depth int) bool {
		got = append(got, c.FnName)
		depths = append(depths, depth)
		return true
	})
	want := []string{"main", "parse", "eval", "parse", "exit"}
	wantDepth := []int{1, 2, 2, 3, 1}
	for i := range want {
		if got[i] != want[i] || depths[i] != wantDepth[i] {
			t.Fatalf("visit %d = %s@%d, want %s@%d", i, got[i], depths[i], want[i], wantDepth[i])
		}
	}
}

func TestWalkSkipsSubtree(t *testing.T) {
	var got []string
	Walk(sampleTree(t), func(c *Call, _ int) bool {
		got = append(got, c.FnName)
		return c.FnName != "eval"
	})
	if len(got) != 4 {
		t.Fatalf("expected eval's child to be skipped, visited %v", got)
	}
}

func TestStatsAndTop(t *testing.T) {
	s := Stats(sampleTree(t))
	if s.Calls != 5 || s.MaxDepth != 3 || s.ByName["parse"] != 2 {
		t.Fatalf("unexpected stats %+v", s)
	}
	top := s.Top(1)
	if len(top) != 1 || top[0].Name != "parse" || top[0].Count != 2 {
		t.Fatalf("top = %v", top)
	}
}

func TestFindNormalizesNames(t *testing.T) {
	calls, err := Reconstruct([]Event{
		Enter("caf\u00e9", nil), Leave(), // precomposed
		Enter("cafe\u0301", nil), Leave(), // decomposed
	})
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	if got := Find(calls, "caf\u00e9"); len(got) != 2 {
		t.Fatalf("expected both spellings to match, got %d", len(got))
	}
}

func TestEventJSON(t *testing.T) {
	var events []Event
	in := `[{"event":"enter","fn_name":"f","args":{"a":1}},{"event":"leave","fn_name":"f"},{"event":"leave"}]`
	if err := json.Unmarshal([]byte(in), &events); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(events) != 3 || events[0].Kind != KindEnter || string(events[0].Args) != `{"a":1}` || events[1].FnName != "f" || events[2].Kind != KindLeave {
		t.Fatalf("unexpected events %+v", events)
	}
	var bad Event
	if err := json.Unmarshal([]byte(`{"event":"yield"}`), &bad); err == nil {
		t.Fatalf("expected error for unknown event tag")
	}
}

func TestCallJSONShape(t *testing.T) {
	calls := sampleTree(t)
	data, err := json.Marshal(calls[1])
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `{"event":"call","fn_name":"exit","args":null,"body":[]}`
	if string(data) != want {
		t.Fatalf("got %s, want %s", data, want)
	}
}
