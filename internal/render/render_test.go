package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"sire/internal/calltree"
	"sire/internal/value"
)

func tree(t *testing.T) []*calltree.Call {
	t.Helper()
	calls, err := calltree.Reconstruct([]calltree.Event{
		calltree.Enter("main", json.RawMessage(`{ "argv": [ "a", "b" ] }`)),
		calltree.Enter("parse", nil), calltree.Leave(),
		calltree.Enter("eval", nil),
		calltree.Enter("step", nil), calltree.Leave(),
		calltree.Leave(),
		calltree.Leave(),
	})
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	return calls
}

func TestWriteTree(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTree(&buf, tree(t), TreeOptions{ArgWidth: 40}); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := strings.Join([]string{
		`main {"argv":["a","b"]}`,
		`├─ parse`,
		`└─ eval`,
		`   └─ step`,
		``,
	}, "\n")
	if buf.String() != want {
		t.Fatalf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestWriteTreeDepthLimit(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTree(&buf, tree(t), TreeOptions{MaxDepth: 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "main … 3 hidden" {
		t.Fatalf("got %q", got)
	}
}

func TestWriteTreeMarksUnterminated(t *testing.T) {
	res, err := calltree.ReconstructWith([]calltree.Event{calltree.Enter("f", nil)}, calltree.Options{Lenient: true})
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	var buf bytes.Buffer
	if err := WriteTree(&buf, res.Calls, TreeOptions{}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(buf.String(), "f (unterminated)") {
		t.Fatalf("got %q", buf.String())
	}
}

func TestCompactArgsTruncates(t *testing.T) {
	if got := CompactArgs(json.RawMessage(`null`), 10); got != "" {
		t.Fatalf("null args should be hidden, got %q", got)
	}
	got := CompactArgs(json.RawMessage(`{"long": "abcdefghijklmnop"}`), 10)
	if !strings.HasSuffix(got, "…") || len([]rune(got)) != 10 {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := Truncate("日本語テキスト", 6); got != "日本…" {
		t.Fatalf("wide runes: %q", got)
	}
}

func TestWriteStats(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteStats(&buf, calltree.Stats(tree(t)), 2); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "calls:     4") || !strings.Contains(out, "max depth: 3") {
		t.Fatalf("unexpected stats:\n%s", out)
	}
}

func TestDescribeFollowsRefsAndCycles(t *testing.T) {
	id := func(i int) value.Id { return value.Id{Index: i} }
	p := value.NewPool[value.Value](0,
		value.OriginType, // 0
		value.Opaque{Class: value.ClassVariable, ID: id(1), Typee: id(0)}, // 1
		value.Substituting{Base: id(3), Target: id(1), Value: id(0)},      // 2
		value.From{Base: id(2), Variable: id(1)},                          // 3: cycle through 2
	)
	pools := value.Pools[value.Value]{0: p}
	got := Describe(id(2), pools, 8)
	want := "@2 from variable#1: OriginType[variable#1: OriginType is OriginType]"
	if got != want {
		t.Fatalf("got  %q\nwant %q", got, want)
	}
	if got := Describe(id(3), pools, 1); got != "#2 from #1" {
		t.Fatalf("depth-limited: %q", got)
	}
	if got := Describe(value.Id{PoolID: 9}, pools, 3); !strings.Contains(got, "not loaded") {
		t.Fatalf("unknown pool: %q", got)
	}
}
