package calltree

import (
	"sort"

	"golang.org/x/text/unicode/norm"
)

// Walk visits calls in pre-order with their depth (top-level calls have depth
// 1). Returning false from fn skips the subtree of the visited call.
func Walk(calls []*Call, fn func(c *Call, depth int) bool) {
	type item struct {
		call  *Call
		depth int
	}
	stack := make([]item, 0, len(calls))
	for i := len(calls) - 1; i >= 0; i-- {
		stack = append(stack, item{call: calls[i], depth: 1})
	}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(it.call, it.depth) {
			continue
		}
		for i := len(it.call.Body) - 1; i >= 0; i-- {
			stack = append(stack, item{call: it.call.Body[i], depth: it.depth + 1})
		}
	}
}

// Flatten re-emits the enter/leave stream for calls. For a tree produced by
// Reconstruct from a well-nested stream, the kinds, names and args of the
// result match the input event for event.
func Flatten(calls []*Call) []Event {
	type item struct {
		call  *Call
		leave bool
	}
	var out []Event
	stack := make([]item, 0, len(calls))
	for i := len(calls) - 1; i >= 0; i-- {
		stack = append(stack, item{call: calls[i]})
	}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if it.leave {
			out = append(out, Event{Kind: KindLeave, FnName: it.call.FnName})
			continue
		}
		out = append(out, Event{Kind: KindEnter, FnName: it.call.FnName, Args: it.call.Args})
		stack = append(stack, item{call: it.call, leave: true})
		for i := len(it.call.Body) - 1; i >= 0; i-- {
			stack = append(stack, item{call: it.call.Body[i]})
		}
	}
	return out
}

// Summary aggregates counts over a tree.
type Summary struct {
	Calls    int
	MaxDepth int
	ByName   map[string]int
}

// NameCount is one row of Summary.Top.
type NameCount struct {
	Name  string
	Count int
}

// Top returns the n most frequent names, ties broken by name.
func (s Summary) Top(n int) []NameCount {
	rows := make([]NameCount, 0, len(s.ByName))
	for name, count := range s.ByName {
		rows = append(rows, NameCount{Name: name, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Name < rows[j].Name
	})
	if n >= 0 && n < len(rows) {
		rows = rows[:n]
	}
	return rows
}

// Stats counts calls per name and measures the depth of the tree.
func Stats(calls []*Call) Summary {
	s := Summary{ByName: make(map[string]int)}
	Walk(calls, func(c *Call, depth int) bool {
		s.Calls++
		s.ByName[c.FnName]++
		if depth > s.MaxDepth {
			s.MaxDepth = depth
		}
		return true
	})
	return s
}

// NormalizeName returns the NFC form of a function name. Names are compared
// in this form so that precomposed and decomposed spellings match.
func NormalizeName(name string) string {
	return norm.NFC.String(name)
}

// Find returns every call named name in pre-order.
func Find(calls []*Call, name string) []*Call {
	want := NormalizeName(name)
	var out []*Call
	Walk(calls, func(c *Call, _ int) bool {
		if NormalizeName(c.FnName) == want {
			out = append(out, c)
		}
		return true
	})
	return out
}
