// Package render turns structured traces and value pools into text.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"sire/internal/calltree"
)

// TreeOptions controls WriteTree.
type TreeOptions struct {
	Color    bool
	MaxDepth int // 0 = unlimited
	ArgWidth int // 0 = hide args
}

type palette struct {
	name  *color.Color
	args  *color.Color
	guide *color.Color
	note  *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		name:  color.New(color.FgCyan, color.Bold),
		args:  color.New(color.FgWhite),
		guide: color.New(color.FgHiBlack),
		note:  color.New(color.FgYellow),
	}
	for _, c := range []*color.Color{p.name, p.args, p.guide, p.note} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// WriteTree renders calls with box-drawing guides:
//
//	main
//	├─ parse {"file":"a"}
//	└─ eval
//	   └─ parse
func WriteTree(w io.Writer, calls []*calltree.Call, opts TreeOptions) error {
	pal := newPalette(opts.Color)
	type item struct {
		call   *calltree.Call
		prefix string
		last   bool
		depth  int
	}
	stack := make([]item, 0, len(calls))
	for i := len(calls) - 1; i >= 0; i-- {
		stack = append(stack, item{call: calls[i], last: i == len(calls)-1, depth: 1})
	}

	var buf bytes.Buffer
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		buf.Reset()
		childPrefix := it.prefix
		if it.depth > 1 {
			guide := "├─ "
			childPrefix += "│  "
			if it.last {
				guide = "└─ "
				childPrefix = it.prefix + "   "
			}
			buf.WriteString(pal.guide.Sprint(it.prefix + guide))
		}
		buf.WriteString(pal.name.Sprint(it.call.FnName))
		if opts.ArgWidth > 0 {
			if args := CompactArgs(it.call.Args, opts.ArgWidth); args != "" {
				buf.WriteString(" ")
				buf.WriteString(pal.args.Sprint(args))
			}
		}
		if !it.call.Closed() && it.call.Enter >= 0 {
			buf.WriteString(pal.note.Sprint(" (unterminated)"))
		}

		body := it.call.Body
		if opts.MaxDepth > 0 && it.depth >= opts.MaxDepth && len(body) > 0 {
			buf.WriteString(pal.note.Sprintf(" … %d hidden", countCalls(body)))
			body = nil
		}
		buf.WriteString("\n")
		if _, err := w.Write(buf.Bytes()); err != nil {
			return err
		}

		for i := len(body) - 1; i >= 0; i-- {
			stack = append(stack, item{call: body[i], prefix: childPrefix, last: i == len(body)-1, depth: it.depth + 1})
		}
	}
	return nil
}

func countCalls(calls []*calltree.Call) int {
	n := 0
	calltree.Walk(calls, func(*calltree.Call, int) bool {
		n++
		return true
	})
	return n
}

// CompactArgs renders an args payload on one line, truncated to width
// display cells. Null and empty payloads render as "".
func CompactArgs(args json.RawMessage, width int) string {
	trimmed := bytes.TrimSpace(args)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		// not JSON: show the raw bytes on one line
		buf.Reset()
		buf.WriteString(strings.Join(strings.Fields(string(trimmed)), " "))
	}
	return Truncate(buf.String(), width)
}

// Truncate shortens s to width display cells, marking the cut with "…".
func Truncate(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return runewidth.Truncate(s, width, "…")
}

// WriteStats renders a calltree.Summary.
func WriteStats(w io.Writer, s calltree.Summary, top int) error {
	if _, err := fmt.Fprintf(w, "calls:     %d\nmax depth: %d\nfunctions: %d\n", s.Calls, s.MaxDepth, len(s.ByName)); err != nil {
		return err
	}
	rows := s.Top(top)
	if len(rows) == 0 {
		return nil
	}
	nameWidth := 0
	for _, r := range rows {
		if cw := runewidth.StringWidth(r.Name); cw > nameWidth {
			nameWidth = cw
		}
	}
	if _, err := fmt.Fprintln(w, "top:"); err != nil {
		return err
	}
	for _, r := range rows {
		pad := strings.Repeat(" ", nameWidth-runewidth.StringWidth(r.Name))
		if _, err := fmt.Fprintf(w, "  %s%s  %d\n", r.Name, pad, r.Count); err != nil {
			return err
		}
	}
	return nil
}
