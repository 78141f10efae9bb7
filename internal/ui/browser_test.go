package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"sire/internal/calltree"
	"sire/internal/sirdoc"
)

func sampleTrace(t *testing.T) *sirdoc.StructuredTrace {
	t.Helper()
	calls, err := calltree.Reconstruct([]calltree.Event{
		calltree.Enter("main", nil),
		calltree.Enter("parse", nil),
		calltree.Leave(),
		calltree.Enter("eval", nil),
		calltree.Enter("caf\u00e9", nil),
		calltree.Leave(),
		calltree.Leave(),
		calltree.Leave(),
	})
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	return &sirdoc.StructuredTrace{Events: calls}
}

func loaded(t *testing.T) *Browser {
	t.Helper()
	tr := sampleTrace(t)
	b := NewBrowser("sample", func() (*sirdoc.StructuredTrace, error) { return tr, nil })
	b.Update(loadedMsg{trace: tr})
	return b
}

func press(b *Browser, keys ...string) {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		b.Update(msg)
	}
}

func names(b *Browser) []string {
	out := make([]string, len(b.rows))
	for i, r := range b.rows {
		out[i] = r.call.FnName
	}
	return out
}

func TestBrowserStartsWithRootsExpanded(t *testing.T) {
	b := loaded(t)
	if got := strings.Join(names(b), ","); got != "main,parse,eval" {
		t.Fatalf("rows = %s", got)
	}
	if b.status != "4 calls" {
		t.Fatalf("status = %q", b.status)
	}
}

func TestBrowserExpandCollapse(t *testing.T) {
	b := loaded(t)
	press(b, "down", "down", "right")
	if got := strings.Join(names(b), ","); got != "main,parse,eval,caf\u00e9" {
		t.Fatalf("after expand rows = %s", got)
	}
	// left on an expanded call closes it; a second left jumps to the parent
	press(b, "left")
	if len(b.rows) != 3 || b.cursor != 2 {
		t.Fatalf("after collapse rows=%v cursor=%d", names(b), b.cursor)
	}
	press(b, "left")
	if b.cursor != 0 {
		t.Fatalf("expected cursor on parent, got %d", b.cursor)
	}
	press(b, "enter")
	if got := strings.Join(names(b), ","); got != "main" {
		t.Fatalf("after toggle rows = %s", got)
	}
}

func TestBrowserCursorClamps(t *testing.T) {
	b := loaded(t)
	press(b, "up", "up")
	if b.cursor != 0 {
		t.Fatalf("cursor = %d", b.cursor)
	}
	press(b, "down", "down", "down", "down")
	if b.cursor != len(b.rows)-1 {
		t.Fatalf("cursor = %d, want %d", b.cursor, len(b.rows)-1)
	}
}

func TestBrowserSearchExpandsAncestors(t *testing.T) {
	b := loaded(t)
	// decomposed query still finds the precomposed name
	press(b, "/", "cafe\u0301", "enter")
	r, ok := b.selected()
	if !ok || r.call.FnName != "caf\u00e9" {
		t.Fatalf("selected %+v", r)
	}
	if !strings.HasPrefix(b.status, "match:") {
		t.Fatalf("status = %q", b.status)
	}

	press(b, "/", "nothing", "enter")
	if !strings.HasPrefix(b.status, "no match") {
		t.Fatalf("status = %q", b.status)
	}
}

func TestBrowserLoadError(t *testing.T) {
	b := NewBrowser("broken", nil)
	_, cmd := b.Update(loadedMsg{err: errors.New("boom")})
	if cmd == nil || b.Err() == nil {
		t.Fatalf("expected quit and error")
	}
	if !strings.Contains(b.View(), "boom") {
		t.Fatalf("view = %q", b.View())
	}
}

func TestBrowserViewRendersRows(t *testing.T) {
	b := loaded(t)
	b.Update(tea.WindowSizeMsg{Width: 40, Height: 10})
	view := b.View()
	for _, want := range []string{"sample", "main", "parse", "eval", "events 0..7"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}
