// Package ui implements the interactive call-tree browser.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"sire/internal/calltree"
	"sire/internal/render"
	"sire/internal/sirdoc"
)

// Loader produces the trace to browse. It runs off the UI goroutine.
type Loader func() (*sirdoc.StructuredTrace, error)

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Toggle   key.Binding
	Collapse key.Binding
	Expand   key.Binding
	Search   key.Binding
	Next     key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Toggle:   key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "toggle")),
	Collapse: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "collapse")),
	Expand:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "expand")),
	Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Next:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next match")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// row is one visible line of the tree.
type row struct {
	call   *calltree.Call
	parent *calltree.Call
	depth  int
}

type loadedMsg struct {
	trace *sirdoc.StructuredTrace
	err   error
}

// Browser is the Bubble Tea model of the call-tree browser.
type Browser struct {
	title    string
	load     Loader
	spinner  spinner.Model
	loading  bool
	err      error
	calls    []*calltree.Call
	expanded map[*calltree.Call]bool
	rows     []row
	cursor   int
	offset   int
	width    int
	height   int

	searching bool
	query     string
	status    string
}

// NewBrowser returns a model that loads the trace with load and lets the user
// browse it.
func NewBrowser(title string, load Loader) *Browser {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	return &Browser{
		title:    title,
		load:     load,
		spinner:  sp,
		loading:  true,
		expanded: make(map[*calltree.Call]bool),
		width:    80,
		height:   24,
	}
}

// Init starts loading.
func (m *Browser) Init() tea.Cmd {
	load := m.load
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		t, err := load()
		return loadedMsg{trace: t, err: err}
	})
}

// Err returns the load error, if any.
func (m *Browser) Err() error { return m.err }

// Update handles messages.
func (m *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.setTrace(msg.trace)
		return m, nil
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
		}
		if msg.Height > 0 {
			m.height = msg.Height
		}
		m.clampOffset()
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Browser) setTrace(t *sirdoc.StructuredTrace) {
	if t != nil {
		m.calls = t.Events
	}
	// open the first level so the root calls show their children
	for _, c := range m.calls {
		m.expanded[c] = true
	}
	m.rebuild()
	m.status = fmt.Sprintf("%d calls", calltree.Stats(m.calls).Calls)
}

func (m *Browser) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		switch msg.Type {
		case tea.KeyEnter:
			m.searching = false
			m.findNext(false)
		case tea.KeyEsc:
			m.searching = false
			m.query = ""
		case tea.KeyBackspace:
			if r := []rune(m.query); len(r) > 0 {
				m.query = string(r[:len(r)-1])
			}
		case tea.KeyRunes, tea.KeySpace:
			m.query += string(msg.Runes)
		case tea.KeyCtrlC:
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		m.move(-1)
	case key.Matches(msg, keys.Down):
		m.move(1)
	case key.Matches(msg, keys.Toggle):
		if r, ok := m.selected(); ok && len(r.call.Body) > 0 {
			m.expanded[r.call] = !m.expanded[r.call]
			m.rebuild()
		}
	case key.Matches(msg, keys.Expand):
		if r, ok := m.selected(); ok && len(r.call.Body) > 0 {
			m.expanded[r.call] = true
			m.rebuild()
		}
	case key.Matches(msg, keys.Collapse):
		m.collapse()
	case key.Matches(msg, keys.Search):
		m.searching = true
		m.query = ""
	case key.Matches(msg, keys.Next):
		m.findNext(true)
	}
	return m, nil
}

func (m *Browser) selected() (row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return row{}, false
	}
	return m.rows[m.cursor], true
}

func (m *Browser) move(delta int) {
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	m.clampOffset()
}

// collapse closes the selected call, or jumps to its parent when it is
// already closed.
func (m *Browser) collapse() {
	r, ok := m.selected()
	if !ok {
		return
	}
	if m.expanded[r.call] {
		m.expanded[r.call] = false
		m.rebuild()
		return
	}
	if r.parent == nil {
		return
	}
	for i, other := range m.rows {
		if other.call == r.parent {
			m.cursor = i
			m.clampOffset()
			return
		}
	}
}

// findNext moves to the next call matching the query in pre-order, expanding
// its ancestors.
func (m *Browser) findNext(skipCurrent bool) {
	if m.query == "" {
		return
	}
	want := calltree.NormalizeName(m.query)
	var (
		order   []*calltree.Call
		parents = make(map[*calltree.Call]*calltree.Call)
	)
	calltree.Walk(m.calls, func(c *calltree.Call, _ int) bool {
		order = append(order, c)
		for _, child := range c.Body {
			parents[child] = c
		}
		return true
	})
	start := 0
	if r, ok := m.selected(); ok {
		for i, c := range order {
			if c == r.call {
				start = i
				if skipCurrent {
					start++
				}
				break
			}
		}
	}
	for n := 0; n < len(order); n++ {
		c := order[(start+n)%len(order)]
		if !strings.Contains(calltree.NormalizeName(c.FnName), want) {
			continue
		}
		for p := parents[c]; p != nil; p = parents[p] {
			m.expanded[p] = true
		}
		m.rebuild()
		for i, r := range m.rows {
			if r.call == c {
				m.cursor = i
			}
		}
		m.clampOffset()
		m.status = fmt.Sprintf("match: %s", c.FnName)
		return
	}
	m.status = fmt.Sprintf("no match for %q", m.query)
}

// rebuild recomputes the visible rows, keeping the cursor on the same call
// when it is still visible.
func (m *Browser) rebuild() {
	var current *calltree.Call
	if r, ok := m.selected(); ok {
		current = r.call
	}
	m.rows = m.rows[:0]
	type item struct {
		call   *calltree.Call
		parent *calltree.Call
		depth  int
	}
	stack := make([]item, 0, len(m.calls))
	for i := len(m.calls) - 1; i >= 0; i-- {
		stack = append(stack, item{call: m.calls[i]})
	}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		m.rows = append(m.rows, row{call: it.call, parent: it.parent, depth: it.depth})
		if !m.expanded[it.call] {
			continue
		}
		for i := len(it.call.Body) - 1; i >= 0; i-- {
			stack = append(stack, item{call: it.call.Body[i], parent: it.call, depth: it.depth + 1})
		}
	}
	m.cursor = 0
	for i, r := range m.rows {
		if r.call == current {
			m.cursor = i
			break
		}
	}
	m.clampOffset()
}

func (m *Browser) listHeight() int {
	// title, blank, details, status
	h := m.height - 5
	if h < 1 {
		h = 1
	}
	return h
}

func (m *Browser) clampOffset() {
	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	cursorStyle  = lipgloss.NewStyle().Reverse(true)
	nameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	argsStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	detailsStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
)

// View renders the model.
func (m *Browser) View() string {
	if m.loading {
		return fmt.Sprintf("%s loading %s\n", m.spinner.View(), m.title)
	}
	if m.err != nil {
		return errorStyle.Render("error: "+m.err.Error()) + "\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(runewidth.Truncate(m.title, m.width, "…")))
	b.WriteString("\n\n")

	end := m.offset + m.listHeight()
	if end > len(m.rows) {
		end = len(m.rows)
	}
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(i))
		b.WriteString("\n")
	}

	if r, ok := m.selected(); ok {
		detail := fmt.Sprintf("%s  events %d..%d  %d children", r.call.FnName, r.call.Enter, r.call.Leave, len(r.call.Body))
		if args := render.CompactArgs(r.call.Args, m.width); args != "" {
			detail += "  " + args
		}
		b.WriteString(detailsStyle.Render(runewidth.Truncate(detail, m.width, "…")))
	}
	b.WriteString("\n")

	status := m.status
	if m.searching {
		status = "/" + m.query
	}
	b.WriteString(statusStyle.Render(runewidth.Truncate(status, m.width, "…")))
	return b.String()
}

func (m *Browser) renderRow(i int) string {
	r := m.rows[i]
	marker := "  "
	if len(r.call.Body) > 0 {
		marker = "▸ "
		if m.expanded[r.call] {
			marker = "▾ "
		}
	}
	indent := strings.Repeat("  ", r.depth)
	prefixWidth := runewidth.StringWidth(indent + marker)
	nameWidth := m.width - prefixWidth
	if nameWidth < 8 {
		nameWidth = 8
	}
	name := render.Truncate(r.call.FnName, nameWidth)
	line := indent + marker + nameStyle.Render(name)
	if rest := nameWidth - runewidth.StringWidth(name) - 1; rest > 4 {
		if args := render.CompactArgs(r.call.Args, rest); args != "" {
			line += " " + argsStyle.Render(args)
		}
	}
	if i == m.cursor {
		return cursorStyle.Render(indent + marker + name)
	}
	return line
}
