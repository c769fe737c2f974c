// Package tui is a terminal location browser: type to search, move through
// the filtered list, and select a location to see its detail panel and where
// the map viewport would fly.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sells-group/ecomap/internal/mapview"
	"github.com/sells-group/ecomap/internal/model"
	"github.com/sells-group/ecomap/internal/search"
	"github.com/sells-group/ecomap/internal/session"
)

const defaultListHeight = 12

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().Bold(true)
)

// Model is the Bubble Tea model for `ecomap browse`.
type Model struct {
	sess    *session.Session
	input   textinput.Model
	visible []model.Location
	cursor  int
	offset  int
	height  int
	width   int
	quit    bool
}

// New returns a browser over the session's records.
func New(sess *session.Session) *Model {
	in := textinput.New()
	in.Placeholder = "Search locations..."
	in.Prompt = "> "
	in.Focus()

	m := &Model{sess: sess, input: in, height: defaultListHeight, width: 80}
	m.refresh()
	return m
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if h := msg.Height - 16; h > 3 {
			m.height = h
		}
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.quit = true
			return m, tea.Quit
		case tea.KeyUp:
			m.move(-1)
			return m, nil
		case tea.KeyDown:
			m.move(1)
			return m, nil
		case tea.KeyEnter:
			m.selectCurrent()
			return m, nil
		case tea.KeyEsc:
			m.escape()
			return m, nil
		}
	}

	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.sess.SetQuery(m.input.Value())
		m.cursor, m.offset = 0, 0
		m.refresh()
	}
	return m, cmd
}

// selectCurrent selects the highlighted row. With a search in progress the
// selection comes from the search list and clears the query, like picking a
// dropdown suggestion; otherwise it counts as a marker pick.
func (m *Model) selectCurrent() {
	if len(m.visible) == 0 {
		return
	}
	r := m.visible[m.cursor]
	if search.Blank(m.input.Value()) {
		m.sess.Select(r, session.SourceMarker)
		return
	}
	m.sess.SelectFromSearch(r)
	m.input.SetValue("")
	m.refresh()
	m.cursorTo(r)
}

// escape clears the search text first, then the selection.
func (m *Model) escape() {
	if m.input.Value() != "" {
		m.input.SetValue("")
		m.sess.ClearQuery()
		m.cursor, m.offset = 0, 0
		m.refresh()
		return
	}
	m.sess.Clear()
}

func (m *Model) refresh() {
	m.visible = m.sess.Filtered()
	m.clampCursor()
}

func (m *Model) cursorTo(r model.Location) {
	for i, v := range m.visible {
		if v.SameAs(r) {
			m.cursor = i
			break
		}
	}
	m.clampCursor()
}

func (m *Model) move(delta int) {
	m.cursor += delta
	m.clampCursor()
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m *Model) View() string {
	if m.quit {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("ecomap: %d of %d locations", len(m.visible), len(m.sess.Records()))))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(m.listView())
	b.WriteString("\n")

	if sel := m.sess.Selected(); sel != nil {
		b.WriteString(panelStyle.Render(detailView(mapview.DetailFor(*sel))))
		b.WriteString("\n")
	}
	b.WriteString(m.viewportLine())
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("↑/↓ move • enter select • esc clear • ctrl+c quit"))
	b.WriteString("\n")
	return b.String()
}

func (m *Model) listView() string {
	if len(m.visible) == 0 {
		if !search.Blank(m.input.Value()) {
			return dimStyle.Render("  " + mapview.NoResults)
		}
		return ""
	}
	end := m.offset + m.height
	if end > len(m.visible) {
		end = len(m.visible)
	}
	sel := m.sess.Selected()

	var b strings.Builder
	for i := m.offset; i < end; i++ {
		r := m.visible[i]
		marker := lipgloss.NewStyle().Foreground(lipgloss.Color(mapview.Style(r.Score, false).FillColor)).Render("●")
		line := fmt.Sprintf("%s %-32s Score: %5.1f", marker, truncate(r.Name, 32), r.Score)
		if sel != nil && sel.SameAs(r) {
			line = selectedStyle.Render(line + "  *")
		}
		prefix := "  "
		if i == m.cursor {
			prefix = cursorStyle.Render("▸ ")
		}
		b.WriteString(prefix + line + "\n")
	}
	if end < len(m.visible) {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  … %d more", len(m.visible)-end)))
		b.WriteString("\n")
	}
	return b.String()
}

func detailView(d mapview.Detail) string {
	statusColor := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(d.Status.Color))
	lines := []string{
		titleStyle.Render(d.Name),
		fmt.Sprintf("Score: %s / 100   Status: %s", d.Score, statusColor.Render(d.Status.Label)),
		"Coordinates: " + d.Coordinates,
	}
	for _, ml := range d.Metrics {
		lines = append(lines, fmt.Sprintf("  %-6s %s", ml.Label, ml.Text))
	}
	lines = append(lines, "", statusColor.Render(d.Breakdown.Text))
	return strings.Join(lines, "\n")
}

func (m *Model) viewportLine() string {
	f := m.sess.Viewport().Last()
	if f == nil {
		return dimStyle.Render("viewport: initial view")
	}
	state := "settled"
	if m.sess.Viewport().InFlight() {
		state = "flying"
	}
	return dimStyle.Render(fmt.Sprintf("viewport: %.4f, %.4f @ zoom %.0f (flight #%d, %s)",
		f.Target.Lat, f.Target.Lon, f.Zoom, f.Seq, state))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
