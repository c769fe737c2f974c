package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ecomap/internal/model"
	"github.com/sells-group/ecomap/internal/session"
)

func ptr(v float64) *float64 { return &v }

var records = []model.Location{
	{Name: "Delhi", Lat: 28.6, Lon: 77.2, Score: 35, PM25: ptr(120.5)},
	{Name: "New Delhi", Lat: 28.61, Lon: 77.21, Score: 45},
	{Name: "Shillong", Lat: 25.57, Lon: 91.88, Score: 82},
}

func newTestModel(t *testing.T) (*Model, *session.Session) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	vp := session.NewViewport(session.ViewportOptions{Clock: clock})
	sess := session.New("tui", records, vp, nil)
	return New(sess), sess
}

func typeText(m *Model, s string) {
	for _, r := range s {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func key(m *Model, k tea.KeyType) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: k})
	return cmd
}

func TestBrowse_InitialList(t *testing.T) {
	m, _ := newTestModel(t)
	assert.Len(t, m.visible, 3)
	out := m.View()
	assert.Contains(t, out, "3 of 3 locations")
	assert.Contains(t, out, "Shillong")
	assert.Contains(t, out, "viewport: initial view")
}

func TestBrowse_TypingFilters(t *testing.T) {
	m, sess := newTestModel(t)
	typeText(m, "DEL")

	assert.Equal(t, "DEL", sess.Query())
	require.Len(t, m.visible, 2)
	assert.Equal(t, "Delhi", m.visible[0].Name)
	assert.Contains(t, m.View(), "2 of 3 locations")
}

func TestBrowse_NoResults(t *testing.T) {
	m, _ := newTestModel(t)
	typeText(m, "zzz")
	assert.Empty(t, m.visible)
	assert.Contains(t, m.View(), "No locations found")
}

func TestBrowse_SelectFromSearchClearsQuery(t *testing.T) {
	m, sess := newTestModel(t)
	typeText(m, "delhi")
	key(m, tea.KeyDown)
	key(m, tea.KeyEnter)

	sel := sess.Selected()
	require.NotNil(t, sel)
	assert.Equal(t, "New Delhi", sel.Name)
	assert.Empty(t, sess.Query())
	assert.Empty(t, m.input.Value())
	assert.Len(t, m.visible, 3)
	assert.Equal(t, "New Delhi", m.visible[m.cursor].Name)

	out := m.View()
	assert.Contains(t, out, "Score: 45.0 / 100")
	assert.Contains(t, out, "28.61°, 77.21°")
	assert.Contains(t, out, "flight #1, flying")
}

func TestBrowse_ReselectDoesNotFly(t *testing.T) {
	m, sess := newTestModel(t)
	key(m, tea.KeyEnter)
	key(m, tea.KeyEnter)

	require.NotNil(t, sess.Selected())
	assert.Equal(t, "Delhi", sess.Selected().Name)
	assert.Equal(t, uint64(1), sess.Viewport().Flights())
}

func TestBrowse_CursorBounds(t *testing.T) {
	m, _ := newTestModel(t)
	key(m, tea.KeyUp)
	assert.Equal(t, 0, m.cursor)
	for i := 0; i < 10; i++ {
		key(m, tea.KeyDown)
	}
	assert.Equal(t, 2, m.cursor)
}

func TestBrowse_Scrolls(t *testing.T) {
	m, _ := newTestModel(t)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 20}) // 4 rows
	assert.Equal(t, 4, m.height)

	m.height = 2
	key(m, tea.KeyDown)
	key(m, tea.KeyDown)
	assert.Equal(t, 1, m.offset)
	assert.Contains(t, m.View(), "Shillong")
}

func TestBrowse_EscapeClearsQueryThenSelection(t *testing.T) {
	m, sess := newTestModel(t)
	key(m, tea.KeyEnter)
	typeText(m, "shi")

	key(m, tea.KeyEsc)
	assert.Empty(t, sess.Query())
	assert.NotNil(t, sess.Selected())

	key(m, tea.KeyEsc)
	assert.Nil(t, sess.Selected())
}

func TestBrowse_Quit(t *testing.T) {
	m, _ := newTestModel(t)
	cmd := key(m, tea.KeyCtrlC)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
}
