package tuitest

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note string

func emit(n note) tea.Cmd {
	return func() tea.Msg { return n }
}

func slow() tea.Msg {
	time.Sleep(time.Second)
	return note("late")
}

func TestCollectFlattensInOrder(t *testing.T) {
	cmd := tea.Batch(
		emit("a"),
		tea.Sequence(emit("b"), emit("c")),
		nil,
		slow,
		emit("d"),
	)

	got := Collect(cmd, DefaultTimeout)
	assert.Equal(t, []tea.Msg{note("a"), note("b"), note("c"), note("d")}, got)
}

func TestCollectNil(t *testing.T) {
	assert.Empty(t, Collect(nil, DefaultTimeout))
}

// counter echoes every note once as "<note>!" and records what it saw.
type counter struct {
	seen []string
}

func (c counter) Init() tea.Cmd { return emit("init") }

func (c counter) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	n, ok := msg.(note)
	if !ok {
		if k, isKey := msg.(tea.KeyMsg); isKey && k.Type == tea.KeyCtrlC {
			return c, tea.Quit
		}
		return c, nil
	}
	c.seen = append(c.seen, string(n))
	if len(n) == 0 || n[len(n)-1] != '!' {
		return c, emit(n + "!")
	}
	return c, nil
}

func (c counter) View() string { return "\x1b[1mcount\x1b[0m" }

func TestDriverRunsToQuiescence(t *testing.T) {
	d := NewDriver(counter{}).Init().Send(note("x"))

	got, ok := d.Model.(counter)
	require.True(t, ok)
	assert.Equal(t, []string{"init", "init!", "x", "x!"}, got.seen)
	assert.Len(t, Find[note](d), 4)
	assert.Equal(t, "count", d.View())
}

func TestDriverStopsOnQuit(t *testing.T) {
	d := NewDriver(counter{}).Send(Key("ctrl+c"))
	assert.True(t, d.Quit)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "enter", Key("enter").String())
	assert.Equal(t, "ctrl+o", Key("ctrl+o").String())
	assert.Equal(t, "q", Key("q").String())
	assert.Len(t, Type("hola"), 4)
}

func TestTextHelpers(t *testing.T) {
	out := "uno\n  dos tres\ncuatro"
	assert.True(t, ContainsInOrder(out, "uno", "tres", "cuatro"))
	assert.False(t, ContainsInOrder(out, "cuatro", "uno"))
	assert.Equal(t, 1, LineIndex(out, "dos"))
	assert.Equal(t, -1, LineIndex(out, "cinco"))
	assert.Equal(t, 6, ColumnIndex(out, "tres"))
	assert.Equal(t, "uno dos tres cuatro", NormalizeWhitespace(out))
}
