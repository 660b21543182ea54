package components

import (
	"reflect"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/rinde/internal/model"
	"github.com/Veraticus/rinde/internal/tui/themes"
)

var (
	optManzana = model.Option{ID: 1, Value: "Manzana"}
	optBanana  = model.Option{ID: 2, Value: "Banana"}
	optNaranja = model.Option{ID: 3, Value: "Naranja"}
	fruits     = []model.Option{optManzana, optBanana, optNaranja}
)

// collect runs cmd and flattens batches and sequences into the messages they produce.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if msg == nil {
		return nil
	}
	if v := reflect.ValueOf(msg); v.Kind() == reflect.Slice {
		var out []tea.Msg
		for i := 0; i < v.Len(); i++ {
			if c, ok := v.Index(i).Interface().(tea.Cmd); ok {
				out = append(out, collect(c)...)
			}
		}
		return out
	}
	return []tea.Msg{msg}
}

func widgetMsgs(cmd tea.Cmd) []tea.Msg {
	var out []tea.Msg
	for _, msg := range collect(cmd) {
		switch msg.(type) {
		case AutocompleteChangedMsg, BlurMsg, DateChangedMsg, DateDetailedMsg, DateRangeMsg:
			out = append(out, msg)
		}
	}
	return out
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
}

func newFocusedAutocomplete(t *testing.T, cfg AutocompleteConfig) AutocompleteModel {
	t.Helper()
	if cfg.ID == "" {
		cfg.ID = "fruit"
	}
	if cfg.Options == nil {
		cfg.Options = fruits
	}
	m, _ := NewAutocompleteModel(cfg, themes.Default).Focus()
	return m
}

func TestAutocomplete_FilterIsCaseInsensitive(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []model.Option
	}{
		{name: "upper case matches", query: "AN", want: fruits},
		{name: "substring", query: "ban", want: []model.Option{optBanana}},
		{name: "no match", query: "xyz", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newFocusedAutocomplete(t, AutocompleteConfig{})
			m, _ = m.Update(runes(tt.query))

			assert.True(t, m.IsOpen())
			assert.Equal(t, tt.query, m.Query())
			assert.Equal(t, tt.want, m.VisibleOptions())
		})
	}
}

func TestAutocomplete_NoOptionsRow(t *testing.T) {
	m := newFocusedAutocomplete(t, AutocompleteConfig{})
	m, _ = m.Update(runes("xyz"))
	assert.Contains(t, m.View(), "No hay opciones disponibles")

	// The placeholder row cannot be picked.
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, widgetMsgs(cmd))
	assert.Empty(t, m.Selection())
}

func TestAutocomplete_SingleSelect(t *testing.T) {
	m := newFocusedAutocomplete(t, AutocompleteConfig{})
	m, _ = m.Update(runes("ban"))
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, []tea.Msg{
		AutocompleteChangedMsg{ID: "fruit", Selection: []model.Option{optBanana}},
		BlurMsg{ID: "fruit"},
	}, widgetMsgs(cmd))
	assert.Equal(t, "Banana", m.Query())
	assert.False(t, m.IsOpen())
	got, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, optBanana, got)
}

func TestAutocomplete_MultiToggle(t *testing.T) {
	m := newFocusedAutocomplete(t, AutocompleteConfig{Multi: true})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown}) // open, cursor on Manzana

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, []tea.Msg{
		AutocompleteChangedMsg{ID: "fruit", Selection: []model.Option{optManzana}},
	}, widgetMsgs(cmd))
	assert.True(t, m.IsOpen(), "multi select keeps the dropdown open")

	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, []tea.Msg{AutocompleteChangedMsg{ID: "fruit"}}, widgetMsgs(cmd))
	assert.Empty(t, m.Selection())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, []model.Option{optManzana, optBanana}, m.Selection())
	assert.Equal(t, []tea.Msg{
		AutocompleteChangedMsg{ID: "fruit", Selection: []model.Option{optManzana, optBanana}},
	}, widgetMsgs(cmd))

	// Left twice puts the chip cursor on the first chip.
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyDelete})
	assert.Equal(t, []model.Option{optBanana}, m.Selection())
	assert.Equal(t, []tea.Msg{
		AutocompleteChangedMsg{ID: "fruit", Selection: []model.Option{optBanana}},
	}, widgetMsgs(cmd))
	assert.True(t, m.Focused())
	assert.True(t, m.IsOpen(), "removing a chip leaves the dropdown alone")
}

func TestAutocomplete_MultiKeepsQuery(t *testing.T) {
	m := newFocusedAutocomplete(t, AutocompleteConfig{Multi: true})
	m, _ = m.Update(runes("an"))
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "an", m.Query())
	assert.Len(t, m.Selection(), 1)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Empty(t, widgetMsgs(cmd), "backspace edits the query while it has text")
	assert.Equal(t, "a", m.Query())
	assert.Len(t, m.Selection(), 1)
}

func TestAutocomplete_SelectionIdentityIsByID(t *testing.T) {
	first := model.Option{ID: 4, Value: "Otros", Group: model.WireIncome}
	second := model.Option{ID: 9, Value: "Otros", Group: model.WireExpense}
	m := newFocusedAutocomplete(t, AutocompleteConfig{Multi: true, Options: []model.Option{first, second}})

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, []model.Option{first, second}, m.Selection())
}

func TestAutocomplete_Clear(t *testing.T) {
	t.Run("single", func(t *testing.T) {
		m := newFocusedAutocomplete(t, AutocompleteConfig{Clearable: true, Value: []model.Option{optNaranja}})
		assert.Equal(t, "Naranja", m.Query())

		m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlX})
		assert.Equal(t, []tea.Msg{AutocompleteChangedMsg{ID: "fruit", Cleared: true}}, widgetMsgs(cmd))
		assert.Empty(t, m.Query())
		_, ok := m.Selected()
		assert.False(t, ok)
	})

	t.Run("multi", func(t *testing.T) {
		m := newFocusedAutocomplete(t, AutocompleteConfig{Multi: true, Clearable: true, Value: fruits})
		m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlX})
		assert.Equal(t, []tea.Msg{AutocompleteChangedMsg{ID: "fruit", Cleared: true}}, widgetMsgs(cmd))
		assert.Empty(t, m.Selection())
	})

	t.Run("not clearable", func(t *testing.T) {
		m := newFocusedAutocomplete(t, AutocompleteConfig{Value: []model.Option{optNaranja}})
		m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlX})
		assert.Empty(t, widgetMsgs(cmd))
		assert.Equal(t, []model.Option{optNaranja}, m.Selection())
	})
}

func TestAutocomplete_SetValueOverridesTyping(t *testing.T) {
	m := newFocusedAutocomplete(t, AutocompleteConfig{})
	m, _ = m.Update(runes("zz"))
	assert.Equal(t, "zz", m.Query())

	m = m.SetValue([]model.Option{optNaranja})
	assert.Equal(t, "Naranja", m.Query())
	assert.Equal(t, []model.Option{optNaranja}, m.Selection())

	m = m.SetValue(nil)
	assert.Empty(t, m.Query())
	assert.Empty(t, m.Selection())
}

func TestAutocomplete_OutsideClickBlursOnce(t *testing.T) {
	m := newFocusedAutocomplete(t, AutocompleteConfig{})
	m = m.SetPosition(2, 3)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	require.True(t, m.IsOpen())

	m, cmd := m.Update(press(60, 40))
	assert.Equal(t, []tea.Msg{BlurMsg{ID: "fruit"}}, widgetMsgs(cmd))
	assert.False(t, m.IsOpen())
	assert.False(t, m.Focused())

	_, cmd = m.Update(press(60, 41))
	assert.Equal(t, []tea.Msg{BlurMsg{ID: "fruit"}}, widgetMsgs(cmd), "every outside press blurs once")
}

func TestAutocomplete_OutsideClickOnIdleWidget(t *testing.T) {
	m := NewAutocompleteModel(AutocompleteConfig{ID: "fruit", Options: fruits}, themes.Default)

	m, cmd := m.Update(press(60, 40))
	assert.Equal(t, []tea.Msg{BlurMsg{ID: "fruit"}}, widgetMsgs(cmd))
	assert.False(t, m.IsOpen())

	_, cmd = m.Blur()
	assert.Nil(t, cmd, "programmatic blur of an idle widget emits nothing")
}

func TestAutocomplete_ClickOption(t *testing.T) {
	m := NewAutocompleteModel(AutocompleteConfig{ID: "fruit", Options: fruits}, themes.Default).SetPosition(5, 10)

	m, _ = m.Update(press(6, 10))
	require.True(t, m.IsOpen())
	require.True(t, m.Focused())

	// Rows below the field list the options in order.
	m, cmd := m.Update(press(8, 12))
	assert.Equal(t, []tea.Msg{
		AutocompleteChangedMsg{ID: "fruit", Selection: []model.Option{optBanana}},
		BlurMsg{ID: "fruit"},
	}, widgetMsgs(cmd))
	assert.Equal(t, "Banana", m.Query())
}

func TestAutocomplete_ErrorLine(t *testing.T) {
	m := NewAutocompleteModel(AutocompleteConfig{Options: fruits}, themes.Default)
	assert.NotContains(t, m.View(), requiredText)
	m = m.SetError(true)
	assert.Contains(t, m.View(), requiredText)
}

func TestAutocomplete_IgnoresKeysWithoutFocus(t *testing.T) {
	m := NewAutocompleteModel(AutocompleteConfig{Options: fruits}, themes.Default)
	m, cmd := m.Update(runes("ban"))
	assert.Nil(t, cmd)
	assert.Empty(t, m.Query())
	assert.False(t, m.IsOpen())
}

func TestAutocomplete_BackspaceRemovesLastChip(t *testing.T) {
	m := newFocusedAutocomplete(t, AutocompleteConfig{Multi: true, Value: []model.Option{optManzana, optNaranja}})

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, []model.Option{optManzana}, m.Selection())
	assert.Equal(t, []tea.Msg{
		AutocompleteChangedMsg{ID: "fruit", Selection: []model.Option{optManzana}},
	}, widgetMsgs(cmd))
}
