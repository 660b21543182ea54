package tui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/rinde/internal/tui/themes"
	"github.com/Veraticus/rinde/internal/tui/tuitest"
)

// TestVisualOutput renders every screen at a few sizes and logs the result for viewing with -v.
func TestVisualOutput(t *testing.T) {
	tests := []struct {
		name   string
		keys   []string
		want   []string
		width  int
		height int
		signed bool
	}{
		{
			name:   "login",
			width:  100,
			height: 32,
			want:   []string{"Rinde", "Correo electrónico", "Contraseña", "Iniciar Sesión"},
		},
		{
			name:   "dashboard_full",
			width:  120,
			height: 40,
			signed: true,
			want:   []string{"F1 Resumen", "Resumen Financiero 2024", "Mes", "Buscar", "Balance", "Movimientos"},
		},
		{
			name:   "dashboard_compact",
			width:  80,
			height: 24,
			signed: true,
			want:   []string{"Resumen Financiero 2024", "Balance:", "Egresos:"},
		},
		{
			name:   "form",
			width:  120,
			height: 40,
			signed: true,
			keys:   []string{"f2"},
			want:   []string{"Control Financiero", "Ingresos", "Egresos", "Deudas", "Ahorros", "Monto", "Fecha", "Tipo de Ingreso", "Descripción", "+ Registrar Ingreso"},
		},
		{
			name:   "report",
			width:  120,
			height: 40,
			signed: true,
			keys:   []string{"f3"},
			want:   []string{"Reporte", "Rango", "01/03/2024", "20/03/2024", "Subtipos", "Subtipo", "Sueldo"},
		},
		{
			name:   "help",
			width:  100,
			height: 40,
			signed: true,
			keys:   []string{"?"},
			want:   []string{"Rinde - Ayuda", "Presiona ? o Esc para volver"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, tt.signed, WithSize(tt.width, tt.height))
			app.Init().Send(tuitest.WindowSize(tt.width, tt.height))
			app.key(tt.keys...)

			view := app.View()
			t.Logf("\n=== %s (%dx%d) ===\n%s", tt.name, tt.width, tt.height, view)
			assert.True(t, tuitest.ContainsInOrder(view, tt.want...), "view is missing one of %q", tt.want)
		})
	}
}

func TestViewFitsWidth(t *testing.T) {
	for _, width := range []int{80, 100, 140} {
		app := newTestApp(t, true, WithSize(width, 40))
		app.Init()

		for _, line := range strings.Split(app.View(), "\n") {
			assert.LessOrEqual(t, len([]rune(line)), width+2, "line too wide at %d: %q", width, line)
		}
	}
}

func TestThemeVariations(t *testing.T) {
	for _, theme := range []themes.Theme{themes.Default, themes.CatppuccinMocha} {
		app := newTestApp(t, true, WithTheme(theme))
		app.Init()

		raw := app.Model.View()
		require.NotEmpty(t, raw)
		assert.Contains(t, tuitest.StripANSI(raw), "Resumen Financiero 2024")
	}

	assert.Equal(t, themes.CatppuccinMocha.Primary, themes.GetTheme("Catppuccin-Mocha").Primary)
	assert.Equal(t, themes.Default.Primary, themes.GetTheme("unknown").Primary)
	assert.Equal(t, "$", themes.GetTypeIcon("Ingresos"))
	assert.Equal(t, "•", themes.GetTypeIcon("Otro"))
}
