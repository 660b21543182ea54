package themes

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the visual style for the TUI.
type Theme struct {
	Selected      lipgloss.Style
	Tab           lipgloss.Style
	ActiveTab     lipgloss.Style
	StatusPending lipgloss.Style
	StatusInfo    lipgloss.Style
	StatusError   lipgloss.Style
	StatusWarning lipgloss.Style
	StatusSuccess lipgloss.Style
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Bold          lipgloss.Style
	Button        lipgloss.Style
	RoundedBox    lipgloss.Style
	Highlighted   lipgloss.Style
	Box           lipgloss.Style
	BorderedBox   lipgloss.Style
	Toast         lipgloss.Style
	Secondary     lipgloss.Color
	Primary       lipgloss.Color
	Muted         lipgloss.Color
	Border        lipgloss.Color
	Foreground    lipgloss.Color
	Background    lipgloss.Color
	Info          lipgloss.Color
	Error         lipgloss.Color
	Warning       lipgloss.Color
	Success       lipgloss.Color
}

// palette is the set of colors a theme is built from.
type palette struct {
	primary, secondary                lipgloss.Color
	success, warning, danger, info    lipgloss.Color
	background, foreground, surface   lipgloss.Color
	border, muted, subtle, onSelected lipgloss.Color
}

func newTheme(p palette) Theme {
	return Theme{
		Primary:    p.primary,
		Secondary:  p.secondary,
		Success:    p.success,
		Warning:    p.warning,
		Error:      p.danger,
		Info:       p.info,
		Background: p.background,
		Foreground: p.foreground,
		Border:     p.border,
		Muted:      p.muted,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.foreground).
			MarginBottom(1),
		Subtitle: lipgloss.NewStyle().
			Foreground(p.subtle).
			MarginBottom(1),
		Normal: lipgloss.NewStyle().
			Foreground(p.foreground),
		Bold: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.foreground),
		Selected: lipgloss.NewStyle().
			Background(p.primary).
			Foreground(p.onSelected).
			Bold(true),
		Highlighted: lipgloss.NewStyle().
			Background(p.surface).
			Foreground(p.foreground),

		Tab: lipgloss.NewStyle().
			Foreground(p.subtle).
			Padding(0, 2),
		ActiveTab: lipgloss.NewStyle().
			Background(p.primary).
			Foreground(p.onSelected).
			Bold(true).
			Padding(0, 2),
		Button: lipgloss.NewStyle().
			Background(p.secondary).
			Foreground(p.onSelected).
			Bold(true).
			Padding(0, 3),
		Toast: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1),

		Box: lipgloss.NewStyle().
			Padding(1, 2),
		BorderedBox: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(p.border).
			Padding(1, 2),
		RoundedBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.border).
			Padding(1, 2),

		StatusSuccess: lipgloss.NewStyle().
			Foreground(p.success).
			Bold(true),
		StatusWarning: lipgloss.NewStyle().
			Foreground(p.warning).
			Bold(true),
		StatusError: lipgloss.NewStyle().
			Foreground(p.danger).
			Bold(true),
		StatusInfo: lipgloss.NewStyle().
			Foreground(p.info).
			Bold(true),
		StatusPending: lipgloss.NewStyle().
			Foreground(p.muted).
			Italic(true),
	}
}

// Default is the emerald theme.
var Default = newTheme(palette{
	primary:    lipgloss.Color("#059669"),
	secondary:  lipgloss.Color("#14b8a6"),
	success:    lipgloss.Color("#10b981"),
	warning:    lipgloss.Color("#f59e0b"),
	danger:     lipgloss.Color("#ef4444"),
	info:       lipgloss.Color("#3b82f6"),
	background: lipgloss.Color("#1a1a1a"),
	foreground: lipgloss.Color("#fafafa"),
	surface:    lipgloss.Color("#404040"),
	border:     lipgloss.Color("#404040"),
	muted:      lipgloss.Color("#737373"),
	subtle:     lipgloss.Color("#a3a3a3"),
	onSelected: lipgloss.Color("#fafafa"),
})

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = newTheme(palette{
	primary:    lipgloss.Color("#a6e3a1"),
	secondary:  lipgloss.Color("#94e2d5"),
	success:    lipgloss.Color("#a6e3a1"),
	warning:    lipgloss.Color("#f9e2af"),
	danger:     lipgloss.Color("#f38ba8"),
	info:       lipgloss.Color("#89dceb"),
	background: lipgloss.Color("#1e1e2e"),
	foreground: lipgloss.Color("#cdd6f4"),
	surface:    lipgloss.Color("#45475a"),
	border:     lipgloss.Color("#45475a"),
	muted:      lipgloss.Color("#6c7086"),
	subtle:     lipgloss.Color("#a6adc8"),
	onSelected: lipgloss.Color("#1e1e2e"),
})

// GetTheme returns a theme by name.
func GetTheme(name string) Theme {
	switch strings.ToLower(name) {
	case "catppuccin-mocha":
		return CatppuccinMocha
	default:
		return Default
	}
}

// TypeIcons maps the entry type labels to the icons shown on the form tabs.
var TypeIcons = map[string]string{
	"Ingresos": "$",
	"Egresos":  "◧",
	"Deudas":   "▭",
	"Ahorros":  "◉",
}

// GetTypeIcon returns the icon for an entry type label.
func GetTypeIcon(label string) string {
	if icon, ok := TypeIcons[label]; ok {
		return icon
	}
	return "•"
}
