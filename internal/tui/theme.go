package tui

import (
	"image/color"

	"charm.land/lipgloss/v2"

	"github.com/hylla/tavle/internal/config"
)

// themeLight and themeDark name the two palettes.
const (
	themeLight = config.ThemeLight
	themeDark  = config.ThemeDark
)

// palette represents palette data used by this package.
type palette struct {
	accent   color.Color
	muted    color.Color
	dim      color.Color
	text     color.Color
	selected color.Color
	warning  color.Color
	border   color.Color
	overdue  color.Color
}

// paletteFor returns the palette for the named theme.
func paletteFor(theme string) palette {
	if theme == themeLight {
		return palette{
			accent:   lipgloss.Color("26"),
			muted:    lipgloss.Color("244"),
			dim:      lipgloss.Color("250"),
			text:     lipgloss.Color("236"),
			selected: lipgloss.Color("162"),
			warning:  lipgloss.Color("124"),
			border:   lipgloss.Color("248"),
			overdue:  lipgloss.Color("160"),
		}
	}
	return palette{
		accent:   lipgloss.Color("62"),
		muted:    lipgloss.Color("241"),
		dim:      lipgloss.Color("239"),
		text:     lipgloss.Color("252"),
		selected: lipgloss.Color("212"),
		warning:  lipgloss.Color("203"),
		border:   lipgloss.Color("238"),
		overdue:  lipgloss.Color("196"),
	}
}

// tagColor maps a stored hex color onto a terminal color, falling back to
// the accent when the value is unusable.
func tagColor(p palette, value string) color.Color {
	if len(value) != 7 || value[0] != '#' {
		return p.accent
	}
	return lipgloss.Color(value)
}
