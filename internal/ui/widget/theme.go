package widget

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/i474232898/openwx/internal/weather"
)

var (
	Text     = lipgloss.Color("#cdd6f4")
	Subtext0 = lipgloss.Color("#a6adc8")
	Surface1 = lipgloss.Color("#45475a")
	Sapphire = lipgloss.Color("#74c7ec")
	Peach    = lipgloss.Color("#fab387")
	Red      = lipgloss.Color("#f38ba8")

	Pane = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Surface1).
		Foreground(Text).
		Padding(0, 2)

	Title = lipgloss.NewStyle().Foreground(Sapphire).Bold(true)
	Temp  = lipgloss.NewStyle().Foreground(Peach).Bold(true)
	Muted = lipgloss.NewStyle().Foreground(Subtext0)
	Alert = lipgloss.NewStyle().Foreground(Red)
)

// categoryAccent tints the pane border by weather category.
var categoryAccent = map[weather.Category]lipgloss.Color{
	weather.CategoryRain:       lipgloss.Color("#89b4fa"),
	weather.CategoryCloudy:     lipgloss.Color("#9399b2"),
	weather.CategorySnow:       lipgloss.Color("#f5f5f5"),
	weather.CategoryClearDay:   lipgloss.Color("#f9e2af"),
	weather.CategoryClearNight: lipgloss.Color("#b4befe"),
}
