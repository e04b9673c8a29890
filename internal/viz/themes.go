package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines the color scheme for the TUI and the heatmap.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Muted   lipgloss.Color
	Safe    lipgloss.Color
	Warning lipgloss.Color
	Danger  lipgloss.Color
}

var (
	ThemeCyberpunk = Theme{
		Name:    "cyberpunk",
		Primary: lipgloss.Color("#ff00ff"),
		Accent:  lipgloss.Color("#00ffff"),
		Muted:   lipgloss.Color("#666666"),
		Safe:    lipgloss.Color("#00ff00"),
		Warning: lipgloss.Color("#ff8800"),
		Danger:  lipgloss.Color("#ff0000"),
	}

	ThemeRetroGreen = Theme{
		Name:    "retro",
		Primary: lipgloss.Color("#00ff00"), // Green phosphor
		Accent:  lipgloss.Color("#88ff88"),
		Muted:   lipgloss.Color("#005500"),
		Safe:    lipgloss.Color("#88ff88"),
		Warning: lipgloss.Color("#ffff00"),
		Danger:  lipgloss.Color("#ff0000"),
	}

	ThemeMinimal = Theme{
		Name:    "minimal",
		Primary: lipgloss.Color("#ffffff"),
		Accent:  lipgloss.Color("#0088ff"),
		Muted:   lipgloss.Color("#888888"),
		Safe:    lipgloss.Color("#00ff00"),
		Warning: lipgloss.Color("#ffaa00"),
		Danger:  lipgloss.Color("#ff0000"),
	}
)

var themes = []Theme{ThemeCyberpunk, ThemeRetroGreen, ThemeMinimal}

var CurrentTheme = ThemeCyberpunk

func ThemeNames() []string {
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}

// SetTheme switches the current theme; unknown names are ignored.
func SetTheme(name string) bool {
	for _, t := range themes {
		if t.Name == name {
			CurrentTheme = t
			return true
		}
	}
	return false
}

// NextTheme cycles to the theme after the current one.
func NextTheme() {
	for i, t := range themes {
		if t.Name == CurrentTheme.Name {
			CurrentTheme = themes[(i+1)%len(themes)]
			return
		}
	}
	CurrentTheme = themes[0]
}
