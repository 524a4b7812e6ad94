package viz

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// Theme pairs the lipgloss accents of the tables with the line colours of
// the charts. Series cycle through Lines in compartment order.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Muted   lipgloss.Color
	Text    lipgloss.Color
	Lines   []asciigraph.AnsiColor
}

var (
	// ThemeClassic follows the S/E/I/R/B/D colours of the PNG charts.
	ThemeClassic = Theme{
		Name:    "classic",
		Primary: lipgloss.Color("#02146b"),
		Accent:  lipgloss.Color("#e21e7b"),
		Muted:   lipgloss.Color("#888888"),
		Text:    lipgloss.Color("#ffffff"),
		Lines: []asciigraph.AnsiColor{
			asciigraph.Blue, asciigraph.Orange, asciigraph.GreenYellow,
			asciigraph.DeepPink, asciigraph.Gray, asciigraph.Cyan,
		},
	}

	ThemeMinimal = Theme{
		Name:    "minimal",
		Primary: lipgloss.Color("#ffffff"),
		Accent:  lipgloss.Color("#0088ff"),
		Muted:   lipgloss.Color("#888888"),
		Text:    lipgloss.Color("#ffffff"),
		Lines:   []asciigraph.AnsiColor{asciigraph.Default},
	}

	ThemeOcean = Theme{
		Name:    "ocean",
		Primary: lipgloss.Color("#0077be"),
		Accent:  lipgloss.Color("#ffd700"),
		Muted:   lipgloss.Color("#4488aa"),
		Text:    lipgloss.Color("#e0f0ff"),
		Lines: []asciigraph.AnsiColor{
			asciigraph.DodgerBlue, asciigraph.Gold, asciigraph.Aqua,
			asciigraph.Coral, asciigraph.SlateGray, asciigraph.Teal,
		},
	}

	CurrentTheme = ThemeClassic

	Themes = []Theme{ThemeClassic, ThemeMinimal, ThemeOcean}
)

// GetTheme returns a theme by name, falling back to classic.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeClassic
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
	applyTheme(CurrentTheme)
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

func (t Theme) line(i int) asciigraph.AnsiColor {
	if len(t.Lines) == 0 {
		return asciigraph.Default
	}
	return t.Lines[i%len(t.Lines)]
}
