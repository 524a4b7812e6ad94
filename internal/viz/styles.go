package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 1)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(CurrentTheme.Primary)

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	StatusRunning = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ff88"))

	StatusPaused = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffaa00"))

	MetricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	MetricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899")).
			Width(18)

	Selected = lipgloss.NewStyle().
			Bold(true).
			Foreground(CurrentTheme.Accent)

	KeyHint = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688")).
		Italic(true)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("#444466"))

	SparkHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#e21e7b"))
	SparkMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffb428"))
	SparkLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#02146b"))
)

func applyTheme(t Theme) {
	Title = Title.Foreground(t.Primary)
	Selected = Selected.Foreground(t.Accent)
	Subtle = Subtle.Foreground(t.Muted)
}

// ProgressBar renders the fraction done of a playback.
func ProgressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return MetricValue.Render(strings.Repeat("█", filled)) + Subtle.Render(strings.Repeat("░", width-filled))
}

// Sparkline renders values as one row of block characters, sampling down to
// width and shading by height.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := len(values) / width
	if step < 1 {
		step = 1
	}

	var b strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / rng
		idx := int(norm * float64(len(chars)-1))
		idx = min(max(idx, 0), len(chars)-1)

		c := string(chars[idx])
		switch {
		case norm > 0.7:
			b.WriteString(SparkHigh.Render(c))
		case norm > 0.3:
			b.WriteString(SparkMid.Render(c))
		default:
			b.WriteString(SparkLow.Render(c))
		}
	}
	return b.String()
}

// Separator draws a muted rule of the given width.
func Separator(width int) string {
	if width < 8 {
		return Subtle.Render(strings.Repeat("─", max(width, 0)))
	}
	mid := width / 2
	return Subtle.Render(strings.Repeat("─", mid-2) + " ◆ " + strings.Repeat("─", width-mid-1))
}
