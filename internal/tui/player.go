// Package tui provides interactive terminal playback of simulation runs.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/episim/internal/chart"
	"github.com/san-kum/episim/internal/dynamo"
	"github.com/san-kum/episim/internal/viz"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

const (
	frameInterval = 33 * time.Millisecond
	maxSpeed      = 64
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Player replays a recorded trajectory. The selected compartment is charted
// up to the playhead while every compartment is shown as a bar.
type Player struct {
	title    string
	result   *dynamo.Result
	head     int
	selected int
	speed    int
	paused   bool
	yMax     float64

	width  int
	height int
}

func NewPlayer(title string, result *dynamo.Result) Player {
	yMax := 0.0
	for _, x := range result.States {
		for _, v := range x {
			yMax = max(yMax, v)
		}
	}
	return Player{
		title:  title,
		result: result,
		speed:  1,
		yMax:   yMax,
		width:  80,
		height: 24,
	}
}

func (p Player) Init() tea.Cmd { return tick() }

func (p Player) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return p.handleKey(msg)
	case tea.WindowSizeMsg:
		p.width, p.height = msg.Width, msg.Height
		return p, nil
	case tickMsg:
		if !p.paused {
			p.advance(p.speed)
		}
		return p, tick()
	}
	return p, nil
}

func (p Player) handleKey(msg tea.KeyMsg) (Player, tea.Cmd) {
	n := len(p.result.Compartments)
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return p, tea.Quit
	case " ":
		p.paused = !p.paused
	case "tab", "right", "l":
		if n > 0 {
			p.selected = (p.selected + 1) % n
		}
	case "shift+tab", "left", "h":
		if n > 0 {
			p.selected = (p.selected + n - 1) % n
		}
	case "+", "=":
		p.speed = min(p.speed*2, maxSpeed)
	case "-", "_":
		p.speed = max(p.speed/2, 1)
	case "]":
		p.paused = true
		p.advance(1)
	case "[":
		p.paused = true
		p.head = max(p.head-1, 0)
	case "r":
		p.head = 0
		p.paused = false
	}
	return p, nil
}

// advance moves the playhead and pauses at the last sample.
func (p *Player) advance(n int) {
	last := len(p.result.States) - 1
	p.head += n
	if p.head >= last {
		p.head = max(last, 0)
		p.paused = true
	}
}

func (p Player) Head() int     { return p.head }
func (p Player) Speed() int    { return p.speed }
func (p Player) Paused() bool  { return p.paused }
func (p Player) Selected() int { return p.selected }

func (p Player) View() string {
	if len(p.result.States) == 0 {
		return dim.Render("  no samples recorded") + "\n"
	}

	var b strings.Builder
	x := p.result.States[p.head]
	t := p.result.Times[p.head]

	status := viz.StatusRunning.Render("PLAYING")
	if p.paused {
		status = viz.StatusPaused.Render("PAUSED")
	}

	b.WriteString("\n  " + cyan.Render(p.title) + "  " + status + "  " + dim.Render(fmt.Sprintf("t=%.2f  x%d", t, p.speed)) + "\n")
	b.WriteString(dimmer.Render("  "+strings.Repeat("─", max(p.width-4, 10))) + "\n\n")

	name := p.result.Compartments[p.selected]
	graph, err := viz.PlotSeries([]chart.Series{{
		Label:  name,
		Values: p.result.Series(p.selected)[:p.head+1],
	}}, viz.PlotOptions{
		Width:  max(p.width-16, 20),
		Height: max(p.height-14-len(x), 5),
		YMax:   p.yMax,
	})
	if err == nil {
		b.WriteString(graph + "\n\n")
	}

	b.WriteString(p.bars(x))
	b.WriteString("\n  " + viz.ProgressBar(float64(p.head)/float64(max(len(p.result.States)-1, 1)), max(p.width-8, 10)) + "\n\n")
	b.WriteString(dim.Render("  space pause  tab/←→ compartment  +/- speed  [ ] step  r restart  q quit") + "\n")
	return b.String()
}

func (p Player) bars(x dynamo.State) string {
	var b strings.Builder
	barWidth := max(p.width-30, 10)
	for i, name := range p.result.Compartments {
		ratio := 0.0
		if p.yMax > 0 {
			ratio = x[i] / p.yMax
		}
		filled := min(max(int(ratio*float64(barWidth)), 0), barWidth)
		bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

		label := fmt.Sprintf("%-4s", name)
		if i == p.selected {
			b.WriteString("  " + cyan.Render("▸ ") + white.Render(label) + magenta.Render(bar) + white.Render(fmt.Sprintf(" %10.2f", x[i])) + "\n")
		} else {
			b.WriteString("    " + dim.Render(label) + dimmer.Render(bar) + dim.Render(fmt.Sprintf(" %10.2f", x[i])) + "\n")
		}
	}
	return b.String()
}

// Play runs the player full screen until the user quits.
func Play(title string, result *dynamo.Result) error {
	_, err := tea.NewProgram(NewPlayer(title, result), tea.WithAltScreen()).Run()
	return err
}
