package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/episim/internal/storage"
)

// Picker lists stored runs and reports the one chosen with enter.
type Picker struct {
	runs   []storage.RunMetadata
	cursor int
	chosen string
}

func NewPicker(runs []storage.RunMetadata) Picker {
	return Picker{runs: runs}
}

func (p Picker) Init() tea.Cmd { return nil }

func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return p, tea.Quit
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.runs)-1 {
			p.cursor++
		}
	case "enter":
		if len(p.runs) > 0 {
			p.chosen = p.runs[p.cursor].ID
		}
		return p, tea.Quit
	}
	return p, nil
}

// Chosen is the selected run ID, empty if the picker was dismissed.
func (p Picker) Chosen() string { return p.chosen }

func (p Picker) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("            " + cyan.Render("e p i s i m") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n\n")

	if len(p.runs) == 0 {
		b.WriteString(dim.Render("      no stored runs") + "\n")
	}
	for i, r := range p.runs {
		desc := fmt.Sprintf("%-18s %s", r.Model, r.Timestamp.Format("2006-01-02 15:04"))
		if i == p.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-36s", r.ID)) + dim.Render(desc) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-36s", r.ID)) + dimmer.Render(desc) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select   enter play   q quit") + "\n")
	return b.String()
}

// Pick shows the picker and returns the chosen run ID.
func Pick(runs []storage.RunMetadata) (string, error) {
	final, err := tea.NewProgram(NewPicker(runs)).Run()
	if err != nil {
		return "", err
	}
	return final.(Picker).Chosen(), nil
}
