package tui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/episim/internal/dynamo"
	"github.com/san-kum/episim/internal/storage"
)

func result() *dynamo.Result {
	r := &dynamo.Result{Compartments: []string{"S", "I", "R"}}
	for k := 0; k < 10; k++ {
		r.Times = append(r.Times, float64(k))
		r.States = append(r.States, dynamo.State{float64(100 - 10*k), 5, float64(10 * k)})
	}
	return r
}

func press(m tea.Model, keys ...tea.KeyMsg) tea.Model {
	for _, k := range keys {
		m, _ = m.Update(k)
	}
	return m
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func TestPlayerKeys(t *testing.T) {
	p := press(NewPlayer("sir", result()), tea.KeyMsg{Type: tea.KeyTab}, runes("+"), runes("+")).(Player)
	if p.Selected() != 1 {
		t.Errorf("expected compartment 1, got %d", p.Selected())
	}
	if p.Speed() != 4 {
		t.Errorf("expected speed 4, got %d", p.Speed())
	}

	p = press(p, tea.KeyMsg{Type: tea.KeyLeft}, tea.KeyMsg{Type: tea.KeyLeft}).(Player)
	if p.Selected() != 2 {
		t.Errorf("expected wrap to compartment 2, got %d", p.Selected())
	}

	p = press(p, runes("-"), runes("-"), runes("-")).(Player)
	if p.Speed() != 1 {
		t.Errorf("expected speed floor of 1, got %d", p.Speed())
	}

	p = press(p, tea.KeyMsg{Type: tea.KeySpace}).(Player)
	if !p.Paused() {
		t.Error("expected pause on space")
	}
}

func TestPlayerPlayback(t *testing.T) {
	var m tea.Model = NewPlayer("sir", result())
	m = press(m, runes("+"))
	for i := 0; i < 3; i++ {
		m, _ = m.Update(tickMsg(time.Now()))
	}
	if got := m.(Player).Head(); got != 6 {
		t.Errorf("expected head 6 after three double-speed ticks, got %d", got)
	}

	for i := 0; i < 10; i++ {
		m, _ = m.Update(tickMsg(time.Now()))
	}
	p := m.(Player)
	if p.Head() != 9 || !p.Paused() {
		t.Errorf("expected pause at last sample, got head %d paused %v", p.Head(), p.Paused())
	}

	p = press(p, runes("r")).(Player)
	if p.Head() != 0 || p.Paused() {
		t.Error("expected restart from the first sample")
	}

	p = press(p, runes("]"), runes("]"), runes("[")).(Player)
	if p.Head() != 1 || !p.Paused() {
		t.Errorf("expected paused stepping to land on 1, got %d", p.Head())
	}
}

func TestPlayerView(t *testing.T) {
	view := NewPlayer("sir run", result()).View()
	for _, want := range []string{"sir run", "PLAYING", "S", "I", "R"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}

	empty := NewPlayer("none", &dynamo.Result{}).View()
	if !strings.Contains(empty, "no samples") {
		t.Error("expected placeholder for empty result")
	}
}

func TestPlayerQuit(t *testing.T) {
	_, cmd := NewPlayer("sir", result()).Update(runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestPicker(t *testing.T) {
	runs := []storage.RunMetadata{{ID: "sir_1", Model: "sir"}, {ID: "seir_2", Model: "seir"}}

	m := press(NewPicker(runs), tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown})
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if got := m.(Picker).Chosen(); got != "seir_2" {
		t.Errorf("expected seir_2, got %q", got)
	}
	if cmd == nil {
		t.Error("expected quit after choosing")
	}

	if !strings.Contains(NewPicker(nil).View(), "no stored runs") {
		t.Error("expected empty placeholder")
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, []string{"S", "I"}, 10, 1000)
	p.OnStep(dynamo.State{990, 10}, 5)

	out := buf.String()
	if !strings.Contains(out, "##########----------") {
		t.Errorf("expected half-full bar, got %q", out)
	}
	if !strings.Contains(out, "I=10.0") {
		t.Errorf("expected compartment values, got %q", out)
	}
}
