package viz

import (
	"errors"
	"strings"
	"testing"

	"github.com/san-kum/episim/internal/analysis"
	"github.com/san-kum/episim/internal/chart"
)

func TestPlotSeries(t *testing.T) {
	series := []chart.Series{
		{Label: "S", Values: []float64{1, 0.8, 0.5, 0.3}},
		{Label: "I", Values: []float64{0, 0.15, 0.3, 0.1}},
		{Label: "empty"},
	}

	out, err := PlotSeries(series, PlotOptions{Height: 6, YMax: 1, Caption: "SIR"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"SIR", "S", "I"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
	if strings.Contains(out, "empty") {
		t.Error("expected empty series to be skipped")
	}

	if _, err := PlotSeries(nil, DefaultPlotOptions()); !errors.Is(err, ErrNoSeries) {
		t.Errorf("expected ErrNoSeries, got %v", err)
	}
}

func TestSanitize(t *testing.T) {
	zero := 0.0
	got := sanitize([]float64{1, zero / zero, 2})
	if got[1] != 0 {
		t.Errorf("expected NaN replaced by 0, got %f", got[1])
	}
}

func TestSparkline(t *testing.T) {
	out := Sparkline([]float64{0, 1, 2, 3, 4, 5, 6, 7}, 8)
	if !strings.Contains(out, "▁") || !strings.Contains(out, "█") {
		t.Errorf("expected lowest and highest blocks, got %q", out)
	}
	if got := Sparkline(nil, 5); got != "─────" {
		t.Errorf("expected flat line, got %q", got)
	}
}

func TestSummaryTable(t *testing.T) {
	s := &analysis.Summary{
		Peaks:      map[string]analysis.Peak{"I": {Value: 301.5, Time: 42}},
		FinalState: map[string]float64{"S": 200, "I": 1, "R": 799},
		R0:         2,
		AttackRate: 0.8,
	}
	out := SummaryTable(s, []string{"S", "I", "R"})
	for _, want := range []string{"compartment", "301.5", "42", "799", "R0", "80.0%"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected table to contain %q", want)
		}
	}
}

func TestKeyValues(t *testing.T) {
	out := KeyValues("params", map[string]float64{"gamma": 0.1, "beta": 0.2})
	if strings.Index(out, "beta") > strings.Index(out, "gamma") {
		t.Error("expected keys in sorted order")
	}
	if !strings.Contains(KeyValues("metrics", nil), "(none)") {
		t.Error("expected placeholder for empty map")
	}
}

func TestThemes(t *testing.T) {
	defer SetTheme("classic")

	if GetTheme("nope").Name != "classic" {
		t.Error("expected fallback to classic")
	}
	SetTheme("ocean")
	if CurrentTheme.Name != "ocean" {
		t.Errorf("expected ocean, got %s", CurrentTheme.Name)
	}
	if len(ThemeNames()) != len(Themes) {
		t.Error("expected one name per theme")
	}
	if ThemeMinimal.line(5) != ThemeMinimal.Lines[0] {
		t.Error("expected line colours to cycle")
	}
}
