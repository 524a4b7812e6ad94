package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/san-kum/episim/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Model != "sir" {
		t.Errorf("expected model sir, got %s", cfg.Model)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Duration <= 0 {
		t.Error("duration should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("seir")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Points != 160 || cfg.Duration != 160 {
		t.Errorf("expected 160 points over 160 days, got %d over %f", cfg.Points, cfg.Duration)
	}
}

func TestGetPresetReturnsCopy(t *testing.T) {
	cfg := GetPreset("ebola_cr_all")
	cfg.Interventions[0].Scale["mu"] = 10
	cfg.Plot.Series[0].Label = "changed"

	again := GetPreset("ebola_cr_all")
	if again.Interventions[0].Scale["mu"] != 2 {
		t.Errorf("expected preset untouched, got mu factor %f", again.Interventions[0].Scale["mu"])
	}
	if again.Plot.Series[0].Label != "Susceptible" {
		t.Errorf("expected series label untouched, got %s", again.Plot.Series[0].Label)
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets()
	if len(presets) != len(Presets) {
		t.Errorf("expected %d presets, got %d", len(Presets), len(presets))
	}
	for i := 1; i < len(presets); i++ {
		if presets[i-1] > presets[i] {
			t.Errorf("expected sorted names, got %v", presets)
			break
		}
	}
}

func TestPresetsValid(t *testing.T) {
	for name, cfg := range Presets {
		if err := cfg.Validate(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
		if cfg.Name != name {
			t.Errorf("preset %s carries name %s", name, cfg.Name)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"no model", func(c *Config) { c.Model = "" }},
		{"bad kind", func(c *Config) { c.Kind = "agent" }},
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"negative duration", func(c *Config) { c.Duration = -1 }},
		{"negative points", func(c *Config) { c.Points = -3 }},
		{"negative tolerance", func(c *Config) { c.Adaptive, c.Tolerance = true, -1e-6 }},
		{"early intervention", func(c *Config) {
			c.Interventions = []InterventionConfig{{Name: "x", At: -1}}
		}},
		{"bad color", func(c *Config) {
			c.Plot.Series = []SeriesConfig{{Label: "S", Color: "blue", Of: "S"}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, dynamo.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestAdaptivePresets(t *testing.T) {
	for _, name := range []string{"sir", "ebola", "hiv"} {
		cfg := GetPreset(name)
		cfg.Adaptive = true
		if err := cfg.Validate(); err != nil {
			t.Errorf("preset %s: expected adaptive run to validate, got %v", name, err)
		}
		sim := cfg.SimConfig()
		if !sim.Adaptive || sim.Tolerance != DefaultTolerance {
			t.Errorf("preset %s: expected adaptive with tolerance %g, got %v %g", name, DefaultTolerance, sim.Adaptive, sim.Tolerance)
		}
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	cfg := GetPreset("ebola_burial")
	cfg.Params = map[string]float64{"beta_i": 0.25}
	cfg.Init = map[string]float64{"I": 5}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.Model != "ebola" || loaded.Points != 365 {
		t.Errorf("expected ebola with 365 points, got %s with %d", loaded.Model, loaded.Points)
	}
	if loaded.Params["beta_i"] != 0.25 || loaded.Init["I"] != 5 {
		t.Errorf("expected overrides to round trip, got %v %v", loaded.Params, loaded.Init)
	}
	if len(loaded.Interventions) != 1 || loaded.Interventions[0].At != 90 {
		t.Errorf("expected one intervention at day 90, got %+v", loaded.Interventions)
	}
}

func TestSteps(t *testing.T) {
	cfg := GetPreset("stochastic_sir")
	if cfg.Steps() != 5000 {
		t.Errorf("expected 5000 steps, got %d", cfg.Steps())
	}

	sim := GetPreset("hiv").SimConfig()
	if sim.Points != 10000 || sim.Duration != 1000 {
		t.Errorf("expected 10000 points over 1000 months, got %d over %f", sim.Points, sim.Duration)
	}
}
