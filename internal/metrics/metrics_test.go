package metrics

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/episim/internal/dynamo"
	"github.com/san-kum/episim/internal/integrators"
	"github.com/san-kum/episim/internal/models"
)

func TestPeakPrevalence(t *testing.T) {
	m := NewPeakPrevalence(100, 1)

	m.Observe(dynamo.State{90, 10, 0}, 0)
	m.Observe(dynamo.State{60, 30, 10}, 5)
	m.Observe(dynamo.State{40, 20, 40}, 10)

	if math.Abs(m.Value()-0.3) > 1e-12 {
		t.Errorf("expected peak 0.3, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero peak after reset")
	}
}

func TestPeakTime(t *testing.T) {
	m := NewPeakTime(1)
	m.Observe(dynamo.State{90, 10}, 0)
	m.Observe(dynamo.State{60, 30}, 5)
	m.Observe(dynamo.State{40, 20}, 10)

	if m.Value() != 5 {
		t.Errorf("expected peak time 5, got %f", m.Value())
	}
	if m.Name() != "peak_time" {
		t.Errorf("expected name peak_time, got %s", m.Name())
	}
}

func TestFinalFraction(t *testing.T) {
	m := NewFinalFraction("deaths", 1000, 4, 5)
	m.Observe(dynamo.State{1000, 0, 0, 0, 0, 0}, 0)
	m.Observe(dynamo.State{500, 0, 0, 100, 50, 250}, 1)

	if math.Abs(m.Value()-0.3) > 1e-12 {
		t.Errorf("expected 0.3, got %f", m.Value())
	}
}

func TestPositivity(t *testing.T) {
	m := NewPositivity(1e-9)
	m.Observe(dynamo.State{1, 2}, 0)
	m.Observe(dynamo.State{1, -1}, 1)

	if m.Value() != 0.5 {
		t.Errorf("expected 0.5, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 1 {
		t.Errorf("expected 1 after reset, got %f", m.Value())
	}
}

func TestBurden(t *testing.T) {
	m := NewBurden(0)
	m.Observe(dynamo.State{0}, 0)
	m.Observe(dynamo.State{10}, 1)
	m.Observe(dynamo.State{10}, 3)

	if math.Abs(m.Value()-25) > 1e-12 {
		t.Errorf("expected 25, got %f", m.Value())
	}
}

func TestMetricsOnSimulation(t *testing.T) {
	sys := models.NewSEIR()
	sim := dynamo.New(sys, integrators.NewRK4())

	drift := NewPopulationDrift(sys)
	peak := NewPeakPrevalence(sys.Population, 2)
	sim.AddMetric(drift)
	sim.AddMetric(peak)
	sim.AddMetric(NewPositivity(1e-9))

	cfg := dynamo.DefaultConfig()
	cfg.Duration, cfg.Points = 160, 160
	result, err := sim.Run(context.Background(), sys.DefaultState(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Metrics["population_drift"] > 1e-9 {
		t.Errorf("expected negligible drift, got %g", result.Metrics["population_drift"])
	}
	if result.Metrics["positivity"] != 1 {
		t.Errorf("expected all samples non-negative, got %f", result.Metrics["positivity"])
	}
	if p := result.Metrics["peak_prevalence"]; p <= 0.01 || p >= 1 {
		t.Errorf("expected a substantial epidemic peak, got %f", p)
	}
}

func TestPopulationDriftOpenSystem(t *testing.T) {
	m := NewPopulationDrift(models.NewHIV())
	m.Observe(dynamo.State{1, 2, 3}, 0)
	m.Observe(dynamo.State{10, 2, 3}, 1)
	if m.Value() != 0 {
		t.Errorf("expected no drift for open population, got %f", m.Value())
	}
}
