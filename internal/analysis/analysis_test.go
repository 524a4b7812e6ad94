package analysis

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/episim/internal/dynamo"
	"github.com/san-kum/episim/internal/integrators"
	"github.com/san-kum/episim/internal/models"
)

func runSIR(t *testing.T, m *models.SIR) *dynamo.Result {
	t.Helper()
	cfg := dynamo.DefaultConfig()
	cfg.Duration, cfg.Points = 160, 161
	result, err := dynamo.New(m, integrators.NewRK4()).Run(context.Background(), m.DefaultState(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return result
}

func TestSummarizeSIR(t *testing.T) {
	m := models.NewSIR()
	result := runSIR(t, m)

	s, err := Summarize(m, result)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(s.R0-2) > 1e-12 {
		t.Errorf("expected R0 2, got %f", s.R0)
	}

	// final size relation for R0=2: z = 1 - exp(-2z), z ~ 0.797
	if math.Abs(s.AttackRate-0.797) > 0.02 {
		t.Errorf("expected attack rate near 0.797, got %f", s.AttackRate)
	}

	peak := s.Peaks["I"]
	if peak.Time <= 0 || peak.Time >= 160 {
		t.Errorf("expected interior epidemic peak, got t=%f", peak.Time)
	}
	if s.Peaks["R"].Value != s.FinalState["R"] {
		t.Errorf("expected R to peak at its final value")
	}
}

func TestFractionsAndSeries(t *testing.T) {
	m := models.NewSIR()
	result := runSIR(t, m)

	frac := Fractions(result, 1000)
	if math.Abs(frac.States[0].Sum()-1) > 1e-12 {
		t.Errorf("expected fractions to sum to 1, got %f", frac.States[0].Sum())
	}
	if result.States[0][0] != 999 {
		t.Errorf("expected source result untouched, got %f", result.States[0][0])
	}

	if _, err := Series(result, "X"); !errors.Is(err, models.ErrUnknownCompartment) {
		t.Errorf("expected ErrUnknownCompartment, got %v", err)
	}
	s, err := Series(result, "I")
	if err != nil || len(s) != 161 {
		t.Errorf("expected 161 samples, got %d (%v)", len(s), err)
	}

	size, err := FinalSize(result, []string{"R"}, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if size < 0.7 || size > 0.85 {
		t.Errorf("expected final size near 0.8, got %f", size)
	}
}

func TestIndicators(t *testing.T) {
	m := models.NewHIV()
	cfg := dynamo.DefaultConfig()
	cfg.Duration, cfg.Points = 100, 101
	result, err := dynamo.New(m, integrators.NewRK4()).Run(context.Background(), m.DefaultState(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ind := Indicators(m, result)
	prev, ok := ind["prevalence"]
	if !ok || len(prev) != 101 {
		t.Fatalf("expected prevalence series of 101 samples, got %d", len(prev))
	}
	if math.Abs(prev[0]-1e-4) > 1e-12 {
		t.Errorf("expected initial prevalence 1e-4, got %g", prev[0])
	}

	if Indicators(models.NewPopGrowth(), result) != nil {
		t.Error("expected no indicators for a model without them")
	}
}

func TestGrowthRate(t *testing.T) {
	times := make([]float64, 50)
	series := make([]float64, 50)
	for k := range times {
		times[k] = float64(k)
		series[k] = 3 * math.Exp(0.1*times[k])
	}

	r, err := GrowthRate(series, times, 0, 49)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(r-0.1) > 1e-9 {
		t.Errorf("expected rate 0.1, got %f", r)
	}
	if math.Abs(DoublingTime(r)-math.Ln2/0.1) > 1e-6 {
		t.Errorf("expected doubling time %f, got %f", math.Ln2/0.1, DoublingTime(r))
	}

	if _, err := GrowthRate(series, times, 100, 200); !errors.Is(err, ErrTooFewPoints) {
		t.Errorf("expected ErrTooFewPoints, got %v", err)
	}
}

func TestEarlyGrowthMatchesSIR(t *testing.T) {
	m := models.NewSIR()
	result := runSIR(t, m)

	r, err := GrowthRate(result.Series(1), result.Times, 0, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(r-(m.Beta-m.Gamma)) > 0.01 {
		t.Errorf("expected rate near %f, got %f", m.Beta-m.Gamma, r)
	}
}

func TestDominantPeriod(t *testing.T) {
	n := 256
	dt := 0.5
	series := make([]float64, n)
	for k := range series {
		series[k] = 10 + math.Sin(2*math.Pi*float64(k)*dt/32)
	}

	period, err := DominantPeriod(series, dt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(period-32) > 1e-6 {
		t.Errorf("expected period 32, got %f", period)
	}

	if _, err := DominantPeriod([]float64{1, 1, 1, 1}, 1); !errors.Is(err, ErrTooFewPoints) {
		t.Errorf("expected error for constant series, got %v", err)
	}
}

func TestThresholdDiagram(t *testing.T) {
	m := models.NewSIR()
	cfg := dynamo.DefaultConfig()
	cfg.Duration, cfg.Points = 400, 401

	points, err := ThresholdDiagram(context.Background(), m, integrators.NewRK4(), "beta", 0.05, 0.3, 6, "R", cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 6 {
		t.Fatalf("expected 6 points, got %d", len(points))
	}
	if m.Beta != 0.2 {
		t.Errorf("expected beta restored to 0.2, got %f", m.Beta)
	}

	// below threshold almost nobody is infected, above it a major outbreak occurs
	if points[0].R0 >= 1 || points[0].Final > 10 {
		t.Errorf("expected minor outbreak at R0=%f, got R=%f", points[0].R0, points[0].Final)
	}
	last := points[len(points)-1]
	if last.R0 <= 1 || last.Final < 500 {
		t.Errorf("expected major outbreak at R0=%f, got R=%f", last.R0, last.Final)
	}

	if out := ThresholdToASCII(points, 20, 5); strings.Count(out, "\n") != 5 {
		t.Errorf("expected 5 rows, got %q", out)
	}

	if _, err := ThresholdDiagram(context.Background(), m, integrators.NewRK4(), "zeta", 0, 1, 3, "R", cfg); !errors.Is(err, dynamo.ErrUnknownParam) {
		t.Errorf("expected ErrUnknownParam, got %v", err)
	}
}

func TestEpidemicThreshold(t *testing.T) {
	tests := []struct {
		name  string
		r0    []float64
		param float64
		ok    bool
	}{
		{"crosses", []float64{0.5, 0.9, 1.2, 1.5}, 2, true},
		{"lands on one", []float64{0.8, 1, 1.4}, 1, true},
		{"starts above", []float64{1.5, 2, 3}, 0, false},
		{"stays below", []float64{0.2, 0.4}, 0, false},
		{"empty", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points := make([]ThresholdPoint, len(tt.r0))
			for i, r := range tt.r0 {
				points[i] = ThresholdPoint{Param: float64(i), R0: r}
			}
			param, ok := EpidemicThreshold(points)
			if ok != tt.ok || param != tt.param {
				t.Errorf("expected %g %v, got %g %v", tt.param, tt.ok, param, ok)
			}
		})
	}
}

func TestPhasePortrait(t *testing.T) {
	result := runSIR(t, models.NewSIR())

	portrait := GeneratePhasePortrait(result, 0, 1)
	if portrait == nil || len(portrait.Points) != len(result.States) {
		t.Fatal("expected one point per sample")
	}
	if GeneratePhasePortrait(result, 0, 7) != nil {
		t.Error("expected nil for out of range index")
	}

	out := PhasePortraitToASCII(portrait, 40, 10)
	if strings.Count(out, "\n") != 10 || !strings.Contains(out, "•") {
		t.Errorf("unexpected portrait:\n%s", out)
	}
}

func TestCrossings(t *testing.T) {
	result := &dynamo.Result{
		Times:  []float64{0, 1, 2, 3, 4},
		States: []dynamo.State{{0}, {4}, {1}, {2}, {6}},
	}
	got := Crossings(result, 0, 3)
	if len(got) != 2 {
		t.Fatalf("expected 2 crossings, got %d", len(got))
	}
	if math.Abs(got[0].Time-0.75) > 1e-12 {
		t.Errorf("expected first crossing at 0.75, got %f", got[0].Time)
	}
	if math.Abs(got[1].Time-3.25) > 1e-12 {
		t.Errorf("expected second crossing at 3.25, got %f", got[1].Time)
	}
}
