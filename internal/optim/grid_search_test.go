package optim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/episim/internal/config"
	"github.com/san-kum/episim/internal/experiment"
)

func builder(reg *experiment.Registry, base *config.Config) func(map[string]float64) (*experiment.Experiment, error) {
	return func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := base.Clone()
		if cfg.Params == nil {
			cfg.Params = make(map[string]float64)
		}
		for k, v := range params {
			cfg.Params[k] = v
		}
		return experiment.New(cfg, reg, nil), nil
	}
}

func TestGridSearchMinimisesPeak(t *testing.T) {
	reg := experiment.NewRegistry()
	g := NewGridSearch(
		[]string{"beta", "gamma"},
		[][]float64{Linspace(0.2, 0.4, 3), {0.1, 0.2}},
	)
	if g.Size() != 6 {
		t.Errorf("expected 6 grid points, got %d", g.Size())
	}

	params, best, err := g.Search(context.Background(), builder(reg, config.GetPreset("sir")), "peak_prevalence")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params["beta"] != 0.2 || params["gamma"] != 0.2 {
		t.Errorf("expected lowest R0 corner beta=0.2 gamma=0.2, got %v", params)
	}
	if best <= 0 || best >= 1 {
		t.Errorf("expected prevalence fraction in (0, 1), got %f", best)
	}
}

func TestGridSearchSummaryObjective(t *testing.T) {
	reg := experiment.NewRegistry()
	g := NewGridSearch([]string{"beta"}, [][]float64{{0.3, 0.25}})

	params, best, err := g.Search(context.Background(), builder(reg, config.GetPreset("sir")), "r0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params["beta"] != 0.25 || math.Abs(best-2.5) > 1e-9 {
		t.Errorf("expected beta 0.25 with R0 2.5, got %v %f", params, best)
	}
}

func TestGridSearchErrors(t *testing.T) {
	reg := experiment.NewRegistry()
	ctx := context.Background()

	if _, _, err := NewGridSearch(nil, nil).Search(ctx, builder(reg, config.GetPreset("sir")), "r0"); !errors.Is(err, ErrEmptyGrid) {
		t.Errorf("expected ErrEmptyGrid, got %v", err)
	}

	g := NewGridSearch([]string{"beta"}, [][]float64{{0.2}})
	if _, _, err := g.Search(ctx, builder(reg, config.GetPreset("sir")), "nope"); !errors.Is(err, ErrNoObjective) {
		t.Errorf("expected ErrNoObjective, got %v", err)
	}

	bad := NewGridSearch([]string{"nope"}, [][]float64{{1}})
	if _, _, err := bad.Search(ctx, builder(reg, config.GetPreset("sir")), "r0"); err == nil {
		t.Error("expected error for unknown parameter")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, _, err := g.Search(cancelled, builder(reg, config.GetPreset("sir")), "r0"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLinspace(t *testing.T) {
	got := Linspace(0, 1, 5)
	if len(got) != 5 || got[1] != 0.25 || got[4] != 1 {
		t.Errorf("expected quarter steps, got %v", got)
	}
	if got := Linspace(3, 9, 1); len(got) != 1 || got[0] != 3 {
		t.Errorf("expected single min value, got %v", got)
	}
}
