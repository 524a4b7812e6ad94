package dynamo

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

type Simulator struct {
	sys        System
	integrator Integrator
	metrics    []Metric
	observers  []Observer
}

func New(sys System, integrator Integrator) *Simulator {
	return &Simulator{
		sys:        sys,
		integrator: integrator,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Grid returns the output sample times. With points > 1 the grid is
// linspace(0, duration, points), endpoints included; otherwise it holds one
// sample every dt.
func Grid(duration float64, points int, dt float64) []float64 {
	if points > 1 {
		return floats.Span(make([]float64, points), 0, duration)
	}
	steps := int(math.Round(duration / dt))
	if steps < 1 {
		steps = 1
	}
	grid := make([]float64, steps+1)
	for k := range grid {
		grid[k] = float64(k) * dt
	}
	return grid
}

// Run integrates the system from x0 and records the state at every grid time.
func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(x0) != s.sys.StateDim() {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrDimensionMismatch, len(x0), s.sys.StateDim())
	}

	grid := Grid(cfg.Duration, cfg.Points, cfg.Dt)
	result := &Result{
		States:       make([]State, 0, len(grid)),
		Times:        make([]float64, 0, len(grid)),
		Compartments: s.sys.Compartments(),
		Metrics:      make(map[string]float64),
		Errors:       make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	s.record(result, x, grid[0])
	initialTotal := s.total(x)

	h := cfg.Dt
	for k := 1; k < len(grid); k++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		var (
			steps   int
			stepErr error
		)
		if cfg.Adaptive {
			x, h, steps, stepErr = s.advanceAdaptive(x, grid[k-1], grid[k], h, cfg)
		} else {
			x, steps = s.advanceFixed(x, grid[k-1], grid[k], cfg.Dt)
		}
		result.StepsTaken += steps

		if stepErr != nil {
			result.Errors = append(result.Errors, &SimulationError{Step: k, Time: grid[k-1], State: x.Clone(), Wrapped: stepErr})
			break
		}
		if cfg.ValidateState && !x.IsValid() {
			result.Errors = append(result.Errors, &SimulationError{Step: k, Time: grid[k], State: x.Clone(), Wrapped: ErrInvalidState})
			break
		}

		s.record(result, x, grid[k])
	}

	if initialTotal != 0 {
		result.PopulationDrift = math.Abs(s.total(x)-initialTotal) / math.Abs(initialTotal)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func (s *Simulator) record(result *Result, x State, t float64) {
	for _, m := range s.metrics {
		m.Observe(x, t)
	}
	for _, obs := range s.observers {
		obs.OnStep(x, t)
	}
	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %f", ErrInvalidConfig, cfg.Duration)
	}
	if cfg.Points < 0 {
		return fmt.Errorf("%w: points must not be negative, got %d", ErrInvalidConfig, cfg.Points)
	}
	if cfg.Adaptive && cfg.Tolerance <= 0 {
		return fmt.Errorf("%w: tolerance must be positive for adaptive stepping", ErrInvalidConfig)
	}
	return nil
}

func (s *Simulator) total(x State) float64 {
	if c, ok := s.sys.(Conserved); ok {
		return c.Total(x)
	}
	return 0
}

// advanceFixed covers [t0, t1] with equal sub-steps no larger than dt.
func (s *Simulator) advanceFixed(x State, t0, t1, dt float64) (State, int) {
	n := int(math.Ceil((t1-t0)/dt - 1e-6))
	if n < 1 {
		n = 1
	}
	h := (t1 - t0) / float64(n)
	t := t0
	for i := 0; i < n; i++ {
		x = s.integrator.Step(s.sys, x, t, h)
		t += h
	}
	return x, n
}

func (s *Simulator) advanceAdaptive(x State, t0, t1, h float64, cfg Config) (State, float64, int, error) {
	steps := 0
	t := t0
	for t1-t > 1e-12*math.Max(1, math.Abs(t1)) {
		step := math.Min(h, t1-t)
		if cfg.MaxDt > 0 {
			step = math.Min(step, cfg.MaxDt)
		}

		next, hNext, err := s.tryStep(x, t, step, cfg)
		if errors.Is(err, ErrStepRejected) {
			h = hNext
			if h < cfg.MinDt {
				return x, h, steps, ErrStepTooSmall
			}
			continue
		}
		if err != nil {
			return x, h, steps, err
		}

		// a step shortened to land on t1 says little about the natural step size
		truncated := step < h
		x = next
		t += step
		steps++
		if !truncated || hNext < h {
			h = hNext
		}
	}
	return x, h, steps, nil
}

func (s *Simulator) tryStep(x State, t, dt float64, cfg Config) (State, float64, error) {
	if adaptive, ok := s.integrator.(AdaptiveIntegrator); ok {
		return adaptive.StepAdaptive(s.sys, x, t, dt, cfg.Tolerance)
	}

	// step doubling for fixed-step integrators
	x1 := s.integrator.Step(s.sys, x, t, dt)
	xHalf := s.integrator.Step(s.sys, x, t, dt/2)
	x2 := s.integrator.Step(s.sys, xHalf, t+dt/2, dt/2)

	err := x1.Sub(x2).Norm() / (1 + x2.Norm())
	if err > cfg.Tolerance {
		return nil, dt / 2, ErrStepRejected
	}

	next := dt
	if err < cfg.Tolerance/10 {
		next = dt * 2
		if cfg.MaxDt > 0 {
			next = math.Min(next, cfg.MaxDt)
		}
	}
	return x2, next, nil
}
