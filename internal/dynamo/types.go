package dynamo

import (
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Sum returns the total over all compartments.
func (s State) Sum() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v
	}
	return sum
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// System is a continuous-time compartmental model dX/dt = f(X, t).
type System interface {
	Derive(x State, t float64) State
	StateDim() int
	Compartments() []string
}

// Conserved is implemented by closed populations whose total is invariant.
type Conserved interface {
	Total(x State) float64
}

type Integrator interface {
	Step(sys System, x State, t float64, dt float64) State
}

type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(sys System, x State, t, dt, tol float64) (State, float64, error)
}

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, t float64)
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

type Config struct {
	Dt            float64
	Duration      float64
	Points        int
	Seed          int64
	Tolerance     float64
	MaxDt         float64
	MinDt         float64
	Adaptive      bool
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.1,
		Duration:      160.0,
		Tolerance:     1e-6,
		MaxDt:         1.0,
		MinDt:         1e-8,
		Adaptive:      false,
		ValidateState: true,
	}
}

type Result struct {
	States          []State
	Times           []float64
	Compartments    []string
	Metrics         map[string]float64
	PopulationDrift float64
	StepsTaken      int
	Errors          []error
}

// Series extracts the trajectory of compartment i.
func (r *Result) Series(i int) []float64 {
	out := make([]float64, len(r.States))
	for k, s := range r.States {
		if i < len(s) {
			out[k] = s[i]
		}
	}
	return out
}

// Index returns the position of a named compartment, or -1.
func (r *Result) Index(name string) int {
	for i, c := range r.Compartments {
		if c == name {
			return i
		}
	}
	return -1
}

func (r *Result) Final() State {
	if len(r.States) == 0 {
		return nil
	}
	return r.States[len(r.States)-1]
}

type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}
