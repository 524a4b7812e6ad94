package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/episim/internal/dynamo"
)

// logistic is dI/dt = r I (1 - I/K), with a closed form solution.
type logistic struct{ r, k float64 }

func (l *logistic) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{l.r * x[0] * (1 - x[0]/l.k)}
}

func (l *logistic) StateDim() int          { return 1 }
func (l *logistic) Compartments() []string { return []string{"I"} }

func (l *logistic) exact(i0, t float64) float64 {
	return l.k / (1 + (l.k-i0)/i0*math.Exp(-l.r*t))
}

func TestRK4Accuracy(t *testing.T) {
	sys := &logistic{r: 0.5, k: 1000}
	integ := NewRK4()

	x := dynamo.State{1.0}
	dt := 0.1
	steps := 300

	for i := 0; i < steps; i++ {
		x = integ.Step(sys, x, float64(i)*dt, dt)
	}

	expected := sys.exact(1.0, float64(steps)*dt)
	if math.Abs(x[0]-expected)/expected > 1e-5 {
		t.Errorf("relative error too large: got %.6f, expected %.6f", x[0], expected)
	}
}

func TestEulerFirstOrder(t *testing.T) {
	sys := &logistic{r: 0.5, k: 1000}
	expected := sys.exact(1.0, 10)

	errAt := func(dt float64) float64 {
		integ := NewEuler()
		x := dynamo.State{1.0}
		n := int(math.Round(10 / dt))
		for i := 0; i < n; i++ {
			x = integ.Step(sys, x, float64(i)*dt, dt)
		}
		return math.Abs(x[0] - expected)
	}

	coarse, fine := errAt(0.01), errAt(0.005)
	ratio := coarse / fine
	if ratio < 1.7 || ratio > 2.3 {
		t.Errorf("expected error ratio ~2 for a first order method, got %.3f", ratio)
	}
}
