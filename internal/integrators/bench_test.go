package integrators

import (
	"testing"

	"github.com/san-kum/episim/internal/dynamo"
)

// benchSixCompartment mimics the cost profile of the larger epidemic models.
type benchSixCompartment struct{}

func (b *benchSixCompartment) StateDim() int { return 6 }
func (b *benchSixCompartment) Compartments() []string {
	return []string{"S", "E", "I", "R", "D", "B"}
}
func (b *benchSixCompartment) Derive(x dynamo.State, t float64) dynamo.State {
	lambda := (0.3*x[2] + x[4]) / 1000
	return dynamo.State{
		-lambda * x[0],
		lambda*x[0] - x[1]/6,
		x[1]/6 - (1/7.5+0.1)*x[2],
		0.1 * x[2],
		x[2]/7.5 - x[4],
		x[4],
	}
}

func BenchmarkEuler(b *testing.B) {
	integrator := NewEuler()
	sys := &benchSixCompartment{}
	x := dynamo.State{999, 0, 1, 0, 0, 0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(sys, x, 0, 0.01)
	}
}

func BenchmarkRK4(b *testing.B) {
	integrator := NewRK4()
	sys := &benchSixCompartment{}
	x := dynamo.State{999, 0, 1, 0, 0, 0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(sys, x, 0, 0.01)
	}
}

func BenchmarkRK45(b *testing.B) {
	integrator := NewRK45()
	sys := &benchSixCompartment{}
	x := dynamo.State{999, 0, 1, 0, 0, 0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(sys, x, 0, 0.01)
	}
}
