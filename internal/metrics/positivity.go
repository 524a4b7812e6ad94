package metrics

import "github.com/san-kum/episim/internal/dynamo"

// Positivity is the fraction of samples in which no compartment fell below
// -tolerance.
type Positivity struct {
	name       string
	tolerance  float64
	violations int
	samples    int
}

func NewPositivity(tolerance float64) *Positivity {
	return &Positivity{
		name:      "positivity",
		tolerance: tolerance,
	}
}

func (p *Positivity) Name() string {
	return p.name
}

func (p *Positivity) Observe(x dynamo.State, t float64) {
	p.samples++
	for _, val := range x {
		if val < -p.tolerance {
			p.violations++
			break
		}
	}
}

func (p *Positivity) Value() float64 {
	if p.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(p.violations)/float64(p.samples)
}

func (p *Positivity) Reset() {
	p.violations = 0
	p.samples = 0
}
