package metrics

import (
	"math"

	"github.com/san-kum/episim/internal/dynamo"
)

// PeakPrevalence is the largest fraction of the population held by the
// tracked compartments at any sample.
type PeakPrevalence struct {
	name       string
	indices    []int
	population float64
	peak       float64
	peakTime   float64
	samples    int
}

func NewPeakPrevalence(population float64, indices ...int) *PeakPrevalence {
	return &PeakPrevalence{
		name:       "peak_prevalence",
		indices:    indices,
		population: population,
	}
}

func (p *PeakPrevalence) Name() string { return p.name }

func (p *PeakPrevalence) Observe(x dynamo.State, t float64) {
	v := sumAt(x, p.indices)
	if p.population > 0 {
		v /= p.population
	}
	if p.samples == 0 || v > p.peak {
		p.peak = v
		p.peakTime = t
	}
	p.samples++
}

func (p *PeakPrevalence) Value() float64 { return p.peak }

func (p *PeakPrevalence) Reset() {
	p.peak = 0
	p.peakTime = 0
	p.samples = 0
}

// PeakTime reports when the tracked compartments peak.
type PeakTime struct {
	PeakPrevalence
}

func NewPeakTime(indices ...int) *PeakTime {
	pt := &PeakTime{PeakPrevalence: *NewPeakPrevalence(1, indices...)}
	pt.name = "peak_time"
	return pt
}

func (p *PeakTime) Value() float64 { return p.peakTime }

// FinalFraction is the share of the population in the tracked compartments
// at the last sample.
type FinalFraction struct {
	name       string
	indices    []int
	population float64
	last       float64
}

func NewFinalFraction(name string, population float64, indices ...int) *FinalFraction {
	return &FinalFraction{
		name:       name,
		indices:    indices,
		population: population,
	}
}

func (f *FinalFraction) Name() string { return f.name }

func (f *FinalFraction) Observe(x dynamo.State, t float64) {
	f.last = sumAt(x, f.indices)
	if f.population > 0 {
		f.last /= f.population
	}
}

func (f *FinalFraction) Value() float64 { return f.last }
func (f *FinalFraction) Reset()         { f.last = 0 }

// PopulationDrift tracks the largest relative deviation of a closed
// population's total from its initial value.
type PopulationDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
	sys      dynamo.System
}

func NewPopulationDrift(sys dynamo.System) *PopulationDrift {
	return &PopulationDrift{
		name: "population_drift",
		sys:  sys,
	}
}

func (d *PopulationDrift) Name() string { return d.name }

func (d *PopulationDrift) Observe(x dynamo.State, t float64) {
	c, ok := d.sys.(dynamo.Conserved)
	if !ok {
		return
	}

	total := c.Total(x)
	if d.samples == 0 {
		d.initial = total
	}
	d.samples++

	if d.initial != 0 {
		drift := math.Abs(total-d.initial) / math.Abs(d.initial)
		d.maxDrift = math.Max(d.maxDrift, drift)
	}
}

func (d *PopulationDrift) Value() float64 { return d.maxDrift }

func (d *PopulationDrift) Reset() {
	d.initial = 0
	d.maxDrift = 0
	d.samples = 0
}

func sumAt(x dynamo.State, indices []int) float64 {
	if len(indices) == 0 {
		return x.Sum()
	}
	total := 0.0
	for _, i := range indices {
		if i >= 0 && i < len(x) {
			total += x[i]
		}
	}
	return total
}
