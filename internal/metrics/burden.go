package metrics

import "github.com/san-kum/episim/internal/dynamo"

// Burden integrates the tracked compartments over time with the trapezoid
// rule, giving person-time spent infected.
type Burden struct {
	name    string
	indices []int
	sum     float64
	lastV   float64
	lastT   float64
	samples int
}

func NewBurden(indices ...int) *Burden {
	return &Burden{
		name:    "burden",
		indices: indices,
	}
}

func (b *Burden) Name() string {
	return b.name
}

func (b *Burden) Observe(x dynamo.State, t float64) {
	v := sumAt(x, b.indices)
	if b.samples > 0 {
		b.sum += 0.5 * (v + b.lastV) * (t - b.lastT)
	}
	b.lastV, b.lastT = v, t
	b.samples++
}

func (b *Burden) Value() float64 {
	return b.sum
}

func (b *Burden) Reset() {
	b.sum = 0
	b.lastV = 0
	b.lastT = 0
	b.samples = 0
}
