package models

import "github.com/san-kum/episim/internal/dynamo"

// Gonorrhea is an SIS model without immunity driven by a partnership rate.
type Gonorrhea struct {
	switched
	Population float64
	Beta       float64 // transmission per partnership
	PartRate   float64
	Rec        float64
}

func NewGonorrhea() *Gonorrhea {
	return &Gonorrhea{Population: 1000, Beta: 0.5, PartRate: 2, Rec: 0.5}
}

func (m *Gonorrhea) StateDim() int          { return 2 }
func (m *Gonorrhea) Compartments() []string { return []string{"S", "I"} }

func (m *Gonorrhea) Derive(x dynamo.State, t float64) dynamo.State {
	s, i := x[0], x[1]
	beta := m.eff("beta", m.Beta, t)
	p := m.eff("part_rate", m.PartRate, t)
	rec := m.eff("rec", m.Rec, t)

	infection := p * beta * i * s / m.Population
	recovery := rec * i
	return dynamo.State{recovery - infection, infection - recovery}
}

func (m *Gonorrhea) Total(x dynamo.State) float64 { return x.Sum() }

func (m *Gonorrhea) BasicReproduction() float64 { return ratio(m.PartRate*m.Beta, m.Rec) }

// Endemic is the equilibrium prevalence 1 - 1/R0, or 0 below threshold.
func (m *Gonorrhea) Endemic() float64 {
	return endemic(m.BasicReproduction())
}

func endemic(r0 float64) float64 {
	if r0 <= 1 {
		return 0
	}
	return 1 - 1/r0
}

// Indicators report prevalence next to the equilibrium it tends to under the
// parameters in force at t.
func (m *Gonorrhea) Indicators(x dynamo.State, t float64) map[string]float64 {
	r0 := ratio(m.eff("part_rate", m.PartRate, t)*m.eff("beta", m.Beta, t), m.eff("rec", m.Rec, t))
	return map[string]float64{
		"prevalence": ratio(x[1], m.Population),
		"endemic":    endemic(r0),
	}
}

func (m *Gonorrhea) DefaultState() dynamo.State {
	x, _ := m.InitialState(nil)
	return x
}

func (m *Gonorrhea) InitialState(overrides map[string]float64) (dynamo.State, error) {
	return seed(m.Compartments(), dynamo.State{0, 1}, overrides, 0, m.Population)
}

func (m *Gonorrhea) fields() map[string]*float64 {
	return map[string]*float64{
		"population": &m.Population,
		"beta":       &m.Beta,
		"part_rate":  &m.PartRate,
		"rec":        &m.Rec,
	}
}

func (m *Gonorrhea) GetParams() map[string]float64 { return params(m.fields()) }

func (m *Gonorrhea) SetParam(name string, v float64) error { return assign(m.fields(), name, v) }
