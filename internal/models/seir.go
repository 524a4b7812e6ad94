package models

import "github.com/san-kum/episim/internal/dynamo"

// SEIR adds a latent stage left at rate F; infectious individuals recover
// at rate R.
type SEIR struct {
	switched
	Population float64
	Beta       float64
	F          float64
	R          float64
}

// NewSEIR uses an 8 day latent period, a 7 day infectious period and R0=3.25.
func NewSEIR() *SEIR {
	return NewSEIRFromPeriods(3.25, 8, 7, 1000)
}

func NewSEIRFromPeriods(r0, latent, infectious, population float64) *SEIR {
	r := 1 / infectious
	return &SEIR{
		Population: population,
		Beta:       r0 * r,
		F:          1 / latent,
		R:          r,
	}
}

func (m *SEIR) StateDim() int          { return 4 }
func (m *SEIR) Compartments() []string { return []string{"S", "E", "I", "R"} }

func (m *SEIR) Derive(x dynamo.State, t float64) dynamo.State {
	s, e, i := x[0], x[1], x[2]
	beta := m.eff("beta", m.Beta, t)
	f := m.eff("f", m.F, t)
	r := m.eff("r", m.R, t)

	infection := beta * s * i / m.Population
	return dynamo.State{
		-infection,
		infection - f*e,
		f*e - r*i,
		r * i,
	}
}

func (m *SEIR) Total(x dynamo.State) float64 { return x.Sum() }

func (m *SEIR) BasicReproduction() float64 { return ratio(m.Beta, m.R) }

func (m *SEIR) Indicators(x dynamo.State, t float64) map[string]float64 {
	return map[string]float64{
		"prevalence": ratio(x[2], m.Population),
		"exposed":    ratio(x[1], m.Population),
	}
}

func (m *SEIR) DefaultState() dynamo.State {
	x, _ := m.InitialState(nil)
	return x
}

func (m *SEIR) InitialState(overrides map[string]float64) (dynamo.State, error) {
	return seed(m.Compartments(), dynamo.State{0, 0, 1, 0}, overrides, 0, m.Population)
}

func (m *SEIR) fields() map[string]*float64 {
	return map[string]*float64{"population": &m.Population, "beta": &m.Beta, "f": &m.F, "r": &m.R}
}

func (m *SEIR) GetParams() map[string]float64 { return params(m.fields()) }

func (m *SEIR) SetParam(name string, v float64) error { return assign(m.fields(), name, v) }
