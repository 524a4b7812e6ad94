package models

import "github.com/san-kum/episim/internal/dynamo"

// HIV is a homogeneous-mixing model with recruitment into S, background
// mortality m and AIDS-specific mortality mu. Time is in months.
type HIV struct {
	switched
	Population float64
	C          float64 // partner change rate
	Beta       float64 // per-partnership transmission probability
	Gamma      float64 // progression to AIDS
	Mu         float64
	M          float64
	Alpha      float64 // recruitment per capita
}

func NewHIV() *HIV {
	return &HIV{
		Population: 10000,
		C:          3,
		Beta:       0.05,
		Gamma:      1.0 / 9,
		Mu:         1,
		M:          1.0 / 35,
		Alpha:      0.025,
	}
}

func (m *HIV) StateDim() int          { return 3 }
func (m *HIV) Compartments() []string { return []string{"S", "I", "A"} }

func (m *HIV) force(x dynamo.State, t float64) float64 {
	c := m.eff("c", m.C, t)
	beta := m.eff("beta", m.Beta, t)
	return c * beta * ratio(x[1], x[0]+x[1])
}

func (m *HIV) Derive(x dynamo.State, t float64) dynamo.State {
	s, i, a := x[0], x[1], x[2]
	gamma := m.eff("gamma", m.Gamma, t)
	mu := m.eff("mu", m.Mu, t)
	mort := m.eff("m", m.M, t)
	alpha := m.eff("alpha", m.Alpha, t)

	lambda := m.force(x, t)
	return dynamo.State{
		alpha*m.Population - lambda*s - mort*s,
		lambda*s - (gamma+mort)*i,
		gamma*i - (mu+mort)*a,
	}
}

func (m *HIV) BasicReproduction() float64 { return ratio(m.C*m.Beta, m.Gamma+m.M) }

func (m *HIV) Indicators(x dynamo.State, t float64) map[string]float64 {
	return map[string]float64{
		"prevalence": ratio(x[1]+x[2], m.Population),
		"incidence":  ratio(m.force(x, t)*x[0], m.Population),
	}
}

func (m *HIV) DefaultState() dynamo.State {
	x, _ := m.InitialState(nil)
	return x
}

func (m *HIV) InitialState(overrides map[string]float64) (dynamo.State, error) {
	return seed(m.Compartments(), dynamo.State{0, 1, 0}, overrides, 0, m.Population)
}

func (m *HIV) fields() map[string]*float64 {
	return map[string]*float64{
		"population": &m.Population,
		"c":          &m.C,
		"beta":       &m.Beta,
		"gamma":      &m.Gamma,
		"mu":         &m.Mu,
		"m":          &m.M,
		"alpha":      &m.Alpha,
	}
}

func (m *HIV) GetParams() map[string]float64 { return params(m.fields()) }

func (m *HIV) SetParam(name string, v float64) error { return assign(m.fields(), name, v) }
