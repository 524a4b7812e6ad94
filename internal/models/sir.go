package models

import "github.com/san-kum/episim/internal/dynamo"

type SIR struct {
	switched
	Population float64
	Beta       float64
	Gamma      float64
}

func NewSIR() *SIR {
	return &SIR{Population: 1000, Beta: 0.2, Gamma: 0.1}
}

func (m *SIR) StateDim() int          { return 3 }
func (m *SIR) Compartments() []string { return []string{"S", "I", "R"} }

// Derive evaluates S' = -bSI/N, I' = bSI/N - gI, R' = gI.
func (m *SIR) Derive(x dynamo.State, t float64) dynamo.State {
	s, i := x[0], x[1]
	beta := m.eff("beta", m.Beta, t)
	gamma := m.eff("gamma", m.Gamma, t)

	infection := beta * s * i / m.Population
	recovery := gamma * i
	return dynamo.State{-infection, infection - recovery, recovery}
}

func (m *SIR) Total(x dynamo.State) float64 { return x.Sum() }

func (m *SIR) BasicReproduction() float64 { return ratio(m.Beta, m.Gamma) }

func (m *SIR) Indicators(x dynamo.State, t float64) map[string]float64 {
	beta := m.eff("beta", m.Beta, t)
	return map[string]float64{
		"prevalence": ratio(x[1], m.Population),
		"incidence":  ratio(beta*x[0]*x[1]/m.Population, m.Population),
	}
}

func (m *SIR) DefaultState() dynamo.State {
	x, _ := m.InitialState(nil)
	return x
}

func (m *SIR) InitialState(overrides map[string]float64) (dynamo.State, error) {
	return seed(m.Compartments(), dynamo.State{0, 1, 0}, overrides, 0, m.Population)
}

func (m *SIR) fields() map[string]*float64 {
	return map[string]*float64{"population": &m.Population, "beta": &m.Beta, "gamma": &m.Gamma}
}

func (m *SIR) GetParams() map[string]float64 { return params(m.fields()) }

func (m *SIR) SetParam(name string, v float64) error { return assign(m.fields(), name, v) }
