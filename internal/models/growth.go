package models

import "github.com/san-kum/episim/internal/dynamo"

// PopGrowth is the mean-field limit of the stochastic birth-death process.
type PopGrowth struct {
	switched
	N0        float64
	BirthRate float64
	DeathRate float64
}

func NewPopGrowth() *PopGrowth {
	return &PopGrowth{N0: 20, BirthRate: 0.5, DeathRate: 0.3}
}

func (m *PopGrowth) StateDim() int          { return 1 }
func (m *PopGrowth) Compartments() []string { return []string{"P"} }

func (m *PopGrowth) Derive(x dynamo.State, t float64) dynamo.State {
	b := m.eff("birth_rate", m.BirthRate, t)
	d := m.eff("death_rate", m.DeathRate, t)
	return dynamo.State{(b - d) * x[0]}
}

func (m *PopGrowth) DefaultState() dynamo.State { return dynamo.State{m.N0} }

func (m *PopGrowth) InitialState(overrides map[string]float64) (dynamo.State, error) {
	return seed(m.Compartments(), m.DefaultState(), overrides, -1, 0)
}

func (m *PopGrowth) fields() map[string]*float64 {
	return map[string]*float64{"n0": &m.N0, "birth_rate": &m.BirthRate, "death_rate": &m.DeathRate}
}

func (m *PopGrowth) GetParams() map[string]float64 { return params(m.fields()) }

func (m *PopGrowth) SetParam(name string, v float64) error { return assign(m.fields(), name, v) }
