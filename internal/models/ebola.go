package models

import "github.com/san-kum/episim/internal/dynamo"

// Ebola is an SEIR model where the dead (D) stay infectious until buried (B).
type Ebola struct {
	switched
	Population float64
	BetaI      float64 // transmission from the living infected
	BetaD      float64 // transmission from unburied bodies
	F          float64 // 1/latent period
	R          float64 // recovery rate
	M          float64 // death rate of the infected
	Mu         float64 // burial rate
}

func NewEbola() *Ebola {
	return &Ebola{
		Population: 1000,
		BetaI:      0.3,
		BetaD:      1,
		F:          1.0 / 6,
		R:          1.0 / 10,
		M:          1.0 / 7.5,
		Mu:         1,
	}
}

// EbolaInterventions are the control measures studied against the baseline,
// each activating after the given day.
var EbolaInterventions = map[string]func(at float64) Intervention{
	"safe_burial": func(at float64) Intervention {
		return Intervention{Name: "safe_burial", At: at, Scale: map[string]float64{"mu": 2}}
	},
	"reduce_contact_bodies": func(at float64) Intervention {
		return Intervention{Name: "reduce_contact_bodies", At: at, Scale: map[string]float64{"beta_d": 0.5}}
	},
	"reduce_contact_infected": func(at float64) Intervention {
		return Intervention{Name: "reduce_contact_infected", At: at, Scale: map[string]float64{"beta_i": 0.5}}
	},
	"all": func(at float64) Intervention {
		return Intervention{Name: "all", At: at, Scale: map[string]float64{"beta_i": 0.5, "beta_d": 0.5, "mu": 2}}
	},
}

func (m *Ebola) StateDim() int { return 6 }
func (m *Ebola) Compartments() []string {
	return []string{"S", "E", "I", "R", "D", "B"}
}

func (m *Ebola) Derive(x dynamo.State, t float64) dynamo.State {
	s, e, i, d := x[0], x[1], x[2], x[4]
	betaI := m.eff("beta_i", m.BetaI, t)
	betaD := m.eff("beta_d", m.BetaD, t)
	f := m.eff("f", m.F, t)
	r := m.eff("r", m.R, t)
	mort := m.eff("m", m.M, t)
	mu := m.eff("mu", m.Mu, t)

	force := (betaI*i + betaD*d) / m.Population
	return dynamo.State{
		-force * s,
		force*s - f*e,
		f*e - (mort+r)*i,
		r * i,
		mort*i - mu*d,
		mu * d,
	}
}

func (m *Ebola) Total(x dynamo.State) float64 { return x.Sum() }

// BasicReproduction counts infections caused while alive and after death.
func (m *Ebola) BasicReproduction() float64 {
	out := m.M + m.R
	if out <= 0 {
		return 0
	}
	return m.BetaI/out + ratio(m.BetaD*m.M, out*m.Mu)
}

func (m *Ebola) Indicators(x dynamo.State, t float64) map[string]float64 {
	return map[string]float64{
		"prevalence":        ratio(x[2], m.Population),
		"cumulative_deaths": ratio(x[4]+x[5], m.Population),
		"unburied":          ratio(x[4], m.Population),
	}
}

func (m *Ebola) DefaultState() dynamo.State {
	x, _ := m.InitialState(nil)
	return x
}

func (m *Ebola) InitialState(overrides map[string]float64) (dynamo.State, error) {
	return seed(m.Compartments(), dynamo.State{0, 0, 1, 0, 0, 0}, overrides, 0, m.Population)
}

func (m *Ebola) fields() map[string]*float64 {
	return map[string]*float64{
		"population": &m.Population,
		"beta_i":     &m.BetaI,
		"beta_d":     &m.BetaD,
		"f":          &m.F,
		"r":          &m.R,
		"m":          &m.M,
		"mu":         &m.Mu,
	}
}

func (m *Ebola) GetParams() map[string]float64 { return params(m.fields()) }

func (m *Ebola) SetParam(name string, v float64) error { return assign(m.fields(), name, v) }
