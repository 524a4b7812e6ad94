package models

import (
	"fmt"

	"github.com/san-kum/episim/internal/dynamo"
)

// HIVHeterogeneous splits the population into a high and a low activity
// group that mix proportionately to their partner change rates. Compartments
// are ordered SH, SL, IH, IL, AH, AL, DH, DL.
type HIVHeterogeneous struct {
	switched
	Population float64
	CHigh      float64
	CLow       float64
	NewHigh    float64 // share of recruits entering the high activity group
	Alpha      float64
	Beta       float64
	Gamma      float64
	Mu         float64
	M          float64
}

const (
	sh = iota
	sl
	ih
	il
	ah
	al
	dh
	dl
)

func NewHIVHeterogeneous() *HIVHeterogeneous {
	return &HIVHeterogeneous{
		Population: 10000,
		CHigh:      8.0 / 12,
		CLow:       0.2 / 12,
		NewHigh:    0.15,
		Alpha:      0.025 / 12,
		Beta:       0.05,
		Gamma:      1.0 / 108,
		Mu:         1.0 / 12,
		M:          1.0 / 420,
	}
}

func (m *HIVHeterogeneous) StateDim() int { return 8 }
func (m *HIVHeterogeneous) Compartments() []string {
	return []string{"SH", "SL", "IH", "IL", "AH", "AL", "DH", "DL"}
}

// mixing is the probability that a random partnership is with an infected
// person, weighting each group by its contact rate.
func (m *HIVHeterogeneous) mixing(x dynamo.State, cH, cL float64) float64 {
	return ratio(cH*x[ih]+cL*x[il], cH*(x[sh]+x[ih])+cL*(x[sl]+x[il]))
}

func (m *HIVHeterogeneous) Derive(x dynamo.State, t float64) dynamo.State {
	cH := m.eff("c_high", m.CHigh, t)
	cL := m.eff("c_low", m.CLow, t)
	newH := m.eff("new_high", m.NewHigh, t)
	alpha := m.eff("alpha", m.Alpha, t)
	beta := m.eff("beta", m.Beta, t)
	gamma := m.eff("gamma", m.Gamma, t)
	mu := m.eff("mu", m.Mu, t)
	mort := m.eff("m", m.M, t)

	rho := m.mixing(x, cH, cL)
	lamH := cH * beta * rho
	lamL := cL * beta * rho
	recruits := alpha * m.Population

	dx := make(dynamo.State, 8)
	dx[sh] = recruits*newH - lamH*x[sh] - mort*x[sh]
	dx[sl] = recruits*(1-newH) - lamL*x[sl] - mort*x[sl]
	dx[ih] = lamH*x[sh] - (gamma+mort)*x[ih]
	dx[il] = lamL*x[sl] - (gamma+mort)*x[il]
	dx[ah] = gamma*x[ih] - (mu+mort)*x[ah]
	dx[al] = gamma*x[il] - (mu+mort)*x[al]
	dx[dh] = mu * x[ah]
	dx[dl] = mu * x[al]
	return dx
}

// Indicators report prevalence as the living infected over the living.
func (m *HIVHeterogeneous) Indicators(x dynamo.State, t float64) map[string]float64 {
	high := x[ih] + x[ah]
	low := x[il] + x[al]
	aliveH := x[sh] + high
	aliveL := x[sl] + low
	return map[string]float64{
		"prevalence":      ratio(high+low, aliveH+aliveL),
		"prevalence_high": ratio(high, aliveH),
		"prevalence_low":  ratio(low, aliveL),
	}
}

func (m *HIVHeterogeneous) DefaultState() dynamo.State {
	x, _ := m.InitialState(nil)
	return x
}

// InitialState places one infected in the high activity group. Susceptible
// groups that are not overridden take what the infected leave of their
// group's share NewHigh*N and (1-NewHigh)*N.
func (m *HIVHeterogeneous) InitialState(overrides map[string]float64) (dynamo.State, error) {
	base := make(dynamo.State, 8)
	base[ih] = 1
	x, err := seed(m.Compartments(), base, overrides, -1, m.Population)
	if err != nil {
		return nil, err
	}

	highShare := m.NewHigh * m.Population
	if _, ok := overrides["SH"]; !ok {
		x[sh] = highShare - x[ih] - x[ah] - x[dh]
	}
	if _, ok := overrides["SL"]; !ok {
		x[sl] = m.Population - highShare - x[il] - x[al] - x[dl]
	}
	if x[sh] < 0 || x[sl] < 0 {
		return nil, fmt.Errorf("%w: seeded infections exceed group size", dynamo.ErrParameterBounds)
	}
	return x, nil
}

func (m *HIVHeterogeneous) fields() map[string]*float64 {
	return map[string]*float64{
		"population": &m.Population,
		"c_high":     &m.CHigh,
		"c_low":      &m.CLow,
		"new_high":   &m.NewHigh,
		"alpha":      &m.Alpha,
		"beta":       &m.Beta,
		"gamma":      &m.Gamma,
		"mu":         &m.Mu,
		"m":          &m.M,
	}
}

func (m *HIVHeterogeneous) GetParams() map[string]float64 { return params(m.fields()) }

func (m *HIVHeterogeneous) SetParam(name string, v float64) error {
	if name == "new_high" && v > 1 {
		return fmt.Errorf("%w: new_high=%g is a share", dynamo.ErrParameterBounds, v)
	}
	return assign(m.fields(), name, v)
}
