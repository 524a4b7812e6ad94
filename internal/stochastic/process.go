package stochastic

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/san-kum/episim/internal/dynamo"
)

var ErrInvalidProcess = errors.New("stochastic: invalid process")

// Process advances an integer population by one step of length dt.
// Step must not mutate x and must be safe for concurrent use.
type Process interface {
	Name() string
	Compartments() []string
	Initial() []int64
	Validate() error
	Step(src rand.Source, x []int64, t, dt float64) []int64
}

// PopGrowth is a pure birth process: every individual gives birth with
// probability BirthRate each step.
type PopGrowth struct {
	N0        float64
	BirthRate float64
}

func NewPopGrowth() *PopGrowth {
	return &PopGrowth{N0: 1, BirthRate: 0.5}
}

func (p *PopGrowth) Name() string           { return "pop_growth" }
func (p *PopGrowth) Compartments() []string { return []string{"P"} }
func (p *PopGrowth) Initial() []int64       { return []int64{int64(p.N0)} }

func (p *PopGrowth) Validate() error {
	if p.BirthRate > 1 {
		return fmt.Errorf("%w: birth_rate %g is a per-step probability", ErrInvalidProcess, p.BirthRate)
	}
	return nil
}

func (p *PopGrowth) Step(src rand.Source, x []int64, t, dt float64) []int64 {
	births := Binomial(src, x[0], p.BirthRate)
	return []int64{x[0] + births}
}

func (p *PopGrowth) fields() map[string]*float64 {
	return map[string]*float64{"n0": &p.N0, "birth_rate": &p.BirthRate}
}

func (p *PopGrowth) GetParams() map[string]float64        { return params(p.fields()) }
func (p *PopGrowth) SetParam(name string, v float64) error { return assign(p.fields(), name, v) }

// PopGrowthDeath lets every individual act with probability b+d per step;
// acting individuals give birth or die in proportion b:d.
type PopGrowthDeath struct {
	N0        float64
	BirthRate float64
	DeathRate float64
}

func NewPopGrowthDeath() *PopGrowthDeath {
	return &PopGrowthDeath{N0: 20, BirthRate: 0.5, DeathRate: 0.3}
}

func (p *PopGrowthDeath) Name() string           { return "pop_growth_death" }
func (p *PopGrowthDeath) Compartments() []string { return []string{"P"} }
func (p *PopGrowthDeath) Initial() []int64       { return []int64{int64(p.N0)} }

func (p *PopGrowthDeath) Validate() error {
	if p.BirthRate+p.DeathRate > 1 {
		return fmt.Errorf("%w: birth_rate+death_rate=%g exceeds 1", ErrInvalidProcess, p.BirthRate+p.DeathRate)
	}
	return nil
}

func (p *PopGrowthDeath) Step(src rand.Source, x []int64, t, dt float64) []int64 {
	rate := p.BirthRate + p.DeathRate
	events := Binomial(src, x[0], rate)
	if events == 0 {
		return []int64{x[0]}
	}
	split, err := Multinomial(src, events, []float64{p.BirthRate / rate, p.DeathRate / rate})
	if err != nil {
		return []int64{x[0]}
	}
	return []int64{x[0] + split[0] - split[1]}
}

func (p *PopGrowthDeath) fields() map[string]*float64 {
	return map[string]*float64{"n0": &p.N0, "birth_rate": &p.BirthRate, "death_rate": &p.DeathRate}
}

func (p *PopGrowthDeath) GetParams() map[string]float64        { return params(p.fields()) }
func (p *PopGrowthDeath) SetParam(name string, v float64) error { return assign(p.fields(), name, v) }

// SIR is the chain binomial epidemic. Iota adds external infection pressure
// and Y counts cumulative infections.
type SIR struct {
	Beta       float64
	Gamma      float64
	Iota       float64
	Population float64
	I0         float64
}

func NewSIR() *SIR {
	return &SIR{Beta: 0.1, Gamma: 0.05, Iota: 0.01, Population: 1000, I0: 1}
}

func (p *SIR) Name() string           { return "sir" }
func (p *SIR) Compartments() []string { return []string{"S", "I", "R", "Y"} }

func (p *SIR) Initial() []int64 {
	i0 := int64(p.I0)
	return []int64{int64(p.Population) - i0, i0, 0, 0}
}

func (p *SIR) Validate() error {
	if p.Population <= 0 {
		return fmt.Errorf("%w: population must be positive", ErrInvalidProcess)
	}
	if p.I0 > p.Population {
		return fmt.Errorf("%w: i0 %g exceeds population %g", ErrInvalidProcess, p.I0, p.Population)
	}
	return nil
}

func (p *SIR) Step(src rand.Source, x []int64, t, dt float64) []int64 {
	s, i, r, y := x[0], x[1], x[2], x[3]

	lambda := p.Beta * (float64(i) + p.Iota) / p.Population
	ifrac := 1 - math.Exp(-lambda*dt)
	rfrac := 1 - math.Exp(-p.Gamma*dt)

	infection := Binomial(src, s, ifrac)
	recovery := Binomial(src, i, rfrac)
	return []int64{s - infection, i + infection - recovery, r + recovery, y + infection}
}

func (p *SIR) fields() map[string]*float64 {
	return map[string]*float64{
		"beta":       &p.Beta,
		"gamma":      &p.Gamma,
		"iota":       &p.Iota,
		"population": &p.Population,
		"i0":         &p.I0,
	}
}

func (p *SIR) GetParams() map[string]float64        { return params(p.fields()) }
func (p *SIR) SetParam(name string, v float64) error { return assign(p.fields(), name, v) }

func params(fields map[string]*float64) map[string]float64 {
	out := make(map[string]float64, len(fields))
	for name, p := range fields {
		out[name] = *p
	}
	return out
}

func assign(fields map[string]*float64, name string, v float64) error {
	p, ok := fields[name]
	if !ok {
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s=%g", dynamo.ErrParameterBounds, name, v)
	}
	*p = v
	return nil
}
