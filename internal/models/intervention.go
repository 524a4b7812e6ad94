package models

import (
	"fmt"

	"github.com/san-kum/episim/internal/dynamo"
)

// Intervention multiplies named parameters by fixed factors for every t > At.
type Intervention struct {
	Name  string
	At    float64
	Scale map[string]float64
}

func (iv Intervention) Active(t float64) bool { return t > iv.At }

type Schedule []Intervention

// Factor is the product of the factors all active interventions apply to param.
func (s Schedule) Factor(param string, t float64) float64 {
	f := 1.0
	for _, iv := range s {
		if !iv.Active(t) {
			continue
		}
		if k, ok := iv.Scale[param]; ok {
			f *= k
		}
	}
	return f
}

// Validate checks that every scaled parameter is one the model defines.
func (s Schedule) Validate(params map[string]float64) error {
	for _, iv := range s {
		for name, k := range iv.Scale {
			if _, ok := params[name]; !ok {
				return fmt.Errorf("intervention %q: %w: %s", iv.Name, dynamo.ErrUnknownParam, name)
			}
			if k < 0 {
				return fmt.Errorf("intervention %q: %w: factor %g", iv.Name, dynamo.ErrParameterBounds, k)
			}
		}
	}
	return nil
}

type switched struct {
	schedule Schedule
}

func (s *switched) SetInterventions(sc Schedule) { s.schedule = sc }
func (s *switched) Interventions() Schedule      { return s.schedule }

func (s *switched) eff(name string, v, t float64) float64 {
	if len(s.schedule) == 0 {
		return v
	}
	return v * s.schedule.Factor(name, t)
}
