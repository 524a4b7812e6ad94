package config

import (
	"fmt"
	"maps"
	"os"
	"regexp"

	"github.com/san-kum/episim/internal/dynamo"
	"gopkg.in/yaml.v3"
)

const (
	KindODE        = "ode"
	KindStochastic = "stochastic"

	DefaultDt        = 0.1
	DefaultDuration  = 160.0
	DefaultTolerance = 1e-6
)

type Config struct {
	Name          string               `yaml:"name,omitempty"`
	Model         string               `yaml:"model"`
	Kind          string               `yaml:"kind,omitempty"`
	Integrator    string               `yaml:"integrator,omitempty"`
	Dt            float64              `yaml:"dt"`
	Duration      float64              `yaml:"duration"`
	Points        int                  `yaml:"points,omitempty"`
	Adaptive      bool                 `yaml:"adaptive,omitempty"`
	Tolerance     float64              `yaml:"tolerance,omitempty"`
	Seed          int64                `yaml:"seed"`
	Replicates    int                  `yaml:"replicates,omitempty"`
	Params        map[string]float64   `yaml:"params,omitempty"`
	Init          map[string]float64   `yaml:"init,omitempty"`
	Interventions []InterventionConfig `yaml:"interventions,omitempty"`
	Plot          PlotConfig           `yaml:"plot,omitempty"`
}

type InterventionConfig struct {
	Name  string             `yaml:"name"`
	At    float64            `yaml:"at"`
	Scale map[string]float64 `yaml:"scale"`
}

type PlotConfig struct {
	Title     string         `yaml:"title,omitempty"`
	XLabel    string         `yaml:"x_label,omitempty"`
	YLabel    string         `yaml:"y_label,omitempty"`
	YMax      float64        `yaml:"y_max,omitempty"`
	TimeScale float64        `yaml:"time_scale,omitempty"`
	Normalize bool           `yaml:"normalize,omitempty"`
	Series    []SeriesConfig `yaml:"series,omitempty"`
}

// SeriesConfig names a compartment or indicator to draw. Of may join
// compartments with '+' to plot their sum.
type SeriesConfig struct {
	Label string `yaml:"label"`
	Color string `yaml:"color"`
	Of    string `yaml:"of"`
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func DefaultConfig() *Config {
	return &Config{
		Model:      "sir",
		Kind:       KindODE,
		Integrator: "rk4",
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		Tolerance:  DefaultTolerance,
		Seed:       42,
		Replicates: 1,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("%w: model is required", dynamo.ErrInvalidConfig)
	}
	switch c.Kind {
	case "", KindODE, KindStochastic:
	default:
		return fmt.Errorf("%w: unknown kind %q", dynamo.ErrInvalidConfig, c.Kind)
	}
	if c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrInvalidConfig, c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %g", dynamo.ErrInvalidConfig, c.Duration)
	}
	if c.Points < 0 || c.Replicates < 0 {
		return fmt.Errorf("%w: points and replicates must not be negative", dynamo.ErrInvalidConfig)
	}
	// zero tolerance means DefaultTolerance
	if c.Tolerance < 0 {
		return fmt.Errorf("%w: tolerance must not be negative, got %g", dynamo.ErrInvalidConfig, c.Tolerance)
	}
	for _, iv := range c.Interventions {
		if iv.At < 0 {
			return fmt.Errorf("%w: intervention %q starts before t=0", dynamo.ErrInvalidConfig, iv.Name)
		}
	}
	for _, s := range c.Plot.Series {
		if s.Color != "" && !hexColor.MatchString(s.Color) {
			return fmt.Errorf("%w: series %q color %q is not #rrggbb", dynamo.ErrInvalidConfig, s.Label, s.Color)
		}
	}
	return nil
}

func (c *Config) IsStochastic() bool { return c.Kind == KindStochastic }

// Steps is the number of transitions a stochastic run of this config makes.
func (c *Config) Steps() int {
	n := int(c.Duration/c.Dt + 0.5)
	if n < 1 {
		n = 1
	}
	return n
}

func (c *Config) SimConfig() dynamo.Config {
	cfg := dynamo.DefaultConfig()
	cfg.Dt = c.Dt
	cfg.Duration = c.Duration
	cfg.Points = c.Points
	cfg.Seed = c.Seed
	cfg.Adaptive = c.Adaptive
	cfg.Tolerance = DefaultTolerance
	if c.Tolerance > 0 {
		cfg.Tolerance = c.Tolerance
	}
	return cfg
}

func (c *Config) Clone() *Config {
	out := *c
	out.Params = maps.Clone(c.Params)
	out.Init = maps.Clone(c.Init)
	if c.Interventions != nil {
		out.Interventions = make([]InterventionConfig, len(c.Interventions))
		for i, iv := range c.Interventions {
			iv.Scale = maps.Clone(iv.Scale)
			out.Interventions[i] = iv
		}
	}
	out.Plot.Series = append([]SeriesConfig(nil), c.Plot.Series...)
	return &out
}
