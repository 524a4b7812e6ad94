package config

import (
	"maps"
	"slices"
)

const (
	colorS = "#02146b"
	colorE = "#ffb428"
	colorI = "#b4e830"
	colorR = "#e21e7b"
	colorB = "#888888"
	colorD = "#12eaea"
)

var seirSeries = []SeriesConfig{
	{Label: "Susceptible", Color: colorS, Of: "S"},
	{Label: "Exposed", Color: colorE, Of: "E"},
	{Label: "Infected", Color: colorI, Of: "I"},
	{Label: "Recovered", Color: colorR, Of: "R"},
}

var ebolaSeries = append(slices.Clone(seirSeries),
	SeriesConfig{Label: "Buried", Color: colorB, Of: "B"},
	SeriesConfig{Label: "Dead", Color: colorD, Of: "D"},
)

func ebola(name, title string, ivs ...InterventionConfig) *Config {
	return &Config{
		Name: name, Model: "ebola", Kind: KindODE, Integrator: "rk4",
		Dt: 0.1, Duration: 365, Points: 365,
		Interventions: ivs,
		Plot: PlotConfig{
			Title: title, XLabel: "Time (days)", YLabel: "Population fraction",
			YMax: 1, Normalize: true, Series: ebolaSeries,
		},
	}
}

const ebolaStart = 90

var Presets = map[string]*Config{
	"sir": {
		Name: "sir", Model: "sir", Kind: KindODE, Integrator: "rk4",
		Dt: 0.1, Duration: 160, Points: 160,
		Plot: PlotConfig{
			Title: "SIR", XLabel: "Time (days)", YLabel: "Population fraction",
			YMax: 1, Normalize: true,
			Series: []SeriesConfig{
				{Label: "Susceptible", Color: colorS, Of: "S"},
				{Label: "Infected", Color: colorI, Of: "I"},
				{Label: "Recovered", Color: colorR, Of: "R"},
			},
		},
	},
	"seir": {
		Name: "seir", Model: "seir", Kind: KindODE, Integrator: "rk4",
		Dt: 0.1, Duration: 160, Points: 160,
		Plot: PlotConfig{
			Title: "SEIR", XLabel: "Time (days)", YLabel: "Population fraction",
			YMax: 1, Normalize: true, Series: seirSeries,
		},
	},
	"ebola": ebola("ebola", "Ebola"),
	"ebola_burial": ebola("ebola_burial", "Ebola, safe burial from day 90",
		InterventionConfig{Name: "safe_burial", At: ebolaStart, Scale: map[string]float64{"mu": 2}}),
	"ebola_cr_bodies": ebola("ebola_cr_bodies", "Ebola, reduced contact with bodies from day 90",
		InterventionConfig{Name: "reduce_contact_bodies", At: ebolaStart, Scale: map[string]float64{"beta_d": 0.5}}),
	"ebola_cr_infected": ebola("ebola_cr_infected", "Ebola, reduced contact with infected from day 90",
		InterventionConfig{Name: "reduce_contact_infected", At: ebolaStart, Scale: map[string]float64{"beta_i": 0.5}}),
	"ebola_cr_all": ebola("ebola_cr_all", "Ebola, all interventions from day 90",
		InterventionConfig{Name: "all", At: ebolaStart, Scale: map[string]float64{"beta_i": 0.5, "beta_d": 0.5, "mu": 2}}),
	"hiv": {
		Name: "hiv", Model: "hiv", Kind: KindODE, Integrator: "rk4",
		Dt: 0.1, Duration: 1000, Points: 10000,
		Plot: PlotConfig{
			Title: "HIV", XLabel: "Time (years)", YLabel: "Population fraction",
			YMax: 0.3, TimeScale: 1.0 / 12,
			Series: []SeriesConfig{
				{Label: "Prevalence", Color: colorS, Of: "prevalence"},
				{Label: "Incidence", Color: colorI, Of: "incidence"},
			},
		},
	},
	"hiv_heterogeneous": {
		Name: "hiv_heterogeneous", Model: "hiv_heterogeneous", Kind: KindODE, Integrator: "rk4",
		Dt: 0.1, Duration: 1200, Points: 12000,
		Plot: PlotConfig{
			Title: "HIV, heterogeneous mixing", XLabel: "Time (years)", YLabel: "Population fraction",
			YMax: 0.3, TimeScale: 1.0 / 12,
			Series: []SeriesConfig{
				{Label: "Prevalence", Color: colorS, Of: "prevalence"},
				{Label: "Prevalence high", Color: colorI, Of: "prevalence_high"},
				{Label: "Prevalence low", Color: colorR, Of: "prevalence_low"},
			},
		},
	},
	"gonorrhea": {
		Name: "gonorrhea", Model: "gonorrhea", Kind: KindODE, Integrator: "rk4",
		Dt: 0.1, Duration: 50, Points: 500,
		Plot: PlotConfig{
			Title: "Gonorrhea", XLabel: "Time", YLabel: "Population fraction",
			YMax: 1, Normalize: true,
			Series: []SeriesConfig{
				{Label: "Susceptible", Color: colorS, Of: "S"},
				{Label: "Infected", Color: colorI, Of: "I"},
			},
		},
	},
	"pop_growth": {
		Name: "pop_growth", Model: "pop_growth", Kind: KindStochastic,
		Dt: 1, Duration: 50, Seed: 42, Replicates: 100,
		Params: map[string]float64{"n0": 1, "birth_rate": 0.5},
		Plot: PlotConfig{
			Title: "Stochastic population growth", XLabel: "Step", YLabel: "Population",
			Series: []SeriesConfig{{Label: "P", Color: colorR, Of: "P"}},
		},
	},
	"pop_growth_death": {
		Name: "pop_growth_death", Model: "pop_growth_death", Kind: KindStochastic,
		Dt: 1, Duration: 200, Seed: 42, Replicates: 1000,
		Params: map[string]float64{"n0": 20, "birth_rate": 0.5, "death_rate": 0.3},
		Plot: PlotConfig{
			Title: "Stochastic growth with death", XLabel: "Step", YLabel: "Population",
			Series: []SeriesConfig{{Label: "P", Color: colorR, Of: "P"}},
		},
	},
	"stochastic_sir": {
		Name: "stochastic_sir", Model: "sir", Kind: KindStochastic,
		Dt: 0.1, Duration: 500, Seed: 42, Replicates: 1,
		Params: map[string]float64{"beta": 0.1, "gamma": 0.05, "iota": 0.01, "population": 1000, "i0": 1},
		Plot: PlotConfig{
			Title: "Stochastic SIR", XLabel: "Time (days)", YLabel: "Individuals",
			YMax: 1000,
			Series: []SeriesConfig{
				{Label: "S", Color: colorS, Of: "S"},
				{Label: "I", Color: colorE, Of: "I"},
				{Label: "R", Color: colorI, Of: "R"},
			},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	return slices.Sorted(maps.Keys(Presets))
}
