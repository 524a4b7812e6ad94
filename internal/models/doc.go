// Package models provides compartmental epidemic models for simulation.
//
// Each model implements [Model], defining the balance equations that govern
// the flow of individuals between compartments:
//
//   - [SIR]: susceptible, infectious, recovered
//   - [SEIR]: SIR with a latent (exposed) stage
//   - [Ebola]: SEIR with infectious dead bodies and burial
//   - [HIV]: susceptible, infected, AIDS with recruitment and mortality
//   - [HIVHeterogeneous]: two activity groups under proportionate mixing
//   - [Gonorrhea]: SIS on a partnership rate
//   - [PopGrowth]: deterministic birth-death growth
//
// Parameters may be switched at fixed times through a [Schedule] of
// [Intervention] values, e.g. doubling the burial rate after day 90:
//
//	m := models.NewEbola()
//	m.SetInterventions(models.Schedule{models.EbolaInterventions["safe_burial"](90)})
//
// Models that keep their population closed implement [dynamo.Conserved];
// models with a closed-form threshold implement [Reproducing].
package models
