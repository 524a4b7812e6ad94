// Package stochastic simulates discrete populations whose transitions are
// drawn each step from binomial and multinomial distributions.
//
// A [Process] describes one step of the chain. [Run] produces a single
// trajectory; an [Ensemble] runs independent replicates in parallel, each
// on its own PCG stream so results do not depend on scheduling:
//
//	ens := stochastic.Ensemble{Process: stochastic.NewPopGrowthDeath(), Replicates: 1000, Seed: 42}
//	res, err := ens.Run(ctx, 200, 1)
//	mean := res.Mean(0)
package stochastic
