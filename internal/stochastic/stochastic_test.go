package stochastic_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/episim/internal/dynamo"
	"github.com/san-kum/episim/internal/stochastic"
)

var _ = Describe("Binomial", func() {
	src := stochastic.NewSource(1, 0)

	It("returns zero for empty trials or impossible events", func() {
		Expect(stochastic.Binomial(src, 0, 0.5)).To(BeZero())
		Expect(stochastic.Binomial(src, -3, 0.5)).To(BeZero())
		Expect(stochastic.Binomial(src, 10, 0)).To(BeZero())
	})

	It("returns every trial for certain events", func() {
		Expect(stochastic.Binomial(src, 17, 1)).To(Equal(int64(17)))
	})

	It("stays within [0, n] and centres on np", func() {
		sum := int64(0)
		for i := 0; i < 2000; i++ {
			k := stochastic.Binomial(src, 100, 0.3)
			Expect(k).To(BeNumerically(">=", 0))
			Expect(k).To(BeNumerically("<=", 100))
			sum += k
		}
		Expect(float64(sum) / 2000).To(BeNumerically("~", 30, 1))
	})

	It("draws from populations of order 1e15", func() {
		n := int64(5_200_000_000_000_000)
		for i := 0; i < 100; i++ {
			k := stochastic.Binomial(src, n, 0.375)
			Expect(k).To(BeNumerically(">=", 0))
			Expect(k).To(BeNumerically("<=", n))
			Expect(float64(k) / float64(n)).To(BeNumerically("~", 0.375, 1e-6))
		}
	})
})

var _ = Describe("Multinomial", func() {
	src := stochastic.NewSource(2, 0)

	It("conserves the number of trials", func() {
		out, err := stochastic.Multinomial(src, 500, []float64{0.2, 0.3, 0.5})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HaveLen(3))
		Expect(out[0] + out[1] + out[2]).To(Equal(int64(500)))
	})

	It("adds the remainder as a last category", func() {
		out, err := stochastic.Multinomial(src, 500, []float64{0.5, 0.3})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HaveLen(3))
		Expect(out[0] + out[1] + out[2]).To(Equal(int64(500)))
	})

	It("rejects invalid probability vectors", func() {
		_, err := stochastic.Multinomial(src, 10, []float64{0.7, 0.7})
		Expect(err).To(MatchError(stochastic.ErrInvalidProbability))

		_, err = stochastic.Multinomial(src, 10, []float64{-0.1, 0.5})
		Expect(err).To(MatchError(stochastic.ErrInvalidProbability))
	})
})

var _ = Describe("Run", func() {
	ctx := context.Background()

	It("samples steps+1 states at multiples of dt", func() {
		res, err := stochastic.Run(ctx, stochastic.NewPopGrowth(), stochastic.NewSource(3, 0), 50, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.States).To(HaveLen(51))
		Expect(res.Times[0]).To(BeZero())
		Expect(res.Times[50]).To(BeNumerically("~", 50, 1e-9))
		Expect(res.States[0][0]).To(Equal(1.0))
	})

	It("never shrinks a pure birth population", func() {
		res, err := stochastic.Run(ctx, stochastic.NewPopGrowth(), stochastic.NewSource(4, 0), 30, 1)
		Expect(err).NotTo(HaveOccurred())
		for k := 1; k < len(res.States); k++ {
			Expect(res.States[k][0]).To(BeNumerically(">=", res.States[k-1][0]))
		}
	})

	It("keeps the SIR population closed and incidence cumulative", func() {
		proc := stochastic.NewSIR()
		res, err := stochastic.Run(ctx, proc, stochastic.NewSource(5, 0), 2000, 0.1)
		Expect(err).NotTo(HaveOccurred())
		for k, x := range res.States {
			Expect(x[0] + x[1] + x[2]).To(Equal(1000.0))
			for _, v := range x {
				Expect(v).To(BeNumerically(">=", 0))
			}
			if k > 0 {
				Expect(x[3]).To(BeNumerically(">=", res.States[k-1][3]))
				Expect(x[3] - res.States[k-1][3]).To(Equal(res.States[k-1][0] - x[0]))
			}
		}
	})

	It("finishes the pop_growth_death preset horizon", func(sctx SpecContext) {
		res, err := stochastic.Run(sctx, stochastic.NewPopGrowthDeath(), stochastic.NewSource(42, 0), 200, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.States).To(HaveLen(201))
		for _, x := range res.States {
			Expect(x[0]).To(BeNumerically(">=", 0))
		}
	}, SpecTimeout(10*time.Second))

	It("stops short runs on cancellation", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		res, err := stochastic.Run(cctx, stochastic.NewPopGrowthDeath(), stochastic.NewSource(42, 0), 200, 1)
		Expect(err).To(MatchError(context.Canceled))
		Expect(res.States).To(HaveLen(1))
	})

	It("is reproducible for a fixed seed and stream", func() {
		a, err := stochastic.Run(ctx, stochastic.NewSIR(), stochastic.NewSource(6, 1), 500, 0.1)
		Expect(err).NotTo(HaveOccurred())
		b, err := stochastic.Run(ctx, stochastic.NewSIR(), stochastic.NewSource(6, 1), 500, 0.1)
		Expect(err).NotTo(HaveOccurred())
		Expect(a.States).To(Equal(b.States))
	})

	It("rejects invalid processes and configurations", func() {
		proc := &stochastic.PopGrowthDeath{N0: 10, BirthRate: 0.7, DeathRate: 0.5}
		_, err := stochastic.Run(ctx, proc, stochastic.NewSource(7, 0), 10, 1)
		Expect(err).To(MatchError(stochastic.ErrInvalidProcess))

		_, err = stochastic.Run(ctx, stochastic.NewPopGrowth(), stochastic.NewSource(7, 0), 0, 1)
		Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
	})

	It("rejects unknown and negative parameters", func() {
		proc := stochastic.NewSIR()
		Expect(proc.SetParam("iota", 0.5)).To(Succeed())
		Expect(proc.GetParams()).To(HaveKeyWithValue("iota", 0.5))
		Expect(proc.SetParam("delta", 1)).To(MatchError(dynamo.ErrUnknownParam))
		Expect(proc.SetParam("beta", -1)).To(MatchError(dynamo.ErrParameterBounds))
	})
})

var _ = Describe("Ensemble", func() {
	ctx := context.Background()

	It("runs every replicate and summarises them", func() {
		ens := stochastic.Ensemble{Process: stochastic.NewPopGrowthDeath(), Replicates: 40, Seed: 11}
		res, err := ens.Run(ctx, 20, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Runs).To(HaveLen(40))

		traces := res.Traces(0)
		r, c := traces.Dims()
		Expect(r).To(Equal(40))
		Expect(c).To(Equal(21))

		mean := res.Mean(0)
		Expect(mean[0]).To(Equal(20.0))
		low := res.Quantile(0, 0.05)
		high := res.Quantile(0, 0.95)
		for j := range mean {
			Expect(low[j]).To(BeNumerically("<=", high[j]))
		}

		ext := res.Extinction(0)
		Expect(ext).To(BeNumerically(">=", 0))
		Expect(ext).To(BeNumerically("<=", 1))

		m, sd := res.FinalStats(0)
		Expect(m).To(BeNumerically(">", 0))
		Expect(sd).To(BeNumerically(">=", 0))
	})

	It("does not depend on scheduling", func() {
		ens := stochastic.Ensemble{Process: stochastic.NewSIR(), Replicates: 8, Seed: 3}
		a, err := ens.Run(ctx, 300, 0.1)
		Expect(err).NotTo(HaveOccurred())
		b, err := ens.Run(ctx, 300, 0.1)
		Expect(err).NotTo(HaveOccurred())
		for k := range a.Runs {
			Expect(a.Runs[k].States).To(Equal(b.Runs[k].States))
		}

		single, err := stochastic.Run(ctx, stochastic.NewSIR(), stochastic.NewSource(3, 5), 300, 0.1)
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Runs[5].States).To(Equal(single.States))
	})

	It("reports canceled runs", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		ens := stochastic.Ensemble{Process: stochastic.NewSIR(), Replicates: 2, Seed: 1}
		_, err := ens.Run(cctx, 5000, 0.1)
		Expect(err).To(MatchError(context.Canceled))
	})

	It("requires at least one replicate", func() {
		ens := stochastic.Ensemble{Process: stochastic.NewSIR()}
		_, err := ens.Run(ctx, 10, 0.1)
		Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
	})
})
