package experiment_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/episim/internal/config"
	"github.com/san-kum/episim/internal/dynamo"
	"github.com/san-kum/episim/internal/experiment"
	"github.com/san-kum/episim/internal/models"
)

type countingRecorder struct {
	runs    int
	samples int
	reps    int
	lastErr error
}

func (c *countingRecorder) ObserveRun(model, kind string, samples, replicates int, elapsed time.Duration, err error) {
	c.runs++
	c.samples = samples
	c.reps = replicates
	c.lastErr = err
}

type tally struct{ n int }

func (t *tally) OnStep(x dynamo.State, at float64) { t.n++ }

var _ = Describe("Registry", func() {
	reg := experiment.NewRegistry()

	It("knows every model, process and integrator", func() {
		Expect(reg.ListModels()).To(Equal([]string{
			"ebola", "gonorrhea", "hiv", "hiv_heterogeneous", "pop_growth", "seir", "sir",
		}))
		Expect(reg.ListProcesses()).To(Equal([]string{"pop_growth", "pop_growth_death", "sir"}))
		Expect(reg.ListIntegrators()).To(Equal([]string{"euler", "rk4", "rk45"}))
	})

	It("reports unknown names", func() {
		_, err := reg.GetModel("pendulum")
		Expect(err).To(MatchError(experiment.ErrUnknownModel))
		_, err = reg.GetIntegrator("verlet")
		Expect(err).To(MatchError(experiment.ErrUnknownIntegrator))
	})

	It("returns fresh instances", func() {
		a, _ := reg.GetModel("sir")
		b, _ := reg.GetModel("sir")
		Expect(a.SetParam("beta", 0.9)).To(Succeed())
		Expect(b.GetParams()["beta"]).To(Equal(0.2))
	})
})

var _ = Describe("Experiment", func() {
	var (
		ctx context.Context
		reg *experiment.Registry
	)

	BeforeEach(func() {
		ctx = context.Background()
		reg = experiment.NewRegistry()
	})

	It("runs presets adaptively without an explicit tolerance", func() {
		fixed, err := experiment.New(config.GetPreset("ebola_cr_all"), reg, nil).Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		cfg := config.GetPreset("ebola_cr_all")
		cfg.Adaptive = true
		cfg.Integrator = "rk45"
		out, err := experiment.New(cfg, reg, nil).Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Result.Errors).To(BeEmpty())
		Expect(out.Result.States).To(HaveLen(len(fixed.Result.States)))
		for i, v := range out.Result.Final() {
			Expect(v).To(BeNumerically("~", fixed.Result.Final()[i], 0.5))
		}
	})

	It("settles the gonorrhea preset at its endemic prevalence", func() {
		out, err := experiment.New(config.GetPreset("gonorrhea"), reg, nil).Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		endemic := out.Model.(models.Indicating).Indicators(out.Result.Final(), 50)["endemic"]
		Expect(endemic).To(BeNumerically("~", 0.5, 1e-12))
		Expect(out.Result.Metrics).To(HaveKeyWithValue("final_infectious", BeNumerically("~", endemic, 1e-3)))
	})

	It("runs the SEIR preset on its dense grid", func() {
		rec := &countingRecorder{}
		obs := &tally{}
		exp := experiment.New(config.GetPreset("seir"), reg, nil).WithRecorder(rec)
		exp.AddObserver(obs)

		out, err := exp.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Result.States).To(HaveLen(160))
		Expect(out.Result.Times[159]).To(BeNumerically("~", 160, 1e-9))
		Expect(out.Summary.R0).To(BeNumerically("~", 3.25, 1e-9))
		Expect(out.Result.Metrics).To(HaveKey("peak_prevalence"))
		Expect(out.Result.PopulationDrift).To(BeNumerically("<", 1e-9))
		Expect(obs.n).To(Equal(160))
		Expect(rec.runs).To(Equal(1))
		Expect(rec.samples).To(Equal(160))
	})

	It("applies Ebola interventions from the preset", func() {
		base, err := experiment.New(config.GetPreset("ebola"), reg, nil).Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		burial, err := experiment.New(config.GetPreset("ebola_cr_all"), reg, nil).Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		idx := base.Result.Index("B")
		Expect(burial.Result.Final()[idx]).To(BeNumerically("<", base.Result.Final()[idx]))
		Expect(burial.Model.Interventions()).To(HaveLen(1))

		// identical up to the switch
		day := 80
		Expect(burial.Result.States[day]).To(Equal(base.Result.States[day]))
	})

	It("applies parameter and initial state overrides", func() {
		cfg := config.GetPreset("sir")
		cfg.Params = map[string]float64{"beta": 0.05}
		cfg.Init = map[string]float64{"I": 10}

		out, err := experiment.New(cfg, reg, nil).Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Result.States[0]).To(Equal(dynamo.State{990, 10, 0}))
		Expect(out.Summary.R0).To(BeNumerically("~", 0.5, 1e-12))
	})

	It("rejects unknown parameters and interventions", func() {
		cfg := config.GetPreset("sir")
		cfg.Params = map[string]float64{"mu": 1}
		_, err := experiment.New(cfg, reg, nil).Run(ctx)
		Expect(err).To(MatchError(dynamo.ErrUnknownParam))

		cfg = config.GetPreset("sir")
		cfg.Interventions = []config.InterventionConfig{{Name: "x", At: 5, Scale: map[string]float64{"mu": 2}}}
		_, err = experiment.New(cfg, reg, nil).Run(ctx)
		Expect(err).To(MatchError(dynamo.ErrUnknownParam))
	})

	It("reports failures to the recorder", func() {
		rec := &countingRecorder{}
		cfg := config.GetPreset("sir")
		cfg.Integrator = "verlet"
		_, err := experiment.New(cfg, reg, nil).WithRecorder(rec).Run(ctx)
		Expect(err).To(MatchError(experiment.ErrUnknownIntegrator))
		Expect(rec.runs).To(Equal(1))
		Expect(rec.lastErr).To(HaveOccurred())
	})

	It("runs stochastic ensembles and reports their mean", func() {
		cfg := config.GetPreset("pop_growth_death")
		cfg.Replicates = 50
		cfg.Duration = 30
		rec := &countingRecorder{}

		out, err := experiment.New(cfg, reg, nil).WithRecorder(rec).Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Ensemble.Runs).To(HaveLen(50))
		Expect(out.Result.States).To(HaveLen(31))
		Expect(out.Result.States[0][0]).To(Equal(20.0))
		Expect(out.Result.Metrics).To(HaveKey("extinction_P"))
		Expect(rec.reps).To(Equal(50))
	})

	It("runs the stochastic SIR preset reproducibly", func() {
		cfg := config.GetPreset("stochastic_sir")
		cfg.Duration = 50

		a, err := experiment.New(cfg, reg, nil).Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		b, err := experiment.New(cfg, reg, nil).Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Result.States).To(Equal(b.Result.States))
		Expect(a.Result.Compartments).To(Equal([]string{"S", "I", "R", "Y"}))
	})
})
