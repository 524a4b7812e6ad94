// Package telemetry counts simulation runs in a private Prometheus registry
// that can be dumped in the node exporter textfile format.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Recorder struct {
	registry   *prometheus.Registry
	runs       *prometheus.CounterVec
	samples    *prometheus.CounterVec
	replicates *prometheus.CounterVec
	errors     *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "episim",
			Name:      "runs_total",
			Help:      "Simulation runs completed, by model and kind.",
		}, []string{"model", "kind"}),
		samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "episim",
			Name:      "samples_total",
			Help:      "Recorded output samples.",
		}, []string{"model"}),
		replicates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "episim",
			Name:      "replicates_total",
			Help:      "Stochastic replicates drawn.",
		}, []string{"model"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "episim",
			Name:      "run_errors_total",
			Help:      "Runs that ended in an error.",
		}, []string{"model"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "episim",
			Name:      "run_seconds",
			Help:      "Wall time per run.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"kind"}),
	}
	r.registry.MustRegister(r.runs, r.samples, r.replicates, r.errors, r.duration)
	return r
}

func (r *Recorder) ObserveRun(model, kind string, samples, replicates int, elapsed time.Duration, err error) {
	r.duration.WithLabelValues(kind).Observe(elapsed.Seconds())
	if err != nil {
		r.errors.WithLabelValues(model).Inc()
		return
	}
	r.runs.WithLabelValues(model, kind).Inc()
	r.samples.WithLabelValues(model).Add(float64(samples))
	if kind == "stochastic" {
		r.replicates.WithLabelValues(model).Add(float64(replicates))
	}
}

func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// WriteTextfile writes every metric to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
