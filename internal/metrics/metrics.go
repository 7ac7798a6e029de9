// Package metrics records deployment pipeline timings and outcomes.
package metrics

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

const namespace = "luxequeer_deploy"

// Recorder owns a private registry so runs in the same process never collide with
// the default global one.
type Recorder struct {
	reg          *prometheus.Registry
	stepDuration *prometheus.HistogramVec
	stepFailures *prometheus.CounterVec
	runs         *prometheus.CounterVec
	scripts      prometheus.Counter
	uploads      prometheus.Counter

	parent *Recorder
}

func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Duration of each deployment pipeline step.",
			Buckets:   []float64{.01, .05, .1, .5, 1, 5, 15, 60, 300},
		}, []string{"step"}),
		stepFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_failures_total",
			Help:      "Deployment pipeline steps that returned an error.",
		}, []string{"step"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Deployment runs by outcome.",
		}, []string{"outcome"}),
		scripts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scripts_minified_total",
			Help:      "Scripts written to build/.",
		}),
		uploads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_published_total",
			Help:      "Site files uploaded to object storage.",
		}),
	}
	r.reg.MustRegister(r.stepDuration, r.stepFailures, r.runs, r.scripts, r.uploads)
	return r
}

// Child returns an empty recorder whose observations are also counted by r.
// A run reports to its own child so its metrics file holds that run only.
func (r *Recorder) Child() *Recorder {
	c := New()
	c.parent = r
	return c
}

// ObserveStep records how long a step took and whether it failed.
func (r *Recorder) ObserveStep(step string, d time.Duration, err error) {
	if r.parent != nil {
		r.parent.ObserveStep(step, d, err)
	}
	r.stepDuration.WithLabelValues(step).Observe(d.Seconds())
	if err != nil {
		r.stepFailures.WithLabelValues(step).Inc()
	}
}

// RunFinished counts one run as succeeded or failed.
func (r *Recorder) RunFinished(success bool) {
	if r.parent != nil {
		r.parent.RunFinished(success)
	}
	outcome := "failed"
	if success {
		outcome = "succeeded"
	}
	r.runs.WithLabelValues(outcome).Inc()
}

func (r *Recorder) ScriptMinified() {
	if r.parent != nil {
		r.parent.ScriptMinified()
	}
	r.scripts.Inc()
}

func (r *Recorder) ObjectPublished() {
	if r.parent != nil {
		r.parent.ObjectPublished()
	}
	r.uploads.Inc()
}

// Registry exposes the underlying registry, mostly for tests.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// WriteText writes every metric family in text exposition format.
func (r *Recorder) WriteText(w io.Writer) error {
	families, err := r.reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
