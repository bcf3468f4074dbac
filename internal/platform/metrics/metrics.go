package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Evaluation outcome label values.
const (
	OutcomeFeasible   = "feasible"
	OutcomeInfeasible = "infeasible"
	OutcomeError      = "error"
	OutcomeCached     = "cached"
)

// Collector bundles the Prometheus metrics of the fuel evaluation pipeline.
// A nil *Collector is valid and records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	Evaluations        *prometheus.CounterVec
	EvaluationDuration *prometheus.HistogramVec
	InfeasibleSegments prometheus.Counter
	ClampEvents        prometheus.Counter
	OptimizerRuns      *prometheus.CounterVec
	OptimizerIters     prometheus.Histogram
	CacheLookups       *prometheus.CounterVec
}

// NewCollector registers the metrics against reg, defaulting to the global
// registry when nil. Registering twice on one registry reuses the existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{gatherer: gatherer}
	var err error

	if c.Evaluations, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fuel_evaluations_total",
		Help: "Route fuel evaluations, labeled by outcome.",
	}, []string{"outcome"})); err != nil {
		return nil, err
	}

	if c.EvaluationDuration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fuel_evaluation_duration_seconds",
		Help:    "Wall time of route evaluations and optimizations.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	}, []string{"op"})); err != nil {
		return nil, err
	}

	if c.InfeasibleSegments, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fuel_infeasible_segments_total",
		Help: "Segments for which no gear satisfied the torque envelope.",
	})); err != nil {
		return nil, err
	}

	if c.ClampEvents, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fuel_envelope_clamp_events_total",
		Help: "Operating points whose engine speed fell outside the torque table.",
	})); err != nil {
		return nil, err
	}

	if c.OptimizerRuns, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fuel_optimizer_runs_total",
		Help: "Continuous optimizer runs, labeled by converged=true|false.",
	}, []string{"converged"})); err != nil {
		return nil, err
	}

	if c.OptimizerIters, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fuel_optimizer_iterations",
		Help:    "Quasi-Newton iterations spent per optimizer run.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})); err != nil {
		return nil, err
	}

	if c.CacheLookups, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fuel_evaluation_cache_lookups_total",
		Help: "Evaluation cache lookups, labeled by result=hit|miss|error.",
	}, []string{"result"})); err != nil {
		return nil, err
	}

	return c, nil
}

// Handler exposes the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveEvaluation(outcome string, seconds float64, infeasible, clamped int) {
	if c == nil {
		return
	}
	c.Evaluations.WithLabelValues(outcome).Inc()
	if outcome != OutcomeCached {
		c.EvaluationDuration.WithLabelValues("evaluate").Observe(seconds)
	}
	c.InfeasibleSegments.Add(float64(infeasible))
	c.ClampEvents.Add(float64(clamped))
}

func (c *Collector) ObserveOptimization(converged bool, iterations int, seconds float64) {
	if c == nil {
		return
	}
	c.OptimizerRuns.WithLabelValues(fmt.Sprint(converged)).Inc()
	c.OptimizerIters.Observe(float64(iterations))
	c.EvaluationDuration.WithLabelValues("optimize").Observe(seconds)
}

// CacheResult records one evaluation cache lookup: "hit", "miss" or "error".
func (c *Collector) CacheResult(result string) {
	if c == nil {
		return
	}
	c.CacheLookups.WithLabelValues(result).Inc()
}

func register[T prometheus.Collector](reg prometheus.Registerer, col T) (T, error) {
	if err := reg.Register(col); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("metrics: collector already registered with incompatible type: %w", err)
		}
		var zero T
		return zero, fmt.Errorf("metrics: register: %w", err)
	}
	return col, nil
}
