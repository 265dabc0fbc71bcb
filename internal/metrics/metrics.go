// Package metrics exposes repair-run counters and latencies. They live in a
// private registry that is exported as a Prometheus textfile at the end of a
// run.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every gorepair collector.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// Evaluations counts candidate evaluations by outcome
	// (compile_error, timeout, scored, all_pass, cached, render_error).
	Evaluations = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "gorepair_evaluations_total",
		Help: "Total candidate evaluations by outcome",
	}, []string{"outcome"})

	// EvaluationDuration tracks wall time per evaluated candidate.
	EvaluationDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "gorepair_evaluation_duration_seconds",
		Help:    "Candidate evaluation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
	})

	// TestRuns counts single test executions by result (pass, fail, timeout).
	TestRuns = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "gorepair_test_runs_total",
		Help: "Total single-test executions by result",
	}, []string{"result"})

	// EditsApplied counts edits applied to kept patches, by kind. Trial
	// applications made while validating seeds are not counted.
	EditsApplied = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "gorepair_edits_applied_total",
		Help: "Total applied edits by kind",
	}, []string{"kind"})

	// Generations counts completed search generations.
	Generations = factory.NewCounter(prometheus.CounterOpts{
		Name: "gorepair_generations_total",
		Help: "Total evaluated generations",
	})

	// BestFitness is the best fitness seen in the current run.
	BestFitness = factory.NewGauge(prometheus.GaugeOpts{
		Name: "gorepair_best_fitness",
		Help: "Best fitness found so far",
	})
)

// WriteTextfile writes the registry in the Prometheus text format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}

	return nil
}
