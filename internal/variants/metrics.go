package variants

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// runsTotal counts generation runs by result (success, failure).
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "variantgen_runs_total",
		Help: "Total variant generation runs by result",
	}, []string{"result"})

	variantsAdded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "variantgen_variants_added_total",
		Help: "Total variants created by generation runs",
	})

	variantsUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "variantgen_variants_updated_total",
		Help: "Total variants whose associations were refreshed by generation runs",
	})

	variantsRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "variantgen_variants_removed_total",
		Help: "Total variants deleted by generation runs, including restored ones",
	})

	// solutionsTotal counts minimal solutions found by the enumerator before dedup.
	solutionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "variantgen_solutions_total",
		Help: "Total minimal solutions found across all combos",
	})

	solveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "variantgen_solve_duration_seconds",
		Help:    "Duration of a single lexicographic solve",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
	})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "variantgen_run_duration_seconds",
		Help:    "Duration of a complete generation run",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 14), // 100ms to ~27min
	})

	// recursiveCombos is the number of combos over the recursion limit seen by the last run.
	recursiveCombos = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "variantgen_recursive_combos",
		Help: "Combos whose dependency chain exceeded the recursion limit in the last run",
	})
)
