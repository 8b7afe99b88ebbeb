package loop

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("apoptosim.loop")

var (
	compileTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "apoptosim_loop_compile_total",
		Help: "Loop program compilations by result",
	}, []string{"result"})

	cacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "apoptosim_loop_cache_requests_total",
		Help: "Compile cache lookups by outcome",
	}, []string{"outcome"})

	solveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "apoptosim_loop_solve_total",
		Help: "Loop simulations by result",
	}, []string{"result"})

	solveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "apoptosim_loop_solve_duration_seconds",
		Help:    "Wall time of a loop simulation",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms to ~33s
	})

	replicateCount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "apoptosim_loop_replicates",
		Help:    "Replicate count per simulation",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100, 500},
	})
)

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
