package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(runJobsProcessedTotal, runJobDurationSeconds, runJobsPending, runJobsStuckRunning)
}

var runJobsProcessedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "run_jobs_processed_total",
		Help: "Total number of run jobs resolved by workers, labeled by terminal status.",
	},
	[]string{"status"}, // 'completed', 'failed'
)

var runJobDurationSeconds = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "run_job_duration_seconds",
		Help:    "Wall time from claim to terminal write.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	},
	[]string{"status"},
)

var runJobsPending = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "run_jobs_pending",
		Help: "Pending jobs visible in the store at the last monitor sweep.",
	},
)

var runJobsStuckRunning = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "run_jobs_stuck_running",
		Help: "Jobs sitting in running beyond the configured threshold at the last monitor sweep.",
	},
)

func IncJobProcessed(status string) {
	runJobsProcessedTotal.WithLabelValues(norm(status)).Inc()
}

func ObserveJobDuration(status string, seconds float64) {
	runJobDurationSeconds.WithLabelValues(norm(status)).Observe(seconds)
}

func SetJobsPending(n int) { runJobsPending.Set(float64(n)) }

func SetJobsStuckRunning(n int) { runJobsStuckRunning.Set(float64(n)) }
