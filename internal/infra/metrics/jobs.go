package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(jobRunsTotal, jobSkippedTotal)
}

var (
	jobRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduled_job_runs_total",
			Help: "Scheduled job runs, labeled by job and result.",
		},
		[]string{"job", "result"}, // result: 'ok', 'error'
	)

	jobSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduled_job_skipped_total",
			Help: "Ticks skipped because the previous run was still in flight.",
		},
		[]string{"job"},
	)
)

func IncJobRun(job string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	jobRunsTotal.WithLabelValues(norm(job), result).Inc()
}

func IncJobSkipped(job string) {
	jobSkippedTotal.WithLabelValues(norm(job)).Inc()
}
