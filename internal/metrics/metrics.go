// Package metrics provides Prometheus metrics for the time tracking service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TimersStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "timeledger_timers_started_total",
			Help: "Total number of task timers started",
		},
	)
	TimersStopped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "timeledger_timers_stopped_total",
			Help: "Total number of task timers stopped",
		},
	)
	ManualTimerEdits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "timeledger_manual_timer_edits_total",
			Help: "Total number of manual timer creates and updates",
		},
	)
	MinutesReconciled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "timeledger_minutes_reconciled_total",
			Help: "Total minutes credited to monthly hour ledgers",
		},
	)
	ReconcileFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "timeledger_reconcile_failures_total",
			Help: "Total number of per-assignee ledger updates that failed",
		},
	)
	OvertimeAlerts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "timeledger_overtime_alerts_total",
			Help: "Total number of overtime alert emails sent",
		},
	)
	ProgressRecalculations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "timeledger_progress_recalculations_total",
			Help: "Total number of project progress recalculations",
		},
	)
	RunningTimers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "timeledger_running_timers",
			Help: "Current number of running task timers",
		},
	)
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timeledger_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "timeledger_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

func RecordTimerStarted() {
	TimersStarted.Inc()
}

func RecordTimerStopped() {
	TimersStopped.Inc()
}

func RecordManualTimerEdit() {
	ManualTimerEdits.Inc()
}

func RecordMinutesReconciled(minutes int) {
	MinutesReconciled.Add(float64(minutes))
}

func RecordReconcileFailure() {
	ReconcileFailures.Inc()
}

func RecordOvertimeAlert() {
	OvertimeAlerts.Inc()
}

func RecordProgressRecalculation() {
	ProgressRecalculations.Inc()
}

func UpdateRunningTimers(count int) {
	RunningTimers.Set(float64(count))
}

func RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
