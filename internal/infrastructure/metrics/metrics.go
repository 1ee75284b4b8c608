package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder 收集每日訊號管線的 Prometheus 指標。
type Recorder struct {
	runsTotal           *prometheus.CounterVec
	notificationsTotal  *prometheus.CounterVec
	runDuration         prometheus.Histogram
	activeSubscriptions prometheus.Gauge
}

// New 建立並註冊管線指標。
func New() *Recorder {
	return &Recorder{
		runsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_runs_total",
				Help: "Total number of daily signal runs",
			},
			[]string{"result"},
		),
		notificationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_notifications_total",
				Help: "Notification outcomes per run unit",
			},
			[]string{"outcome"},
		),
		runDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "advisor_run_duration_seconds",
				Help:    "Duration of a full daily run in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		activeSubscriptions: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "advisor_active_subscriptions",
				Help: "Subscriptions enumerated by the most recent run",
			},
		),
	}
}

// RecordRun 記錄一輪執行的結果與耗時。
func (r *Recorder) RecordRun(result string, processed int, d time.Duration) {
	if r == nil {
		return
	}
	r.runsTotal.WithLabelValues(result).Inc()
	r.runDuration.Observe(d.Seconds())
	r.activeSubscriptions.Set(float64(processed))
}

// RecordOutcome 記錄單一訂閱的通知結果。
func (r *Recorder) RecordOutcome(outcome string) {
	if r == nil {
		return
	}
	r.notificationsTotal.WithLabelValues(outcome).Inc()
}
