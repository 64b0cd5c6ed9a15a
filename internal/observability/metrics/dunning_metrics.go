package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DunningMetrics tracks obligation lifecycle worker progress.
type DunningMetrics struct {
	transitions   *prometheus.CounterVec
	backlog       *prometheus.GaugeVec
	backlogOldest *prometheus.GaugeVec
	runDuration   prometheus.Histogram
}

var (
	dunningMetricsOnce sync.Once
	dunningMetrics     *DunningMetrics
)

// Dunning returns the process-wide dunning metrics, registering them on first use.
func Dunning(serviceName, environment string) *DunningMetrics {
	dunningMetricsOnce.Do(func() {
		dunningMetrics = newDunningMetrics(prometheus.DefaultRegisterer, serviceName, environment)
	})
	return dunningMetrics
}

// ResetDunningMetricsForTest clears the singleton so tests can re-register.
func ResetDunningMetricsForTest() {
	dunningMetricsOnce = sync.Once{}
	dunningMetrics = nil
}

func newDunningMetrics(registerer prometheus.Registerer, serviceName, environment string) *DunningMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName = strings.TrimSpace(serviceName)
	if serviceName == "" {
		serviceName = "paycal"
	}
	environment = strings.TrimSpace(environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	transitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "paycal_dunning_transitions_total",
			Help:        "Total obligation status transitions applied by the dunning worker.",
			ConstLabels: constLabels,
		},
		[]string{"from", "to"},
	)

	backlog := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name:        "paycal_dunning_backlog_total",
			Help:        "Number of obligations pending a lifecycle transition by status.",
			ConstLabels: constLabels,
		},
		[]string{"status"},
	)

	backlogOldest := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name:        "paycal_dunning_backlog_oldest_seconds",
			Help:        "Age of the oldest obligation awaiting a lifecycle transition.",
			ConstLabels: constLabels,
		},
		[]string{"status"},
	)

	runDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:        "paycal_dunning_run_duration_seconds",
			Help:        "Duration of a single dunning worker pass.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		},
	)

	registerer.MustRegister(transitions, backlog, backlogOldest, runDuration)

	return &DunningMetrics{
		transitions:   transitions,
		backlog:       backlog,
		backlogOldest: backlogOldest,
		runDuration:   runDuration,
	}
}

// IncTransition records one applied status transition.
func (m *DunningMetrics) IncTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

// SetBacklog records the pending transition count for a status.
func (m *DunningMetrics) SetBacklog(status string, value int) {
	if m == nil {
		return
	}
	m.backlog.WithLabelValues(status).Set(float64(value))
}

// SetBacklogOldest records the age of the oldest pending obligation.
func (m *DunningMetrics) SetBacklogOldest(status string, age time.Duration) {
	if m == nil {
		return
	}
	seconds := age.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.backlogOldest.WithLabelValues(status).Set(seconds)
}

// ObserveRun records how long a worker pass took.
func (m *DunningMetrics) ObserveRun(duration time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.Observe(duration.Seconds())
}
