package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics - набор счетчиков приложения в собственном реестре,
// чтобы тесты могли создавать независимые экземпляры.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	PublicationTransitions *prometheus.CounterVec
	ReviewSubmissions      *prometheus.CounterVec
	ThrottleRejections     *prometheus.CounterVec
	NotificationFailures   *prometheus.CounterVec
	WorkerRuns             *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bolsafeucn",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),

		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bolsafeucn",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),

		PublicationTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bolsafeucn",
			Name:      "publication_transitions_total",
			Help:      "Publication status transitions by target status.",
		}, []string{"status"}),

		ReviewSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bolsafeucn",
			Name:      "review_submissions_total",
			Help:      "Submitted review halves by side.",
		}, []string{"side"}),

		ThrottleRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bolsafeucn",
			Name:      "pending_review_throttle_total",
			Help:      "Operations blocked by the pending review threshold.",
		}, []string{"operation"}),

		NotificationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bolsafeucn",
			Name:      "notification_failures_total",
			Help:      "Failed notification deliveries by channel.",
		}, []string{"channel"}),

		WorkerRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bolsafeucn",
			Name:      "worker_runs_total",
			Help:      "Background job runs by job and result.",
		}, []string{"job", "result"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.PublicationTransitions,
		m.ReviewSubmissions,
		m.ThrottleRejections,
		m.NotificationFailures,
		m.WorkerRuns,
	)
	return m
}

// --- nil-safe хелперы: сервисы в тестах живут без метрик ---

func (m *Metrics) PublicationTransition(status string) {
	if m == nil {
		return
	}
	m.PublicationTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) ReviewSubmitted(side string) {
	if m == nil {
		return
	}
	m.ReviewSubmissions.WithLabelValues(side).Inc()
}

func (m *Metrics) Throttled(operation string) {
	if m == nil {
		return
	}
	m.ThrottleRejections.WithLabelValues(operation).Inc()
}

func (m *Metrics) NotificationFailed(channel string) {
	if m == nil {
		return
	}
	m.NotificationFailures.WithLabelValues(channel).Inc()
}

func (m *Metrics) WorkerRun(job string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.WorkerRuns.WithLabelValues(job, result).Inc()
}
