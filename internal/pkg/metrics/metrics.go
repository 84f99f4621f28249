// Package metrics exposes Prometheus collectors for the sync pipeline and the HTTP API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Source fetch results.
const (
	ResultSuccess = "success"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"
)

type Manager struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry

	sourceFetches   *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	excludedRepos   prometheus.Counter
	batchRuns       *prometheus.CounterVec
	batchSubjects   *prometheus.CounterVec
	batchDuration   prometheus.Histogram
	lastBatchUnix   prometheus.Gauge
	syncInProgress  prometheus.Counter
	httpRequests    *prometheus.CounterVec
	httpRequestTime *prometheus.HistogramVec
}

type Option func(*Manager)

func WithNamespace(ns string) Option {
	return func(m *Manager) {
		if ns != "" {
			m.namespace = ns
		}
	}
}

func WithRegistry(r *prometheus.Registry) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}

func WithHistogramBuckets(b []float64) Option {
	return func(m *Manager) {
		if len(b) > 0 {
			m.buckets = b
		}
	}
}

// NewManager registers every collector on its own registry, plus the Go runtime and
// process collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "skillradar",
		buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	auto := promauto.With(m.registry)
	m.sourceFetches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "sync",
		Name:      "source_fetches_total",
		Help:      "Source adapter calls by source and result (success, skipped, failed).",
	}, []string{"source", "result"})
	m.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "sync",
		Name:      "stage_duration_seconds",
		Help:      "Duration of pipeline stages.",
		Buckets:   m.buckets,
	}, []string{"stage", "status"})
	m.excludedRepos = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "sync",
		Name:      "repos_excluded_from_commit_stats_total",
		Help:      "Repositories left out of commit aggregates because their stats call failed.",
	})
	m.syncInProgress = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "sync",
		Name:      "rejected_in_progress_total",
		Help:      "Runs refused because the subject already had a pipeline in flight.",
	})
	m.batchRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "batch",
		Name:      "runs_total",
		Help:      "Batch sync runs by trigger.",
	}, []string{"trigger"})
	m.batchSubjects = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "batch",
		Name:      "subjects_total",
		Help:      "Subjects processed by batch runs, by outcome.",
	}, []string{"outcome"})
	m.batchDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "batch",
		Name:      "duration_seconds",
		Help:      "Wall time of batch runs.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
	})
	m.lastBatchUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "batch",
		Name:      "last_finished_unixtime",
		Help:      "Unix time the last batch run finished.",
	})
	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})
	m.httpRequestTime = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route and method.",
		Buckets:   m.buckets,
	}, []string{"route", "method"})
	return m
}

func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Manager) SourceFetched(source, result string) {
	m.sourceFetches.WithLabelValues(source, result).Inc()
}

func (m *Manager) StageObserved(stage, status string, d time.Duration) {
	m.stageDuration.WithLabelValues(stage, status).Observe(d.Seconds())
}

func (m *Manager) ReposExcluded(n int) {
	if n > 0 {
		m.excludedRepos.Add(float64(n))
	}
}

func (m *Manager) SyncRejected() {
	m.syncInProgress.Inc()
}

func (m *Manager) BatchFinished(trigger string, succeeded, failed int, d time.Duration) {
	m.batchRuns.WithLabelValues(trigger).Inc()
	m.batchSubjects.WithLabelValues("succeeded").Add(float64(succeeded))
	m.batchSubjects.WithLabelValues("failed").Add(float64(failed))
	m.batchDuration.Observe(d.Seconds())
	m.lastBatchUnix.SetToCurrentTime()
}

func (m *Manager) HTTPObserved(route, method string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(route, method, httpStatus(status)).Inc()
	m.httpRequestTime.WithLabelValues(route, method).Observe(d.Seconds())
}

func httpStatus(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
