package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline stage labels.
const (
	StageRetrieve = "retrieve"
	StageScreen   = "screen"
	StageJoin     = "join"
	StageSample   = "sample"
	StageExport   = "export"
	StageSeries   = "series"
)

// Manager owns a registry and the metrics recorded on it. All recording
// methods are safe to call on a nil Manager.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	scenesQueried   *prometheus.CounterVec
	scenesScreened  prometheus.Counter
	scenesClear     prometheus.Counter
	scenesUndefined prometheus.Counter
	scenesJoined    prometheus.Counter
	rowsExported    *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	lastRunSuccess  prometheus.Gauge
	lastRunUnix     prometheus.Gauge

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager creates a metrics manager. Without WithRegistry a fresh
// registry is used, so managers never collide on the global one.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "lst",
		histogramBuckets: prometheus.DefBuckets,
	}

	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.scenesQueried = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scenes_queried_total",
		Help:      "Scenes returned by catalog searches",
	}, []string{"catalog"})

	m.scenesScreened = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scenes_screened_total",
		Help:      "Scenes given a cloud score",
	})

	m.scenesClear = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scenes_clear_total",
		Help:      "Scenes whose cloud score is at or below the threshold",
	})

	m.scenesUndefined = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scenes_undefined_score_total",
		Help:      "Scenes without a valid pixel in the region",
	})

	m.scenesJoined = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scenes_joined_total",
		Help:      "Temperature scenes acquired on a cloud-free date",
	})

	m.rowsExported = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rows_exported_total",
		Help:      "CSV data rows written",
	}, []string{"kind"})

	m.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stage_duration_seconds",
		Help:      "Wall time per pipeline stage",
		Buckets:   m.histogramBuckets,
	}, []string{"stage"})

	m.lastRunSuccess = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "last_run_success",
		Help:      "1 if the last export run succeeded, 0 otherwise",
	})

	m.lastRunUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the last export run finished",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Catalog server requests by route, method and status",
	}, []string{"route", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_seconds",
		Help:      "Catalog server request latency",
		Buckets:   m.histogramBuckets,
	}, []string{"route", "method"})
}

// Registry returns the registry metrics are recorded on.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// RecordScenesQueried adds n scenes returned from catalog.
func (m *Manager) RecordScenesQueried(catalog string, n int) {
	if m == nil {
		return
	}
	m.scenesQueried.WithLabelValues(catalog).Add(float64(n))
}

// RecordScreening records one screening pass.
func (m *Manager) RecordScreening(scored, clear, undefined int) {
	if m == nil {
		return
	}
	m.scenesScreened.Add(float64(scored))
	m.scenesClear.Add(float64(clear))
	m.scenesUndefined.Add(float64(undefined))
}

// RecordJoined adds n joined scenes.
func (m *Manager) RecordJoined(n int) {
	if m == nil {
		return
	}
	m.scenesJoined.Add(float64(n))
}

// RecordRowsExported adds n rows written for an export kind ("table" or "series").
func (m *Manager) RecordRowsExported(kind string, n int) {
	if m == nil {
		return
	}
	m.rowsExported.WithLabelValues(kind).Add(float64(n))
}

// StartStage starts timing a pipeline stage. Call the returned func when
// the stage ends.
func (m *Manager) StartStage(stage string) func() {
	if m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}

// RecordRun marks the end of an export run.
func (m *Manager) RecordRun(success bool) {
	if m == nil {
		return
	}
	if success {
		m.lastRunSuccess.Set(1)
	} else {
		m.lastRunSuccess.Set(0)
	}
	m.lastRunUnix.SetToCurrentTime()
}

// RecordHTTPRequest records a served request.
func (m *Manager) RecordHTTPRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the registry to path for the node exporter textfile
// collector.
func (m *Manager) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
