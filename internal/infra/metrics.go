package infra

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the Prometheus collectors of the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	jobsCreated    *prometheus.CounterVec
	jobsFinished   *prometheus.CounterVec
	jobsActive     prometheus.Gauge
	jobDuration    *prometheus.HistogramVec
	stageDuration  *prometheus.HistogramVec
	tokensUsed     *prometheus.CounterVec
	renderWarnings prometheus.Counter
	httpRequests   *prometheus.HistogramVec
	sqlDuration    *prometheus.HistogramVec
	staleJobs      prometheus.Counter
}

// NewMetrics registers every collector on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		jobsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "campaign_jobs_created_total",
			Help: "Campaign jobs accepted for processing.",
		}, []string{"origin"}),
		jobsFinished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "campaign_jobs_finished_total",
			Help: "Campaign jobs that reached a terminal status.",
		}, []string{"status"}),
		jobsActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "campaign_jobs_active",
			Help: "Campaign jobs currently executing in this process.",
		}),
		jobDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "campaign_job_duration_seconds",
			Help:    "End-to-end campaign job duration.",
			Buckets: []float64{1, 2.5, 5, 10, 20, 30, 60, 120, 300},
		}, []string{"status"}),
		stageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "campaign_stage_duration_seconds",
			Help:    "Duration of each pipeline stage.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		tokensUsed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "campaign_llm_tokens_total",
			Help: "Tokens consumed by generation sub-calls.",
		}, []string{"stage", "model"}),
		renderWarnings: f.NewCounter(prometheus.CounterOpts{
			Name: "campaign_render_warnings_total",
			Help: "Warnings attached to rendered artifacts.",
		}),
		httpRequests: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		sqlDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sql_statement_duration_seconds",
			Help:    "Latency of SQL statements.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"op", "outcome"}),
		staleJobs: f.NewCounter(prometheus.CounterOpts{
			Name: "campaign_jobs_interrupted_total",
			Help: "Stale jobs failed by the sweeper.",
		}),
	}
}

func (m *Metrics) JobCreated(origin string) {
	if m == nil {
		return
	}
	m.jobsCreated.WithLabelValues(origin).Inc()
}

func (m *Metrics) JobStarted() {
	if m == nil {
		return
	}
	m.jobsActive.Inc()
}

func (m *Metrics) JobFinished(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.jobsActive.Dec()
	m.jobsFinished.WithLabelValues(status).Inc()
	m.jobDuration.WithLabelValues(status).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveStage(stage string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func (m *Metrics) AddTokens(stage, model string, tokens int) {
	if m == nil || tokens <= 0 {
		return
	}
	m.tokensUsed.WithLabelValues(stage, model).Add(float64(tokens))
}

func (m *Metrics) RenderWarnings(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.renderWarnings.Add(float64(n))
}

func (m *Metrics) ObserveHTTP(method, route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveQuery(op string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil && !IsNoRows(err) {
		outcome = "error"
	}
	m.sqlDuration.WithLabelValues(op, outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) StaleJobsFailed(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.staleJobs.Add(float64(n))
}
