package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Backtest metrics
	runsTotal     *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	tradesTotal   *prometheus.CounterVec
	signalsFired  *prometheus.CounterVec
	modelFits     *prometheus.CounterVec
	jobsActive    *prometheus.GaugeVec
	datasetsCache prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	r.runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strategylab_runs_total",
			Help: "Total number of backtest runs",
		},
		[]string{"strategy", "mode", "status"},
	)
	r.runDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "strategylab_run_duration_seconds",
			Help:    "Backtest run duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"mode"},
	)
	r.tradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strategylab_trades_total",
			Help: "Total number of closed simulated trades",
		},
		[]string{"strategy", "mode", "outcome"},
	)
	r.signalsFired = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strategylab_signals_total",
			Help: "Total number of bars flagged by a signal column",
		},
		[]string{"signal"},
	)
	r.modelFits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strategylab_model_fits_total",
			Help: "Total number of learned-signal fits",
		},
		[]string{"model", "status"},
	)
	r.jobsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "strategylab_jobs_active",
			Help: "Number of active jobs",
		},
		[]string{"type"},
	)
	r.datasetsCache = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "strategylab_datasets_cached",
			Help: "Number of series held in the dataset cache",
		},
	)

	reg.MustRegister(r.runsTotal)
	reg.MustRegister(r.runDuration)
	reg.MustRegister(r.tradesTotal)
	reg.MustRegister(r.signalsFired)
	reg.MustRegister(r.modelFits)
	reg.MustRegister(r.jobsActive)
	reg.MustRegister(r.datasetsCache)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordRun records a finished run. Status is "completed", "no_trades" or
// "failed".
func (r *Registry) RecordRun(strategy, mode, status string, duration float64) {
	r.runsTotal.WithLabelValues(strategy, mode, status).Inc()
	r.runDuration.WithLabelValues(mode).Observe(duration)
}

// RecordTrades records closed trades by outcome.
func (r *Registry) RecordTrades(strategy, mode string, wins, losses int) {
	r.tradesTotal.WithLabelValues(strategy, mode, "win").Add(float64(wins))
	r.tradesTotal.WithLabelValues(strategy, mode, "loss").Add(float64(losses))
}

// RecordSignals records how many bars a signal column flagged.
func (r *Registry) RecordSignals(signal string, count int) {
	r.signalsFired.WithLabelValues(signal).Add(float64(count))
}

// RecordModelFit records a learned-signal fit.
func (r *Registry) RecordModelFit(model, status string) {
	r.modelFits.WithLabelValues(model, status).Inc()
}

// SetJobsActive sets the number of active jobs of a type.
func (r *Registry) SetJobsActive(jobType string, count int) {
	r.jobsActive.WithLabelValues(jobType).Set(float64(count))
}

// SetDatasetsCached sets the dataset cache size.
func (r *Registry) SetDatasetsCached(n int) {
	r.datasetsCache.Set(float64(n))
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
