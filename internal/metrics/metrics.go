package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the chain collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ChainsStarted  prometheus.Counter
	ChainsFinished *prometheus.CounterVec
	ChainsActive   prometheus.Gauge
	Attempts       *prometheus.CounterVec
	StageDuration  *prometheus.HistogramVec
	PagesFetched   *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ChainsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "quiz_chains_started_total",
			Help: "Quiz chains launched",
		}),
		ChainsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_chains_finished_total",
			Help: "Quiz chains that reached a terminal state",
		}, []string{"state"}),
		ChainsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "quiz_chains_active",
			Help: "Quiz chains currently running",
		}),
		Attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_attempts_total",
			Help: "Answer submissions by verdict",
		}, []string{"verdict"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quiz_stage_duration_seconds",
			Help:    "Duration of fetch, solve and submit stages",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"stage"}),
		PagesFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_pages_fetched_total",
			Help: "Quiz pages loaded, by HTTP status and whether the result container was found",
		}, []string{"status", "narrowed"}),
	}
}

func (m *Metrics) ChainStarted() {
	if m == nil {
		return
	}
	m.ChainsStarted.Inc()
	m.ChainsActive.Inc()
}

func (m *Metrics) ChainFinished(state string) {
	if m == nil {
		return
	}
	m.ChainsActive.Dec()
	m.ChainsFinished.WithLabelValues(state).Inc()
}

func (m *Metrics) Attempt(correct bool) {
	if m == nil {
		return
	}
	verdict := "incorrect"
	if correct {
		verdict = "correct"
	}
	m.Attempts.WithLabelValues(verdict).Inc()
}

func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// PageFetched counts a loaded page. A status of 0 means the fetcher could not observe one.
func (m *Metrics) PageFetched(status int, narrowed bool) {
	if m == nil {
		return
	}
	m.PagesFetched.WithLabelValues(strconv.Itoa(status), strconv.FormatBool(narrowed)).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
