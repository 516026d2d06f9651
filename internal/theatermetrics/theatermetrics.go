// Package theatermetrics provides Prometheus instrumentation for the
// theater runtime.
package theatermetrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns every metric the scheduler, agents, and exchanges report
// to.
type Manager struct {
	registry *prometheus.Registry
	enabled  bool

	gigsStarted  *prometheus.CounterVec
	gigsFinished *prometheus.CounterVec
	gigDuration  *prometheus.HistogramVec

	agentsCast      prometheus.Counter
	agentsBuried    *prometheus.CounterVec
	agentsSuspended prometheus.Counter

	incidentsJudged *prometheus.CounterVec

	interruptDuration *prometheus.HistogramVec
	readyDepth        prometheus.Gauge

	exchangeBuffered        *prometheus.GaugeVec
	exchangeBlockedProducer *prometheus.GaugeVec
	exchangeBlockedConsumer *prometheus.GaugeVec
}

// Config controls whether metrics collection is enabled and the
// histogram buckets used for durations.
type Config struct {
	Enabled          bool
	GigDurationSecs  []float64
	InterruptBuckets []float64
}

// DefaultConfig mirrors the scheduler's budget table: gig durations are
// expected in the low milliseconds, interrupts bounded by their budget.
func DefaultConfig() Config {
	return Config{
		Enabled:          true,
		GigDurationSecs:  []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		InterruptBuckets: []float64{0.001, 0.002, 0.004, 0.006, 0.008, 0.01, 0.02, 0.05},
	}
}

// NewManager builds a Manager registered against a fresh registry, or a
// disabled no-op Manager if cfg.Enabled is false.
func NewManager(cfg Config) *Manager {
	if !cfg.Enabled {
		return &Manager{enabled: false}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Manager{registry: registry, enabled: true}

	m.gigsStarted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "theater_gigs_started_total",
		Help: "Total number of gigs that took the stage.",
	}, []string{"selector"})
	m.gigsFinished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "theater_gigs_finished_total",
		Help: "Total number of gigs that reached Fate, by outcome.",
	}, []string{"outcome"})
	m.gigDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "theater_gig_duration_seconds",
		Help:    "Wall time a gig spent from first take-stage to Fate.",
		Buckets: cfg.GigDurationSecs,
	}, []string{"selector"})

	m.agentsCast = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "theater_agents_cast_total",
		Help: "Total number of agents cast.",
	})
	m.agentsBuried = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "theater_agents_buried_total",
		Help: "Total number of agents buried, by verdict that caused it.",
	}, []string{"verdict"})
	m.agentsSuspended = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "theater_agents_suspended_total",
		Help: "Total number of agent suspensions.",
	})

	m.incidentsJudged = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "theater_incidents_judged_total",
		Help: "Total number of incidents judged by a guard, by verdict.",
	}, []string{"verdict"})

	m.interruptDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "theater_interrupt_duration_seconds",
		Help:    "Wall time an interrupt spent driving its playlist.",
		Buckets: cfg.InterruptBuckets,
	}, []string{"priority"})
	m.readyDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "theater_ready_agents",
		Help: "Current number of agents with workload waiting.",
	})

	m.exchangeBuffered = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "theater_exchange_buffered",
		Help: "Current buffered item count, by exchange name.",
	}, []string{"exchange"})
	m.exchangeBlockedProducer = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "theater_exchange_blocked_producers",
		Help: "Current blocked producer count, by exchange name.",
	}, []string{"exchange"})
	m.exchangeBlockedConsumer = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "theater_exchange_blocked_consumers",
		Help: "Current blocked consumer count, by exchange name.",
	}, []string{"exchange"})

	registry.MustRegister(
		m.gigsStarted, m.gigsFinished, m.gigDuration,
		m.agentsCast, m.agentsBuried, m.agentsSuspended,
		m.incidentsJudged, m.interruptDuration, m.readyDepth,
		m.exchangeBuffered, m.exchangeBlockedProducer, m.exchangeBlockedConsumer,
	)
	return m
}

// NoOpManager is a Manager that records nothing; used when metrics are
// disabled.
func NoOpManager() *Manager { return &Manager{enabled: false} }

// Enabled reports whether this Manager actually records metrics.
func (m *Manager) Enabled() bool { return m.enabled }

// Handler returns the HTTP handler for the /metrics endpoint.
func (m *Manager) Handler() http.Handler {
	if !m.enabled {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) })
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Manager) GigStarted(selector string) {
	if m.enabled {
		m.gigsStarted.WithLabelValues(selector).Inc()
	}
}

func (m *Manager) GigFinished(outcome string, selector string, seconds float64) {
	if !m.enabled {
		return
	}
	m.gigsFinished.WithLabelValues(outcome).Inc()
	m.gigDuration.WithLabelValues(selector).Observe(seconds)
}

func (m *Manager) AgentCast() {
	if m.enabled {
		m.agentsCast.Inc()
	}
}

func (m *Manager) AgentBuried(verdict string) {
	if m.enabled {
		m.agentsBuried.WithLabelValues(verdict).Inc()
	}
}

func (m *Manager) AgentSuspended() {
	if m.enabled {
		m.agentsSuspended.Inc()
	}
}

func (m *Manager) IncidentJudged(verdict string) {
	if m.enabled {
		m.incidentsJudged.WithLabelValues(verdict).Inc()
	}
}

func (m *Manager) InterruptHandled(priority string, seconds float64) {
	if m.enabled {
		m.interruptDuration.WithLabelValues(priority).Observe(seconds)
	}
}

func (m *Manager) SetReadyDepth(n int) {
	if m.enabled {
		m.readyDepth.Set(float64(n))
	}
}

func (m *Manager) SetExchangeStats(name string, buffered, blockedProducers, blockedConsumers int) {
	if !m.enabled {
		return
	}
	m.exchangeBuffered.WithLabelValues(name).Set(float64(buffered))
	m.exchangeBlockedProducer.WithLabelValues(name).Set(float64(blockedProducers))
	m.exchangeBlockedConsumer.WithLabelValues(name).Set(float64(blockedConsumers))
}
