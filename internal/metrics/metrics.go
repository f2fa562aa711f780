// Package metrics exposes reconciliation runs as Prometheus metrics. The
// collectors are fed by client hooks, so the engine itself stays unaware
// of them.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentstation/catalogsync"
	"github.com/agentstation/catalogsync/pkg/revert"
)

const namespace = "catalogsync"

// Metrics holds the collectors and the registry they are registered with.
type Metrics struct {
	registry *prometheus.Registry

	runs         *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	failures     *prometheus.CounterVec
	matches      *prometheus.CounterVec
	violations   *prometheus.CounterVec
	mutations    *prometheus.CounterVec
	flagChanges  *prometheus.CounterVec
	reverts      *prometheus.CounterVec
	lastSuccess  *prometheus.GaugeVec
	historyFails *prometheus.CounterVec
}

// New creates the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed reconciliation runs.",
		}, []string{"tenant", "kind", "trigger", "dry_run"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of reconciliation runs.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 1800},
		}, []string{"tenant", "kind"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_failures_total",
			Help:      "Runs aborted by a fatal error.",
		}, []string{"tenant"}),
		matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_total",
			Help:      "Feed records matched to catalog variants, by validity.",
		}, []string{"tenant", "valid"}),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "violations_total",
			Help:      "Validation violations by code.",
		}, []string{"tenant", "code"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_mutations_total",
			Help:      "Variant price mutations by outcome.",
		}, []string{"tenant", "outcome"}),
		flagChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flag_mutations_total",
			Help:      "Availability flag mutations by outcome.",
		}, []string{"tenant", "outcome"}),
		reverts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reverted_variants_total",
			Help:      "Variants restored by reverts, by outcome.",
		}, []string{"tenant", "outcome"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Start time of the last completed non-dry price run.",
		}, []string{"tenant"}),
		historyFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_write_failures_total",
			Help:      "History entries that could not be persisted.",
		}, []string{"tenant"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.runs, m.runDuration, m.failures, m.matches, m.violations,
		m.mutations, m.flagChanges, m.reverts, m.lastSuccess, m.historyFails,
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Register subscribes the collectors to the client's run hooks.
func (m *Metrics) Register(h catalogsync.Hooks) {
	h.OnRunCompleted(m.observeRun)
	h.OnFlagRunCompleted(m.observeFlagRun)
	h.OnRunFailed(func(tenant, _ string, _ error) {
		m.failures.WithLabelValues(tenant).Inc()
	})
	h.OnRunReverted(m.observeRevert)
}

func (m *Metrics) observeRun(r *catalogsync.RunResult) {
	m.runs.WithLabelValues(r.Tenant, "prices", string(r.TriggeredBy), strconv.FormatBool(r.DryRun)).Inc()
	m.runDuration.WithLabelValues(r.Tenant, "prices").Observe(r.Duration.Seconds())
	m.matches.WithLabelValues(r.Tenant, "true").Add(float64(r.ValidMatches))
	m.matches.WithLabelValues(r.Tenant, "false").Add(float64(r.InvalidMatches))
	for code, n := range r.ViolationsByCode {
		m.violations.WithLabelValues(r.Tenant, string(code)).Add(float64(n))
	}
	if r.DryRun {
		return
	}
	m.mutations.WithLabelValues(r.Tenant, "successful").Add(float64(r.Successful))
	m.mutations.WithLabelValues(r.Tenant, "failed").Add(float64(r.Failed))
	m.historyFails.WithLabelValues(r.Tenant).Add(float64(r.HistoryFailures))
	m.lastSuccess.WithLabelValues(r.Tenant).Set(float64(r.StartedAt.Unix()))
}

func (m *Metrics) observeFlagRun(r *catalogsync.FlagResult) {
	m.runs.WithLabelValues(r.Tenant, "flags", string(r.TriggeredBy), strconv.FormatBool(r.DryRun)).Inc()
	m.runDuration.WithLabelValues(r.Tenant, "flags").Observe(r.Duration.Seconds())
	if r.DryRun {
		return
	}
	m.flagChanges.WithLabelValues(r.Tenant, "successful").Add(float64(r.Successful))
	m.flagChanges.WithLabelValues(r.Tenant, "failed").Add(float64(r.Failed))
}

func (m *Metrics) observeRevert(r *revert.Result) {
	m.reverts.WithLabelValues(r.Tenant, "successful").Add(float64(r.Successful))
	m.reverts.WithLabelValues(r.Tenant, "failed").Add(float64(r.Failed))
}
