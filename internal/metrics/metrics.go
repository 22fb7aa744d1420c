// Package metrics records planner outcomes in a per-process Prometheus
// registry. A nil *Metrics is valid and records nothing.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/julianstephens/trainplan/internal/models"
)

const namespace = "trainplan"

// Operation labels
const (
	OpPreview     = "preview"
	OpCreate      = "create"
	OpSuggest     = "suggest"
	OpConstraints = "validate_constraints"
)

// Outcome labels
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics holds the planner's collectors
type Metrics struct {
	registry *prometheus.Registry

	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	SelectedTier    *prometheus.CounterVec
	TierCandidates  *prometheus.CounterVec
	TierPruned      *prometheus.CounterVec
	Feasibility     *prometheus.CounterVec
	Degradations    *prometheus.CounterVec
}

// New registers every collector on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "requests_total",
			Help:      "Planner requests by operation and outcome",
		}, []string{"operation", "outcome"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "request_duration_seconds",
			Help:      "Planner request latency in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"operation"}),
		SelectedTier: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "optimizer",
			Name:      "selected_tier_total",
			Help:      "Projections by the optimizer tier that produced them",
		}, []string{"tier"}),
		TierCandidates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "optimizer",
			Name:      "candidates_total",
			Help:      "Candidate trajectories scored per tier",
		}, []string{"tier"}),
		TierPruned: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "optimizer",
			Name:      "pruned_total",
			Help:      "Candidate trajectories pruned per tier",
		}, []string{"tier"}),
		Feasibility: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feasibility",
			Name:      "verdicts_total",
			Help:      "Projection feasibility verdicts by state",
		}, []string{"state"}),
		Degradations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "context",
			Name:      "rationale_total",
			Help:      "Training context rationale codes emitted",
		}, []string{"code"}),
	}
}

// Registry exposes the underlying registry for gathering
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRequest counts one request and observes its latency
func (m *Metrics) RecordRequest(op, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(op, outcome).Inc()
	m.RequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// RecordProjection counts the selected tier, per-tier work and the verdict
func (m *Metrics) RecordProjection(diag models.ProjectionDiagnostics, state models.FeasibilityState) {
	if m == nil {
		return
	}
	m.SelectedTier.WithLabelValues(string(diag.SelectedPath)).Inc()
	for _, path := range models.OptimizerPaths {
		m.TierCandidates.WithLabelValues(string(path)).Add(float64(diag.CandidateCounts.Get(path)))
		m.TierPruned.WithLabelValues(string(path)).Add(float64(diag.PruneCounts.Get(path)))
	}
	m.Feasibility.WithLabelValues(string(state)).Inc()
}

// RecordRationale counts each rationale code of a derived context
func (m *Metrics) RecordRationale(codes []string) {
	if m == nil {
		return
	}
	for _, code := range codes {
		m.Degradations.WithLabelValues(code).Inc()
	}
}

// WriteTextfile writes the registry in text exposition format for a
// node-exporter textfile collector. An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
