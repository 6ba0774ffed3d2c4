package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus collectors. The engine serves
// no HTTP itself; hosts register these on their own /metrics registry.
type Metrics struct {
	ReconcileRuns      prometheus.Counter
	MilestonesInserted *prometheus.CounterVec
	MilestonesDeleted  *prometheus.CounterVec
	MilestoneFailures  prometheus.Counter
}

// NewMetrics creates unregistered collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		ReconcileRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recovery_engine_reconcile_runs_total",
			Help: "Total number of milestone reconciliation passes",
		}),
		MilestonesInserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recovery_engine_milestones_inserted_total",
			Help: "Milestone records inserted, by kind",
		}, []string{"kind"}),
		MilestonesDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recovery_engine_milestones_deleted_total",
			Help: "Milestone records deleted after retroactive edits, by kind",
		}, []string{"kind"}),
		MilestoneFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recovery_engine_milestone_write_failures_total",
			Help: "Milestone store writes that failed and were skipped",
		}),
	}
}

// Register registers all collectors on the given registerer.
func (m *Metrics) Register(reg prometheus.Registerer) {
	reg.MustRegister(
		m.ReconcileRuns,
		m.MilestonesInserted,
		m.MilestonesDeleted,
		m.MilestoneFailures,
	)
}
