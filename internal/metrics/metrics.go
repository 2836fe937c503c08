// Package metrics exposes Prometheus instrumentation for the scheduling
// core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters incremented by the service layer.
type Metrics struct {
	Registrations     *prometheus.CounterVec
	Promotions        prometheus.Counter
	Conflicts         prometheus.Counter
	SlotAssignments   *prometheus.CounterVec
	StatusTransitions *prometheus.CounterVec
}

// New registers all collectors against reg. Tests pass a fresh
// prometheus.NewRegistry to avoid cross-test collisions.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Registrations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "meetgrid",
				Subsystem: "scheduler",
				Name:      "registrations_total",
				Help:      "Registration attempts by outcome",
			},
			[]string{"outcome"},
		),
		Promotions: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "meetgrid",
				Subsystem: "scheduler",
				Name:      "waitlist_promotions_total",
				Help:      "Waitlist members promoted to confirmed",
			},
		),
		Conflicts: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "meetgrid",
				Subsystem: "scheduler",
				Name:      "scheduling_conflicts_total",
				Help:      "Conflict checks that found at least one overlap",
			},
		),
		SlotAssignments: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "meetgrid",
				Subsystem: "scheduler",
				Name:      "slot_assignments_total",
				Help:      "Game pod seat assignments by slot type",
			},
			[]string{"slot_type"},
		),
		StatusTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "meetgrid",
				Subsystem: "scheduler",
				Name:      "status_transitions_total",
				Help:      "Event lifecycle transitions by target status",
			},
			[]string{"to"},
		),
	}
}
