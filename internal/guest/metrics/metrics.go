package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the guest module.
type Metrics struct {
	RegistrationsTotal    prometheus.Counter
	RegistrationConflicts prometheus.Counter
	StatusChangesTotal    prometheus.Counter
	DeletionsTotal        prometheus.Counter
	BulkOperationsTotal   *prometheus.CounterVec
	BulkItemFailures      prometheus.Counter
}

// New creates a new Metrics instance with all guest module metrics registered.
func New() *Metrics {
	return &Metrics{
		RegistrationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "convene_guest_registrations_total",
			Help: "Total number of guests registered",
		}),
		RegistrationConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "convene_guest_registration_conflicts_total",
			Help: "Registrations rejected because the phone already exists for the event",
		}),
		StatusChangesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "convene_guest_status_changes_total",
			Help: "Total number of guest status transitions applied",
		}),
		DeletionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "convene_guest_deletions_total",
			Help: "Total number of guests deleted",
		}),
		BulkOperationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "convene_guest_bulk_operations_total",
			Help: "Bulk guest operations by operation kind",
		}, []string{"operation"}),
		BulkItemFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "convene_guest_bulk_item_failures_total",
			Help: "Individual items rejected within bulk operations",
		}),
	}
}
