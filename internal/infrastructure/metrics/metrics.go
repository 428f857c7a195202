// Package metrics defines the Prometheus instruments for the money
// movement engine. Instruments register on the default registry at init;
// the router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransactionsProcessed counts money operations by type and outcome.
	TransactionsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transactor_transactions_total",
			Help: "Total money operations by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	// TransfersCompensated counts transfers whose credit leg failed and
	// whose debit was successfully restored.
	TransfersCompensated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transactor_transfers_compensated_total",
		Help: "Total transfers compensated after a failed credit leg",
	})

	// ReconciliationRequired counts transfers that left accounts
	// inconsistent and need operator attention.
	ReconciliationRequired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transactor_transfers_reconciliation_required_total",
		Help: "Total transfers requiring manual reconciliation",
	})

	// GatewayRequests counts account service calls by operation/outcome.
	GatewayRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transactor_gateway_requests_total",
			Help: "Total account service requests by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// NotificationsDropped counts notifications lost to a full queue.
	NotificationsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transactor_notifications_dropped_total",
		Help: "Total notifications dropped because the queue was full",
	})

	// NotificationsSent counts notifications delivered to the
	// notification service.
	NotificationsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transactor_notifications_sent_total",
		Help: "Total notifications delivered to the notification service",
	})
)
