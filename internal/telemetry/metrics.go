/**
 * @description
 * This file declares the Prometheus metrics exposed on /metrics. Metrics are
 * registered with promauto on the default registry so a promhttp handler
 * serves them without extra wiring.
 */

package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransferTotal counts transfer attempts by final status.
	TransferTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transfer_total",
		Help: "Total number of transfer attempts by outcome status.",
	}, []string{"status"})

	// TransferErrors counts rejected or failed transfer attempts by reason.
	TransferErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transfer_errors_total",
		Help: "Total number of rejected or failed transfer attempts by reason.",
	}, []string{"reason"})

	// TransferDuration observes the end-to-end latency of transfer attempts.
	TransferDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "transfer_duration_seconds",
		Help:    "End-to-end duration of transfer attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	})

	// NotificationTotal counts payee notification deliveries by outcome.
	NotificationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transfer_notification_total",
		Help: "Total number of payee notification attempts by outcome.",
	}, []string{"outcome"})

	// OutboxPublishedTotal counts completion events handed to the broker.
	OutboxPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transfer_outbox_published_total",
		Help: "Total number of completion events published from the outbox.",
	})
)
