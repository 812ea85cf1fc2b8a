// Package metrics exposes process-wide Prometheus collectors for the
// realtime subsystem. Collectors are registered on the default registry and
// served by the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_active_connections",
		Help: "Number of websocket sessions currently registered on this instance.",
	})

	EventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_events_processed_total",
		Help: "Inbound client events processed, by event type.",
	}, []string{"type"})

	EventsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_events_rejected_total",
		Help: "Inbound client events rejected, by reason.",
	}, []string{"reason"})

	EventsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_events_published_total",
		Help: "Events published to the broker.",
	})

	PublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_publish_failures_total",
		Help: "Broker publish attempts that failed and fell back to the retry queue.",
	})

	LocalDeliveries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_local_deliveries_total",
		Help: "Events delivered directly to local sessions while the broker was degraded.",
	})
)
