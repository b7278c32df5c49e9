// Package metrics exposes the relay's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ghostwire",
		Name:      "connected_clients",
		Help:      "Number of currently connected websocket clients.",
	})

	MessagesRelayed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ghostwire",
		Name:      "messages_relayed_total",
		Help:      "Total messages accepted from clients and fanned out.",
	})

	DeliveryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ghostwire",
		Name:      "delivery_failures_total",
		Help:      "Deliveries dropped because a target queue was full or dead.",
	})
)
