// Package observability exposes the process metrics scraped on /metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_connections_active",
			Help: "Live connections held by the session registry",
		},
	)

	ConnectionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_connections_rejected_total",
			Help: "Connections refused by the admission gate",
		},
		[]string{"reason"},
	)

	MessagesPersisted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_persisted_total",
			Help: "Messages committed together with their sender receipt",
		},
		[]string{"type"},
	)

	PersistenceFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_persistence_failures_total",
			Help: "Message transactions that did not commit",
		},
	)

	ReadReceipts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_read_receipts_total",
			Help: "Read receipts recorded",
		},
	)

	Reactivations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_reactivations_total",
			Help: "Hidden memberships made visible again by a new message",
		},
		[]string{"room_type"},
	)

	FanoutDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_fanout_deliveries_total",
			Help: "Events handed to live connections",
		},
		[]string{"event"},
	)

	FanoutDrops = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_fanout_drops_total",
			Help: "Events a live connection could not accept",
		},
		[]string{"event"},
	)

	WorkerRestarts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_worker_restarts_total",
			Help: "Supervised workers restarted after a failure",
		},
		[]string{"worker"},
	)

	ProcessRSS = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_process_rss_bytes",
			Help: "Resident memory of the server process",
		},
	)

	ProcessCPU = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_process_cpu_percent",
			Help: "CPU usage of the server process",
		},
	)

	ChannelLength = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chat_channel_length",
			Help: "Items waiting in an internal queue",
		},
		[]string{"channel"},
	)

	ChannelCapacity = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chat_channel_capacity",
			Help: "Size of an internal queue",
		},
		[]string{"channel"},
	)
)
