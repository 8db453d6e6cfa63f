package ws

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "aurios_websocket_active_connections",
		Help: "Number of currently registered websocket connections.",
	})

	metricConnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aurios_websocket_connects_total",
		Help: "Total accepted websocket connections.",
	})

	metricDisconnects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aurios_websocket_disconnects_total",
		Help: "Total websocket disconnects by reason.",
	}, []string{"reason"})

	metricMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aurios_websocket_messages_total",
		Help: "Total inbound websocket messages by type.",
	}, []string{"type"})

	metricRateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aurios_websocket_rate_limited_total",
		Help: "Total inbound messages rejected by the per-user rate limit.",
	})

	metricConnectionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aurios_websocket_connections_rejected_total",
		Help: "Total connection attempts rejected by a connection cap.",
	}, []string{"scope"})

	metricStaleEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aurios_websocket_stale_evictions_total",
		Help: "Total connections evicted by the idle sweep.",
	})
)
