package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the application's custom Prometheus metrics
type Metrics struct {
	WebSocketConnections prometheus.Gauge
	ChatRequests         *prometheus.CounterVec
	ChatFallbackReplies  prometheus.Counter
}

// InitMetrics registers the custom metrics with the default registry
func InitMetrics() *Metrics {
	return &Metrics{
		WebSocketConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "folio_websocket_connections_active",
			Help: "Number of active WebSocket connections",
		}),

		ChatRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_chat_requests_total",
			Help: "Total number of chat messages handled, by transport",
		}, []string{"transport"}), // "rest" or "socket"

		ChatFallbackReplies: promauto.NewCounter(prometheus.CounterOpts{
			Name: "folio_chat_fallback_replies_total",
			Help: "Total number of canned replies served because the AI provider failed",
		}),
	}
}
