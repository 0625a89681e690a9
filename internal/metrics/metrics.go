// Package metrics defines the prometheus collectors of the server.
package metrics

import (
	"sync"

	"lounge/backend/internal/apperror"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)
	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_ws_connections",
			Help: "Currently open chat websocket connections",
		},
	)
	LiveEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_live_events_total",
			Help: "Live events handed to user rooms, by outcome",
		},
		[]string{"result"},
	)
	FriendOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friend_operations_total",
			Help: "Friend graph operations, by operation and result",
		},
		[]string{"op", "result"},
	)
)

var registerOnce sync.Once

// Register adds the collectors to the default registry. Call this from main.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(HTTPRequestsTotal)
		prometheus.MustRegister(HTTPRequestDuration)
		prometheus.MustRegister(WSConnections)
		prometheus.MustRegister(LiveEvents)
		prometheus.MustRegister(FriendOperations)
	})
}

// ObserveFriendOp counts one friend operation, labelling failures by error kind.
func ObserveFriendOp(op string, err error) {
	result := "ok"
	if err != nil {
		result = string(apperror.KindOf(err))
	}
	FriendOperations.WithLabelValues(op, result).Inc()
}
