package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	boardRequestsTotal  *prometheus.CounterVec
	boardLatencySeconds *prometheus.HistogramVec
	boardErrorsTotal    *prometheus.CounterVec
	postsCreatedTotal   prometheus.Counter
	postsRejectedTotal  *prometheus.CounterVec
	roomConnections     prometheus.Gauge
	roomEventsDropped   prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used by the board.
func RegisterMetrics() {
	registerOnce.Do(func() {
		boardRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "board_requests_total",
			Help: "Total number of board API requests served.",
		}, []string{"method", "route", "status"})

		boardLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "board_latency_seconds",
			Help:    "Latency distribution for board API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		boardErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "board_errors_total",
			Help: "Total number of error responses returned by board endpoints.",
		}, []string{"method", "route", "status"})

		postsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "board_posts_created_total",
			Help: "Total number of posts accepted by the ingestion pipeline.",
		})

		postsRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "board_posts_rejected_total",
			Help: "Total number of post submissions rejected, by reason.",
		}, []string{"reason"})

		roomConnections = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "board_room_connections",
			Help: "Number of websocket connections currently joined to rooms.",
		})

		roomEventsDropped = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "board_room_events_dropped_total",
			Help: "Total number of room events dropped for slow subscribers.",
		})

		prometheus.MustRegister(
			boardRequestsTotal,
			boardLatencySeconds,
			boardErrorsTotal,
			postsCreatedTotal,
			postsRejectedTotal,
			roomConnections,
			roomEventsDropped,
		)
	})
}

// BoardRequests exposes the counter for board requests.
func BoardRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return boardRequestsTotal
}

// BoardLatency exposes the latency histogram for board requests.
func BoardLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return boardLatencySeconds
}

// BoardErrors exposes the counter for board error responses.
func BoardErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return boardErrorsTotal
}

// PostsCreated exposes the counter for accepted posts.
func PostsCreated() prometheus.Counter {
	RegisterMetrics()
	return postsCreatedTotal
}

// PostsRejected exposes the counter for rejected post submissions.
func PostsRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return postsRejectedTotal
}

// RoomConnections exposes the gauge for active room connections.
func RoomConnections() prometheus.Gauge {
	RegisterMetrics()
	return roomConnections
}

// RoomEventsDropped exposes the counter for events lost to slow clients.
func RoomEventsDropped() prometheus.Counter {
	RegisterMetrics()
	return roomEventsDropped
}
