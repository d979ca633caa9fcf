package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Presence session metrics
var (
	// SessionsJoined tracks websocket sessions by join outcome
	// (joined, rejected_auth, rejected_request, store_error).
	SessionsJoined = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_sessions_total",
			Help: "Websocket presence sessions by join outcome",
		},
		[]string{"outcome"},
	)

	// ActiveSessions tracks currently joined sessions on this instance.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "presence_active_sessions",
			Help: "Currently joined presence sessions on this instance",
		},
	)

	// SnapshotPushes tracks presence snapshot deliveries by trigger
	// (join, tick, who, disconnect).
	SnapshotPushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_snapshot_pushes_total",
			Help: "Presence snapshot deliveries by trigger",
		},
		[]string{"trigger"},
	)

	// ConnectionsLimited tracks websocket dials refused at admission
	// (instance_cap, per_ip_cap, dial_rate).
	ConnectionsLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_connections_limited_total",
			Help: "Websocket dials refused at admission by reason",
		},
		[]string{"reason"},
	)
)

// Broadcast metrics
var (
	// PubSubMessagesPublished tracks messages published to the relay.
	PubSubMessagesPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pubsub_messages_published_total",
			Help: "Messages published to the cross-instance relay",
		},
	)

	// PubSubMessagesReceived tracks messages received from the relay.
	PubSubMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pubsub_messages_received_total",
			Help: "Messages received from the cross-instance relay",
		},
	)

	// BroadcastGroups tracks groups with at least one local subscriber.
	BroadcastGroups = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "broadcast_groups",
			Help: "Groups with at least one local subscriber",
		},
	)

	// BroadcastDropped tracks deliveries dropped because a subscriber was slow.
	BroadcastDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcast_dropped_total",
			Help: "Deliveries dropped due to slow subscribers",
		},
	)
)

// Redis metrics
var (
	// RedisOpsTotal tracks Redis operations by operation and status.
	RedisOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_operations_total",
			Help: "Total Redis operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	// RedisOpDuration tracks Redis operation latency in seconds.
	RedisOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Redis operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// RedisConnectionErrors tracks Redis connection errors.
	RedisConnectionErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redis_connection_errors_total",
			Help: "Total Redis connection errors",
		},
	)

	// CircuitBreakerStateChanges tracks circuit breaker state transitions.
	CircuitBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_changes_total",
			Help: "Circuit breaker state transitions by component and new state",
		},
		[]string{"component", "state"},
	)

	// CircuitBreakerState tracks current circuit breaker state
	// (0=closed, 1=half-open, 2=open).
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"component"},
	)
)
