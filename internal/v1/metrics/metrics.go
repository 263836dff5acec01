package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the quiz room server.
//
// Naming convention: namespace_subsystem_name
// - namespace: quizarena (application-level grouping)
// - subsystem: websocket, room, ratelimit, snapshot, analytics, circuit_breaker
// - name: specific metric (connections_active, events_total, etc.)
//
// Metric Types:
// - Gauge: Current state (connections, rooms, participants)
// - Counter: Cumulative events (messages processed, errors)
// - Histogram: Latency distributions (processing time)

var (
	// ActiveWebSocketConnections tracks the current number of active WebSocket connections.
	ActiveWebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "quizarena",
		Subsystem: "websocket",
		Name:      "connections_active",
		Help:      "Current number of active WebSocket connections",
	})

	// ActiveRooms tracks the current number of active rooms.
	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "quizarena",
		Subsystem: "room",
		Name:      "rooms_active",
		Help:      "Current number of active rooms",
	})

	// RoomParticipants tracks the number of participants in each room, keyed by room code.
	RoomParticipants = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "quizarena",
		Subsystem: "room",
		Name:      "participants_count",
		Help:      "Number of participants in each room",
	}, []string{"room_code"})

	// RoundTransitions tracks round phase transitions per room.
	RoundTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quizarena",
		Subsystem: "room",
		Name:      "round_transitions_total",
		Help:      "Total round phase transitions",
	}, []string{"phase"})

	// TimerTicks tracks countdown timer ticks/expiries delivered to the room executor.
	TimerTicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quizarena",
		Subsystem: "room",
		Name:      "timer_ticks_total",
		Help:      "Total countdown timer ticks and expiries processed",
	}, []string{"kind"})

	// WebsocketEvents tracks the total number of WebSocket events processed.
	WebsocketEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quizarena",
		Subsystem: "websocket",
		Name:      "events_total",
		Help:      "Total WebSocket events processed",
	}, []string{"event_type", "status"})

	// MessageProcessingDuration tracks the time spent processing WebSocket messages.
	MessageProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "quizarena",
		Subsystem: "websocket",
		Name:      "message_processing_seconds",
		Help:      "Time spent processing WebSocket messages",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"event_type"})

	// SignalingMessagesRelayed tracks opaque WebRTC signaling blobs forwarded between clients.
	SignalingMessagesRelayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quizarena",
		Subsystem: "signaling",
		Name:      "messages_relayed_total",
		Help:      "Total signaling messages relayed between room participants",
	}, []string{"kind"})

	// CircuitBreakerState tracks the current state of the rate limiter's Redis circuit breaker.
	// 0: Closed (Healthy), 1: Open (Failure), 2: Half-Open (Recovering)
	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "quizarena",
		Subsystem: "circuit_breaker",
		Name:      "state",
		Help:      "Current state of the circuit breaker (0: Closed, 1: Open, 2: Half-Open)",
	}, []string{"service"})

	// CircuitBreakerFailures tracks the total number of requests rejected by the circuit breaker.
	CircuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quizarena",
		Subsystem: "circuit_breaker",
		Name:      "failures_total",
		Help:      "Total requests rejected by the circuit breaker",
	}, []string{"service"})

	// RateLimitExceeded tracks the total number of requests that exceeded the rate limit.
	RateLimitExceeded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quizarena",
		Subsystem: "ratelimit",
		Name:      "exceeded_total",
		Help:      "Total number of requests that exceeded the rate limit",
	}, []string{"endpoint", "reason"})

	// RateLimitRequests tracks the total number of requests checked against the rate limiter.
	RateLimitRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quizarena",
		Subsystem: "ratelimit",
		Name:      "requests_total",
		Help:      "Total number of requests checked against the rate limiter",
	}, []string{"endpoint"})

	// RedisOperationsTotal tracks the total number of Redis operations issued by the rate limiter store.
	RedisOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quizarena",
		Subsystem: "redis",
		Name:      "operations_total",
		Help:      "Total number of Redis operations",
	}, []string{"operation", "status"})

	// RedisOperationDuration tracks the duration of Redis operations.
	RedisOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "quizarena",
		Subsystem: "redis",
		Name:      "operation_duration_seconds",
		Help:      "Duration of Redis operations",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	// SnapshotDuration tracks how long periodic snapshot writes take.
	SnapshotDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "quizarena",
		Subsystem: "snapshot",
		Name:      "write_duration_seconds",
		Help:      "Duration of snapshot store writes",
		Buckets:   prometheus.DefBuckets,
	})

	// SnapshotFailures tracks snapshot write/load failures.
	SnapshotFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quizarena",
		Subsystem: "snapshot",
		Name:      "failures_total",
		Help:      "Total snapshot store failures",
	}, []string{"operation"})

	// AnalyticsAppendFailures tracks failed appends to the analytics sink.
	AnalyticsAppendFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quizarena",
		Subsystem: "analytics",
		Name:      "append_failures_total",
		Help:      "Total failed appends to the analytics sink",
	})
)

func IncConnection() {
	ActiveWebSocketConnections.Inc()
}

func DecConnection() {
	ActiveWebSocketConnections.Dec()
}
