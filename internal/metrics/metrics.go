package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActiveWebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voice_relay_active_websocket_connections",
		Help: "Number of active WebSocket connections",
	})

	WebSocketConnectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_relay_websocket_connections_total",
		Help: "Total number of WebSocket connections",
	})

	WebSocketDisconnectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_relay_websocket_disconnections_total",
		Help: "Total number of WebSocket disconnections",
	})

	ActiveUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voice_relay_active_users",
		Help: "Number of registered users",
	})

	UsersRegisteredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_relay_users_registered_total",
		Help: "Total number of users registered",
	})

	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voice_relay_active_rooms",
		Help: "Number of existing rooms",
	})

	RoomsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_relay_rooms_created_total",
		Help: "Total number of rooms created",
	})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voice_relay_active_sessions",
		Help: "Number of active WebRTC sessions",
	})

	SessionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_relay_sessions_created_total",
		Help: "Total number of WebRTC sessions created",
	})

	SessionFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_relay_session_failures_total",
		Help: "Total number of WebRTC session failures",
	}, []string{"reason"})

	SessionStateChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_relay_session_state_changes_total",
		Help: "Session connection state changes",
	}, []string{"state"})

	ICECandidatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_relay_ice_candidates_total",
		Help: "Total number of ICE candidates",
	}, []string{"direction"}) // "in" | "out"

	RelayPacketsIngestedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_relay_packets_ingested_total",
		Help: "Total audio packets accepted into room queues",
	})

	RelayPacketsForwardedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_relay_packets_forwarded_total",
		Help: "Total audio packets forwarded to recipients",
	})

	RelayPacketsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_relay_packets_dropped_total",
		Help: "Total audio packets dropped due to full room queues",
	})

	RelaySendFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_relay_send_failures_total",
		Help: "Total failed audio sends to individual recipients",
	})

	RelayTickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voice_relay_tick_duration_seconds",
		Help:    "Duration of relay fan-out ticks",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 10), // 100us to ~50ms
	})

	RelayTicksSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_relay_ticks_skipped_total",
		Help: "Total relay ticks skipped because the previous tick was still running",
	})

	SignallingMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_relay_signalling_messages_total",
		Help: "Total signalling messages",
	}, []string{"type", "direction"}) // direction: "in" | "out"

	RTCPPacketsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_relay_rtcp_packets_total",
		Help: "Total RTCP packets received from recipients",
	}, []string{"type"})

	ConfigReloads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_relay_config_reloads_total",
		Help: "Number of configuration reloads",
	})

	StartTime = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voice_relay_start_time_seconds",
		Help: "Server start time in Unix seconds",
	})
)
