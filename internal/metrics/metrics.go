package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ============================================
	// Sign-in flow
	// ============================================
	MessagesIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "siwe_messages_issued_total",
			Help: "Total number of sign-in messages built and handed to clients",
		},
		[]string{"chain"},
	)

	Verifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "siwe_verifications_total",
			Help: "Total number of sign-in verifications by outcome",
		},
		[]string{"chain", "result", "reason"},
	)

	VerificationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "siwe_verification_duration_seconds",
		Help:    "Time spent verifying a signed sign-in message",
		Buckets: prometheus.DefBuckets,
	})

	SessionsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "siwe_sessions_issued_total",
		Help: "Total number of session tokens issued after a successful sign-in",
	})

	// ============================================
	// Nonce store
	// ============================================
	NoncesSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "siwe_nonces_swept_total",
		Help: "Total number of expired nonces removed by the sweeper",
	})

	NoncesActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "siwe_nonces_active",
		Help: "Number of issued, unexpired nonces (database store only)",
	})

	NonceStoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "siwe_nonce_store_errors_total",
			Help: "Total number of nonce store failures",
		},
		[]string{"operation"},
	)

	// ============================================
	// Database / NATS connectivity
	// ============================================
	DBConnectionStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "siwe_db_connection_status",
		Help: "Database connection status (1=healthy, 0=unhealthy)",
	})

	NATSConnectionStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "siwe_nats_connection_status",
		Help: "NATS connection status (1=connected, 0=disconnected)",
	})

	NATSMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "siwe_nats_messages_published_total",
			Help: "Total number of sign-in events published to NATS",
		},
		[]string{"subject"},
	)

	NATSMessagesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "siwe_nats_messages_failed_total",
			Help: "Total number of sign-in events that failed to publish",
		},
		[]string{"subject"},
	)
)
