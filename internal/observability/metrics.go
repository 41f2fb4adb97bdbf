package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "talepick_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"path", "method", "status"},
	)

	// ActiveConnections tracks active connections
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "talepick_active_connections",
			Help: "Number of active connections",
		},
	)

	// CacheHits tracks cache hits/misses
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "talepick_cache_hits_total",
			Help: "Number of cache hits and misses",
		},
		[]string{"operation"},
	)

	// VerificationCodesIssued tracks issued verification codes per purpose
	VerificationCodesIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "talepick_verification_codes_issued_total",
			Help: "Number of verification codes issued",
		},
		[]string{"purpose"},
	)

	// VerificationOutcomes tracks validation outcomes per purpose
	VerificationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "talepick_verification_outcomes_total",
			Help: "Number of verification attempts by outcome",
		},
		[]string{"purpose", "outcome"},
	)

	// SessionsCreated tracks session creation
	SessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "talepick_sessions_created_total",
			Help: "Number of sessions created",
		},
	)

	// CreditMutations tracks credit ledger writes
	CreditMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "talepick_credit_mutations_total",
			Help: "Number of credit ledger entries by type",
		},
		[]string{"type", "source"},
	)
)
