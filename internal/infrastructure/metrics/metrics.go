package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	PointsEarned      prometheus.Counter
	PointsUsed        prometheus.Counter
	PointsExpired     prometheus.Counter
	PointsRefunded    prometheus.Counter
	PointsClawedBack  prometheus.Counter
	EntriesCreated    *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	LockTimeouts      prometheus.Counter

	// Sweep metrics
	SweepRuns         prometheus.Counter
	SweepProcessed    prometheus.Gauge
	SweepFailures     prometheus.Gauge
	SweepLastRun      prometheus.Gauge
	NotificationsSent prometheus.Counter

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Outbox metrics
	OutboxPublished prometheus.Counter
	OutboxErrors    prometheus.Counter
	OutboxPending   prometheus.Gauge

	// Ops HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Ledger metrics
		PointsEarned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pointledger_points_earned_total",
			Help: "Total points credited by accrual entries",
		}),
		PointsUsed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pointledger_points_used_total",
			Help: "Total points consumed by FIFO allocation",
		}),
		PointsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pointledger_points_expired_total",
			Help: "Total points swept into expire debits",
		}),
		PointsRefunded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pointledger_points_refunded_total",
			Help: "Total points refunded by order cancellations",
		}),
		PointsClawedBack: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pointledger_points_clawed_back_total",
			Help: "Total points clawed back by order cancellations",
		}),
		EntriesCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pointledger_entries_created_total",
				Help: "Ledger entries created by kind",
			},
			[]string{"kind"},
		),
		OperationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pointledger_operation_duration_seconds",
				Help:    "Duration of ledger operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		LockTimeouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pointledger_lock_timeouts_total",
			Help: "Account lock acquisitions that timed out",
		}),

		// Sweep metrics
		SweepRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pointledger_sweep_runs_total",
			Help: "Expiry sweep passes completed",
		}),
		SweepProcessed: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pointledger_sweep_processed",
			Help: "Entries expired by the last sweep pass",
		}),
		SweepFailures: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pointledger_sweep_failures",
			Help: "Accounts the last sweep pass could not process",
		}),
		SweepLastRun: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pointledger_sweep_last_run_timestamp_seconds",
			Help: "Unix time of the last completed sweep pass",
		}),
		NotificationsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pointledger_expiry_notices_total",
			Help: "Accounts notified about upcoming expiry",
		}),

		// Cache metrics
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pointledger_balance_cache_hits_total",
			Help: "Balance snapshot cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pointledger_balance_cache_misses_total",
			Help: "Balance snapshot cache misses",
		}),

		// Outbox metrics
		OutboxPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pointledger_outbox_published_total",
			Help: "Outbox events published",
		}),
		OutboxErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pointledger_outbox_errors_total",
			Help: "Outbox publish failures",
		}),
		OutboxPending: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pointledger_outbox_pending",
			Help: "Outbox events waiting to be published",
		}),

		// Ops HTTP metrics
		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pointledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pointledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pointledger_http_requests_in_flight",
			Help: "HTTP requests currently being processed",
		}),
	}
}
