package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultSweepAccountLimit caps how many accounts one expiry pass scans
	DefaultSweepAccountLimit = 10000

	// DefaultNotifyBatchLimit caps how many entries one notification pass scans
	DefaultNotifyBatchLimit = 10000

	// DefaultHistoryPageSize and MaxHistoryPageSize bound history pagination
	DefaultHistoryPageSize = 50
	MaxHistoryPageSize     = 500

	// ReconcilePageSize is how many accounts one reconciliation page loads
	ReconcilePageSize = 500

	// BalanceCacheTTL is how long read-side balance snapshots are cached
	BalanceCacheTTL = 5 * time.Minute
)
