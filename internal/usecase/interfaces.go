package usecase

import (
	"context"
	"time"

	"github.com/gotoUSA/django-shopping-mall-sub001/internal/domain"
)

// AccountRepository defines data access for point accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	// CreateTx inserts the account inside tx; a concurrent insert of the
	// same ID is not an error (accounts are created lazily on first accrual).
	CreateTx(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	// GetByIDForUpdate locks the account row for the rest of the
	// transaction. This is the per-account mutual exclusion every mutating
	// ledger operation runs under; a bounded lock wait maps to
	// domain.ErrLockTimeout.
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance int64, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// EntryRepository defines data access for ledger entries.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.Entry) error
	GetByID(ctx context.Context, id string) (*domain.Entry, error)
	GetByIDTx(ctx context.Context, tx Transaction, id string) (*domain.Entry, error)
	// ListLiveAccruals returns the account's unexpired accruals with a
	// positive remainder, ordered earliest expiry first, entry ID as
	// tiebreaker. Callers mutating the result must hold the account lock.
	ListLiveAccruals(ctx context.Context, tx Transaction, accountID string) ([]*domain.Entry, error)
	// ListDueAccruals returns unexpired accruals with expires_at <= now for
	// one account, same ordering as ListLiveAccruals, without filtering on
	// the remainder (fully-used entries still need their expired flag set).
	ListDueAccruals(ctx context.Context, tx Transaction, accountID string, now time.Time) ([]*domain.Entry, error)
	// ListAccountIDsWithDue scans (without locks) for accounts that have at
	// least one unexpired accrual due at now.
	ListAccountIDsWithDue(ctx context.Context, now time.Time, limit int) ([]string, error)
	// ListExpiringUnnotified returns unexpired, unnotified accruals with a
	// positive remainder expiring inside (now, until], across all accounts.
	ListExpiringUnnotified(ctx context.Context, now, until time.Time, limit int) ([]*domain.Entry, error)
	// ListByOrderRef returns the account's entries carrying orderRef.
	ListByOrderRef(ctx context.Context, tx Transaction, accountID, orderRef string) ([]*domain.Entry, error)
	// ListByAccount pages the account's history newest first; beforeID is a
	// keyset cursor, empty for the first page.
	ListByAccount(ctx context.Context, accountID string, limit int, beforeID string) ([]*domain.Entry, error)
	// ListExpiringSoon returns one account's live accruals with a positive
	// remainder expiring inside (now, until].
	ListExpiringSoon(ctx context.Context, accountID string, now, until time.Time) ([]*domain.Entry, error)
	// AddToUsedAmount shifts the accrual's consumption counter by delta
	// (negative delta restores).
	AddToUsedAmount(ctx context.Context, tx Transaction, id string, delta int64) error
	MarkExpired(ctx context.Context, tx Transaction, id string) error
	MarkNotified(ctx context.Context, ids []string) error
	// SumRemaining computes the sum of (amount - used_amount) over the
	// account's unexpired accruals; the authoritative balance the cached
	// projection must equal.
	SumRemaining(ctx context.Context, accountID string) (int64, error)
	SumRemainingTx(ctx context.Context, tx Transaction, accountID string) (int64, error)
}

// UsageRepository defines data access for consumption usage events.
type UsageRepository interface {
	Create(ctx context.Context, tx Transaction, usage *domain.Usage) error
	// ListByUseEntry returns the draw-list recorded for a consuming entry,
	// in draw order.
	ListByUseEntry(ctx context.Context, tx Transaction, useEntryID string) ([]*domain.Usage, error)
	// ListByEntry returns an accrual's usage history, oldest first.
	ListByEntry(ctx context.Context, entryID string) ([]*domain.Usage, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Retrier re-runs a transactional operation after transient store failures
// (deadlock, serialization). Typed domain failures pass through untouched.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs. Generated IDs must sort in creation
// order; allocation and expiry use them as the FIFO tiebreaker.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations for read-side balance snapshots.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Notifier delivers expiring-point notices. A failed delivery leaves the
// bundle's entries unmarked so the next sweep retries them.
type Notifier interface {
	NotifyExpiring(ctx context.Context, accountID string, entries []*domain.Entry, total int64) error
}
