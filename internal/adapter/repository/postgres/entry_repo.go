package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gotoUSA/django-shopping-mall-sub001/internal/domain"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/infrastructure/postgres/generated"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	pool    *pgxpool.Pool
	queries *generated.Queries
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{
		pool:    pool,
		queries: generated.New(pool),
	}
}

// Create creates a new entry within a transaction. A balance_after the CHECK
// constraint rejects surfaces as ErrInsufficientBalance; the usecase layer
// should have refused the draw before getting here.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	_, err := queries.CreatePointEntry(ctx, generated.CreatePointEntryParams{
		ID:           entry.ID,
		AccountID:    entry.AccountID,
		Amount:       entry.Amount,
		BalanceAfter: entry.BalanceAfter,
		Kind:         string(entry.Kind),
		OrderRef:     stringToPgText(entry.OrderRef),
		ExpiresAt:    timePtrToPgTimestamptz(entry.ExpiresAt),
		UsedAmount:   entry.UsedAmount,
		Expired:      entry.Expired,
		Notified:     entry.Notified,
		CreatedAt:    timeToPgTimestamptz(entry.CreatedAt),
	})
	if isCheckViolation(err) {
		return domain.ErrInsufficientBalance
	}

	return err
}

// GetByID retrieves an entry by ID.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.Entry, error) {
	row, err := r.queries.GetPointEntry(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}

		return nil, err
	}

	return rowToEntry(row), nil
}

// GetByIDTx retrieves an entry by ID within a transaction.
func (r *EntryRepository) GetByIDTx(ctx context.Context, tx usecase.Transaction, id string) (*domain.Entry, error) {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	row, err := queries.GetPointEntry(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}

		return nil, err
	}

	return rowToEntry(row), nil
}

// ListLiveAccruals retrieves the account's unexpired accruals with a positive
// remainder, earliest expiry first.
func (r *EntryRepository) ListLiveAccruals(ctx context.Context, tx usecase.Transaction, accountID string) ([]*domain.Entry, error) {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	rows, err := queries.ListLivePointEntries(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows), nil
}

// ListDueAccruals retrieves the account's unexpired accruals due at now,
// including fully used ones.
func (r *EntryRepository) ListDueAccruals(ctx context.Context, tx usecase.Transaction, accountID string, now time.Time) ([]*domain.Entry, error) {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	rows, err := queries.ListDuePointEntries(ctx, generated.ListDuePointEntriesParams{
		AccountID: accountID,
		ExpiresAt: timeToPgTimestamptz(now),
	})
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows), nil
}

// ListAccountIDsWithDue scans for accounts holding at least one due accrual.
// Runs without locks; the sweep re-reads under the account lock.
func (r *EntryRepository) ListAccountIDsWithDue(ctx context.Context, now time.Time, limit int) ([]string, error) {
	return r.queries.ListPointAccountIDsWithDue(ctx, generated.ListPointAccountIDsWithDueParams{
		ExpiresAt: timeToPgTimestamptz(now),
		Limit:     int32(limit),
	})
}

// ListExpiringUnnotified retrieves unnotified live accruals expiring inside
// (now, until], across all accounts.
func (r *EntryRepository) ListExpiringUnnotified(ctx context.Context, now, until time.Time, limit int) ([]*domain.Entry, error) {
	rows, err := r.queries.ListExpiringUnnotifiedPointEntries(ctx, generated.ListExpiringUnnotifiedPointEntriesParams{
		ExpiresAt:   timeToPgTimestamptz(now),
		ExpiresAt_2: timeToPgTimestamptz(until),
		Limit:       int32(limit),
	})
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows), nil
}

// ListByOrderRef retrieves the account's entries carrying orderRef.
func (r *EntryRepository) ListByOrderRef(ctx context.Context, tx usecase.Transaction, accountID, orderRef string) ([]*domain.Entry, error) {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	rows, err := queries.ListPointEntriesByOrderRef(ctx, generated.ListPointEntriesByOrderRefParams{
		AccountID: accountID,
		OrderRef:  stringToPgText(orderRef),
	})
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows), nil
}

// ListByAccount pages the account's entries newest first; beforeID is a
// keyset cursor, empty for the first page.
func (r *EntryRepository) ListByAccount(ctx context.Context, accountID string, limit int, beforeID string) ([]*domain.Entry, error) {
	rows, err := r.queries.ListPointEntriesByAccount(ctx, generated.ListPointEntriesByAccountParams{
		AccountID: accountID,
		ID:        beforeID,
		Limit:     int32(limit),
	})
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows), nil
}

// ListExpiringSoon retrieves one account's live accruals expiring inside
// (now, until].
func (r *EntryRepository) ListExpiringSoon(ctx context.Context, accountID string, now, until time.Time) ([]*domain.Entry, error) {
	rows, err := r.queries.ListExpiringSoonPointEntries(ctx, generated.ListExpiringSoonPointEntriesParams{
		AccountID:   accountID,
		ExpiresAt:   timeToPgTimestamptz(now),
		ExpiresAt_2: timeToPgTimestamptz(until),
	})
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows), nil
}

// AddToUsedAmount shifts the accrual's consumption counter by delta.
func (r *EntryRepository) AddToUsedAmount(ctx context.Context, tx usecase.Transaction, id string, delta int64) error {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	return queries.AddToPointEntryUsedAmount(ctx, generated.AddToPointEntryUsedAmountParams{
		ID:         id,
		UsedAmount: delta,
	})
}

// MarkExpired flips the entry's expired flag.
func (r *EntryRepository) MarkExpired(ctx context.Context, tx usecase.Transaction, id string) error {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	return queries.MarkPointEntryExpired(ctx, id)
}

// MarkNotified flips the notified flag on the given entries.
func (r *EntryRepository) MarkNotified(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	return r.queries.MarkPointEntriesNotified(ctx, ids)
}

// SumRemaining computes the account's authoritative balance from its
// unexpired accruals.
func (r *EntryRepository) SumRemaining(ctx context.Context, accountID string) (int64, error) {
	return r.queries.SumRemainingPoints(ctx, accountID)
}

// SumRemainingTx computes the same sum within a transaction.
func (r *EntryRepository) SumRemainingTx(ctx context.Context, tx usecase.Transaction, accountID string) (int64, error) {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	return queries.SumRemainingPoints(ctx, accountID)
}

func rowToEntry(row generated.PointEntry) *domain.Entry {
	return &domain.Entry{
		ID:           row.ID,
		AccountID:    row.AccountID,
		Amount:       row.Amount,
		BalanceAfter: row.BalanceAfter,
		Kind:         domain.Kind(row.Kind),
		OrderRef:     row.OrderRef.String,
		ExpiresAt:    pgTimestamptzToTimePtr(row.ExpiresAt),
		UsedAmount:   row.UsedAmount,
		Expired:      row.Expired,
		Notified:     row.Notified,
		CreatedAt:    row.CreatedAt.Time,
	}
}

func rowsToEntries(rows []generated.PointEntry) []*domain.Entry {
	entries := make([]*domain.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, rowToEntry(row))
	}

	return entries
}
