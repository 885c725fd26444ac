package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/gotoUSA/django-shopping-mall-sub001/internal/domain"
)

// acquireAccount takes the account's row lock inside tx. Every mutating
// ledger operation goes through here, so per-account execution is serialized;
// only one account is ever locked per transaction. With createMissing the
// account row is inserted first (accounts appear lazily on first accrual).
func acquireAccount(ctx context.Context, tx Transaction, accounts AccountRepository, id string, createMissing bool, now time.Time) (*domain.Account, error) {
	account, err := accounts.GetByIDForUpdate(ctx, tx, id)
	if err == nil {
		return account, nil
	}
	if !createMissing || !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, err
	}

	fresh := &domain.Account{
		ID:        id,
		Balance:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	// Insert tolerates a concurrent creation of the same row; the re-read
	// below locks whichever insert won.
	if err := accounts.CreateTx(ctx, tx, fresh); err != nil {
		return nil, err
	}
	return accounts.GetByIDForUpdate(ctx, tx, id)
}

func balanceCacheKey(accountID string) string {
	return "points:balance:" + accountID
}

// invalidateBalance drops the read-side snapshot after a committed mutation.
// Best effort: the snapshot has a TTL and is never used to drive mutations.
func invalidateBalance(ctx context.Context, cache Cache, accountID string) {
	if cache == nil {
		return
	}
	_ = cache.Delete(ctx, balanceCacheKey(accountID))
}

// runWithRetry executes op through the configured retrier. Each attempt must
// be a complete transaction: begin, lock, re-read, mutate, commit.
func runWithRetry(ctx context.Context, r Retrier, op func() error) error {
	if r == nil {
		return op()
	}
	return r.Retry(ctx, op)
}
