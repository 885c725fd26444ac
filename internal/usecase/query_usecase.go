package usecase

import (
	"context"
	"strconv"
	"time"

	"github.com/gotoUSA/django-shopping-mall-sub001/internal/domain"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/infrastructure/metrics"
)

// QueryUseCase serves read-side lookups. Results are lock-free snapshots:
// immediately stale, never used to drive a mutation.
type QueryUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	entryRepo   EntryRepository
	usageRepo   UsageRepository
	cache       Cache
	metrics     *metrics.Metrics
}

func NewQueryUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	usageRepo UsageRepository,
	cache Cache,
	metrics *metrics.Metrics,
) *QueryUseCase {
	return &QueryUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		usageRepo:   usageRepo,
		cache:       cache,
		metrics:     metrics,
	}
}

// Balance returns the account's point balance, preferring the cached
// snapshot.
func (uc *QueryUseCase) Balance(ctx context.Context, accountID string) (int64, error) {
	key := balanceCacheKey(accountID)
	if uc.cache != nil {
		if raw, err := uc.cache.Get(ctx, key); err == nil && raw != nil {
			if balance, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
				if uc.metrics != nil {
					uc.metrics.CacheHits.Inc()
				}
				return balance, nil
			}
		}
		if uc.metrics != nil {
			uc.metrics.CacheMisses.Inc()
		}
	}

	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return 0, err
	}
	if uc.cache != nil {
		_ = uc.cache.Set(ctx, key, []byte(strconv.FormatInt(account.Balance, 10)), BalanceCacheTTL)
	}
	return account.Balance, nil
}

// History pages the account's ledger newest first. beforeID is the keyset
// cursor from the previous page, empty for the first.
func (uc *QueryUseCase) History(ctx context.Context, accountID string, limit int, beforeID string) ([]*domain.Entry, error) {
	if limit <= 0 {
		limit = DefaultHistoryPageSize
	}
	if limit > MaxHistoryPageSize {
		limit = MaxHistoryPageSize
	}
	return uc.entryRepo.ListByAccount(ctx, accountID, limit, beforeID)
}

// UsageHistory returns an accrual's consumption events, oldest first.
func (uc *QueryUseCase) UsageHistory(ctx context.Context, entryID string) ([]*domain.Usage, error) {
	if _, err := uc.entryRepo.GetByID(ctx, entryID); err != nil {
		return nil, err
	}
	return uc.usageRepo.ListByEntry(ctx, entryID)
}

// ExpiringSummary lists an account's accruals due within a horizon.
type ExpiringSummary struct {
	AccountID string
	Until     time.Time
	Entries   []*domain.Entry
	Total     int64
}

// ExpiringSoon reports what the account is about to lose within horizon.
func (uc *QueryUseCase) ExpiringSoon(ctx context.Context, accountID string, horizon time.Duration) (*ExpiringSummary, error) {
	if horizon <= 0 {
		horizon = domain.DefaultNotifyHorizon
	}
	now := time.Now().UTC()
	until := now.Add(horizon)

	entries, err := uc.entryRepo.ListExpiringSoon(ctx, accountID, now, until)
	if err != nil {
		return nil, err
	}

	summary := &ExpiringSummary{AccountID: accountID, Until: until, Entries: entries}
	for _, e := range entries {
		summary.Total += e.Remaining()
	}
	return summary, nil
}

// VerifyResult compares the cached balance projection against the entries.
type VerifyResult struct {
	AccountID  string
	Balance    int64
	Computed   int64
	Drift      int64
	Consistent bool
	CheckedAt  time.Time
}

// Verify recomputes the sum of remaining points over the account's live
// accruals under the account lock and compares it to the cached projection.
// The one read-side operation that does lock, because drift is exactly what
// it looks for.
func (uc *QueryUseCase) Verify(ctx context.Context, accountID string) (*VerifyResult, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	account, err := uc.accountRepo.GetByIDForUpdate(txCtx, tx, accountID)
	if err != nil {
		return nil, err
	}
	computed, err := uc.entryRepo.SumRemainingTx(txCtx, tx, accountID)
	if err != nil {
		return nil, err
	}

	return &VerifyResult{
		AccountID:  accountID,
		Balance:    account.Balance,
		Computed:   computed,
		Drift:      account.Balance - computed,
		Consistent: account.Balance == computed,
		CheckedAt:  time.Now().UTC(),
	}, nil
}
