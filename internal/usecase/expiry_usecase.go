package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/gotoUSA/django-shopping-mall-sub001/internal/domain"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/infrastructure/metrics"
)

// ExpiryUseCase runs the expiry sweep and the expiring-soon notification
// sweep. Both are idempotent per entry and isolate per-account failures so
// one stuck account never aborts a pass.
type ExpiryUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	entryRepo   EntryRepository
	usageRepo   UsageRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	cache       Cache
	notifier    Notifier
	horizon     time.Duration
	limiter     *rate.Limiter
	logger      zerolog.Logger
	metrics     *metrics.Metrics
}

func NewExpiryUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	usageRepo UsageRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	cache Cache,
	notifier Notifier,
	horizon time.Duration,
	limiter *rate.Limiter,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *ExpiryUseCase {
	if horizon <= 0 {
		horizon = domain.DefaultNotifyHorizon
	}
	return &ExpiryUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		usageRepo:   usageRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		cache:       cache,
		notifier:    notifier,
		horizon:     horizon,
		limiter:     limiter,
		logger:      logger,
		metrics:     metrics,
	}
}

// SweepFailure records one account the sweep could not process.
type SweepFailure struct {
	AccountID string
	Err       error
}

// SweepReport aggregates one expiry pass.
type SweepReport struct {
	RunID string
	// Accounts the pass attempted.
	Accounts int
	// Processed counts accruals whose expired flag was flipped.
	Processed int
	// Debited is the total remainder swept into ExpireDebit entries.
	Debited int64
	// Skipped counts accounts whose due entries vanished between the scan
	// and the lock (a concurrent sweep got there first).
	Skipped int
	Failed  []SweepFailure
}

// ExpireDue sweeps accruals whose expiry has passed at now. With an empty
// accountID it scans all accounts; otherwise it processes just the one.
func (uc *ExpiryUseCase) ExpireDue(ctx context.Context, now time.Time, accountID string) (*SweepReport, error) {
	report := &SweepReport{RunID: uuid.NewString()}

	var accountIDs []string
	if accountID != "" {
		accountIDs = []string{accountID}
	} else {
		ids, err := uc.entryRepo.ListAccountIDsWithDue(ctx, now, DefaultSweepAccountLimit)
		if err != nil {
			return nil, err
		}
		accountIDs = ids
	}

	log := uc.logger.With().Str("run_id", report.RunID).Logger()
	for _, id := range accountIDs {
		if uc.limiter != nil {
			if err := uc.limiter.Wait(ctx); err != nil {
				return report, err
			}
		}

		processed, debited, err := uc.expireAccount(ctx, now, id)
		report.Accounts++
		if err != nil {
			report.Failed = append(report.Failed, SweepFailure{AccountID: id, Err: err})
			if uc.metrics != nil && errors.Is(err, domain.ErrLockTimeout) {
				uc.metrics.LockTimeouts.Inc()
			}
			log.Warn().Err(err).Str("account_id", id).Msg("expiry sweep: account failed")
			continue
		}
		if processed == 0 {
			report.Skipped++
			continue
		}
		report.Processed += processed
		report.Debited += debited
	}

	if uc.metrics != nil {
		uc.metrics.SweepRuns.Inc()
		uc.metrics.SweepProcessed.Set(float64(report.Processed))
		uc.metrics.SweepFailures.Set(float64(len(report.Failed)))
		uc.metrics.SweepLastRun.SetToCurrentTime()
		uc.metrics.PointsExpired.Add(float64(report.Debited))
	}
	log.Info().
		Int("accounts", report.Accounts).
		Int("processed", report.Processed).
		Int64("debited", report.Debited).
		Int("skipped", report.Skipped).
		Int("failed", len(report.Failed)).
		Msg("expiry sweep finished")

	return report, nil
}

// expireAccount sweeps one account under its lock. The due list is re-read
// inside the transaction: what the outer scan saw is only a hint, the locked
// read decides.
func (uc *ExpiryUseCase) expireAccount(ctx context.Context, now time.Time, accountID string) (int, int64, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	account, err := acquireAccount(txCtx, tx, uc.accountRepo, accountID, false, now)
	if err != nil {
		return 0, 0, err
	}

	due, err := uc.entryRepo.ListDueAccruals(txCtx, tx, accountID, now)
	if err != nil {
		return 0, 0, err
	}
	if len(due) == 0 {
		return 0, 0, nil
	}

	processed := 0
	var debited int64
	balance := account.Balance
	for _, e := range due {
		remaining := e.Remaining()
		if remaining == 0 {
			// Fully consumed before it came due; just close it out.
			if err := uc.entryRepo.MarkExpired(txCtx, tx, e.ID); err != nil {
				return 0, 0, err
			}
			processed++
			continue
		}

		next := balance - remaining
		if next < 0 {
			// The projection disagrees with the entries. Clamp and keep
			// sweeping; raising here would wedge expiry for the account.
			uc.logger.Warn().
				Str("account_id", accountID).
				Str("entry_id", e.ID).
				Int64("balance", balance).
				Int64("remaining", remaining).
				Msg("expiry sweep: balance clamped at zero")
			next = 0
		}

		debit, err := domain.NewConsumptionEntry(
			uc.idGen.Generate(), accountID, domain.KindExpireDebit,
			-remaining, e.OrderRef, next, now,
		)
		if err != nil {
			return 0, 0, err
		}
		if err := uc.entryRepo.Create(txCtx, tx, debit); err != nil {
			return 0, 0, err
		}
		if err := e.Draw(remaining); err != nil {
			return 0, 0, err
		}
		if err := uc.entryRepo.AddToUsedAmount(txCtx, tx, e.ID, remaining); err != nil {
			return 0, 0, err
		}
		usage := &domain.Usage{
			EntryID:    e.ID,
			UseEntryID: debit.ID,
			Amount:     remaining,
			Cause:      domain.CauseExpire,
			UsedAt:     now,
		}
		if err := uc.usageRepo.Create(txCtx, tx, usage); err != nil {
			return 0, 0, err
		}
		if err := uc.entryRepo.MarkExpired(txCtx, tx, e.ID); err != nil {
			return 0, 0, err
		}

		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   accountID,
			AggregateType: domain.AggregateTypeAccount,
			EventType:     domain.EventTypePointsExpired,
			Payload: map[string]any{
				"account_id":      accountID,
				"entry_id":        debit.ID,
				"source_entry_id": e.ID,
				"amount":          -remaining,
			},
			CreatedAt: now,
			Published: false,
		}
		if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
			return 0, 0, err
		}

		balance = next
		debited += remaining
		processed++
	}

	if balance != account.Balance {
		if err := uc.accountRepo.UpdateBalance(txCtx, tx, accountID, balance, now); err != nil {
			return 0, 0, err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return 0, 0, err
	}

	invalidateBalance(ctx, uc.cache, accountID)
	return processed, debited, nil
}

// NotifyReport aggregates one notification pass.
type NotifyReport struct {
	RunID string
	// Accounts notified and entries marked.
	Accounts int
	Entries  int
	// Points is the total remainder the notices covered.
	Points int64
	Failed []SweepFailure
}

// NotifyUpcoming finds accruals expiring within the horizon that have not
// been notified yet, hands one bundle per account to the notifier, and marks
// the bundle's entries only after delivery succeeds.
func (uc *ExpiryUseCase) NotifyUpcoming(ctx context.Context, now time.Time) (*NotifyReport, error) {
	report := &NotifyReport{RunID: uuid.NewString()}
	until := now.Add(uc.horizon)

	entries, err := uc.entryRepo.ListExpiringUnnotified(ctx, now, until, DefaultNotifyBatchLimit)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return report, nil
	}

	// Bundle per account, keeping first-seen order.
	var order []string
	byAccount := make(map[string][]*domain.Entry)
	for _, e := range entries {
		if _, ok := byAccount[e.AccountID]; !ok {
			order = append(order, e.AccountID)
		}
		byAccount[e.AccountID] = append(byAccount[e.AccountID], e)
	}

	log := uc.logger.With().Str("run_id", report.RunID).Logger()
	for _, accountID := range order {
		bundle := byAccount[accountID]
		var total int64
		ids := make([]string, 0, len(bundle))
		for _, e := range bundle {
			total += e.Remaining()
			ids = append(ids, e.ID)
		}
		if total == 0 {
			continue
		}

		if err := uc.notifier.NotifyExpiring(ctx, accountID, bundle, total); err != nil {
			report.Failed = append(report.Failed, SweepFailure{AccountID: accountID, Err: err})
			log.Warn().Err(err).Str("account_id", accountID).Msg("expiry notice failed")
			continue
		}
		if err := uc.entryRepo.MarkNotified(ctx, ids); err != nil {
			report.Failed = append(report.Failed, SweepFailure{AccountID: accountID, Err: err})
			continue
		}

		report.Accounts++
		report.Entries += len(bundle)
		report.Points += total
	}

	if uc.metrics != nil {
		uc.metrics.NotificationsSent.Add(float64(report.Accounts))
	}
	log.Info().
		Int("accounts", report.Accounts).
		Int("entries", report.Entries).
		Int64("points", report.Points).
		Int("failed", len(report.Failed)).
		Msg("expiry notification sweep finished")

	return report, nil
}
