package usecase

import (
	"context"
	"time"

	"github.com/gotoUSA/django-shopping-mall-sub001/internal/domain"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/infrastructure/metrics"
)

// CancelUseCase reverses an order's point effects when the order is
// cancelled or refunded: consumed points come back, earned points are clawed
// back, atomically under the account lock.
type CancelUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	entryRepo   EntryRepository
	usageRepo   UsageRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	cache       Cache
	policy      domain.EarnPolicy
	metrics     *metrics.Metrics
	retrier     Retrier
}

func NewCancelUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	usageRepo UsageRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	cache Cache,
	policy domain.EarnPolicy,
	metrics *metrics.Metrics,
) *CancelUseCase {
	return &CancelUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		usageRepo:   usageRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		cache:       cache,
		policy:      policy,
		metrics:     metrics,
	}
}

// WithRetrier retries transient transaction failures.
func (uc *CancelUseCase) WithRetrier(r Retrier) *CancelUseCase {
	uc.retrier = r
	return uc
}

// ReverseInput describes a cancellation's prior point effects.
type ReverseInput struct {
	AccountID string
	OrderRef  string
	// UsedAmount is what the order consumed; refunded when positive.
	UsedAmount int64
	// EarnedAmount is what the order granted; clawed back when positive.
	EarnedAmount int64
}

// ReverseResult reports what a cancellation actually moved.
type ReverseResult struct {
	// Refunded points, as one CancelRefund entry.
	Refunded int64
	// Restored is the portion of the refund returned to the original
	// accruals via the retained draw-list; the rest stays spendable on the
	// CancelRefund entry.
	Restored int64
	// ClawedBack points, as one CancelClaw entry.
	ClawedBack int64

	RefundEntry *domain.Entry
	ClawEntry   *domain.Entry
}

// ReverseForCancellation undoes an order's ledger effects. The refund is
// applied before the claw-back so the claw-back is evaluated against the
// post-refund balance; a claw-back shortfall fails the whole call with
// domain.ErrInsufficientBalance and nothing is applied.
func (uc *CancelUseCase) ReverseForCancellation(ctx context.Context, in ReverseInput) (*ReverseResult, error) {
	if in.UsedAmount < 0 || in.EarnedAmount < 0 || (in.UsedAmount == 0 && in.EarnedAmount == 0) {
		return nil, domain.ErrInvalidAmount
	}

	started := time.Now()

	var result *ReverseResult
	if err := runWithRetry(ctx, uc.retrier, func() error {
		var err error
		result, err = uc.reverseTx(ctx, in)
		return err
	}); err != nil {
		return nil, err
	}

	invalidateBalance(ctx, uc.cache, in.AccountID)
	if uc.metrics != nil {
		uc.metrics.PointsRefunded.Add(float64(result.Refunded))
		uc.metrics.PointsClawedBack.Add(float64(result.ClawedBack))
		if result.RefundEntry != nil {
			uc.metrics.EntriesCreated.WithLabelValues(string(domain.KindCancelRefund)).Inc()
		}
		if result.ClawEntry != nil {
			uc.metrics.EntriesCreated.WithLabelValues(string(domain.KindCancelClaw)).Inc()
		}
		uc.metrics.OperationDuration.WithLabelValues("reverse").Observe(time.Since(started).Seconds())
	}

	return result, nil
}

func (uc *CancelUseCase) reverseTx(ctx context.Context, in ReverseInput) (*ReverseResult, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	now := time.Now().UTC()
	account, err := acquireAccount(txCtx, tx, uc.accountRepo, in.AccountID, false, now)
	if err != nil {
		return nil, err
	}

	result := &ReverseResult{}
	balance := account.Balance

	if in.UsedAmount > 0 {
		balance = balance + in.UsedAmount
		refund, err := domain.NewAccrualEntry(
			uc.idGen.Generate(), in.AccountID, domain.KindCancelRefund,
			in.UsedAmount, in.OrderRef, uc.policy.ExpiryFrom(now), balance, now,
		)
		if err != nil {
			return nil, err
		}
		if err := uc.entryRepo.Create(txCtx, tx, refund); err != nil {
			return nil, err
		}

		restored, err := uc.restoreDraws(txCtx, tx, in, now)
		if err != nil {
			return nil, err
		}
		if restored > 0 {
			// The restored portion lives again on the original accruals;
			// pre-consume it on the refund entry so the two never both count.
			if err := refund.Draw(restored); err != nil {
				return nil, err
			}
			if err := uc.entryRepo.AddToUsedAmount(txCtx, tx, refund.ID, restored); err != nil {
				return nil, err
			}
			usage := &domain.Usage{
				EntryID: refund.ID,
				Amount:  restored,
				Cause:   domain.CauseCancelRestore,
				UsedAt:  now,
			}
			if err := uc.usageRepo.Create(txCtx, tx, usage); err != nil {
				return nil, err
			}
		}

		if err := uc.accountRepo.UpdateBalance(txCtx, tx, in.AccountID, balance, now); err != nil {
			return nil, err
		}

		result.Refunded = in.UsedAmount
		result.Restored = restored
		result.RefundEntry = refund
	}

	if in.EarnedAmount > 0 {
		if balance < in.EarnedAmount {
			return nil, domain.ErrInsufficientBalance
		}

		// Fresh snapshot: the refund above may have revived remainders.
		accruals, err := uc.entryRepo.ListLiveAccruals(txCtx, tx, in.AccountID)
		if err != nil {
			return nil, err
		}
		draws, err := domain.PlanClawback(accruals, in.EarnedAmount, in.OrderRef)
		if err != nil {
			return nil, err
		}

		balance = balance - in.EarnedAmount
		claw, err := domain.NewConsumptionEntry(
			uc.idGen.Generate(), in.AccountID, domain.KindCancelClaw,
			-in.EarnedAmount, in.OrderRef, balance, now,
		)
		if err != nil {
			return nil, err
		}
		if err := uc.entryRepo.Create(txCtx, tx, claw); err != nil {
			return nil, err
		}

		for _, d := range draws {
			if err := d.Entry.Draw(d.Amount); err != nil {
				return nil, err
			}
			if err := uc.entryRepo.AddToUsedAmount(txCtx, tx, d.Entry.ID, d.Amount); err != nil {
				return nil, err
			}
			usage := &domain.Usage{
				EntryID:    d.Entry.ID,
				UseEntryID: claw.ID,
				Amount:     d.Amount,
				Cause:      domain.CauseCancelClaw,
				UsedAt:     now,
			}
			if err := uc.usageRepo.Create(txCtx, tx, usage); err != nil {
				return nil, err
			}
		}

		if err := uc.accountRepo.UpdateBalance(txCtx, tx, in.AccountID, balance, now); err != nil {
			return nil, err
		}

		result.ClawedBack = in.EarnedAmount
		result.ClawEntry = claw
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   in.AccountID,
		AggregateType: domain.AggregateTypeAccount,
		EventType:     domain.EventTypePointsReversed,
		Payload: map[string]any{
			"account_id":  in.AccountID,
			"order_ref":   in.OrderRef,
			"refunded":    result.Refunded,
			"restored":    result.Restored,
			"clawed_back": result.ClawedBack,
		},
		CreatedAt: now,
		Published: false,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return result, nil
}

// restoreDraws walks the order's recorded draws newest first and gives the
// value back to every source accrual that is still live. Returns how much was
// restored; zero when no draw-list was retained (aggregate-only refund).
func (uc *CancelUseCase) restoreDraws(ctx context.Context, tx Transaction, in ReverseInput, now time.Time) (int64, error) {
	entries, err := uc.entryRepo.ListByOrderRef(ctx, tx, in.AccountID, in.OrderRef)
	if err != nil {
		return 0, err
	}

	var uses []*domain.Entry
	for _, e := range entries {
		if e.Kind == domain.KindUse {
			uses = append(uses, e)
		}
	}

	left := in.UsedAmount
	var restored int64
	for i := len(uses) - 1; i >= 0 && left > 0; i-- {
		usages, err := uc.usageRepo.ListByUseEntry(ctx, tx, uses[i].ID)
		if err != nil {
			return 0, err
		}
		for j := len(usages) - 1; j >= 0 && left > 0; j-- {
			u := usages[j]
			if u.Amount <= 0 {
				continue
			}
			src, err := uc.entryRepo.GetByIDTx(ctx, tx, u.EntryID)
			if err != nil {
				return 0, err
			}
			// Sources that expired in the meantime keep their history; their
			// share stays spendable on the refund entry instead.
			if src.Expired {
				continue
			}
			give := u.Amount
			if give > left {
				give = left
			}
			if give > src.UsedAmount {
				give = src.UsedAmount
			}
			if give == 0 {
				continue
			}
			if err := src.Restore(give); err != nil {
				return 0, err
			}
			if err := uc.entryRepo.AddToUsedAmount(ctx, tx, src.ID, -give); err != nil {
				return 0, err
			}
			usage := &domain.Usage{
				EntryID: src.ID,
				Amount:  -give,
				Cause:   domain.CauseCancelRestore,
				UsedAt:  now,
			}
			if err := uc.usageRepo.Create(ctx, tx, usage); err != nil {
				return 0, err
			}
			restored += give
			left -= give
		}
	}

	return restored, nil
}
