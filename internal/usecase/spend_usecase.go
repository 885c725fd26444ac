package usecase

import (
	"context"
	"time"

	"github.com/gotoUSA/django-shopping-mall-sub001/internal/domain"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/infrastructure/metrics"
)

// SpendUseCase consumes points through FIFO allocation: checkout spends and
// manual admin deductions.
type SpendUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	entryRepo   EntryRepository
	usageRepo   UsageRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	cache       Cache
	metrics     *metrics.Metrics
	retrier     Retrier
}

func NewSpendUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	usageRepo UsageRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	cache Cache,
	metrics *metrics.Metrics,
) *SpendUseCase {
	return &SpendUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		usageRepo:   usageRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		cache:       cache,
		metrics:     metrics,
	}
}

// WithRetrier retries transient transaction failures.
func (uc *SpendUseCase) WithRetrier(r Retrier) *SpendUseCase {
	uc.retrier = r
	return uc
}

// UseInput describes one consumption.
type UseInput struct {
	AccountID string
	Amount    int64
	OrderRef  string
	// Cause is recorded on every usage event; zero value means CauseUse.
	Cause string
	// Kind must be KindUse or KindAdminDeduct; zero value means KindUse.
	Kind domain.Kind
	// Note travels in the emitted event only (admin reason).
	Note string
}

// Use draws Amount from the account's accruals, earliest expiry first, and
// appends one consumption entry. A shortfall fails with
// domain.ErrInsufficientBalance and mutates nothing.
func (uc *SpendUseCase) Use(ctx context.Context, in UseInput) (*domain.Entry, error) {
	kind := in.Kind
	if kind == "" {
		kind = domain.KindUse
	}
	if kind != domain.KindUse && kind != domain.KindAdminDeduct {
		return nil, domain.ErrInvalidKind
	}
	if in.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	cause := in.Cause
	if cause == "" {
		cause = domain.CauseUse
		if kind == domain.KindAdminDeduct {
			cause = domain.CauseAdminDeduct
		}
	}

	started := time.Now()

	var useEntry *domain.Entry
	if err := runWithRetry(ctx, uc.retrier, func() error {
		var err error
		useEntry, err = uc.useTx(ctx, in, kind, cause)
		return err
	}); err != nil {
		return nil, err
	}

	invalidateBalance(ctx, uc.cache, in.AccountID)
	if uc.metrics != nil {
		uc.metrics.PointsUsed.Add(float64(in.Amount))
		uc.metrics.EntriesCreated.WithLabelValues(string(kind)).Inc()
		uc.metrics.OperationDuration.WithLabelValues("use").Observe(time.Since(started).Seconds())
	}

	return useEntry, nil
}

func (uc *SpendUseCase) useTx(ctx context.Context, in UseInput, kind domain.Kind, cause string) (*domain.Entry, error) {
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
	if err := account.ValidateDebit(in.Amount); err != nil {
		return nil, err
	}

	accruals, err := uc.entryRepo.ListLiveAccruals(txCtx, tx, in.AccountID)
	if err != nil {
		return nil, err
	}

	// Plan against the locked snapshot before touching anything; the
	// rollback in the defer covers every later failure.
	draws, err := domain.PlanAllocation(accruals, in.Amount)
	if err != nil {
		return nil, err
	}

	newBalance := account.ApplyDebit(in.Amount)
	useEntry, err := domain.NewConsumptionEntry(
		uc.idGen.Generate(), in.AccountID, kind, -in.Amount,
		in.OrderRef, newBalance, now,
	)
	if err != nil {
		return nil, err
	}
	if err := uc.entryRepo.Create(txCtx, tx, useEntry); err != nil {
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
			UseEntryID: useEntry.ID,
			Amount:     d.Amount,
			Cause:      cause,
			UsedAt:     now,
		}
		if err := uc.usageRepo.Create(txCtx, tx, usage); err != nil {
			return nil, err
		}
	}

	if err := uc.accountRepo.UpdateBalance(txCtx, tx, in.AccountID, newBalance, now); err != nil {
		return nil, err
	}

	eventType := domain.EventTypePointsUsed
	noteKey := "note"
	if kind == domain.KindAdminDeduct {
		eventType = domain.EventTypePointsAdjusted
		noteKey = "reason"
	}
	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   in.AccountID,
		AggregateType: domain.AggregateTypeAccount,
		EventType:     eventType,
		Payload: map[string]any{
			"account_id":    in.AccountID,
			"entry_id":      useEntry.ID,
			"amount":        -in.Amount,
			"order_ref":     in.OrderRef,
			noteKey:         in.Note,
			"drawn_entries": len(draws),
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

	return useEntry, nil
}

// AdminDeduct removes points by manual adjustment, through the same FIFO
// path as a checkout spend.
func (uc *SpendUseCase) AdminDeduct(ctx context.Context, accountID string, amount int64, reason string) (*domain.Entry, error) {
	return uc.Use(ctx, UseInput{
		AccountID: accountID,
		Amount:    amount,
		Kind:      domain.KindAdminDeduct,
		Cause:     domain.CauseAdminDeduct,
		Note:      reason,
	})
}
