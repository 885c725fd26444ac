package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gotoUSA/django-shopping-mall-sub001/internal/domain"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/infrastructure/metrics"
)

// EarnUseCase creates accrual entries: purchase earnings, event grants, and
// manual admin additions.
type EarnUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	entryRepo   EntryRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	cache       Cache
	policy      domain.EarnPolicy
	metrics     *metrics.Metrics
	retrier     Retrier
}

func NewEarnUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	cache Cache,
	policy domain.EarnPolicy,
	metrics *metrics.Metrics,
) *EarnUseCase {
	return &EarnUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		cache:       cache,
		policy:      policy,
		metrics:     metrics,
	}
}

// WithRetrier retries transient transaction failures.
func (uc *EarnUseCase) WithRetrier(r Retrier) *EarnUseCase {
	uc.retrier = r
	return uc
}

// EarnInput describes one accrual.
type EarnInput struct {
	AccountID string
	Amount    int64
	// Kind must be accrual-class; zero value means KindEarn.
	Kind     domain.Kind
	OrderRef string
	// Note travels in the emitted event only (campaign name, admin reason).
	Note string
	// Lifetime overrides the policy default when positive.
	Lifetime time.Duration
}

// Earn appends one accrual entry and credits the balance, creating the
// account on first contact.
func (uc *EarnUseCase) Earn(ctx context.Context, in EarnInput) (*domain.Entry, error) {
	kind := in.Kind
	if kind == "" {
		kind = domain.KindEarn
	}
	if !kind.IsAccrual() {
		return nil, domain.ErrInvalidKind
	}
	if in.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	lifetime := in.Lifetime
	if lifetime <= 0 {
		lifetime = uc.policy.Lifetime
	}

	started := time.Now()

	var entry *domain.Entry
	if err := runWithRetry(ctx, uc.retrier, func() error {
		var err error
		entry, err = uc.earnTx(ctx, in, kind, lifetime)
		return err
	}); err != nil {
		return nil, err
	}

	invalidateBalance(ctx, uc.cache, in.AccountID)
	if uc.metrics != nil {
		uc.metrics.PointsEarned.Add(float64(in.Amount))
		uc.metrics.EntriesCreated.WithLabelValues(string(kind)).Inc()
		uc.metrics.OperationDuration.WithLabelValues("earn").Observe(time.Since(started).Seconds())
	}

	return entry, nil
}

func (uc *EarnUseCase) earnTx(ctx context.Context, in EarnInput, kind domain.Kind, lifetime time.Duration) (*domain.Entry, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	now := time.Now().UTC()
	account, err := acquireAccount(txCtx, tx, uc.accountRepo, in.AccountID, true, now)
	if err != nil {
		return nil, err
	}

	newBalance := account.ApplyCredit(in.Amount)
	entry, err := domain.NewAccrualEntry(
		uc.idGen.Generate(), in.AccountID, kind, in.Amount,
		in.OrderRef, now.Add(lifetime), newBalance, now,
	)
	if err != nil {
		return nil, err
	}

	if err := uc.entryRepo.Create(txCtx, tx, entry); err != nil {
		return nil, err
	}
	if err := uc.accountRepo.UpdateBalance(txCtx, tx, in.AccountID, newBalance, now); err != nil {
		return nil, err
	}

	payload := map[string]any{
		"account_id": in.AccountID,
		"entry_id":   entry.ID,
		"amount":     in.Amount,
		"order_ref":  in.OrderRef,
		"expires_at": entry.ExpiresAt.Format(time.RFC3339),
	}
	switch kind {
	case domain.KindEventGrant:
		payload["campaign"] = in.Note
	case domain.KindAdminAdd:
		payload["reason"] = in.Note
	default:
		payload["note"] = in.Note
	}
	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   in.AccountID,
		AggregateType: domain.AggregateTypeAccount,
		EventType:     earnEventType(kind),
		Payload:       payload,
		CreatedAt:     now,
		Published:     false,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return entry, nil
}

// EarnForPayment applies the earn-rate policy to a paid money amount.
// Returns nil without error when the payment is too small to earn a point.
func (uc *EarnUseCase) EarnForPayment(ctx context.Context, accountID string, paid decimal.Decimal, orderRef string) (*domain.Entry, error) {
	points := uc.policy.PointsFor(paid)
	if points == 0 {
		return nil, nil
	}
	return uc.Earn(ctx, EarnInput{
		AccountID: accountID,
		Amount:    points,
		Kind:      domain.KindEarn,
		OrderRef:  orderRef,
	})
}

// GrantEvent credits promotional points (campaign grants).
func (uc *EarnUseCase) GrantEvent(ctx context.Context, accountID string, amount int64, campaign string) (*domain.Entry, error) {
	return uc.Earn(ctx, EarnInput{
		AccountID: accountID,
		Amount:    amount,
		Kind:      domain.KindEventGrant,
		Note:      campaign,
	})
}

// AdminAdd credits points by manual adjustment.
func (uc *EarnUseCase) AdminAdd(ctx context.Context, accountID string, amount int64, reason string) (*domain.Entry, error) {
	return uc.Earn(ctx, EarnInput{
		AccountID: accountID,
		Amount:    amount,
		Kind:      domain.KindAdminAdd,
		Note:      reason,
	})
}

func earnEventType(kind domain.Kind) string {
	switch kind {
	case domain.KindEventGrant:
		return domain.EventTypePointsGranted
	case domain.KindAdminAdd:
		return domain.EventTypePointsAdjusted
	}
	return domain.EventTypePointsEarned
}
