package usecase

import (
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/gotoUSA/django-shopping-mall-sub001/internal/domain"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/infrastructure/metrics"
)

// Engine is the point ledger facade. Checkout, admin tooling, and the
// scheduler all go through it; every mutating operation is atomic under the
// owning account's lock.
type Engine struct {
	Earn   *EarnUseCase
	Spend  *SpendUseCase
	Cancel *CancelUseCase
	Expiry *ExpiryUseCase
	Query  *QueryUseCase
	Recon  *ReconciliationUseCase
}

// EngineDeps carries the collaborators an Engine is assembled from. Cache,
// Notifier, Retrier, SweepLimiter, and Metrics may be nil; Policy and
// NotifyHorizon fall back to the storefront defaults.
type EngineDeps struct {
	TxManager   TransactionManager
	AccountRepo AccountRepository
	EntryRepo   EntryRepository
	UsageRepo   UsageRepository
	OutboxRepo  OutboxRepository
	IDGen       IDGenerator
	Cache       Cache
	Notifier    Notifier
	Retrier     Retrier

	Policy        domain.EarnPolicy
	NotifyHorizon time.Duration
	SweepLimiter  *rate.Limiter
	Logger        zerolog.Logger
	Metrics       *metrics.Metrics
}

func NewEngine(d EngineDeps) *Engine {
	policy := d.Policy
	if policy.Rate.IsZero() && policy.Lifetime == 0 {
		policy = domain.DefaultEarnPolicy()
	}

	query := NewQueryUseCase(
		d.TxManager, d.AccountRepo, d.EntryRepo, d.UsageRepo,
		d.Cache, d.Metrics,
	)

	return &Engine{
		Earn: NewEarnUseCase(
			d.TxManager, d.AccountRepo, d.EntryRepo, d.OutboxRepo,
			d.IDGen, d.Cache, policy, d.Metrics,
		).WithRetrier(d.Retrier),
		Spend: NewSpendUseCase(
			d.TxManager, d.AccountRepo, d.EntryRepo, d.UsageRepo,
			d.OutboxRepo, d.IDGen, d.Cache, d.Metrics,
		).WithRetrier(d.Retrier),
		Cancel: NewCancelUseCase(
			d.TxManager, d.AccountRepo, d.EntryRepo, d.UsageRepo,
			d.OutboxRepo, d.IDGen, d.Cache, policy, d.Metrics,
		).WithRetrier(d.Retrier),
		Expiry: NewExpiryUseCase(
			d.TxManager, d.AccountRepo, d.EntryRepo, d.UsageRepo,
			d.OutboxRepo, d.IDGen, d.Cache, d.Notifier,
			d.NotifyHorizon, d.SweepLimiter, d.Logger, d.Metrics,
		),
		Query: query,
		Recon: NewReconciliationUseCase(d.AccountRepo, query, d.Logger),
	}
}
