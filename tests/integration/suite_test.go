package integration

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gotoUSA/django-shopping-mall-sub001/internal/adapter/repository/postgres"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/domain"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/usecase"
)

// newEngine wires a full engine against the test database. Tests that
// assert on emitted events pass the real outbox repo; nil gets the no-op
// one.
func newEngine(pool *pgxpool.Pool, outboxRepo usecase.OutboxRepository, notifier usecase.Notifier) *usecase.Engine {
	if outboxRepo == nil {
		outboxRepo = postgres.NewNullOutboxRepository()
	}
	if notifier == nil {
		notifier = &captureNotifier{}
	}

	return usecase.NewEngine(usecase.EngineDeps{
		TxManager:   postgres.NewTxManager(pool, 3*time.Second),
		AccountRepo: postgres.NewAccountRepository(pool),
		EntryRepo:   postgres.NewEntryRepository(pool),
		UsageRepo:   postgres.NewUsageRepository(pool),
		OutboxRepo:  outboxRepo,
		IDGen:       postgres.NewULIDGenerator(),
		Notifier:    notifier,
		Retrier:     postgres.NewRetrier(),
		Logger:      zerolog.Nop(),
	})
}

// captureNotifier records delivered notice bundles per account.
type captureNotifier struct {
	mu      sync.Mutex
	bundles map[string][]*domain.Entry
	totals  map[string]int64
	err     error
}

func (n *captureNotifier) NotifyExpiring(ctx context.Context, accountID string, entries []*domain.Entry, total int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.err != nil {
		return n.err
	}
	if n.bundles == nil {
		n.bundles = make(map[string][]*domain.Entry)
		n.totals = make(map[string]int64)
	}
	n.bundles[accountID] = append(n.bundles[accountID], entries...)
	n.totals[accountID] += total

	return nil
}

func (n *captureNotifier) bundleFor(accountID string) ([]*domain.Entry, int64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.bundles[accountID], n.totals[accountID]
}
