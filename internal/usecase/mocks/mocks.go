package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gotoUSA/django-shopping-mall-sub001/internal/domain"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/usecase"
)

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	CreateFunc           func(ctx context.Context, account *domain.Account) error
	CreateTxFunc         func(ctx context.Context, tx usecase.Transaction, account *domain.Account) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.Account, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error)
	UpdateBalanceFunc    func(ctx context.Context, tx usecase.Transaction, id string, balance int64, updatedAt time.Time) error
	ListFunc             func(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

func cloneAccount(a *domain.Account) *domain.Account {
	c := *a
	return &c
}

// Seed installs an account in the in-memory fallback store.
func (m *MockAccountRepository) Seed(account *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = cloneAccount(account)
}

// Stored returns the stored state of an account, or nil.
func (m *MockAccountRepository) Stored(id string) *domain.Account {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		return cloneAccount(acc)
	}
	return nil
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.Seed(account)
	return nil
}

func (m *MockAccountRepository) CreateTx(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[account.ID]; !ok {
		m.accounts[account.ID] = cloneAccount(account)
	}
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		return cloneAccount(acc), nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance int64, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, id, balance, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	acc.Balance = balance
	acc.Version++
	acc.UpdatedAt = updatedAt
	return nil
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, acc := range m.accounts {
		accounts = append(accounts, cloneAccount(acc))
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	if offset >= len(accounts) {
		return nil, nil
	}
	accounts = accounts[offset:]
	if limit > 0 && len(accounts) > limit {
		accounts = accounts[:limit]
	}
	return accounts, nil
}

// MockEntryRepository is a mock implementation of EntryRepository. The
// in-memory fallback stores copies and returns copies, like a real database:
// callers mutate their own snapshots and persist through AddToUsedAmount,
// MarkExpired and MarkNotified. Listing methods keep real FIFO ordering so
// allocation and sweep flows run against it end to end.
type MockEntryRepository struct {
	mu      sync.RWMutex
	entries map[string]*domain.Entry
	order   []string

	CreateFunc                 func(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error
	GetByIDFunc                func(ctx context.Context, id string) (*domain.Entry, error)
	GetByIDTxFunc              func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Entry, error)
	ListLiveAccrualsFunc       func(ctx context.Context, tx usecase.Transaction, accountID string) ([]*domain.Entry, error)
	ListDueAccrualsFunc        func(ctx context.Context, tx usecase.Transaction, accountID string, now time.Time) ([]*domain.Entry, error)
	ListAccountIDsWithDueFunc  func(ctx context.Context, now time.Time, limit int) ([]string, error)
	ListExpiringUnnotifiedFunc func(ctx context.Context, now, until time.Time, limit int) ([]*domain.Entry, error)
	ListByOrderRefFunc         func(ctx context.Context, tx usecase.Transaction, accountID, orderRef string) ([]*domain.Entry, error)
	ListByAccountFunc          func(ctx context.Context, accountID string, limit int, beforeID string) ([]*domain.Entry, error)
	ListExpiringSoonFunc       func(ctx context.Context, accountID string, now, until time.Time) ([]*domain.Entry, error)
	AddToUsedAmountFunc        func(ctx context.Context, tx usecase.Transaction, id string, delta int64) error
	MarkExpiredFunc            func(ctx context.Context, tx usecase.Transaction, id string) error
	MarkNotifiedFunc           func(ctx context.Context, ids []string) error
	SumRemainingFunc           func(ctx context.Context, accountID string) (int64, error)
	SumRemainingTxFunc         func(ctx context.Context, tx usecase.Transaction, accountID string) (int64, error)
}

func NewMockEntryRepository() *MockEntryRepository {
	return &MockEntryRepository{
		entries: make(map[string]*domain.Entry),
	}
}

func cloneEntry(e *domain.Entry) *domain.Entry {
	c := *e
	if e.ExpiresAt != nil {
		t := *e.ExpiresAt
		c.ExpiresAt = &t
	}
	return &c
}

// Seed installs an entry in the in-memory fallback store.
func (m *MockEntryRepository) Seed(entry *domain.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[entry.ID]; !ok {
		m.order = append(m.order, entry.ID)
	}
	m.entries[entry.ID] = cloneEntry(entry)
}

// Stored returns the stored state of an entry, or nil.
func (m *MockEntryRepository) Stored(id string) *domain.Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[id]; ok {
		return cloneEntry(e)
	}
	return nil
}

// All returns every stored entry in insertion order.
func (m *MockEntryRepository) All() []*domain.Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Entry, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, cloneEntry(m.entries[id]))
	}
	return out
}

func (m *MockEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}
	m.Seed(entry)
	return nil
}

func (m *MockEntryRepository) GetByID(ctx context.Context, id string) (*domain.Entry, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[id]; ok {
		return cloneEntry(e), nil
	}
	return nil, domain.ErrEntryNotFound
}

func (m *MockEntryRepository) GetByIDTx(ctx context.Context, tx usecase.Transaction, id string) (*domain.Entry, error) {
	if m.GetByIDTxFunc != nil {
		return m.GetByIDTxFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockEntryRepository) ListLiveAccruals(ctx context.Context, tx usecase.Transaction, accountID string) ([]*domain.Entry, error) {
	if m.ListLiveAccrualsFunc != nil {
		return m.ListLiveAccrualsFunc(ctx, tx, accountID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Entry
	for _, id := range m.order {
		e := m.entries[id]
		if e.AccountID == accountID && e.Kind.IsAccrual() && !e.Expired && e.Remaining() > 0 {
			out = append(out, cloneEntry(e))
		}
	}
	domain.SortAccruals(out)
	return out, nil
}

func (m *MockEntryRepository) ListDueAccruals(ctx context.Context, tx usecase.Transaction, accountID string, now time.Time) ([]*domain.Entry, error) {
	if m.ListDueAccrualsFunc != nil {
		return m.ListDueAccrualsFunc(ctx, tx, accountID, now)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Entry
	for _, id := range m.order {
		e := m.entries[id]
		if e.AccountID == accountID && e.Kind.IsAccrual() && !e.Expired && e.DueAt(now) {
			out = append(out, cloneEntry(e))
		}
	}
	domain.SortAccruals(out)
	return out, nil
}

func (m *MockEntryRepository) ListAccountIDsWithDue(ctx context.Context, now time.Time, limit int) ([]string, error) {
	if m.ListAccountIDsWithDueFunc != nil {
		return m.ListAccountIDsWithDueFunc(ctx, now, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, id := range m.order {
		e := m.entries[id]
		if e.Kind.IsAccrual() && !e.Expired && e.DueAt(now) && !seen[e.AccountID] {
			seen[e.AccountID] = true
			out = append(out, e.AccountID)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *MockEntryRepository) ListExpiringUnnotified(ctx context.Context, now, until time.Time, limit int) ([]*domain.Entry, error) {
	if m.ListExpiringUnnotifiedFunc != nil {
		return m.ListExpiringUnnotifiedFunc(ctx, now, until, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Entry
	for _, id := range m.order {
		e := m.entries[id]
		if !e.Kind.IsAccrual() || e.Expired || e.Notified || e.Remaining() <= 0 || e.ExpiresAt == nil {
			continue
		}
		if e.ExpiresAt.After(now) && !e.ExpiresAt.After(until) {
			out = append(out, cloneEntry(e))
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *MockEntryRepository) ListByOrderRef(ctx context.Context, tx usecase.Transaction, accountID, orderRef string) ([]*domain.Entry, error) {
	if m.ListByOrderRefFunc != nil {
		return m.ListByOrderRefFunc(ctx, tx, accountID, orderRef)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Entry
	for _, id := range m.order {
		e := m.entries[id]
		if orderRef != "" && e.AccountID == accountID && e.OrderRef == orderRef {
			out = append(out, cloneEntry(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockEntryRepository) ListByAccount(ctx context.Context, accountID string, limit int, beforeID string) ([]*domain.Entry, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountID, limit, beforeID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Entry
	for _, id := range m.order {
		e := m.entries[id]
		if e.AccountID != accountID {
			continue
		}
		if beforeID != "" && e.ID >= beforeID {
			continue
		}
		out = append(out, cloneEntry(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockEntryRepository) ListExpiringSoon(ctx context.Context, accountID string, now, until time.Time) ([]*domain.Entry, error) {
	if m.ListExpiringSoonFunc != nil {
		return m.ListExpiringSoonFunc(ctx, accountID, now, until)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Entry
	for _, id := range m.order {
		e := m.entries[id]
		if e.AccountID != accountID || !e.Kind.IsAccrual() || e.Expired || e.Remaining() <= 0 || e.ExpiresAt == nil {
			continue
		}
		if e.ExpiresAt.After(now) && !e.ExpiresAt.After(until) {
			out = append(out, cloneEntry(e))
		}
	}
	domain.SortAccruals(out)
	return out, nil
}

func (m *MockEntryRepository) AddToUsedAmount(ctx context.Context, tx usecase.Transaction, id string, delta int64) error {
	if m.AddToUsedAmountFunc != nil {
		return m.AddToUsedAmountFunc(ctx, tx, id, delta)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return domain.ErrEntryNotFound
	}
	e.UsedAmount += delta
	return nil
}

func (m *MockEntryRepository) MarkExpired(ctx context.Context, tx usecase.Transaction, id string) error {
	if m.MarkExpiredFunc != nil {
		return m.MarkExpiredFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return domain.ErrEntryNotFound
	}
	e.Expired = true
	return nil
}

func (m *MockEntryRepository) MarkNotified(ctx context.Context, ids []string) error {
	if m.MarkNotifiedFunc != nil {
		return m.MarkNotifiedFunc(ctx, ids)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if e, ok := m.entries[id]; ok {
			e.Notified = true
		}
	}
	return nil
}

func (m *MockEntryRepository) SumRemaining(ctx context.Context, accountID string) (int64, error) {
	if m.SumRemainingFunc != nil {
		return m.SumRemainingFunc(ctx, accountID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sum int64
	for _, e := range m.entries {
		if e.AccountID == accountID {
			sum += e.Remaining()
		}
	}
	return sum, nil
}

func (m *MockEntryRepository) SumRemainingTx(ctx context.Context, tx usecase.Transaction, accountID string) (int64, error) {
	if m.SumRemainingTxFunc != nil {
		return m.SumRemainingTxFunc(ctx, tx, accountID)
	}
	return m.SumRemaining(ctx, accountID)
}

// MockUsageRepository is a mock implementation of UsageRepository.
type MockUsageRepository struct {
	mu     sync.RWMutex
	usages []*domain.Usage
	nextID int64

	CreateFunc         func(ctx context.Context, tx usecase.Transaction, usage *domain.Usage) error
	ListByUseEntryFunc func(ctx context.Context, tx usecase.Transaction, useEntryID string) ([]*domain.Usage, error)
	ListByEntryFunc    func(ctx context.Context, entryID string) ([]*domain.Usage, error)
}

func NewMockUsageRepository() *MockUsageRepository {
	return &MockUsageRepository{}
}

func cloneUsage(u *domain.Usage) *domain.Usage {
	c := *u
	return &c
}

// All returns every stored usage event in insertion order.
func (m *MockUsageRepository) All() []*domain.Usage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Usage, 0, len(m.usages))
	for _, u := range m.usages {
		out = append(out, cloneUsage(u))
	}
	return out
}

func (m *MockUsageRepository) Create(ctx context.Context, tx usecase.Transaction, usage *domain.Usage) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, usage)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	usage.ID = m.nextID
	m.usages = append(m.usages, cloneUsage(usage))
	return nil
}

func (m *MockUsageRepository) ListByUseEntry(ctx context.Context, tx usecase.Transaction, useEntryID string) ([]*domain.Usage, error) {
	if m.ListByUseEntryFunc != nil {
		return m.ListByUseEntryFunc(ctx, tx, useEntryID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Usage
	for _, u := range m.usages {
		if u.UseEntryID == useEntryID && useEntryID != "" {
			out = append(out, cloneUsage(u))
		}
	}
	return out, nil
}

func (m *MockUsageRepository) ListByEntry(ctx context.Context, entryID string) ([]*domain.Usage, error) {
	if m.ListByEntryFunc != nil {
		return m.ListByEntryFunc(ctx, entryID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Usage
	for _, u := range m.usages {
		if u.EntryID == entryID {
			out = append(out, cloneUsage(u))
		}
	}
	return out, nil
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent

	CreateFunc          func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
	GetUnpublishedFunc  func(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublishedFunc   func(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublishedFunc func(ctx context.Context, before time.Time) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

// All returns every stored event in insertion order.
func (m *MockOutboxRepository) All() []*domain.OutboxEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.OutboxEvent, len(m.events))
	copy(out, m.events)
	return out
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if m.GetUnpublishedFunc != nil {
		return m.GetUnpublishedFunc(ctx, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published {
			out = append(out, e)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	if m.MarkPublishedFunc != nil {
		return m.MarkPublishedFunc(ctx, id, publishedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
		}
	}
	return nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	if m.DeletePublishedFunc != nil {
		return m.DeletePublishedFunc(ctx, before)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.events[:0]
	for _, e := range m.events {
		if !e.Published || e.PublishedAt == nil || !e.PublishedAt.Before(before) {
			kept = append(kept, e)
		}
	}
	m.events = kept
	return nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// MockIDGenerator is a mock implementation of IDGenerator. The fallback
// produces zero-padded sequential IDs so creation order and lexicographic
// order agree, as they do for real ULIDs.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("%026d", m.counter)
}
