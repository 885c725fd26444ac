package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/gotoUSA/django-shopping-mall-sub001/internal/domain"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/usecase"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/usecase/mocks"
)

func TestQueryUseCase_Balance(t *testing.T) {
	t.Run("cache hit skips the store", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		cache := mocks.NewMockCache(ctrl)
		cache.EXPECT().Get(gomock.Any(), "points:balance:acc-1").Return([]byte("750"), nil)

		accRepo := mocks.NewMockAccountRepository()
		accRepo.GetByIDFunc = func(ctx context.Context, id string) (*domain.Account, error) {
			t.Fatal("a cache hit must not hit the store")
			return nil, nil
		}

		uc := usecase.NewQueryUseCase(mocks.NewMockTransactionManager(), accRepo, mocks.NewMockEntryRepository(), mocks.NewMockUsageRepository(), cache, nil)

		balance, err := uc.Balance(context.Background(), "acc-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if balance != 750 {
			t.Errorf("expected 750, got %d", balance)
		}
	})

	t.Run("cache miss falls back and repopulates", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		cache := mocks.NewMockCache(ctrl)
		cache.EXPECT().Get(gomock.Any(), "points:balance:acc-1").Return(nil, nil)
		cache.EXPECT().Set(gomock.Any(), "points:balance:acc-1", []byte("420"), usecase.BalanceCacheTTL).Return(nil)

		accRepo := mocks.NewMockAccountRepository()
		accRepo.Seed(&domain.Account{ID: "acc-1", Balance: 420})

		uc := usecase.NewQueryUseCase(mocks.NewMockTransactionManager(), accRepo, mocks.NewMockEntryRepository(), mocks.NewMockUsageRepository(), cache, nil)

		balance, err := uc.Balance(context.Background(), "acc-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if balance != 420 {
			t.Errorf("expected 420, got %d", balance)
		}
	})

	t.Run("works without a cache", func(t *testing.T) {
		accRepo := mocks.NewMockAccountRepository()
		accRepo.Seed(&domain.Account{ID: "acc-1", Balance: 99})

		uc := usecase.NewQueryUseCase(mocks.NewMockTransactionManager(), accRepo, mocks.NewMockEntryRepository(), mocks.NewMockUsageRepository(), nil, nil)

		balance, err := uc.Balance(context.Background(), "acc-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if balance != 99 {
			t.Errorf("expected 99, got %d", balance)
		}
	})

	t.Run("unknown account", func(t *testing.T) {
		uc := usecase.NewQueryUseCase(mocks.NewMockTransactionManager(), mocks.NewMockAccountRepository(), mocks.NewMockEntryRepository(), mocks.NewMockUsageRepository(), nil, nil)

		if _, err := uc.Balance(context.Background(), "ghost"); !errors.Is(err, domain.ErrAccountNotFound) {
			t.Fatalf("expected ErrAccountNotFound, got %v", err)
		}
	})
}

func TestQueryUseCase_History(t *testing.T) {
	entryRepo := mocks.NewMockEntryRepository()
	now := time.Now().UTC()
	seedAccrual(t, entryRepo, "e1", "acc-1", 100, 0, "", now.Add(time.Hour))
	seedAccrual(t, entryRepo, "e2", "acc-1", 200, 0, "", now.Add(2*time.Hour))
	seedAccrual(t, entryRepo, "e3", "acc-1", 300, 0, "", now.Add(3*time.Hour))

	uc := usecase.NewQueryUseCase(mocks.NewMockTransactionManager(), mocks.NewMockAccountRepository(), entryRepo, mocks.NewMockUsageRepository(), nil, nil)

	t.Run("newest first with keyset cursor", func(t *testing.T) {
		page, err := uc.History(context.Background(), "acc-1", 2, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(page) != 2 || page[0].ID != "e3" || page[1].ID != "e2" {
			t.Fatalf("expected [e3 e2], got %+v", page)
		}

		page, err = uc.History(context.Background(), "acc-1", 2, page[1].ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(page) != 1 || page[0].ID != "e1" {
			t.Fatalf("expected [e1], got %+v", page)
		}
	})

	t.Run("limit is clamped", func(t *testing.T) {
		captured := 0
		repo := mocks.NewMockEntryRepository()
		repo.ListByAccountFunc = func(ctx context.Context, accountID string, limit int, beforeID string) ([]*domain.Entry, error) {
			captured = limit
			return nil, nil
		}
		uc := usecase.NewQueryUseCase(mocks.NewMockTransactionManager(), mocks.NewMockAccountRepository(), repo, mocks.NewMockUsageRepository(), nil, nil)

		if _, err := uc.History(context.Background(), "acc-1", 0, ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if captured != usecase.DefaultHistoryPageSize {
			t.Errorf("expected default page size %d, got %d", usecase.DefaultHistoryPageSize, captured)
		}

		if _, err := uc.History(context.Background(), "acc-1", 9000, ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if captured != usecase.MaxHistoryPageSize {
			t.Errorf("expected max page size %d, got %d", usecase.MaxHistoryPageSize, captured)
		}
	})
}

func TestQueryUseCase_UsageHistory(t *testing.T) {
	entryRepo := mocks.NewMockEntryRepository()
	usageRepo := mocks.NewMockUsageRepository()

	now := time.Now().UTC()
	seedAccrual(t, entryRepo, "e1", "acc-1", 500, 300, "", now.Add(time.Hour))
	for _, u := range []*domain.Usage{
		{EntryID: "e1", UseEntryID: "u1", Amount: 200, Cause: domain.CauseUse, UsedAt: now.Add(-2 * time.Hour)},
		{EntryID: "e1", UseEntryID: "u2", Amount: 100, Cause: domain.CauseUse, UsedAt: now.Add(-time.Hour)},
	} {
		if err := usageRepo.Create(context.Background(), nil, u); err != nil {
			t.Fatalf("seed usage: %v", err)
		}
	}

	uc := usecase.NewQueryUseCase(mocks.NewMockTransactionManager(), mocks.NewMockAccountRepository(), entryRepo, usageRepo, nil, nil)

	usages, err := uc.UsageHistory(context.Background(), "e1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(usages) != 2 || usages[0].Amount != 200 || usages[1].Amount != 100 {
		t.Fatalf("expected both draws oldest first, got %+v", usages)
	}

	if _, err := uc.UsageHistory(context.Background(), "ghost"); !errors.Is(err, domain.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestQueryUseCase_ExpiringSoon(t *testing.T) {
	entryRepo := mocks.NewMockEntryRepository()

	now := time.Now().UTC()
	seedAccrual(t, entryRepo, "e1", "acc-1", 100, 40, "", now.Add(2*24*time.Hour))
	seedAccrual(t, entryRepo, "e2", "acc-1", 500, 0, "", now.Add(30*24*time.Hour))
	seedAccrual(t, entryRepo, "e3", "acc-1", 200, 200, "", now.Add(3*24*time.Hour))

	uc := usecase.NewQueryUseCase(mocks.NewMockTransactionManager(), mocks.NewMockAccountRepository(), entryRepo, mocks.NewMockUsageRepository(), nil, nil)

	summary, err := uc.ExpiringSoon(context.Background(), "acc-1", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summary.Entries) != 1 || summary.Entries[0].ID != "e1" {
		t.Fatalf("expected only e1 in the horizon, got %+v", summary.Entries)
	}
	if summary.Total != 60 {
		t.Errorf("expected 60 points at risk, got %d", summary.Total)
	}
}

func TestQueryUseCase_Verify(t *testing.T) {
	t.Run("consistent account", func(t *testing.T) {
		accRepo := mocks.NewMockAccountRepository()
		entryRepo := mocks.NewMockEntryRepository()
		now := time.Now().UTC()
		accRepo.Seed(&domain.Account{ID: "acc-1", Balance: 500})
		seedAccrual(t, entryRepo, "e1", "acc-1", 300, 0, "", now.Add(time.Hour))
		seedAccrual(t, entryRepo, "e2", "acc-1", 400, 200, "", now.Add(2*time.Hour))

		uc := usecase.NewQueryUseCase(mocks.NewMockTransactionManager(), accRepo, entryRepo, mocks.NewMockUsageRepository(), nil, nil)

		result, err := uc.Verify(context.Background(), "acc-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Consistent || result.Drift != 0 {
			t.Fatalf("expected a consistent account, got %+v", result)
		}
	})

	t.Run("drift is reported", func(t *testing.T) {
		accRepo := mocks.NewMockAccountRepository()
		entryRepo := mocks.NewMockEntryRepository()
		accRepo.Seed(&domain.Account{ID: "acc-1", Balance: 500})
		seedAccrual(t, entryRepo, "e1", "acc-1", 450, 0, "", time.Now().UTC().Add(time.Hour))

		uc := usecase.NewQueryUseCase(mocks.NewMockTransactionManager(), accRepo, entryRepo, mocks.NewMockUsageRepository(), nil, nil)

		result, err := uc.Verify(context.Background(), "acc-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Consistent {
			t.Fatal("expected inconsistency")
		}
		if result.Drift != 50 || result.Balance != 500 || result.Computed != 450 {
			t.Fatalf("expected drift=50, got %+v", result)
		}
	})
}
