package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gotoUSA/django-shopping-mall-sub001/internal/domain"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/usecase"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/usecase/mocks"
)

func newReconUseCase(accRepo *mocks.MockAccountRepository, entryRepo *mocks.MockEntryRepository) *usecase.ReconciliationUseCase {
	query := usecase.NewQueryUseCase(
		mocks.NewMockTransactionManager(), accRepo, entryRepo,
		mocks.NewMockUsageRepository(), nil, nil,
	)
	return usecase.NewReconciliationUseCase(accRepo, query, zerolog.Nop())
}

func seedConsistentAccount(accRepo *mocks.MockAccountRepository, entryRepo *mocks.MockEntryRepository, id string, balance int64) {
	accRepo.Seed(&domain.Account{ID: id, Balance: balance})
	expires := time.Now().UTC().Add(24 * time.Hour)
	entryRepo.Seed(&domain.Entry{
		ID:        id + "-e1",
		AccountID: id,
		Amount:    balance,
		Kind:      domain.KindEarn,
		ExpiresAt: &expires,
	})
}

func TestReconciliationUseCase_VerifyAll(t *testing.T) {
	t.Run("clean fleet", func(t *testing.T) {
		accRepo := mocks.NewMockAccountRepository()
		entryRepo := mocks.NewMockEntryRepository()
		seedConsistentAccount(accRepo, entryRepo, "acc-1", 100)
		seedConsistentAccount(accRepo, entryRepo, "acc-2", 250)

		uc := newReconUseCase(accRepo, entryRepo)

		report, err := uc.VerifyAll(context.Background(), 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Checked != 2 {
			t.Errorf("expected 2 checked, got %d", report.Checked)
		}
		if !report.Clean() {
			t.Errorf("expected a clean report, got drifted=%d failed=%d", len(report.Drifted), len(report.Failed))
		}
		if report.RunID == "" {
			t.Error("expected a run id")
		}
	})

	t.Run("detects drift", func(t *testing.T) {
		accRepo := mocks.NewMockAccountRepository()
		entryRepo := mocks.NewMockEntryRepository()
		seedConsistentAccount(accRepo, entryRepo, "acc-1", 100)

		// The projection claims more than the entries hold.
		accRepo.Seed(&domain.Account{ID: "acc-2", Balance: 300})
		expires := time.Now().UTC().Add(24 * time.Hour)
		entryRepo.Seed(&domain.Entry{
			ID:        "acc-2-e1",
			AccountID: "acc-2",
			Amount:    280,
			Kind:      domain.KindEarn,
			ExpiresAt: &expires,
		})

		uc := newReconUseCase(accRepo, entryRepo)

		report, err := uc.VerifyAll(context.Background(), 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Checked != 2 {
			t.Errorf("expected 2 checked, got %d", report.Checked)
		}
		if len(report.Drifted) != 1 {
			t.Fatalf("expected 1 drifted account, got %d", len(report.Drifted))
		}
		drifted := report.Drifted[0]
		if drifted.AccountID != "acc-2" {
			t.Errorf("expected acc-2 flagged, got %s", drifted.AccountID)
		}
		if drifted.Drift != 20 {
			t.Errorf("expected drift 20, got %d", drifted.Drift)
		}
		if report.Clean() {
			t.Error("a drifted report must not be clean")
		}
	})

	t.Run("isolates per-account failures", func(t *testing.T) {
		accRepo := mocks.NewMockAccountRepository()
		entryRepo := mocks.NewMockEntryRepository()
		seedConsistentAccount(accRepo, entryRepo, "acc-1", 100)
		seedConsistentAccount(accRepo, entryRepo, "acc-2", 200)

		lockErr := errors.New("lock timeout")
		accRepo.GetByIDForUpdateFunc = func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
			if id == "acc-1" {
				return nil, lockErr
			}
			return accRepo.Stored(id), nil
		}

		uc := newReconUseCase(accRepo, entryRepo)

		report, err := uc.VerifyAll(context.Background(), 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Checked != 2 {
			t.Errorf("expected both accounts attempted, got %d", report.Checked)
		}
		if len(report.Failed) != 1 || report.Failed[0].AccountID != "acc-1" {
			t.Fatalf("expected acc-1 recorded as failed, got %+v", report.Failed)
		}
		if !errors.Is(report.Failed[0].Err, lockErr) {
			t.Errorf("expected the lock error preserved, got %v", report.Failed[0].Err)
		}
		if len(report.Drifted) != 0 {
			t.Errorf("expected no drift, got %d", len(report.Drifted))
		}
	})

	t.Run("honors the account limit", func(t *testing.T) {
		accRepo := mocks.NewMockAccountRepository()
		entryRepo := mocks.NewMockEntryRepository()
		for _, id := range []string{"acc-1", "acc-2", "acc-3"} {
			seedConsistentAccount(accRepo, entryRepo, id, 50)
		}

		uc := newReconUseCase(accRepo, entryRepo)

		report, err := uc.VerifyAll(context.Background(), 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Checked != 2 {
			t.Errorf("expected 2 checked, got %d", report.Checked)
		}
	})

	t.Run("listing failure aborts the pass", func(t *testing.T) {
		accRepo := mocks.NewMockAccountRepository()
		accRepo.ListFunc = func(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
			return nil, errors.New("db down")
		}

		uc := newReconUseCase(accRepo, mocks.NewMockEntryRepository())

		if _, err := uc.VerifyAll(context.Background(), 0); err == nil {
			t.Fatal("expected an error")
		}
	})
}
