package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gotoUSA/django-shopping-mall-sub001/internal/domain"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/usecase"
	"github.com/gotoUSA/django-shopping-mall-sub001/tests/testutil"
)

func TestAccountLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	engine := newEngine(testDB.Pool, nil, nil)

	t.Run("account appears on first accrual", func(t *testing.T) {
		accountID := testutil.GenerateID()

		entry, err := engine.Earn.Earn(ctx, usecase.EarnInput{
			AccountID: accountID,
			Amount:    500,
		})
		if err != nil {
			t.Fatalf("earn failed: %v", err)
		}

		if entry.Kind != domain.KindEarn {
			t.Errorf("expected kind %s, got %s", domain.KindEarn, entry.Kind)
		}
		if entry.BalanceAfter != 500 {
			t.Errorf("expected balance_after 500, got %d", entry.BalanceAfter)
		}
		if entry.ExpiresAt == nil {
			t.Fatal("accrual should carry an expiry")
		}

		balance, err := engine.Query.Balance(ctx, accountID)
		if err != nil {
			t.Fatalf("balance failed: %v", err)
		}
		if balance != 500 {
			t.Errorf("expected balance 500, got %d", balance)
		}
	})

	t.Run("balance of unknown account", func(t *testing.T) {
		_, err := engine.Query.Balance(ctx, testutil.GenerateID())
		if !errors.Is(err, domain.ErrAccountNotFound) {
			t.Errorf("expected ErrAccountNotFound, got %v", err)
		}
	})

	t.Run("spend against unknown account", func(t *testing.T) {
		_, err := engine.Spend.Use(ctx, usecase.UseInput{
			AccountID: testutil.GenerateID(),
			Amount:    100,
		})
		if !errors.Is(err, domain.ErrAccountNotFound) {
			t.Errorf("expected ErrAccountNotFound, got %v", err)
		}
	})

	t.Run("history pages newest first", func(t *testing.T) {
		accountID := testutil.GenerateID()

		for range 3 {
			if _, err := engine.Earn.Earn(ctx, usecase.EarnInput{AccountID: accountID, Amount: 100}); err != nil {
				t.Fatalf("earn failed: %v", err)
			}
		}
		if _, err := engine.Spend.Use(ctx, usecase.UseInput{AccountID: accountID, Amount: 50}); err != nil {
			t.Fatalf("use failed: %v", err)
		}

		page, err := engine.Query.History(ctx, accountID, 2, "")
		if err != nil {
			t.Fatalf("history failed: %v", err)
		}
		if len(page) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(page))
		}
		if page[0].Kind != domain.KindUse {
			t.Errorf("expected newest entry to be the use, got %s", page[0].Kind)
		}
		if page[0].ID < page[1].ID {
			t.Error("expected newest-first ordering")
		}

		rest, err := engine.Query.History(ctx, accountID, 10, page[1].ID)
		if err != nil {
			t.Fatalf("history page 2 failed: %v", err)
		}
		if len(rest) != 2 {
			t.Errorf("expected 2 remaining entries, got %d", len(rest))
		}
		for _, e := range rest {
			if e.ID >= page[1].ID {
				t.Errorf("cursor leaked entry %s into the second page", e.ID)
			}
		}
	})

	t.Run("verify reports a consistent account", func(t *testing.T) {
		accountID := testutil.GenerateID()

		if _, err := engine.Earn.Earn(ctx, usecase.EarnInput{AccountID: accountID, Amount: 300}); err != nil {
			t.Fatalf("earn failed: %v", err)
		}
		if _, err := engine.Spend.Use(ctx, usecase.UseInput{AccountID: accountID, Amount: 120}); err != nil {
			t.Fatalf("use failed: %v", err)
		}

		result, err := engine.Query.Verify(ctx, accountID)
		if err != nil {
			t.Fatalf("verify failed: %v", err)
		}
		if !result.Consistent {
			t.Errorf("expected consistent account, drift %d", result.Drift)
		}
		if result.Balance != 180 || result.Computed != 180 {
			t.Errorf("expected balance and computed 180, got %d and %d", result.Balance, result.Computed)
		}
	})

	t.Run("verify surfaces drift", func(t *testing.T) {
		accountID := testutil.GenerateID()

		if _, err := engine.Earn.Earn(ctx, usecase.EarnInput{AccountID: accountID, Amount: 300}); err != nil {
			t.Fatalf("earn failed: %v", err)
		}

		// Corrupt the projection behind the engine's back.
		if _, err := testDB.Pool.Exec(ctx,
			`UPDATE point_accounts SET balance = balance + 7 WHERE id = $1`, accountID); err != nil {
			t.Fatalf("failed to skew balance: %v", err)
		}

		result, err := engine.Query.Verify(ctx, accountID)
		if err != nil {
			t.Fatalf("verify failed: %v", err)
		}
		if result.Consistent {
			t.Error("expected drift to be detected")
		}
		if result.Drift != 7 {
			t.Errorf("expected drift 7, got %d", result.Drift)
		}
	})

	t.Run("expiring summary covers the horizon", func(t *testing.T) {
		accountID := testutil.GenerateID()

		soon, err := engine.Earn.Earn(ctx, usecase.EarnInput{AccountID: accountID, Amount: 200})
		if err != nil {
			t.Fatalf("earn failed: %v", err)
		}
		if _, err := engine.Earn.Earn(ctx, usecase.EarnInput{AccountID: accountID, Amount: 400}); err != nil {
			t.Fatalf("earn failed: %v", err)
		}
		testDB.SetExpiry(ctx, soon.ID, time.Now().UTC().Add(24*time.Hour))

		summary, err := engine.Query.ExpiringSoon(ctx, accountID, 7*24*time.Hour)
		if err != nil {
			t.Fatalf("expiring soon failed: %v", err)
		}
		if len(summary.Entries) != 1 {
			t.Fatalf("expected 1 expiring entry, got %d", len(summary.Entries))
		}
		if summary.Entries[0].ID != soon.ID {
			t.Errorf("expected entry %s, got %s", soon.ID, summary.Entries[0].ID)
		}
		if summary.Total != 200 {
			t.Errorf("expected total 200, got %d", summary.Total)
		}
	})
}
