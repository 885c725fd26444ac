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

func TestUseDrawsEarliestExpiryFirst(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	engine := newEngine(testDB.Pool, nil, nil)
	now := time.Now().UTC()

	accountID := testutil.GenerateID()

	// Three accruals of 100, earned in one order but expiring in reverse:
	// the third to be earned expires first.
	var entries []*domain.Entry
	for range 3 {
		entry, err := engine.Earn.Earn(ctx, usecase.EarnInput{AccountID: accountID, Amount: 100})
		if err != nil {
			t.Fatalf("earn failed: %v", err)
		}
		entries = append(entries, entry)
	}
	testDB.SetExpiry(ctx, entries[0].ID, now.Add(30*24*time.Hour))
	testDB.SetExpiry(ctx, entries[1].ID, now.Add(20*24*time.Hour))
	testDB.SetExpiry(ctx, entries[2].ID, now.Add(10*24*time.Hour))

	useEntry, err := engine.Spend.Use(ctx, usecase.UseInput{
		AccountID: accountID,
		Amount:    150,
		OrderRef:  "order-fifo",
	})
	if err != nil {
		t.Fatalf("use failed: %v", err)
	}
	if useEntry.Amount != -150 {
		t.Errorf("expected use amount -150, got %d", useEntry.Amount)
	}
	if useEntry.BalanceAfter != 150 {
		t.Errorf("expected balance_after 150, got %d", useEntry.BalanceAfter)
	}

	// entries[2] expires first so it is consumed whole, entries[1] covers
	// the rest, entries[0] is untouched.
	drawn := map[string]int64{}
	for _, e := range entries {
		usages, err := engine.Query.UsageHistory(ctx, e.ID)
		if err != nil {
			t.Fatalf("usage history failed: %v", err)
		}
		for _, u := range usages {
			if u.Cause != domain.CauseUse {
				t.Errorf("expected cause %s, got %s", domain.CauseUse, u.Cause)
			}
			if u.UseEntryID != useEntry.ID {
				t.Error("usage should reference the consuming entry")
			}
			drawn[e.ID] += u.Amount
		}
	}

	if drawn[entries[2].ID] != 100 {
		t.Errorf("expected 100 drawn from the earliest expiry, got %d", drawn[entries[2].ID])
	}
	if drawn[entries[1].ID] != 50 {
		t.Errorf("expected 50 drawn from the middle expiry, got %d", drawn[entries[1].ID])
	}
	if drawn[entries[0].ID] != 0 {
		t.Errorf("expected the latest expiry untouched, got %d", drawn[entries[0].ID])
	}
}

func TestUseRejectsShortfallWithoutMutating(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	engine := newEngine(testDB.Pool, nil, nil)
	accountID := testutil.GenerateID()

	if _, err := engine.Earn.Earn(ctx, usecase.EarnInput{AccountID: accountID, Amount: 100}); err != nil {
		t.Fatalf("earn failed: %v", err)
	}

	_, err := engine.Spend.Use(ctx, usecase.UseInput{AccountID: accountID, Amount: 101})
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	balance, err := engine.Query.Balance(ctx, accountID)
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if balance != 100 {
		t.Errorf("failed use must not move the balance, got %d", balance)
	}

	history, err := engine.Query.History(ctx, accountID, 10, "")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("failed use must not append entries, got %d", len(history))
	}
}

func TestUseExactBalanceDrainsToZero(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	engine := newEngine(testDB.Pool, nil, nil)
	accountID := testutil.GenerateID()

	for range 2 {
		if _, err := engine.Earn.Earn(ctx, usecase.EarnInput{AccountID: accountID, Amount: 75}); err != nil {
			t.Fatalf("earn failed: %v", err)
		}
	}

	entry, err := engine.Spend.Use(ctx, usecase.UseInput{AccountID: accountID, Amount: 150})
	if err != nil {
		t.Fatalf("use failed: %v", err)
	}
	if entry.BalanceAfter != 0 {
		t.Errorf("expected balance_after 0, got %d", entry.BalanceAfter)
	}

	result, err := engine.Query.Verify(ctx, accountID)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !result.Consistent || result.Computed != 0 {
		t.Errorf("expected drained consistent account, computed %d drift %d", result.Computed, result.Drift)
	}
}

func TestAdminDeductSharesTheAllocationPath(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	engine := newEngine(testDB.Pool, nil, nil)
	accountID := testutil.GenerateID()

	earned, err := engine.Earn.Earn(ctx, usecase.EarnInput{AccountID: accountID, Amount: 200})
	if err != nil {
		t.Fatalf("earn failed: %v", err)
	}

	entry, err := engine.Spend.AdminDeduct(ctx, accountID, 80, "fraud correction")
	if err != nil {
		t.Fatalf("admin deduct failed: %v", err)
	}
	if entry.Kind != domain.KindAdminDeduct {
		t.Errorf("expected kind %s, got %s", domain.KindAdminDeduct, entry.Kind)
	}

	usages, err := engine.Query.UsageHistory(ctx, earned.ID)
	if err != nil {
		t.Fatalf("usage history failed: %v", err)
	}
	if len(usages) != 1 {
		t.Fatalf("expected 1 usage, got %d", len(usages))
	}
	if usages[0].Cause != domain.CauseAdminDeduct {
		t.Errorf("expected cause %s, got %s", domain.CauseAdminDeduct, usages[0].Cause)
	}
	if usages[0].Amount != 80 {
		t.Errorf("expected 80 drawn, got %d", usages[0].Amount)
	}
}
