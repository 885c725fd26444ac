package usecase_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/gotoUSA/django-shopping-mall-sub001/internal/domain"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/usecase"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/usecase/mocks"
)

// TestOutboxPayloadContract checks that every emitted payload decodes into
// the typed event struct published for outbox consumers, field for field.
func TestOutboxPayloadContract(t *testing.T) {
	newEngineWithOutbox := func() (*usecase.Engine, *mocks.MockOutboxRepository) {
		outbox := mocks.NewMockOutboxRepository()
		eng := usecase.NewEngine(usecase.EngineDeps{
			TxManager:   mocks.NewMockTransactionManager(),
			AccountRepo: mocks.NewMockAccountRepository(),
			EntryRepo:   mocks.NewMockEntryRepository(),
			UsageRepo:   mocks.NewMockUsageRepository(),
			OutboxRepo:  outbox,
			IDGen:       mocks.NewMockIDGenerator(),
			Logger:      zerolog.Nop(),
		})
		return eng, outbox
	}

	ctx := context.Background()

	t.Run("point.earned", func(t *testing.T) {
		eng, outbox := newEngineWithOutbox()
		entry, err := eng.Earn.Earn(ctx, usecase.EarnInput{
			AccountID: "acc-1", Amount: 500, OrderRef: "order-1", Note: "first purchase",
		})
		require.NoError(t, err)

		var p domain.PointsEarnedEvent
		decodePayload(t, lastEvent(t, outbox, domain.EventTypePointsEarned).Payload, &p)
		require.Equal(t, domain.PointsEarnedEvent{
			AccountID: "acc-1",
			EntryID:   entry.ID,
			Amount:    500,
			OrderRef:  "order-1",
			Note:      "first purchase",
			ExpiresAt: entry.ExpiresAt.Format(time.RFC3339),
		}, p)
	})

	t.Run("point.granted", func(t *testing.T) {
		eng, outbox := newEngineWithOutbox()
		entry, err := eng.Earn.GrantEvent(ctx, "acc-1", 250, "spring-momo")
		require.NoError(t, err)

		var p domain.PointsGrantedEvent
		decodePayload(t, lastEvent(t, outbox, domain.EventTypePointsGranted).Payload, &p)
		require.Equal(t, domain.PointsGrantedEvent{
			AccountID: "acc-1",
			EntryID:   entry.ID,
			Amount:    250,
			Campaign:  "spring-momo",
			ExpiresAt: entry.ExpiresAt.Format(time.RFC3339),
		}, p)
	})

	t.Run("point.adjusted on admin add", func(t *testing.T) {
		eng, outbox := newEngineWithOutbox()
		entry, err := eng.Earn.AdminAdd(ctx, "acc-1", 120, "goodwill")
		require.NoError(t, err)

		var p domain.PointsAdjustedEvent
		decodePayload(t, lastEvent(t, outbox, domain.EventTypePointsAdjusted).Payload, &p)
		require.Equal(t, domain.PointsAdjustedEvent{
			AccountID: "acc-1",
			EntryID:   entry.ID,
			Amount:    120,
			Reason:    "goodwill",
		}, p)
	})

	t.Run("point.used", func(t *testing.T) {
		eng, outbox := newEngineWithOutbox()
		_, err := eng.Earn.Earn(ctx, usecase.EarnInput{AccountID: "acc-1", Amount: 500})
		require.NoError(t, err)
		entry, err := eng.Spend.Use(ctx, usecase.UseInput{
			AccountID: "acc-1", Amount: 200, OrderRef: "order-2", Note: "checkout discount",
		})
		require.NoError(t, err)

		var p domain.PointsUsedEvent
		decodePayload(t, lastEvent(t, outbox, domain.EventTypePointsUsed).Payload, &p)
		require.Equal(t, domain.PointsUsedEvent{
			AccountID: "acc-1",
			EntryID:   entry.ID,
			Amount:    -200,
			OrderRef:  "order-2",
			Note:      "checkout discount",
			Drawn:     1,
		}, p)
	})

	t.Run("point.adjusted on admin deduct", func(t *testing.T) {
		eng, outbox := newEngineWithOutbox()
		_, err := eng.Earn.Earn(ctx, usecase.EarnInput{AccountID: "acc-1", Amount: 500})
		require.NoError(t, err)
		entry, err := eng.Spend.AdminDeduct(ctx, "acc-1", 150, "fraud rollback")
		require.NoError(t, err)

		var p domain.PointsAdjustedEvent
		decodePayload(t, lastEvent(t, outbox, domain.EventTypePointsAdjusted).Payload, &p)
		require.Equal(t, domain.PointsAdjustedEvent{
			AccountID: "acc-1",
			EntryID:   entry.ID,
			Amount:    -150,
			Reason:    "fraud rollback",
		}, p)
	})

	t.Run("point.reversed", func(t *testing.T) {
		eng, outbox := newEngineWithOutbox()
		_, err := eng.Earn.Earn(ctx, usecase.EarnInput{AccountID: "acc-1", Amount: 500, OrderRef: "order-3"})
		require.NoError(t, err)
		_, err = eng.Spend.Use(ctx, usecase.UseInput{AccountID: "acc-1", Amount: 200, OrderRef: "order-3"})
		require.NoError(t, err)
		res, err := eng.Cancel.ReverseForCancellation(ctx, usecase.ReverseInput{
			AccountID: "acc-1", OrderRef: "order-3", UsedAmount: 200, EarnedAmount: 500,
		})
		require.NoError(t, err)

		var p domain.PointsReversedEvent
		decodePayload(t, lastEvent(t, outbox, domain.EventTypePointsReversed).Payload, &p)
		require.Equal(t, domain.PointsReversedEvent{
			AccountID:  "acc-1",
			OrderRef:   "order-3",
			Refunded:   res.Refunded,
			Restored:   res.Restored,
			ClawedBack: res.ClawedBack,
		}, p)
	})

	t.Run("point.expired", func(t *testing.T) {
		eng, outbox := newEngineWithOutbox()
		accrual, err := eng.Earn.Earn(ctx, usecase.EarnInput{
			AccountID: "acc-1", Amount: 300, Lifetime: 24 * time.Hour,
		})
		require.NoError(t, err)
		_, err = eng.Expiry.ExpireDue(ctx, time.Now().UTC().Add(48*time.Hour), "")
		require.NoError(t, err)

		history, err := eng.Query.History(ctx, "acc-1", 1, "")
		require.NoError(t, err)
		require.Len(t, history, 1)
		require.Equal(t, domain.KindExpireDebit, history[0].Kind)

		var p domain.PointsExpiredEvent
		decodePayload(t, lastEvent(t, outbox, domain.EventTypePointsExpired).Payload, &p)
		require.Equal(t, domain.PointsExpiredEvent{
			AccountID: "acc-1",
			EntryID:   history[0].ID,
			SourceID:  accrual.ID,
			Amount:    -300,
		}, p)
	})
}

func decodePayload(t *testing.T, payload map[string]any, out any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func lastEvent(t *testing.T, outbox *mocks.MockOutboxRepository, eventType string) *domain.OutboxEvent {
	t.Helper()
	events := outbox.All()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].EventType == eventType {
			return events[i]
		}
	}
	t.Fatalf("no %s event emitted", eventType)
	return nil
}
