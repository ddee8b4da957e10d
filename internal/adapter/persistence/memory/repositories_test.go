package memory

import (
	"context"
	"testing"
	"time"

	"payment_gateway/internal/domain/entities"

	"github.com/stretchr/testify/require"
)

func TestPaymentRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewPaymentRepository()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	p := entities.Payment{
		ID: "pay-1", OrderID: "ord-1", Provider: "sandbox", IdempotencyKey: "key-1",
		Amount: entities.Money{Amount: 1000, Currency: "BRL"}, State: entities.PaymentStatePending, CreatedAt: at,
	}
	_, err := repo.Create(ctx, p)
	require.NoError(t, err)

	t.Run("duplicates are refused", func(t *testing.T) {
		_, err := repo.Create(ctx, p)
		require.ErrorIs(t, err, ErrAlreadyExists)

		other := p
		other.ID = "pay-2"
		_, err = repo.Create(ctx, other)
		require.ErrorIs(t, err, ErrAlreadyExists, "idempotency keys are unique")
	})

	t.Run("lookups", func(t *testing.T) {
		byKey, err := repo.GetByIdempotencyKey(ctx, "key-1")
		require.NoError(t, err)
		require.Equal(t, "pay-1", byKey.ID)

		missing, err := repo.GetByID(ctx, "nope")
		require.NoError(t, err)
		require.Empty(t, missing.ID)

		noRef, err := repo.GetByProviderRef(ctx, "sandbox", "sbx_1")
		require.NoError(t, err)
		require.Empty(t, noRef.ID)
	})

	t.Run("update is a compare and swap on version", func(t *testing.T) {
		current, err := repo.GetByID(ctx, "pay-1")
		require.NoError(t, err)
		current.ProviderRef = "sbx_1"
		current.State = entities.PaymentStateCaptured

		saved, err := repo.Update(ctx, current)
		require.NoError(t, err)
		require.EqualValues(t, 1, saved.Version)

		_, err = repo.Update(ctx, current)
		require.ErrorIs(t, err, entities.ErrVersionConflict)

		byRef, err := repo.GetByProviderRef(ctx, "sandbox", "sbx_1")
		require.NoError(t, err)
		require.Equal(t, entities.PaymentStateCaptured, byRef.State)

		_, err = repo.Update(ctx, entities.Payment{ID: "nope"})
		require.ErrorIs(t, err, entities.ErrPaymentNotFound)
	})

	t.Run("stored copies are isolated", func(t *testing.T) {
		current, err := repo.GetByID(ctx, "pay-1")
		require.NoError(t, err)
		current.Transitions = append(current.Transitions, entities.StateTransition{To: entities.PaymentStateFailed})

		again, err := repo.GetByID(ctx, "pay-1")
		require.NoError(t, err)
		require.Empty(t, again.Transitions)
	})

	t.Run("list by order is sorted by creation", func(t *testing.T) {
		older := entities.Payment{ID: "pay-0", OrderID: "ord-1", CreatedAt: at.Add(-time.Hour)}
		_, err := repo.Create(ctx, older)
		require.NoError(t, err)

		list, err := repo.ListByOrderID(ctx, "ord-1")
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, "pay-0", list[0].ID)
		require.Equal(t, "pay-1", list[1].ID)

		empty, err := repo.ListByOrderID(ctx, "ord-2")
		require.NoError(t, err)
		require.NotNil(t, empty)
		require.Empty(t, empty)
	})
}

func TestRefundRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewRefundRepository()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	first := entities.RefundRecord{ID: "rf-1", PaymentID: "pay-1", IdempotencyKey: "key-1", State: entities.RefundStatePending, CreatedAt: at}
	second := entities.RefundRecord{ID: "rf-2", PaymentID: "pay-1", ProviderRef: "sbx_rf_2", State: entities.RefundStateSettled, CreatedAt: at.Add(time.Minute)}
	for _, rec := range []entities.RefundRecord{second, first} {
		_, err := repo.Create(ctx, rec)
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, first)
	require.ErrorIs(t, err, ErrAlreadyExists)

	sameKey := first
	sameKey.ID = "rf-3"
	_, err = repo.Create(ctx, sameKey)
	require.ErrorIs(t, err, ErrAlreadyExists)

	sameKey.PaymentID = "pay-2"
	_, err = repo.Create(ctx, sameKey)
	require.NoError(t, err)

	list, err := repo.ListByPaymentID(ctx, "pay-1")
	require.NoError(t, err)
	require.Equal(t, []entities.RefundRecord{first, second}, list)

	byKey, err := repo.GetByIdempotencyKey(ctx, "pay-1", "key-1")
	require.NoError(t, err)
	require.Equal(t, "rf-1", byKey.ID)

	otherPayment, err := repo.GetByIdempotencyKey(ctx, "pay-3", "key-1")
	require.NoError(t, err)
	require.Empty(t, otherPayment.ID)

	blank, err := repo.GetByProviderRef(ctx, "pay-1", "")
	require.NoError(t, err)
	require.Empty(t, blank.ID)

	first.State = entities.RefundStateSettled
	_, err = repo.Update(ctx, first)
	require.NoError(t, err)
	got, err := repo.GetByID(ctx, "rf-1")
	require.NoError(t, err)
	require.Equal(t, entities.RefundStateSettled, got.State)

	_, err = repo.Update(ctx, entities.RefundRecord{ID: "rf-9"})
	require.ErrorIs(t, err, entities.ErrRefundNotFound)
}

func TestOrderRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()

	_, err := repo.Create(ctx, entities.Order{ID: "ord-1", Status: entities.OrderStatusOpen})
	require.NoError(t, err)
	_, err = repo.Create(ctx, entities.Order{ID: "ord-1"})
	require.ErrorIs(t, err, ErrAlreadyExists)

	updated, err := repo.UpdateStatus(ctx, "ord-1", entities.OrderStatusFulfilled)
	require.NoError(t, err)
	require.Equal(t, entities.OrderStatusFulfilled, updated.Status)
	require.False(t, updated.UpdatedAt.IsZero())

	missing, err := repo.UpdateStatus(ctx, "ord-2", entities.OrderStatusFulfilled)
	require.NoError(t, err)
	require.Empty(t, missing.ID)
}

func TestWebhookEventRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewWebhookEventRepository()

	rejected := entities.WebhookEvent{ID: "evt-1", Provider: "sandbox", Outcome: entities.WebhookOutcomeRejected}
	accepted := rejected
	accepted.Outcome = entities.WebhookOutcomeAccepted

	require.NoError(t, repo.Save(ctx, rejected))
	require.NoError(t, repo.Save(ctx, accepted))
	require.NoError(t, repo.Save(ctx, rejected))

	got, err := repo.Get(ctx, "sandbox", "evt-1")
	require.NoError(t, err)
	require.Equal(t, entities.WebhookOutcomeAccepted, got.Outcome)

	require.NoError(t, repo.Save(ctx, entities.WebhookEvent{ID: "evt-1", Provider: "mercadopago"}))
	require.Equal(t, 2, repo.Len())

	none, err := repo.Get(ctx, "sandbox", "evt-2")
	require.NoError(t, err)
	require.Empty(t, none.ID)
}
